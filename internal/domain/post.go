package domain

import (
	"fmt"
	"time"
)

// PostStatus is the visibility state of a post
type PostStatus string

const (
	StatusDraft     PostStatus = "DF"
	StatusPublished PostStatus = "PB"
)

// Label returns the human readable status name
func (s PostStatus) Label() string {
	switch s {
	case StatusDraft:
		return "Draft"
	case StatusPublished:
		return "Published"
	default:
		return string(s)
	}
}

// Valid reports whether s is a known status
func (s PostStatus) Valid() bool {
	return s == StatusDraft || s == StatusPublished
}

// Post represents a blog post
type Post struct {
	ID        int64      `json:"id" db:"id"`
	Title     string     `json:"title" db:"title"`
	Slug      string     `json:"slug" db:"slug"`
	Author    *Author    `json:"author" db:"-"`
	Body      string     `json:"body" db:"body"`
	Image     string     `json:"-" db:"image"`
	Audio     string     `json:"-" db:"audio"`
	Video     string     `json:"-" db:"video"`
	Published time.Time  `json:"published" db:"published"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
	Status    PostStatus `json:"status" db:"status"`
	Tags      []*Tag     `json:"tags" db:"-"`

	// Media holds public URLs of the stored attachments, keyed by kind
	Media map[AttachmentKind]string `json:"media,omitempty" db:"-"`
}

// IsPublished reports whether the post is visible to anonymous readers
func (p *Post) IsPublished() bool {
	return p.Status == StatusPublished
}

// TagIDs returns the identifiers of the post's tags
func (p *Post) TagIDs() []int64 {
	ids := make([]int64, 0, len(p.Tags))
	for _, t := range p.Tags {
		ids = append(ids, t.ID)
	}
	return ids
}

// TagNames returns the labels of the post's tags
func (p *Post) TagNames() []string {
	names := make([]string, 0, len(p.Tags))
	for _, t := range p.Tags {
		names = append(names, t.Name)
	}
	return names
}

// PublishDate returns the calendar date of publication in loc, formatted
// as YYYY-MM-DD. Slugs are unique per publish date.
func (p *Post) PublishDate(loc *time.Location) string {
	return p.Published.In(loc).Format("2006-01-02")
}

// CanonicalPath returns the detail path of the post, built from its
// publish date in loc.
func (p *Post) CanonicalPath(loc *time.Location) string {
	t := p.Published.In(loc)
	return fmt.Sprintf("/blog/%d/%d/%d/%s", t.Year(), int(t.Month()), t.Day(), p.Slug)
}

// Attachment returns the stored reference for kind
func (p *Post) Attachment(kind AttachmentKind) string {
	switch kind {
	case AttachmentImage:
		return p.Image
	case AttachmentAudio:
		return p.Audio
	case AttachmentVideo:
		return p.Video
	}
	return ""
}

// SetAttachment stores ref for kind
func (p *Post) SetAttachment(kind AttachmentKind, ref string) {
	switch kind {
	case AttachmentImage:
		p.Image = ref
	case AttachmentAudio:
		p.Audio = ref
	case AttachmentVideo:
		p.Video = ref
	}
}

// PostCreateRequest represents a request to create a post
type PostCreateRequest struct {
	Title     string     `json:"title" form:"title" validate:"required,max=250"`
	Slug      string     `json:"slug" form:"slug" validate:"omitempty,max=250"`
	Body      string     `json:"body" form:"body" validate:"required"`
	Status    PostStatus `json:"status" form:"status" validate:"omitempty,oneof=DF PB"`
	Published *time.Time `json:"published" form:"published"`
	Tags      []string   `json:"tags" form:"tags" validate:"omitempty,dive,required,max=100"`
}

// PostUpdateRequest represents a partial update of a post
type PostUpdateRequest struct {
	Title     *string     `json:"title" validate:"omitempty,min=1,max=250"`
	Slug      *string     `json:"slug" validate:"omitempty,min=1,max=250"`
	Body      *string     `json:"body" validate:"omitempty,min=1"`
	Status    *PostStatus `json:"status" validate:"omitempty,oneof=DF PB"`
	Published *time.Time  `json:"published"`
	Tags      []string    `json:"tags" validate:"omitempty,dive,required,max=100"`
}

// PostListFilter represents filters for listing posts
type PostListFilter struct {
	TagSlug  string
	AuthorID string
	// IncludeDrafts is only honoured by the authoring API
	IncludeDrafts bool
	Offset        int
	Limit         int
}

// PostDetail is the reader-facing view of a single post
type PostDetail struct {
	Post     *Post      `json:"post"`
	BodyHTML string     `json:"body_html"`
	URL      string     `json:"url"`
	Comments []*Comment `json:"comments"`
	Similar  []*Post    `json:"similar"`
}

// ScoredPost is a search hit
type ScoredPost struct {
	*Post
	Score float64 `json:"score,omitempty"`
}
