package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/gosimple/slug"

	"github.com/dynasty-blog/dynasty/internal/domain"
)

const maxSlugLength = 250

// Create creates a post owned by actor
func (s *PostService) Create(ctx context.Context, req *domain.PostCreateRequest, actor *domain.Actor) (*domain.Post, error) {
	if actor == nil {
		return nil, domain.ErrUnauthorized
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	postSlug, err := makeSlug(req.Title, req.Slug)
	if err != nil {
		return nil, err
	}

	tags, err := makeTags(req.Tags)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	post := &domain.Post{
		Title:     strings.TrimSpace(req.Title),
		Slug:      postSlug,
		Author:    &domain.Author{ID: actor.UserID, Username: actor.Username},
		Body:      req.Body,
		Published: now,
		CreatedAt: now,
		UpdatedAt: now,
		Status:    domain.StatusDraft,
		Tags:      tags,
	}
	if req.Published != nil {
		post.Published = req.Published.UTC()
	}
	if req.Status != "" {
		post.Status = req.Status
	}

	if err := s.postRepo.Create(ctx, post); err != nil {
		if errors.Is(err, domain.ErrSlugConflict) {
			return nil, slugConflict()
		}
		s.logger.Error("Failed to create post", "author_id", actor.UserID, "error", err)
		return nil, err
	}

	s.reindex(ctx, post)

	s.logger.Info("Post created", "post_id", post.ID, "slug", post.Slug, "status", string(post.Status))

	return s.reload(ctx, post.ID)
}

// Update applies a partial update to a post the actor may edit
func (s *PostService) Update(ctx context.Context, id int64, req *domain.PostUpdateRequest, actor *domain.Actor) (*domain.Post, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	post, err := s.loadEditable(ctx, id, actor)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		post.Title = strings.TrimSpace(*req.Title)
	}
	if req.Slug != nil {
		post.Slug, err = makeSlug(post.Title, *req.Slug)
		if err != nil {
			return nil, err
		}
	}
	if req.Body != nil {
		post.Body = *req.Body
	}
	if req.Status != nil {
		post.Status = *req.Status
	}
	if req.Published != nil {
		post.Published = req.Published.UTC()
	}
	if req.Tags != nil {
		post.Tags, err = makeTags(req.Tags)
		if err != nil {
			return nil, err
		}
	}
	post.UpdatedAt = time.Now().UTC()

	if err := s.postRepo.Update(ctx, post); err != nil {
		if errors.Is(err, domain.ErrSlugConflict) {
			return nil, slugConflict()
		}
		s.logger.Error("Failed to update post", "post_id", id, "error", err)
		return nil, err
	}

	s.reindex(ctx, post)
	s.invalidate(ctx, post.ID)

	s.logger.Info("Post updated", "post_id", post.ID, "status", string(post.Status))

	return s.reload(ctx, post.ID)
}

// Delete removes a post, its comments and its attachments
func (s *PostService) Delete(ctx context.Context, id int64, actor *domain.Actor) error {
	post, err := s.loadEditable(ctx, id, actor)
	if err != nil {
		return err
	}

	if err := s.postRepo.Delete(ctx, id); err != nil {
		s.logger.Error("Failed to delete post", "post_id", id, "error", err)
		return err
	}

	for _, kind := range domain.AttachmentKinds {
		s.removeStored(ctx, post.Attachment(kind))
	}
	s.unindex(ctx, id)
	s.invalidate(ctx, id)

	s.logger.Info("Post deleted", "post_id", id)
	return nil
}

// GetForAuthor returns any post the actor may edit, drafts included
func (s *PostService) GetForAuthor(ctx context.Context, id int64, actor *domain.Actor) (*domain.Post, error) {
	post, err := s.loadEditable(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	s.decorate(post)
	return post, nil
}

// ListForAuthor pages through the actor's posts, drafts included. Staff
// see every post.
func (s *PostService) ListForAuthor(ctx context.Context, actor *domain.Actor, requestedPage int) (*PostPage, error) {
	if actor == nil {
		return nil, domain.ErrUnauthorized
	}

	filter := &domain.PostListFilter{IncludeDrafts: true}
	if !actor.IsStaff {
		filter.AuthorID = actor.UserID
	}

	posts, page, err := s.page(ctx, filter, requestedPage)
	if err != nil {
		return nil, err
	}
	return &PostPage{Posts: posts, Page: page}, nil
}

// AttachMedia validates and stores an upload in the post's slot for kind,
// replacing any previous file
func (s *PostService) AttachMedia(
	ctx context.Context,
	id int64,
	kind domain.AttachmentKind,
	filename, contentType string,
	r io.Reader,
	size int64,
	actor *domain.Actor,
) (*domain.Post, error) {
	post, err := s.loadEditable(ctx, id, actor)
	if err != nil {
		return nil, err
	}

	if err := domain.ValidateAttachment(kind, filename, size, s.opts.MaxUploadBytes); err != nil {
		return nil, err
	}

	ref, err := s.store.Save(ctx, kind, filename, contentType, r, size)
	if err != nil {
		s.logger.Error("Failed to store attachment", "post_id", id, "kind", string(kind), "error", err)
		return nil, err
	}

	if err := s.postRepo.SetAttachment(ctx, id, kind, ref); err != nil {
		s.removeStored(ctx, ref)
		return nil, err
	}
	s.removeStored(ctx, post.Attachment(kind))

	s.logger.Info("Attachment stored", "post_id", id, "kind", string(kind), "backend", s.store.Name())

	return s.reload(ctx, id)
}

// RemoveMedia clears the post's slot for kind
func (s *PostService) RemoveMedia(ctx context.Context, id int64, kind domain.AttachmentKind, actor *domain.Actor) (*domain.Post, error) {
	post, err := s.loadEditable(ctx, id, actor)
	if err != nil {
		return nil, err
	}

	old := post.Attachment(kind)
	if old == "" {
		s.decorate(post)
		return post, nil
	}

	if err := s.postRepo.SetAttachment(ctx, id, kind, ""); err != nil {
		return nil, err
	}
	s.removeStored(ctx, old)

	return s.reload(ctx, id)
}

func (s *PostService) removeStored(ctx context.Context, ref string) {
	if ref == "" || s.store == nil {
		return
	}
	if err := s.store.Remove(ctx, ref); err != nil {
		s.logger.Warn("Failed to remove stored attachment", "ref", ref, "error", err)
	}
}

func (s *PostService) reload(ctx context.Context, id int64) (*domain.Post, error) {
	post, err := s.postRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.decorate(post)
	return post, nil
}

// makeSlug validates an explicit slug or derives one from the title
func makeSlug(title, given string) (string, error) {
	given = strings.TrimSpace(given)
	if given != "" {
		if len(given) > maxSlugLength || !slug.IsSlug(given) {
			return "", domain.NewValidationError("slug",
				"Enter a valid slug consisting of lowercase letters, numbers, underscores or hyphens.")
		}
		return given, nil
	}

	derived := slug.Make(title)
	if len(derived) > maxSlugLength {
		derived = strings.Trim(derived[:maxSlugLength], "-")
	}
	if derived == "" {
		return "", domain.NewValidationError("slug", "could not derive a slug from the title; set one explicitly")
	}
	return derived, nil
}

// makeTags normalises tag names, dropping blanks and duplicates by slug
func makeTags(names []string) ([]*domain.Tag, error) {
	tags := make([]*domain.Tag, 0, len(names))
	seen := make(map[string]bool, len(names))

	for i, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		tagSlug := slug.Make(name)
		if tagSlug == "" {
			return nil, domain.NewValidationError(fmt.Sprintf("tags[%d]", i), "tag must contain letters or numbers")
		}
		if seen[tagSlug] {
			continue
		}
		seen[tagSlug] = true
		tags = append(tags, &domain.Tag{Name: name, Slug: tagSlug})
	}
	return tags, nil
}

func slugConflict() error {
	return &domain.ValidationErrors{
		Err:    domain.ErrSlugConflict,
		Fields: map[string]string{"slug": "Slug must be unique for the publish date."},
	}
}
