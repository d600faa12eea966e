package domain

import "time"

// Comment represents a reader comment on a post
type Comment struct {
	ID        int64     `json:"id" db:"id"`
	PostID    int64     `json:"post_id" db:"post_id"`
	Name      string    `json:"name" db:"name"`
	Email     string    `json:"email" db:"email"`
	Body      string    `json:"body" db:"body"`
	CreatedAt time.Time `json:"created" db:"created"`
	UpdatedAt time.Time `json:"updated" db:"updated"`
	Active    bool      `json:"active" db:"active"`
}

// CommentCreateRequest is the anonymous comment form
type CommentCreateRequest struct {
	Name  string `json:"name" form:"name" validate:"required,max=80"`
	Email string `json:"email" form:"email" validate:"required,email"`
	Body  string `json:"body" form:"body" validate:"required"`
}

// CommentModerationRequest toggles the moderation gate of a comment
type CommentModerationRequest struct {
	Active *bool `json:"active" validate:"required"`
}

// ShareRequest is the "recommend this post" form
type ShareRequest struct {
	Name     string `json:"name" form:"name" validate:"required,max=25"`
	Email    string `json:"email" form:"email" validate:"required,email"`
	To       string `json:"to" form:"to" validate:"required,email"`
	Comments string `json:"comments" form:"comments"`
}
