package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dynasty-blog/dynasty/internal/domain"
	"github.com/dynasty-blog/dynasty/internal/repository"
	"github.com/dynasty-blog/dynasty/internal/validator"
	"github.com/dynasty-blog/dynasty/pkg/logger"
)

// CommentService handles reader comments and their moderation
type CommentService struct {
	commentRepo repository.CommentRepository
	postRepo    repository.PostRepository
	validator   *validator.Validator
	logger      *logger.Logger
}

// NewCommentService creates a new comment service
func NewCommentService(
	commentRepo repository.CommentRepository,
	postRepo repository.PostRepository,
	validator *validator.Validator,
	logger *logger.Logger,
) *CommentService {
	return &CommentService{
		commentRepo: commentRepo,
		postRepo:    postRepo,
		validator:   validator,
		logger:      logger.WithComponent("comment-service"),
	}
}

// Create attaches an anonymous comment to a published post. The post is
// resolved before the form is validated, so a draft or missing post is
// reported as not found even when the form is also invalid.
func (s *CommentService) Create(ctx context.Context, postID int64, req *domain.CommentCreateRequest) (*domain.Comment, error) {
	if _, err := s.postRepo.GetPublished(ctx, postID); err != nil {
		return nil, err
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	comment := &domain.Comment{
		PostID:    postID,
		Name:      req.Name,
		Email:     req.Email,
		Body:      req.Body,
		CreatedAt: now,
		UpdatedAt: now,
		Active:    true,
	}

	if err := s.commentRepo.CreateOnPublished(ctx, comment); err != nil {
		if !errors.Is(err, domain.ErrPostNotFound) {
			s.logger.Error("Failed to create comment", "post_id", postID, "error", err)
		}
		return nil, err
	}

	s.logger.Info("Comment added", "post_id", postID, "comment_id", comment.ID)
	return comment, nil
}

// ListActive returns the visible comments of a published post, oldest first
func (s *CommentService) ListActive(ctx context.Context, postID int64) ([]*domain.Comment, error) {
	if _, err := s.postRepo.GetPublished(ctx, postID); err != nil {
		return nil, err
	}
	return s.commentRepo.ListByPost(ctx, postID, true)
}

// SetActive shows or hides a comment. Only an actor who may edit the post
// can moderate its comments.
func (s *CommentService) SetActive(ctx context.Context, id int64, req *domain.CommentModerationRequest, actor *domain.Actor) (*domain.Comment, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	comment, err := s.commentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	post, err := s.postRepo.GetByID(ctx, comment.PostID)
	if err != nil {
		return nil, err
	}
	if !actor.CanEdit(post) {
		return nil, domain.ErrForbidden
	}

	if err := s.commentRepo.SetActive(ctx, id, *req.Active); err != nil {
		return nil, err
	}

	s.logger.Info("Comment moderated", "comment_id", id, "active", *req.Active)
	return s.commentRepo.GetByID(ctx, id)
}
