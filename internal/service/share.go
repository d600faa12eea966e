package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/dynasty-blog/dynasty/internal/domain"
	"github.com/dynasty-blog/dynasty/internal/mail"
	"github.com/dynasty-blog/dynasty/internal/repository"
	"github.com/dynasty-blog/dynasty/internal/validator"
	"github.com/dynasty-blog/dynasty/pkg/logger"
)

// ShareResult reports the outcome of a share request. Post is always set
// once the post resolved, even when delivery failed.
type ShareResult struct {
	Post  *domain.Post `json:"post"`
	URL   string       `json:"url"`
	To    string       `json:"to"`
	Sent  bool         `json:"sent"`
	Error string       `json:"error,omitempty"`
}

// ShareService emails post recommendations
type ShareService struct {
	postRepo  repository.PostRepository
	mailer    mail.Mailer
	from      string
	validator *validator.Validator
	opts      BlogOptions
	logger    *logger.Logger
}

// NewShareService creates a new share service. from is the envelope sender;
// the reader's address is used as reply-to.
func NewShareService(
	postRepo repository.PostRepository,
	mailer mail.Mailer,
	from string,
	validator *validator.Validator,
	opts BlogOptions,
	logger *logger.Logger,
) *ShareService {
	opts = opts.withDefaults()
	return &ShareService{
		postRepo:  postRepo,
		mailer:    mailer,
		from:      from,
		validator: validator,
		opts:      opts,
		logger:    logger.WithComponent("share-service"),
	}
}

// Share sends the recommendation email. siteURL is the scheme and host the
// post link is built on. A delivery failure returns a populated result
// together with an error wrapping domain.ErrEmailDelivery.
func (s *ShareService) Share(ctx context.Context, postID int64, req *domain.ShareRequest, siteURL string) (*ShareResult, error) {
	post, err := s.postRepo.GetPublished(ctx, postID)
	if err != nil {
		return nil, err
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	req.To = strings.TrimSpace(req.To)
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	postURL := strings.TrimRight(siteURL, "/") + post.CanonicalPath(s.opts.Location)
	result := &ShareResult{Post: post, URL: postURL, To: req.To}

	msg := &mail.Message{
		From:    s.from,
		To:      []string{req.To},
		ReplyTo: req.Email,
		Subject: ShareSubject(req.Name, req.Email, post.Title),
		Body:    ShareBody(req.Name, post.Title, postURL, req.Comments),
	}

	if err := s.mailer.Send(ctx, msg); err != nil {
		s.logger.Warn("Share email failed", "post_id", postID, "error", err)
		result.Error = fmt.Sprintf("Could not send email: %v", err)
		return result, err
	}

	result.Sent = true
	s.logger.Info("Post shared", "post_id", postID)
	return result, nil
}

// ShareSubject formats the recommendation subject line
func ShareSubject(name, email, title string) string {
	return fmt.Sprintf("%s (%s) recommends you read %s", name, email, title)
}

// ShareBody formats the recommendation body
func ShareBody(name, title, url, comments string) string {
	return fmt.Sprintf("Read “%s” at %s\n\n%s's comments:\n%s", title, url, name, comments)
}
