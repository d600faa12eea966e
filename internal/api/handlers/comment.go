package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/dynasty-blog/dynasty/internal/api/middleware"
	"github.com/dynasty-blog/dynasty/internal/domain"
	"github.com/dynasty-blog/dynasty/internal/service"
	"github.com/dynasty-blog/dynasty/pkg/logger"
	"github.com/dynasty-blog/dynasty/pkg/response"
)

// CommentHandler handles comment submission and moderation
type CommentHandler struct {
	commentService *service.CommentService
	logger         *logger.Logger
}

// NewCommentHandler creates a new comment handler
func NewCommentHandler(commentService *service.CommentService, logger *logger.Logger) *CommentHandler {
	return &CommentHandler{
		commentService: commentService,
		logger:         logger.WithComponent("comment-handler"),
	}
}

// Create adds an anonymous comment to a published post. Accepts a form or
// JSON body. An unreadable body is treated as an empty form so that a draft
// or missing post still answers 404.
func (h *CommentHandler) Create(c *gin.Context) {
	parser := NewQueryParamParser(c)
	postID := parser.ID("id")
	if parser.Error() != nil {
		response.NotFound(c, domain.ErrPostNotFound.Error())
		return
	}

	var req domain.CommentCreateRequest
	if err := c.ShouldBind(&req); err != nil {
		req = domain.CommentCreateRequest{}
	}

	comment, err := h.commentService.Create(c.Request.Context(), postID, &req)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Created(c, comment)
}

// List returns the active comments of a published post
func (h *CommentHandler) List(c *gin.Context) {
	parser := NewQueryParamParser(c)
	postID := parser.ID("id")
	if parser.Error() != nil {
		response.NotFound(c, domain.ErrPostNotFound.Error())
		return
	}

	comments, err := h.commentService.ListActive(c.Request.Context(), postID)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, comments)
}

// Moderate shows or hides a comment
func (h *CommentHandler) Moderate(c *gin.Context) {
	parser := NewQueryParamParser(c)
	id := parser.ID("id")
	if parser.Error() != nil {
		response.NotFound(c, domain.ErrCommentNotFound.Error())
		return
	}

	var req domain.CommentModerationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	comment, err := h.commentService.SetActive(c.Request.Context(), id, &req, middleware.GetActor(c))
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, comment)
}
