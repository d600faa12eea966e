package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dynasty-blog/dynasty/internal/api/middleware"
	"github.com/dynasty-blog/dynasty/internal/domain"
	"github.com/dynasty-blog/dynasty/internal/service"
	"github.com/dynasty-blog/dynasty/pkg/logger"
	"github.com/dynasty-blog/dynasty/pkg/response"
)

// uploadOverhead covers the multipart framing around the file
const uploadOverhead = 64 << 10

// AuthorHandler serves the authoring API. Every route runs behind
// AuthMiddleware.
type AuthorHandler struct {
	postService *service.PostService
	logger      *logger.Logger
}

// NewAuthorHandler creates a new author handler
func NewAuthorHandler(postService *service.PostService, logger *logger.Logger) *AuthorHandler {
	return &AuthorHandler{
		postService: postService,
		logger:      logger.WithComponent("author-handler"),
	}
}

// List pages through the caller's posts, drafts included
func (h *AuthorHandler) List(c *gin.Context) {
	parser := NewQueryParamParser(c)

	result, err := h.postService.ListForAuthor(c.Request.Context(), middleware.GetActor(c), parser.Page())
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Paginated(c, result.Posts, result.Page)
}

// Create handles post creation
func (h *AuthorHandler) Create(c *gin.Context) {
	var req domain.PostCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	post, err := h.postService.Create(c.Request.Context(), &req, middleware.GetActor(c))
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Created(c, post)
}

// Get returns one of the caller's posts
func (h *AuthorHandler) Get(c *gin.Context) {
	id, ok := h.postID(c)
	if !ok {
		return
	}

	post, err := h.postService.GetForAuthor(c.Request.Context(), id, middleware.GetActor(c))
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, post)
}

// Update handles partial post updates
func (h *AuthorHandler) Update(c *gin.Context) {
	id, ok := h.postID(c)
	if !ok {
		return
	}

	var req domain.PostUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	post, err := h.postService.Update(c.Request.Context(), id, &req, middleware.GetActor(c))
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, post)
}

// Delete removes a post with its comments and attachments
func (h *AuthorHandler) Delete(c *gin.Context) {
	id, ok := h.postID(c)
	if !ok {
		return
	}

	if err := h.postService.Delete(c.Request.Context(), id, middleware.GetActor(c)); err != nil {
		response.FromError(c, err)
		return
	}

	response.SuccessWithMessage(c, "Post deleted successfully", nil)
}

// UploadMedia stores the multipart "file" in the post's slot for :kind
func (h *AuthorHandler) UploadMedia(c *gin.Context) {
	id, ok := h.postID(c)
	if !ok {
		return
	}

	kind, err := domain.ParseAttachmentKind(c.Param("kind"))
	if err != nil {
		response.FromError(c, err)
		return
	}

	// Reject oversized bodies before the multipart form is spooled to disk
	limit := h.postService.MaxUploadBytes()
	if c.Request.ContentLength > limit+uploadOverhead {
		response.FromError(c, domain.AttachmentTooLarge(kind, limit))
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit+uploadOverhead)

	header, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.FromError(c, domain.AttachmentTooLarge(kind, limit))
			return
		}
		response.FromError(c, domain.NewValidationError(string(kind), "No file was submitted."))
		return
	}

	file, err := header.Open()
	if err != nil {
		h.logger.Error("Failed to open upload", "error", err)
		response.InternalServerError(c, "Failed to process upload")
		return
	}
	defer file.Close()

	post, err := h.postService.AttachMedia(
		c.Request.Context(),
		id,
		kind,
		header.Filename,
		header.Header.Get("Content-Type"),
		file,
		header.Size,
		middleware.GetActor(c),
	)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, post)
}

// RemoveMedia clears the post's slot for :kind
func (h *AuthorHandler) RemoveMedia(c *gin.Context) {
	id, ok := h.postID(c)
	if !ok {
		return
	}

	kind, err := domain.ParseAttachmentKind(c.Param("kind"))
	if err != nil {
		response.FromError(c, err)
		return
	}

	post, err := h.postService.RemoveMedia(c.Request.Context(), id, kind, middleware.GetActor(c))
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, post)
}

func (h *AuthorHandler) postID(c *gin.Context) (int64, bool) {
	parser := NewQueryParamParser(c)
	id := parser.ID("id")
	if parser.Error() != nil {
		response.NotFound(c, domain.ErrPostNotFound.Error())
		return 0, false
	}
	return id, true
}
