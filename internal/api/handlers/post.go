package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/dynasty-blog/dynasty/internal/domain"
	"github.com/dynasty-blog/dynasty/internal/service"
	"github.com/dynasty-blog/dynasty/pkg/logger"
	"github.com/dynasty-blog/dynasty/pkg/response"
)

// PostHandler serves the reader-facing post endpoints
type PostHandler struct {
	postService *service.PostService
	logger      *logger.Logger
}

// NewPostHandler creates a new post handler
func NewPostHandler(postService *service.PostService, logger *logger.Logger) *PostHandler {
	return &PostHandler{
		postService: postService,
		logger:      logger.WithComponent("post-handler"),
	}
}

// List returns a page of published posts, optionally filtered by ?tag=
func (h *PostHandler) List(c *gin.Context) {
	parser := NewQueryParamParser(c)
	h.list(c, parser.String("tag", ""), parser.Page())
}

// ListByTag returns a page of published posts carrying the tag in the path
func (h *PostHandler) ListByTag(c *gin.Context) {
	parser := NewQueryParamParser(c)
	h.list(c, c.Param("slug"), parser.Page())
}

func (h *PostHandler) list(c *gin.Context, tagSlug string, page int) {
	result, err := h.postService.List(c.Request.Context(), page, tagSlug)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Paginated(c, result.Posts, result.Page)
}

// Detail returns a published post addressed by publish date and slug
func (h *PostHandler) Detail(c *gin.Context) {
	parser := NewQueryParamParser(c)
	year := parser.PathInt("year")
	month := parser.PathInt("month")
	day := parser.PathInt("day")
	if parser.Error() != nil {
		response.NotFound(c, domain.ErrPostNotFound.Error())
		return
	}

	detail, err := h.postService.Detail(c.Request.Context(), year, month, day, c.Param("slug"))
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, detail)
}

// Latest returns the newest published posts and the published total
func (h *PostHandler) Latest(c *gin.Context) {
	parser := NewQueryParamParser(c)
	count := parser.Int("count", 0, 1, 100)
	if err := parser.Error(); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	posts, total, err := h.postService.Latest(c.Request.Context(), count)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, gin.H{
		"posts": posts,
		"total": total,
	})
}

// Similar returns published posts ranked by shared tags
func (h *PostHandler) Similar(c *gin.Context) {
	parser := NewQueryParamParser(c)
	id := parser.ID("id")
	if parser.Error() != nil {
		response.NotFound(c, domain.ErrPostNotFound.Error())
		return
	}

	posts, err := h.postService.Similar(c.Request.Context(), id)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, posts)
}

// Tags lists every tag
func (h *PostHandler) Tags(c *gin.Context) {
	tags, err := h.postService.Tags(c.Request.Context())
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, tags)
}
