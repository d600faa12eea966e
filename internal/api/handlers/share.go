package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/dynasty-blog/dynasty/internal/domain"
	"github.com/dynasty-blog/dynasty/internal/service"
	"github.com/dynasty-blog/dynasty/pkg/logger"
	"github.com/dynasty-blog/dynasty/pkg/response"
)

// ShareHandler handles "recommend this post" submissions
type ShareHandler struct {
	shareService *service.ShareService
	site         SiteURL
	logger       *logger.Logger
}

// NewShareHandler creates a new share handler
func NewShareHandler(shareService *service.ShareService, site SiteURL, logger *logger.Logger) *ShareHandler {
	return &ShareHandler{
		shareService: shareService,
		site:         site,
		logger:       logger.WithComponent("share-handler"),
	}
}

// Share emails a post link. A delivery failure answers 502 with the post
// payload and the failure message.
func (h *ShareHandler) Share(c *gin.Context) {
	parser := NewQueryParamParser(c)
	postID := parser.ID("id")
	if parser.Error() != nil {
		response.NotFound(c, domain.ErrPostNotFound.Error())
		return
	}

	var req domain.ShareRequest
	if err := c.ShouldBind(&req); err != nil {
		req = domain.ShareRequest{}
	}

	siteURL, err := h.site.Resolve(c)
	if err != nil {
		h.logger.Warn("Rejected share link host", "host", c.Request.Host)
		response.FromError(c, err)
		return
	}

	result, err := h.shareService.Share(c.Request.Context(), postID, &req, siteURL)
	if err != nil {
		if result != nil {
			response.ErrorWithData(c, response.StatusFor(err), result.Error, result)
			return
		}
		response.FromError(c, err)
		return
	}

	response.Success(c, result)
}
