package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dynasty-blog/dynasty/internal/service"
	"github.com/dynasty-blog/dynasty/pkg/logger"
	"github.com/dynasty-blog/dynasty/pkg/response"
)

// FeedHandler serves the RSS feed
type FeedHandler struct {
	feedService *service.FeedService
	site        SiteURL
	logger      *logger.Logger
}

// NewFeedHandler creates a new feed handler
func NewFeedHandler(feedService *service.FeedService, site SiteURL, logger *logger.Logger) *FeedHandler {
	return &FeedHandler{
		feedService: feedService,
		site:        site,
		logger:      logger.WithComponent("feed-handler"),
	}
}

// RSS renders the newest published posts as RSS 2.0
func (h *FeedHandler) RSS(c *gin.Context) {
	siteURL, err := h.site.Resolve(c)
	if err != nil {
		response.FromError(c, err)
		return
	}

	rss, err := h.feedService.RSS(c.Request.Context(), siteURL)
	if err != nil {
		h.logger.Error("Failed to build feed", "error", err)
		response.FromError(c, err)
		return
	}

	c.Data(http.StatusOK, "application/rss+xml; charset=utf-8", []byte(rss))
}
