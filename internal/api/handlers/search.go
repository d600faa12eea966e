package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/dynasty-blog/dynasty/internal/service"
	"github.com/dynasty-blog/dynasty/pkg/logger"
	"github.com/dynasty-blog/dynasty/pkg/response"
)

// SearchHandler handles search requests
type SearchHandler struct {
	searchService *service.SearchService
	logger        *logger.Logger
}

// NewSearchHandler creates a new search handler
func NewSearchHandler(searchService *service.SearchService, logger *logger.Logger) *SearchHandler {
	return &SearchHandler{
		searchService: searchService,
		logger:        logger.WithComponent("search-handler"),
	}
}

// Search handles ?query= (or ?q=) over published posts
func (h *SearchHandler) Search(c *gin.Context) {
	parser := NewQueryParamParser(c)
	query := parser.String("query", parser.String("q", ""))

	result, err := h.searchService.Search(c.Request.Context(), query)
	if err != nil {
		h.logger.Error("Search failed", "query", query, "error", err)
		response.FromError(c, err)
		return
	}

	response.Success(c, result)
}
