package handlers

import (
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/dynasty-blog/dynasty/pkg/response"
)

// PagesHandler serves static informational pages
type PagesHandler struct {
	dir string
}

// NewPagesHandler serves <dir>/<name>.html
func NewPagesHandler(dir string) *PagesHandler {
	return &PagesHandler{dir: dir}
}

// Page returns a handler for the named page
func (h *PagesHandler) Page(name string) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := filepath.Join(h.dir, name+".html")
		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			response.NotFound(c, "page not found")
			return
		}
		c.File(path)
	}
}
