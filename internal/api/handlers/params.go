package handlers

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/dynasty-blog/dynasty/pkg/pagination"
)

// QueryParamParser provides helpers for parsing and validating request parameters
type QueryParamParser struct {
	c   *gin.Context
	err error
}

// NewQueryParamParser creates a new parameter parser
func NewQueryParamParser(c *gin.Context) *QueryParamParser {
	return &QueryParamParser{c: c}
}

// Error returns the first parsing error that occurred
func (p *QueryParamParser) Error() error {
	return p.err
}

// Page reads the page query parameter. Missing or non-numeric values read
// as the first page; range handling is left to the pagination policy.
func (p *QueryParamParser) Page() int {
	return pagination.ParseNumber(p.c.Query("page"))
}

// Int reads an optional integer query parameter bounded to [min, max]
func (p *QueryParamParser) Int(key string, defaultValue, min, max int) int {
	if p.err != nil {
		return defaultValue
	}

	raw := strings.TrimSpace(p.c.Query(key))
	if raw == "" {
		return defaultValue
	}

	n, err := strconv.Atoi(raw)
	if err != nil {
		p.err = fmt.Errorf("invalid '%s' parameter: must be a number", key)
		return defaultValue
	}
	if n < min {
		n = min
	}
	if n > max {
		n = max
	}
	return n
}

// String gets a query parameter with optional default
func (p *QueryParamParser) String(key, defaultValue string) string {
	if p.err != nil {
		return defaultValue
	}

	value := strings.TrimSpace(p.c.Query(key))
	if value == "" {
		return defaultValue
	}
	return value
}

// ID reads a positive integer path parameter
func (p *QueryParamParser) ID(name string) int64 {
	if p.err != nil {
		return 0
	}

	id, err := strconv.ParseInt(p.c.Param(name), 10, 64)
	if err != nil || id < 1 {
		p.err = fmt.Errorf("invalid '%s' parameter", name)
		return 0
	}
	return id
}

// PathInt reads an integer path parameter
func (p *QueryParamParser) PathInt(name string) int {
	if p.err != nil {
		return 0
	}

	n, err := strconv.Atoi(p.c.Param(name))
	if err != nil {
		p.err = fmt.Errorf("invalid '%s' parameter", name)
		return 0
	}
	return n
}
