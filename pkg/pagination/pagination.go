// Package pagination resolves page requests against a known item count.
package pagination

import (
	"errors"
	"strconv"
	"strings"
)

// ErrOutOfRange is returned under the Strict policy for pages past the end
var ErrOutOfRange = errors.New("page out of range")

// Policy selects what happens when a requested page exceeds the page count
type Policy string

const (
	// Clamp serves the last valid page
	Clamp Policy = "clamp"
	// Strict reports ErrOutOfRange
	Strict Policy = "error"
)

// ParsePolicy converts a configuration value into a Policy
func ParsePolicy(s string) (Policy, error) {
	switch Policy(strings.ToLower(strings.TrimSpace(s))) {
	case Clamp, "":
		return Clamp, nil
	case Strict:
		return Strict, nil
	default:
		return "", errors.New("pagination policy must be 'clamp' or 'error'")
	}
}

// Page describes one resolved page of a result set
type Page struct {
	Number     int `json:"page"`
	Size       int `json:"page_size"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// Offset is the index of the first item on the page
func (p Page) Offset() int {
	return (p.Number - 1) * p.Size
}

// HasNext reports whether a page follows this one
func (p Page) HasNext() bool {
	return p.Number < p.TotalPages
}

// HasPrevious reports whether a page precedes this one
func (p Page) HasPrevious() bool {
	return p.Number > 1
}

// ParseNumber reads a raw page parameter. Missing or non-numeric input
// yields 1.
func ParseNumber(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 1
	}
	return n
}

// PageCount returns the number of pages needed for total items. An empty
// set still has one (empty) page.
func PageCount(total, size int) int {
	if size < 1 {
		size = 1
	}
	if total <= 0 {
		return 1
	}
	pages := total / size
	if total%size > 0 {
		pages++
	}
	return pages
}

// Resolve maps a requested page number onto the available pages. Numbers
// below 1 resolve to the first page.
func Resolve(requested, size, total int, policy Policy) (Page, error) {
	if size < 1 {
		size = 1
	}
	pages := PageCount(total, size)

	number := requested
	if number < 1 {
		number = 1
	}
	if number > pages {
		if policy == Strict {
			return Page{}, ErrOutOfRange
		}
		number = pages
	}

	return Page{
		Number:     number,
		Size:       size,
		Total:      total,
		TotalPages: pages,
	}, nil
}
