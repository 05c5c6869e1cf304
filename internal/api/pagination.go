package api

import (
	"net/http"
	"strconv"
)

// DefaultPerPage is the page size used when the client does not ask for
// one; MaxPerPage caps what the client may ask for.
const (
	DefaultPerPage = 25
	MaxPerPage     = 100
)

// PaginationParams holds parsed pagination query parameters.
type PaginationParams struct {
	Page    int
	PerPage int
}

// ParsePagination extracts page and per_page from the request query.
// Invalid or out-of-range values fall back to the defaults.
func ParsePagination(r *http.Request) PaginationParams {
	q := r.URL.Query()
	p := PaginationParams{
		Page:    positiveIntOr(q.Get("page"), 1),
		PerPage: positiveIntOr(q.Get("per_page"), DefaultPerPage),
	}
	if p.PerPage > MaxPerPage {
		p.PerPage = MaxPerPage
	}
	return p
}

func positiveIntOr(value string, fallback int) int {
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

// Offset returns the database offset for the current page.
func (p PaginationParams) Offset() int {
	return (p.Page - 1) * p.PerPage
}

// TotalPages calculates the total number of pages for a given total count.
func (p PaginationParams) TotalPages(total int64) int {
	if p.PerPage <= 0 {
		return 0
	}
	pages := int(total) / p.PerPage
	if int(total)%p.PerPage > 0 {
		pages++
	}
	return pages
}
