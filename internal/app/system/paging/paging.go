// internal/app/system/paging/paging.go
package paging

import (
	"net/http"
	"strconv"

	"github.com/dalemusser/waffle/pantry/query"
)

// DefaultPageSize is the number of rows returned when the client does not
// ask for a limit.
const DefaultPageSize = 20

// MaxPageSize caps client-requested limits.
const MaxPageSize = 100

// Page is a parsed page/limit pair (1-based page).
type Page struct {
	Page  int
	Limit int
}

// Skip returns the number of documents to skip for Mongo Find().SetSkip().
func (p Page) Skip() int64 {
	return int64((p.Page - 1) * p.Limit)
}

// Limit64 returns the limit as int64 for Mongo Find().SetLimit().
func (p Page) Limit64() int64 {
	return int64(p.Limit)
}

// Parse reads "page" and "limit" query parameters, clamping out-of-range
// values rather than rejecting them.
func Parse(r *http.Request) Page {
	p := Page{Page: 1, Limit: DefaultPageSize}

	if raw := query.Get(r, "page"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			p.Page = n
		}
	}
	if raw := query.Get(r, "limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			if n > MaxPageSize {
				n = MaxPageSize
			}
			p.Limit = n
		}
	}
	return p
}

// Meta is the pagination block appended to list responses.
type Meta struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
}

// NewMeta computes the response metadata for a page and total count.
func NewMeta(p Page, total int64) Meta {
	pages := int((total + int64(p.Limit) - 1) / int64(p.Limit))
	if pages < 1 {
		pages = 1
	}
	return Meta{Page: p.Page, Limit: p.Limit, Total: total, TotalPages: pages}
}
