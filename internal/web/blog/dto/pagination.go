package dto

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/blogcms/blog-api/internal/web/blog/model"
)

const (
	// DefaultPageLimit page size when `limit` is absent
	DefaultPageLimit = 10
	// MaxPageLimit largest accepted `limit`
	MaxPageLimit = 50
)

// PageInfo pagination block shared by every paginated response.
type PageInfo struct {
	CurrentPage int64 `json:"currentPage"`
	TotalPages  int64 `json:"totalPages"`
	HasNextPage bool  `json:"hasNextPage"`
	HasPrevPage bool  `json:"hasPrevPage"`
	Limit       int64 `json:"limit"`
}

// NewPageInfo derives the block from the total count, not from the size of
// the returned page.
func NewPageInfo(page, limit, total int64) PageInfo {
	var totalPages int64
	if limit > 0 {
		totalPages = (total + limit - 1) / limit
	}

	return PageInfo{
		CurrentPage: page,
		TotalPages:  totalPages,
		HasNextPage: page < totalPages,
		HasPrevPage: page > 1,
		Limit:       limit,
	}
}

// PostPagination pagination of post lists
type PostPagination struct {
	PageInfo
	TotalPosts int64 `json:"totalPosts"`
}

// CommentPagination pagination of comment lists, counts root comments
type CommentPagination struct {
	PageInfo
	TotalComments int64 `json:"totalComments"`
}

// Page requested window
type Page struct {
	Page, Limit int64
}

// Skip number of documents before the window
func (p Page) Skip() int64 {
	return (p.Page - 1) * p.Limit
}

// ParsePage reads `page` and `limit` from q. Absent values take defaults,
// present values outside [1, maxLimit] are errors recorded into verr.
func ParsePage(q url.Values, defaultLimit, maxLimit int64, verr *model.ValidationError) Page {
	p := Page{Page: 1, Limit: defaultLimit}
	if raw := strings.TrimSpace(q.Get("page")); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n < 1 {
			verr.Add("page", "must be a positive integer")
		} else {
			p.Page = n
		}
	}

	if raw := strings.TrimSpace(q.Get("limit")); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n < 1 || n > maxLimit {
			verr.Add("limit", "must be an integer between 1 and %d", maxLimit)
		} else {
			p.Limit = n
		}
	}

	return p
}
