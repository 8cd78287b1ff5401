package utils

import "strconv"

const (
	// DefaultPageSize matches the listing endpoints' historical page size.
	DefaultPageSize = 5
	// MaxPageSize caps page_size from the query string.
	MaxPageSize = 100
)

// Pagination carries the page window for a list query.
type Pagination struct {
	Page     int
	PageSize int
}

// NewPagination parses page and page_size query values, falling back to sane
// defaults on anything non-numeric or out of range.
func NewPagination(pageStr, pageSizeStr string) Pagination {
	page, err := strconv.Atoi(pageStr)
	if err != nil || page < 1 {
		page = 1
	}

	pageSize, err := strconv.Atoi(pageSizeStr)
	if err != nil || pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}

	return Pagination{Page: page, PageSize: pageSize}
}

// Offset returns the SQL offset for the window.
func (p Pagination) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// PaginatedResponse is the envelope every listing endpoint returns.
type PaginatedResponse struct {
	Page       int         `json:"page"`
	PageSize   int         `json:"page_size"`
	TotalItems int         `json:"total_items"`
	TotalPages int         `json:"total_pages"`
	Next       *int        `json:"next"`
	Previous   *int        `json:"previous"`
	Results    interface{} `json:"results"`
}

// Envelope wraps results with pagination metadata.
func (p Pagination) Envelope(results interface{}, totalItems int) PaginatedResponse {
	totalPages := (totalItems + p.PageSize - 1) / p.PageSize

	resp := PaginatedResponse{
		Page:       p.Page,
		PageSize:   p.PageSize,
		TotalItems: totalItems,
		TotalPages: totalPages,
		Results:    results,
	}

	if p.Page < totalPages {
		next := p.Page + 1
		resp.Next = &next
	}
	if p.Page > 1 {
		prev := p.Page - 1
		resp.Previous = &prev
	}

	return resp
}
