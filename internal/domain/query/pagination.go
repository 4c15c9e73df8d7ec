package query

const (
	// DefaultPageSize applies when the caller does not set a page size.
	DefaultPageSize = 20
	// MaxPageSize caps any requested page size.
	MaxPageSize = 100
)

// Pagination carries clamped page/pageSize values.
type Pagination struct {
	Page     int
	PageSize int
}

// NewPagination clamps page to >=1 and pageSize to [1,MaxPageSize].
// A zero pageSize falls back to DefaultPageSize.
func NewPagination(page, pageSize int) Pagination {
	if page < 1 {
		page = 1
	}
	if pageSize == 0 {
		pageSize = DefaultPageSize
	}
	if pageSize < 1 {
		pageSize = 1
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return Pagination{Page: page, PageSize: pageSize}
}

// Offset returns the row offset for the current page.
func (p Pagination) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// Limit returns the row limit for the current page.
func (p Pagination) Limit() int {
	return p.PageSize
}

// ClampLimit bounds a requested limit to [1,ceiling]. Zero or negative
// requests fall back to the ceiling.
func ClampLimit(requested, ceiling int) int {
	if ceiling < 1 {
		ceiling = 1
	}
	if requested < 1 {
		return ceiling
	}
	if requested > ceiling {
		return ceiling
	}
	return requested
}
