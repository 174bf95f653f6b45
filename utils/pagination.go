package utils

const (
	DefaultPage     = 1
	DefaultPageSize = 100
	MaxPageSize     = 100
)

// Pagination represents page/pageSize query parameters
type Pagination struct {
	Page     int
	PageSize int
}

// Offset returns the number of rows to skip
func (p Pagination) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// NewPagination applies the defaults to the optional page and pageSize
// query values. Their ranges are enforced by binding tags on the request.
func NewPagination(page, pageSize *int) Pagination {
	p := Pagination{Page: DefaultPage, PageSize: DefaultPageSize}
	if page != nil {
		p.Page = *page
	}
	if pageSize != nil {
		p.PageSize = *pageSize
	}
	return p
}
