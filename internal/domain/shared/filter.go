package shared

// Filter is the paging and ordering part of a list query.
// A zero PageSize means every matching row.
type Filter struct {
	Page     int
	PageSize int
	OrderBy  string
	OrderDir string
}

// Paged reports whether the query is limited to one page.
func (f Filter) Paged() bool { return f.PageSize > 0 }

// Offset is the number of rows before Page; pages start at 1.
func (f Filter) Offset() int {
	if !f.Paged() || f.Page < 2 {
		return 0
	}
	return (f.Page - 1) * f.PageSize
}
