package listutil

import (
	"net/url"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// PageParams carries pagination parameters parsed from a request.
type PageParams struct {
	Page    int // 1-indexed page number
	PerPage int // rows per page
}

// Sort directions.
const (
	Asc  = "asc"
	Desc = "desc"
)

// SortParams carries sorting parameters parsed from a request.
type SortParams struct {
	Sort string // column name
	Dir  string // "asc" or "desc"
}

// FilterParams carries trimmed filter values keyed by query parameter name.
type FilterParams struct {
	Filters map[string]string
}

// PageInfo carries pagination metadata for rendering.
type PageInfo struct {
	Page       int // current page (1-indexed)
	PerPage    int // rows per page
	Total      int // total matching rows
	TotalPages int // ceil(Total / PerPage)
}

// ListParams combines all list view parameters.
type ListParams struct {
	PageParams
	SortParams
	FilterParams
}

// DefaultPerPage is the default number of rows per page.
const DefaultPerPage = 100

// PerPageOptions are the allowed rows-per-page values.
var PerPageOptions = []int{25, 50, 100, 200}

// ParsePageParams extracts page and per_page from URL query values.
// PRE: none
// POST: returns valid PageParams with defaults applied
func ParsePageParams(q url.Values) PageParams {
	page, _ := strconv.Atoi(q.Get("page"))
	if page < 1 {
		page = 1
	}
	perPage, _ := strconv.Atoi(q.Get("per_page"))
	if !slices.Contains(PerPageOptions, perPage) {
		perPage = DefaultPerPage
	}
	return PageParams{Page: page, PerPage: perPage}
}

// ParseSortParams extracts sort and dir from URL query values.
// PRE: none
// POST: returns SortParams; Dir is always "asc" or "desc"
func ParseSortParams(q url.Values, allowedColumns []string) SortParams {
	sort := q.Get("sort")
	dir := q.Get("dir")

	if !slices.Contains(allowedColumns, sort) {
		sort = ""
	}
	if dir != Asc && dir != Desc {
		dir = Asc
	}
	return SortParams{Sort: sort, Dir: dir}
}

// Or returns def when no column was chosen.
func (s SortParams) Or(def SortParams) SortParams {
	if s.Sort == "" {
		return def
	}
	return s
}

// Toggle returns the sort after a click on column's header.
// PRE: none
// POST: same column flips direction; a different column starts ascending
func (s SortParams) Toggle(column string) SortParams {
	if s.Sort == column {
		if s.Dir == Asc {
			return SortParams{Sort: column, Dir: Desc}
		}
		return SortParams{Sort: column, Dir: Asc}
	}
	return SortParams{Sort: column, Dir: Asc}
}

// IsDesc reports whether the direction is descending.
func (s SortParams) IsDesc() bool { return s.Dir == Desc }

// Query encodes the sort as URL query values.
func (s SortParams) Query() url.Values {
	q := url.Values{}
	if s.Sort != "" {
		q.Set("sort", s.Sort)
		q.Set("dir", s.Dir)
	}
	return q
}

// ParseFilterParams extracts named filters from URL query values.
// PRE: filterKeys lists the allowed filter parameter names
// POST: returns FilterParams with only recognised keys; values are trimmed and empty ones dropped
func ParseFilterParams(q url.Values, filterKeys []string) FilterParams {
	fp := FilterParams{Filters: make(map[string]string)}
	for _, key := range filterKeys {
		if v := strings.TrimSpace(q.Get(key)); v != "" {
			fp.Filters[key] = v
		}
	}
	return fp
}

// Get returns the filter value for key, or "".
func (f FilterParams) Get(key string) string {
	return f.Filters[key]
}

// Active reports whether any filter is set.
func (f FilterParams) Active() bool {
	return len(f.Filters) > 0
}

// ParseListParams parses all list parameters from URL query values.
func ParseListParams(q url.Values, allowedSortCols []string, filterKeys []string) ListParams {
	return ListParams{
		PageParams:   ParsePageParams(q),
		SortParams:   ParseSortParams(q, allowedSortCols),
		FilterParams: ParseFilterParams(q, filterKeys),
	}
}

// NewPageInfo computes pagination metadata.
// PRE: total >= 0, perPage > 0, page >= 1
// POST: returns PageInfo with TotalPages computed; Page clamped to valid range
func NewPageInfo(page, perPage, total int) PageInfo {
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	totalPages := (total + perPage - 1) / perPage
	if totalPages < 1 {
		totalPages = 1
	}
	if page > totalPages {
		page = totalPages
	}
	if page < 1 {
		page = 1
	}
	return PageInfo{
		Page:       page,
		PerPage:    perPage,
		Total:      total,
		TotalPages: totalPages,
	}
}

// Offset returns the number of rows before the current page.
// PRE: PageInfo is valid
// POST: Returns (Page-1) * PerPage
func (p PageInfo) Offset() int {
	return (p.Page - 1) * p.PerPage
}

// StartRow returns the 1-indexed first row number on the current page.
// PRE: PageInfo is valid
// POST: Returns 0 if Total is 0, otherwise Offset+1
func (p PageInfo) StartRow() int {
	if p.Total == 0 {
		return 0
	}
	return p.Offset() + 1
}

// EndRow returns the 1-indexed last row number on the current page.
// PRE: PageInfo is valid
// POST: Returns min(Offset+PerPage, Total)
func (p PageInfo) EndRow() int {
	end := p.Offset() + p.PerPage
	if end > p.Total {
		end = p.Total
	}
	return end
}

// PageNumbers returns the page numbers to display in pagination controls.
// Shows at most 5 pages centered around the current page.
// PRE: PageInfo is valid
// POST: Returns slice of at most 5 page numbers centered on current page
func (p PageInfo) PageNumbers() []int {
	const maxButtons = 5
	start := p.Page - maxButtons/2
	if start < 1 {
		start = 1
	}
	end := start + maxButtons - 1
	if end > p.TotalPages {
		end = p.TotalPages
		start = end - maxButtons + 1
		if start < 1 {
			start = 1
		}
	}
	pages := make([]int, 0, end-start+1)
	for i := start; i <= end; i++ {
		pages = append(pages, i)
	}
	return pages
}

// ShowPagination returns true if pagination controls should be displayed.
// PRE: PageInfo is valid
// POST: Returns true if TotalPages > 1
func (p PageInfo) ShowPagination() bool {
	return p.TotalPages > 1
}

// Column extracts the sortable text of one column from a row.
type Column[T any] func(T) string

// SortRows returns a sorted copy of rows.
// Text is compared with Spanish collation, ignoring case and ordering digit runs numerically.
// PRE: columns maps every sortable column name to its extractor
// POST: rows is untouched; the result is a stable permutation of rows; unknown columns keep input order
func SortRows[T any](rows []T, s SortParams, columns map[string]Column[T]) []T {
	out := slices.Clone(rows)
	key, ok := columns[s.Sort]
	if !ok {
		return out
	}
	col := collate.New(language.Spanish, collate.IgnoreCase, collate.Numeric)
	slices.SortStableFunc(out, func(a, b T) int {
		c := col.CompareString(key(a), key(b))
		if s.IsDesc() {
			return -c
		}
		return c
	})
	return out
}
