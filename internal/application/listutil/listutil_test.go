package listutil

import (
	"net/url"
	"slices"
	"testing"
)

// TestParsePageParams_Defaults verifies default page params when no query values provided.
func TestParsePageParams_Defaults(t *testing.T) {
	p := ParsePageParams(url.Values{})
	if p.Page != 1 {
		t.Errorf("expected page 1, got %d", p.Page)
	}
	if p.PerPage != DefaultPerPage {
		t.Errorf("expected per_page %d, got %d", DefaultPerPage, p.PerPage)
	}
}

// TestParsePageParams_Valid verifies correct parsing of valid page and per_page values.
func TestParsePageParams_Valid(t *testing.T) {
	q := url.Values{"page": {"3"}, "per_page": {"50"}}
	p := ParsePageParams(q)
	if p.Page != 3 {
		t.Errorf("expected page 3, got %d", p.Page)
	}
	if p.PerPage != 50 {
		t.Errorf("expected per_page 50, got %d", p.PerPage)
	}
}

// TestParsePageParams_InvalidPerPage verifies fallback to default for invalid per_page.
func TestParsePageParams_InvalidPerPage(t *testing.T) {
	q := url.Values{"per_page": {"33"}}
	p := ParsePageParams(q)
	if p.PerPage != DefaultPerPage {
		t.Errorf("expected default per_page %d for invalid value, got %d", DefaultPerPage, p.PerPage)
	}
}

// TestParseSortParams verifies column allowlisting and direction defaults.
func TestParseSortParams(t *testing.T) {
	allowed := []string{"nombre", "cedula"}
	tests := []struct {
		name string
		q    url.Values
		want SortParams
	}{
		{"valid", url.Values{"sort": {"nombre"}, "dir": {"desc"}}, SortParams{"nombre", Desc}},
		{"disallowed column", url.Values{"sort": {"password"}}, SortParams{"", Asc}},
		{"invalid dir", url.Values{"sort": {"cedula"}, "dir": {"DROP TABLE"}}, SortParams{"cedula", Asc}},
		{"empty", url.Values{}, SortParams{"", Asc}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseSortParams(tt.q, allowed); got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

// TestSortParams_Toggle verifies header clicks flip or reset the direction.
func TestSortParams_Toggle(t *testing.T) {
	tests := []struct {
		name   string
		start  SortParams
		column string
		want   SortParams
	}{
		{"unsorted column starts asc", SortParams{}, "nombre", SortParams{"nombre", Asc}},
		{"same column flips to desc", SortParams{"nombre", Asc}, "nombre", SortParams{"nombre", Desc}},
		{"same column flips back to asc", SortParams{"nombre", Desc}, "nombre", SortParams{"nombre", Asc}},
		{"new column resets to asc", SortParams{"nombre", Desc}, "cedula", SortParams{"cedula", Asc}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.start.Toggle(tt.column); got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

// TestSortParams_OrAndQuery verifies defaults and link encoding.
func TestSortParams_OrAndQuery(t *testing.T) {
	def := SortParams{"fecha", Desc}
	if got := (SortParams{Dir: Asc}).Or(def); got != def {
		t.Errorf("expected default, got %+v", got)
	}
	if got := (SortParams{"nombre", Asc}).Or(def); got.Sort != "nombre" {
		t.Errorf("expected chosen column kept, got %+v", got)
	}
	if enc := (SortParams{"nombre", Desc}).Query().Encode(); enc != "dir=desc&sort=nombre" {
		t.Errorf("unexpected query %q", enc)
	}
	if enc := (SortParams{}).Query().Encode(); enc != "" {
		t.Errorf("expected empty query, got %q", enc)
	}
}

// TestParseFilterParams verifies filters are trimmed and restricted to known keys.
func TestParseFilterParams(t *testing.T) {
	q := url.Values{"cedula": {"  123 "}, "nombre": {"   "}, "unknown": {"x"}}
	f := ParseFilterParams(q, []string{"cedula", "nombre"})
	if f.Get("cedula") != "123" {
		t.Errorf("expected cedula=123, got %q", f.Get("cedula"))
	}
	if _, ok := f.Filters["nombre"]; ok {
		t.Error("blank filter should be dropped")
	}
	if _, ok := f.Filters["unknown"]; ok {
		t.Error("unexpected filter key 'unknown'")
	}
	if !f.Active() {
		t.Error("expected Active with one filter")
	}
	if ParseFilterParams(url.Values{}, []string{"cedula"}).Active() {
		t.Error("expected inactive with no filters")
	}
}

// TestNewPageInfo verifies pagination metadata computation.
func TestNewPageInfo(t *testing.T) {
	tests := []struct {
		name       string
		page       int
		perPage    int
		total      int
		wantPages  int
		wantPage   int
		wantStart  int
		wantEnd    int
		wantOffset int
	}{
		{"basic", 1, 20, 85, 5, 1, 1, 20, 0},
		{"page2", 2, 20, 85, 5, 2, 21, 40, 20},
		{"lastPage", 5, 20, 85, 5, 5, 81, 85, 80},
		{"pageBeyondTotal", 10, 20, 85, 5, 5, 81, 85, 80},
		{"emptyList", 1, 20, 0, 1, 1, 0, 0, 0},
		{"zeroPerPage", 1, 0, 150, 2, 1, 1, 100, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pi := NewPageInfo(tt.page, tt.perPage, tt.total)
			if pi.TotalPages != tt.wantPages {
				t.Errorf("TotalPages: got %d, want %d", pi.TotalPages, tt.wantPages)
			}
			if pi.Page != tt.wantPage {
				t.Errorf("Page: got %d, want %d", pi.Page, tt.wantPage)
			}
			if pi.StartRow() != tt.wantStart {
				t.Errorf("StartRow: got %d, want %d", pi.StartRow(), tt.wantStart)
			}
			if pi.EndRow() != tt.wantEnd {
				t.Errorf("EndRow: got %d, want %d", pi.EndRow(), tt.wantEnd)
			}
			if pi.Offset() != tt.wantOffset {
				t.Errorf("Offset: got %d, want %d", pi.Offset(), tt.wantOffset)
			}
		})
	}
}

// TestPageNumbers verifies page number window generation.
func TestPageNumbers(t *testing.T) {
	tests := []struct {
		name string
		page int
		tot  int
		want []int
	}{
		{"3pages_at1", 1, 3, []int{1, 2, 3}},
		{"10pages_at5", 5, 10, []int{3, 4, 5, 6, 7}},
		{"10pages_at10", 10, 10, []int{6, 7, 8, 9, 10}},
		{"1page", 1, 1, []int{1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewPageInfo(tt.page, 20, tt.tot*20).PageNumbers()
			if !slices.Equal(got, tt.want) {
				t.Errorf("PageNumbers: got %v, want %v", got, tt.want)
			}
		})
	}
}

// TestShowPagination verifies pagination visibility logic.
func TestShowPagination(t *testing.T) {
	if NewPageInfo(1, 20, 20).ShowPagination() {
		t.Error("should not show pagination for a single page")
	}
	if !NewPageInfo(1, 20, 21).ShowPagination() {
		t.Error("should show pagination when more than one page")
	}
}

type row struct {
	id     int
	nombre string
	cedula string
}

var rowColumns = map[string]Column[row]{
	"nombre": func(r row) string { return r.nombre },
	"cedula": func(r row) string { return r.cedula },
}

func ids(rows []row) []int {
	out := make([]int, len(rows))
	for i, r := range rows {
		out[i] = r.id
	}
	return out
}

// TestSortRows verifies Spanish collation, numeric digit runs and stability.
func TestSortRows(t *testing.T) {
	rows := []row{
		{1, "Zoe", "10"},
		{2, "ángel", "9"},
		{3, "Andrés", "200"},
		{4, "Ñañez", "9"},
		{5, "Núñez", "30"},
		{6, "beto", "10"},
		{7, "Oscar", ""},
	}

	tests := []struct {
		name string
		sort SortParams
		want []int
	}{
		{"nombre asc", SortParams{"nombre", Asc}, []int{3, 2, 6, 5, 4, 7, 1}},
		{"nombre desc", SortParams{"nombre", Desc}, []int{1, 7, 4, 5, 6, 2, 3}},
		{"cedula asc numeric and stable", SortParams{"cedula", Asc}, []int{7, 2, 4, 1, 6, 5, 3}},
		{"unknown column keeps order", SortParams{"email", Asc}, []int{1, 2, 3, 4, 5, 6, 7}},
		{"unsorted keeps order", SortParams{}, []int{1, 2, 3, 4, 5, 6, 7}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ids(SortRows(rows, tt.sort, rowColumns))
			if !slices.Equal(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

// TestSortRows_IsPermutation verifies sorting never adds, drops or mutates rows.
func TestSortRows_IsPermutation(t *testing.T) {
	rows := []row{{1, "b", ""}, {2, "a", ""}, {3, "c", ""}}
	before := slices.Clone(rows)

	got := SortRows(rows, SortParams{"nombre", Asc}, rowColumns)
	if !slices.Equal(rows, before) {
		t.Error("input slice was mutated")
	}
	gotIDs := ids(got)
	slices.Sort(gotIDs)
	if !slices.Equal(gotIDs, []int{1, 2, 3}) {
		t.Errorf("not a permutation: %v", gotIDs)
	}
}
