package internal

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/MarkStreek/QuintorCatalogFrontEnd/internal/listview"
)

type navColumn struct {
	Label     string
	Href      string
	Active    bool
	Direction listview.Direction
}

type navLink struct {
	Label   string
	Href    string
	Current bool
}

// tableNav holds the links of a rendered table: sortable headers, page
// numbers and page sizes, each carrying the rest of the table state.
type tableNav struct {
	Path        string
	Filter      string
	Sort        listview.Sort
	RowsPerPage int
	Columns     []navColumn
	Pages       []navLink
	RowsOptions []navLink
	Prev        string
	Next        string
	ClearHref   string
	Page        int
	TotalPages  int
	Total       int
	Empty       bool
	EmptyText   string
}

func buildNav[T any](path string, view listview.View[T], s listview.State, p listview.Page[T]) tableNav {
	s.Page = p.Page
	href := func(extra ...string) string {
		return path + "?" + listQuery(s, extra...)
	}

	nav := tableNav{
		Path:        path,
		Filter:      s.Filter,
		Sort:        s.Sort,
		RowsPerPage: p.RowsPerPage,
		ClearHref:   href(paramFilter, "", paramPage, ""),
		Page:        p.Page,
		TotalPages:  p.TotalPages,
		Total:       p.Total,
		Empty:       p.Empty,
		EmptyText:   p.EmptyText,
	}

	for _, c := range view.Columns {
		active := s.Sort.Column == c.Key
		next := listview.Ascending
		if active && s.Sort.Direction == listview.Ascending {
			next = listview.Descending
		}
		nav.Columns = append(nav.Columns, navColumn{
			Label:     c.Label,
			Href:      href(paramSort, c.Key, paramDir, string(next)),
			Active:    active,
			Direction: s.Sort.Direction,
		})
	}

	for _, n := range p.Pages() {
		nav.Pages = append(nav.Pages, navLink{
			Label:   strconv.Itoa(n),
			Href:    href(paramPage, strconv.Itoa(n)),
			Current: n == p.Page,
		})
	}
	if p.HasPrev() {
		nav.Prev = href(paramPage, strconv.Itoa(p.Page-1))
	}
	if p.HasNext() {
		nav.Next = href(paramPage, strconv.Itoa(p.Page+1))
	}

	// a new page size starts again at page 1
	for _, n := range s.RowsOptions() {
		nav.RowsOptions = append(nav.RowsOptions, navLink{
			Label:   strconv.Itoa(n),
			Href:    href(paramRows, strconv.Itoa(n), paramPage, ""),
			Current: n == p.RowsPerPage,
		})
	}
	return nav
}

// pageJSON is the JSON rendition of a table page
type pageJSON[T any] struct {
	Rows        []T    `json:"rows"`
	Page        int    `json:"page"`
	TotalPages  int    `json:"total_pages"`
	Total       int    `json:"total"`
	RowsPerPage int    `json:"rows_per_page"`
	Empty       bool   `json:"empty"`
	EmptyText   string `json:"empty_text"`
}

func toPageJSON[T any](p listview.Page[T]) pageJSON[T] {
	rows := p.Rows
	if rows == nil {
		rows = []T{}
	}
	return pageJSON[T]{
		Rows:        rows,
		Page:        p.Page,
		TotalPages:  p.TotalPages,
		Total:       p.Total,
		RowsPerPage: p.RowsPerPage,
		Empty:       p.Empty,
		EmptyText:   p.EmptyText,
	}
}

// sendView answers a /api/views request with the page of items r asks for
func sendView[T any](w http.ResponseWriter, r *http.Request, view listview.View[T], items []T) {
	_, page := applyList(r, view, items)
	writeJSON(w, http.StatusOK, toPageJSON(page))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
