package internal

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/MarkStreek/QuintorCatalogFrontEnd/internal/listview"
)

// Query parameters of list pages
const (
	paramFilter = "q"
	paramSearch = "search"
	paramSort   = "sort"
	paramDir    = "dir"
	paramPage   = "page"
	paramRows   = "rows"
)

// parseListState rebuilds the table state of view from the query string.
// The values go through the state transitions, so an unknown sort column is
// ignored, a rows value outside the view's options keeps the default and the
// page is requested afterwards against totalPages.
// The legacy ?search= parameter seeds the filter when q is absent.
func parseListState[T any](r *http.Request, view listview.View[T]) (listview.State, int) {
	values := r.URL.Query()
	s := view.NewState()

	filter := values.Get(paramFilter)
	if filter == "" {
		filter = values.Get(paramSearch)
	}
	s.SetFilter(filter)

	if col := strings.TrimSpace(values.Get(paramSort)); col != "" {
		if _, ok := view.Column(col); ok {
			s.SetSort(col, listview.ParseDirection(values.Get(paramDir)))
		}
	}

	if v, err := strconv.Atoi(strings.TrimSpace(values.Get(paramRows))); err == nil {
		s.SetRowsPerPage(v)
	}

	page := 1
	if v, err := strconv.Atoi(strings.TrimSpace(values.Get(paramPage))); err == nil {
		page = v
	}
	return s, page
}

// applyList derives the page of items requested by r
func applyList[T any](r *http.Request, view listview.View[T], items []T) (listview.State, listview.Page[T]) {
	s, page := parseListState(r, view)
	first := view.Apply(items, s)
	if s.SetPage(page, first.TotalPages) {
		return s, view.Apply(items, s)
	}
	return s, first
}

// listQuery encodes s back into query parameters, overriding with extra
// key/value pairs. Default values are left out.
func listQuery(s listview.State, extra ...string) string {
	v := url.Values{}
	if s.Filter != "" {
		v.Set(paramFilter, s.Filter)
	}
	if s.Sort.Column != "" {
		v.Set(paramSort, s.Sort.Column)
		v.Set(paramDir, string(s.Sort.Direction))
	}
	if s.Page > 1 {
		v.Set(paramPage, strconv.Itoa(s.Page))
	}
	v.Set(paramRows, strconv.Itoa(s.RowsPerPage))
	for i := 0; i+1 < len(extra); i += 2 {
		if extra[i+1] == "" {
			v.Del(extra[i])
			continue
		}
		v.Set(extra[i], extra[i+1])
	}
	return v.Encode()
}
