// Package listview derives the visible page of a table from a full entity
// collection: filter, then stable sort, then paginate.
package listview

// Column is a sortable table column. Value returns a string or a number.
type Column[T any] struct {
	Key   string
	Label string
	Value func(T) any
}

// View describes one table: what is searched, how it sorts and how many rows
// a page may hold.
type View[T any] struct {
	Name         string
	SearchFields []func(T) []string
	Columns      []Column[T]
	RowsOptions  []int
	DefaultRows  int
	DefaultSort  Sort
	EmptyText    string
}

// Column looks a column up by key
func (v View[T]) Column(key string) (Column[T], bool) {
	for _, c := range v.Columns {
		if c.Key == key {
			return c, true
		}
	}
	return Column[T]{}, false
}

// NewState returns the initial table state of the view
func (v View[T]) NewState() State {
	return State{
		Sort:        v.DefaultSort,
		Page:        1,
		RowsPerPage: v.DefaultRows,
		options:     append([]int(nil), v.RowsOptions...),
	}
}

// Apply derives the visible page for state from the full collection
func (v View[T]) Apply(items []T, s State) Page[T] {
	filtered := Filter(items, s.Filter, v.SearchFields)
	if col, ok := v.Column(s.Sort.Column); ok {
		filtered = SortStable(filtered, col.Value, s.Sort.Direction)
	}

	rows := s.RowsPerPage
	if rows <= 0 {
		rows = v.DefaultRows
	}
	visible, page, total := Paginate(filtered, s.Page, rows)

	return Page[T]{
		Rows:        visible,
		Page:        page,
		TotalPages:  total,
		Total:       len(filtered),
		RowsPerPage: rows,
		Empty:       len(visible) == 0,
		EmptyText:   v.EmptyText,
	}
}

// Page is the visible slice of a table
type Page[T any] struct {
	Rows        []T
	Page        int
	TotalPages  int
	Total       int
	RowsPerPage int
	Empty       bool
	EmptyText   string
}

// HasPrev reports whether a previous page exists
func (p Page[T]) HasPrev() bool { return p.Page > 1 }

// HasNext reports whether a next page exists
func (p Page[T]) HasNext() bool { return p.Page < p.TotalPages }

// Pages lists the page numbers 1..TotalPages
func (p Page[T]) Pages() []int {
	out := make([]int, p.TotalPages)
	for i := range out {
		out[i] = i + 1
	}
	return out
}
