package listview

import "slices"

// Direction is the sort order of a column
type Direction string

const (
	Ascending  Direction = "asc"
	Descending Direction = "desc"
)

// ParseDirection maps "desc"/"descending" to Descending and anything else to Ascending
func ParseDirection(s string) Direction {
	switch s {
	case "desc", "descending":
		return Descending
	}
	return Ascending
}

// Sort selects the column a table is ordered by
type Sort struct {
	Column    string
	Direction Direction
}

// State is the interactive state of a table. Use View.NewState to create one
// and the Set methods to change it, so the page never falls out of range.
type State struct {
	Filter      string
	Sort        Sort
	Page        int
	RowsPerPage int

	options []int
}

// SetFilter changes the filter; a different value resets the page to 1
func (s *State) SetFilter(f string) {
	if f == s.Filter {
		return
	}
	s.Filter = f
	s.Page = 1
}

// Clear removes the filter
func (s *State) Clear() {
	s.SetFilter("")
}

// SetRowsPerPage changes the page size to one of the allowed options and
// resets the page to 1. It reports whether n was accepted.
func (s *State) SetRowsPerPage(n int) bool {
	if len(s.options) > 0 && !slices.Contains(s.options, n) {
		return false
	}
	if n <= 0 {
		return false
	}
	s.RowsPerPage = n
	s.Page = 1
	return true
}

// SetPage moves to page p. Outside [1, totalPages] nothing changes.
func (s *State) SetPage(p, totalPages int) bool {
	if p < 1 || p > totalPages {
		return false
	}
	s.Page = p
	return true
}

// SetSort orders by column in dir; the page is kept
func (s *State) SetSort(column string, dir Direction) {
	s.Sort = Sort{Column: column, Direction: dir}
}

// RowsOptions returns the page sizes the table offers
func (s State) RowsOptions() []int {
	return append([]int(nil), s.options...)
}
