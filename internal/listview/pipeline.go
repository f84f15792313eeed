package listview

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Filter keeps the items where any search field contains query, ignoring case.
// Only the empty query keeps everything; whitespace is matched as typed.
func Filter[T any](items []T, query string, fields []func(T) []string) []T {
	q := strings.ToLower(query)
	out := make([]T, 0, len(items))
	if q == "" {
		return append(out, items...)
	}
	for _, it := range items {
		if matches(it, q, fields) {
			out = append(out, it)
		}
	}
	return out
}

func matches[T any](it T, q string, fields []func(T) []string) bool {
	for _, f := range fields {
		for _, v := range f(it) {
			if strings.Contains(strings.ToLower(v), q) {
				return true
			}
		}
	}
	return false
}

// SortStable returns a copy of items ordered by key. Equal keys keep their
// relative order; descending negates the comparison.
func SortStable[T any](items []T, key func(T) any, dir Direction) []T {
	out := append([]T(nil), items...)
	if key == nil {
		return out
	}
	keys := make([]any, len(out))
	for i, it := range out {
		keys[i] = key(it)
	}
	idx := make([]int, len(out))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		c := Compare(keys[idx[a]], keys[idx[b]])
		if dir == Descending {
			c = -c
		}
		return c < 0
	})
	sorted := make([]T, len(out))
	for i, j := range idx {
		sorted[i] = out[j]
	}
	return sorted
}

// Compare orders two column values: numbers numerically, times
// chronologically, everything else as strings. Ties return 0.
func Compare(a, b any) int {
	if x, ok := toFloat(a); ok {
		if y, ok := toFloat(b); ok {
			switch {
			case x < y:
				return -1
			case x > y:
				return 1
			}
			return 0
		}
	}
	if x, ok := a.(time.Time); ok {
		if y, ok := b.(time.Time); ok {
			return x.Compare(y)
		}
	}
	return strings.Compare(toString(a), toString(b))
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case float64:
		return n, true
	case float32:
		return float64(n), true
	}
	return 0, false
}

func toString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case fmt.Stringer:
		return s.String()
	}
	return fmt.Sprint(v)
}

// Paginate returns the rows of page (clamped to the valid range), the page
// actually served and the page count. An empty input has one empty page.
func Paginate[T any](items []T, page, rows int) ([]T, int, int) {
	if rows <= 0 {
		rows = 1
	}
	total := (len(items) + rows - 1) / rows
	if total < 1 {
		total = 1
	}
	if page < 1 {
		page = 1
	}
	if page > total {
		page = total
	}
	start := (page - 1) * rows
	end := start + rows
	if start > len(items) {
		start = len(items)
	}
	if end > len(items) {
		end = len(items)
	}
	return append([]T(nil), items[start:end]...), page, total
}
