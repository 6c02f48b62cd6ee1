package core

import (
	"cmp"
	"slices"
)

// SortNewestFirst orders expenses by date descending, then by creation time
// descending for expenses on the same day.
func SortNewestFirst(expenses []Expense) {
	slices.SortStableFunc(expenses, func(a, b Expense) int {
		if c := cmp.Compare(b.Date, a.Date); c != 0 {
			return c
		}
		return cmp.Compare(b.CreatedAt, a.CreatedAt)
	})
}
