package core

import "fmt"

// DateBounds is an inclusive date window; a zero Start or End leaves that
// side open.
type DateBounds struct {
	Start ISODate
	End   ISODate
}

// NewDateBounds parses user-supplied bounds. Empty strings mean "absent".
func NewDateBounds(start, end string) (DateBounds, error) {
	var b DateBounds
	if start != "" {
		d, err := ParseISODate(start)
		if err != nil {
			return DateBounds{}, fmt.Errorf("start: %w", err)
		}
		b.Start = d
	}
	if end != "" {
		d, err := ParseISODate(end)
		if err != nil {
			return DateBounds{}, fmt.Errorf("end: %w", err)
		}
		b.End = d
	}
	return b, nil
}

func (b DateBounds) IsUnbounded() bool {
	return b.Start.IsZero() && b.End.IsZero()
}

func (b DateBounds) Contains(d ISODate) bool {
	if !b.Start.IsZero() && d < b.Start {
		return false
	}
	if !b.End.IsZero() && d > b.End {
		return false
	}
	return true
}

// FilterByDate keeps the expenses whose date falls inside b, preserving
// their relative order. With no bounds the input slice is returned as is.
func FilterByDate(expenses []Expense, b DateBounds) []Expense {
	if b.IsUnbounded() {
		return expenses
	}
	out := make([]Expense, 0, len(expenses))
	for _, e := range expenses {
		if b.Contains(e.Date) {
			out = append(out, e)
		}
	}
	return out
}
