package core

import "github.com/shopspring/decimal"

// CategorySummary is the total of one category within a set of expenses.
type CategorySummary struct {
	Category Category
	Name     string
	Value    decimal.Decimal
	Color    string
}

// Overview is the aggregate shown on the dashboard for a filtered set.
type Overview struct {
	TotalSpent decimal.Decimal
	Count      int
	Categories []CategorySummary
}

// Summarize totals expenses overall and per category. Categories with a
// zero total are omitted; the rest follow Categories() order. Amounts in
// different currencies are added together without conversion.
func Summarize(expenses []Expense) Overview {
	byCat := make(map[Category]decimal.Decimal, 4)
	total := decimal.Zero
	for _, e := range expenses {
		total = total.Add(e.Amount)
		byCat[e.Category] = byCat[e.Category].Add(e.Amount)
	}
	ov := Overview{TotalSpent: total, Count: len(expenses), Categories: []CategorySummary{}}
	for _, c := range Categories() {
		v, ok := byCat[c]
		if !ok || !v.IsPositive() {
			continue
		}
		ov.Categories = append(ov.Categories, CategorySummary{
			Category: c,
			Name:     c.Label(),
			Value:    v,
			Color:    c.Color(),
		})
	}
	return ov
}

// Share returns the percentage (0-100) of total taken by s, rounded to a
// whole number. Used for bar widths.
func (s CategorySummary) Share(total decimal.Decimal) int {
	if !total.IsPositive() {
		return 0
	}
	return int(s.Value.Div(total).Mul(decimal.NewFromInt(100)).Round(0).IntPart())
}
