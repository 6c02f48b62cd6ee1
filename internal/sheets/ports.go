// Package sheets mirrors stored expenses into a spreadsheet so they can be
// analysed outside the app.
package sheets

import (
	"context"

	"nomadledger/internal/core"
)

// Ports for outbound adapters.
type (
	ExpenseWriter interface {
		Append(ctx context.Context, e core.Expense) (rowRef string, err error)
	}
)
