package core

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var displayLocale = language.BrazilianPortuguese

// FormatCurrency renders an amount in the pt-BR notation prefixed by the
// currency symbol, e.g. "R$ 1.234,50".
func FormatCurrency(amount decimal.Decimal, cur Currency) string {
	return cur.Symbol() + " " + formatGrouped(amount)
}

func formatGrouped(amount decimal.Decimal) string {
	// Printers keep internal buffers and are not safe to share.
	p := message.NewPrinter(displayLocale)
	f, _ := amount.Round(2).Float64()
	return p.Sprint(number.Decimal(f, number.Scale(2)))
}
