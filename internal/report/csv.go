package report

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"nomadledger/internal/core"
)

const (
	utf8BOM   = "\uFEFF"
	csvHeader = "Data;Descrição;Categoria;Valor;Moeda;Link Comprovante"
)

// WriteCSV writes a spreadsheet-friendly CSV: UTF-8 with BOM, ';' as the
// delimiter and comma decimals. Descriptions are always quoted because they
// are free text; the other columns are emitted raw.
//
// encoding/csv only quotes on demand, so rows are assembled by hand.
func WriteCSV(w io.Writer, expenses []core.Expense) error {
	if len(expenses) == 0 {
		return ErrNoExpenses
	}
	var buf bytes.Buffer
	buf.WriteString(utf8BOM)
	buf.WriteString(csvHeader)
	buf.WriteByte('\n')
	for _, e := range expenses {
		buf.WriteString(csvRow(e))
		buf.WriteByte('\n')
	}
	if _, err := w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

func csvRow(e core.Expense) string {
	fields := []string{
		e.Date.Display(),
		quote(e.Description),
		e.Category.Label(),
		core.FormatAmountPlain(e.Amount),
		string(e.Currency),
		e.ReceiptURL,
	}
	return strings.Join(fields, ";")
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
