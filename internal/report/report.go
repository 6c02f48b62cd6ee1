// Package report renders filtered expense lists as downloadable artifacts.
//
// Every writer builds the full artifact in memory first and only then copies
// it to the destination, so a failed render never leaves a partial file.
package report

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"nomadledger/internal/core"
)

const (
	FormatCSV Format = "csv"
	FormatPDF Format = "pdf"
)

const filenamePrefix = "relatorio_despesas"

var (
	// ErrNoExpenses is returned when there is nothing to export.
	ErrNoExpenses = errors.New("nenhuma despesa no período selecionado")
	// ErrMalformedOutput wraps failures while building an artifact.
	ErrMalformedOutput = errors.New("falha ao gerar relatório")
	ErrUnknownFormat   = errors.New("unknown report format")
)

type Format string

// Meta describes the context printed in the PDF title block.
type Meta struct {
	Title       string
	Owner       string
	Bounds      core.DateBounds
	GeneratedAt time.Time
}

func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatCSV:
		return FormatCSV, nil
	case FormatPDF:
		return FormatPDF, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatPDF:
		return "application/pdf"
	}
	return "application/octet-stream"
}

// Render writes expenses in the given format.
func Render(f Format, w io.Writer, meta Meta, expenses []core.Expense) error {
	switch f {
	case FormatCSV:
		return WriteCSV(w, expenses)
	case FormatPDF:
		return WritePDF(w, meta, expenses)
	}
	return fmt.Errorf("%w: %q", ErrUnknownFormat, f)
}

// Filename builds relatorio_despesas_<start>_<end>.<ext>, using "inicio" and
// "fim" for open sides.
func Filename(b core.DateBounds, f Format) string {
	start, end := "inicio", "fim"
	if !b.Start.IsZero() {
		start = b.Start.String()
	}
	if !b.End.IsZero() {
		end = b.End.String()
	}
	return fmt.Sprintf("%s_%s_%s.%s", filenamePrefix, start, end, f)
}

// RangeLabel describes the bounds for humans.
func RangeLabel(b core.DateBounds) string {
	switch {
	case b.IsUnbounded():
		return "Todo o histórico"
	case b.End.IsZero():
		return "A partir de " + b.Start.Display()
	case b.Start.IsZero():
		return "Até " + b.End.Display()
	}
	return b.Start.Display() + " até " + b.End.Display()
}
