package report

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nomadledger/internal/core"
)

func sample() []core.Expense {
	return []core.Expense{
		{
			ID: "1", OwnerID: "u1", Description: `Jantar "especial"`,
			Amount: decimal.RequireFromString("1234.5"), Currency: core.CurrencyBRL,
			Date: "2024-01-15", Category: core.CategoryFood,
			ReceiptURL: "https://receipts.example/u1/1.jpg",
		},
		{
			ID: "2", OwnerID: "u1", Description: "Táxi",
			Amount: decimal.RequireFromString("10.5"), Currency: core.CurrencyUSD,
			Date: "2024-01-16", Category: core.CategoryTransport,
		},
	}
}

func TestWriteCSVScenarioB(t *testing.T) {
	in := []core.Expense{{
		Description: `Lunch "special"`, Amount: decimal.RequireFromString("10.5"),
		Currency: core.CurrencyUSD, Date: "2024-01-15", Category: core.CategoryFood,
	}}
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, in))

	out := buf.String()
	require.True(t, strings.HasPrefix(out, "\uFEFF"), "missing BOM")
	lines := strings.Split(strings.TrimPrefix(out, "\uFEFF"), "\n")
	assert.Equal(t, "Data;Descrição;Categoria;Valor;Moeda;Link Comprovante", lines[0])
	assert.Equal(t, `15/01/2024;"Lunch ""special""";Alimentação;10,50;USD;`, lines[1])
	assert.Equal(t, "", lines[2], "file ends with a newline")
	assert.Len(t, lines, 3)
}

func TestWriteCSVRowCountAndReceipt(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sample()))
	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasSuffix(lines[1], ";1234,50;BRL;https://receipts.example/u1/1.jpg"))
	assert.True(t, strings.HasSuffix(lines[2], ";10,50;USD;"))
	assert.False(t, strings.Contains(buf.String(), "\r"))
}

func TestWriteCSVEmpty(t *testing.T) {
	var buf bytes.Buffer
	err := WriteCSV(&buf, nil)
	assert.ErrorIs(t, err, ErrNoExpenses)
	assert.Zero(t, buf.Len())
}

func TestWritePDF(t *testing.T) {
	var buf bytes.Buffer
	meta := Meta{
		Title:       "Relatório de Despesas",
		Owner:       "ana@example.com",
		Bounds:      core.DateBounds{Start: "2024-01-01", End: "2024-01-31"},
		GeneratedAt: time.Date(2024, 2, 1, 10, 0, 0, 0, time.UTC),
	}
	require.NoError(t, WritePDF(&buf, meta, sample()))
	out := buf.Bytes()
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
	assert.True(t, bytes.Contains(out, []byte("/URI (https://receipts.example/u1/1.jpg)")), "receipt link annotation missing")
}

func TestWritePDFScenarioDNoReceipts(t *testing.T) {
	in := sample()
	for i := range in {
		in[i].ReceiptURL = ""
	}
	var buf bytes.Buffer
	require.NoError(t, WritePDF(&buf, Meta{}, in))
	assert.False(t, bytes.Contains(buf.Bytes(), []byte("/URI")), "no link annotations expected")
}

func TestWritePDFPaginates(t *testing.T) {
	var in []core.Expense
	for i := 0; i < 120; i++ {
		e := sample()[i%2]
		e.Description = strings.Repeat("descrição longa ", 10)
		in = append(in, e)
	}
	var buf bytes.Buffer
	require.NoError(t, WritePDF(&buf, Meta{}, in))
	assert.GreaterOrEqual(t, bytes.Count(buf.Bytes(), []byte("/Type /Page\n")), 2)
}

func TestWritePDFEmpty(t *testing.T) {
	var buf bytes.Buffer
	assert.ErrorIs(t, WritePDF(&buf, Meta{}, nil), ErrNoExpenses)
	assert.Zero(t, buf.Len())
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestWriteCSVWriterError(t *testing.T) {
	err := WriteCSV(failingWriter{}, sample())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}

func TestFilename(t *testing.T) {
	cases := []struct {
		b    core.DateBounds
		f    Format
		want string
	}{
		{core.DateBounds{}, FormatCSV, "relatorio_despesas_inicio_fim.csv"},
		{core.DateBounds{Start: "2024-01-01"}, FormatPDF, "relatorio_despesas_2024-01-01_fim.pdf"},
		{core.DateBounds{End: "2024-01-31"}, FormatCSV, "relatorio_despesas_inicio_2024-01-31.csv"},
		{core.DateBounds{Start: "2024-01-01", End: "2024-01-31"}, FormatPDF, "relatorio_despesas_2024-01-01_2024-01-31.pdf"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Filename(tc.b, tc.f))
	}
}

func TestRangeLabel(t *testing.T) {
	assert.Equal(t, "Todo o histórico", RangeLabel(core.DateBounds{}))
	assert.Equal(t, "01/01/2024 até 31/01/2024", RangeLabel(core.DateBounds{Start: "2024-01-01", End: "2024-01-31"}))
	assert.Equal(t, "A partir de 01/01/2024", RangeLabel(core.DateBounds{Start: "2024-01-01"}))
	assert.Equal(t, "Até 31/01/2024", RangeLabel(core.DateBounds{End: "2024-01-31"}))
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("PDF")
	require.NoError(t, err)
	assert.Equal(t, FormatPDF, f)
	_, err = ParseFormat("xlsx")
	assert.ErrorIs(t, err, ErrUnknownFormat)
}
