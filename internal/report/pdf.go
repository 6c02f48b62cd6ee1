package report

import (
	"bytes"
	"fmt"
	"io"

	"github.com/go-pdf/fpdf"

	"nomadledger/internal/core"
)

const (
	pdfMargin    = 12.0
	pdfRowHeight = 7.0
	noReceipt    = "-"
	receiptLabel = "Ver comprovante"
)

type pdfColumn struct {
	title string
	share float64 // fraction of the usable width
	align string
}

var pdfColumns = []pdfColumn{
	{"Data", 0.12, "C"},
	{"Descrição", 0.40, "L"},
	{"Categoria", 0.15, "L"},
	{"Valor", 0.17, "R"},
	{"Comprovante", 0.16, "C"},
}

// WritePDF renders a paginated A4 report: a title block followed by one
// table row per expense. Receipt cells link to the receipt URL when there is
// one.
func WritePDF(w io.Writer, meta Meta, expenses []core.Expense) error {
	if len(expenses) == 0 {
		return ErrNoExpenses
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	title := meta.Title
	if title == "" {
		title = "Relatório de Despesas"
	}
	pdf.SetTitle(title, true)
	pdf.SetCreator("NomadLedger", true)
	if !meta.GeneratedAt.IsZero() {
		pdf.SetCreationDate(meta.GeneratedAt)
	}
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(false, pdfMargin)
	pdf.AddPage()

	pageW, pageH := pdf.GetPageSize()
	usable := pageW - 2*pdfMargin
	widths := make([]float64, len(pdfColumns))
	for i, c := range pdfColumns {
		widths[i] = usable * c.share
	}

	// title block
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, tr(title), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	if !meta.GeneratedAt.IsZero() {
		pdf.CellFormat(0, 6, tr("Gerado em: "+meta.GeneratedAt.Format("02/01/2006 15:04")), "", 1, "L", false, 0, "")
	}
	if meta.Owner != "" {
		pdf.CellFormat(0, 6, tr("Usuário: "+meta.Owner), "", 1, "L", false, 0, "")
	}
	pdf.CellFormat(0, 6, tr("Período: "+RangeLabel(meta.Bounds)), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "B", 11)
	total := core.FormatCurrency(core.Sum(expenses), core.ReportingCurrency)
	pdf.CellFormat(0, 8, tr("Total: "+total), "", 1, "L", false, 0, "")
	pdf.Ln(3)

	header := func() {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.SetFillColor(30, 41, 59)
		pdf.SetTextColor(255, 255, 255)
		for i, c := range pdfColumns {
			pdf.CellFormat(widths[i], pdfRowHeight+1, tr(c.title), "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetTextColor(0, 0, 0)
		pdf.SetFont("Helvetica", "", 9)
	}
	header()

	for i, e := range expenses {
		if pdf.GetY()+pdfRowHeight > pageH-pdfMargin {
			pdf.AddPage()
			header()
		}
		fill := i%2 == 1
		pdf.SetFillColor(241, 245, 249)
		cells := []string{
			e.Date.Display(),
			fit(pdf, tr(e.Description), widths[1]-2),
			tr(e.Category.Label()),
			tr(core.FormatCurrency(e.Amount, e.Currency)),
		}
		for j, txt := range cells {
			pdf.CellFormat(widths[j], pdfRowHeight, txt, "1", 0, pdfColumns[j].align, fill, 0, "")
		}
		last := len(pdfColumns) - 1
		if e.HasReceipt() {
			pdf.SetTextColor(37, 99, 235)
			pdf.CellFormat(widths[last], pdfRowHeight, receiptLabel, "1", 0, pdfColumns[last].align, fill, 0, e.ReceiptURL)
			pdf.SetTextColor(0, 0, 0)
		} else {
			pdf.CellFormat(widths[last], pdfRowHeight, noReceipt, "1", 0, pdfColumns[last].align, fill, 0, "")
		}
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedOutput, err)
	}
	if _, err := w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

// fit shortens s with an ellipsis until it fits in width. s is already in
// the single-byte font encoding, so cutting bytes is safe.
func fit(pdf *fpdf.Fpdf, s string, width float64) string {
	if pdf.GetStringWidth(s) <= width {
		return s
	}
	for len(s) > 0 && pdf.GetStringWidth(s+"...") > width {
		s = s[:len(s)-1]
	}
	return s + "..."
}
