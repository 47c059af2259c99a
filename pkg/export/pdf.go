package export

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

const (
	pdfPageWidth = 277.0 // A4 landscape minus margins
	pdfRowHeight = 6.0
)

// PDFRenderer lays a dataset out as a landscape table, repeating the header
// on every page.
type PDFRenderer struct{}

func NewPDFRenderer() *PDFRenderer {
	return &PDFRenderer{}
}

func (r *PDFRenderer) Format() Format { return FormatPDF }

func (r *PDFRenderer) ContentType() string { return "application/pdf" }

func (r *PDFRenderer) Render(data Dataset) ([]byte, error) {
	if len(data.Columns) == 0 {
		return nil, ErrNoColumns
	}
	widths := columnWidths(data.Columns)
	labels := data.labels()

	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(10, 12, 10)
	pdf.SetAutoPageBreak(true, 12)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	header := func() {
		pdf.SetFont("Arial", "B", 9)
		pdf.SetFillColor(230, 230, 230)
		for i, label := range labels {
			pdf.CellFormat(widths[i], 7, tr(label), "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Arial", "", 8)
	}

	pdf.SetHeaderFunc(func() {
		if data.Title != "" {
			pdf.SetFont("Arial", "B", 12)
			pdf.CellFormat(0, 8, tr(data.Title), "", 1, "L", false, 0, "")
		}
		header()
	})
	pdf.SetFooterFunc(func() {
		pdf.SetY(-10)
		pdf.SetFont("Arial", "I", 7)
		pdf.CellFormat(0, 5, fmt.Sprintf("Page %d", pdf.PageNo()), "", 0, "R", false, 0, "")
	})
	pdf.AddPage()

	for _, row := range data.Rows {
		for i, col := range data.Columns {
			pdf.CellFormat(widths[i], pdfRowHeight, tr(truncate(pdf, row[col.Key], widths[i])), "1", 0, "", false, 0, "")
		}
		pdf.Ln(-1)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func columnWidths(columns []Column) []float64 {
	total := 0.0
	for _, col := range columns {
		total += weight(col)
	}
	widths := make([]float64, len(columns))
	for i, col := range columns {
		widths[i] = pdfPageWidth * weight(col) / total
	}
	return widths
}

func weight(col Column) float64 {
	if col.Width <= 0 {
		return 1
	}
	return col.Width
}

func truncate(pdf *gofpdf.Fpdf, value string, width float64) string {
	limit := width - 2
	if pdf.GetStringWidth(value) <= limit {
		return value
	}
	runes := []rune(value)
	for len(runes) > 0 && pdf.GetStringWidth(string(runes)+"...") > limit {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "..."
}
