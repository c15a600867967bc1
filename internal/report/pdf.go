// Package report renders the displayed request page as a printable document.
package report

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/phpdave11/gofpdf"

	"github.com/approvalflow/workflow-client/internal/request/model"
)

// PageReport is the content of one exported page
type PageReport struct {
	GeneratedBy string
	GeneratedAt time.Time
	Criteria    model.FilterCriteria
	Page        model.Page
}

type column struct {
	header string
	width  float64
	value  func(model.RequestRecord) string
}

var columns = []column{
	{"Title", 62, func(r model.RequestRecord) string { return r.Title }},
	{"Category", 28, func(r model.RequestRecord) string { return r.Category }},
	{"Priority", 20, func(r model.RequestRecord) string { return PriorityLabel(r.Priority) }},
	{"Status", 22, func(r model.RequestRecord) string { return StatusLabel(r.Status) }},
	{"Created by", 28, func(r model.RequestRecord) string { return r.CreatorID }},
	{"Created at", 30, func(r model.RequestRecord) string { return r.CreatedAt.UTC().Format("2006-01-02 15:04") }},
}

// BuildPagePDF renders r and returns the document bytes and a file name
func BuildPagePDF(r PageReport) ([]byte, string, error) {
	if r.GeneratedAt.IsZero() {
		r.GeneratedAt = time.Now()
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Requests", false)
	pdf.SetMargins(10, 12, 10)
	pdf.SetAutoPageBreak(true, 12)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 9, "Requests")
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "", 10)
	pdf.Cell(0, 6, tr(fmt.Sprintf("Generated %s by %s",
		r.GeneratedAt.UTC().Format("2006-01-02 15:04 MST"), fallback(r.GeneratedBy, "-"))))
	pdf.Ln(6)
	pdf.Cell(0, 6, tr("Filters: "+DescribeCriteria(r.Criteria)))
	pdf.Ln(6)
	pdf.Cell(0, 6, fmt.Sprintf("Page %d of %d, %d matching requests",
		r.Page.Page, r.Page.TotalPages, r.Page.TotalItems))
	pdf.Ln(9)

	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(230, 230, 230)
	for _, col := range columns {
		pdf.CellFormat(col.width, 7, col.header, "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 9)
	if len(r.Page.Items) == 0 {
		pdf.CellFormat(totalWidth(), 7, "No requests match the current filters", "1", 0, "C", false, 0, "")
		pdf.Ln(-1)
	}
	for _, record := range r.Page.Items {
		for _, col := range columns {
			text := truncate(pdf, tr(col.value(record)), col.width-2)
			pdf.CellFormat(col.width, 6, text, "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, "", fmt.Errorf("failed to render report: %w", err)
	}

	filename := fmt.Sprintf("requests_page_%d_%s.pdf", r.Page.Page, r.GeneratedAt.UTC().Format("20060102_150405"))
	return buf.Bytes(), filename, nil
}

// DescribeCriteria renders the active filters as one line
func DescribeCriteria(c model.FilterCriteria) string {
	var parts []string
	if c.Status != "" {
		parts = append(parts, "status="+StatusLabel(c.Status))
	}
	if c.Category != "" {
		parts = append(parts, "category="+c.Category)
	}
	if c.Priority != "" {
		parts = append(parts, "priority="+PriorityLabel(c.Priority))
	}
	if c.Search != "" {
		parts = append(parts, fmt.Sprintf("search=%q", c.Search))
	}
	if c.CreatedBy != "" {
		parts = append(parts, "createdBy="+c.CreatedBy)
	}
	filters := "none"
	if len(parts) > 0 {
		filters = strings.Join(parts, ", ")
	}
	if c.OrderBy != "" {
		filters += fmt.Sprintf("; ordered by %s %s", c.OrderBy, c.OrderDirection)
	}
	return filters
}

func totalWidth() float64 {
	total := 0.0
	for _, col := range columns {
		total += col.width
	}
	return total
}

func truncate(pdf *gofpdf.Fpdf, text string, width float64) string {
	if pdf.GetStringWidth(text) <= width {
		return text
	}
	runes := []rune(text)
	for len(runes) > 0 && pdf.GetStringWidth(string(runes)+"...") > width {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "..."
}

func fallback(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
