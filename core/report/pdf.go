package report

import (
	"bytes"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/jung-kurt/gofpdf"
	"github.com/pkg/errors"

	"github.com/trezcool/mahudhurio/core/attendance"
)

const (
	pdfMargin    = 20.0
	pdfRowHeight = 7.0
)

var pdfColumns = []struct {
	title string
	width float64
}{
	{"Sr. No.", 20},
	{"Roll No.", 30},
	{"Name", 100},
	{"Status", 20},
}

// PDFGenerator lays out an A4 attendance list.
type PDFGenerator struct{}

var _ Generator = PDFGenerator{}

func (PDFGenerator) Generate(rs *attendance.ResultSet, label Label, meta Meta) (Document, error) {
	students, err := Select(rs, label)
	if err != nil {
		return Document{}, err
	}
	stats := attendance.ComputeStats(students)

	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pageW, pageH := pdf.GetPageSize()

	pdf.SetTitle(fmt.Sprintf("%s students list", label), true)
	pdf.SetAuthor(meta.Teacher, true)
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(true, pdfMargin)
	pdf.AliasNbPages("")
	pdf.SetFooterFunc(func() {
		pdf.SetY(pageH - 15)
		pdf.SetFont("Helvetica", "", 8)
		pdf.SetTextColor(100, 100, 100)
		pdf.CellFormat(0, 5, fmt.Sprintf("Page %d of {nb}", pdf.PageNo()), "", 0, "L", false, 0, "")
		pdf.SetX(pdfMargin)
		pdf.CellFormat(0, 5, tr(fmt.Sprintf("Generated on %s at %s", meta.dateStr(), meta.timeStr())), "", 0, "R", false, 0, "")
	})
	pdf.AddPage()

	// header
	if meta.LogoPath != "" {
		if _, err := os.Stat(meta.LogoPath); err == nil {
			pdf.ImageOptions(meta.LogoPath, 15, 10, 25, 0, false, gofpdf.ImageOptions{ReadDpi: true}, 0, "")
		}
	}
	pdf.SetY(15)
	center := func(size float64, style, text string) {
		pdf.SetFont("Helvetica", style, size)
		pdf.CellFormat(0, size/2+2, tr(text), "", 1, "C", false, 0, "")
	}
	if meta.Institution != "" {
		center(20, "B", strings.ToUpper(meta.Institution))
	}
	if meta.Department != "" {
		center(16, "B", strings.ToUpper(meta.Department))
	}
	center(14, "B", strings.ToUpper(string(label))+" STUDENTS LIST")
	if meta.Subject != "" {
		center(12, "", "Subject: "+meta.Subject)
	}
	if meta.ClassID != "" {
		center(12, "", "Class: "+meta.ClassID)
	}
	center(12, "", fmt.Sprintf("Date: %s    Time: %s", meta.dateStr(), meta.timeStr()))
	pdf.SetTextColor(100, 100, 100)
	center(11, "", summaryLine(stats))
	pdf.SetTextColor(0, 0, 0)
	pdf.Ln(3)

	// table
	tableW := 0.0
	for _, col := range pdfColumns {
		tableW += col.width
	}
	left := (pageW - tableW) / 2
	header := func() {
		pdf.SetX(left)
		pdf.SetFont("Helvetica", "B", 10)
		pdf.SetFillColor(41, 128, 185)
		pdf.SetTextColor(255, 255, 255)
		for _, col := range pdfColumns {
			pdf.CellFormat(col.width, pdfRowHeight+1, col.title, "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetTextColor(0, 0, 0)
		pdf.SetFont("Helvetica", "", 9)
	}
	header()
	for i, stu := range students {
		if pdf.GetY()+pdfRowHeight > pageH-pdfMargin {
			pdf.AddPage()
			header()
		}
		fill := i%2 == 1
		pdf.SetFillColor(245, 245, 245)
		pdf.SetX(left)
		cells := []string{
			strconv.Itoa(i + 1),
			stu.RollDigits(),
			tr(stu.Name),
			statusLetter(stu.Status),
		}
		for c, col := range pdfColumns {
			pdf.CellFormat(col.width, pdfRowHeight, cells[c], "1", 0, "C", fill, 0, "")
		}
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return Document{}, errors.Wrap(err, "rendering pdf")
	}
	return Document{
		FileName:    FileName(label, meta.GeneratedAt, FormatPDF),
		ContentType: "application/pdf",
		Content:     buf.Bytes(),
	}, nil
}
