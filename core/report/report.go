// Package report turns attendance results into PDF/CSV documents and share messages.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/mahudhurio/core/attendance"
	"github.com/trezcool/mahudhurio/core/roster"
)

var ErrUnknownLabel = errors.New("label must be one of Present, Absent or Complete")

// Label selects which students a document lists.
type Label string

const (
	LabelPresent  Label = "Present"
	LabelAbsent   Label = "Absent"
	LabelComplete Label = "Complete"
)

func ParseLabel(s string) (Label, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "present":
		return LabelPresent, nil
	case "absent":
		return LabelAbsent, nil
	case "complete", "":
		return LabelComplete, nil
	}
	return "", errors.Wrapf(ErrUnknownLabel, "%q", s)
}

// Formats
const (
	FormatPDF = "pdf"
	FormatCSV = "csv"
)

// Meta is the context printed on a document.
type Meta struct {
	Institution string
	Department  string
	LogoPath    string
	Subject     string
	ClassID     string
	Teacher     string
	GeneratedAt time.Time
}

func (m Meta) dateStr() string { return m.GeneratedAt.Format("02/01/2006") }
func (m Meta) timeStr() string { return m.GeneratedAt.Format("15:04:05") }

type Document struct {
	FileName    string
	ContentType string
	Content     []byte
}

// Generator renders the students of a ResultSet selected by label. It never mutates the ResultSet.
type Generator interface {
	Generate(rs *attendance.ResultSet, label Label, meta Meta) (Document, error)
}

// FileName is `{label}_attendance_{YYYYMMDD}_{HHMMSS}.{ext}`.
func FileName(label Label, at time.Time, ext string) string {
	return fmt.Sprintf("%s_attendance_%s.%s", strings.ToLower(string(label)), at.Format("20060102_150405"), ext)
}

// Select returns the students listed under label, ordered by roll number.
func Select(rs *attendance.ResultSet, label Label) ([]roster.Student, error) {
	q := attendance.Query{SortKey: attendance.SortByRollNo, Direction: attendance.Asc}
	switch label {
	case LabelPresent:
		st := roster.Present
		q.Status = &st
	case LabelAbsent:
		st := roster.Absent
		q.Status = &st
	case LabelComplete:
	default:
		return nil, errors.Wrapf(ErrUnknownLabel, "%q", label)
	}
	return rs.Query(q)
}

func statusLetter(st roster.Status) string {
	if st == roster.Present {
		return "P"
	}
	return "A"
}

func summaryLine(stats attendance.Stats) string {
	return fmt.Sprintf("Total Students: %d    Present: %d    Absent: %d    Attendance: %d%%",
		stats.Total, stats.Present, stats.Absent, stats.PresentPercentage)
}

// New returns the generator for format.
func New(format string) (Generator, error) {
	switch strings.ToLower(format) {
	case FormatPDF, "":
		return PDFGenerator{}, nil
	case FormatCSV:
		return CSVGenerator{}, nil
	}
	return nil, errors.Errorf("unknown report format %q", format)
}
