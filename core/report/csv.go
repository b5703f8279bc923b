package report

import (
	"bytes"
	"encoding/csv"
	"strconv"

	"github.com/pkg/errors"

	"github.com/trezcool/mahudhurio/core/attendance"
)

// CSVGenerator writes the same columns as the PDF list.
type CSVGenerator struct{}

var _ Generator = CSVGenerator{}

func (CSVGenerator) Generate(rs *attendance.ResultSet, label Label, meta Meta) (Document, error) {
	students, err := Select(rs, label)
	if err != nil {
		return Document{}, err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	rows := make([][]string, 0, len(students)+1)
	rows = append(rows, []string{"Sr. No.", "Roll No.", "Name", "Status"})
	for i, stu := range students {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			stu.RollDigits(),
			stu.Name,
			statusLetter(stu.Status),
		})
	}
	if err := w.WriteAll(rows); err != nil {
		return Document{}, errors.Wrap(err, "writing csv")
	}

	return Document{
		FileName:    FileName(label, meta.GeneratedAt, FormatCSV),
		ContentType: "text/csv",
		Content:     buf.Bytes(),
	}, nil
}
