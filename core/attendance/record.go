package attendance

import (
	"math"
	"sort"
	"time"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/roster"
)

// Record is the attendance of one class on one day, as stored: student id -> status.
type Record struct {
	ClassID  string
	Date     string // YYYY-MM-DD
	Statuses map[string]roster.Status
}

func NewRecord(classID string, date time.Time, students []roster.Student) Record {
	rec := Record{
		ClassID:  classID,
		Date:     core.DateKey(date),
		Statuses: make(map[string]roster.Status, len(students)),
	}
	for _, stu := range students {
		if stu.Status.Decided() {
			rec.Statuses[stu.ID] = stu.Status
		}
	}
	return rec
}

type ReportEntry struct {
	StudentID string        `json:"id"`
	Status    roster.Status `json:"status"`
}

// Report is a stored Record with its statistics. Percentage carries two decimals.
type Report struct {
	ClassID    string        `json:"classId"`
	Date       string        `json:"date"`
	Entries    []ReportEntry `json:"entries"`
	Total      int           `json:"totalStudents"`
	Present    int           `json:"present"`
	Absent     int           `json:"absent"`
	Percentage float64       `json:"percentage"`
}

func NewReport(rec Record) Report {
	rep := Report{
		ClassID: rec.ClassID,
		Date:    rec.Date,
		Entries: make([]ReportEntry, 0, len(rec.Statuses)),
	}
	for id, st := range rec.Statuses {
		rep.Entries = append(rep.Entries, ReportEntry{StudentID: id, Status: st})
		if st == roster.Present {
			rep.Present++
		}
	}
	sort.Slice(rep.Entries, func(i, j int) bool { return rep.Entries[i].StudentID < rep.Entries[j].StudentID })

	rep.Total = len(rep.Entries)
	rep.Absent = rep.Total - rep.Present
	if rep.Total > 0 {
		rep.Percentage = math.Round(100*100*float64(rep.Present)/float64(rep.Total)) / 100
	}
	return rep
}
