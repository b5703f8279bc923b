package attendance

import (
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"

	"github.com/trezcool/mahudhurio/core/roster"
)

var ErrStudentNotFound = errors.New("student not found in results")

// Sort keys
type SortKey string

const (
	SortByRollNo SortKey = "rollNo"
	SortByName   SortKey = "name"
)

type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// Predicate selects students of a ResultSet.
type Predicate func(roster.Student) bool

func HasStatus(st roster.Status) Predicate {
	return func(stu roster.Student) bool { return stu.Status == st }
}

// Search matches term against name or roll number, case-insensitively. An empty term matches everyone.
func Search(term string) Predicate {
	term = strings.ToLower(strings.TrimSpace(term))
	return func(stu roster.Student) bool {
		if term == "" {
			return true
		}
		return strings.Contains(strings.ToLower(stu.Name), term) ||
			strings.Contains(strings.ToLower(stu.RollNo), term)
	}
}

// All combines predicates with AND.
func All(preds ...Predicate) Predicate {
	return func(stu roster.Student) bool {
		for _, p := range preds {
			if p != nil && !p(stu) {
				return false
			}
		}
		return true
	}
}

type Stats struct {
	Total             int `json:"total"`
	Present           int `json:"present"`
	Absent            int `json:"absent"`
	PresentPercentage int `json:"presentPercentage"`
}

func ComputeStats(students []roster.Student) Stats {
	var st Stats
	for _, stu := range students {
		st.Total++
		switch stu.Status {
		case roster.Present:
			st.Present++
		case roster.Absent:
			st.Absent++
		}
	}
	if st.Total > 0 {
		st.PresentPercentage = int(math.Round(100 * float64(st.Present) / float64(st.Total)))
	}
	return st
}

// Query is the combined search, status filter and ordering asked for by a reader of the results.
type Query struct {
	Search    string
	Status    *roster.Status
	SortKey   SortKey
	Direction Direction
}

// ResultSet holds the final decisions of a completed session. It can be corrected while in edit mode.
// All methods are safe for concurrent use.
type ResultSet struct {
	mu       sync.RWMutex
	students roster.Roster
	editMode bool
}

func NewResultSet(students roster.Roster) *ResultSet {
	return &ResultSet{students: students.Clone()}
}

// Students returns a copy of the students in roster order.
func (rs *ResultSet) Students() roster.Roster {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	return rs.students.Clone()
}

func (rs *ResultSet) Len() int {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	return len(rs.students)
}

// Filter returns the students matching pred, in roster order. The ResultSet is left untouched.
func (rs *ResultSet) Filter(pred Predicate) []roster.Student {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	return filter(rs.students, pred)
}

func filter(students []roster.Student, pred Predicate) []roster.Student {
	out := make([]roster.Student, 0, len(students))
	for _, stu := range students {
		if pred == nil || pred(stu) {
			out = append(out, stu)
		}
	}
	return out
}

// SortBy returns the students ordered by key. Ties keep their roster order.
func (rs *ResultSet) SortBy(key SortKey, dir Direction) ([]roster.Student, error) {
	students := rs.Students()
	if err := Sort(students, key, dir); err != nil {
		return nil, err
	}
	return students, nil
}

// Sort orders students in place. Roll numbers compare by their numeric value and names case-insensitively.
// The sort is stable.
func Sort(students []roster.Student, key SortKey, dir Direction) error {
	var less func(a, b roster.Student) bool
	switch key {
	case SortByRollNo, "":
		less = func(a, b roster.Student) bool { return roster.CompareRollNo(a.RollNo, b.RollNo) < 0 }
	case SortByName:
		less = func(a, b roster.Student) bool { return strings.ToLower(a.Name) < strings.ToLower(b.Name) }
	default:
		return errors.Errorf("unknown sort key %q", key)
	}

	switch dir {
	case Asc, "":
		sort.SliceStable(students, func(i, j int) bool { return less(students[i], students[j]) })
	case Desc:
		sort.SliceStable(students, func(i, j int) bool { return less(students[j], students[i]) })
	default:
		return errors.Errorf("unknown sort direction %q", dir)
	}
	return nil
}

// Query filters by search term and status then sorts (roll number ascending by default).
func (rs *ResultSet) Query(q Query) ([]roster.Student, error) {
	preds := []Predicate{Search(q.Search)}
	if q.Status != nil {
		preds = append(preds, HasStatus(*q.Status))
	}
	students := rs.Filter(All(preds...))
	if err := Sort(students, q.SortKey, q.Direction); err != nil {
		return nil, err
	}
	return students, nil
}

func (rs *ResultSet) EditMode() bool {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	return rs.editMode
}

// SetEditMode switches edit mode and reports whether it changed.
func (rs *ResultSet) SetEditMode(enabled bool) bool {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	changed := rs.editMode != enabled
	rs.editMode = enabled
	return changed
}

// ToggleStatus flips present/absent for the student matching both id and rollNo.
// Outside edit mode nothing changes and toggled is false.
func (rs *ResultSet) ToggleStatus(id, rollNo string) (stu roster.Student, toggled bool, err error) {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	for i := range rs.students {
		if rs.students[i].ID == id && rs.students[i].RollNo == rollNo {
			if !rs.editMode {
				return rs.students[i], false, nil
			}
			rs.students[i].Status = rs.students[i].Status.Toggle()
			return rs.students[i], true, nil
		}
	}
	if !rs.editMode {
		return roster.Student{}, false, nil
	}
	return roster.Student{}, false, ErrStudentNotFound
}

func (rs *ResultSet) Stats() Stats {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	return ComputeStats(rs.students)
}
