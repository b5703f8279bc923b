package roster

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/trezcool/mahudhurio/core"
)

const studentsPath = "students"

// flexString decodes JSON strings and numbers alike. Other values decode to "".
type flexString string

func (fs *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*fs = ""
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*fs = flexString(strings.TrimSpace(s))
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			*fs = "" // booleans, objects & arrays
			return nil
		}
		*fs = flexString(n.String())
	}
	return nil
}

// flexInt decodes JSON numbers and numeric strings. Anything else decodes to 0.
type flexInt int

func (fi *flexInt) UnmarshalJSON(data []byte) error {
	var s flexString
	if err := s.UnmarshalJSON(data); err != nil {
		*fi = 0
		return nil
	}
	f, err := strconv.ParseFloat(string(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		*fi = 0
		return nil
	}
	*fi = flexInt(f)
	return nil
}

// record is the stored shape of a student. Unknown fields (including any stored status) are dropped.
type record struct {
	ID       flexString `json:"id"`
	RollNo   flexString `json:"rollNo"`
	Name     flexString `json:"name"`
	SerialNo flexInt    `json:"serialNo"`
}

func (rec *record) student() (Student, bool) {
	if rec == nil {
		return Student{}, false
	}
	stu := Student{
		ID:       string(rec.ID),
		RollNo:   string(rec.RollNo),
		Name:     string(rec.Name),
		SerialNo: int(rec.SerialNo),
		Status:   Undecided,
	}
	if stu.ID == "" {
		stu.ID = stu.RollNo
	}
	return stu, stu.ID != ""
}

// Normalize decodes a class payload into a Roster.
// Arrays keep their order and skip null holes; objects are ordered by serialNo, then id.
// Elements that are not student objects are skipped. Every student starts Undecided.
func Normalize(data json.RawMessage) (Roster, error) {
	return normalize(data, nil)
}

// normalize calls skipped, when set, for every element that could not be decoded.
func normalize(data json.RawMessage, skipped func(key string, err error)) (Roster, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return Roster{}, nil
	}

	decode := func(key string, raw json.RawMessage) (Student, bool) {
		var rec *record
		if err := json.Unmarshal(raw, &rec); err != nil {
			if skipped != nil {
				skipped(key, err)
			}
			return Student{}, false
		}
		return rec.student()
	}

	switch data[0] {
	case '[':
		var raws []json.RawMessage
		if err := json.Unmarshal(data, &raws); err != nil {
			return Roster{}, errors.Wrap(err, "decoding student list")
		}
		r := make(Roster, 0, len(raws))
		for i, raw := range raws {
			if stu, ok := decode(strconv.Itoa(i), raw); ok {
				r = append(r, stu)
			}
		}
		return r, nil

	case '{':
		var raws map[string]json.RawMessage
		if err := json.Unmarshal(data, &raws); err != nil {
			return Roster{}, errors.Wrap(err, "decoding student map")
		}
		r := make(Roster, 0, len(raws))
		for key, raw := range raws {
			if stu, ok := decode(key, raw); ok {
				r = append(r, stu)
			}
		}
		sort.Slice(r, func(i, j int) bool {
			if r[i].SerialNo != r[j].SerialNo {
				return r[i].SerialNo < r[j].SerialNo
			}
			return r[i].ID < r[j].ID
		})
		return r, nil
	}
	return Roster{}, errors.New("students payload is neither a list nor a map")
}

// Filter keeps the students matching sel. Without a bounded range every student is kept.
func Filter(r Roster, sel Selection) Roster {
	if sel.Range == nil || !sel.Range.Bounded() {
		return r.Clone()
	}
	out := make(Roster, 0, len(r))
	for _, stu := range r {
		n := stu.SerialNo
		if sel.Mode == ModeCustom {
			n = stu.RollNumber()
		}
		if sel.Range.Contains(n) {
			out = append(out, stu)
		}
	}
	return out
}

func ClassPath(classID string) string {
	return studentsPath + "/" + classID
}

type Loader struct {
	store  core.DocumentReader
	logger core.Logger
}

func NewLoader(store core.DocumentReader, logger core.Logger) *Loader {
	return &Loader{store: store, logger: logger}
}

// Load fetches the students of sel.ClassID and applies the selection.
// It never fails: store and decoding errors are logged and yield an empty Roster.
func (l *Loader) Load(ctx context.Context, sel Selection) Roster {
	data, err := l.store.Get(ctx, ClassPath(sel.ClassID))
	if err != nil {
		if errors.Cause(err) == core.ErrDocumentNotFound {
			l.logger.Info(fmt.Sprintf("roster.Load: no students for class %q", sel.ClassID))
		} else {
			l.logger.Error(fmt.Sprintf("roster.Load(%s): %v", sel.ClassID, err), err)
		}
		return Roster{}
	}

	r, err := normalize(data, func(key string, err error) {
		l.logger.Warn(fmt.Sprintf("roster.Load(%s): skipping student %s: %v", sel.ClassID, key, err))
	})
	if err != nil {
		l.logger.Error(fmt.Sprintf("roster.Load(%s): %v", sel.ClassID, err), err)
		return Roster{}
	}
	return Filter(r, sel)
}

// Classes lists every class with its student count, sorted by class id.
func (l *Loader) Classes(ctx context.Context) ([]ClassSummary, error) {
	classes := make([]ClassSummary, 0)

	data, err := l.store.Get(ctx, studentsPath)
	if err != nil {
		if errors.Cause(err) == core.ErrDocumentNotFound {
			return classes, nil
		}
		return nil, errors.Wrap(err, "fetching students")
	}

	var payloads map[string]json.RawMessage
	if err = json.Unmarshal(data, &payloads); err != nil {
		return nil, errors.Wrap(err, "decoding classes")
	}
	for id, payload := range payloads {
		r, err := Normalize(payload)
		if err != nil {
			l.logger.Warn(fmt.Sprintf("roster.Classes(%s): %v", id, err), err)
		}
		classes = append(classes, ClassSummary{ID: id, Students: len(r)})
	}
	sort.Slice(classes, func(i, j int) bool { return classes[i].ID < classes[j].ID })
	return classes, nil
}

// CountStudents sums the students of every class.
func (l *Loader) CountStudents(ctx context.Context) (int, error) {
	classes, err := l.Classes(ctx)
	if err != nil {
		return 0, err
	}
	var total int
	for _, c := range classes {
		total += c.Students
	}
	return total, nil
}
