package roster

import (
	"encoding/json"
	"strconv"
	"strings"
	"unicode"

	"github.com/pkg/errors"
)

// Status is the attendance decision recorded for a Student.
type Status int

const (
	Undecided Status = iota
	Present
	Absent
)

var (
	ErrInvalidStatus = errors.New("invalid status")

	statusNames = map[Status]string{
		Undecided: "undecided",
		Present:   "present",
		Absent:    "absent",
	}
)

func ParseStatus(s string) (Status, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "undecided", "":
		return Undecided, nil
	case "present":
		return Present, nil
	case "absent":
		return Absent, nil
	}
	return Undecided, errors.Wrapf(ErrInvalidStatus, "%q", s)
}

func (st Status) String() string {
	if name, ok := statusNames[st]; ok {
		return name
	}
	return "Status(" + strconv.Itoa(int(st)) + ")"
}

// Decided reports whether st is Present or Absent.
func (st Status) Decided() bool {
	return st == Present || st == Absent
}

// Toggle flips Present and Absent. Other values are returned unchanged.
func (st Status) Toggle() Status {
	switch st {
	case Present:
		return Absent
	case Absent:
		return Present
	}
	return st
}

func (st Status) MarshalJSON() ([]byte, error) {
	name, ok := statusNames[st]
	if !ok {
		return nil, errors.Wrapf(ErrInvalidStatus, "%d", int(st))
	}
	return json.Marshal(name)
}

func (st *Status) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*st = Undecided
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return errors.Wrap(ErrInvalidStatus, string(data))
	}
	parsed, err := ParseStatus(s)
	if err != nil {
		return err
	}
	*st = parsed
	return nil
}

type Student struct {
	ID       string `json:"id"`
	RollNo   string `json:"rollNo"`
	Name     string `json:"name"`
	SerialNo int    `json:"serialNo"`
	Status   Status `json:"status"`
}

// RollNumber is the numeric value of RollNo once every non-digit is stripped ("CS-042" -> 42).
// It is 0 when RollNo holds no digit, and saturates at the largest int.
func (s Student) RollNumber() int {
	return NumericRollNo(s.RollNo)
}

// RollDigits is RollNumber in decimal, without the int limit.
func (s Student) RollDigits() string {
	return rollDigits(s.RollNo)
}

func rollDigits(rollNo string) string {
	digits := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) && r < unicode.MaxASCII {
			return r
		}
		return -1
	}, rollNo)
	digits = strings.TrimLeft(digits, "0")
	if digits == "" {
		return "0"
	}
	return digits
}

func NumericRollNo(rollNo string) int {
	n, err := strconv.Atoi(rollDigits(rollNo))
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 0
	}
	return n // Atoi clamps on ErrRange
}

// CompareRollNo orders roll numbers by numeric value, whatever their length.
// It returns -1, 0 or +1.
func CompareRollNo(a, b string) int {
	da, db := rollDigits(a), rollDigits(b)
	if len(da) != len(db) {
		if len(da) < len(db) {
			return -1
		}
		return 1
	}
	return strings.Compare(da, db)
}

// Roster is the ordered list of students of one attendance session.
type Roster []Student

func (r Roster) Clone() Roster {
	if r == nil {
		return Roster{}
	}
	c := make(Roster, len(r))
	copy(c, r)
	return c
}

// Selection modes
type Mode string

const (
	// ModeFull selects students by serial number.
	ModeFull Mode = "full"
	// ModeCustom selects students by numeric roll number.
	ModeCustom Mode = "custom"
)

// Range is an inclusive bound. A zero Start or End leaves the roster unfiltered.
type Range struct {
	Start int `json:"start" validate:"gte=0"`
	End   int `json:"end" validate:"gtefield=Start"`
}

// Bounded reports whether both ends are set.
func (rg Range) Bounded() bool {
	return rg.Start != 0 && rg.End != 0
}

func (rg Range) Contains(n int) bool {
	return rg.Start <= n && n <= rg.End
}

// Selection describes which students of a class make up a roster.
type Selection struct {
	ClassID string `json:"classId" validate:"required,classid"`
	Mode    Mode   `json:"mode" validate:"omitempty,oneof=full custom"`
	Range   *Range `json:"range,omitempty"`
}

type ClassSummary struct {
	ID       string `json:"id"`
	Students int    `json:"students"`
}
