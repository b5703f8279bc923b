package attendance

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/mahudhurio/core/roster"
)

var (
	ErrSessionClosed = errors.New("attendance session is completed")
	ErrSessionOpen   = errors.New("attendance session is not completed yet")
	ErrInvalidStatus = errors.New("status must be present or absent")
)

// State of a Session
type State int

const (
	InProgress State = iota
	Completed
)

func (s State) String() string {
	if s == Completed {
		return "completed"
	}
	return "in_progress"
}

func (s State) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// change is the reverse delta of one decision.
type change struct {
	index    int
	previous roster.Status
}

// Session walks a roster in order, recording one decision per student.
// All methods are safe for concurrent use.
type Session struct {
	mu      sync.Mutex
	roster  roster.Roster
	cursor  int
	history []change

	id           string
	owner        string
	selection    roster.Selection
	startedAt    time.Time
	lastActivity time.Time
}

// NewSession starts a session over a copy of r. Every student is reset to roster.Undecided.
// A session over an empty roster starts Completed.
func NewSession(r roster.Roster) *Session {
	now := nowFunc()
	s := &Session{
		roster:       r.Clone(),
		startedAt:    now,
		lastActivity: now,
	}
	for i := range s.roster {
		s.roster[i].Status = roster.Undecided
	}
	return s
}

func (s *Session) ID() string                  { return s.id }
func (s *Session) Owner() string               { return s.owner }
func (s *Session) Selection() roster.Selection { return s.selection }
func (s *Session) StartedAt() time.Time        { return s.startedAt }

func (s *Session) LastActivity() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActivity
}

func (s *Session) touch() {
	s.lastActivity = nowFunc()
}

func (s *Session) completed() bool {
	return s.cursor == len(s.roster)
}

// Decide records status for the current student and moves to the next one.
func (s *Session) Decide(status roster.Status) error {
	if !status.Decided() {
		return ErrInvalidStatus
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.completed() {
		return ErrSessionClosed
	}
	s.history = append(s.history, change{index: s.cursor, previous: s.roster[s.cursor].Status})
	s.roster[s.cursor].Status = status
	s.cursor++
	s.touch()
	return nil
}

// Undo reverts the latest decision, if any, and reports whether something was reverted.
// Undoing from Completed moves the session back InProgress.
func (s *Session) Undo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.history)
	if n == 0 {
		return false
	}
	last := s.history[n-1]
	s.history = s.history[:n-1]
	s.roster[last.index].Status = last.previous
	s.cursor = last.index
	s.touch()
	return true
}

// Restart resets every decision and clears the history.
func (s *Session) Restart() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.roster {
		s.roster[i].Status = roster.Undecided
	}
	s.cursor = 0
	s.history = nil
	s.touch()
}

// Progress is the decided fraction of the roster, in [0, 1]. It is 0 for an empty roster.
func (s *Session) Progress() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.progress()
}

func (s *Session) progress() float64 {
	if len(s.roster) == 0 {
		return 0
	}
	return float64(s.cursor) / float64(len(s.roster))
}

// Current returns the student awaiting a decision.
func (s *Session) Current() (roster.Student, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.completed() {
		return roster.Student{}, ErrSessionClosed
	}
	return s.roster[s.cursor], nil
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.completed() {
		return Completed
	}
	return InProgress
}

func (s *Session) Completed() bool {
	return s.State() == Completed
}

func (s *Session) Cursor() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursor
}

func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.roster)
}

func (s *Session) HistoryLen() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.history)
}

// Roster returns a copy of the roster with the decisions made so far.
func (s *Session) Roster() roster.Roster {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.roster.Clone()
}

// Finalize hands the decided roster over as a ResultSet, detached from the session.
func (s *Session) Finalize() (*ResultSet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.completed() {
		return nil, ErrSessionOpen
	}
	return NewResultSet(s.roster), nil
}

// Snapshot is a read-only view of a Session.
type Snapshot struct {
	ID        string           `json:"id"`
	Selection roster.Selection `json:"selection"`
	State     State            `json:"state"`
	Cursor    int              `json:"cursor"`
	Total     int              `json:"total"`
	Progress  float64          `json:"progress"`
	Current   *roster.Student  `json:"current"`
	CanUndo   bool             `json:"canUndo"`
	StartedAt time.Time        `json:"startedAt"`
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		ID:        s.id,
		Selection: s.selection,
		State:     InProgress,
		Cursor:    s.cursor,
		Total:     len(s.roster),
		Progress:  s.progress(),
		CanUndo:   len(s.history) > 0,
		StartedAt: s.startedAt,
	}
	if s.completed() {
		snap.State = Completed
	} else {
		cur := s.roster[s.cursor]
		snap.Current = &cur
	}
	return snap
}
