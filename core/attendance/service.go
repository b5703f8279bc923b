package attendance

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/roster"
)

var (
	nowFunc = time.Now // mockable

	ErrNotFound = errors.New("attendance session not found")
)

type (
	RecordRepository interface {
		SaveRecord(ctx context.Context, rec Record) error
		// GetRecord returns an empty Record when nothing was stored for that day.
		GetRecord(ctx context.Context, classID, date string) (Record, error)
	}

	RosterLoader interface {
		Load(ctx context.Context, sel roster.Selection) roster.Roster
	}

	// entry is a registered session and, once finalized, its results.
	entry struct {
		session *Session
		results *ResultSet
		saved   bool // results were written to the record repository
	}

	// Service keeps the attendance sessions of every signed-in teacher.
	Service struct {
		loader  RosterLoader
		records RecordRepository
		logger  core.Logger

		mu       sync.RWMutex
		sessions map[string]*entry
	}
)

func NewService(loader RosterLoader, records RecordRepository, logger core.Logger) *Service {
	return &Service{
		loader:   loader,
		records:  records,
		logger:   logger,
		sessions: make(map[string]*entry),
	}
}

// Start loads the roster selected by sel and opens a session owned by owner.
func (svc *Service) Start(ctx context.Context, owner string, sel roster.Selection) (*Session, error) {
	err := vala.BeginValidation().Validate(
		vala.StringNotEmpty(owner, "owner"),
		vala.StringNotEmpty(sel.ClassID, "classId"),
	).Check()
	if err != nil {
		return nil, core.NewValidationError(err)
	}
	if sel.Mode == "" {
		sel.Mode = roster.ModeFull
	}

	s := NewSession(svc.loader.Load(ctx, sel))
	s.id = uuid.New().String()
	s.owner = owner
	s.selection = sel

	svc.mu.Lock()
	svc.sessions[s.id] = &entry{session: s}
	svc.mu.Unlock()

	svc.logger.Info(fmt.Sprintf("attendance session %s started: class %q, %d students", s.id, sel.ClassID, s.Len()))
	return s, nil
}

func (svc *Service) get(id, owner string) (*entry, error) {
	svc.mu.RLock()
	defer svc.mu.RUnlock()

	e, ok := svc.sessions[id]
	if !ok || e.session.owner != owner {
		return nil, ErrNotFound
	}
	return e, nil
}

// Session returns the session id if it belongs to owner.
func (svc *Service) Session(id, owner string) (*Session, error) {
	e, err := svc.get(id, owner)
	if err != nil {
		return nil, err
	}
	return e.session, nil
}

// Restart clears every decision of the session, and drops its results if it was finalized.
func (svc *Service) Restart(id, owner string) (*Session, error) {
	e, err := svc.get(id, owner)
	if err != nil {
		return nil, err
	}
	svc.mu.Lock()
	defer svc.mu.Unlock()
	e.results = nil
	e.saved = false
	e.session.Restart()
	return e.session, nil
}

// Finalize closes a completed session and saves its attendance record for today.
// Finalizing again returns the existing results, retrying the save if it failed before.
func (svc *Service) Finalize(ctx context.Context, id, owner string) (*ResultSet, error) {
	e, err := svc.get(id, owner)
	if err != nil {
		return nil, err
	}

	svc.mu.Lock()
	if e.results != nil && e.saved {
		rs := e.results
		svc.mu.Unlock()
		return rs, nil
	}
	rs := e.results
	if rs == nil {
		if rs, err = e.session.Finalize(); err != nil {
			svc.mu.Unlock()
			return nil, err
		}
		e.results = rs
	}
	svc.mu.Unlock()

	if err = svc.save(ctx, e.session, rs); err != nil {
		return rs, errors.Wrap(err, "saving attendance record")
	}

	svc.mu.Lock()
	if e.results == rs {
		e.saved = true
	}
	svc.mu.Unlock()
	return rs, nil
}

// Results returns the results of a finalized session.
func (svc *Service) Results(id, owner string) (*ResultSet, error) {
	e, err := svc.get(id, owner)
	if err != nil {
		return nil, err
	}
	svc.mu.RLock()
	defer svc.mu.RUnlock()
	if e.results == nil {
		return nil, ErrSessionOpen
	}
	return e.results, nil
}

// SetEditMode enables or disables corrections on the results. Leaving edit mode saves the record again.
func (svc *Service) SetEditMode(ctx context.Context, id, owner string, enabled bool) (*ResultSet, error) {
	rs, err := svc.Results(id, owner)
	if err != nil {
		return nil, err
	}
	if changed := rs.SetEditMode(enabled); changed && !enabled {
		s, err := svc.Session(id, owner)
		if err != nil {
			return nil, err
		}
		if err = svc.save(ctx, s, rs); err != nil {
			return rs, errors.Wrap(err, "saving attendance record")
		}
	}
	return rs, nil
}

func (svc *Service) save(ctx context.Context, s *Session, rs *ResultSet) error {
	rec := NewRecord(s.selection.ClassID, nowFunc(), rs.Students())
	if err := svc.records.SaveRecord(ctx, rec); err != nil {
		return err
	}
	svc.logger.Info(fmt.Sprintf("attendance saved: class %q on %s (%d students)", rec.ClassID, rec.Date, len(rec.Statuses)))
	return nil
}

// Discard forgets the session.
func (svc *Service) Discard(id, owner string) error {
	if _, err := svc.get(id, owner); err != nil {
		return err
	}
	svc.mu.Lock()
	delete(svc.sessions, id)
	svc.mu.Unlock()
	return nil
}

// DiscardAll forgets every session of owner (logout).
func (svc *Service) DiscardAll(owner string) int {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	var n int
	for id, e := range svc.sessions {
		if e.session.owner == owner {
			delete(svc.sessions, id)
			n++
		}
	}
	return n
}

// PruneIdle forgets the sessions with no activity since before, and returns how many were dropped.
func (svc *Service) PruneIdle(before time.Time) int {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	var n int
	for id, e := range svc.sessions {
		if e.session.LastActivity().Before(before) {
			delete(svc.sessions, id)
			n++
		}
	}
	return n
}

// RunPruner prunes sessions idle for longer than idleTimeout every interval, until ctx is done.
func (svc *Service) RunPruner(ctx context.Context, interval, idleTimeout time.Duration) {
	if interval <= 0 || idleTimeout <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := svc.PruneIdle(nowFunc().Add(-idleTimeout)); n > 0 {
				svc.logger.Info(fmt.Sprintf("pruned %d idle attendance sessions", n))
			}
		}
	}
}

// Report reads the stored attendance of classID on date (YYYY-MM-DD).
func (svc *Service) Report(ctx context.Context, classID, date string) (Report, error) {
	rec, err := svc.records.GetRecord(ctx, classID, date)
	if err != nil {
		return Report{}, errors.Wrap(err, "getting attendance record")
	}
	rec.ClassID = classID
	rec.Date = date
	return NewReport(rec), nil
}
