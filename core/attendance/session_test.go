package attendance

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/mahudhurio/core/roster"
)

func newRoster(n int) roster.Roster {
	r := make(roster.Roster, 0, n)
	for i := 1; i <= n; i++ {
		r = append(r, roster.Student{
			ID:       fmt.Sprintf("%d", i),
			RollNo:   fmt.Sprintf("%03d", i),
			Name:     fmt.Sprintf("Student %d", i),
			SerialNo: i,
		})
	}
	return r
}

func TestNewSession(t *testing.T) {
	r := newRoster(3)
	r[0].Status = roster.Present

	s := NewSession(r)
	assert.Equal(t, InProgress, s.State())
	assert.Equal(t, 0, s.Cursor())
	assert.Equal(t, 3, s.Len())
	for _, stu := range s.Roster() {
		assert.Equal(t, roster.Undecided, stu.Status)
	}

	// the session works on its own copy
	require.NoError(t, s.Decide(roster.Absent))
	assert.Equal(t, roster.Present, r[0].Status)
}

func TestSession_ordering(t *testing.T) {
	for _, n := range []int{1, 2, 7, 30} {
		t.Run(fmt.Sprintf("%d students", n), func(t *testing.T) {
			r := newRoster(n)
			s := NewSession(r)

			visited := make([]string, 0, n)
			for i := 0; i < n; i++ {
				cur, err := s.Current()
				require.NoError(t, err)
				visited = append(visited, cur.ID)
				require.NoError(t, s.Decide(roster.Present))
			}

			want := make([]string, 0, n)
			for _, stu := range r {
				want = append(want, stu.ID)
			}
			assert.Equal(t, want, visited)
			assert.Equal(t, Completed, s.State())
		})
	}
}

func TestSession_undoIsInverse(t *testing.T) {
	s := NewSession(newRoster(4))
	require.NoError(t, s.Decide(roster.Present))
	require.NoError(t, s.Decide(roster.Absent))

	for _, st := range []roster.Status{roster.Present, roster.Absent} {
		before, beforeCursor := s.Roster(), s.Cursor()
		require.NoError(t, s.Decide(st))
		require.True(t, s.Undo())
		assert.Equal(t, before, s.Roster())
		assert.Equal(t, beforeCursor, s.Cursor())
	}
}

func TestSession_completion(t *testing.T) {
	t.Run("empty roster", func(t *testing.T) {
		s := NewSession(roster.Roster{})
		assert.Equal(t, Completed, s.State())
		assert.Equal(t, 0, s.Cursor())
		assert.Equal(t, 0.0, s.Progress())

		_, err := s.Current()
		assert.Equal(t, ErrSessionClosed, err)
		assert.Equal(t, ErrSessionClosed, s.Decide(roster.Present))

		rs, err := s.Finalize()
		require.NoError(t, err)
		assert.Equal(t, Stats{}, rs.Stats())
	})

	t.Run("cursor == len iff completed", func(t *testing.T) {
		s := NewSession(newRoster(3))
		for i := 0; i < 3; i++ {
			assert.Equal(t, s.Cursor() == s.Len(), s.Completed())
			require.NoError(t, s.Decide(roster.Absent))
		}
		assert.Equal(t, s.Cursor(), s.Len())
		assert.True(t, s.Completed())

		require.True(t, s.Undo())
		assert.False(t, s.Completed())
	})
}

func TestSession_progress(t *testing.T) {
	s := NewSession(newRoster(5))
	prev := s.Progress()
	for i := 0; i < 5; i++ {
		require.NoError(t, s.Decide(roster.Present))
		assert.Greater(t, s.Progress(), prev)
		prev = s.Progress()
	}
	assert.Equal(t, 1.0, prev)

	for s.Undo() {
		assert.Less(t, s.Progress(), prev)
		prev = s.Progress()
	}
	assert.Equal(t, 0.0, s.Progress())

	// undo at the boundary changes nothing
	assert.False(t, s.Undo())
	assert.Equal(t, 0.0, s.Progress())
}

func TestSession_Decide_errors(t *testing.T) {
	s := NewSession(newRoster(1))

	assert.Equal(t, ErrInvalidStatus, s.Decide(roster.Undecided))
	assert.Equal(t, ErrInvalidStatus, s.Decide(roster.Status(42)))
	assert.Equal(t, 0, s.Cursor())
	assert.Equal(t, 0, s.HistoryLen())

	require.NoError(t, s.Decide(roster.Present))
	assert.Equal(t, ErrSessionClosed, s.Decide(roster.Absent))
	assert.Equal(t, 1, s.HistoryLen())
	assert.Equal(t, roster.Present, s.Roster()[0].Status)

	// invalid values are reported before the closed state
	assert.Equal(t, ErrInvalidStatus, s.Decide(roster.Undecided))
}

func TestSession_scenarios(t *testing.T) {
	r := roster.Roster{
		{ID: "1", RollNo: "001", Name: "A"},
		{ID: "2", RollNo: "002", Name: "B"},
	}

	t.Run("present then absent", func(t *testing.T) {
		s := NewSession(r)
		require.NoError(t, s.Decide(roster.Present))
		assert.Equal(t, 1, s.Cursor())
		assert.Equal(t, roster.Present, s.Roster()[0].Status)

		require.NoError(t, s.Decide(roster.Absent))
		assert.Equal(t, 2, s.Cursor())
		assert.Equal(t, Completed, s.State())
		assert.Equal(t, roster.Absent, s.Roster()[1].Status)

		rs, err := s.Finalize()
		require.NoError(t, err)
		assert.Equal(t, Stats{Total: 2, Present: 1, Absent: 1, PresentPercentage: 50}, rs.Stats())
	})

	t.Run("decide, undo, decide", func(t *testing.T) {
		s := NewSession(r)
		require.NoError(t, s.Decide(roster.Present))
		require.True(t, s.Undo())
		require.NoError(t, s.Decide(roster.Absent))

		assert.Equal(t, roster.Absent, s.Roster()[0].Status)
		assert.Equal(t, 1, s.HistoryLen())
		assert.Equal(t, 1, s.Cursor())
	})
}

func TestSession_Restart(t *testing.T) {
	s := NewSession(newRoster(3))
	for i := 0; i < 3; i++ {
		require.NoError(t, s.Decide(roster.Present))
	}
	rs, err := s.Finalize()
	require.NoError(t, err)

	s.Restart()
	assert.Equal(t, InProgress, s.State())
	assert.Equal(t, 0, s.Cursor())
	assert.Equal(t, 0, s.HistoryLen())
	for _, stu := range s.Roster() {
		assert.Equal(t, roster.Undecided, stu.Status)
	}

	// finalized results are detached from the session
	assert.Equal(t, 3, rs.Stats().Present)
}

func TestSession_Finalize_open(t *testing.T) {
	s := NewSession(newRoster(2))
	require.NoError(t, s.Decide(roster.Present))
	_, err := s.Finalize()
	assert.Equal(t, ErrSessionOpen, err)
}

func TestSession_Snapshot(t *testing.T) {
	s := NewSession(newRoster(2))
	snap := s.Snapshot()
	require.NotNil(t, snap.Current)
	assert.Equal(t, "1", snap.Current.ID)
	assert.Equal(t, InProgress, snap.State)
	assert.False(t, snap.CanUndo)

	require.NoError(t, s.Decide(roster.Present))
	require.NoError(t, s.Decide(roster.Present))
	snap = s.Snapshot()
	assert.Nil(t, snap.Current)
	assert.Equal(t, Completed, snap.State)
	assert.Equal(t, 1.0, snap.Progress)
	assert.True(t, snap.CanUndo)
}

func TestSession_concurrentDecide(t *testing.T) {
	const n = 100
	s := NewSession(newRoster(n))

	var wg sync.WaitGroup
	errs := make(chan error, n+10)
	for i := 0; i < n+10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- s.Decide(roster.Present)
		}()
	}
	wg.Wait()
	close(errs)

	var closed int
	for err := range errs {
		if err == ErrSessionClosed {
			closed++
		} else {
			assert.NoError(t, err)
		}
	}
	assert.Equal(t, 10, closed)
	assert.Equal(t, n, s.Cursor())
	assert.Equal(t, n, s.HistoryLen())
}
