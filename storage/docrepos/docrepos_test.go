package docrepos

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/account"
	"github.com/trezcool/mahudhurio/core/attendance"
	"github.com/trezcool/mahudhurio/core/roster"
	"github.com/trezcool/mahudhurio/core/settings"
	"github.com/trezcool/mahudhurio/core/subject"
	"github.com/trezcool/mahudhurio/tests"
)

func TestPath(t *testing.T) {
	assert.Equal(t, "teachers/t1", path("teachers", "t1"))
	assert.Equal(t, "settings", path("settings"))
	assert.True(t, validKeys("CS101", "2021-03-01"))
	assert.False(t, validKeys("cs.101"))
	assert.False(t, validKeys("a/b"))
	assert.False(t, validKeys(""))
}

func TestAccountRepository(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewStore()
	repo := NewAccountRepository(store)

	_, err := repo.QueryAccounts(ctx, account.RoleTeacher)
	assert.Equal(t, core.ErrDocumentNotFound, err)

	login := time.Date(2021, time.March, 1, 8, 0, 0, 0, time.UTC)
	acc := account.Account{
		ID:        "t1",
		Role:      account.RoleTeacher,
		Username:  "jdoe",
		Name:      "Jane Doe",
		Status:    account.StatusActive,
		CreatedAt: login.Add(-time.Hour),
		UpdatedAt: login.Add(-time.Hour),
		LastLogin: &login,
	}
	require.NoError(t, acc.SetPassword("s3cret-Pass"))
	_, err = repo.SaveAccount(ctx, acc)
	require.NoError(t, err)

	data, err := store.Get(ctx, "teachers/t1")
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"id": "t1",
		"username": "jdoe",
		"name": "Jane Doe",
		"status": "active",
		"passwordHash": "`+string(acc.PasswordHash)+`",
		"createdAt": "2021-03-01T07:00:00Z",
		"updatedAt": "2021-03-01T07:00:00Z",
		"lastLogin": "2021-03-01T08:00:00Z"
	}`, string(data))

	got, err := repo.GetAccount(ctx, account.RoleTeacher, "t1")
	require.NoError(t, err)
	assert.Equal(t, "jdoe", got.Username)
	assert.Empty(t, got.Email)
	assert.Nil(t, got.LastLogout)
	require.NotNil(t, got.LastLogin)
	assert.True(t, login.Equal(*got.LastLogin))
	assert.NoError(t, got.CheckPassword("s3cret-Pass"))

	_, err = repo.GetAccount(ctx, account.RoleAdmin, "t1")
	assert.Equal(t, account.ErrNotFound, err)
	_, err = repo.GetAccount(ctx, account.RoleTeacher, "../t1")
	assert.Equal(t, account.ErrNotFound, err)

	t.Run("legacy documents", func(t *testing.T) {
		// accounts created outside of the app may lack id and status
		require.NoError(t, store.Set(ctx, "teachers/legacy", map[string]interface{}{"username": "old", "name": "Old"}))
		got, err := repo.GetAccount(ctx, account.RoleTeacher, "legacy")
		require.NoError(t, err)
		assert.Equal(t, "legacy", got.ID)
		assert.Equal(t, account.StatusActive, got.Status)
	})

	accs, err := repo.QueryAccounts(ctx, account.RoleTeacher)
	require.NoError(t, err)
	assert.Len(t, accs, 2)

	_, err = repo.SaveAccount(ctx, account.Account{ID: "", Role: account.RoleTeacher})
	assert.Error(t, err)

	require.NoError(t, repo.DeleteAccounts(ctx, account.RoleTeacher, "t1", "legacy", "a/b"))
	_, err = repo.QueryAccounts(ctx, account.RoleTeacher)
	assert.Equal(t, core.ErrDocumentNotFound, err)
}

func TestSubjectRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewSubjectRepository(testutil.NewStore())

	subjects, err := repo.QuerySubjects(ctx)
	require.NoError(t, err)
	assert.Empty(t, subjects)

	_, err = repo.SaveSubject(ctx, subject.Subject{ID: "cs.101"})
	assert.IsType(t, &core.ValidationError{}, err)

	s, err := repo.SaveSubject(ctx, subject.Subject{ID: "cs101", Code: "CS101", Name: "Algorithms"})
	require.NoError(t, err)
	assert.Equal(t, []string{}, s.AssignedTeachers)

	got, err := repo.GetSubject(ctx, "cs101")
	require.NoError(t, err)
	assert.Equal(t, s, got)

	_, err = repo.GetSubject(ctx, "cs102")
	assert.Equal(t, subject.ErrNotFound, err)

	require.NoError(t, repo.DeleteSubject(ctx, "cs101"))
	subjects, err = repo.QuerySubjects(ctx)
	require.NoError(t, err)
	assert.Empty(t, subjects)
}

func TestSettingsRepository(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewStore()
	repo := NewSettingsRepository(store)

	_, err := repo.GetSettings(ctx)
	assert.Equal(t, core.ErrDocumentNotFound, err)

	// missing fields keep their default
	require.NoError(t, store.Set(ctx, "settings", map[string]interface{}{"semester": "2"}))
	s, err := repo.GetSettings(ctx)
	require.NoError(t, err)
	want := settings.Defaults()
	want.Semester = "2"
	assert.Equal(t, want, s)

	want.MaxAbsencesBeforeAlert = 10
	require.NoError(t, repo.SaveSettings(ctx, want))
	s, err = repo.GetSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, s)
}

func TestRecordRepository(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewStore()
	repo := NewRecordRepository(store)

	rec, err := repo.GetRecord(ctx, "CS101", "2021-03-01")
	require.NoError(t, err)
	assert.Empty(t, rec.Statuses)

	require.NoError(t, repo.SaveRecord(ctx, attendance.Record{
		ClassID: "CS101",
		Date:    "2021-03-01",
		Statuses: map[string]roster.Status{
			"1":   roster.Present,
			"2":   roster.Absent,
			"3":   roster.Undecided,
			"x.y": roster.Present,
		},
	}))

	data, err := store.Get(ctx, "attendance/CS101/2021-03-01")
	require.NoError(t, err)
	assert.JSONEq(t, `{"1":"present","2":"absent"}`, string(data))

	rec, err = repo.GetRecord(ctx, "CS101", "2021-03-01")
	require.NoError(t, err)
	assert.Equal(t, map[string]roster.Status{"1": roster.Present, "2": roster.Absent}, rec.Statuses)

	err = repo.SaveRecord(ctx, attendance.Record{ClassID: "CS/101", Date: "2021-03-01"})
	assert.Error(t, err)

	rec, err = repo.GetRecord(ctx, "CS/101", "2021-03-01")
	require.NoError(t, err)
	assert.Empty(t, rec.Statuses)

	t.Run("store failure", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := repo.GetRecord(cctx, "CS101", "2021-03-01")
		assert.Equal(t, context.Canceled, errors.Cause(err))
	})
}
