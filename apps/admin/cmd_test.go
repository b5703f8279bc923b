package main

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"io/ioutil"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/mahudhurio/core/account"
	"github.com/trezcool/mahudhurio/core/roster"
	"github.com/trezcool/mahudhurio/storage/docrepos"
	"github.com/trezcool/mahudhurio/tests"
)

var accRepo account.Repository

func setup(t *testing.T) *commandLine {
	store := testutil.NewStore()
	accRepo = docrepos.NewAccountRepository(store)
	return newCommandLine(testutil.NewConfig(), new(testutil.Logger), nil, store)
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
	extra      interface{}
}

func checkErr(t *testing.T, tt cliTest, err error) {
	if err == nil {
		if tt.wantErr != nil || tt.wantErrStr != "" {
			t.Errorf("cli.run() error = nil, wantErr %v %s", tt.wantErr, tt.wantErrStr)
		}
		return
	}
	if tt.wantErr != nil {
		if err != tt.wantErr {
			t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
		}
	} else if tt.wantErrStr != "" {
		if err.Error() != tt.wantErrStr {
			t.Errorf("cli.run() error.Error() = %s, wantErrStr %s", err.Error(), tt.wantErrStr)
		}
	} else {
		t.Errorf("cli.run() unexpected error = %v", err)
	}
}

func Test_commandLine_migrate(t *testing.T) {
	origMigrate := migrateFunc
	t.Cleanup(func() { migrateFunc = origMigrate })

	migrateFunc = func(db *sql.DB, command string, args ...string) error {
		switch command {
		case "up", "up-by-one", "down", "fix", "redo", "reset", "status", "version": // pass
		case "up-to", "down-to":
			if len(args) == 0 {
				return fmt.Errorf("%s must be of form: goose [OPTIONS] DRIVER DBSTRING %s VERSION", command, command)
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		case "create":
			if len(args) == 0 {
				return fmt.Errorf("create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]")
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		return nil
	}

	t.Run("document store without database", func(t *testing.T) {
		cli := setup(t)
		checkErr(t, cliTest{wantErr: errNoDatabase}, cli.run([]string{"admin", "migrate", "up"}))
	})

	cli := &commandLine{db: &sql.DB{}}
	tests := []cliTest{
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION"},
		{name: "up-to: non-int arg", args: []string{"migrate", "up-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "create: no args", args: []string{"migrate", "create"}, wantErrStr: "create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]"},
		{name: "down-to: no args", args: []string{"migrate", "down-to"}, wantErrStr: "down-to must be of form: goose [OPTIONS] DRIVER DBSTRING down-to VERSION"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-to", args: []string{"migrate", "up-to", "1"}},
		{name: "down", args: []string{"migrate", "down"}},
		{name: "down-to", args: []string{"migrate", "down-to", "0"}},
		{name: "redo", args: []string{"migrate", "redo"}},
		{name: "reset", args: []string{"migrate", "reset"}},
		{name: "status", args: []string{"migrate", "status"}},
		{name: "version", args: []string{"migrate", "version"}},
		{name: "create", args: []string{"migrate", "create", "classes", "sql"}},
		{name: "fix", args: []string{"migrate", "fix"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			checkErr(t, tt, cli.run(args))
		})
	}
}

func mockPassword(t *testing.T, pwd *string) {
	origRead := readPasswordFunc
	t.Cleanup(func() { readPasswordFunc = origRead })
	readPasswordFunc = func(fd int) ([]byte, error) {
		return []byte(*pwd), nil
	}
}

func Test_commandLine_addUser(t *testing.T) {
	cli := setup(t)
	var pwd string
	mockPassword(t, &pwd)

	type extra struct {
		pwd      string
		role     account.Role
		username string
		name     string
	}
	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "no username", args: []string{"adduser"}, wantErr: errHelp},
		{name: "no password", args: []string{"adduser", "-username", "jdoe"}, wantErr: errHelp},
		{
			name: "teacher", args: []string{"adduser", "-username", "JDoe", "-email", "jdoe@test.cd", "-name", "John Doe"},
			extra: extra{pwd: "s3cret-pass", role: account.RoleTeacher, username: "jdoe", name: "John Doe"},
		},
		{
			name: "teacher update keeps name", args: []string{"adduser", "-username", "jdoe"},
			extra: extra{pwd: "n3w-pass", role: account.RoleTeacher, username: "jdoe", name: "John Doe"},
		},
		{
			name: "admin defaults name to username", args: []string{"adduser", "-admin", "-username", "boss"},
			extra: extra{pwd: "b0ss-pass", role: account.RoleAdmin, username: "boss", name: "boss"},
		},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)
		ex, _ := tt.extra.(extra)
		pwd = ex.pwd

		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(args)
			checkErr(t, tt, err)
			if err != nil {
				return
			}

			acc, err := cli.accountSvc.GetByLogin(context.Background(), ex.role, ex.username)
			require.NoError(t, err)
			assert.Equal(t, ex.name, acc.Name)
			assert.Equal(t, account.StatusActive, acc.Status)
			assert.NoError(t, acc.CheckPassword(ex.pwd))
		})
	}

	accs, err := accRepo.QueryAccounts(context.Background(), account.RoleTeacher)
	require.NoError(t, err)
	assert.Len(t, accs, 1, "adduser updates existing accounts")
}

func Test_commandLine_resetPassword(t *testing.T) {
	cli := setup(t)
	var pwd string
	mockPassword(t, &pwd)

	acc := testutil.CreateTeacher(t, accRepo, "User", "awe", "awe@test.cd", "mdr")

	tests := []cliTest{
		{name: "no args", args: []string{"resetpassword"}, wantErr: errHelp},
		{name: "username but no password", args: []string{"resetpassword", "-username", "awe"}, wantErr: errHelp},
		{name: "account not found", args: []string{"resetpassword", "-username", "lol"}, extra: "lol", wantErr: account.ErrNotFound},
		{name: "admins are looked up separately", args: []string{"resetpassword", "-admin", "-username", "awe"}, extra: "lol", wantErr: account.ErrNotFound},
		{name: "reset with username", args: []string{"resetpassword", "-username", acc.Username}, extra: "lol"},
		{name: "reset with email", args: []string{"resetpassword", "-username", acc.Email}, extra: "lmao"},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)
		pwd, _ = tt.extra.(string)

		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(args)
			checkErr(t, tt, err)
			if err != nil {
				return
			}

			refreshed, err := accRepo.GetAccount(context.Background(), account.RoleTeacher, acc.ID)
			if err != nil {
				t.Fatalf("GetAccount() failed, %v", err)
			}
			if bytes.Equal(refreshed.PasswordHash, acc.PasswordHash) {
				t.Error("failed to update new password")
			}
			if err = refreshed.CheckPassword(pwd); err != nil {
				t.Errorf("CheckPassword(%q) = %v", pwd, err)
			}
		})
	}
}

const seedYAML = `
classes:
  cs-101:
    - {id: s1, rollNo: "1", name: Alice, serialNo: 1}
    - {id: s2, rollNo: "2", name: Bob, serialNo: 2}
  cs-102:
    - {id: s3, rollNo: "10", name: Carol, serialNo: 1}
teachers:
  - {username: JDoe, name: John Doe, email: jdoe@school.test, password: s3cure-pass}
subjects:
  - {name: Algorithms, code: cs101, description: Sorting, teachers: [jdoe]}
settings:
  attendanceCutoffTime: "09:30"
  semester: "2"
`

func Test_parseSeed(t *testing.T) {
	sd, err := parseSeed([]byte(seedYAML))
	require.NoError(t, err)
	assert.Len(t, sd.Classes, 2)
	assert.Equal(t, []seedStudent{
		{ID: "s1", RollNo: "1", Name: "Alice", SerialNo: 1},
		{ID: "s2", RollNo: "2", Name: "Bob", SerialNo: 2},
	}, sd.Classes["cs-101"])
	assert.Equal(t, []seedTeacher{{Username: "JDoe", Name: "John Doe", Email: "jdoe@school.test", Password: "s3cure-pass"}}, sd.Teachers)
	assert.Equal(t, []string{"jdoe"}, sd.Subjects[0].Teachers)
	assert.Equal(t, "09:30", sd.Settings["attendanceCutoffTime"])

	_, err = parseSeed([]byte("classes: [oops"))
	assert.Error(t, err)
}

func Test_commandLine_seed(t *testing.T) {
	cli := setup(t)
	ctx := context.Background()

	dir := t.TempDir()
	file := filepath.Join(dir, "seed.yaml")
	require.NoError(t, ioutil.WriteFile(file, []byte(seedYAML), 0o600))

	checkErr(t, cliTest{wantErr: errHelp}, cli.run([]string{"admin", "seed"}))
	assert.Error(t, cli.run([]string{"admin", "seed", "-file", filepath.Join(dir, "missing.yaml")}))

	// seeding is idempotent
	for i := 0; i < 2; i++ {
		require.NoError(t, cli.run([]string{"admin", "seed", "-file", file}))
	}

	loader := roster.NewLoader(cli.store, new(testutil.Logger))
	classes, err := loader.Classes(ctx)
	require.NoError(t, err)
	assert.Equal(t, []roster.ClassSummary{{ID: "cs-101", Students: 2}, {ID: "cs-102", Students: 1}}, classes)

	teacher, err := cli.accountSvc.GetByLogin(ctx, account.RoleTeacher, "jdoe")
	require.NoError(t, err)
	assert.NoError(t, teacher.CheckPassword("s3cure-pass"))

	subjects, err := cli.subjectSvc.Query(ctx)
	require.NoError(t, err)
	require.Len(t, subjects, 1)
	assert.Equal(t, "CS101", subjects[0].Code)
	assert.Equal(t, []string{teacher.ID}, subjects[0].AssignedTeachers)

	s, err := cli.settingsSvc.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "09:30", s.AttendanceCutoffTime)
	assert.Equal(t, "2", s.Semester)

	t.Run("invalid class id", func(t *testing.T) {
		err := cli.load(ctx, seedData{Classes: map[string][]seedStudent{"cs.101": {}}})
		assert.EqualError(t, err, `invalid class id "cs.101"`)
	})
	t.Run("unknown teacher", func(t *testing.T) {
		err := cli.load(ctx, seedData{Subjects: []seedSubject{{Name: "Maths", Code: "MA1", Teachers: []string{"nobody"}}}})
		assert.Equal(t, account.ErrNotFound, errors.Cause(err))
	})
	t.Run("invalid settings", func(t *testing.T) {
		err := cli.load(ctx, seedData{Settings: map[string]interface{}{"attendanceCutoffTime": "late"}})
		assert.Error(t, err)
	})
}
