// Package testutil holds the helpers shared by the tests of every package.
package testutil

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/account"
	"github.com/trezcool/mahudhurio/core/roster"
	"github.com/trezcool/mahudhurio/core/settings"
	"github.com/trezcool/mahudhurio/core/subject"
	"github.com/trezcool/mahudhurio/storage/docstore/inmem"
)

const (
	AdminUsername = "root"
	AdminPassword = "b00tstrap-Secret"
)

// NewConfig returns the default config in test mode, with bootstrap admin credentials.
func NewConfig() *core.Config {
	conf := core.NewConfig()
	conf.Debug = false
	conf.TestMode = true
	conf.SecretKey = "test-secret-key"
	conf.Store.Engine = core.StoreMemory
	conf.Bootstrap = core.BootstrapConfig{
		AdminUsername: AdminUsername,
		AdminPassword: AdminPassword,
		AdminName:     "Test Admin",
	}
	conf.Report = core.ReportConfig{Institution: "Test University", Department: "Computer Science"}
	return conf
}

func NewValidator() (*validator.Validate, ut.Translator) {
	_en := en.New()
	translator, _ := ut.New(_en, _en).GetTranslator("en")
	validate := validator.New()
	core.InitValidators(validate, translator)
	roster.InitValidators(validate, translator)
	account.InitValidators(validate, translator)
	settings.InitValidators(validate, translator)
	return validate, translator
}

type LogEntry struct {
	Level string
	Msg   string
	Args  []interface{}
}

// Logger records log entries instead of printing them.
type Logger struct {
	mu      sync.Mutex
	entries []LogEntry
}

var _ core.Logger = (*Logger)(nil)

func (l *Logger) log(level, msg string, args []interface{}) {
	l.mu.Lock()
	l.entries = append(l.entries, LogEntry{Level: level, Msg: msg, Args: args})
	l.mu.Unlock()
}

func (l *Logger) Debug(msg string, args ...interface{}) { l.log("DEBUG", msg, args) }
func (l *Logger) Info(msg string, args ...interface{})  { l.log("INFO", msg, args) }
func (l *Logger) Warn(msg string, args ...interface{})  { l.log("WARN", msg, args) }
func (l *Logger) Error(msg string, args ...interface{}) { l.log("ERROR", msg, args) }
func (l *Logger) Fatal(msg string, args ...interface{}) { panic(fmt.Sprintf("FATAL: %s %v", msg, args)) }

func (l *Logger) Entries(level string) []LogEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []LogEntry
	for _, e := range l.entries {
		if level == "" || e.Level == level {
			out = append(out, e)
		}
	}
	return out
}

// Logged reports whether a message at level contains substr.
func (l *Logger) Logged(level, substr string) bool {
	for _, e := range l.Entries(level) {
		if strings.Contains(e.Msg, substr) {
			return true
		}
	}
	return false
}

func NewStore() *inmem.Store {
	return inmem.NewStore()
}

// SeedClass stores students under students/{classID}. students can be any JSON-encodable payload.
func SeedClass(t *testing.T, store core.DocumentStore, classID string, students interface{}) {
	t.Helper()
	if err := store.Set(context.Background(), roster.ClassPath(classID), students); err != nil {
		t.Fatalf("SeedClass() failed: %v", err)
	}
}

// Students builds n students s1..sn with roll numbers 1..n and serial numbers 1..n.
func Students(n int) []map[string]interface{} {
	students := make([]map[string]interface{}, 0, n)
	for i := 1; i <= n; i++ {
		students = append(students, map[string]interface{}{
			"id":       fmt.Sprintf("s%d", i),
			"rollNo":   fmt.Sprintf("%d", i),
			"name":     fmt.Sprintf("Student %d", i),
			"serialNo": i,
		})
	}
	return students
}

func createAccount(t *testing.T, repo account.Repository, role account.Role, name, uname, email, pwd string, status account.Status) account.Account {
	t.Helper()
	acc := account.Account{
		ID:       fmt.Sprintf("%s-%s", role, uname),
		Role:     role,
		Name:     name,
		Username: uname,
		Email:    email,
		Status:   status,
	}
	if pwd != "" {
		if err := acc.SetPassword(pwd); err != nil {
			t.Fatalf("createAccount() failed: %v", err)
		}
	}
	acc, err := repo.SaveAccount(context.Background(), acc)
	if err != nil {
		t.Fatalf("createAccount() failed: %v", err)
	}
	return acc
}

func CreateTeacher(t *testing.T, repo account.Repository, name, uname, email, pwd string, status ...account.Status) account.Account {
	st := account.StatusActive
	if len(status) > 0 {
		st = status[0]
	}
	return createAccount(t, repo, account.RoleTeacher, name, uname, email, pwd, st)
}

func CreateAdmin(t *testing.T, repo account.Repository, name, uname, email, pwd string) account.Account {
	return createAccount(t, repo, account.RoleAdmin, name, uname, email, pwd, account.StatusActive)
}

func CreateSubject(t *testing.T, repo subject.Repository, code, name string, teacherIDs ...string) subject.Subject {
	t.Helper()
	if teacherIDs == nil {
		teacherIDs = []string{}
	}
	s, err := repo.SaveSubject(context.Background(), subject.Subject{
		ID:               strings.ToLower(code),
		Code:             code,
		Name:             name,
		AssignedTeachers: teacherIDs,
	})
	if err != nil {
		t.Fatalf("CreateSubject() failed: %v", err)
	}
	return s
}
