package tests

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/mahudhurio/apps/api/echo"
	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/account"
	"github.com/trezcool/mahudhurio/core/attendance"
	"github.com/trezcool/mahudhurio/core/roster"
	"github.com/trezcool/mahudhurio/core/settings"
	"github.com/trezcool/mahudhurio/core/subject"
	"github.com/trezcool/mahudhurio/services/email"
	"github.com/trezcool/mahudhurio/storage/docrepos"
	"github.com/trezcool/mahudhurio/storage/docstore/inmem"
	"github.com/trezcool/mahudhurio/tests"
)

var errMissingToken = httpErr{Error: "missing or malformed jwt"}

// env is a Server wired on an in-memory store, along with what tests need to arrange and inspect.
type env struct {
	conf          *core.Config
	store         *inmem.Store
	logger        *testutil.Logger
	accRepo       account.Repository
	subjectRepo   subject.Repository
	settingsSvc   *settings.Service
	attendanceSvc *attendance.Service
	mailSvc       *emailsvc.ConsoleServiceMock
	app           *echoapi.Server
}

func setup(t *testing.T) *env {
	conf := testutil.NewConfig()
	logger := new(testutil.Logger)
	store := testutil.NewStore()
	validate, translator := testutil.NewValidator()

	// set up repos
	accRepo := docrepos.NewAccountRepository(store)
	subjectRepo := docrepos.NewSubjectRepository(store)

	// set up services
	loader := roster.NewLoader(store, logger)
	subjectSvc := subject.NewService(subjectRepo)
	settingsSvc := settings.NewService(docrepos.NewSettingsRepository(store))
	accountSvc := account.NewService(accRepo, subjectSvc, settingsSvc, conf, logger)
	attendanceSvc := attendance.NewService(loader, docrepos.NewRecordRepository(store), logger)
	mailSvc := emailsvc.NewConsoleServiceMock(conf, logger)

	// set up server
	app := echoapi.NewServer(echoapi.ServerDeps{
		Conf:          conf,
		Logger:        logger,
		Loader:        loader,
		AttendanceSvc: attendanceSvc,
		AccountSvc:    accountSvc,
		SubjectSvc:    subjectSvc,
		SettingsSvc:   settingsSvc,
		EmailSvc:      mailSvc,
		Validate:      validate,
		Translator:    translator,
	})
	t.Cleanup(func() { _ = app.Close() })

	return &env{
		conf:          conf,
		store:         store,
		logger:        logger,
		accRepo:       accRepo,
		subjectRepo:   subjectRepo,
		settingsSvc:   settingsSvc,
		attendanceSvc: attendanceSvc,
		mailSvc:       mailSvc,
		app:           app,
	}
}

func (e *env) serve(tt httpTest) *httptest.ResponseRecorder {
	req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
	e.app.ServeHTTP(rec, req)
	return rec
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
	extra    interface{}
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func identity(acc account.Account) account.Identity {
	return account.Identity{
		ID:       acc.ID,
		Role:     acc.Role,
		Name:     acc.Name,
		Username: acc.Username,
		Email:    acc.Email,
	}
}

func getToken(t *testing.T, conf *core.Config, acc account.Account, origIat ...int64) string {
	token, err := echoapi.GenerateToken(conf, echoapi.GetIdentityClaims(conf, identity(acc), origIat...))
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func marchallList(t *testing.T, objs ...interface{}) []byte {
	if objs == nil {
		objs = []interface{}{}
	}
	data, err := json.Marshal(objs)
	if err != nil {
		t.Fatalf("marchallList() failed: %v", err)
	}
	return data
}

func unmarshal(t *testing.T, rec *httptest.ResponseRecorder, dest interface{}) {
	if err := json.Unmarshal(rec.Body.Bytes(), dest); err != nil {
		t.Fatalf("unmarshal(%s) failed: %v", rec.Body.String(), err)
	}
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	if reflect.DeepEqual(j1, j2) {
		return true, nil
	}
	if j1 == nil || j2 == nil {
		return false, nil
	}
	if _, ok := j1.([]interface{}); !ok {
		return false, nil
	}
	return assert.ElementsMatch(t, j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

func runTests(t *testing.T, e *env, tests []httpTest) {
	for _, tt := range tests {
		if tt.method == "" {
			tt.method = http.MethodGet
		}
		if tt.wantCode == 0 {
			tt.wantCode = http.StatusOK
		}

		t.Run(tt.name, func(t *testing.T) {
			checkCodeAndData(t, tt, e.serve(tt))
		})
	}
}

func todayKey() string {
	return core.DateKey(time.Now())
}
