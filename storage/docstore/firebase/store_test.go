package firebase

import (
	"context"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/mahudhurio/core"
)

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Fatal(string, ...interface{}) {}

type request struct {
	method string
	path   string
	auth   string
	body   string
}

// fakeDB answers like the realtime database REST API for a fixed set of paths.
type fakeDB struct {
	mu       sync.Mutex
	docs     map[string]string
	requests []request
}

func (db *fakeDB) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := ioutil.ReadAll(r.Body)

	db.mu.Lock()
	defer db.mu.Unlock()
	db.requests = append(db.requests, request{r.Method, r.URL.Path, r.URL.Query().Get("auth"), string(body)})

	if r.URL.Path == "/forbidden.json" {
		http.Error(w, `{"error": "Permission denied"}`, http.StatusUnauthorized)
		return
	}
	switch r.Method {
	case http.MethodGet:
		doc, ok := db.docs[r.URL.Path]
		if !ok {
			doc = "null"
		}
		_, _ = w.Write([]byte(doc))
	case http.MethodPut:
		db.docs[r.URL.Path] = string(body)
		_, _ = w.Write(body)
	case http.MethodDelete:
		delete(db.docs, r.URL.Path)
		_, _ = w.Write([]byte("null"))
	}
}

func (db *fakeDB) last() request {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.requests[len(db.requests)-1]
}

func newTestStore(t *testing.T, auth string) (*Store, *fakeDB) {
	db := &fakeDB{docs: map[string]string{
		"/students/CS101.json": `[{"id":"1","rollNo":"001"}]`,
	}}
	srv := httptest.NewServer(db)
	t.Cleanup(srv.Close)
	return NewStore(srv.URL, auth, 5*time.Second, nopLogger{}), db
}

func TestStore_Get(t *testing.T) {
	ctx := context.Background()
	s, db := newTestStore(t, "db-secret")

	data, err := s.Get(ctx, "/students/CS101/")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"1","rollNo":"001"}]`, string(data))
	assert.Equal(t, request{method: http.MethodGet, path: "/students/CS101.json", auth: "db-secret"}, db.last())

	_, err = s.Get(ctx, "students/CS999")
	assert.Equal(t, core.ErrDocumentNotFound, err)

	_, err = s.Get(ctx, "forbidden")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "status: 401")
}

func TestStore_Set(t *testing.T) {
	ctx := context.Background()
	s, db := newTestStore(t, "")

	require.NoError(t, s.Set(ctx, "attendance/CS101/2021-03-01", map[string]string{"1": "present"}))
	last := db.last()
	assert.Equal(t, http.MethodPut, last.method)
	assert.Equal(t, "/attendance/CS101/2021-03-01.json", last.path)
	assert.Empty(t, last.auth)
	assert.JSONEq(t, `{"1":"present"}`, last.body)

	data, err := s.Get(ctx, "attendance/CS101/2021-03-01")
	require.NoError(t, err)
	assert.JSONEq(t, `{"1":"present"}`, string(data))

	// empty values delete the node
	require.NoError(t, s.Set(ctx, "attendance/CS101/2021-03-01", map[string]string{}))
	assert.Equal(t, http.MethodDelete, db.last().method)
	_, err = s.Get(ctx, "attendance/CS101/2021-03-01")
	assert.Equal(t, core.ErrDocumentNotFound, err)
}

func TestStore_Remove(t *testing.T) {
	ctx := context.Background()
	s, db := newTestStore(t, "")

	require.NoError(t, s.Remove(ctx, "students/CS101"))
	assert.Equal(t, request{method: http.MethodDelete, path: "/students/CS101.json"}, db.last())
	assert.Error(t, s.Remove(ctx, "forbidden"))
	assert.NoError(t, s.Close())
}
