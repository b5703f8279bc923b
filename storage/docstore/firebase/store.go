// Package firebase talks to a Firebase Realtime Database through its REST API.
package firebase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/sendgrid/rest"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/storage/docstore"
)

var nullBody = []byte("null")

type Store struct {
	baseURL string
	auth    string
	client  *rest.Client
	logger  core.Logger
}

var _ core.DocumentStore = (*Store)(nil)

// NewStore returns a Store for the database at baseURL (e.g. https://my-app.firebaseio.com).
// auth is sent as the `auth` query param when not empty.
func NewStore(baseURL, auth string, timeout time.Duration, logger core.Logger) *Store {
	return &Store{
		baseURL: baseURL,
		auth:    auth,
		client:  &rest.Client{HTTPClient: &http.Client{Timeout: timeout}},
		logger:  logger,
	}
}

func (s *Store) url(path string) string {
	return s.baseURL + "/" + docstore.JoinPath(path) + ".json"
}

func (s *Store) request(method rest.Method, path string, body []byte) rest.Request {
	req := rest.Request{
		Method:  method,
		BaseURL: s.url(path),
		Headers: map[string]string{"Accept": "application/json"},
		Body:    body,
	}
	if body != nil {
		req.Headers["Content-Type"] = "application/json"
	}
	if s.auth != "" {
		req.QueryParams = map[string]string{"auth": s.auth}
	}
	return req
}

func (s *Store) send(ctx context.Context, req rest.Request) (*rest.Response, error) {
	res, err := s.client.SendWithContext(ctx, req)
	if err != nil {
		return nil, errors.Wrapf(err, "%s %s", req.Method, req.BaseURL)
	}
	if res.StatusCode >= http.StatusBadRequest {
		err = fmt.Errorf("%s %s - status: %d - body: %s", req.Method, req.BaseURL, res.StatusCode, res.Body)
		s.logger.Error(err.Error())
		return nil, err
	}
	return res, nil
}

func (s *Store) Get(ctx context.Context, path string) (json.RawMessage, error) {
	res, err := s.send(ctx, s.request(rest.Get, path, nil))
	if err != nil {
		return nil, err
	}
	body := bytes.TrimSpace([]byte(res.Body))
	if len(body) == 0 || bytes.Equal(body, nullBody) {
		return nil, core.ErrDocumentNotFound
	}
	return body, nil
}

func (s *Store) Set(ctx context.Context, path string, value interface{}) error {
	val, err := docstore.Normalize(value)
	if err != nil {
		return errors.Wrapf(err, "normalizing %q", path)
	}
	if docstore.IsEmpty(val) {
		return s.Remove(ctx, path)
	}
	body, err := json.Marshal(val)
	if err != nil {
		return errors.Wrapf(err, "encoding %q", path)
	}
	_, err = s.send(ctx, s.request(rest.Put, path, body))
	return err
}

func (s *Store) Remove(ctx context.Context, path string) error {
	_, err := s.send(ctx, s.request(rest.Delete, path, nil))
	return err
}

func (s *Store) Close() error {
	s.client.HTTPClient.CloseIdleConnections()
	return nil
}
