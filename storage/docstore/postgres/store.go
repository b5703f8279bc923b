// Package postgres stores the document tree in PostgreSQL: one JSONB row per top-level key.
package postgres

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/storage/docstore"
)

const (
	selectAllQuery  = `SELECT key, value FROM documents ORDER BY key`
	selectPathQuery = `SELECT value #> $2 FROM documents WHERE key = $1`
	lockQuery       = `SELECT value FROM documents WHERE key = $1 FOR UPDATE`
	upsertQuery     = `INSERT INTO documents (key, value, updated_at) VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`
	deleteQuery    = `DELETE FROM documents WHERE key = $1`
	deleteAllQuery = `DELETE FROM documents`
)

type document struct {
	Key   string    `db:"key"`
	Value null.JSON `db:"value"`
}

type Store struct {
	db *sqlx.DB
}

var _ core.DocumentStore = (*Store)(nil)

func NewStore(db *sqlx.DB) *Store {
	return &Store{db: db}
}

func isNull(js null.JSON) bool {
	return !js.Valid || len(js.JSON) == 0 || bytes.Equal(bytes.TrimSpace(js.JSON), []byte("null"))
}

func (s *Store) Get(ctx context.Context, path string) (json.RawMessage, error) {
	keys := docstore.SplitPath(path)
	if len(keys) == 0 {
		return s.getAll(ctx)
	}

	var value null.JSON
	if err := s.db.GetContext(ctx, &value, selectPathQuery, keys[0], pq.Array(keys[1:])); err != nil {
		if err == sql.ErrNoRows {
			return nil, core.ErrDocumentNotFound
		}
		return nil, errors.Wrapf(err, "selecting %q", path)
	}
	if isNull(value) {
		return nil, core.ErrDocumentNotFound
	}
	return json.RawMessage(value.JSON), nil
}

func (s *Store) getAll(ctx context.Context) (json.RawMessage, error) {
	var docs []document
	if err := s.db.SelectContext(ctx, &docs, selectAllQuery); err != nil {
		return nil, errors.Wrap(err, "selecting documents")
	}
	root := make(map[string]json.RawMessage, len(docs))
	for _, d := range docs {
		if !isNull(d.Value) {
			root[d.Key] = json.RawMessage(d.Value.JSON)
		}
	}
	if len(root) == 0 {
		return nil, core.ErrDocumentNotFound
	}
	data, err := json.Marshal(root)
	return data, errors.Wrap(err, "encoding documents")
}

func (s *Store) Set(ctx context.Context, path string, value interface{}) error {
	val, err := docstore.Normalize(value)
	if err != nil {
		return errors.Wrapf(err, "normalizing %q", path)
	}
	return s.update(ctx, path, val)
}

func (s *Store) Remove(ctx context.Context, path string) error {
	return s.update(ctx, path, nil)
}

// update does a read-modify-write of the top-level document holding path, inside a transaction.
func (s *Store) update(ctx context.Context, path string, val interface{}) (err error) {
	keys := docstore.SplitPath(path)

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "starting transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
			return
		}
		err = errors.Wrap(tx.Commit(), "committing transaction")
	}()

	if len(keys) == 0 {
		return replaceAll(ctx, tx, val)
	}

	var current null.JSON
	if err = tx.GetContext(ctx, &current, lockQuery, keys[0]); err != nil && err != sql.ErrNoRows {
		return errors.Wrapf(err, "locking %q", keys[0])
	}
	var root interface{}
	if !isNull(current) {
		if err = json.Unmarshal(current.JSON, &root); err != nil {
			return errors.Wrapf(err, "decoding %q", keys[0])
		}
	}

	return write(ctx, tx, keys[0], docstore.Put(root, keys[1:], val))
}

func write(ctx context.Context, tx *sqlx.Tx, key string, value interface{}) error {
	if docstore.IsEmpty(value) {
		_, err := tx.ExecContext(ctx, deleteQuery, key)
		return errors.Wrapf(err, "deleting %q", key)
	}
	data, err := json.Marshal(value)
	if err != nil {
		return errors.Wrapf(err, "encoding %q", key)
	}
	_, err = tx.ExecContext(ctx, upsertQuery, key, null.JSONFrom(data))
	return errors.Wrapf(err, "upserting %q", key)
}

func replaceAll(ctx context.Context, tx *sqlx.Tx, val interface{}) error {
	if _, err := tx.ExecContext(ctx, deleteAllQuery); err != nil {
		return errors.Wrap(err, "deleting documents")
	}
	tree, ok := val.(docstore.Tree)
	if !ok {
		if docstore.IsEmpty(val) {
			return nil
		}
		return errors.New("root value must be an object")
	}
	for key, child := range tree {
		if err := write(ctx, tx, key, child); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
