package inmem

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/pkg/errors"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/storage/docstore"
)

// Store is an in-memory core.DocumentStore. Values are kept in their decoded form, so callers never share
// memory with the store.
type Store struct {
	mu   sync.RWMutex
	root interface{}
}

var _ core.DocumentStore = (*Store)(nil)

func NewStore() *Store {
	return new(Store)
}

func (s *Store) Get(ctx context.Context, path string) (json.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	node, ok := docstore.Lookup(s.root, docstore.SplitPath(path))
	if !ok {
		return nil, core.ErrDocumentNotFound
	}
	data, err := json.Marshal(node)
	if err != nil {
		return nil, errors.Wrapf(err, "encoding %q", path)
	}
	return data, nil
}

func (s *Store) Set(ctx context.Context, path string, value interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	val, err := docstore.Normalize(value)
	if err != nil {
		return errors.Wrapf(err, "normalizing %q", path)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.root = docstore.Put(s.root, docstore.SplitPath(path), val)
	return nil
}

func (s *Store) Remove(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.root = docstore.Put(s.root, docstore.SplitPath(path), nil)
	return nil
}

// Reset drops everything (tests).
func (s *Store) Reset() {
	s.mu.Lock()
	s.root = nil
	s.mu.Unlock()
}

func (s *Store) Close() error { return nil }
