package core

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
)

// ErrDocumentNotFound is returned when nothing is stored at the requested path.
var ErrDocumentNotFound = errors.New("document not found")

type (
	// DocumentReader reads JSON subtrees of a hierarchical document store.
	// Paths are slash separated keys, e.g. "students/CS101" or "attendance/CS101/2021-03-01".
	DocumentReader interface {
		Get(ctx context.Context, path string) (json.RawMessage, error)
	}

	// DocumentStore is a hierarchical JSON document database.
	// Set creates missing intermediate nodes; Remove prunes nodes left empty.
	DocumentStore interface {
		DocumentReader
		Set(ctx context.Context, path string, value interface{}) error
		Remove(ctx context.Context, path string) error
		Close() error
	}
)

// Ordering is a sort instruction parsed from the `ordering` query param.
type Ordering struct {
	Field     string
	Ascending bool
}

func (ord Ordering) String() string {
	direction := "desc"
	if ord.Ascending {
		direction = "asc"
	}
	return ord.Field + " " + direction
}

// ValidDocumentKey reports whether s can be used as a single document store key.
func ValidDocumentKey(s string) bool {
	return s != "" && strings.TrimSpace(s) == s && !strings.ContainsAny(s, "/.#$[]")
}
