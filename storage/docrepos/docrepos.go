// Package docrepos implements the domain repositories on top of a core.DocumentStore.
package docrepos

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/trezcool/mahudhurio/core"
)

func path(keys ...string) string {
	p := ""
	for i, k := range keys {
		if i > 0 {
			p += "/"
		}
		p += k
	}
	return p
}

// validKeys reports whether every key can be used as a single path segment.
func validKeys(keys ...string) bool {
	for _, k := range keys {
		if !core.ValidDocumentKey(k) {
			return false
		}
	}
	return true
}

// trapNotFoundErr maps core.ErrDocumentNotFound to notFound.
func trapNotFoundErr(err, notFound error, msg string) error {
	if errors.Cause(err) == core.ErrDocumentNotFound {
		return notFound
	}
	return errors.Wrap(err, msg)
}

func get(ctx context.Context, store core.DocumentReader, p string, dest interface{}) error {
	data, err := store.Get(ctx, p)
	if err != nil {
		return err
	}
	return errors.Wrapf(json.Unmarshal(data, dest), "decoding %q", p)
}
