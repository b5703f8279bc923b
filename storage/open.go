// Package storage opens the document store engine selected by the configuration.
package storage

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/storage/docstore/firebase"
	"github.com/trezcool/mahudhurio/storage/docstore/inmem"
	"github.com/trezcool/mahudhurio/storage/docstore/postgres"
)

// Open returns the core.DocumentStore configured by conf.Store.Engine.
// The postgres engine creates the database when missing and applies pending migrations.
func Open(ctx context.Context, conf *core.Config, logger core.Logger) (core.DocumentStore, error) {
	switch conf.Store.Engine {
	case core.StoreMemory, "":
		logger.Warn("using the in-memory document store: data will be lost on exit")
		return inmem.NewStore(), nil

	case core.StoreFirebase:
		if conf.Store.FirebaseURL == "" {
			return nil, errors.New("store.firebaseURL is required by the firebase engine")
		}
		return firebase.NewStore(conf.Store.FirebaseURL, conf.Store.FirebaseAuth, conf.Store.RequestTimeout, logger), nil

	case core.StorePostgres:
		if err := postgres.CreateIfNotExist(ctx, conf.Database); err != nil {
			return nil, errors.Wrap(err, "creating database")
		}
		db, err := postgres.Open(conf.Database)
		if err != nil {
			return nil, errors.Wrap(err, "opening database")
		}
		if err = postgres.Migrate(db.DB, "up"); err != nil {
			_ = db.Close()
			return nil, err
		}
		return postgres.NewStore(db), nil
	}
	return nil, errors.Errorf("unknown store engine %q", conf.Store.Engine)
}
