package docrepos

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/settings"
)

const settingsPath = "settings"

type settingsRepository struct {
	store core.DocumentStore
}

var _ settings.Repository = (*settingsRepository)(nil)

func NewSettingsRepository(store core.DocumentStore) *settingsRepository {
	return &settingsRepository{store: store}
}

func (repo settingsRepository) GetSettings(ctx context.Context) (settings.Settings, error) {
	s := settings.Defaults()
	if err := get(ctx, repo.store, settingsPath, &s); err != nil {
		if errors.Cause(err) == core.ErrDocumentNotFound {
			return settings.Settings{}, core.ErrDocumentNotFound
		}
		return settings.Settings{}, errors.Wrap(err, "getting settings")
	}
	return s, nil
}

func (repo settingsRepository) SaveSettings(ctx context.Context, s settings.Settings) error {
	return errors.Wrap(repo.store.Set(ctx, settingsPath, s), "saving settings")
}
