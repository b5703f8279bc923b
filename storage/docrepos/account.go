package docrepos

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/account"
)

// accountDoc is the stored shape of teachers/{id} and admins/{id}.
type accountDoc struct {
	ID           string      `json:"id"`
	Username     string      `json:"username"`
	Name         string      `json:"name"`
	Email        null.String `json:"email"`
	Status       string      `json:"status"`
	PasswordHash string      `json:"passwordHash"`
	CreatedAt    null.Time   `json:"createdAt"`
	UpdatedAt    null.Time   `json:"updatedAt"`
	LastLogin    null.Time   `json:"lastLogin"`
	LastLogout   null.Time   `json:"lastLogout"`
}

type accountRepository struct {
	store core.DocumentStore
}

var _ account.Repository = (*accountRepository)(nil) // interface compliance check

func NewAccountRepository(store core.DocumentStore) *accountRepository {
	return &accountRepository{store: store}
}

func (repo accountRepository) boil(acc account.Account) accountDoc {
	return accountDoc{
		ID:           acc.ID,
		Username:     acc.Username,
		Name:         acc.Name,
		Email:        null.NewString(acc.Email, acc.Email != ""),
		Status:       string(acc.Status),
		PasswordHash: string(acc.PasswordHash),
		CreatedAt:    null.NewTime(acc.CreatedAt.UTC(), !acc.CreatedAt.IsZero()),
		UpdatedAt:    null.NewTime(acc.UpdatedAt.UTC(), !acc.UpdatedAt.IsZero()),
		LastLogin:    null.TimeFromPtr(utcPtr(acc.LastLogin)),
		LastLogout:   null.TimeFromPtr(utcPtr(acc.LastLogout)),
	}
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

func (repo accountRepository) unboil(role account.Role, id string, doc accountDoc) account.Account {
	if doc.ID == "" {
		doc.ID = id
	}
	status := account.Status(doc.Status)
	if status == "" {
		status = account.StatusActive
	}
	return account.Account{
		ID:           doc.ID,
		Role:         role,
		Username:     doc.Username,
		Name:         doc.Name,
		Email:        doc.Email.String,
		Status:       status,
		PasswordHash: []byte(doc.PasswordHash),
		CreatedAt:    doc.CreatedAt.Time,
		UpdatedAt:    doc.UpdatedAt.Time,
		LastLogin:    doc.LastLogin.Ptr(),
		LastLogout:   doc.LastLogout.Ptr(),
	}
}

func (repo accountRepository) QueryAccounts(ctx context.Context, role account.Role) ([]account.Account, error) {
	var docs map[string]accountDoc
	if err := get(ctx, repo.store, role.Collection(), &docs); err != nil {
		if errors.Cause(err) == core.ErrDocumentNotFound {
			return nil, core.ErrDocumentNotFound
		}
		return nil, errors.Wrapf(err, "querying %s", role.Collection())
	}
	accs := make([]account.Account, 0, len(docs))
	for id, doc := range docs {
		accs = append(accs, repo.unboil(role, id, doc))
	}
	return accs, nil
}

func (repo accountRepository) GetAccount(ctx context.Context, role account.Role, id string) (account.Account, error) {
	if !validKeys(id) {
		return account.Account{}, account.ErrNotFound
	}
	var doc accountDoc
	if err := get(ctx, repo.store, path(role.Collection(), id), &doc); err != nil {
		return account.Account{}, trapNotFoundErr(err, account.ErrNotFound, "getting account")
	}
	return repo.unboil(role, id, doc), nil
}

func (repo accountRepository) SaveAccount(ctx context.Context, acc account.Account) (account.Account, error) {
	if !acc.Role.Valid() || !validKeys(acc.ID) {
		return account.Account{}, errors.Errorf("cannot save account %q (%s)", acc.ID, acc.Role)
	}
	if err := repo.store.Set(ctx, path(acc.Role.Collection(), acc.ID), repo.boil(acc)); err != nil {
		return account.Account{}, errors.Wrap(err, "saving account")
	}
	return acc, nil
}

func (repo accountRepository) DeleteAccounts(ctx context.Context, role account.Role, ids ...string) error {
	for _, id := range ids {
		if !validKeys(id) {
			continue
		}
		if err := repo.store.Remove(ctx, path(role.Collection(), id)); err != nil {
			return errors.Wrapf(err, "deleting account %q", id)
		}
	}
	return nil
}
