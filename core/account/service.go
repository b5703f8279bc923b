package account

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/mahudhurio/core"
)

var (
	nowFunc = time.Now // mockable

	// errors
	ErrNotFound             = errors.New("account not found")
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrInactiveAccount      = errors.New("account is not active")
	ErrSystemNotInitialized = errors.New("system not initialized: no teacher account exists")
	ErrUsernameExists       = errors.New("an account with this username already exists")
	ErrEmailExists          = errors.New("an account with this email already exists")
)

type (
	Repository interface {
		// QueryAccounts returns every account of role. It returns core.ErrDocumentNotFound when the collection
		// does not exist at all.
		QueryAccounts(ctx context.Context, role Role) ([]Account, error)
		GetAccount(ctx context.Context, role Role, id string) (Account, error)
		SaveAccount(ctx context.Context, acc Account) (Account, error)
		DeleteAccounts(ctx context.Context, role Role, ids ...string) error
	}

	// SubjectLister finds the subjects assigned to a teacher.
	SubjectLister interface {
		AssignedTo(ctx context.Context, teacherID string) ([]SubjectRef, error)
	}

	// SettingsInitializer stores default settings when none exist.
	SettingsInitializer interface {
		EnsureDefaults(ctx context.Context) error
	}

	Service struct {
		repo      Repository
		subjects  SubjectLister
		settings  SettingsInitializer
		bootstrap core.BootstrapConfig
		logger    core.Logger
	}
)

func NewService(
	repo Repository,
	subjects SubjectLister,
	settings SettingsInitializer,
	conf *core.Config,
	logger core.Logger,
) *Service {
	return &Service{
		repo:      repo,
		subjects:  subjects,
		settings:  settings,
		bootstrap: conf.Bootstrap,
		logger:    logger,
	}
}

func (svc *Service) query(ctx context.Context, role Role) ([]Account, error) {
	accs, err := svc.repo.QueryAccounts(ctx, role)
	if err != nil {
		if errors.Cause(err) == core.ErrDocumentNotFound {
			return []Account{}, nil
		}
		return nil, err
	}
	return accs, nil
}

func findByLogin(accs []Account, login string) (Account, bool) {
	login = core.CleanString(login, true /* lower */)
	if login == "" {
		return Account{}, false
	}
	for _, acc := range accs {
		if acc.Username == login || (acc.Email != "" && acc.Email == login) {
			return acc, true
		}
	}
	return Account{}, false
}

// Authenticate checks credentials against the accounts of role.
func (svc *Service) Authenticate(ctx context.Context, role Role, login, pwd string) (Identity, error) {
	switch role {
	case RoleTeacher:
		return svc.AuthenticateTeacher(ctx, login, pwd)
	case RoleAdmin:
		return svc.AuthenticateAdmin(ctx, login, pwd)
	}
	return Identity{}, ErrInvalidCredentials
}

func (svc *Service) AuthenticateTeacher(ctx context.Context, login, pwd string) (Identity, error) {
	accs, err := svc.repo.QueryAccounts(ctx, RoleTeacher)
	if err != nil {
		if errors.Cause(err) == core.ErrDocumentNotFound {
			return Identity{}, ErrSystemNotInitialized
		}
		return Identity{}, errors.Wrap(err, "querying teachers")
	}
	if len(accs) == 0 {
		return Identity{}, ErrSystemNotInitialized
	}

	acc, err := svc.checkCredentials(accs, login, pwd)
	if err != nil {
		return Identity{}, err
	}

	subjects, err := svc.subjects.AssignedTo(ctx, acc.ID)
	if err != nil {
		return Identity{}, errors.Wrap(err, "finding assigned subjects")
	}
	if acc, err = svc.stampLogin(ctx, acc); err != nil {
		return Identity{}, err
	}
	return newIdentity(acc, subjects), nil
}

func (svc *Service) AuthenticateAdmin(ctx context.Context, login, pwd string) (Identity, error) {
	accs, err := svc.query(ctx, RoleAdmin)
	if err != nil {
		return Identity{}, errors.Wrap(err, "querying admins")
	}
	if len(accs) == 0 {
		acc, err := svc.bootstrapAdmin(ctx, login, pwd)
		if err != nil {
			return Identity{}, err
		}
		return newIdentity(acc, nil), nil
	}

	acc, err := svc.checkCredentials(accs, login, pwd)
	if err != nil {
		return Identity{}, err
	}
	if acc, err = svc.stampLogin(ctx, acc); err != nil {
		return Identity{}, err
	}
	return newIdentity(acc, nil), nil
}

func (svc *Service) checkCredentials(accs []Account, login, pwd string) (Account, error) {
	acc, ok := findByLogin(accs, login)
	if !ok {
		return Account{}, ErrInvalidCredentials
	}
	if err := acc.CheckPassword(pwd); err != nil {
		return Account{}, ErrInvalidCredentials
	}
	if !acc.IsActive() {
		return Account{}, ErrInactiveAccount
	}
	return acc, nil
}

// bootstrapAdmin creates the first admin from the configured credentials, along with the default settings.
func (svc *Service) bootstrapAdmin(ctx context.Context, login, pwd string) (Account, error) {
	bs := svc.bootstrap
	uname := core.CleanString(bs.AdminUsername, true /* lower */)
	if uname == "" || bs.AdminPassword == "" {
		return Account{}, ErrInvalidCredentials
	}
	if core.CleanString(login, true /* lower */) != uname || pwd != bs.AdminPassword {
		return Account{}, ErrInvalidCredentials
	}

	now := nowFunc().UTC()
	acc := Account{
		Role:      RoleAdmin,
		Username:  uname,
		Name:      core.CleanString(bs.AdminName),
		Status:    StatusActive,
		LastLogin: &now,
	}
	if err := acc.SetPassword(pwd); err != nil {
		return Account{}, errors.Wrap(err, "hashing password")
	}
	acc, err := svc.create(ctx, acc)
	if err != nil {
		return Account{}, errors.Wrap(err, "creating default admin")
	}
	if err = svc.settings.EnsureDefaults(ctx); err != nil {
		return Account{}, errors.Wrap(err, "initializing default settings")
	}
	svc.logger.Info(fmt.Sprintf("default admin %q created", acc.Username))
	return acc, nil
}

func (svc *Service) stampLogin(ctx context.Context, acc Account) (Account, error) {
	now := nowFunc().UTC()
	acc.LastLogin = &now
	acc, err := svc.repo.SaveAccount(ctx, acc)
	return acc, errors.Wrap(err, "setting lastLogin")
}

// Logout stamps lastLogout on the account of id.
func (svc *Service) Logout(ctx context.Context, id Identity) error {
	acc, err := svc.repo.GetAccount(ctx, id.Role, id.ID)
	if err != nil {
		return errors.Wrap(err, "getting account")
	}
	now := nowFunc().UTC()
	acc.LastLogout = &now
	_, err = svc.repo.SaveAccount(ctx, acc)
	return errors.Wrap(err, "setting lastLogout")
}

// Identity rebuilds the identity of an active account (token refresh).
func (svc *Service) Identity(ctx context.Context, role Role, id string) (Identity, error) {
	acc, err := svc.repo.GetAccount(ctx, role, id)
	if err != nil {
		return Identity{}, err
	}
	if !acc.IsActive() {
		return Identity{}, ErrInactiveAccount
	}
	var subjects []SubjectRef
	if role == RoleTeacher {
		if subjects, err = svc.subjects.AssignedTo(ctx, acc.ID); err != nil {
			return Identity{}, errors.Wrap(err, "finding assigned subjects")
		}
	}
	return newIdentity(acc, subjects), nil
}

// CheckUniqueness fails with a core.ValidationError when uname or email is taken by an account of role
// other than exclAccs.
func (svc *Service) CheckUniqueness(ctx context.Context, role Role, uname, email string, exclAccs ...Account) error {
	accs, err := svc.query(ctx, role)
	if err != nil {
		return errors.Wrap(err, "querying accounts")
	}
	excluded := make(map[string]bool, len(exclAccs))
	for _, a := range exclAccs {
		excluded[a.ID] = true
	}
	for _, acc := range accs {
		if excluded[acc.ID] {
			continue
		}
		if uname != "" && acc.Username == uname {
			return core.NewValidationError(ErrUsernameExists, core.FieldError{Field: "username", Error: ErrUsernameExists.Error()})
		}
		if email != "" && acc.Email == email {
			return core.NewValidationError(ErrEmailExists, core.FieldError{Field: "email", Error: ErrEmailExists.Error()})
		}
	}
	return nil
}

func (svc *Service) create(ctx context.Context, acc Account) (Account, error) {
	now := nowFunc().UTC()
	acc.ID = uuid.New().String()
	acc.CreatedAt = now
	acc.UpdatedAt = now
	return svc.repo.SaveAccount(ctx, acc)
}

// CreateTeacher expects nt to be validated.
func (svc *Service) CreateTeacher(ctx context.Context, nt NewTeacher) (Account, error) {
	acc := Account{
		Role:     RoleTeacher,
		Username: nt.Username,
		Name:     nt.Name,
		Email:    nt.Email,
		Status:   nt.Status,
	}
	if acc.Status == "" {
		acc.Status = StatusActive
	}
	if err := acc.SetPassword(nt.Password); err != nil {
		return Account{}, err
	}
	return svc.create(ctx, acc)
}

// QueryTeachers returns the teachers matching filter, ordered by name.
// filter.Search does a case-insensitive match on one of name, username or email.
func (svc *Service) QueryTeachers(ctx context.Context, filter QueryFilter) ([]Account, error) {
	accs, err := svc.query(ctx, RoleTeacher)
	if err != nil {
		return nil, err
	}
	filter.Clean()
	out := make([]Account, 0, len(accs))
	for _, acc := range accs {
		if filter.Status != "" && acc.Status != filter.Status {
			continue
		}
		if filter.Search != "" &&
			!strings.Contains(strings.ToLower(acc.Name), filter.Search) &&
			!strings.Contains(acc.Username, filter.Search) &&
			!strings.Contains(acc.Email, filter.Search) {
			continue
		}
		out = append(out, acc)
	}
	sort.SliceStable(out, func(i, j int) bool { return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name) })
	return out, nil
}

func (svc *Service) GetTeacher(ctx context.Context, id string) (Account, error) {
	return svc.repo.GetAccount(ctx, RoleTeacher, id)
}

// UpdateTeacher expects ut to be validated against the current account.
func (svc *Service) UpdateTeacher(ctx context.Context, id string, ut UpdateTeacher) (Account, error) {
	acc, err := svc.repo.GetAccount(ctx, RoleTeacher, id)
	if err != nil {
		return Account{}, err
	}
	acc.Name = ut.Name
	acc.Username = ut.Username
	acc.Email = ut.Email
	acc.Status = ut.Status
	acc.UpdatedAt = nowFunc().UTC()
	if ut.Password != "" {
		if err = acc.SetPassword(ut.Password); err != nil {
			return Account{}, err
		}
	}
	return svc.repo.SaveAccount(ctx, acc)
}

func (svc *Service) DeleteTeachers(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteAccounts(ctx, RoleTeacher, ids...)
}

func (svc *Service) CountTeachers(ctx context.Context) (int, error) {
	accs, err := svc.query(ctx, RoleTeacher)
	return len(accs), err
}

func (svc *Service) GetByLogin(ctx context.Context, role Role, login string) (Account, error) {
	accs, err := svc.query(ctx, role)
	if err != nil {
		return Account{}, err
	}
	if acc, ok := findByLogin(accs, login); ok {
		return acc, nil
	}
	return Account{}, ErrNotFound
}

// AddUser updates or creates an active account of role with the given password (admin CLI).
func (svc *Service) AddUser(ctx context.Context, role Role, uname, email, name, pwd string) (Account, error) {
	if !role.Valid() {
		return Account{}, errors.Errorf("invalid role %q", role)
	}
	uname = core.CleanString(uname, true /* lower */)
	email = core.CleanString(email, true /* lower */)

	acc, err := svc.GetByLogin(ctx, role, uname)
	creating := false
	if err != nil {
		if err != ErrNotFound {
			return Account{}, err
		}
		creating = true
		acc = Account{Role: role, Username: uname}
	}
	if email != "" {
		acc.Email = email
	}
	if name = core.CleanString(name); name != "" {
		acc.Name = name
	} else if acc.Name == "" {
		acc.Name = uname
	}
	acc.Status = StatusActive
	acc.UpdatedAt = nowFunc().UTC()
	if err = acc.SetPassword(pwd); err != nil {
		return Account{}, err
	}
	if creating {
		return svc.create(ctx, acc)
	}
	return svc.repo.SaveAccount(ctx, acc)
}

// ResetPassword sets a new password on the account of role identified by login.
func (svc *Service) ResetPassword(ctx context.Context, role Role, login, pwd string) error {
	acc, err := svc.GetByLogin(ctx, role, login)
	if err != nil {
		return err
	}
	if err = acc.SetPassword(pwd); err != nil {
		return err
	}
	acc.UpdatedAt = nowFunc().UTC()
	_, err = svc.repo.SaveAccount(ctx, acc)
	return err
}
