package account

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/mahudhurio/core"
)

// Roles
type Role string

const (
	RoleTeacher Role = "teacher"
	RoleAdmin   Role = "admin"
)

// Collection is where accounts of that role are stored.
func (r Role) Collection() string {
	if r == RoleAdmin {
		return "admins"
	}
	return "teachers"
}

func (r Role) Valid() bool {
	return r == RoleTeacher || r == RoleAdmin
}

// Account statuses
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

var hashCost = bcrypt.DefaultCost

type Account struct {
	ID           string     `json:"id"`
	Role         Role       `json:"role"`
	Username     string     `json:"username"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	Status       Status     `json:"status"`
	PasswordHash []byte     `json:"-"`
	CreatedAt    time.Time  `json:"createdAt"`  // UTC
	UpdatedAt    time.Time  `json:"updatedAt"`  // UTC
	LastLogin    *time.Time `json:"lastLogin"`  // UTC
	LastLogout   *time.Time `json:"lastLogout"` // UTC
}

func (a *Account) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), hashCost)
	if err != nil {
		return err
	}
	a.PasswordHash = hash
	return nil
}

func (a *Account) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(a.PasswordHash, []byte(pwd))
}

func (a Account) IsActive() bool {
	return a.Status == StatusActive
}

// SubjectRef is a subject assigned to a teacher.
type SubjectRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Code string `json:"code"`
}

// Identity is the authenticated user, carried by every request.
type Identity struct {
	ID       string       `json:"id"`
	Role     Role         `json:"role"`
	Name     string       `json:"name"`
	Username string       `json:"username"`
	Email    string       `json:"email"`
	Subjects []SubjectRef `json:"assignedSubjects,omitempty"`
}

func (id Identity) IsAdmin() bool   { return id.Role == RoleAdmin }
func (id Identity) IsTeacher() bool { return id.Role == RoleTeacher }

// SubjectNames joins the names of the assigned subjects, or falls back to the identity name.
func (id Identity) SubjectNames() string {
	if len(id.Subjects) == 0 {
		return id.Name
	}
	names := ""
	for i, s := range id.Subjects {
		if i > 0 {
			names += ", "
		}
		names += s.Name
	}
	return names
}

func newIdentity(acc Account, subjects []SubjectRef) Identity {
	return Identity{
		ID:       acc.ID,
		Role:     acc.Role,
		Name:     acc.Name,
		Username: acc.Username,
		Email:    acc.Email,
		Subjects: subjects,
	}
}

// NewTeacher contains information needed to create a teacher account.
type NewTeacher struct {
	Name            string `json:"name" validate:"required"`
	Username        string `json:"username" validate:"required,min=3,alphanum_"`
	Email           string `json:"email" validate:"omitempty,email"`
	Password        string `json:"password" validate:"required"`
	PasswordConfirm string `json:"passwordConfirm" validate:"required,eqfield=Password"`
	Status          Status `json:"status" validate:"omitempty,oneof=active inactive"`
}

func (nt *NewTeacher) Validate(ctx context.Context, validate *validator.Validate, svc *Service) error {
	nt.Name = core.CleanString(nt.Name)
	nt.Username = core.CleanString(nt.Username, true /* lower */)
	nt.Email = core.CleanString(nt.Email, true /* lower */)
	if nt.Status == "" {
		nt.Status = StatusActive
	}

	if err := validate.Struct(nt); err != nil {
		return err
	}
	return svc.CheckUniqueness(ctx, RoleTeacher, nt.Username, nt.Email)
}

// UpdateTeacher defines what information may be provided to modify a teacher account.
type UpdateTeacher struct {
	Name            string `json:"name"`
	Username        string `json:"username" validate:"omitempty,min=3,alphanum_"`
	Email           string `json:"email" validate:"omitempty,email"`
	Status          Status `json:"status" validate:"omitempty,oneof=active inactive"`
	Password        string `json:"password" validate:"omitempty"`
	PasswordConfirm string `json:"passwordConfirm" validate:"required_with=Password,eqfield=Password"`
}

func (ut *UpdateTeacher) Validate(ctx context.Context, orig Account, validate *validator.Validate, svc *Service) error {
	if name := core.CleanString(ut.Name); name != "" {
		ut.Name = name
	} else {
		ut.Name = orig.Name
	}
	if uname := core.CleanString(ut.Username, true /* lower */); uname != "" {
		ut.Username = uname
	} else {
		ut.Username = orig.Username
	}
	if email := core.CleanString(ut.Email, true /* lower */); email != "" {
		ut.Email = email
	} else {
		ut.Email = orig.Email
	}
	if ut.Status == "" {
		ut.Status = orig.Status
	}

	if err := validate.Struct(ut); err != nil {
		return err
	}
	return svc.CheckUniqueness(ctx, RoleTeacher, ut.Username, ut.Email, orig)
}

// SetPassword is used by the admin CLI to set an account password.
type SetPassword struct {
	Name     string
	Username string
	Email    string
	Password string `validate:"required"`
}

func (sp *SetPassword) Validate(validate *validator.Validate) error {
	return validate.Struct(sp)
}

type QueryFilter struct {
	Search string `query:"search"`
	Status Status `query:"status"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search, true /* lower */)
	qf.Status = Status(core.CleanString(string(qf.Status), true /* lower */))
}
