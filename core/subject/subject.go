package subject

import (
	"context"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/account"
)

var ErrNotFound = errors.New("subject not found")

type Subject struct {
	ID               string   `json:"id"`
	Name             string   `json:"name"`
	Code             string   `json:"code"`
	Description      string   `json:"description"`
	AssignedTeachers []string `json:"assignedTeachers"`
}

func (s Subject) AssignedTo(teacherID string) bool {
	for _, id := range s.AssignedTeachers {
		if id == teacherID {
			return true
		}
	}
	return false
}

// SaveSubject creates a subject (ID empty) or updates one.
type SaveSubject struct {
	Name             string   `json:"name" validate:"required"`
	Code             string   `json:"code" validate:"required,alphanum_"`
	Description      string   `json:"description"`
	AssignedTeachers []string `json:"assignedTeachers" validate:"omitempty,dive,required"`
}

func (ss *SaveSubject) Validate(validate *validator.Validate) error {
	ss.Name = core.CleanString(ss.Name)
	ss.Code = strings.ToUpper(core.CleanString(ss.Code))
	ss.Description = core.CleanString(ss.Description)
	if ss.AssignedTeachers == nil {
		ss.AssignedTeachers = []string{}
	}
	return validate.Struct(ss)
}

type Repository interface {
	// QuerySubjects returns an empty slice when no subject exists.
	QuerySubjects(ctx context.Context) ([]Subject, error)
	GetSubject(ctx context.Context, id string) (Subject, error)
	SaveSubject(ctx context.Context, s Subject) (Subject, error)
	DeleteSubject(ctx context.Context, id string) error
}

type Service struct {
	repo Repository
}

var _ account.SubjectLister = (*Service)(nil)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Query returns every subject ordered by code.
func (svc *Service) Query(ctx context.Context) ([]Subject, error) {
	subjects, err := svc.repo.QuerySubjects(ctx)
	if err != nil {
		return nil, err
	}
	sort.Slice(subjects, func(i, j int) bool { return subjects[i].Code < subjects[j].Code })
	return subjects, nil
}

func (svc *Service) Get(ctx context.Context, id string) (Subject, error) {
	return svc.repo.GetSubject(ctx, id)
}

// Create stores a new subject keyed by its lower-cased code.
func (svc *Service) Create(ctx context.Context, ss SaveSubject) (Subject, error) {
	id := strings.ToLower(ss.Code)
	if _, err := svc.repo.GetSubject(ctx, id); err == nil {
		return Subject{}, core.NewValidationError(nil, core.FieldError{Field: "code", Error: "a subject with this code already exists"})
	} else if errors.Cause(err) != ErrNotFound {
		return Subject{}, errors.Wrap(err, "getting subject")
	}
	return svc.repo.SaveSubject(ctx, Subject{
		ID:               id,
		Name:             ss.Name,
		Code:             ss.Code,
		Description:      ss.Description,
		AssignedTeachers: ss.AssignedTeachers,
	})
}

func (svc *Service) Update(ctx context.Context, id string, ss SaveSubject) (Subject, error) {
	s, err := svc.repo.GetSubject(ctx, id)
	if err != nil {
		return Subject{}, err
	}
	s.Name = ss.Name
	s.Code = ss.Code
	s.Description = ss.Description
	s.AssignedTeachers = ss.AssignedTeachers
	return svc.repo.SaveSubject(ctx, s)
}

func (svc *Service) Delete(ctx context.Context, id string) error {
	if _, err := svc.repo.GetSubject(ctx, id); err != nil {
		return err
	}
	return svc.repo.DeleteSubject(ctx, id)
}

func (svc *Service) Count(ctx context.Context) (int, error) {
	subjects, err := svc.repo.QuerySubjects(ctx)
	return len(subjects), err
}

// AssignedTo lists the subjects having teacherID among their assigned teachers.
func (svc *Service) AssignedTo(ctx context.Context, teacherID string) ([]account.SubjectRef, error) {
	subjects, err := svc.Query(ctx)
	if err != nil {
		return nil, err
	}
	refs := make([]account.SubjectRef, 0)
	for _, s := range subjects {
		if s.AssignedTo(teacherID) {
			refs = append(refs, account.SubjectRef{ID: s.ID, Name: s.Name, Code: s.Code})
		}
	}
	return refs, nil
}
