package settings

import (
	"context"
	"regexp"
	"strconv"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/mahudhurio/core"
)

var (
	nowFunc = time.Now // mockable

	hhmmTag   = "hhmm"
	hhmmText  = "must be a time of day formatted as HH:MM"
	hhmmRegex = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)
)

type Settings struct {
	AllowTeacherRegistration  bool   `json:"allowTeacherRegistration"`
	RequireAttendanceApproval bool   `json:"requireAttendanceApproval"`
	AttendanceCutoffTime      string `json:"attendanceCutoffTime" validate:"required,hhmm"`
	NotifyAbsentees           bool   `json:"notifyAbsentees"`
	MaxAbsencesBeforeAlert    int    `json:"maxAbsencesBeforeAlert" validate:"gte=0"`
	AcademicYear              string `json:"academicYear" validate:"required,numeric,len=4"`
	Semester                  string `json:"semester" validate:"required"`
}

func Defaults() Settings {
	return Settings{
		AllowTeacherRegistration:  false,
		RequireAttendanceApproval: true,
		AttendanceCutoffTime:      "10:00",
		NotifyAbsentees:           true,
		MaxAbsencesBeforeAlert:    3,
		AcademicYear:              strconv.Itoa(nowFunc().Year()),
		Semester:                  "1",
	}
}

func (s *Settings) Validate(validate *validator.Validate) error {
	s.AttendanceCutoffTime = core.CleanString(s.AttendanceCutoffTime)
	s.AcademicYear = core.CleanString(s.AcademicYear)
	s.Semester = core.CleanString(s.Semester)
	return validate.Struct(s)
}

func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(hhmmTag, func(fl validator.FieldLevel) bool {
		return hhmmRegex.MatchString(fl.Field().String())
	})
	core.RegisterCustomTranslation(validate, translator, hhmmTag, hhmmText)
}

type Repository interface {
	// GetSettings returns core.ErrDocumentNotFound when nothing is stored.
	GetSettings(ctx context.Context) (Settings, error)
	SaveSettings(ctx context.Context, s Settings) error
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Get returns the stored settings, or the defaults when none are stored.
func (svc *Service) Get(ctx context.Context) (Settings, error) {
	s, err := svc.repo.GetSettings(ctx)
	if err != nil {
		if errors.Cause(err) == core.ErrDocumentNotFound {
			return Defaults(), nil
		}
		return Settings{}, err
	}
	return s, nil
}

// Save expects s to be validated.
func (svc *Service) Save(ctx context.Context, s Settings) (Settings, error) {
	if err := svc.repo.SaveSettings(ctx, s); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// EnsureDefaults stores the default settings when none are stored yet.
func (svc *Service) EnsureDefaults(ctx context.Context) error {
	if _, err := svc.repo.GetSettings(ctx); err == nil {
		return nil
	} else if errors.Cause(err) != core.ErrDocumentNotFound {
		return err
	}
	return svc.repo.SaveSettings(ctx, Defaults())
}
