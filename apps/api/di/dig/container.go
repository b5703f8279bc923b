package dig_container

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"go.uber.org/dig"

	echoapi "github.com/trezcool/mahudhurio/apps/api/echo"
	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/account"
	"github.com/trezcool/mahudhurio/core/attendance"
	"github.com/trezcool/mahudhurio/core/roster"
	"github.com/trezcool/mahudhurio/core/settings"
	"github.com/trezcool/mahudhurio/core/subject"
	emailsvc "github.com/trezcool/mahudhurio/services/email"
	logsvc "github.com/trezcool/mahudhurio/services/logger"
	"github.com/trezcool/mahudhurio/storage"
	"github.com/trezcool/mahudhurio/storage/docrepos"
)

type StoreLoggerParam struct {
	dig.In
	Logger core.Logger `name:"storeLogger"`
}

func newLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(!conf.Debug)
	return logger
}

func newStoreLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "STORE : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(!conf.Debug)
	return logger
}

func newStore(conf *core.Config, loggerParam StoreLoggerParam) core.DocumentStore {
	store, err := storage.Open(context.Background(), conf, loggerParam.Logger)
	if err != nil {
		loggerParam.Logger.Fatal(fmt.Sprintf("setting up document store: %v", err), err)
	}
	return store
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}

func newValidator(translator ut.Translator) *validator.Validate {
	validate := validator.New()
	core.InitValidators(validate, translator)
	roster.InitValidators(validate, translator)
	account.InitValidators(validate, translator)
	settings.InitValidators(validate, translator)
	return validate
}

func newLoader(store core.DocumentStore, loggerParam StoreLoggerParam) *roster.Loader {
	return roster.NewLoader(store, loggerParam.Logger)
}

func newAttendanceService(loader *roster.Loader, records attendance.RecordRepository, logger core.Logger) *attendance.Service {
	return attendance.NewService(loader, records, logger)
}

func newAccountService(
	repo account.Repository,
	subjectSvc *subject.Service,
	settingsSvc *settings.Service,
	conf *core.Config,
	logger core.Logger,
) *account.Service {
	return account.NewService(repo, subjectSvc, settingsSvc, conf, logger)
}

type serverParams struct {
	dig.In
	Conf          *core.Config
	Logger        core.Logger
	Loader        *roster.Loader
	AttendanceSvc *attendance.Service
	AccountSvc    *account.Service
	SubjectSvc    *subject.Service
	SettingsSvc   *settings.Service
	EmailSvc      core.EmailService
	Validate      *validator.Validate
	Translator    ut.Translator
}

func newServer(p serverParams) *echoapi.Server {
	return echoapi.NewServer(echoapi.ServerDeps{
		Conf:          p.Conf,
		Logger:        p.Logger,
		Loader:        p.Loader,
		AttendanceSvc: p.AttendanceSvc,
		AccountSvc:    p.AccountSvc,
		SubjectSvc:    p.SubjectSvc,
		SettingsSvc:   p.SettingsSvc,
		EmailSvc:      p.EmailSvc,
		Validate:      p.Validate,
		Translator:    p.Translator,
	})
}

// New returns a new dependency injection dig.Container
func New() *dig.Container {
	c := dig.New()

	must(c.Provide(core.NewConfig))
	must(c.Provide(newLogger))
	must(c.Provide(newStoreLogger, dig.Name("storeLogger")))
	must(c.Provide(newStore))
	must(c.Provide(emailsvc.New))
	must(c.Provide(newTranslator))
	must(c.Provide(newValidator))

	must(c.Provide(docrepos.NewAccountRepository, dig.As(new(account.Repository))))
	must(c.Provide(docrepos.NewSubjectRepository, dig.As(new(subject.Repository))))
	must(c.Provide(docrepos.NewSettingsRepository, dig.As(new(settings.Repository))))
	must(c.Provide(docrepos.NewRecordRepository, dig.As(new(attendance.RecordRepository))))

	must(c.Provide(newLoader))
	must(c.Provide(subject.NewService))
	must(c.Provide(settings.NewService))
	must(c.Provide(newAccountService))
	must(c.Provide(newAttendanceService))
	must(c.Provide(newServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
