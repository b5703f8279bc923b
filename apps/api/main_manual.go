package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

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

func startManual() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	// set up loggers
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	storeLogger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "STORE : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	storeLogger.Enable(!conf.Debug)

	// set up the document store
	store, err := storage.Open(context.Background(), conf, storeLogger)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up document store: %v", err), err)
	}

	// set up services
	mailSvc := emailsvc.New(conf, logger)
	loader := roster.NewLoader(store, storeLogger)
	subjectSvc := subject.NewService(docrepos.NewSubjectRepository(store))
	settingsSvc := settings.NewService(docrepos.NewSettingsRepository(store))
	accountSvc := account.NewService(docrepos.NewAccountRepository(store), subjectSvc, settingsSvc, conf, logger)
	attendanceSvc := attendance.NewService(loader, docrepos.NewRecordRepository(store), logger)

	// =========================================================================
	// Initialize App

	translator := newTranslator()
	validate := validator.New()
	core.InitValidators(validate, translator)
	roster.InitValidators(validate, translator)
	account.InitValidators(validate, translator)
	settings.InitValidators(validate, translator)

	server := echoapi.NewServer(
		echoapi.ServerDeps{
			Conf:          conf,
			Logger:        logger,
			Loader:        loader,
			AttendanceSvc: attendanceSvc,
			AccountSvc:    accountSvc,
			SubjectSvc:    subjectSvc,
			SettingsSvc:   settingsSvc,
			EmailSvc:      mailSvc,
			Validate:      validate,
			Translator:    translator,
		},
	)

	run(conf, logger, store, attendanceSvc, server)
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}
