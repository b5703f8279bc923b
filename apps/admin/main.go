package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/account"
	"github.com/trezcool/mahudhurio/core/settings"
	"github.com/trezcool/mahudhurio/core/subject"
	logsvc "github.com/trezcool/mahudhurio/services/logger"
	"github.com/trezcool/mahudhurio/storage"
	"github.com/trezcool/mahudhurio/storage/docrepos"
	"github.com/trezcool/mahudhurio/storage/docstore/postgres"
)

func main() {
	conf := core.NewConfig()
	logger := logsvc.NewRollbarLogger(log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile), conf)
	logger.Enable(!conf.Debug)

	ctx := context.Background()

	// the migrate command needs a bare connection, without running the migrations
	var db *sql.DB
	if conf.Store.Engine == core.StorePostgres {
		if err := postgres.CreateIfNotExist(ctx, conf.Database); err != nil {
			logger.Fatal(fmt.Sprintf("creating database: %v", err), err)
		}
		sqlxDB, err := postgres.Open(conf.Database)
		if err != nil {
			logger.Fatal(fmt.Sprintf("opening database: %v", err), err)
		}
		defer sqlxDB.Close()
		db = sqlxDB.DB
	}

	var cli *commandLine
	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		cli = &commandLine{db: db}
	} else {
		store, err := storage.Open(ctx, conf, logger)
		if err != nil {
			logger.Fatal(fmt.Sprintf("setting up document store: %v", err), err)
		}
		defer store.Close()
		cli = newCommandLine(conf, logger, db, store)
	}

	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			fmt.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}

func newCommandLine(conf *core.Config, logger core.Logger, db *sql.DB, store core.DocumentStore) *commandLine {
	_en := en.New()
	translator, _ := ut.New(_en, _en).GetTranslator("en")
	validate := validator.New()
	core.InitValidators(validate, translator)
	account.InitValidators(validate, translator)
	settings.InitValidators(validate, translator)

	subjectSvc := subject.NewService(docrepos.NewSubjectRepository(store))
	settingsSvc := settings.NewService(docrepos.NewSettingsRepository(store))
	return &commandLine{
		db:          db,
		store:       store,
		validate:    validate,
		accountSvc:  account.NewService(docrepos.NewAccountRepository(store), subjectSvc, settingsSvc, conf, logger),
		subjectSvc:  subjectSvc,
		settingsSvc: settingsSvc,
	}
}
