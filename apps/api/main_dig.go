package main

import (
	"log"

	dig_container "github.com/trezcool/mahudhurio/apps/api/di/dig"
	echoapi "github.com/trezcool/mahudhurio/apps/api/echo"
	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/attendance"
)

func startWithDig() {
	c := dig_container.New()

	must(c.Invoke(func(
		conf *core.Config,
		logger core.Logger,
		store core.DocumentStore,
		attendanceSvc *attendance.Service,
		server *echoapi.Server,
	) {
		run(conf, logger, store, attendanceSvc, server)
	}))
}

func must(err error) {
	if err != nil {
		log.Fatal(err)
	}
}
