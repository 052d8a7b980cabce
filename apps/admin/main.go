package main

import (
	"fmt"
	"log"
	"os"

	"github.com/go-playground/validator/v10"

	"github.com/sistematutorias/tutorias/core"
	"github.com/sistematutorias/tutorias/core/chapter"
	"github.com/sistematutorias/tutorias/core/user"
	logsvc "github.com/sistematutorias/tutorias/services/logger"
	"github.com/sistematutorias/tutorias/storage/database"
	inmemdb "github.com/sistematutorias/tutorias/storage/database/inmem"
	pgrepos "github.com/sistematutorias/tutorias/storage/database/postgres"
)

func main() {
	conf, err := core.NewConfig()
	errAndDie(err)

	zl, err := logsvc.NewZapLogger(conf)
	errAndDie(err)
	logger := logsvc.NewRollbarLogger(zl.Named("admin"), conf)
	defer logger.Sync()

	validate := validator.New()
	uni, err := core.NewUniversalTranslator(conf.Locale)
	errAndDie(err)
	core.InitValidators(validate, uni)
	user.InitValidators(validate, uni)
	user.LoadCommonPasswords(logger)
	trans, _ := uni.GetTranslator(conf.Locale)

	cli := &commandLine{
		validate: validate,
		trans:    trans,
		out:      os.Stdout,
	}

	// set up storage
	switch conf.Storage {
	case core.StoragePostgres:
		db, err := database.Open(conf)
		errAndDie(err)
		defer db.Close()

		cli.db = db
		cli.chapterRepo = pgrepos.NewChapterRepository(db)
		cli.usrRepo = pgrepos.NewUserRepository(db)
	default:
		logger.Warn("in-memory storage: changes are lost when the command exits")
		db := inmemdb.Open()
		cli.chapterRepo = inmemdb.NewChapterRepository(db)
		cli.usrRepo = inmemdb.NewUserRepository(db)
	}
	cli.chapterSvc = chapter.NewService(cli.chapterRepo)
	cli.usrSvc = user.NewService(cli.usrRepo, cli.chapterRepo, logger)

	if err := cli.run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "\nerror: %s\n", err)
		logger.Sync()
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		log.Fatal(err)
	}
}
