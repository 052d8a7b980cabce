package di

import (
	"fmt"
	"log"
	"os"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"go.uber.org/dig"

	echoapi "github.com/sistematutorias/tutorias/apps/api/echo"
	"github.com/sistematutorias/tutorias/core"
	"github.com/sistematutorias/tutorias/core/chapter"
	"github.com/sistematutorias/tutorias/core/tutoring"
	"github.com/sistematutorias/tutorias/core/user"
	emailsvc "github.com/sistematutorias/tutorias/services/email"
	logsvc "github.com/sistematutorias/tutorias/services/logger"
	"github.com/sistematutorias/tutorias/storage/database"
	inmemdb "github.com/sistematutorias/tutorias/storage/database/inmem"
	pgrepos "github.com/sistematutorias/tutorias/storage/database/postgres"
)

type (
	DBLoggerParam struct {
		dig.In
		Logger core.Logger `name:"dbLogger"`
	}

	// Storage groups the repositories of the configured backend.
	Storage struct {
		dig.Out
		DB           core.DB
		Closer       DBCloser
		ChapterRepo  chapter.Repository
		UserRepo     user.Repository
		TutoringRepo tutoring.Repository
		FeedbackRepo tutoring.FeedbackRepository
		SessionRepo  tutoring.SessionRepository
	}

	// DBCloser releases the storage backend.
	DBCloser func() error

	serverParams struct {
		dig.In
		Conf        *core.Config
		Logger      core.Logger
		Validate    *validator.Validate
		Uni         *ut.UniversalTranslator
		ChapterSvc  chapter.Service
		UserSvc     user.Service
		TutoringSvc tutoring.Service
		StatusSvc   tutoring.StatusService
		FeedbackSvc tutoring.FeedbackService
		SessionSvc  tutoring.SessionService
	}
)

func newLogger(conf *core.Config) core.Logger {
	zl, err := logsvc.NewZapLogger(conf)
	if err != nil {
		log.Fatal(errors.Wrap(err, "building zap logger"))
	}
	return logsvc.NewRollbarLogger(zl.Named("api"), conf)
}

func newDBLogger(conf *core.Config) core.Logger {
	zl, err := logsvc.NewZapLogger(conf)
	if err != nil {
		log.Fatal(errors.Wrap(err, "building zap logger"))
	}
	return logsvc.NewRollbarLogger(zl.Named("db"), conf)
}

// NewStorage opens the backend selected by conf.Storage.
// The postgres database is created and migrated when needed.
func NewStorage(conf *core.Config, loggerParam DBLoggerParam) Storage {
	if conf.Storage == core.StorageInMem {
		db := inmemdb.Open()
		return Storage{
			DB:           db,
			Closer:       func() error { return nil },
			ChapterRepo:  inmemdb.NewChapterRepository(db),
			UserRepo:     inmemdb.NewUserRepository(db),
			TutoringRepo: inmemdb.NewTutoringRepository(db),
			FeedbackRepo: inmemdb.NewFeedbackRepository(db),
			SessionRepo:  inmemdb.NewSessionRepository(db),
		}
	}

	setUp := func() (*database.DB, error) {
		if err := database.CreateIfNotExist(conf); err != nil {
			return nil, err
		}

		db, err := database.Open(conf)
		if err != nil {
			return nil, err
		}

		if err = database.Migrate(db); err != nil {
			_ = db.Close()
			return nil, err
		}
		return db, nil
	}

	db, err := setUp()
	if err != nil {
		loggerParam.Logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	return Storage{
		DB:           db,
		Closer:       db.Close,
		ChapterRepo:  pgrepos.NewChapterRepository(db),
		UserRepo:     pgrepos.NewUserRepository(db),
		TutoringRepo: pgrepos.NewTutoringRepository(db),
		FeedbackRepo: pgrepos.NewFeedbackRepository(db),
		SessionRepo:  pgrepos.NewSessionRepository(db),
	}
}

func newEmailService(conf *core.Config, logger core.Logger) core.EmailService {
	if conf.Debug || conf.SendgridApiKey == "" {
		return emailsvc.NewConsoleService(conf, logger)
	}
	return emailsvc.NewSendgridService(conf, logger)
}

func newUniversalTranslator(conf *core.Config) (*ut.UniversalTranslator, error) {
	return core.NewUniversalTranslator(conf.Locale)
}

func newServer(conf *core.Config, p serverParams) *echoapi.Server {
	return echoapi.NewServer(
		&echoapi.Options{Address: conf.Server.Address},
		&echoapi.Deps{
			Conf:        p.Conf,
			Logger:      p.Logger,
			Validate:    p.Validate,
			Uni:         p.Uni,
			ChapterSvc:  p.ChapterSvc,
			UserSvc:     p.UserSvc,
			TutoringSvc: p.TutoringSvc,
			StatusSvc:   p.StatusSvc,
			FeedbackSvc: p.FeedbackSvc,
			SessionSvc:  p.SessionSvc,
		},
	)
}

// New returns a new dependency injection dig.Container
func New() *dig.Container {
	c := dig.New()

	must(c.Provide(core.NewConfig))
	must(c.Provide(newLogger))
	must(c.Provide(newDBLogger, dig.Name("dbLogger")))
	must(c.Provide(NewStorage))
	must(c.Provide(newEmailService))
	must(c.Provide(validator.New))
	must(c.Provide(newUniversalTranslator))
	must(c.Provide(chapter.NewService))
	must(c.Provide(user.NewService))
	must(c.Provide(tutoring.NewService))
	must(c.Provide(tutoring.NewStatusService))
	must(c.Provide(tutoring.NewFeedbackService))
	must(c.Provide(tutoring.NewSessionService))
	must(c.Provide(newServer))

	if os.Getenv("DIG_VISUALIZE") != "" {
		_ = dig.Visualize(c, os.Stdout)
	}

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
