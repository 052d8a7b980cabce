package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/pkg/errors"

	"github.com/sistematutorias/tutorias/core"
	"github.com/sistematutorias/tutorias/core/chapter"
	"github.com/sistematutorias/tutorias/core/tutoring"
	"github.com/sistematutorias/tutorias/core/user"
)

type (
	Options struct {
		Address        string
		DisableReqLogs bool
	}

	// Deps holds the services and helpers the API handlers depend on.
	Deps struct {
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

	Server struct {
		opts     *Options
		deps     *Deps
		app      *echo.Echo
		metrics  *metrics
		errors   chan error
		shutdown chan os.Signal
	}
)

func NewServer(opts *Options, deps *Deps) *Server {
	s := &Server{
		opts:     opts,
		deps:     deps,
		app:      echo.New(),
		metrics:  newMetrics(),
		errors:   make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	s.setup()
	return s
}

func (s *Server) setup() {
	conf := s.deps.Conf

	s.app.HideBanner = true
	s.app.Server.ReadTimeout = conf.Server.ReadTimeout
	s.app.Server.WriteTimeout = conf.Server.WriteTimeout

	s.app.Pre(middleware.RemoveTrailingSlashWithConfig(middleware.TrailingSlashConfig{
		Skipper: func(ctx echo.Context) bool {
			return strings.HasPrefix(ctx.Request().URL.Path, docsPath)
		},
	}))
	s.app.Pre(localeMiddleware(s.deps.Uni))
	if !s.opts.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}
	s.app.Use(s.metrics.middleware())

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.SignalShutdown)
	s.app.Debug = conf.Debug

	s.app.GET("/", s.home)
	s.app.GET(conf.Server.MetricsPath, echo.WrapHandler(s.metrics.handler()))
	registerDocs(s.app, conf.AppName)

	api := s.app.Group("/api")
	jwt := middleware.JWTWithConfig(newJWTConfig(conf))

	registerChapterAPI(api, jwt, s.deps.ChapterSvc, s.deps.UserSvc, s.deps.Validate)
	registerUserAPI(api, jwt, conf, s.deps.UserSvc, s.deps.Validate)
	registerTutoringAPI(api, jwt, s.deps.TutoringSvc, s.deps.StatusSvc, s.deps.UserSvc, s.deps.Validate, s.metrics)
	registerFeedbackAPI(api, jwt, s.deps.FeedbackSvc, s.deps.TutoringSvc, s.deps.UserSvc, s.deps.Validate)
	registerSessionAPI(api, jwt, s.deps.SessionSvc, s.deps.TutoringSvc, s.deps.UserSvc, s.deps.Validate)
}

// Start listens on Options.Address. Failures, other than the server being shut down, are sent to Errors.
func (s *Server) Start() {
	if err := s.app.Start(s.opts.Address); err != nil && err != http.ErrServerClosed {
		s.errors <- errors.Wrap(err, "starting server")
	}
}

func (s *Server) Errors() <-chan error { return s.errors }

func (s *Server) ShutdownSignal() <-chan os.Signal { return s.shutdown }

// SignalShutdown asks the app to shut down gracefully, as SIGTERM would.
func (s *Server) SignalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default:
	}
}

func (s *Server) Shutdown(ctx context.Context) error {
	signal.Stop(s.shutdown)
	return s.app.Shutdown(ctx)
}

func (s *Server) Close() error {
	return s.app.Close()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func (s *Server) home(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, Response{
		Message: core.Translate(contextTranslator(ctx), "general.welcome", s.deps.Conf.AppName),
	})
}
