package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/darasahq/darasa/core"
	"github.com/darasahq/darasa/core/application"
	"github.com/darasahq/darasa/core/assessment"
	"github.com/darasahq/darasa/core/cohort"
	"github.com/darasahq/darasa/core/email"
	"github.com/darasahq/darasa/core/interview"
	"github.com/darasahq/darasa/core/material"
	"github.com/darasahq/darasa/core/stream"
	"github.com/darasahq/darasa/core/task"
	"github.com/darasahq/darasa/core/track"
	"github.com/darasahq/darasa/core/user"
)

type (
	// StatusChecker reports the readiness of a backing store.
	StatusChecker interface {
		StatusCheck(ctx context.Context) error
	}

	Options struct {
		DisableReqLogs bool
		Logger         core.Logger
		Health         StatusChecker

		UserSvc        *user.Service
		TrackSvc       *track.Service
		CohortSvc      *cohort.Service
		ApplicationSvc *application.Service
		AssessmentSvc  *assessment.Service
		InterviewSvc   *interview.Service
		MaterialSvc    *material.Service
		TaskSvc        *task.Service
		StreamSvc      *stream.Service
		EmailSvc       *email.Service
	}

	Server interface {
		http.Handler
		Start()
		Shutdown(ctx context.Context) error
		Close() error
		Errors() <-chan error
		ShutdownSignal() <-chan os.Signal
	}

	server struct {
		opts     *Options
		app      *echo.Echo
		errs     chan error
		shutdown chan os.Signal
	}
)

var _ Server = (*server)(nil)

func NewServer(opts *Options) Server {
	s := &server{
		opts:     opts,
		app:      echo.New(),
		errs:     make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	s.setup()
	return s
}

func (s *server) setup() {
	appJWTConfig.SigningKey = core.Conf.SecretKey

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.opts.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(core.Conf.Debug || core.Conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}
	s.app.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: core.Conf.Server.AllowedOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
	}))

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.opts.Logger, s.signalShutdown)
	s.app.Debug = core.Conf.Debug
	s.app.HideBanner = true

	s.app.GET("/", home)
	s.app.GET("/health", s.health)

	v1 := s.app.Group("/v1")
	jwt := middleware.JWTWithConfig(appJWTConfig)

	registerUserAPI(v1, jwt, s.opts.UserSvc)
	registerTrackAPI(v1, jwt, s.opts.TrackSvc)
	registerCohortAPI(v1, jwt, s.opts.CohortSvc)
	registerApplicationAPI(v1, jwt, s.opts.ApplicationSvc, s.opts.UserSvc)
	registerAssessmentAPI(v1, jwt, s.opts.AssessmentSvc, s.opts.UserSvc)
	registerInterviewAPI(v1, jwt, s.opts.InterviewSvc)
	registerMaterialAPI(v1, jwt, s.opts.MaterialSvc, s.opts.UserSvc)
	registerTaskAPI(v1, jwt, s.opts.TaskSvc, s.opts.UserSvc)
	registerStreamAPI(v1, jwt, s.opts.StreamSvc, s.opts.UserSvc)
	registerEmailAPI(v1, jwt, s.opts.EmailSvc, s.opts.UserSvc)
}

func (s *server) Start() {
	s.errs <- s.app.Start(core.Conf.ServerAddr())
}

func (s *server) Shutdown(ctx context.Context) error { return s.app.Shutdown(ctx) }
func (s *server) Close() error                       { return s.app.Close() }
func (s *server) Errors() <-chan error               { return s.errs }
func (s *server) ShutdownSignal() <-chan os.Signal   { return s.shutdown }

func (s *server) signalShutdown() {
	s.shutdown <- syscall.SIGTERM
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func (s *server) health(ctx echo.Context) error {
	if s.opts.Health != nil {
		if err := s.opts.Health.StatusCheck(ctx.Request().Context()); err != nil {
			return ctx.JSON(http.StatusServiceUnavailable, echo.Map{"status": "database not ready"})
		}
	}
	return ctx.JSON(http.StatusOK, echo.Map{"status": "ok", "build": core.Conf.Build})
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to Darasa API!")
}
