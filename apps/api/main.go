package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"
	"os"

	"go.mongodb.org/mongo-driver/mongo"

	echoapi "github.com/darasahq/darasa/apps/api/echo"
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
	emailsvc "github.com/darasahq/darasa/services/email"
	logsvc "github.com/darasahq/darasa/services/logger"
	mongodb "github.com/darasahq/darasa/storage/mongo"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	// set up DB
	ctx := context.Background()
	db, err := mongodb.Open(ctx, conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer func() {
		if err = mongodb.Close(ctx, db); err != nil {
			logger.Error(fmt.Sprintf("closing database: %v", err), err)
		}
	}()
	if err = mongodb.EnsureIndexes(ctx, db); err != nil {
		logger.Fatal(fmt.Sprintf("ensuring indexes: %v", err), err)
	}

	// set up repositories
	usrRepo := mongodb.NewUserRepository(db)
	trackRepo := mongodb.NewTrackRepository(db)
	cohortRepo := mongodb.NewCohortRepository(db)
	appRepo := mongodb.NewApplicationRepository(db)
	assessRepo := mongodb.NewAssessmentRepository(db)
	ivRepo := mongodb.NewInterviewRepository(db)
	materialRepo := mongodb.NewMaterialRepository(db)
	taskRepo := mongodb.NewTaskRepository(db)
	streamRepo := mongodb.NewStreamRepository(db)
	emailRepo := mongodb.NewEmailRepository(db)

	// set up services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService()
	} else {
		mailSvc = emailsvc.NewSendgridService()
	}
	emailSvc := email.NewService(emailRepo, mailSvc, logger)
	notifier := email.NewNotifier(emailSvc, cohortRepo, logger)

	usrSvc := user.NewService(usrRepo, notifier)
	trackSvc := track.NewService(trackRepo)
	cohortSvc := cohort.NewService(cohortRepo)
	appSvc := application.NewService(appRepo, usrSvc, cohortRepo, notifier)
	assessSvc := assessment.NewService(assessRepo, appSvc, usrSvc, notifier)
	ivSvc := interview.NewService(ivRepo, appSvc, usrSvc, notifier)
	materialSvc := material.NewService(materialRepo)
	taskSvc := task.NewService(taskRepo)
	streamSvc := stream.NewService(streamRepo)

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	// start the email outbox worker
	dispatcher := email.NewDispatcher(emailSvc, logger)
	dispatcher.Start()
	defer dispatcher.Stop()

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	// Expose important info under /debug/vars.
	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(&echoapi.Options{
		Logger:         logger,
		Health:         dbHealth{db: db},
		UserSvc:        usrSvc,
		TrackSvc:       trackSvc,
		CohortSvc:      cohortSvc,
		ApplicationSvc: appSvc,
		AssessmentSvc:  assessSvc,
		InterviewSvc:   ivSvc,
		MaterialSvc:    materialSvc,
		TaskSvc:        taskSvc,
		StreamSvc:      streamSvc,
		EmailSvc:       emailSvc,
	})

	go func() {
		server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		sctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err = server.Shutdown(sctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}

type dbHealth struct {
	db *mongo.Database
}

func (h dbHealth) StatusCheck(ctx context.Context) error {
	return mongodb.StatusCheck(ctx, h.db)
}
