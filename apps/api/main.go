package main

import (
	"context"
	"database/sql"
	"expvar"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof"
	"os"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	echoapi "github.com/colegia/backend/apps/api/echo"
	"github.com/colegia/backend/core"
	"github.com/colegia/backend/core/academic"
	"github.com/colegia/backend/core/enrollment"
	"github.com/colegia/backend/core/person"
	"github.com/colegia/backend/core/school"
	blobsvc "github.com/colegia/backend/services/blobstore"
	emailsvc "github.com/colegia/backend/services/email"
	logsvc "github.com/colegia/backend/services/logger"
	"github.com/colegia/backend/storage/database"
	sqlxrepos "github.com/colegia/backend/storage/database/sqlx"
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

	dbLogger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	dbLogger.Enable(!conf.Debug)

	db, err := setUpDB(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer func() {
		if err = db.Close(); err != nil {
			dbLogger.Fatal("Failed to close", err)
		}
	}()

	sqlDB := sqlxrepos.NewDB(db)
	personRepo := sqlxrepos.NewPersonRepository(sqlDB)
	schoolRepo := sqlxrepos.NewSchoolRepository(sqlDB)
	academicRepo := sqlxrepos.NewAcademicRepository(sqlDB)
	enrollmentRepo := sqlxrepos.NewEnrollmentRepository(sqlDB)
	resolver := database.NewResolver(schoolRepo, academicRepo, enrollmentRepo)

	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf)
	} else {
		mailSvc = emailsvc.NewSendgridService(logger, conf)
	}

	var blob core.BlobStorage
	if conf.Debug {
		blob = blobsvc.NewMemoryStorage()
	} else {
		blob, err = blobsvc.NewS3Storage(context.Background(), conf)
		if err != nil {
			logger.Fatal(fmt.Sprintf("setting up blob storage: %v", err), err)
		}
	}

	personSvc := person.NewService(personRepo, mailSvc, conf)
	schoolSvc := school.NewService(schoolRepo, resolver)
	academicSvc := academic.NewService(academicRepo, schoolRepo, personRepo, resolver)
	enrollmentSvc := enrollment.NewService(enrollmentRepo, academicRepo, personRepo, resolver, mailSvc)

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	validate := validator.New()
	translator := newTranslator()
	core.InitValidators(validate, translator)

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)

	go func() {
		if err = http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(echoapi.ServerDeps{
		Conf:          conf,
		Logger:        logger,
		PersonSvc:     personSvc,
		SchoolSvc:     schoolSvc,
		AcademicSvc:   academicSvc,
		EnrollmentSvc: enrollmentSvc,
		BlobStorage:   blob,
		Validate:      validate,
		Translator:    translator,
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
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}

func setUpDB(conf *core.Config) (*sql.DB, error) {
	if err := database.CreateIfNotExist(conf); err != nil {
		return nil, err
	}

	db, err := database.Open(conf)
	if err != nil {
		return nil, err
	}

	if err = database.Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}
