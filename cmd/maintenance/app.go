package main

import (
	"io"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/konorlevich/dealership_api/internal/config"
	"github.com/konorlevich/dealership_api/internal/logging"
	"github.com/konorlevich/dealership_api/internal/rest-service/assets"
	"github.com/konorlevich/dealership_api/internal/rest-service/catalog"
	"github.com/konorlevich/dealership_api/internal/rest-service/database"
	"github.com/konorlevich/dealership_api/internal/rest-service/handler"
	"github.com/konorlevich/dealership_api/internal/rest-service/records"
)

var (
	envFile string

	l         *log.Entry
	logCloser io.Closer
	db        *gorm.DB
	store     assets.Store
	registry  *catalog.Registry
)

func initializeApp(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(envFile)
	if err != nil {
		return err
	}
	logger, closer := logging.New(cfg.Log)
	logCloser = closer
	l = logger.WithField("command", cmd.Name())

	if db, err = database.NewDb(cfg.DB, l); err != nil {
		return err
	}
	if store, err = assets.NewStore(cmd.Context(), cfg.Upload, cfg.Minio, l); err != nil {
		return err
	}
	// files are never removed through the managers here, sweep removes them directly
	registry = catalog.Build(records.Deps{DB: db, Store: store, Logger: l}, handler.Deps{Logger: l})
	return nil
}

func closeApp(_ *cobra.Command, _ []string) {
	if db != nil {
		if err := database.Close(db); err != nil {
			l.WithError(err).Warn("can't close database")
		}
	}
	if logCloser != nil {
		_ = logCloser.Close()
	}
}
