package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	amqp "github.com/rabbitmq/amqp091-go"
	log "github.com/sirupsen/logrus"

	"github.com/konorlevich/dealership_api/internal/config"
	"github.com/konorlevich/dealership_api/internal/logging"
	"github.com/konorlevich/dealership_api/internal/rest-service/assets"
	"github.com/konorlevich/dealership_api/internal/rest-service/cache"
	"github.com/konorlevich/dealership_api/internal/rest-service/catalog"
	"github.com/konorlevich/dealership_api/internal/rest-service/cleanup"
	"github.com/konorlevich/dealership_api/internal/rest-service/database"
	"github.com/konorlevich/dealership_api/internal/rest-service/handler"
	"github.com/konorlevich/dealership_api/internal/rest-service/records"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("can't load config")
	}
	logger, closer := logging.New(cfg.Log)
	defer closer.Close()
	l := logger.WithFields(log.Fields{
		"port":           cfg.Port,
		"db_driver":      cfg.DB.Driver,
		"upload_backend": cfg.Upload.Backend,
	})
	if logger.GetLevel() < log.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	defer l.Info("got interruption signal")

	db, err := database.NewDb(cfg.DB, l)
	if err != nil {
		l.WithError(err).Fatal("failed to open database")
	}
	defer database.Close(db)

	store, err := assets.NewStore(ctx, cfg.Upload, cfg.Minio, l)
	if err != nil {
		l.WithError(err).Fatal("failed to open upload storage")
	}

	direct := cleanup.NewDirect(store, l)
	var cleaner records.Cleaner = direct
	if cfg.RabbitMQ.URL != "" {
		conn, err := amqp.Dial(cfg.RabbitMQ.URL)
		if err != nil {
			l.WithError(err).Fatal("can't connect to rabbitmq")
		}
		defer conn.Close()
		publisher, err := cleanup.NewPublisher(conn, cfg.RabbitMQ.Queue, direct, l)
		if err != nil {
			l.WithError(err).Fatal("can't open cleanup queue")
		}
		defer publisher.Close()
		cleaner = publisher
		l.WithField("queue", cfg.RabbitMQ.Queue).Info("file removal is deferred to the cleanup worker")
	}

	var responses cache.Cache = cache.Noop{}
	if cfg.Redis.Addr != "" {
		rc, err := cache.NewRedis(ctx, cfg.Redis, l)
		if err != nil {
			l.WithError(err).Warn("read cache disabled")
		} else {
			defer rc.Close()
			responses = rc
		}
	}

	hd := handler.Deps{
		DB:             db,
		Store:          store,
		Cache:          responses,
		Logger:         l,
		MaxBodyBytes:   cfg.Upload.MaxBytes,
		AllowedOrigins: cfg.AllowedOrigins,
	}
	reg := catalog.Build(records.Deps{DB: db, Store: store, Cleaner: cleaner, Logger: l}, hd)

	if err := store.Prepare(ctx, reg.Dirs...); err != nil {
		l.WithError(err).Fatal("can't prepare upload directories")
	}
	if err := database.Migrate(db, reg.Models...); err != nil {
		l.WithError(err).Fatal("can't migrate database")
	}

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler.NewHandler(hd, reg.Mounters...),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		l.Infof("listening to port %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.WithError(err).Fatal("listen and serve returned err")
		}
	}()
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			l.WithError(err).Error("handler shutdown returned an err")
		}
	}()

	<-ctx.Done()
}
