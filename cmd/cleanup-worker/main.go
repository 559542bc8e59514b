package main

import (
	"context"
	"os/signal"
	"syscall"

	amqp "github.com/rabbitmq/amqp091-go"
	log "github.com/sirupsen/logrus"

	"github.com/konorlevich/dealership_api/internal/config"
	"github.com/konorlevich/dealership_api/internal/logging"
	"github.com/konorlevich/dealership_api/internal/rest-service/assets"
	"github.com/konorlevich/dealership_api/internal/rest-service/cleanup"
)

const prefetch = 10

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("can't load config")
	}
	logger, closer := logging.New(cfg.Log)
	defer closer.Close()
	l := logger.WithFields(log.Fields{
		"queue":          cfg.RabbitMQ.Queue,
		"upload_backend": cfg.Upload.Backend,
	})
	if cfg.RabbitMQ.URL == "" {
		l.Fatal("RABBITMQ_URL is not set")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := assets.NewStore(ctx, cfg.Upload, cfg.Minio, l)
	if err != nil {
		l.WithError(err).Fatal("failed to open upload storage")
	}

	conn, err := amqp.Dial(cfg.RabbitMQ.URL)
	if err != nil {
		l.WithError(err).Fatal("can't connect to rabbitmq")
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		l.WithError(err).Fatal("can't open channel")
	}
	defer ch.Close()

	if err := cleanup.DeclareQueue(ch, cfg.RabbitMQ.Queue); err != nil {
		l.WithError(err).Fatal("can't declare queue")
	}
	if err := ch.Qos(prefetch, 0, false); err != nil {
		l.WithError(err).Fatal("can't set prefetch")
	}
	deliveries, err := ch.Consume(
		cfg.RabbitMQ.Queue,
		"cleanup-worker",
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		l.WithError(err).Fatal("can't consume queue")
	}

	l.Info("waiting for cleanup messages")
	cleanup.NewConsumer(store, l).Run(ctx, deliveries)
}
