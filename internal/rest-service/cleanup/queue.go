package cleanup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	log "github.com/sirupsen/logrus"

	"github.com/konorlevich/dealership_api/internal/rest-service/assets"
)

const (
	defaultRetries = 3
	defaultBackoff = 2 * time.Second
)

var ErrBadMessage = errors.New("can't decode cleanup message")

type DeleteAssetMessage struct {
	Resource  string   `json:"resource"`
	Paths     []string `json:"paths"`
	Timestamp int64    `json:"timestamp"`
}

// DeclareQueue declares the durable cleanup queue on the default exchange.
func DeclareQueue(ch *amqp.Channel, queue string) error {
	_, err := ch.QueueDeclare(
		queue,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("can't declare queue %s: %w", queue, err)
	}
	return nil
}

type Discarder interface {
	Discard(ctx context.Context, resource string, paths ...string)
}

// Publisher hands removals to the cleanup worker. When publishing fails the
// files are removed in place by the fallback.
type Publisher struct {
	mu       sync.Mutex
	ch       *amqp.Channel
	queue    string
	fallback Discarder
	l        *log.Entry
}

func NewPublisher(conn *amqp.Connection, queue string, fallback Discarder, l *log.Entry) (*Publisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("can't open channel: %w", err)
	}
	if err := DeclareQueue(ch, queue); err != nil {
		_ = ch.Close()
		return nil, err
	}
	return &Publisher{ch: ch, queue: queue, fallback: fallback, l: l.WithField("queue", queue)}, nil
}

func (p *Publisher) Discard(ctx context.Context, resource string, paths ...string) {
	if len(paths) == 0 {
		return
	}
	body, err := json.Marshal(DeleteAssetMessage{Resource: resource, Paths: paths, Timestamp: time.Now().Unix()})
	if err == nil {
		p.mu.Lock()
		err = p.ch.PublishWithContext(ctx, "", p.queue, false, false, amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
		})
		p.mu.Unlock()
	}
	if err != nil {
		p.l.WithField("resource", resource).WithError(err).Warn("can't publish cleanup message, removing in place")
		p.fallback.Discard(ctx, resource, paths...)
	}
}

func (p *Publisher) Close() error {
	return p.ch.Close()
}

// Consumer removes the files named by cleanup messages.
type Consumer struct {
	store   Remover
	retries int
	backoff time.Duration
	l       *log.Entry
}

func NewConsumer(store Remover, l *log.Entry) *Consumer {
	return &Consumer{store: store, retries: defaultRetries, backoff: defaultBackoff, l: l.WithField("consumer", "cleanup")}
}

// Handle processes one message body. ErrBadMessage means the message can never
// succeed; other errors are worth a redelivery.
func (c *Consumer) Handle(ctx context.Context, body []byte) error {
	var msg DeleteAssetMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		c.l.WithError(err).Error(ErrBadMessage)
		return ErrBadMessage
	}
	l := c.l.WithField("resource", msg.Resource)

	for _, p := range msg.Paths {
		key, ok := assets.KeyFromPath(p)
		if !ok {
			l.WithField("path", p).Debug("not a stored file, skipped")
			continue
		}
		var err error
		for attempt := 1; attempt <= c.retries; attempt++ {
			if err = c.store.Remove(ctx, key); err == nil {
				break
			}
			l.WithFields(log.Fields{"path": p, "attempt": attempt}).WithError(err).Warn("can't remove file")
			if attempt < c.retries {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(time.Duration(attempt) * c.backoff):
				}
			}
		}
		if err != nil {
			return fmt.Errorf("can't remove %s: %w", p, err)
		}
		l.WithField("path", p).Info("file removed")
	}
	return nil
}

// Run acknowledges deliveries until ctx is done or the channel closes.
func (c *Consumer) Run(ctx context.Context, deliveries <-chan amqp.Delivery) {
	for {
		select {
		case <-ctx.Done():
			c.l.Info("shutting down")
			return
		case d, ok := <-deliveries:
			if !ok {
				c.l.Warn("delivery channel closed")
				return
			}
			err := c.Handle(ctx, d.Body)
			switch {
			case err == nil:
				_ = d.Ack(false)
			case errors.Is(err, ErrBadMessage):
				_ = d.Nack(false, false)
			default:
				c.l.WithError(err).Error("cleanup failed, requeueing")
				_ = d.Nack(false, true)
			}
		}
	}
}
