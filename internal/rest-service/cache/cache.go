package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/konorlevich/dealership_api/internal/config"
)

const keyPrefix = "dealership:"

// Cache keeps rendered read responses per resource. Invalidate drops every
// entry of a resource at once.
type Cache interface {
	Get(ctx context.Context, resource, key string) ([]byte, bool)
	Set(ctx context.Context, resource, key string, body []byte)
	Invalidate(ctx context.Context, resource string)
}

// Redis namespaces entries with a per-resource version number; bumping the
// version orphans the old entries until their TTL runs out.
type Redis struct {
	client redis.UniversalClient
	ttl    time.Duration
	l      *log.Entry
}

func NewRedis(ctx context.Context, cfg config.Redis, l *log.Entry) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: 2 * time.Second,
	})
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return &Redis{client: client, ttl: cfg.TTL, l: l.WithField("redis_addr", cfg.Addr)}, nil
}

func (c *Redis) Get(ctx context.Context, resource, key string) ([]byte, bool) {
	k, err := c.entryKey(ctx, resource, key)
	if err != nil {
		return nil, false
	}
	b, err := c.client.Get(ctx, k).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.l.WithError(err).Warn("can't read cache entry")
		}
		return nil, false
	}
	return b, true
}

func (c *Redis) Set(ctx context.Context, resource, key string, body []byte) {
	k, err := c.entryKey(ctx, resource, key)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, k, body, c.ttl).Err(); err != nil {
		c.l.WithError(err).Warn("can't write cache entry")
	}
}

func (c *Redis) Invalidate(ctx context.Context, resource string) {
	if err := c.client.Incr(ctx, versionKey(resource)).Err(); err != nil {
		c.l.WithField("resource", resource).WithError(err).Error("can't invalidate cache")
	}
}

func (c *Redis) Close() error {
	return c.client.Close()
}

func (c *Redis) entryKey(ctx context.Context, resource, key string) (string, error) {
	v, err := c.client.Get(ctx, versionKey(resource)).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		c.l.WithError(err).Warn("can't read cache version")
		return "", err
	}
	return entryKey(resource, v, key), nil
}

func versionKey(resource string) string {
	return keyPrefix + resource + ":version"
}

func entryKey(resource string, version int64, key string) string {
	return fmt.Sprintf("%s%s:%d:%s", keyPrefix, resource, version, key)
}

// Noop never stores anything.
type Noop struct{}

func (Noop) Get(context.Context, string, string) ([]byte, bool) { return nil, false }

func (Noop) Set(context.Context, string, string, []byte) {}

func (Noop) Invalidate(context.Context, string) {}
