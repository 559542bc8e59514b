package cache

import (
	"context"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"github.com/konorlevich/dealership_api/internal/config"
)

func TestKeys(t *testing.T) {
	assert.Equal(t, "dealership:galleries:version", versionKey("galleries"))
	assert.Equal(t, "dealership:galleries:3:/api/galleries?page=1", entryKey("galleries", 3, "/api/galleries?page=1"))
	assert.NotEqual(t, entryKey("galleries", 3, "k"), entryKey("galleries", 4, "k"))
}

func TestNoop(t *testing.T) {
	var c Cache = Noop{}
	ctx := context.Background()
	c.Set(ctx, "faqs", "k", []byte("{}"))
	_, ok := c.Get(ctx, "faqs", "k")
	assert.False(t, ok)
	c.Invalidate(ctx, "faqs")
}

func TestNewRedis_Unreachable(t *testing.T) {
	logger := log.New()
	logger.SetLevel(log.FatalLevel)

	_, err := NewRedis(context.Background(), config.Redis{Addr: "127.0.0.1:1", TTL: time.Minute}, logger.WithField("in_test", true))
	assert.Error(t, err)
}
