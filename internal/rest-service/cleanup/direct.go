package cleanup

import (
	"context"
	"errors"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/konorlevich/dealership_api/internal/rest-service/assets"
)

const removeParallelism = 4

var ErrOrphaned = errors.New("can't remove file, left as orphan")

type Remover interface {
	Remove(ctx context.Context, key string) error
}

// Direct removes files synchronously. Remote URLs and paths outside the
// upload root are skipped.
type Direct struct {
	store Remover
	l     *log.Entry
}

func NewDirect(store Remover, l *log.Entry) *Direct {
	return &Direct{store: store, l: l.WithField("cleaner", "direct")}
}

func (d *Direct) Discard(ctx context.Context, resource string, paths ...string) {
	g := &errgroup.Group{}
	g.SetLimit(removeParallelism)
	for _, p := range paths {
		key, ok := assets.KeyFromPath(p)
		if !ok {
			continue
		}
		g.Go(func() error {
			if err := d.store.Remove(ctx, key); err != nil {
				d.l.WithFields(log.Fields{"resource": resource, "path": p}).WithError(err).Warn(ErrOrphaned)
			}
			return nil
		})
	}
	_ = g.Wait()
}
