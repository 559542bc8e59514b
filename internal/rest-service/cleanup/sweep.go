package cleanup

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/konorlevich/dealership_api/internal/rest-service/assets"
)

type PathSource interface {
	Name() string
	ReferencedPaths(ctx context.Context) ([]string, error)
}

type Walker interface {
	Remover
	Walk(ctx context.Context, fn func(key string) error) error
}

// Sweep finds stored files no record references. With remove set they are
// deleted as well.
func Sweep(ctx context.Context, store Walker, sources []PathSource, remove bool, l *log.Entry) ([]string, error) {
	referenced := map[string]bool{}
	for _, src := range sources {
		paths, err := src.ReferencedPaths(ctx)
		if err != nil {
			return nil, fmt.Errorf("can't read paths of %s: %w", src.Name(), err)
		}
		for _, p := range paths {
			if key, ok := assets.KeyFromPath(p); ok {
				referenced[key] = true
			}
		}
	}

	var orphans []string
	err := store.Walk(ctx, func(key string) error {
		if !referenced[key] {
			orphans = append(orphans, assets.PathFor(key))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	l.WithFields(log.Fields{"referenced": len(referenced), "orphans": len(orphans)}).Info("sweep finished")

	if remove {
		NewDirect(store, l).Discard(ctx, "sweep", orphans...)
	}
	return orphans, nil
}
