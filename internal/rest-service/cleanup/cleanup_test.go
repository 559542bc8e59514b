package cleanup

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/konorlevich/dealership_api/internal/rest-service/assets"
)

func getLogger() *log.Entry {
	logger := log.New()
	logger.SetLevel(log.FatalLevel)
	return logger.WithField("in_test", true)
}

// flakyRemover fails the first failures calls for every key.
type flakyRemover struct {
	mu       sync.Mutex
	failures int
	calls    map[string]int
	removed  []string
}

func (r *flakyRemover) Remove(_ context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.calls == nil {
		r.calls = map[string]int{}
	}
	r.calls[key]++
	if r.calls[key] <= r.failures {
		return errors.New("storage unavailable")
	}
	r.removed = append(r.removed, key)
	return nil
}

func TestDirect_Discard(t *testing.T) {
	r := &flakyRemover{}
	NewDirect(r, getLogger()).Discard(context.Background(), "galleries",
		"uploads/gallery/a.jpg",
		"/uploads/gallery/b.jpg",
		"https://cdn.example.com/uploads/gallery/c.jpg",
		"gallery/d.jpg",
	)
	sort.Strings(r.removed)
	assert.Equal(t, []string{"gallery/a.jpg", "gallery/b.jpg"}, r.removed)
}

func TestDirect_DiscardFailureIsNotFatal(t *testing.T) {
	r := &flakyRemover{failures: 1}
	NewDirect(r, getLogger()).Discard(context.Background(), "galleries", "uploads/gallery/a.jpg")
	assert.Empty(t, r.removed)
	assert.Equal(t, 1, r.calls["gallery/a.jpg"])
}

func TestConsumer_Handle(t *testing.T) {
	tests := []struct {
		description     string
		body            string
		failures        int
		expectedErr     error
		exhausted       bool
		expectedRemoved []string
	}{
		{
			description:     "removes every stored path",
			body:            `{"resource":"galleries","paths":["uploads/gallery/a.jpg","https://x.example/b.jpg","uploads/gallery/c.jpg"]}`,
			expectedRemoved: []string{"gallery/a.jpg", "gallery/c.jpg"},
		},
		{
			description:     "retries transient failures",
			body:            `{"resource":"galleries","paths":["uploads/gallery/a.jpg"]}`,
			failures:        2,
			expectedRemoved: []string{"gallery/a.jpg"},
		},
		{
			description: "gives up after the last attempt",
			body:        `{"resource":"galleries","paths":["uploads/gallery/a.jpg"]}`,
			failures:    3,
			exhausted:   true,
		},
		{
			description: "broken message",
			body:        `{"paths":`,
			expectedErr: ErrBadMessage,
		},
	}
	for _, tt := range tests {
		t.Run(tt.description, func(t *testing.T) {
			r := &flakyRemover{failures: tt.failures}
			c := NewConsumer(r, getLogger())
			c.backoff = 0

			err := c.Handle(context.Background(), []byte(tt.body))
			if tt.exhausted {
				assert.Error(t, err)
				assert.NotErrorIs(t, err, ErrBadMessage)
				assert.Equal(t, 3, r.calls["gallery/a.jpg"])
				assert.Empty(t, r.removed)
			} else {
				if diff := cmp.Diff(tt.expectedErr, err, cmpopts.EquateErrors()); diff != "" {
					t.Errorf("Handle() error mismatch (-want +got):\n%s", diff)
				}
				assert.Equal(t, tt.expectedRemoved, r.removed)
			}
		})
	}
}

func TestConsumer_HandleStopsOnCancel(t *testing.T) {
	c := NewConsumer(&flakyRemover{failures: 10}, getLogger())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := c.Handle(ctx, []byte(`{"paths":["uploads/gallery/a.jpg"]}`))
	assert.ErrorIs(t, err, context.Canceled)
}

type staticSource struct {
	name  string
	paths []string
}

func (s staticSource) Name() string { return s.name }

func (s staticSource) ReferencedPaths(context.Context) ([]string, error) { return s.paths, nil }

func TestSweep(t *testing.T) {
	ctx := context.Background()
	root := filepath.Join(t.TempDir(), "uploads")
	store, err := assets.NewLocal(root, getLogger())
	require.NoError(t, err)
	require.NoError(t, store.Prepare(ctx, "gallery", "ebrochures"))
	for _, f := range []string{"gallery/a.jpg", "gallery/orphan.jpg", "ebrochures/b.pdf"} {
		require.NoError(t, os.WriteFile(filepath.Join(root, filepath.FromSlash(f)), []byte("x"), 0o644))
	}
	sources := []PathSource{
		staticSource{name: "galleries", paths: []string{"uploads/gallery/a.jpg", "https://cdn.example.com/z.jpg"}},
		staticSource{name: "brochures", paths: []string{"/uploads/ebrochures/b.pdf"}},
	}

	orphans, err := Sweep(ctx, store, sources, false, getLogger())
	require.NoError(t, err)
	assert.Equal(t, []string{"uploads/gallery/orphan.jpg"}, orphans)
	assert.FileExists(t, filepath.Join(root, "gallery", "orphan.jpg"))

	orphans, err = Sweep(ctx, store, sources, true, getLogger())
	require.NoError(t, err)
	assert.Equal(t, []string{"uploads/gallery/orphan.jpg"}, orphans)
	assert.NoFileExists(t, filepath.Join(root, "gallery", "orphan.jpg"))
	assert.FileExists(t, filepath.Join(root, "gallery", "a.jpg"))
}
