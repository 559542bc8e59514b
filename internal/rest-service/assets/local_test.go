package assets

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func getLogger() *log.Entry {
	logger := log.New()
	logger.SetLevel(log.FatalLevel)
	return logger.WithField("in_test", true)
}

func newLocal(t *testing.T) (*Local, string) {
	t.Helper()
	root := filepath.Join(t.TempDir(), "uploads")
	s, err := NewLocal(root, getLogger())
	require.NoError(t, err)
	require.NoError(t, s.Prepare(context.Background(), "gallery", "ebrochures"))
	return s, root
}

func TestLocal_StagePromote(t *testing.T) {
	ctx := context.Background()
	s, root := newLocal(t)

	token, err := s.Stage(ctx, strings.NewReader("image bytes"), 11)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(root, stagingDir, token))

	require.NoError(t, s.Promote(ctx, token, "gallery/a.jpg"))
	assert.NoFileExists(t, filepath.Join(root, stagingDir, token))

	f, err := s.Open(ctx, "gallery/a.jpg")
	require.NoError(t, err)
	defer f.Close()
	b, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, "image bytes", string(b))
}

func TestLocal_Discard(t *testing.T) {
	ctx := context.Background()
	s, root := newLocal(t)

	token, err := s.Stage(ctx, strings.NewReader("x"), 1)
	require.NoError(t, err)
	require.NoError(t, s.Discard(ctx, token))
	assert.NoFileExists(t, filepath.Join(root, stagingDir, token))

	// discarding twice is fine
	require.NoError(t, s.Discard(ctx, token))
}

func TestLocal_Remove(t *testing.T) {
	ctx := context.Background()
	s, root := newLocal(t)
	require.NoError(t, os.WriteFile(filepath.Join(root, "gallery", "b.jpg"), []byte("b"), 0o644))

	require.NoError(t, s.Remove(ctx, "gallery/b.jpg"))
	assert.NoFileExists(t, filepath.Join(root, "gallery", "b.jpg"))
	assert.NoError(t, s.Remove(ctx, "gallery/b.jpg"), "missing file is not an error")

	_, err := s.Open(ctx, "gallery/b.jpg")
	if diff := cmp.Diff(ErrFileNotFound, err, cmpopts.EquateErrors()); diff != "" {
		t.Errorf("Open() error mismatch (-want +got):\n%s", diff)
	}
}

func TestLocal_RejectsTraversal(t *testing.T) {
	ctx := context.Background()
	s, _ := newLocal(t)

	for _, key := range []string{"../outside.txt", "gallery/../../x", "/etc/passwd", ".staging/whatever", ""} {
		t.Run(key, func(t *testing.T) {
			assert.ErrorIs(t, s.Remove(ctx, key), ErrInvalidKey)
			_, err := s.Open(ctx, key)
			assert.ErrorIs(t, err, ErrInvalidKey)
		})
	}
	assert.ErrorIs(t, s.Discard(ctx, "../../x"), ErrInvalidKey)
}

func TestLocal_Walk(t *testing.T) {
	ctx := context.Background()
	s, root := newLocal(t)
	require.NoError(t, os.WriteFile(filepath.Join(root, "gallery", "a.jpg"), []byte("a"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "ebrochures", "b.pdf"), []byte("b"), 0o644))
	_, err := s.Stage(ctx, strings.NewReader("staged"), 6)
	require.NoError(t, err)

	var keys []string
	require.NoError(t, s.Walk(ctx, func(key string) error {
		keys = append(keys, key)
		return nil
	}))
	sort.Strings(keys)
	assert.Equal(t, []string{"ebrochures/b.pdf", "gallery/a.jpg"}, keys)
}

func TestLocal_StageCancelled(t *testing.T) {
	s, _ := newLocal(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Stage(ctx, strings.NewReader("x"), 1)
	assert.ErrorIs(t, err, context.Canceled)
}
