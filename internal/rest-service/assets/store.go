package assets

import (
	"context"
	"errors"
	"io"

	log "github.com/sirupsen/logrus"

	"github.com/konorlevich/dealership_api/internal/config"
)

const stagingDir = ".staging"

var (
	ErrCantCreateDir  = errors.New("can't create upload dir")
	ErrCantWriteFile  = errors.New("can't write uploaded file")
	ErrCantPromote    = errors.New("can't move staged file")
	ErrCantRemoveFile = errors.New("can't remove file")
	ErrCantReadFile   = errors.New("can't read file")
	ErrCantList       = errors.New("can't list files")
	ErrFileNotFound   = errors.New("file not found")
	ErrInvalidKey     = errors.New("invalid file key")
)

type Object interface {
	io.ReadSeekCloser
}

// Store keeps uploaded files. Uploads are written to a staging area first and
// become visible under their key only after Promote.
type Store interface {
	// Prepare creates the directories for the given keys prefixes.
	Prepare(ctx context.Context, dirs ...string) error
	Stage(ctx context.Context, r io.Reader, size int64) (token string, err error)
	Promote(ctx context.Context, token, key string) error
	Discard(ctx context.Context, token string) error
	// Remove deletes the file at key. A missing file is not an error.
	Remove(ctx context.Context, key string) error
	Open(ctx context.Context, key string) (Object, error)
	// Walk calls fn for every promoted key.
	Walk(ctx context.Context, fn func(key string) error) error
}

// NewStore returns the store selected by the upload backend setting.
func NewStore(ctx context.Context, up config.Upload, mc config.Minio, l *log.Entry) (Store, error) {
	if up.Backend == config.BackendMinio {
		return NewMinio(ctx, mc, l)
	}
	return NewLocal(up.Root, l)
}
