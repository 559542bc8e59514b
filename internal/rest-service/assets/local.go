package assets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// Local stores files on disk below root, staged uploads live in root/.staging.
type Local struct {
	root    string
	staging string
	l       *log.Entry
}

func NewLocal(root string, l *log.Entry) (*Local, error) {
	staging := filepath.Join(root, stagingDir)
	if err := os.MkdirAll(staging, 0o755); err != nil {
		return nil, fmt.Errorf("can't create upload storage dir: %w", err)
	}
	return &Local{root: root, staging: staging, l: l.WithField("upload_root", root)}, nil
}

func (s *Local) Root() string {
	return s.root
}

func (s *Local) Prepare(_ context.Context, dirs ...string) error {
	for _, d := range dirs {
		if !validKey(d) {
			return fmt.Errorf("%w: %q", ErrInvalidKey, d)
		}
		dir := filepath.Join(s.root, filepath.FromSlash(d))
		if err := os.MkdirAll(dir, 0o755); err != nil {
			s.l.WithField("dir", dir).WithError(err).Error(ErrCantCreateDir)
			return ErrCantCreateDir
		}
	}
	return nil
}

func (s *Local) Stage(ctx context.Context, r io.Reader, _ int64) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	token := uuid.NewString()
	p := filepath.Join(s.staging, token)

	f, err := os.OpenFile(p, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		s.l.WithField("staged_path", p).WithError(err).Error(ErrCantWriteFile)
		return "", ErrCantWriteFile
	}
	_, err = io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		s.l.WithField("staged_path", p).WithError(err).Error(ErrCantWriteFile)
		_ = os.Remove(p)
		return "", ErrCantWriteFile
	}
	return token, nil
}

func (s *Local) Promote(_ context.Context, token, key string) error {
	src, err := s.stagedPath(token)
	if err != nil {
		return err
	}
	dst, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Rename(src, dst); err != nil {
		s.l.WithFields(log.Fields{"token": token, "key": key}).WithError(err).Error(ErrCantPromote)
		return ErrCantPromote
	}
	return nil
}

func (s *Local) Discard(_ context.Context, token string) error {
	p, err := s.stagedPath(token)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		s.l.WithField("token", token).WithError(err).Error(ErrCantRemoveFile)
		return ErrCantRemoveFile
	}
	return nil
}

func (s *Local) Remove(_ context.Context, key string) error {
	p, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		s.l.WithField("key", key).WithError(err).Error(ErrCantRemoveFile)
		return ErrCantRemoveFile
	}
	return nil
}

func (s *Local) Open(_ context.Context, key string) (Object, error) {
	p, err := s.resolve(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrFileNotFound
	}
	if err != nil {
		s.l.WithField("key", key).WithError(err).Error(ErrCantReadFile)
		return nil, ErrCantReadFile
	}
	if st, err := f.Stat(); err != nil || st.IsDir() {
		_ = f.Close()
		return nil, ErrFileNotFound
	}
	return f, nil
}

func (s *Local) Walk(ctx context.Context, fn func(key string) error) error {
	err := filepath.WalkDir(s.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			if p == s.staging {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(s.root, p)
		if err != nil {
			return err
		}
		return fn(filepath.ToSlash(rel))
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		s.l.WithError(err).Error(ErrCantList)
		return fmt.Errorf("%w: %w", ErrCantList, err)
	}
	return err
}

func (s *Local) resolve(key string) (string, error) {
	if !validKey(key) {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return filepath.Join(s.root, filepath.FromSlash(key)), nil
}

func (s *Local) stagedPath(token string) (string, error) {
	if _, err := uuid.Parse(token); err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, token)
	}
	return filepath.Join(s.staging, token), nil
}
