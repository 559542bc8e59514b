package assets

import (
	"context"
	"fmt"
	"io"
	"mime"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	log "github.com/sirupsen/logrus"

	"github.com/konorlevich/dealership_api/internal/config"
)

// Minio stores files as objects of one bucket, keyed like the local layout.
type Minio struct {
	client *minio.Client
	bucket string
	l      *log.Entry
}

func NewMinio(ctx context.Context, cfg config.Minio, l *log.Entry) (*Minio, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("can't create minio client: %w", err)
	}
	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("can't check bucket %s: %w", cfg.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("can't create bucket %s: %w", cfg.Bucket, err)
		}
	}
	return &Minio{
		client: client,
		bucket: cfg.Bucket,
		l:      l.WithFields(log.Fields{"minio_endpoint": cfg.Endpoint, "bucket": cfg.Bucket}),
	}, nil
}

// Prepare is a no-op, object keys need no directories.
func (s *Minio) Prepare(context.Context, ...string) error {
	return nil
}

func (s *Minio) Stage(ctx context.Context, r io.Reader, size int64) (string, error) {
	token := uuid.NewString()
	if size <= 0 {
		size = -1
	}
	_, err := s.client.PutObject(ctx, s.bucket, stagingDir+"/"+token, r, size, minio.PutObjectOptions{
		ContentType: "application/octet-stream",
	})
	if err != nil {
		s.l.WithField("token", token).WithError(err).Error(ErrCantWriteFile)
		return "", ErrCantWriteFile
	}
	return token, nil
}

func (s *Minio) Promote(ctx context.Context, token, key string) error {
	if !validKey(key) {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	src := stagingDir + "/" + token
	l := s.l.WithFields(log.Fields{"token": token, "key": key})

	_, err := s.client.CopyObject(ctx,
		minio.CopyDestOptions{
			Bucket:          s.bucket,
			Object:          key,
			ReplaceMetadata: true,
			UserMetadata:    map[string]string{"Content-Type": contentType(key)},
		},
		minio.CopySrcOptions{Bucket: s.bucket, Object: src},
	)
	if err != nil {
		l.WithError(err).Error(ErrCantPromote)
		return ErrCantPromote
	}
	if err := s.client.RemoveObject(ctx, s.bucket, src, minio.RemoveObjectOptions{}); err != nil {
		l.WithError(err).Warn("can't remove staged object")
	}
	return nil
}

func (s *Minio) Discard(ctx context.Context, token string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, stagingDir+"/"+token, minio.RemoveObjectOptions{}); err != nil {
		s.l.WithField("token", token).WithError(err).Error(ErrCantRemoveFile)
		return ErrCantRemoveFile
	}
	return nil
}

func (s *Minio) Remove(ctx context.Context, key string) error {
	if !validKey(key) {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{})
	if err != nil && minio.ToErrorResponse(err).Code != "NoSuchKey" {
		s.l.WithField("key", key).WithError(err).Error(ErrCantRemoveFile)
		return ErrCantRemoveFile
	}
	return nil
}

func (s *Minio) Open(ctx context.Context, key string) (Object, error) {
	if !validKey(key) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err == nil {
		_, err = obj.Stat()
	}
	if err != nil {
		if obj != nil {
			_ = obj.Close()
		}
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, ErrFileNotFound
		}
		s.l.WithField("key", key).WithError(err).Error(ErrCantReadFile)
		return nil, ErrCantReadFile
	}
	return obj, nil
}

// Walk stops the listing as soon as fn fails.
func (s *Minio) Walk(ctx context.Context, fn func(key string) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Recursive: true}) {
		if obj.Err != nil {
			s.l.WithError(obj.Err).Error(ErrCantList)
			return fmt.Errorf("%w: %w", ErrCantList, obj.Err)
		}
		if strings.HasPrefix(obj.Key, stagingDir+"/") {
			continue
		}
		if err := fn(obj.Key); err != nil {
			return err
		}
	}
	return ctx.Err()
}

func contentType(key string) string {
	if t := mime.TypeByExtension(path.Ext(key)); t != "" {
		return t
	}
	return "application/octet-stream"
}
