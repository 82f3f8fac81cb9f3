package objectstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rs/zerolog"

	"bookpipe/internal/config"
)

// Store mirrors run artifacts to MinIO: product images into one bucket,
// CSV/JSON export snapshots into another.
type Store struct {
	client        *minio.Client
	imagesBucket  string
	exportsBucket string
	log           zerolog.Logger
}

func New(cfg config.Config, log zerolog.Logger) (*Store, error) {
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioSecure,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}
	return &Store{
		client:        client,
		imagesBucket:  cfg.MinioImagesBucket,
		exportsBucket: cfg.MinioExportsBucket,
		log:           log,
	}, nil
}

// EnsureBuckets creates the target buckets when they do not exist yet.
func (s *Store) EnsureBuckets(ctx context.Context) error {
	for _, bucket := range []string{s.imagesBucket, s.exportsBucket} {
		exists, err := s.client.BucketExists(ctx, bucket)
		if err != nil {
			return err
		}
		if exists {
			continue
		}
		if err := s.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return err
		}
	}
	return nil
}

// UploadImage stores image bytes under name and returns the object reference
// recorded on the book row.
func (s *Store) UploadImage(ctx context.Context, data []byte, name string) (string, error) {
	if err := s.put(ctx, s.imagesBucket, name, data, "image/jpeg"); err != nil {
		return "", err
	}
	return fmt.Sprintf("%s/%s", s.imagesBucket, name), nil
}

func (s *Store) UploadCSV(ctx context.Context, data []byte, name string) error {
	return s.put(ctx, s.exportsBucket, name, data, "text/csv")
}

func (s *Store) UploadJSON(ctx context.Context, v any, name string) error {
	blob, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return s.put(ctx, s.exportsBucket, name, blob, "application/json")
}

func (s *Store) put(ctx context.Context, bucket, name string, data []byte, contentType string) error {
	_, err := s.client.PutObject(ctx, bucket, name, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("put %s/%s: %w", bucket, name, err)
	}
	s.log.Debug().Str("bucket", bucket).Str("object", name).Int("bytes", len(data)).Msg("uploaded")
	return nil
}
