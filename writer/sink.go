package writer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	appconfig "optionflow/config"
	"optionflow/internal/metadata"
)

// Sink stores result and metadata objects under slash separated keys. Get
// wraps metadata.ErrNotFound for a missing key.
type Sink interface {
	Put(ctx context.Context, key string, body []byte, contentType string) error
	Get(ctx context.Context, key string) ([]byte, error)
	// Location is the URI a stored key can be found at.
	Location(key string) string
}

// ObjectStore is the part of the S3 client the writer needs.
type ObjectStore interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

type S3Sink struct {
	client  ObjectStore
	bucket  string
	version string
}

func NewS3Sink(client ObjectStore, bucket, version string) *S3Sink {
	return &S3Sink{client: client, bucket: bucket, version: version}
}

func (s *S3Sink) Put(ctx context.Context, key string, body []byte, contentType string) error {
	input := &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
		Metadata: map[string]string{
			"optionflow-version": s.version,
		},
	}
	if _, err := s.client.PutObject(ctx, input); err != nil {
		return fmt.Errorf("failed to upload to S3 bucket %s: %w", s.bucket, err)
	}
	return nil
}

func (s *S3Sink) Get(ctx context.Context, key string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, fmt.Errorf("s3://%s/%s: %w", s.bucket, key, metadata.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to read from S3 bucket %s: %w", s.bucket, err)
	}
	defer out.Body.Close()
	return io.ReadAll(out.Body)
}

func (s *S3Sink) Location(key string) string {
	if key == "" {
		return "s3://" + s.bucket
	}
	return fmt.Sprintf("s3://%s/%s", s.bucket, key)
}

// LocalSink writes objects below a directory, creating parents as needed.
type LocalSink struct {
	dir string
}

func NewLocalSink(dir string) *LocalSink {
	return &LocalSink{dir: dir}
}

func (l *LocalSink) Put(ctx context.Context, key string, body []byte, contentType string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	full := l.Location(key)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", full, err)
	}
	return os.WriteFile(full, body, 0o644)
}

func (l *LocalSink) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	full := l.Location(key)
	b, err := os.ReadFile(full)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", full, metadata.ErrNotFound)
	}
	return b, err
}

func (l *LocalSink) Location(key string) string {
	return filepath.Join(l.dir, filepath.FromSlash(key))
}

// NewSink picks S3 when storage.s3 is enabled and the local directory
// otherwise. client is only used for S3.
func NewSink(cfg *appconfig.Config, client ObjectStore) (Sink, error) {
	if cfg.Storage.S3.Enabled {
		if client == nil {
			return nil, fmt.Errorf("s3 storage enabled but no client configured")
		}
		return NewS3Sink(client, cfg.Storage.S3.Bucket, cfg.Optionflow.Version), nil
	}
	return NewLocalSink(cfg.Writer.LocalDir), nil
}

// tableLocation is the root URI recorded in the table metadata.
func tableLocation(sink Sink, prefix string) string {
	if prefix == "" {
		return sink.Location("")
	}
	return sink.Location(path.Clean(prefix))
}
