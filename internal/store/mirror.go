package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Mirror copies a run's artifacts somewhere off the local disk.
type Mirror interface {
	Publish(ctx context.Context, runID string, files []string) error
}

type S3Config struct {
	Bucket          string
	Prefix          string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
}

// Enabled reports whether a bucket is configured.
func (c S3Config) Enabled() bool { return c.Bucket != "" }

type uploader interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

// S3Mirror uploads artifacts under <prefix>/<run_id>/<name>.
type S3Mirror struct {
	up     uploader
	bucket string
	prefix string
	log    *slog.Logger
}

func NewS3Mirror(ctx context.Context, cfg S3Config, log *slog.Logger) (*S3Mirror, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("S3 bucket name not set")
	}
	if cfg.Region == "" {
		return nil, fmt.Errorf("AWS_REGION not set")
	}

	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return &S3Mirror{
		up:     manager.NewUploader(s3.NewFromConfig(awsCfg)),
		bucket: cfg.Bucket,
		prefix: strings.Trim(cfg.Prefix, "/"),
		log:    log,
	}, nil
}

// Publish uploads every file, continuing past failures.
func (m *S3Mirror) Publish(ctx context.Context, runID string, files []string) error {
	var errs []error
	for _, f := range files {
		key := path.Join(m.prefix, runID, filepath.Base(f))
		if err := m.upload(ctx, f, key); err != nil {
			errs = append(errs, err)
			continue
		}
		m.log.Info("mirror.uploaded", "bucket", m.bucket, "key", key)
	}
	return errors.Join(errs...)
}

func (m *S3Mirror) upload(ctx context.Context, file, key string) error {
	data, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("read %s: %w", file, err)
	}

	ctxUpload, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	_, err = m.up.Upload(ctxUpload, &s3.PutObjectInput{
		Bucket:      aws.String(m.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType(file)),
	})
	if err != nil {
		return fmt.Errorf("s3 upload %s: %w", key, err)
	}
	return nil
}

func contentType(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".txt":
		return "text/plain; charset=utf-8"
	case ".md":
		return "text/markdown; charset=utf-8"
	case ".html":
		return "text/html; charset=utf-8"
	case ".json":
		return "application/json"
	case ".docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case ".pdf":
		return "application/pdf"
	}
	return "application/octet-stream"
}
