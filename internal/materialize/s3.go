package materialize

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"golang.org/x/sync/errgroup"

	"github.com/dshills/monosplit/pkg/types"
)

// S3Config configures the object-store sink
type S3Config struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	Prefix    string
	UseSSL    bool
}

// S3Sink writes result files to an S3-compatible bucket as <prefix>/<job>/<path>
type S3Sink struct {
	client     *minio.Client
	bucketName string
	region     string
	prefix     string
	logger     *slog.Logger

	initOnce sync.Once
	initErr  error
}

// NewS3Sink creates an object-store sink
func NewS3Sink(cfg S3Config, logger *slog.Logger) (*S3Sink, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("s3 endpoint is required")
	}
	access := strings.TrimSpace(cfg.AccessKey)
	secret := strings.TrimSpace(cfg.SecretKey)
	if access == "" || secret == "" {
		return nil, fmt.Errorf("s3 access key and secret key are required")
	}
	bucket := strings.TrimSpace(cfg.Bucket)
	if bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}
	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = "us-east-1"
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(access, secret, ""),
		Secure: cfg.UseSSL,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("init s3 client: %w", err)
	}

	return &S3Sink{
		client:     client,
		bucketName: bucket,
		region:     region,
		prefix:     strings.Trim(strings.TrimSpace(cfg.Prefix), "/"),
		logger:     logger,
	}, nil
}

// Location implements Sink
func (s *S3Sink) Location() string {
	if s.prefix == "" {
		return "s3://" + s.bucketName
	}
	return "s3://" + s.bucketName + "/" + s.prefix
}

func (s *S3Sink) ensureBucket(ctx context.Context) error {
	s.initOnce.Do(func() {
		exists, err := s.client.BucketExists(ctx, s.bucketName)
		if err != nil {
			s.initErr = err
			return
		}
		if exists {
			return
		}
		s.initErr = s.client.MakeBucket(ctx, s.bucketName, minio.MakeBucketOptions{Region: s.region})
	})
	return s.initErr
}

// Write implements Sink
func (s *S3Sink) Write(ctx context.Context, jobID string, result *types.Result) (*Summary, error) {
	if strings.TrimSpace(jobID) == "" {
		return nil, fmt.Errorf("job id is required")
	}
	if err := s.ensureBucket(ctx); err != nil {
		return nil, fmt.Errorf("ensure bucket: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(DefaultWorkers)

	for _, f := range result.Files() {
		key := objectKey(s.prefix, jobID, f.Path)
		content := []byte(f.Content)
		g.Go(func() error {
			_, err := s.client.PutObject(gctx, s.bucketName, key, bytes.NewReader(content), int64(len(content)),
				minio.PutObjectOptions{ContentType: "text/plain; charset=utf-8"})
			if err != nil {
				return fmt.Errorf("put %s: %w", key, err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	location := s.Location() + "/" + jobID
	s.logger.Info("result uploaded",
		slog.String("job_id", jobID),
		slog.String("location", location),
		slog.Int("files", result.Len()),
	)

	return summarize(location, result), nil
}

func objectKey(prefix, jobID, path string) string {
	normalized := strings.TrimLeft(strings.TrimSpace(path), "/")
	key := strings.TrimSpace(jobID) + "/" + normalized
	if prefix != "" {
		key = prefix + "/" + key
	}
	return key
}
