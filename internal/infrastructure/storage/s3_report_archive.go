// Package storage archives automation run reports to object storage.
package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"
	"github.com/loyalty/backend/internal/application/automation"
	infraconfig "github.com/loyalty/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

const reportPrefix = "automation-runs"

// ErrReportNotFound is returned by Fetch when no report exists at the key
var ErrReportNotFound = errors.New("storage: run report not found")

var _ automation.ReportArchive = (*S3ReportArchive)(nil)

// S3ReportArchive stores run reports as JSON objects in an S3-compatible bucket
// (AWS S3, MinIO, RustFS...).
type S3ReportArchive struct {
	client *s3.Client
	bucket string
	logger *zap.Logger
}

// S3ReportArchiveOption is a functional option for configuring S3ReportArchive
type S3ReportArchiveOption func(*S3ReportArchive)

// WithLogger sets a custom logger
func WithLogger(logger *zap.Logger) S3ReportArchiveOption {
	return func(s *S3ReportArchive) {
		s.logger = logger
	}
}

// NewS3ReportArchive creates an archive from configuration
func NewS3ReportArchive(cfg *infraconfig.StorageConfig, opts ...S3ReportArchiveOption) (*S3ReportArchive, error) {
	if cfg == nil {
		return nil, errors.New("storage configuration is required")
	}
	if cfg.Bucket == "" {
		return nil, errors.New("storage bucket is required")
	}
	if cfg.AccessKeyID == "" {
		return nil, errors.New("storage access key is required")
	}
	if cfg.SecretAccessKey == "" {
		return nil, errors.New("storage secret key is required")
	}

	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	awsCfg, err := config.LoadDefaultConfig(context.Background(),
		config.WithRegion(region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS config: %w", err)
	}

	var endpoint string
	if cfg.Endpoint != "" {
		endpoint = cfg.Endpoint
		if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
			endpoint = "https://" + endpoint
		}
		if _, err := url.Parse(endpoint); err != nil {
			return nil, fmt.Errorf("invalid storage endpoint: %w", err)
		}
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
		o.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})

	archive := &S3ReportArchive{
		client: client,
		bucket: cfg.Bucket,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(archive)
	}
	return archive, nil
}

// ReportKey is automation-runs/<tenant>/<yyyy-mm-dd>/<run id>.json, dated by run start (UTC)
func ReportKey(report *automation.RunReport) string {
	return fmt.Sprintf("%s/%s/%s/%s.json",
		reportPrefix,
		report.TenantID,
		report.StartedAt.UTC().Format("2006-01-02"),
		report.RunID,
	)
}

// Archive uploads report as JSON
func (s *S3ReportArchive) Archive(ctx context.Context, report *automation.RunReport) error {
	if report == nil {
		return errors.New("run report is required")
	}
	if report.RunID == uuid.Nil {
		return errors.New("run report has no run id")
	}

	body, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal run report: %w", err)
	}

	key := ReportKey(report)
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("failed to upload run report: %w", err)
	}

	s.logger.Debug("Run report archived", zap.String("bucket", s.bucket), zap.String("key", key))
	return nil
}

// Fetch downloads and decodes the report stored at key
func (s *S3ReportArchive) Fetch(ctx context.Context, key string) (*automation.RunReport, error) {
	if key == "" {
		return nil, errors.New("storage key is required")
	}

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, ErrReportNotFound
		}
		return nil, fmt.Errorf("failed to download run report: %w", err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read run report: %w", err)
	}
	var report automation.RunReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("failed to decode run report: %w", err)
	}
	return &report, nil
}

// EnsureBucket creates the bucket if it doesn't exist.
// Call this during startup.
func (s *S3ReportArchive) EnsureBucket(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(s.bucket),
	})
	if err == nil {
		return nil
	}

	var notFound *types.NotFound
	var noSuchBucket *types.NoSuchBucket
	if !errors.As(err, &notFound) && !errors.As(err, &noSuchBucket) {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}

	s.logger.Info("Creating report bucket", zap.String("bucket", s.bucket))
	_, err = s.client.CreateBucket(ctx, &s3.CreateBucketInput{
		Bucket: aws.String(s.bucket),
	})
	if err != nil {
		var alreadyOwned *types.BucketAlreadyOwnedByYou
		if errors.As(err, &alreadyOwned) {
			return nil
		}
		return fmt.Errorf("failed to create bucket: %w", err)
	}
	return nil
}

// GetBucket returns the bucket name
func (s *S3ReportArchive) GetBucket() string {
	return s.bucket
}
