package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/MKhiriev/passvault/logger"
)

// S3Config carries the settings needed to reach an S3-compatible object
// store. Endpoint is optional: leave it empty for AWS proper, set it for
// MinIO or another self-hosted gateway (path-style addressing is switched
// on automatically in that case).
type S3Config struct {
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
}

// S3API is the slice of the S3 client surface [S3Store] depends on. The
// concrete *s3.Client satisfies it; tests substitute a scripted fake.
type S3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Store is a [Store] that keeps each blob as one object in an S3 bucket.
// Blob keys map to object keys unchanged ("vault:container" is a legal S3
// key), so a bucket listing shows exactly the vault's blob keys.
type S3Store struct {
	client S3API
	bucket string
	log    *logger.Logger
}

// NewS3Store builds an S3 client from cfg (static credentials, optional
// custom endpoint) and returns a store writing into cfg.Bucket. The bucket
// must already exist; creating buckets is deliberately left to provisioning.
func NewS3Store(ctx context.Context, cfg S3Config, log *logger.Logger) (*S3Store, error) {
	if log == nil {
		log = logger.Nop()
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)),
	)
	if err != nil {
		log.Err(err).Str("func", "NewS3Store").Msg("error loading s3 configuration")
		return nil, fmt.Errorf("%w: error loading s3 configuration: %w", ErrStorage, err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return NewS3StoreWithClient(client, cfg.Bucket, log), nil
}

// NewS3StoreWithClient wires an [S3Store] around an existing client. It is
// the injection point for tests and for callers that manage their own AWS
// configuration chain.
func NewS3StoreWithClient(client S3API, bucket string, log *logger.Logger) *S3Store {
	if log == nil {
		log = logger.Nop()
	}

	return &S3Store{
		client: client,
		bucket: bucket,
		log:    log,
	}
}

// Get implements [Store].
func (s *S3Store) Get(ctx context.Context, key string) (string, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNoSuchKey(err) {
			return "", ErrNotFound
		}
		s.log.Err(err).Str("func", "S3Store.Get").Str("key", key).Msg("failed to get object")
		return "", fmt.Errorf("%w: get object: %w", ErrStorage, err)
	}
	defer out.Body.Close()

	payload, err := io.ReadAll(out.Body)
	if err != nil {
		s.log.Err(err).Str("func", "S3Store.Get").Str("key", key).Msg("failed to read object body")
		return "", fmt.Errorf("%w: read object body: %w", ErrStorage, err)
	}

	return string(payload), nil
}

// Set implements [Store].
func (s *S3Store) Set(ctx context.Context, key string, value string) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader([]byte(value)),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		s.log.Err(err).Str("func", "S3Store.Set").Str("key", key).Msg("failed to put object")
		return fmt.Errorf("%w: put object: %w", ErrStorage, err)
	}

	return nil
}

// Delete implements [Store]. S3 treats deleting a missing object as success,
// which matches the [Store] contract exactly.
func (s *S3Store) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		s.log.Err(err).Str("func", "S3Store.Delete").Str("key", key).Msg("failed to delete object")
		return fmt.Errorf("%w: delete object: %w", ErrStorage, err)
	}

	return nil
}

// Close implements [Store]. The S3 client holds no resources that need
// explicit release.
func (s *S3Store) Close() error {
	return nil
}

// isNoSuchKey reports whether err means the requested object does not exist.
// The typed *types.NoSuchKey is what GetObject documents; the error-code
// fallback covers S3-compatible gateways that only set the code string.
func isNoSuchKey(err error) bool {
	var noSuchKey *types.NoSuchKey
	if errors.As(err, &noSuchKey) {
		return true
	}

	var apiErr interface{ ErrorCode() string }
	if errors.As(err, &apiErr) {
		code := apiErr.ErrorCode()
		return code == "NoSuchKey" || strings.EqualFold(code, "NotFound")
	}

	return false
}
