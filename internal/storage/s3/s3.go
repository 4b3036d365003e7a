package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"

	"github.com/ondrasimku/vision-service/internal/config"
	"github.com/ondrasimku/vision-service/internal/storage"
)

// Client is the subset of the S3 API the store needs.
type Client interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Storage stores uploads as objects under a key prefix. Object names are
// prefixed with a random id so replicas sharing a bucket do not clobber each
// other.
type S3Storage struct {
	client Client
	bucket string
	prefix string
}

func NewS3Storage(client Client, bucket, prefix string) *S3Storage {
	return &S3Storage{
		client: client,
		bucket: bucket,
		prefix: prefix,
	}
}

// NewClient builds an S3 client from the default AWS credential chain.
func NewClient(ctx context.Context, cfg config.S3Config) (*s3.Client, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	}), nil
}

func (s *S3Storage) key(id string) string {
	return s.prefix + id
}

func (s *S3Storage) Save(ctx context.Context, r io.Reader, opts storage.SaveOptions) (storage.FileInfo, error) {
	if !storage.ValidID(opts.Filename) {
		return storage.FileInfo{}, fmt.Errorf("invalid filename %q", opts.Filename)
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return storage.FileInfo{}, fmt.Errorf("failed to read upload: %w", err)
	}

	contentType := opts.ContentType
	if contentType == "" {
		contentType = storage.ContentTypeFor(opts.Filename)
	}

	id := uuid.NewString() + "-" + opts.Filename
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(s.key(id)),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(contentType),
		Metadata: map[string]string{
			"original-filename": opts.Filename,
			"upload-time":       time.Now().UTC().Format(time.RFC3339),
		},
	})
	if err != nil {
		return storage.FileInfo{}, fmt.Errorf("s3 upload failed: %w", err)
	}

	return storage.FileInfo{
		ID:          id,
		Path:        "s3://" + s.bucket + "/" + s.key(id),
		ContentType: contentType,
		Size:        int64(len(data)),
		URL:         storage.URL(id),
	}, nil
}

func (s *S3Storage) Open(ctx context.Context, id string) (io.ReadCloser, storage.FileInfo, error) {
	if !storage.ValidID(id) {
		return nil, storage.FileInfo{}, storage.ErrNotFound
	}

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(id)),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, storage.FileInfo{}, storage.ErrNotFound
		}
		return nil, storage.FileInfo{}, fmt.Errorf("s3 get failed: %w", err)
	}

	contentType := storage.ContentTypeFor(id)
	if out.ContentType != nil {
		contentType = *out.ContentType
	}

	// -1 tells the HTTP layer the length is unknown.
	size := int64(-1)
	if out.ContentLength != nil {
		size = *out.ContentLength
	}

	info := storage.FileInfo{
		ID:          id,
		Path:        "s3://" + s.bucket + "/" + s.key(id),
		ContentType: contentType,
		Size:        size,
		URL:         storage.URL(id),
	}

	return out.Body, info, nil
}

func (s *S3Storage) Delete(ctx context.Context, id string) error {
	if !storage.ValidID(id) {
		return storage.ErrNotFound
	}

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(id)),
	})
	if err != nil {
		return fmt.Errorf("s3 delete failed: %w", err)
	}
	return nil
}
