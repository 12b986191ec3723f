package storage

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/printforge/quote-backend/interfaces"
)

// Object metadata keys embedded at upload time. S3 canonicalizes metadata
// key casing on the way back, so lookups go through metadataValue.
const (
	metaKeyUploadTime       = "upload-time"
	metaKeyOriginalFilename = "original-filename"
)

// S3Backend implements an object store on an S3 bucket. Upload time is
// embedded as object metadata; access is granted through presigned URLs
// whose expiry equals the configured TTL, so direct Get is unsupported.
type S3Backend struct {
	client      *s3.S3
	bucketName  string
	ttl         time.Duration
	log         *slog.Logger
	locationURI string
}

// NewS3Backend creates an S3 storage backend with static credentials. The
// caller is expected to have validated credential completeness already.
func NewS3Backend(bucketName, region, accessKey, secretKey string, ttl time.Duration, log *slog.Logger) (*S3Backend, error) {
	sess, err := session.NewSession(&aws.Config{
		Region:      aws.String(region),
		Credentials: credentials.NewStaticCredentials(accessKey, secretKey, ""),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	return &S3Backend{
		client:      s3.New(sess),
		bucketName:  bucketName,
		ttl:         ttl,
		log:         log,
		locationURI: fmt.Sprintf("s3://%s?region=%s", bucketName, region),
	}, nil
}

// Save uploads the blob under a generated unique name with the upload time
// embedded as object metadata, and returns a presigned GET URL valid for
// the configured TTL.
func (b *S3Backend) Save(ctx context.Context, data []byte, originalFilename string) (string, string, error) {
	storedName := generateStoredName(originalFilename)

	_, err := b.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket: aws.String(b.bucketName),
		Key:    aws.String(storedName),
		Body:   bytes.NewReader(data),
		Metadata: map[string]*string{
			metaKeyUploadTime:       aws.String(time.Now().UTC().Format(time.RFC3339Nano)),
			metaKeyOriginalFilename: aws.String(originalFilename),
		},
	})
	if err != nil {
		return "", "", fmt.Errorf("failed to upload object to S3: %w", err)
	}

	req, _ := b.client.GetObjectRequest(&s3.GetObjectInput{
		Bucket: aws.String(b.bucketName),
		Key:    aws.String(storedName),
	})
	accessURL, err := req.Presign(b.ttl)
	if err != nil {
		return "", "", fmt.Errorf("failed to presign S3 access URL: %w", err)
	}

	b.log.Debug("Stored object in S3",
		slog.String("bucket", b.bucketName),
		slog.String("storedName", storedName),
		slog.Int("size", len(data)))

	return storedName, accessURL, nil
}

// Get is not supported: callers hold a presigned URL issued at upload time.
func (b *S3Backend) Get(ctx context.Context, storedName string) ([]byte, error) {
	return nil, interfaces.ErrUnsupportedOperation
}

// Delete removes an object from the bucket. S3 delete calls succeed for
// absent keys, so the idempotency contract holds trivially.
func (b *S3Backend) Delete(ctx context.Context, storedName string) (bool, error) {
	_, err := b.client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(b.bucketName),
		Key:    aws.String(storedName),
	})
	if err != nil {
		return false, fmt.Errorf("failed to delete object from S3: %w", err)
	}
	return true, nil
}

// SweepExpired lists the bucket, heads each object for its upload-time
// metadata, and deletes those whose age strictly exceeds ttl. Objects
// without the metadata key are skipped: they were not uploaded through
// this store, or their upload is still in flight.
func (b *S3Backend) SweepExpired(ctx context.Context, ttl time.Duration) (int, error) {
	now := time.Now().UTC()
	swept := 0

	err := b.client.ListObjectsV2PagesWithContext(ctx, &s3.ListObjectsV2Input{
		Bucket: aws.String(b.bucketName),
	}, func(page *s3.ListObjectsV2Output, lastPage bool) bool {
		for _, obj := range page.Contents {
			if ctx.Err() != nil {
				return false
			}

			key := aws.StringValue(obj.Key)

			head, err := b.client.HeadObjectWithContext(ctx, &s3.HeadObjectInput{
				Bucket: aws.String(b.bucketName),
				Key:    aws.String(key),
			})
			if err != nil {
				b.log.Error("Failed to head S3 object during sweep", "err", err,
					slog.String("key", key))
				continue
			}

			uploadTimeStr := metadataValue(head.Metadata, metaKeyUploadTime)
			if uploadTimeStr == "" {
				continue
			}

			uploadTime, err := time.Parse(time.RFC3339Nano, uploadTimeStr)
			if err != nil {
				b.log.Error("Invalid upload time metadata on S3 object", "err", err,
					slog.String("key", key))
				continue
			}

			if now.Sub(uploadTime) <= ttl {
				continue
			}

			if _, err := b.Delete(ctx, key); err != nil {
				b.log.Error("Failed to delete expired S3 object", "err", err,
					slog.String("key", key))
				continue
			}

			swept++
			b.log.Info("Swept expired S3 object",
				slog.String("key", key),
				slog.Time("uploadedAt", uploadTime))
		}
		return ctx.Err() == nil
	})
	if err != nil {
		return swept, fmt.Errorf("failed to list S3 objects: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return swept, err
	}

	return swept, nil
}

// Mode returns the backend selection.
func (b *S3Backend) Mode() interfaces.StorageMode {
	return interfaces.StorageModeS3
}

// LocationURI returns the URI that identifies this storage backend.
func (b *S3Backend) LocationURI() string {
	return b.locationURI
}

// metadataValue looks up an S3 metadata key case-insensitively.
func metadataValue(metadata map[string]*string, key string) string {
	for k, v := range metadata {
		if strings.EqualFold(k, key) {
			return aws.StringValue(v)
		}
	}
	return ""
}
