// Package config resolves the storage configuration from the environment
// into an immutable snapshot taken once at process start.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/printforge/quote-backend/interfaces"
	"github.com/spf13/viper"
)

// ErrIncompleteRemoteConfig is returned when S3 mode is selected but the
// bucket name or either credential is missing. It is fatal at construction:
// callers must not fall back to a silently degraded backend.
var ErrIncompleteRemoteConfig = errors.New("incomplete S3 storage configuration")

// Config is the resolved storage configuration. Read-only after
// construction; there is no hot reload.
type Config struct {
	StorageMode    interfaces.StorageMode
	LocalUploadDir string
	TTLHours       int

	S3Bucket           string
	S3Region           string
	AWSAccessKeyID     string
	AWSSecretAccessKey string
}

// FromEnv resolves configuration from the process environment.
//
// Recognized variables:
//
//	STORAGE_TYPE           "local" (default) or "s3"
//	LOCAL_UPLOAD_DIR       local blob root, default "uploads"
//	AUTO_DELETE_HOURS      object TTL in hours, default 24
//	S3_BUCKET_NAME         bucket for s3 mode
//	S3_REGION              region for s3 mode, default "us-east-1"
//	AWS_ACCESS_KEY_ID      credential id for s3 mode
//	AWS_SECRET_ACCESS_KEY  credential secret for s3 mode
//
// In local mode the upload directory is created if it does not exist.
func FromEnv() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("STORAGE_TYPE", string(interfaces.StorageModeLocal))
	v.SetDefault("LOCAL_UPLOAD_DIR", "uploads")
	v.SetDefault("AUTO_DELETE_HOURS", 24)
	v.SetDefault("S3_REGION", "us-east-1")

	cfg := &Config{
		StorageMode:        interfaces.StorageMode(v.GetString("STORAGE_TYPE")),
		LocalUploadDir:     v.GetString("LOCAL_UPLOAD_DIR"),
		TTLHours:           v.GetInt("AUTO_DELETE_HOURS"),
		S3Bucket:           v.GetString("S3_BUCKET_NAME"),
		S3Region:           v.GetString("S3_REGION"),
		AWSAccessKeyID:     v.GetString("AWS_ACCESS_KEY_ID"),
		AWSSecretAccessKey: v.GetString("AWS_SECRET_ACCESS_KEY"),
	}

	switch cfg.StorageMode {
	case interfaces.StorageModeLocal:
		if err := os.MkdirAll(cfg.LocalUploadDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create upload directory: %w", err)
		}
	case interfaces.StorageModeS3:
		// Credential completeness is checked by Validate; callers fail fast
		// before constructing a backend.
	default:
		return nil, fmt.Errorf("unsupported storage type: %q", cfg.StorageMode)
	}

	if cfg.TTLHours < 0 {
		return nil, fmt.Errorf("AUTO_DELETE_HOURS must not be negative, got %d", cfg.TTLHours)
	}

	return cfg, nil
}

// Validate reports whether the snapshot is complete enough to construct a
// storage backend. Local mode is always valid; S3 mode requires the bucket
// name and both credentials.
func (c *Config) Validate() bool {
	if c.StorageMode != interfaces.StorageModeS3 {
		return true
	}
	return c.S3Bucket != "" && c.AWSAccessKeyID != "" && c.AWSSecretAccessKey != ""
}

// TTL returns the configured time-to-live as a duration.
func (c *Config) TTL() time.Duration {
	return time.Duration(c.TTLHours) * time.Hour
}
