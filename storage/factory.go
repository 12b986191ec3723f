package storage

import (
	"fmt"
	"log/slog"

	"github.com/printforge/quote-backend/config"
	"github.com/printforge/quote-backend/interfaces"
)

// NewObjectStore creates the storage backend selected by the configuration
// snapshot. Backend selection happens exactly once, at construction: an
// incomplete S3 configuration is a construction-time error, never a
// deferred runtime check.
func NewObjectStore(cfg *config.Config, log *slog.Logger) (interfaces.ObjectStore, error) {
	switch cfg.StorageMode {
	case interfaces.StorageModeLocal:
		return NewLocalBackend(cfg.LocalUploadDir, log)

	case interfaces.StorageModeS3:
		if !cfg.Validate() {
			return nil, config.ErrIncompleteRemoteConfig
		}
		return NewS3Backend(cfg.S3Bucket, cfg.S3Region, cfg.AWSAccessKeyID, cfg.AWSSecretAccessKey, cfg.TTL(), log)

	default:
		return nil, fmt.Errorf("unsupported storage mode: %s", cfg.StorageMode)
	}
}
