package storage

import (
	"io"
	"log/slog"
	"testing"

	"github.com/printforge/quote-backend/config"
	"github.com/printforge/quote-backend/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewObjectStoreLocal(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := &config.Config{
		StorageMode:    interfaces.StorageModeLocal,
		LocalUploadDir: t.TempDir(),
		TTLHours:       24,
	}

	store, err := NewObjectStore(cfg, logger)
	require.NoError(t, err)
	assert.Equal(t, interfaces.StorageModeLocal, store.Mode())
}

func TestNewObjectStoreS3(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := &config.Config{
		StorageMode:        interfaces.StorageModeS3,
		TTLHours:           24,
		S3Bucket:           "models",
		S3Region:           "us-east-1",
		AWSAccessKeyID:     "id",
		AWSSecretAccessKey: "secret",
	}

	store, err := NewObjectStore(cfg, logger)
	require.NoError(t, err)
	assert.Equal(t, interfaces.StorageModeS3, store.Mode())
	assert.Equal(t, "s3://models?region=us-east-1", store.LocationURI())
}

func TestNewObjectStoreIncompleteS3Config(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	// Missing credential id: construction must fail before any upload.
	cfg := &config.Config{
		StorageMode:        interfaces.StorageModeS3,
		TTLHours:           24,
		S3Bucket:           "models",
		S3Region:           "us-east-1",
		AWSSecretAccessKey: "secret",
	}

	assert.False(t, cfg.Validate())

	_, err := NewObjectStore(cfg, logger)
	assert.ErrorIs(t, err, config.ErrIncompleteRemoteConfig)
}

func TestNewObjectStoreUnknownMode(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	_, err := NewObjectStore(&config.Config{StorageMode: "tape"}, logger)
	assert.Error(t, err)
}

func TestGenerateStoredName(t *testing.T) {
	nameA := generateStoredName("widget.STL")
	nameB := generateStoredName("widget.STL")

	assert.NotEqual(t, nameA, nameB)
	assert.Contains(t, nameA, "_")
	assert.Equal(t, ".STL", nameA[len(nameA)-4:], "original extension casing is preserved")
	assert.True(t, validStoredName(nameA))
}
