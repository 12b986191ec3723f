package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/printforge/quote-backend/interfaces"
)

// metaSuffix is appended to a stored name to form its sidecar path. The
// sidecar is the sole source of truth for an object's age.
const metaSuffix = ".meta"

// objectMeta is the sidecar record persisted next to every local blob.
type objectMeta struct {
	UploadTime       string `json:"uploadTime"`
	OriginalFilename string `json:"originalFilename"`
}

// LocalBackend implements an object store on the local file system. Each
// stored object is a blob file plus a <name>.meta JSON sidecar carrying the
// upload timestamp.
type LocalBackend struct {
	rootDir     string
	log         *slog.Logger
	locationURI string
}

// NewLocalBackend creates a local storage backend rooted at rootDir,
// creating the directory if needed.
func NewLocalBackend(rootDir string, log *slog.Logger) (*LocalBackend, error) {
	if err := os.MkdirAll(rootDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}

	return &LocalBackend{
		rootDir:     rootDir,
		log:         log,
		locationURI: fmt.Sprintf("file://%s", rootDir),
	}, nil
}

// Save writes the blob under a generated unique name, then commits the
// sidecar. The ordering matters: an object is invisible to SweepExpired
// until its sidecar exists, so a crash mid-write never exposes a partial
// object as expired.
func (b *LocalBackend) Save(ctx context.Context, data []byte, originalFilename string) (string, string, error) {
	storedName := generateStoredName(originalFilename)
	blobPath := filepath.Join(b.rootDir, storedName)

	if err := os.WriteFile(blobPath, data, 0644); err != nil {
		return "", "", fmt.Errorf("failed to write file: %w", err)
	}

	meta := objectMeta{
		UploadTime:       time.Now().UTC().Format(time.RFC3339Nano),
		OriginalFilename: originalFilename,
	}
	raw, err := json.Marshal(meta)
	if err == nil {
		err = os.WriteFile(blobPath+metaSuffix, raw, 0644)
	}
	if err != nil {
		// Without a sidecar the blob would never become sweep-eligible.
		os.Remove(blobPath)
		return "", "", fmt.Errorf("failed to write metadata sidecar: %w", err)
	}

	b.log.Debug("Stored object on disk",
		slog.String("storedName", storedName),
		slog.Int("size", len(data)))

	return storedName, "/download/" + storedName, nil
}

// Get reads a stored object's bytes. Returns ErrObjectNotFound if absent.
func (b *LocalBackend) Get(ctx context.Context, storedName string) ([]byte, error) {
	if !validStoredName(storedName) {
		return nil, interfaces.ErrObjectNotFound
	}

	data, err := os.ReadFile(filepath.Join(b.rootDir, storedName))
	if errors.Is(err, os.ErrNotExist) {
		return nil, interfaces.ErrObjectNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return data, nil
}

// Delete removes the blob and its sidecar. An absent blob yields
// (false, nil): deletion is idempotent.
func (b *LocalBackend) Delete(ctx context.Context, storedName string) (bool, error) {
	if !validStoredName(storedName) {
		return false, nil
	}

	blobPath := filepath.Join(b.rootDir, storedName)

	err := os.Remove(blobPath)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to delete file: %w", err)
	}

	if err := os.Remove(blobPath + metaSuffix); err != nil && !errors.Is(err, os.ErrNotExist) {
		return true, fmt.Errorf("failed to delete metadata sidecar: %w", err)
	}

	return true, nil
}

// SweepExpired enumerates sidecars and deletes every object whose age
// strictly exceeds ttl. Blobs without a sidecar are not yet committed and
// are skipped. Per-object errors are logged and do not abort the sweep.
func (b *LocalBackend) SweepExpired(ctx context.Context, ttl time.Duration) (int, error) {
	sidecars, err := filepath.Glob(filepath.Join(b.rootDir, "*"+metaSuffix))
	if err != nil {
		return 0, fmt.Errorf("failed to enumerate metadata sidecars: %w", err)
	}

	now := time.Now().UTC()
	swept := 0

	for _, sidecar := range sidecars {
		if err := ctx.Err(); err != nil {
			return swept, err
		}

		storedName := strings.TrimSuffix(filepath.Base(sidecar), metaSuffix)

		uploadTime, err := b.readUploadTime(sidecar)
		if err != nil {
			b.log.Error("Skipping unreadable metadata sidecar", "err", err,
				slog.String("storedName", storedName))
			continue
		}

		if now.Sub(uploadTime) <= ttl {
			continue
		}

		removed, err := b.Delete(ctx, storedName)
		if err != nil {
			b.log.Error("Failed to delete expired object", "err", err,
				slog.String("storedName", storedName))
			continue
		}
		if removed {
			swept++
			b.log.Info("Swept expired object",
				slog.String("storedName", storedName),
				slog.Time("uploadedAt", uploadTime))
		}
	}

	return swept, nil
}

// Mode returns the backend selection.
func (b *LocalBackend) Mode() interfaces.StorageMode {
	return interfaces.StorageModeLocal
}

// LocationURI returns the URI that identifies this storage backend.
func (b *LocalBackend) LocationURI() string {
	return b.locationURI
}

func (b *LocalBackend) readUploadTime(sidecarPath string) (time.Time, error) {
	raw, err := os.ReadFile(sidecarPath)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to read sidecar: %w", err)
	}

	var meta objectMeta
	if err := json.Unmarshal(raw, &meta); err != nil {
		return time.Time{}, fmt.Errorf("failed to parse sidecar: %w", err)
	}

	uploadTime, err := time.Parse(time.RFC3339Nano, meta.UploadTime)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse upload time: %w", err)
	}
	return uploadTime, nil
}

// validStoredName rejects names that would escape the root directory.
// Generated names never contain separators, so anything else is unknown.
func validStoredName(storedName string) bool {
	return storedName != "" &&
		storedName == filepath.Base(storedName) &&
		!strings.HasPrefix(storedName, ".")
}
