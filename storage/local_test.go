package storage

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/printforge/quote-backend/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBackend(t *testing.T) *LocalBackend {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	backend, err := NewLocalBackend(t.TempDir(), logger)
	require.NoError(t, err)
	return backend
}

func TestLocalBackendRoundTrip(t *testing.T) {
	backend := newTestBackend(t)
	ctx := context.Background()
	content := []byte("solid cube\nendsolid cube\n")

	storedName, accessURL, err := backend.Save(ctx, content, "cube.stl")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(storedName, ".stl"), "extension must be preserved")
	assert.Equal(t, "/download/"+storedName, accessURL)

	got, err := backend.Get(ctx, storedName)
	require.NoError(t, err)
	assert.Equal(t, content, got)
}

func TestLocalBackendGeneratesUniqueNames(t *testing.T) {
	backend := newTestBackend(t)
	ctx := context.Background()

	nameA, _, err := backend.Save(ctx, []byte("a"), "part.stl")
	require.NoError(t, err)
	nameB, _, err := backend.Save(ctx, []byte("a"), "part.stl")
	require.NoError(t, err)

	assert.NotEqual(t, nameA, nameB, "stored names are never the caller-supplied name")
}

func TestLocalBackendWritesSidecar(t *testing.T) {
	backend := newTestBackend(t)

	storedName, _, err := backend.Save(context.Background(), []byte("x"), "bracket.obj")
	require.NoError(t, err)

	raw, err := os.ReadFile(filepath.Join(backend.rootDir, storedName+metaSuffix))
	require.NoError(t, err)

	var meta objectMeta
	require.NoError(t, json.Unmarshal(raw, &meta))
	assert.Equal(t, "bracket.obj", meta.OriginalFilename)

	uploadTime, err := time.Parse(time.RFC3339Nano, meta.UploadTime)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().UTC(), uploadTime, time.Minute)
}

func TestLocalBackendGetMissing(t *testing.T) {
	backend := newTestBackend(t)

	_, err := backend.Get(context.Background(), "20240101_000000_missing.stl")
	assert.ErrorIs(t, err, interfaces.ErrObjectNotFound)
}

func TestLocalBackendGetRejectsPathTraversal(t *testing.T) {
	backend := newTestBackend(t)

	_, err := backend.Get(context.Background(), "../secrets.txt")
	assert.ErrorIs(t, err, interfaces.ErrObjectNotFound)
}

func TestLocalBackendDeleteIdempotent(t *testing.T) {
	backend := newTestBackend(t)
	ctx := context.Background()

	storedName, _, err := backend.Save(ctx, []byte("y"), "part.stl")
	require.NoError(t, err)

	removed, err := backend.Delete(ctx, storedName)
	require.NoError(t, err)
	assert.True(t, removed)

	// Sidecar goes with the blob.
	_, err = os.Stat(filepath.Join(backend.rootDir, storedName+metaSuffix))
	assert.ErrorIs(t, err, os.ErrNotExist)

	removed, err = backend.Delete(ctx, storedName)
	require.NoError(t, err)
	assert.False(t, removed, "second delete reports nothing removed")
}

func TestSweepExpiredZeroTTL(t *testing.T) {
	backend := newTestBackend(t)
	ctx := context.Background()

	storedName, _, err := backend.Save(ctx, []byte("z"), "cube.stl")
	require.NoError(t, err)

	// Any nonzero elapsed time exceeds a zero TTL.
	time.Sleep(10 * time.Millisecond)

	swept, err := backend.SweepExpired(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, swept)

	_, err = backend.Get(ctx, storedName)
	assert.ErrorIs(t, err, interfaces.ErrObjectNotFound)
}

// rewriteSidecarTime backdates an object's persisted upload time.
func rewriteSidecarTime(t *testing.T, backend *LocalBackend, storedName string, uploadTime time.Time) {
	t.Helper()
	raw, err := json.Marshal(objectMeta{
		UploadTime:       uploadTime.UTC().Format(time.RFC3339Nano),
		OriginalFilename: "part.stl",
	})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(backend.rootDir, storedName+metaSuffix), raw, 0644))
}

func TestSweepExpiredAgeThreshold(t *testing.T) {
	backend := newTestBackend(t)
	ctx := context.Background()

	fresh, _, err := backend.Save(ctx, []byte("fresh"), "fresh.stl")
	require.NoError(t, err)
	rewriteSidecarTime(t, backend, fresh, time.Now().Add(-30*time.Minute))

	stale, _, err := backend.Save(ctx, []byte("stale"), "stale.stl")
	require.NoError(t, err)
	rewriteSidecarTime(t, backend, stale, time.Now().Add(-2*time.Hour))

	swept, err := backend.SweepExpired(ctx, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, swept)

	_, err = backend.Get(ctx, fresh)
	assert.NoError(t, err, "object younger than the TTL is retained")
	_, err = backend.Get(ctx, stale)
	assert.ErrorIs(t, err, interfaces.ErrObjectNotFound)
}

func TestSweepSkipsBlobWithoutSidecar(t *testing.T) {
	backend := newTestBackend(t)
	ctx := context.Background()

	// A blob without committed metadata is a write in flight, never expired.
	blobPath := filepath.Join(backend.rootDir, "20240101_000000_partial.stl")
	require.NoError(t, os.WriteFile(blobPath, []byte("partial"), 0644))

	swept, err := backend.SweepExpired(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, swept)

	_, err = os.Stat(blobPath)
	assert.NoError(t, err)
}

func TestSweepSkipsCorruptSidecar(t *testing.T) {
	backend := newTestBackend(t)
	ctx := context.Background()

	storedName, _, err := backend.Save(ctx, []byte("ok"), "cube.stl")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(backend.rootDir, storedName+metaSuffix), []byte("not json"), 0644))

	swept, err := backend.SweepExpired(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, swept)
}

func TestSweepStopsOnCancelledContext(t *testing.T) {
	backend := newTestBackend(t)

	_, _, err := backend.Save(context.Background(), []byte("a"), "a.stl")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = backend.SweepExpired(ctx, 0)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLocalBackendMode(t *testing.T) {
	backend := newTestBackend(t)
	assert.Equal(t, interfaces.StorageModeLocal, backend.Mode())
	assert.True(t, strings.HasPrefix(backend.LocationURI(), "file://"))
}
