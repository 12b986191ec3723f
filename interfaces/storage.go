package interfaces

import (
	"context"
	"errors"
	"time"
)

// StorageMode selects the backend implementation. The choice is made once at
// construction from the resolved configuration; there is no runtime switching.
type StorageMode string

const (
	// StorageModeLocal stores blobs on the local file system.
	StorageModeLocal StorageMode = "local"
	// StorageModeS3 stores blobs in an S3 bucket.
	StorageModeS3 StorageMode = "s3"
)

var (
	// ErrObjectNotFound is returned when a stored object cannot be found in
	// the backend.
	ErrObjectNotFound = errors.New("object not found")

	// ErrUnsupportedOperation is returned when a backend does not implement
	// an operation, e.g. direct download from the S3 backend (callers must
	// use the signed URL issued at upload time).
	ErrUnsupportedOperation = errors.New("operation not supported for this backend")
)

// ObjectStore persists uploaded model files under generated unique names and
// reclaims them after a time-to-live. Implementations own the lifecycle of
// stored objects and their upload-time metadata exclusively.
type ObjectStore interface {
	// Save persists data under a freshly generated unique name derived from
	// originalFilename's extension, never the caller-supplied name itself.
	// It returns the stored name and an access locator: a download path for
	// the local backend, a time-limited signed URL for the S3 backend.
	// The upload time is committed only after the blob is fully written, so
	// a partially written object is never visible to SweepExpired.
	Save(ctx context.Context, data []byte, originalFilename string) (storedName string, accessURL string, err error)

	// Get retrieves a stored object's bytes. Returns ErrObjectNotFound when
	// absent, ErrUnsupportedOperation for backends without direct retrieval.
	Get(ctx context.Context, storedName string) ([]byte, error)

	// Delete removes a stored object and its metadata. Deleting an absent
	// object returns (false, nil), not an error.
	Delete(ctx context.Context, storedName string) (bool, error)

	// SweepExpired deletes every object whose age, measured from its
	// persisted upload time, strictly exceeds ttl. Objects without committed
	// metadata are treated as not yet eligible. Returns the number of
	// objects removed.
	SweepExpired(ctx context.Context, ttl time.Duration) (int, error)

	// Mode returns the backend selection.
	Mode() StorageMode

	// LocationURI returns the URI identifying this backend for reporting.
	LocationURI() string
}
