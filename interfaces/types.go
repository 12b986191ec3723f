package interfaces

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// ModelHash is a 32-byte SHA-256 digest uniquely identifying a model file's
// byte content. It is the content-addressing key for duplicate detection.
type ModelHash [32]byte

// ComputeHash calculates the content hash of data.
func ComputeHash(data []byte) ModelHash {
	return ModelHash(sha256.Sum256(data))
}

// NewModelHashFromHex parses a 64-character hex string into a ModelHash.
func NewModelHashFromHex(source string) (ModelHash, error) {
	clean := strings.TrimPrefix(source, "0x")
	if len(clean) != 64 {
		return ModelHash{}, errors.New("invalid model hash length: hex string must be 64 characters")
	}

	raw, err := hex.DecodeString(clean)
	if err != nil {
		return ModelHash{}, fmt.Errorf("invalid hex format: %w", err)
	}

	var hash [32]byte
	copy(hash[:], raw)
	return ModelHash(hash), nil
}

// String returns hex representation.
func (h ModelHash) String() string {
	return hex.EncodeToString(h[:])
}

// Bytes returns the raw 32-byte hash.
func (h ModelHash) Bytes() []byte {
	return h[:]
}

// Equal compares two model hashes.
func (h ModelHash) Equal(other ModelHash) bool {
	return bytes.Equal(h[:], other[:])
}

// ConflictKind identifies the kind of per-session duplicate detected before
// an upload reaches storage.
type ConflictKind int

const (
	// NoConflict means the upload may proceed.
	NoConflict ConflictKind = iota

	// HashDuplicate means byte-identical content was already uploaded in the
	// session, regardless of filename.
	HashDuplicate

	// NameConflict means the filename was previously uploaded in the session
	// with different content.
	NameConflict
)

// String returns the conflict kind name.
func (k ConflictKind) String() string {
	switch k {
	case NoConflict:
		return "none"
	case HashDuplicate:
		return "hash_duplicate"
	case NameConflict:
		return "name_conflict"
	default:
		return "unknown"
	}
}

// ConflictError reports a rejected upload. Conflicts are part of the normal
// contract: callers distinguish them from backend failures with errors.As.
type ConflictError struct {
	Kind      ConflictKind
	SessionID string
	Filename  string
	Hash      ModelHash
}

// Error returns a human-readable description of the conflict.
func (e *ConflictError) Error() string {
	switch e.Kind {
	case NameConflict:
		return fmt.Sprintf("filename %q already uploaded with different content in session %s", e.Filename, e.SessionID)
	default:
		return fmt.Sprintf("identical content already uploaded in session %s", e.SessionID)
	}
}

// UploadResult describes a successfully stored upload.
type UploadResult struct {
	StoredName string    `json:"stored_name"`
	AccessURL  string    `json:"access_url"`
	Hash       ModelHash `json:"-"`
}

// SessionInfo summarizes the ledger state of one session.
type SessionInfo struct {
	FileCount int `json:"file_count"`
}

// StorageInfo reports the active backend configuration.
type StorageInfo struct {
	Mode     StorageMode `json:"mode"`
	TTLHours int         `json:"ttl_hours"`
	Location string      `json:"location"`
}
