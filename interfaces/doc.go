// Package interfaces defines the core contracts of the upload storage
// subsystem: content hashes, the object store abstraction, conflict kinds
// and the shared error taxonomy.
//
// The package intentionally carries no dependencies so that storage
// backends, the session ledger and the upload service can all depend on it
// without import cycles.
//
// # Content Addressing
//
// Uploaded files are identified by the SHA-256 hash of their full byte
// content:
//
//	type ModelHash [32]byte
//
// Hashing is deterministic and content-only: two byte-identical uploads
// under different filenames produce the same hash.
//
// # Conflicts vs Failures
//
// Per-session duplicate rejections are reported as *ConflictError values.
// They are part of the normal upload contract and must be distinguished
// from backend failures:
//
//	var conflict *interfaces.ConflictError
//	if errors.As(err, &conflict) {
//	    // expected rejection, not a failure
//	}
package interfaces
