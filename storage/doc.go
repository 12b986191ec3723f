// Package storage persists uploaded model files behind a uniform object
// store contract with two backends:
//
//   - Local file system storage for development and single-node deployments
//   - S3 storage for cloud deployments
//
// # Stored Objects
//
// Every saved blob gets a freshly generated unique name of the form
//
//	20060102_150405_<uuid><ext>
//
// preserving the original file extension. The caller-supplied filename is
// recorded as metadata only.
//
// # Upload-Time Metadata
//
// The local backend writes a JSON sidecar next to each blob:
//
//	<storedName>.meta  →  {"uploadTime": "...", "originalFilename": "..."}
//
// The S3 backend embeds the same fields as object metadata. In both cases
// the metadata is committed strictly after the blob, so SweepExpired never
// sees a half-written object, and the persisted upload time is the sole
// source of truth for an object's age.
//
// # Backend Selection
//
// NewObjectStore picks the backend once from the resolved configuration.
// An S3 configuration missing the bucket name or a credential fails at
// construction rather than degrading at request time.
package storage
