// Package session tracks which file contents have been uploaded in each
// client session, so duplicates are rejected before storage is touched.
package session

import (
	"sync"

	"github.com/printforge/quote-backend/interfaces"
)

// Ledger holds in-memory per-session upload state: the set of content
// hashes seen and the hash each filename was uploaded with. Sessions are
// created implicitly on first registration and live until Clear; there is
// no automatic expiry.
//
// The ledger exclusively owns this state and guards it with a mutex, since
// uploads for the same session may run concurrently. It never touches
// stored blobs; the object store owns those exclusively.
type Ledger struct {
	mu             sync.Mutex
	hashesSeen     map[string]map[interfaces.ModelHash]struct{}
	filenameToHash map[string]map[string]interfaces.ModelHash
}

// NewLedger creates an empty session ledger.
func NewLedger() *Ledger {
	return &Ledger{
		hashesSeen:     make(map[string]map[interfaces.ModelHash]struct{}),
		filenameToHash: make(map[string]map[string]interfaces.ModelHash),
	}
}

// CheckDuplicate reports whether an upload would conflict with the
// session's prior uploads. HashDuplicate takes precedence: re-uploading
// identical bytes is a duplicate even when the filename matches a prior
// upload too. NameConflict fires only when the filename was registered
// under a different hash.
func (l *Ledger) CheckDuplicate(sessionID string, hash interfaces.ModelHash, filename string) interfaces.ConflictKind {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.hashesSeen[sessionID][hash]; ok {
		return interfaces.HashDuplicate
	}

	if existing, ok := l.filenameToHash[sessionID][filename]; ok && !existing.Equal(hash) {
		return interfaces.NameConflict
	}

	return interfaces.NoConflict
}

// Register records an accepted upload. It must only be called after the
// store write succeeded, so a failed write never leaves a phantom dedup
// entry behind.
func (l *Ledger) Register(sessionID string, hash interfaces.ModelHash, filename string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.hashesSeen[sessionID] == nil {
		l.hashesSeen[sessionID] = make(map[interfaces.ModelHash]struct{})
		l.filenameToHash[sessionID] = make(map[string]interfaces.ModelHash)
	}

	l.hashesSeen[sessionID][hash] = struct{}{}
	l.filenameToHash[sessionID][filename] = hash
}

// Unregister removes the ledger entry bound to filename, freeing its hash
// for re-upload. Returns false if the filename was never registered. The
// backing blob is not deleted here; the TTL sweep reclaims it.
func (l *Ledger) Unregister(sessionID, filename string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	hash, ok := l.filenameToHash[sessionID][filename]
	if !ok {
		return false
	}

	delete(l.hashesSeen[sessionID], hash)
	delete(l.filenameToHash[sessionID], filename)
	return true
}

// Clear drops all state for a session. Unknown session ids are a no-op.
func (l *Ledger) Clear(sessionID string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.hashesSeen, sessionID)
	delete(l.filenameToHash, sessionID)
}

// Count returns the number of distinct content hashes tracked for a
// session.
func (l *Ledger) Count(sessionID string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return len(l.hashesSeen[sessionID])
}
