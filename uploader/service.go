// Package uploader composes hashing, per-session duplicate detection and
// storage into the upload operations exposed to the transport layer.
package uploader

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/printforge/quote-backend/interfaces"
	"github.com/printforge/quote-backend/metrics"
	"github.com/printforge/quote-backend/session"
)

// Service is the upload orchestrator. Side effects are strictly ordered:
// hash, duplicate check, store write, ledger registration. A failed store
// write never reaches registration.
type Service struct {
	store  interfaces.ObjectStore
	ledger *session.Ledger
	m      *metrics.Metrics
	ttl    time.Duration
	log    *slog.Logger

	// sessionLocks serializes check-then-register per session id, so two
	// concurrent uploads of the same new content cannot both pass the
	// duplicate check and both be stored.
	lockMu       sync.Mutex
	sessionLocks map[string]*sync.Mutex
}

// New creates an upload service over the given store and ledger. ttl is
// reported through StorageInfo and used for manual cleanup triggers.
func New(store interfaces.ObjectStore, ledger *session.Ledger, m *metrics.Metrics, ttl time.Duration, log *slog.Logger) *Service {
	return &Service{
		store:        store,
		ledger:       ledger,
		m:            m,
		ttl:          ttl,
		log:          log,
		sessionLocks: make(map[string]*sync.Mutex),
	}
}

// Upload stores data under a generated name after checking the session for
// duplicates. sessionID may be empty, in which case no duplicate tracking
// happens. Conflicts are returned as *interfaces.ConflictError and leave
// the store untouched.
func (s *Service) Upload(ctx context.Context, data []byte, originalFilename, sessionID string) (*interfaces.UploadResult, error) {
	hash := interfaces.ComputeHash(data)

	if sessionID != "" {
		lock := s.sessionLock(sessionID)
		lock.Lock()
		defer lock.Unlock()

		if kind := s.ledger.CheckDuplicate(sessionID, hash, originalFilename); kind != interfaces.NoConflict {
			s.m.UploadsTotal.WithLabelValues("conflict").Inc()
			s.log.Debug("Upload rejected as duplicate",
				slog.String("sessionID", sessionID),
				slog.String("filename", originalFilename),
				slog.String("kind", kind.String()))
			return nil, &interfaces.ConflictError{
				Kind:      kind,
				SessionID: sessionID,
				Filename:  originalFilename,
				Hash:      hash,
			}
		}
	}

	storedName, accessURL, err := s.store.Save(ctx, data, originalFilename)
	if err != nil {
		s.m.UploadsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("failed to store %q: %w", originalFilename, err)
	}

	if sessionID != "" {
		s.ledger.Register(sessionID, hash, originalFilename)
	}

	s.m.UploadsTotal.WithLabelValues("ok").Inc()
	s.m.BytesStored.Add(float64(len(data)))
	s.log.Info("Stored upload",
		slog.String("storedName", storedName),
		slog.String("filename", originalFilename),
		slog.Int("size", len(data)))

	return &interfaces.UploadResult{
		StoredName: storedName,
		AccessURL:  accessURL,
		Hash:       hash,
	}, nil
}

// Download retrieves a stored object's bytes. The S3 backend reports
// ErrUnsupportedOperation; callers there hold a presigned URL instead.
func (s *Service) Download(ctx context.Context, storedName string) ([]byte, error) {
	data, err := s.store.Get(ctx, storedName)
	if err != nil {
		s.m.DownloadsTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	s.m.DownloadsTotal.WithLabelValues("ok").Inc()
	return data, nil
}

// RemoveFromSession drops the ledger entry for filename, freeing its hash
// for re-upload. The backing blob is intentionally left in place: the
// ledger does not know the stored name behind a filename, and the TTL
// sweep reclaims the blob regardless.
func (s *Service) RemoveFromSession(sessionID, filename string) bool {
	return s.ledger.Unregister(sessionID, filename)
}

// ClearSession drops all duplicate-tracking state for a session.
func (s *Service) ClearSession(sessionID string) {
	s.ledger.Clear(sessionID)
}

// SessionInfo reports the number of distinct files tracked for a session.
func (s *Service) SessionInfo(sessionID string) interfaces.SessionInfo {
	return interfaces.SessionInfo{FileCount: s.ledger.Count(sessionID)}
}

// TriggerCleanup runs one sweep immediately, the same operation the
// background scheduler performs.
func (s *Service) TriggerCleanup(ctx context.Context) (int, error) {
	swept, err := s.store.SweepExpired(ctx, s.ttl)
	if err != nil {
		s.m.SweepsTotal.WithLabelValues("error").Inc()
		return swept, fmt.Errorf("sweep failed on %s: %w", s.store.LocationURI(), err)
	}
	s.m.SweepsTotal.WithLabelValues("ok").Inc()
	s.m.ObjectsSwept.Add(float64(swept))
	return swept, nil
}

// StorageInfo reports the active backend configuration.
func (s *Service) StorageInfo() interfaces.StorageInfo {
	return interfaces.StorageInfo{
		Mode:     s.store.Mode(),
		TTLHours: int(s.ttl.Hours()),
		Location: s.store.LocationURI(),
	}
}

// sessionLock returns the mutex for a session id, creating it on first
// use. Locks are never removed; sessions are few and short-lived relative
// to the process.
func (s *Service) sessionLock(sessionID string) *sync.Mutex {
	s.lockMu.Lock()
	defer s.lockMu.Unlock()

	lock, ok := s.sessionLocks[sessionID]
	if !ok {
		lock = &sync.Mutex{}
		s.sessionLocks[sessionID] = lock
	}
	return lock
}
