package storage

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// generateStoredName produces a unique object name from a timestamp and a
// random component, preserving the original file extension. The caller's
// filename is never used as a storage key, so name collisions between
// clients are impossible.
func generateStoredName(originalFilename string) string {
	ext := filepath.Ext(originalFilename)
	return fmt.Sprintf("%s_%s%s", time.Now().UTC().Format("20060102_150405"), uuid.NewString(), ext)
}
