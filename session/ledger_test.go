package session

import (
	"fmt"
	"sync"
	"testing"

	"github.com/printforge/quote-backend/interfaces"
	"github.com/stretchr/testify/assert"
)

func TestCheckDuplicateHashTakesPrecedence(t *testing.T) {
	ledger := NewLedger()
	hash := interfaces.ComputeHash([]byte("X"))

	ledger.Register("s1", hash, "cube.stl")

	tests := []struct {
		name     string
		hash     interfaces.ModelHash
		filename string
		expected interfaces.ConflictKind
	}{
		{
			name:     "same bytes different filename",
			hash:     hash,
			filename: "cube2.stl",
			expected: interfaces.HashDuplicate,
		},
		{
			name:     "same bytes same filename is a hash duplicate, not a name conflict",
			hash:     hash,
			filename: "cube.stl",
			expected: interfaces.HashDuplicate,
		},
		{
			name:     "different bytes same filename",
			hash:     interfaces.ComputeHash([]byte("Y")),
			filename: "cube.stl",
			expected: interfaces.NameConflict,
		},
		{
			name:     "different bytes different filename",
			hash:     interfaces.ComputeHash([]byte("Y")),
			filename: "other.stl",
			expected: interfaces.NoConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ledger.CheckDuplicate("s1", tt.hash, tt.filename))
		})
	}
}

func TestCheckDuplicateUnknownSession(t *testing.T) {
	ledger := NewLedger()
	kind := ledger.CheckDuplicate("never-seen", interfaces.ComputeHash([]byte("X")), "cube.stl")
	assert.Equal(t, interfaces.NoConflict, kind)
}

func TestSessionsAreIsolated(t *testing.T) {
	ledger := NewLedger()
	hash := interfaces.ComputeHash([]byte("X"))

	ledger.Register("s1", hash, "cube.stl")

	assert.Equal(t, interfaces.NoConflict, ledger.CheckDuplicate("s2", hash, "cube.stl"))
	assert.Equal(t, 1, ledger.Count("s1"))
	assert.Equal(t, 0, ledger.Count("s2"))
}

func TestUnregister(t *testing.T) {
	ledger := NewLedger()
	hash := interfaces.ComputeHash([]byte("X"))
	ledger.Register("s1", hash, "cube.stl")

	assert.False(t, ledger.Unregister("s1", "unknown.stl"))
	assert.True(t, ledger.Unregister("s1", "cube.stl"))
	assert.Equal(t, 0, ledger.Count("s1"))

	// The hash is free for re-upload afterwards.
	assert.Equal(t, interfaces.NoConflict, ledger.CheckDuplicate("s1", hash, "cube.stl"))
}

func TestClearIsIdempotent(t *testing.T) {
	ledger := NewLedger()
	hash := interfaces.ComputeHash([]byte("X"))
	ledger.Register("s1", hash, "cube.stl")

	ledger.Clear("s1")
	assert.Equal(t, 0, ledger.Count("s1"))
	assert.Equal(t, interfaces.NoConflict, ledger.CheckDuplicate("s1", hash, "cube.stl"))

	// Clearing an unknown session is a no-op.
	ledger.Clear("s1")
	ledger.Clear("never-seen")
}

func TestConcurrentRegisters(t *testing.T) {
	ledger := NewLedger()

	const n = 64
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			content := fmt.Sprintf("model-%d", i)
			ledger.Register("s1", interfaces.ComputeHash([]byte(content)), content+".stl")
		}(i)
	}
	wg.Wait()

	assert.Equal(t, n, ledger.Count("s1"))
}
