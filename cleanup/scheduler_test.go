package cleanup

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/printforge/quote-backend/interfaces"
	"github.com/printforge/quote-backend/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"go.uber.org/atomic"
)

// countingStore is an object store fake that counts sweep passes. The
// counter is atomic because the scheduler goroutine races the test.
type countingStore struct {
	sweeps   atomic.Int64
	sweepErr error
	lastTTL  atomic.Duration
}

func (s *countingStore) Save(ctx context.Context, data []byte, originalFilename string) (string, string, error) {
	return "", "", errors.New("not implemented")
}

func (s *countingStore) Get(ctx context.Context, storedName string) ([]byte, error) {
	return nil, interfaces.ErrObjectNotFound
}

func (s *countingStore) Delete(ctx context.Context, storedName string) (bool, error) {
	return false, nil
}

func (s *countingStore) SweepExpired(ctx context.Context, ttl time.Duration) (int, error) {
	s.sweeps.Inc()
	s.lastTTL.Store(ttl)
	return 0, s.sweepErr
}

func (s *countingStore) Mode() interfaces.StorageMode {
	return interfaces.StorageModeLocal
}

func (s *countingStore) LocationURI() string {
	return "counting:"
}

func newTestScheduler(store interfaces.ObjectStore, interval time.Duration) *Scheduler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewScheduler(store, time.Hour, interval, metrics.New(prometheus.NewRegistry()), logger)
}

func TestSchedulerSweepsPeriodically(t *testing.T) {
	store := &countingStore{}

	scheduler := newTestScheduler(store, 10*time.Millisecond)
	scheduler.Start()

	assert.Eventually(t, func() bool {
		return store.sweeps.Load() >= 2
	}, time.Second, 5*time.Millisecond, "sweep must run repeatedly")

	scheduler.Stop()
	assert.Equal(t, time.Hour, store.lastTTL.Load(), "sweep runs with the configured TTL")
}

func TestSchedulerSurvivesSweepErrors(t *testing.T) {
	store := &countingStore{sweepErr: errors.New("backend down")}

	scheduler := newTestScheduler(store, 10*time.Millisecond)
	scheduler.Start()

	// An erroring backend must not stop the loop.
	assert.Eventually(t, func() bool {
		return store.sweeps.Load() >= 3
	}, time.Second, 5*time.Millisecond)

	scheduler.Stop()
}

func TestSchedulerStopsCleanly(t *testing.T) {
	store := &countingStore{}

	scheduler := newTestScheduler(store, 10*time.Millisecond)
	scheduler.Start()
	time.Sleep(25 * time.Millisecond)
	scheduler.Stop()

	sweeps := store.sweeps.Load()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, sweeps, store.sweeps.Load(), "no sweeps after Stop returns")
}

func TestSchedulerStopWithoutStart(t *testing.T) {
	scheduler := newTestScheduler(&countingStore{}, time.Hour)
	scheduler.Stop()
}

func TestSchedulerDefaultInterval(t *testing.T) {
	scheduler := newTestScheduler(&countingStore{}, 0)
	assert.Equal(t, DefaultInterval, scheduler.interval)
}
