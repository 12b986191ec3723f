// Package cleanup runs the background TTL sweep over the object store.
package cleanup

import (
	"context"
	"log/slog"
	"time"

	"github.com/printforge/quote-backend/interfaces"
	"github.com/printforge/quote-backend/metrics"
)

// DefaultInterval is the fixed sweep cadence. It is deliberately
// independent of the configured TTL, which bounds eviction latency to at
// most one interval beyond the nominal TTL.
const DefaultInterval = time.Hour

// Scheduler sweeps expired objects on a fixed interval for the lifetime of
// the process. It runs unaware of sessions: eviction is purely age-based.
type Scheduler struct {
	store    interfaces.ObjectStore
	ttl      time.Duration
	interval time.Duration
	m        *metrics.Metrics
	log      *slog.Logger

	cancel context.CancelFunc
	done   chan struct{}
}

// NewScheduler creates a sweep scheduler. A non-positive interval falls
// back to DefaultInterval.
func NewScheduler(store interfaces.ObjectStore, ttl, interval time.Duration, m *metrics.Metrics, log *slog.Logger) *Scheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Scheduler{
		store:    store,
		ttl:      ttl,
		interval: interval,
		m:        m,
		log:      log,
	}
}

// Start launches the sweep loop in the background.
func (s *Scheduler) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})

	s.log.Info("Starting cleanup scheduler",
		slog.Duration("interval", s.interval),
		slog.Duration("ttl", s.ttl))
	go s.run(ctx)
}

// Stop signals the loop to exit and waits for it. A sweep in progress
// aborts at its next safe point via context cancellation.
func (s *Scheduler) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	s.log.Info("Cleanup scheduler stopped")
}

func (s *Scheduler) run(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

// sweep runs one pass. Failures are logged and never stop the loop: each
// sweep is independently idempotent, so the next cycle simply retries from
// current state.
func (s *Scheduler) sweep(ctx context.Context) {
	swept, err := s.store.SweepExpired(ctx, s.ttl)
	if err != nil {
		s.m.SweepsTotal.WithLabelValues("error").Inc()
		s.log.Error("Sweep failed", "err", err)
		return
	}

	s.m.SweepsTotal.WithLabelValues("ok").Inc()
	s.m.ObjectsSwept.Add(float64(swept))
	if swept > 0 {
		s.log.Info("Sweep completed", slog.Int("swept", swept))
	}
}
