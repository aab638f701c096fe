package tm

import (
	"context"
	"time"
)

// DefaultSyncInterval is how often the Syncer polls the store when no
// explicit trigger arrives.
const DefaultSyncInterval = 10 * time.Second

// Syncer drives periodic and on-demand reconciliation, keeping the
// in-memory document converging on the persisted copy when other processes
// write to the same store.
//
// Convergence is eventual, not conflict-free: reconciliation adopts the
// whole document when the persisted copy is newer, with no field-level merge
// and no detection of writes that raced each other.
type Syncer struct {
	svc      *Service
	interval time.Duration
	logger   Logger
	kick     chan struct{}
}

// NewSyncer creates a Syncer polling at the given interval. A non-positive
// interval falls back to DefaultSyncInterval.
func NewSyncer(svc *Service, interval time.Duration, logger Logger) *Syncer {
	if interval <= 0 {
		interval = DefaultSyncInterval
	}
	return &Syncer{
		svc:      svc,
		interval: interval,
		logger:   logger,
		kick:     make(chan struct{}, 1),
	}
}

// Kick requests an immediate reconcile without waiting for the next tick.
// It never blocks; a kick while one is already queued is coalesced.
func (s *Syncer) Kick() {
	select {
	case s.kick <- struct{}{}:
	default:
	}
}

// Run reconciles on every tick and every kick until ctx is cancelled.
func (s *Syncer) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("sync loop started", "interval", s.interval)
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("sync loop stopped")
			return ctx.Err()
		case <-ticker.C:
		case <-s.kick:
		}

		adopted, err := s.svc.Reconcile()
		if err != nil {
			s.logger.Warn("reconcile failed", "error", err)
			continue
		}
		if adopted {
			s.logger.Info("adopted newer persisted document")
		}
	}
}
