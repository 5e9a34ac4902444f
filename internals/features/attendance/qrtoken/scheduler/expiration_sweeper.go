package scheduler

import (
	"context"
	"log"
	"sync"
	"time"

	"smartattendance_backend/internals/features/attendance/qrtoken/service"
)

// ExpirationSweeper retires expired active auto-rotating tokens on a fixed
// period. It never issues replacements; the next GetCurrentActive call does
// that lazily. SweepOnce is exported so tests can run a sweep without the
// ticker.
type ExpirationSweeper struct {
	Store    service.TokenStore
	Interval time.Duration
	Now      func() time.Time

	stop     chan struct{}
	stopOnce sync.Once
}

func NewExpirationSweeper(store service.TokenStore, interval time.Duration) *ExpirationSweeper {
	return &ExpirationSweeper{
		Store:    store,
		Interval: interval,
		Now:      time.Now,
		stop:     make(chan struct{}),
	}
}

func (s *ExpirationSweeper) Start() {
	go func() {
		ticker := time.NewTicker(s.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if _, err := s.SweepOnce(context.Background()); err != nil {
					log.Printf("[SWEEPER] sweep failed: %v", err)
				}
			case <-s.stop:
				return
			}
		}
	}()
}

// Stop is safe to call more than once.
func (s *ExpirationSweeper) Stop() {
	s.stopOnce.Do(func() { close(s.stop) })
}

// SweepOnce deactivates every expired active auto-rotating token and returns
// how many were retired. Re-entrant; racing a concurrent lazy refresh is
// harmless because deactivation is idempotent.
func (s *ExpirationSweeper) SweepOnce(ctx context.Context) (int, error) {
	recs, err := s.Store.ActiveAutoRotating(ctx)
	if err != nil {
		return 0, err
	}

	now := s.Now()
	deactivated := 0
	for i := range recs {
		if !recs[i].IsExpired(now) {
			continue
		}
		if err := s.Store.Deactivate(ctx, recs[i].ID); err != nil {
			log.Printf("[SWEEPER] failed to deactivate token %d: %v", recs[i].ID, err)
			continue
		}
		deactivated++
	}

	if deactivated > 0 {
		log.Printf("[SWEEPER] retired %d expired token(s) of %d active", deactivated, len(recs))
	}
	return deactivated, nil
}
