package service

import (
	"context"
	"time"

	"notebins/pkg/logger"
)

// DefaultSweepInterval is how often expired notes are purged.
const DefaultSweepInterval = time.Minute

// Sweeper deletes saved notes past their expiresAt. It stands in for a
// storage-side TTL index: request handlers never look at expiry, so a
// note stays readable until the next sweep after it expires.
type Sweeper struct {
	Repo     Repository
	Interval time.Duration
	Now      func() time.Time
}

func NewSweeper(repo Repository, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	return &Sweeper{Repo: repo, Interval: interval, Now: time.Now}
}

// Run sweeps once immediately and then on every tick until ctx is done.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	s.Sweep(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep deletes everything expired as of now. Failures are logged and
// retried on the next tick.
func (s *Sweeper) Sweep(ctx context.Context) int64 {
	n, err := s.Repo.DeleteExpired(ctx, s.Now().UTC())
	if err != nil {
		logger.Sugar.Errorf("Expiry sweep failed: %v", err)
		return 0
	}
	if n > 0 {
		logger.Sugar.Infof("Expiry sweep removed %d saved notes", n)
	}
	return n
}
