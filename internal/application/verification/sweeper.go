package verification

import (
	"context"
	"time"

	"github.com/marque-api/internal/domain"
	"go.uber.org/zap"
)

// Sweeper periodically deletes expired codes from every market's store.
type Sweeper struct {
	svc      Service
	markets  []domain.Market
	interval time.Duration
	log      *zap.Logger
}

func NewSweeper(svc Service, interval time.Duration, log *zap.Logger) *Sweeper {
	if log == nil {
		log = zap.NewNop()
	}
	return &Sweeper{svc: svc, markets: domain.Markets(), interval: interval, log: log}
}

// Run sweeps once immediately and then on every tick until ctx is cancelled.
// A failing market is logged and skipped; it never stops the loop.
func (s *Sweeper) Run(ctx context.Context) error {
	if s.interval <= 0 {
		<-ctx.Done()
		return nil
	}
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		s.SweepOnce(ctx)
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (s *Sweeper) SweepOnce(ctx context.Context) {
	for _, m := range s.markets {
		n, err := s.svc.PurgeExpired(ctx, m)
		if err != nil {
			s.log.Warn("expired code sweep failed", zap.String("market", m.String()), zap.Error(err))
			continue
		}
		if n > 0 {
			s.log.Info("expired codes purged", zap.String("market", m.String()), zap.Int64("count", n))
		}
	}
}
