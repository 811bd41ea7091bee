package worker

import (
	"context"
	"time"

	"github.com/clubdeck/booking-platform/internal/service"
	"github.com/sirupsen/logrus"
)

// Sweeper periodically expires overdue booking holds. The sweep itself is
// idempotent, so overlapping with the lazy expiry on request paths is fine.
type Sweeper struct {
	ledger   service.BookingLedger
	interval time.Duration
	log      *logrus.Entry
}

func NewSweeper(ledger service.BookingLedger, interval time.Duration) *Sweeper {
	return &Sweeper{
		ledger:   ledger,
		interval: interval,
		log:      logrus.WithField("component", "sweeper"),
	}
}

// Run blocks until the context is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("stopping hold sweeper")
			return
		case <-ticker.C:
			expired, err := s.ledger.ExpireHolds(ctx, time.Now())
			if err != nil {
				s.log.WithError(err).Warn("hold sweep failed")
				continue
			}
			if expired > 0 {
				s.log.WithField("expired", expired).Info("released expired holds")
			}
		}
	}
}
