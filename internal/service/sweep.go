package service

import (
	"context"
	"time"
)

// SweepExpired flips pending shifts whose date has passed to EXPIRED. The
// repository restricts the update to PENDING rows, so terminal and
// operational statuses are never touched and repeated sweeps are idempotent.
func (s *service) SweepExpired(ctx context.Context) (int64, error) {
	expired, err := s.shiftRepo.MarkExpiredBefore(ctx, time.Now())
	if err != nil {
		return 0, err
	}

	if expired > 0 {
		s.log.WithField("expired", expired).Info("Expiry sweep completed")
	}
	return expired, nil
}
