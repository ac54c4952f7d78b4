package service

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// SweeperService drives the sweep-based status transitions. Each sweep is
// one predicate-scoped bulk statement, safe to re-run at any frequency:
// a second run immediately after the first always affects zero rows.
type SweeperService struct {
	store         NotificationStore
	retentionDays int
	logger        *zap.Logger
}

// NewSweeperService creates a new sweeper service
func NewSweeperService(store NotificationStore, retentionDays int, logger *zap.Logger) *SweeperService {
	return &SweeperService{
		store:         store,
		retentionDays: retentionDays,
		logger:        logger,
	}
}

// SweepExpired dismisses unread and read notifications whose expires_at
// has passed and returns the affected count. Snoozed records are left
// alone; they re-enter unread first and expire on a later pass.
func (s *SweeperService) SweepExpired(ctx context.Context, now time.Time) (int64, error) {
	count, err := s.store.SweepExpired(ctx, now)
	if err != nil {
		return 0, err
	}

	if count > 0 {
		s.logger.Info("Dismissed expired notifications", zap.Int64("count", count))
	}
	return count, nil
}

// SweepUnsnoozed returns snoozed notifications whose wake time has passed
// to unread and returns the affected count
func (s *SweeperService) SweepUnsnoozed(ctx context.Context, now time.Time) (int64, error) {
	count, err := s.store.SweepUnsnoozed(ctx, now)
	if err != nil {
		return 0, err
	}

	if count > 0 {
		s.logger.Info("Woke snoozed notifications", zap.Int64("count", count))
	}
	return count, nil
}

// SweepRetention hard-deletes resolved and dismissed notifications last
// touched more than the retention period ago and returns the deleted
// count
func (s *SweeperService) SweepRetention(ctx context.Context, now time.Time) (int64, error) {
	cutoff := now.AddDate(0, 0, -s.retentionDays)

	count, err := s.store.DeleteFinishedBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	if count > 0 {
		s.logger.Info("Deleted notifications past retention",
			zap.Int64("count", count),
			zap.Int("retention_days", s.retentionDays))
	}
	return count, nil
}
