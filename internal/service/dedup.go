package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/yourorg/notification-engine/internal/model"
)

// DeduplicationGuard suppresses repeat notifications for the same user,
// type and subject inside a rolling lookback window. A lookback window is
// used instead of a uniqueness constraint so the same subject can
// legitimately re-notify once the window has elapsed.
type DeduplicationGuard struct {
	store  NotificationStore
	logger *zap.Logger
}

// NewDeduplicationGuard creates a new deduplication guard
func NewDeduplicationGuard(store NotificationStore, logger *zap.Logger) *DeduplicationGuard {
	return &DeduplicationGuard{
		store:  store,
		logger: logger,
	}
}

// FilterAlreadyNotified returns the subset of userIDs that were NOT
// notified for the given type and subject within the lookback window,
// preserving input order. An empty input returns empty without querying.
func (g *DeduplicationGuard) FilterAlreadyNotified(
	ctx context.Context,
	userIDs []int64,
	notificationType string,
	subject model.Subject,
	lookback time.Duration,
	now time.Time,
) ([]int64, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}

	since := now.Add(-lookback)
	notified, err := g.store.RecentlyNotifiedUserIDs(ctx, userIDs, notificationType, subject, since)
	if err != nil {
		return nil, err
	}

	if len(notified) == 0 {
		return userIDs, nil
	}

	notifiedSet := make(map[int64]struct{}, len(notified))
	for _, id := range notified {
		notifiedSet[id] = struct{}{}
	}

	remaining := make([]int64, 0, len(userIDs))
	for _, id := range userIDs {
		if _, ok := notifiedSet[id]; !ok {
			remaining = append(remaining, id)
		}
	}

	g.logger.Debug("Deduplication filter applied",
		zap.String("type", notificationType),
		zap.String("subject", subject.String()),
		zap.Int("candidates", len(userIDs)),
		zap.Int("already_notified", len(userIDs)-len(remaining)))

	return remaining, nil
}
