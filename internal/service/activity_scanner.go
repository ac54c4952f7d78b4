package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/yourorg/notification-engine/internal/model"
)

// ActivityScanner detects strategic-plan activities whose deadline falls
// inside the scan horizon and notifies the responsible users
type ActivityScanner struct {
	activities    ActivityStore
	notifications NotificationStore
	notifier      *NotificationService
	guard         *DeduplicationGuard
	deliverer     Deliverer
	horizon       time.Duration
	lookback      time.Duration
	requeryWindow time.Duration
	logger        *zap.Logger
}

// NewActivityScanner creates a new activity deadline scanner
func NewActivityScanner(
	activities ActivityStore,
	notifications NotificationStore,
	notifier *NotificationService,
	guard *DeduplicationGuard,
	deliverer Deliverer,
	horizon time.Duration,
	lookback time.Duration,
	requeryWindow time.Duration,
	logger *zap.Logger,
) *ActivityScanner {
	return &ActivityScanner{
		activities:    activities,
		notifications: notifications,
		notifier:      notifier,
		guard:         guard,
		deliverer:     deliverer,
		horizon:       horizon,
		lookback:      lookback,
		requeryWindow: requeryWindow,
		logger:        logger,
	}
}

// Scan runs one pass over activities due within the horizon. A failure on
// one activity is logged and counted; only the inability to query the
// activity list at all aborts the pass. The returned error is non-nil
// when any subject failed, so unattended schedulers can alert without the
// pass having stopped early.
func (s *ActivityScanner) Scan(ctx context.Context, now time.Time) (ScanResult, error) {
	var result ScanResult

	activities, err := s.activities.DueWithin(ctx, now, now.Add(s.horizon))
	if err != nil {
		return result, fmt.Errorf("failed to query activities due within horizon: %w", err)
	}

	for _, activity := range activities {
		result.Scanned++

		created, skipped, err := s.processActivity(ctx, now, activity)
		if err != nil {
			result.Failed++
			s.logger.Error("Failed to process activity deadline",
				zap.Error(err),
				zap.Int64("activity_id", activity.ID))
			continue
		}

		result.Created += created
		result.SkippedAlreadyNotified += skipped
	}

	if result.Failed > 0 {
		return result, fmt.Errorf("activity deadline scan finished with %d failed activities", result.Failed)
	}
	return result, nil
}

func (s *ActivityScanner) processActivity(ctx context.Context, now time.Time, activity model.Activity) (int, int, error) {
	targets := activity.TargetUserIDs()
	if len(targets) == 0 {
		s.logger.Debug("Activity has no target users, skipping",
			zap.Int64("activity_id", activity.ID))
		return 0, 0, nil
	}

	subject := model.Subject{Kind: model.SubjectActivity, ID: activity.ID}

	remaining, err := s.guard.FilterAlreadyNotified(ctx, targets, TypeActivityDueSoon, subject, s.lookback, now)
	if err != nil {
		return 0, 0, err
	}
	skipped := len(targets) - len(remaining)

	timeLeft := activity.DueAt.Sub(now)
	atRisk := activity.Risk == model.RiskAtRisk || activity.Risk == model.RiskOverdue

	var created int
	if len(remaining) > 0 {
		title := "Activity due soon"
		if atRisk {
			title = "At-risk activity due soon"
		}

		metadata, _ := json.Marshal(map[string]interface{}{
			"due_at": activity.DueAt,
			"risk":   activity.Risk,
		})

		dueAt := activity.DueAt
		created, err = s.notifier.NotifyMany(ctx, now, remaining, NotifyInput{
			Category:    model.CategoryStrategy,
			Type:        TypeActivityDueSoon,
			Priority:    model.PriorityHigh,
			Title:       title,
			Body:        activityDueBody(activity.Title, timeLeft, atRisk),
			ActionURL:   fmt.Sprintf("/activities/%d", activity.ID),
			ActionLabel: "View activity",
			Icon:        "clock",
			Subject:     subject,
			Metadata:    metadata,
			ExpiresAt:   &dueAt,
			Lookback:    s.lookback,
		})
		if err != nil {
			return 0, skipped, err
		}
	}

	if created > 0 {
		s.deliver(ctx, now, subject)
	}

	s.logger.Info("Activity deadline processed",
		zap.Int64("activity_id", activity.ID),
		zap.Int("notified", created),
		zap.Int("skipped_already_notified", skipped),
		zap.Duration("remaining", timeLeft),
		zap.String("risk", string(activity.Risk)))

	return created, skipped, nil
}

// deliver re-queries the just-created records and hands them to the
// delivery dispatcher. Delivery failures are the dispatcher's to log.
func (s *ActivityScanner) deliver(ctx context.Context, now time.Time, subject model.Subject) {
	fresh, err := s.notifications.CreatedSince(ctx, TypeActivityDueSoon, subject, now.Add(-s.requeryWindow))
	if err != nil {
		s.logger.Error("Failed to re-query notifications for delivery",
			zap.Error(err),
			zap.String("subject", subject.String()))
		return
	}

	if len(fresh) > 0 {
		s.deliverer.DeliverMany(ctx, fresh)
	}
}
