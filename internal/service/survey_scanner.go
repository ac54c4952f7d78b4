package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/yourorg/notification-engine/internal/model"
)

// SurveyScanner detects surveys closing inside the scan horizon and
// notifies the users whose deliveries are still pending
type SurveyScanner struct {
	surveys       SurveyStore
	notifications NotificationStore
	notifier      *NotificationService
	guard         *DeduplicationGuard
	deliverer     Deliverer
	horizon       time.Duration
	lookback      time.Duration
	requeryWindow time.Duration
	logger        *zap.Logger
}

// NewSurveyScanner creates a new survey deadline scanner
func NewSurveyScanner(
	surveys SurveyStore,
	notifications NotificationStore,
	notifier *NotificationService,
	guard *DeduplicationGuard,
	deliverer Deliverer,
	horizon time.Duration,
	lookback time.Duration,
	requeryWindow time.Duration,
	logger *zap.Logger,
) *SurveyScanner {
	return &SurveyScanner{
		surveys:       surveys,
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

// Scan runs one pass over surveys closing within the horizon. Per-survey
// failures are logged and counted without stopping the pass; the error is
// non-nil when any survey failed.
func (s *SurveyScanner) Scan(ctx context.Context, now time.Time) (ScanResult, error) {
	var result ScanResult

	surveys, err := s.surveys.ClosingWithin(ctx, now, now.Add(s.horizon))
	if err != nil {
		return result, fmt.Errorf("failed to query surveys closing within horizon: %w", err)
	}

	for _, survey := range surveys {
		result.Scanned++

		created, skipped, err := s.processSurvey(ctx, now, survey)
		if err != nil {
			result.Failed++
			s.logger.Error("Failed to process survey deadline",
				zap.Error(err),
				zap.Int64("survey_id", survey.ID))
			continue
		}

		result.Created += created
		result.SkippedAlreadyNotified += skipped
	}

	if result.Failed > 0 {
		return result, fmt.Errorf("survey deadline scan finished with %d failed surveys", result.Failed)
	}
	return result, nil
}

func (s *SurveyScanner) processSurvey(ctx context.Context, now time.Time, survey model.Survey) (int, int, error) {
	targets := dedupeUserIDs(survey.PendingRecipientIDs)
	if len(targets) == 0 {
		s.logger.Debug("Survey has no pending recipients, skipping",
			zap.Int64("survey_id", survey.ID))
		return 0, 0, nil
	}

	subject := model.Subject{Kind: model.SubjectSurvey, ID: survey.ID}

	remaining, err := s.guard.FilterAlreadyNotified(ctx, targets, TypeSurveyClosingSoon, subject, s.lookback, now)
	if err != nil {
		return 0, 0, err
	}
	skipped := len(targets) - len(remaining)

	timeLeft := survey.ClosesAt.Sub(now)

	var created int
	if len(remaining) > 0 {
		metadata, _ := json.Marshal(map[string]interface{}{
			"closes_at":     survey.ClosesAt,
			"pending_count": len(targets),
		})

		closesAt := survey.ClosesAt
		created, err = s.notifier.NotifyMany(ctx, now, remaining, NotifyInput{
			Category:    model.CategorySurvey,
			Type:        TypeSurveyClosingSoon,
			Priority:    model.PriorityHigh,
			Title:       "Survey closing soon",
			Body:        surveyClosingBody(survey.Title, timeLeft, s.horizon, len(targets)),
			ActionURL:   fmt.Sprintf("/surveys/%d", survey.ID),
			ActionLabel: "Take survey",
			Icon:        "clipboard",
			Subject:     subject,
			Metadata:    metadata,
			ExpiresAt:   &closesAt,
			Lookback:    s.lookback,
		})
		if err != nil {
			return 0, skipped, err
		}
	}

	if created > 0 {
		s.deliver(ctx, now, subject)
	}

	s.logger.Info("Survey deadline processed",
		zap.Int64("survey_id", survey.ID),
		zap.Int("notified", created),
		zap.Int("skipped_already_notified", skipped),
		zap.Duration("remaining", timeLeft))

	return created, skipped, nil
}

func (s *SurveyScanner) deliver(ctx context.Context, now time.Time, subject model.Subject) {
	fresh, err := s.notifications.CreatedSince(ctx, TypeSurveyClosingSoon, subject, now.Add(-s.requeryWindow))
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

// dedupeUserIDs removes duplicate and zero entries, preserving order
func dedupeUserIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	var out []int64
	for _, id := range ids {
		if id == 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
