package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/yourorg/notification-engine/internal/model"
)

// DigestService batches unread notifications into per-user digest emails.
// It is driven by a fixed-cadence external trigger, not per-user timers:
// each invocation floors the current time of day to a window and serves
// exactly the users whose preferred time falls inside that window.
type DigestService struct {
	notifications NotificationStore
	digests       DigestStore
	prefs         PreferenceSource
	mailer        Mailer
	window        time.Duration
	resendGuard   time.Duration
	maxItems      int
	logger        *zap.Logger
}

// NewDigestService creates a new digest service
func NewDigestService(
	notifications NotificationStore,
	digests DigestStore,
	prefs PreferenceSource,
	mailer Mailer,
	window time.Duration,
	resendGuard time.Duration,
	maxItems int,
	logger *zap.Logger,
) *DigestService {
	return &DigestService{
		notifications: notifications,
		digests:       digests,
		prefs:         prefs,
		mailer:        mailer,
		window:        window,
		resendGuard:   resendGuard,
		maxItems:      maxItems,
		logger:        logger,
	}
}

// DigestResult summarizes one digest invocation
type DigestResult struct {
	Candidates           int `json:"candidates"`
	Sent                 int `json:"sent"`
	SkippedOutsideWindow int `json:"skipped_outside_window"`
	SkippedRecentlySent  int `json:"skipped_recently_sent"`
	SkippedEmpty         int `json:"skipped_empty"`
	Failed               int `json:"failed"`
}

// RunDaily runs one daily digest window pass. When onlyUserID is non-nil
// the window check is bypassed and just that user is considered.
func (s *DigestService) RunDaily(ctx context.Context, now time.Time, onlyUserID *int64) (DigestResult, error) {
	return s.run(ctx, model.DigestDaily, now, onlyUserID)
}

// RunWeekly runs one weekly digest window pass, matching users on both
// preferred time and preferred day
func (s *DigestService) RunWeekly(ctx context.Context, now time.Time, onlyUserID *int64) (DigestResult, error) {
	return s.run(ctx, model.DigestWeekly, now, onlyUserID)
}

func (s *DigestService) run(ctx context.Context, variant model.DigestType, now time.Time, onlyUserID *int64) (DigestResult, error) {
	var result DigestResult

	candidates, err := s.prefs.DigestCandidates(ctx, variant)
	if err != nil {
		return result, fmt.Errorf("failed to query digest candidates: %w", err)
	}

	windowStart, windowEnd := windowBounds(now, s.window)

	for _, candidate := range candidates {
		if onlyUserID != nil && candidate.Contact.UserID != *onlyUserID {
			continue
		}
		result.Candidates++

		// A manual single-user run bypasses the window match but keeps
		// the re-send guard, so retries stay idempotent.
		if onlyUserID == nil {
			ok, err := s.inWindow(candidate.Preferences, variant, now, windowStart, windowEnd)
			if err != nil {
				result.Failed++
				s.logger.Error("Failed to evaluate digest window for user",
					zap.Error(err),
					zap.Int64("user_id", candidate.Contact.UserID))
				continue
			}
			if !ok {
				result.SkippedOutsideWindow++
				continue
			}
		}

		outcome, err := s.sendDigest(ctx, variant, now, candidate)
		if err != nil {
			result.Failed++
			s.logger.Error("Failed to send digest",
				zap.Error(err),
				zap.Int64("user_id", candidate.Contact.UserID),
				zap.String("digest_type", string(variant)))
			continue
		}

		switch outcome {
		case digestSent:
			result.Sent++
		case digestRecentlySent:
			result.SkippedRecentlySent++
		case digestEmpty:
			result.SkippedEmpty++
		}
	}

	s.logger.Info("Digest pass finished",
		zap.String("digest_type", string(variant)),
		zap.Time("window_start", windowStart),
		zap.Int("candidates", result.Candidates),
		zap.Int("sent", result.Sent),
		zap.Int("skipped_recently_sent", result.SkippedRecentlySent),
		zap.Int("skipped_empty", result.SkippedEmpty),
		zap.Int("failed", result.Failed))

	return result, nil
}

type digestOutcome int

const (
	digestSent digestOutcome = iota
	digestRecentlySent
	digestEmpty
)

func (s *DigestService) sendDigest(ctx context.Context, variant model.DigestType, now time.Time, candidate model.DigestCandidate) (digestOutcome, error) {
	userID := candidate.Contact.UserID

	recentlySent, err := s.digests.SentSince(ctx, userID, variant, now.Add(-s.resendGuard))
	if err != nil {
		return 0, err
	}
	if recentlySent {
		return digestRecentlySent, nil
	}

	since, err := s.sinceTime(ctx, userID, variant, now)
	if err != nil {
		return 0, err
	}

	items, err := s.notifications.UnreadCreatedAfter(ctx, userID, since, s.maxItems)
	if err != nil {
		return 0, err
	}
	if len(items) == 0 {
		return digestEmpty, nil
	}

	payload := buildDigestPayload(variant, since, items)
	if err := s.mailer.SendDigest(ctx, candidate.Contact, payload); err != nil {
		// No digest record is written on failure; the user stays
		// eligible for the next qualifying window.
		return 0, err
	}

	ids := make([]uuid.UUID, len(items))
	for i, item := range items {
		ids[i] = item.ID
	}

	record := &model.DigestRecord{
		ID:                uuid.New(),
		UserID:            userID,
		DigestType:        variant,
		NotificationIDs:   ids,
		NotificationCount: len(items),
		SentAt:            now,
	}
	if err := s.digests.Create(ctx, record); err != nil {
		// The mail is already out; a lost record only risks one extra
		// digest at the next window.
		s.logger.Error("Failed to record digest send",
			zap.Error(err),
			zap.Int64("user_id", userID),
			zap.String("digest_type", string(variant)))
	}

	return digestSent, nil
}

// sinceTime returns the start of the "new since last digest" range: the
// previous digest's send time, or a variant-sized fallback for first-time
// recipients
func (s *DigestService) sinceTime(ctx context.Context, userID int64, variant model.DigestType, now time.Time) (time.Time, error) {
	last, err := s.digests.LastForUser(ctx, userID, variant)
	if err != nil {
		return time.Time{}, err
	}
	if last != nil {
		return last.SentAt, nil
	}

	if variant == model.DigestWeekly {
		return now.AddDate(0, 0, -7), nil
	}
	return now.AddDate(0, 0, -1), nil
}

// inWindow reports whether the user's preferred time (and, for weekly,
// preferred day) falls inside the half-open window [start, end)
func (s *DigestService) inWindow(prefs model.NotificationPreferences, variant model.DigestType, now, windowStart, windowEnd time.Time) (bool, error) {
	if variant == model.DigestWeekly && !prefs.MatchesDay(now) {
		return false, nil
	}

	prefMinute, err := prefs.MinuteOfDay()
	if err != nil {
		return false, err
	}

	startMinute := windowStart.Hour()*60 + windowStart.Minute()
	endMinute := startMinute + int(windowEnd.Sub(windowStart).Minutes())

	return prefMinute >= startMinute && prefMinute < endMinute, nil
}

// windowBounds floors now to the window size within the day and returns
// the half-open interval [start, end). A preferred time equal to the end
// boundary belongs to the next window, never to two windows at once.
func windowBounds(now time.Time, window time.Duration) (time.Time, time.Time) {
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	elapsed := now.Sub(midnight)
	start := midnight.Add(elapsed.Truncate(window))
	return start, start.Add(window)
}

// buildDigestPayload groups notifications by category, preserving the
// priority-then-recency order within each section
func buildDigestPayload(variant model.DigestType, since time.Time, items []model.Notification) model.DigestPayload {
	sectionIndex := make(map[model.Category]int)
	var sections []model.DigestSection

	for _, item := range items {
		idx, ok := sectionIndex[item.Category]
		if !ok {
			idx = len(sections)
			sectionIndex[item.Category] = idx
			sections = append(sections, model.DigestSection{Category: item.Category})
		}
		sections[idx].Notifications = append(sections[idx].Notifications, item)
	}

	return model.DigestPayload{
		DigestType: variant,
		Since:      since,
		Sections:   sections,
		Total:      len(items),
	}
}
