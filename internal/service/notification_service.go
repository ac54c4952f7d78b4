package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/yourorg/notification-engine/internal/model"
)

// ErrInvalidTransition is returned when a user action is not permitted
// from the notification's current status
var ErrInvalidTransition = errors.New("invalid notification status transition")

// NotifyInput carries everything needed to create one notification apart
// from the recipient
type NotifyInput struct {
	Category    model.Category
	Type        string
	Priority    model.Priority
	Title       string
	Body        string
	ActionURL   string
	ActionLabel string
	Icon        string
	Subject     model.Subject
	Metadata    json.RawMessage
	ExpiresAt   *time.Time
	// Lookback overrides the service's default dedup window when > 0
	Lookback time.Duration
}

// NotificationService is the creation API producers call, and the mutator
// behind user-driven status transitions
type NotificationService struct {
	store           NotificationStore
	guard           *DeduplicationGuard
	cache           *redis.Client
	cacheTTL        time.Duration
	defaultLookback time.Duration
	logger          *zap.Logger
}

// NewNotificationService creates a new notification service. The cache
// client may be nil, in which case unread counts always hit the store.
func NewNotificationService(
	store NotificationStore,
	guard *DeduplicationGuard,
	cache *redis.Client,
	cacheTTL time.Duration,
	defaultLookback time.Duration,
	logger *zap.Logger,
) *NotificationService {
	return &NotificationService{
		store:           store,
		guard:           guard,
		cache:           cache,
		cacheTTL:        cacheTTL,
		defaultLookback: defaultLookback,
		logger:          logger,
	}
}

// Notify creates one notification unless the user was already notified
// for the same type and subject within the lookback window, in which case
// it returns nil without writing.
func (s *NotificationService) Notify(ctx context.Context, now time.Time, userID int64, input NotifyInput) (*model.Notification, error) {
	remaining, err := s.guard.FilterAlreadyNotified(ctx, []int64{userID}, input.Type, input.Subject, s.lookback(input), now)
	if err != nil {
		return nil, err
	}
	if len(remaining) == 0 {
		return nil, nil
	}

	n := s.build(now, userID, input)
	if err := s.store.Create(ctx, &n); err != nil {
		return nil, err
	}

	s.invalidateUnreadCount(ctx, userID)
	return &n, nil
}

// NotifyMany creates notifications for every user in userIDs that the
// deduplication guard lets through, and returns the number created.
// Individual creation failures are logged and counted out, never raised.
func (s *NotificationService) NotifyMany(ctx context.Context, now time.Time, userIDs []int64, input NotifyInput) (int, error) {
	remaining, err := s.guard.FilterAlreadyNotified(ctx, userIDs, input.Type, input.Subject, s.lookback(input), now)
	if err != nil {
		return 0, err
	}
	if len(remaining) == 0 {
		return 0, nil
	}

	batch := make([]model.Notification, 0, len(remaining))
	for _, userID := range remaining {
		batch = append(batch, s.build(now, userID, input))
	}

	created, err := s.store.CreateMany(ctx, batch)
	if err != nil {
		// Batched insert failed as a whole; fall back to per-record
		// creation so one bad record cannot sink the rest.
		s.logger.Warn("Batch notification insert failed, retrying per record",
			zap.Error(err),
			zap.String("type", input.Type),
			zap.Int("count", len(batch)))

		created = 0
		for i := range batch {
			if err := s.store.Create(ctx, &batch[i]); err != nil {
				s.logger.Error("Failed to create notification",
					zap.Error(err),
					zap.Int64("user_id", batch[i].UserID),
					zap.String("type", input.Type))
				continue
			}
			created++
		}
	}

	for _, userID := range remaining {
		s.invalidateUnreadCount(ctx, userID)
	}

	return created, nil
}

// List retrieves a user's notifications
func (s *NotificationService) List(ctx context.Context, userID int64, unreadOnly bool, limit, offset int) ([]model.Notification, error) {
	if limit <= 0 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return s.store.ListForUser(ctx, userID, unreadOnly, limit, offset)
}

// UnreadCount retrieves the count of unread notifications for a user,
// serving from cache when possible
func (s *NotificationService) UnreadCount(ctx context.Context, userID int64) (int, error) {
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, unreadCountKey(userID)).Result()
		if err == nil {
			if count, convErr := strconv.Atoi(cached); convErr == nil {
				return count, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			s.logger.Debug("Unread count cache read failed", zap.Error(err))
		}
	}

	count, err := s.store.UnreadCount(ctx, userID)
	if err != nil {
		return 0, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, unreadCountKey(userID), count, s.cacheTTL).Err(); err != nil {
			s.logger.Debug("Unread count cache write failed", zap.Error(err))
		}
	}

	return count, nil
}

// MarkRead transitions a notification from unread to read
func (s *NotificationService) MarkRead(ctx context.Context, now time.Time, id uuid.UUID, userID int64) error {
	return s.transition(ctx, id, userID, model.StatusRead, func() (bool, error) {
		return s.store.MarkRead(ctx, id, userID, now)
	})
}

// MarkAllRead transitions all of a user's unread notifications to read
// and returns the number affected
func (s *NotificationService) MarkAllRead(ctx context.Context, now time.Time, userID int64) (int64, error) {
	count, err := s.store.MarkAllRead(ctx, userID, now)
	if err != nil {
		return 0, err
	}
	s.invalidateUnreadCount(ctx, userID)
	return count, nil
}

// Snooze parks a notification until the given wake time
func (s *NotificationService) Snooze(ctx context.Context, now time.Time, id uuid.UUID, userID int64, until time.Time) error {
	if !until.After(now) {
		return fmt.Errorf("snooze time must be in the future")
	}
	return s.transition(ctx, id, userID, model.StatusSnoozed, func() (bool, error) {
		return s.store.Snooze(ctx, id, userID, until, now)
	})
}

// Dismiss transitions a notification to dismissed
func (s *NotificationService) Dismiss(ctx context.Context, now time.Time, id uuid.UUID, userID int64) error {
	return s.transition(ctx, id, userID, model.StatusDismissed, func() (bool, error) {
		return s.store.Dismiss(ctx, id, userID, now)
	})
}

// Resolve transitions a notification to resolved
func (s *NotificationService) Resolve(ctx context.Context, now time.Time, id uuid.UUID, userID int64) error {
	return s.transition(ctx, id, userID, model.StatusResolved, func() (bool, error) {
		return s.store.Resolve(ctx, id, userID, now)
	})
}

// transition runs a conditional status update and distinguishes "not
// found" from "found but not eligible for this transition"
func (s *NotificationService) transition(ctx context.Context, id uuid.UUID, userID int64, to model.Status, update func() (bool, error)) error {
	updated, err := update()
	if err != nil {
		return err
	}
	if updated {
		s.invalidateUnreadCount(ctx, userID)
		return nil
	}

	n, err := s.store.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if n == nil || n.UserID != userID {
		return model.ErrNotificationNotFound
	}
	if !model.CanTransition(n.Status, to) {
		return ErrInvalidTransition
	}

	// The predicate-guarded update lost a race with another mutator;
	// the record is already past this transition.
	return ErrInvalidTransition
}

func (s *NotificationService) lookback(input NotifyInput) time.Duration {
	if input.Lookback > 0 {
		return input.Lookback
	}
	return s.defaultLookback
}

func (s *NotificationService) build(now time.Time, userID int64, input NotifyInput) model.Notification {
	priority := input.Priority
	if priority == "" {
		priority = model.PriorityNormal
	}

	return model.Notification{
		ID:             uuid.New(),
		UserID:         userID,
		Category:       input.Category,
		Type:           input.Type,
		Status:         model.StatusUnread,
		Priority:       priority,
		Title:          input.Title,
		Body:           input.Body,
		ActionURL:      input.ActionURL,
		ActionLabel:    input.ActionLabel,
		Icon:           input.Icon,
		NotifiableType: input.Subject.Kind,
		NotifiableID:   input.Subject.ID,
		Metadata:       input.Metadata,
		ExpiresAt:      input.ExpiresAt,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func (s *NotificationService) invalidateUnreadCount(ctx context.Context, userID int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, unreadCountKey(userID)).Err(); err != nil {
		s.logger.Debug("Unread count cache invalidation failed",
			zap.Error(err),
			zap.Int64("user_id", userID))
	}
}

func unreadCountKey(userID int64) string {
	return fmt.Sprintf("notifications:unread-count:%d", userID)
}
