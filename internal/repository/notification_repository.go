package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/yourorg/notification-engine/internal/model"
)

// NotificationRepository handles database operations for notifications
type NotificationRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository(db *sqlx.DB, logger *zap.Logger) *NotificationRepository {
	return &NotificationRepository{
		db:     db,
		logger: logger,
	}
}

const insertNotification = `
	INSERT INTO notifications (
		id, user_id, category, type, status, priority,
		title, body, action_url, action_label, icon,
		notifiable_type, notifiable_id, metadata,
		expires_at, snoozed_until, created_at, updated_at
	) VALUES (
		:id, :user_id, :category, :type, :status, :priority,
		:title, :body, :action_url, :action_label, :icon,
		:notifiable_type, :notifiable_id, :metadata,
		:expires_at, :snoozed_until, :created_at, :updated_at
	)`

// priorityOrder sorts urgent before high before normal before low
const priorityOrder = `
	CASE priority
		WHEN 'urgent' THEN 0
		WHEN 'high' THEN 1
		WHEN 'normal' THEN 2
		ELSE 3
	END`

// Create inserts a single notification record
func (r *NotificationRepository) Create(ctx context.Context, n *model.Notification) error {
	if _, err := r.db.NamedExecContext(ctx, insertNotification, n); err != nil {
		r.logger.Error("Failed to create notification",
			zap.Error(err),
			zap.Int64("user_id", n.UserID),
			zap.String("type", n.Type))
		return err
	}
	return nil
}

// CreateMany inserts a batch of notifications in one statement and
// returns the number inserted
func (r *NotificationRepository) CreateMany(ctx context.Context, ns []model.Notification) (int, error) {
	if len(ns) == 0 {
		return 0, nil
	}

	if _, err := r.db.NamedExecContext(ctx, insertNotification, ns); err != nil {
		r.logger.Error("Failed to create notification batch",
			zap.Error(err),
			zap.Int("count", len(ns)))
		return 0, err
	}

	return len(ns), nil
}

// GetByID retrieves a notification by ID
func (r *NotificationRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Notification, error) {
	query := `SELECT * FROM notifications WHERE id = $1`

	var n model.Notification
	if err := r.db.GetContext(ctx, &n, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error("Failed to get notification", zap.Error(err), zap.String("id", id.String()))
		return nil, err
	}

	return &n, nil
}

// ListForUser retrieves a user's notifications, newest first
func (r *NotificationRepository) ListForUser(ctx context.Context, userID int64, unreadOnly bool, limit, offset int) ([]model.Notification, error) {
	query := `
		SELECT * FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`
	if unreadOnly {
		query = `
		SELECT * FROM notifications
		WHERE user_id = $1 AND status = 'unread'
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`
	}

	notifications := []model.Notification{}
	if err := r.db.SelectContext(ctx, &notifications, query, userID, limit, offset); err != nil {
		r.logger.Error("Failed to list notifications", zap.Error(err), zap.Int64("user_id", userID))
		return nil, err
	}

	return notifications, nil
}

// UnreadCount retrieves the count of unread notifications for a user
func (r *NotificationRepository) UnreadCount(ctx context.Context, userID int64) (int, error) {
	query := `SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND status = 'unread'`

	var count int
	if err := r.db.GetContext(ctx, &count, query, userID); err != nil {
		r.logger.Error("Failed to count unread notifications", zap.Error(err), zap.Int64("user_id", userID))
		return 0, err
	}

	return count, nil
}

// RecentlyNotifiedUserIDs returns the subset of userIDs that already have
// a notification for the given type and subject created at or after since.
func (r *NotificationRepository) RecentlyNotifiedUserIDs(
	ctx context.Context,
	userIDs []int64,
	notificationType string,
	subject model.Subject,
	since time.Time,
) ([]int64, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}

	query, args, err := sqlx.In(`
		SELECT DISTINCT user_id FROM notifications
		WHERE type = ?
		  AND notifiable_type = ?
		  AND notifiable_id = ?
		  AND created_at >= ?
		  AND user_id IN (?)`,
		notificationType, subject.Kind, subject.ID, since, userIDs)
	if err != nil {
		return nil, err
	}

	var notified []int64
	if err := r.db.SelectContext(ctx, &notified, r.db.Rebind(query), args...); err != nil {
		r.logger.Error("Failed to query recently notified users",
			zap.Error(err),
			zap.String("type", notificationType),
			zap.String("subject", subject.String()))
		return nil, err
	}

	return notified, nil
}

// CreatedSince retrieves notifications of a type and subject created at or
// after since. Used to re-query just-created records for delivery.
func (r *NotificationRepository) CreatedSince(
	ctx context.Context,
	notificationType string,
	subject model.Subject,
	since time.Time,
) ([]model.Notification, error) {
	query := `
		SELECT * FROM notifications
		WHERE type = $1 AND notifiable_type = $2 AND notifiable_id = $3 AND created_at >= $4
		ORDER BY created_at`

	notifications := []model.Notification{}
	if err := r.db.SelectContext(ctx, &notifications, query, notificationType, subject.Kind, subject.ID, since); err != nil {
		r.logger.Error("Failed to query created notifications",
			zap.Error(err),
			zap.String("type", notificationType),
			zap.String("subject", subject.String()))
		return nil, err
	}

	return notifications, nil
}

// UnreadCreatedAfter retrieves a user's unread notifications created after
// since, ordered by priority then recency, capped at limit.
func (r *NotificationRepository) UnreadCreatedAfter(ctx context.Context, userID int64, since time.Time, limit int) ([]model.Notification, error) {
	query := `
		SELECT * FROM notifications
		WHERE user_id = $1 AND status = 'unread' AND created_at > $2
		ORDER BY ` + priorityOrder + `, created_at DESC
		LIMIT $3`

	notifications := []model.Notification{}
	if err := r.db.SelectContext(ctx, &notifications, query, userID, since, limit); err != nil {
		r.logger.Error("Failed to query unread notifications for digest",
			zap.Error(err),
			zap.Int64("user_id", userID))
		return nil, err
	}

	return notifications, nil
}

// MarkRead transitions an unread notification to read
func (r *NotificationRepository) MarkRead(ctx context.Context, id uuid.UUID, userID int64, now time.Time) (bool, error) {
	query := `
		UPDATE notifications
		SET status = 'read', read_at = COALESCE(read_at, $3), updated_at = $3
		WHERE id = $1 AND user_id = $2 AND status = 'unread'`

	return r.execOne(ctx, query, id, userID, now)
}

// MarkAllRead transitions all of a user's unread notifications to read
func (r *NotificationRepository) MarkAllRead(ctx context.Context, userID int64, now time.Time) (int64, error) {
	query := `
		UPDATE notifications
		SET status = 'read', read_at = COALESCE(read_at, $2), updated_at = $2
		WHERE user_id = $1 AND status = 'unread'`

	res, err := r.db.ExecContext(ctx, query, userID, now)
	if err != nil {
		r.logger.Error("Failed to mark all notifications read", zap.Error(err), zap.Int64("user_id", userID))
		return 0, err
	}

	return res.RowsAffected()
}

// Snooze transitions an unread or read notification to snoozed until the
// given wake time
func (r *NotificationRepository) Snooze(ctx context.Context, id uuid.UUID, userID int64, until, now time.Time) (bool, error) {
	query := `
		UPDATE notifications
		SET status = 'snoozed', snoozed_until = $3, updated_at = $4
		WHERE id = $1 AND user_id = $2 AND status IN ('unread', 'read')`

	return r.execOne(ctx, query, id, userID, until, now)
}

// Dismiss transitions a non-terminal notification to dismissed
func (r *NotificationRepository) Dismiss(ctx context.Context, id uuid.UUID, userID int64, now time.Time) (bool, error) {
	query := `
		UPDATE notifications
		SET status = 'dismissed', dismissed_at = COALESCE(dismissed_at, $3), snoozed_until = NULL, updated_at = $3
		WHERE id = $1 AND user_id = $2 AND status IN ('unread', 'read', 'snoozed')`

	return r.execOne(ctx, query, id, userID, now)
}

// Resolve transitions a non-terminal notification to resolved
func (r *NotificationRepository) Resolve(ctx context.Context, id uuid.UUID, userID int64, now time.Time) (bool, error) {
	query := `
		UPDATE notifications
		SET status = 'resolved', snoozed_until = NULL, updated_at = $3
		WHERE id = $1 AND user_id = $2 AND status IN ('unread', 'read', 'snoozed')`

	return r.execOne(ctx, query, id, userID, now)
}

// SweepExpired dismisses unread and read notifications whose expiry has
// passed. Snoozed records are deliberately excluded.
func (r *NotificationRepository) SweepExpired(ctx context.Context, now time.Time) (int64, error) {
	query := `
		UPDATE notifications
		SET status = 'dismissed', dismissed_at = $1, updated_at = $1
		WHERE status IN ('unread', 'read') AND expires_at IS NOT NULL AND expires_at <= $1`

	res, err := r.db.ExecContext(ctx, query, now)
	if err != nil {
		r.logger.Error("Failed to sweep expired notifications", zap.Error(err))
		return 0, err
	}

	return res.RowsAffected()
}

// SweepUnsnoozed wakes snoozed notifications whose snooze window has
// passed, returning them to unread and clearing the wake time
func (r *NotificationRepository) SweepUnsnoozed(ctx context.Context, now time.Time) (int64, error) {
	query := `
		UPDATE notifications
		SET status = 'unread', snoozed_until = NULL, updated_at = $1
		WHERE status = 'snoozed' AND snoozed_until IS NOT NULL AND snoozed_until <= $1`

	res, err := r.db.ExecContext(ctx, query, now)
	if err != nil {
		r.logger.Error("Failed to sweep snoozed notifications", zap.Error(err))
		return 0, err
	}

	return res.RowsAffected()
}

// DeleteFinishedBefore hard-deletes resolved and dismissed notifications
// last touched before the cutoff
func (r *NotificationRepository) DeleteFinishedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `DELETE FROM notifications WHERE status IN ('resolved', 'dismissed') AND updated_at < $1`

	res, err := r.db.ExecContext(ctx, query, cutoff)
	if err != nil {
		r.logger.Error("Failed to delete old notifications", zap.Error(err))
		return 0, err
	}

	return res.RowsAffected()
}

// execOne runs a single-row conditional update and reports whether a row
// was affected
func (r *NotificationRepository) execOne(ctx context.Context, query string, args ...interface{}) (bool, error) {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to update notification", zap.Error(err))
		return false, err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	return affected > 0, nil
}
