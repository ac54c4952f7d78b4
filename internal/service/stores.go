package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/yourorg/notification-engine/internal/model"
)

// NotificationStore is the durable notification collection the engine
// operates on. Implemented by repository.NotificationRepository.
type NotificationStore interface {
	Create(ctx context.Context, n *model.Notification) error
	CreateMany(ctx context.Context, ns []model.Notification) (int, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.Notification, error)
	ListForUser(ctx context.Context, userID int64, unreadOnly bool, limit, offset int) ([]model.Notification, error)
	UnreadCount(ctx context.Context, userID int64) (int, error)
	RecentlyNotifiedUserIDs(ctx context.Context, userIDs []int64, notificationType string, subject model.Subject, since time.Time) ([]int64, error)
	CreatedSince(ctx context.Context, notificationType string, subject model.Subject, since time.Time) ([]model.Notification, error)
	UnreadCreatedAfter(ctx context.Context, userID int64, since time.Time, limit int) ([]model.Notification, error)
	MarkRead(ctx context.Context, id uuid.UUID, userID int64, now time.Time) (bool, error)
	MarkAllRead(ctx context.Context, userID int64, now time.Time) (int64, error)
	Snooze(ctx context.Context, id uuid.UUID, userID int64, until, now time.Time) (bool, error)
	Dismiss(ctx context.Context, id uuid.UUID, userID int64, now time.Time) (bool, error)
	Resolve(ctx context.Context, id uuid.UUID, userID int64, now time.Time) (bool, error)
	SweepExpired(ctx context.Context, now time.Time) (int64, error)
	SweepUnsnoozed(ctx context.Context, now time.Time) (int64, error)
	DeleteFinishedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// DigestStore persists digest send records. Implemented by
// repository.DigestRepository.
type DigestStore interface {
	Create(ctx context.Context, record *model.DigestRecord) error
	LastForUser(ctx context.Context, userID int64, digestType model.DigestType) (*model.DigestRecord, error)
	SentSince(ctx context.Context, userID int64, digestType model.DigestType, since time.Time) (bool, error)
}

// PreferenceSource exposes read-only user contact data and notification
// preferences. Implemented by repository.PreferenceRepository.
type PreferenceSource interface {
	DigestCandidates(ctx context.Context, variant model.DigestType) ([]model.DigestCandidate, error)
	ContactByUserID(ctx context.Context, userID int64) (*model.UserContact, error)
}

// ActivityStore exposes the planning domain's deadline data
type ActivityStore interface {
	DueWithin(ctx context.Context, from, to time.Time) ([]model.Activity, error)
}

// SurveyStore exposes the survey domain's deadline data
type SurveyStore interface {
	ClosingWithin(ctx context.Context, from, to time.Time) ([]model.Survey, error)
}

// Mailer is the external mail collaborator used for digests
type Mailer interface {
	SendDigest(ctx context.Context, contact model.UserContact, payload model.DigestPayload) error
}

// Deliverer fans just-created notifications out to channel adapters
type Deliverer interface {
	DeliverMany(ctx context.Context, notifications []model.Notification)
}
