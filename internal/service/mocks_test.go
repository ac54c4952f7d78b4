package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/yourorg/notification-engine/internal/model"
)

// notificationStoreMock implements NotificationStore with overridable
// function fields. Methods without an override return zero values.
type notificationStoreMock struct {
	createFn                  func(context.Context, *model.Notification) error
	createManyFn              func(context.Context, []model.Notification) (int, error)
	getByIDFn                 func(context.Context, uuid.UUID) (*model.Notification, error)
	listForUserFn             func(context.Context, int64, bool, int, int) ([]model.Notification, error)
	unreadCountFn             func(context.Context, int64) (int, error)
	recentlyNotifiedFn        func(context.Context, []int64, string, model.Subject, time.Time) ([]int64, error)
	createdSinceFn            func(context.Context, string, model.Subject, time.Time) ([]model.Notification, error)
	unreadCreatedAfterFn      func(context.Context, int64, time.Time, int) ([]model.Notification, error)
	markReadFn                func(context.Context, uuid.UUID, int64, time.Time) (bool, error)
	markAllReadFn             func(context.Context, int64, time.Time) (int64, error)
	snoozeFn                  func(context.Context, uuid.UUID, int64, time.Time, time.Time) (bool, error)
	dismissFn                 func(context.Context, uuid.UUID, int64, time.Time) (bool, error)
	resolveFn                 func(context.Context, uuid.UUID, int64, time.Time) (bool, error)
	sweepExpiredFn            func(context.Context, time.Time) (int64, error)
	sweepUnsnoozedFn          func(context.Context, time.Time) (int64, error)
	deleteFinishedBeforeFn    func(context.Context, time.Time) (int64, error)
	recentlyNotifiedCallCount int
}

func (m *notificationStoreMock) Create(ctx context.Context, n *model.Notification) error {
	if m.createFn != nil {
		return m.createFn(ctx, n)
	}
	return nil
}

func (m *notificationStoreMock) CreateMany(ctx context.Context, ns []model.Notification) (int, error) {
	if m.createManyFn != nil {
		return m.createManyFn(ctx, ns)
	}
	return len(ns), nil
}

func (m *notificationStoreMock) GetByID(ctx context.Context, id uuid.UUID) (*model.Notification, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *notificationStoreMock) ListForUser(ctx context.Context, userID int64, unreadOnly bool, limit, offset int) ([]model.Notification, error) {
	if m.listForUserFn != nil {
		return m.listForUserFn(ctx, userID, unreadOnly, limit, offset)
	}
	return nil, nil
}

func (m *notificationStoreMock) UnreadCount(ctx context.Context, userID int64) (int, error) {
	if m.unreadCountFn != nil {
		return m.unreadCountFn(ctx, userID)
	}
	return 0, nil
}

func (m *notificationStoreMock) RecentlyNotifiedUserIDs(ctx context.Context, userIDs []int64, notificationType string, subject model.Subject, since time.Time) ([]int64, error) {
	m.recentlyNotifiedCallCount++
	if m.recentlyNotifiedFn != nil {
		return m.recentlyNotifiedFn(ctx, userIDs, notificationType, subject, since)
	}
	return nil, nil
}

func (m *notificationStoreMock) CreatedSince(ctx context.Context, notificationType string, subject model.Subject, since time.Time) ([]model.Notification, error) {
	if m.createdSinceFn != nil {
		return m.createdSinceFn(ctx, notificationType, subject, since)
	}
	return nil, nil
}

func (m *notificationStoreMock) UnreadCreatedAfter(ctx context.Context, userID int64, since time.Time, limit int) ([]model.Notification, error) {
	if m.unreadCreatedAfterFn != nil {
		return m.unreadCreatedAfterFn(ctx, userID, since, limit)
	}
	return nil, nil
}

func (m *notificationStoreMock) MarkRead(ctx context.Context, id uuid.UUID, userID int64, now time.Time) (bool, error) {
	if m.markReadFn != nil {
		return m.markReadFn(ctx, id, userID, now)
	}
	return false, nil
}

func (m *notificationStoreMock) MarkAllRead(ctx context.Context, userID int64, now time.Time) (int64, error) {
	if m.markAllReadFn != nil {
		return m.markAllReadFn(ctx, userID, now)
	}
	return 0, nil
}

func (m *notificationStoreMock) Snooze(ctx context.Context, id uuid.UUID, userID int64, until, now time.Time) (bool, error) {
	if m.snoozeFn != nil {
		return m.snoozeFn(ctx, id, userID, until, now)
	}
	return false, nil
}

func (m *notificationStoreMock) Dismiss(ctx context.Context, id uuid.UUID, userID int64, now time.Time) (bool, error) {
	if m.dismissFn != nil {
		return m.dismissFn(ctx, id, userID, now)
	}
	return false, nil
}

func (m *notificationStoreMock) Resolve(ctx context.Context, id uuid.UUID, userID int64, now time.Time) (bool, error) {
	if m.resolveFn != nil {
		return m.resolveFn(ctx, id, userID, now)
	}
	return false, nil
}

func (m *notificationStoreMock) SweepExpired(ctx context.Context, now time.Time) (int64, error) {
	if m.sweepExpiredFn != nil {
		return m.sweepExpiredFn(ctx, now)
	}
	return 0, nil
}

func (m *notificationStoreMock) SweepUnsnoozed(ctx context.Context, now time.Time) (int64, error) {
	if m.sweepUnsnoozedFn != nil {
		return m.sweepUnsnoozedFn(ctx, now)
	}
	return 0, nil
}

func (m *notificationStoreMock) DeleteFinishedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	if m.deleteFinishedBeforeFn != nil {
		return m.deleteFinishedBeforeFn(ctx, cutoff)
	}
	return 0, nil
}

// digestStoreMock implements DigestStore
type digestStoreMock struct {
	createFn      func(context.Context, *model.DigestRecord) error
	lastForUserFn func(context.Context, int64, model.DigestType) (*model.DigestRecord, error)
	sentSinceFn   func(context.Context, int64, model.DigestType, time.Time) (bool, error)
}

func (m *digestStoreMock) Create(ctx context.Context, record *model.DigestRecord) error {
	if m.createFn != nil {
		return m.createFn(ctx, record)
	}
	return nil
}

func (m *digestStoreMock) LastForUser(ctx context.Context, userID int64, digestType model.DigestType) (*model.DigestRecord, error) {
	if m.lastForUserFn != nil {
		return m.lastForUserFn(ctx, userID, digestType)
	}
	return nil, nil
}

func (m *digestStoreMock) SentSince(ctx context.Context, userID int64, digestType model.DigestType, since time.Time) (bool, error) {
	if m.sentSinceFn != nil {
		return m.sentSinceFn(ctx, userID, digestType, since)
	}
	return false, nil
}

// preferenceSourceMock implements PreferenceSource
type preferenceSourceMock struct {
	digestCandidatesFn func(context.Context, model.DigestType) ([]model.DigestCandidate, error)
	contactByUserIDFn  func(context.Context, int64) (*model.UserContact, error)
}

func (m *preferenceSourceMock) DigestCandidates(ctx context.Context, variant model.DigestType) ([]model.DigestCandidate, error) {
	if m.digestCandidatesFn != nil {
		return m.digestCandidatesFn(ctx, variant)
	}
	return nil, nil
}

func (m *preferenceSourceMock) ContactByUserID(ctx context.Context, userID int64) (*model.UserContact, error) {
	if m.contactByUserIDFn != nil {
		return m.contactByUserIDFn(ctx, userID)
	}
	return nil, nil
}

// activityStoreMock implements ActivityStore
type activityStoreMock struct {
	dueWithinFn func(context.Context, time.Time, time.Time) ([]model.Activity, error)
}

func (m *activityStoreMock) DueWithin(ctx context.Context, from, to time.Time) ([]model.Activity, error) {
	if m.dueWithinFn != nil {
		return m.dueWithinFn(ctx, from, to)
	}
	return nil, nil
}

// surveyStoreMock implements SurveyStore
type surveyStoreMock struct {
	closingWithinFn func(context.Context, time.Time, time.Time) ([]model.Survey, error)
}

func (m *surveyStoreMock) ClosingWithin(ctx context.Context, from, to time.Time) ([]model.Survey, error) {
	if m.closingWithinFn != nil {
		return m.closingWithinFn(ctx, from, to)
	}
	return nil, nil
}

// mailerMock implements Mailer, recording every digest sent
type mailerMock struct {
	sendDigestFn func(context.Context, model.UserContact, model.DigestPayload) error
	sent         []model.DigestPayload
}

func (m *mailerMock) SendDigest(ctx context.Context, contact model.UserContact, payload model.DigestPayload) error {
	if m.sendDigestFn != nil {
		if err := m.sendDigestFn(ctx, contact, payload); err != nil {
			return err
		}
	}
	m.sent = append(m.sent, payload)
	return nil
}

// delivererMock implements Deliverer, recording delivered batches
type delivererMock struct {
	batches [][]model.Notification
}

func (m *delivererMock) DeliverMany(ctx context.Context, notifications []model.Notification) {
	m.batches = append(m.batches, notifications)
}

func testLogger() *zap.Logger {
	return zap.NewNop()
}
