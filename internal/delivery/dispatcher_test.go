package delivery

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/yourorg/notification-engine/internal/model"
)

type channelMock struct {
	name      string
	deliverFn func(context.Context, model.Notification) error
	delivered []model.Notification
}

func (c *channelMock) Name() string { return c.name }

func (c *channelMock) Deliver(ctx context.Context, n model.Notification) error {
	if c.deliverFn != nil {
		if err := c.deliverFn(ctx, n); err != nil {
			return err
		}
	}
	c.delivered = append(c.delivered, n)
	return nil
}

func TestDispatcher_DeliverMany(t *testing.T) {
	batch := []model.Notification{
		{ID: uuid.New(), UserID: 1},
		{ID: uuid.New(), UserID: 2},
	}

	t.Run("every channel sees every notification", func(t *testing.T) {
		first := &channelMock{name: "first"}
		second := &channelMock{name: "second"}
		d := NewDispatcher(zap.NewNop(), first, second)

		d.DeliverMany(context.Background(), batch)
		assert.Len(t, first.delivered, 2)
		assert.Len(t, second.delivered, 2)
	})

	t.Run("one failing channel does not block the others", func(t *testing.T) {
		failing := &channelMock{
			name: "failing",
			deliverFn: func(_ context.Context, _ model.Notification) error {
				return errors.New("broker down")
			},
		}
		healthy := &channelMock{name: "healthy"}
		d := NewDispatcher(zap.NewNop(), failing, healthy)

		d.DeliverMany(context.Background(), batch)
		assert.Empty(t, failing.delivered)
		assert.Len(t, healthy.delivered, 2)
	})

	t.Run("empty batch is a no-op", func(t *testing.T) {
		ch := &channelMock{name: "only"}
		d := NewDispatcher(zap.NewNop(), ch)

		d.DeliverMany(context.Background(), nil)
		assert.Empty(t, ch.delivered)
	})
}

func TestEmailChannel_Deliver(t *testing.T) {
	contact := &model.UserContact{UserID: 1, Email: "user@example.com", Username: "user"}

	t.Run("high priority notification is mailed", func(t *testing.T) {
		var sent []model.Notification
		ch := NewEmailChannel(
			contactLookupFunc(func(_ context.Context, _ int64) (*model.UserContact, error) { return contact, nil }),
			alertSenderFunc(func(_ context.Context, _ model.UserContact, n model.Notification) error {
				sent = append(sent, n)
				return nil
			}),
			zap.NewNop())

		err := ch.Deliver(context.Background(), model.Notification{UserID: 1, Priority: model.PriorityHigh})
		assert.NoError(t, err)
		assert.Len(t, sent, 1)
	})

	t.Run("normal priority is declined without sending", func(t *testing.T) {
		ch := NewEmailChannel(
			contactLookupFunc(func(_ context.Context, _ int64) (*model.UserContact, error) {
				t.Fatal("contact lookup should not run")
				return nil, nil
			}),
			alertSenderFunc(func(_ context.Context, _ model.UserContact, _ model.Notification) error {
				t.Fatal("alert should not be sent")
				return nil
			}),
			zap.NewNop())

		err := ch.Deliver(context.Background(), model.Notification{UserID: 1, Priority: model.PriorityNormal})
		assert.NoError(t, err)
	})

	t.Run("missing contact skips without error", func(t *testing.T) {
		ch := NewEmailChannel(
			contactLookupFunc(func(_ context.Context, _ int64) (*model.UserContact, error) { return nil, nil }),
			alertSenderFunc(func(_ context.Context, _ model.UserContact, _ model.Notification) error {
				t.Fatal("alert should not be sent")
				return nil
			}),
			zap.NewNop())

		err := ch.Deliver(context.Background(), model.Notification{UserID: 1, Priority: model.PriorityUrgent})
		assert.NoError(t, err)
	})
}

type contactLookupFunc func(context.Context, int64) (*model.UserContact, error)

func (f contactLookupFunc) ContactByUserID(ctx context.Context, userID int64) (*model.UserContact, error) {
	return f(ctx, userID)
}

type alertSenderFunc func(context.Context, model.UserContact, model.Notification) error

func (f alertSenderFunc) SendAlert(ctx context.Context, contact model.UserContact, n model.Notification) error {
	return f(ctx, contact, n)
}
