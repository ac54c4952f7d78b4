package delivery

import (
	"context"

	"go.uber.org/zap"

	"github.com/yourorg/notification-engine/internal/model"
)

// Channel is a single delivery transport for created notifications. A
// channel may decline a notification by returning nil without sending.
type Channel interface {
	Name() string
	Deliver(ctx context.Context, n model.Notification) error
}

// Dispatcher fans just-created notifications out to every registered
// channel. Delivery is fire-and-forget from the engine's perspective:
// outcomes are logged here and never surfaced to callers.
type Dispatcher struct {
	channels []Channel
	logger   *zap.Logger
}

// NewDispatcher creates a new delivery dispatcher
func NewDispatcher(logger *zap.Logger, channels ...Channel) *Dispatcher {
	return &Dispatcher{
		channels: channels,
		logger:   logger,
	}
}

// DeliverMany hands each notification to each channel, logging per-
// notification outcomes. One failing channel never blocks the others.
func (d *Dispatcher) DeliverMany(ctx context.Context, notifications []model.Notification) {
	if len(notifications) == 0 || len(d.channels) == 0 {
		return
	}

	var delivered, failed int
	for _, channel := range d.channels {
		for _, n := range notifications {
			if err := channel.Deliver(ctx, n); err != nil {
				failed++
				d.logger.Warn("Notification delivery failed",
					zap.Error(err),
					zap.String("channel", channel.Name()),
					zap.String("notification_id", n.ID.String()),
					zap.Int64("user_id", n.UserID))
				continue
			}
			delivered++
		}
	}

	d.logger.Info("Delivery batch finished",
		zap.Int("notifications", len(notifications)),
		zap.Int("channels", len(d.channels)),
		zap.Int("delivered", delivered),
		zap.Int("failed", failed))
}
