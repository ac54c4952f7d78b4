package delivery

import (
	"context"

	"go.uber.org/zap"

	"github.com/yourorg/notification-engine/internal/model"
)

// ContactLookup resolves a user ID to contact data. Implemented by
// repository.PreferenceRepository.
type ContactLookup interface {
	ContactByUserID(ctx context.Context, userID int64) (*model.UserContact, error)
}

// AlertSender sends a single-notification alert email. Implemented by
// client.MailerClient.
type AlertSender interface {
	SendAlert(ctx context.Context, contact model.UserContact, n model.Notification) error
}

// EmailChannel sends immediate alert emails for high and urgent
// notifications. Lower priorities reach email through the digest instead.
type EmailChannel struct {
	contacts ContactLookup
	sender   AlertSender
	logger   *zap.Logger
}

// NewEmailChannel creates an email delivery channel
func NewEmailChannel(contacts ContactLookup, sender AlertSender, logger *zap.Logger) *EmailChannel {
	return &EmailChannel{
		contacts: contacts,
		sender:   sender,
		logger:   logger,
	}
}

// Name identifies the channel in delivery logs
func (c *EmailChannel) Name() string {
	return "email"
}

// Deliver sends an alert email when the notification's priority warrants
// one; anything below high is silently declined
func (c *EmailChannel) Deliver(ctx context.Context, n model.Notification) error {
	if n.Priority != model.PriorityHigh && n.Priority != model.PriorityUrgent {
		return nil
	}

	contact, err := c.contacts.ContactByUserID(ctx, n.UserID)
	if err != nil {
		return err
	}
	if contact == nil {
		c.logger.Debug("No active contact for user, skipping alert email",
			zap.Int64("user_id", n.UserID))
		return nil
	}

	return c.sender.SendAlert(ctx, *contact, n)
}
