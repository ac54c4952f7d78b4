package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/yourorg/notification-engine/internal/model"
)

// MailerClient talks to the mailer service, which owns template rendering
// and SMTP. Transient failures are retried with exponential backoff;
// client errors are not.
type MailerClient struct {
	baseURL    string
	serviceKey string
	maxRetries uint64
	httpClient *http.Client
	logger     *zap.Logger
}

// NewMailerClient creates a new mailer service client
func NewMailerClient(baseURL, serviceKey string, timeout time.Duration, maxRetries uint64, logger *zap.Logger) *MailerClient {
	return &MailerClient{
		baseURL:    baseURL,
		serviceKey: serviceKey,
		maxRetries: maxRetries,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

type digestMailRequest struct {
	UserID   int64               `json:"user_id"`
	Email    string              `json:"email"`
	Username string              `json:"username"`
	Digest   model.DigestPayload `json:"digest"`
}

type alertMailRequest struct {
	UserID    int64  `json:"user_id"`
	Email     string `json:"email"`
	Username  string `json:"username"`
	Title     string `json:"title"`
	Body      string `json:"body"`
	Priority  string `json:"priority"`
	ActionURL string `json:"action_url,omitempty"`
}

// SendDigest sends one digest email to a user
func (c *MailerClient) SendDigest(ctx context.Context, contact model.UserContact, payload model.DigestPayload) error {
	req := digestMailRequest{
		UserID:   contact.UserID,
		Email:    contact.Email,
		Username: contact.Username,
		Digest:   payload,
	}
	return c.post(ctx, "/api/v1/mail/digest", req)
}

// SendAlert sends an immediate alert email for a single notification
func (c *MailerClient) SendAlert(ctx context.Context, contact model.UserContact, n model.Notification) error {
	req := alertMailRequest{
		UserID:    contact.UserID,
		Email:     contact.Email,
		Username:  contact.Username,
		Title:     n.Title,
		Body:      n.Body,
		Priority:  string(n.Priority),
		ActionURL: n.ActionURL,
	}
	return c.post(ctx, "/api/v1/mail/notification", req)
}

// post sends a JSON request, retrying 5xx and transport errors with
// exponential backoff. 4xx responses are permanent failures.
func (c *MailerClient) post(ctx context.Context, path string, body interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	url := c.baseURL + path
	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Service-Key", c.serviceKey)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode < 300:
			return nil
		case resp.StatusCode >= 500:
			return fmt.Errorf("mailer service returned status code %d", resp.StatusCode)
		default:
			return backoff.Permanent(fmt.Errorf("mailer service returned status code %d", resp.StatusCode))
		}
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), c.maxRetries), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		c.logger.Error("Mailer request failed",
			zap.Error(err),
			zap.String("url", url))
		return err
	}

	return nil
}
