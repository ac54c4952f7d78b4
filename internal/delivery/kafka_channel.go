package delivery

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/yourorg/notification-engine/internal/model"
)

// KafkaChannel publishes created notifications to a Kafka topic. Push
// and websocket frontends consume this topic; the engine only produces.
type KafkaChannel struct {
	writer *kafka.Writer
	logger *zap.Logger
}

// NewKafkaChannel creates a Kafka delivery channel for the given brokers
// and topic
func NewKafkaChannel(brokers []string, topic string, logger *zap.Logger) *KafkaChannel {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchSize:    100,
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
	}

	return &KafkaChannel{
		writer: writer,
		logger: logger,
	}
}

// notificationEvent is the wire shape published per notification
type notificationEvent struct {
	ID        string         `json:"id"`
	UserID    int64          `json:"user_id"`
	Category  model.Category `json:"category"`
	Type      string         `json:"type"`
	Priority  model.Priority `json:"priority"`
	Title     string         `json:"title"`
	Body      string         `json:"body"`
	ActionURL string         `json:"action_url,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// Name identifies the channel in delivery logs
func (c *KafkaChannel) Name() string {
	return "kafka"
}

// Deliver publishes one notification event, keyed by user so a consumer
// sees one user's notifications in order
func (c *KafkaChannel) Deliver(ctx context.Context, n model.Notification) error {
	event := notificationEvent{
		ID:        n.ID.String(),
		UserID:    n.UserID,
		Category:  n.Category,
		Type:      n.Type,
		Priority:  n.Priority,
		Title:     n.Title,
		Body:      n.Body,
		ActionURL: n.ActionURL,
		CreatedAt: n.CreatedAt,
	}

	value, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return c.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(strconv.FormatInt(n.UserID, 10)),
		Value: value,
		Time:  time.Now(),
	})
}

// Close releases the underlying Kafka writer
func (c *KafkaChannel) Close() error {
	return c.writer.Close()
}
