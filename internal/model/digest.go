package model

import (
	"time"

	"github.com/google/uuid"
)

// DigestType identifies the digest cadence variant
type DigestType string

const (
	DigestDaily  DigestType = "daily"
	DigestWeekly DigestType = "weekly"
)

// DigestRecord captures one successful digest send. It is the durable
// state the re-send guard and the "since last digest" window read from.
type DigestRecord struct {
	ID                uuid.UUID   `json:"id" db:"id"`
	UserID            int64       `json:"user_id" db:"user_id"`
	DigestType        DigestType  `json:"digest_type" db:"digest_type"`
	NotificationIDs   []uuid.UUID `json:"notification_ids" db:"-"`
	NotificationCount int         `json:"notification_count" db:"notification_count"`
	SentAt            time.Time   `json:"sent_at" db:"sent_at"`
}

// DigestSection groups the notifications of one category inside a digest
type DigestSection struct {
	Category      Category       `json:"category"`
	Notifications []Notification `json:"notifications"`
}

// DigestPayload is the rendered content handed to the mail collaborator
type DigestPayload struct {
	DigestType DigestType      `json:"digest_type"`
	Since      time.Time       `json:"since"`
	Sections   []DigestSection `json:"sections"`
	Total      int             `json:"total"`
}
