package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrNotificationNotFound is returned when a notification does not exist
// or belongs to another user
var ErrNotificationNotFound = errors.New("notification not found")

// Status represents the lifecycle state of a notification
type Status string

const (
	StatusUnread    Status = "unread"
	StatusRead      Status = "read"
	StatusSnoozed   Status = "snoozed"
	StatusDismissed Status = "dismissed"
	StatusResolved  Status = "resolved"
)

// Priority represents how prominently a notification should surface
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Category groups notifications by the domain that produced them
type Category string

const (
	CategorySurvey        Category = "survey"
	CategoryCollection    Category = "collection"
	CategoryCourse        Category = "course"
	CategoryReport        Category = "report"
	CategoryWorkflowAlert Category = "workflow_alert"
	CategoryStrategy      Category = "strategy"
	CategorySystem        Category = "system"
)

// SubjectKind identifies the domain entity type a notification points at
type SubjectKind string

const (
	SubjectActivity SubjectKind = "activity"
	SubjectSurvey   SubjectKind = "survey"
)

// Subject is a typed reference to the entity that triggered a notification.
// The kind/id pair is part of the deduplication key.
type Subject struct {
	Kind SubjectKind
	ID   int64
}

// String formats a subject for log fields
func (s Subject) String() string {
	return fmt.Sprintf("%s:%d", s.Kind, s.ID)
}

// IsZero reports whether the subject reference is unset
func (s Subject) IsZero() bool {
	return s.Kind == "" && s.ID == 0
}

// Notification represents a single notification record
type Notification struct {
	ID             uuid.UUID       `json:"id" db:"id"`
	UserID         int64           `json:"user_id" db:"user_id"`
	Category       Category        `json:"category" db:"category"`
	Type           string          `json:"type" db:"type"`
	Status         Status          `json:"status" db:"status"`
	Priority       Priority        `json:"priority" db:"priority"`
	Title          string          `json:"title" db:"title"`
	Body           string          `json:"body" db:"body"`
	ActionURL      string          `json:"action_url,omitempty" db:"action_url"`
	ActionLabel    string          `json:"action_label,omitempty" db:"action_label"`
	Icon           string          `json:"icon,omitempty" db:"icon"`
	NotifiableType SubjectKind     `json:"notifiable_type,omitempty" db:"notifiable_type"`
	NotifiableID   int64           `json:"notifiable_id,omitempty" db:"notifiable_id"`
	Metadata       json.RawMessage `json:"metadata,omitempty" db:"metadata"`
	ExpiresAt      *time.Time      `json:"expires_at,omitempty" db:"expires_at"`
	SnoozedUntil   *time.Time      `json:"snoozed_until,omitempty" db:"snoozed_until"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at" db:"updated_at"`
	ReadAt         *time.Time      `json:"read_at,omitempty" db:"read_at"`
	DismissedAt    *time.Time      `json:"dismissed_at,omitempty" db:"dismissed_at"`
}

// Subject returns the typed subject reference of the notification
func (n *Notification) Subject() Subject {
	return Subject{Kind: n.NotifiableType, ID: n.NotifiableID}
}

// transitions encodes the status machine. Terminal states have no entries;
// snoozed -> unread is the single permitted cycle.
var transitions = map[Status][]Status{
	StatusUnread:  {StatusRead, StatusSnoozed, StatusDismissed, StatusResolved},
	StatusRead:    {StatusSnoozed, StatusDismissed, StatusResolved},
	StatusSnoozed: {StatusUnread, StatusDismissed, StatusResolved},
}

// CanTransition reports whether a status change is permitted
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ValidStatus reports whether s is a known status value
func ValidStatus(s Status) bool {
	switch s {
	case StatusUnread, StatusRead, StatusSnoozed, StatusDismissed, StatusResolved:
		return true
	}
	return false
}

// ValidPriority reports whether p is a known priority value
func ValidPriority(p Priority) bool {
	switch p {
	case PriorityLow, PriorityNormal, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// PriorityRank maps priority to a sort rank, urgent first
func PriorityRank(p Priority) int {
	switch p {
	case PriorityUrgent:
		return 0
	case PriorityHigh:
		return 1
	case PriorityNormal:
		return 2
	default:
		return 3
	}
}
