package model

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// DigestFrequency controls which digest variants a user receives
type DigestFrequency string

const (
	FrequencyDaily  DigestFrequency = "daily"
	FrequencyWeekly DigestFrequency = "weekly"
	FrequencyBoth   DigestFrequency = "both"
)

// NotificationPreferences is the typed form of the notification_settings
// payload stored per user. The raw payload is loosely structured; the
// parser below is the only place that touches it.
type NotificationPreferences struct {
	DigestEnabled bool            `json:"digest_enabled"`
	Frequency     DigestFrequency `json:"frequency" validate:"omitempty,oneof=daily weekly both"`
	Time          string          `json:"time" validate:"omitempty,len=5"`
	Day           string          `json:"day" validate:"omitempty,oneof=monday tuesday wednesday thursday friday saturday sunday"`
}

var prefValidator = validator.New()

// DefaultPreferences returns the preferences applied when a user has no
// stored notification_settings payload.
func DefaultPreferences() NotificationPreferences {
	return NotificationPreferences{
		DigestEnabled: true,
		Frequency:     FrequencyDaily,
		Time:          "08:00",
		Day:           "monday",
	}
}

// ParsePreferences decodes and validates a raw notification_settings
// payload. A nil or empty payload yields the defaults; a malformed one
// returns an error so callers can log and skip the user.
func ParsePreferences(raw json.RawMessage) (NotificationPreferences, error) {
	prefs := DefaultPreferences()
	if len(raw) == 0 || string(raw) == "null" {
		return prefs, nil
	}

	if err := json.Unmarshal(raw, &prefs); err != nil {
		return NotificationPreferences{}, fmt.Errorf("failed to decode notification preferences: %w", err)
	}

	if err := prefValidator.Struct(prefs); err != nil {
		return NotificationPreferences{}, fmt.Errorf("invalid notification preferences: %w", err)
	}

	if prefs.Frequency == "" {
		prefs.Frequency = FrequencyDaily
	}
	if prefs.Time == "" {
		prefs.Time = "08:00"
	}
	if prefs.Day == "" {
		prefs.Day = "monday"
	}

	if _, err := prefs.MinuteOfDay(); err != nil {
		return NotificationPreferences{}, err
	}

	return prefs, nil
}

// WantsDigest reports whether the preferences opt in to the given variant
func (p NotificationPreferences) WantsDigest(variant DigestType) bool {
	if !p.DigestEnabled {
		return false
	}
	switch variant {
	case DigestDaily:
		return p.Frequency == FrequencyDaily || p.Frequency == FrequencyBoth
	case DigestWeekly:
		return p.Frequency == FrequencyWeekly || p.Frequency == FrequencyBoth
	}
	return false
}

// MinuteOfDay converts the preferred HH:MM time to minutes since midnight
func (p NotificationPreferences) MinuteOfDay() (int, error) {
	parts := strings.SplitN(p.Time, ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid preferred time %q", p.Time)
	}

	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, fmt.Errorf("invalid preferred time %q", p.Time)
	}

	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("invalid preferred time %q", p.Time)
	}

	return hour*60 + minute, nil
}

// MatchesDay reports whether the preferred weekly day matches the given time
func (p NotificationPreferences) MatchesDay(t time.Time) bool {
	return strings.EqualFold(p.Day, t.Weekday().String())
}

// UserContact bundles a user with the contact data delivery needs
type UserContact struct {
	UserID   int64  `db:"user_id"`
	Email    string `db:"email"`
	Username string `db:"username"`
}

// DigestCandidate is a user with parsed digest preferences, produced by
// the preference source for the digest scheduler.
type DigestCandidate struct {
	Contact     UserContact
	Preferences NotificationPreferences
}
