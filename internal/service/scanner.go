package service

import (
	"fmt"
	"math"
	"time"
)

// Notification types produced by the deadline scanners. The type string
// is part of the deduplication key.
const (
	TypeActivityDueSoon   = "activity_due_soon"
	TypeSurveyClosingSoon = "survey_closing_soon"
)

// ScanResult summarizes one scanner invocation
type ScanResult struct {
	Scanned                int `json:"scanned"`
	Created                int `json:"created"`
	SkippedAlreadyNotified int `json:"skipped_already_notified"`
	Failed                 int `json:"failed"`
}

// remainingHours rounds a remaining duration up to whole hours
func remainingHours(remaining time.Duration) int {
	return int(math.Ceil(remaining.Hours()))
}

// activityDueBody words the activity deadline message by remaining-time
// bucket and risk sub-state
func activityDueBody(title string, remaining time.Duration, atRisk bool) string {
	var body string
	if remaining <= time.Hour {
		body = fmt.Sprintf("%q is due in less than an hour.", title)
	} else {
		body = fmt.Sprintf("%q is due in about %d hours.", title, remainingHours(remaining))
	}

	if atRisk {
		body += " This activity is flagged at risk."
	}
	return body
}

// surveyClosingBody words the survey deadline message by remaining-time
// bucket, mentioning how many invitees are still pending
func surveyClosingBody(title string, remaining, horizon time.Duration, pending int) string {
	var body string
	if remaining <= time.Hour {
		body = fmt.Sprintf("%q closes in less than an hour.", title)
	} else {
		body = fmt.Sprintf("%q closes within %d hours.", title, remainingHours(horizon))
	}

	if pending == 1 {
		body += " You have not responded yet."
	} else {
		body += fmt.Sprintf(" %d invitees have not responded yet.", pending)
	}
	return body
}
