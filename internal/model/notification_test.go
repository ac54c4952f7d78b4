package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name    string
		from    Status
		to      Status
		allowed bool
	}{
		{"unread to read", StatusUnread, StatusRead, true},
		{"unread to snoozed", StatusUnread, StatusSnoozed, true},
		{"unread to dismissed", StatusUnread, StatusDismissed, true},
		{"unread to resolved", StatusUnread, StatusResolved, true},
		{"read to snoozed", StatusRead, StatusSnoozed, true},
		{"read to dismissed", StatusRead, StatusDismissed, true},
		{"read to resolved", StatusRead, StatusResolved, true},
		{"read back to unread", StatusRead, StatusUnread, false},
		{"snoozed wakes to unread", StatusSnoozed, StatusUnread, true},
		{"snoozed to dismissed", StatusSnoozed, StatusDismissed, true},
		{"snoozed to resolved", StatusSnoozed, StatusResolved, true},
		{"snoozed directly to read", StatusSnoozed, StatusRead, false},
		{"dismissed is terminal", StatusDismissed, StatusUnread, false},
		{"resolved is terminal", StatusResolved, StatusDismissed, false},
		{"same status is not a transition", StatusUnread, StatusUnread, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.allowed, CanTransition(tt.from, tt.to))
		})
	}
}

func TestValidStatus(t *testing.T) {
	assert.True(t, ValidStatus(StatusUnread))
	assert.True(t, ValidStatus(StatusResolved))
	assert.False(t, ValidStatus(Status("archived")))
	assert.False(t, ValidStatus(Status("")))
}

func TestValidPriority(t *testing.T) {
	assert.True(t, ValidPriority(PriorityLow))
	assert.True(t, ValidPriority(PriorityUrgent))
	assert.False(t, ValidPriority(Priority("critical")))
}

func TestPriorityRank(t *testing.T) {
	assert.Less(t, PriorityRank(PriorityUrgent), PriorityRank(PriorityHigh))
	assert.Less(t, PriorityRank(PriorityHigh), PriorityRank(PriorityNormal))
	assert.Less(t, PriorityRank(PriorityNormal), PriorityRank(PriorityLow))
	assert.Equal(t, PriorityRank(PriorityLow), PriorityRank(Priority("unknown")))
}

func TestSubject(t *testing.T) {
	s := Subject{Kind: SubjectActivity, ID: 42}
	assert.Equal(t, "activity:42", s.String())
	assert.False(t, s.IsZero())
	assert.True(t, Subject{}.IsZero())
}
