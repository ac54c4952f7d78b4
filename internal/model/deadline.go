package model

import "time"

// ActivityRisk is the urgency sub-state an activity carries while open
type ActivityRisk string

const (
	RiskOnTrack ActivityRisk = "on_track"
	RiskAtRisk  ActivityRisk = "at_risk"
	RiskOverdue ActivityRisk = "overdue"
)

// Activity is the slice of a strategic-plan activity the deadline scanner
// needs: the deadline, the open/handled state, and who to notify.
type Activity struct {
	ID              int64        `db:"id"`
	Title           string       `db:"title"`
	DueAt           time.Time    `db:"due_at"`
	Status          string       `db:"status"`
	Risk            ActivityRisk `db:"risk"`
	AssigneeID      *int64       `db:"assignee_id"`
	PlanOwnerID     *int64       `db:"plan_owner_id"`
	CollaboratorIDs []int64      `db:"-"`
}

// TargetUserIDs returns the deduplicated union of the assignee, the plan
// owner, and collaborators, with nil/zero entries filtered out.
func (a Activity) TargetUserIDs() []int64 {
	seen := make(map[int64]struct{})
	var targets []int64

	add := func(id int64) {
		if id == 0 {
			return
		}
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		targets = append(targets, id)
	}

	if a.AssigneeID != nil {
		add(*a.AssigneeID)
	}
	if a.PlanOwnerID != nil {
		add(*a.PlanOwnerID)
	}
	for _, id := range a.CollaboratorIDs {
		add(id)
	}

	return targets
}

// Survey is the slice of a survey the deadline scanner needs
type Survey struct {
	ID                  int64     `db:"id"`
	Title               string    `db:"title"`
	ClosesAt            time.Time `db:"closes_at"`
	Status              string    `db:"status"`
	PendingRecipientIDs []int64   `db:"-"`
}
