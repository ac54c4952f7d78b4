package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/yourorg/notification-engine/internal/model"
)

// ActivityRepository reads strategic-plan activities for the deadline
// scanner. The activities table is owned by the planning domain; only
// deadline-relevant columns are read here.
type ActivityRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// NewActivityRepository creates a new activity repository
func NewActivityRepository(db *sqlx.DB, logger *zap.Logger) *ActivityRepository {
	return &ActivityRepository{
		db:     db,
		logger: logger,
	}
}

// DueWithin retrieves open activities whose deadline falls in (from, to],
// with collaborator lists attached
func (r *ActivityRepository) DueWithin(ctx context.Context, from, to time.Time) ([]model.Activity, error) {
	query := `
		SELECT a.id, a.title, a.due_at, a.status, a.risk, a.assignee_id, p.owner_id AS plan_owner_id
		FROM activities a
		JOIN plans p ON p.id = a.plan_id
		WHERE a.due_at > $1 AND a.due_at <= $2
		  AND a.status NOT IN ('completed', 'cancelled')
		ORDER BY a.due_at`

	var activities []model.Activity
	if err := r.db.SelectContext(ctx, &activities, query, from, to); err != nil {
		r.logger.Error("Failed to query activities due soon", zap.Error(err))
		return nil, err
	}

	for i := range activities {
		collaborators, err := r.collaboratorIDs(ctx, activities[i].ID)
		if err != nil {
			// A missing collaborator list only narrows the target set;
			// the assignee and owner are still notified.
			r.logger.Warn("Failed to load activity collaborators",
				zap.Error(err),
				zap.Int64("activity_id", activities[i].ID))
			continue
		}
		activities[i].CollaboratorIDs = collaborators
	}

	return activities, nil
}

func (r *ActivityRepository) collaboratorIDs(ctx context.Context, activityID int64) ([]int64, error) {
	query := `SELECT user_id FROM activity_collaborators WHERE activity_id = $1`

	var ids []int64
	if err := r.db.SelectContext(ctx, &ids, query, activityID); err != nil {
		return nil, err
	}

	return ids, nil
}
