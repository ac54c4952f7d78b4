package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/yourorg/notification-engine/internal/model"
)

// SurveyRepository reads surveys and their pending deliveries for the
// survey deadline scanner
type SurveyRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// NewSurveyRepository creates a new survey repository
func NewSurveyRepository(db *sqlx.DB, logger *zap.Logger) *SurveyRepository {
	return &SurveyRepository{
		db:     db,
		logger: logger,
	}
}

// ClosingWithin retrieves published surveys closing in (from, to], with
// the users whose deliveries are still pending attached
func (r *SurveyRepository) ClosingWithin(ctx context.Context, from, to time.Time) ([]model.Survey, error) {
	query := `
		SELECT id, title, closes_at, status
		FROM surveys
		WHERE closes_at > $1 AND closes_at <= $2
		  AND status = 'published'
		ORDER BY closes_at`

	var surveys []model.Survey
	if err := r.db.SelectContext(ctx, &surveys, query, from, to); err != nil {
		r.logger.Error("Failed to query surveys closing soon", zap.Error(err))
		return nil, err
	}

	for i := range surveys {
		pending, err := r.pendingRecipientIDs(ctx, surveys[i].ID)
		if err != nil {
			r.logger.Warn("Failed to load pending survey recipients",
				zap.Error(err),
				zap.Int64("survey_id", surveys[i].ID))
			continue
		}
		surveys[i].PendingRecipientIDs = pending
	}

	return surveys, nil
}

func (r *SurveyRepository) pendingRecipientIDs(ctx context.Context, surveyID int64) ([]int64, error) {
	query := `
		SELECT user_id FROM survey_deliveries
		WHERE survey_id = $1 AND completed_at IS NULL AND user_id IS NOT NULL`

	var ids []int64
	if err := r.db.SelectContext(ctx, &ids, query, surveyID); err != nil {
		return nil, err
	}

	return ids, nil
}
