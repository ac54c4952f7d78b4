package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/yourorg/notification-engine/internal/model"
)

// PreferenceRepository reads user contact data and notification
// preferences. The engine never writes preferences; the upstream app owns
// them.
type PreferenceRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// NewPreferenceRepository creates a new preference repository
func NewPreferenceRepository(db *sqlx.DB, logger *zap.Logger) *PreferenceRepository {
	return &PreferenceRepository{
		db:     db,
		logger: logger,
	}
}

type preferenceRow struct {
	UserID   int64           `db:"user_id"`
	Email    string          `db:"email"`
	Username string          `db:"username"`
	Settings []byte `db:"notification_settings"`
}

// DigestCandidates retrieves every active user with parsed notification
// preferences that opt in to the given digest variant. Users with a
// malformed preference payload are logged and skipped, never fatal.
func (r *PreferenceRepository) DigestCandidates(ctx context.Context, variant model.DigestType) ([]model.DigestCandidate, error) {
	query := `
		SELECT u.id AS user_id, u.email, u.username, p.notification_settings
		FROM users u
		LEFT JOIN user_preferences p ON p.user_id = u.id
		WHERE u.is_active = TRUE`

	var rows []preferenceRow
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		r.logger.Error("Failed to query digest candidates", zap.Error(err))
		return nil, err
	}

	var candidates []model.DigestCandidate
	for _, row := range rows {
		prefs, err := model.ParsePreferences(row.Settings)
		if err != nil {
			r.logger.Warn("Skipping user with malformed notification preferences",
				zap.Error(err),
				zap.Int64("user_id", row.UserID))
			continue
		}

		if !prefs.WantsDigest(variant) {
			continue
		}

		candidates = append(candidates, model.DigestCandidate{
			Contact: model.UserContact{
				UserID:   row.UserID,
				Email:    row.Email,
				Username: row.Username,
			},
			Preferences: prefs,
		})
	}

	return candidates, nil
}

// ContactByUserID retrieves a single user's contact data, or nil when the
// user does not exist or is inactive
func (r *PreferenceRepository) ContactByUserID(ctx context.Context, userID int64) (*model.UserContact, error) {
	query := `SELECT id AS user_id, email, username FROM users WHERE id = $1 AND is_active = TRUE`

	var contact model.UserContact
	if err := r.db.GetContext(ctx, &contact, query, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error("Failed to get user contact", zap.Error(err), zap.Int64("user_id", userID))
		return nil, err
	}

	return &contact, nil
}

// PreferencesByUserID retrieves one user's parsed notification
// preferences, applying defaults when none are stored
func (r *PreferenceRepository) PreferencesByUserID(ctx context.Context, userID int64) (model.NotificationPreferences, error) {
	query := `SELECT notification_settings FROM user_preferences WHERE user_id = $1`

	var raw json.RawMessage
	if err := r.db.GetContext(ctx, &raw, query, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.DefaultPreferences(), nil
		}
		r.logger.Error("Failed to get notification preferences", zap.Error(err), zap.Int64("user_id", userID))
		return model.NotificationPreferences{}, err
	}

	return model.ParsePreferences(raw)
}
