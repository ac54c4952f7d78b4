package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/yourorg/notification-engine/internal/model"
)

// DigestRepository handles database operations for digest send records
type DigestRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// NewDigestRepository creates a new digest repository
func NewDigestRepository(db *sqlx.DB, logger *zap.Logger) *DigestRepository {
	return &DigestRepository{
		db:     db,
		logger: logger,
	}
}

// digestRow is the storage shape; notification IDs are kept as a JSON
// array so the exact digested set survives for auditing.
type digestRow struct {
	ID                uuid.UUID        `db:"id"`
	UserID            int64            `db:"user_id"`
	DigestType        model.DigestType `db:"digest_type"`
	NotificationIDs   []byte           `db:"notification_ids"`
	NotificationCount int              `db:"notification_count"`
	SentAt            time.Time        `db:"sent_at"`
}

func (row digestRow) toRecord() (*model.DigestRecord, error) {
	record := &model.DigestRecord{
		ID:                row.ID,
		UserID:            row.UserID,
		DigestType:        row.DigestType,
		NotificationCount: row.NotificationCount,
		SentAt:            row.SentAt,
	}
	if len(row.NotificationIDs) > 0 {
		if err := json.Unmarshal(row.NotificationIDs, &record.NotificationIDs); err != nil {
			return nil, err
		}
	}
	return record, nil
}

// Create records one successful digest send
func (r *DigestRepository) Create(ctx context.Context, record *model.DigestRecord) error {
	ids, err := json.Marshal(record.NotificationIDs)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO notification_digests (id, user_id, digest_type, notification_ids, notification_count, sent_at)
		VALUES (:id, :user_id, :digest_type, :notification_ids, :notification_count, :sent_at)`

	row := digestRow{
		ID:                record.ID,
		UserID:            record.UserID,
		DigestType:        record.DigestType,
		NotificationIDs:   ids,
		NotificationCount: record.NotificationCount,
		SentAt:            record.SentAt,
	}

	if _, err := r.db.NamedExecContext(ctx, query, row); err != nil {
		r.logger.Error("Failed to create digest record",
			zap.Error(err),
			zap.Int64("user_id", record.UserID),
			zap.String("digest_type", string(record.DigestType)))
		return err
	}

	return nil
}

// LastForUser retrieves the most recent digest record of a variant for a
// user, or nil when the user has never received one
func (r *DigestRepository) LastForUser(ctx context.Context, userID int64, digestType model.DigestType) (*model.DigestRecord, error) {
	query := `
		SELECT * FROM notification_digests
		WHERE user_id = $1 AND digest_type = $2
		ORDER BY sent_at DESC
		LIMIT 1`

	var row digestRow
	if err := r.db.GetContext(ctx, &row, query, userID, digestType); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error("Failed to get last digest",
			zap.Error(err),
			zap.Int64("user_id", userID),
			zap.String("digest_type", string(digestType)))
		return nil, err
	}

	return row.toRecord()
}

// SentSince reports whether a digest of a variant was sent to the user at
// or after the given time. This backs the re-send guard.
func (r *DigestRepository) SentSince(ctx context.Context, userID int64, digestType model.DigestType, since time.Time) (bool, error) {
	query := `
		SELECT COUNT(*) FROM notification_digests
		WHERE user_id = $1 AND digest_type = $2 AND sent_at >= $3`

	var count int
	if err := r.db.GetContext(ctx, &count, query, userID, digestType, since); err != nil {
		r.logger.Error("Failed to check digest re-send guard",
			zap.Error(err),
			zap.Int64("user_id", userID),
			zap.String("digest_type", string(digestType)))
		return false, err
	}

	return count > 0, nil
}
