package repository

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/yourorg/notification-engine/internal/model"
)

func TestPreferenceRepository_DigestCandidates(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()

	repo := NewPreferenceRepository(db, zap.NewNop())
	columns := []string{"user_id", "email", "username", "notification_settings"}

	t.Run("filters by variant and skips malformed payloads", func(t *testing.T) {
		rows := sqlmock.NewRows(columns).
			AddRow(int64(1), "daily@example.com", "daily-user", []byte(`{"digest_enabled":true,"frequency":"daily"}`)).
			AddRow(int64(2), "weekly@example.com", "weekly-user", []byte(`{"digest_enabled":true,"frequency":"weekly"}`)).
			AddRow(int64(3), "off@example.com", "off-user", []byte(`{"digest_enabled":false}`)).
			AddRow(int64(4), "broken@example.com", "broken-user", []byte(`{"frequency":`)).
			AddRow(int64(5), "default@example.com", "default-user", nil)
		mock.ExpectQuery(`SELECT u.id AS user_id`).WillReturnRows(rows)

		candidates, err := repo.DigestCandidates(context.Background(), model.DigestDaily)
		require.NoError(t, err)

		// Daily opt-in, plus the user with no stored payload (defaults to
		// daily). The weekly, disabled, and malformed users drop out.
		require.Len(t, candidates, 2)
		assert.Equal(t, int64(1), candidates[0].Contact.UserID)
		assert.Equal(t, int64(5), candidates[1].Contact.UserID)
		assert.Equal(t, model.FrequencyDaily, candidates[1].Preferences.Frequency)
	})

	t.Run("weekly variant picks the weekly user", func(t *testing.T) {
		rows := sqlmock.NewRows(columns).
			AddRow(int64(1), "daily@example.com", "daily-user", []byte(`{"digest_enabled":true,"frequency":"daily"}`)).
			AddRow(int64(2), "weekly@example.com", "weekly-user", []byte(`{"digest_enabled":true,"frequency":"weekly","day":"friday"}`))
		mock.ExpectQuery(`SELECT u.id AS user_id`).WillReturnRows(rows)

		candidates, err := repo.DigestCandidates(context.Background(), model.DigestWeekly)
		require.NoError(t, err)
		require.Len(t, candidates, 1)
		assert.Equal(t, int64(2), candidates[0].Contact.UserID)
		assert.Equal(t, "friday", candidates[0].Preferences.Day)
	})

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPreferenceRepository_ContactByUserID(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()

	repo := NewPreferenceRepository(db, zap.NewNop())

	t.Run("active user", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{"user_id", "email", "username"}).
			AddRow(int64(1), "user@example.com", "user")
		mock.ExpectQuery(`SELECT id AS user_id`).
			WithArgs(int64(1)).
			WillReturnRows(rows)

		contact, err := repo.ContactByUserID(context.Background(), 1)
		require.NoError(t, err)
		require.NotNil(t, contact)
		assert.Equal(t, "user@example.com", contact.Email)
	})

	t.Run("missing or inactive user yields nil", func(t *testing.T) {
		mock.ExpectQuery(`SELECT id AS user_id`).
			WithArgs(int64(2)).
			WillReturnRows(sqlmock.NewRows([]string{"user_id"}))

		contact, err := repo.ContactByUserID(context.Background(), 2)
		require.NoError(t, err)
		assert.Nil(t, contact)
	})

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPreferenceRepository_PreferencesByUserID(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()

	repo := NewPreferenceRepository(db, zap.NewNop())

	t.Run("stored payload is parsed", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{"notification_settings"}).
			AddRow([]byte(`{"digest_enabled":true,"frequency":"weekly","time":"17:00","day":"friday"}`))
		mock.ExpectQuery(`SELECT notification_settings FROM user_preferences`).
			WithArgs(int64(1)).
			WillReturnRows(rows)

		prefs, err := repo.PreferencesByUserID(context.Background(), 1)
		require.NoError(t, err)
		assert.Equal(t, model.FrequencyWeekly, prefs.Frequency)
		assert.Equal(t, "17:00", prefs.Time)
	})

	t.Run("no stored payload yields defaults", func(t *testing.T) {
		mock.ExpectQuery(`SELECT notification_settings FROM user_preferences`).
			WithArgs(int64(2)).
			WillReturnRows(sqlmock.NewRows([]string{"notification_settings"}))

		prefs, err := repo.PreferencesByUserID(context.Background(), 2)
		require.NoError(t, err)
		assert.Equal(t, model.DefaultPreferences(), prefs)
	})

	require.NoError(t, mock.ExpectationsWereMet())
}
