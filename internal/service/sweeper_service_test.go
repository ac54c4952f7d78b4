package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSweeperService_SweepExpired(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	t.Run("passes now through and returns the count", func(t *testing.T) {
		var gotNow time.Time
		store := &notificationStoreMock{
			sweepExpiredFn: func(_ context.Context, n time.Time) (int64, error) {
				gotNow = n
				return 7, nil
			},
		}
		svc := NewSweeperService(store, 90, testLogger())

		count, err := svc.SweepExpired(context.Background(), now)
		require.NoError(t, err)
		assert.Equal(t, int64(7), count)
		assert.Equal(t, now, gotNow)
	})

	t.Run("store error propagates", func(t *testing.T) {
		store := &notificationStoreMock{
			sweepExpiredFn: func(_ context.Context, _ time.Time) (int64, error) {
				return 0, errors.New("db down")
			},
		}
		svc := NewSweeperService(store, 90, testLogger())

		_, err := svc.SweepExpired(context.Background(), now)
		assert.Error(t, err)
	})
}

func TestSweeperService_SweepUnsnoozed(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	store := &notificationStoreMock{
		sweepUnsnoozedFn: func(_ context.Context, n time.Time) (int64, error) {
			assert.Equal(t, now, n)
			return 2, nil
		},
	}
	svc := NewSweeperService(store, 90, testLogger())

	count, err := svc.SweepUnsnoozed(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestSweeperService_SweepRetention(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	t.Run("cutoff is retention days before now", func(t *testing.T) {
		var gotCutoff time.Time
		store := &notificationStoreMock{
			deleteFinishedBeforeFn: func(_ context.Context, cutoff time.Time) (int64, error) {
				gotCutoff = cutoff
				return 12, nil
			},
		}
		svc := NewSweeperService(store, 90, testLogger())

		count, err := svc.SweepRetention(context.Background(), now)
		require.NoError(t, err)
		assert.Equal(t, int64(12), count)
		assert.Equal(t, now.AddDate(0, 0, -90), gotCutoff)
	})

	t.Run("an immediate second run deletes nothing", func(t *testing.T) {
		deleted := int64(12)
		store := &notificationStoreMock{
			deleteFinishedBeforeFn: func(_ context.Context, _ time.Time) (int64, error) {
				// The first pass consumed every eligible row
				d := deleted
				deleted = 0
				return d, nil
			},
		}
		svc := NewSweeperService(store, 90, testLogger())

		first, err := svc.SweepRetention(context.Background(), now)
		require.NoError(t, err)
		assert.Equal(t, int64(12), first)

		second, err := svc.SweepRetention(context.Background(), now)
		require.NoError(t, err)
		assert.Zero(t, second)
	})
}
