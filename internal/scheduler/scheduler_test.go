package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestScheduler_Register(t *testing.T) {
	s := New(zap.NewNop())

	s.Register(Job{Name: "a", Interval: time.Minute, Run: func(context.Context) error { return nil }})
	s.Register(Job{Name: "b", Interval: time.Minute, Run: func(context.Context) error { return nil }})
	assert.Equal(t, []string{"a", "b"}, s.JobNames())

	// Re-registering replaces the job without duplicating the name
	s.Register(Job{Name: "a", Interval: time.Hour, Run: func(context.Context) error { return nil }})
	assert.Equal(t, []string{"a", "b"}, s.JobNames())
}

func TestScheduler_RunJob(t *testing.T) {
	s := New(zap.NewNop())

	t.Run("unknown job", func(t *testing.T) {
		err := s.RunJob(context.Background(), "missing")
		assert.Error(t, err)
	})

	t.Run("runs the job and returns its error", func(t *testing.T) {
		ran := 0
		s.Register(Job{Name: "ok", Interval: time.Minute, Run: func(context.Context) error {
			ran++
			return nil
		}})
		s.Register(Job{Name: "bad", Interval: time.Minute, Run: func(context.Context) error {
			return errors.New("job exploded")
		}})

		require.NoError(t, s.RunJob(context.Background(), "ok"))
		assert.Equal(t, 1, ran)

		err := s.RunJob(context.Background(), "bad")
		assert.EqualError(t, err, "job exploded")
	})
}

func TestScheduler_Start(t *testing.T) {
	s := New(zap.NewNop())

	ticks := make(chan struct{}, 10)
	s.Register(Job{Name: "tick", Interval: 10 * time.Millisecond, Run: func(context.Context) error {
		select {
		case ticks <- struct{}{}:
		default:
		}
		return nil
	}})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.Start(ctx)
	}()

	// At least one tick fires, then cancellation stops the loop
	select {
	case <-ticks:
	case <-time.After(time.Second):
		t.Fatal("job never ticked")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop on cancel")
	}
}
