package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_RejectsBadTimezone(t *testing.T) {
	_, err := New("Mars/Olympus", time.Second)
	assert.Error(t, err)
}

func TestSchedule_ReplaceAndRemove(t *testing.T) {
	s, err := New("UTC", time.Second)
	require.NoError(t, err)
	noop := func(context.Context) error { return nil }

	require.NoError(t, s.Schedule("backup", "@daily", noop))
	_, ok := s.Next("backup")
	require.True(t, ok)

	require.NoError(t, s.Schedule("backup", "@hourly", noop))
	assert.Len(t, s.entries, 1)

	// an empty spec disables the job
	require.NoError(t, s.Schedule("backup", "", noop))
	_, ok = s.Next("backup")
	assert.False(t, ok)

	require.NoError(t, s.Schedule("refresh", "*/10 * * * *", noop))
	s.Remove("refresh")
	assert.Empty(t, s.entries)
}

func TestSchedule_Validation(t *testing.T) {
	s, err := New("", 0)
	require.NoError(t, err)

	assert.Error(t, s.Schedule("", "@daily", func(context.Context) error { return nil }))
	assert.Error(t, s.Schedule("x", "@daily", nil))
	assert.Error(t, s.Schedule("x", "not a spec", func(context.Context) error { return nil }))
}

func TestWrap_PassesDeadlineAndSurvivesFailures(t *testing.T) {
	s, err := New("UTC", 50*time.Millisecond)
	require.NoError(t, err)

	var calls atomic.Int32
	s.wrap("ok", func(ctx context.Context) error {
		_, hasDeadline := ctx.Deadline()
		assert.True(t, hasDeadline)
		calls.Add(1)
		return nil
	})()
	s.wrap("fails", func(context.Context) error {
		calls.Add(1)
		return errors.New("boom")
	})()
	s.wrap("panics", func(context.Context) error {
		calls.Add(1)
		panic("bad")
	})()

	assert.Equal(t, int32(3), calls.Load())
}

func TestStartStop(t *testing.T) {
	s, err := New("UTC", time.Second)
	require.NoError(t, err)

	var ran atomic.Bool
	// sub-second intervals are rounded up to one second by cron
	require.NoError(t, s.Schedule("tick", "@every 1s", func(context.Context) error {
		ran.Store(true)
		return nil
	}))
	s.Start()
	assert.Eventually(t, ran.Load, 3*time.Second, 10*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Stop(ctx)
}
