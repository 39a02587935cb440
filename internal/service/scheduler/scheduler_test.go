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

func TestRunsImmediatelyAndRepeats(t *testing.T) {
	var runs atomic.Int32
	s := New()
	require.NoError(t, s.Register(&Job{
		Name:     "crypto",
		Schedule: Every(10 * time.Millisecond),
		Handler: func(context.Context) error {
			runs.Add(1)
			return nil
		},
	}))
	s.Start()
	assert.Eventually(t, func() bool { return runs.Load() >= 3 }, time.Second, 5*time.Millisecond)
	s.Stop()

	st := s.Jobs()
	require.Len(t, st, 1)
	assert.Equal(t, "crypto", st[0].Name)
	assert.GreaterOrEqual(t, st[0].Runs, 3)
	assert.False(t, st[0].Running)
}

func TestSkipsTickWhileRunning(t *testing.T) {
	release := make(chan struct{})
	var started atomic.Int32
	var skips atomic.Int32

	s := New(WithSkipHook(func(job string) {
		assert.Equal(t, "forex", job)
		skips.Add(1)
	}))
	require.NoError(t, s.Register(&Job{
		Name:     "forex",
		Schedule: Every(5 * time.Millisecond),
		Handler: func(ctx context.Context) error {
			started.Add(1)
			<-release
			return nil
		},
	}))
	s.Start()

	assert.Eventually(t, func() bool { return skips.Load() >= 3 }, time.Second, 2*time.Millisecond)
	assert.Equal(t, int32(1), started.Load(), "overlapping run must not start")

	close(release)
	s.Stop()
	assert.GreaterOrEqual(t, s.Jobs()[0].Skipped, 3)
}

func TestPanicAndErrorAreRecorded(t *testing.T) {
	var calls atomic.Int32
	s := New()
	require.NoError(t, s.Register(&Job{
		Name:     "boom",
		Schedule: Every(time.Hour),
		Handler: func(context.Context) error {
			if calls.Add(1) == 1 {
				panic("kaboom")
			}
			return errors.New("provider down")
		},
	}))
	s.Start()
	assert.Eventually(t, func() bool { return s.Jobs()[0].Runs == 1 }, time.Second, 5*time.Millisecond)
	assert.Contains(t, s.Jobs()[0].LastErr, "kaboom")

	// scheduler survives and accepts manual runs
	require.NoError(t, s.Trigger("boom"))
	assert.Eventually(t, func() bool { return s.Jobs()[0].Runs == 2 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, "provider down", s.Jobs()[0].LastErr)
	s.Stop()
}

func TestTrigger(t *testing.T) {
	release := make(chan struct{})
	s := New()
	require.NoError(t, s.Register(&Job{
		Name:     "crypto",
		Schedule: Every(time.Hour),
		Handler: func(context.Context) error {
			<-release
			return nil
		},
	}))
	s.Start()

	assert.ErrorIs(t, s.Trigger("nope"), ErrUnknownJob)
	assert.Eventually(t, func() bool { return s.Jobs()[0].Running }, time.Second, time.Millisecond)
	assert.ErrorIs(t, s.Trigger("crypto"), ErrJobRunning)

	close(release)
	s.Stop()
}

func TestRunTimeout(t *testing.T) {
	done := make(chan error, 1)
	s := New(WithRunTimeout(10 * time.Millisecond))
	require.NoError(t, s.Register(&Job{
		Name:     "slow",
		Schedule: Every(time.Hour),
		Handler: func(ctx context.Context) error {
			<-ctx.Done()
			done <- ctx.Err()
			return ctx.Err()
		},
	}))
	s.Start()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	case <-time.After(time.Second):
		t.Fatal("run not cancelled")
	}
	s.Stop()
}

func TestRegisterValidation(t *testing.T) {
	s := New()
	h := func(context.Context) error { return nil }
	assert.Error(t, s.Register(&Job{Name: "", Schedule: Every(time.Second), Handler: h}))
	assert.Error(t, s.Register(&Job{Name: "x", Schedule: Every(0), Handler: h}))
	require.NoError(t, s.Register(&Job{Name: "x", Schedule: Every(time.Second), Handler: h}))
	assert.Error(t, s.Register(&Job{Name: "x", Schedule: Every(time.Second), Handler: h}))
}
