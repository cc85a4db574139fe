package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BidyutOffice/cinescope/internal/testutil"
)

func newScheduler(t *testing.T) *Scheduler {
	t.Helper()
	s, err := New(testutil.NewTestLogger(t))
	require.NoError(t, err)
	return s
}

func TestRegisterTask_Validation(t *testing.T) {
	s := newScheduler(t)
	noop := func(context.Context) error { return nil }

	tests := []struct {
		name   string
		config TaskConfig
	}{
		{"missing id", TaskConfig{Interval: time.Minute, Func: noop}},
		{"missing func", TaskConfig{ID: "a", Interval: time.Minute}},
		{"no schedule", TaskConfig{ID: "a", Func: noop}},
		{"both schedules", TaskConfig{ID: "a", Cron: "* * * * *", Interval: time.Minute, Func: noop}},
		{"bad cron", TaskConfig{ID: "a", Cron: "not a cron", Func: noop}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, s.RegisterTask(tt.config))
		})
	}
}

func TestRegisterTask_Duplicate(t *testing.T) {
	s := newScheduler(t)
	cfg := TaskConfig{ID: "dup", Interval: time.Hour, Func: func(context.Context) error { return nil }}

	require.NoError(t, s.RegisterTask(cfg))
	assert.ErrorIs(t, s.RegisterTask(cfg), ErrTaskRegistered)
}

func TestRegisterTask_NameDefaultsToID(t *testing.T) {
	s := newScheduler(t)
	require.NoError(t, s.RegisterTask(TaskConfig{
		ID:       "unnamed",
		Interval: time.Hour,
		Func:     func(context.Context) error { return nil },
	}))

	info, err := s.GetTask("unnamed")
	require.NoError(t, err)
	assert.Equal(t, "unnamed", info.Name)
	require.NoError(t, s.Stop())
}

func TestRunNow(t *testing.T) {
	s := newScheduler(t)
	done := make(chan struct{}, 1)

	require.NoError(t, s.RegisterTask(TaskConfig{
		ID:       "fail",
		Name:     "Failing",
		Interval: time.Hour,
		Func: func(context.Context) error {
			done <- struct{}{}
			return errors.New("boom")
		},
	}))

	require.NoError(t, s.RunNow("fail"))
	testutil.Receive(t, done, time.Second)

	require.Eventually(t, func() bool {
		info, err := s.GetTask("fail")
		return err == nil && !info.Running && info.LastRun != nil
	}, time.Second, 5*time.Millisecond)

	info, err := s.GetTask("fail")
	require.NoError(t, err)
	assert.Equal(t, "boom", info.LastError)
	assert.Equal(t, "1h0m0s", info.Interval)

	assert.ErrorIs(t, s.RunNow("missing"), ErrTaskNotFound)
	require.NoError(t, s.Stop())
}

func TestRunNow_AlreadyRunning(t *testing.T) {
	s := newScheduler(t)
	release := make(chan struct{})
	started := make(chan struct{}, 1)

	require.NoError(t, s.RegisterTask(TaskConfig{
		ID:       "slow",
		Interval: time.Hour,
		Func: func(context.Context) error {
			started <- struct{}{}
			<-release
			return nil
		},
	}))

	require.NoError(t, s.RunNow("slow"))
	testutil.Receive(t, started, time.Second)
	assert.ErrorIs(t, s.RunNow("slow"), ErrTaskRunning)

	close(release)
	require.NoError(t, s.Stop())
	assert.ErrorIs(t, s.RunNow("slow"), ErrStopped)
}

func TestStart_RunsIntervalAndStartupTasks(t *testing.T) {
	s := newScheduler(t)
	var runs atomic.Int32

	require.NoError(t, s.RegisterTask(TaskConfig{
		ID:         "tick",
		Interval:   20 * time.Millisecond,
		RunOnStart: true,
		Func: func(context.Context) error {
			runs.Add(1)
			return nil
		},
	}))

	s.Start()
	require.Eventually(t, func() bool { return runs.Load() >= 2 }, 2*time.Second, 5*time.Millisecond)
	require.NoError(t, s.Stop())
}

func TestStop_CancelsTaskContext(t *testing.T) {
	s := newScheduler(t)
	started := make(chan struct{}, 1)
	var cancelled atomic.Bool

	require.NoError(t, s.RegisterTask(TaskConfig{
		ID:       "wait",
		Interval: time.Hour,
		Func: func(ctx context.Context) error {
			started <- struct{}{}
			<-ctx.Done()
			cancelled.Store(true)
			return ctx.Err()
		},
	}))

	require.NoError(t, s.RunNow("wait"))
	testutil.Receive(t, started, time.Second)
	require.NoError(t, s.Stop())
	assert.True(t, cancelled.Load())
}

func TestListTasks_Sorted(t *testing.T) {
	s := newScheduler(t)
	noop := func(context.Context) error { return nil }

	require.NoError(t, s.RegisterTask(TaskConfig{ID: "b", Cron: "0 2 * * *", Func: noop}))
	require.NoError(t, s.RegisterTask(TaskConfig{ID: "a", Interval: time.Minute, Func: noop}))

	tasks := s.ListTasks()
	require.Len(t, tasks, 2)
	assert.Equal(t, "a", tasks[0].ID)
	assert.Equal(t, "b", tasks[1].ID)
	assert.Equal(t, "0 2 * * *", tasks[1].Cron)
	assert.Empty(t, tasks[1].Interval)
}
