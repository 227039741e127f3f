package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reviewradar/review-radar/internal/core/domain"
)

func TestLoopStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	err := Loop(ctx, Config{
		Name:         "test",
		PollInterval: time.Millisecond,
		Process: func(ctx context.Context) error {
			calls++
			if calls >= 3 {
				cancel()
			}
			return nil
		},
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.GreaterOrEqual(t, calls, 3)
}

func TestLoopOnErrorStops(t *testing.T) {
	boom := errors.New("boom")

	err := Loop(context.Background(), Config{
		Name:         "test",
		PollInterval: time.Millisecond,
		Process: func(ctx context.Context) error {
			return boom
		},
		OnError: func(err error) bool {
			return false
		},
	})

	assert.ErrorIs(t, err, boom)
}

func TestLoopRunsPeriodicTasks(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	taskRuns := 0
	err := Loop(ctx, Config{
		Name:         "test",
		PollInterval: time.Millisecond,
		Process: func(ctx context.Context) error {
			if taskRuns > 0 {
				cancel()
			}
			return nil
		},
		PeriodicTasks: []PeriodicTask{
			{Name: "tick", Interval: time.Nanosecond, Run: func(ctx context.Context) { taskRuns++ }},
		},
	})

	require.Error(t, err)
	assert.Greater(t, taskRuns, 0)
}

func TestWaitReturnsImmediatelyForZero(t *testing.T) {
	start := time.Now()
	require.NoError(t, Wait(context.Background(), 0))
	assert.Less(t, time.Since(start), 50*time.Millisecond)
}

type fakeJobRepo struct {
	queue     []*domain.Job
	recovered int64
	pending   int
}

func (f *fakeJobRepo) ClaimPendingJob(ctx context.Context) (*domain.Job, error) {
	if len(f.queue) == 0 {
		return nil, nil
	}

	job := f.queue[0]
	f.queue = f.queue[1:]

	return job, nil
}

func (f *fakeJobRepo) RecoverStuckJobs(ctx context.Context, threshold time.Duration) (int64, error) {
	return f.recovered, nil
}

func (f *fakeJobRepo) CountPendingJobs(ctx context.Context) (int, error) {
	return f.pending, nil
}

type fakeProcessor struct {
	processed []int64
	err       error
}

func (f *fakeProcessor) ProcessJob(ctx context.Context, job *domain.Job) error {
	f.processed = append(f.processed, job.ID)
	return f.err
}

func TestJobWorkerDrainsQueue(t *testing.T) {
	logger := zerolog.Nop()
	repo := &fakeJobRepo{queue: []*domain.Job{{ID: 1}, {ID: 2}, {ID: 3}}}
	proc := &fakeProcessor{}

	w := NewJobWorker(repo, proc, time.Millisecond, time.Hour, &logger)

	require.NoError(t, w.drainPending(context.Background()))
	assert.Equal(t, []int64{1, 2, 3}, proc.processed)
	assert.Empty(t, repo.queue)
}

func TestJobWorkerContinuesAfterJobFailure(t *testing.T) {
	logger := zerolog.Nop()
	repo := &fakeJobRepo{queue: []*domain.Job{{ID: 1}, {ID: 2}}}
	proc := &fakeProcessor{err: errors.New("pipeline error")}

	w := NewJobWorker(repo, proc, time.Millisecond, time.Hour, &logger)

	// Job failures are handled inside the pipeline; the drain keeps going.
	require.NoError(t, w.drainPending(context.Background()))
	assert.Equal(t, []int64{1, 2}, proc.processed)
}

func TestJobWorkerStopsDrainOnCanceledContext(t *testing.T) {
	logger := zerolog.Nop()
	repo := &fakeJobRepo{queue: []*domain.Job{{ID: 1}, {ID: 2}}}
	proc := &fakeProcessor{err: context.Canceled}

	w := NewJobWorker(repo, proc, time.Millisecond, time.Hour, &logger)

	err := w.drainPending(context.Background())
	require.Error(t, err)
	assert.Equal(t, []int64{1}, proc.processed)
}
