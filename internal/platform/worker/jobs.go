package worker

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/reviewradar/review-radar/internal/core/domain"
	"github.com/reviewradar/review-radar/internal/platform/observability"
	db "github.com/reviewradar/review-radar/internal/storage"
)

// Repository is the subset of storage the job worker needs.
type Repository interface {
	ClaimPendingJob(ctx context.Context) (*domain.Job, error)
	RecoverStuckJobs(ctx context.Context, threshold time.Duration) (int64, error)
	CountPendingJobs(ctx context.Context) (int, error)
}

var _ Repository = (*db.DB)(nil)

// Processor runs a claimed job through the pipeline.
type Processor interface {
	ProcessJob(ctx context.Context, job *domain.Job) error
}

const (
	stuckCheckInterval = time.Minute
	backlogInterval    = 15 * time.Second
)

// JobWorker polls for pending jobs and processes them one at a time.
// Concurrency across instances is safe: claiming uses row locks, so two
// workers never pick up the same job.
type JobWorker struct {
	repo           Repository
	processor      Processor
	pollInterval   time.Duration
	stuckThreshold time.Duration
	logger         *zerolog.Logger
}

func NewJobWorker(
	repo Repository,
	processor Processor,
	pollInterval, stuckThreshold time.Duration,
	logger *zerolog.Logger,
) *JobWorker {
	return &JobWorker{
		repo:           repo,
		processor:      processor,
		pollInterval:   pollInterval,
		stuckThreshold: stuckThreshold,
		logger:         logger,
	}
}

// Run blocks until ctx is canceled.
func (w *JobWorker) Run(ctx context.Context) error {
	return Loop(ctx, Config{
		Name:         "jobs",
		PollInterval: w.pollInterval,
		Process:      w.drainPending,
		PeriodicTasks: []PeriodicTask{
			{Name: "recover-stuck-jobs", Interval: stuckCheckInterval, Run: w.recoverStuck},
			{Name: "backlog-gauge", Interval: backlogInterval, Run: w.updateBacklog},
		},
		Logger: w.logger,
	})
}

// drainPending claims and processes jobs until the queue is empty.
func (w *JobWorker) drainPending(ctx context.Context) error {
	for {
		job, err := w.repo.ClaimPendingJob(ctx)
		if err != nil {
			return err
		}

		if job == nil {
			return nil
		}

		w.logger.Info().
			Int64("job_id", job.ID).
			Str("query", job.SearchQuery).
			Msg("claimed job")

		if err = w.processor.ProcessJob(ctx, job); err != nil {
			// ProcessJob marks the job failed itself; a canceled context is
			// the only error worth stopping the drain for.
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}

			w.logger.Error().Err(err).Int64("job_id", job.ID).Msg("job failed")
		}
	}
}

func (w *JobWorker) recoverStuck(ctx context.Context) {
	recovered, err := w.repo.RecoverStuckJobs(ctx, w.stuckThreshold)
	if err != nil {
		w.logger.Error().Err(err).Msg("recovering stuck jobs")
		return
	}

	if recovered > 0 {
		w.logger.Warn().Int64("count", recovered).Msg("recovered stuck jobs")
	}
}

func (w *JobWorker) updateBacklog(ctx context.Context) {
	pending, err := w.repo.CountPendingJobs(ctx)
	if err != nil {
		w.logger.Error().Err(err).Msg("counting pending jobs")
		return
	}

	observability.JobBacklog.Set(float64(pending))
}
