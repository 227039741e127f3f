package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/reviewradar/review-radar/internal/core/domain"
)

// ErrJobNotFound is returned when a job id does not exist.
var ErrJobNotFound = errors.New("job not found")

const jobColumns = `
	id, search_query, search_mode, platforms, status, message,
	review_count, positive_count, negative_count, neutral_count,
	avg_rating, top_categories, total_keywords,
	created_at, updated_at, completed_at
`

// CreateJob inserts a new job in the pending state and returns it with its
// assigned id and timestamps.
func (db *DB) CreateJob(ctx context.Context, query string, mode domain.SearchMode, platforms []domain.Platform) (*domain.Job, error) {
	names := make([]string, len(platforms))
	for i, p := range platforms {
		names[i] = string(p)
	}

	row := db.Pool.QueryRow(ctx, `
		INSERT INTO scraping_jobs (search_query, search_mode, platforms, status)
		VALUES ($1, $2, $3, $4)
		RETURNING `+jobColumns, SanitizeUTF8(query), string(mode), names, string(domain.StatusPending))

	job, err := db.scanJob(row)
	if err != nil {
		return nil, fmt.Errorf("create job: %w", err)
	}

	return job, nil
}

// GetJob returns one job by id.
func (db *DB) GetJob(ctx context.Context, id int64) (*domain.Job, error) {
	row := db.Pool.QueryRow(ctx, `
		SELECT `+jobColumns+`
		FROM scraping_jobs
		WHERE id = $1
	`, id)

	job, err := db.scanJob(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrJobNotFound
		}

		return nil, fmt.Errorf("get job: %w", err)
	}

	return job, nil
}

// GetLatestCompletedJob returns the most recently completed job, or nil when
// no job has completed yet.
func (db *DB) GetLatestCompletedJob(ctx context.Context) (*domain.Job, error) {
	row := db.Pool.QueryRow(ctx, `
		SELECT `+jobColumns+`
		FROM scraping_jobs
		WHERE status = $1
		ORDER BY completed_at DESC
		LIMIT 1
	`, string(domain.StatusCompleted))

	job, err := db.scanJob(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil //nolint:nilnil // nil,nil indicates no completed job yet
		}

		return nil, fmt.Errorf("get latest completed job: %w", err)
	}

	return job, nil
}

// ListRecentJobs returns jobs ordered by creation time, newest first.
func (db *DB) ListRecentJobs(ctx context.Context, limit int) ([]domain.Job, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT `+jobColumns+`
		FROM scraping_jobs
		ORDER BY created_at DESC
		LIMIT $1
	`, safeIntToInt32(limit))
	if err != nil {
		return nil, fmt.Errorf("list recent jobs: %w", err)
	}
	defer rows.Close()

	jobs := []domain.Job{}

	for rows.Next() {
		job, err := db.scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}

		jobs = append(jobs, *job)
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate jobs: %w", rows.Err())
	}

	return jobs, nil
}

// UpdateJobStatus advances a job to the given status. Completed jobs also get
// their completion timestamp set.
func (db *DB) UpdateJobStatus(ctx context.Context, id int64, status domain.JobStatus, message string) error {
	tag, err := db.Pool.Exec(ctx, `
		UPDATE scraping_jobs
		SET status = $2,
			message = $3,
			completed_at = CASE WHEN $2 = $4 THEN now() ELSE completed_at END,
			updated_at = now()
		WHERE id = $1
	`, id, string(status), toText(message), string(domain.StatusCompleted))
	if err != nil {
		return fmt.Errorf("update job status: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrJobNotFound
	}

	return nil
}

// UpdateJobStats writes the aggregate statistics computed when a job's
// reviews are saved.
func (db *DB) UpdateJobStats(ctx context.Context, id int64, stats domain.JobStats) error {
	topCategories, err := json.Marshal(stats.TopCategories)
	if err != nil {
		return fmt.Errorf("marshal top categories: %w", err)
	}

	tag, err := db.Pool.Exec(ctx, `
		UPDATE scraping_jobs
		SET review_count = $2,
			positive_count = $3,
			negative_count = $4,
			neutral_count = $5,
			avg_rating = $6,
			top_categories = $7,
			total_keywords = $8,
			updated_at = now()
		WHERE id = $1
	`, id,
		safeIntToInt32(stats.ReviewCount),
		safeIntToInt32(stats.PositiveCount),
		safeIntToInt32(stats.NegativeCount),
		safeIntToInt32(stats.NeutralCount),
		stats.AvgRating,
		topCategories,
		safeIntToInt32(stats.TotalKeywords),
	)
	if err != nil {
		return fmt.Errorf("update job stats: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrJobNotFound
	}

	return nil
}

// ClaimPendingJob atomically picks the oldest pending job and moves it to the
// scraping state, so concurrent workers never process the same job twice.
// Returns nil when no pending job exists.
func (db *DB) ClaimPendingJob(ctx context.Context) (*domain.Job, error) {
	row := db.Pool.QueryRow(ctx, `
		WITH picked AS (
			SELECT id
			FROM scraping_jobs
			WHERE status = $1
			ORDER BY created_at
			FOR UPDATE SKIP LOCKED
			LIMIT 1
		)
		UPDATE scraping_jobs sj
		SET status = $2,
			updated_at = now()
		FROM picked
		WHERE sj.id = picked.id
		RETURNING `+prefixedJobColumns("sj"), string(domain.StatusPending), string(domain.StatusScraping))

	job, err := db.scanJob(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil //nolint:nilnil // nil,nil indicates no pending job available
		}

		return nil, fmt.Errorf("claim pending job: %w", err)
	}

	return job, nil
}

// RecoverStuckJobs fails jobs that have sat in an intermediate state longer
// than the threshold. A crashed worker leaves its claimed job behind; this
// makes the failure visible instead of leaving the job in limbo forever.
func (db *DB) RecoverStuckJobs(ctx context.Context, threshold time.Duration) (int64, error) {
	tag, err := db.Pool.Exec(ctx, `
		UPDATE scraping_jobs
		SET status = $1,
			message = 'job abandoned mid-pipeline, recovered by watchdog',
			updated_at = now()
		WHERE status NOT IN ($2, $3, $4)
		  AND updated_at < now() - $5::interval
	`, string(domain.StatusFailed),
		string(domain.StatusPending), string(domain.StatusCompleted), string(domain.StatusFailed),
		fmt.Sprintf("%d seconds", int(threshold.Seconds())),
	)
	if err != nil {
		return 0, fmt.Errorf("recover stuck jobs: %w", err)
	}

	return tag.RowsAffected(), nil
}

// CountPendingJobs returns the backlog size for the metrics gauge.
func (db *DB) CountPendingJobs(ctx context.Context) (int, error) {
	var count int64

	err := db.Pool.QueryRow(ctx, `
		SELECT COUNT(*)::bigint
		FROM scraping_jobs
		WHERE status = $1
	`, string(domain.StatusPending)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count pending jobs: %w", err)
	}

	return int(count), nil
}

func prefixedJobColumns(alias string) string {
	return fmt.Sprintf(`
		%[1]s.id, %[1]s.search_query, %[1]s.search_mode, %[1]s.platforms, %[1]s.status, %[1]s.message,
		%[1]s.review_count, %[1]s.positive_count, %[1]s.negative_count, %[1]s.neutral_count,
		%[1]s.avg_rating, %[1]s.top_categories, %[1]s.total_keywords,
		%[1]s.created_at, %[1]s.updated_at, %[1]s.completed_at
	`, alias)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (db *DB) scanJob(row rowScanner) (*domain.Job, error) {
	var (
		job           domain.Job
		searchMode    string
		platforms     []string
		status        string
		message       pgtype.Text
		avgRating     pgtype.Float8
		topCategories []byte
		completedAt   pgtype.Timestamptz
	)

	if err := row.Scan(
		&job.ID, &job.SearchQuery, &searchMode, &platforms, &status, &message,
		&job.Stats.ReviewCount, &job.Stats.PositiveCount, &job.Stats.NegativeCount, &job.Stats.NeutralCount,
		&avgRating, &topCategories, &job.Stats.TotalKeywords,
		&job.CreatedAt, &job.UpdatedAt, &completedAt,
	); err != nil {
		return nil, err
	}

	job.SearchMode = domain.SearchMode(searchMode)
	job.Status = domain.JobStatus(status)
	job.Message = fromText(message)

	if avgRating.Valid {
		job.Stats.AvgRating = avgRating.Float64
	}

	job.Platforms = make([]domain.Platform, len(platforms))
	for i, p := range platforms {
		job.Platforms[i] = domain.Platform(p)
	}

	// Malformed stored JSON degrades to an empty rollup instead of making
	// the whole job unreadable.
	if len(topCategories) > 0 {
		if err := json.Unmarshal(topCategories, &job.Stats.TopCategories); err != nil {
			db.Logger.Warn().Err(err).Int64("job_id", job.ID).Msg("malformed top_categories, returning empty")
			job.Stats.TopCategories = nil
		}
	}

	if completedAt.Valid {
		job.CompletedAt = &completedAt.Time
	}

	return &job, nil
}
