// Package pipeline orchestrates one job end to end: scrape, analyze
// sentiment, match keywords, summarize, persist and index. Statuses move
// strictly forward; failure is terminal and carries the cause verbatim.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/reviewradar/review-radar/internal/core/domain"
	"github.com/reviewradar/review-radar/internal/platform/observability"
	"github.com/reviewradar/review-radar/internal/process/dedup"
	"github.com/reviewradar/review-radar/internal/process/keywords"
	"github.com/reviewradar/review-radar/internal/process/sentiment"
	db "github.com/reviewradar/review-radar/internal/storage"
)

// Repository is the storage surface the pipeline needs.
type Repository interface {
	UpdateJobStatus(ctx context.Context, id int64, status domain.JobStatus, message string) error
	UpdateJobStats(ctx context.Context, id int64, stats domain.JobStats) error
	ReviewHashExists(ctx context.Context, hash string) (bool, error)
	InsertReview(ctx context.Context, review *domain.Review) (bool, error)
}

var _ Repository = (*db.DB)(nil)

// Scraper collects reviews from platform pages.
type Scraper interface {
	ScrapeURL(ctx context.Context, pageURL string) ([]domain.Review, error)
	ScrapeSearch(ctx context.Context, platform domain.Platform, query string) ([]domain.Review, error)
}

// PlacesClient is the structured lookup used for google in keyword mode.
type PlacesClient interface {
	Enabled() bool
	FindReviews(ctx context.Context, query string) ([]domain.Review, error)
}

// SentimentAnalyzer classifies a batch of reviews.
type SentimentAnalyzer interface {
	AnalyzeBatch(ctx context.Context, reviews []domain.Review) []domain.Review
}

// KeywordMatcher extracts keywords and ranks categories.
type KeywordMatcher interface {
	AnalyzeBatch(ctx context.Context, reviews []domain.Review) ([]domain.Review, error)
	TopCategories(ctx context.Context, reviews []domain.Review) ([]domain.TopCategory, error)
}

// Summarizer condenses long reviews.
type Summarizer interface {
	GenerateBatch(ctx context.Context, reviews []domain.Review) []domain.Review
}

// Indexer writes reviews into the vector index.
type Indexer interface {
	IndexReview(ctx context.Context, review domain.Review) error
}

// Pipeline wires the stages together. One instance serves many jobs.
type Pipeline struct {
	repo       Repository
	scraper    Scraper
	places     PlacesClient
	sentiment  SentimentAnalyzer
	keywords   KeywordMatcher
	summarizer Summarizer
	indexer    Indexer
	logger     *zerolog.Logger
}

func New(
	repo Repository,
	scraper Scraper,
	places PlacesClient,
	sentiment SentimentAnalyzer,
	keywords KeywordMatcher,
	summarizer Summarizer,
	indexer Indexer,
	logger *zerolog.Logger,
) *Pipeline {
	return &Pipeline{
		repo:       repo,
		scraper:    scraper,
		places:     places,
		sentiment:  sentiment,
		keywords:   keywords,
		summarizer: summarizer,
		indexer:    indexer,
		logger:     logger,
	}
}

// ProcessJob runs a claimed job through every stage. The job is already in
// the scraping state when it arrives here. A panic anywhere in the pipeline
// marks the job failed instead of killing the worker.
func (p *Pipeline) ProcessJob(ctx context.Context, job *domain.Job) (err error) {
	logger := p.logger.With().Int64("job_id", job.ID).Logger()

	defer func() {
		if r := recover(); r != nil {
			logger.Error().Interface("panic", r).Msg("pipeline panicked")
			p.fail(ctx, job.ID, fmt.Errorf("pipeline panic: %v", r))
			err = fmt.Errorf("pipeline panic: %v", r)
		}
	}()

	reviews, err := p.scrapeStage(ctx, job)
	if err != nil {
		p.fail(ctx, job.ID, err)

		return err
	}

	if len(reviews) == 0 {
		logger.Info().Msg("no reviews found")

		if err := p.repo.UpdateJobStats(ctx, job.ID, domain.JobStats{TopCategories: []domain.TopCategory{}}); err != nil {
			p.fail(ctx, job.ID, err)

			return err
		}

		return p.complete(ctx, job.ID, "no reviews found")
	}

	reviews, err = p.analysisStages(ctx, job.ID, reviews)
	if err != nil {
		p.fail(ctx, job.ID, err)

		return err
	}

	if err := p.saveStage(ctx, job.ID, reviews); err != nil {
		p.fail(ctx, job.ID, err)

		return err
	}

	return p.complete(ctx, job.ID, fmt.Sprintf("processed %d reviews", len(reviews)))
}

func (p *Pipeline) analysisStages(ctx context.Context, jobID int64, reviews []domain.Review) ([]domain.Review, error) {
	if err := p.advance(ctx, jobID, domain.StatusAnalyzingSentiment); err != nil {
		return nil, err
	}

	reviews = p.timedStage("sentiment", func() []domain.Review {
		return p.sentiment.AnalyzeBatch(ctx, reviews)
	})

	if err := p.advance(ctx, jobID, domain.StatusAnalyzingKeywords); err != nil {
		return nil, err
	}

	start := time.Now()

	reviews, err := p.keywords.AnalyzeBatch(ctx, reviews)
	if err != nil {
		return nil, fmt.Errorf("keyword analysis: %w", err)
	}

	observability.PipelineStageDuration.WithLabelValues("keywords").Observe(time.Since(start).Seconds())

	if err := p.advance(ctx, jobID, domain.StatusGeneratingSummaries); err != nil {
		return nil, err
	}

	reviews = p.timedStage("summaries", func() []domain.Review {
		return p.summarizer.GenerateBatch(ctx, reviews)
	})

	return reviews, nil
}

func (p *Pipeline) timedStage(stage string, fn func() []domain.Review) []domain.Review {
	start := time.Now()
	out := fn()
	observability.PipelineStageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())

	return out
}

// scrapeStage collects reviews from every requested platform. One platform
// failing is tolerated; the job fails only when every platform does.
func (p *Pipeline) scrapeStage(ctx context.Context, job *domain.Job) ([]domain.Review, error) {
	start := time.Now()
	defer func() {
		observability.PipelineStageDuration.WithLabelValues("scraping").Observe(time.Since(start).Seconds())
	}()

	if job.SearchMode == domain.SearchModeURL {
		return p.scraper.ScrapeURL(ctx, job.SearchQuery)
	}

	if len(job.Platforms) == 0 {
		return nil, fmt.Errorf("job %d has no platforms", job.ID)
	}

	var (
		all      []domain.Review
		failures int
		lastErr  error
	)

	for _, platform := range job.Platforms {
		reviews, err := p.scrapePlatform(ctx, platform, job.SearchQuery)
		if err != nil {
			failures++
			lastErr = err

			observability.PlatformFailures.WithLabelValues(string(platform)).Inc()
			p.logger.Warn().Err(err).
				Int64("job_id", job.ID).
				Str("platform", string(platform)).
				Msg("platform scrape failed")

			continue
		}

		all = append(all, reviews...)
	}

	if failures == len(job.Platforms) {
		return nil, fmt.Errorf("all platforms failed: %w", lastErr)
	}

	return all, nil
}

func (p *Pipeline) scrapePlatform(ctx context.Context, platform domain.Platform, query string) ([]domain.Review, error) {
	if platform == domain.PlatformGoogle && p.places.Enabled() {
		return p.places.FindReviews(ctx, query)
	}

	return p.scraper.ScrapeSearch(ctx, platform, query)
}

// saveStage persists enriched reviews with the cross-job dedup check, indexes
// each inserted review best-effort, and writes the job statistics.
func (p *Pipeline) saveStage(ctx context.Context, jobID int64, reviews []domain.Review) error {
	if err := p.advance(ctx, jobID, domain.StatusSavingResults); err != nil {
		return err
	}

	start := time.Now()
	defer func() {
		observability.PipelineStageDuration.WithLabelValues("saving").Observe(time.Since(start).Seconds())
	}()

	for i := range reviews {
		reviews[i].JobID = jobID
		reviews[i].ReviewHash = dedup.Fingerprint(reviews[i])
		reviews[i].ReviewID = dedup.ReviewID(reviews[i].Platform, reviews[i].ReviewHash)

		exists, err := p.repo.ReviewHashExists(ctx, reviews[i].ReviewHash)
		if err != nil {
			return fmt.Errorf("dedup check: %w", err)
		}

		if exists {
			observability.ReviewsPersisted.WithLabelValues("duplicate").Inc()

			continue
		}

		inserted, err := p.repo.InsertReview(ctx, &reviews[i])
		if err != nil {
			return fmt.Errorf("persist review: %w", err)
		}

		if !inserted {
			// Lost the race against a concurrent worker; the row exists.
			observability.ReviewsPersisted.WithLabelValues("duplicate").Inc()

			continue
		}

		observability.ReviewsPersisted.WithLabelValues("inserted").Inc()

		if err := p.indexer.IndexReview(ctx, reviews[i]); err != nil {
			p.logger.Warn().Err(err).
				Int64("job_id", jobID).
				Str("review_id", reviews[i].ReviewID).
				Msg("vector indexing failed, review persisted without index entry")
		}
	}

	stats, err := p.computeStats(ctx, reviews)
	if err != nil {
		return err
	}

	if err := p.repo.UpdateJobStats(ctx, jobID, stats); err != nil {
		return fmt.Errorf("update job stats: %w", err)
	}

	return nil
}

func (p *Pipeline) computeStats(ctx context.Context, reviews []domain.Review) (domain.JobStats, error) {
	summary := sentiment.Summarize(reviews)

	stats := domain.JobStats{
		ReviewCount:   len(reviews),
		PositiveCount: summary.Positive,
		NegativeCount: summary.Negative,
		NeutralCount:  summary.Neutral,
		TotalKeywords: keywords.TotalKeywords(reviews),
	}

	var (
		ratingSum   float64
		ratingCount int
	)

	for _, review := range reviews {
		if review.Rating != nil {
			ratingSum += *review.Rating
			ratingCount++
		}
	}

	if ratingCount > 0 {
		stats.AvgRating = ratingSum / float64(ratingCount)
	}

	top, err := p.keywords.TopCategories(ctx, reviews)
	if err != nil {
		return domain.JobStats{}, fmt.Errorf("top categories: %w", err)
	}

	stats.TopCategories = top

	return stats, nil
}

func (p *Pipeline) advance(ctx context.Context, jobID int64, status domain.JobStatus) error {
	if err := p.repo.UpdateJobStatus(ctx, jobID, status, ""); err != nil {
		return fmt.Errorf("advance to %s: %w", status, err)
	}

	return nil
}

func (p *Pipeline) complete(ctx context.Context, jobID int64, message string) error {
	if err := p.repo.UpdateJobStatus(ctx, jobID, domain.StatusCompleted, message); err != nil {
		return fmt.Errorf("complete job: %w", err)
	}

	observability.JobsProcessed.WithLabelValues(string(domain.StatusCompleted)).Inc()

	return nil
}

// fail is best-effort: when even the status write fails there is nothing
// left to do but log.
func (p *Pipeline) fail(ctx context.Context, jobID int64, cause error) {
	observability.JobsProcessed.WithLabelValues(string(domain.StatusFailed)).Inc()

	if err := p.repo.UpdateJobStatus(ctx, jobID, domain.StatusFailed, cause.Error()); err != nil {
		p.logger.Error().Err(err).Int64("job_id", jobID).Msg("failed to mark job as failed")
	}
}
