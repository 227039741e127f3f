// Package app provides the application bootstrap and runtime orchestration.
//
// The App type wires together all dependencies and exposes methods to run
// the two operational modes:
//
//   - API mode: JSON endpoints for the dashboard (jobs, search, knowledge,
//     category administration)
//   - Worker mode: poll loop that claims pending jobs and runs them through
//     the scrape/analyze/persist pipeline
//
// Both modes can run in the same process or be deployed separately.
package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/reviewradar/review-radar/internal/api"
	"github.com/reviewradar/review-radar/internal/core/embeddings"
	"github.com/reviewradar/review-radar/internal/ingest/fetch"
	"github.com/reviewradar/review-radar/internal/ingest/knowledge"
	"github.com/reviewradar/review-radar/internal/ingest/places"
	"github.com/reviewradar/review-radar/internal/ingest/scrape"
	"github.com/reviewradar/review-radar/internal/platform/config"
	"github.com/reviewradar/review-radar/internal/platform/observability"
	"github.com/reviewradar/review-radar/internal/platform/worker"
	"github.com/reviewradar/review-radar/internal/process/keywords"
	"github.com/reviewradar/review-radar/internal/process/pipeline"
	"github.com/reviewradar/review-radar/internal/process/sentiment"
	"github.com/reviewradar/review-radar/internal/process/summarize"
	db "github.com/reviewradar/review-radar/internal/storage"
	"github.com/reviewradar/review-radar/internal/vectorindex"
)

// App holds the application dependencies and provides methods to run the
// operational modes.
type App struct {
	cfg      *config.Config
	database *db.DB
	logger   *zerolog.Logger
}

func New(cfg *config.Config, database *db.DB, logger *zerolog.Logger) *App {
	return &App{
		cfg:      cfg,
		database: database,
		logger:   logger,
	}
}

// StartHealthServer starts the health check and metrics server.
func (a *App) StartHealthServer(ctx context.Context) error {
	srv := observability.NewServer(a.database, a.cfg.HealthPort, a.logger)

	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("health server start: %w", err)
	}

	return nil
}

// RunAPI runs the dashboard API mode.
func (a *App) RunAPI(ctx context.Context) error {
	a.logger.Info().Msg("Starting API mode")

	index := a.newVectorIndex()
	matcher := keywords.NewMatcher(a.database, a.logger)
	importer := knowledge.NewImporter(a.logger)

	srv := api.NewServer(a.database, index, importer, matcher, api.Options{
		Port:                 a.cfg.APIPort,
		SearchLimit:          a.cfg.SearchLimit,
		SearchScoreThreshold: a.cfg.SearchScoreThreshold,
	}, a.logger)

	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("api server run: %w", err)
	}

	return nil
}

// RunWorker runs the job processing mode.
func (a *App) RunWorker(ctx context.Context) error {
	a.logger.Info().Msg("Starting worker mode")

	p := a.newPipeline()
	w := worker.NewJobWorker(a.database, p, a.cfg.WorkerPollInterval, a.cfg.JobStuckThreshold, a.logger)

	if err := w.Run(ctx); err != nil {
		return fmt.Errorf("worker run: %w", err)
	}

	return nil
}

func (a *App) newPipeline() *pipeline.Pipeline {
	fetcher := fetch.New(fetch.Options{
		RenderServiceURL:   a.cfg.RenderServiceURL,
		RenderServiceToken: a.cfg.RenderServiceToken,
		Timeout:            a.cfg.FetchTimeout,
		RPS:                a.cfg.FetchRPS,
	})

	scraper := scrape.NewScraper(fetcher, a.cfg.MaxReviewsPerPlatform, a.logger)
	placesClient := places.New(a.cfg.GooglePlacesAPIKey, a.cfg.GooglePlacesTimeout, a.logger)
	analyzer := sentiment.New(a.newSentimentModel(), a.logger)
	matcher := keywords.NewMatcher(a.database, a.logger)
	summarizer := summarize.New(summarize.Options{
		MinInputChars: a.cfg.SummaryMinInputChars,
		MinChars:      a.cfg.SummaryMinChars,
		MaxChars:      a.cfg.SummaryMaxChars,
	}, a.newSummaryModel, a.logger)

	return pipeline.New(
		a.database,
		scraper,
		placesClient,
		analyzer,
		matcher,
		summarizer,
		a.newVectorIndex(),
		a.logger,
	)
}

func (a *App) newSentimentModel() sentiment.Model {
	if a.cfg.OpenAIAPIKey == "" {
		return sentiment.NewLexiconModel(a.logger)
	}

	return sentiment.NewOpenAIModel(a.cfg, a.logger)
}

func (a *App) newSummaryModel() summarize.Model {
	if a.cfg.OpenAIAPIKey == "" {
		a.logger.Warn().Msg("no model API key configured, using lead-sentence summaries")

		return summarize.NewLeadSentenceModel()
	}

	return summarize.NewOpenAIModel(a.cfg)
}

func (a *App) newVectorIndex() *vectorindex.Index {
	logger := a.logger.With().Str("component", "vectorindex").Logger()

	embedder := embeddings.NewClient(embeddings.Config{
		APIKey:     a.cfg.OpenAIAPIKey,
		Model:      a.cfg.EmbeddingModel,
		Dimensions: a.cfg.EmbeddingDimensions,
		RateLimit:  float64(a.cfg.ModelRateLimitRPS),
	}, &logger)

	return vectorindex.New(a.database, embedder, &logger)
}
