// Package api serves the JSON endpoints consumed by the dashboard: job
// management, semantic search, knowledge base imports, and category
// administration.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/reviewradar/review-radar/internal/core/domain"
	"github.com/reviewradar/review-radar/internal/ingest/knowledge"
	db "github.com/reviewradar/review-radar/internal/storage"
	"github.com/reviewradar/review-radar/internal/vectorindex"
)

const (
	shutdownTimeout   = 5 * time.Second
	readHeaderTimeout = 10 * time.Second
	maxBodyBytes      = 1 << 20

	defaultListLimit = 10
	maxListLimit     = 100
)

// Repository is the storage surface the API needs.
type Repository interface {
	CreateJob(ctx context.Context, query string, mode domain.SearchMode, platforms []domain.Platform) (*domain.Job, error)
	GetJob(ctx context.Context, id int64) (*domain.Job, error)
	GetLatestCompletedJob(ctx context.Context) (*domain.Job, error)
	ListRecentJobs(ctx context.Context, limit int) ([]domain.Job, error)
	ListReviewsByJob(ctx context.Context, jobID int64) ([]domain.Review, error)
	CountReviews(ctx context.Context) (int, error)
	CountPendingJobs(ctx context.Context) (int, error)
	LoadCategoryDictionary(ctx context.Context) (domain.CategoryDictionary, error)
	UpsertCategory(ctx context.Context, category domain.Category) error
	DeleteCategory(ctx context.Context, key string) (bool, error)
}

var _ Repository = (*db.DB)(nil)

// Searcher is the vector index surface the API needs.
type Searcher interface {
	SearchReviews(ctx context.Context, query string, limit int, minScore float32, filter db.ReviewVectorFilter) ([]db.ReviewVectorHit, error)
	SearchKnowledge(ctx context.Context, query string, limit int, minScore float32, category string) ([]db.KnowledgeHit, error)
	IndexKnowledge(ctx context.Context, doc domain.KnowledgeDoc) error
	Stats(ctx context.Context) (vectorindex.Stats, error)
}

var _ Searcher = (*vectorindex.Index)(nil)

// Importer extracts knowledge documents from external pages and feeds.
type Importer interface {
	FromURL(ctx context.Context, pageURL, category string) (domain.KnowledgeDoc, error)
	FromFeed(ctx context.Context, feedURL, category string) ([]domain.KnowledgeDoc, error)
}

var _ Importer = (*knowledge.Importer)(nil)

// DictionaryCache is the matcher's cached dictionary handle.
type DictionaryCache interface {
	Invalidate()
}

// Options carries the search defaults applied when a request omits them.
type Options struct {
	Port                 int
	SearchLimit          int
	SearchScoreThreshold float64
}

type Server struct {
	repo     Repository
	searcher Searcher
	importer Importer
	cache    DictionaryCache
	opts     Options
	logger   *zerolog.Logger
}

func NewServer(
	repo Repository,
	searcher Searcher,
	importer Importer,
	cache DictionaryCache,
	opts Options,
	logger *zerolog.Logger,
) *Server {
	return &Server{
		repo:     repo,
		searcher: searcher,
		importer: importer,
		cache:    cache,
		opts:     opts,
		logger:   logger,
	}
}

// Handler builds the route table. Exposed separately from Start so tests can
// drive it through httptest.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/jobs", s.handleCreateJob)
	mux.HandleFunc("GET /api/jobs", s.handleListJobs)
	mux.HandleFunc("GET /api/jobs/latest", s.handleLatestJob)
	mux.HandleFunc("GET /api/jobs/{id}", s.handleGetJob)
	mux.HandleFunc("GET /api/jobs/{id}/reviews", s.handleJobReviews)
	mux.HandleFunc("GET /api/stats", s.handleStats)
	mux.HandleFunc("POST /api/search", s.handleSearch)
	mux.HandleFunc("POST /api/knowledge", s.handleAddKnowledge)
	mux.HandleFunc("POST /api/knowledge/search", s.handleSearchKnowledge)
	mux.HandleFunc("POST /api/knowledge/import", s.handleImportKnowledge)
	mux.HandleFunc("GET /api/categories", s.handleListCategories)
	mux.HandleFunc("PUT /api/categories/{key}", s.handleUpsertCategory)
	mux.HandleFunc("DELETE /api/categories/{key}", s.handleDeleteCategory)
	mux.HandleFunc("POST /api/categories/refresh", s.handleRefreshCategories)

	return s.withRequestLog(mux)
}

// Start serves until ctx is canceled.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.opts.Port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)

		defer cancel()

		//nolint:errcheck,contextcheck // shutdown in signal handler is best-effort, non-inherited context intentional
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info().Int("port", s.opts.Port).Msg("API server starting")

	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server error: %w", err)
	}

	return nil
}

func (s *Server) withRequestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.New().String()
		start := time.Now()

		next.ServeHTTP(w, r)

		s.logger.Debug().
			Str("request_id", requestID).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Dur("duration", time.Since(start)).
			Msg("request handled")
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error().Err(err).Msg("encoding response")
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, errorResponse{Error: message})
}

func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)

	if err := json.NewDecoder(body).Decode(dst); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))

		return false
	}

	return true
}
