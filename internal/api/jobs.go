package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/reviewradar/review-radar/internal/core/domain"
	db "github.com/reviewradar/review-radar/internal/storage"
)

var allPlatforms = []domain.Platform{
	domain.PlatformGoogle,
	domain.PlatformTripAdvisor,
	domain.PlatformBooking,
}

type createJobRequest struct {
	SearchQuery string   `json:"search_query"`
	SearchMode  string   `json:"search_type"`
	Platforms   []string `json:"platforms"`
}

func (s *Server) handleCreateJob(w http.ResponseWriter, r *http.Request) {
	var req createJobRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	if req.SearchQuery == "" {
		s.writeError(w, http.StatusBadRequest, "search_query is required")

		return
	}

	mode := domain.SearchMode(req.SearchMode)
	if mode == "" {
		mode = domain.SearchModeKeyword
	}

	if mode != domain.SearchModeKeyword && mode != domain.SearchModeURL {
		s.writeError(w, http.StatusBadRequest, "search_type must be \"keyword\" or \"url\"")

		return
	}

	platforms, err := resolvePlatforms(mode, req.Platforms)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())

		return
	}

	job, err := s.repo.CreateJob(r.Context(), req.SearchQuery, mode, platforms)
	if err != nil {
		s.logger.Error().Err(err).Msg("creating job")
		s.writeError(w, http.StatusInternalServerError, "could not create job")

		return
	}

	s.logger.Info().Int64("job_id", job.ID).Str("mode", string(mode)).Msg("job created")
	s.writeJSON(w, http.StatusCreated, job)
}

// resolvePlatforms validates the requested platforms. Keyword jobs default to
// all platforms; url jobs carry none, the pipeline detects the platform from
// the query.
func resolvePlatforms(mode domain.SearchMode, requested []string) ([]domain.Platform, error) {
	if mode == domain.SearchModeURL {
		return nil, nil
	}

	if len(requested) == 0 {
		return allPlatforms, nil
	}

	platforms := make([]domain.Platform, 0, len(requested))

	for _, name := range requested {
		platform := domain.Platform(name)

		switch platform {
		case domain.PlatformGoogle, domain.PlatformTripAdvisor, domain.PlatformBooking:
			platforms = append(platforms, platform)
		default:
			return nil, errors.New("unknown platform: " + name)
		}
	}

	return platforms, nil
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	limit := defaultListLimit

	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			s.writeError(w, http.StatusBadRequest, "limit must be a positive integer")

			return
		}

		limit = min(parsed, maxListLimit)
	}

	jobs, err := s.repo.ListRecentJobs(r.Context(), limit)
	if err != nil {
		s.logger.Error().Err(err).Msg("listing jobs")
		s.writeError(w, http.StatusInternalServerError, "could not list jobs")

		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{"jobs": jobs, "count": len(jobs)})
}

func (s *Server) handleLatestJob(w http.ResponseWriter, r *http.Request) {
	job, err := s.repo.GetLatestCompletedJob(r.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("fetching latest job")
		s.writeError(w, http.StatusInternalServerError, "could not fetch latest job")

		return
	}

	if job == nil {
		s.writeError(w, http.StatusNotFound, "no completed jobs yet")

		return
	}

	s.writeJSON(w, http.StatusOK, job)
}

func (s *Server) parseJobID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid job id")

		return 0, false
	}

	return id, true
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	id, ok := s.parseJobID(w, r)
	if !ok {
		return
	}

	job, err := s.repo.GetJob(r.Context(), id)
	if err != nil {
		if errors.Is(err, db.ErrJobNotFound) {
			s.writeError(w, http.StatusNotFound, "job not found")

			return
		}

		s.logger.Error().Err(err).Int64("job_id", id).Msg("fetching job")
		s.writeError(w, http.StatusInternalServerError, "could not fetch job")

		return
	}

	s.writeJSON(w, http.StatusOK, job)
}

func (s *Server) handleJobReviews(w http.ResponseWriter, r *http.Request) {
	id, ok := s.parseJobID(w, r)
	if !ok {
		return
	}

	if _, err := s.repo.GetJob(r.Context(), id); err != nil {
		if errors.Is(err, db.ErrJobNotFound) {
			s.writeError(w, http.StatusNotFound, "job not found")

			return
		}

		s.logger.Error().Err(err).Int64("job_id", id).Msg("fetching job")
		s.writeError(w, http.StatusInternalServerError, "could not fetch job")

		return
	}

	reviews, err := s.repo.ListReviewsByJob(r.Context(), id)
	if err != nil {
		s.logger.Error().Err(err).Int64("job_id", id).Msg("listing job reviews")
		s.writeError(w, http.StatusInternalServerError, "could not list reviews")

		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{"reviews": reviews, "count": len(reviews)})
}

type statsResponse struct {
	TotalReviews  int    `json:"total_reviews"`
	PendingJobs   int    `json:"pending_jobs"`
	ReviewPoints  int    `json:"review_points"`
	KnowledgeDocs int    `json:"knowledge_docs"`
	VectorSize    int    `json:"vector_size"`
	LatestJobID   *int64 `json:"latest_job_id,omitempty"`
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	totalReviews, err := s.repo.CountReviews(r.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("counting reviews")
		s.writeError(w, http.StatusInternalServerError, "could not compute stats")

		return
	}

	pending, err := s.repo.CountPendingJobs(r.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("counting pending jobs")
		s.writeError(w, http.StatusInternalServerError, "could not compute stats")

		return
	}

	indexStats, err := s.searcher.Stats(r.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("reading index stats")
		s.writeError(w, http.StatusInternalServerError, "could not compute stats")

		return
	}

	resp := statsResponse{
		TotalReviews:  totalReviews,
		PendingJobs:   pending,
		ReviewPoints:  indexStats.ReviewPoints,
		KnowledgeDocs: indexStats.KnowledgeDocs,
		VectorSize:    indexStats.VectorSize,
	}

	if latest, err := s.repo.GetLatestCompletedJob(r.Context()); err == nil && latest != nil {
		resp.LatestJobID = &latest.ID
	}

	s.writeJSON(w, http.StatusOK, resp)
}
