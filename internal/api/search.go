package api

import (
	"net/http"

	db "github.com/reviewradar/review-radar/internal/storage"
)

type searchRequest struct {
	Query     string   `json:"query"`
	Limit     int      `json:"limit"`
	MinScore  *float64 `json:"min_score"`
	Platform  string   `json:"platform"`
	Sentiment string   `json:"sentiment"`
	JobID     int64    `json:"job_id"`
}

type searchHit struct {
	ReviewID  string   `json:"review_id"`
	JobID     int64    `json:"job_id"`
	Platform  string   `json:"platform"`
	Sentiment string   `json:"sentiment,omitempty"`
	Rating    *float64 `json:"rating,omitempty"`
	Text      string   `json:"review_text"`
	Score     float32  `json:"score"`
}

// searchDefaults fills limit and score threshold from configuration when the
// request leaves them unset. An explicit min_score of 0 disables filtering.
func (s *Server) searchDefaults(req *searchRequest) (int, float32) {
	limit := req.Limit
	if limit < 1 {
		limit = s.opts.SearchLimit
	}

	minScore := float32(s.opts.SearchScoreThreshold)
	if req.MinScore != nil {
		minScore = float32(*req.MinScore)
	}

	return limit, minScore
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	if req.Query == "" {
		s.writeError(w, http.StatusBadRequest, "query is required")

		return
	}

	limit, minScore := s.searchDefaults(&req)

	filter := db.ReviewVectorFilter{
		Platform:  req.Platform,
		Sentiment: req.Sentiment,
		JobID:     req.JobID,
	}

	hits, err := s.searcher.SearchReviews(r.Context(), req.Query, limit, minScore, filter)
	if err != nil {
		s.logger.Error().Err(err).Str("query", req.Query).Msg("review search")
		s.writeError(w, http.StatusInternalServerError, "search failed")

		return
	}

	results := make([]searchHit, 0, len(hits))

	for _, hit := range hits {
		results = append(results, searchHit{
			ReviewID:  hit.ReviewID,
			JobID:     hit.JobID,
			Platform:  hit.Platform,
			Sentiment: hit.Sentiment,
			Rating:    hit.Rating,
			Text:      hit.Text,
			Score:     hit.Score,
		})
	}

	s.writeJSON(w, http.StatusOK, map[string]any{"results": results, "count": len(results)})
}
