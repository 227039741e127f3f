package api

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/reviewradar/review-radar/internal/core/domain"
	"github.com/reviewradar/review-radar/internal/ingest/knowledge"
)

type addKnowledgeRequest struct {
	Title    string `json:"title"`
	Text     string `json:"text"`
	Category string `json:"category"`
	Source   string `json:"source"`
}

func (s *Server) handleAddKnowledge(w http.ResponseWriter, r *http.Request) {
	var req addKnowledgeRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	if strings.TrimSpace(req.Text) == "" {
		s.writeError(w, http.StatusBadRequest, "text is required")

		return
	}

	doc := domain.KnowledgeDoc{
		Title:    req.Title,
		Text:     req.Text,
		Category: req.Category,
		Source:   req.Source,
	}

	// Documents with a source URL are content-addressed so re-adding the same
	// page replaces it; ad-hoc notes get a random id.
	if req.Source != "" {
		doc.DocID = knowledge.DocID(req.Source)
	} else {
		doc.DocID = "note_" + uuid.New().String()
	}

	if err := s.searcher.IndexKnowledge(r.Context(), doc); err != nil {
		s.logger.Error().Err(err).Str("doc_id", doc.DocID).Msg("indexing knowledge doc")
		s.writeError(w, http.StatusInternalServerError, "could not index document")

		return
	}

	s.writeJSON(w, http.StatusCreated, map[string]string{"doc_id": doc.DocID})
}

type searchKnowledgeRequest struct {
	Query    string   `json:"query"`
	Limit    int      `json:"limit"`
	MinScore *float64 `json:"min_score"`
	Category string   `json:"category"`
}

func (s *Server) handleSearchKnowledge(w http.ResponseWriter, r *http.Request) {
	var req searchKnowledgeRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	if req.Query == "" {
		s.writeError(w, http.StatusBadRequest, "query is required")

		return
	}

	limit, minScore := s.searchDefaults(&searchRequest{Limit: req.Limit, MinScore: req.MinScore})

	hits, err := s.searcher.SearchKnowledge(r.Context(), req.Query, limit, minScore, req.Category)
	if err != nil {
		s.logger.Error().Err(err).Str("query", req.Query).Msg("knowledge search")
		s.writeError(w, http.StatusInternalServerError, "search failed")

		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{"results": hits, "count": len(hits)})
}

type importKnowledgeRequest struct {
	URL      string `json:"url"`
	FeedURL  string `json:"feed_url"`
	Category string `json:"category"`
}

func (s *Server) handleImportKnowledge(w http.ResponseWriter, r *http.Request) {
	var req importKnowledgeRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	switch {
	case req.URL != "" && req.FeedURL != "":
		s.writeError(w, http.StatusBadRequest, "provide either url or feed_url, not both")
	case req.URL != "":
		s.importPage(w, r, req.URL, req.Category)
	case req.FeedURL != "":
		s.importFeed(w, r, req.FeedURL, req.Category)
	default:
		s.writeError(w, http.StatusBadRequest, "url or feed_url is required")
	}
}

func (s *Server) importPage(w http.ResponseWriter, r *http.Request, pageURL, category string) {
	doc, err := s.importer.FromURL(r.Context(), pageURL, category)
	if err != nil {
		s.logger.Error().Err(err).Str("url", pageURL).Msg("importing page")
		s.writeError(w, http.StatusBadGateway, "could not import page: "+err.Error())

		return
	}

	if err := s.searcher.IndexKnowledge(r.Context(), doc); err != nil {
		s.logger.Error().Err(err).Str("doc_id", doc.DocID).Msg("indexing imported page")
		s.writeError(w, http.StatusInternalServerError, "could not index document")

		return
	}

	s.writeJSON(w, http.StatusCreated, map[string]any{"doc_id": doc.DocID, "title": doc.Title})
}

func (s *Server) importFeed(w http.ResponseWriter, r *http.Request, feedURL, category string) {
	docs, err := s.importer.FromFeed(r.Context(), feedURL, category)
	if err != nil {
		s.logger.Error().Err(err).Str("feed_url", feedURL).Msg("importing feed")
		s.writeError(w, http.StatusBadGateway, "could not import feed: "+err.Error())

		return
	}

	imported := 0

	for _, doc := range docs {
		if err := s.searcher.IndexKnowledge(r.Context(), doc); err != nil {
			s.logger.Warn().Err(err).Str("doc_id", doc.DocID).Msg("skipping feed entry")

			continue
		}

		imported++
	}

	s.writeJSON(w, http.StatusCreated, map[string]any{"imported": imported, "total": len(docs)})
}
