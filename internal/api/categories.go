package api

import (
	"net/http"
	"strings"

	"github.com/reviewradar/review-radar/internal/core/domain"
)

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	dictionary, err := s.repo.LoadCategoryDictionary(r.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("loading categories")
		s.writeError(w, http.StatusInternalServerError, "could not load categories")

		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{"categories": dictionary, "count": len(dictionary)})
}

func (s *Server) handleUpsertCategory(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")

	var category domain.Category
	if !s.decodeBody(w, r, &category) {
		return
	}

	category.Key = strings.ToLower(key)

	if len(category.Keywords) == 0 {
		s.writeError(w, http.StatusBadRequest, "at least one keyword list is required")

		return
	}

	if err := s.repo.UpsertCategory(r.Context(), category); err != nil {
		s.logger.Error().Err(err).Str("category", category.Key).Msg("upserting category")
		s.writeError(w, http.StatusInternalServerError, "could not save category")

		return
	}

	// The matcher reloads its dictionary on next use.
	s.cache.Invalidate()

	s.writeJSON(w, http.StatusOK, map[string]string{"category_key": category.Key})
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	key := strings.ToLower(r.PathValue("key"))

	deleted, err := s.repo.DeleteCategory(r.Context(), key)
	if err != nil {
		s.logger.Error().Err(err).Str("category", key).Msg("deleting category")
		s.writeError(w, http.StatusInternalServerError, "could not delete category")

		return
	}

	if !deleted {
		s.writeError(w, http.StatusNotFound, "category not found")

		return
	}

	s.cache.Invalidate()

	s.writeJSON(w, http.StatusOK, map[string]string{"category_key": key})
}

func (s *Server) handleRefreshCategories(w http.ResponseWriter, _ *http.Request) {
	s.cache.Invalidate()

	s.writeJSON(w, http.StatusOK, map[string]string{"status": "refreshed"})
}
