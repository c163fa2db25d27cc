package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/goccy/go-json"

	"github.com/mindline-ai/mindline/pkg/models"
)

const defaultListLimit = 50

func (s *Service) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"version": s.version,
	})
}

type selectionRequest struct {
	UserID             string `json:"user_id"`
	OriginalQuery      string `json:"original_query"`
	SelectedSuggestion string `json:"selected_suggestion"`
}

func (s *Service) handleSelection(w http.ResponseWriter, r *http.Request) {
	var req selectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.UserID == "" || req.SelectedSuggestion == "" {
		s.writeError(w, http.StatusBadRequest, "user_id and selected_suggestion are required")
		return
	}
	if err := s.tracker.TrackSelection(r.Context(), req.UserID, req.OriginalQuery, req.SelectedSuggestion); err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to record selection")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "recorded"})
}

type interactionRequest struct {
	UserID    string          `json:"user_id"`
	ContentID string          `json:"content_id"`
	Type      string          `json:"interaction_type"`
	Data      json.RawMessage `json:"interaction_data"`
}

func (s *Service) handleInteraction(w http.ResponseWriter, r *http.Request) {
	var req interactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.UserID == "" || req.ContentID == "" {
		s.writeError(w, http.StatusBadRequest, "user_id and content_id are required")
		return
	}
	data, err := models.DecodeInteractionData(models.InteractionType(req.Type), req.Data)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	it := &models.ContentInteraction{
		UserID:    req.UserID,
		ContentID: req.ContentID,
		Type:      models.InteractionType(req.Type),
		Timestamp: time.Now(),
		Data:      data,
	}
	if err := s.tracker.TrackInteraction(r.Context(), it); err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to record interaction")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "recorded"})
}

func (s *Service) handleInteractions(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		s.writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}
	got, err := s.tracker.RecentInteractions(r.Context(), userID, listLimit(r))
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to load interactions")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"interactions": got})
}

func (s *Service) handleSelections(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		s.writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}
	got, err := s.tracker.RecentSelections(r.Context(), userID, listLimit(r))
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to load selections")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"selections": got})
}

func (s *Service) handleCacheStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.callCache.Stats(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to read cache stats")
		return
	}
	contentCount, err := s.contents.Count(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to read content cache stats")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"llm_cache":       stats,
		"content_entries": contentCount,
	})
}

func (s *Service) handleCacheClear(w http.ResponseWriter, r *http.Request) {
	if err := s.callCache.ClearAll(r.Context()); err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to clear call cache")
		return
	}
	if err := s.contents.ClearAll(r.Context()); err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to clear content cache")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

func listLimit(r *http.Request) int {
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			return n
		}
	}
	return defaultListLimit
}
