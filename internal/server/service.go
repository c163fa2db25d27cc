// Package server exposes the HTTP surface: the SSE query stream, selection
// and interaction tracking, and cache administration.
package server

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"

	"github.com/mindline-ai/mindline/internal/llmcache"
	"github.com/mindline-ai/mindline/internal/recommend"
	"github.com/mindline-ai/mindline/pkg/models"
)

// Runner executes the recommendation pipeline for one query.
type Runner interface {
	Run(ctx context.Context, userID, query string, progress recommend.Progress) (*recommend.Result, error)
}

// Tracker records and reads engagement events.
type Tracker interface {
	TrackInteraction(ctx context.Context, it *models.ContentInteraction) error
	TrackSelection(ctx context.Context, userID, originalQuery, suggestion string) error
	RecentInteractions(ctx context.Context, userID string, limit int) ([]models.ContentInteraction, error)
	RecentSelections(ctx context.Context, userID string, limit int) ([]models.ContentInteraction, error)
}

// ContentCache is the administrative view of the content cache.
type ContentCache interface {
	Count(ctx context.Context) (int64, error)
	ClearAll(ctx context.Context) error
}

// Service is the HTTP service. Construct once at startup and share; all
// request state lives in the handlers.
type Service struct {
	version   string
	router    chi.Router
	pipeline  Runner
	tracker   Tracker
	callCache llmcache.Store
	contents  ContentCache
}

// NewService wires the HTTP routes over the pipeline and stores.
func NewService(version string, pipeline Runner, tracker Tracker, callCache llmcache.Store, contents ContentCache) *Service {
	s := &Service{
		version:   version,
		router:    chi.NewRouter(),
		pipeline:  pipeline,
		tracker:   tracker,
		callCache: callCache,
		contents:  contents,
	}
	s.setupRoutes()
	return s
}

func (s *Service) setupRoutes() {
	s.router.Use(middleware.Recoverer)

	s.router.Get("/api/health", s.handleHealth)
	s.router.Get("/api/query/stream", s.handleQueryStream)
	s.router.Post("/api/selection", s.handleSelection)
	s.router.Post("/api/interaction", s.handleInteraction)
	s.router.Get("/api/interactions", s.handleInteractions)
	s.router.Get("/api/selections", s.handleSelections)
	s.router.Get("/api/cache/stats", s.handleCacheStats)
	s.router.Post("/api/cache/clear", s.handleCacheClear)
}

// Handler returns the root HTTP handler.
func (s *Service) Handler() http.Handler {
	return s.router
}

func (s *Service) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Debug().Err(err).Msg("response write failed")
	}
}

func (s *Service) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}
