package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"

	"github.com/mindline-ai/mindline/internal/recommend"
)

// handleQueryStream runs the pipeline for one query and streams progress as
// Server-Sent Events, ending with a complete or error payload. The pipeline
// runs on a context detached from the request: a client disconnect must not
// abandon in-flight external calls, their results still land in the caches.
func (s *Service) handleQueryStream(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	query := r.URL.Query().Get("query")
	if userID == "" || query == "" {
		s.writeError(w, http.StatusBadRequest, "user_id and query are required")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		s.writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	sendEvent := func(v any) {
		payload, err := json.Marshal(v)
		if err != nil {
			log.Error().Err(err).Msg("SSE payload marshal failed")
			return
		}
		fmt.Fprintf(w, "data: %s\n\n", payload)
		flusher.Flush()
	}

	ctx := context.WithoutCancel(r.Context())
	result, err := s.pipeline.Run(ctx, userID, query, func(step recommend.Step) {
		sendEvent(map[string]string{"step": string(step)})
	})
	if err != nil {
		log.Error().Err(err).Str("userId", userID).Msg("pipeline request failed")
		sendEvent(map[string]string{"type": "error", "message": err.Error()})
		return
	}

	sendEvent(map[string]any{"type": "complete", "data": result})
}
