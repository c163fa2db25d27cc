// Package knowledge derives per-turn knowledge-state snapshots from a user's
// query lines.
package knowledge

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/mindline-ai/mindline/internal/llm"
	"github.com/mindline-ai/mindline/internal/prompts"
	"github.com/mindline-ai/mindline/pkg/models"
)

// Analyzer synthesizes knowledge states via structured model calls.
type Analyzer struct {
	model llm.Completer
}

// NewAnalyzer creates an analyzer.
func NewAnalyzer(model llm.Completer) *Analyzer {
	return &Analyzer{model: model}
}

type conceptList struct {
	Concepts []string `json:"concepts"`
}

// AnalyzeKnowledge builds the full snapshot from the current line plus its
// related lines, then splices in the concepts the latest answer exposed.
// The primary call is fatal on failure; the concept-extraction splice is
// best effort and leaves the primary result untouched when it fails.
func (a *Analyzer) AnalyzeKnowledge(ctx context.Context, current *models.QueryLine, related []models.QueryLine) (*models.KnowledgeState, error) {
	var state models.KnowledgeState
	if err := a.model.Complete(ctx, prompts.AnalyzeKnowledge(current, related), &state); err != nil {
		return nil, fmt.Errorf("analyze knowledge state: %w", err)
	}

	if latest, ok := current.LatestResponse(); ok {
		concepts, err := a.extractConcepts(ctx, latest)
		if err != nil {
			log.Warn().Err(err).Str("lineId", current.LineID).Msg("latest-response concept extraction failed, keeping primary analysis")
		} else {
			state.CurrentTopic.LatestResponseConcepts = concepts
		}
	}
	return &state, nil
}

// extractConcepts is a targeted exposure update over only the most recent
// answer, not a re-derivation of the whole state.
func (a *Analyzer) extractConcepts(ctx context.Context, response string) ([]string, error) {
	var list conceptList
	if err := a.model.Complete(ctx, prompts.ExtractConcepts(response), &list); err != nil {
		return nil, err
	}
	return list.Concepts, nil
}
