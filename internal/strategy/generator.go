// Package strategy produces and refines search strategies for content
// discovery. Strategies are values: refinement and attempt recording return
// new strategies, never mutate existing ones.
package strategy

import (
	"context"
	"fmt"
	"slices"

	"github.com/rs/zerolog/log"

	"github.com/mindline-ai/mindline/internal/llm"
	"github.com/mindline-ai/mindline/internal/prompts"
	"github.com/mindline-ai/mindline/pkg/models"
)

// Generator runs the Fresh and Refining states of strategy generation.
type Generator struct {
	model llm.Completer
}

// NewGenerator creates a generator.
func NewGenerator(model llm.Completer) *Generator {
	return &Generator{model: model}
}

// Generate produces the next strategy. With no prior strategy (or one with
// no recorded attempts) it generates fresh; otherwise it refines. Fresh
// failures are fatal; refinement failures fall back deterministically so the
// loop always keeps a non-empty query set.
func (g *Generator) Generate(ctx context.Context, query string, moment *models.MomentDetection, analysis *models.LineAnalysis, state *models.KnowledgeState, recent []models.ContentInteraction, prev *models.SearchStrategy) (*models.SearchStrategy, error) {
	if prev == nil || len(prev.PreviousAttempts) == 0 {
		return g.fresh(ctx, query, moment, analysis, state, recent)
	}
	return g.refine(ctx, query, state, prev), nil
}

func (g *Generator) fresh(ctx context.Context, query string, moment *models.MomentDetection, analysis *models.LineAnalysis, state *models.KnowledgeState, recent []models.ContentInteraction) (*models.SearchStrategy, error) {
	var strat models.SearchStrategy
	if err := g.model.Complete(ctx, prompts.GenerateStrategy(query, moment, analysis, state, recent), &strat); err != nil {
		return nil, fmt.Errorf("generate search strategy: %w", err)
	}
	if len(strat.SearchQueries) == 0 {
		strat.SearchQueries = []string{query}
	}
	strat.PreviousAttempts = nil
	return &strat, nil
}

// refine combines kept and new queries, carries required concepts and the
// attempt history forward unchanged. Attempts are only ever appended by
// RecordAttempt.
func (g *Generator) refine(ctx context.Context, query string, state *models.KnowledgeState, prev *models.SearchStrategy) *models.SearchStrategy {
	var ref models.StrategyRefinement
	if err := g.model.Complete(ctx, prompts.RefineStrategy(query, prev, state), &ref); err != nil {
		log.Warn().Err(err).Msg("strategy refinement failed, using deterministic fallback")
		return Fallback(query, prev)
	}

	queries := make([]string, 0, len(ref.KeepQueries)+len(ref.NewQueries))
	queries = append(queries, ref.KeepQueries...)
	for _, q := range ref.NewQueries {
		if !slices.Contains(queries, q) {
			queries = append(queries, q)
		}
	}
	if len(queries) == 0 {
		return Fallback(query, prev)
	}

	depth := prev.TechnicalDepthTarget
	if ref.TechnicalDepthTarget > 0 {
		depth = ref.TechnicalDepthTarget
	}

	return &models.SearchStrategy{
		SearchQueries:        queries,
		TechnicalDepthTarget: depth,
		RequiredConcepts:     prev.RequiredConcepts,
		PreviousAttempts:     prev.PreviousAttempts,
	}
}

// Fallback keeps every previously successful query plus the original query,
// guaranteeing forward progress with a non-empty query set even when the
// refinement call is unavailable.
func Fallback(query string, prev *models.SearchStrategy) *models.SearchStrategy {
	var queries []string
	for _, a := range prev.PreviousAttempts {
		if a.FoundValuableContent && !slices.Contains(queries, a.Query) {
			queries = append(queries, a.Query)
		}
	}
	if !slices.Contains(queries, query) {
		queries = append(queries, query)
	}
	return &models.SearchStrategy{
		SearchQueries:        queries,
		TechnicalDepthTarget: prev.TechnicalDepthTarget,
		RequiredConcepts:     prev.RequiredConcepts,
		PreviousAttempts:     prev.PreviousAttempts,
	}
}

// RecordAttempt returns a new strategy with one more attempt appended. Pure:
// the input strategy is left unchanged.
func RecordAttempt(s models.SearchStrategy, attempt models.SearchAttempt) models.SearchStrategy {
	attempts := make([]models.SearchAttempt, len(s.PreviousAttempts), len(s.PreviousAttempts)+1)
	copy(attempts, s.PreviousAttempts)
	attempts = append(attempts, attempt)

	out := s
	out.PreviousAttempts = attempts
	return out
}
