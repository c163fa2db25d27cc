package content

import (
	"context"
	"sort"

	"github.com/rs/zerolog/log"

	"github.com/mindline-ai/mindline/internal/llm"
	"github.com/mindline-ai/mindline/internal/prompts"
	"github.com/mindline-ai/mindline/pkg/models"
)

// Filterer scores candidates against the knowledge state and moment.
type Filterer struct {
	model llm.Completer
}

// NewFilterer creates a filterer.
func NewFilterer(model llm.Completer) *Filterer {
	return &Filterer{model: model}
}

// FilterContent evaluates every candidate, no early termination: candidate
// sets are search-bounded, so simplicity wins over cost-optimization. Every
// candidate's ID lands in AttemptedContent regardless of outcome; the
// valuable list comes back sorted by descending score.
func (f *Filterer) FilterContent(ctx context.Context, candidates []models.ProcessedContent, moment *models.MomentDetection, query string, analysis *models.LineAnalysis, state *models.KnowledgeState, recent []models.ContentInteraction) (*models.FilteredContent, error) {
	out := &models.FilteredContent{
		AttemptedContent: make([]string, 0, len(candidates)),
	}

	for i := range candidates {
		candidate := &candidates[i]
		out.AttemptedContent = append(out.AttemptedContent, candidate.ContentID)

		var eval models.ContentEvaluation
		if err := f.model.Complete(ctx, prompts.EvaluateContent(candidate, moment, query, analysis, state, recent), &eval); err != nil {
			log.Warn().Err(err).Str("contentId", candidate.ContentID).Msg("content evaluation failed, dropping candidate")
			continue
		}
		if !eval.IsValuable {
			continue
		}
		out.ValuableContent = append(out.ValuableContent, models.ContentValue{
			Content:          *candidate,
			ValueScore:       eval.ValueScore,
			Explanation:      eval.Explanation,
			RelevantSections: eval.RelevantSections,
			RelevanceContext: string(moment.MomentType),
		})
	}

	sort.SliceStable(out.ValuableContent, func(i, j int) bool {
		return out.ValuableContent[i].ValueScore > out.ValuableContent[j].ValueScore
	})
	return out, nil
}
