package lines

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/mindline-ai/mindline/internal/llm"
	"github.com/mindline-ai/mindline/internal/prompts"
	"github.com/mindline-ai/mindline/pkg/models"
)

// Grouper selects the subset of a user's lines relevant to assessing their
// present understanding.
type Grouper struct {
	model llm.Completer
}

// NewGrouper creates a grouper.
func NewGrouper(model llm.Completer) *Grouper {
	return &Grouper{model: model}
}

type relatedSelection struct {
	RelatedIndices []int  `json:"related_indices"`
	Reasoning      string `json:"reasoning"`
}

// RelatedLines returns the lines to feed knowledge analysis. The current
// line is always included; on any failure the result degrades to just the
// current line rather than blocking the pipeline.
func (g *Grouper) RelatedLines(ctx context.Context, current *models.QueryLine, all []models.QueryLine) []models.QueryLine {
	result := []models.QueryLine{*current}
	if len(all) <= 1 {
		return result
	}

	others := make([]models.QueryLine, 0, len(all)-1)
	for i := range all {
		if all[i].LineID != current.LineID {
			others = append(others, all[i])
		}
	}
	if len(others) == 0 {
		return result
	}

	var sel relatedSelection
	if err := g.model.Complete(ctx, prompts.SelectRelatedLines(current, others), &sel); err != nil {
		log.Warn().Err(err).Str("lineId", current.LineID).Msg("related-line selection failed, using current line only")
		return result
	}

	for _, idx := range sel.RelatedIndices {
		if idx >= 0 && idx < len(others) {
			result = append(result, others[idx])
		}
	}
	return result
}
