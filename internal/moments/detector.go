// Package moments classifies whether the current point in conversation is a
// valuable moment to recommend supplementary content.
package moments

import (
	"context"
	"fmt"

	"github.com/mindline-ai/mindline/internal/llm"
	"github.com/mindline-ai/mindline/internal/prompts"
	"github.com/mindline-ai/mindline/pkg/models"
)

// Detector is a stateless classification gate.
type Detector struct {
	model llm.Completer
}

// NewDetector creates a detector.
func NewDetector(model llm.Completer) *Detector {
	return &Detector{model: model}
}

// DetectMoment returns the detection iff a moment was found, nil otherwise.
func (d *Detector) DetectMoment(ctx context.Context, query string, analysis *models.LineAnalysis, state *models.KnowledgeState, recent []models.ContentInteraction) (*models.MomentDetection, error) {
	var det models.MomentDetection
	if err := d.model.Complete(ctx, prompts.DetectMoment(query, analysis, state, recent), &det); err != nil {
		return nil, fmt.Errorf("detect learning moment: %w", err)
	}
	if !det.IsMoment {
		return nil, nil
	}
	return &det, nil
}
