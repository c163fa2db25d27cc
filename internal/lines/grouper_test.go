package lines

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mindline-ai/mindline/pkg/models"
)

func TestRelatedLinesSingleLineTrivial(t *testing.T) {
	g := NewGrouper(&scriptedModel{})
	current := &models.QueryLine{LineID: "a", LineTopic: "buybacks"}

	got := g.RelatedLines(context.Background(), current, []models.QueryLine{*current})
	assert.Len(t, got, 1)
	assert.Equal(t, "a", got[0].LineID)
}

func TestRelatedLinesIncludesSelection(t *testing.T) {
	model := &scriptedModel{responses: []string{
		`{"related_indices": [1], "reasoning": "EPS relates to buybacks"}`,
	}}
	g := NewGrouper(model)

	current := &models.QueryLine{LineID: "a", LineTopic: "buybacks"}
	all := []models.QueryLine{
		*current,
		{LineID: "b", LineTopic: "options pricing"},
		{LineID: "c", LineTopic: "EPS"},
	}

	got := g.RelatedLines(context.Background(), current, all)
	assert.Len(t, got, 2)
	assert.Equal(t, "a", got[0].LineID)
	assert.Equal(t, "c", got[1].LineID)
}

func TestRelatedLinesIgnoresOutOfRangeIndices(t *testing.T) {
	model := &scriptedModel{responses: []string{
		`{"related_indices": [-1, 7, 0], "reasoning": ""}`,
	}}
	g := NewGrouper(model)

	current := &models.QueryLine{LineID: "a"}
	all := []models.QueryLine{*current, {LineID: "b"}}

	got := g.RelatedLines(context.Background(), current, all)
	assert.Len(t, got, 2)
	assert.Equal(t, "b", got[1].LineID)
}

func TestRelatedLinesDegradesToCurrentOnError(t *testing.T) {
	model := &scriptedModel{errs: []error{errors.New("model unavailable")}}
	g := NewGrouper(model)

	current := &models.QueryLine{LineID: "a"}
	all := []models.QueryLine{*current, {LineID: "b"}, {LineID: "c"}}

	got := g.RelatedLines(context.Background(), current, all)
	assert.Len(t, got, 1)
	assert.Equal(t, "a", got[0].LineID)
}
