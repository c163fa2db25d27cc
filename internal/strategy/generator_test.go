package strategy

import (
	"context"
	"errors"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mindline-ai/mindline/pkg/models"
)

type scriptedModel struct {
	response string
	err      error
	calls    int
}

func (m *scriptedModel) Complete(ctx context.Context, msgs []models.Message, out any) error {
	m.calls++
	if m.err != nil {
		return m.err
	}
	return json.Unmarshal([]byte(m.response), out)
}

func moment() *models.MomentDetection {
	return &models.MomentDetection{IsMoment: true, MomentType: models.MomentConceptStruggle}
}

func TestGenerateFresh(t *testing.T) {
	model := &scriptedModel{response: `{
		"search_queries": ["stock buyback mechanics", "buyback EPS effect"],
		"technical_depth_target": 0.4,
		"required_concepts": ["share count"]
	}`}
	g := NewGenerator(model)

	strat, err := g.Generate(context.Background(), "What is a buyback?", moment(), &models.LineAnalysis{}, &models.KnowledgeState{}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"stock buyback mechanics", "buyback EPS effect"}, strat.SearchQueries)
	assert.Equal(t, 0.4, strat.TechnicalDepthTarget)
	assert.Empty(t, strat.PreviousAttempts)
}

func TestGenerateFreshFailureIsFatal(t *testing.T) {
	g := NewGenerator(&scriptedModel{err: errors.New("model unavailable")})

	_, err := g.Generate(context.Background(), "q", moment(), &models.LineAnalysis{}, &models.KnowledgeState{}, nil, nil)
	require.Error(t, err)
}

func TestGenerateRefinesAfterAttempts(t *testing.T) {
	model := &scriptedModel{response: `{
		"keep_queries": ["buyback EPS effect"],
		"new_queries": ["share repurchase accounting"],
		"technical_depth_target": 0.6,
		"reasoning": "go deeper"
	}`}
	g := NewGenerator(model)

	prev := &models.SearchStrategy{
		SearchQueries:        []string{"stock buyback mechanics", "buyback EPS effect"},
		TechnicalDepthTarget: 0.4,
		RequiredConcepts:     []string{"share count"},
		PreviousAttempts: []models.SearchAttempt{
			{Query: "stock buyback mechanics", FailureReason: "no valuable content"},
		},
	}

	strat, err := g.Generate(context.Background(), "What is a buyback?", moment(), &models.LineAnalysis{}, &models.KnowledgeState{}, nil, prev)
	require.NoError(t, err)
	assert.Equal(t, []string{"buyback EPS effect", "share repurchase accounting"}, strat.SearchQueries)
	assert.Equal(t, 0.6, strat.TechnicalDepthTarget)
	// Required concepts and attempt history carry forward unchanged.
	assert.Equal(t, prev.RequiredConcepts, strat.RequiredConcepts)
	assert.Equal(t, prev.PreviousAttempts, strat.PreviousAttempts)
}

func TestRefinementFailureFallsBackToSuccessfulQueries(t *testing.T) {
	g := NewGenerator(&scriptedModel{err: errors.New("model unavailable")})

	prev := &models.SearchStrategy{
		SearchQueries:        []string{"a", "b"},
		TechnicalDepthTarget: 0.5,
		PreviousAttempts: []models.SearchAttempt{
			{Query: "a", FoundValuableContent: true, ContentIDsFound: []string{"c1"}},
			{Query: "b", FailureReason: "nothing found"},
		},
	}

	strat, err := g.Generate(context.Background(), "original question", moment(), &models.LineAnalysis{}, &models.KnowledgeState{}, nil, prev)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "original question"}, strat.SearchQueries)
	assert.NotEmpty(t, strat.SearchQueries)
}

func TestFallbackNeverEmptyEvenWithoutSuccesses(t *testing.T) {
	prev := &models.SearchStrategy{
		PreviousAttempts: []models.SearchAttempt{
			{Query: "a", FailureReason: "nothing"},
		},
	}
	strat := Fallback("original question", prev)
	assert.Equal(t, []string{"original question"}, strat.SearchQueries)
}

func TestRecordAttemptIsPure(t *testing.T) {
	orig := models.SearchStrategy{
		SearchQueries: []string{"a"},
		PreviousAttempts: []models.SearchAttempt{
			{Query: "a", FailureReason: "nothing"},
		},
	}

	next := RecordAttempt(orig, models.SearchAttempt{Query: "b", FoundValuableContent: true, ContentIDsFound: []string{"c1"}})

	require.Len(t, next.PreviousAttempts, 2)
	assert.Equal(t, "b", next.PreviousAttempts[1].Query)
	// The input strategy is unchanged.
	assert.Len(t, orig.PreviousAttempts, 1)

	// Appending to the new strategy cannot bleed into the old backing array.
	third := RecordAttempt(next, models.SearchAttempt{Query: "c"})
	assert.Len(t, next.PreviousAttempts, 2)
	assert.Len(t, third.PreviousAttempts, 3)
}
