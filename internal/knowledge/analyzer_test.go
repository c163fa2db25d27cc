package knowledge

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
	responses []string
	errs      []error
	calls     int
}

func (m *scriptedModel) Complete(ctx context.Context, msgs []models.Message, out any) error {
	i := m.calls
	m.calls++
	if i < len(m.errs) && m.errs[i] != nil {
		return m.errs[i]
	}
	if i >= len(m.responses) {
		return errors.New("scripted model exhausted")
	}
	return json.Unmarshal([]byte(m.responses[i]), out)
}

const stateJSON = `{
	"current_topic": {
		"topic": "buybacks",
		"concepts": [{"concept": "share count", "demonstrated_level": 0.6, "demonstration_evidence": ["asked about dilution"]}],
		"latest_response_concepts": ["from main analysis"]
	},
	"overall_patterns": ["asks mechanism questions"]
}`

func lineWithResponse() *models.QueryLine {
	return &models.QueryLine{
		LineID:    "l1",
		Queries:   []string{"What is a stock buyback?"},
		Responses: []string{"A buyback reduces share count and can lift EPS."},
	}
}

func TestAnalyzeKnowledgeSplicesLatestConcepts(t *testing.T) {
	model := &scriptedModel{responses: []string{
		stateJSON,
		`{"concepts": ["EPS accretion", "share count"]}`,
	}}
	a := NewAnalyzer(model)

	state, err := a.AnalyzeKnowledge(context.Background(), lineWithResponse(), nil)
	require.NoError(t, err)
	assert.Equal(t, "buybacks", state.CurrentTopic.Topic)
	// The splice replaces only the exposed-concepts list.
	assert.Equal(t, []string{"EPS accretion", "share count"}, state.CurrentTopic.LatestResponseConcepts)
	assert.Equal(t, 0.6, state.CurrentTopic.Concepts[0].DemonstratedLevel)
}

func TestAnalyzeKnowledgeKeepsPrimaryOnExtractionFailure(t *testing.T) {
	model := &scriptedModel{
		responses: []string{stateJSON},
		errs:      []error{nil, errors.New("model unavailable")},
	}
	a := NewAnalyzer(model)

	state, err := a.AnalyzeKnowledge(context.Background(), lineWithResponse(), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"from main analysis"}, state.CurrentTopic.LatestResponseConcepts)
}

func TestAnalyzeKnowledgeSkipsExtractionWithoutResponse(t *testing.T) {
	model := &scriptedModel{responses: []string{stateJSON}}
	a := NewAnalyzer(model)

	line := &models.QueryLine{LineID: "l1", Queries: []string{"q"}}
	_, err := a.AnalyzeKnowledge(context.Background(), line, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, model.calls)
}

func TestAnalyzeKnowledgePrimaryFailureIsFatal(t *testing.T) {
	model := &scriptedModel{errs: []error{errors.New("model unavailable")}}
	a := NewAnalyzer(model)

	_, err := a.AnalyzeKnowledge(context.Background(), lineWithResponse(), nil)
	require.Error(t, err)
}
