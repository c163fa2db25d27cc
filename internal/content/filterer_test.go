package content

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mindline-ai/mindline/pkg/models"
)

// scriptedModel returns queued JSON responses in order, or a queued error.
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

func testCandidates(n int) []models.ProcessedContent {
	out := make([]models.ProcessedContent, n)
	for i := range out {
		url := fmt.Sprintf("https://example.com/article-%d", i)
		out[i] = models.ProcessedContent{
			ContentID: models.ContentID(url),
			URL:       url,
			Title:     fmt.Sprintf("Article %d", i),
		}
	}
	return out
}

func testMoment() *models.MomentDetection {
	return &models.MomentDetection{
		IsMoment:   true,
		MomentType: models.MomentConceptStruggle,
		Reasoning:  "repeated rephrasing of the same concept",
	}
}

func TestFilterAttemptsEveryCandidate(t *testing.T) {
	model := &scriptedModel{
		responses: []string{
			`{"is_valuable": true, "value_score": 0.6, "explanation": "covers the gap", "relevant_sections": ["intro"]}`,
			`{"is_valuable": false, "value_score": 0.1, "explanation": "already known"}`,
			``,
			`{"is_valuable": true, "value_score": 0.9, "explanation": "direct match", "relevant_sections": ["mechanics"]}`,
			`{"is_valuable": false, "value_score": 0.2, "explanation": "off topic"}`,
		},
		errs: []error{nil, nil, errors.New("model unavailable"), nil, nil},
	}
	f := NewFilterer(model)

	candidates := testCandidates(5)
	got, err := f.FilterContent(context.Background(), candidates, testMoment(), "how do buybacks affect EPS", nil, nil, nil)
	require.NoError(t, err)

	// Every candidate is attempted, including the one whose evaluation
	// errored out.
	require.Len(t, got.AttemptedContent, 5)
	for i, c := range candidates {
		assert.Equal(t, c.ContentID, got.AttemptedContent[i])
	}

	require.Len(t, got.ValuableContent, 2)
	assert.Equal(t, 0.9, got.ValuableContent[0].ValueScore)
	assert.Equal(t, 0.6, got.ValuableContent[1].ValueScore)
	assert.Equal(t, candidates[3].ContentID, got.ValuableContent[0].Content.ContentID)
	assert.Equal(t, string(models.MomentConceptStruggle), got.ValuableContent[0].RelevanceContext)
}

func TestFilterEmptyCandidates(t *testing.T) {
	f := NewFilterer(&scriptedModel{})

	got, err := f.FilterContent(context.Background(), nil, testMoment(), "q", nil, nil, nil)
	require.NoError(t, err)
	assert.Empty(t, got.AttemptedContent)
	assert.Empty(t, got.ValuableContent)
}
