package recommend

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mindline-ai/mindline/pkg/models"
)

type fakeLines struct {
	line     *models.QueryLine
	analysis *models.LineAnalysis
	appended []string
}

func (f *fakeLines) GetOrUpdateLine(ctx context.Context, userID, query string) (*models.QueryLine, *models.LineAnalysis, error) {
	return f.line, f.analysis, nil
}

func (f *fakeLines) AppendResponse(ctx context.Context, line *models.QueryLine, response string) error {
	f.appended = append(f.appended, response)
	line.Responses = append(line.Responses, response)
	return nil
}

func (f *fakeLines) AllLines(ctx context.Context, userID string) ([]models.QueryLine, error) {
	return []models.QueryLine{*f.line}, nil
}

type fakeAnswer struct{ answer *models.Answer }

func (f *fakeAnswer) Send(ctx context.Context, msgs []models.Message) (*models.Answer, error) {
	return f.answer, nil
}

type fakeGrouper struct{}

func (fakeGrouper) RelatedLines(ctx context.Context, current *models.QueryLine, all []models.QueryLine) []models.QueryLine {
	return []models.QueryLine{*current}
}

type fakeKnowledge struct{ state *models.KnowledgeState }

func (f *fakeKnowledge) AnalyzeKnowledge(ctx context.Context, current *models.QueryLine, related []models.QueryLine) (*models.KnowledgeState, error) {
	return f.state, nil
}

type fakeMoments struct {
	moment *models.MomentDetection
	err    error
}

func (f *fakeMoments) DetectMoment(ctx context.Context, query string, analysis *models.LineAnalysis, state *models.KnowledgeState, recent []models.ContentInteraction) (*models.MomentDetection, error) {
	return f.moment, f.err
}

// fakeStrategies records the prev strategy handed to each Generate call.
type fakeStrategies struct {
	calls []*models.SearchStrategy
}

func (f *fakeStrategies) Generate(ctx context.Context, query string, moment *models.MomentDetection, analysis *models.LineAnalysis, state *models.KnowledgeState, recent []models.ContentInteraction, prev *models.SearchStrategy) (*models.SearchStrategy, error) {
	f.calls = append(f.calls, prev)
	out := &models.SearchStrategy{
		SearchQueries:        []string{"q1"},
		TechnicalDepthTarget: 0.4,
	}
	if prev != nil {
		out.PreviousAttempts = prev.PreviousAttempts
	}
	return out, nil
}

type fakeDiscovery struct{ candidates []models.ProcessedContent }

func (f *fakeDiscovery) ExecuteSearch(ctx context.Context, strat *models.SearchStrategy) ([]models.ProcessedContent, error) {
	return f.candidates, nil
}

type fakeFilter struct{ results []*models.FilteredContent }

func (f *fakeFilter) FilterContent(ctx context.Context, candidates []models.ProcessedContent, moment *models.MomentDetection, query string, analysis *models.LineAnalysis, state *models.KnowledgeState, recent []models.ContentInteraction) (*models.FilteredContent, error) {
	out := f.results[0]
	if len(f.results) > 1 {
		f.results = f.results[1:]
	}
	return out, nil
}

type fakeInteractions struct{}

func (fakeInteractions) RecentInteractions(ctx context.Context, userID string, limit int) ([]models.ContentInteraction, error) {
	return nil, nil
}

type fakeAudit struct {
	records []*models.RecommendationRecord
	err     error
}

func (f *fakeAudit) Insert(ctx context.Context, rec *models.RecommendationRecord) error {
	if f.err != nil {
		return f.err
	}
	f.records = append(f.records, rec)
	return nil
}

func testDeps() (Deps, *fakeStrategies, *fakeAudit) {
	strategies := &fakeStrategies{}
	audit := &fakeAudit{}
	line := &models.QueryLine{
		LineID:    "line-1",
		UserID:    "u1",
		LineTopic: "stock buybacks",
		Queries:   []string{"What is a stock buyback?"},
	}
	deps := Deps{
		Lines:        &fakeLines{line: line, analysis: &models.LineAnalysis{CurrentFocus: "definition"}},
		Answer:       &fakeAnswer{answer: &models.Answer{Text: "A buyback is...", Citations: []string{"https://example.com/a"}}},
		Grouper:      fakeGrouper{},
		Knowledge:    &fakeKnowledge{state: &models.KnowledgeState{}},
		Moments:      &fakeMoments{},
		Strategies:   strategies,
		Discovery:    &fakeDiscovery{},
		Filter:       &fakeFilter{results: []*models.FilteredContent{{}}},
		Interactions: fakeInteractions{},
		Audit:        audit,
	}
	return deps, strategies, audit
}

func TestNoMomentSkipsStrategy(t *testing.T) {
	deps, strategies, _ := testDeps()
	o := NewOrchestrator(deps, 3)

	var steps []Step
	got, err := o.Run(context.Background(), "u1", "What is a stock buyback?", func(s Step) {
		steps = append(steps, s)
	})
	require.NoError(t, err)

	assert.Nil(t, got.Moment)
	assert.Nil(t, got.Recommendations)
	assert.Equal(t, "A buyback is...", got.PerplexityResponse)
	assert.Empty(t, strategies.calls)
	assert.Equal(t, []Step{StepInitial, StepAnalyzing, StepKnowledge, StepMoment, StepFinalizing}, steps)
}

func TestAllAttemptsFailYieldsNilRecommendations(t *testing.T) {
	deps, strategies, audit := testDeps()
	deps.Moments = &fakeMoments{moment: &models.MomentDetection{
		IsMoment:   true,
		MomentType: models.MomentConceptStruggle,
	}}
	// Filter never finds anything valuable but always attempts.
	deps.Filter = &fakeFilter{results: []*models.FilteredContent{
		{AttemptedContent: []string{"c1"}},
	}}
	o := NewOrchestrator(deps, 3)

	got, err := o.Run(context.Background(), "u1", "q", nil)
	require.NoError(t, err)

	assert.NotNil(t, got.Moment)
	assert.Nil(t, got.Recommendations)
	require.Len(t, strategies.calls, 3)
	assert.Nil(t, strategies.calls[0])
	// Each failed iteration appends exactly one attempt to the strategy
	// handed to the next Generate call.
	require.NotNil(t, strategies.calls[1])
	require.Len(t, strategies.calls[1].PreviousAttempts, 1)
	// Attempts carry the user's query, so a refinement fallback can reuse it
	// as a search query.
	assert.Equal(t, "q", strategies.calls[1].PreviousAttempts[0].Query)
	assert.False(t, strategies.calls[1].PreviousAttempts[0].FoundValuableContent)
	require.NotNil(t, strategies.calls[2])
	assert.Len(t, strategies.calls[2].PreviousAttempts, 2)
	assert.Empty(t, audit.records)
}

func TestValuableContentPersistsAudit(t *testing.T) {
	deps, strategies, audit := testDeps()
	deps.Moments = &fakeMoments{moment: &models.MomentDetection{
		IsMoment:   true,
		MomentType: models.MomentNewTopicNoContext,
	}}
	deps.Filter = &fakeFilter{results: []*models.FilteredContent{{
		AttemptedContent: []string{"c1", "c2"},
		ValuableContent: []models.ContentValue{
			{ValueScore: 0.9},
		},
	}}}
	o := NewOrchestrator(deps, 3)

	var steps []Step
	got, err := o.Run(context.Background(), "u1", "q", func(s Step) { steps = append(steps, s) })
	require.NoError(t, err)

	require.NotNil(t, got.Recommendations)
	assert.Len(t, got.Recommendations.ValuableContent, 1)
	assert.Len(t, strategies.calls, 1)
	require.Len(t, audit.records, 1)
	assert.Equal(t, "u1", audit.records[0].UserID)
	assert.Equal(t, "q", audit.records[0].Query)
	assert.Equal(t, []Step{
		StepInitial, StepAnalyzing, StepKnowledge, StepMoment,
		StepStrategy, StepSearching, StepExtracting, StepFinalizing,
	}, steps)
}

func TestAuditFailureDoesNotFailRequest(t *testing.T) {
	deps, _, _ := testDeps()
	deps.Moments = &fakeMoments{moment: &models.MomentDetection{IsMoment: true, MomentType: models.MomentGoalDirection}}
	deps.Filter = &fakeFilter{results: []*models.FilteredContent{{
		AttemptedContent: []string{"c1"},
		ValuableContent:  []models.ContentValue{{ValueScore: 0.7}},
	}}}
	deps.Audit = &fakeAudit{err: errors.New("db unavailable")}
	o := NewOrchestrator(deps, 3)

	got, err := o.Run(context.Background(), "u1", "q", nil)
	require.NoError(t, err)
	assert.NotNil(t, got.Recommendations)
}
