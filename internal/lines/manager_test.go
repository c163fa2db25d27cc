package lines

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"

	"github.com/mindline-ai/mindline/internal/db"
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

func testLineStore(t *testing.T) *db.LineStore {
	t.Helper()
	store, err := db.NewStore(db.Config{
		Driver:   db.DriverSQLite,
		Path:     filepath.Join(t.TempDir(), "lines.db"),
		LogLevel: logger.Silent,
	})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return db.NewLineStore(store)
}

func TestFirstQueryCreatesNewLine(t *testing.T) {
	store := testLineStore(t)
	model := &scriptedModel{responses: []string{
		// No classification call happens with zero existing lines; the first
		// call is the re-analysis.
		`{"topic": "stock buybacks", "analysis": {"inferred_goal": "understand buybacks", "learning_progression": "starting out", "current_focus": "definition"}}`,
	}}
	mgr := NewManager(store, model, 0)

	line, analysis, err := mgr.GetOrUpdateLine(context.Background(), "u1", "What is a stock buyback?")
	require.NoError(t, err)
	require.NotNil(t, line)
	assert.NotEmpty(t, line.LineID)
	assert.Equal(t, []string{"What is a stock buyback?"}, line.Queries)
	assert.Len(t, line.Timestamps, 1)
	assert.Empty(t, line.Responses)
	assert.Equal(t, "stock buybacks", line.LineTopic)
	assert.Equal(t, "understand buybacks", analysis.InferredGoal)

	// Answer arrives.
	require.NoError(t, mgr.AppendResponse(context.Background(), line, "A buyback is..."))
	got, err := store.GetLine(context.Background(), line.LineID)
	require.NoError(t, err)
	assert.Len(t, got.Responses, 1)
	require.NoError(t, got.Validate())
}

func TestSecondQueryContinuesLine(t *testing.T) {
	store := testLineStore(t)
	model := &scriptedModel{responses: []string{
		`{"topic": "stock buybacks", "analysis": {"inferred_goal": "understand buybacks"}}`,
		`{"continues_line": true, "line_index": 0, "confidence": 0.92, "reasoning": "same topic"}`,
		`{"topic": "buybacks and EPS", "analysis": {"inferred_goal": "understand buyback effects"}}`,
	}}
	mgr := NewManager(store, model, 0)
	ctx := context.Background()

	first, _, err := mgr.GetOrUpdateLine(ctx, "u1", "What is a stock buyback?")
	require.NoError(t, err)
	require.NoError(t, mgr.AppendResponse(ctx, first, "A buyback is..."))

	second, _, err := mgr.GetOrUpdateLine(ctx, "u1", "How does that affect EPS?")
	require.NoError(t, err)
	assert.Equal(t, first.LineID, second.LineID)
	assert.Len(t, second.Queries, 2)
	assert.Equal(t, "buybacks and EPS", second.LineTopic)

	// The rename is visible in storage, keyed by line identity.
	stored, err := store.GetLine(ctx, first.LineID)
	require.NoError(t, err)
	assert.Equal(t, "buybacks and EPS", stored.LineTopic)
	require.NoError(t, stored.Validate())
}

func TestUnrelatedQueryStartsNewLine(t *testing.T) {
	store := testLineStore(t)
	model := &scriptedModel{responses: []string{
		`{"topic": "stock buybacks", "analysis": {}}`,
		`{"continues_line": false, "line_index": -1, "confidence": 0.85, "reasoning": "different topic"}`,
		`{"topic": "options pricing", "analysis": {}}`,
	}}
	mgr := NewManager(store, model, 0)
	ctx := context.Background()

	first, _, err := mgr.GetOrUpdateLine(ctx, "u1", "What is a stock buyback?")
	require.NoError(t, err)

	second, _, err := mgr.GetOrUpdateLine(ctx, "u1", "Explain Black-Scholes")
	require.NoError(t, err)
	assert.NotEqual(t, first.LineID, second.LineID)

	all, err := mgr.AllLines(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestClassificationFailureIsFatal(t *testing.T) {
	store := testLineStore(t)
	model := &scriptedModel{responses: []string{
		`{"topic": "t", "analysis": {}}`,
	}}
	mgr := NewManager(store, model, 0)
	ctx := context.Background()

	_, _, err := mgr.GetOrUpdateLine(ctx, "u1", "first")
	require.NoError(t, err)

	// The classification call for the second query fails; no silent default.
	model.errs = []error{nil, errors.New("model unavailable")}
	_, _, err = mgr.GetOrUpdateLine(ctx, "u1", "second")
	require.Error(t, err)

	// No phantom line was created.
	all, err := mgr.AllLines(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, all, 1)
	assert.Len(t, all[0].Queries, 1)
}
