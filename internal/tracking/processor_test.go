package tracking

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"

	"github.com/mindline-ai/mindline/internal/db"
	"github.com/mindline-ai/mindline/pkg/models"
)

func testProcessor(t *testing.T) *Processor {
	t.Helper()
	store, err := db.NewStore(db.Config{
		Driver:   db.DriverSQLite,
		Path:     filepath.Join(t.TempDir(), "tracking.db"),
		LogLevel: logger.Silent,
	})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return NewProcessor(db.NewInteractionStore(store))
}

func TestEngagementAggregation(t *testing.T) {
	p := testProcessor(t)
	ctx := context.Background()
	contentID := models.ContentID("https://example.com/a")

	events := []*models.ContentInteraction{
		{UserID: "u1", ContentID: contentID, Type: models.InteractionReadStart, Data: &models.ReadStartData{Suggestion: "https://example.com/a"}},
		{UserID: "u1", ContentID: contentID, Type: models.InteractionProgressUpdate, Data: &models.ProgressUpdateData{Percentage: 40}},
		{UserID: "u1", ContentID: contentID, Type: models.InteractionProgressUpdate, Data: &models.ProgressUpdateData{Percentage: 25}},
		{UserID: "u1", ContentID: contentID, Type: models.InteractionHighlight, Data: &models.HighlightData{Text: "EPS rises as shares shrink"}},
		{UserID: "u1", ContentID: contentID, Type: models.InteractionReferenceClick, Data: &models.ReferenceClickData{ReferenceURL: "https://example.com/ref"}},
		{UserID: "u1", ContentID: contentID, Type: models.InteractionFollowUpQuery, Data: &models.FollowUpQueryData{Query: "does this apply to ETFs?"}},
		{UserID: "u1", ContentID: contentID, Type: models.InteractionReadEnd, Data: &models.ReadEndData{DurationSeconds: 95}},
		{UserID: "u1", ContentID: contentID, Type: models.InteractionReadEnd, Data: &models.ReadEndData{DurationSeconds: 30}},
	}
	for _, e := range events {
		require.NoError(t, p.TrackInteraction(ctx, e))
	}

	eng, err := p.Engagement(ctx, "u1", contentID)
	require.NoError(t, err)
	require.NotNil(t, eng)
	assert.Equal(t, 125.0, eng.TotalReadSeconds)
	assert.Equal(t, 40.0, eng.MaxProgress)
	assert.Equal(t, []string{"EPS rises as shares shrink"}, eng.Highlights)
	assert.Equal(t, []string{"https://example.com/ref"}, eng.ClickedReferences)
	assert.Equal(t, []string{"does this apply to ETFs?"}, eng.FollowUpQueries)
	assert.False(t, eng.LastInteraction.IsZero())
}

func TestTrackInteractionDefaultsTimestamp(t *testing.T) {
	p := testProcessor(t)
	ctx := context.Background()

	it := &models.ContentInteraction{
		UserID:    "u1",
		ContentID: models.ContentID("https://example.com/b"),
		Type:      models.InteractionReadStart,
		Data:      &models.ReadStartData{},
	}
	require.NoError(t, p.TrackInteraction(ctx, it))
	assert.WithinDuration(t, time.Now(), it.Timestamp, time.Minute)

	got, err := p.RecentInteractions(ctx, "u1", 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, models.InteractionReadStart, got[0].Type)
}

func TestTrackSelectionRecordsReadStart(t *testing.T) {
	p := testProcessor(t)
	ctx := context.Background()

	require.NoError(t, p.TrackSelection(ctx, "u1", "what is a buyback", "https://example.com/buybacks"))

	selections, err := p.RecentSelections(ctx, "u1", 10)
	require.NoError(t, err)
	require.Len(t, selections, 1)
	assert.Equal(t, models.ContentID("https://example.com/buybacks"), selections[0].ContentID)

	interactions, err := p.RecentInteractions(ctx, "u1", 10)
	require.NoError(t, err)
	require.Len(t, interactions, 1)
	start, ok := interactions[0].Data.(*models.ReadStartData)
	require.True(t, ok)
	assert.Equal(t, "what is a buyback", start.RecommendationQuery)
	assert.Equal(t, "https://example.com/buybacks", start.Suggestion)
}
