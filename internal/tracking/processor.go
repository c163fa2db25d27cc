// Package tracking records content engagement events and maintains the
// per-content aggregates the recommendation pipeline reads back.
package tracking

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mindline-ai/mindline/internal/db"
	"github.com/mindline-ai/mindline/pkg/models"
)

// Processor appends interaction events and folds them into engagement
// aggregates.
type Processor struct {
	interactions *db.InteractionStore
}

// NewProcessor creates a tracking processor.
func NewProcessor(interactions *db.InteractionStore) *Processor {
	return &Processor{interactions: interactions}
}

// TrackInteraction appends one event and updates the (user, content)
// engagement aggregate. The event log is the source of truth; a failed
// aggregate update is logged, not surfaced, so the event is never lost to a
// derived-state problem.
func (p *Processor) TrackInteraction(ctx context.Context, it *models.ContentInteraction) error {
	if it.Timestamp.IsZero() {
		it.Timestamp = time.Now()
	}
	if err := p.interactions.InsertInteraction(ctx, it); err != nil {
		return fmt.Errorf("track interaction: %w", err)
	}
	if err := p.applyToEngagement(ctx, it); err != nil {
		log.Warn().Err(err).
			Str("userId", it.UserID).
			Str("contentId", it.ContentID).
			Msg("engagement aggregate update failed")
	}
	return nil
}

// TrackSelection records a picked recommendation and the implied read_start
// on the selected content.
func (p *Processor) TrackSelection(ctx context.Context, userID, originalQuery, suggestion string) error {
	if err := p.interactions.InsertSelection(ctx, userID, originalQuery, suggestion); err != nil {
		return fmt.Errorf("track selection: %w", err)
	}
	return p.TrackInteraction(ctx, &models.ContentInteraction{
		UserID:    userID,
		ContentID: models.ContentID(suggestion),
		Type:      models.InteractionReadStart,
		Timestamp: time.Now(),
		Data: &models.ReadStartData{
			RecommendationQuery: originalQuery,
			Suggestion:          suggestion,
		},
	})
}

// RecentInteractions returns the user's newest events, most recent first.
func (p *Processor) RecentInteractions(ctx context.Context, userID string, limit int) ([]models.ContentInteraction, error) {
	return p.interactions.RecentInteractions(ctx, userID, limit)
}

// RecentSelections returns the user's newest selections as read_start events.
func (p *Processor) RecentSelections(ctx context.Context, userID string, limit int) ([]models.ContentInteraction, error) {
	return p.interactions.RecentSelections(ctx, userID, limit)
}

// Engagement returns the aggregate for one (user, content) pair, or nil.
func (p *Processor) Engagement(ctx context.Context, userID, contentID string) (*models.ContentEngagement, error) {
	return p.interactions.GetEngagement(ctx, userID, contentID)
}

func (p *Processor) applyToEngagement(ctx context.Context, it *models.ContentInteraction) error {
	eng, err := p.interactions.GetEngagement(ctx, it.UserID, it.ContentID)
	if err != nil {
		return err
	}
	if eng == nil {
		eng = &models.ContentEngagement{
			UserID:    it.UserID,
			ContentID: it.ContentID,
		}
	}

	switch data := it.Data.(type) {
	case *models.ReadStartData:
		// Nothing to accumulate; the event itself marks the session start.
	case *models.ReadEndData:
		eng.TotalReadSeconds += data.DurationSeconds
	case *models.HighlightData:
		eng.Highlights = append(eng.Highlights, data.Text)
	case *models.ReferenceClickData:
		eng.ClickedReferences = append(eng.ClickedReferences, data.ReferenceURL)
	case *models.ProgressUpdateData:
		if data.Percentage > eng.MaxProgress {
			eng.MaxProgress = data.Percentage
		}
	case *models.FollowUpQueryData:
		eng.FollowUpQueries = append(eng.FollowUpQueries, data.Query)
	default:
		return fmt.Errorf("unknown interaction data %T", it.Data)
	}

	if it.Timestamp.After(eng.LastInteraction) {
		eng.LastInteraction = it.Timestamp
	}
	return p.interactions.UpsertEngagement(ctx, eng)
}
