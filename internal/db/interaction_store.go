package db

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mindline-ai/mindline/pkg/models"
)

// InteractionStore persists engagement events, selections, and per-content
// engagement aggregates.
type InteractionStore struct {
	db *gorm.DB
}

// NewInteractionStore creates a new interaction store.
func NewInteractionStore(store *Store) *InteractionStore {
	return &InteractionStore{db: store.DB}
}

// InsertInteraction appends one engagement event.
func (s *InteractionStore) InsertInteraction(ctx context.Context, it *models.ContentInteraction) error {
	data, err := MarshalDocument(it.Data)
	if err != nil {
		return fmt.Errorf("encode interaction data: %w", err)
	}
	row := &InteractionRow{
		UserID:         it.UserID,
		ContentID:      it.ContentID,
		Type:           string(it.Type),
		Data:           data,
		CreatedAt:      it.Timestamp.Format(time.RFC3339),
		CreatedAtEpoch: it.Timestamp.UnixMilli(),
	}
	if err := s.db.WithContext(ctx).Create(row).Error; err != nil {
		return fmt.Errorf("insert interaction: %w", err)
	}
	return nil
}

// RecentInteractions returns the user's newest events, most recent first.
func (s *InteractionStore) RecentInteractions(ctx context.Context, userID string, limit int) ([]models.ContentInteraction, error) {
	var rows []InteractionRow
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at_epoch DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("load interactions: %w", err)
	}

	out := make([]models.ContentInteraction, 0, len(rows))
	for i := range rows {
		row := &rows[i]
		data, err := models.DecodeInteractionData(models.InteractionType(row.Type), row.Data)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", row.ID, err)
		}
		out = append(out, models.ContentInteraction{
			UserID:    row.UserID,
			ContentID: row.ContentID,
			Type:      models.InteractionType(row.Type),
			Timestamp: time.UnixMilli(row.CreatedAtEpoch),
			Data:      data,
		})
	}
	return out, nil
}

// InsertSelection records a picked recommendation.
func (s *InteractionStore) InsertSelection(ctx context.Context, userID, originalQuery, suggestion string) error {
	row := &SelectionRow{
		UserID:             userID,
		OriginalQuery:      originalQuery,
		SelectedSuggestion: suggestion,
	}
	if err := s.db.WithContext(ctx).Create(row).Error; err != nil {
		return fmt.Errorf("insert selection: %w", err)
	}
	return nil
}

// RecentSelections returns the user's newest selections, most recent first.
func (s *InteractionStore) RecentSelections(ctx context.Context, userID string, limit int) ([]models.ContentInteraction, error) {
	var rows []SelectionRow
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at_epoch DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("load selections: %w", err)
	}

	out := make([]models.ContentInteraction, 0, len(rows))
	for i := range rows {
		row := &rows[i]
		out = append(out, models.ContentInteraction{
			UserID:    row.UserID,
			ContentID: models.ContentID(row.SelectedSuggestion),
			Type:      models.InteractionReadStart,
			Timestamp: time.UnixMilli(row.CreatedAtEpoch),
			Data: &models.ReadStartData{
				RecommendationQuery: row.OriginalQuery,
				Suggestion:          row.SelectedSuggestion,
			},
		})
	}
	return out, nil
}

// GetEngagement loads the aggregate for one (user, content) pair, or nil.
func (s *InteractionStore) GetEngagement(ctx context.Context, userID, contentID string) (*models.ContentEngagement, error) {
	var row EngagementRow
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND content_id = ?", userID, contentID).
		First(&row).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load engagement: %w", err)
	}
	eng := toModelEngagement(&row)
	return &eng, nil
}

// UpsertEngagement writes the aggregate, one row per (user, content).
func (s *InteractionStore) UpsertEngagement(ctx context.Context, eng *models.ContentEngagement) error {
	row := &EngagementRow{
		UserID:               eng.UserID,
		ContentID:            eng.ContentID,
		TotalReadSeconds:     eng.TotalReadSeconds,
		MaxProgress:          eng.MaxProgress,
		Highlights:           JSONStringArray(eng.Highlights),
		ClickedReferences:    JSONStringArray(eng.ClickedReferences),
		FollowUpQueries:      JSONStringArray(eng.FollowUpQueries),
		LastInteraction:      eng.LastInteraction.Format(time.RFC3339),
		LastInteractionEpoch: eng.LastInteraction.UnixMilli(),
	}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "content_id"}},
			UpdateAll: true,
		}).
		Create(row).Error
	if err != nil {
		return fmt.Errorf("upsert engagement: %w", err)
	}
	return nil
}

func toModelEngagement(row *EngagementRow) models.ContentEngagement {
	return models.ContentEngagement{
		UserID:            row.UserID,
		ContentID:         row.ContentID,
		TotalReadSeconds:  row.TotalReadSeconds,
		MaxProgress:       row.MaxProgress,
		Highlights:        []string(row.Highlights),
		ClickedReferences: []string(row.ClickedReferences),
		FollowUpQueries:   []string(row.FollowUpQueries),
		LastInteraction:   time.UnixMilli(row.LastInteractionEpoch),
	}
}
