package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/mindline-ai/mindline/pkg/models"
)

// RecommendationStore persists immutable pipeline audit records.
type RecommendationStore struct {
	db *gorm.DB
}

// NewRecommendationStore creates a new recommendation store.
func NewRecommendationStore(store *Store) *RecommendationStore {
	return &RecommendationStore{db: store.DB}
}

// Insert stores one audit record. Records are never updated after insertion.
func (s *RecommendationStore) Insert(ctx context.Context, rec *models.RecommendationRecord) error {
	moment, err := MarshalDocument(rec.Moment)
	if err != nil {
		return fmt.Errorf("encode moment: %w", err)
	}
	analysis, err := MarshalDocument(rec.LineAnalysis)
	if err != nil {
		return fmt.Errorf("encode line analysis: %w", err)
	}
	state, err := MarshalDocument(rec.KnowledgeState)
	if err != nil {
		return fmt.Errorf("encode knowledge state: %w", err)
	}
	recs, err := MarshalDocument(rec.Recommendations)
	if err != nil {
		return fmt.Errorf("encode recommendations: %w", err)
	}

	row := &RecommendationRow{
		UserID:          rec.UserID,
		Query:           rec.Query,
		Moment:          moment,
		LineAnalysis:    analysis,
		KnowledgeState:  state,
		Recommendations: recs,
		CreatedAt:       rec.Timestamp.Format(time.RFC3339),
		CreatedAtEpoch:  rec.Timestamp.UnixMilli(),
	}
	if rec.Moment != nil {
		row.MomentType = sql.NullString{String: string(rec.Moment.MomentType), Valid: true}
	}

	if err := s.db.WithContext(ctx).Create(row).Error; err != nil {
		return fmt.Errorf("insert recommendation record: %w", err)
	}
	return nil
}

// CountForUser returns how many audit records a user has accumulated.
func (s *RecommendationStore) CountForUser(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&RecommendationRow{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("count recommendations: %w", err)
	}
	return count, nil
}
