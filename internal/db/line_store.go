package db

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/mindline-ai/mindline/pkg/models"
)

// LineStore provides query-line persistence.
type LineStore struct {
	db *gorm.DB
}

// NewLineStore creates a new line store.
func NewLineStore(store *Store) *LineStore {
	return &LineStore{db: store.DB}
}

// recencyOrdering sorts lines by last update, newest first.
func recencyOrdering(db *gorm.DB) *gorm.DB {
	return db.Order("last_updated_epoch DESC")
}

// RecentLines returns up to limit of the user's most recently updated lines.
func (s *LineStore) RecentLines(ctx context.Context, userID string, limit int) ([]models.QueryLine, error) {
	var rows []QueryLineRow
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Scopes(recencyOrdering).
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("load recent lines: %w", err)
	}
	return toModelLines(rows), nil
}

// AllLines returns every line the user has, newest first.
func (s *LineStore) AllLines(ctx context.Context, userID string) ([]models.QueryLine, error) {
	var rows []QueryLineRow
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Scopes(recencyOrdering).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("load lines: %w", err)
	}
	return toModelLines(rows), nil
}

// GetLine loads one line by its stable identifier.
func (s *LineStore) GetLine(ctx context.Context, lineID string) (*models.QueryLine, error) {
	var row QueryLineRow
	err := s.db.WithContext(ctx).Where("line_id = ?", lineID).First(&row).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load line %s: %w", lineID, err)
	}
	line := toModelLine(&row)
	return &line, nil
}

// CreateLine inserts a new line.
func (s *LineStore) CreateLine(ctx context.Context, line *models.QueryLine) error {
	row := toRowLine(line)
	if err := s.db.WithContext(ctx).Create(row).Error; err != nil {
		return fmt.Errorf("create line %s: %w", line.LineID, err)
	}
	return nil
}

// SaveLine updates an existing line by line_id. Renames are keyed by the
// line's identity, never by its topic string.
func (s *LineStore) SaveLine(ctx context.Context, line *models.QueryLine) error {
	row := toRowLine(line)
	err := s.db.WithContext(ctx).
		Model(&QueryLineRow{}).
		Where("line_id = ?", line.LineID).
		Updates(map[string]any{
			"topic":              row.Topic,
			"queries":            row.Queries,
			"timestamps":         row.Timestamps,
			"responses":          row.Responses,
			"last_updated":       row.LastUpdated,
			"last_updated_epoch": row.LastUpdatedEpoch,
		}).Error
	if err != nil {
		return fmt.Errorf("save line %s: %w", line.LineID, err)
	}
	return nil
}

func toRowLine(line *models.QueryLine) *QueryLineRow {
	return &QueryLineRow{
		LineID:           line.LineID,
		UserID:           line.UserID,
		Topic:            line.LineTopic,
		Queries:          JSONStringArray(line.Queries),
		Timestamps:       JSONTimeArray(line.Timestamps),
		Responses:        JSONStringArray(line.Responses),
		CreatedAt:        line.CreatedAt.Format(time.RFC3339),
		CreatedAtEpoch:   line.CreatedAt.UnixMilli(),
		LastUpdated:      line.LastUpdated.Format(time.RFC3339),
		LastUpdatedEpoch: line.LastUpdated.UnixMilli(),
	}
}

func toModelLine(row *QueryLineRow) models.QueryLine {
	return models.QueryLine{
		LineID:      row.LineID,
		UserID:      row.UserID,
		LineTopic:   row.Topic,
		Queries:     []string(row.Queries),
		Timestamps:  []time.Time(row.Timestamps),
		Responses:   []string(row.Responses),
		CreatedAt:   time.UnixMilli(row.CreatedAtEpoch),
		LastUpdated: time.UnixMilli(row.LastUpdatedEpoch),
	}
}

func toModelLines(rows []QueryLineRow) []models.QueryLine {
	lines := make([]models.QueryLine, 0, len(rows))
	for i := range rows {
		lines = append(lines, toModelLine(&rows[i]))
	}
	return lines
}
