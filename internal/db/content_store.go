package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/goccy/go-json"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mindline-ai/mindline/pkg/models"
)

// ContentStore caches processed pages keyed by URL, with the derived content
// ID as a second unique lookup path.
type ContentStore struct {
	db *gorm.DB
}

// NewContentStore creates a new content store.
func NewContentStore(store *Store) *ContentStore {
	return &ContentStore{db: store.DB}
}

// GetByURLs returns cached content for the given URLs, keyed by URL.
func (s *ContentStore) GetByURLs(ctx context.Context, urls []string) (map[string]models.ProcessedContent, error) {
	out := make(map[string]models.ProcessedContent, len(urls))
	if len(urls) == 0 {
		return out, nil
	}

	var rows []ContentRow
	err := s.db.WithContext(ctx).Where("url IN ?", urls).Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("read content cache: %w", err)
	}
	for i := range rows {
		content, err := toModelContent(&rows[i])
		if err != nil {
			return nil, err
		}
		out[content.URL] = content
	}
	return out, nil
}

// GetByID returns cached content by its derived identifier, or nil.
func (s *ContentStore) GetByID(ctx context.Context, contentID string) (*models.ProcessedContent, error) {
	var row ContentRow
	err := s.db.WithContext(ctx).Where("content_id = ?", contentID).First(&row).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read content cache: %w", err)
	}
	content, err := toModelContent(&row)
	if err != nil {
		return nil, err
	}
	return &content, nil
}

// Put upserts one processed page.
func (s *ContentStore) Put(ctx context.Context, content *models.ProcessedContent) error {
	analysis, err := MarshalDocument(content.Analysis)
	if err != nil {
		return fmt.Errorf("encode content analysis: %w", err)
	}
	row := &ContentRow{
		ContentID: content.ContentID,
		URL:       content.URL,
		Title:     content.Title,
		Source:    content.Source,
		Analysis:  analysis,
	}
	if content.Author != "" {
		row.Author = sql.NullString{String: content.Author, Valid: true}
	}
	if content.PublishDate != "" {
		row.PublishDate = sql.NullString{String: content.PublishDate, Valid: true}
	}
	err = s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "url"}},
			UpdateAll: true,
		}).
		Create(row).Error
	if err != nil {
		return fmt.Errorf("write content cache: %w", err)
	}
	return nil
}

// Count returns the number of cached pages.
func (s *ContentStore) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&ContentRow{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count content cache: %w", err)
	}
	return count, nil
}

// ClearAll drops every cached page. Administrative use only.
func (s *ContentStore) ClearAll(ctx context.Context) error {
	if err := s.db.WithContext(ctx).Exec("DELETE FROM processed_content").Error; err != nil {
		return fmt.Errorf("clear content cache: %w", err)
	}
	return nil
}

func toModelContent(row *ContentRow) (models.ProcessedContent, error) {
	content := models.ProcessedContent{
		ContentID:   row.ContentID,
		URL:         row.URL,
		Title:       row.Title,
		Source:      row.Source,
		Author:      row.Author.String,
		PublishDate: row.PublishDate.String,
	}
	if len(row.Analysis) > 0 {
		if err := json.Unmarshal(row.Analysis, &content.Analysis); err != nil {
			return content, fmt.Errorf("decode content analysis for %s: %w", row.ContentID, err)
		}
	}
	return content, nil
}
