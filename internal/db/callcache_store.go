package db

import (
	"context"
	"database/sql"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mindline-ai/mindline/internal/llmcache"
)

// CallCacheStore is the durable llmcache.Store backed by the llm_calls table.
type CallCacheStore struct {
	db *gorm.DB
}

// NewCallCacheStore creates a new call-cache store.
func NewCallCacheStore(store *Store) *CallCacheStore {
	return &CallCacheStore{db: store.DB}
}

// Get returns the cached response for a key, if present.
func (s *CallCacheStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var row LLMCallRow
	err := s.db.WithContext(ctx).Where("key = ?", key).First(&row).Error
	if err == gorm.ErrRecordNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read call cache: %w", err)
	}
	if row.CallError.Valid {
		// Failed calls are recorded for observability, never replayed.
		return nil, false, nil
	}
	return []byte(row.Response), true, nil
}

// Put upserts one call record. Concurrent writers of the same key converge;
// last write wins, which is safe because the response is a deterministic
// function of the key.
func (s *CallCacheStore) Put(ctx context.Context, rec llmcache.Record) error {
	row := &LLMCallRow{
		Key:        rec.Key,
		Model:      rec.Model,
		Response:   JSONDocument(rec.Response),
		DurationMs: rec.Duration.Milliseconds(),
	}
	if rec.CallErr != "" {
		row.CallError = sql.NullString{String: rec.CallErr, Valid: true}
	}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			UpdateAll: true,
		}).
		Create(row).Error
	if err != nil {
		return fmt.Errorf("write call cache: %w", err)
	}
	return nil
}

// Stats reports entry counts, total and per model.
func (s *CallCacheStore) Stats(ctx context.Context) (llmcache.Stats, error) {
	stats := llmcache.Stats{ByModel: make(map[string]int64)}

	if err := s.db.WithContext(ctx).Model(&LLMCallRow{}).Count(&stats.Entries).Error; err != nil {
		return stats, fmt.Errorf("count call cache: %w", err)
	}

	type modelCount struct {
		Model string
		N     int64
	}
	var counts []modelCount
	err := s.db.WithContext(ctx).
		Model(&LLMCallRow{}).
		Select("model, COUNT(*) AS n").
		Group("model").
		Scan(&counts).Error
	if err != nil {
		return stats, fmt.Errorf("count call cache by model: %w", err)
	}
	for _, c := range counts {
		stats.ByModel[c.Model] = c.N
	}
	return stats, nil
}

// ClearAll drops every cached call. Administrative use only.
func (s *CallCacheStore) ClearAll(ctx context.Context) error {
	if err := s.db.WithContext(ctx).Exec("DELETE FROM llm_calls").Error; err != nil {
		return fmt.Errorf("clear call cache: %w", err)
	}
	return nil
}
