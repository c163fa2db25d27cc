package db

import (
	"database/sql"
	"time"

	"gorm.io/gorm"
)

// GORM models. Timestamps follow the double convention: RFC 3339 string for
// readability plus epoch milliseconds for indexed range queries.

// QueryLineRow persists one query line.
type QueryLineRow struct {
	ID               int64           `gorm:"primaryKey;autoIncrement"`
	LineID           string          `gorm:"uniqueIndex;not null"`
	UserID           string          `gorm:"index:idx_lines_user_updated,priority:1;not null"`
	Topic            string          `gorm:"type:text;not null"`
	Queries          JSONStringArray `gorm:"type:text"`
	Timestamps       JSONTimeArray   `gorm:"type:text"`
	Responses        JSONStringArray `gorm:"type:text"`
	CreatedAt        string          `gorm:"not null"`
	CreatedAtEpoch   int64           `gorm:"not null"`
	LastUpdated      string          `gorm:"not null"`
	LastUpdatedEpoch int64           `gorm:"index:idx_lines_user_updated,priority:2,sort:desc;not null"`
}

func (QueryLineRow) TableName() string { return "query_lines" }

// BeforeCreate hook to ensure timestamps are set.
func (r *QueryLineRow) BeforeCreate(tx *gorm.DB) error {
	now := time.Now()
	if r.CreatedAtEpoch == 0 {
		r.CreatedAtEpoch = now.UnixMilli()
	}
	if r.CreatedAt == "" {
		r.CreatedAt = now.Format(time.RFC3339)
	}
	if r.LastUpdatedEpoch == 0 {
		r.LastUpdatedEpoch = now.UnixMilli()
	}
	if r.LastUpdated == "" {
		r.LastUpdated = now.Format(time.RFC3339)
	}
	return nil
}

// RecommendationRow is one immutable pipeline audit record.
type RecommendationRow struct {
	ID              int64          `gorm:"primaryKey;autoIncrement"`
	UserID          string         `gorm:"index:idx_recs_user_created,priority:1;not null"`
	Query           string         `gorm:"type:text;not null"`
	MomentType      sql.NullString `gorm:"type:text"`
	Moment          JSONDocument   `gorm:"type:text"`
	LineAnalysis    JSONDocument   `gorm:"type:text"`
	KnowledgeState  JSONDocument   `gorm:"type:text"`
	Recommendations JSONDocument   `gorm:"type:text"`
	CreatedAt       string         `gorm:"not null"`
	CreatedAtEpoch  int64          `gorm:"index:idx_recs_user_created,priority:2,sort:desc;not null"`
}

func (RecommendationRow) TableName() string { return "recommendations" }

// BeforeCreate hook to ensure timestamps are set.
func (r *RecommendationRow) BeforeCreate(tx *gorm.DB) error {
	if r.CreatedAtEpoch == 0 {
		r.CreatedAtEpoch = time.Now().UnixMilli()
	}
	if r.CreatedAt == "" {
		r.CreatedAt = time.Now().Format(time.RFC3339)
	}
	return nil
}

// InteractionRow is one append-only engagement event.
type InteractionRow struct {
	ID             int64        `gorm:"primaryKey;autoIncrement"`
	UserID         string       `gorm:"index:idx_interactions_user_created,priority:1;not null"`
	ContentID      string       `gorm:"index;not null"`
	Type           string       `gorm:"type:text;not null"`
	Data           JSONDocument `gorm:"type:text"`
	CreatedAt      string       `gorm:"not null"`
	CreatedAtEpoch int64        `gorm:"index:idx_interactions_user_created,priority:2,sort:desc;not null"`
}

func (InteractionRow) TableName() string { return "interactions" }

// BeforeCreate hook to ensure timestamps are set.
func (r *InteractionRow) BeforeCreate(tx *gorm.DB) error {
	if r.CreatedAtEpoch == 0 {
		r.CreatedAtEpoch = time.Now().UnixMilli()
	}
	if r.CreatedAt == "" {
		r.CreatedAt = time.Now().Format(time.RFC3339)
	}
	return nil
}

// SelectionRow records a user picking one recommendation.
type SelectionRow struct {
	ID                 int64  `gorm:"primaryKey;autoIncrement"`
	UserID             string `gorm:"index:idx_selections_user_created,priority:1;not null"`
	OriginalQuery      string `gorm:"type:text;not null"`
	SelectedSuggestion string `gorm:"type:text;not null"`
	CreatedAt          string `gorm:"not null"`
	CreatedAtEpoch     int64  `gorm:"index:idx_selections_user_created,priority:2,sort:desc;not null"`
}

func (SelectionRow) TableName() string { return "selections" }

// BeforeCreate hook to ensure timestamps are set.
func (r *SelectionRow) BeforeCreate(tx *gorm.DB) error {
	if r.CreatedAtEpoch == 0 {
		r.CreatedAtEpoch = time.Now().UnixMilli()
	}
	if r.CreatedAt == "" {
		r.CreatedAt = time.Now().Format(time.RFC3339)
	}
	return nil
}

// EngagementRow aggregates a user's interactions with one piece of content.
type EngagementRow struct {
	ID                    int64           `gorm:"primaryKey;autoIncrement"`
	UserID                string          `gorm:"uniqueIndex:idx_engagements_user_content,priority:1;not null"`
	ContentID             string          `gorm:"uniqueIndex:idx_engagements_user_content,priority:2;not null"`
	TotalReadSeconds      float64         `gorm:"type:real;default:0"`
	MaxProgress           float64         `gorm:"type:real;default:0"`
	Highlights            JSONStringArray `gorm:"type:text"`
	ClickedReferences     JSONStringArray `gorm:"type:text"`
	FollowUpQueries       JSONStringArray `gorm:"type:text"`
	LastInteraction       string          `gorm:"not null"`
	LastInteractionEpoch  int64           `gorm:"not null"`
}

func (EngagementRow) TableName() string { return "engagements" }

// BeforeCreate hook to ensure timestamps are set.
func (r *EngagementRow) BeforeCreate(tx *gorm.DB) error {
	if r.LastInteractionEpoch == 0 {
		r.LastInteractionEpoch = time.Now().UnixMilli()
	}
	if r.LastInteraction == "" {
		r.LastInteraction = time.Now().Format(time.RFC3339)
	}
	return nil
}

// LLMCallRow is one cached structured-call record, keyed by content hash.
type LLMCallRow struct {
	Key            string         `gorm:"primaryKey;type:text"`
	Model          string         `gorm:"index;not null"`
	Response       JSONDocument   `gorm:"type:text"`
	DurationMs     int64          `gorm:"default:0"`
	CallError      sql.NullString `gorm:"type:text"`
	CreatedAt      string         `gorm:"not null"`
	CreatedAtEpoch int64          `gorm:"not null"`
}

func (LLMCallRow) TableName() string { return "llm_calls" }

// BeforeCreate hook to ensure timestamps are set.
func (r *LLMCallRow) BeforeCreate(tx *gorm.DB) error {
	if r.CreatedAtEpoch == 0 {
		r.CreatedAtEpoch = time.Now().UnixMilli()
	}
	if r.CreatedAt == "" {
		r.CreatedAt = time.Now().Format(time.RFC3339)
	}
	return nil
}

// ContentRow is one processed page, keyed by URL with a derived content ID.
type ContentRow struct {
	ID             int64          `gorm:"primaryKey;autoIncrement"`
	ContentID      string         `gorm:"uniqueIndex;not null"`
	URL            string         `gorm:"uniqueIndex;not null"`
	Title          string         `gorm:"type:text"`
	Source         string         `gorm:"type:text"`
	Author         sql.NullString `gorm:"type:text"`
	PublishDate    sql.NullString `gorm:"type:text"`
	Analysis       JSONDocument   `gorm:"type:text"`
	CreatedAt      string         `gorm:"not null"`
	CreatedAtEpoch int64          `gorm:"not null"`
}

func (ContentRow) TableName() string { return "processed_content" }

// BeforeCreate hook to ensure timestamps are set.
func (r *ContentRow) BeforeCreate(tx *gorm.DB) error {
	if r.CreatedAtEpoch == 0 {
		r.CreatedAtEpoch = time.Now().UnixMilli()
	}
	if r.CreatedAt == "" {
		r.CreatedAt = time.Now().Format(time.RFC3339)
	}
	return nil
}
