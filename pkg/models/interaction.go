package models

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"
)

// InteractionType tags a content-engagement event.
type InteractionType string

const (
	InteractionReadStart      InteractionType = "read_start"
	InteractionReadEnd        InteractionType = "read_end"
	InteractionHighlight      InteractionType = "highlight"
	InteractionReferenceClick InteractionType = "reference_click"
	InteractionProgressUpdate InteractionType = "progress_update"
	InteractionFollowUpQuery  InteractionType = "follow_up_query"
)

// InteractionData is the closed set of per-type interaction payloads.
// Readers switch exhaustively on the concrete type.
type InteractionData interface {
	interactionType() InteractionType
}

// ReadStartData marks the start of reading a recommended piece of content.
type ReadStartData struct {
	RecommendationQuery string `json:"recommendation_query,omitempty"`
	Suggestion          string `json:"suggestion,omitempty"`
}

// ReadEndData marks the end of a reading session.
type ReadEndData struct {
	DurationSeconds float64 `json:"duration_seconds"`
}

// HighlightData records a text highlight within content.
type HighlightData struct {
	Text    string `json:"text"`
	Section string `json:"section,omitempty"`
}

// ReferenceClickData records a click on a reference inside content.
type ReferenceClickData struct {
	ReferenceURL string `json:"reference_url"`
}

// ProgressUpdateData records scroll/read progress through content.
type ProgressUpdateData struct {
	Percentage float64 `json:"percentage"`
}

// FollowUpQueryData records a query the user asked while reading.
type FollowUpQueryData struct {
	Query string `json:"query"`
}

func (ReadStartData) interactionType() InteractionType      { return InteractionReadStart }
func (ReadEndData) interactionType() InteractionType        { return InteractionReadEnd }
func (HighlightData) interactionType() InteractionType      { return InteractionHighlight }
func (ReferenceClickData) interactionType() InteractionType { return InteractionReferenceClick }
func (ProgressUpdateData) interactionType() InteractionType { return InteractionProgressUpdate }
func (FollowUpQueryData) interactionType() InteractionType  { return InteractionFollowUpQuery }

// ContentInteraction is one append-only engagement event.
type ContentInteraction struct {
	UserID    string          `json:"user_id"`
	ContentID string          `json:"content_id"`
	Type      InteractionType `json:"interaction_type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      InteractionData `json:"interaction_data"`
}

// DecodeInteractionData decodes a raw payload into the variant matching typ.
func DecodeInteractionData(typ InteractionType, raw []byte) (InteractionData, error) {
	var data InteractionData
	switch typ {
	case InteractionReadStart:
		data = &ReadStartData{}
	case InteractionReadEnd:
		data = &ReadEndData{}
	case InteractionHighlight:
		data = &HighlightData{}
	case InteractionReferenceClick:
		data = &ReferenceClickData{}
	case InteractionProgressUpdate:
		data = &ProgressUpdateData{}
	case InteractionFollowUpQuery:
		data = &FollowUpQueryData{}
	default:
		return nil, fmt.Errorf("unknown interaction type %q", typ)
	}
	if len(raw) == 0 {
		return data, nil
	}
	if err := json.Unmarshal(raw, data); err != nil {
		return nil, fmt.Errorf("decode %s payload: %w", typ, err)
	}
	return data, nil
}

// ContentEngagement aggregates a user's interactions with one piece of
// content.
type ContentEngagement struct {
	UserID            string    `json:"user_id"`
	ContentID         string    `json:"content_id"`
	TotalReadSeconds  float64   `json:"total_read_seconds"`
	MaxProgress       float64   `json:"max_progress"`
	Highlights        []string  `json:"highlights"`
	ClickedReferences []string  `json:"clicked_references"`
	FollowUpQueries   []string  `json:"follow_up_queries"`
	LastInteraction   time.Time `json:"last_interaction"`
}
