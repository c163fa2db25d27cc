package models

import "time"

// RecommendationRecord is the immutable audit record persisted after a
// successful pipeline run. Never updated after insertion.
type RecommendationRecord struct {
	UserID          string           `json:"user_id"`
	Query           string           `json:"query"`
	Moment          *MomentDetection `json:"moment"`
	LineAnalysis    *LineAnalysis    `json:"line_analysis"`
	KnowledgeState  *KnowledgeState  `json:"knowledge_state"`
	Recommendations *FilteredContent `json:"recommendations"`
	Timestamp       time.Time        `json:"timestamp"`
}
