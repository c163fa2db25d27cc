package models

import (
	"crypto/sha256"
	"encoding/hex"
)

// ContentID derives the stable identifier for a URL. Lookups by URL and by
// ID agree because the ID is a pure function of the URL.
func ContentID(url string) string {
	sum := sha256.Sum256([]byte(url))
	return hex.EncodeToString(sum[:])[:16]
}

// ContentAnalysis is the structured reduction of one fetched page.
type ContentAnalysis struct {
	Sections           []string `json:"sections"`
	CompaniesMentioned []string `json:"companies_mentioned"`
	Metrics            []string `json:"metrics"`
	KeyTopics          []string `json:"key_topics"`
	Summary            string   `json:"summary"`
	Sentiment          string   `json:"sentiment"`
}

// ProcessedContent is one fetched URL reduced to structured form.
type ProcessedContent struct {
	ContentID   string          `json:"content_id"`
	URL         string          `json:"url"`
	Title       string          `json:"title"`
	Source      string          `json:"source"`
	Author      string          `json:"author,omitempty"`
	PublishDate string          `json:"publish_date,omitempty"`
	Analysis    ContentAnalysis `json:"analysis"`
}

// ContentEvaluation is the structured verdict on one candidate's value for
// the current moment.
type ContentEvaluation struct {
	IsValuable       bool     `json:"is_valuable"`
	ValueScore       float64  `json:"value_score"`
	Explanation      string   `json:"explanation"`
	RelevantSections []string `json:"relevant_sections"`
}

// ContentValue is a candidate judged valuable, with its score and context.
type ContentValue struct {
	Content          ProcessedContent `json:"content"`
	ValueScore       float64          `json:"value_score"`
	Explanation      string           `json:"explanation"`
	RelevantSections []string         `json:"relevant_sections"`
	RelevanceContext string           `json:"relevance_context"`
}

// FilteredContent is the filterer's output: valuable candidates sorted by
// descending score, plus the ID of every candidate that was attempted.
type FilteredContent struct {
	ValuableContent  []ContentValue `json:"valuable_content"`
	AttemptedContent []string       `json:"attempted_content"`
}
