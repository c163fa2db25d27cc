package models

import (
	"fmt"
	"time"
)

// QueryLine is a user's ongoing line of inquiry on one topic. Queries and
// timestamps are parallel append-only sequences; responses trail queries by
// at most one entry while the latest answer is in flight.
type QueryLine struct {
	LineID      string      `json:"line_id"`
	UserID      string      `json:"user_id"`
	Queries     []string    `json:"queries"`
	Timestamps  []time.Time `json:"timestamps"`
	Responses   []string    `json:"responses"`
	LineTopic   string      `json:"line_topic"`
	CreatedAt   time.Time   `json:"created_at"`
	LastUpdated time.Time   `json:"last_updated"`
}

// AppendQuery adds a query and its timestamp, keeping the two sequences
// parallel.
func (l *QueryLine) AppendQuery(query string, at time.Time) {
	l.Queries = append(l.Queries, query)
	l.Timestamps = append(l.Timestamps, at)
	l.LastUpdated = at
}

// AppendResponse records the answer to the latest query. Timestamps parallel
// queries only, so appending a response never touches them.
func (l *QueryLine) AppendResponse(response string, at time.Time) error {
	if len(l.Responses) >= len(l.Queries) {
		return fmt.Errorf("line %s already has a response for every query", l.LineID)
	}
	l.Responses = append(l.Responses, response)
	l.LastUpdated = at
	return nil
}

// LatestResponse returns the most recent answer on the line, if any.
func (l *QueryLine) LatestResponse() (string, bool) {
	if len(l.Responses) == 0 {
		return "", false
	}
	return l.Responses[len(l.Responses)-1], true
}

// Validate checks the parallel-sequence invariants.
func (l *QueryLine) Validate() error {
	if len(l.Queries) != len(l.Timestamps) {
		return fmt.Errorf("line %s: %d queries but %d timestamps", l.LineID, len(l.Queries), len(l.Timestamps))
	}
	if len(l.Responses) > len(l.Queries) || len(l.Responses) < len(l.Queries)-1 {
		return fmt.Errorf("line %s: %d responses for %d queries", l.LineID, len(l.Responses), len(l.Queries))
	}
	return nil
}

// LineAnalysis summarizes a line's trajectory. Recomputed on every turn,
// never persisted on its own.
type LineAnalysis struct {
	InferredGoal        string `json:"inferred_goal"`
	LearningProgression string `json:"learning_progression"`
	CurrentFocus        string `json:"current_focus"`
}

// LineClassification is the structured verdict on whether an incoming query
// continues one of the user's existing lines.
type LineClassification struct {
	ContinuesLine bool    `json:"continues_line"`
	LineIndex     int     `json:"line_index"`
	Confidence    float64 `json:"confidence"`
	Reasoning     string  `json:"reasoning"`
}

// LineTopicAnalysis pairs a refreshed line analysis with a possibly refined
// topic label.
type LineTopicAnalysis struct {
	Topic    string       `json:"topic"`
	Analysis LineAnalysis `json:"analysis"`
}
