package models

// SearchAttempt records the outcome of one discovery pass.
type SearchAttempt struct {
	Query                string   `json:"query"`
	FoundValuableContent bool     `json:"found_valuable_content"`
	ContentIDsFound      []string `json:"content_ids_found"`
	FailureReason        string   `json:"failure_reason,omitempty"`
}

// SearchStrategy drives content discovery. Strategies are replaced, never
// mutated: refinement and attempt recording both produce new values whose
// PreviousAttempts extend the prior list.
type SearchStrategy struct {
	SearchQueries        []string        `json:"search_queries"`
	TechnicalDepthTarget float64         `json:"technical_depth_target"`
	RequiredConcepts     []string        `json:"required_concepts"`
	PreviousAttempts     []SearchAttempt `json:"previous_attempts"`
}

// StrategyRefinement is the structured answer for refining a strategy after
// one or more failed attempts.
type StrategyRefinement struct {
	KeepQueries          []string `json:"keep_queries"`
	NewQueries           []string `json:"new_queries"`
	TechnicalDepthTarget float64  `json:"technical_depth_target"`
	Reasoning            string   `json:"reasoning"`
}
