package models

// ConceptUnderstanding records how well a user understands a single concept.
// DemonstratedLevel measures shown understanding backed by evidence; mere
// mentions in answers land in exposure, never in the demonstrated level.
type ConceptUnderstanding struct {
	Concept                string   `json:"concept"`
	DemonstratedLevel      float64  `json:"demonstrated_level"`
	DemonstrationEvidence  []string `json:"demonstration_evidence"`
	ExposureEvidence       []string `json:"exposure_evidence"`
	SuccessfulApplications []string `json:"successful_applications"`
	Misconceptions         []string `json:"misconceptions"`
}

// TopicKnowledge is the per-topic slice of a knowledge state.
type TopicKnowledge struct {
	Topic                  string                 `json:"topic"`
	Concepts               []ConceptUnderstanding `json:"concepts"`
	ExplanationPreferences []string               `json:"explanation_preferences"`
	ProgressionCapability  string                 `json:"progression_capability"`
	ConnectionMaking       string                 `json:"connection_making"`
	AbstractionLevel       string                 `json:"abstraction_level"`
	EffectiveExamples      []string               `json:"effective_examples"`
	LatestResponseConcepts []string               `json:"latest_response_concepts"`
}

// KnowledgeState is a derived per-turn snapshot of what the user understands.
// It is never persisted standalone, only inside stored recommendation records.
type KnowledgeState struct {
	CurrentTopic    TopicKnowledge   `json:"current_topic"`
	RelatedTopics   []TopicKnowledge `json:"related_topics"`
	OverallPatterns []string         `json:"overall_patterns"`
}
