package models

// MomentType classifies a learning moment worth recommending content for.
type MomentType string

const (
	MomentNewTopicNoContext   MomentType = "new_topic_no_context"
	MomentNewTopicWithContext MomentType = "new_topic_with_context"
	MomentConceptStruggle     MomentType = "concept_struggle"
	MomentGoalDirection       MomentType = "goal_direction"
)

// MomentDetection is the structured verdict on whether the current point in
// conversation warrants supplementary recommendations.
type MomentDetection struct {
	IsMoment   bool       `json:"is_moment"`
	MomentType MomentType `json:"moment_type"`
	Confidence float64    `json:"confidence"`
	Reasoning  string     `json:"reasoning"`
	Signals    []string   `json:"signals"`
}
