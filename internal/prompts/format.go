package prompts

import (
	"fmt"
	"strings"

	"github.com/mindline-ai/mindline/pkg/models"
)

// Shared formatting helpers. The demonstrated-vs-exposed distinction in
// knowledge formatting is load bearing: moment detection and content
// filtering both rely on it and it must never be collapsed.

func formatLine(sb *strings.Builder, line *models.QueryLine) {
	fmt.Fprintf(sb, "Topic: %s\n", line.LineTopic)
	for i, q := range line.Queries {
		fmt.Fprintf(sb, "Q%d: %s\n", i+1, q)
		if i < len(line.Responses) {
			fmt.Fprintf(sb, "A%d: %s\n", i+1, Truncate(line.Responses[i], 400))
		}
	}
}

func formatLineList(lines []models.QueryLine) string {
	var sb strings.Builder
	for i := range lines {
		fmt.Fprintf(&sb, "[%d] ", i)
		formatLine(&sb, &lines[i])
		sb.WriteString("\n")
	}
	return Truncate(sb.String(), MaxContextTokens)
}

func formatKnowledge(state *models.KnowledgeState) string {
	var sb strings.Builder
	formatTopicKnowledge(&sb, &state.CurrentTopic)
	for i := range state.RelatedTopics {
		sb.WriteString("\nRelated topic:\n")
		formatTopicKnowledge(&sb, &state.RelatedTopics[i])
	}
	if len(state.OverallPatterns) > 0 {
		fmt.Fprintf(&sb, "\nOverall patterns: %s\n", strings.Join(state.OverallPatterns, "; "))
	}
	return Truncate(sb.String(), MaxContextTokens)
}

func formatTopicKnowledge(sb *strings.Builder, topic *models.TopicKnowledge) {
	fmt.Fprintf(sb, "Topic: %s\n", topic.Topic)
	sb.WriteString("Concepts DEMONSTRATED (user has shown understanding, with evidence):\n")
	for _, c := range topic.Concepts {
		if c.DemonstratedLevel <= 0 {
			continue
		}
		fmt.Fprintf(sb, "- %s (level %.2f; evidence: %s)\n",
			c.Concept, c.DemonstratedLevel, strings.Join(c.DemonstrationEvidence, "; "))
		if len(c.Misconceptions) > 0 {
			fmt.Fprintf(sb, "  misconceptions: %s\n", strings.Join(c.Misconceptions, "; "))
		}
	}
	sb.WriteString("Concepts merely EXPOSED (mentioned to the user, understanding NOT shown):\n")
	for _, c := range topic.Concepts {
		if c.DemonstratedLevel <= 0 {
			fmt.Fprintf(sb, "- %s\n", c.Concept)
		}
	}
	for _, c := range topic.LatestResponseConcepts {
		fmt.Fprintf(sb, "- %s (from latest answer)\n", c)
	}
	if topic.AbstractionLevel != "" {
		fmt.Fprintf(sb, "Abstraction level: %s\n", topic.AbstractionLevel)
	}
	if topic.ProgressionCapability != "" {
		fmt.Fprintf(sb, "Progression capability: %s\n", topic.ProgressionCapability)
	}
	if len(topic.ExplanationPreferences) > 0 {
		fmt.Fprintf(sb, "Explanation preferences: %s\n", strings.Join(topic.ExplanationPreferences, "; "))
	}
}

func formatAnalysis(analysis *models.LineAnalysis) string {
	if analysis == nil {
		return "unknown"
	}
	return fmt.Sprintf("goal: %s; progression: %s; current focus: %s",
		analysis.InferredGoal, analysis.LearningProgression, analysis.CurrentFocus)
}

func formatInteractions(recent []models.ContentInteraction) string {
	if len(recent) == 0 {
		return "none"
	}
	var sb strings.Builder
	for _, it := range recent {
		fmt.Fprintf(&sb, "- %s on content %s", it.Type, it.ContentID)
		switch data := it.Data.(type) {
		case *models.ReadEndData:
			fmt.Fprintf(&sb, " (read %.0fs)", data.DurationSeconds)
		case *models.HighlightData:
			fmt.Fprintf(&sb, " (highlighted %q)", data.Text)
		case *models.ReferenceClickData:
			fmt.Fprintf(&sb, " (clicked %s)", data.ReferenceURL)
		case *models.ProgressUpdateData:
			fmt.Fprintf(&sb, " (progress %.0f%%)", data.Percentage*100)
		case *models.FollowUpQueryData:
			fmt.Fprintf(&sb, " (asked %q)", data.Query)
		}
		sb.WriteString("\n")
	}
	return Truncate(sb.String(), 800)
}

func formatAttempts(attempts []models.SearchAttempt) string {
	var sb strings.Builder
	for i, a := range attempts {
		outcome := "found nothing valuable"
		if a.FoundValuableContent {
			outcome = fmt.Sprintf("found %d valuable items", len(a.ContentIDsFound))
		}
		fmt.Fprintf(&sb, "%d. %q: %s", i+1, a.Query, outcome)
		if a.FailureReason != "" {
			fmt.Fprintf(&sb, " (%s)", a.FailureReason)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
