// Package prompts builds the message payloads for every structured model
// call in the recommendation pipeline.
package prompts

import (
	"fmt"
	"strings"

	"github.com/mindline-ai/mindline/pkg/models"
)

// ClassifyLine asks whether a new query continues one of the existing lines.
func ClassifyLine(query string, lines []models.QueryLine) []models.Message {
	var sb strings.Builder
	sb.WriteString("A user asked a new question. Decide whether it continues one of their existing lines of inquiry or starts a new one.\n\n")
	sb.WriteString("Existing lines (indexed):\n")
	sb.WriteString(formatLineList(lines))
	fmt.Fprintf(&sb, "\nNew question: %s\n\n", query)
	sb.WriteString(`Respond with JSON: {"continues_line": bool, "line_index": int, "confidence": float, "reasoning": string}. Use line_index -1 when it does not continue any line.`)

	return []models.Message{
		models.SystemMessage("You track a learner's lines of inquiry. Answer only with the requested JSON object."),
		models.UserMessage(sb.String()),
	}
}

// AnalyzeLine asks for a refreshed trajectory analysis and topic label.
func AnalyzeLine(line *models.QueryLine) []models.Message {
	var sb strings.Builder
	sb.WriteString("Analyze this line of inquiry.\n\n")
	formatLine(&sb, line)
	sb.WriteString("\nRespond with JSON: {\"topic\": string, \"analysis\": {\"inferred_goal\": string, \"learning_progression\": string, \"current_focus\": string}}. The topic is a short label for the whole line.")

	return []models.Message{
		models.SystemMessage("You summarize a learner's trajectory through a topic. Answer only with the requested JSON object."),
		models.UserMessage(sb.String()),
	}
}

// SelectRelatedLines asks which other lines bear on the user's present
// understanding.
func SelectRelatedLines(current *models.QueryLine, others []models.QueryLine) []models.Message {
	var sb strings.Builder
	sb.WriteString("The user is currently pursuing this line:\n")
	formatLine(&sb, current)
	sb.WriteString("\nTheir other lines (indexed):\n")
	sb.WriteString(formatLineList(others))
	sb.WriteString("\nSelect the indices of lines relevant to assessing what the user currently understands.\n")
	sb.WriteString(`Respond with JSON: {"related_indices": [int], "reasoning": string}.`)

	return []models.Message{
		models.SystemMessage("You group related lines of inquiry. Answer only with the requested JSON object."),
		models.UserMessage(sb.String()),
	}
}

// AnalyzeKnowledge asks for a full knowledge-state snapshot.
func AnalyzeKnowledge(current *models.QueryLine, related []models.QueryLine) []models.Message {
	var sb strings.Builder
	sb.WriteString("Infer the user's knowledge state from their questions and the answers they received.\n\n")
	sb.WriteString("Current line:\n")
	formatLine(&sb, current)
	if len(related) > 0 {
		sb.WriteString("\nRelated lines:\n")
		sb.WriteString(formatLineList(related))
	}
	sb.WriteString("\nDistinguish strictly between concepts the user has DEMONSTRATED understanding of (evidence in their own questions) and concepts they were merely EXPOSED to in answers. ")
	sb.WriteString("A concept only mentioned in an answer must have demonstrated_level 0.\n")
	sb.WriteString(`Respond with JSON: {"current_topic": {"topic": string, "concepts": [{"concept": string, "demonstrated_level": float, "demonstration_evidence": [string], "exposure_evidence": [string], "successful_applications": [string], "misconceptions": [string]}], "explanation_preferences": [string], "progression_capability": string, "connection_making": string, "abstraction_level": string, "effective_examples": [string], "latest_response_concepts": [string]}, "related_topics": [<same shape as current_topic>], "overall_patterns": [string]}.`)

	return []models.Message{
		models.SystemMessage("You assess what a learner actually understands versus what they have merely seen. Answer only with the requested JSON object."),
		models.UserMessage(sb.String()),
	}
}

// ExtractConcepts asks which concepts the latest answer exposed the user to.
func ExtractConcepts(response string) []models.Message {
	var sb strings.Builder
	sb.WriteString("List every concept this answer exposed the reader to:\n\n")
	sb.WriteString(Truncate(response, 1500))
	sb.WriteString("\n\nRespond with JSON: {\"concepts\": [string]}.")

	return []models.Message{
		models.SystemMessage("You extract concepts from explanatory text. Answer only with the requested JSON object."),
		models.UserMessage(sb.String()),
	}
}

// DetectMoment asks whether now is a valuable moment to recommend content.
func DetectMoment(query string, analysis *models.LineAnalysis, state *models.KnowledgeState, recent []models.ContentInteraction) []models.Message {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Latest question: %s\n", query)
	fmt.Fprintf(&sb, "Line trajectory: %s\n\n", formatAnalysis(analysis))
	sb.WriteString("Knowledge state:\n")
	sb.WriteString(formatKnowledge(state))
	sb.WriteString("\nRecent engagement with recommended content:\n")
	sb.WriteString(formatInteractions(recent))
	sb.WriteString("\nIs this a valuable moment to recommend supplementary reading? Moment types: new_topic_no_context, new_topic_with_context, concept_struggle, goal_direction.\n")
	sb.WriteString(`Respond with JSON: {"is_moment": bool, "moment_type": string, "confidence": float, "reasoning": string, "signals": [string]}.`)

	return []models.Message{
		models.SystemMessage("You decide when supplementary content would genuinely help a learner. Answer only with the requested JSON object."),
		models.UserMessage(sb.String()),
	}
}

// GenerateStrategy asks for an initial search strategy.
func GenerateStrategy(query string, moment *models.MomentDetection, analysis *models.LineAnalysis, state *models.KnowledgeState, recent []models.ContentInteraction) []models.Message {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Latest question: %s\n", query)
	fmt.Fprintf(&sb, "Learning moment: %s (%s)\n", moment.MomentType, moment.Reasoning)
	fmt.Fprintf(&sb, "Line trajectory: %s\n\n", formatAnalysis(analysis))
	sb.WriteString("Knowledge state:\n")
	sb.WriteString(formatKnowledge(state))
	sb.WriteString("\nRecent engagement:\n")
	sb.WriteString(formatInteractions(recent))
	sb.WriteString("\nProduce a search strategy for finding supplementary articles. Pitch technical_depth_target between 0 (introductory) and 1 (expert), slightly above the user's demonstrated level.\n")
	sb.WriteString(`Respond with JSON: {"search_queries": [string], "technical_depth_target": float, "required_concepts": [string]}.`)

	return []models.Message{
		models.SystemMessage("You design web search strategies for learning content. Answer only with the requested JSON object."),
		models.UserMessage(sb.String()),
	}
}

// RefineStrategy asks for a refinement after one or more failed attempts.
func RefineStrategy(query string, prev *models.SearchStrategy, state *models.KnowledgeState) []models.Message {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Original question: %s\n", query)
	fmt.Fprintf(&sb, "Current queries: %s\n", strings.Join(prev.SearchQueries, "; "))
	fmt.Fprintf(&sb, "Technical depth target: %.2f\n\n", prev.TechnicalDepthTarget)
	sb.WriteString("Attempts so far:\n")
	sb.WriteString(formatAttempts(prev.PreviousAttempts))
	sb.WriteString("\nKnowledge state:\n")
	sb.WriteString(formatKnowledge(state))
	sb.WriteString("\nDecide which existing queries to keep and propose new ones likely to surface valuable content.\n")
	sb.WriteString(`Respond with JSON: {"keep_queries": [string], "new_queries": [string], "technical_depth_target": float, "reasoning": string}.`)

	return []models.Message{
		models.SystemMessage("You refine failing search strategies. Answer only with the requested JSON object."),
		models.UserMessage(sb.String()),
	}
}

// ExtractContent asks for the structured reduction of one fetched page.
func ExtractContent(url, title, text string) []models.Message {
	var sb strings.Builder
	fmt.Fprintf(&sb, "URL: %s\n", url)
	if title != "" {
		fmt.Fprintf(&sb, "Page title: %s\n", title)
	}
	sb.WriteString("\nPage text:\n")
	sb.WriteString(Truncate(text, MaxPageTokens))
	sb.WriteString("\n\nRespond with JSON: {\"title\": string, \"source\": string, \"author\": string, \"publish_date\": string, \"analysis\": {\"sections\": [string], \"companies_mentioned\": [string], \"metrics\": [string], \"key_topics\": [string], \"summary\": string, \"sentiment\": string}}.")

	return []models.Message{
		models.SystemMessage("You reduce articles to structured form. Answer only with the requested JSON object."),
		models.UserMessage(sb.String()),
	}
}

// EvaluateContent asks whether one candidate is valuable for this moment.
func EvaluateContent(content *models.ProcessedContent, moment *models.MomentDetection, query string, analysis *models.LineAnalysis, state *models.KnowledgeState, recent []models.ContentInteraction) []models.Message {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Candidate article: %s (%s)\n", content.Title, content.URL)
	fmt.Fprintf(&sb, "Summary: %s\n", content.Analysis.Summary)
	fmt.Fprintf(&sb, "Key topics: %s\n", strings.Join(content.Analysis.KeyTopics, "; "))
	fmt.Fprintf(&sb, "Sections: %s\n\n", strings.Join(content.Analysis.Sections, "; "))
	fmt.Fprintf(&sb, "Latest question: %s\n", query)
	fmt.Fprintf(&sb, "Learning moment: %s\n", moment.MomentType)
	fmt.Fprintf(&sb, "Line trajectory: %s\n\n", formatAnalysis(analysis))
	sb.WriteString("Knowledge state:\n")
	sb.WriteString(formatKnowledge(state))
	sb.WriteString("\nRecent engagement:\n")
	sb.WriteString(formatInteractions(recent))
	sb.WriteString("\nJudge whether this article would genuinely advance the user right now. Content that only repeats concepts the user has already demonstrated is not valuable.\n")
	sb.WriteString(`Respond with JSON: {"is_valuable": bool, "value_score": float, "explanation": string, "relevant_sections": [string]}.`)

	return []models.Message{
		models.SystemMessage("You evaluate reading material against a learner's current understanding. Answer only with the requested JSON object."),
		models.UserMessage(sb.String()),
	}
}

// AnswerConversation builds the multi-turn conversation for the answer API:
// the line's prior Q/A pairs as turns, then the latest query.
func AnswerConversation(line *models.QueryLine) []models.Message {
	msgs := []models.Message{
		models.SystemMessage("You are a knowledgeable assistant. Answer clearly and cite your sources."),
	}
	for i, q := range line.Queries {
		if i == len(line.Queries)-1 {
			break
		}
		msgs = append(msgs, models.UserMessage(q))
		if i < len(line.Responses) {
			msgs = append(msgs, models.AssistantMessage(Truncate(line.Responses[i], 800)))
		}
	}
	if len(line.Queries) > 0 {
		msgs = append(msgs, models.UserMessage(line.Queries[len(line.Queries)-1]))
	}
	return msgs
}

// SearchConversation builds the single-turn discovery request for one search
// query. Candidate URLs come back as citations.
func SearchConversation(query string, depthTarget float64) []models.Message {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Find recent, high-quality articles about: %s\n", query)
	if depthTarget >= 0.6 {
		sb.WriteString("Prefer technically deep sources over introductory overviews.")
	} else if depthTarget > 0 {
		sb.WriteString("Prefer accessible, well-explained sources.")
	}
	return []models.Message{
		models.SystemMessage("You are a research assistant. Ground every claim in cited sources."),
		models.UserMessage(sb.String()),
	}
}
