// Package recommend runs the end-to-end recommendation pipeline: line
// update, external answer, knowledge analysis, moment detection, and the
// bounded strategy/search/filter loop.
package recommend

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mindline-ai/mindline/internal/metrics"
	"github.com/mindline-ai/mindline/internal/prompts"
	"github.com/mindline-ai/mindline/internal/strategy"
	"github.com/mindline-ai/mindline/pkg/models"
)

// Step is one user-visible pipeline stage.
type Step string

const (
	StepInitial    Step = "initial"
	StepAnalyzing  Step = "analyzing"
	StepKnowledge  Step = "knowledge"
	StepMoment     Step = "moment"
	StepStrategy   Step = "strategy"
	StepSearching  Step = "searching"
	StepExtracting Step = "extracting"
	StepFinalizing Step = "finalizing"
	StepFailed     Step = "failed"
)

// Progress receives each stage as the pipeline enters it. May be nil.
type Progress func(Step)

const (
	defaultMaxAttempts   = 3
	recentInteractionCap = 20
)

// LineManager tracks query lines per user.
type LineManager interface {
	GetOrUpdateLine(ctx context.Context, userID, query string) (*models.QueryLine, *models.LineAnalysis, error)
	AppendResponse(ctx context.Context, line *models.QueryLine, response string) error
	AllLines(ctx context.Context, userID string) ([]models.QueryLine, error)
}

// Answerer produces the user-facing answer with citations.
type Answerer interface {
	Send(ctx context.Context, msgs []models.Message) (*models.Answer, error)
}

// Grouper selects the lines related to the current one.
type Grouper interface {
	RelatedLines(ctx context.Context, current *models.QueryLine, all []models.QueryLine) []models.QueryLine
}

// KnowledgeAnalyzer derives the knowledge state from related lines.
type KnowledgeAnalyzer interface {
	AnalyzeKnowledge(ctx context.Context, current *models.QueryLine, related []models.QueryLine) (*models.KnowledgeState, error)
}

// MomentDetector decides whether this point in the line warrants content.
type MomentDetector interface {
	DetectMoment(ctx context.Context, query string, analysis *models.LineAnalysis, state *models.KnowledgeState, recent []models.ContentInteraction) (*models.MomentDetection, error)
}

// StrategyGenerator produces fresh or refined search strategies.
type StrategyGenerator interface {
	Generate(ctx context.Context, query string, moment *models.MomentDetection, analysis *models.LineAnalysis, state *models.KnowledgeState, recent []models.ContentInteraction, prev *models.SearchStrategy) (*models.SearchStrategy, error)
}

// Discoverer turns a strategy into processed content candidates.
type Discoverer interface {
	ExecuteSearch(ctx context.Context, strat *models.SearchStrategy) ([]models.ProcessedContent, error)
}

// Filterer judges candidates against the knowledge state and moment.
type Filterer interface {
	FilterContent(ctx context.Context, candidates []models.ProcessedContent, moment *models.MomentDetection, query string, analysis *models.LineAnalysis, state *models.KnowledgeState, recent []models.ContentInteraction) (*models.FilteredContent, error)
}

// InteractionReader supplies recent engagement events.
type InteractionReader interface {
	RecentInteractions(ctx context.Context, userID string, limit int) ([]models.ContentInteraction, error)
}

// AuditWriter persists the immutable recommendation record.
type AuditWriter interface {
	Insert(ctx context.Context, rec *models.RecommendationRecord) error
}

// Deps are the orchestrator's collaborators.
type Deps struct {
	Lines        LineManager
	Answer       Answerer
	Grouper      Grouper
	Knowledge    KnowledgeAnalyzer
	Moments      MomentDetector
	Strategies   StrategyGenerator
	Discovery    Discoverer
	Filter       Filterer
	Interactions InteractionReader
	Audit        AuditWriter
}

// Orchestrator owns the request lifecycle; every other component is a
// stateless transformer over its inputs.
type Orchestrator struct {
	deps        Deps
	maxAttempts int
}

// NewOrchestrator creates an orchestrator. maxAttempts <= 0 selects the
// default of 3.
func NewOrchestrator(deps Deps, maxAttempts int) *Orchestrator {
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	return &Orchestrator{deps: deps, maxAttempts: maxAttempts}
}

// Result is the terminal payload for one request. Moment and
// Recommendations are nil when no learning moment was detected or no
// valuable content survived filtering.
type Result struct {
	PerplexityResponse string                  `json:"perplexity_response"`
	Citations          []string                `json:"citations,omitempty"`
	Moment             *models.MomentDetection `json:"moment"`
	Recommendations    *models.FilteredContent `json:"recommendations"`
	LineAnalysis       *models.LineAnalysis    `json:"line_analysis"`
}

// Run executes the full pipeline for one user query.
func (o *Orchestrator) Run(ctx context.Context, userID, query string, progress Progress) (*Result, error) {
	emit := func(s Step) {
		if progress != nil {
			progress(s)
		}
	}

	line, analysis, answer, err := o.GetInitialResponse(ctx, userID, query, emit)
	if err != nil {
		emit(StepFailed)
		metrics.RecordPipelineRequest(ctx, "error")
		return nil, err
	}

	moment, recs, err := o.GetRecommendations(ctx, userID, query, line, analysis, emit)
	if err != nil {
		emit(StepFailed)
		metrics.RecordPipelineRequest(ctx, "error")
		return nil, err
	}

	emit(StepFinalizing)
	return &Result{
		PerplexityResponse: answer.Text,
		Citations:          answer.Citations,
		Moment:             moment,
		Recommendations:    recs,
		LineAnalysis:       analysis,
	}, nil
}

// GetInitialResponse updates the user's query line, fetches the external
// answer for the line's conversation, and appends it to the line.
func (o *Orchestrator) GetInitialResponse(ctx context.Context, userID, query string, emit Progress) (*models.QueryLine, *models.LineAnalysis, *models.Answer, error) {
	emit(StepInitial)
	line, analysis, err := o.deps.Lines.GetOrUpdateLine(ctx, userID, query)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("update query line: %w", err)
	}

	answer, err := o.deps.Answer.Send(ctx, prompts.AnswerConversation(line))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("fetch answer: %w", err)
	}
	if err := o.deps.Lines.AppendResponse(ctx, line, answer.Text); err != nil {
		return nil, nil, nil, fmt.Errorf("append response: %w", err)
	}
	return line, analysis, answer, nil
}

// GetRecommendations runs the knowledge/moment/strategy/search/filter loop.
// It returns (nil, nil) recommendations when no moment is detected, and a
// nil FilteredContent when every attempt fails to find valuable content.
func (o *Orchestrator) GetRecommendations(ctx context.Context, userID, query string, line *models.QueryLine, analysis *models.LineAnalysis, emit Progress) (*models.MomentDetection, *models.FilteredContent, error) {
	emit(StepAnalyzing)
	related := []models.QueryLine{*line}
	if all, err := o.deps.Lines.AllLines(ctx, userID); err != nil {
		log.Warn().Err(err).Str("userId", userID).Msg("loading lines for grouping failed, using current line only")
	} else {
		related = o.deps.Grouper.RelatedLines(ctx, line, all)
	}

	emit(StepKnowledge)
	state, err := o.deps.Knowledge.AnalyzeKnowledge(ctx, line, related)
	if err != nil {
		return nil, nil, fmt.Errorf("analyze knowledge: %w", err)
	}

	recent, err := o.deps.Interactions.RecentInteractions(ctx, userID, recentInteractionCap)
	if err != nil {
		log.Warn().Err(err).Str("userId", userID).Msg("loading recent interactions failed, proceeding without")
		recent = nil
	}

	emit(StepMoment)
	moment, err := o.deps.Moments.DetectMoment(ctx, query, analysis, state, recent)
	if err != nil {
		return nil, nil, fmt.Errorf("detect moment: %w", err)
	}
	if moment == nil {
		metrics.RecordPipelineRequest(ctx, "no_moment")
		return nil, nil, nil
	}

	var prev *models.SearchStrategy
	for attempt := 0; attempt < o.maxAttempts; attempt++ {
		emit(StepStrategy)
		strat, err := o.deps.Strategies.Generate(ctx, query, moment, analysis, state, recent, prev)
		if err != nil {
			return nil, nil, fmt.Errorf("generate strategy: %w", err)
		}

		emit(StepSearching)
		candidates, err := o.deps.Discovery.ExecuteSearch(ctx, strat)
		if err != nil {
			return nil, nil, fmt.Errorf("execute search: %w", err)
		}

		emit(StepExtracting)
		filtered, err := o.deps.Filter.FilterContent(ctx, candidates, moment, query, analysis, state, recent)
		if err != nil {
			return nil, nil, fmt.Errorf("filter content: %w", err)
		}

		if len(filtered.ValuableContent) > 0 {
			metrics.RecordSearchAttempt(ctx, true)
			metrics.RecordPipelineRequest(ctx, "recommended")
			o.persistAudit(ctx, userID, query, moment, analysis, state, filtered)
			return moment, filtered, nil
		}

		metrics.RecordSearchAttempt(ctx, false)
		next := strategy.RecordAttempt(*strat, models.SearchAttempt{
			Query:                query,
			FoundValuableContent: false,
			ContentIDsFound:      filtered.AttemptedContent,
			FailureReason:        "no valuable content after filtering",
		})
		prev = &next
	}

	log.Info().Str("userId", userID).Int("attempts", o.maxAttempts).Msg("no valuable content found")
	metrics.RecordPipelineRequest(ctx, "no_content")
	return moment, nil, nil
}

// persistAudit writes the immutable audit record. A failed write is logged,
// never surfaced: the recommendations must still reach the user.
func (o *Orchestrator) persistAudit(ctx context.Context, userID, query string, moment *models.MomentDetection, analysis *models.LineAnalysis, state *models.KnowledgeState, recs *models.FilteredContent) {
	rec := &models.RecommendationRecord{
		UserID:          userID,
		Query:           query,
		Moment:          moment,
		LineAnalysis:    analysis,
		KnowledgeState:  state,
		Recommendations: recs,
		Timestamp:       time.Now(),
	}
	if err := o.deps.Audit.Insert(ctx, rec); err != nil {
		log.Error().Err(err).Str("userId", userID).Msg("recommendation audit write failed")
	}
}
