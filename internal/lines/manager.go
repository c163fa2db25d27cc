// Package lines maintains per-user query lines: deciding whether a new
// query continues an existing line, and keeping each line's topic and
// analysis current.
package lines

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/mindline-ai/mindline/internal/db"
	"github.com/mindline-ai/mindline/internal/llm"
	"github.com/mindline-ai/mindline/internal/prompts"
	"github.com/mindline-ai/mindline/pkg/models"
)

// DefaultRecentWindow bounds how many recent lines classification considers.
const DefaultRecentWindow = 10

// Manager owns query-line mutation. Updates are serialized per user so two
// concurrent requests cannot both create a line for the same query burst.
type Manager struct {
	store  *db.LineStore
	model  llm.Completer
	window int

	mu        sync.Mutex
	userLocks map[string]*sync.Mutex
}

// NewManager creates a line manager. recentWindow <= 0 uses the default.
func NewManager(store *db.LineStore, model llm.Completer, recentWindow int) *Manager {
	if recentWindow <= 0 {
		recentWindow = DefaultRecentWindow
	}
	return &Manager{
		store:     store,
		model:     model,
		window:    recentWindow,
		userLocks: make(map[string]*sync.Mutex),
	}
}

// GetOrUpdateLine classifies the query against the user's recent lines,
// appends it to the continuing line or creates a new one, and re-analyzes
// the result. Classification failures are fatal: guessing would corrupt the
// history every downstream inference depends on.
func (m *Manager) GetOrUpdateLine(ctx context.Context, userID, query string) (*models.QueryLine, *models.LineAnalysis, error) {
	unlock := m.lockUser(userID)
	defer unlock()

	recent, err := m.store.RecentLines(ctx, userID, m.window)
	if err != nil {
		return nil, nil, fmt.Errorf("load recent lines: %w", err)
	}

	now := time.Now()
	var line *models.QueryLine

	if len(recent) == 0 {
		line = m.newLine(userID, query, now)
		if err := m.store.CreateLine(ctx, line); err != nil {
			return nil, nil, err
		}
	} else {
		var cls models.LineClassification
		if err := m.model.Complete(ctx, prompts.ClassifyLine(query, recent), &cls); err != nil {
			return nil, nil, fmt.Errorf("classify line continuation: %w", err)
		}

		if cls.ContinuesLine && cls.LineIndex >= 0 && cls.LineIndex < len(recent) {
			line = &recent[cls.LineIndex]
			line.AppendQuery(query, now)
			if err := m.store.SaveLine(ctx, line); err != nil {
				return nil, nil, err
			}
			log.Debug().
				Str("lineId", line.LineID).
				Float64("confidence", cls.Confidence).
				Msg("query continues existing line")
		} else {
			line = m.newLine(userID, query, now)
			if err := m.store.CreateLine(ctx, line); err != nil {
				return nil, nil, err
			}
			log.Debug().Str("lineId", line.LineID).Msg("query starts new line")
		}
	}

	analysis, err := m.reanalyze(ctx, line)
	if err != nil {
		return nil, nil, err
	}
	return line, analysis, nil
}

// AppendResponse records the answer to the line's latest query and persists.
func (m *Manager) AppendResponse(ctx context.Context, line *models.QueryLine, response string) error {
	unlock := m.lockUser(line.UserID)
	defer unlock()

	if err := line.AppendResponse(response, time.Now()); err != nil {
		return err
	}
	return m.store.SaveLine(ctx, line)
}

// AllLines returns every line the user has, newest first.
func (m *Manager) AllLines(ctx context.Context, userID string) ([]models.QueryLine, error) {
	return m.store.AllLines(ctx, userID)
}

// reanalyze refreshes the line's analysis and topic. Renames key off the
// line's identity, so a momentary topic collision between two lines is
// harmless.
func (m *Manager) reanalyze(ctx context.Context, line *models.QueryLine) (*models.LineAnalysis, error) {
	var ta models.LineTopicAnalysis
	if err := m.model.Complete(ctx, prompts.AnalyzeLine(line), &ta); err != nil {
		return nil, fmt.Errorf("analyze line: %w", err)
	}

	if ta.Topic != "" && ta.Topic != line.LineTopic {
		old := line.LineTopic
		line.LineTopic = ta.Topic
		if err := m.store.SaveLine(ctx, line); err != nil {
			return nil, err
		}
		log.Debug().
			Str("lineId", line.LineID).
			Str("from", old).
			Str("to", ta.Topic).
			Msg("line topic renamed")
	}
	return &ta.Analysis, nil
}

// newLine starts a fresh line. The raw query text is the initial topic; the
// first re-analysis usually replaces it.
func (m *Manager) newLine(userID, query string, now time.Time) *models.QueryLine {
	return &models.QueryLine{
		LineID:      uuid.NewString(),
		UserID:      userID,
		LineTopic:   query,
		Queries:     []string{query},
		Timestamps:  []time.Time{now},
		CreatedAt:   now,
		LastUpdated: now,
	}
}

func (m *Manager) lockUser(userID string) func() {
	m.mu.Lock()
	lock, ok := m.userLocks[userID]
	if !ok {
		lock = &sync.Mutex{}
		m.userLocks[userID] = lock
	}
	m.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}
