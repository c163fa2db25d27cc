// Package perplexity talks to the answer-generation API (Perplexity's
// OpenAI-compatible endpoint): multi-turn questions in, answer text plus
// citation URLs out.
package perplexity

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
	"github.com/rs/zerolog/log"
	"github.com/sethvargo/go-retry"

	"github.com/mindline-ai/mindline/internal/llmcache"
	"github.com/mindline-ai/mindline/internal/metrics"
	"github.com/mindline-ai/mindline/pkg/models"
)

// DefaultBaseURL is Perplexity's API endpoint.
const DefaultBaseURL = "https://api.perplexity.ai"

// Config holds answer-API client configuration.
type Config struct {
	APIKey  string
	BaseURL string        // Defaults to DefaultBaseURL
	Model   string        // e.g. "sonar"
	Timeout time.Duration // Per-call timeout (default 30s)
	Cache   llmcache.Store
}

// Client sends conversations to the answer API. Responses are cached by the
// same content hash as structured calls, in a per-model keyspace.
type Client struct {
	api     openai.Client
	cache   llmcache.Store
	model   string
	timeout time.Duration

	// invoke is swapped out in tests.
	invoke func(ctx context.Context, msgs []models.Message) (*models.Answer, error)
}

// NewClient creates an answer-API client.
func NewClient(cfg Config) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	c := &Client{
		api:     openai.NewClient(option.WithAPIKey(cfg.APIKey), option.WithBaseURL(baseURL)),
		cache:   cfg.Cache,
		model:   cfg.Model,
		timeout: timeout,
	}
	c.invoke = c.call
	return c
}

// Send resolves one conversation into an answer, from cache when possible.
func (c *Client) Send(ctx context.Context, msgs []models.Message) (*models.Answer, error) {
	key := llmcache.Key(msgs, c.model)

	if c.cache != nil {
		raw, ok, err := c.cache.Get(ctx, key)
		if err != nil {
			log.Warn().Err(err).Str("key", key).Msg("answer cache read failed, treating as miss")
		} else if ok {
			var answer models.Answer
			if err := json.Unmarshal(raw, &answer); err == nil {
				metrics.RecordCacheHit(ctx, c.model)
				return &answer, nil
			}
			log.Warn().Str("key", key).Msg("cached answer no longer decodes, refetching")
		}
		metrics.RecordCacheMiss(ctx, c.model)
	}

	start := time.Now()
	answer, err := c.invoke(ctx, msgs)
	if err != nil {
		return nil, fmt.Errorf("answer call: %w", err)
	}

	if c.cache != nil {
		raw, merr := json.Marshal(answer)
		if merr == nil {
			record := llmcache.Record{Key: key, Model: c.model, Response: raw, Duration: time.Since(start)}
			if err := c.cache.Put(ctx, record); err != nil {
				log.Warn().Err(err).Str("key", key).Msg("answer cache write failed")
			}
		}
	}
	return answer, nil
}

func (c *Client) call(ctx context.Context, msgs []models.Message) (*models.Answer, error) {
	params := openai.ChatCompletionNewParams{
		Model:    shared.ChatModel(c.model),
		Messages: toParams(msgs),
	}

	var answer *models.Answer
	backoff := retry.WithMaxRetries(2, retry.NewExponential(time.Second))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		callCtx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()

		metrics.RecordModelCall(ctx, c.model)
		resp, err := c.api.Chat.Completions.New(callCtx, params)
		if err != nil {
			return retry.RetryableError(err)
		}
		if len(resp.Choices) == 0 {
			return retry.RetryableError(fmt.Errorf("answer returned no choices"))
		}
		answer = &models.Answer{
			Text:      resp.Choices[0].Message.Content,
			Citations: extractCitations(resp),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return answer, nil
}

// extractCitations pulls Perplexity's citations field, which the SDK exposes
// only through the response's extra JSON fields.
func extractCitations(resp *openai.ChatCompletion) []string {
	field, ok := resp.JSON.ExtraFields["citations"]
	if !ok {
		return nil
	}
	var citations []string
	if err := json.Unmarshal([]byte(field.Raw()), &citations); err != nil {
		log.Warn().Err(err).Msg("citations field did not decode")
		return nil
	}
	return citations
}

func toParams(msgs []models.Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(msgs))
	for _, m := range msgs {
		switch m.Role {
		case models.RoleSystem:
			out = append(out, openai.SystemMessage(m.Content))
		case models.RoleAssistant:
			out = append(out, openai.AssistantMessage(m.Content))
		default:
			out = append(out, openai.UserMessage(m.Content))
		}
	}
	return out
}
