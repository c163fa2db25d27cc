// Package llm wraps the structured-output model API: JSON-mode chat
// completions decoded into typed values, memoized by a content hash of the
// request.
package llm

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

// Completer issues structured model calls, serving repeats from cache.
type Completer interface {
	Complete(ctx context.Context, msgs []models.Message, out any) error
}

// Config holds structured-call client configuration.
type Config struct {
	APIKey  string
	BaseURL string        // Empty for the default endpoint
	Model   string        // e.g. "gpt-4o-mini"
	Timeout time.Duration // Per-call timeout (default 30s)
	Cache   llmcache.Store
}

// Client calls the model API with a JSON response format at temperature 0.
// Cache read and write failures degrade to a live call and a lost write.
type Client struct {
	api     openai.Client
	cache   llmcache.Store
	model   string
	timeout time.Duration

	// invoke is swapped out in tests.
	invoke func(ctx context.Context, msgs []models.Message) ([]byte, error)
}

// NewClient creates a structured-call client.
func NewClient(cfg Config) *Client {
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	c := &Client{
		api:     openai.NewClient(opts...),
		cache:   cfg.Cache,
		model:   cfg.Model,
		timeout: timeout,
	}
	c.invoke = c.call
	return c
}

// Complete resolves one structured call into out, from cache when possible.
func (c *Client) Complete(ctx context.Context, msgs []models.Message, out any) error {
	key := llmcache.Key(msgs, c.model)

	if c.cache != nil {
		raw, ok, err := c.cache.Get(ctx, key)
		if err != nil {
			log.Warn().Err(err).Str("key", key).Msg("call cache read failed, treating as miss")
		} else if ok {
			if err := json.Unmarshal(raw, out); err == nil {
				metrics.RecordCacheHit(ctx, c.model)
				return nil
			}
			log.Warn().Str("key", key).Msg("cached response no longer decodes, refetching")
		}
		metrics.RecordCacheMiss(ctx, c.model)
	}

	start := time.Now()
	raw, err := c.invoke(ctx, msgs)
	duration := time.Since(start)
	if err != nil {
		if c.cache != nil {
			record := llmcache.Record{Key: key, Model: c.model, Duration: duration, CallErr: err.Error()}
			if perr := c.cache.Put(ctx, record); perr != nil {
				log.Warn().Err(perr).Str("key", key).Msg("call cache write failed")
			}
		}
		return fmt.Errorf("structured call: %w", err)
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode structured response: %w", err)
	}

	if c.cache != nil {
		record := llmcache.Record{Key: key, Model: c.model, Response: raw, Duration: duration}
		if err := c.cache.Put(ctx, record); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("call cache write failed")
		}
	}
	return nil
}

// call performs the live API request with retry and backoff. The retry here
// wraps the transport; it is unrelated to the pipeline's strategy-attempt
// loop.
func (c *Client) call(ctx context.Context, msgs []models.Message) ([]byte, error) {
	params := openai.ChatCompletionNewParams{
		Model:       shared.ChatModel(c.model),
		Messages:    toParams(msgs),
		Temperature: openai.Float(0),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		},
	}

	var content string
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
			return retry.RetryableError(fmt.Errorf("completion returned no choices"))
		}
		content = resp.Choices[0].Message.Content
		return nil
	})
	if err != nil {
		return nil, err
	}
	return []byte(content), nil
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
