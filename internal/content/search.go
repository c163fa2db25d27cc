package content

import (
	"context"

	"github.com/mindline-ai/mindline/internal/perplexity"
	"github.com/mindline-ai/mindline/internal/prompts"
)

// PerplexitySearcher adapts the Perplexity client to the Searcher interface:
// the answer text is discarded, the citations are the candidate URLs.
type PerplexitySearcher struct {
	client *perplexity.Client
}

// NewPerplexitySearcher wraps a Perplexity client for content discovery.
func NewPerplexitySearcher(client *perplexity.Client) *PerplexitySearcher {
	return &PerplexitySearcher{client: client}
}

func (s *PerplexitySearcher) Search(ctx context.Context, query string, depthTarget float64) ([]string, error) {
	answer, err := s.client.Send(ctx, prompts.SearchConversation(query, depthTarget))
	if err != nil {
		return nil, err
	}
	return answer.Citations, nil
}
