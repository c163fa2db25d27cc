package prompts

import (
	"github.com/rs/zerolog/log"
	"github.com/tiktoken-go/tokenizer"
)

// Default token ceilings for prompt context blocks.
const (
	MaxPageTokens    = 6000
	MaxContextTokens = 3000
)

var codec tokenizer.Codec

func init() {
	var err error
	codec, err = tokenizer.Get(tokenizer.Cl100kBase)
	if err != nil {
		// Without a codec we degrade to byte-based truncation.
		log.Warn().Err(err).Msg("tokenizer unavailable, falling back to byte truncation")
	}
}

// Truncate trims text to at most maxTokens tokens, cutting from the end.
func Truncate(text string, maxTokens int) string {
	if maxTokens <= 0 || text == "" {
		return text
	}
	if codec == nil {
		// Rough 4 bytes/token approximation.
		limit := maxTokens * 4
		if len(text) > limit {
			return text[:limit]
		}
		return text
	}

	ids, _, err := codec.Encode(text)
	if err != nil || len(ids) <= maxTokens {
		return text
	}
	trimmed, err := codec.Decode(ids[:maxTokens])
	if err != nil {
		return text
	}
	return trimmed
}
