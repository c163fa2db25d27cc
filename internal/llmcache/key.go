// Package llmcache provides content-addressed caching of structured model
// calls: identical (messages, model) pairs resolve to the same record until
// explicitly cleared.
package llmcache

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/goccy/go-json"

	"github.com/mindline-ai/mindline/pkg/models"
)

// keyPayload fixes the field order of the hashed serialization. Struct
// fields marshal in declaration order, so the serialization is canonical
// without sorting.
type keyPayload struct {
	Messages []models.Message `json:"messages"`
	Model    string           `json:"model"`
}

// Key computes the cache key for a (messages, model) pair: SHA-256 over the
// canonical JSON serialization, hex encoded.
func Key(msgs []models.Message, model string) string {
	raw, err := json.Marshal(keyPayload{Messages: msgs, Model: model})
	if err != nil {
		// Message and string marshalling cannot fail; keep the signature
		// simple and hash the error text if it somehow does.
		raw = []byte(err.Error())
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}
