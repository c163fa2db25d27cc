package llmcache

import (
	"context"
	"time"
)

// Record is one cached call outcome.
type Record struct {
	Key      string
	Model    string
	Response []byte
	Duration time.Duration
	CallErr  string
}

// Stats summarizes cache contents.
type Stats struct {
	Entries int64            `json:"entries"`
	ByModel map[string]int64 `json:"by_model"`
}

// Store is the durable backing for cached structured calls. A miss is
// (nil, false, nil); errors are reported but callers treat them as misses.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, rec Record) error
	Stats(ctx context.Context) (Stats, error)
	ClearAll(ctx context.Context) error
}
