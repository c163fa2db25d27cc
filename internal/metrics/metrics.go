// Package metrics exposes OpenTelemetry counters for the recommendation
// pipeline.
package metrics

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	once    sync.Once
	initErr error

	pipelineRequests metric.Int64Counter
	cacheHits        metric.Int64Counter
	cacheMisses      metric.Int64Counter
	searchAttempts   metric.Int64Counter
	modelCalls       metric.Int64Counter
)

func initMetrics() {
	meter := otel.Meter("mindline")
	var err error
	if pipelineRequests, err = meter.Int64Counter("pipeline_requests_total"); err != nil {
		initErr = err
		return
	}
	if cacheHits, err = meter.Int64Counter("call_cache_hits_total"); err != nil {
		initErr = err
		return
	}
	if cacheMisses, err = meter.Int64Counter("call_cache_misses_total"); err != nil {
		initErr = err
		return
	}
	if searchAttempts, err = meter.Int64Counter("search_attempts_total"); err != nil {
		initErr = err
		return
	}
	if modelCalls, err = meter.Int64Counter("model_calls_total"); err != nil {
		initErr = err
	}
}

// RecordPipelineRequest counts one inbound pipeline run and its outcome.
func RecordPipelineRequest(ctx context.Context, outcome string) {
	once.Do(initMetrics)
	if initErr != nil {
		return
	}
	pipelineRequests.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

// RecordCacheHit counts one structured-call cache hit.
func RecordCacheHit(ctx context.Context, model string) {
	once.Do(initMetrics)
	if initErr != nil {
		return
	}
	cacheHits.Add(ctx, 1, metric.WithAttributes(attribute.String("model", model)))
}

// RecordCacheMiss counts one structured-call cache miss.
func RecordCacheMiss(ctx context.Context, model string) {
	once.Do(initMetrics)
	if initErr != nil {
		return
	}
	cacheMisses.Add(ctx, 1, metric.WithAttributes(attribute.String("model", model)))
}

// RecordSearchAttempt counts one discovery pass and whether it succeeded.
func RecordSearchAttempt(ctx context.Context, found bool) {
	once.Do(initMetrics)
	if initErr != nil {
		return
	}
	searchAttempts.Add(ctx, 1, metric.WithAttributes(attribute.Bool("found_valuable", found)))
}

// RecordModelCall counts one live model invocation.
func RecordModelCall(ctx context.Context, model string) {
	once.Do(initMetrics)
	if initErr != nil {
		return
	}
	modelCalls.Add(ctx, 1, metric.WithAttributes(attribute.String("model", model)))
}
