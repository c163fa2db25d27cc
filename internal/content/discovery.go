package content

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sethvargo/go-retry"
	"golang.org/x/sync/errgroup"

	"github.com/mindline-ai/mindline/internal/db"
	"github.com/mindline-ai/mindline/pkg/models"
)

// excludedDomains are low-value hosts dropped from every candidate set.
var excludedDomains = []string{"youtube.com", "youtu.be"}

const maxPageBytes = 2 << 20

// Searcher turns one search query into candidate URLs.
type Searcher interface {
	Search(ctx context.Context, query string, depthTarget float64) ([]string, error)
}

// Discovery fans search queries out to the search API, fetches new URLs,
// extracts them, and returns cached plus newly extracted content. Search
// fan-out and page-fetch fan-out are bounded independently: queries are few
// and fast, fetches are many and slow, and a single shared bound would
// starve one side.
type Discovery struct {
	search       Searcher
	extractor    *Extractor
	contents     *db.ContentStore
	httpc        *http.Client
	searchLimit  int
	fetchLimit   int
	fetchTimeout time.Duration
	retryBase    time.Duration
}

// DiscoveryConfig bounds discovery's concurrency and timeouts.
type DiscoveryConfig struct {
	SearchLimit     int           // Concurrent search queries (default 3)
	FetchLimit      int           // Concurrent page fetches (default 10)
	FetchTimeout    time.Duration // Per-page timeout (default 5s)
	SearchRetryBase time.Duration // Initial search retry backoff (default 4s)
}

// NewDiscovery creates a discovery component.
func NewDiscovery(search Searcher, extractor *Extractor, contents *db.ContentStore, cfg DiscoveryConfig) *Discovery {
	if cfg.SearchLimit <= 0 {
		cfg.SearchLimit = 3
	}
	if cfg.FetchLimit <= 0 {
		cfg.FetchLimit = 10
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 5 * time.Second
	}
	if cfg.SearchRetryBase <= 0 {
		cfg.SearchRetryBase = 4 * time.Second
	}
	return &Discovery{
		search:       search,
		extractor:    extractor,
		contents:     contents,
		httpc:        &http.Client{Timeout: cfg.FetchTimeout},
		searchLimit:  cfg.SearchLimit,
		fetchLimit:   cfg.FetchLimit,
		fetchTimeout: cfg.FetchTimeout,
		retryBase:    cfg.SearchRetryBase,
	}
}

// ExecuteSearch runs the strategy's queries and returns processed candidates.
// Per-query, per-page, and cache failures all degrade.
func (d *Discovery) ExecuteSearch(ctx context.Context, strat *models.SearchStrategy) ([]models.ProcessedContent, error) {
	urls := d.collectURLs(ctx, strat)
	if len(urls) == 0 {
		return nil, nil
	}

	cached, err := d.contents.GetByURLs(ctx, urls)
	if err != nil {
		log.Warn().Err(err).Msg("content cache read failed, fetching all candidates")
		cached = map[string]models.ProcessedContent{}
	}

	var fresh []string
	for _, u := range urls {
		if _, ok := cached[u]; !ok {
			fresh = append(fresh, u)
		}
	}

	results := make([]models.ProcessedContent, 0, len(urls))
	for _, c := range cached {
		results = append(results, c)
	}
	results = append(results, d.fetchAndExtract(ctx, fresh)...)
	return results, nil
}

// collectURLs fans the queries out under the search bound and returns the
// deduplicated union, minus excluded domains. A failed query contributes
// zero URLs.
func (d *Discovery) collectURLs(ctx context.Context, strat *models.SearchStrategy) []string {
	var (
		mu   sync.Mutex
		seen = make(map[string]bool)
		urls []string
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.searchLimit)
	for _, query := range strat.SearchQueries {
		g.Go(func() error {
			found, err := d.searchWithRetry(gctx, query, strat.TechnicalDepthTarget)
			if err != nil {
				log.Warn().Err(err).Str("query", query).Msg("search query failed, contributing zero urls")
				return nil
			}
			mu.Lock()
			defer mu.Unlock()
			for _, u := range found {
				if seen[u] || excluded(u) {
					continue
				}
				seen[u] = true
				urls = append(urls, u)
			}
			return nil
		})
	}
	_ = g.Wait()
	return urls
}

// searchWithRetry wraps one search call in an explicit backoff policy. This
// transport-level retry is distinct from the pipeline's strategy-attempt
// loop.
func (d *Discovery) searchWithRetry(ctx context.Context, query string, depthTarget float64) ([]string, error) {
	var found []string
	backoff := retry.WithMaxRetries(2, retry.NewExponential(d.retryBase))
	backoff = retry.WithCappedDuration(10*time.Second, backoff)
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		urls, err := d.search.Search(ctx, query, depthTarget)
		if err != nil {
			return retry.RetryableError(err)
		}
		found = urls
		return nil
	})
	return found, err
}

// fetchAndExtract fetches fresh URLs under the fetch bound. A failed fetch
// or extraction drops that one candidate; successes are written back to the
// cache best effort.
func (d *Discovery) fetchAndExtract(ctx context.Context, urls []string) []models.ProcessedContent {
	var (
		mu      sync.Mutex
		results []models.ProcessedContent
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.fetchLimit)
	for _, u := range urls {
		g.Go(func() error {
			body, err := d.fetch(gctx, u)
			if err != nil {
				log.Debug().Err(err).Str("url", u).Msg("page fetch failed, dropping candidate")
				return nil
			}
			extracted, err := d.extractor.Extract(gctx, u, body)
			if err != nil {
				log.Debug().Err(err).Str("url", u).Msg("extraction failed, dropping candidate")
				return nil
			}
			if err := d.contents.Put(gctx, extracted); err != nil {
				log.Warn().Err(err).Str("url", u).Msg("content cache write failed")
			}
			mu.Lock()
			results = append(results, *extracted)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (d *Discovery) fetch(ctx context.Context, url string) ([]byte, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, d.fetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(fetchCtx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := d.httpc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: status %d", url, resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
}

func excluded(url string) bool {
	lowered := strings.ToLower(url)
	for _, domain := range excludedDomains {
		if strings.Contains(lowered, domain) {
			return true
		}
	}
	return false
}
