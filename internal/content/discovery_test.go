package content

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"

	"github.com/mindline-ai/mindline/internal/db"
	"github.com/mindline-ai/mindline/pkg/models"
)

// fakeSearcher maps queries to fixed URL lists. Unknown queries fail.
type fakeSearcher struct {
	mu      sync.Mutex
	results map[string][]string
	calls   []string
}

func (s *fakeSearcher) Search(ctx context.Context, query string, depthTarget float64) ([]string, error) {
	s.mu.Lock()
	s.calls = append(s.calls, query)
	s.mu.Unlock()
	urls, ok := s.results[query]
	if !ok {
		return nil, errors.New("search backend unavailable")
	}
	return urls, nil
}

func testContentStore(t *testing.T) *db.ContentStore {
	t.Helper()
	store, err := db.NewStore(db.Config{
		Driver:   db.DriverSQLite,
		Path:     filepath.Join(t.TempDir(), "content.db"),
		LogLevel: logger.Silent,
	})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return db.NewContentStore(store)
}

func testStrategy(queries ...string) *models.SearchStrategy {
	return &models.SearchStrategy{
		SearchQueries:        queries,
		TechnicalDepthTarget: 0.5,
	}
}

func TestDiscoveryFetchesAndCaches(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html><head><title>Buyback Mechanics</title></head><body><p>How repurchases change share counts.</p></body></html>"))
	}))
	defer srv.Close()

	model := &scriptedModel{responses: []string{
		`{"title": "Buyback Mechanics", "source": "example.com", "analysis": {"summary": "share count effects", "key_topics": ["buybacks"]}}`,
	}}
	contents := testContentStore(t)
	search := &fakeSearcher{results: map[string][]string{
		"buyback mechanics": {srv.URL + "/a"},
	}}
	d := NewDiscovery(search, NewExtractor(model), contents, DiscoveryConfig{})

	got, err := d.ExecuteSearch(context.Background(), testStrategy("buyback mechanics"))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, models.ContentID(srv.URL+"/a"), got[0].ContentID)
	assert.Equal(t, "Buyback Mechanics", got[0].Title)

	// The extraction was written back, so a second run serves from the
	// store without another model call.
	got, err = d.ExecuteSearch(context.Background(), testStrategy("buyback mechanics"))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 1, model.calls)
}

func TestDiscoveryExcludesVideoDomains(t *testing.T) {
	search := &fakeSearcher{results: map[string][]string{
		"q": {"https://www.youtube.com/watch?v=abc", "https://youtu.be/abc"},
	}}
	d := NewDiscovery(search, NewExtractor(&scriptedModel{}), testContentStore(t), DiscoveryConfig{})

	got, err := d.ExecuteSearch(context.Background(), testStrategy("q"))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestDiscoveryFailedQueryContributesNothing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html><head><title>T</title></head><body><p>body text</p></body></html>"))
	}))
	defer srv.Close()

	model := &scriptedModel{responses: []string{
		`{"title": "T", "source": "example.com", "analysis": {"summary": "s"}}`,
	}}
	search := &fakeSearcher{results: map[string][]string{
		"good": {srv.URL + "/x"},
		// "bad" is absent, so it errors through its retries.
	}}
	d := NewDiscovery(search, NewExtractor(model), testContentStore(t), DiscoveryConfig{
		SearchRetryBase: time.Millisecond,
	})

	got, err := d.ExecuteSearch(context.Background(), testStrategy("good", "bad"))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, models.ContentID(srv.URL+"/x"), got[0].ContentID)
	// The failed query was retried before giving up.
	assert.GreaterOrEqual(t, len(search.calls), 4)
}

func TestDiscoveryDegradesOnCacheReadFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html><head><title>T</title></head><body><p>body text</p></body></html>"))
	}))
	defer srv.Close()

	store, err := db.NewStore(db.Config{
		Driver:   db.DriverSQLite,
		Path:     filepath.Join(t.TempDir(), "content.db"),
		LogLevel: logger.Silent,
	})
	require.NoError(t, err)
	contents := db.NewContentStore(store)
	// A broken cache must degrade to fetching everything, not fail the
	// search.
	require.NoError(t, store.Close())

	model := &scriptedModel{responses: []string{
		`{"title": "T", "source": "example.com", "analysis": {"summary": "s"}}`,
	}}
	search := &fakeSearcher{results: map[string][]string{
		"q": {srv.URL + "/a"},
	}}
	d := NewDiscovery(search, NewExtractor(model), contents, DiscoveryConfig{})

	got, err := d.ExecuteSearch(context.Background(), testStrategy("q"))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, models.ContentID(srv.URL+"/a"), got[0].ContentID)
}

func TestDiscoveryDropsFailedFetches(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	search := &fakeSearcher{results: map[string][]string{
		"q": {srv.URL + "/missing"},
	}}
	d := NewDiscovery(search, NewExtractor(&scriptedModel{}), testContentStore(t), DiscoveryConfig{})

	got, err := d.ExecuteSearch(context.Background(), testStrategy("q"))
	require.NoError(t, err)
	assert.Empty(t, got)
}
