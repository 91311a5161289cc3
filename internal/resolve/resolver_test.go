package resolve

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/asset-scout/internal/fetch"
	"github.com/jonathan/asset-scout/internal/marketplace"
	"github.com/jonathan/asset-scout/internal/parsing"
	"github.com/jonathan/asset-scout/internal/ranking"
	"github.com/jonathan/asset-scout/internal/types"
)

// fakeMarket serves canned product, page and search responses and counts hits per path.
type fakeMarket struct {
	mu       sync.Mutex
	hits     map[string]int
	products map[string]string
	pages    map[string]string
	search   string
	// searchStatus overrides the search response code when non-zero.
	searchStatus int
}

func newFakeMarket() *fakeMarket {
	return &fakeMarket{
		hits:     make(map[string]int),
		products: make(map[string]string),
		pages:    make(map[string]string),
	}
}

func (m *fakeMarket) count(path string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.hits[path]
}

func (m *fakeMarket) countPrefix(prefix string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := 0
	for path, n := range m.hits {
		if strings.HasPrefix(path, prefix) {
			total += n
		}
	}
	return total
}

func (m *fakeMarket) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	m.hits[r.URL.Path]++
	m.mu.Unlock()

	switch {
	case strings.HasPrefix(r.URL.Path, "/api/products/product/"):
		body, ok := m.products[strings.TrimPrefix(r.URL.Path, "/api/products/product/")]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	case strings.HasPrefix(r.URL.Path, "/en-US/product/"):
		body, ok := m.pages[strings.TrimPrefix(r.URL.Path, "/en-US/product/")]
		if !ok {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(body))
	case r.URL.Path == "/search":
		if m.searchStatus != 0 {
			w.WriteHeader(m.searchStatus)
			return
		}
		_, _ = w.Write([]byte(m.search))
	default:
		http.NotFound(w, r)
	}
}

func productJSON(slug, title, category string) string {
	return fmt.Sprintf(`{"_id":"id-%s","slug":%q,"title":%q,"category":%q,"review":{"count":10,"rating":45}}`, slug, slug, title, category)
}

func newTestResolver(t *testing.T, market *fakeMarket, cache Cache) *Resolver {
	t.Helper()
	srv := httptest.NewServer(market)
	t.Cleanup(srv.Close)

	client, err := fetch.NewClient(fetch.Options{
		BaseURL: srv.URL,
		Pacer:   fetch.NewPacer(func() float64 { return 0.5 }),
		Sleep:   func(context.Context, time.Duration) error { return nil },
	})
	require.NoError(t, err)

	endpoints, err := marketplace.NewEndpoints(srv.URL)
	require.NoError(t, err)

	return New(Options{
		Fetcher:   client,
		Endpoints: endpoints,
		Selectors: parsing.DefaultSelectors(),
		Cache:     cache,
	})
}

func TestResolver_StrategyOrder(t *testing.T) {
	r := newTestResolver(t, newFakeMarket(), nil)
	assert.Equal(t, []string{"api", "page", "search"}, r.Strategies())
}

func TestResolve_APIFirstSlug(t *testing.T) {
	market := newFakeMarket()
	market.products["mage-animation-set"] = productJSON("mage-animation-set", "Mage Animation Set", "Animations")
	r := newTestResolver(t, market, nil)

	listings, err := r.Resolve(context.Background(), "Mage Animation Set")
	require.NoError(t, err)
	require.Len(t, listings, 1)
	assert.Equal(t, "Mage Animation Set", listings[0].Title)
	require.NotNil(t, listings[0].RatingAverage)
	assert.InDelta(t, 4.5, *listings[0].RatingAverage, 1e-9)

	assert.Equal(t, 1, market.countPrefix("/api/"))
	assert.Equal(t, 0, market.countPrefix("/en-US/"))
	assert.Equal(t, 0, market.count("/search"))
}

func TestResolve_APILaterSlug(t *testing.T) {
	market := newFakeMarket()
	market.products["character-pack"] = productJSON("character-pack", "Character Pack", "Characters")
	r := newTestResolver(t, market, nil)

	listings, err := r.Resolve(context.Background(), "Character Pack UE5.3")
	require.NoError(t, err)
	require.Len(t, listings, 1)
	assert.Equal(t, "character-pack", listings[0].Slug)

	// the first slug is tried once, without retries
	assert.Equal(t, 1, market.count("/api/products/product/character-pack-ue53"))
	assert.Equal(t, 1, market.count("/api/products/product/character-pack"))
}

func TestResolve_MalformedAPIResponseTriesNextSlug(t *testing.T) {
	market := newFakeMarket()
	market.products["character-pack-ue53"] = `{"unexpected": true}`
	market.products["character-pack"] = productJSON("character-pack", "Character Pack", "Characters")
	r := newTestResolver(t, market, nil)

	listings, err := r.Resolve(context.Background(), "Character Pack UE5.3")
	require.NoError(t, err)
	require.Len(t, listings, 1)
	assert.Equal(t, "character-pack", listings[0].Slug)
}

func TestResolve_PageFallback(t *testing.T) {
	market := newFakeMarket()
	market.pages["forest-pack"] = `<html><body><h1>Forest Pack</h1><div class="description">Trees</div></body></html>`
	r := newTestResolver(t, market, nil)

	listings, err := r.Resolve(context.Background(), "Forest Pack")
	require.NoError(t, err)
	require.Len(t, listings, 1)
	assert.Equal(t, "Forest Pack", listings[0].Title)
	assert.Equal(t, "forest-pack", listings[0].Slug)
	assert.True(t, strings.HasSuffix(listings[0].SourceURL, "/en-US/product/forest-pack"))
	assert.Equal(t, 0, market.count("/search"))
}

func TestResolve_EmptyPageFallsThroughToSearch(t *testing.T) {
	market := newFakeMarket()
	market.pages["forest-pack"] = `<html><body><p>Loading…</p></body></html>`
	market.search = `<div class="listing-card"><a href="/en-US/product/forest-pack-hd"><h3>Forest Pack HD</h3></a></div>`
	r := newTestResolver(t, market, nil)

	listings, err := r.Resolve(context.Background(), "Forest Pack")
	require.NoError(t, err)
	require.Len(t, listings, 1)
	assert.Equal(t, "forest-pack-hd", listings[0].Slug)
	assert.Equal(t, 1, market.count("/search"))
}

func TestResolve_MageAnimationSetViaSearch(t *testing.T) {
	market := newFakeMarket()
	market.search = `
	<div class="results">
		<div class="listing-card">
			<a href="/en-US/product/mage-animation-set"><h3>Mage Animation Set</h3></a>
			<span class="category">Animations</span>
			<span class="price">$19.99</span>
		</div>
	</div>`
	r := newTestResolver(t, market, nil)

	listings, err := r.Resolve(context.Background(), "Mage Animation Set (4 18)")
	require.NoError(t, err)
	require.Len(t, listings, 1)
	assert.Equal(t, "Mage Animation Set", listings[0].Title)
	assert.Equal(t, "mage-animation-set", listings[0].Slug)

	assert.Positive(t, market.countPrefix("/api/"))
	assert.Equal(t, 1, market.count("/en-US/product/mage-animation-set-4-18"))

	asset := &types.Asset{ID: uuid.New(), Name: "Mage Animation Set (4 18)", Category: "animation"}
	outcome := ranking.NewEngine().Best(asset, listings)
	assert.Contains(t, []types.MatchType{types.MatchExact, types.MatchHighConfidence}, outcome.Type)
	assert.InDelta(t, 0.958, outcome.Confidence, 0.001)
}

func TestResolve_ExhaustedIsEmptyNotError(t *testing.T) {
	market := newFakeMarket()
	market.search = `<html><body>No results</body></html>`
	r := newTestResolver(t, market, nil)

	listings, err := r.Resolve(context.Background(), "Nothing Here")
	require.NoError(t, err)
	assert.NotNil(t, listings)
	assert.Empty(t, listings)
}

func TestResolve_SearchServerErrorIsEmpty(t *testing.T) {
	market := newFakeMarket()
	market.searchStatus = http.StatusInternalServerError
	r := newTestResolver(t, market, nil)

	listings, err := r.Resolve(context.Background(), "Nothing Here")
	require.NoError(t, err)
	assert.Empty(t, listings)
	assert.Equal(t, defaultMaxAttempts, market.count("/search"))
}

func TestResolve_MaxAttempts(t *testing.T) {
	market := newFakeMarket()
	market.searchStatus = http.StatusInternalServerError
	srv := httptest.NewServer(market)
	t.Cleanup(srv.Close)

	client, err := fetch.NewClient(fetch.Options{
		BaseURL: srv.URL,
		Pacer:   fetch.NewPacer(func() float64 { return 0.5 }),
		Sleep:   func(context.Context, time.Duration) error { return nil },
	})
	require.NoError(t, err)
	endpoints, err := marketplace.NewEndpoints(srv.URL)
	require.NoError(t, err)

	r := New(Options{Fetcher: client, Endpoints: endpoints, Selectors: parsing.DefaultSelectors(), MaxAttempts: 5})
	_, err = r.Resolve(context.Background(), "Nothing Here")
	require.NoError(t, err)
	assert.Equal(t, 5, market.count("/search"))
}

func TestResolve_CancelledContext(t *testing.T) {
	r := newTestResolver(t, newFakeMarket(), nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Resolve(ctx, "Mage Animation Set")
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestResolve_UsesCache(t *testing.T) {
	market := newFakeMarket()
	market.products["mage-animation-set"] = productJSON("mage-animation-set", "Mage Animation Set", "Animations")
	r := newTestResolver(t, market, NewMemoryCache(time.Hour))

	for range 2 {
		listings, err := r.Resolve(context.Background(), "Mage Animation Set")
		require.NoError(t, err)
		require.Len(t, listings, 1)
		assert.NotEmpty(t, listings[0].RawJSON)
	}
	assert.Equal(t, 1, market.countPrefix("/api/"))
}

func TestResolveSlug(t *testing.T) {
	t.Run("api", func(t *testing.T) {
		market := newFakeMarket()
		market.products["mage-set"] = productJSON("mage-set", "Mage Set", "Animations")
		r := newTestResolver(t, market, nil)

		listing, err := r.ResolveSlug(context.Background(), "https://orbital-market.com/en-US/product/mage-set")
		require.NoError(t, err)
		assert.Equal(t, "Mage Set", listing.Title)
	})

	t.Run("page", func(t *testing.T) {
		market := newFakeMarket()
		market.pages["mage-set"] = `<h1>Mage Set</h1>`
		r := newTestResolver(t, market, nil)

		listing, err := r.ResolveSlug(context.Background(), "mage-set")
		require.NoError(t, err)
		assert.Equal(t, "Mage Set", listing.Title)
		assert.Equal(t, 1, market.count("/api/products/product/mage-set"), "404s are not retried")
	})

	t.Run("search", func(t *testing.T) {
		market := newFakeMarket()
		market.search = `<div class="listing-card"><a href="/en-US/product/mage-set-v2"><h3>Mage Set</h3></a></div>`
		r := newTestResolver(t, market, nil)

		listing, err := r.ResolveSlug(context.Background(), "mage-set")
		require.NoError(t, err)
		assert.Equal(t, "mage-set-v2", listing.Slug)
	})

	t.Run("not found", func(t *testing.T) {
		r := newTestResolver(t, newFakeMarket(), nil)

		_, err := r.ResolveSlug(context.Background(), "mage-set")
		assert.ErrorIs(t, err, ErrNotFound)

		_, err = r.ResolveSlug(context.Background(), "  ")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestOutcome(t *testing.T) {
	assert.Equal(t, StatusNotFound, Found().Status)
	assert.Equal(t, StatusFound, Found(types.Listing{Title: "x"}).Status)
	assert.Equal(t, "failed", Failed(errors.New("x")).Status.String())
	assert.Equal(t, "not found", NotFound().Status.String())
}
