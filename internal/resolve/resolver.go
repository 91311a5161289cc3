package resolve

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/jonathan/asset-scout/internal/marketplace"
	"github.com/jonathan/asset-scout/internal/parsing"
	"github.com/jonathan/asset-scout/internal/slugs"
	"github.com/jonathan/asset-scout/internal/types"
)

// ErrNotFound is returned by ResolveSlug when no source knows the slug.
var ErrNotFound = errors.New("listing not found")

// Options configures a Resolver.
type Options struct {
	Fetcher   marketplace.Fetcher
	Endpoints marketplace.Endpoints
	Selectors parsing.Selectors
	// Cache is optional; nil disables caching.
	Cache Cache
	// MaxAttempts bounds retries for search and direct slug lookups.
	// Zero uses 3.
	MaxAttempts int
}

// Resolver runs the API, page and search strategies in order.
type Resolver struct {
	src        *source
	strategies []Strategy
}

// New builds a resolver with the default strategy order.
func New(opts Options) *Resolver {
	cache := opts.Cache
	if cache == nil {
		cache = NopCache{}
	}
	retries := opts.MaxAttempts
	if retries < 1 {
		retries = defaultMaxAttempts
	}
	src := &source{
		fetcher:   opts.Fetcher,
		endpoints: opts.Endpoints,
		selectors: opts.Selectors,
		cache:     cache,
		retries:   retries,
	}
	return &Resolver{
		src: src,
		strategies: []Strategy{
			APIStrategy{src: src},
			PageStrategy{src: src},
			SearchStrategy{src: src},
		},
	}
}

// Strategies returns the strategy names in the order they run.
func (r *Resolver) Strategies() []string {
	names := make([]string, len(r.strategies))
	for i, s := range r.strategies {
		names[i] = s.Name()
	}
	return names
}

// Resolve returns candidates for name from the first strategy that finds any.
// Exhausting every strategy yields an empty list and no error; an error is
// returned only when ctx is cancelled.
func (r *Resolver) Resolve(ctx context.Context, name string) ([]types.Listing, error) {
	for _, strategy := range r.strategies {
		outcome := strategy.Attempt(ctx, name)
		switch outcome.Status {
		case StatusFound:
			log.Printf("[resolve] %q resolved by %s strategy (%d candidates)", name, strategy.Name(), len(outcome.Listings))
			return outcome.Listings, nil
		case StatusFailed:
			return nil, fmt.Errorf("%s strategy for %q: %w", strategy.Name(), name, outcome.Err)
		}
	}
	log.Printf("[resolve] no candidates for %q", name)
	return []types.Listing{}, nil
}

// ResolveSlug looks up a single listing by slug or listing URL, trying the
// product API with retries, then the product page, then the first search result.
func (r *Resolver) ResolveSlug(ctx context.Context, slugOrURL string) (*types.Listing, error) {
	slug := strings.TrimSpace(slugOrURL)
	if strings.Contains(slug, "://") {
		slug = parsing.SlugFromURL(slug)
	}
	if slug == "" {
		return nil, fmt.Errorf("empty slug: %w", ErrNotFound)
	}

	listing, err := r.src.product(ctx, slug, r.src.retries)
	if err == nil {
		return listing, nil
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	log.Printf("[resolve] api lookup for %s failed, trying page: %v", slug, err)

	listing, err = r.src.page(ctx, slug)
	if err == nil && listing != nil {
		return listing, nil
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	results, err := r.src.search(ctx, slugs.SearchQuery(slug))
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("search for %s: %w", slug, err)
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("slug %s: %w", slug, ErrNotFound)
	}
	return &results[0], nil
}
