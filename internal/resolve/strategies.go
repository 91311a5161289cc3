package resolve

import (
	"context"
	"log"

	"github.com/jonathan/asset-scout/internal/marketplace"
	"github.com/jonathan/asset-scout/internal/parsing"
	"github.com/jonathan/asset-scout/internal/slugs"
	"github.com/jonathan/asset-scout/internal/types"
)

// Attempt budgets per request kind. Search and direct slug lookups use the
// configurable retry budget, which defaults to defaultMaxAttempts.
const (
	apiAttempts        = 1
	pageAttempts       = 2
	defaultMaxAttempts = 3
)

// Strategy is one way of turning an asset name into candidates.
type Strategy interface {
	Name() string
	Attempt(ctx context.Context, name string) Outcome
}

// source bundles what every strategy needs to talk to the marketplace.
type source struct {
	fetcher   marketplace.Fetcher
	endpoints marketplace.Endpoints
	selectors parsing.Selectors
	cache     Cache
	retries   int
}

// product fetches and parses one slug from the product API.
func (s *source) product(ctx context.Context, slug string, attempts int) (*types.Listing, error) {
	if listing, ok := s.cache.Get(ctx, slug); ok {
		log.Printf("[resolve] cache hit for %s", slug)
		return listing, nil
	}

	body, err := s.fetcher.Fetch(ctx, s.endpoints.ProductAPI(slug), attempts)
	if err != nil {
		return nil, err
	}
	listing, err := parsing.ParseProductJSON(body, s.endpoints.BaseURL())
	if err != nil {
		return nil, err
	}
	if listing.Slug == "" {
		listing.Slug = slug
	}
	s.cache.Set(ctx, slug, listing)
	return listing, nil
}

// page fetches the rendered product page for slug. It returns nil when the
// page carries no listing content.
func (s *source) page(ctx context.Context, slug string) (*types.Listing, error) {
	pageURL := s.endpoints.ProductPage(slug)
	body, err := s.fetcher.Fetch(ctx, pageURL, pageAttempts)
	if err != nil {
		return nil, err
	}
	listing := parsing.ParseProductHTML(body, s.selectors)
	if !listing.HasContent() {
		return nil, nil
	}
	listing.Slug = slug
	listing.SourceURL = pageURL
	return listing, nil
}

// search runs a full-text search and returns every parsed result.
func (s *source) search(ctx context.Context, query string) ([]types.Listing, error) {
	body, err := s.fetcher.Fetch(ctx, s.endpoints.Search(query), s.retries)
	if err != nil {
		return nil, err
	}
	return parsing.ParseSearchResults(body, s.selectors, s.endpoints.BaseURL()), nil
}

// APIStrategy tries each generated slug against the product API.
type APIStrategy struct {
	src *source
}

// Name implements Strategy.
func (APIStrategy) Name() string { return "api" }

// Attempt returns the first slug that parses as a product.
func (a APIStrategy) Attempt(ctx context.Context, name string) Outcome {
	for _, slug := range slugs.Generate(name) {
		if err := ctx.Err(); err != nil {
			return Failed(err)
		}
		listing, err := a.src.product(ctx, slug, apiAttempts)
		if err != nil {
			if ctx.Err() != nil {
				return Failed(ctx.Err())
			}
			log.Printf("[resolve] api lookup for %s failed: %v", slug, err)
			continue
		}
		log.Printf("[resolve] api found %s for %q", slug, name)
		return Found(*listing)
	}
	return NotFound()
}

// PageStrategy scrapes the rendered page of the primary slug.
type PageStrategy struct {
	src *source
}

// Name implements Strategy.
func (PageStrategy) Name() string { return "page" }

// Attempt parses the product page of the first generated slug.
func (p PageStrategy) Attempt(ctx context.Context, name string) Outcome {
	variations := slugs.Generate(name)
	if len(variations) == 0 {
		return NotFound()
	}
	listing, err := p.src.page(ctx, variations[0])
	if err != nil {
		if ctx.Err() != nil {
			return Failed(ctx.Err())
		}
		log.Printf("[resolve] page lookup for %s failed: %v", variations[0], err)
		return NotFound()
	}
	if listing == nil {
		return NotFound()
	}
	return Found(*listing)
}

// SearchStrategy falls back to the marketplace search page.
type SearchStrategy struct {
	src *source
}

// Name implements Strategy.
func (SearchStrategy) Name() string { return "search" }

// Attempt searches for the loosely cleaned name.
func (s SearchStrategy) Attempt(ctx context.Context, name string) Outcome {
	query := slugs.SearchQuery(name)
	if query == "" {
		return NotFound()
	}
	results, err := s.src.search(ctx, query)
	if err != nil {
		if ctx.Err() != nil {
			return Failed(ctx.Err())
		}
		log.Printf("[resolve] search for %q failed: %v", query, err)
		return NotFound()
	}
	log.Printf("[resolve] search for %q returned %d results", query, len(results))
	return Found(results...)
}
