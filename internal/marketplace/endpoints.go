// Package marketplace describes the marketplace's HTTP surface: where the
// product API, product pages and search live, and which URLs are accepted as
// listing references.
package marketplace

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/jonathan/asset-scout/internal/parsing"
)

// DefaultBaseURL is the public marketplace.
const DefaultBaseURL = "https://orbital-market.com"

// Fetcher retrieves a URL body with a bounded number of attempts.
type Fetcher interface {
	Fetch(ctx context.Context, url string, maxAttempts int) (string, error)
}

// InvalidURLError reports a listing URL that cannot be used.
type InvalidURLError struct {
	URL     string
	Message string
}

func (e *InvalidURLError) Error() string {
	return fmt.Sprintf("invalid listing URL %q: %s", e.URL, e.Message)
}

// Endpoints builds marketplace URLs from a base URL.
type Endpoints struct {
	base string
	host string
}

// NewEndpoints validates baseURL and returns its endpoints.
func NewEndpoints(baseURL string) (Endpoints, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return Endpoints{}, fmt.Errorf("invalid marketplace base URL %q", baseURL)
	}
	return Endpoints{
		base: strings.TrimRight(u.String(), "/"),
		host: u.Host,
	}, nil
}

// BaseURL returns the base URL without a trailing slash.
func (e Endpoints) BaseURL() string { return e.base }

// Host returns the marketplace host.
func (e Endpoints) Host() string { return e.host }

// ProductAPI is the JSON product-by-slug endpoint.
func (e Endpoints) ProductAPI(slug string) string {
	return e.base + "/api/products/product/" + url.PathEscape(slug)
}

// ProductPage is the localized rendered product page.
func (e Endpoints) ProductPage(slug string) string {
	return e.base + "/en-US/product/" + url.PathEscape(slug)
}

// CanonicalPage is the unlocalized product page used as a listing's source URL.
func (e Endpoints) CanonicalPage(slug string) string {
	return e.base + "/product/" + url.PathEscape(slug)
}

// Search is the full-text search page for query.
func (e Endpoints) Search(query string) string {
	return e.base + "/search?q=" + url.QueryEscape(query)
}

// ListingSlug validates a user-supplied listing URL and returns its slug.
// The host must be exactly the marketplace host.
func (e Endpoints) ListingSlug(rawURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", &InvalidURLError{URL: rawURL, Message: "not a URL"}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", &InvalidURLError{URL: rawURL, Message: "scheme must be http or https"}
	}
	if !strings.EqualFold(u.Host, e.host) {
		return "", &InvalidURLError{URL: rawURL, Message: fmt.Sprintf("host must be %s", e.host)}
	}
	slug := parsing.SlugFromURL(u.String())
	if slug == "" {
		return "", &InvalidURLError{URL: rawURL, Message: "no product identifier in path"}
	}
	return slug, nil
}
