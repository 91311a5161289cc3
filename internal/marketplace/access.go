package marketplace

import (
	"context"
	"errors"
	"log"
	"strings"
)

// contentMarkers identify a genuine marketplace page.
var contentMarkers = []string{
	"orbital-market.com",
	"Orbital Market",
	"Epic Games",
	"Unreal Engine",
	"marketplace",
	"asset",
}

// CheckPublicAccess fetches the marketplace home page once and reports whether
// it looks like real marketplace content.
func CheckPublicAccess(ctx context.Context, f Fetcher, endpoints Endpoints) (bool, error) {
	body, err := f.Fetch(ctx, endpoints.BaseURL(), 1)
	if err != nil {
		log.Printf("[marketplace] public access check failed: %v", err)
		return false, err
	}
	valid := LooksLikeMarketplace(body)
	log.Printf("[marketplace] public access check: valid content = %t", valid)
	return valid, nil
}

// LooksLikeMarketplace reports whether body carries a marketplace content
// marker or is long enough to be a real page.
func LooksLikeMarketplace(body string) bool {
	for _, marker := range contentMarkers {
		if strings.Contains(body, marker) {
			return true
		}
	}
	return len(body) > 1000
}

// ErrAuthNotSupported is returned by the stub authenticator.
var ErrAuthNotSupported = errors.New("marketplace authentication is not supported")

// Authenticator signs in to the marketplace.
type Authenticator interface {
	Authenticate(ctx context.Context, username, password string) error
	Authenticated() bool
}

// StubAuthenticator never authenticates; all lookups use public endpoints.
type StubAuthenticator struct{}

// Authenticate always fails with ErrAuthNotSupported.
func (StubAuthenticator) Authenticate(context.Context, string, string) error {
	return ErrAuthNotSupported
}

// Authenticated always reports false.
func (StubAuthenticator) Authenticated() bool { return false }
