package marketplace

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEndpoints(t *testing.T) Endpoints {
	t.Helper()
	e, err := NewEndpoints(DefaultBaseURL + "/")
	require.NoError(t, err)
	return e
}

func TestEndpoints_URLs(t *testing.T) {
	e := newEndpoints(t)

	assert.Equal(t, "https://orbital-market.com", e.BaseURL())
	assert.Equal(t, "orbital-market.com", e.Host())
	assert.Equal(t, "https://orbital-market.com/api/products/product/mage-set", e.ProductAPI("mage-set"))
	assert.Equal(t, "https://orbital-market.com/en-US/product/mage-set", e.ProductPage("mage-set"))
	assert.Equal(t, "https://orbital-market.com/product/mage-set", e.CanonicalPage("mage-set"))
	assert.Equal(t, "https://orbital-market.com/search?q=Mage+Animation+Set+%284+18%29", e.Search("Mage Animation Set (4 18)"))
}

func TestNewEndpoints_Invalid(t *testing.T) {
	for _, base := range []string{"", "orbital-market.com", "ftp://orbital-market.com"} {
		_, err := NewEndpoints(base)
		assert.Error(t, err, base)
	}
}

func TestListingSlug(t *testing.T) {
	e := newEndpoints(t)

	tests := []struct {
		name    string
		url     string
		slug    string
		wantErr bool
	}{
		{"product url", "https://orbital-market.com/product/mage-set", "mage-set", false},
		{"localized url", "https://orbital-market.com/en-US/product/mage-set/", "mage-set", false},
		{"upper case host", "https://Orbital-Market.com/product/x", "x", false},
		{"sub domain", "https://www.orbital-market.com/product/mage-set", "", true},
		{"look-alike host", "https://orbital-market.com.evil.io/product/mage-set", "", true},
		{"other host", "https://example.com/product/mage-set", "", true},
		{"no path", "https://orbital-market.com", "", true},
		{"not a url", "mage-set", "", true},
		{"javascript", "javascript:alert(1)", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			slug, err := e.ListingSlug(tt.url)
			if tt.wantErr {
				require.Error(t, err)
				var invalid *InvalidURLError
				assert.ErrorAs(t, err, &invalid)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.slug, slug)
		})
	}
}

type stubFetcher struct {
	body string
	err  error
	urls []string
}

func (s *stubFetcher) Fetch(_ context.Context, url string, _ int) (string, error) {
	s.urls = append(s.urls, url)
	return s.body, s.err
}

func TestCheckPublicAccess(t *testing.T) {
	e := newEndpoints(t)

	f := &stubFetcher{body: "<title>Orbital Market</title>"}
	ok, err := CheckPublicAccess(context.Background(), f, e)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []string{"https://orbital-market.com"}, f.urls)

	ok, err = CheckPublicAccess(context.Background(), &stubFetcher{body: "blocked"}, e)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = CheckPublicAccess(context.Background(), &stubFetcher{err: errors.New("boom")}, e)
	assert.Error(t, err)
}

func TestLooksLikeMarketplace_LongPage(t *testing.T) {
	assert.True(t, LooksLikeMarketplace(strings.Repeat("x", 1001)))
	assert.False(t, LooksLikeMarketplace(strings.Repeat("x", 1000)))
}

func TestStubAuthenticator(t *testing.T) {
	var auth Authenticator = StubAuthenticator{}
	assert.ErrorIs(t, auth.Authenticate(context.Background(), "user", "pass"), ErrAuthNotSupported)
	assert.False(t, auth.Authenticated())
}
