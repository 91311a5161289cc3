package enrich

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/asset-scout/internal/enrich/enrichtest"
	"github.com/jonathan/asset-scout/internal/marketplace"
	"github.com/jonathan/asset-scout/internal/types"
)

const mageName = "Mage Animation Set (4 18)"

func mageListing() types.Listing {
	return types.Listing{
		Slug:       "mage-animation-set",
		Title:      "Mage Animation Set",
		Categories: []string{"Animations"},
	}
}

func setup(t *testing.T) (*Enricher, *enrichtest.MemoryStore, *enrichtest.StubResolver, *types.Asset) {
	t.Helper()
	store := enrichtest.NewMemoryStore()
	resolver := &enrichtest.StubResolver{
		ByName: map[string][]types.Listing{},
		BySlug: map[string]*types.Listing{},
	}
	endpoints, err := marketplace.NewEndpoints(marketplace.DefaultBaseURL)
	require.NoError(t, err)

	asset := &types.Asset{LocationID: "loc", Name: mageName, FolderPath: "/assets/" + mageName, Category: "animation"}
	id, err := store.InsertAsset(context.Background(), asset)
	require.NoError(t, err)
	asset.ID = id

	return New(store, resolver, endpoints), store, resolver, asset
}

func TestEnrichAsset_Match(t *testing.T) {
	e, store, resolver, asset := setup(t)
	resolver.ByName[mageName] = []types.Listing{
		{Slug: "rocks", Title: "Desert Rocks"},
		mageListing(),
	}

	outcome, err := e.EnrichAsset(context.Background(), asset)
	require.NoError(t, err)
	assert.Equal(t, types.MatchExact, outcome.Type)

	stored, err := store.GetAsset(context.Background(), asset.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.Listing)
	assert.Equal(t, "Mage Animation Set", stored.Listing.Title)
	require.NotNil(t, stored.MatchedSlug)
	assert.Equal(t, "mage-animation-set", *stored.MatchedSlug)
	require.NotNil(t, stored.MatchType)
	assert.Equal(t, types.MatchExact, *stored.MatchType)
	assert.InDelta(t, 0.958, *stored.MatchConfidence, 0.001)
	assert.Contains(t, stored.Notes, "Overall confidence: 95.8%")
	assert.Contains(t, stored.Notes, "Name match: ")
	assert.Len(t, outcome.Reasons, 3, "notes do not leak into the outcome")
}

func TestEnrichAsset_NoCandidates(t *testing.T) {
	e, store, _, asset := setup(t)

	outcome, err := e.EnrichAsset(context.Background(), asset)
	require.NoError(t, err)
	assert.Equal(t, types.MatchNone, outcome.Type)

	stored, _ := store.GetAsset(context.Background(), asset.ID)
	assert.Nil(t, stored.Listing)
	assert.Nil(t, stored.MatchedSlug)
	assert.Equal(t, types.MatchNone, *stored.MatchType)
	assert.Equal(t, "No matching assets found on marketplace", stored.Notes)
}

func TestEnrichAsset_WeakCandidateNotStored(t *testing.T) {
	e, store, resolver, asset := setup(t)
	resolver.ByName[mageName] = []types.Listing{{Slug: "zzz", Title: "Zzz"}}

	outcome, err := e.EnrichAsset(context.Background(), asset)
	require.NoError(t, err)
	assert.Equal(t, types.MatchNone, outcome.Type)

	stored, _ := store.GetAsset(context.Background(), asset.ID)
	assert.Nil(t, stored.Listing)
	assert.Nil(t, stored.MatchedSlug)
}

func TestEnrichAsset_ResolutionError(t *testing.T) {
	e, store, resolver, asset := setup(t)
	resolver.Err = errors.New("boom")

	outcome, err := e.EnrichAsset(context.Background(), asset)
	require.NoError(t, err)
	assert.Equal(t, []string{"Search failed: boom"}, outcome.Reasons)

	stored, _ := store.GetAsset(context.Background(), asset.ID)
	assert.Equal(t, "Search failed: boom", stored.Notes)
}

func TestEnrichAsset_Cancelled(t *testing.T) {
	e, _, _, asset := setup(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.EnrichAsset(ctx, asset)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEnrichAsset_PersistenceError(t *testing.T) {
	e, store, resolver, asset := setup(t)
	resolver.ByName[mageName] = []types.Listing{mageListing()}
	store.FailUpdates = errors.New("disk full")

	_, err := e.EnrichAsset(context.Background(), asset)
	assert.EqualError(t, err, "disk full")
}

func TestManualMatch(t *testing.T) {
	e, store, resolver, asset := setup(t)
	listing := types.Listing{Title: "Something Else Entirely"}
	resolver.BySlug["other-pack"] = &listing

	outcome, err := e.ManualMatch(context.Background(), asset.ID, "https://orbital-market.com/en-US/product/other-pack")
	require.NoError(t, err)
	assert.Equal(t, 1.0, outcome.Confidence)
	assert.Equal(t, types.MatchManual, outcome.Type)

	stored, _ := store.GetAsset(context.Background(), asset.ID)
	assert.Equal(t, "other-pack", *stored.MatchedSlug)
	assert.Equal(t, types.MatchManual, *stored.MatchType)
	assert.Equal(t, 1.0, *stored.MatchConfidence)
	assert.Equal(t, "other-pack", stored.Listing.Slug)
}

func TestManualMatch_InputErrors(t *testing.T) {
	e, _, _, asset := setup(t)

	tests := []struct {
		name string
		id   uuid.UUID
		url  string
	}{
		{"foreign host", asset.ID, "https://example.com/product/x"},
		{"sub domain", asset.ID, "https://www.orbital-market.com/product/x"},
		{"unknown asset", uuid.New(), "https://orbital-market.com/product/x"},
		{"unknown listing", asset.ID, "https://orbital-market.com/product/missing"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.ManualMatch(context.Background(), tt.id, tt.url)
			require.Error(t, err)
			assert.True(t, IsInputError(err), "got %v", err)
		})
	}
}

func TestRefresh_Matched(t *testing.T) {
	e, store, resolver, asset := setup(t)
	slug := "mage-animation-set"
	require.NoError(t, store.UpdateMatchMetadata(context.Background(), asset.ID, &slug, nil, nil))
	fresh := mageListing()
	fresh.Description = "Now with 40 animations"
	resolver.BySlug[slug] = &fresh

	updated, err := e.Refresh(context.Background(), asset.ID)
	require.NoError(t, err)
	require.NotNil(t, updated.Listing)
	assert.Equal(t, "Now with 40 animations", updated.Listing.Description)
	assert.Equal(t, []string{"slug:" + slug}, resolver.Calls)
}

func TestRefresh_UnmatchedRunsEnrichment(t *testing.T) {
	e, _, resolver, asset := setup(t)
	resolver.ByName[mageName] = []types.Listing{mageListing()}

	updated, err := e.Refresh(context.Background(), asset.ID)
	require.NoError(t, err)
	assert.Equal(t, types.MatchExact, *updated.MatchType)
	assert.Equal(t, []string{mageName}, resolver.Calls)
}

func TestReprocess(t *testing.T) {
	e, store, resolver, asset := setup(t)
	raw := `{"_id":"p1","slug":"mage-animation-set","title":"Mage Animation Set","category":"Animations","price":{"value":1999},"review":{"count":4,"rating":45}}`
	require.NoError(t, store.UpdateListingDetails(context.Background(), asset.ID, &types.Listing{Title: "old", RawJSON: raw}))

	updated, err := e.Reprocess(context.Background(), asset.ID)
	require.NoError(t, err)
	assert.Equal(t, "Mage Animation Set", updated.Listing.Title)
	assert.InDelta(t, 19.99, *updated.Listing.Price, 1e-9)
	assert.InDelta(t, 4.5, *updated.Listing.RatingAverage, 1e-9)
	assert.Zero(t, resolver.CallCount(), "reprocess never touches the network")
}

func TestReprocess_NoRawData(t *testing.T) {
	e, _, _, asset := setup(t)
	_, err := e.Reprocess(context.Background(), asset.ID)
	assert.True(t, IsInputError(err))
}

func TestSetOverrides(t *testing.T) {
	e, store, _, asset := setup(t)
	ctx := context.Background()

	err := e.SetOverrides(ctx, asset.ID, json.RawMessage(`{"rating": 5}`))
	assert.True(t, IsInputError(err))

	require.NoError(t, e.SetOverrides(ctx, asset.ID, json.RawMessage(` {"title": "My Mage"} `)))
	stored, _ := store.GetAsset(ctx, asset.ID)
	assert.JSONEq(t, `{"title": "My Mage"}`, string(stored.ManualOverrides))

	require.NoError(t, e.SetOverrides(ctx, asset.ID, json.RawMessage(`null`)))
	stored, _ = store.GetAsset(ctx, asset.ID)
	assert.Nil(t, stored.ManualOverrides)

	assert.True(t, IsInputError(e.SetOverrides(ctx, uuid.New(), json.RawMessage(`{}`))))
}

func TestInputError(t *testing.T) {
	cause := errors.New("bad host")
	err := &InputError{Message: "invalid marketplace URL", Cause: cause}
	assert.Equal(t, "invalid marketplace URL: bad host", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "plain", (&InputError{Message: "plain"}).Error())
	assert.False(t, IsInputError(cause))
}
