// Package enrich attaches marketplace listings to stored assets: it resolves
// candidates, scores them and persists the outcome.
package enrich

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"

	"github.com/jonathan/asset-scout/internal/marketplace"
	"github.com/jonathan/asset-scout/internal/parsing"
	"github.com/jonathan/asset-scout/internal/ranking"
	"github.com/jonathan/asset-scout/internal/resolve"
	"github.com/jonathan/asset-scout/internal/schemas"
	"github.com/jonathan/asset-scout/internal/types"
)

// Store is the persistence the enricher and scanner need.
type Store interface {
	GetAsset(ctx context.Context, id uuid.UUID) (*types.Asset, error)
	GetAssetByPath(ctx context.Context, folderPath string) (*types.Asset, error)
	InsertAsset(ctx context.Context, asset *types.Asset) (uuid.UUID, error)
	ListAssetsByLocation(ctx context.Context, locationID string) ([]types.Asset, error)
	UpdateListingDetails(ctx context.Context, id uuid.UUID, listing *types.Listing) error
	UpdateMatchMetadata(ctx context.Context, id uuid.UUID, slug *string, confidence *float64, matchType *types.MatchType) error
	UpdateNotes(ctx context.Context, id uuid.UUID, notes string) error
	SetManualOverrides(ctx context.Context, id uuid.UUID, overrides json.RawMessage) error
}

// Resolver finds marketplace listings.
type Resolver interface {
	Resolve(ctx context.Context, name string) ([]types.Listing, error)
	ResolveSlug(ctx context.Context, slugOrURL string) (*types.Listing, error)
}

// Enricher matches assets against the marketplace.
type Enricher struct {
	store     Store
	resolver  Resolver
	engine    *ranking.Engine
	endpoints marketplace.Endpoints
}

// New creates an Enricher.
func New(store Store, resolver Resolver, endpoints marketplace.Endpoints) *Enricher {
	return &Enricher{
		store:     store,
		resolver:  resolver,
		engine:    ranking.NewEngine(),
		endpoints: endpoints,
	}
}

// Store returns the underlying store.
func (e *Enricher) Store() Store {
	return e.store
}

// EnrichAsset resolves candidates for asset, keeps the best one and persists
// the outcome. Resolution failures are recorded as a NoMatch outcome; only
// cancellation and persistence failures are returned as errors.
func (e *Enricher) EnrichAsset(ctx context.Context, asset *types.Asset) (types.MatchOutcome, error) {
	listings, err := e.resolver.Resolve(ctx, asset.Name)
	if err != nil && ctx.Err() != nil {
		return types.MatchOutcome{}, ctx.Err()
	}

	var outcome types.MatchOutcome
	if err != nil {
		log.Printf("[enrich] resolution failed for %q: %v", asset.Name, err)
		outcome = e.engine.Failed(asset.ID, err)
	} else {
		outcome = e.engine.Best(asset, listings)
	}

	notes := append([]string(nil), outcome.Reasons...)
	if best, ok := ranking.SelectBestByName(asset.Name, listings); ok {
		notes = append(notes, fmt.Sprintf("Name match: %s (%.1f%%) with %q", best.Strength, best.Score*100, best.Listing.Title))
	}

	if err := e.persist(ctx, outcome, notes); err != nil {
		return outcome, err
	}
	log.Printf("[enrich] %q -> %s (%.3f)", asset.Name, outcome.Type, outcome.Confidence)
	return outcome, nil
}

// ManualMatch attaches the listing at rawURL to an asset with full confidence.
func (e *Enricher) ManualMatch(ctx context.Context, assetID uuid.UUID, rawURL string) (types.MatchOutcome, error) {
	slug, err := e.endpoints.ListingSlug(rawURL)
	if err != nil {
		return types.MatchOutcome{}, &InputError{Message: "invalid marketplace URL", Cause: err}
	}

	asset, err := e.requireAsset(ctx, assetID)
	if err != nil {
		return types.MatchOutcome{}, err
	}

	listing, err := e.resolver.ResolveSlug(ctx, slug)
	if err != nil {
		if errors.Is(err, resolve.ErrNotFound) {
			return types.MatchOutcome{}, &InputError{Message: fmt.Sprintf("no listing found for %s", slug), Cause: err}
		}
		return types.MatchOutcome{}, fmt.Errorf("failed to fetch listing %s: %w", slug, err)
	}
	if listing.Slug == "" {
		listing.Slug = slug
	}

	outcome := ranking.ManualOutcome(asset.ID, listing)
	if err := e.persist(ctx, outcome, outcome.Reasons); err != nil {
		return outcome, err
	}
	log.Printf("[enrich] %q manually matched to %s", asset.Name, slug)
	return outcome, nil
}

// Refresh re-fetches the listing of a matched asset, or runs a full
// enrichment when the asset has no match yet.
func (e *Enricher) Refresh(ctx context.Context, assetID uuid.UUID) (*types.Asset, error) {
	asset, err := e.requireAsset(ctx, assetID)
	if err != nil {
		return nil, err
	}

	if asset.MatchedSlug == nil || *asset.MatchedSlug == "" {
		if _, err := e.EnrichAsset(ctx, asset); err != nil {
			return nil, err
		}
		return e.store.GetAsset(ctx, assetID)
	}

	listing, err := e.resolver.ResolveSlug(ctx, *asset.MatchedSlug)
	if err != nil {
		return nil, fmt.Errorf("failed to refresh %s: %w", *asset.MatchedSlug, err)
	}
	if err := e.store.UpdateListingDetails(ctx, asset.ID, listing); err != nil {
		return nil, err
	}
	return e.store.GetAsset(ctx, assetID)
}

// Reprocess re-parses the stored raw API document into listing columns
// without touching the network.
func (e *Enricher) Reprocess(ctx context.Context, assetID uuid.UUID) (*types.Asset, error) {
	asset, err := e.requireAsset(ctx, assetID)
	if err != nil {
		return nil, err
	}
	if asset.Listing == nil || strings.TrimSpace(asset.Listing.RawJSON) == "" {
		return nil, &InputError{Message: fmt.Sprintf("asset %s has no stored marketplace data", assetID)}
	}

	listing, err := parsing.ParseProductJSON(asset.Listing.RawJSON, e.endpoints.BaseURL())
	if err != nil {
		return nil, &InputError{Message: "stored marketplace data cannot be parsed", Cause: err}
	}
	if err := e.store.UpdateListingDetails(ctx, asset.ID, listing); err != nil {
		return nil, err
	}
	return e.store.GetAsset(ctx, assetID)
}

// SetOverrides validates and stores a manual overrides document. An empty or
// null document clears the overrides.
func (e *Enricher) SetOverrides(ctx context.Context, assetID uuid.UUID, doc json.RawMessage) error {
	if _, err := e.requireAsset(ctx, assetID); err != nil {
		return err
	}

	trimmed := bytes.TrimSpace(doc)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return e.store.SetManualOverrides(ctx, assetID, nil)
	}
	if err := schemas.ValidateOverrides(trimmed); err != nil {
		return &InputError{Message: "invalid overrides", Cause: err}
	}
	return e.store.SetManualOverrides(ctx, assetID, json.RawMessage(trimmed))
}

func (e *Enricher) requireAsset(ctx context.Context, assetID uuid.UUID) (*types.Asset, error) {
	asset, err := e.store.GetAsset(ctx, assetID)
	if err != nil {
		return nil, err
	}
	if asset == nil {
		return nil, &InputError{Message: fmt.Sprintf("unknown asset %s", assetID)}
	}
	return asset, nil
}

// persist writes the listing (when matched), the match metadata and the notes.
func (e *Enricher) persist(ctx context.Context, outcome types.MatchOutcome, notes []string) error {
	var slug *string
	if outcome.Matched() {
		if err := e.store.UpdateListingDetails(ctx, outcome.AssetID, outcome.Listing); err != nil {
			return err
		}
		if outcome.Listing.Slug != "" {
			s := outcome.Listing.Slug
			slug = &s
		}
	}

	confidence := outcome.Confidence
	matchType := outcome.Type
	if err := e.store.UpdateMatchMetadata(ctx, outcome.AssetID, slug, &confidence, &matchType); err != nil {
		return err
	}
	return e.store.UpdateNotes(ctx, outcome.AssetID, strings.Join(notes, "\n"))
}
