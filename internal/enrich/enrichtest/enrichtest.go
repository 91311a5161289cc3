// Package enrichtest provides in-memory doubles for the enrich collaborators.
package enrichtest

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/asset-scout/internal/resolve"
	"github.com/jonathan/asset-scout/internal/types"
)

// MemoryStore is an enrich.Store backed by a map.
type MemoryStore struct {
	mu     sync.Mutex
	assets map[uuid.UUID]*types.Asset

	// FailUpdates makes every update return this error when set.
	FailUpdates error
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{assets: make(map[uuid.UUID]*types.Asset)}
}

func clone(a *types.Asset) *types.Asset {
	c := *a
	if a.Listing != nil {
		l := *a.Listing
		c.Listing = &l
	}
	return &c
}

// GetAsset implements enrich.Store.
func (s *MemoryStore) GetAsset(_ context.Context, id uuid.UUID) (*types.Asset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.assets[id]
	if !ok {
		return nil, nil
	}
	return clone(a), nil
}

// GetAssetByPath implements enrich.Store.
func (s *MemoryStore) GetAssetByPath(_ context.Context, folderPath string) (*types.Asset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.assets {
		if a.FolderPath == folderPath {
			return clone(a), nil
		}
	}
	return nil, nil
}

// InsertAsset implements enrich.Store.
func (s *MemoryStore) InsertAsset(_ context.Context, asset *types.Asset) (uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := clone(asset)
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	c.CreatedAt = time.Now()
	c.UpdatedAt = c.CreatedAt
	s.assets[c.ID] = c
	return c.ID, nil
}

// ListAssetsByLocation implements enrich.Store.
func (s *MemoryStore) ListAssetsByLocation(_ context.Context, locationID string) ([]types.Asset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []types.Asset
	for _, a := range s.assets {
		if a.LocationID == locationID {
			out = append(out, *clone(a))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *MemoryStore) update(id uuid.UUID, fn func(a *types.Asset)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailUpdates != nil {
		return s.FailUpdates
	}
	a, ok := s.assets[id]
	if !ok {
		return fmt.Errorf("asset %s not found", id)
	}
	fn(a)
	a.UpdatedAt = time.Now()
	return nil
}

// UpdateListingDetails implements enrich.Store.
func (s *MemoryStore) UpdateListingDetails(_ context.Context, id uuid.UUID, listing *types.Listing) error {
	return s.update(id, func(a *types.Asset) {
		l := *listing
		a.Listing = &l
	})
}

// UpdateMatchMetadata implements enrich.Store.
func (s *MemoryStore) UpdateMatchMetadata(_ context.Context, id uuid.UUID, slug *string, confidence *float64, matchType *types.MatchType) error {
	return s.update(id, func(a *types.Asset) {
		a.MatchedSlug = slug
		a.MatchConfidence = confidence
		a.MatchType = matchType
	})
}

// UpdateNotes implements enrich.Store.
func (s *MemoryStore) UpdateNotes(_ context.Context, id uuid.UUID, notes string) error {
	return s.update(id, func(a *types.Asset) { a.Notes = notes })
}

// SetManualOverrides implements enrich.Store.
func (s *MemoryStore) SetManualOverrides(_ context.Context, id uuid.UUID, overrides json.RawMessage) error {
	return s.update(id, func(a *types.Asset) { a.ManualOverrides = overrides })
}

// Len returns the number of stored assets.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.assets)
}

// StubResolver answers from fixed maps.
type StubResolver struct {
	mu sync.Mutex
	// ByName maps an asset name to its candidates.
	ByName map[string][]types.Listing
	// BySlug maps a slug to its listing.
	BySlug map[string]*types.Listing
	// Err is returned by Resolve when set.
	Err error

	Calls []string
}

// Resolve implements enrich.Resolver.
func (r *StubResolver) Resolve(ctx context.Context, name string) ([]types.Listing, error) {
	r.mu.Lock()
	r.Calls = append(r.Calls, name)
	r.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if r.Err != nil {
		return nil, r.Err
	}
	return append([]types.Listing{}, r.ByName[name]...), nil
}

// ResolveSlug implements enrich.Resolver.
func (r *StubResolver) ResolveSlug(_ context.Context, slug string) (*types.Listing, error) {
	r.mu.Lock()
	r.Calls = append(r.Calls, "slug:"+slug)
	r.mu.Unlock()
	listing, ok := r.BySlug[slug]
	if !ok {
		return nil, fmt.Errorf("slug %s: %w", slug, resolve.ErrNotFound)
	}
	l := *listing
	return &l, nil
}

// CallCount returns how many lookups were made.
func (r *StubResolver) CallCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.Calls)
}
