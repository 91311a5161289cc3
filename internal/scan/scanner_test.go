package scan

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/asset-scout/internal/enrich"
	"github.com/jonathan/asset-scout/internal/enrich/enrichtest"
	"github.com/jonathan/asset-scout/internal/marketplace"
	"github.com/jonathan/asset-scout/internal/types"
)

// recordingSink keeps every published event.
type recordingSink struct {
	mu     sync.Mutex
	events []types.ScanProgress
}

func (r *recordingSink) Publish(e types.ScanProgress) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recordingSink) statuses() []types.ScanStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]types.ScanStatus, len(r.events))
	for i, e := range r.events {
		out[i] = e.Status
	}
	return out
}

func (r *recordingSink) last() types.ScanProgress {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.events[len(r.events)-1]
}

// fakeEnricher records calls and can fail or cancel on demand.
type fakeEnricher struct {
	mu       sync.Mutex
	names    []string
	failFor  string
	onEnrich func(name string)
}

func (f *fakeEnricher) EnrichAsset(_ context.Context, asset *types.Asset) (types.MatchOutcome, error) {
	f.mu.Lock()
	f.names = append(f.names, asset.Name)
	f.mu.Unlock()
	if f.onEnrich != nil {
		f.onEnrich(asset.Name)
	}
	if asset.Name == f.failFor {
		return types.MatchOutcome{}, errors.New("marketplace exploded")
	}
	listing := &types.Listing{Title: asset.Name}
	return types.NewMatchOutcome(asset.ID, listing, 0.9, nil), nil
}

func (f *fakeEnricher) calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.names...)
}

type fakeRuns struct {
	created  int
	statuses []string
}

func (f *fakeRuns) CreateScanRun(context.Context, string) (uuid.UUID, error) {
	f.created++
	return uuid.New(), nil
}

func (f *fakeRuns) CompleteScanRun(_ context.Context, _ uuid.UUID, status string, _, _, _ int) error {
	f.statuses = append(f.statuses, status)
	return nil
}

func makeLocation(t *testing.T, folders ...string) types.Location {
	t.Helper()
	root := t.TempDir()
	for _, name := range folders {
		dir := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(dir, 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "content.uasset"), []byte("0123456789"), 0o644))
	}
	require.NoError(t, os.WriteFile(filepath.Join(root, "stray-file.txt"), []byte("x"), 0o644))
	return types.Location{ID: "loc", Path: root}
}

func TestScanner_NewFolders(t *testing.T) {
	location := makeLocation(t, "Alpha Pack", "Beta Pack", "Gamma Pack")
	store := enrichtest.NewMemoryStore()
	enricher := &fakeEnricher{}
	sink := &recordingSink{}
	runs := &fakeRuns{}

	summary, err := NewScanner(store, enricher, sink, runs).Run(context.Background(), location, NewToken())
	require.NoError(t, err)

	assert.Equal(t, 3, summary.Total)
	assert.Equal(t, 3, summary.Processed)
	assert.Equal(t, 3, summary.Added)
	assert.Equal(t, 3, summary.Matched)
	assert.NoError(t, summary.Err())
	assert.Equal(t, []string{"Alpha Pack", "Beta Pack", "Gamma Pack"}, enricher.calls())
	assert.Equal(t, 3, store.Len())

	assert.Equal(t, []types.ScanStatus{
		types.ScanInitializing, types.ScanScanning, types.ScanScanning, types.ScanScanning, types.ScanCompleted,
	}, sink.statuses())
	final := sink.last()
	assert.True(t, final.CompletedSuccessfully)
	assert.Equal(t, 3, final.ProcessedItems)
	assert.Equal(t, 3, final.TotalItems)

	asset, err := store.GetAssetByPath(context.Background(), filepath.Join(location.Path, "Alpha Pack"))
	require.NoError(t, err)
	require.NotNil(t, asset)
	assert.Equal(t, int64(10), asset.SizeBytes)
	assert.Len(t, asset.ContentHash, 64)
	assert.Equal(t, DefaultCategory, asset.Category)

	assert.Equal(t, 1, runs.created)
	assert.Equal(t, []string{"completed"}, runs.statuses)
}

func TestScanner_ExistingAssets(t *testing.T) {
	location := makeLocation(t, "Complete", "Missing Description")
	store := enrichtest.NewMemoryStore()
	ctx := context.Background()

	for name, listing := range map[string]*types.Listing{
		"Complete":            {Title: "Complete", Description: "All there"},
		"Missing Description": {Title: "Missing Description"},
	} {
		id, err := store.InsertAsset(ctx, &types.Asset{LocationID: "loc", Name: name, FolderPath: filepath.Join(location.Path, name)})
		require.NoError(t, err)
		require.NoError(t, store.UpdateListingDetails(ctx, id, listing))
	}

	enricher := &fakeEnricher{}
	summary, err := NewScanner(store, enricher, nil, nil).Run(ctx, location, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, 1, summary.Refreshed)
	assert.Equal(t, 0, summary.Added)
	assert.Equal(t, []string{"Missing Description"}, enricher.calls())
}

func TestScanner_FolderFailureDoesNotAbort(t *testing.T) {
	location := makeLocation(t, "Alpha", "Broken", "Gamma")
	enricher := &fakeEnricher{failFor: "Broken"}
	sink := &recordingSink{}

	summary, err := NewScanner(enrichtest.NewMemoryStore(), enricher, sink, nil).Run(context.Background(), location, NewToken())
	require.NoError(t, err)

	assert.Equal(t, 3, summary.Processed)
	require.Len(t, summary.Failures, 1)
	assert.Equal(t, filepath.Join(location.Path, "Broken"), summary.Failures[0].Path)
	assert.ErrorContains(t, summary.Err(), "marketplace exploded")

	final := sink.last()
	assert.Equal(t, types.ScanCompleted, final.Status)
	assert.True(t, final.CompletedSuccessfully)
	assert.Equal(t, "1 folders failed", final.Error)
}

func TestScanner_Cancellation(t *testing.T) {
	location := makeLocation(t, "Alpha", "Beta", "Gamma")
	token := NewToken()
	enricher := &fakeEnricher{onEnrich: func(string) { token.Cancel() }}
	sink := &recordingSink{}
	runs := &fakeRuns{}

	summary, err := NewScanner(enrichtest.NewMemoryStore(), enricher, sink, runs).Run(context.Background(), location, token)
	require.NoError(t, err)

	assert.True(t, summary.Cancelled)
	assert.Equal(t, 1, summary.Processed)
	assert.Equal(t, []string{"Alpha"}, enricher.calls(), "no new work starts after cancellation")

	final := sink.last()
	assert.Equal(t, types.ScanCancelled, final.Status)
	assert.False(t, final.CompletedSuccessfully)
	assert.Equal(t, []string{"cancelled"}, runs.statuses)
}

func TestScanner_MissingRoot(t *testing.T) {
	sink := &recordingSink{}
	location := types.Location{ID: "loc", Path: filepath.Join(t.TempDir(), "missing")}

	_, err := NewScanner(enrichtest.NewMemoryStore(), &fakeEnricher{}, sink, nil).Run(context.Background(), location, nil)
	require.Error(t, err)

	final := sink.last()
	assert.Equal(t, types.ScanError, final.Status)
	assert.NotEmpty(t, final.Error)
}

func TestScanner_WithEnricher(t *testing.T) {
	root := t.TempDir()
	folder := filepath.Join(root, "Mage Animation Set (4 18)")
	require.NoError(t, os.MkdirAll(folder, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(folder, "meta.json"), []byte(`{"category": "Animations"}`), 0o644))

	store := enrichtest.NewMemoryStore()
	resolver := &enrichtest.StubResolver{ByName: map[string][]types.Listing{
		"Mage Animation Set (4 18)": {{Slug: "mage-animation-set", Title: "Mage Animation Set", Categories: []string{"Animations"}}},
	}}
	endpoints, err := marketplace.NewEndpoints(marketplace.DefaultBaseURL)
	require.NoError(t, err)

	scanner := NewScanner(store, enrich.New(store, resolver, endpoints), nil, nil)
	summary, err := scanner.Run(context.Background(), types.Location{ID: "loc", Path: root}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Matched)

	asset, _ := store.GetAssetByPath(context.Background(), folder)
	require.NotNil(t, asset)
	assert.Equal(t, "animation", asset.Category)
	assert.Equal(t, types.MatchExact, *asset.MatchType)
}

func TestManager_ScanAll(t *testing.T) {
	first := makeLocation(t, "A1", "A2")
	first.ID = "first"
	second := makeLocation(t, "B1")
	second.ID = "second"
	missing := types.Location{ID: "missing", Path: filepath.Join(t.TempDir(), "nope")}

	manager := NewManager(NewScanner(enrichtest.NewMemoryStore(), &fakeEnricher{}, nil, nil), nil, 2)
	summaries, err := manager.ScanAll(context.Background(), []types.Location{first, second, missing})
	require.Error(t, err)

	require.Len(t, summaries, 3)
	assert.Equal(t, 2, summaries[0].Added)
	assert.Equal(t, 1, summaries[1].Added)
	assert.Nil(t, summaries[2])
	assert.Empty(t, manager.Registry().Active())
}

func TestManager_RejectsConcurrentScanOfSameLocation(t *testing.T) {
	location := makeLocation(t, "Only")
	registry := NewRegistry()
	_, err := registry.Register(location.ID)
	require.NoError(t, err)

	manager := NewManager(NewScanner(enrichtest.NewMemoryStore(), &fakeEnricher{}, nil, nil), registry, 1)
	_, err = manager.Scan(context.Background(), location)
	assert.ErrorIs(t, err, ErrAlreadyActive)
	assert.ErrorIs(t, manager.Start(context.Background(), location), ErrAlreadyActive)
}

func TestManager_StartRunsInBackground(t *testing.T) {
	location := makeLocation(t, "Only")
	done := make(chan types.ScanProgress, 8)
	sink := SinkFunc(func(e types.ScanProgress) {
		if e.Terminal() {
			done <- e
		}
	})

	manager := NewManager(NewScanner(enrichtest.NewMemoryStore(), &fakeEnricher{}, sink, nil), nil, 1)
	require.NoError(t, manager.Start(context.Background(), location))

	final := <-done
	assert.Equal(t, types.ScanCompleted, final.Status)
}
