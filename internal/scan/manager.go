package scan

import (
	"context"
	"fmt"
	"log"

	"golang.org/x/sync/errgroup"

	"github.com/jonathan/asset-scout/internal/types"
)

// DefaultConcurrency is the number of locations scanned at once.
const DefaultConcurrency = 2

// Manager runs scans through a shared registry so that each location has at
// most one active scan and every scan can be cancelled.
type Manager struct {
	scanner     *Scanner
	registry    *Registry
	concurrency int
}

// NewManager creates a manager. concurrency < 1 uses DefaultConcurrency.
func NewManager(scanner *Scanner, registry *Registry, concurrency int) *Manager {
	if registry == nil {
		registry = NewRegistry()
	}
	if concurrency < 1 {
		concurrency = DefaultConcurrency
	}
	return &Manager{scanner: scanner, registry: registry, concurrency: concurrency}
}

// Registry returns the registry of active scans.
func (m *Manager) Registry() *Registry {
	return m.registry
}

// Scan runs one location to completion.
func (m *Manager) Scan(ctx context.Context, location types.Location) (*Summary, error) {
	token, err := m.registry.Register(location.ID)
	if err != nil {
		return nil, fmt.Errorf("location %s: %w", location.ID, err)
	}
	defer m.registry.Remove(location.ID)
	return m.scanner.Run(ctx, location, token)
}

// Start registers a scan and runs it in the background. The scan outlives
// ctx's cancellation; stop it through the registry.
func (m *Manager) Start(ctx context.Context, location types.Location) error {
	token, err := m.registry.Register(location.ID)
	if err != nil {
		return fmt.Errorf("location %s: %w", location.ID, err)
	}

	bg := context.WithoutCancel(ctx)
	go func() {
		defer m.registry.Remove(location.ID)
		summary, err := m.scanner.Run(bg, location, token)
		if err != nil {
			log.Printf("[scan] %s failed: %v", location.ID, err)
			return
		}
		log.Printf("[scan] %s finished: %d processed, %d added, %d matched, %d failed",
			location.ID, summary.Processed, summary.Added, summary.Matched, len(summary.Failures))
	}()
	return nil
}

// ScanAll scans locations concurrently, at most the configured number at a
// time. Summaries are returned in input order; a location that fails to scan
// leaves a nil entry and its error is returned after all scans finish.
func (m *Manager) ScanAll(ctx context.Context, locations []types.Location) ([]*Summary, error) {
	summaries := make([]*Summary, len(locations))

	var g errgroup.Group
	g.SetLimit(m.concurrency)
	for i, location := range locations {
		g.Go(func() error {
			summary, err := m.Scan(ctx, location)
			if err != nil {
				return err
			}
			summaries[i] = summary
			return nil
		})
	}
	return summaries, g.Wait()
}
