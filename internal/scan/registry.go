// Package scan walks asset locations, registers new asset folders and hands
// them to the enricher, reporting progress as it goes.
package scan

import (
	"errors"
	"sort"
	"sync"
	"sync/atomic"
)

// ErrAlreadyActive is returned when a location already has a running scan.
var ErrAlreadyActive = errors.New("scan already active for location")

// Token is a cooperative cancellation flag polled between units of work.
// It never interrupts a request that is already in flight.
type Token struct {
	cancelled atomic.Bool
}

// NewToken returns an uncancelled token.
func NewToken() *Token {
	return &Token{}
}

// Cancel marks the token cancelled.
func (t *Token) Cancel() {
	t.cancelled.Store(true)
}

// Cancelled reports whether Cancel has been called.
func (t *Token) Cancelled() bool {
	return t.cancelled.Load()
}

// Registry maps location IDs to the cancel token of their active scan.
type Registry struct {
	mu     sync.Mutex
	active map[string]*Token
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{active: make(map[string]*Token)}
}

// Register creates a token for locationID, failing if one is already active.
func (r *Registry) Register(locationID string) (*Token, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.active[locationID]; ok {
		return nil, ErrAlreadyActive
	}
	token := NewToken()
	r.active[locationID] = token
	return token, nil
}

// IsActive reports whether locationID has a registered scan.
func (r *Registry) IsActive(locationID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.active[locationID]
	return ok
}

// Cancel flags the scan of locationID. It returns false if none is active.
func (r *Registry) Cancel(locationID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	token, ok := r.active[locationID]
	if ok {
		token.Cancel()
	}
	return ok
}

// Remove forgets the scan of locationID.
func (r *Registry) Remove(locationID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.active, locationID)
}

// CancelAll flags every active scan and returns how many there were.
func (r *Registry) CancelAll() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, token := range r.active {
		token.Cancel()
	}
	return len(r.active)
}

// Active returns the sorted IDs of locations being scanned.
func (r *Registry) Active() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(r.active))
	for id := range r.active {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
