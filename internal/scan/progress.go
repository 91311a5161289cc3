package scan

import (
	"log"
	"sync"

	"github.com/jonathan/asset-scout/internal/types"
)

// ProgressSink receives scan progress events.
type ProgressSink interface {
	Publish(event types.ScanProgress)
}

// SinkFunc adapts a function to ProgressSink.
type SinkFunc func(types.ScanProgress)

// Publish implements ProgressSink.
func (f SinkFunc) Publish(event types.ScanProgress) { f(event) }

// LogSink writes progress events to the standard logger.
type LogSink struct{}

// Publish implements ProgressSink.
func (LogSink) Publish(e types.ScanProgress) {
	if e.Error != "" {
		log.Printf("[scan] %s %s: %d/%d error: %s", e.LocationID, e.Status, e.ProcessedItems, e.TotalItems, e.Error)
		return
	}
	log.Printf("[scan] %s %s: %d/%d %s", e.LocationID, e.Status, e.ProcessedItems, e.TotalItems, e.CurrentPath)
}

// MultiSink publishes to every sink in order.
type MultiSink []ProgressSink

// Publish implements ProgressSink.
func (m MultiSink) Publish(event types.ScanProgress) {
	for _, sink := range m {
		sink.Publish(event)
	}
}

// subscriberBuffer bounds each subscriber's backlog; slower readers miss
// intermediate events but always see the latest one through Last.
const subscriberBuffer = 64

// Broadcaster fans progress events out to per-location subscribers.
type Broadcaster struct {
	mu     sync.Mutex
	nextID int
	subs   map[string]map[int]chan types.ScanProgress
	last   map[string]types.ScanProgress
}

// NewBroadcaster returns a broadcaster with no subscribers.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		subs: make(map[string]map[int]chan types.ScanProgress),
		last: make(map[string]types.ScanProgress),
	}
}

// Publish implements ProgressSink. It never blocks on a slow subscriber.
func (b *Broadcaster) Publish(event types.ScanProgress) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.last[event.LocationID] = event
	for _, ch := range b.subs[event.LocationID] {
		select {
		case ch <- event:
		default:
		}
	}
}

// Subscribe returns a channel of events for locationID and a function that
// unsubscribes and closes the channel.
func (b *Broadcaster) Subscribe(locationID string) (<-chan types.ScanProgress, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan types.ScanProgress, subscriberBuffer)
	id := b.nextID
	b.nextID++
	if b.subs[locationID] == nil {
		b.subs[locationID] = make(map[int]chan types.ScanProgress)
	}
	b.subs[locationID][id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.subs[locationID], id)
			if len(b.subs[locationID]) == 0 {
				delete(b.subs, locationID)
			}
			close(ch)
		})
	}
}

// Last returns the most recent event published for locationID.
func (b *Broadcaster) Last(locationID string) (types.ScanProgress, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	event, ok := b.last[locationID]
	return event, ok
}
