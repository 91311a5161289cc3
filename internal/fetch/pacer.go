package fetch

import (
	"math/rand/v2"
	"sync/atomic"
	"time"
)

// minDelay is the floor applied after jitter.
const minDelay = 800 * time.Millisecond

// userAgents is the rotation pool: two Chromium, two Firefox, one Safari.
var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:132.0) Gecko/20100101 Firefox/132.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10.15; rv:132.0) Gecko/20100101 Firefox/132.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.1 Safari/605.1.15",
}

// Pace is the delay and identity for one request attempt.
type Pace struct {
	Delay     time.Duration
	UserAgent string
}

// Pacer hands out request pacing from a single monotonically increasing counter.
// It is safe for concurrent use as long as the random source is.
type Pacer struct {
	counter atomic.Uint64
	random  func() float64
}

// NewPacer creates a pacer. random must return values in [0, 1); nil uses math/rand.
func NewPacer(random func() float64) *Pacer {
	if random == nil {
		random = rand.Float64
	}
	return &Pacer{random: random}
}

// Next advances the counter and returns the pace for the next attempt.
func (p *Pacer) Next() Pace {
	n := p.counter.Add(1) - 1
	return Pace{
		Delay:     DelayFor(n, p.random()),
		UserAgent: UserAgentFor(n + 1),
	}
}

// Count returns how many paces have been handed out.
func (p *Pacer) Count() uint64 {
	return p.counter.Load()
}

// BaseDelay returns the un-jittered delay for request number n.
func BaseDelay(n uint64) time.Duration {
	var ms int
	switch n % 10 {
	case 0:
		ms = 1000
	case 1:
		ms = 1500
	case 2:
		ms = 2000
	case 3, 4:
		ms = 2500
	case 5, 6:
		ms = 3000
	case 7, 8:
		ms = 3500
	default:
		ms = 4000
	}
	return time.Duration(ms) * time.Millisecond
}

// DelayFor applies ±20% jitter to BaseDelay(n) using r in [0, 1), floored at 800ms.
func DelayFor(n uint64, r float64) time.Duration {
	base := float64(BaseDelay(n) / time.Millisecond)
	jittered := base + (r-0.5)*0.4*base
	if jittered < float64(minDelay/time.Millisecond) {
		return minDelay
	}
	return time.Duration(jittered) * time.Millisecond
}

// UserAgentFor returns the user agent for counter value n.
func UserAgentFor(n uint64) string {
	return userAgents[n%uint64(len(userAgents))]
}

// UserAgents returns a copy of the rotation pool.
func UserAgents() []string {
	return append([]string(nil), userAgents...)
}
