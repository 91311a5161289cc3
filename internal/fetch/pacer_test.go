package fetch

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBaseDelay_Schedule(t *testing.T) {
	expected := []int{1000, 1500, 2000, 2500, 2500, 3000, 3000, 3500, 3500, 4000}
	for n, ms := range expected {
		assert.Equal(t, time.Duration(ms)*time.Millisecond, BaseDelay(uint64(n)), "n=%d", n)
		assert.Equal(t, time.Duration(ms)*time.Millisecond, BaseDelay(uint64(n+10)), "n=%d", n+10)
	}
}

func TestDelayFor_Jitter(t *testing.T) {
	tests := []struct {
		name     string
		n        uint64
		r        float64
		expected time.Duration
	}{
		{"no jitter at midpoint", 2, 0.5, 2000 * time.Millisecond},
		{"upper bound", 9, 1.0, 4800 * time.Millisecond},
		{"lower bound", 9, 0.0, 3200 * time.Millisecond},
		{"floored at 800ms", 0, 0.0, 800 * time.Millisecond},
		{"just above floor", 1, 0.0, 1200 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DelayFor(tt.n, tt.r))
		})
	}
}

func TestDelayFor_AlwaysWithinBounds(t *testing.T) {
	for n := uint64(0); n < 10; n++ {
		base := BaseDelay(n)
		for _, r := range []float64{0, 0.1, 0.33, 0.5, 0.77, 0.999} {
			d := DelayFor(n, r)
			assert.GreaterOrEqual(t, d, minDelay)
			assert.LessOrEqual(t, d, base+base/5)
		}
	}
}

func TestPacer_NextAdvancesCounter(t *testing.T) {
	p := NewPacer(func() float64 { return 0.5 })

	first := p.Next()
	second := p.Next()

	assert.Equal(t, 1000*time.Millisecond, first.Delay)
	assert.Equal(t, 1500*time.Millisecond, second.Delay)
	assert.Equal(t, userAgents[1], first.UserAgent)
	assert.Equal(t, userAgents[2], second.UserAgent)
	assert.Equal(t, uint64(2), p.Count())
}

func TestPacer_ConcurrentUse(t *testing.T) {
	p := NewPacer(func() float64 { return 0.5 })
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.Next()
		}()
	}
	wg.Wait()
	assert.Equal(t, uint64(50), p.Count())
}

func TestUserAgents_Pool(t *testing.T) {
	pool := UserAgents()
	assert.Len(t, pool, 5)

	var chrome, firefox, safari int
	for _, ua := range pool {
		switch {
		case strings.Contains(ua, "Chrome"):
			chrome++
		case strings.Contains(ua, "Firefox"):
			firefox++
		default:
			safari++
		}
	}
	assert.Equal(t, 2, chrome)
	assert.Equal(t, 2, firefox)
	assert.Equal(t, 1, safari)
	assert.Equal(t, pool[0], UserAgentFor(5))
}
