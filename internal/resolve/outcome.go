// Package resolve finds marketplace candidates for a local asset name by
// trying an ordered list of lookup strategies.
package resolve

import "github.com/jonathan/asset-scout/internal/types"

// Status tags a strategy outcome.
type Status int

const (
	// StatusNotFound means the strategy had nothing; the next one should run.
	StatusNotFound Status = iota
	// StatusFound means the strategy produced candidates.
	StatusFound
	// StatusFailed means resolution must stop.
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusFound:
		return "found"
	case StatusFailed:
		return "failed"
	default:
		return "not found"
	}
}

// Outcome is the tagged result of one strategy.
type Outcome struct {
	Status   Status
	Listings []types.Listing
	Err      error
}

// Found wraps candidates. An empty list is reported as NotFound.
func Found(listings ...types.Listing) Outcome {
	if len(listings) == 0 {
		return NotFound()
	}
	return Outcome{Status: StatusFound, Listings: listings}
}

// NotFound tells the resolver to try the next strategy.
func NotFound() Outcome {
	return Outcome{Status: StatusNotFound}
}

// Failed stops resolution with err.
func Failed(err error) Outcome {
	return Outcome{Status: StatusFailed, Err: err}
}
