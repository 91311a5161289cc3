package server

import (
	"log"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/jonathan/asset-scout/internal/types"
)

// progressPollInterval is how often a progress stream checks that its scan is still active.
var progressPollInterval = time.Second

// ScanStatusResponse reports whether a location is being scanned.
type ScanStatusResponse struct {
	LocationID string              `json:"location_id"`
	Active     bool                `json:"active"`
	Last       *types.ScanProgress `json:"last,omitempty"`
}

// lookupLocation resolves the {id} path value to a configured location.
func (s *Server) lookupLocation(w http.ResponseWriter, r *http.Request) (types.Location, bool) {
	id := r.PathValue("id")
	loc, ok := s.locations[id]
	if !ok {
		s.serviceError(w, &ErrUnknownLocation{LocationID: id})
		return types.Location{}, false
	}
	return loc, true
}

// handleListLocations lists the configured locations
func (s *Server) handleListLocations(w http.ResponseWriter, _ *http.Request) {
	locations := make([]types.Location, 0, len(s.locations))
	for _, loc := range s.locations {
		locations = append(locations, loc)
	}
	sort.Slice(locations, func(i, j int) bool { return locations[i].ID < locations[j].ID })
	s.jsonResponse(w, http.StatusOK, map[string]any{"locations": locations})
}

// handleStartScan starts a background scan of a location
func (s *Server) handleStartScan(w http.ResponseWriter, r *http.Request) {
	loc, ok := s.lookupLocation(w, r)
	if !ok {
		return
	}

	if err := s.svc.Scans.Start(r.Context(), loc); err != nil {
		s.serviceError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusAccepted, map[string]string{
		"location_id": loc.ID,
		"status":      "started",
	})
}

// handleCancelScan cancels the active scan of a location
func (s *Server) handleCancelScan(w http.ResponseWriter, r *http.Request) {
	loc, ok := s.lookupLocation(w, r)
	if !ok {
		return
	}
	if !s.svc.Scans.Registry().Cancel(loc.ID) {
		s.errorResponse(w, http.StatusNotFound, "No active scan for location "+loc.ID)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"location_id": loc.ID, "cancelled": true})
}

// handleCancelAllScans cancels every active scan
func (s *Server) handleCancelAllScans(w http.ResponseWriter, _ *http.Request) {
	n := s.svc.Scans.Registry().CancelAll()
	s.jsonResponse(w, http.StatusOK, map[string]int{"cancelled": n})
}

// handleScanStatus reports whether a scan is active and its last event
func (s *Server) handleScanStatus(w http.ResponseWriter, r *http.Request) {
	loc, ok := s.lookupLocation(w, r)
	if !ok {
		return
	}
	resp := ScanStatusResponse{
		LocationID: loc.ID,
		Active:     s.svc.Scans.Registry().IsActive(loc.ID),
	}
	if last, ok := s.svc.Progress.Last(loc.ID); ok {
		resp.Last = &last
	}
	s.jsonResponse(w, http.StatusOK, resp)
}

// handleScanProgress streams progress events for a location until its scan
// reaches a terminal status or the client disconnects.
func (s *Server) handleScanProgress(w http.ResponseWriter, r *http.Request) {
	loc, ok := s.lookupLocation(w, r)
	if !ok {
		return
	}

	events, unsubscribe := s.svc.Progress.Subscribe(loc.ID)
	defer unsubscribe()

	sse, err := NewSSEWriter(w)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	registry := s.svc.Scans.Registry()
	last, hasLast := s.svc.Progress.Last(loc.ID)
	if !registry.IsActive(loc.ID) {
		if hasLast {
			sse.WriteProgress(last) //nolint:errcheck
		} else {
			sse.WriteError("no scan has run for location " + loc.ID)
		}
		return
	}
	if hasLast && !last.Terminal() {
		if err := sse.WriteProgress(last); err != nil {
			return
		}
	}

	// The registry is polled so a stream whose terminal event was published
	// before it subscribed still ends.
	ticker := time.NewTicker(progressPollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			if !registry.IsActive(loc.ID) {
				if last, ok := s.svc.Progress.Last(loc.ID); ok {
					sse.WriteProgress(last) //nolint:errcheck
				}
				return
			}
		case event, open := <-events:
			if !open {
				return
			}
			if err := sse.WriteProgress(event); err != nil {
				log.Printf("[server] progress stream for %s closed: %v", loc.ID, err)
				return
			}
			if event.Terminal() {
				return
			}
		}
	}
}

// handleListScanRuns lists recorded scan runs for a location
func (s *Server) handleListScanRuns(w http.ResponseWriter, r *http.Request) {
	loc, ok := s.lookupLocation(w, r)
	if !ok {
		return
	}
	if s.svc.History == nil {
		s.errorResponse(w, http.StatusNotImplemented, "Scan history is not recorded")
		return
	}

	limit := parseQueryInt(r, "limit", 20, 100)
	runs, err := s.svc.History.ListScanRuns(r.Context(), loc.ID, limit)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"runs": runs, "count": len(runs)})
}

// parseQueryInt parses an integer query parameter, clamping it to ceiling when ceiling > 0.
func parseQueryInt(r *http.Request, key string, def, ceiling int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil || v < 0 {
		return def
	}
	if ceiling > 0 && v > ceiling {
		return ceiling
	}
	return v
}
