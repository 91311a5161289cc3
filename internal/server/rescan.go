package server

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/robfig/cron/v3"

	"github.com/jonathan/asset-scout/internal/scan"
)

// startRescans schedules a rescan of every location when a schedule is set.
func (s *Server) startRescans() error {
	if s.schedule == "" || len(s.locations) == 0 {
		return nil
	}

	c := cron.New()
	if _, err := c.AddFunc(s.schedule, func() {
		n := s.rescanAll(context.Background())
		log.Printf("[server] scheduled rescan started %d of %d locations", n, len(s.locations))
	}); err != nil {
		return fmt.Errorf("invalid rescan schedule %q: %w", s.schedule, err)
	}
	c.Start()
	s.cron = c
	log.Printf("[server] rescanning %d locations on schedule %q", len(s.locations), s.schedule)
	return nil
}

// rescanAll starts a background scan of every configured location and returns
// how many were started. Locations that are already being scanned are skipped.
func (s *Server) rescanAll(ctx context.Context) int {
	started := 0
	for _, loc := range s.locations {
		err := s.svc.Scans.Start(ctx, loc)
		switch {
		case err == nil:
			started++
		case errors.Is(err, scan.ErrAlreadyActive):
			log.Printf("[server] scheduled rescan of %s skipped: scan already active", loc.ID)
		default:
			log.Printf("[server] scheduled rescan of %s failed: %v", loc.ID, err)
		}
	}
	return started
}
