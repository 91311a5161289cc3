package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/gofrs/flock"
	"github.com/jonathan/asset-scout/internal/observability"
	"github.com/jonathan/asset-scout/internal/slugs"
	"github.com/jonathan/asset-scout/internal/types"
	"github.com/spf13/cobra"
)

var (
	scanAll bool
)

var scanCmd = &cobra.Command{
	Use:   "scan [location-id...]",
	Short: "Scan configured locations and match new assets",
	Long: `Walk each location's asset folders, register new assets and match them against the marketplace.
A lock file per location keeps two processes from scanning the same location.`,
	RunE: runScan,
}

func init() {
	scanCmd.Flags().BoolVar(&scanAll, "all", false, "Scan every configured location")
	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) error {
	if scanAll == (len(args) > 0) {
		return errors.New("pass location ids or --all, not both")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	locations, err := selectLocations(cfg.Locations, args, scanAll)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, true)
	if err != nil {
		return err
	}
	defer a.close()

	manager := a.newScanManager()
	printer := observability.NewPrinter(cmd.OutOrStdout())

	var failed int
	for _, loc := range locations {
		lock, err := lockLocation(loc.ID)
		if err != nil {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Skipping %s: %v\n", loc.ID, err)
			failed++
			continue
		}

		summary, err := manager.Scan(ctx, loc)
		if unlockErr := lock.Unlock(); unlockErr != nil {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Warning: failed to release lock for %s: %v\n", loc.ID, unlockErr)
		}
		if err != nil {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Scan of %s failed: %v\n", loc.ID, err)
			failed++
			continue
		}
		printer.PrintSummary(summary)
		if summary.Err() != nil {
			failed++
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d locations did not scan cleanly", failed, len(locations))
	}
	return nil
}

// selectLocations picks the configured locations named by ids, or all of them.
func selectLocations(configured []types.Location, ids []string, all bool) ([]types.Location, error) {
	if all {
		if len(configured) == 0 {
			return nil, errors.New("no locations configured")
		}
		return configured, nil
	}
	byID := make(map[string]types.Location, len(configured))
	for _, loc := range configured {
		byID[loc.ID] = loc
	}
	selected := make([]types.Location, 0, len(ids))
	for _, id := range ids {
		loc, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("unknown location %q", id)
		}
		selected = append(selected, loc)
	}
	return selected, nil
}

func lockPath(locationID string) string {
	return filepath.Join(os.TempDir(), "asset-scout-"+slugs.Slugify(locationID)+".lock")
}

// lockLocation takes the per-location file lock without blocking.
func lockLocation(locationID string) (*flock.Flock, error) {
	lock := flock.New(lockPath(locationID))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire scan lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("another scan of %s is running", locationID)
	}
	return lock, nil
}
