package main

import (
	"context"
	"fmt"

	"github.com/jonathan/asset-scout/internal/scan"
	"github.com/jonathan/asset-scout/internal/server"
	"github.com/jonathan/asset-scout/internal/server/ratelimit"
	"github.com/spf13/cobra"
)

var (
	servePort int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  `Start an HTTP server that exposes scans, scan progress, asset matching and marketplace lookups.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (overrides server.port)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if servePort != 0 {
		cfg.Server.Port = servePort
	}

	ctx := context.Background()
	a, err := newApp(ctx, cfg, true)
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.db.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	progress := scan.NewBroadcaster()
	srv, err := server.New(server.Config{
		Port:           cfg.Server.Port,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		RescanSchedule: cfg.Scan.RescanSchedule,
		Locations:      cfg.Locations,
		RateLimit:      ratelimit.FromSettings(cfg.RateLimit),
	}, server.Services{
		Assets:    a.db,
		Enricher:  a.enricher,
		Resolver:  a.resolver,
		Scans:     a.newScanManager(progress),
		Progress:  progress,
		History:   a.db,
		Fetcher:   a.fetcher,
		Endpoints: a.endpoints,
		Auth:      a.auth,
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	return srv.Start()
}
