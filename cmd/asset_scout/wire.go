package main

import (
	"context"
	"fmt"
	"log"

	"github.com/jonathan/asset-scout/internal/config"
	"github.com/jonathan/asset-scout/internal/db"
	"github.com/jonathan/asset-scout/internal/enrich"
	"github.com/jonathan/asset-scout/internal/fetch"
	"github.com/jonathan/asset-scout/internal/marketplace"
	"github.com/jonathan/asset-scout/internal/parsing"
	"github.com/jonathan/asset-scout/internal/resolve"
	"github.com/jonathan/asset-scout/internal/scan"
)

// app holds the components a command needs. Build it with newApp and release
// it with close.
type app struct {
	cfg       *config.Config
	fetcher   *fetch.Client
	endpoints marketplace.Endpoints
	auth      marketplace.Authenticator
	resolver  *resolve.Resolver
	db        *db.DB
	enricher  *enrich.Enricher
	closers   []func()
}

// loadConfig reads the --config file and the environment and validates the result.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newApp wires the marketplace client and resolver. withDB also connects to
// PostgreSQL and builds the enricher on top of it.
func newApp(ctx context.Context, cfg *config.Config, withDB bool) (*app, error) {
	a := &app{cfg: cfg, auth: marketplace.StubAuthenticator{}}

	endpoints, err := marketplace.NewEndpoints(cfg.Marketplace.BaseURL)
	if err != nil {
		return nil, err
	}
	a.endpoints = endpoints

	a.fetcher, err = fetch.NewClient(fetch.Options{
		BaseURL: endpoints.BaseURL(),
		Timeout: cfg.Marketplace.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create marketplace client: %w", err)
	}

	cache, err := a.newCache(ctx)
	if err != nil {
		a.close()
		return nil, err
	}

	a.resolver = resolve.New(resolve.Options{
		Fetcher:     a.fetcher,
		Endpoints:   endpoints,
		Selectors:   parsing.LoadSelectors(cfg.Marketplace.SelectorsFile),
		Cache:       cache,
		MaxAttempts: cfg.Marketplace.FetchAttempts,
	})

	if withDB {
		if cfg.DatabaseURL == "" {
			a.close()
			return nil, fmt.Errorf("database URL is required (set DATABASE_URL or database_url in the config file)")
		}
		a.db, err = db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			a.close()
			return nil, err
		}
		a.closers = append(a.closers, a.db.Close)
		a.enricher = enrich.New(a.db, a.resolver, endpoints)
	}

	return a, nil
}

func (a *app) newCache(ctx context.Context) (resolve.Cache, error) {
	switch a.cfg.Cache.Type {
	case "redis":
		cache, err := resolve.NewRedisCache(ctx, a.cfg.Cache.RedisURL, a.cfg.Cache.TTL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to listing cache: %w", err)
		}
		a.closers = append(a.closers, func() {
			if err := cache.Close(); err != nil {
				log.Printf("[cache] close failed: %v", err)
			}
		})
		return cache, nil
	case "memory":
		return resolve.NewMemoryCache(a.cfg.Cache.TTL), nil
	default:
		return nil, nil
	}
}

// newScanManager builds a scan manager over the database. Progress goes to
// the log and to any extra sinks.
func (a *app) newScanManager(sinks ...scan.ProgressSink) *scan.Manager {
	sink := append(scan.MultiSink{scan.LogSink{}}, sinks...)
	scanner := scan.NewScanner(a.db, a.enricher, sink, a.db)
	return scan.NewManager(scanner, scan.NewRegistry(), a.cfg.Scan.Concurrency)
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
