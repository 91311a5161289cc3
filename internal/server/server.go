// Package server provides the HTTP API for asset scanning and marketplace matching.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/jonathan/asset-scout/internal/db"
	"github.com/jonathan/asset-scout/internal/marketplace"
	"github.com/jonathan/asset-scout/internal/scan"
	"github.com/jonathan/asset-scout/internal/server/ratelimit"
	"github.com/jonathan/asset-scout/internal/types"
)

// AssetStore reads stored assets.
type AssetStore interface {
	GetAsset(ctx context.Context, id uuid.UUID) (*types.Asset, error)
	ListAssetsByLocation(ctx context.Context, locationID string) ([]types.Asset, error)
}

// AssetService changes the marketplace data attached to assets.
type AssetService interface {
	ManualMatch(ctx context.Context, assetID uuid.UUID, rawURL string) (types.MatchOutcome, error)
	Refresh(ctx context.Context, assetID uuid.UUID) (*types.Asset, error)
	Reprocess(ctx context.Context, assetID uuid.UUID) (*types.Asset, error)
	SetOverrides(ctx context.Context, assetID uuid.UUID, doc json.RawMessage) error
}

// Resolver finds marketplace candidates for a name.
type Resolver interface {
	Resolve(ctx context.Context, name string) ([]types.Listing, error)
}

// ScanHistory lists recorded scan runs. It is optional.
type ScanHistory interface {
	ListScanRuns(ctx context.Context, locationID string, limit int) ([]db.ScanRun, error)
}

// Config holds server configuration
type Config struct {
	Port           int
	AllowedOrigins []string
	RescanSchedule string
	Locations      []types.Location
	RateLimit      *ratelimit.Config
}

// Services are the components the handlers call. A nil Auth falls back to
// marketplace.StubAuthenticator.
type Services struct {
	Assets    AssetStore
	Enricher  AssetService
	Resolver  Resolver
	Scans     *scan.Manager
	Progress  *scan.Broadcaster
	History   ScanHistory
	Fetcher   marketplace.Fetcher
	Endpoints marketplace.Endpoints
	Auth      marketplace.Authenticator
}

// Server represents the HTTP server
type Server struct {
	httpServer  *http.Server
	handler     http.Handler
	svc         Services
	locations   map[string]types.Location
	origins     []string
	schedule    string
	rateLimiter *ratelimit.Limiter
	cron        *cron.Cron
}

// New creates a server. Scans, progress and the asset services are required.
func New(cfg Config, svc Services) (*Server, error) {
	if svc.Scans == nil || svc.Progress == nil || svc.Assets == nil || svc.Enricher == nil || svc.Resolver == nil {
		return nil, fmt.Errorf("server requires assets, enricher, resolver, scans and progress")
	}
	if cfg.Port == 0 {
		cfg.Port = 8080
	}
	if svc.Auth == nil {
		svc.Auth = marketplace.StubAuthenticator{}
	}

	s := &Server{
		svc:         svc,
		locations:   make(map[string]types.Location, len(cfg.Locations)),
		origins:     cfg.AllowedOrigins,
		schedule:    cfg.RescanSchedule,
		rateLimiter: ratelimit.NewLimiter(cfg.RateLimit),
	}
	for _, loc := range cfg.Locations {
		s.locations[loc.ID] = loc
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)

	// Marketplace lookups
	mux.HandleFunc("GET /slugs", s.handleSlugs)
	mux.HandleFunc("GET /resolve", s.handleResolve)
	mux.HandleFunc("GET /marketplace/access", s.handleMarketplaceAccess)

	// Locations and scans
	mux.HandleFunc("GET /locations", s.handleListLocations)
	mux.HandleFunc("POST /locations/{id}/scan", s.handleStartScan)
	mux.HandleFunc("DELETE /locations/{id}/scan", s.handleCancelScan)
	mux.HandleFunc("GET /locations/{id}/scan", s.handleScanStatus)
	mux.HandleFunc("GET /locations/{id}/progress", s.handleScanProgress)
	mux.HandleFunc("GET /locations/{id}/runs", s.handleListScanRuns)
	mux.HandleFunc("GET /locations/{id}/assets", s.handleListAssets)
	mux.HandleFunc("POST /scans/cancel-all", s.handleCancelAllScans)

	// Assets
	mux.HandleFunc("GET /assets/{id}", s.handleGetAsset)
	mux.HandleFunc("POST /assets/{id}/manual-match", s.handleManualMatch)
	mux.HandleFunc("POST /assets/{id}/refresh", s.handleRefreshAsset)
	mux.HandleFunc("POST /assets/{id}/reprocess", s.handleReprocessAsset)
	mux.HandleFunc("PUT /assets/{id}/overrides", s.handleSetOverrides)

	s.handler = s.withRateLimit(s.withLogging(s.withCORS(mux)))
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0, // progress streams stay open for the length of a scan
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// Handler returns the routed handler with middleware applied.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start serves requests until SIGINT or SIGTERM, then cancels active scans
// and shuts down.
func (s *Server) Start() error {
	if err := s.startRescans(); err != nil {
		return err
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		log.Printf("[server] listening on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-stop:
	case err := <-errCh:
		s.Close()
		return fmt.Errorf("server error: %w", err)
	}
	log.Println("[server] shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if n := s.svc.Scans.Registry().CancelAll(); n > 0 {
		log.Printf("[server] cancelled %d active scans", n)
	}
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	s.Close()
	log.Println("[server] stopped")
	return nil
}

// Close stops background work owned by the server.
func (s *Server) Close() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
		s.cron = nil
	}
	if s.rateLimiter != nil {
		s.rateLimiter.Stop()
	}
}

// withCORS adds CORS headers
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if origin := s.allowedOrigin(r.Header.Get("Origin")); origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) allowedOrigin(origin string) string {
	if len(s.origins) == 0 {
		return "*"
	}
	for _, o := range s.origins {
		if o == "*" {
			return "*"
		}
		if origin != "" && strings.EqualFold(o, origin) {
			return origin
		}
	}
	return ""
}

// withRateLimit adds rate limiting middleware
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowed, info := s.rateLimiter.Allow(clientID(r), r.URL.Path, r.Method)
		setRateLimitHeaders(w, info)
		if !allowed {
			s.rateLimitResponse(w, info)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// withLogging adds request logging
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		log.Printf("[%s] %s %s", r.Method, r.URL.Path, r.RemoteAddr)
		next.ServeHTTP(w, r)
		log.Printf("[%s] %s completed in %v", r.Method, r.URL.Path, time.Since(start))
	})
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"status":       "ok",
		"active_scans": s.svc.Scans.Registry().Active(),
	})
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("[server] error encoding JSON response: %v", err)
	}
}

// errorResponse writes an error JSON response
func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]string{"error": message})
}

// serviceError writes err with the status HTTPStatus chooses for it.
func (s *Server) serviceError(w http.ResponseWriter, err error) {
	status := HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		log.Printf("[server] request failed: %v", err)
	}
	s.errorResponse(w, status, err.Error())
}

// clientID extracts the client IP from RemoteAddr.
func clientID(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// setRateLimitHeaders sets standard rate limit headers on the response.
func setRateLimitHeaders(w http.ResponseWriter, info ratelimit.Info) {
	if info.Limit > 0 {
		w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", info.Limit))
		w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", info.Remaining))
		w.Header().Set("X-RateLimit-Reset", fmt.Sprintf("%d", info.ResetTime.Unix()))
	}
}

// rateLimitResponse writes a 429 Too Many Requests response with rate limit information.
func (s *Server) rateLimitResponse(w http.ResponseWriter, info ratelimit.Info) {
	response := map[string]any{
		"error":   "rate_limit_exceeded",
		"message": "Rate limit exceeded. Please try again later.",
		"limit":   info.Limit,
	}
	if info.RetryAfter > 0 {
		seconds := int(info.RetryAfter.Seconds()) + 1
		response["retry_after"] = seconds
		w.Header().Set("Retry-After", fmt.Sprintf("%d", seconds))
	}

	log.Printf("[rate-limit] limit exceeded: limit=%d reset=%s", info.Limit, info.ResetTime.Format(time.RFC3339))
	s.jsonResponse(w, http.StatusTooManyRequests, response)
}
