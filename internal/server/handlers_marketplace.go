package server

import (
	"net/http"
	"strings"

	"github.com/jonathan/asset-scout/internal/marketplace"
	"github.com/jonathan/asset-scout/internal/ranking"
	"github.com/jonathan/asset-scout/internal/slugs"
	"github.com/jonathan/asset-scout/internal/types"
)

// SlugsResponse lists slug variations in the order they are tried.
type SlugsResponse struct {
	Name  string   `json:"name"`
	Slugs []string `json:"slugs"`
}

// ResolveResponse lists candidates for a name and the best match among them.
type ResolveResponse struct {
	Name     string             `json:"name"`
	Category string             `json:"category,omitempty"`
	Listings []types.Listing    `json:"listings"`
	Best     types.MatchOutcome `json:"best"`
}

func requiredQuery(r *http.Request, key string) (string, error) {
	v := strings.TrimSpace(r.URL.Query().Get(key))
	if v == "" {
		return "", &ErrValidation{Field: key, Message: "query parameter is required"}
	}
	return v, nil
}

// handleSlugs returns the slug variations for a name
func (s *Server) handleSlugs(w http.ResponseWriter, r *http.Request) {
	name, err := requiredQuery(r, "name")
	if err != nil {
		s.serviceError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, SlugsResponse{Name: name, Slugs: slugs.Generate(name)})
}

// handleResolve finds marketplace candidates for a name and scores them
func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	name, err := requiredQuery(r, "name")
	if err != nil {
		s.serviceError(w, err)
		return
	}
	category := strings.TrimSpace(r.URL.Query().Get("category"))

	listings, err := s.svc.Resolver.Resolve(r.Context(), name)
	if err != nil {
		s.serviceError(w, err)
		return
	}

	best := ranking.NewEngine().Best(&types.Asset{Name: name, Category: category}, listings)
	s.jsonResponse(w, http.StatusOK, ResolveResponse{
		Name:     name,
		Category: category,
		Listings: listings,
		Best:     best,
	})
}

// handleMarketplaceAccess checks that the marketplace is publicly reachable
func (s *Server) handleMarketplaceAccess(w http.ResponseWriter, r *http.Request) {
	if s.svc.Fetcher == nil {
		s.errorResponse(w, http.StatusNotImplemented, "Marketplace client is not configured")
		return
	}

	accessible, err := marketplace.CheckPublicAccess(r.Context(), s.svc.Fetcher, s.svc.Endpoints)
	resp := map[string]any{
		"base_url":      s.svc.Endpoints.BaseURL(),
		"accessible":    accessible,
		"authenticated": s.svc.Auth.Authenticated(),
	}
	if err != nil {
		resp["error"] = err.Error()
		s.jsonResponse(w, http.StatusBadGateway, resp)
		return
	}
	s.jsonResponse(w, http.StatusOK, resp)
}
