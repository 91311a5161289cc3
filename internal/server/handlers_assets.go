package server

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/jonathan/asset-scout/internal/types"
)

// maxOverridesBytes bounds an overrides document.
const maxOverridesBytes = 64 << 10

// ManualMatchRequest is the body of POST /assets/{id}/manual-match.
type ManualMatchRequest struct {
	URL string `json:"url" validate:"required,url"`
}

// ListAssetsResponse represents the response for listing assets
type ListAssetsResponse struct {
	LocationID string        `json:"location_id"`
	Assets     []types.Asset `json:"assets"`
	Count      int           `json:"count"`
}

func (s *Server) assetID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid asset ID")
		return uuid.Nil, false
	}
	return id, true
}

// handleListAssets lists the stored assets of a location
func (s *Server) handleListAssets(w http.ResponseWriter, r *http.Request) {
	loc, ok := s.lookupLocation(w, r)
	if !ok {
		return
	}

	assets, err := s.svc.Assets.ListAssetsByLocation(r.Context(), loc.ID)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}
	if assets == nil {
		assets = []types.Asset{}
	}
	s.jsonResponse(w, http.StatusOK, ListAssetsResponse{LocationID: loc.ID, Assets: assets, Count: len(assets)})
}

// handleGetAsset retrieves an asset by its ID
func (s *Server) handleGetAsset(w http.ResponseWriter, r *http.Request) {
	id, ok := s.assetID(w, r)
	if !ok {
		return
	}

	asset, err := s.svc.Assets.GetAsset(r.Context(), id)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}
	if asset == nil {
		s.errorResponse(w, http.StatusNotFound, "Asset not found")
		return
	}
	s.jsonResponse(w, http.StatusOK, asset)
}

// handleManualMatch attaches a user-chosen listing to an asset
func (s *Server) handleManualMatch(w http.ResponseWriter, r *http.Request) {
	id, ok := s.assetID(w, r)
	if !ok {
		return
	}

	var req ManualMatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := validator.New().Struct(req); err != nil {
		s.serviceError(w, &ErrValidation{Field: "url", Message: "a marketplace listing URL is required"})
		return
	}

	outcome, err := s.svc.Enricher.ManualMatch(r.Context(), id, req.URL)
	if err != nil {
		s.serviceError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, outcome)
}

// handleRefreshAsset re-fetches the marketplace listing of an asset
func (s *Server) handleRefreshAsset(w http.ResponseWriter, r *http.Request) {
	id, ok := s.assetID(w, r)
	if !ok {
		return
	}

	asset, err := s.svc.Enricher.Refresh(r.Context(), id)
	if err != nil {
		s.serviceError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, asset)
}

// handleReprocessAsset re-parses the stored marketplace data of an asset
func (s *Server) handleReprocessAsset(w http.ResponseWriter, r *http.Request) {
	id, ok := s.assetID(w, r)
	if !ok {
		return
	}

	asset, err := s.svc.Enricher.Reprocess(r.Context(), id)
	if err != nil {
		s.serviceError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, asset)
}

// handleSetOverrides stores or clears the manual overrides of an asset
func (s *Server) handleSetOverrides(w http.ResponseWriter, r *http.Request) {
	id, ok := s.assetID(w, r)
	if !ok {
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxOverridesBytes+1))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if len(body) > maxOverridesBytes {
		s.errorResponse(w, http.StatusRequestEntityTooLarge, "Overrides document too large")
		return
	}

	if err := s.svc.Enricher.SetOverrides(r.Context(), id, json.RawMessage(body)); err != nil {
		s.serviceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
