package types

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Asset is a locally stored asset folder plus the marketplace data attached to it.
type Asset struct {
	ID          uuid.UUID `json:"id"`
	LocationID  string    `json:"location_id"`
	Name        string    `json:"name"`
	FolderPath  string    `json:"folder_path"`
	Category    string    `json:"category"`
	SizeBytes   int64     `json:"size_bytes"`
	ContentHash string    `json:"content_hash,omitempty"`

	// Marketplace columns
	Listing         *Listing        `json:"listing,omitempty"`
	MatchedSlug     *string         `json:"matched_slug,omitempty"`
	MatchConfidence *float64        `json:"match_confidence,omitempty"`
	MatchType       *MatchType      `json:"match_type,omitempty"`
	Notes           string          `json:"notes,omitempty"`
	ManualOverrides json.RawMessage `json:"manual_overrides,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NeedsRefresh reports whether the stored listing is missing its title or description.
func (a *Asset) NeedsRefresh() bool {
	if a.Listing == nil {
		return true
	}
	return a.Listing.Title == "" || a.Listing.Description == ""
}

// Location is a root directory whose immediate sub-folders are individual assets.
type Location struct {
	ID   string `json:"id" mapstructure:"id" validate:"required"`
	Path string `json:"path" mapstructure:"path" validate:"required"`
}
