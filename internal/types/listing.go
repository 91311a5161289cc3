// Package types provides type definitions for structured data used throughout the asset-scout system.
//
//nolint:revive // types is a standard Go package name pattern
package types

import "time"

// Listing is a marketplace product record assembled from whichever source answered.
// Every field is optional: the API, the rendered page and the search page each
// expose a different subset, so a listing is a best-effort aggregate.
type Listing struct {
	ID                string     `json:"id,omitempty"`
	Slug              string     `json:"slug,omitempty"`
	Title             string     `json:"title,omitempty"`
	Description       string     `json:"description,omitempty"`
	TechnicalDetails  string     `json:"technical_details,omitempty"`
	Seller            string     `json:"seller,omitempty"`
	Categories        []string   `json:"categories,omitempty"`
	SupportedVersions []string   `json:"supported_versions,omitempty"`
	GalleryImages     []string   `json:"gallery_images,omitempty"`
	RatingAverage     *float64   `json:"rating_average,omitempty"`
	RatingCount       *int       `json:"rating_count,omitempty"`
	Price             *float64   `json:"price,omitempty"`
	ReleaseDate       *time.Time `json:"release_date,omitempty"`
	LastModified      *time.Time `json:"last_modified,omitempty"`
	RawJSON           string     `json:"-"`
	SourceURL         string     `json:"source_url,omitempty"`
	ThumbnailURL      string     `json:"thumbnail_url,omitempty"`
}

// HasContent reports whether the listing carries anything beyond identifiers.
func (l *Listing) HasContent() bool {
	if l == nil {
		return false
	}
	return l.Title != "" || l.Description != "" || l.TechnicalDetails != "" || l.RatingAverage != nil
}

// Float64Ptr returns a pointer to v.
func Float64Ptr(v float64) *float64 {
	return &v
}

// IntPtr returns a pointer to v.
func IntPtr(v int) *int {
	return &v
}
