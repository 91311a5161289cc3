package parsing

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"github.com/jonathan/asset-scout/internal/types"
)

// ProductResponse is the product-by-slug API envelope. Numeric fields are
// floats so that integer/float drift upstream does not break decoding.
type ProductResponse struct {
	ID       string          `json:"_id"`
	Title    string          `json:"title"`
	Category string          `json:"category"`
	Computed ProductComputed `json:"computed"`
	Discount json.RawMessage `json:"discount,omitempty"`
	Engine   ProductEngine   `json:"engine"`
	Media    ProductMedia    `json:"media"`
	Meta     ProductMeta     `json:"meta"`
	Owner    ProductOwner    `json:"owner"`
	Price    *ProductPrice   `json:"price"`

	ReleaseDate string             `json:"releaseDate"`
	UpdatedAt   string             `json:"updatedAt"`
	Review      *ProductReview     `json:"review"`
	Slug        string             `json:"slug"`
	Description ProductDescription `json:"description"`
}

// ProductComputed holds marketplace-side ranking data.
type ProductComputed struct {
	EmbeddedContent bool    `json:"embeddedContent"`
	IsBoosted       bool    `json:"isBoosted"`
	Score           float64 `json:"score"`
}

// ProductEngine is the supported engine version range.
type ProductEngine struct {
	ID  string `json:"_id"`
	Min string `json:"min"`
	Max string `json:"max"`
}

// ProductMedia lists the listing images.
type ProductMedia struct {
	Thumbnail string   `json:"thumbnail"`
	Images    []string `json:"images"`
}

// ProductMeta carries cross-marketplace identifiers.
type ProductMeta struct {
	FabID    string `json:"fabId"`
	UnrealID string `json:"unrealId"`
}

// ProductOwner is the seller.
type ProductOwner struct {
	ID   string          `json:"_id"`
	Name string          `json:"name"`
	Meta json.RawMessage `json:"meta,omitempty"`
}

// ProductPrice is expressed in minor currency units.
type ProductPrice struct {
	Value   float64             `json:"value"`
	History []ProductPricePoint `json:"history"`
}

// ProductPricePoint is one historical price.
type ProductPricePoint struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}

// ProductReview is the aggregate review data.
type ProductReview struct {
	Count  int     `json:"count"`
	Rating float64 `json:"rating"`
}

// ProductDescription holds the long and technical descriptions.
type ProductDescription struct {
	Long      string `json:"long"`
	Technical string `json:"technical"`
}

// ParseProductJSON decodes a product API body into a listing.
// A body that is not a product envelope is reported as *Error.
func ParseProductJSON(body, baseURL string) (*types.Listing, error) {
	trimmed := bytes.TrimSpace([]byte(body))
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, &Error{Source: "product api", Message: "response is not a JSON object"}
	}

	var resp ProductResponse
	if err := json.Unmarshal(trimmed, &resp); err != nil {
		return nil, &Error{Source: "product api", Message: "failed to decode product", Cause: err}
	}
	if resp.ID == "" && resp.Slug == "" && resp.Title == "" {
		return nil, &Error{Source: "product api", Message: "response has no product identity"}
	}

	listing := MapProductResponse(&resp, baseURL)
	listing.RawJSON = string(trimmed)
	return listing, nil
}

// MapProductResponse converts a decoded envelope into a listing.
func MapProductResponse(resp *ProductResponse, baseURL string) *types.Listing {
	listing := &types.Listing{
		ID:               resp.ID,
		Slug:             resp.Slug,
		Title:            strings.TrimSpace(resp.Title),
		Description:      resp.Description.Long,
		TechnicalDetails: resp.Description.Technical,
		Seller:           resp.Owner.Name,
		ThumbnailURL:     resp.Media.Thumbnail,
		ReleaseDate:      parseTimestamp(resp.ReleaseDate),
		LastModified:     parseTimestamp(resp.UpdatedAt),
	}

	if resp.Category != "" {
		listing.Categories = []string{resp.Category}
	}
	for _, v := range []string{resp.Engine.Min, resp.Engine.Max} {
		if v != "" {
			listing.SupportedVersions = append(listing.SupportedVersions, v)
		}
	}
	for _, img := range resp.Media.Images {
		if img != "" {
			listing.GalleryImages = append(listing.GalleryImages, img)
		}
	}

	// Absent price or review blocks leave the fields nil.
	if resp.Price != nil {
		listing.Price = types.Float64Ptr(resp.Price.Value / 100.0)
	}
	if resp.Review != nil {
		listing.RatingCount = types.IntPtr(resp.Review.Count)
		if resp.Review.Count > 0 {
			listing.RatingAverage = types.Float64Ptr(NormalizeRating(resp.Review.Rating))
		}
	}

	if resp.Slug != "" {
		listing.SourceURL = strings.TrimRight(baseURL, "/") + "/product/" + resp.Slug
	}
	return listing
}

func parseTimestamp(value string) *time.Time {
	if value == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, value); err == nil {
			return &t
		}
	}
	return nil
}
