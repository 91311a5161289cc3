package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jonathan/asset-scout/internal/types"
)

const assetColumns = `id, location_id, name, folder_path, category, size_bytes, content_hash,
	listing_fetched_at, listing_id, listing_slug, title, description, technical_details, seller,
	categories, supported_versions, gallery_images, rating_average, rating_count, price,
	release_date, last_modified, raw_json, source_url, thumbnail_url,
	matched_slug, match_confidence, match_type, notes, manual_overrides, created_at, updated_at`

// assetRow holds the nullable columns of an assets row before they are folded into types.Asset.
type assetRow struct {
	asset       types.Asset
	contentHash *string

	fetchedAt         *time.Time
	listingID         *string
	listingSlug       *string
	title             *string
	description       *string
	technicalDetails  *string
	seller            *string
	categories        []string
	supportedVersions []string
	galleryImages     []string
	ratingAverage     *float64
	ratingCount       *int
	price             *float64
	releaseDate       *time.Time
	lastModified      *time.Time
	rawJSON           *string
	sourceURL         *string
	thumbnailURL      *string

	matchType *string
	overrides []byte
}

func (r *assetRow) targets() []any {
	a := &r.asset
	return []any{
		&a.ID, &a.LocationID, &a.Name, &a.FolderPath, &a.Category, &a.SizeBytes, &r.contentHash,
		&r.fetchedAt, &r.listingID, &r.listingSlug, &r.title, &r.description, &r.technicalDetails, &r.seller,
		&r.categories, &r.supportedVersions, &r.galleryImages, &r.ratingAverage, &r.ratingCount, &r.price,
		&r.releaseDate, &r.lastModified, &r.rawJSON, &r.sourceURL, &r.thumbnailURL,
		&a.MatchedSlug, &a.MatchConfidence, &r.matchType, &a.Notes, &r.overrides, &a.CreatedAt, &a.UpdatedAt,
	}
}

// toAsset folds the nullable columns into an Asset. The listing is present
// only once listing details have been written.
func (r *assetRow) toAsset() *types.Asset {
	a := r.asset
	a.ContentHash = deref(r.contentHash)
	if r.matchType != nil {
		mt := types.MatchType(*r.matchType)
		a.MatchType = &mt
	}
	if len(r.overrides) > 0 {
		a.ManualOverrides = json.RawMessage(r.overrides)
	}
	if r.fetchedAt != nil {
		a.Listing = &types.Listing{
			ID:                deref(r.listingID),
			Slug:              deref(r.listingSlug),
			Title:             deref(r.title),
			Description:       deref(r.description),
			TechnicalDetails:  deref(r.technicalDetails),
			Seller:            deref(r.seller),
			Categories:        r.categories,
			SupportedVersions: r.supportedVersions,
			GalleryImages:     r.galleryImages,
			RatingAverage:     r.ratingAverage,
			RatingCount:       r.ratingCount,
			Price:             r.price,
			ReleaseDate:       r.releaseDate,
			LastModified:      r.lastModified,
			RawJSON:           deref(r.rawJSON),
			SourceURL:         deref(r.sourceURL),
			ThumbnailURL:      deref(r.thumbnailURL),
		}
	}
	return &a
}

func (db *DB) getAsset(ctx context.Context, query string, arg any) (*types.Asset, error) {
	var row assetRow
	err := db.pool.QueryRow(ctx, query, arg).Scan(row.targets()...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return row.toAsset(), nil
}

// GetAsset retrieves an asset by ID, or nil if it does not exist
func (db *DB) GetAsset(ctx context.Context, id uuid.UUID) (*types.Asset, error) {
	asset, err := db.getAsset(ctx, `SELECT `+assetColumns+` FROM assets WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get asset %s: %w", id, err)
	}
	return asset, nil
}

// GetAssetByPath retrieves an asset by its folder path, or nil if it does not exist
func (db *DB) GetAssetByPath(ctx context.Context, folderPath string) (*types.Asset, error) {
	asset, err := db.getAsset(ctx, `SELECT `+assetColumns+` FROM assets WHERE folder_path = $1`, folderPath)
	if err != nil {
		return nil, fmt.Errorf("failed to get asset at %s: %w", folderPath, err)
	}
	return asset, nil
}

// InsertAsset stores a newly discovered asset and returns its ID
func (db *DB) InsertAsset(ctx context.Context, asset *types.Asset) (uuid.UUID, error) {
	id := asset.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	err := db.pool.QueryRow(ctx,
		`INSERT INTO assets (id, location_id, name, folder_path, category, size_bytes, content_hash)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id`,
		id, asset.LocationID, asset.Name, asset.FolderPath, asset.Category, asset.SizeBytes, nullIfEmpty(asset.ContentHash),
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to insert asset %s: %w", asset.FolderPath, err)
	}
	return id, nil
}

// ListAssetsByLocation retrieves every asset of a location ordered by name
func (db *DB) ListAssetsByLocation(ctx context.Context, locationID string) ([]types.Asset, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT `+assetColumns+` FROM assets WHERE location_id = $1 ORDER BY name`,
		locationID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list assets for %s: %w", locationID, err)
	}
	defer rows.Close()

	var assets []types.Asset
	for rows.Next() {
		var row assetRow
		if err := rows.Scan(row.targets()...); err != nil {
			return nil, fmt.Errorf("failed to scan asset: %w", err)
		}
		assets = append(assets, *row.toAsset())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list assets for %s: %w", locationID, err)
	}
	return assets, nil
}

// UpdateListingDetails replaces the stored listing columns of an asset
func (db *DB) UpdateListingDetails(ctx context.Context, id uuid.UUID, listing *types.Listing) error {
	if listing == nil {
		return fmt.Errorf("failed to update listing for asset %s: listing is nil", id)
	}
	return db.exec(ctx, "update listing for asset", id,
		`UPDATE assets SET
			listing_fetched_at = NOW(), listing_id = $1, listing_slug = $2, title = $3, description = $4,
			technical_details = $5, seller = $6, categories = $7, supported_versions = $8, gallery_images = $9,
			rating_average = $10, rating_count = $11, price = $12, release_date = $13, last_modified = $14,
			raw_json = $15, source_url = $16, thumbnail_url = $17, updated_at = NOW()
		 WHERE id = $18`,
		nullIfEmpty(listing.ID), nullIfEmpty(listing.Slug), nullIfEmpty(listing.Title), nullIfEmpty(listing.Description),
		nullIfEmpty(listing.TechnicalDetails), nullIfEmpty(listing.Seller),
		nonNil(listing.Categories), nonNil(listing.SupportedVersions), nonNil(listing.GalleryImages),
		listing.RatingAverage, listing.RatingCount, listing.Price, listing.ReleaseDate, listing.LastModified,
		nullIfEmpty(listing.RawJSON), nullIfEmpty(listing.SourceURL), nullIfEmpty(listing.ThumbnailURL),
		id,
	)
}

// UpdateMatchMetadata stores the match result of an asset; nil values clear the column
func (db *DB) UpdateMatchMetadata(ctx context.Context, id uuid.UUID, slug *string, confidence *float64, matchType *types.MatchType) error {
	var mt *string
	if matchType != nil {
		s := string(*matchType)
		mt = &s
	}
	return db.exec(ctx, "update match metadata for asset", id,
		`UPDATE assets SET matched_slug = $1, match_confidence = $2, match_type = $3, updated_at = NOW()
		 WHERE id = $4`,
		slug, confidence, mt, id,
	)
}

// UpdateNotes replaces the match notes of an asset
func (db *DB) UpdateNotes(ctx context.Context, id uuid.UUID, notes string) error {
	return db.exec(ctx, "update notes for asset", id,
		`UPDATE assets SET notes = $1, updated_at = NOW() WHERE id = $2`,
		notes, id,
	)
}

// SetManualOverrides stores a validated overrides document; an empty document clears it
func (db *DB) SetManualOverrides(ctx context.Context, id uuid.UUID, overrides json.RawMessage) error {
	var doc *string
	if len(overrides) > 0 {
		s := string(overrides)
		doc = &s
	}
	return db.exec(ctx, "set manual overrides for asset", id,
		`UPDATE assets SET manual_overrides = $1::jsonb, updated_at = NOW() WHERE id = $2`,
		doc, id,
	)
}

// exec runs a single-row update and reports ErrNotFound when no row matched.
func (db *DB) exec(ctx context.Context, op string, id uuid.UUID, query string, args ...any) error {
	tag, err := db.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to %s %s: %w", op, id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("failed to %s %s: %w", op, id, ErrNotFound)
	}
	return nil
}

// nullIfEmpty returns nil if the string is empty, otherwise a pointer to the string
func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
