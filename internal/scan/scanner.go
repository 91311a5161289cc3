package scan

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strconv"

	"github.com/google/uuid"

	"github.com/jonathan/asset-scout/internal/types"
)

// Store is the asset persistence a scan needs.
type Store interface {
	GetAssetByPath(ctx context.Context, folderPath string) (*types.Asset, error)
	InsertAsset(ctx context.Context, asset *types.Asset) (uuid.UUID, error)
}

// Enricher matches one asset against the marketplace and persists the result.
type Enricher interface {
	EnrichAsset(ctx context.Context, asset *types.Asset) (types.MatchOutcome, error)
}

// RunRecorder keeps an audit trail of scans. It is optional.
type RunRecorder interface {
	CreateScanRun(ctx context.Context, locationID string) (uuid.UUID, error)
	CompleteScanRun(ctx context.Context, runID uuid.UUID, status string, processed, total, failures int) error
}

// FolderError is a failure confined to one asset folder.
type FolderError struct {
	Path string
	Err  error
}

func (e FolderError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e FolderError) Unwrap() error {
	return e.Err
}

// Summary describes a finished scan. Folder failures are collected here and
// never abort the scan.
type Summary struct {
	LocationID string        `json:"location_id"`
	ScanID     string        `json:"scan_id"`
	Total      int           `json:"total"`
	Processed  int           `json:"processed"`
	Added      int           `json:"added"`
	Refreshed  int           `json:"refreshed"`
	Skipped    int           `json:"skipped"`
	Matched    int           `json:"matched"`
	Cancelled  bool          `json:"cancelled"`
	Failures   []FolderError `json:"-"`
}

// Err joins the folder failures, or returns nil if there were none.
func (s *Summary) Err() error {
	if len(s.Failures) == 0 {
		return nil
	}
	errs := make([]error, len(s.Failures))
	for i, f := range s.Failures {
		errs[i] = f
	}
	return errors.Join(errs...)
}

func (s *Summary) fail(path string, err error) {
	log.Printf("[scan] %s failed: %v", path, err)
	s.Failures = append(s.Failures, FolderError{Path: path, Err: err})
}

// Scanner processes the immediate sub-folders of a location.
type Scanner struct {
	store    Store
	enricher Enricher
	sink     ProgressSink
	runs     RunRecorder
}

// NewScanner creates a scanner. A nil sink logs progress; runs may be nil.
func NewScanner(store Store, enricher Enricher, sink ProgressSink, runs RunRecorder) *Scanner {
	if sink == nil {
		sink = LogSink{}
	}
	return &Scanner{store: store, enricher: enricher, sink: sink, runs: runs}
}

// Run scans location until every folder is processed or token is cancelled.
// Only a failure to read the location root is returned as an error.
func (s *Scanner) Run(ctx context.Context, location types.Location, token *Token) (*Summary, error) {
	if token == nil {
		token = NewToken()
	}
	summary := &Summary{LocationID: location.ID, ScanID: uuid.NewString()}
	runID := s.startRun(ctx, location.ID)

	event := types.ScanProgress{LocationID: location.ID, ScanID: summary.ScanID}

	folders, err := listFolders(location.Path)
	if err != nil {
		event.Status = types.ScanError
		event.Error = err.Error()
		s.sink.Publish(event)
		s.finishRun(ctx, runID, "failed", summary)
		return summary, fmt.Errorf("failed to read location %s: %w", location.Path, err)
	}

	summary.Total = len(folders)
	event.TotalItems = summary.Total
	event.Status = types.ScanInitializing
	s.sink.Publish(event)

	for _, folder := range folders {
		if stopped(ctx, token) {
			return s.cancel(ctx, runID, summary, event), nil
		}

		if err := s.processFolder(ctx, location, folder, token, summary); err != nil {
			if stopped(ctx, token) {
				return s.cancel(ctx, runID, summary, event), nil
			}
			summary.fail(folder, err)
		}

		summary.Processed++
		event.Status = types.ScanScanning
		event.CurrentPath = folder
		event.ProcessedItems = summary.Processed
		s.sink.Publish(event)
	}

	event.Status = types.ScanCompleted
	event.CurrentPath = ""
	event.CompletedSuccessfully = true
	if err := summary.Err(); err != nil {
		event.Error = fmt.Sprintf("%d folders failed", len(summary.Failures))
	}
	s.sink.Publish(event)
	s.finishRun(ctx, runID, "completed", summary)
	return summary, nil
}

// processFolder registers a new folder and enriches it, or re-enriches a
// known asset whose listing lacks a title or description.
func (s *Scanner) processFolder(ctx context.Context, location types.Location, folder string, token *Token, summary *Summary) error {
	existing, err := s.store.GetAssetByPath(ctx, folder)
	if err != nil {
		return err
	}

	asset := existing
	if asset == nil {
		size, hash, err := folderStats(folder)
		if err != nil {
			return fmt.Errorf("failed to measure folder: %w", err)
		}
		asset = &types.Asset{
			LocationID:  location.ID,
			Name:        filepath.Base(folder),
			FolderPath:  folder,
			Category:    InferCategory(folder),
			SizeBytes:   size,
			ContentHash: hash,
		}
		id, err := s.store.InsertAsset(ctx, asset)
		if err != nil {
			return err
		}
		asset.ID = id
		summary.Added++
	} else if !asset.NeedsRefresh() {
		summary.Skipped++
		return nil
	} else {
		summary.Refreshed++
	}

	if stopped(ctx, token) {
		return context.Canceled
	}
	outcome, err := s.enricher.EnrichAsset(ctx, asset)
	if err != nil {
		return err
	}
	if outcome.Matched() {
		summary.Matched++
	}
	return nil
}

func (s *Scanner) cancel(ctx context.Context, runID uuid.UUID, summary *Summary, event types.ScanProgress) *Summary {
	summary.Cancelled = true
	event.Status = types.ScanCancelled
	event.ProcessedItems = summary.Processed
	event.CurrentPath = ""
	s.sink.Publish(event)
	s.finishRun(context.WithoutCancel(ctx), runID, "cancelled", summary)
	log.Printf("[scan] %s cancelled after %d/%d folders", summary.LocationID, summary.Processed, summary.Total)
	return summary
}

func (s *Scanner) startRun(ctx context.Context, locationID string) uuid.UUID {
	if s.runs == nil {
		return uuid.Nil
	}
	id, err := s.runs.CreateScanRun(ctx, locationID)
	if err != nil {
		log.Printf("[scan] failed to record scan start: %v", err)
		return uuid.Nil
	}
	return id
}

func (s *Scanner) finishRun(ctx context.Context, runID uuid.UUID, status string, summary *Summary) {
	if s.runs == nil || runID == uuid.Nil {
		return
	}
	if err := s.runs.CompleteScanRun(ctx, runID, status, summary.Processed, summary.Total, len(summary.Failures)); err != nil {
		log.Printf("[scan] failed to record scan end: %v", err)
	}
}

func stopped(ctx context.Context, token *Token) bool {
	return token.Cancelled() || ctx.Err() != nil
}

// listFolders returns the immediate sub-directories of root in name order.
func listFolders(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}
	var folders []string
	for _, entry := range entries {
		if entry.IsDir() {
			folders = append(folders, filepath.Join(root, entry.Name()))
		}
	}
	return folders, nil
}

// folderStats returns the total file size under folder and a hash of its
// relative file paths and sizes. Unreadable entries are skipped.
func folderStats(folder string) (int64, string, error) {
	h := sha256.New()
	var total int64
	err := filepath.WalkDir(folder, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == folder {
				return err
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		rel, _ := filepath.Rel(folder, path)
		total += info.Size()
		h.Write([]byte(filepath.ToSlash(rel)))
		h.Write([]byte{0})
		h.Write([]byte(strconv.FormatInt(info.Size(), 10)))
		h.Write([]byte{0})
		return nil
	})
	if err != nil {
		return 0, "", err
	}
	return total, hex.EncodeToString(h.Sum(nil)), nil
}
