// Package ranking scores marketplace listings against local assets and
// classifies the result into confidence tiers.
package ranking

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"github.com/xrash/smetrics"

	"github.com/jonathan/asset-scout/internal/types"
)

// Component weights. The description signal is counted twice, giving it a
// combined weight of 0.2.
const (
	nameWeight        = 0.6
	categoryWeight    = 0.2
	descriptionWeight = 0.1
	descriptionCount  = 2
)

// Jaro-Winkler tuning: boost above 0.7 similarity, up to four prefix characters.
const (
	jwBoostThreshold = 0.7
	jwPrefixSize     = 4
)

// highNameSimilarity is the name score above which a reason is recorded.
const highNameSimilarity = 0.8

// NoCandidatesReason is recorded when resolution found nothing.
const NoCandidatesReason = "No matching assets found on marketplace"

// Engine scores listings against a local asset's name and category.
type Engine struct{}

// NewEngine returns a match confidence engine.
func NewEngine() *Engine {
	return &Engine{}
}

// Breakdown holds the individual signals behind a score.
type Breakdown struct {
	Name               float64
	HasName            bool
	CategoryCompatible bool
	Description        float64
	HasDescription     bool
	Score              float64
}

// Score returns the confidence in [0,1] that listing describes the asset.
func (e *Engine) Score(name, category string, listing *types.Listing) float64 {
	return e.Explain(name, category, listing).Score
}

// Explain scores a listing and returns every contributing signal.
// Signals whose input is missing are skipped rather than scored as zero.
func (e *Engine) Explain(name, category string, listing *types.Listing) Breakdown {
	var b Breakdown
	if listing == nil {
		return b
	}

	var total, weights float64

	if listing.Title != "" {
		b.HasName = true
		b.Name = JaroWinkler(CleanString(name), CleanString(listing.Title))
		total += b.Name * nameWeight
		weights += nameWeight
	}

	b.CategoryCompatible = CategoryCompatible(category, listing.Categories)
	if b.CategoryCompatible {
		total += categoryWeight
	}
	weights += categoryWeight

	if listing.Description != "" {
		b.HasDescription = true
		b.Description = KeywordOverlap(Keywords(name), listing.Description)
		for range descriptionCount {
			total += b.Description * descriptionWeight
			weights += descriptionWeight
		}
	}

	if weights > 0 {
		b.Score = total / weights
	}
	return b
}

// Best scores every listing and returns the outcome for the highest one.
// Ties keep the first listing seen.
func (e *Engine) Best(asset *types.Asset, listings []types.Listing) types.MatchOutcome {
	if len(listings) == 0 {
		return types.NewMatchOutcome(asset.ID, nil, 0, []string{NoCandidatesReason})
	}

	bestIdx := -1
	var best Breakdown
	for i := range listings {
		b := e.Explain(asset.Name, asset.Category, &listings[i])
		if bestIdx < 0 || b.Score > best.Score {
			bestIdx = i
			best = b
		}
	}

	listing := listings[bestIdx]
	return types.NewMatchOutcome(asset.ID, &listing, best.Score, Reasons(best))
}

// Failed returns the outcome recorded when candidate resolution errored.
func (e *Engine) Failed(assetID uuid.UUID, err error) types.MatchOutcome {
	return types.NewMatchOutcome(assetID, nil, 0, []string{fmt.Sprintf("Search failed: %v", err)})
}

// ManualOutcome returns a user-confirmed match; the engine is not consulted.
func ManualOutcome(assetID uuid.UUID, listing *types.Listing) types.MatchOutcome {
	return types.NewManualOutcome(assetID, listing)
}

// Reasons renders the human-readable explanation for a breakdown.
func Reasons(b Breakdown) []string {
	var reasons []string
	if b.HasName && b.Name > highNameSimilarity {
		reasons = append(reasons, fmt.Sprintf("High name similarity: %.1f%%", b.Name*100))
	}
	if b.CategoryCompatible {
		reasons = append(reasons, "Compatible asset type")
	}
	return append(reasons, fmt.Sprintf("Overall confidence: %.1f%%", b.Score*100))
}

// Classify maps a score onto its confidence tier.
func Classify(score float64) types.MatchType {
	return types.ClassifyConfidence(score)
}

// CleanString lowercases s, turns separators into spaces and collapses double spaces.
func CleanString(s string) string {
	s = strings.ToLower(s)
	s = strings.NewReplacer("_", " ", "-", " ").Replace(s)
	s = strings.ReplaceAll(s, "  ", " ")
	return strings.TrimSpace(s)
}

// JaroWinkler is the prefix-weighted similarity used for catalog names.
func JaroWinkler(a, b string) float64 {
	if a == "" && b == "" {
		return 1
	}
	if a == "" || b == "" {
		return 0
	}
	return smetrics.JaroWinkler(a, b, jwBoostThreshold, jwPrefixSize)
}

// CategoryCompatible reports whether any listing category contains the local category.
func CategoryCompatible(local string, categories []string) bool {
	local = strings.ToLower(local)
	for _, c := range categories {
		if strings.Contains(strings.ToLower(c), local) {
			return true
		}
	}
	return false
}

// Keywords returns the lowercase words of name longer than two characters,
// with surrounding punctuation trimmed.
func Keywords(name string) []string {
	var out []string
	for _, word := range strings.Fields(name) {
		word = strings.TrimFunc(strings.ToLower(word), func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		if len(word) > 2 {
			out = append(out, word)
		}
	}
	return out
}

// KeywordOverlap is the fraction of keywords that appear in description.
func KeywordOverlap(keywords []string, description string) float64 {
	if len(keywords) == 0 {
		return 0
	}
	description = strings.ToLower(description)
	found := 0
	for _, k := range keywords {
		if strings.Contains(description, k) {
			found++
		}
	}
	return float64(found) / float64(len(keywords))
}
