package ranking

import (
	"strings"

	"github.com/xrash/smetrics"

	"github.com/jonathan/asset-scout/internal/types"
)

// MatchStrength is the scan matcher's tier for a name comparison.
type MatchStrength string

const (
	StrengthExact   MatchStrength = "Exact"
	StrengthHigh    MatchStrength = "High"
	StrengthMedium  MatchStrength = "Medium"
	StrengthLow     MatchStrength = "Low"
	StrengthNoMatch MatchStrength = "NoMatch"
)

const (
	jwBlend          = 0.7
	levenshteinBlend = 0.3
	leadingWordBonus = 0.05
	leadingWords     = 2
)

// ClassifyStrength maps a similarity onto the scan matcher's tiers.
func ClassifyStrength(score float64) MatchStrength {
	switch types.ClassifyConfidence(score) {
	case types.MatchExact:
		return StrengthExact
	case types.MatchHighConfidence:
		return StrengthHigh
	case types.MatchMediumConfidence:
		return StrengthMedium
	case types.MatchLowConfidence:
		return StrengthLow
	default:
		return StrengthNoMatch
	}
}

// NameCategorySimilarity blends Jaro-Winkler and Levenshtein similarity of
// two cleaned names, with a bonus when their leading words agree. A name
// that cleans to nothing scores 0.
func NameCategorySimilarity(a, b string) float64 {
	a, b = cleanName(a), cleanName(b)
	if a == "" || b == "" {
		return 0
	}

	score := JaroWinkler(a, b)*jwBlend + LevenshteinSimilarity(a, b)*levenshteinBlend
	if sameLeadingWords(a, b) {
		score += leadingWordBonus
	}
	return min(score, 1.0)
}

// LevenshteinSimilarity is 1 minus the edit distance over the longer length.
func LevenshteinSimilarity(a, b string) float64 {
	maxLen := max(len(a), len(b))
	if maxLen == 0 {
		return 1
	}
	dist := smetrics.WagnerFischer(a, b, 1, 1, 1)
	return float64(maxLen-dist) / float64(maxLen)
}

// cleanName lowercases name, treats separators as spaces and collapses
// every whitespace run.
func cleanName(name string) string {
	name = strings.NewReplacer("_", " ", "-", " ").Replace(strings.ToLower(name))
	return strings.Join(strings.Fields(name), " ")
}

func sameLeadingWords(a, b string) bool {
	wa, wb := strings.Fields(a), strings.Fields(b)
	n := min(leadingWords, len(wa), len(wb))
	if n == 0 {
		return false
	}
	for i := range n {
		if wa[i] != wb[i] {
			return false
		}
	}
	return true
}

// NameMatch is one candidate's similarity to a local name.
type NameMatch struct {
	Listing  types.Listing
	Score    float64
	Strength MatchStrength
}

// SelectBestByName returns the candidate whose title is most similar to
// name. Ties keep the earliest candidate. ok is false when nothing reaches
// the Low tier.
func SelectBestByName(name string, candidates []types.Listing) (NameMatch, bool) {
	var best NameMatch
	found := false
	for _, c := range candidates {
		score := NameCategorySimilarity(name, c.Title)
		if !found || score > best.Score {
			best = NameMatch{Listing: c, Score: score, Strength: ClassifyStrength(score)}
			found = true
		}
	}
	if !found || best.Strength == StrengthNoMatch {
		return NameMatch{}, false
	}
	return best, true
}
