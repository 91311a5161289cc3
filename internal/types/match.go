package types

import "github.com/google/uuid"

// MatchType is the discrete confidence tier of a match.
type MatchType string

// Match tiers, strongest first.
const (
	MatchExact            MatchType = "Exact"
	MatchHighConfidence   MatchType = "HighConfidence"
	MatchMediumConfidence MatchType = "MediumConfidence"
	MatchLowConfidence    MatchType = "LowConfidence"
	MatchNone             MatchType = "NoMatch"
	MatchManual           MatchType = "Manual"
)

// Confidence thresholds shared by every matcher.
const (
	ExactThreshold  = 0.95
	HighThreshold   = 0.85
	MediumThreshold = 0.70
	LowThreshold    = 0.50
)

// ClassifyConfidence maps a score onto its tier.
func ClassifyConfidence(score float64) MatchType {
	switch {
	case score >= ExactThreshold:
		return MatchExact
	case score >= HighThreshold:
		return MatchHighConfidence
	case score >= MediumThreshold:
		return MatchMediumConfidence
	case score >= LowThreshold:
		return MatchLowConfidence
	default:
		return MatchNone
	}
}

// MatchOutcome is the result of matching one local asset against marketplace candidates.
// Outcomes are built through NewMatchOutcome or NewManualOutcome and never edited afterwards.
type MatchOutcome struct {
	AssetID    uuid.UUID `json:"asset_id"`
	Listing    *Listing  `json:"listing,omitempty"`
	Confidence float64   `json:"confidence"`
	Type       MatchType `json:"match_type"`
	Reasons    []string  `json:"reasons"`
}

// NewMatchOutcome builds an outcome whose type is derived from the confidence.
func NewMatchOutcome(assetID uuid.UUID, listing *Listing, confidence float64, reasons []string) MatchOutcome {
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}
	return MatchOutcome{
		AssetID:    assetID,
		Listing:    listing,
		Confidence: confidence,
		Type:       ClassifyConfidence(confidence),
		Reasons:    append([]string(nil), reasons...),
	}
}

// NewManualOutcome builds a user-confirmed outcome. It always has full confidence.
func NewManualOutcome(assetID uuid.UUID, listing *Listing) MatchOutcome {
	return MatchOutcome{
		AssetID:    assetID,
		Listing:    listing,
		Confidence: 1.0,
		Type:       MatchManual,
		Reasons:    []string{"Manually matched by user"},
	}
}

// Matched reports whether the outcome carries a usable listing.
func (o MatchOutcome) Matched() bool {
	return o.Listing != nil && o.Type != MatchNone
}
