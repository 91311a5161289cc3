package types

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestClassifyConfidence(t *testing.T) {
	tests := []struct {
		name  string
		score float64
		want  MatchType
	}{
		{"perfect", 1.0, MatchExact},
		{"exact boundary", 0.95, MatchExact},
		{"just below exact", 0.9499, MatchHighConfidence},
		{"high boundary", 0.85, MatchHighConfidence},
		{"medium boundary", 0.70, MatchMediumConfidence},
		{"low boundary", 0.50, MatchLowConfidence},
		{"just below low", 0.4999, MatchNone},
		{"zero", 0, MatchNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyConfidence(tt.score))
		})
	}
}

func TestNewMatchOutcome_ClampsConfidence(t *testing.T) {
	id := uuid.New()
	listing := &Listing{Slug: "mage-animations", Title: "Mage Animations"}

	high := NewMatchOutcome(id, listing, 1.4, nil)
	assert.Equal(t, 1.0, high.Confidence)
	assert.Equal(t, MatchExact, high.Type)

	low := NewMatchOutcome(id, listing, -0.2, nil)
	assert.Equal(t, 0.0, low.Confidence)
	assert.Equal(t, MatchNone, low.Type)
	assert.False(t, low.Matched())
}

func TestNewMatchOutcome_CopiesReasons(t *testing.T) {
	reasons := []string{"name similarity 0.97"}
	outcome := NewMatchOutcome(uuid.New(), &Listing{Title: "Mage"}, 0.97, reasons)

	reasons[0] = "changed"
	assert.Equal(t, []string{"name similarity 0.97"}, outcome.Reasons)
	assert.True(t, outcome.Matched())
}

func TestNewManualOutcome(t *testing.T) {
	id := uuid.New()
	outcome := NewManualOutcome(id, &Listing{Slug: "mage-animations"})

	assert.Equal(t, id, outcome.AssetID)
	assert.Equal(t, 1.0, outcome.Confidence)
	assert.Equal(t, MatchManual, outcome.Type)
	assert.True(t, outcome.Matched())
}

func TestMatched_WithoutListing(t *testing.T) {
	assert.False(t, NewMatchOutcome(uuid.New(), nil, 0.99, nil).Matched())
}

func TestAsset_NeedsRefresh(t *testing.T) {
	assert.True(t, (&Asset{}).NeedsRefresh())
	assert.True(t, (&Asset{Listing: &Listing{Title: "Mage"}}).NeedsRefresh())
	assert.False(t, (&Asset{Listing: &Listing{Title: "Mage", Description: "Spell casting set"}}).NeedsRefresh())
}

func TestListing_HasContent(t *testing.T) {
	var missing *Listing
	assert.False(t, missing.HasContent())
	assert.False(t, (&Listing{Slug: "mage", ID: "123"}).HasContent())
	assert.True(t, (&Listing{RatingAverage: Float64Ptr(4.5)}).HasContent())
}

func TestScanProgress_Terminal(t *testing.T) {
	for status, want := range map[ScanStatus]bool{
		ScanInitializing: false,
		ScanScanning:     false,
		ScanCancelled:    true,
		ScanError:        true,
		ScanCompleted:    true,
	} {
		assert.Equal(t, want, ScanProgress{Status: status}.Terminal(), status)
	}
}
