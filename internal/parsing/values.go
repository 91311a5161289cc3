package parsing

import (
	"strconv"
	"strings"
	"unicode"
)

// ParsePrice reads a display price such as "$1,299.00" or "Free".
// It returns nil when no number can be read.
func ParsePrice(text string) *float64 {
	cleaned := strings.ToLower(strings.TrimSpace(text))
	if cleaned == "" {
		return nil
	}
	if strings.Contains(cleaned, "free") {
		zero := 0.0
		return &zero
	}
	cleaned = strings.NewReplacer("$", "", "€", "", "£", "", ",", "", " ", "").Replace(cleaned)
	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return nil
	}
	return &value
}

// ParseRatingCount keeps only the digits of text and parses them.
func ParseRatingCount(text string) (int, bool) {
	digits := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, text)
	if digits == "" {
		return 0, false
	}
	count, err := strconv.Atoi(digits)
	if err != nil {
		return 0, false
	}
	return count, true
}

// WidthPercentage reads the width from an inline style such as "width: 80%;" as a fraction.
func WidthPercentage(style string) (float64, bool) {
	idx := strings.Index(style, "width")
	if idx < 0 {
		return 0, false
	}
	rest := style[idx:]
	colon := strings.Index(rest, ":")
	if colon < 0 {
		return 0, false
	}
	rest = rest[colon+1:]
	percent := strings.Index(rest, "%")
	if percent < 0 {
		return 0, false
	}
	value, err := strconv.ParseFloat(strings.TrimSpace(rest[:percent]), 64)
	if err != nil {
		return 0, false
	}
	return value / 100.0, true
}

// RatingFromText finds the first token that reads as a rating between 0 and 5,
// e.g. "4.7", "4.7/5" or "Rating: 4.7 stars".
func RatingFromText(text string) (float64, bool) {
	tokens := strings.FieldsFunc(strings.ToLower(strings.TrimSpace(text)), func(r rune) bool {
		return r == ' ' || r == ':' || r == '/' || r == '\t' || r == '\n'
	})
	for _, token := range tokens {
		value, err := strconv.ParseFloat(token, 64)
		if err != nil {
			continue
		}
		if value >= 0 && value <= 5 {
			return value, true
		}
	}
	return 0, false
}

// NormalizeRating converts a raw review rating into a 0-5 average.
// Ratings above 5 are on a ten-times scale.
func NormalizeRating(raw float64) float64 {
	if raw > 5 {
		return raw / 10
	}
	return raw
}
