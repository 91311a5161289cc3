// Package slugs derives candidate marketplace slugs from free-form asset folder names.
package slugs

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	nonSlugChars   = regexp.MustCompile(`[^a-z0-9\s]`)
	nonSlugDash    = regexp.MustCompile(`[^a-z0-9-]`)
	engineToken    = regexp.MustCompile(`ue\d+(?:\.\d+)?`)
	volumeSuffix   = regexp.MustCompile(`\bvol[\s_-]*\d+$`)
	trailingNumber = regexp.MustCompile(`[\s_-]*\d+$`)
	separatorRun   = regexp.MustCompile(`[\s_-]+`)
)

// versionPatterns strip engine and version decorations from a raw folder name.
var versionPatterns = []*regexp.Regexp{
	// (5 0), (4 18), (UE5.0)
	regexp.MustCompile(`\([Uu]?[Ee]?\s*\d+(?:\s*\.\s*\d+)*\s*\)`),
	// v1.0, V2.3
	regexp.MustCompile(`[vV]\d+(?:\.\d+)*`),
	// (5 0 ), (4.27)
	regexp.MustCompile(`\(\s*\d+(?:[\s\.]\d+)*\s*\)`),
	// UE4, UE5, UE4.27
	regexp.MustCompile(`[Uu][Ee]\d+(?:\.\d+)*`),
	regexp.MustCompile(`[\s_-]+$`),
}

// stopWords never identify an asset on their own.
var stopWords = map[string]bool{
	"ue4": true, "ue5": true, "unreal": true, "engine": true,
	"pack": true, "asset": true, "assets": true, "v": true, "version": true,
}

// Generate returns candidate slugs for name, most literal first.
// The result is de-duplicated in first-seen order and never contains empty strings.
func Generate(name string) []string {
	var set orderedSet

	set.add(Slugify(name))
	set.add(Slugify(Normalize(name)))
	for _, cleaned := range RemoveVersionPatterns(name) {
		set.add(Slugify(cleaned))
	}
	for _, variation := range KeywordVariations(name) {
		set.add(variation)
	}

	return set.items
}

// Slugify lowercases name, treats underscores and dashes as spaces, drops
// everything but letters, digits and spaces, then joins the words with dashes.
func Slugify(name string) string {
	s := strings.ToLower(foldAccents(name))
	s = strings.NewReplacer("_", " ", "-", " ").Replace(s)
	s = nonSlugChars.ReplaceAllString(s, "")
	return strings.Join(strings.Fields(s), "-")
}

// Normalize strips engine tokens (ue5, ue4.27) and a trailing counter from
// name. A trailing number that belongs to "vol N" is kept.
func Normalize(name string) string {
	s := strings.ToLower(name)
	s = engineToken.ReplaceAllString(s, "")
	if !volumeSuffix.MatchString(s) {
		s = trailingNumber.ReplaceAllString(s, "")
	}
	s = separatorRun.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// RemoveVersionPatterns returns name with each version decoration removed,
// keeping only results that changed and are non-empty, followed by the text
// before the first parenthesis.
func RemoveVersionPatterns(name string) []string {
	var variations []string
	for _, pattern := range versionPatterns {
		cleaned := strings.TrimSpace(pattern.ReplaceAllString(name, ""))
		if cleaned != "" && cleaned != name {
			variations = append(variations, cleaned)
		}
	}

	if idx := strings.Index(name, "("); idx >= 0 {
		if before := strings.TrimSpace(name[:idx]); before != "" {
			variations = append(variations, before)
		}
	}
	return variations
}

// KeywordVariations joins the identifying words of name into a slug, plus the
// same slug without its last word and without its first word.
func KeywordVariations(name string) []string {
	cleaned := strings.NewReplacer("_", " ", "-", " ").Replace(foldAccents(name))

	var words []string
	for _, word := range strings.Fields(cleaned) {
		lower := strings.ToLower(word)
		if !isKeyword(lower) {
			continue
		}
		if sanitized := nonSlugDash.ReplaceAllString(lower, ""); sanitized != "" {
			words = append(words, sanitized)
		}
	}
	if len(words) == 0 {
		return nil
	}

	variations := []string{strings.Join(words, "-")}
	if len(words) > 1 {
		variations = append(variations,
			strings.Join(words[:len(words)-1], "-"),
			strings.Join(words[1:], "-"),
		)
	}
	return variations
}

// SearchQuery loosens a folder name for full-text search.
func SearchQuery(name string) string {
	return strings.NewReplacer("_", " ", "-", " ").Replace(name)
}

// isKeyword rejects stop words, numbers and any word starting with "v".
func isKeyword(word string) bool {
	if len(word) <= 1 || stopWords[word] || strings.HasPrefix(word, "v") {
		return false
	}
	return strings.IndexFunc(word, func(r rune) bool { return r != '.' && !unicode.IsDigit(r) }) >= 0
}

// foldAccents maps accented letters to their unaccented base ("Café" -> "Cafe").
func foldAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return folded
}

type orderedSet struct {
	items []string
	seen  map[string]bool
}

func (s *orderedSet) add(value string) {
	if value == "" {
		return
	}
	if s.seen == nil {
		s.seen = make(map[string]bool)
	}
	if s.seen[value] {
		return
	}
	s.seen[value] = true
	s.items = append(s.items, value)
}
