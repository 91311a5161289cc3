package parsing

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
)

// find applies selector below sel. A selector that does not compile matches nothing.
func find(sel *goquery.Selection, selector string) *goquery.Selection {
	m, err := cascadia.Compile(selector)
	if err != nil {
		return sel.FindNodes()
	}
	return sel.FindMatcher(m)
}

// joinedText returns the trimmed text of every match, or "" when nothing matched.
func joinedText(sel *goquery.Selection, selector string) string {
	return strings.TrimSpace(find(sel, selector).Text())
}

// firstText returns the trimmed text of the first match.
func firstText(sel *goquery.Selection, selector string) string {
	return strings.TrimSpace(find(sel, selector).First().Text())
}

// firstAttr returns an attribute of the first match.
func firstAttr(sel *goquery.Selection, selector, attr string) string {
	value, _ := find(sel, selector).First().Attr(attr)
	return strings.TrimSpace(value)
}

// absoluteURL resolves href against baseURL. Unresolvable input is returned unchanged.
func absoluteURL(baseURL, href string) string {
	if href == "" {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	if ref.IsAbs() {
		return href
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}

// SlugFromURL returns the last non-empty path segment of a listing URL.
func SlugFromURL(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return ""
	}
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i := len(segments) - 1; i >= 0; i-- {
		if segments[i] != "" {
			return segments[i]
		}
	}
	return ""
}
