package fetch

import (
	"net/http"
	"net/url"
	"strings"
)

// BrowserHeaders builds the header set for a request to target, mimicking the
// browser family of userAgent. Referer is omitted on a first visit: a target
// outside the marketplace host, or the base URL itself.
func BrowserHeaders(target, baseURL, userAgent string) http.Header {
	h := make(http.Header)
	h.Set("User-Agent", userAgent)
	h.Set("Accept", "application/json, text/plain, */*")
	h.Set("Accept-Language", "en-US,en;q=0.9")
	h.Set("Cache-Control", "no-cache")

	if !isFirstVisit(target, baseURL) {
		h.Set("Referer", baseURL)
	}

	switch {
	case strings.Contains(userAgent, "Chrome"):
		h.Set("Sec-Fetch-Dest", "empty")
		h.Set("Sec-Fetch-Mode", "cors")
		h.Set("Sec-Fetch-Site", "same-origin")
	case strings.Contains(userAgent, "Firefox"):
		h.Set("Accept-Language", "en-US,en;q=0.5")
		h.Set("DNT", "1")
	}
	return h
}

func isFirstVisit(target, baseURL string) bool {
	base, err := url.Parse(baseURL)
	if err != nil || base.Host == "" {
		return true
	}
	if !strings.Contains(target, base.Host) {
		return true
	}
	return strings.TrimRight(target, "/") == strings.TrimRight(baseURL, "/")
}
