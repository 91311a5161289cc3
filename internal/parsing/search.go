package parsing

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonathan/asset-scout/internal/types"
)

// productLinkSelector finds product links inside a search result item.
const productLinkSelector = "a[href*='/product/']"

// ParseSearchResults turns a search results page into listing summaries.
// Items without a title are skipped.
func ParseSearchResults(html string, sel Selectors, baseURL string) []types.Listing {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	var results []types.Listing
	find(doc.Selection, sel.SearchResultItem).Each(func(_ int, item *goquery.Selection) {
		listing := types.Listing{
			Title:  firstText(item, sel.SearchResultTitle),
			Seller: firstText(item, sel.SearchResultSeller),
		}
		if listing.Title == "" {
			return
		}
		if price := firstText(item, sel.SearchResultPrice); price != "" {
			listing.Price = ParsePrice(price)
		}
		if category := firstText(item, sel.SearchResultCategory); category != "" {
			listing.Categories = []string{category}
		}
		if src := firstAttr(item, sel.SearchResultImage, "src"); src != "" {
			listing.ThumbnailURL = absoluteURL(baseURL, src)
		}
		href := firstAttr(item, sel.SearchResultLink, "href")
		if href == "" {
			href = firstAttr(item, productLinkSelector, "href")
		}
		if href != "" {
			listing.SourceURL = absoluteURL(baseURL, href)
			listing.Slug = SlugFromURL(listing.SourceURL)
		}
		results = append(results, listing)
	})
	return results
}

// FindFirstProductLink returns the absolute URL of the first product link
// inside the first search result item, or "" if there is none.
func FindFirstProductLink(html, itemSelector, baseURL string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}
	href := firstAttr(find(doc.Selection, itemSelector).First(), productLinkSelector, "href")
	return absoluteURL(baseURL, href)
}
