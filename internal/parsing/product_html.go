package parsing

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonathan/asset-scout/internal/types"
)

// Tab labels on the product page, compared after trimming and lowercasing.
const (
	descriptionTab = "detailed description"
	technicalTab   = "technical description"
)

// ratingCountSelectors are tried in order; the first parseable count wins.
var ratingCountSelectors = []string{
	".product-header__rating .total",
	".rating-count",
	".review-count",
	"[class*='rating'] [class*='count']",
	"[class*='review'] [class*='count']",
}

// starSelectors are tried in order; the first variant with any width-bearing star wins.
var starSelectors = []string{
	".rating.hasRatings.stars .star .front",
	".product-header__rating .rating .star .front",
	".rating .star .front",
	"[class*='rating'] [class*='star'] .front",
	".stars .star .front",
}

// textRatingSelectors are the fallback when no star widths are found.
var textRatingSelectors = []string{
	".rating-value",
	".average-rating",
	".product-rating",
	"[class*='rating'] [class*='value']",
}

// ParseProductHTML extracts what it can from a rendered product page.
// It never fails: anything missing or unparseable is left empty.
func ParseProductHTML(html string, sel Selectors) *types.Listing {
	listing := &types.Listing{}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return listing
	}
	root := doc.Selection

	listing.Title = firstText(root, sel.ProductTitle)
	listing.Description, listing.TechnicalDetails = tabContents(doc)

	// Pages without a tab bar
	if listing.Description == "" {
		listing.Description = joinedText(root, sel.ProductDescription)
	}
	if listing.TechnicalDetails == "" {
		listing.TechnicalDetails = joinedText(root, sel.ProductTechnicalDetails)
	}

	for _, selector := range ratingCountSelectors {
		text := joinedText(root, selector)
		if text == "" {
			continue
		}
		if count, ok := ParseRatingCount(text); ok {
			listing.RatingCount = types.IntPtr(count)
			break
		}
	}

	if rating, ok := starRating(root); ok {
		listing.RatingAverage = types.Float64Ptr(rating)
	} else {
		for _, selector := range textRatingSelectors {
			if rating, ok := RatingFromText(joinedText(root, selector)); ok {
				listing.RatingAverage = types.Float64Ptr(rating)
				break
			}
		}
	}

	return listing
}

// tabContents pairs tab labels with panels by position and returns the inner
// HTML of the description and technical panels.
func tabContents(doc *goquery.Document) (description, technical string) {
	var labels []string
	doc.Find(".tabs-bar .tab").Each(func(_ int, s *goquery.Selection) {
		labels = append(labels, strings.ToLower(strings.TrimSpace(s.Text())))
	})
	panels := doc.Find(".tabs-content > div")

	panelHTML := func(label string) string {
		for i, l := range labels {
			if l != label {
				continue
			}
			if i >= panels.Length() {
				return ""
			}
			inner, err := panels.Eq(i).Html()
			if err != nil {
				return ""
			}
			return inner
		}
		return ""
	}

	return panelHTML(descriptionTab), panelHTML(technicalTab)
}

// starRating sums the filled fraction of each star for the first selector variant that matches.
func starRating(root *goquery.Selection) (float64, bool) {
	for _, selector := range starSelectors {
		total := 0.0
		found := false
		find(root, selector).Each(func(_ int, s *goquery.Selection) {
			style, ok := s.Attr("style")
			if !ok {
				return
			}
			if width, ok := WidthPercentage(style); ok {
				total += width
				found = true
			}
		})
		if found {
			return total, true
		}
	}
	return 0, false
}
