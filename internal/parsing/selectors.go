package parsing

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/andybalholm/cascadia"
)

//go:embed selectors.json
var embeddedSelectors []byte

// Selectors names the CSS selectors used to pull listing fields out of scraped HTML.
type Selectors struct {
	SearchResultItem        string `json:"search_result_item_selector"`
	SearchResultLink        string `json:"search_result_link_selector"`
	SearchResultTitle       string `json:"search_result_title_selector"`
	SearchResultPrice       string `json:"search_result_price_selector"`
	SearchResultSeller      string `json:"search_result_seller_selector"`
	SearchResultImage       string `json:"search_result_image_selector"`
	SearchResultCategory    string `json:"search_result_category_selector"`
	ProductTitle            string `json:"product_title_selector"`
	ProductDescription      string `json:"product_description_selector"`
	ProductTechnicalDetails string `json:"product_technical_details_selector"`
	ProductRating           string `json:"product_rating_selector"`
	ProductRatingCount      string `json:"product_rating_count_selector"`
}

// DefaultSelectors returns the hard-coded selectors used when no usable configuration is available.
func DefaultSelectors() Selectors {
	return Selectors{
		SearchResultItem:        ".listing-card, .product-card, .asset-card, [class*='card']",
		SearchResultLink:        "a[href*='/listings/'], a[href*='/products/']",
		SearchResultTitle:       "h3, h2, .title, .name, [class*='title'], [class*='name']",
		SearchResultPrice:       ".price, [class*='price']",
		SearchResultSeller:      ".seller, .author, [class*='seller'], [class*='author']",
		SearchResultImage:       "img",
		SearchResultCategory:    ".category, [class*='category']",
		ProductTitle:            "h1",
		ProductDescription:      "#description, [class*='description'], #overview, [class*='overview']",
		ProductTechnicalDetails: "#tech-details, [class*='tech-details'], #technical-details, [class*='technical-details']",
		ProductRating:           "[class*='rating'] [class*='star']",
		ProductRatingCount:      "[class*='rating-count'], [class*='review-count']",
	}
}

// LoadSelectors returns the selector configuration. An empty path uses the
// embedded payload. Any payload that cannot be read or decoded yields
// DefaultSelectors; individual blank or invalid selectors are replaced by
// their default.
func LoadSelectors(path string) Selectors {
	data := embeddedSelectors
	if path != "" {
		fileData, err := os.ReadFile(path)
		if err != nil {
			log.Printf("[parsing] failed to read selectors %s, using defaults: %v", path, err)
			return DefaultSelectors()
		}
		data = fileData
	}

	sel, err := DecodeSelectors(data)
	if err != nil {
		log.Printf("[parsing] malformed selector configuration, using defaults: %v", err)
		return DefaultSelectors()
	}
	return sel
}

// DecodeSelectors parses a selector payload and fills blank or uncompilable entries from the defaults.
func DecodeSelectors(data []byte) (Selectors, error) {
	var sel Selectors
	if err := json.Unmarshal(data, &sel); err != nil {
		return Selectors{}, fmt.Errorf("failed to decode selectors: %w", err)
	}
	return sel.withDefaults(), nil
}

func (s Selectors) withDefaults() Selectors {
	d := DefaultSelectors()
	pick := func(value, fallback string) string {
		if value == "" {
			return fallback
		}
		if _, err := cascadia.Compile(value); err != nil {
			log.Printf("[parsing] invalid selector %q, using %q", value, fallback)
			return fallback
		}
		return value
	}
	return Selectors{
		SearchResultItem:        pick(s.SearchResultItem, d.SearchResultItem),
		SearchResultLink:        pick(s.SearchResultLink, d.SearchResultLink),
		SearchResultTitle:       pick(s.SearchResultTitle, d.SearchResultTitle),
		SearchResultPrice:       pick(s.SearchResultPrice, d.SearchResultPrice),
		SearchResultSeller:      pick(s.SearchResultSeller, d.SearchResultSeller),
		SearchResultImage:       pick(s.SearchResultImage, d.SearchResultImage),
		SearchResultCategory:    pick(s.SearchResultCategory, d.SearchResultCategory),
		ProductTitle:            pick(s.ProductTitle, d.ProductTitle),
		ProductDescription:      pick(s.ProductDescription, d.ProductDescription),
		ProductTechnicalDetails: pick(s.ProductTechnicalDetails, d.ProductTechnicalDetails),
		ProductRating:           pick(s.ProductRating, d.ProductRating),
		ProductRatingCount:      pick(s.ProductRatingCount, d.ProductRatingCount),
	}
}
