// Package extract turns scraped listing text into structured attributes.
package extract

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/nerabuild/catalog-crawler/internal/catalog"
)

var priceToken = regexp.MustCompile(`\d[\d,]*(?:\.\d+)?`)

// Attributes is the structured view of one listing.
type Attributes struct {
	Brand string
	Model string
	Price float64
	Specs map[string]any
}

// Extractor applies a brand vocabulary and a spec rule table to listings.
type Extractor struct {
	vocabulary BrandVocabulary
	rules      RuleSet
}

// New builds an Extractor. Nil tables fall back to the defaults.
func New(vocabulary BrandVocabulary, rules RuleSet) *Extractor {
	if vocabulary == nil {
		vocabulary = DefaultVocabulary
	}
	if rules == nil {
		rules = DefaultRules
	}
	return &Extractor{vocabulary: vocabulary, rules: rules}
}

// Extract derives brand, model, price and specs from a raw listing.
func (e *Extractor) Extract(raw catalog.RawListing, category catalog.Category) (Attributes, error) {
	title := strings.TrimSpace(raw.Title)
	if title == "" {
		return Attributes{}, fmt.Errorf("%w: listing %q from %s has no title", catalog.ErrExtraction, raw.DetailURL, raw.Source)
	}
	brand, model := e.vocabulary.Split(title)
	return Attributes{
		Brand: brand,
		Model: model,
		Price: ParsePrice(raw.PriceText),
		Specs: e.rules.Apply(category, title),
	}, nil
}

// Record extracts a listing and assembles the canonical record for it.
func (e *Extractor) Record(raw catalog.RawListing, category catalog.Category) (catalog.CanonicalRecord, error) {
	attrs, err := e.Extract(raw, category)
	if err != nil {
		return catalog.CanonicalRecord{}, err
	}
	images := []string{}
	if raw.ImageURL != "" {
		images = append(images, raw.ImageURL)
	}
	platform := make(map[string]catalog.PlatformRef, 1)
	if raw.Source != "" {
		platform[raw.Source] = catalog.PlatformRef{
			ID:         raw.ListingID,
			ShopID:     raw.ShopID,
			ShopName:   raw.ShopName,
			URL:        raw.DetailURL,
			Rating:     raw.Rating,
			SalesCount: raw.SalesCount,
		}
	}
	return catalog.CanonicalRecord{
		Name:     strings.TrimSpace(raw.Title),
		Brand:    attrs.Brand,
		Model:    attrs.Model,
		Category: category,
		Price:    attrs.Price,
		Image:    raw.ImageURL,
		Images:   images,
		Specs:    attrs.Specs,
		Platform: platform,
	}, nil
}

// ParsePrice returns the first number in text with thousands separators
// removed, or 0 when text has no digits.
func ParsePrice(text string) float64 {
	token := priceToken.FindString(text)
	if token == "" {
		return 0
	}
	d, err := decimal.NewFromString(strings.ReplaceAll(token, ",", ""))
	if err != nil {
		return 0
	}
	return d.InexactFloat64()
}
