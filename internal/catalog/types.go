// Package catalog defines the core types shared across the ingestion pipeline.
package catalog

import (
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Category is one of the fixed hardware component types.
type Category string

// Supported categories.
const (
	CategoryCPU         Category = "cpu"
	CategoryGPU         Category = "gpu"
	CategoryMotherboard Category = "motherboard"
	CategoryRAM         Category = "ram"
	CategoryStorage     Category = "storage"
	CategoryPSU         Category = "psu"
	CategoryCase        Category = "case"
	CategoryCooler      Category = "cooler"
)

// Categories lists every category in crawl order.
var Categories = []Category{
	CategoryCPU,
	CategoryGPU,
	CategoryMotherboard,
	CategoryRAM,
	CategoryStorage,
	CategoryPSU,
	CategoryCase,
	CategoryCooler,
}

// Valid reports whether c is a member of the enum.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// String implements fmt.Stringer.
func (c Category) String() string {
	return string(c)
}

// ParseCategory converts user input into a Category.
func ParseCategory(raw string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(raw)))
	if !c.Valid() {
		return "", fmt.Errorf("unknown category %q", raw)
	}
	return c, nil
}

// UnknownBrand is assigned when no vocabulary entry matches a title.
const UnknownBrand = "unknown"

// RawListing is a best-effort candidate record scraped from one search result card.
type RawListing struct {
	Source     string
	Title      string
	PriceText  string
	ImageURL   string
	DetailURL  string
	ListingID  string
	ShopID     string
	ShopName   string
	Rating     float64
	SalesCount int
}

// PlatformRef is the per-source reference stored on a canonical record.
type PlatformRef struct {
	ID         string  `json:"id"`
	ShopID     string  `json:"shopId"`
	ShopName   string  `json:"shopName"`
	URL        string  `json:"url"`
	Rating     float64 `json:"rating"`
	SalesCount int     `json:"salesCount"`
}

// Presentation carries the 3D rendering hints consumed by the catalog viewer.
type Presentation struct {
	Type       string     `json:"type"`
	Dimensions [3]float64 `json:"dimensions"`
	Color      string     `json:"color"`
	Material   string     `json:"material"`
	Features   []string   `json:"features"`
	Position   [3]float64 `json:"position"`
	Rotation   [3]float64 `json:"rotation"`
}

// CanonicalRecord is the normalized product entry persisted in the catalog.
type CanonicalRecord struct {
	ID            string                 `json:"id"`
	Name          string                 `json:"name" validate:"required"`
	Brand         string                 `json:"brand" validate:"required"`
	Model         string                 `json:"model"`
	Category      Category               `json:"category" validate:"required,oneof=cpu gpu motherboard ram storage psu case cooler"`
	Price         float64                `json:"price" validate:"gte=0"`
	OriginalPrice *float64               `json:"originalPrice,omitempty" validate:"omitempty,gte=0"`
	Stock         int                    `json:"stock" validate:"gte=0"`
	Image         string                 `json:"image"`
	Images        []string               `json:"images"`
	Specs         map[string]any         `json:"specs"`
	Platform      map[string]PlatformRef `json:"platform"`
	Model3D       Presentation           `json:"model3D"`
	CreatedAt     time.Time              `json:"createdAt"`
	UpdatedAt     time.Time              `json:"updatedAt"`
}

// Identity returns the store key of the record.
func (r CanonicalRecord) Identity() IdentityKey {
	return IdentityKey{Brand: r.Brand, Model: r.Model, Category: r.Category}
}

// Mutable returns the subset of fields an update is allowed to touch.
func (r CanonicalRecord) Mutable(updatedAt time.Time) MutableFields {
	return MutableFields{
		Price:         r.Price,
		OriginalPrice: r.OriginalPrice,
		Stock:         r.Stock,
		Image:         r.Image,
		UpdatedAt:     updatedAt,
	}
}

// IdentityKey is the (brand, model, category) triple that is unique in the store.
type IdentityKey struct {
	Brand    string
	Model    string
	Category Category
}

// DedupKey is the within-run resolver key: brand and model concatenated verbatim.
func (k IdentityKey) DedupKey() string {
	return k.Brand + k.Model
}

// String renders the key for logs and cache keys.
func (k IdentityKey) String() string {
	return fmt.Sprintf("%s/%s/%s", k.Category, k.Brand, k.Model)
}

// MutableFields are the volatile fields refreshed on every re-crawl.
type MutableFields struct {
	Price         float64
	OriginalPrice *float64
	Stock         int
	Image         string
	UpdatedAt     time.Time
}

// FetchRequest captures everything needed to fetch one search page.
type FetchRequest struct {
	URL     string
	Headers http.Header
}

// FetchResponse is the result returned by a Fetcher implementation.
type FetchResponse struct {
	URL        string
	StatusCode int
	Headers    http.Header
	Body       []byte
	Duration   time.Duration
}
