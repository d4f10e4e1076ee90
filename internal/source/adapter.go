// Package source implements search-page adapters for e-commerce platforms.
package source

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"

	"github.com/nerabuild/catalog-crawler/internal/catalog"
	"github.com/nerabuild/catalog-crawler/internal/clock/system"
	"github.com/nerabuild/catalog-crawler/internal/metrics"
)

// DefaultMaxListings caps the cards read from one search page.
const DefaultMaxListings = 20

var salesPattern = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(万)?`)

// Config tunes an Adapter.
type Config struct {
	MaxListings int
	Clock       catalog.Clock
}

// Adapter fetches a platform search page and parses its result cards.
type Adapter struct {
	spec        Spec
	base        *url.URL
	fetcher     catalog.Fetcher
	clock       catalog.Clock
	maxListings int
}

// New builds an Adapter for spec.
func New(spec Spec, fetcher catalog.Fetcher, cfg Config) (*Adapter, error) {
	if spec.Name == "" {
		return nil, fmt.Errorf("source spec requires a name")
	}
	if fetcher == nil {
		return nil, fmt.Errorf("source %s requires a fetcher", spec.Name)
	}
	base, err := url.Parse(spec.BaseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("source %s: invalid base url %q", spec.Name, spec.BaseURL)
	}
	if cfg.MaxListings <= 0 {
		cfg.MaxListings = DefaultMaxListings
	}
	if cfg.Clock == nil {
		cfg.Clock = system.New()
	}
	return &Adapter{
		spec:        spec,
		base:        base,
		fetcher:     fetcher,
		clock:       cfg.Clock,
		maxListings: cfg.MaxListings,
	}, nil
}

// Name returns the platform key used in platform references.
func (a *Adapter) Name() string {
	return a.spec.Name
}

// SearchURL builds the search page URL for keyword.
func (a *Adapter) SearchURL(keyword string) string {
	u := a.base.ResolveReference(&url.URL{Path: a.spec.SearchPath})
	if a.spec.Query != nil {
		u.RawQuery = a.spec.Query(keyword, a.clock.Now()).Encode()
	}
	return u.String()
}

// Fetch queries the platform for keyword and returns the parsed listings.
func (a *Adapter) Fetch(
	ctx context.Context,
	session *catalog.Session,
	category catalog.Category,
	keyword string,
) ([]catalog.RawListing, error) {
	logger := session.With(
		zap.String("source", a.spec.Name),
		zap.String("category", category.String()),
		zap.String("keyword", keyword),
	).Logger

	resp, err := a.fetcher.Fetch(ctx, catalog.FetchRequest{
		URL:     a.SearchURL(keyword),
		Headers: a.spec.Headers.Clone(),
	})
	if err != nil {
		metrics.ObserveFetchError(a.spec.Name)
		return nil, fmt.Errorf("%w: %s search %q: %w", catalog.ErrFetch, a.spec.Name, keyword, err)
	}
	listings, err := a.Parse(resp.Body)
	if err != nil {
		metrics.ObserveFetchError(a.spec.Name)
		return nil, fmt.Errorf("%w: %s parse %q: %w", catalog.ErrFetch, a.spec.Name, keyword, err)
	}
	metrics.ObserveListings(a.spec.Name, category.String(), len(listings))
	logger.Debug("search page parsed",
		zap.Int("status", resp.StatusCode),
		zap.Int("bytes", len(resp.Body)),
		zap.Int("listings", len(listings)),
		zap.Duration("duration", resp.Duration),
	)
	return listings, nil
}

// Parse extracts up to the configured cap of result cards from an HTML body.
// Missing fields are left empty; cards without a title are skipped.
func (a *Adapter) Parse(body []byte) ([]catalog.RawListing, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	var listings []catalog.RawListing
	doc.Find(a.spec.Card).EachWithBreak(func(i int, card *goquery.Selection) bool {
		if i >= a.maxListings {
			return false
		}
		if listing, ok := a.parseCard(card); ok {
			listings = append(listings, listing)
		}
		return true
	})
	return listings, nil
}

func (a *Adapter) parseCard(card *goquery.Selection) (catalog.RawListing, bool) {
	title := a.text(card, a.spec.Title)
	if title == "" {
		return catalog.RawListing{}, false
	}
	detail := a.resolve(a.attr(card, a.spec.Link, "href"))
	shopLink := a.resolve(a.attr(card, a.spec.ShopLink, "href"))
	return catalog.RawListing{
		Source:     a.spec.Name,
		Title:      title,
		PriceText:  a.text(card, a.spec.Price),
		ImageURL:   a.resolve(a.attr(card, a.spec.Image, a.spec.ImageAttrs...)),
		DetailURL:  detail,
		ListingID:  firstGroup(a.spec.ListingID, detail),
		ShopID:     firstGroup(a.spec.ShopID, shopLink),
		ShopName:   a.text(card, a.spec.ShopName),
		SalesCount: parseSales(a.text(card, a.spec.Sales)),
	}, true
}

func (a *Adapter) text(card *goquery.Selection, selector string) string {
	if selector == "" {
		return ""
	}
	return clean(card.Find(selector).First().Text())
}

// attr returns the first non-empty attribute among names on the first match.
func (a *Adapter) attr(card *goquery.Selection, selector string, names ...string) string {
	if selector == "" {
		return ""
	}
	node := card.Find(selector).First()
	for _, name := range names {
		if v, ok := node.Attr(name); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func (a *Adapter) resolve(raw string) string {
	if raw == "" {
		return ""
	}
	ref, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return a.base.ResolveReference(ref).String()
}

func clean(s string) string {
	return strings.Join(strings.Fields(norm.NFKC.String(s)), " ")
}

func firstGroup(pattern *regexp.Regexp, s string) string {
	if pattern == nil || s == "" {
		return ""
	}
	m := pattern.FindStringSubmatch(s)
	for _, g := range m[min(1, len(m)):] {
		if g != "" {
			return g
		}
	}
	return ""
}

// parseSales understands plain counts and the 万 (ten thousand) suffix.
func parseSales(text string) int {
	m := salesPattern.FindStringSubmatch(text)
	if m == nil {
		return 0
	}
	d, err := decimal.NewFromString(m[1])
	if err != nil {
		return 0
	}
	if m[2] != "" {
		d = d.Mul(decimal.NewFromInt(10000))
	}
	return int(d.IntPart())
}
