package source

import (
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"time"
)

// Spec describes how to query one platform and where listing fields live in
// its search result markup.
type Spec struct {
	Name       string
	BaseURL    string
	SearchPath string
	// Query builds the search parameters for a keyword.
	Query   func(keyword string, now time.Time) url.Values
	Headers http.Header

	Card       string
	Title      string
	Price      string
	Image      string
	ImageAttrs []string
	Link       string
	ShopName   string
	ShopLink   string
	Sales      string

	ListingID *regexp.Regexp
	ShopID    *regexp.Regexp
}

// Taobao returns the search spec for s.taobao.com.
func Taobao() Spec {
	return Spec{
		Name:       "taobao",
		BaseURL:    "https://s.taobao.com",
		SearchPath: "/search",
		Query: func(keyword string, _ time.Time) url.Values {
			return url.Values{
				"q":      {keyword},
				"sort":   {"sale-desc"},
				"filter": {"reserve_price[0,]"},
				"tab":    {"all"},
			}
		},
		Headers:    browserHeaders("https://www.taobao.com/"),
		Card:       "div.item",
		Title:      "div.title",
		Price:      "div.price",
		Image:      "img",
		ImageAttrs: []string{"src", "data-src"},
		Link:       "a",
		ShopName:   "div.shop a",
		ShopLink:   "div.shop a",
		Sales:      "div.deal-cnt",
		ListingID:  regexp.MustCompile(`[?&]id=(\d+)`),
		ShopID:     regexp.MustCompile(`user_number_id=(\d+)|shop(\d+)\.taobao\.com`),
	}
}

// JD returns the search spec for search.jd.com.
func JD() Spec {
	return Spec{
		Name:       "jd",
		BaseURL:    "https://search.jd.com",
		SearchPath: "/Search",
		Query: func(keyword string, now time.Time) url.Values {
			return url.Values{
				"keyword": {keyword},
				"enc":     {"utf-8"},
				"wq":      {keyword},
				"pvid":    {strconv.FormatInt(now.UnixMilli(), 10)},
			}
		},
		Headers:    browserHeaders("https://www.jd.com/"),
		Card:       "div.gl-item",
		Title:      "div.p-name em",
		Price:      "div.p-price",
		Image:      "img",
		ImageAttrs: []string{"data-lazy-img", "src"},
		Link:       "a",
		ShopName:   "div.p-shop a",
		ShopLink:   "div.p-shop a",
		Sales:      "div.p-commit strong a",
		ListingID:  regexp.MustCompile(`/(\d+)\.html`),
		ShopID:     regexp.MustCompile(`index-(\d+)\.html`),
	}
}

// Builtin returns the built-in platform definition registered under name.
func Builtin(name string) (Spec, bool) {
	switch name {
	case "taobao":
		return Taobao(), true
	case "jd":
		return JD(), true
	default:
		return Spec{}, false
	}
}

func browserHeaders(referer string) http.Header {
	return http.Header{
		"Accept":          {"text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"},
		"Accept-Language": {"zh-CN,zh;q=0.9,en;q=0.8"},
		"Referer":         {referer},
	}
}
