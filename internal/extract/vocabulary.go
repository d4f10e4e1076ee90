package extract

import (
	"strings"
	"unicode/utf8"

	"github.com/nerabuild/catalog-crawler/internal/catalog"
)

// BrandVocabulary is an ordered list of brand names matched against titles.
// Order matters: the first entry found in a title wins, so nested names
// (e.g. a brand that is a substring of another) are not disambiguated.
type BrandVocabulary []string

// DefaultVocabulary holds the brands seen on the supported platforms.
var DefaultVocabulary = BrandVocabulary{
	"Intel", "AMD", "NVIDIA", "ASUS", "MSI", "GIGABYTE", "ASRock",
	"Corsair", "Kingston", "Samsung", "Western Digital", "Seagate",
	"EVGA", "Cooler Master", "NZXT", "Fractal Design", "be quiet!",
	"Thermaltake", "Phanteks", "Lian Li", "华硕", "微星", "技嘉",
	"七彩虹", "影驰", "索泰", "铭瑄", "华擎", "金士顿", "海盗船",
	"三星", "西数", "希捷", "酷冷至尊", "恩杰", "分形工艺",
}

// Split returns the first vocabulary brand occurring case-insensitively in
// title, and the title with that occurrence removed and trimmed. Without a
// match the brand is catalog.UnknownBrand and the model is the title.
func (v BrandVocabulary) Split(title string) (brand, model string) {
	for _, b := range v {
		if start, end, ok := indexFold(title, b); ok {
			return b, strings.TrimSpace(title[:start] + title[end:])
		}
	}
	return catalog.UnknownBrand, title
}

// indexFold finds the first case-insensitive occurrence of substr in s and
// returns its byte bounds within s.
func indexFold(s, substr string) (int, int, bool) {
	if substr == "" {
		return 0, 0, false
	}
	runes := utf8.RuneCountInString(substr)
	for start := range s {
		end := start
		for n := 0; n < runes && end < len(s); n++ {
			_, size := utf8.DecodeRuneInString(s[end:])
			end += size
		}
		if strings.EqualFold(s[start:end], substr) {
			return start, end, true
		}
	}
	return -1, -1, false
}
