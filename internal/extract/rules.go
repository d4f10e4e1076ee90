package extract

import (
	"regexp"
	"strconv"

	"github.com/nerabuild/catalog-crawler/internal/catalog"
)

// ValueParser converts a regexp submatch into a spec value.
type ValueParser func(match []string) (any, bool)

// SpecRule maps a title pattern to one spec attribute.
type SpecRule struct {
	Attribute string
	Pattern   *regexp.Regexp
	Value     ValueParser
}

// RuleSet groups spec rules by category. Rules for the same attribute are
// tried in order and the first one that yields a value wins.
type RuleSet map[catalog.Category][]SpecRule

// DefaultRules is the attribute table for the categories whose titles carry
// reliable numeric hints.
var DefaultRules = RuleSet{
	catalog.CategoryCPU: {
		{Attribute: "cores", Pattern: regexp.MustCompile(`(?i)(\d+)\s*(?:核|cores?)`), Value: intValue},
		{Attribute: "threads", Pattern: regexp.MustCompile(`(?i)(\d+)\s*(?:线程|threads?)`), Value: intValue},
		{Attribute: "baseClock", Pattern: regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*GHz`), Value: floatValue},
	},
	catalog.CategoryGPU: {
		{Attribute: "gpuMemory", Pattern: regexp.MustCompile(`(?i)(\d+)\s*GB`), Value: intValue},
	},
	catalog.CategoryRAM: {
		{Attribute: "ramCapacity", Pattern: regexp.MustCompile(`(?i)(\d+)\s*GB`), Value: intValue},
		{Attribute: "speed", Pattern: regexp.MustCompile(`(?i)(\d+)\s*MHz`), Value: intValue},
	},
	catalog.CategoryStorage: {
		{Attribute: "storageCapacity", Pattern: regexp.MustCompile(`(?i)(\d+)\s*GB`), Value: intValue},
		{Attribute: "type", Pattern: regexp.MustCompile(`(?i)SSD`), Value: constant("SSD")},
		{Attribute: "type", Pattern: regexp.MustCompile(`(?i)HDD|机械`), Value: constant("HDD")},
	},
}

// Apply evaluates the rules for category against title.
func (rs RuleSet) Apply(category catalog.Category, title string) map[string]any {
	specs := make(map[string]any)
	for _, rule := range rs[category] {
		if _, done := specs[rule.Attribute]; done {
			continue
		}
		match := rule.Pattern.FindStringSubmatch(title)
		if match == nil {
			continue
		}
		if v, ok := rule.Value(match); ok {
			specs[rule.Attribute] = v
		}
	}
	return specs
}

func intValue(match []string) (any, bool) {
	if len(match) < 2 {
		return nil, false
	}
	n, err := strconv.Atoi(match[1])
	if err != nil {
		return nil, false
	}
	return n, true
}

func floatValue(match []string) (any, bool) {
	if len(match) < 2 {
		return nil, false
	}
	f, err := strconv.ParseFloat(match[1], 64)
	if err != nil {
		return nil, false
	}
	return f, true
}

func constant(v string) ValueParser {
	return func([]string) (any, bool) {
		return v, true
	}
}
