package catalog

var presentations = map[Category]Presentation{
	CategoryCPU: {
		Type:       "box",
		Dimensions: [3]float64{0.04, 0.04, 0.04},
		Color:      "#808080",
		Material:   "metal",
		Features:   []string{"heatsink"},
		Position:   [3]float64{0, 0.05, 0},
	},
	CategoryGPU: {
		Type:       "box",
		Dimensions: [3]float64{0.25, 0.12, 0.04},
		Color:      "#404040",
		Material:   "metal",
		Features:   []string{"fans", "rgb"},
		Position:   [3]float64{0, 0.06, 0.15},
	},
	CategoryMotherboard: {
		Type:       "box",
		Dimensions: [3]float64{0.3, 0.24, 0.02},
		Color:      "#202020",
		Material:   "plastic",
		Features:   []string{"rgb"},
	},
	CategoryRAM: {
		Type:       "box",
		Dimensions: [3]float64{0.13, 0.03, 0.01},
		Color:      "#606060",
		Material:   "plastic",
		Features:   []string{"rgb"},
		Position:   [3]float64{-0.05, 0.03, 0.05},
	},
	CategoryStorage: {
		Type:       "box",
		Dimensions: [3]float64{0.1, 0.07, 0.02},
		Color:      "#505050",
		Material:   "metal",
		Features:   []string{},
		Position:   [3]float64{0.1, 0.02, 0.05},
	},
	CategoryPSU: {
		Type:       "box",
		Dimensions: [3]float64{0.15, 0.08, 0.14},
		Color:      "#303030",
		Material:   "metal",
		Features:   []string{},
		Position:   [3]float64{0.2, -0.1, 0},
	},
	CategoryCase: {
		Type:       "box",
		Dimensions: [3]float64{0.4, 0.4, 0.2},
		Color:      "#101010",
		Material:   "metal",
		Features:   []string{"fans"},
	},
	CategoryCooler: {
		Type:       "cylinder",
		Dimensions: [3]float64{0.08, 0.08, 0.08},
		Color:      "#707070",
		Material:   "metal",
		Features:   []string{"fans"},
		Position:   [3]float64{0, 0.08, 0},
	},
}

// PresentationFor returns the rendering template for a category. Categories
// missing from the table get the cpu template. The result never aliases the table.
func PresentationFor(c Category) Presentation {
	p, ok := presentations[c]
	if !ok {
		p = presentations[CategoryCPU]
	}
	p.Features = append([]string{}, p.Features...)
	return p
}
