package catalog

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestParseCategory(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		input   string
		want    Category
		wantErr bool
	}{
		{"cpu", CategoryCPU, false},
		{" GPU ", CategoryGPU, false},
		{"case", CategoryCase, false},
		{"keyboard", "", true},
		{"", "", true},
	}
	for _, tc := range testCases {
		got, err := ParseCategory(tc.input)
		if tc.wantErr {
			assert.Error(t, err, tc.input)
			continue
		}
		require.NoError(t, err, tc.input)
		assert.Equal(t, tc.want, got)
	}
}

func TestCategoriesOrderAndValidity(t *testing.T) {
	t.Parallel()

	require.Len(t, Categories, 8)
	assert.Equal(t, CategoryCPU, Categories[0])
	assert.Equal(t, CategoryCooler, Categories[7])
	for _, c := range Categories {
		assert.True(t, c.Valid(), c)
	}
	assert.False(t, Category("monitor").Valid())
}

func TestIdentityAndMutable(t *testing.T) {
	t.Parallel()

	orig := 1999.0
	rec := CanonicalRecord{
		Brand:         "AMD",
		Model:         "Ryzen 7",
		Category:      CategoryCPU,
		Price:         1799,
		OriginalPrice: &orig,
		Stock:         3,
		Image:         "https://img.example/a.jpg",
	}
	key := rec.Identity()
	assert.Equal(t, IdentityKey{Brand: "AMD", Model: "Ryzen 7", Category: CategoryCPU}, key)
	assert.Equal(t, "AMDRyzen 7", key.DedupKey())
	assert.Equal(t, "cpu/AMD/Ryzen 7", key.String())

	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	m := rec.Mutable(now)
	assert.Equal(t, 1799.0, m.Price)
	assert.Equal(t, &orig, m.OriginalPrice)
	assert.Equal(t, 3, m.Stock)
	assert.Equal(t, rec.Image, m.Image)
	assert.Equal(t, now, m.UpdatedAt)
}

func TestPresentationFor(t *testing.T) {
	t.Parallel()

	gpu := PresentationFor(CategoryGPU)
	assert.Equal(t, "box", gpu.Type)
	assert.Equal(t, [3]float64{0.25, 0.12, 0.04}, gpu.Dimensions)
	assert.Equal(t, []string{"fans", "rgb"}, gpu.Features)

	cooler := PresentationFor(CategoryCooler)
	assert.Equal(t, "cylinder", cooler.Type)

	fallback := PresentationFor(Category("monitor"))
	assert.Equal(t, PresentationFor(CategoryCPU), fallback)

	// Mutating a returned template must not leak into later calls.
	gpu.Features[0] = "changed"
	assert.Equal(t, "fans", PresentationFor(CategoryGPU).Features[0])
}

func TestSessionWith(t *testing.T) {
	t.Parallel()

	started := time.Unix(1700000000, 0).UTC()
	s := NewSession("run-1", started, nil)
	require.NotNil(t, s.Logger)

	child := s.With(zap.String("category", "cpu"))
	assert.Equal(t, "run-1", child.RunID)
	assert.Equal(t, started, child.StartedAt)
	assert.NotSame(t, s, child)

	var nilSession *Session
	assert.NotNil(t, nilSession.With().Logger)
}
