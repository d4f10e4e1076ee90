package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nerabuild/catalog-crawler/internal/catalog"
)

func record(source, brand, model string, price float64) catalog.CanonicalRecord {
	return catalog.CanonicalRecord{
		Name:     brand + " " + model,
		Brand:    brand,
		Model:    model,
		Category: catalog.CategoryCPU,
		Price:    price,
		Platform: map[string]catalog.PlatformRef{source: {ID: source + "-1"}},
	}
}

func TestResolveFirstSeenWinsAcrossSources(t *testing.T) {
	t.Parallel()

	fromA := record("taobao", "AMD", "Ryzen 7", 1799)
	fromB := record("jd", "AMD", "Ryzen 7", 1699)
	fromB.Platform["jd"] = catalog.PlatformRef{ID: "jd-1", Rating: 4.9, SalesCount: 5000}

	got := Resolve([]catalog.CanonicalRecord{fromA, fromB})
	require.Len(t, got, 1)
	assert.Equal(t, fromA, got[0])
}

func TestResolveKeepsOrderAndDistinctKeys(t *testing.T) {
	t.Parallel()

	in := []catalog.CanonicalRecord{
		record("taobao", "Intel", "i7-13700K", 2899),
		record("taobao", "AMD", "Ryzen 7", 1799),
		record("taobao", "Intel", "i7-13700K", 2799),
		record("jd", "Intel", "i9-14900K", 4299),
		record("jd", "AMD", "Ryzen 7", 1699),
		record("jd", "AMD", "Ryzen 7", 1599),
	}
	got := Resolve(in)
	require.Len(t, got, 3)
	assert.Equal(t, in[0], got[0])
	assert.Equal(t, in[1], got[1])
	assert.Equal(t, in[3], got[2])
}

func TestResolveKeyIsCaseSensitiveConcatenation(t *testing.T) {
	t.Parallel()

	in := []catalog.CanonicalRecord{
		record("taobao", "AMD", "Ryzen 7", 1),
		record("taobao", "amd", "Ryzen 7", 2),
		// Same concatenation "AMDRyzen 7" from a different split.
		record("jd", "AMDR", "yzen 7", 3),
	}
	got := Resolve(in)
	require.Len(t, got, 2)
	assert.Equal(t, 1.0, got[0].Price)
	assert.Equal(t, 2.0, got[1].Price)
}

func TestResolveEmpty(t *testing.T) {
	t.Parallel()

	assert.Empty(t, Resolve(nil))
}
