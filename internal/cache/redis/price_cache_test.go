package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nerabuild/catalog-crawler/internal/catalog"
)

type setCall struct {
	key   string
	value any
	ttl   time.Duration
}

type fakeClient struct {
	calls  []setCall
	err    error
	closed bool
}

func (f *fakeClient) Set(_ context.Context, key string, value any, expiration time.Duration) *goredis.StatusCmd {
	f.calls = append(f.calls, setCall{key: key, value: value, ttl: expiration})
	if f.err != nil {
		return goredis.NewStatusResult("", f.err)
	}
	return goredis.NewStatusResult("OK", nil)
}

func (f *fakeClient) Close() error {
	f.closed = true
	return nil
}

func TestRecordPriceWritesEntry(t *testing.T) {
	t.Parallel()

	fc := &fakeClient{}
	cache := newWithClient(fc, "", 24*time.Hour)
	key := catalog.IdentityKey{Brand: "AMD", Model: "Ryzen 7", Category: catalog.CategoryCPU}
	observed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, cache.RecordPrice(context.Background(), key, 1799.5, observed))
	require.Len(t, fc.calls, 1)
	assert.Equal(t, "catalog:price:cpu/AMD/Ryzen 7", fc.calls[0].key)
	assert.JSONEq(t, `{"price":1799.5,"observedAt":"2026-03-01T12:00:00Z"}`, string(fc.calls[0].value.([]byte)))
	assert.Equal(t, 24*time.Hour, fc.calls[0].ttl)

	require.NoError(t, cache.Close())
	assert.True(t, fc.closed)
}

func TestRecordPriceCustomPrefix(t *testing.T) {
	t.Parallel()

	cache := newWithClient(&fakeClient{}, "hw:", 0)
	assert.Equal(t, "hw:gpu/影驰/RTX4070", cache.Key(catalog.IdentityKey{Brand: "影驰", Model: "RTX4070", Category: catalog.CategoryGPU}))
}

func TestRecordPriceError(t *testing.T) {
	t.Parallel()

	cache := newWithClient(&fakeClient{err: errors.New("READONLY")}, "", 0)
	err := cache.RecordPrice(context.Background(), catalog.IdentityKey{Brand: "a"}, 1, time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "READONLY")
}

func TestNewRequiresAddr(t *testing.T) {
	t.Parallel()

	_, err := New(context.Background(), Config{})
	require.Error(t, err)
}

func TestNewUnreachable(t *testing.T) {
	t.Parallel()

	// Port 1 on loopback refuses connections.
	_, err := New(context.Background(), Config{Addr: "127.0.0.1:1", DialTimeout: 200 * time.Millisecond})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connect redis")
}

func TestCloseNil(t *testing.T) {
	t.Parallel()

	var cache *PriceCache
	assert.NoError(t, cache.Close())
}
