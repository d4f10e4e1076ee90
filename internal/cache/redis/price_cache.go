// Package redis keeps the latest observed price per catalog identity in Redis.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/nerabuild/catalog-crawler/internal/catalog"
)

const defaultKeyPrefix = "catalog:price:"

// Config holds Redis connection configuration.
type Config struct {
	Addr        string
	Password    string
	DB          int
	TTL         time.Duration
	KeyPrefix   string
	DialTimeout time.Duration
}

type client interface {
	Set(ctx context.Context, key string, value any, expiration time.Duration) *goredis.StatusCmd
	Close() error
}

// PriceCache implements catalog.PriceCache on top of Redis.
type PriceCache struct {
	client    client
	keyPrefix string
	ttl       time.Duration
}

type priceEntry struct {
	Price      float64   `json:"price"`
	ObservedAt time.Time `json:"observedAt"`
}

// New connects to Redis and verifies the connection.
func New(ctx context.Context, cfg Config) (*PriceCache, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("redis.addr is required")
	}
	dialTimeout := cfg.DialTimeout
	if dialTimeout <= 0 {
		dialTimeout = 5 * time.Second
	}
	c := goredis.NewClient(&goredis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: dialTimeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()
	if err := c.Ping(pingCtx).Err(); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("connect redis %s: %w", cfg.Addr, err)
	}
	return newWithClient(c, cfg.KeyPrefix, cfg.TTL), nil
}

func newWithClient(c client, keyPrefix string, ttl time.Duration) *PriceCache {
	if keyPrefix == "" {
		keyPrefix = defaultKeyPrefix
	}
	return &PriceCache{client: c, keyPrefix: keyPrefix, ttl: ttl}
}

// Key returns the Redis key used for an identity.
func (c *PriceCache) Key(key catalog.IdentityKey) string {
	return c.keyPrefix + key.String()
}

// RecordPrice stores the latest price observed for key.
func (c *PriceCache) RecordPrice(ctx context.Context, key catalog.IdentityKey, price float64, observedAt time.Time) error {
	payload, err := json.Marshal(priceEntry{Price: price, ObservedAt: observedAt.UTC()})
	if err != nil {
		return fmt.Errorf("marshal price entry: %w", err)
	}
	if err := c.client.Set(ctx, c.Key(key), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("record price %s: %w", key, err)
	}
	return nil
}

// Close closes the Redis client.
func (c *PriceCache) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	if err := c.client.Close(); err != nil {
		return fmt.Errorf("close redis: %w", err)
	}
	return nil
}
