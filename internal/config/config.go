// Package config loads and validates crawler configuration via Viper.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/nerabuild/catalog-crawler/internal/catalog"
)

// Database providers.
const (
	ProviderPostgres = "postgres"
	ProviderMemory   = "memory"
)

// Config captures all configuration knobs loaded via Viper.
type Config struct {
	Crawler  CrawlerConfig       `mapstructure:"crawler"`
	Keywords map[string][]string `mapstructure:"keywords"`
	Sources  SourcesConfig       `mapstructure:"sources"`
	Database DatabaseConfig      `mapstructure:"database"`
	Redis    RedisConfig         `mapstructure:"redis"`
	Metrics  MetricsConfig       `mapstructure:"metrics"`
	Logging  LoggingConfig       `mapstructure:"logging"`
}

// CrawlerConfig governs fetching and pacing.
type CrawlerConfig struct {
	UserAgent       string        `mapstructure:"user_agent"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	KeywordDelay    time.Duration `mapstructure:"keyword_delay"`
	CategoryDelay   time.Duration `mapstructure:"category_delay"`
	MaxListings     int           `mapstructure:"max_listings"`
	ParallelSources bool          `mapstructure:"parallel_sources"`
	RespectRobots   bool          `mapstructure:"respect_robots"`
	Categories      []string      `mapstructure:"categories"`
}

// SourcesConfig selects platforms and optionally overrides their hosts.
type SourcesConfig struct {
	Enabled []string     `mapstructure:"enabled"`
	Taobao  SourceConfig `mapstructure:"taobao"`
	JD      SourceConfig `mapstructure:"jd"`
}

// SourceConfig holds per-platform overrides.
type SourceConfig struct {
	BaseURL string `mapstructure:"base_url"`
}

// BaseURL returns the configured host override for a source, if any.
func (s SourcesConfig) BaseURL(name string) string {
	switch name {
	case "taobao":
		return s.Taobao.BaseURL
	case "jd":
		return s.JD.BaseURL
	default:
		return ""
	}
}

// DatabaseConfig controls the catalog store.
type DatabaseConfig struct {
	Provider    string `mapstructure:"provider"`
	DSN         string `mapstructure:"dsn"`
	Table       string `mapstructure:"table"`
	MaxConns    int32  `mapstructure:"max_conns"`
	AutoMigrate bool   `mapstructure:"auto_migrate"`
}

// RedisConfig controls the optional fast-lookup store. Empty Addr disables it.
type RedisConfig struct {
	Addr      string        `mapstructure:"addr"`
	Password  string        `mapstructure:"password"`
	DB        int           `mapstructure:"db"`
	TTL       time.Duration `mapstructure:"ttl"`
	KeyPrefix string        `mapstructure:"key_prefix"`
}

// MetricsConfig controls the optional metrics listener. Empty Addr disables it.
type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// DefaultKeywords is the search keyword matrix per category.
var DefaultKeywords = map[catalog.Category][]string{
	catalog.CategoryCPU:         {"Intel i7", "Intel i9", "AMD Ryzen 7", "AMD Ryzen 9", "CPU处理器"},
	catalog.CategoryGPU:         {"RTX 4090", "RTX 4080", "RTX 4070", "RX 7900", "RX 7800", "显卡"},
	catalog.CategoryMotherboard: {"Z790", "B760", "X670", "B650", "主板"},
	catalog.CategoryRAM:         {"DDR5", "DDR4", "内存条", "16GB", "32GB"},
	catalog.CategoryStorage:     {"SSD", "NVMe", "固态硬盘", "机械硬盘"},
	catalog.CategoryPSU:         {"电源", "850W", "1000W", "金牌电源"},
	catalog.CategoryCase:        {"机箱", "ATX机箱", "ITX机箱"},
	catalog.CategoryCooler:      {"散热器", "水冷", "风冷", "CPU散热"},
}

// Load builds a Config from .env, disk and environment.
func Load(path string) (Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return Config{}, err
	}

	v := viper.New()
	v.SetEnvPrefix("CRAWLER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// loadDotEnv exports variables from an optional dotenv file without
// overriding the real environment.
func loadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("crawler.user_agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36")
	v.SetDefault("crawler.request_timeout", 15*time.Second)
	v.SetDefault("crawler.keyword_delay", 2*time.Second)
	v.SetDefault("crawler.category_delay", 5*time.Second)
	v.SetDefault("crawler.max_listings", 20)
	v.SetDefault("crawler.parallel_sources", false)
	v.SetDefault("crawler.respect_robots", false)
	categories := make([]string, 0, len(catalog.Categories))
	for _, c := range catalog.Categories {
		categories = append(categories, c.String())
		v.SetDefault("keywords."+c.String(), DefaultKeywords[c])
	}
	v.SetDefault("crawler.categories", categories)
	v.SetDefault("sources.enabled", []string{"taobao", "jd"})
	v.SetDefault("sources.taobao.base_url", "")
	v.SetDefault("sources.jd.base_url", "")
	v.SetDefault("database.provider", ProviderPostgres)
	v.SetDefault("database.dsn", "")
	v.SetDefault("database.table", "hardware")
	v.SetDefault("database.max_conns", 4)
	v.SetDefault("database.auto_migrate", true)
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.ttl", 7*24*time.Hour)
	v.SetDefault("redis.key_prefix", "catalog:price:")
	v.SetDefault("metrics.addr", "")
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Crawler.RequestTimeout <= 0 {
		return fmt.Errorf("crawler.request_timeout must be > 0")
	}
	if c.Crawler.KeywordDelay < 0 || c.Crawler.CategoryDelay < 0 {
		return fmt.Errorf("crawler delays must be >= 0")
	}
	if c.Crawler.MaxListings <= 0 {
		return fmt.Errorf("crawler.max_listings must be > 0")
	}
	if _, err := c.CategoryList(); err != nil {
		return err
	}
	for name := range c.Keywords {
		if _, err := catalog.ParseCategory(name); err != nil {
			return fmt.Errorf("keywords: %w", err)
		}
	}
	if len(c.Sources.Enabled) == 0 {
		return fmt.Errorf("sources.enabled must list at least one source")
	}
	switch c.Database.Provider {
	case ProviderPostgres:
		if c.Database.DSN == "" {
			return fmt.Errorf("database.dsn must be set when provider is %q", ProviderPostgres)
		}
	case ProviderMemory:
	default:
		return fmt.Errorf("database.provider must be %q or %q, got %q", ProviderPostgres, ProviderMemory, c.Database.Provider)
	}
	if c.Redis.TTL < 0 {
		return fmt.Errorf("redis.ttl must be >= 0")
	}
	return nil
}

// CategoryList returns the configured crawl order.
func (c Config) CategoryList() ([]catalog.Category, error) {
	if len(c.Crawler.Categories) == 0 {
		return nil, fmt.Errorf("crawler.categories must not be empty")
	}
	out := make([]catalog.Category, 0, len(c.Crawler.Categories))
	for _, raw := range c.Crawler.Categories {
		cat, err := catalog.ParseCategory(raw)
		if err != nil {
			return nil, fmt.Errorf("crawler.categories: %w", err)
		}
		out = append(out, cat)
	}
	return out, nil
}

// KeywordMatrix returns the keywords keyed by category.
func (c Config) KeywordMatrix() map[catalog.Category][]string {
	out := make(map[catalog.Category][]string, len(c.Keywords))
	for name, keywords := range c.Keywords {
		cat, err := catalog.ParseCategory(name)
		if err != nil {
			continue
		}
		out[cat] = append([]string(nil), keywords...)
	}
	return out
}
