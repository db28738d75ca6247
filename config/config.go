// Package config loads storefront settings from YAML.
//
// Values of the form ${VAR} or ${VAR:-default} are replaced from the
// environment before the file is parsed. Fields missing from the file keep
// their DefaultConfig values.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/poiesic/storefront/index"
	"github.com/poiesic/storefront/search"
	"gopkg.in/yaml.v3"
)

// Cache drivers.
const (
	CacheBadger = "badger"
	CacheRedis  = "redis"
	CacheNone   = "none"
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// Config holds the storefront configuration.
type Config struct {
	DataDir string        `yaml:"data_dir"`
	HTTP    HTTPConfig    `yaml:"http"`
	Cache   CacheConfig   `yaml:"cache"`
	Search  SearchConfig  `yaml:"search"`
	Index   IndexConfig   `yaml:"index"`
	Logging LoggingConfig `yaml:"logging"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// CacheConfig selects where index snapshots are kept between runs.
type CacheConfig struct {
	Driver string      `yaml:"driver"` // badger, redis, none (default: badger)
	Path   string      `yaml:"path"`   // badger directory, relative to data_dir when not absolute
	Redis  RedisConfig `yaml:"redis"`
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addrs    []string      `yaml:"addrs"`
	Username string        `yaml:"username"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

// SearchConfig holds hybrid search settings.
type SearchConfig struct {
	PoolSize        int           `yaml:"pool_size"`
	SemanticTimeout time.Duration `yaml:"semantic_timeout"`
}

// IndexConfig holds vector index settings.
type IndexConfig struct {
	MinSimilarity   float64 `yaml:"min_similarity"`
	MaxFeatures     int     `yaml:"max_features"`
	ReindexOnChange bool    `yaml:"reindex_on_change"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// DefaultConfig returns the settings used when no file is given.
func DefaultConfig() Config {
	return Config{
		DataDir: "data",
		HTTP: HTTPConfig{
			Addr:            ":8000",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    10 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Cache: CacheConfig{
			Driver: CacheBadger,
			Path:   ".index",
		},
		Search: SearchConfig{
			PoolSize:        search.DefaultPoolSize,
			SemanticTimeout: 2 * time.Second,
		},
		Index: IndexConfig{
			MinSimilarity:   index.DefaultMinSimilarity,
			MaxFeatures:     index.DefaultMaxFeatures,
			ReindexOnChange: true,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Option modifies a Config.
type Option func(*Config)

// WithDataDir sets the catalog directory.
func WithDataDir(dir string) Option {
	return func(c *Config) {
		c.DataDir = dir
	}
}

// WithAddr sets the HTTP listen address.
func WithAddr(addr string) Option {
	return func(c *Config) {
		c.HTTP.Addr = addr
	}
}

// WithCacheDriver selects the snapshot cache.
func WithCacheDriver(driver string) Option {
	return func(c *Config) {
		c.Cache.Driver = driver
	}
}

// WithLogLevel sets the log level.
func WithLogLevel(level string) Option {
	return func(c *Config) {
		c.Logging.Level = level
	}
}

// NewConfig returns DefaultConfig with opts applied.
func NewConfig(opts ...Option) Config {
	cfg := DefaultConfig()
	cfg.Apply(opts...)
	return cfg
}

// Apply applies opts in order.
func (c *Config) Apply(opts ...Option) {
	for _, opt := range opts {
		opt(c)
	}
}

// Load reads a YAML file over DefaultConfig, then normalizes and validates
// the result.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes YAML over DefaultConfig.
func Parse(data []byte) (Config, error) {
	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Normalize trims and lowercases enumerations and fills zero values that
// have no meaning of their own.
func (c *Config) Normalize() {
	defaults := DefaultConfig()

	c.Cache.Driver = strings.ToLower(strings.TrimSpace(c.Cache.Driver))
	if c.Cache.Driver == "" {
		c.Cache.Driver = defaults.Cache.Driver
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaults.Logging.Level
	}
	if c.DataDir == "" {
		c.DataDir = defaults.DataDir
	}
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = defaults.HTTP.Addr
	}
	if c.HTTP.ReadTimeout <= 0 {
		c.HTTP.ReadTimeout = defaults.HTTP.ReadTimeout
	}
	if c.HTTP.WriteTimeout <= 0 {
		c.HTTP.WriteTimeout = defaults.HTTP.WriteTimeout
	}
	if c.HTTP.ShutdownTimeout <= 0 {
		c.HTTP.ShutdownTimeout = defaults.HTTP.ShutdownTimeout
	}
	if c.Cache.Path == "" {
		c.Cache.Path = defaults.Cache.Path
	}
	if c.Search.PoolSize <= 0 {
		c.Search.PoolSize = defaults.Search.PoolSize
	}
	if c.Index.MaxFeatures <= 0 {
		c.Index.MaxFeatures = defaults.Index.MaxFeatures
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	switch c.Cache.Driver {
	case CacheBadger, CacheNone:
	case CacheRedis:
		if len(c.Cache.Redis.Addrs) == 0 {
			return fmt.Errorf("%w: cache.redis.addrs is required for the redis driver", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: cache.driver must be badger, redis or none, got %q", ErrInvalidConfig, c.Cache.Driver)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: logging.level must be debug, info, warn or error, got %q", ErrInvalidConfig, c.Logging.Level)
	}
	if c.Index.MinSimilarity < 0 || c.Index.MinSimilarity > 1 {
		return fmt.Errorf("%w: index.min_similarity must be within [0,1], got %v", ErrInvalidConfig, c.Index.MinSimilarity)
	}
	if c.Search.SemanticTimeout < 0 {
		return fmt.Errorf("%w: search.semantic_timeout cannot be negative", ErrInvalidConfig)
	}
	if c.Cache.Redis.DB < 0 {
		return fmt.Errorf("%w: cache.redis.db cannot be negative", ErrInvalidConfig)
	}
	return nil
}

// CachePath resolves the badger directory against the data directory.
func (c *Config) CachePath() string {
	if filepath.IsAbs(c.Cache.Path) {
		return c.Cache.Path
	}
	return filepath.Join(c.DataDir, c.Cache.Path)
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
