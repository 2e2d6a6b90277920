// Package config resolves settings from defaults, an optional config file, a
// .env file, PLAYCALL_* environment variables, and command-line flags.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable, e.g. PLAYCALL_DB.
const EnvPrefix = "PLAYCALL"

type Config struct {
	// Storage
	DB string `mapstructure:"db"`

	// Logging
	LogLevel string `mapstructure:"log_level"`

	// Analysis
	Strategy string `mapstructure:"strategy"` // "filter" or "index"
	Shards   int    `mapstructure:"shards"`   // parallel filter shards, <= 1 scans sequentially

	// Server
	Listen      string   `mapstructure:"listen"`
	CorsOrigins []string `mapstructure:"cors_origins"`

	// Cache
	RedisURL string        `mapstructure:"redis_url"` // empty disables the cache
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

// DefaultDBPath is ~/.playcall/plays.db, or ./plays.db without a home directory.
func DefaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "plays.db"
	}
	return filepath.Join(home, ".playcall", "plays.db")
}

// New returns a viper instance with defaults and environment binding applied.
func New() *viper.Viper {
	v := viper.New()
	v.SetDefault("db", DefaultDBPath())
	v.SetDefault("log_level", "info")
	v.SetDefault("strategy", "filter")
	v.SetDefault("shards", 0)
	v.SetDefault("listen", ":8080")
	v.SetDefault("cors_origins", "*")
	v.SetDefault("redis_url", "")
	v.SetDefault("cache_ttl", "10m")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads envFile (missing is fine) and configFile (optional, any format
// viper understands), then decodes v.
func Load(v *viper.Viper, configFile, envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	// A single env value arrives as one comma-separated string.
	if len(cfg.CorsOrigins) == 1 && strings.Contains(cfg.CorsOrigins[0], ",") {
		cfg.CorsOrigins = strings.Split(cfg.CorsOrigins[0], ",")
	}
	for i, o := range cfg.CorsOrigins {
		cfg.CorsOrigins[i] = strings.TrimSpace(o)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks enumerated and numeric settings.
func (c *Config) Validate() error {
	switch c.Strategy {
	case "filter", "index":
	default:
		return fmt.Errorf("config: strategy %q must be filter or index", c.Strategy)
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if c.Shards < 0 {
		return fmt.Errorf("config: shards must be >= 0, got %d", c.Shards)
	}
	if c.CacheTTL < 0 {
		return fmt.Errorf("config: cache_ttl must be >= 0, got %s", c.CacheTTL)
	}
	return nil
}

// ApplyLogging sets the standard logrus logger's level and formatter.
func (c *Config) ApplyLogging() {
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
	logrus.SetOutput(os.Stderr)
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
}
