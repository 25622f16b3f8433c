// Package config reads runtime settings from the environment, optionally
// overlaid by a YAML file named in MUTATIONS_CONFIG.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/GiantWizard/wiz/mutations/internal/bazaar"
	"gopkg.in/yaml.v3"
)

const (
	AppName = "Greenhouse Mutations"
	Version = "0.3.0"
)

type Config struct {
	HTTPAddr       string        `yaml:"http_addr"`
	BazaarURL      string        `yaml:"bazaar_url"`
	BazaarCacheTTL time.Duration `yaml:"bazaar_cache_ttl"`
	BazaarRate     float64       `yaml:"bazaar_rate"`
	RedisAddr      string        `yaml:"redis_addr"`
	PrefsDB        string        `yaml:"prefs_db"`
	FeedTimeout    time.Duration `yaml:"feed_timeout"`
	Debug          bool          `yaml:"debug"`
}

func Defaults() Config {
	return Config{
		HTTPAddr:       ":8080",
		BazaarURL:      bazaar.DefaultURL,
		BazaarCacheTTL: bazaar.DefaultCacheTTL,
		BazaarRate:     1,
		PrefsDB:        "prefs.db",
		FeedTimeout:    15 * time.Second,
	}
}

// Load applies the YAML overlay (when MUTATIONS_CONFIG is set) over the
// defaults, then environment variables over that. Unparseable values keep
// what was there before.
func Load() (Config, error) {
	cfg := Defaults()
	if path := os.Getenv("MUTATIONS_CONFIG"); path != "" {
		if err := cfg.overlayFile(path); err != nil {
			return cfg, err
		}
	}
	cfg.HTTPAddr = env("HTTP_ADDR", cfg.HTTPAddr)
	cfg.BazaarURL = env("BAZAAR_URL", cfg.BazaarURL)
	cfg.BazaarCacheTTL = envDuration("BAZAAR_CACHE_TTL", cfg.BazaarCacheTTL)
	cfg.BazaarRate = envFloat("BAZAAR_RATE", cfg.BazaarRate)
	cfg.RedisAddr = env("REDIS_ADDR", cfg.RedisAddr)
	cfg.PrefsDB = env("PREFS_DB", cfg.PrefsDB)
	cfg.FeedTimeout = envDuration("FEED_TIMEOUT", cfg.FeedTimeout)
	if os.Getenv("DEBUG") == "1" {
		cfg.Debug = true
	}
	return cfg.sanitized(), nil
}

func (c *Config) overlayFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	overlay := *c
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	*c = overlay
	return nil
}

func (c Config) sanitized() Config {
	def := Defaults()
	if c.HTTPAddr == "" {
		c.HTTPAddr = def.HTTPAddr
	}
	if c.BazaarURL == "" {
		c.BazaarURL = def.BazaarURL
	}
	if c.BazaarCacheTTL <= 0 {
		c.BazaarCacheTTL = def.BazaarCacheTTL
	}
	if c.BazaarRate < 0 {
		c.BazaarRate = def.BazaarRate
	}
	if c.FeedTimeout <= 0 {
		c.FeedTimeout = def.FeedTimeout
	}
	return c
}

func env(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func envFloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

func envDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
