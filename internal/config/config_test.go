package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	for _, k := range []string{"MUTATIONS_CONFIG", "HTTP_ADDR", "BAZAAR_URL", "BAZAAR_CACHE_TTL", "BAZAAR_RATE", "REDIS_ADDR", "PREFS_DB", "FEED_TIMEOUT", "DEBUG"} {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, Defaults(), cfg)
	assert.Equal(t, 10*time.Minute, cfg.BazaarCacheTTL)
	assert.Equal(t, 15*time.Second, cfg.FeedTimeout)
}

func TestLoadEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("BAZAAR_CACHE_TTL", "2m")
	t.Setenv("BAZAAR_RATE", "0.5")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("FEED_TIMEOUT", "garbage")
	t.Setenv("DEBUG", "1")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, 2*time.Minute, cfg.BazaarCacheTTL)
	assert.Equal(t, 0.5, cfg.BazaarRate)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, 15*time.Second, cfg.FeedTimeout, "unparseable values keep the default")
	assert.True(t, cfg.Debug)
}

func TestLoadYAMLOverlay(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "mutations.yaml")
	require.NoError(t, os.WriteFile(path, []byte("http_addr: \":7000\"\nprefs_db: /tmp/p.db\nbazaar_cache_ttl: 30s\nbazaar_rate: -4\n"), 0o644))
	t.Setenv("MUTATIONS_CONFIG", path)
	t.Setenv("PREFS_DB", "env.db")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":7000", cfg.HTTPAddr)
	assert.Equal(t, "env.db", cfg.PrefsDB, "environment wins over the file")
	assert.Equal(t, 30*time.Second, cfg.BazaarCacheTTL)
	assert.Equal(t, 1.0, cfg.BazaarRate)
}

func TestLoadBadOverlay(t *testing.T) {
	clearEnv(t)
	t.Setenv("MUTATIONS_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))
	_, err := Load()
	assert.Error(t, err)
}
