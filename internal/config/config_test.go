package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gompdf/cutticket/internal/render/pdf"
)

func clearEnv(t *testing.T) {
	for _, k := range []string{
		"CUTTICKET_LISTEN", "CUTTICKET_PUBLIC_URL", "CUTTICKET_DATABASE_URL", "CUTTICKET_REDIS_ADDR",
		"CUTTICKET_SKETCH_URL", "CUTTICKET_SKETCH_KEY", "GEMINI_API_KEY",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
	assert.Equal(t, pdf.A4, cfg.PageSize())
	assert.Equal(t, 24*time.Hour, cfg.CacheTTL())
}

func TestLoadFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "cutticket.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  listen: ":9090"
export:
  page_size: letter
  density: 1.5
  resource_paths: [assets, /srv/photos]
cache:
  redis_addr: localhost:6379
  ttl: 90m
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Server.Listen)
	assert.Equal(t, "http://localhost:8080", cfg.Server.PublicURL)
	assert.Equal(t, pdf.Letter, cfg.PageSize())
	assert.Equal(t, 1.5, cfg.Export.Density)
	assert.Equal(t, "raster", cfg.Export.Backend)
	assert.Equal(t, []string{"assets", "/srv/photos"}, cfg.Export.ResourcePaths)
	assert.Equal(t, 90*time.Minute, cfg.CacheTTL())
	assert.Equal(t, "sqlite", cfg.Store.Driver)
}

func TestLoadRejectsBadYAML(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [listen"), 0o644))
	_, err := Load(path)
	assert.ErrorContains(t, err, "failed to parse config")
}

func TestEnvOverrides(t *testing.T) {
	t.Run("database url selects postgres", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("CUTTICKET_DATABASE_URL", "postgres://u@db/cut")
		cfg := DefaultConfig()
		cfg.applyEnvOverrides()
		assert.Equal(t, "postgres", cfg.Store.Driver)
		assert.Equal(t, "postgres://u@db/cut", cfg.Store.DatabaseURL)
	})

	t.Run("sketch url selects the function provider", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("CUTTICKET_SKETCH_URL", "https://fn.example.com/sketch")
		t.Setenv("CUTTICKET_SKETCH_KEY", "k")
		cfg := DefaultConfig()
		cfg.applyEnvOverrides()
		assert.Equal(t, "function", cfg.Sketch.Provider)
		assert.Equal(t, "k", cfg.Sketch.APIKey)
	})

	t.Run("gemini key does not override an explicit provider", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("GEMINI_API_KEY", "g")
		cfg := DefaultConfig()
		cfg.Sketch.Provider = "function"
		cfg.applyEnvOverrides()
		assert.Equal(t, "function", cfg.Sketch.Provider)
		assert.Equal(t, "g", cfg.Sketch.GeminiAPIKey)
	})

	t.Run("listen and redis", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("CUTTICKET_LISTEN", "127.0.0.1:1")
		t.Setenv("CUTTICKET_REDIS_ADDR", "cache:6379")
		cfg := DefaultConfig()
		cfg.applyEnvOverrides()
		assert.Equal(t, "127.0.0.1:1", cfg.Server.Listen)
		assert.Equal(t, "cache:6379", cfg.Cache.RedisAddr)
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		want   string
	}{
		{"empty listen", func(c *Config) { c.Server.Listen = "" }, "server.listen"},
		{"bad driver", func(c *Config) { c.Store.Driver = "mongo" }, "invalid store driver"},
		{"postgres without url", func(c *Config) { c.Store.Driver = "postgres" }, "store.database_url"},
		{"bad ttl", func(c *Config) { c.Cache.TTL = "soon" }, "invalid cache.ttl"},
		{"bad page size", func(c *Config) { c.Export.PageSize = "tabloid" }, "invalid export.page_size"},
		{"zero density", func(c *Config) { c.Export.Density = 0 }, "export.density"},
		{"bad backend", func(c *Config) { c.Export.Backend = "gpu" }, "invalid export backend"},
		{"function without url", func(c *Config) { c.Sketch.Provider = "function" }, "sketch.url"},
		{"genai without key", func(c *Config) { c.Sketch.Provider = "genai" }, "sketch.gemini_api_key"},
		{"bad provider", func(c *Config) { c.Sketch.Provider = "dalle" }, "invalid sketch provider"},
	}
	require.NoError(t, DefaultConfig().Validate())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.want)
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "conf", "cutticket.yaml")
	cfg := DefaultConfig()
	cfg.Export.Backend = "browser"
	cfg.Export.ResourcePaths = []string{"photos"}
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}
