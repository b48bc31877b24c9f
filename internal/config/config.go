// Package config loads the cutticket service configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/gompdf/cutticket/internal/render/pdf"
)

// DefaultPath is the configuration file looked up by the CLI
const DefaultPath = "cutticket.yaml"

// Config holds all cutticket configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Store   StoreConfig   `yaml:"store"`
	Blobs   BlobConfig    `yaml:"blobs"`
	Cache   CacheConfig   `yaml:"cache"`
	Export  ExportConfig  `yaml:"export"`
	Sketch  SketchConfig  `yaml:"sketch"`
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig configures the HTTP service.
type ServerConfig struct {
	Listen string `yaml:"listen"`
	// PublicURL is the externally visible base URL, used for blob links
	PublicURL string `yaml:"public_url"`
}

// StoreConfig selects the record store.
type StoreConfig struct {
	Driver      string `yaml:"driver"` // sqlite, postgres
	Path        string `yaml:"path"`
	DatabaseURL string `yaml:"database_url"`
}

// BlobConfig configures uploaded attachment storage.
type BlobConfig struct {
	Dir string `yaml:"dir"`
}

// CacheConfig configures the rendered document cache. An empty address
// disables caching.
type CacheConfig struct {
	RedisAddr string `yaml:"redis_addr"`
	Password  string `yaml:"password"`
	DB        int    `yaml:"db"`
	TTL       string `yaml:"ttl"`
}

// ExportConfig configures cut-ticket rendering.
type ExportConfig struct {
	PageSize      string   `yaml:"page_size"`
	Density       float64  `yaml:"density"`
	Backend       string   `yaml:"backend"` // raster, browser
	BrowserBin    string   `yaml:"browser_bin"`
	BrowserURL    string   `yaml:"browser_url"`
	ResourcePaths []string `yaml:"resource_paths"`
	Author        string   `yaml:"author"`
}

// SketchConfig selects the sketch generator.
type SketchConfig struct {
	Provider     string `yaml:"provider"` // function, genai; empty disables sketches
	URL          string `yaml:"url"`
	APIKey       string `yaml:"api_key"`
	Model        string `yaml:"model"`
	GeminiAPIKey string `yaml:"gemini_api_key"`
}

// LoggingConfig configures the process logger.
type LoggingConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// DefaultConfig returns the built-in configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Listen:    ":8080",
			PublicURL: "http://localhost:8080",
		},
		Store: StoreConfig{
			Driver: "sqlite",
			Path:   filepath.Join("data", "cutticket.db"),
		},
		Blobs: BlobConfig{
			Dir: filepath.Join("data", "blobs"),
		},
		Cache: CacheConfig{
			TTL: "24h",
		},
		Export: ExportConfig{
			PageSize: "A4",
			Density:  2,
			Backend:  "raster",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads path over the defaults, applies environment overrides and
// validates the result. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return nil, fmt.Errorf("failed to read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	cfg.applyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration as YAML
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("CUTTICKET_LISTEN"); v != "" {
		c.Server.Listen = v
	}
	if v := os.Getenv("CUTTICKET_PUBLIC_URL"); v != "" {
		c.Server.PublicURL = v
	}
	if v := os.Getenv("CUTTICKET_DATABASE_URL"); v != "" {
		c.Store.DatabaseURL = v
		c.Store.Driver = "postgres"
	}
	if v := os.Getenv("CUTTICKET_REDIS_ADDR"); v != "" {
		c.Cache.RedisAddr = v
	}
	if v := os.Getenv("CUTTICKET_SKETCH_URL"); v != "" {
		c.Sketch.URL = v
		if c.Sketch.Provider == "" {
			c.Sketch.Provider = "function"
		}
	}
	if v := os.Getenv("CUTTICKET_SKETCH_KEY"); v != "" {
		c.Sketch.APIKey = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		c.Sketch.GeminiAPIKey = v
		if c.Sketch.Provider == "" {
			c.Sketch.Provider = "genai"
		}
	}
}

// CacheTTL returns the cache TTL as a duration.
func (c *Config) CacheTTL() time.Duration {
	d, err := time.ParseDuration(c.Cache.TTL)
	if err != nil || d <= 0 {
		return 24 * time.Hour
	}
	return d
}

// PageSize returns the configured output page size.
func (c *Config) PageSize() pdf.PageSize {
	size, err := pdf.ParsePageSize(c.Export.PageSize)
	if err != nil {
		return pdf.A4
	}
	return size
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.Listen == "" {
		return fmt.Errorf("server.listen must not be empty")
	}
	switch c.Store.Driver {
	case "sqlite":
		if c.Store.Path == "" {
			return fmt.Errorf("store.path is required for the sqlite driver")
		}
	case "postgres":
		if c.Store.DatabaseURL == "" {
			return fmt.Errorf("store.database_url is required for the postgres driver (or set CUTTICKET_DATABASE_URL)")
		}
	default:
		return fmt.Errorf("invalid store driver: %q (valid: sqlite, postgres)", c.Store.Driver)
	}
	if c.Blobs.Dir == "" {
		return fmt.Errorf("blobs.dir must not be empty")
	}
	if c.Cache.TTL != "" {
		if _, err := time.ParseDuration(c.Cache.TTL); err != nil {
			return fmt.Errorf("invalid cache.ttl: %w", err)
		}
	}
	if _, err := pdf.ParsePageSize(c.Export.PageSize); err != nil {
		return fmt.Errorf("invalid export.page_size: %w", err)
	}
	if c.Export.Density <= 0 || c.Export.Density > 8 {
		return fmt.Errorf("export.density must be in (0, 8], got %g", c.Export.Density)
	}
	switch c.Export.Backend {
	case "raster", "browser":
	default:
		return fmt.Errorf("invalid export backend: %q (valid: raster, browser)", c.Export.Backend)
	}
	switch c.Sketch.Provider {
	case "":
	case "function":
		if c.Sketch.URL == "" {
			return fmt.Errorf("sketch.url is required for the function provider (or set CUTTICKET_SKETCH_URL)")
		}
	case "genai":
		if c.Sketch.GeminiAPIKey == "" {
			return fmt.Errorf("sketch.gemini_api_key is required for the genai provider (or set GEMINI_API_KEY)")
		}
	default:
		return fmt.Errorf("invalid sketch provider: %q (valid: function, genai)", c.Sketch.Provider)
	}
	return nil
}
