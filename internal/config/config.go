// Package config loads swatch configuration from defaults, a YAML file and
// SWATCH_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/swatch/internal/image"
	"github.com/jmylchreest/swatch/internal/util/imagecache"
)

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "SWATCH_"

// Output formats.
const (
	FormatHex   = "hex"
	FormatRGB   = "rgb"
	FormatJSON  = "json"
	FormatTable = "table"
)

// Preview modes.
const (
	PreviewAuto   = "auto"
	PreviewAlways = "always"
	PreviewNever  = "never"
)

// Config is the complete runtime configuration.
type Config struct {
	Resample    string        `yaml:"resample"`
	Format      string        `yaml:"format"`
	Preview     string        `yaml:"preview"`
	HTTPTimeout time.Duration `yaml:"http_timeout"`
	Server      ServerConfig  `yaml:"server"`
	Cache       CacheConfig   `yaml:"cache"`
}

// ServerConfig configures `swatch serve`.
type ServerConfig struct {
	Listen         string        `yaml:"listen"`
	MaxUploadBytes int64         `yaml:"max_upload_bytes"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	AllowURLFetch  bool          `yaml:"allow_url_fetch"`
}

// CacheConfig configures the remote image cache.
type CacheConfig struct {
	Enabled bool   `yaml:"enabled"`
	Dir     string `yaml:"dir"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Resample:    string(image.DefaultFilter),
		Format:      FormatHex,
		Preview:     PreviewAuto,
		HTTPTimeout: 10 * time.Second,
		Server: ServerConfig{
			Listen:         "127.0.0.1:8080",
			MaxUploadBytes: 20 * 1024 * 1024,
			RequestTimeout: 30 * time.Second,
			AllowURLFetch:  true,
		},
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/swatch/config.yaml (or the platform equivalent).
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to determine config directory: %w", err)
	}
	return filepath.Join(dir, "swatch", "config.yaml"), nil
}

// Load builds a configuration from defaults, the YAML file at path and the
// process environment. An empty path tries DefaultPath and ignores it if missing.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		if p, err := DefaultPath(); err == nil {
			path = p
		}
	}

	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			if explicit || !errors.Is(err, os.ErrNotExist) {
				return nil, err
			}
		}
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path) // #nosec G304 - User-specified config file, intended to be read
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse YAML config %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides fields from SWATCH_* variables using lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(EnvPrefix + name); ok && v != "" {
			*dst = v
		}
	}
	str("RESAMPLE", &c.Resample)
	str("FORMAT", &c.Format)
	str("PREVIEW", &c.Preview)
	str("LISTEN", &c.Server.Listen)
	str("CACHE_DIR", &c.Cache.Dir)

	if v, ok := lookup(EnvPrefix + "CACHE"); ok && v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %sCACHE: %w", EnvPrefix, err)
		}
		c.Cache.Enabled = enabled
	}
	if v, ok := lookup(EnvPrefix + "HTTP_TIMEOUT"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %sHTTP_TIMEOUT: %w", EnvPrefix, err)
		}
		c.HTTPTimeout = d
	}
	if v, ok := lookup(EnvPrefix + "MAX_UPLOAD_BYTES"); ok && v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid %sMAX_UPLOAD_BYTES: %w", EnvPrefix, err)
		}
		c.Server.MaxUploadBytes = n
	}
	return nil
}

// Validate checks enum fields and limits.
func (c *Config) Validate() error {
	if _, err := image.ParseFilter(c.Resample); err != nil {
		return err
	}
	if !slices.Contains(ValidFormats(), c.Format) {
		return fmt.Errorf("invalid format: %s (valid: %s)", c.Format, strings.Join(ValidFormats(), ", "))
	}
	if !slices.Contains(ValidPreviewModes(), c.Preview) {
		return fmt.Errorf("invalid preview mode: %s (valid: %s)", c.Preview, strings.Join(ValidPreviewModes(), ", "))
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("http timeout must be positive, got %s", c.HTTPTimeout)
	}
	if c.Server.Listen == "" {
		return fmt.Errorf("server listen address cannot be empty")
	}
	if c.Server.MaxUploadBytes <= 0 {
		return fmt.Errorf("max upload bytes must be positive, got %d", c.Server.MaxUploadBytes)
	}
	if c.Server.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be positive, got %s", c.Server.RequestTimeout)
	}
	return nil
}

// CacheDir returns the cache directory to use for remote images, or "" when
// caching is disabled.
func (c *Config) CacheDir() (string, error) {
	if !c.Cache.Enabled {
		return "", nil
	}
	if c.Cache.Dir != "" {
		return c.Cache.Dir, nil
	}
	return imagecache.DefaultCacheDir()
}

// ValidFormats returns the accepted output formats.
func ValidFormats() []string {
	return []string{FormatHex, FormatRGB, FormatJSON, FormatTable}
}

// ValidPreviewModes returns the accepted preview modes.
func ValidPreviewModes() []string {
	return []string{PreviewAuto, PreviewAlways, PreviewNever}
}
