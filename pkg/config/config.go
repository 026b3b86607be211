// Package config loads modmap settings from a YAML file and MODMAP_*
// environment variables.
//
// Precedence, highest first: command-line flags (applied by the CLI),
// environment variables, the config file, then [Defaults].
package config

import (
	"os"
	"path/filepath"

	"github.com/matzehuels/modmap/pkg/catalog"
)

// appName names the config and cache directories.
const appName = "modmap"

// Config holds every setting the CLI and the viewer read.
type Config struct {
	// Dataset is the default dataset path or URL.
	// Env: MODMAP_DATASET
	Dataset string `mapstructure:"dataset" yaml:"dataset,omitempty"`

	// SyllabusBaseURL prefixes derived syllabus links.
	// Env: MODMAP_SYLLABUS_BASE_URL
	SyllabusBaseURL string `mapstructure:"syllabusBaseURL" yaml:"syllabusBaseURL,omitempty"`

	// SearchPrefix is prepended to numeric search queries.
	// Env: MODMAP_SEARCH_PREFIX, Default: MATH
	SearchPrefix string `mapstructure:"searchPrefix" yaml:"searchPrefix,omitempty"`

	// IncludeAncillary keeps modules listed as ancillary.
	// Env: MODMAP_INCLUDE_ANCILLARY
	IncludeAncillary bool `mapstructure:"includeAncillary" yaml:"includeAncillary,omitempty"`

	// Listen is the viewer's listen address.
	// Env: MODMAP_LISTEN, Default: :8080
	Listen string `mapstructure:"listen" yaml:"listen,omitempty"`

	// RedisURL switches the viewer's preference store to Redis.
	// Env: MODMAP_REDIS_URL
	RedisURL string `mapstructure:"redisURL" yaml:"redisURL,omitempty"`

	// PrefsDir holds the CLI's preference files.
	// Env: MODMAP_PREFS_DIR, Default: $XDG_CONFIG_HOME/modmap/prefs
	PrefsDir string `mapstructure:"prefsDir" yaml:"prefsDir,omitempty"`

	// CacheDir holds cached datasets and artifacts.
	// Env: MODMAP_CACHE_DIR, Default: $XDG_CACHE_HOME/modmap
	CacheDir string `mapstructure:"cacheDir" yaml:"cacheDir,omitempty"`
}

// DefaultListen is the viewer's default listen address.
const DefaultListen = ":8080"

// Defaults returns a Config with every default populated.
func Defaults() *Config {
	return &Config{
		SyllabusBaseURL: catalog.DefaultSyllabusBaseURL,
		SearchPrefix:    catalog.DefaultSearchPrefix,
		Listen:          DefaultListen,
	}
}

// WithDefaults returns a copy of c with empty fields set to their defaults.
// Directory defaults are resolved by [DefaultCacheDir] and
// [DefaultPrefsDir] when used.
func (c *Config) WithDefaults() *Config {
	out := *c
	d := Defaults()
	if out.SyllabusBaseURL == "" {
		out.SyllabusBaseURL = d.SyllabusBaseURL
	}
	if out.SearchPrefix == "" {
		out.SearchPrefix = d.SearchPrefix
	}
	if out.Listen == "" {
		out.Listen = d.Listen
	}
	return &out
}

// DefaultConfigFile returns $XDG_CONFIG_HOME/modmap/config.yaml. MODMAP_CONFIG
// takes precedence.
func DefaultConfigFile() (string, error) {
	if p := os.Getenv("MODMAP_CONFIG"); p != "" {
		return p, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, appName, "config.yaml"), nil
}

// DefaultCacheDir returns the cache directory using the XDG convention
// (~/.cache/modmap/).
func DefaultCacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// DefaultPrefsDir returns $XDG_CONFIG_HOME/modmap/prefs.
func DefaultPrefsDir() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, appName, "prefs"), nil
}

// ResolvedCacheDir returns CacheDir or its default.
func (c *Config) ResolvedCacheDir() (string, error) {
	if c.CacheDir != "" {
		return c.CacheDir, nil
	}
	return DefaultCacheDir()
}

// ResolvedPrefsDir returns PrefsDir or its default.
func (c *Config) ResolvedPrefsDir() (string, error) {
	if c.PrefsDir != "" {
		return c.PrefsDir, nil
	}
	return DefaultPrefsDir()
}
