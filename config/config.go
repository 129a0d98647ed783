// Package config manages application configuration.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// DefaultBaseURL is the Birdsy service root.
const DefaultBaseURL = "https://birdsy.com"

// Config holds all application configuration for an archive run.
type Config struct {
	// Email is the Birdsy account email
	Email string `json:"email"`
	// Password is the Birdsy account password
	Password string `json:"password"`
	// DownloadPath is the directory receiving <id>.csv/.jpg/.mp4 triples
	DownloadPath string `json:"download_path"`
	// CreateDownloadDir creates DownloadPath when it does not exist
	CreateDownloadDir bool `json:"create_download_dir"`

	// BaseURL is the API root (default: https://birdsy.com)
	BaseURL string `json:"base_url"`
	// RequestTimeout bounds each API call (0 = no timeout)
	RequestTimeout time.Duration `json:"request_timeout"`
	// DownloadTimeout bounds each thumbnail/video stream (0 = no timeout)
	DownloadTimeout time.Duration `json:"download_timeout"`
	// RequestsPerSecond paces calls to the API host (0 = unlimited)
	RequestsPerSecond float64 `json:"requests_per_second"`
	// ArtifactRequestsPerSecond paces thumbnail/video requests to every other host (0 = unlimited)
	ArtifactRequestsPerSecond float64 `json:"artifact_requests_per_second"`
	// MaxPageAttempts is how many times one listing page is requested before the day is failed
	MaxPageAttempts int `json:"max_page_attempts"`
	// FailFast aborts the run on catalog errors instead of continuing with empty results
	FailFast bool `json:"fail_fast"`

	// LogLevel is a zerolog level name (debug, info, warn, error)
	LogLevel string `json:"log_level"`
	// LogFormat is "console" or "json"
	LogFormat string `json:"log_format"`
}

// UnmarshalJSON accepts durations either as Go duration strings ("30s") or
// as integer nanoseconds.
func (c *Config) UnmarshalJSON(data []byte) error {
	type plain Config
	aux := struct {
		*plain
		RequestTimeout  any `json:"request_timeout"`
		DownloadTimeout any `json:"download_timeout"`
	}{plain: (*plain)(c)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	var err error
	if c.RequestTimeout, err = parseDuration(aux.RequestTimeout, c.RequestTimeout); err != nil {
		return fmt.Errorf("request_timeout: %w", err)
	}
	if c.DownloadTimeout, err = parseDuration(aux.DownloadTimeout, c.DownloadTimeout); err != nil {
		return fmt.Errorf("download_timeout: %w", err)
	}
	return nil
}

func parseDuration(v any, fallback time.Duration) (time.Duration, error) {
	switch d := v.(type) {
	case nil:
		return fallback, nil
	case string:
		return time.ParseDuration(d)
	case float64:
		return time.Duration(d), nil
	default:
		return 0, fmt.Errorf("unsupported duration %v", v)
	}
}

// DefaultConfig returns configuration with safe defaults.
func DefaultConfig() *Config {
	return &Config{
		DownloadPath:              "downloads",
		CreateDownloadDir:         true,
		BaseURL:                   DefaultBaseURL,
		RequestTimeout:            30 * time.Second,
		DownloadTimeout:           0,
		RequestsPerSecond:         5,
		ArtifactRequestsPerSecond: 5,
		MaxPageAttempts:           3,
		LogLevel:                  "info",
		LogFormat:                 "console",
	}
}

// Load loads configuration from the config file and environment variables and
// applies defaults. An explicit path must exist; otherwise the default
// locations are optional.
// Priority: env vars > config file > defaults
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if err := cfg.loadFromFile(path); err != nil {
		if path != "" || !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	if err := cfg.loadFromEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// searchPaths returns the files tried when no explicit path is given.
func searchPaths() []string {
	paths := []string{"birdsync.json"}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "birdsync", "birdsync.json"))
	}
	return paths
}

// loadFromFile loads the explicit path, or the first default location that exists.
func (c *Config) loadFromFile(path string) error {
	paths := searchPaths()
	if path != "" {
		paths = []string{path}
	}

	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) && path == "" {
				continue
			}
			return err
		}

		if err := json.Unmarshal(data, c); err != nil {
			return fmt.Errorf("parse %s: %w", p, err)
		}
		return nil
	}

	return os.ErrNotExist
}

// loadFromEnv overrides config with environment variables.
func (c *Config) loadFromEnv() error {
	if v := os.Getenv("BIRDSY_EMAIL"); v != "" {
		c.Email = v
	}
	if v := os.Getenv("BIRDSY_PASSWORD"); v != "" {
		c.Password = v
	}
	if v := os.Getenv("BIRDSYNC_DOWNLOAD_PATH"); v != "" {
		c.DownloadPath = v
	}
	if v := os.Getenv("BIRDSYNC_CREATE_DOWNLOAD_DIR"); v != "" {
		c.CreateDownloadDir = v == "true" || v == "1"
	}
	if v := os.Getenv("BIRDSYNC_BASE_URL"); v != "" {
		c.BaseURL = v
	}
	if v := os.Getenv("BIRDSYNC_REQUEST_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("BIRDSYNC_REQUEST_TIMEOUT: %w", err)
		}
		c.RequestTimeout = d
	}
	if v := os.Getenv("BIRDSYNC_DOWNLOAD_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("BIRDSYNC_DOWNLOAD_TIMEOUT: %w", err)
		}
		c.DownloadTimeout = d
	}
	if v := os.Getenv("BIRDSYNC_RPS"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("BIRDSYNC_RPS: %w", err)
		}
		c.RequestsPerSecond = f
	}
	if v := os.Getenv("BIRDSYNC_ARTIFACT_RPS"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("BIRDSYNC_ARTIFACT_RPS: %w", err)
		}
		c.ArtifactRequestsPerSecond = f
	}
	if v := os.Getenv("BIRDSYNC_MAX_PAGE_ATTEMPTS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("BIRDSYNC_MAX_PAGE_ATTEMPTS: %w", err)
		}
		c.MaxPageAttempts = n
	}
	if v := os.Getenv("BIRDSYNC_FAIL_FAST"); v != "" {
		c.FailFast = v == "true" || v == "1"
	}
	if v := os.Getenv("BIRDSYNC_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("BIRDSYNC_LOG_FORMAT"); v != "" {
		c.LogFormat = v
	}
	return nil
}

// Validate checks that configuration values are valid and consistent.
// It returns an error if any configuration value is invalid.
func (c *Config) Validate() error {
	if c.Email == "" {
		return fmt.Errorf("email is required (config file or BIRDSY_EMAIL)")
	}
	if c.Password == "" {
		return fmt.Errorf("password is required (config file or BIRDSY_PASSWORD)")
	}
	if c.DownloadPath == "" {
		return fmt.Errorf("download_path is required")
	}
	if c.BaseURL == "" {
		return fmt.Errorf("base_url must not be empty")
	}
	if c.RequestTimeout < 0 {
		return fmt.Errorf("request_timeout must be non-negative")
	}
	if c.DownloadTimeout < 0 {
		return fmt.Errorf("download_timeout must be non-negative")
	}
	if c.RequestsPerSecond < 0 {
		return fmt.Errorf("requests_per_second must be non-negative")
	}
	if c.ArtifactRequestsPerSecond < 0 {
		return fmt.Errorf("artifact_requests_per_second must be non-negative")
	}
	if c.MaxPageAttempts < 1 {
		return fmt.Errorf("max_page_attempts must be >= 1")
	}
	switch c.LogFormat {
	case "console", "json":
	default:
		return fmt.Errorf("log_format must be console or json, got %q", c.LogFormat)
	}
	return nil
}
