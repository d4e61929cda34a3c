// Package config handles configuration loading and defaults.
package config

import (
	"fmt"
	"time"
)

// Backend names a store implementation.
type Backend string

const (
	BackendHTTP     Backend = "http"
	BackendJSON     Backend = "json"
	BackendSQLite   Backend = "sqlite"
	BackendPostgres Backend = "postgres"
)

// Default values.
const (
	DefaultAPIURL       = "http://localhost:8080"
	DefaultListen       = ":8080"
	DefaultTimeout      = "10s"
	DefaultLogLevel     = "warn"
	DefaultTheme        = "royal"
	DefaultRateLimit    = 0
	DefaultRateWindow   = 60
	DefaultDataFile     = "todos.json"
	DefaultSQLiteFile   = "royal.sqlite"
	UserConfigFileName  = "config.toml"
	ProjectConfigFile   = "royal.toml"
	ProjectConfigHidden = ".royal.toml"
)

// Config holds the full configuration for royal.
type Config struct {
	// Client side
	APIURL  string  `toml:"api_url"`
	Backend Backend `toml:"backend"`
	Timeout string  `toml:"timeout"`
	Theme   string  `toml:"theme"`

	// Local stores (client backends and the server)
	ServeBackend Backend `toml:"serve_backend"`
	DataFile     string  `toml:"data_file"`
	SQLiteFile   string  `toml:"sqlite_file"`
	DatabaseURL  string  `toml:"database_url"`

	// Server
	Listen        string `toml:"listen"`
	JWTSecret     string `toml:"jwt_secret"`
	RedisAddr     string `toml:"redis_addr"`
	RedisPassword string `toml:"redis_password"`
	RedisDB       int    `toml:"redis_db"`
	RateLimit     int    `toml:"rate_limit"`
	RateWindow    int    `toml:"rate_window"` // seconds

	// Logging
	LogLevel  string `toml:"log_level"`
	LogFormat string `toml:"log_format"`
	LogFile   string `toml:"log_file"`

	// Never read from files.
	Token string `toml:"-"`
}

func setDefaults(cfg *Config) {
	cfg.APIURL = DefaultAPIURL
	cfg.Backend = BackendHTTP
	cfg.Timeout = DefaultTimeout
	cfg.Theme = DefaultTheme
	cfg.ServeBackend = BackendJSON
	cfg.DataFile = DefaultDataFile
	cfg.SQLiteFile = DefaultSQLiteFile
	cfg.Listen = DefaultListen
	cfg.RateLimit = DefaultRateLimit
	cfg.RateWindow = DefaultRateWindow
	cfg.LogLevel = DefaultLogLevel
}

// Defaults returns a Config populated with defaults only.
func Defaults() *Config {
	cfg := &Config{}
	setDefaults(cfg)
	return cfg
}

// RequestTimeout parses Timeout, falling back to the default.
func (c *Config) RequestTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil || d <= 0 {
		d, _ = time.ParseDuration(DefaultTimeout)
	}
	return d
}

// RateWindowDuration is RateWindow in seconds as a duration.
func (c *Config) RateWindowDuration() time.Duration {
	return time.Duration(c.RateWindow) * time.Second
}

// Validate checks values that cannot be defaulted silently.
func (c *Config) Validate() error {
	if !validBackend(c.Backend) {
		return fmt.Errorf("unknown backend %q (want http, json, sqlite or postgres)", c.Backend)
	}
	if !validBackend(c.ServeBackend) || c.ServeBackend == BackendHTTP {
		return fmt.Errorf("serve_backend must be json, sqlite or postgres, got %q", c.ServeBackend)
	}
	if _, err := time.ParseDuration(c.Timeout); err != nil {
		return fmt.Errorf("timeout: %w", err)
	}
	if c.RateLimit < 0 || c.RateWindow <= 0 {
		return fmt.Errorf("rate_limit must be >= 0 and rate_window > 0")
	}
	if c.Backend == BackendPostgres && c.DatabaseURL == "" {
		return fmt.Errorf("backend postgres needs database_url")
	}
	return nil
}

func validBackend(b Backend) bool {
	switch b {
	case BackendHTTP, BackendJSON, BackendSQLite, BackendPostgres:
		return true
	}
	return false
}
