package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
)

// Paths tells Load where to look for files. Empty fields are skipped.
type Paths struct {
	UserFile    string
	ProjectFile string
	DotEnv      string
}

// DefaultPaths returns ~/.royal/config.toml, royal.toml (or .royal.toml) and
// .env in the working directory.
func DefaultPaths() Paths {
	var p Paths
	if home, err := os.UserHomeDir(); err == nil {
		p.UserFile = filepath.Join(home, ".royal", UserConfigFileName)
	}
	for _, name := range []string{ProjectConfigFile, ProjectConfigHidden} {
		if _, err := os.Stat(name); err == nil {
			p.ProjectFile = name
			break
		}
	}
	p.DotEnv = ".env"
	return p
}

// Load loads configuration from multiple sources in priority order:
// 1. Defaults
// 2. User config file
// 3. Project config file
// 4. .env file (never overrides variables already set)
// 5. Environment variables (ROYAL_*)
// 6. CLI flags that were explicitly set
func Load(paths Paths, fs *pflag.FlagSet) (*Config, error) {
	cfg := Defaults()

	for _, file := range []string{paths.UserFile, paths.ProjectFile} {
		if file == "" {
			continue
		}
		if err := loadConfigFile(cfg, file); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", file, err)
		}
	}

	if paths.DotEnv != "" {
		if err := godotenv.Load(paths.DotEnv); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("loading %s: %w", paths.DotEnv, err)
		}
	}

	if err := loadFromEnv(cfg); err != nil {
		return nil, err
	}

	if fs != nil {
		if err := applyFlags(cfg, fs); err != nil {
			return nil, fmt.Errorf("parsing flags: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadConfigFile(cfg *Config, path string) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return fmt.Errorf("unknown keys: %s", strings.Join(keys, ", "))
	}
	return nil
}

// loadFromEnv overrides config from environment variables.
func loadFromEnv(cfg *Config) error {
	str := map[string]*string{
		"ROYAL_API_URL":        &cfg.APIURL,
		"ROYAL_TIMEOUT":        &cfg.Timeout,
		"ROYAL_THEME":          &cfg.Theme,
		"ROYAL_DATA_FILE":      &cfg.DataFile,
		"ROYAL_SQLITE_FILE":    &cfg.SQLiteFile,
		"ROYAL_LISTEN":         &cfg.Listen,
		"ROYAL_JWT_SECRET":     &cfg.JWTSecret,
		"ROYAL_REDIS_ADDR":     &cfg.RedisAddr,
		"ROYAL_REDIS_PASSWORD": &cfg.RedisPassword,
		"ROYAL_LOG_LEVEL":      &cfg.LogLevel,
		"ROYAL_LOG_FORMAT":     &cfg.LogFormat,
		"ROYAL_LOG_FILE":       &cfg.LogFile,
		"ROYAL_TOKEN":          &cfg.Token,
	}
	for key, dst := range str {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			*dst = v
		}
	}
	// DATABASE_URL is the conventional name; the prefixed one wins.
	for _, key := range []string{"DATABASE_URL", "ROYAL_DATABASE_URL"} {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			cfg.DatabaseURL = v
		}
	}
	if v := os.Getenv("ROYAL_BACKEND"); v != "" {
		cfg.Backend = Backend(strings.ToLower(strings.TrimSpace(v)))
	}
	if v := os.Getenv("ROYAL_SERVE_BACKEND"); v != "" {
		cfg.ServeBackend = Backend(strings.ToLower(strings.TrimSpace(v)))
	}

	ints := map[string]*int{
		"ROYAL_REDIS_DB":    &cfg.RedisDB,
		"ROYAL_RATE_LIMIT":  &cfg.RateLimit,
		"ROYAL_RATE_WINDOW": &cfg.RateWindow,
	}
	for key, dst := range ints {
		v := strings.TrimSpace(os.Getenv(key))
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: not a number: %q", key, v)
		}
		*dst = n
	}
	return nil
}
