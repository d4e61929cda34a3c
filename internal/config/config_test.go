package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"ROYAL_API_URL", "ROYAL_BACKEND", "ROYAL_SERVE_BACKEND", "ROYAL_TIMEOUT", "ROYAL_THEME",
		"ROYAL_DATA_FILE", "ROYAL_SQLITE_FILE", "ROYAL_LISTEN", "ROYAL_JWT_SECRET",
		"ROYAL_REDIS_ADDR", "ROYAL_REDIS_PASSWORD", "ROYAL_REDIS_DB", "ROYAL_RATE_LIMIT",
		"ROYAL_RATE_WINDOW", "ROYAL_LOG_LEVEL", "ROYAL_LOG_FORMAT", "ROYAL_LOG_FILE",
		"ROYAL_TOKEN", "DATABASE_URL", "ROYAL_DATABASE_URL",
	} {
		// t.Setenv restores the original value at cleanup; unsetting
		// afterwards lets godotenv treat the key as absent.
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(Paths{}, nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.APIURL != DefaultAPIURL || cfg.Backend != BackendHTTP || cfg.ServeBackend != BackendJSON {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if cfg.RequestTimeout() != 10*time.Second {
		t.Errorf("timeout = %v", cfg.RequestTimeout())
	}
}

func TestPrecedence(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	user := filepath.Join(dir, "config.toml")
	project := filepath.Join(dir, "royal.toml")
	dotenv := filepath.Join(dir, ".env")

	writeFile(t, user, `
api_url = "http://user.example"
theme = "neon"
log_level = "info"
`)
	writeFile(t, project, `
api_url = "http://project.example"
backend = "json"
`)
	writeFile(t, dotenv, "ROYAL_THEME=mono\nROYAL_RATE_LIMIT=5\n")
	t.Setenv("ROYAL_LOG_LEVEL", "error")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs)
	if err := fs.Parse([]string{"--backend", "sqlite"}); err != nil {
		t.Fatalf("parse: %v", err)
	}

	cfg, err := Load(Paths{UserFile: user, ProjectFile: project, DotEnv: dotenv}, fs)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.APIURL != "http://project.example" {
		t.Errorf("project file should override user file: %s", cfg.APIURL)
	}
	if cfg.Theme != "mono" {
		t.Errorf(".env should override files: %s", cfg.Theme)
	}
	if cfg.RateLimit != 5 {
		t.Errorf("rate limit = %d", cfg.RateLimit)
	}
	if cfg.LogLevel != "error" {
		t.Errorf("env should override files: %s", cfg.LogLevel)
	}
	if cfg.Backend != BackendSQLite {
		t.Errorf("flag should override everything: %s", cfg.Backend)
	}
	// unset flags keep the lower layers
	if cfg.DataFile != DefaultDataFile {
		t.Errorf("data file = %s", cfg.DataFile)
	}
}

func TestUnknownKeysRejected(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "royal.toml")
	writeFile(t, path, `crown_size = 3`)
	if _, err := Load(Paths{ProjectFile: path}, nil); err == nil {
		t.Fatal("expected error for unknown key")
	}
}

func TestMissingFilesIgnored(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	_, err := Load(Paths{
		UserFile:    filepath.Join(dir, "nope.toml"),
		ProjectFile: filepath.Join(dir, "royal.toml"),
		DotEnv:      filepath.Join(dir, ".env"),
	}, nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{name: "defaults", mutate: func(*Config) {}, ok: true},
		{name: "bad backend", mutate: func(c *Config) { c.Backend = "carrier-pigeon" }},
		{name: "http serve backend", mutate: func(c *Config) { c.ServeBackend = BackendHTTP }},
		{name: "bad timeout", mutate: func(c *Config) { c.Timeout = "soon" }},
		{name: "negative rate", mutate: func(c *Config) { c.RateLimit = -1 }},
		{name: "postgres without dsn", mutate: func(c *Config) { c.Backend = BackendPostgres }},
		{name: "postgres with dsn", mutate: func(c *Config) {
			c.Backend = BackendPostgres
			c.DatabaseURL = "postgres://localhost/royal"
		}, ok: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.ok && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !tt.ok && err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestBadEnvNumber(t *testing.T) {
	clearEnv(t)
	t.Setenv("ROYAL_RATE_LIMIT", "lots")
	if _, err := Load(Paths{}, nil); err == nil {
		t.Fatal("expected error for non-numeric env")
	}
}
