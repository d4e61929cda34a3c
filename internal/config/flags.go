package config

import (
	"github.com/spf13/pflag"
)

// Flag names shared by the CLI and applyFlags.
const (
	FlagAPIURL    = "api-url"
	FlagBackend   = "backend"
	FlagDataFile  = "data-file"
	FlagTheme     = "theme"
	FlagLogLevel  = "log-level"
	FlagListen    = "listen"
	FlagTimeout   = "timeout"
	FlagRateLimit = "rate-limit"
)

// RegisterFlags adds the persistent configuration flags to fs. Defaults are
// shown for help only; a flag overrides files and env only when set.
func RegisterFlags(fs *pflag.FlagSet) {
	d := Defaults()
	fs.String(FlagAPIURL, d.APIURL, "item store API base URL")
	fs.String(FlagBackend, string(d.Backend), "item store backend: http, json, sqlite or postgres")
	fs.String(FlagDataFile, d.DataFile, "data file for the json backend")
	fs.String(FlagTheme, d.Theme, "output theme: royal, classic, neon or mono")
	fs.String(FlagLogLevel, d.LogLevel, "log level: debug, info, warn or error")
	fs.String(FlagTimeout, d.Timeout, "item store request timeout")
}

// RegisterServeFlags adds flags that only apply to the API server.
func RegisterServeFlags(fs *pflag.FlagSet) {
	d := Defaults()
	fs.String(FlagListen, d.Listen, "address to listen on")
	fs.Int(FlagRateLimit, d.RateLimit, "requests per window per client (0 disables)")
}

// applyFlags copies explicitly set flags into cfg.
func applyFlags(cfg *Config, fs *pflag.FlagSet) error {
	strs := map[string]*string{
		FlagAPIURL:   &cfg.APIURL,
		FlagDataFile: &cfg.DataFile,
		FlagTheme:    &cfg.Theme,
		FlagLogLevel: &cfg.LogLevel,
		FlagListen:   &cfg.Listen,
		FlagTimeout:  &cfg.Timeout,
	}
	for name, dst := range strs {
		if !changed(fs, name) {
			continue
		}
		v, err := fs.GetString(name)
		if err != nil {
			return err
		}
		*dst = v
	}
	if changed(fs, FlagBackend) {
		v, err := fs.GetString(FlagBackend)
		if err != nil {
			return err
		}
		cfg.Backend = Backend(v)
	}
	if changed(fs, FlagRateLimit) {
		n, err := fs.GetInt(FlagRateLimit)
		if err != nil {
			return err
		}
		cfg.RateLimit = n
	}
	return nil
}

func changed(fs *pflag.FlagSet, name string) bool {
	f := fs.Lookup(name)
	return f != nil && f.Changed
}
