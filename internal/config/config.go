package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds process settings. Environment variables use the COREBALANCE_
// prefix, e.g. COREBALANCE_SUPABASE_URL.
type Config struct {
	DataDir string `env:"DATA_DIR"`
	DBPath  string
	LogPath string

	SupabaseURL     string `env:"SUPABASE_URL"`
	SupabaseAnonKey string `env:"SUPABASE_ANON_KEY"`

	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT"`
	RefreshMargin  time.Duration `env:"REFRESH_MARGIN"`
	RateLimit      float64       `env:"RATE_LIMIT"`
	RateBurst      int           `env:"RATE_BURST"`

	LogLevel    string `env:"LOG_LEVEL"`
	MetricsAddr string `env:"METRICS_ADDR"`
}

func Default() Config {
	dataDir := filepath.Join(userConfigDir(), "corebalance")
	return Config{
		DataDir:        dataDir,
		DBPath:         filepath.Join(dataDir, "session.db"),
		LogPath:        filepath.Join(dataDir, "debug.log"),
		RequestTimeout: 10 * time.Second,
		RefreshMargin:  30 * time.Second,
		RateLimit:      2,
		RateBurst:      5,
		LogLevel:       "info",
	}
}

// Load overlays the process environment on Default.
func Load() (Config, error) {
	return LoadFrom(env.ToMap(os.Environ()))
}

// LoadFrom overlays environ on Default. The Expo variable names
// EXPO_PUBLIC_SUPABASE_URL and EXPO_PUBLIC_SUPABASE_ANON_KEY are accepted as
// fallbacks for the provider settings.
func LoadFrom(environ map[string]string) (Config, error) {
	cfg := Default()
	defaultDir := cfg.DataDir

	if err := env.ParseWithOptions(&cfg, env.Options{
		Prefix:      "COREBALANCE_",
		Environment: environ,
	}); err != nil {
		return Config{}, fmt.Errorf("parsing environment: %w", err)
	}

	if cfg.SupabaseURL == "" {
		cfg.SupabaseURL = environ["EXPO_PUBLIC_SUPABASE_URL"]
	}
	if cfg.SupabaseAnonKey == "" {
		cfg.SupabaseAnonKey = environ["EXPO_PUBLIC_SUPABASE_ANON_KEY"]
	}
	if cfg.DataDir != defaultDir {
		cfg.DBPath = filepath.Join(cfg.DataDir, "session.db")
		cfg.LogPath = filepath.Join(cfg.DataDir, "debug.log")
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the settings needed to reach the identity provider.
func (c Config) Validate() error {
	var errs []error
	if c.SupabaseURL == "" {
		errs = append(errs, errors.New("COREBALANCE_SUPABASE_URL is required"))
	} else if u, err := url.Parse(c.SupabaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("COREBALANCE_SUPABASE_URL is not an absolute URL: %q", c.SupabaseURL))
	}
	if c.SupabaseAnonKey == "" {
		errs = append(errs, errors.New("COREBALANCE_SUPABASE_ANON_KEY is required"))
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, errors.New("COREBALANCE_REQUEST_TIMEOUT must be positive"))
	}
	if c.RefreshMargin < 0 {
		errs = append(errs, errors.New("COREBALANCE_REFRESH_MARGIN must not be negative"))
	}
	// A zero rate disables client-side pacing.
	if c.RateLimit < 0 {
		errs = append(errs, errors.New("COREBALANCE_RATE_LIMIT must not be negative"))
	}
	if c.RateBurst < 1 {
		errs = append(errs, errors.New("COREBALANCE_RATE_BURST must be positive"))
	}
	return errors.Join(errs...)
}

func userConfigDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return dir
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config")
}
