// Package config loads the server configuration from SKYBLOCK_* environment
// variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/Sternrassler/skyblock-market/pkg/auction"
	"github.com/Sternrassler/skyblock-market/pkg/client"
	"github.com/Sternrassler/skyblock-market/pkg/logging"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every key, e.g. SKYBLOCK_BASE_URL.
const EnvPrefix = "SKYBLOCK"

// Config is the complete server configuration.
type Config struct {
	BaseURL    string
	ListenAddr string
	UserAgent  string

	LogLevel  string
	LogPretty bool

	// Zero durations and concurrency mean "no limit".
	RequestTimeout   time.Duration
	PageTimeout      time.Duration
	AggregateTimeout time.Duration
	MaxConcurrency   int

	TimeLeftMode auction.TimeLeftMode
}

// Load reads the configuration from the environment.
func Load() (Config, error) {
	return LoadFrom(viper.New())
}

// LoadFrom reads the configuration through v, binding it to the environment.
func LoadFrom(v *viper.Viper) (Config, error) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetDefault("base_url", client.DefaultBaseURL)
	v.SetDefault("listen_addr", ":8000")
	v.SetDefault("user_agent", client.DefaultConfig().UserAgent)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_pretty", false)
	v.SetDefault("request_timeout", time.Duration(0))
	v.SetDefault("page_timeout", time.Duration(0))
	v.SetDefault("aggregate_timeout", time.Duration(0))
	v.SetDefault("max_concurrency", 0)
	v.SetDefault("time_left_mode", string(auction.TimeLeftEndAsDuration))

	mode, err := auction.ParseTimeLeftMode(v.GetString("time_left_mode"))
	if err != nil {
		return Config{}, fmt.Errorf("time_left_mode: %w", err)
	}

	cfg := Config{
		BaseURL:          v.GetString("base_url"),
		ListenAddr:       v.GetString("listen_addr"),
		UserAgent:        v.GetString("user_agent"),
		LogLevel:         v.GetString("log_level"),
		LogPretty:        v.GetBool("log_pretty"),
		RequestTimeout:   v.GetDuration("request_timeout"),
		PageTimeout:      v.GetDuration("page_timeout"),
		AggregateTimeout: v.GetDuration("aggregate_timeout"),
		MaxConcurrency:   v.GetInt("max_concurrency"),
		TimeLeftMode:     mode,
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base_url is required")
	}
	if c.ListenAddr == "" {
		return fmt.Errorf("listen_addr is required")
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	if c.RequestTimeout < 0 {
		return fmt.Errorf("request_timeout must be >= 0 (got %s)", c.RequestTimeout)
	}
	if c.PageTimeout < 0 {
		return fmt.Errorf("page_timeout must be >= 0 (got %s)", c.PageTimeout)
	}
	if c.AggregateTimeout < 0 {
		return fmt.Errorf("aggregate_timeout must be >= 0 (got %s)", c.AggregateTimeout)
	}
	if c.MaxConcurrency < 0 {
		return fmt.Errorf("max_concurrency must be >= 0 (got %d)", c.MaxConcurrency)
	}
	return nil
}
