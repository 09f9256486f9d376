package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Config holds application configuration values
type Config struct {
	// Logging
	LogLevel string
	JSONLog  bool

	// HTTP/Browser
	HTTPTimeout     time.Duration
	BrowserTimeout  time.Duration
	UserAgent       string
	Proxy           string
	BrowserHeadless bool
	ChromePath      string

	// Crawl pacing
	PageDelay time.Duration
	MaxPages  int

	// Rate limiting for static fetches and image downloads
	RateLimitRPS   float64
	RateLimitBurst int

	// Static fetch cache
	CacheSize int
	CacheTTL  time.Duration

	// Cross-navigation product slot
	SlotBackend string
	SlotDir     string

	// Output
	Mode                string
	Format              string
	OutputDir           string
	DownloadConcurrency int

	// HostPattern must appear in the host of a crawl URL
	HostPattern string
	// ReviewListMarker identifies a review list location by URL
	ReviewListMarker string

	Selectors Selectors
}

// fileConfig mirrors the keys accepted in the optional config file
type fileConfig struct {
	UserAgent           string    `mapstructure:"user_agent"`
	Proxy               string    `mapstructure:"proxy"`
	ChromePath          string    `mapstructure:"chrome_path"`
	Headless            *bool     `mapstructure:"headless"`
	PageDelay           string    `mapstructure:"page_delay"`
	MaxPages            int       `mapstructure:"max_pages"`
	RateLimitRPS        float64   `mapstructure:"rate_limit_rps"`
	RateLimitBurst      int       `mapstructure:"rate_limit_burst"`
	SlotBackend         string    `mapstructure:"slot_backend"`
	SlotDir             string    `mapstructure:"slot_dir"`
	DownloadConcurrency int       `mapstructure:"download_concurrency"`
	HostPattern         string    `mapstructure:"host_pattern"`
	ReviewListMarker    string    `mapstructure:"review_list_marker"`
	Selectors           Selectors `mapstructure:"selectors"`
}

// Default returns a Config populated with defaults only
func Default() *Config {
	return &Config{
		LogLevel:            DefaultLogLevel,
		JSONLog:             DefaultJSONLog,
		HTTPTimeout:         DefaultHTTPTimeout,
		BrowserTimeout:      DefaultBrowserTimeout,
		UserAgent:           DefaultUserAgent,
		BrowserHeadless:     DefaultBrowserHeadless,
		PageDelay:           DefaultPageDelay,
		MaxPages:            DefaultMaxPages,
		RateLimitRPS:        DefaultRateLimitRPS,
		RateLimitBurst:      DefaultRateLimitBurst,
		CacheSize:           DefaultCacheSize,
		CacheTTL:            DefaultCacheTTL,
		SlotBackend:         DefaultSlotBackend,
		SlotDir:             filepath.Join(xdg.DataHome, AppName),
		Mode:                DefaultMode,
		Format:              DefaultFormat,
		OutputDir:           DefaultOutputDir,
		DownloadConcurrency: DefaultDownloadConcurrency,
		HostPattern:         DefaultHostPattern,
		ReviewListMarker:    DefaultReviewListMarker,
		Selectors:           DefaultSelectors(),
	}
}

// Load builds a Config by combining defaults, an optional config file, environment variables, and CLI flags.
// Caller should pass the root *cobra.Command so flags can be read.
func Load(cmd *cobra.Command) (*Config, error) {
	cfg := Default()

	var configPath string
	if cmd != nil {
		if f := cmd.Flags().Lookup("config"); f != nil {
			configPath = f.Value.String()
		}
	}

	if err := applyFile(cfg, configPath); err != nil {
		return nil, err
	}

	// Read CLI flags if provided
	if cmd != nil {
		if f := cmd.Flags().Lookup("user-agent"); f != nil {
			if s := f.Value.String(); s != "" {
				cfg.UserAgent = s
			}
		}
		if f := cmd.Flags().Lookup("proxy"); f != nil {
			if s := f.Value.String(); s != "" {
				cfg.Proxy = s
			}
		}
		if f := cmd.Flags().Lookup("timeout"); f != nil {
			if s := f.Value.String(); s != "" {
				d, err := time.ParseDuration(s)
				if err != nil {
					return nil, fmt.Errorf("invalid timeout %q: %w", s, err)
				}
				cfg.HTTPTimeout = d
			}
		}
		if f := cmd.Flags().Lookup("slot"); f != nil {
			if s := f.Value.String(); s != "" {
				cfg.SlotBackend = s
			}
		}
		if f := cmd.Flags().Lookup("json"); f != nil {
			if f.Value.String() == "true" {
				cfg.JSONLog = true
			}
		}
		if f := cmd.Flags().Lookup("quiet"); f != nil {
			if f.Value.String() == "true" {
				cfg.LogLevel = "error"
			}
		}
		if f := cmd.Flags().Lookup("verbose"); f != nil {
			if f.Value.String() == "true" {
				cfg.LogLevel = "debug"
			}
		}
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// applyFile overlays the config file (when given) and REVSCRAPE_* environment
// variables on top of cfg
func applyFile(cfg *Config, path string) error {
	v := viper.New()
	v.SetEnvPrefix("REVSCRAPE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for _, key := range []string{
		"user_agent", "proxy", "chrome_path", "headless", "page_delay", "max_pages",
		"rate_limit_rps", "rate_limit_burst", "slot_backend", "slot_dir",
		"download_concurrency", "host_pattern", "review_list_marker",
	} {
		_ = v.BindEnv(key)
	}
	// Chrome location is also honoured under the conventional name
	_ = v.BindEnv("chrome_path", "REVSCRAPE_CHROME_PATH", "CHROME_PATH")

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("config file not found: %s", path)
			}
			return fmt.Errorf("failed to read config file: %w", err)
		}
	} else {
		// Fall back to $XDG_CONFIG_HOME/revscrape/config.{yaml,json,toml} when present
		v.SetConfigName("config")
		v.AddConfigPath(filepath.Join(xdg.ConfigHome, AppName))
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	var fc fileConfig
	if err := v.Unmarshal(&fc); err != nil {
		return fmt.Errorf("failed to decode config: %w", err)
	}

	if fc.UserAgent != "" {
		cfg.UserAgent = fc.UserAgent
	}
	if fc.Proxy != "" {
		cfg.Proxy = fc.Proxy
	}
	if fc.ChromePath != "" {
		cfg.ChromePath = fc.ChromePath
	}
	if fc.Headless != nil {
		cfg.BrowserHeadless = *fc.Headless
	}
	if fc.PageDelay != "" {
		d, err := time.ParseDuration(fc.PageDelay)
		if err != nil {
			return fmt.Errorf("invalid page_delay %q: %w", fc.PageDelay, err)
		}
		cfg.PageDelay = d
	}
	if fc.MaxPages > 0 {
		cfg.MaxPages = fc.MaxPages
	}
	if fc.RateLimitRPS > 0 {
		cfg.RateLimitRPS = fc.RateLimitRPS
	}
	if fc.RateLimitBurst > 0 {
		cfg.RateLimitBurst = fc.RateLimitBurst
	}
	if fc.SlotBackend != "" {
		cfg.SlotBackend = fc.SlotBackend
	}
	if fc.SlotDir != "" {
		cfg.SlotDir = fc.SlotDir
	}
	if fc.DownloadConcurrency > 0 {
		cfg.DownloadConcurrency = fc.DownloadConcurrency
	}
	if fc.HostPattern != "" {
		cfg.HostPattern = fc.HostPattern
	}
	if fc.ReviewListMarker != "" {
		cfg.ReviewListMarker = fc.ReviewListMarker
	}
	cfg.Selectors = fc.Selectors.merge(cfg.Selectors)

	return nil
}
