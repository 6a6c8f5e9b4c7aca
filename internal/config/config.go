package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	headersutil "github.com/cargoplus/productbot/internal/utils/headers"
)

// Config holds application configuration values
type Config struct {
	// Logging
	LogLevel string
	JSONLog  bool
	Quiet    bool

	// Search
	Timeout       time.Duration
	RenderTimeout time.Duration
	UserAgent     string
	Proxy         string
	Headers       map[string]string

	// Browser
	Driver          string
	ChromePath      string
	BrowserHeadless bool

	// Target site
	SiteName      string
	BaseURL       string
	SearchPath    string
	QueryParam    string

	// Caching
	CacheTTL          time.Duration
	CacheMaxSizeBytes int64

	// Batch
	MaxConcurrency int
}

// Default returns a Config populated with the built-in defaults
func Default() *Config {
	return &Config{
		LogLevel:          DefaultLogLevel,
		JSONLog:           DefaultJSONLog,
		Timeout:           DefaultTimeout,
		RenderTimeout:     DefaultRenderTimeout,
		UserAgent:         DefaultUserAgent,
		Headers:           map[string]string{},
		Driver:            DefaultDriver,
		BrowserHeadless:   DefaultBrowserHeadless,
		SiteName:          DefaultSiteName,
		BaseURL:           DefaultBaseURL,
		SearchPath:        DefaultSearchPath,
		QueryParam:        DefaultQueryParam,
		CacheTTL:          DefaultCacheTTL,
		CacheMaxSizeBytes: DefaultCacheMaxSizeBytes,
		MaxConcurrency:    DefaultMaxConcurrency,
	}
}

// Load builds a Config by combining defaults, environment variables, and CLI flags.
// Caller should pass the executing *cobra.Command so flags can be read.
func Load(cmd *cobra.Command) (*Config, error) {
	cfg := Default()

	// Override from environment variables
	if v := os.Getenv("PRODUCTBOT_USER_AGENT"); v != "" {
		cfg.UserAgent = v
	}
	if v := os.Getenv("PRODUCTBOT_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("PRODUCTBOT_CHROME_PATH"); v != "" {
		cfg.ChromePath = v
	}
	if v := os.Getenv("PRODUCTBOT_BASE_URL"); v != "" {
		cfg.BaseURL = v
	}
	if v := os.Getenv("PRODUCTBOT_DRIVER"); v != "" {
		cfg.Driver = strings.ToLower(v)
	}

	// Read CLI flags if provided
	if cmd != nil {
		if s := flagString(cmd, "user-agent"); s != "" {
			cfg.UserAgent = s
		}
		if s := flagString(cmd, "proxy"); s != "" {
			cfg.Proxy = s
		}
		if s := flagString(cmd, "chrome-path"); s != "" {
			cfg.ChromePath = s
		}
		if s := flagString(cmd, "base-url"); s != "" {
			cfg.BaseURL = s
		}
		if f := lookupFlag(cmd, "driver"); f != nil && f.Changed {
			cfg.Driver = strings.ToLower(f.Value.String())
		}
		if err := flagDuration(cmd, "timeout", &cfg.Timeout); err != nil {
			return nil, err
		}
		if err := flagDuration(cmd, "render-timeout", &cfg.RenderTimeout); err != nil {
			return nil, err
		}
		if err := flagDuration(cmd, "cache-ttl", &cfg.CacheTTL); err != nil {
			return nil, err
		}
		if flagString(cmd, "no-headless") == "true" {
			cfg.BrowserHeadless = false
		}
		if flagString(cmd, "json") == "true" {
			cfg.JSONLog = true
		}
		if flagString(cmd, "quiet") == "true" {
			cfg.LogLevel = "error"
			cfg.Quiet = true
		}
		if flagString(cmd, "verbose") == "true" {
			cfg.LogLevel = "debug"
		}
		if f := lookupFlag(cmd, "header"); f != nil {
			if sv, ok := f.Value.(pflag.SliceValue); ok {
				for k, v := range headersutil.ParseHeaders(sv.GetSlice()) {
					cfg.Headers[k] = v
				}
			}
		}
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// lookupFlag finds a flag on the command, including persistent flags inherited from parents
func lookupFlag(cmd *cobra.Command, name string) *pflag.Flag {
	if f := cmd.Flags().Lookup(name); f != nil {
		return f
	}
	if f := cmd.InheritedFlags().Lookup(name); f != nil {
		return f
	}
	return cmd.PersistentFlags().Lookup(name)
}

func flagString(cmd *cobra.Command, name string) string {
	if f := lookupFlag(cmd, name); f != nil {
		return f.Value.String()
	}
	return ""
}

func flagDuration(cmd *cobra.Command, name string, dst *time.Duration) error {
	s := flagString(cmd, name)
	if s == "" {
		return nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid --%s %q: %w", name, s, err)
	}
	*dst = d
	return nil
}
