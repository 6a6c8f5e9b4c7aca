package config

import (
	"fmt"

	urlutil "github.com/cargoplus/productbot/internal/utils/url"
)

func validate(c *Config) error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be > 0")
	}
	if c.RenderTimeout <= 0 {
		return fmt.Errorf("render timeout must be > 0")
	}
	if c.RenderTimeout > c.Timeout {
		return fmt.Errorf("render timeout (%s) must not exceed timeout (%s)", c.RenderTimeout, c.Timeout)
	}
	if c.CacheTTL < 0 {
		return fmt.Errorf("cache ttl must be >= 0")
	}
	if c.CacheMaxSizeBytes <= 0 {
		return fmt.Errorf("cache max size must be > 0")
	}

	switch c.Driver {
	case "chromedp", "rod", "static", "auto":
	default:
		return fmt.Errorf("unknown driver %q (must be chromedp, rod, static, or auto)", c.Driver)
	}

	if err := urlutil.ValidateURL(c.BaseURL); err != nil {
		return fmt.Errorf("base url: %w", err)
	}

	return nil
}
