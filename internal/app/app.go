// Package app provides the core application initialization and lifecycle management.
package app

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/cargoplus/productbot/internal/cache"
	"github.com/cargoplus/productbot/internal/config"
	"github.com/cargoplus/productbot/internal/engine"
	"github.com/cargoplus/productbot/internal/engine/batch"
	"github.com/cargoplus/productbot/internal/engine/dynamic"
	"github.com/cargoplus/productbot/internal/engine/hybrid"
	"github.com/cargoplus/productbot/internal/engine/rodbrowser"
	"github.com/cargoplus/productbot/internal/engine/static"
	"github.com/cargoplus/productbot/pkg/models"
)

// Application holds all application dependencies and manages their lifecycle.
//
// It is created once at startup and shared across all CLI commands.
// Use Close() to ensure proper resource cleanup on shutdown.
type Application struct {
	Config     *config.Config
	Logger     *zerolog.Logger
	Cache      *cache.MemoryCache
	HTTPClient *http.Client
	Driver     engine.Driver
	Scraper    *engine.Scraper
	Batch      *batch.Scraper
	startTime  time.Time
}

// New creates and initializes a new Application with all dependencies.
//
// It performs the following initialization steps:
//   - Configures logging based on the provided config
//   - Creates the in-memory result cache
//   - Initializes the HTTP client used by the static driver
//   - Selects the browser driver named by the config
//   - Creates the scraper and the batch runner around it
//
// No browser is started here; each search launches its own.
func New(ctx context.Context, cfg *config.Config) (*Application, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	// Initialize logger based on config
	logLevel := zerolog.ErrorLevel // default: suppress non-verbose info logs
	switch cfg.LogLevel {
	case "debug":
		logLevel = zerolog.DebugLevel
	case "warn":
		logLevel = zerolog.WarnLevel
	default:
		logLevel = zerolog.ErrorLevel
	}
	zerolog.SetGlobalLevel(logLevel)

	var logWriter io.Writer
	if cfg.JSONLog {
		logWriter = os.Stderr
	} else {
		logWriter = zerolog.ConsoleWriter{Out: os.Stderr}
	}

	logger := zerolog.New(logWriter).With().Timestamp().Logger()
	log.Logger = logger

	logger.Debug().
		Str("level", cfg.LogLevel).
		Bool("json", cfg.JSONLog).
		Msg("Logger initialized")

	memCache := cache.NewMemoryCache(cfg.CacheMaxSizeBytes)
	logger.Debug().
		Int64("max_size_bytes", cfg.CacheMaxSizeBytes).
		Dur("ttl", cfg.CacheTTL).
		Msg("Memory cache initialized")

	site := engine.SiteFromConfig(cfg)
	if err := site.Validate(); err != nil {
		memCache.Close()
		return nil, fmt.Errorf("invalid site: %w", err)
	}

	httpClient := newHTTPClient(cfg)

	driver, err := NewDriver(cfg, httpClient)
	if err != nil {
		memCache.Close()
		return nil, err
	}

	scraper := engine.New(driver, site, engine.Options{
		Timeout:       cfg.Timeout,
		RenderTimeout: cfg.RenderTimeout,
		Cache:         memCache,
		CacheTTL:      cfg.CacheTTL,
	})

	browser := models.DriverKind(cfg.Driver) != models.DriverStatic
	batchScraper := batch.New(scraper, cfg.MaxConcurrency, browser)

	logger.Debug().
		Str("driver", driver.Name()).
		Int("concurrency", batchScraper.Concurrency()).
		Msg("Scraper initialized")

	return &Application{
		Config:     cfg,
		Logger:     &logger,
		Cache:      memCache,
		HTTPClient: httpClient,
		Driver:     driver,
		Scraper:    scraper,
		Batch:      batchScraper,
		startTime:  time.Now(),
	}, nil
}

// NewDriver builds the driver named by cfg.Driver
func NewDriver(cfg *config.Config, httpClient *http.Client) (engine.Driver, error) {
	switch models.DriverKind(cfg.Driver) {
	case models.DriverChromedp, "":
		return newChromedp(cfg), nil
	case models.DriverRod:
		return rodbrowser.New(rodbrowser.Options{
			ChromePath: cfg.ChromePath,
			Headless:   cfg.BrowserHeadless,
			UserAgent:  cfg.UserAgent,
			Proxy:      cfg.Proxy,
			Headers:    cfg.Headers,
		}), nil
	case models.DriverStatic:
		return static.New(httpClient, cfg.UserAgent, cfg.Headers), nil
	case models.DriverAuto:
		return hybrid.New(static.New(httpClient, cfg.UserAgent, cfg.Headers), newChromedp(cfg)), nil
	default:
		return nil, fmt.Errorf("unknown driver %q", cfg.Driver)
	}
}

func newChromedp(cfg *config.Config) *dynamic.Driver {
	return dynamic.New(dynamic.Options{
		ChromePath: cfg.ChromePath,
		Headless:   cfg.BrowserHeadless,
		UserAgent:  cfg.UserAgent,
		Proxy:      cfg.Proxy,
		Headers:    cfg.Headers,
	})
}

func newHTTPClient(cfg *config.Config) *http.Client {
	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	}
	if cfg.Proxy != "" {
		if u, err := url.Parse(cfg.Proxy); err == nil {
			transport.Proxy = http.ProxyURL(u)
		} else {
			log.Warn().Err(err).Str("proxy", cfg.Proxy).Msg("Ignoring invalid proxy for HTTP client")
		}
	} else {
		transport.Proxy = http.ProxyFromEnvironment
	}

	return &http.Client{
		Timeout:   cfg.Timeout,
		Transport: transport,
	}
}

// Search runs a single query with the configured driver
func (a *Application) Search(ctx context.Context, query string, maxResults int) ([]models.Product, error) {
	return a.Scraper.Run(ctx, query, maxResults)
}

// Close releases the cache and idle HTTP connections. Browsers are owned by
// individual searches and are already closed when they return.
func (a *Application) Close(ctx context.Context) error {
	event := a.Logger.Debug().Dur("uptime", time.Since(a.startTime))
	if a.Cache != nil {
		stats := a.Cache.Stats()
		event = event.
			Int("cache_entries", stats.Entries).
			Uint64("cache_hits", stats.Hits).
			Uint64("cache_misses", stats.Misses).
			Float64("cache_hit_rate", stats.HitRate())
		a.Cache.Close()
	}
	if a.HTTPClient != nil {
		a.HTTPClient.CloseIdleConnections()
	}

	event.Msg("Application shutdown complete")
	return nil
}

// Uptime returns how long the application has been running.
func (a *Application) Uptime() time.Duration {
	return time.Since(a.startTime)
}
