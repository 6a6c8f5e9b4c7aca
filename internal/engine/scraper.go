package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cargoplus/productbot/internal/cache"
	"github.com/cargoplus/productbot/internal/config"
	"github.com/cargoplus/productbot/internal/reqctx"
	"github.com/cargoplus/productbot/pkg/models"
	"github.com/rs/zerolog/log"
)

// Options tunes a Scraper. Zero values fall back to the config defaults.
type Options struct {
	// Timeout bounds a whole Run, from launch to the last field read
	Timeout time.Duration

	// RenderTimeout bounds the wait for the first result card
	RenderTimeout time.Duration

	// Cache, when set together with a positive CacheTTL, memoizes results
	Cache    cache.Cache
	CacheTTL time.Duration
}

// Scraper searches a Site through a Driver and extracts product cards
type Scraper struct {
	driver        Driver
	site          Site
	siteErr       error
	cache         cache.Cache
	cacheTTL      time.Duration
	timeout       time.Duration
	renderTimeout time.Duration
}

// New creates a Scraper with dependency injection. An invalid site is
// reported by every Run before a browser is launched.
func New(driver Driver, site Site, opts Options) *Scraper {
	if opts.Timeout <= 0 {
		opts.Timeout = config.DefaultTimeout
	}
	if opts.RenderTimeout <= 0 {
		opts.RenderTimeout = config.DefaultRenderTimeout
	}
	return &Scraper{
		driver:        driver,
		site:          site,
		siteErr:       site.Validate(),
		cache:         opts.Cache,
		cacheTTL:      opts.CacheTTL,
		timeout:       opts.Timeout,
		renderTimeout: opts.RenderTimeout,
	}
}

// Name returns the name of the underlying driver
func (s *Scraper) Name() string {
	return s.driver.Name()
}

// Site returns the site this scraper targets
func (s *Scraper) Site() Site {
	return s.site
}

// Run searches for query and returns up to maxResults products in DOM order.
//
// A fresh browser session is launched for every call and closed before Run
// returns, on success and on failure. A page that loads but renders no result
// cards yields an empty slice and a nil error. Any hard failure is returned as
// a *ScrapeError and no partial results are returned with it.
func (s *Scraper) Run(ctx context.Context, query string, maxResults int) ([]models.Product, error) {
	if maxResults < 0 {
		maxResults = 0
	}

	ctx = reqctx.WithRequestContext(ctx, query)
	logger := reqctx.Logger(ctx)

	if s.siteErr != nil {
		return nil, NewScrapeError(KindNavigationFailed, "invalid site definition", s.siteErr)
	}

	searchURL, err := s.site.SearchURL(query)
	if err != nil {
		return nil, NewScrapeError(KindNavigationFailed, "failed to build search URL", err)
	}

	if maxResults == 0 {
		logger.Debug().Msg("max results is zero, skipping search")
		return []models.Product{}, nil
	}

	cacheKey := cache.KeyFor(s.site.Name, query, maxResults)
	if s.cache != nil && s.cacheTTL > 0 {
		if products, ok := s.cache.Get(cacheKey); ok {
			return products, nil
		}
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	logger.Debug().
		Str("url", searchURL).
		Str("driver", s.driver.Name()).
		Int("max_results", maxResults).
		Msg("Starting search")

	session, err := s.driver.Launch(ctx)
	if err != nil {
		return nil, classify(ctx, KindBrowserLaunchFailed, "failed to launch browser", "", err)
	}
	defer func() {
		if cerr := session.Close(); cerr != nil {
			logger.Warn().Err(cerr).Msg("Failed to close browser session")
		}
	}()

	if err := session.Navigate(ctx, searchURL); err != nil {
		return nil, classify(ctx, KindNavigationFailed, "navigation failed", searchURL, err)
	}

	rendered, err := session.WaitFor(ctx, s.site.CardSelector, s.renderTimeout)
	if err != nil {
		return nil, classify(ctx, KindNavigationFailed, "waiting for results failed", searchURL, err)
	}
	if !rendered {
		logger.Info().
			Str("selector", s.site.CardSelector).
			Dur("render_timeout", s.renderTimeout).
			Msg("No result cards rendered")
		// An expired render wait is never cached
		return []models.Product{}, nil
	}

	cards, err := session.QueryAll(ctx, s.site.CardSelector)
	if err != nil {
		return nil, classify(ctx, KindExtractionFailed, "failed to query result cards", searchURL, err)
	}
	found := len(cards)
	if len(cards) > maxResults {
		cards = cards[:maxResults]
	}

	products := make([]models.Product, 0, len(cards))
	for i, card := range cards {
		title, err := s.field(ctx, card, s.site.TitleSelector)
		if err != nil {
			return nil, classify(ctx, KindExtractionFailed, fmt.Sprintf("failed to read title of card %d", i), searchURL, err)
		}
		price, err := s.field(ctx, card, s.site.PriceSelector)
		if err != nil {
			return nil, classify(ctx, KindExtractionFailed, fmt.Sprintf("failed to read price of card %d", i), searchURL, err)
		}
		if title == "" || price == "" {
			logger.Debug().
				Int("card", i).
				Bool("title", title != "").
				Bool("price", price != "").
				Msg("Card is missing fields")
		}

		products = append(products, models.Product{
			Title:  title,
			Price:  price,
			Source: s.site.Name,
		})
	}

	logger.Info().
		Str("url", searchURL).
		Int("cards", found).
		Int("products", len(products)).
		Int64("elapsed_ms", reqctx.Elapsed(ctx).Milliseconds()).
		Msg("Search completed")

	s.store(cacheKey, products)
	return products, nil
}

// field reads the trimmed text of the first element matching selector inside
// card. A missing element is not an error and yields "".
func (s *Scraper) field(ctx context.Context, card Element, selector string) (string, error) {
	el, err := card.Query(ctx, selector)
	if errors.Is(err, ErrElementNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}

	text, err := el.Text(ctx)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

func (s *Scraper) store(key string, products []models.Product) {
	if s.cache == nil || s.cacheTTL <= 0 {
		return
	}
	if err := s.cache.Set(key, products, s.cacheTTL); err != nil {
		log.Debug().Err(err).Str("key", key).Msg("Result not cached")
	}
}
