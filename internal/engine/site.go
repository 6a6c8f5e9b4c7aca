package engine

import (
	"fmt"

	"github.com/andybalholm/cascadia"

	"github.com/cargoplus/productbot/internal/config"
	urlutil "github.com/cargoplus/productbot/internal/utils/url"
)

// Site describes the marketplace search page being scraped
type Site struct {
	// Name is written to every product's Source field
	Name string

	BaseURL    string
	SearchPath string
	QueryParam string

	CardSelector  string
	TitleSelector string
	PriceSelector string
}

// DefaultSite returns the built-in marketplace definition
func DefaultSite() Site {
	return Site{
		Name:          config.DefaultSiteName,
		BaseURL:       config.DefaultBaseURL,
		SearchPath:    config.DefaultSearchPath,
		QueryParam:    config.DefaultQueryParam,
		CardSelector:  config.DefaultCardSelector,
		TitleSelector: config.DefaultTitleSelector,
		PriceSelector: config.DefaultPriceSelector,
	}
}

// SiteFromConfig builds a Site from loaded configuration. Selectors are
// always the built-in ones.
func SiteFromConfig(cfg *config.Config) Site {
	site := DefaultSite()
	site.Name = cfg.SiteName
	site.BaseURL = cfg.BaseURL
	site.SearchPath = cfg.SearchPath
	site.QueryParam = cfg.QueryParam
	return site
}

// Validate checks the base URL and that every selector parses
func (s Site) Validate() error {
	if err := urlutil.ValidateURL(s.BaseURL); err != nil {
		return fmt.Errorf("base url: %w", err)
	}
	if s.QueryParam == "" {
		return fmt.Errorf("query parameter is empty")
	}

	for _, sel := range []struct{ name, value string }{
		{"card", s.CardSelector},
		{"title", s.TitleSelector},
		{"price", s.PriceSelector},
	} {
		if sel.value == "" {
			return fmt.Errorf("%s selector is empty", sel.name)
		}
		if _, err := cascadia.Parse(sel.value); err != nil {
			return fmt.Errorf("%s selector %q: %w", sel.name, sel.value, err)
		}
	}
	return nil
}

// SearchURL returns the results page URL for query
func (s Site) SearchURL(query string) (string, error) {
	return urlutil.BuildSearchURL(s.BaseURL, s.SearchPath, s.QueryParam, query)
}
