package config

import "time"

// Default constants for application configuration
const (
	DefaultLogLevel   = "info"
	DefaultJSONLog    = false
	DefaultUserAgent  = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"
	DefaultDriver     = "chromedp"
	DefaultMaxResults = 5

	DefaultTimeout         = 30 * time.Second
	DefaultRenderTimeout   = 10 * time.Second
	DefaultBrowserHeadless = true

	DefaultCacheTTL          = 0 // disabled
	DefaultCacheMaxSizeBytes = 8 * 1024 * 1024
	DefaultMaxConcurrency    = 8
)

// Search target defaults
const (
	DefaultSiteName      = "Alibaba"
	DefaultBaseURL       = "https://cargoplus.site"
	DefaultSearchPath    = "/search"
	DefaultQueryParam    = "searchText"
	DefaultCardSelector  = ".organic-gallery-offer-card"
	DefaultTitleSelector = ".element-title-normal_content"
	DefaultPriceSelector = ".element-offer-price-normal_price"
)
