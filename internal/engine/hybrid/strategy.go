// internal/engine/hybrid/strategy.go
package hybrid

import "github.com/PuerkitoBio/goquery"

// Strategy represents how a fetched page is scraped
type Strategy int

const (
	// StrategyStatic reads the cards from the fetched HTML
	StrategyStatic Strategy = iota

	// StrategyDynamic renders the page in a browser first
	StrategyDynamic

	// StrategyEmpty accepts the fetched page as having no results
	StrategyEmpty
)

// String returns the string representation of the strategy
func (s Strategy) String() string {
	switch s {
	case StrategyStatic:
		return "Static"
	case StrategyDynamic:
		return "Dynamic"
	case StrategyEmpty:
		return "Empty"
	default:
		return "Unknown"
	}
}

// DetermineStrategy decides how to scrape a fetched page given the selector
// that marks a result card
func DetermineStrategy(doc *goquery.Document, cardSelector string) Strategy {
	if doc.Find(cardSelector).Length() > 0 {
		return StrategyStatic
	}

	if NeedsJavaScript(doc) {
		return StrategyDynamic
	}

	return StrategyEmpty
}
