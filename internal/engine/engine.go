package engine

import (
	"context"
	"time"

	"github.com/cargoplus/productbot/pkg/models"
)

// Searcher is the interface implemented by anything that can turn a query into products
type Searcher interface {
	// Run searches for query and returns at most maxResults products in page order
	Run(ctx context.Context, query string, maxResults int) ([]models.Product, error)
}

// Driver launches isolated browser sessions.
//
// Implementations exist for chromedp, rod and a static HTTP fetcher. Every
// Session returned by Launch must be closed by the caller.
type Driver interface {
	// Name returns the name of the driver implementation
	Name() string

	// Launch starts a new browser instance and opens a blank page
	Launch(ctx context.Context) (Session, error)
}

// Session is a single page in a launched browser
type Session interface {
	// Navigate loads url and blocks until the document has loaded
	Navigate(ctx context.Context, url string) error

	// WaitFor polls until selector matches at least one element or timeout
	// elapses. It reports false without error when the timeout elapses.
	WaitFor(ctx context.Context, selector string, timeout time.Duration) (bool, error)

	// QueryAll returns every element matching selector in DOM order
	QueryAll(ctx context.Context, selector string) ([]Element, error)

	// Close releases the page and the browser process behind it
	Close() error
}

// Element is a handle to a DOM element
type Element interface {
	// Query returns the first descendant matching selector, or ErrElementNotFound
	Query(ctx context.Context, selector string) (Element, error)

	// Text returns the rendered inner text of the element
	Text(ctx context.Context) (string, error)
}
