// internal/engine/static/driver.go
package static

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/html/charset"

	"github.com/cargoplus/productbot/internal/config"
	"github.com/cargoplus/productbot/internal/engine"
)

// Driver fetches result pages with plain HTTP and parses them with goquery.
// It runs no JavaScript, so it only sees cards present in the server response.
type Driver struct {
	client    *http.Client
	userAgent string
	headers   map[string]string
}

// New creates a static Driver with dependency injection
func New(client *http.Client, userAgent string, headers map[string]string) *Driver {
	if client == nil {
		client = &http.Client{Timeout: config.DefaultTimeout}
	}
	if userAgent == "" {
		userAgent = config.DefaultUserAgent
	}
	return &Driver{
		client:    client,
		userAgent: userAgent,
		headers:   headers,
	}
}

// Name returns the name of this driver
func (d *Driver) Name() string {
	return "static"
}

// Launch returns a new session; there is no process to start
func (d *Driver) Launch(ctx context.Context) (engine.Session, error) {
	return d.NewSession(), nil
}

// NewSession returns a concrete session so callers can inspect the fetched document
func (d *Driver) NewSession() *Session {
	return &Session{d: d}
}

// Session holds the last document fetched by Navigate
type Session struct {
	d   *Driver
	doc *goquery.Document
	url string
}

// Navigate fetches url and parses the response body
func (s *Session) Navigate(ctx context.Context, url string) error {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", s.d.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	for key, value := range s.d.headers {
		req.Header.Set(key, value)
	}

	resp, err := s.d.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return engine.NewScrapeError(engine.KindNavigationFailed,
			fmt.Sprintf("search page returned HTTP %d", resp.StatusCode), nil).
			WithURL(url).
			WithDetail("status", resp.StatusCode)
	}

	body, err := charset.NewReader(resp.Body, resp.Header.Get("Content-Type"))
	if err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return fmt.Errorf("failed to parse HTML: %w", err)
	}

	s.doc = doc
	s.url = url

	log.Debug().
		Str("url", url).
		Int("status", resp.StatusCode).
		Int64("response_time_ms", time.Since(start).Milliseconds()).
		Msg("Fetched search page")

	return nil
}

// WaitFor reports whether selector matches in the fetched document. Static
// pages never change after load, so there is nothing to wait for.
func (s *Session) WaitFor(ctx context.Context, selector string, timeout time.Duration) (bool, error) {
	if s.doc == nil {
		return false, fmt.Errorf("no document loaded")
	}
	return s.doc.Find(selector).Length() > 0, nil
}

// QueryAll returns every element matching selector in document order
func (s *Session) QueryAll(ctx context.Context, selector string) ([]engine.Element, error) {
	if s.doc == nil {
		return nil, fmt.Errorf("no document loaded")
	}

	var elements []engine.Element
	s.doc.Find(selector).Each(func(_ int, sel *goquery.Selection) {
		elements = append(elements, &element{sel: sel})
	})
	return elements, nil
}

// Document returns the parsed document, or nil before Navigate succeeds
func (s *Session) Document() *goquery.Document {
	return s.doc
}

// Close drops the parsed document
func (s *Session) Close() error {
	s.doc = nil
	return nil
}

type element struct {
	sel *goquery.Selection
}

func (e *element) Query(ctx context.Context, selector string) (engine.Element, error) {
	found := e.sel.Find(selector).First()
	if found.Length() == 0 {
		return nil, engine.ErrElementNotFound
	}
	return &element{sel: found}, nil
}

func (e *element) Text(ctx context.Context) (string, error) {
	return e.sel.Text(), nil
}
