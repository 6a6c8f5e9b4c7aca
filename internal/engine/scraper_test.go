package engine

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cargoplus/productbot/internal/cache"
	"github.com/cargoplus/productbot/pkg/models"
)

// fakeCard maps a field selector to the text of the element it matches.
// Missing keys mean the selector matches nothing inside the card.
type fakeCard map[string]string

type fakeDriver struct {
	cards     []fakeCard
	launchErr error
	navErr    error
	waitErr   error
	textErr   error
	blockNav  bool

	mu        sync.Mutex
	launches  int
	closes    int
	navigated []string
	reads     int
}

func (d *fakeDriver) Name() string { return "fake" }

func (d *fakeDriver) Launch(ctx context.Context) (Session, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.launchErr != nil {
		return nil, d.launchErr
	}
	d.launches++
	return &fakeSession{d: d}, nil
}

type fakeSession struct {
	d *fakeDriver
}

func (s *fakeSession) Navigate(ctx context.Context, url string) error {
	s.d.mu.Lock()
	s.d.navigated = append(s.d.navigated, url)
	s.d.mu.Unlock()
	if s.d.blockNav {
		<-ctx.Done()
		return ctx.Err()
	}
	return s.d.navErr
}

func (s *fakeSession) WaitFor(ctx context.Context, selector string, timeout time.Duration) (bool, error) {
	if s.d.waitErr != nil {
		return false, s.d.waitErr
	}
	return len(s.d.cards) > 0, nil
}

func (s *fakeSession) QueryAll(ctx context.Context, selector string) ([]Element, error) {
	out := make([]Element, len(s.d.cards))
	for i, c := range s.d.cards {
		out[i] = &fakeElement{d: s.d, card: c}
	}
	return out, nil
}

func (s *fakeSession) Close() error {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	s.d.closes++
	return nil
}

type fakeElement struct {
	d    *fakeDriver
	card fakeCard
	text string
}

func (e *fakeElement) Query(ctx context.Context, selector string) (Element, error) {
	text, ok := e.card[selector]
	if !ok {
		return nil, ErrElementNotFound
	}
	return &fakeElement{d: e.d, text: text}, nil
}

func (e *fakeElement) Text(ctx context.Context) (string, error) {
	e.d.mu.Lock()
	e.d.reads++
	e.d.mu.Unlock()
	if e.d.textErr != nil {
		return "", e.d.textErr
	}
	return e.text, nil
}

func testSite() Site {
	return Site{
		Name:          "Alibaba",
		BaseURL:       "https://cargoplus.site",
		SearchPath:    "/search",
		QueryParam:    "searchText",
		CardSelector:  ".card",
		TitleSelector: ".title",
		PriceSelector: ".price",
	}
}

func cards(n int) []fakeCard {
	out := make([]fakeCard, n)
	for i := range out {
		out[i] = fakeCard{
			".title": fmt.Sprintf("  Product %d \n", i+1),
			".price": fmt.Sprintf("$%d.00", i+1),
		}
	}
	return out
}

func newTestScraper(d Driver) *Scraper {
	return New(d, testSite(), Options{Timeout: 2 * time.Second, RenderTimeout: 100 * time.Millisecond})
}

func TestScraper_Run_TruncatesInDOMOrder(t *testing.T) {
	d := &fakeDriver{cards: cards(5)}
	products, err := newTestScraper(d).Run(context.Background(), "laptop", 2)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	want := []models.Product{
		{Title: "Product 1", Price: "$1.00", Source: "Alibaba"},
		{Title: "Product 2", Price: "$2.00", Source: "Alibaba"},
	}
	if !reflect.DeepEqual(products, want) {
		t.Errorf("unexpected products:\n got %#v\nwant %#v", products, want)
	}

	// Truncation happens before extraction: only 2 cards x 2 fields are read
	if d.reads != 4 {
		t.Errorf("expected 4 field reads, got %d", d.reads)
	}
	if d.navigated[0] != "https://cargoplus.site/search?searchText=laptop" {
		t.Errorf("unexpected navigation URL %q", d.navigated[0])
	}
}

func TestScraper_Run_LengthIsMinOfLimitAndCards(t *testing.T) {
	for _, m := range []int{0, 1, 3, 7} {
		for _, n := range []int{0, 1, 3, 10} {
			d := &fakeDriver{cards: cards(m)}
			products, err := newTestScraper(d).Run(context.Background(), "q", n)
			if err != nil {
				t.Fatalf("m=%d n=%d: Run failed: %v", m, n, err)
			}
			want := n
			if m < n {
				want = m
			}
			if len(products) != want {
				t.Errorf("m=%d n=%d: expected %d products, got %d", m, n, want, len(products))
			}
			for _, p := range products {
				if p.Source != "Alibaba" {
					t.Errorf("expected source Alibaba, got %q", p.Source)
				}
			}
		}
	}
}

func TestScraper_Run_NonPositiveLimitSkipsBrowser(t *testing.T) {
	d := &fakeDriver{cards: cards(3)}
	for _, n := range []int{0, -4} {
		products, err := newTestScraper(d).Run(context.Background(), "q", n)
		if err != nil {
			t.Fatalf("Run(%d) failed: %v", n, err)
		}
		if products == nil || len(products) != 0 {
			t.Errorf("Run(%d): expected empty non-nil slice, got %#v", n, products)
		}
	}
	if d.launches != 0 {
		t.Errorf("expected no browser launch, got %d", d.launches)
	}
}

func TestScraper_Run_MissingTitleKeepsRecord(t *testing.T) {
	d := &fakeDriver{cards: []fakeCard{
		{".price": "$9.99"},
		{".title": "Only title"},
		{},
	}}
	products, err := newTestScraper(d).Run(context.Background(), "q", 5)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	want := []models.Product{
		{Title: "", Price: "$9.99", Source: "Alibaba"},
		{Title: "Only title", Price: "", Source: "Alibaba"},
		{Title: "", Price: "", Source: "Alibaba"},
	}
	if !reflect.DeepEqual(products, want) {
		t.Errorf("unexpected products:\n got %#v\nwant %#v", products, want)
	}
}

func TestScraper_Run_NoCardsIsEmptyNotError(t *testing.T) {
	d := &fakeDriver{}
	products, err := newTestScraper(d).Run(context.Background(), "zzz_no_match", 5)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if products == nil || len(products) != 0 {
		t.Errorf("expected empty slice, got %#v", products)
	}
	if d.closes != 1 {
		t.Errorf("expected session closed once, got %d", d.closes)
	}
}

func TestScraper_Run_NavigationFailure(t *testing.T) {
	d := &fakeDriver{cards: cards(3), navErr: errors.New("net::ERR_NAME_NOT_RESOLVED")}
	products, err := newTestScraper(d).Run(context.Background(), "laptop", 5)
	if products != nil {
		t.Errorf("expected no products, got %#v", products)
	}
	if !errors.Is(err, ErrNavigationFailed) {
		t.Fatalf("expected NavigationFailed, got %v", err)
	}

	var se *ScrapeError
	if !errors.As(err, &se) || se.URL == "" {
		t.Errorf("expected ScrapeError with URL, got %#v", err)
	}
	if d.closes != 1 {
		t.Errorf("expected browser released on failure, closes=%d", d.closes)
	}
}

func TestScraper_Run_LaunchFailure(t *testing.T) {
	d := &fakeDriver{launchErr: errors.New("exec: chrome not found")}
	_, err := newTestScraper(d).Run(context.Background(), "laptop", 5)
	if !errors.Is(err, ErrBrowserLaunchFailed) {
		t.Fatalf("expected BrowserLaunchFailed, got %v", err)
	}
	if KindOf(err) != KindBrowserLaunchFailed {
		t.Errorf("unexpected kind %q", KindOf(err))
	}
}

func TestScraper_Run_Timeout(t *testing.T) {
	d := &fakeDriver{blockNav: true}
	s := New(d, testSite(), Options{Timeout: 50 * time.Millisecond, RenderTimeout: 10 * time.Millisecond})

	_, err := s.Run(context.Background(), "laptop", 5)
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected Timeout, got %v", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected underlying deadline error, got %v", err)
	}
	if d.closes != 1 {
		t.Errorf("expected browser released on timeout, closes=%d", d.closes)
	}
}

func TestScraper_Run_ExtractionErrorPropagates(t *testing.T) {
	d := &fakeDriver{cards: cards(2), textErr: errors.New("node is detached from document")}
	products, err := newTestScraper(d).Run(context.Background(), "laptop", 5)
	if products != nil {
		t.Errorf("expected no partial results, got %#v", products)
	}
	if !errors.Is(err, ErrExtractionFailed) {
		t.Fatalf("expected ExtractionFailed, got %v", err)
	}
	if d.closes != 1 {
		t.Errorf("expected browser released, closes=%d", d.closes)
	}
}

func TestScraper_Run_DriverScrapeErrorKeepsKind(t *testing.T) {
	d := &fakeDriver{navErr: NewScrapeError(KindNavigationFailed, "bad status", nil).WithDetail("status", 503)}
	_, err := newTestScraper(d).Run(context.Background(), "laptop", 5)

	var se *ScrapeError
	if !errors.As(err, &se) {
		t.Fatalf("expected ScrapeError, got %v", err)
	}
	if se.Details["status"] != 503 {
		t.Errorf("expected status detail to survive, got %#v", se.Details)
	}
	if se.URL == "" {
		t.Error("expected URL to be filled in")
	}
}

func TestScraper_Run_Idempotent(t *testing.T) {
	d := &fakeDriver{cards: cards(4)}
	s := newTestScraper(d)

	first, err := s.Run(context.Background(), "laptop", 3)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	second, err := s.Run(context.Background(), "laptop", 3)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("expected identical results, got %#v and %#v", first, second)
	}
	if d.launches != 2 || d.closes != 2 {
		t.Errorf("expected one browser per call, launches=%d closes=%d", d.launches, d.closes)
	}
}

func TestScraper_Run_UsesCache(t *testing.T) {
	c := cache.NewMemoryCache(1024 * 1024)
	defer c.Close()

	d := &fakeDriver{cards: cards(3)}
	s := New(d, testSite(), Options{Timeout: time.Second, RenderTimeout: 10 * time.Millisecond, Cache: c, CacheTTL: time.Minute})

	first, err := s.Run(context.Background(), "laptop", 2)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	second, err := s.Run(context.Background(), "laptop", 2)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("cached result differs: %#v vs %#v", first, second)
	}
	if d.launches != 1 {
		t.Errorf("expected a single browser launch, got %d", d.launches)
	}

	if _, err := s.Run(context.Background(), "laptop", 3); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if d.launches != 2 {
		t.Errorf("different limit must not hit the cache, launches=%d", d.launches)
	}

	if stats := c.Stats(); stats.Hits != 1 || stats.Misses != 2 || stats.Entries != 2 {
		t.Errorf("unexpected cache stats %+v", stats)
	}
}

func TestScraper_Run_UnrenderedPageIsNotCached(t *testing.T) {
	c := cache.NewMemoryCache(1024 * 1024)
	defer c.Close()

	d := &fakeDriver{}
	s := New(d, testSite(), Options{Timeout: time.Second, RenderTimeout: 10 * time.Millisecond, Cache: c, CacheTTL: time.Minute})

	products, err := s.Run(context.Background(), "laptop", 5)
	if err != nil || len(products) != 0 {
		t.Fatalf("expected empty result, got %v, %v", products, err)
	}
	if c.Stats().Entries != 0 {
		t.Error("empty result of an unrendered page must not be cached")
	}

	// Cards render on the next attempt and must be fetched, not served from cache
	d.cards = cards(2)
	products, err = s.Run(context.Background(), "laptop", 5)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(products) != 2 || d.launches != 2 {
		t.Errorf("expected 2 fresh products over 2 launches, got %d products, %d launches", len(products), d.launches)
	}
}

func TestScraper_Run_InvalidSiteSkipsBrowser(t *testing.T) {
	site := testSite()
	site.TitleSelector = "div[["
	d := &fakeDriver{cards: cards(3)}
	s := New(d, site, Options{})

	_, err := s.Run(context.Background(), "laptop", 5)
	if !errors.Is(err, ErrNavigationFailed) {
		t.Fatalf("expected NAVIGATION_FAILED, got %v", err)
	}
	if d.launches != 0 {
		t.Errorf("invalid site must not launch a browser, launches=%d", d.launches)
	}
}

func TestSite_Validate(t *testing.T) {
	if err := DefaultSite().Validate(); err != nil {
		t.Fatalf("default site is invalid: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Site)
		want   string
	}{
		{"malformed card selector", func(s *Site) { s.CardSelector = ".card[" }, "card selector"},
		{"malformed price selector", func(s *Site) { s.PriceSelector = "span[[" }, "price selector"},
		{"empty title selector", func(s *Site) { s.TitleSelector = "" }, "title selector is empty"},
		{"bad base url", func(s *Site) { s.BaseURL = "ftp://cargoplus.site" }, "base url"},
		{"empty query param", func(s *Site) { s.QueryParam = "" }, "query parameter"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			site := testSite()
			tt.mutate(&site)
			err := site.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestScrapeError_Message(t *testing.T) {
	err := NewScrapeError(KindTimeout, "navigation failed", context.DeadlineExceeded).WithURL("https://x.test/search")
	want := "TIMEOUT: navigation failed (https://x.test/search): context deadline exceeded"
	if err.Error() != want {
		t.Errorf("got %q, want %q", err.Error(), want)
	}
	if errors.Is(err, ErrNavigationFailed) {
		t.Error("timeout must not match navigation sentinel")
	}
}
