// Package enginetest serves fake marketplace search pages for driver tests.
package enginetest

import (
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/cargoplus/productbot/internal/engine"
)

// Card is one result card on a fake search page. Empty fields are omitted
// from the markup entirely rather than rendered empty.
type Card struct {
	Title string
	Price string
}

// Render controls how the fake page delivers its cards
type Render int

const (
	// RenderStatic puts the cards in the server response
	RenderStatic Render = iota
	// RenderScript inserts the cards from JavaScript after a short delay
	RenderScript
)

// Marketplace is an httptest server mimicking the search results page
type Marketplace struct {
	*httptest.Server
	Cards  []Card
	Render Render
	Status int

	requests atomic.Int64
	lastQ    atomic.Value
}

// NewMarketplace starts a fake marketplace; it is closed when the test ends
func NewMarketplace(t testing.TB, render Render, cards ...Card) *Marketplace {
	t.Helper()

	m := &Marketplace{Cards: cards, Render: render, Status: http.StatusOK}
	m.Server = httptest.NewServer(http.HandlerFunc(m.serve))
	t.Cleanup(m.Server.Close)
	return m
}

// Site returns a site definition pointing at this server
func (m *Marketplace) Site() engine.Site {
	site := engine.DefaultSite()
	site.BaseURL = m.URL
	return site
}

// Requests returns how many search pages were served
func (m *Marketplace) Requests() int {
	return int(m.requests.Load())
}

// LastQuery returns the decoded searchText of the latest request
func (m *Marketplace) LastQuery() string {
	q, _ := m.lastQ.Load().(string)
	return q
}

func (m *Marketplace) serve(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/search" {
		http.NotFound(w, r)
		return
	}
	m.requests.Add(1)
	m.lastQ.Store(r.URL.Query().Get("searchText"))

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(m.Status)

	var body string
	switch m.Render {
	case RenderScript:
		payload, _ := json.Marshal(cardsMarkup(m.Cards))
		body = fmt.Sprintf(`<div id="root"></div>
<script>
setTimeout(function () {
	document.getElementById('root').innerHTML = %s;
}, 150);
</script>`, payload)
	default:
		body = `<div id="root">` + cardsMarkup(m.Cards) + `</div>`
	}

	fmt.Fprintf(w, `<!DOCTYPE html>
<html>
<head><title>Search results</title></head>
<body>
%s
</body>
</html>`, body)
}

func cardsMarkup(cards []Card) string {
	var b strings.Builder
	for _, c := range cards {
		b.WriteString(`<div class="organic-gallery-offer-card">`)
		if c.Title != "" {
			fmt.Fprintf(&b, `<h2 class="element-title-normal_content">%s</h2>`, html.EscapeString(c.Title))
		}
		if c.Price != "" {
			fmt.Fprintf(&b, `<div class="element-offer-price-normal_price">%s</div>`, html.EscapeString(c.Price))
		}
		b.WriteString(`</div>`)
	}
	return b.String()
}

// Laptops returns n distinct cards
func Laptops(n int) []Card {
	cards := make([]Card, n)
	for i := range cards {
		cards[i] = Card{
			Title: fmt.Sprintf("Laptop model %d", i+1),
			Price: fmt.Sprintf("US$ %d99.00", i+1),
		}
	}
	return cards
}
