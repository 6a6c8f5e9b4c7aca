package app

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/cargoplus/productbot/internal/config"
	"github.com/cargoplus/productbot/internal/engine/enginetest"
	"github.com/cargoplus/productbot/internal/engine/hybrid"
	"github.com/cargoplus/productbot/internal/engine/static"
)

func TestNew_RequiresConfig(t *testing.T) {
	if _, err := New(context.Background(), nil); err == nil {
		t.Error("expected error for nil config")
	}
}

func TestNew_RejectsInvalidSite(t *testing.T) {
	cfg := config.Default()
	cfg.Driver = "static"
	cfg.QueryParam = ""
	if _, err := New(context.Background(), cfg); err == nil || !strings.Contains(err.Error(), "invalid site") {
		t.Errorf("expected invalid site error, got %v", err)
	}
}

func TestNewDriver(t *testing.T) {
	tests := []struct {
		driver string
		want   string
	}{
		{"chromedp", "chromedp"},
		{"rod", "rod"},
		{"static", "static"},
		{"auto", "auto"},
		{"", "chromedp"},
	}

	for _, tt := range tests {
		cfg := config.Default()
		cfg.Driver = tt.driver
		d, err := NewDriver(cfg, nil)
		if err != nil {
			t.Fatalf("NewDriver(%q) failed: %v", tt.driver, err)
		}
		if d.Name() != tt.want {
			t.Errorf("NewDriver(%q).Name() = %q, want %q", tt.driver, d.Name(), tt.want)
		}
	}

	cfg := config.Default()
	cfg.Driver = "selenium"
	if _, err := NewDriver(cfg, nil); err == nil {
		t.Error("expected error for unknown driver")
	}
}

func TestNewDriver_Types(t *testing.T) {
	cfg := config.Default()
	cfg.Driver = "static"
	d, _ := NewDriver(cfg, nil)
	if _, ok := d.(*static.Driver); !ok {
		t.Errorf("expected *static.Driver, got %T", d)
	}

	cfg.Driver = "auto"
	d, _ = NewDriver(cfg, nil)
	if _, ok := d.(*hybrid.Driver); !ok {
		t.Errorf("expected *hybrid.Driver, got %T", d)
	}
}

func TestApplication_SearchWithStaticDriver(t *testing.T) {
	m := enginetest.NewMarketplace(t, enginetest.RenderStatic, enginetest.Laptops(6)...)

	cfg := config.Default()
	cfg.Driver = "static"
	cfg.BaseURL = m.URL
	cfg.CacheTTL = time.Minute

	a, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer a.Close(context.Background())

	products, err := a.Search(context.Background(), "laptop", config.DefaultMaxResults)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(products) != 5 {
		t.Errorf("expected default of 5 products, got %d", len(products))
	}

	// Second identical search is served from cache
	if _, err := a.Search(context.Background(), "laptop", config.DefaultMaxResults); err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if m.Requests() != 1 {
		t.Errorf("expected one request with caching enabled, got %d", m.Requests())
	}
	if s := a.Cache.Stats(); s.Hits != 1 || s.Misses != 1 {
		t.Errorf("expected one hit and one miss, got %+v", s)
	}
	if a.Uptime() <= 0 {
		t.Error("expected positive uptime")
	}
}
