// Package hybrid picks between plain HTTP and a real browser per search.
// The page is fetched statically first and a browser is only launched when
// the response has no cards but looks rendered client-side.
package hybrid

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/cargoplus/productbot/internal/engine"
	"github.com/cargoplus/productbot/internal/engine/static"
)

// Driver serves searches statically and escalates to a browser driver
type Driver struct {
	static  *static.Driver
	dynamic engine.Driver
}

// New creates a hybrid Driver with the provided drivers
func New(staticDriver *static.Driver, dynamicDriver engine.Driver) *Driver {
	return &Driver{
		static:  staticDriver,
		dynamic: dynamicDriver,
	}
}

// Name returns the name of this driver
func (d *Driver) Name() string {
	return "auto"
}

// Launch opens a static session; the browser is started lazily
func (d *Driver) Launch(ctx context.Context) (engine.Session, error) {
	return &session{
		d:      d,
		static: d.static.NewSession(),
	}, nil
}

type session struct {
	d      *Driver
	static *static.Session
	url    string

	// escalated is the browser session once the page needed rendering
	escalated engine.Session
}

func (s *session) Navigate(ctx context.Context, url string) error {
	s.url = url
	return s.static.Navigate(ctx, url)
}

func (s *session) WaitFor(ctx context.Context, selector string, timeout time.Duration) (bool, error) {
	if s.escalated != nil {
		return s.escalated.WaitFor(ctx, selector, timeout)
	}

	doc := s.static.Document()
	if doc == nil {
		return false, fmt.Errorf("no document loaded")
	}

	strategy := DetermineStrategy(doc, selector)
	log.Debug().
		Str("url", s.url).
		Str("strategy", strategy.String()).
		Str("framework", DetectJavaScriptFramework(doc)).
		Msg("Selected scraping strategy")

	switch strategy {
	case StrategyStatic:
		return true, nil
	case StrategyEmpty:
		return false, nil
	}

	if s.d.dynamic == nil {
		return false, nil
	}
	if err := s.escalate(ctx); err != nil {
		return false, err
	}
	return s.escalated.WaitFor(ctx, selector, timeout)
}

func (s *session) escalate(ctx context.Context) error {
	browser, err := s.d.dynamic.Launch(ctx)
	if err != nil {
		return err
	}
	s.escalated = browser

	if err := browser.Navigate(ctx, s.url); err != nil {
		return err
	}
	return nil
}

func (s *session) QueryAll(ctx context.Context, selector string) ([]engine.Element, error) {
	if s.escalated != nil {
		return s.escalated.QueryAll(ctx, selector)
	}
	return s.static.QueryAll(ctx, selector)
}

func (s *session) Close() error {
	err := s.static.Close()
	if s.escalated != nil {
		err = errors.Join(err, s.escalated.Close())
		s.escalated = nil
	}
	return err
}
