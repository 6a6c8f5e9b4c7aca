// Package rodbrowser drives Chrome through go-rod. It is an alternative to
// the chromedp driver for hosts where rod's launcher handles the browser
// binary better.
package rodbrowser

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/rs/zerolog/log"
	"github.com/ysmood/gson"

	"github.com/cargoplus/productbot/internal/config"
	"github.com/cargoplus/productbot/internal/engine"
	"github.com/cargoplus/productbot/internal/engine/dynamic"
)

const statusScript = `() => {
	const e = performance.getEntriesByType("navigation")[0];
	return e && e.responseStatus ? e.responseStatus : 0;
}`

// Options configures the browsers launched by the Driver
type Options struct {
	ChromePath string
	Headless   bool
	UserAgent  string
	Proxy      string
	Headers    map[string]string
}

// Driver launches one browser per session using go-rod
type Driver struct {
	opts Options
}

// New creates a rod Driver
func New(opts Options) *Driver {
	if opts.UserAgent == "" {
		opts.UserAgent = config.DefaultUserAgent
	}
	return &Driver{opts: opts}
}

// Name returns the name of this driver
func (d *Driver) Name() string {
	return "rod"
}

func (d *Driver) launcher(ctx context.Context) *launcher.Launcher {
	l := launcher.New().
		Context(ctx).
		Headless(d.opts.Headless).
		NoSandbox(true).
		Leakless(false)

	if path := dynamic.FindChrome(d.opts.ChromePath); path != "" {
		l = l.Bin(path)
	}
	if d.opts.Proxy != "" {
		l = l.Proxy(d.opts.Proxy)
	}

	l.Set(flags.Flag("disable-dev-shm-usage"))
	l.Set(flags.Flag("disable-extensions"))
	l.Set(flags.Flag("no-first-run"))
	l.Set(flags.Flag("mute-audio"))
	return l
}

// Launch starts a browser and opens a blank tab
func (d *Driver) Launch(ctx context.Context) (engine.Session, error) {
	start := time.Now()

	l := d.launcher(ctx)
	controlURL, err := l.Launch()
	if err != nil {
		release(l)
		if ctx.Err() != nil {
			return nil, fmt.Errorf("browser did not start: %w", ctx.Err())
		}
		return nil, engine.NewScrapeError(engine.KindBrowserLaunchFailed, "failed to launch browser", err)
	}

	s := &session{l: l}
	fail := func(msg string, err error) (engine.Session, error) {
		s.Close()
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%s: %w", msg, ctx.Err())
		}
		return nil, engine.NewScrapeError(engine.KindBrowserLaunchFailed, msg, err)
	}

	s.browser = rod.New().ControlURL(controlURL)
	if err := s.browser.Connect(); err != nil {
		s.browser = nil
		return fail("failed to connect to browser", err)
	}

	s.page, err = s.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return fail("failed to open tab", err)
	}

	if err := s.page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: d.opts.UserAgent}); err != nil {
		return fail("failed to set user agent", err)
	}
	if len(d.opts.Headers) > 0 {
		headers := make(proto.NetworkHeaders, len(d.opts.Headers))
		for k, v := range d.opts.Headers {
			headers[k] = gson.New(v)
		}
		if err := (proto.NetworkSetExtraHTTPHeaders{Headers: headers}).Call(s.page); err != nil {
			return fail("failed to set extra headers", err)
		}
	}

	log.Debug().
		Str("control_url", controlURL).
		Dur("elapsed", time.Since(start)).
		Msg("Browser launched")
	return s, nil
}

type session struct {
	l       *launcher.Launcher
	browser *rod.Browser
	page    *rod.Page
}

func (s *session) Navigate(ctx context.Context, url string) error {
	p := s.page.Context(ctx)
	if err := p.Navigate(url); err != nil {
		return err
	}
	if err := p.WaitLoad(); err != nil {
		return err
	}

	res, err := p.Eval(statusScript)
	if err != nil {
		log.Debug().Err(err).Msg("Could not read document status")
		return nil
	}
	if status := res.Value.Int(); status >= 400 {
		return engine.NewScrapeError(engine.KindNavigationFailed,
			fmt.Sprintf("search page returned HTTP %d", status), nil).
			WithURL(url).
			WithDetail("status", status)
	}
	return nil
}

// WaitFor retries the selector until it matches or timeout elapses. Only the
// per-wait deadline is reported as "not rendered"; an expired ctx is an error.
func (s *session) WaitFor(ctx context.Context, selector string, timeout time.Duration) (bool, error) {
	p := s.page.Context(ctx).Timeout(timeout)
	defer p.CancelTimeout()

	_, err := p.Element(selector)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
		return false, nil
	}
	return false, err
}

func (s *session) QueryAll(ctx context.Context, selector string) ([]engine.Element, error) {
	els, err := s.page.Context(ctx).Elements(selector)
	if err != nil {
		return nil, err
	}

	elements := make([]engine.Element, len(els))
	for i, el := range els {
		elements[i] = &element{el: el}
	}
	return elements, nil
}

func (s *session) Close() error {
	var errs []error
	if s.page != nil {
		if err := s.page.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close tab: %w", err))
		}
	}
	if s.browser != nil {
		if err := s.browser.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close browser: %w", err))
		}
	}
	release(s.l)
	return errors.Join(errs...)
}

// release kills the browser and removes its user-data dir. Cleanup waits for
// the process to exit, which never happens when it failed to start.
func release(l *launcher.Launcher) {
	l.Kill()
	if l.PID() == 0 {
		_ = os.RemoveAll(l.Get(flags.UserDataDir))
		return
	}
	l.Cleanup()
}

type element struct {
	el *rod.Element
}

func (e *element) Query(ctx context.Context, selector string) (engine.Element, error) {
	els, err := e.el.Context(ctx).Elements(selector)
	if err != nil {
		return nil, err
	}
	if len(els) == 0 {
		return nil, engine.ErrElementNotFound
	}
	return &element{el: els[0]}, nil
}

func (e *element) Text(ctx context.Context) (string, error) {
	return e.el.Context(ctx).Text()
}
