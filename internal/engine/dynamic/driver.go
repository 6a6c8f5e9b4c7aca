// Package dynamic drives headless Chrome through chromedp so that result
// pages rendered client-side (React/Vue/Angular) can be scraped.
package dynamic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/rs/zerolog/log"

	"github.com/cargoplus/productbot/internal/config"
	"github.com/cargoplus/productbot/internal/engine"
)

// pollInterval is how often the readiness predicate is re-evaluated
const pollInterval = 100 * time.Millisecond

// Options configures the Chrome instances launched by the Driver
type Options struct {
	ChromePath string
	Headless   bool
	UserAgent  string
	Proxy      string
	Headers    map[string]string
	ExtraArgs  []chromedp.ExecAllocatorOption
}

// Driver launches one headless Chrome per session using chromedp
type Driver struct {
	opts Options
}

// New creates a chromedp Driver
func New(opts Options) *Driver {
	if opts.UserAgent == "" {
		opts.UserAgent = config.DefaultUserAgent
	}
	return &Driver{opts: opts}
}

// Name returns the name of this driver
func (d *Driver) Name() string {
	return "chromedp"
}

// Launch starts Chrome and opens a tab. The browser lives until the
// session is closed or ctx is done.
func (d *Driver) Launch(ctx context.Context) (engine.Session, error) {
	start := time.Now()

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, allocatorOptions(d.opts)...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	s := &session{
		ctx:         browserCtx,
		cancel:      browserCancel,
		allocCancel: allocCancel,
	}

	// Capture the main document status; chromedp.Navigate does not fail on HTTP errors.
	chromedp.ListenTarget(browserCtx, func(ev interface{}) {
		if ev, ok := ev.(*network.EventResponseReceived); ok && ev.Type == network.ResourceTypeDocument {
			s.status.CompareAndSwap(0, ev.Response.Status)
		}
	})

	// The first Run on a fresh context allocates the browser and its first tab.
	tasks := chromedp.Tasks{network.Enable()}
	if len(d.opts.Headers) > 0 {
		headers := make(network.Headers, len(d.opts.Headers))
		for k, v := range d.opts.Headers {
			headers[k] = v
		}
		tasks = append(tasks, network.SetExtraHTTPHeaders(headers))
	}
	if err := chromedp.Run(browserCtx, tasks); err != nil {
		browserCancel()
		allocCancel()
		if ctx.Err() != nil {
			return nil, fmt.Errorf("chrome did not start: %w", ctx.Err())
		}
		return nil, engine.NewScrapeError(engine.KindBrowserLaunchFailed, "failed to start chrome", err)
	}

	log.Debug().Dur("elapsed", time.Since(start)).Msg("Chrome launched")
	return s, nil
}

type session struct {
	ctx         context.Context
	cancel      context.CancelFunc
	allocCancel context.CancelFunc
	status      atomic.Int64
}

// run executes actions on the tab while honoring ctx. Actions are run on a
// child of the tab context so that cancelling ctx aborts the action without
// tearing down the browser.
func (s *session) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithCancel(s.ctx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	err := chromedp.Run(runCtx, actions...)
	if err != nil && ctx.Err() != nil {
		return fmt.Errorf("%w: %w", ctx.Err(), err)
	}
	return err
}

func (s *session) Navigate(ctx context.Context, url string) error {
	s.status.Store(0)

	if err := s.run(ctx, chromedp.Navigate(url)); err != nil {
		return err
	}

	if status := s.status.Load(); status >= 400 {
		return engine.NewScrapeError(engine.KindNavigationFailed,
			fmt.Sprintf("search page returned HTTP %d", status), nil).
			WithURL(url).
			WithDetail("status", int(status))
	}
	return nil
}

func (s *session) WaitFor(ctx context.Context, selector string, timeout time.Duration) (bool, error) {
	quoted, err := json.Marshal(selector)
	if err != nil {
		return false, fmt.Errorf("quote selector: %w", err)
	}
	expr := fmt.Sprintf("document.querySelector(%s) !== null", quoted)

	var ready bool
	err = s.run(ctx, chromedp.Poll(expr, &ready,
		chromedp.WithPollingTimeout(timeout),
		chromedp.WithPollingInterval(pollInterval),
	))
	if errors.Is(err, chromedp.ErrPollingTimeout) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return ready, nil
}

func (s *session) QueryAll(ctx context.Context, selector string) ([]engine.Element, error) {
	var nodes []*cdp.Node
	if err := s.run(ctx, chromedp.Nodes(selector, &nodes, chromedp.ByQueryAll, chromedp.AtLeast(0))); err != nil {
		return nil, err
	}

	elements := make([]engine.Element, len(nodes))
	for i, n := range nodes {
		elements[i] = &element{s: s, node: n}
	}
	return elements, nil
}

func (s *session) Close() error {
	err := chromedp.Cancel(s.ctx)
	s.cancel()
	s.allocCancel()
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}

type element struct {
	s    *session
	node *cdp.Node
}

func (e *element) Query(ctx context.Context, selector string) (engine.Element, error) {
	var nodes []*cdp.Node
	err := e.s.run(ctx, chromedp.Nodes(selector, &nodes,
		chromedp.ByQuery,
		chromedp.FromNode(e.node),
		chromedp.AtLeast(0),
	))
	if err != nil {
		return nil, err
	}
	if len(nodes) == 0 {
		return nil, engine.ErrElementNotFound
	}
	return &element{s: e.s, node: nodes[0]}, nil
}

func (e *element) Text(ctx context.Context) (string, error) {
	var text string
	if err := e.s.run(ctx, chromedp.Text([]cdp.NodeID{e.node.NodeID}, &text, chromedp.ByNodeID)); err != nil {
		return "", err
	}
	return text, nil
}
