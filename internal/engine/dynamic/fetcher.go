// internal/engine/dynamic/fetcher.go
package dynamic

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/rs/zerolog/log"

	"github.com/law-makers/harvest/internal/engine"
	"github.com/law-makers/harvest/pkg/models"
)

// Options configures a Fetcher
type Options struct {
	Pool BrowserPoolOptions
	// Headers are sent with every navigation in addition to the browser defaults.
	Headers map[string]string
	// WaitSelector, when set, is waited for before the DOM is captured.
	WaitSelector string
}

// Fetcher renders listing pages in headless Chrome and returns the outer HTML
// of the rendered document. The browser is started on first use.
type Fetcher struct {
	opts    Options
	newPool func(BrowserPoolOptions) (*BrowserPool, error)

	mu       sync.Mutex
	pool     *BrowserPool
	startErr error
	starting chan struct{}
	closed   bool
}

// New creates a Fetcher. No browser is launched until the first Fetch.
func New(opts Options) *Fetcher {
	return &Fetcher{opts: opts, newPool: NewBrowserPool}
}

// Name returns the name of this fetcher
func (f *Fetcher) Name() string {
	return "DynamicFetcher"
}

// ensurePool starts the browser once and waits for it under ctx. The launch
// itself is detached from ctx since the browser outlives any single page.
// A failed start is remembered and returned to every later caller.
func (f *Fetcher) ensurePool(ctx context.Context) (*BrowserPool, error) {
	f.mu.Lock()
	if f.pool != nil || f.startErr != nil {
		defer f.mu.Unlock()
		return f.pool, f.startErr
	}
	if f.closed {
		f.mu.Unlock()
		return nil, ErrPoolClosed
	}
	if f.starting == nil {
		f.starting = make(chan struct{})
		go f.launch(f.starting)
	}
	starting := f.starting
	f.mu.Unlock()

	select {
	case <-starting:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pool, f.startErr
}

func (f *Fetcher) launch(done chan struct{}) {
	pool, err := f.newPool(f.opts.Pool)

	f.mu.Lock()
	defer f.mu.Unlock()
	defer close(done)

	switch {
	case err != nil:
		log.Error().Err(err).Msg("Browser failed to start")
		f.startErr = err
	case f.closed:
		_ = pool.Close()
		f.startErr = ErrPoolClosed
	default:
		f.pool = pool
	}
}

// Fetch navigates a fresh tab to the page and captures the rendered markup
func (f *Fetcher) Fetch(ctx context.Context, pr models.PageRequest) (string, error) {
	start := time.Now()

	pool, err := f.ensurePool(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return "", engine.TransportError(ctx, pr.Page, err)
		}
		return "", engine.NewPageError(pr.Page, engine.ErrCodeBrowserError, "failed to start browser",
			fmt.Errorf("%w: %w", engine.ErrBrowserNotFound, err))
	}

	tab, err := pool.Acquire(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return "", engine.TransportError(ctx, pr.Page, err)
		}
		return "", engine.NewPageError(pr.Page, engine.ErrCodeBrowserError, "failed to acquire tab", err)
	}
	defer pool.Release(tab)

	// Tie the tab's lifetime to the page deadline.
	stop := context.AfterFunc(ctx, tab.Cancel)
	defer stop()

	var status atomic.Int64
	chromedp.ListenTarget(tab.Ctx, func(ev interface{}) {
		if resp, ok := ev.(*network.EventResponseReceived); ok && resp.Type == network.ResourceTypeDocument {
			status.CompareAndSwap(0, resp.Response.Status)
		}
	})

	actions := []chromedp.Action{network.Enable()}
	if len(f.opts.Headers) > 0 {
		headers := make(network.Headers, len(f.opts.Headers))
		for k, v := range f.opts.Headers {
			headers[k] = v
		}
		actions = append(actions, network.SetExtraHTTPHeaders(headers))
	}
	actions = append(actions, chromedp.Navigate(pr.URL))
	if f.opts.WaitSelector != "" {
		actions = append(actions, chromedp.WaitReady(f.opts.WaitSelector, chromedp.ByQuery))
	}

	var html string
	actions = append(actions, chromedp.OuterHTML("html", &html, chromedp.ByQuery))

	if err := chromedp.Run(tab.Ctx, actions...); err != nil {
		if ctx.Err() != nil {
			return "", engine.TransportError(ctx, pr.Page, err)
		}
		return "", engine.NewPageError(pr.Page, engine.ErrCodeBrowserError, "render failed", err).
			WithDetail("url", pr.URL)
	}

	code := int(status.Load())
	log.Debug().
		Int("page", pr.Page).
		Int("status", code).
		Msg("Response received")

	if code != 0 && (code < 200 || code > 299) {
		return "", engine.NewPageError(pr.Page, engine.ErrCodeHTTPStatus,
			fmt.Sprintf("status %d", code), engine.ErrBadStatus).
			WithDetail("status", code).
			WithDetail("url", pr.URL)
	}

	log.Debug().
		Int("page", pr.Page).
		Int("bytes", len(html)).
		Dur("duration", time.Since(start)).
		Msg("Render completed")

	return html, nil
}

// Close shuts the browser down if it was started
func (f *Fetcher) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.closed = true
	if f.pool == nil {
		return nil
	}
	err := f.pool.Close()
	f.pool = nil
	return err
}
