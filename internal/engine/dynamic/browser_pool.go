// internal/engine/dynamic/browser_pool.go
package dynamic

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/chromedp/chromedp"
	"github.com/rs/zerolog/log"
)

// ErrPoolClosed is returned by Acquire after Close.
var ErrPoolClosed = errors.New("browser pool is closed")

const (
	defaultPoolSize = 3
	maxPoolSize     = 10
)

// BrowserPool runs a single Chrome process and hands out at most Size tabs at
// a time. Every Acquire opens a fresh tab so listeners and page state never
// carry over between listing pages.
type BrowserPool struct {
	size          int
	slots         chan struct{}
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc
	mu            sync.Mutex
	closed        bool
}

// Tab is a leased browser tab.
type Tab struct {
	Ctx    context.Context
	Cancel context.CancelFunc
}

// BrowserPoolOptions configures the browser pool
type BrowserPoolOptions struct {
	Size       int
	Headless   bool
	UserAgent  string
	Proxy      string
	ChromePath string
	ExtraArgs  []chromedp.ExecAllocatorOption
}

// allocatorOptions builds the exec allocator flags shared by every tab.
func allocatorOptions(opts BrowserPoolOptions) []chromedp.ExecAllocatorOption {
	allocOpts := []chromedp.ExecAllocatorOption{
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-background-networking", true),
		chromedp.Flag("disable-default-apps", true),
		chromedp.Flag("disable-sync", true),
		chromedp.Flag("disable-translate", true),
		chromedp.Flag("mute-audio", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("window-size", "1920,1080"),
		chromedp.Flag("blink-settings", "imagesEnabled=false"),
	}

	if opts.UserAgent != "" {
		allocOpts = append(allocOpts, chromedp.UserAgent(opts.UserAgent))
	}
	if path := FindChrome(opts.ChromePath); path != "" {
		allocOpts = append([]chromedp.ExecAllocatorOption{chromedp.ExecPath(path)}, allocOpts...)
	}
	if opts.Headless {
		allocOpts = append(allocOpts, chromedp.Flag("headless", "new"))
	} else {
		allocOpts = append(allocOpts, chromedp.Flag("headless", false))
	}
	if opts.Proxy != "" {
		allocOpts = append(allocOpts, chromedp.ProxyServer(opts.Proxy))
	}

	return append(allocOpts, opts.ExtraArgs...)
}

// NewBrowserPool starts Chrome and returns a pool ready to lease tabs.
func NewBrowserPool(opts BrowserPoolOptions) (*BrowserPool, error) {
	if opts.Size <= 0 {
		opts.Size = defaultPoolSize
	}
	if opts.Size > maxPoolSize {
		opts.Size = maxPoolSize
	}

	log.Debug().Int("size", opts.Size).Msg("Creating browser pool")

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), allocatorOptions(opts)...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	// The first Run launches the browser process.
	if err := chromedp.Run(browserCtx, chromedp.Navigate("about:blank")); err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}

	log.Info().Int("pool_size", opts.Size).Msg("Browser pool ready")

	return &BrowserPool{
		size:          opts.Size,
		slots:         make(chan struct{}, opts.Size),
		allocCancel:   allocCancel,
		browserCtx:    browserCtx,
		browserCancel: browserCancel,
	}, nil
}

// Acquire waits for a free slot and opens a new tab. It returns ctx.Err() if
// ctx ends first.
func (bp *BrowserPool) Acquire(ctx context.Context) (*Tab, error) {
	select {
	case bp.slots <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	bp.mu.Lock()
	defer bp.mu.Unlock()
	if bp.closed {
		<-bp.slots
		return nil, ErrPoolClosed
	}

	tabCtx, tabCancel := chromedp.NewContext(bp.browserCtx)
	log.Debug().Msg("Browser tab acquired")
	return &Tab{Ctx: tabCtx, Cancel: tabCancel}, nil
}

// Release closes the tab and frees its slot.
func (bp *BrowserPool) Release(tab *Tab) {
	if tab == nil {
		return
	}
	tab.Cancel()
	<-bp.slots
	log.Debug().Msg("Browser tab released")
}

// Close shuts down the browser and the allocator
func (bp *BrowserPool) Close() error {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	if bp.closed {
		return nil
	}
	bp.closed = true

	bp.browserCancel()
	bp.allocCancel()

	log.Info().Msg("Browser pool closed")
	return nil
}

// Size returns the pool size
func (bp *BrowserPool) Size() int {
	return bp.size
}

// Available returns the number of tabs that can be leased without waiting
func (bp *BrowserPool) Available() int {
	return bp.size - len(bp.slots)
}
