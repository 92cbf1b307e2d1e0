// Package cdpdriver implements browser.Driver on the Chrome DevTools Protocol with chromedp.
// It needs only a Chrome or Chromium binary, not the Playwright runtime.
package cdpdriver

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/feedbackhq/ui-contract-tests/browser"
)

const defaultActionTimeout = 10 * time.Second

// Options configures the Chrome process.
type Options struct {
	Headless bool
	// ExecPath overrides the Chrome binary; empty means search the usual locations.
	ExecPath string
	// Logf receives chromedp's own log output; nil discards it.
	Logf func(format string, args ...interface{})
}

// Driver owns one Chrome process. Each session gets its own browser context (an incognito-like
// profile) and tab.
type Driver struct {
	browserCtx    context.Context
	cancelBrowser context.CancelFunc
	cancelAlloc   context.CancelFunc
	closing       sync.Once
}

// Launch starts Chrome.
func Launch(opts Options) (*Driver, error) {
	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if opts.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(opts.ExecPath))
	}
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), allocOpts...)

	var ctxOpts []chromedp.ContextOption
	if opts.Logf != nil {
		ctxOpts = append(ctxOpts, chromedp.WithLogf(opts.Logf))
	}
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx, ctxOpts...)
	// the first Run starts the browser process
	if err := chromedp.Run(browserCtx); err != nil {
		cancelBrowser()
		cancelAlloc()
		return nil, fmt.Errorf("could not start chrome: %w", err)
	}
	return &Driver{browserCtx: browserCtx, cancelBrowser: cancelBrowser, cancelAlloc: cancelAlloc}, nil
}

func (d *Driver) NewSession(ctx context.Context, opts browser.SessionOptions) (browser.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	tabCtx, cancelTab := chromedp.NewContext(d.browserCtx, chromedp.WithNewBrowserContext())
	s := &session{
		tab:               tabCtx,
		cancel:            cancelTab,
		baseURL:           opts.BaseURL,
		actionTimeout:     opts.ActionTimeout,
		navigationTimeout: opts.NavigationTimeout,
	}
	if s.actionTimeout <= 0 {
		s.actionTimeout = defaultActionTimeout
	}
	if s.navigationTimeout <= 0 {
		s.navigationTimeout = s.actionTimeout
	}
	var setup []chromedp.Action
	if opts.Viewport.Width > 0 && opts.Viewport.Height > 0 {
		setup = append(setup, chromedp.EmulateViewport(int64(opts.Viewport.Width), int64(opts.Viewport.Height)))
	}
	if opts.StorageStatePath != "" {
		cookies, err := loadStorageStateCookies(opts.StorageStatePath)
		if err != nil {
			cancelTab()
			return nil, err
		}
		setup = append(setup, cookies)
	}
	s.listen()
	if err := s.run(ctx, s.actionTimeout, setup...); err != nil {
		cancelTab()
		return nil, fmt.Errorf("could not open tab: %w", err)
	}
	return s, nil
}

// Close stops Chrome.
func (d *Driver) Close() error {
	var err error
	d.closing.Do(func() {
		err = chromedp.Cancel(d.browserCtx)
		d.cancelBrowser()
		d.cancelAlloc()
	})
	return err
}
