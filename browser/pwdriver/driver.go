// Package pwdriver implements browser.Driver with Playwright.
package pwdriver

import (
	"context"
	"fmt"
	"sync"

	"github.com/playwright-community/playwright-go"

	"github.com/feedbackhq/ui-contract-tests/browser"
)

// Options configures the Playwright browser process.
type Options struct {
	// Browser is "chromium", "firefox" or "webkit"; empty means chromium.
	Browser  string
	Headless bool
	// Install downloads the Playwright driver and browsers if they are missing.
	Install bool
}

// Driver owns one Playwright instance and one browser process. Each session is a separate
// browser context, so cookies and storage are never shared between sessions.
type Driver struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	closing sync.Once
}

// Launch starts Playwright and the browser.
func Launch(opts Options) (*Driver, error) {
	if opts.Install {
		if err := playwright.Install(&playwright.RunOptions{Verbose: false}); err != nil {
			return nil, fmt.Errorf("could not install playwright: %w", err)
		}
	}
	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("could not start playwright: %w", err)
	}
	var browserType playwright.BrowserType
	switch opts.Browser {
	case "", "chromium":
		browserType = pw.Chromium
	case "firefox":
		browserType = pw.Firefox
	case "webkit":
		browserType = pw.WebKit
	default:
		_ = pw.Stop()
		return nil, fmt.Errorf("unknown browser %q", opts.Browser)
	}
	b, err := browserType.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(opts.Headless),
	})
	if err != nil {
		_ = pw.Stop()
		return nil, fmt.Errorf("could not launch browser: %w", err)
	}
	return &Driver{pw: pw, browser: b}, nil
}

func (d *Driver) NewSession(ctx context.Context, opts browser.SessionOptions) (browser.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	contextOpts := playwright.BrowserNewContextOptions{}
	if opts.BaseURL != "" {
		contextOpts.BaseURL = playwright.String(opts.BaseURL)
	}
	if opts.Viewport.Width > 0 && opts.Viewport.Height > 0 {
		contextOpts.Viewport = &playwright.Size{Width: opts.Viewport.Width, Height: opts.Viewport.Height}
	}
	if opts.StorageStatePath != "" {
		contextOpts.StorageStatePath = playwright.String(opts.StorageStatePath)
	}
	bc, err := d.browser.NewContext(contextOpts)
	if err != nil {
		return nil, fmt.Errorf("could not create browser context: %w", err)
	}
	if opts.ActionTimeout > 0 {
		bc.SetDefaultTimeout(float64(opts.ActionTimeout.Milliseconds()))
	}
	if opts.NavigationTimeout > 0 {
		bc.SetDefaultNavigationTimeout(float64(opts.NavigationTimeout.Milliseconds()))
	}
	page, err := bc.NewPage()
	if err != nil {
		_ = bc.Close()
		return nil, fmt.Errorf("could not open page: %w", err)
	}
	evaluateTimeout := opts.ActionTimeout
	if evaluateTimeout <= 0 {
		evaluateTimeout = defaultEvaluateTimeout
	}
	return &session{
		context:         bc,
		page:            page,
		evaluateTimeout: evaluateTimeout,
		routes:          make(map[string]func(playwright.Route)),
	}, nil
}

// Close closes the browser and stops Playwright.
func (d *Driver) Close() error {
	var err error
	d.closing.Do(func() {
		if e := d.browser.Close(); e != nil {
			err = e
		}
		if e := d.pw.Stop(); e != nil && err == nil {
			err = e
		}
	})
	return err
}
