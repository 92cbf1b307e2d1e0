package pwdriver

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/feedbackhq/ui-contract-tests/browser"
)

// defaultEvaluateTimeout bounds Evaluate for sessions opened without an action timeout.
const defaultEvaluateTimeout = 30 * time.Second

type session struct {
	context         playwright.BrowserContext
	page            playwright.Page
	evaluateTimeout time.Duration
	routes          map[string]func(playwright.Route)
	lock            sync.Mutex
}

func (s *session) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := s.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   timeoutFrom(ctx),
	})
	return err
}

func (s *session) Locate(selector string) browser.Element {
	return &element{locator: s.page.Locator(selector), selector: selector}
}

func (s *session) WaitFor(ctx context.Context, script string, arg interface{}, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := s.page.WaitForFunction(script, arg, playwright.PageWaitForFunctionOptions{
		Timeout: playwright.Float(float64(timeout.Milliseconds())),
	})
	return err
}

// Evaluate runs a script in the page. Playwright's Evaluate has no timeout of its own, so the
// wait is bounded by ctx and by the session's action timeout.
func (s *session) Evaluate(ctx context.Context, script string, arg interface{}) (interface{}, error) {
	return bounded(ctx, s.evaluateTimeout, func() (interface{}, error) {
		if arg == nil {
			return s.page.Evaluate(script)
		}
		return s.page.Evaluate(script, arg)
	})
}

// bounded waits for call until it returns, ctx ends or timeout elapses. A Playwright call cannot
// be interrupted, so an abandoned call finishes in the background and its result is dropped.
func bounded(ctx context.Context, timeout time.Duration, call func() (interface{}, error)) (interface{}, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	type result struct {
		value interface{}
		err   error
	}
	done := make(chan result, 1)
	go func() {
		v, err := call()
		done <- result{value: v, err: err}
	}()

	var expired <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.C
	}
	select {
	case r := <-done:
		return r.value, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-expired:
		return nil, fmt.Errorf("script did not finish within %s: %w", timeout, context.DeadlineExceeded)
	}
}

func (s *session) SetViewportSize(ctx context.Context, width, height int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.page.SetViewportSize(width, height)
}

func (s *session) Route(pattern string, handler browser.RouteHandler) error {
	// Playwright delivers route events on its dispatcher goroutine; handlers that hold a
	// request (delays) must not block it.
	fn := func(r playwright.Route) {
		go handler(&interceptedRequest{route: r})
	}
	s.lock.Lock()
	defer s.lock.Unlock()
	if _, exists := s.routes[pattern]; exists {
		return fmt.Errorf("a route is already installed for %q", pattern)
	}
	if err := s.page.Route(pattern, fn); err != nil {
		return err
	}
	s.routes[pattern] = fn
	return nil
}

func (s *session) Unroute(pattern string) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	if _, exists := s.routes[pattern]; !exists {
		return nil
	}
	delete(s.routes, pattern)
	return s.page.Unroute(pattern)
}

func (s *session) Screenshot(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.page.Screenshot(playwright.PageScreenshotOptions{
		FullPage: playwright.Bool(true),
		Type:     playwright.ScreenshotTypePng,
	})
}

func (s *session) Content(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return s.page.Content()
}

func (s *session) URL() string {
	return s.page.URL()
}

func (s *session) Close() error {
	return s.context.Close()
}

// timeoutFrom converts the context deadline into a Playwright timeout in milliseconds, or nil
// to use the context default.
func timeoutFrom(ctx context.Context) *float64 {
	deadline, ok := ctx.Deadline()
	if !ok {
		return nil
	}
	remaining := time.Until(deadline)
	if remaining < time.Millisecond {
		remaining = time.Millisecond
	}
	return playwright.Float(float64(remaining.Milliseconds()))
}
