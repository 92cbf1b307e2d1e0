// Package expect provides assertions about rendered UI state. Each assertion polls at a fixed
// interval until its predicate holds or its timeout elapses; nothing here sleeps for a fixed
// time and hopes for the best.
package expect

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/feedbackhq/ui-contract-tests/browser"
)

const (
	DefaultTimeout  = 5 * time.Second
	DefaultInterval = 100 * time.Millisecond
)

// AssertionTimeout is returned when a predicate did not hold before the timeout.
type AssertionTimeout struct {
	Predicate    string
	LastObserved string
	Timeout      time.Duration
}

func (e *AssertionTimeout) Error() string {
	return fmt.Sprintf("timed out after %s waiting for %s (last observed: %s)", e.Timeout, e.Predicate, e.LastObserved)
}

// Expecter holds the polling parameters. The zero value uses DefaultTimeout and DefaultInterval.
type Expecter struct {
	Interval time.Duration
	Timeout  time.Duration
}

// New returns an Expecter with the given timeout and poll interval.
func New(timeout, interval time.Duration) Expecter {
	return Expecter{Interval: interval, Timeout: timeout}
}

// WithTimeout returns a copy of the Expecter with a different timeout, for a single slow assertion.
func (e Expecter) WithTimeout(timeout time.Duration) Expecter {
	e.Timeout = timeout
	return e
}

// Check is a predicate for Condition. It reports whether the condition holds and a description
// of what it saw, which ends up in the AssertionTimeout if the condition never holds.
type Check func(ctx context.Context) (ok bool, observed string, err error)

// Visible waits until the element is visible.
func (e Expecter) Visible(ctx context.Context, el browser.Element) error {
	return e.poll(ctx, fmt.Sprintf("%s to be visible", el.Selector()), visibility(el, true))
}

// Hidden waits until the element is absent or not visible.
func (e Expecter) Hidden(ctx context.Context, el browser.Element) error {
	return e.poll(ctx, fmt.Sprintf("%s to be hidden", el.Selector()), visibility(el, false))
}

// Text waits until the element's text matches the pattern.
func (e Expecter) Text(ctx context.Context, el browser.Element, pattern *regexp.Regexp) error {
	return e.poll(ctx, fmt.Sprintf("text of %s to match /%s/", el.Selector(), pattern),
		func(ctx context.Context) (bool, string, error) {
			text, err := el.Text(ctx)
			if err != nil {
				return false, err.Error(), nil
			}
			return pattern.MatchString(text), fmt.Sprintf("%q", text), nil
		})
}

// TextContains waits until the element's text contains the substring.
func (e Expecter) TextContains(ctx context.Context, el browser.Element, substring string) error {
	return e.poll(ctx, fmt.Sprintf("text of %s to contain %q", el.Selector(), substring),
		func(ctx context.Context) (bool, string, error) {
			text, err := el.Text(ctx)
			if err != nil {
				return false, err.Error(), nil
			}
			return strings.Contains(text, substring), fmt.Sprintf("%q", text), nil
		})
}

// Value waits until the value of an input element equals want.
func (e Expecter) Value(ctx context.Context, el browser.Element, want string) error {
	return e.poll(ctx, fmt.Sprintf("value of %s to be %q", el.Selector(), want), value(el, want))
}

// Empty waits until the value of an input element is empty, as it is after a form reset.
func (e Expecter) Empty(ctx context.Context, el browser.Element) error {
	return e.poll(ctx, fmt.Sprintf("value of %s to be empty", el.Selector()), value(el, ""))
}

// Count waits until exactly n elements match.
func (e Expecter) Count(ctx context.Context, el browser.Element, n int) error {
	return e.poll(ctx, fmt.Sprintf("%d elements matching %s", n, el.Selector()),
		func(ctx context.Context) (bool, string, error) {
			count, err := el.Count(ctx)
			if err != nil {
				return false, err.Error(), nil
			}
			return count == n, fmt.Sprintf("%d", count), nil
		})
}

// AnyVisible waits until at least one of the elements is visible. Layouts that show different
// controls at different widths are checked this way.
func (e Expecter) AnyVisible(ctx context.Context, elements ...browser.Element) error {
	selectors := make([]string, 0, len(elements))
	for _, el := range elements {
		selectors = append(selectors, el.Selector())
	}
	return e.poll(ctx, fmt.Sprintf("any of [%s] to be visible", strings.Join(selectors, ", ")),
		func(ctx context.Context) (bool, string, error) {
			for _, el := range elements {
				if visible, err := el.IsVisible(ctx); err == nil && visible {
					return true, el.Selector() + " visible", nil
				}
			}
			return false, "none visible", nil
		})
}

// Condition waits for an arbitrary check. An error from the check ends the wait immediately.
func (e Expecter) Condition(ctx context.Context, description string, check Check) error {
	return e.poll(ctx, description, check)
}

func visibility(el browser.Element, want bool) Check {
	return func(ctx context.Context) (bool, string, error) {
		visible, err := el.IsVisible(ctx)
		if err != nil {
			return false, err.Error(), nil
		}
		if visible {
			return want, "visible", nil
		}
		return !want, "not visible", nil
	}
}

func value(el browser.Element, want string) Check {
	return func(ctx context.Context) (bool, string, error) {
		v, err := el.Value(ctx)
		if err != nil {
			return false, err.Error(), nil
		}
		return v == want, fmt.Sprintf("%q", v), nil
	}
}

func (e Expecter) poll(ctx context.Context, predicate string, check Check) error {
	timeout, interval := e.Timeout, e.Interval
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if interval <= 0 {
		interval = DefaultInterval
	}
	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	lastObserved := "nothing"
	for {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("stopped waiting for %s: %w", predicate, err)
		}
		ok, observed, err := check(ctx)
		if err != nil {
			return fmt.Errorf("error while waiting for %s: %w", predicate, err)
		}
		if ok {
			return nil
		}
		if observed != "" {
			lastObserved = observed
		}
		if !time.Now().Before(deadline) {
			return &AssertionTimeout{Predicate: predicate, LastObserved: lastObserved, Timeout: timeout}
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("stopped waiting for %s: %w", predicate, ctx.Err())
		case <-ticker.C:
		}
	}
}
