// Package netmock simulates network conditions for a browser session: fixed or malformed
// responses, server errors, network failures and slow responses.
package netmock

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/feedbackhq/ui-contract-tests/browser"
	"github.com/feedbackhq/ui-contract-tests/framework"
)

// catchAll is the single route the table installs on the session; it does its own matching so
// that the newest rule wins regardless of how the driver orders routes.
const catchAll = "**/*"

// AnyMethod matches requests with any method.
const AnyMethod = "*"

// Route is one rule: requests whose URL matches Pattern and whose method matches Method get
// Policy.
type Route struct {
	Pattern string
	Method  string
	Policy  Policy
}

type compiledRoute struct {
	Route
	match func(url string) bool
}

func (r compiledRoute) matches(method, url string) bool {
	return (r.Method == AnyMethod || strings.EqualFold(r.Method, method)) && r.match(url)
}

// MockRouteConflict is returned by Register when a rule already exists for the same pattern and
// method.
type MockRouteConflict struct {
	Pattern  string
	Method   string
	Existing string
}

func (e *MockRouteConflict) Error() string {
	return fmt.Sprintf("a mock route for %s %s is already registered (%s); use Override to replace it",
		e.Method, e.Pattern, e.Existing)
}

// LogEntry is one intercepted request.
type LogEntry struct {
	Time    time.Time `json:"time"`
	Method  string    `json:"method"`
	URL     string    `json:"url"`
	Pattern string    `json:"pattern,omitempty"`
	Outcome string    `json:"outcome"`
	Error   string    `json:"error,omitempty"`
}

// Table holds the mock routes of one scenario.
type Table struct {
	session browser.Session
	logger  framework.Logger
	ctx     context.Context
	cancel  context.CancelFunc

	lock      sync.Mutex
	routes    []compiledRoute
	installed bool
	log       []LogEntry
	pending   sync.WaitGroup
}

// NewTable creates an empty table for the session. Nothing is intercepted until the first rule
// is registered.
func NewTable(session browser.Session, logger framework.Logger) *Table {
	if logger == nil {
		logger = framework.NullLogger()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Table{session: session, logger: logger, ctx: ctx, cancel: cancel}
}

func normalize(pattern, method string) (string, string) {
	method = strings.ToUpper(strings.TrimSpace(method))
	if method == "" {
		method = AnyMethod
	}
	return strings.TrimSpace(pattern), method
}

// Register adds a rule. It takes effect before Register returns, so it applies to any matching
// request the page makes afterward. Rules registered later take precedence over earlier ones.
func (t *Table) Register(pattern, method string, policy Policy) error {
	return t.add(pattern, method, policy, false)
}

// Override is like Register, but replaces an existing rule for the same pattern and method.
func (t *Table) Override(pattern, method string, policy Policy) error {
	return t.add(pattern, method, policy, true)
}

func (t *Table) add(pattern, method string, policy Policy, replace bool) error {
	pattern, method = normalize(pattern, method)
	rx, err := browser.CompileGlob(pattern)
	if err != nil {
		return fmt.Errorf("invalid route pattern %q: %w", pattern, err)
	}

	t.lock.Lock()
	defer t.lock.Unlock()
	if t.ctx.Err() != nil {
		return fmt.Errorf("mock routes were already cleared")
	}
	for i, r := range t.routes {
		if r.Pattern == pattern && r.Method == method {
			if !replace {
				return &MockRouteConflict{Pattern: pattern, Method: method, Existing: r.Policy.String()}
			}
			t.routes = append(t.routes[:i], t.routes[i+1:]...)
			break
		}
	}
	if !t.installed {
		if err := t.session.Route(catchAll, t.dispatch); err != nil {
			return fmt.Errorf("could not intercept requests: %w", err)
		}
		t.installed = true
	}
	t.routes = append(t.routes, compiledRoute{
		Route: Route{Pattern: pattern, Method: method, Policy: policy},
		match: rx.MatchString,
	})
	t.logger.Printf("mock route %s %s -> %s", method, pattern, policy)
	return nil
}

// Routes returns the active rules, oldest first.
func (t *Table) Routes() []Route {
	t.lock.Lock()
	defer t.lock.Unlock()
	ret := make([]Route, 0, len(t.routes))
	for _, r := range t.routes {
		ret = append(ret, r.Route)
	}
	return ret
}

// Log returns every request the table has seen, in the order they were settled.
func (t *Table) Log() []LogEntry {
	t.lock.Lock()
	defer t.lock.Unlock()
	return append([]LogEntry(nil), t.log...)
}

// Clear removes every rule and detaches from the session. Delayed requests still pending are
// aborted. The table cannot be used afterward. Calling Clear more than once is harmless.
func (t *Table) Clear() error {
	t.lock.Lock()
	t.cancel()
	installed := t.installed
	t.installed = false
	t.routes = nil
	t.lock.Unlock()

	t.pending.Wait()
	if installed {
		return t.session.Unroute(catchAll)
	}
	return nil
}

func (t *Table) dispatch(req browser.InterceptedRequest) {
	t.lock.Lock()
	var matched *compiledRoute
	for i := len(t.routes) - 1; i >= 0; i-- {
		if t.routes[i].matches(req.Method(), req.URL()) {
			r := t.routes[i]
			matched = &r
			break
		}
	}
	if matched != nil {
		t.pending.Add(1)
		defer t.pending.Done()
	}
	t.lock.Unlock()

	entry := LogEntry{Method: req.Method(), URL: req.URL()}
	if matched == nil {
		entry.Outcome = OutcomePassthrough
		if err := req.Continue(); err != nil {
			entry.Outcome, entry.Error = OutcomeError, err.Error()
		}
	} else {
		entry.Pattern = matched.Pattern
		outcome, err := matched.Policy.Apply(t.ctx, req)
		entry.Outcome = outcome
		if err != nil {
			entry.Error = err.Error()
			t.logger.Printf("mock route %s %s failed for %s: %s", matched.Method, matched.Pattern, req.URL(), err)
		}
	}
	entry.Time = time.Now()

	t.lock.Lock()
	t.log = append(t.log, entry)
	t.lock.Unlock()
}
