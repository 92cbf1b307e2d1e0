// Package browsertest provides an in-memory browser.Session for unit tests. The fake page is a
// set of elements keyed by selector whose state tests change directly or through callbacks, so
// that the behavior of an application can be simulated without a browser.
package browsertest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"regexp"
	"sync"
	"time"

	"github.com/feedbackhq/ui-contract-tests/browser"
)

// ErrNoElement is returned by element operations that need an element when none matches.
var ErrNoElement = errors.New("no element matches selector")

// ErrClosed is returned by every operation on a closed session.
var ErrClosed = errors.New("session is closed")

// Element is the state of one fake element. Once the element is in use by code under test,
// change it only through Session.Update or Session.Set.
type Element struct {
	Visible bool
	Text    string
	Value   string
	// Count is the number of matches reported by Count; zero means one.
	Count int

	// OnClick, OnFill and OnPress simulate the application reacting to input.
	OnClick func()
	OnFill  func(value string)
	OnPress func(key string)
}

// Session is a fake browser.Session.
type Session struct {
	// Backend serves requests that are not intercepted or that are continued. If nil, such
	// requests get an empty 200 response.
	Backend http.Handler

	// EvaluateFunc answers Evaluate and WaitFor. If nil, Evaluate returns nil.
	EvaluateFunc func(script string, arg interface{}) (interface{}, error)

	// ScreenshotData is returned by Screenshot.
	ScreenshotData []byte

	// OnNavigate and OnViewport simulate the application rendering a page or reacting to a
	// resize. They are called after the session state is updated, without the lock held.
	OnNavigate func(url string)
	OnViewport func(width, height int)

	lock        sync.Mutex
	elements    map[string]*Element
	url         string
	viewport    browser.Viewport
	routes      []fakeRoute
	navigations []string
	actions     []string
	closed      bool
}

type fakeRoute struct {
	pattern string
	rx      *regexp.Regexp
	handler browser.RouteHandler
}

// NewSession creates an empty fake page.
func NewSession() *Session {
	return &Session{
		elements:       make(map[string]*Element),
		ScreenshotData: []byte("\x89PNG fake"),
	}
}

// Set adds or replaces the element for a selector and returns it.
func (s *Session) Set(selector string, e *Element) *Element {
	s.lock.Lock()
	s.elements[selector] = e
	s.lock.Unlock()
	return e
}

// Remove makes a selector match nothing.
func (s *Session) Remove(selector string) {
	s.lock.Lock()
	delete(s.elements, selector)
	s.lock.Unlock()
}

// Update runs fn while holding the session lock, so that the change is observed atomically.
func (s *Session) Update(fn func(elements map[string]*Element)) {
	s.lock.Lock()
	fn(s.elements)
	s.lock.Unlock()
}

// Get returns a copy of the current state of an element, and whether it exists.
func (s *Session) Get(selector string) (Element, bool) {
	s.lock.Lock()
	defer s.lock.Unlock()
	e, ok := s.elements[selector]
	if !ok {
		return Element{}, false
	}
	return *e, true
}

// Navigations returns the URLs passed to Navigate so far.
func (s *Session) Navigations() []string {
	s.lock.Lock()
	defer s.lock.Unlock()
	return append([]string(nil), s.navigations...)
}

// Actions returns a log of element interactions, such as `click [data-testid="x"]`.
func (s *Session) Actions() []string {
	s.lock.Lock()
	defer s.lock.Unlock()
	return append([]string(nil), s.actions...)
}

// Viewport returns the last size passed to SetViewportSize.
func (s *Session) Viewport() browser.Viewport {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.viewport
}

// RouteCount returns the number of installed route handlers.
func (s *Session) RouteCount() int {
	s.lock.Lock()
	defer s.lock.Unlock()
	return len(s.routes)
}

// Closed reports whether Close was called.
func (s *Session) Closed() bool {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.closed
}

func (s *Session) Navigate(ctx context.Context, url string) error {
	s.lock.Lock()
	if s.closed {
		s.lock.Unlock()
		return ErrClosed
	}
	s.url = url
	s.navigations = append(s.navigations, url)
	s.lock.Unlock()
	if s.OnNavigate != nil {
		s.OnNavigate(url)
	}
	return nil
}

func (s *Session) Locate(selector string) browser.Element {
	return &elementHandle{session: s, selector: selector}
}

func (s *Session) WaitFor(ctx context.Context, script string, arg interface{}, timeout time.Duration) error {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	ticker := time.NewTicker(5 * time.Millisecond)
	defer ticker.Stop()
	for {
		v, err := s.Evaluate(ctx, script, arg)
		if err != nil {
			return err
		}
		if truthy(v) {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline.C:
			return fmt.Errorf("timed out after %s waiting for %s", timeout, script)
		case <-ticker.C:
		}
	}
}

func (s *Session) Evaluate(ctx context.Context, script string, arg interface{}) (interface{}, error) {
	if s.Closed() {
		return nil, ErrClosed
	}
	if s.EvaluateFunc == nil {
		return nil, nil
	}
	return s.EvaluateFunc(script, arg)
}

func (s *Session) SetViewportSize(ctx context.Context, width, height int) error {
	s.lock.Lock()
	s.viewport = browser.Viewport{Width: width, Height: height}
	s.lock.Unlock()
	if s.OnViewport != nil {
		s.OnViewport(width, height)
	}
	return nil
}

func (s *Session) Route(pattern string, handler browser.RouteHandler) error {
	rx, err := browser.CompileGlob(pattern)
	if err != nil {
		return err
	}
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.routes = append(s.routes, fakeRoute{pattern: pattern, rx: rx, handler: handler})
	return nil
}

func (s *Session) Unroute(pattern string) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	kept := s.routes[:0]
	for _, r := range s.routes {
		if r.pattern != pattern {
			kept = append(kept, r)
		}
	}
	s.routes = kept
	return nil
}

func (s *Session) Screenshot(ctx context.Context) ([]byte, error) {
	if s.Closed() {
		return nil, ErrClosed
	}
	return append([]byte(nil), s.ScreenshotData...), nil
}

func (s *Session) Content(ctx context.Context) (string, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.closed {
		return "", ErrClosed
	}
	return fmt.Sprintf("<html><!-- %s --><body>%d elements</body></html>", s.url, len(s.elements)), nil
}

func (s *Session) URL() string {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.url
}

func (s *Session) Close() error {
	s.lock.Lock()
	s.closed = true
	s.lock.Unlock()
	return nil
}

func (s *Session) record(action string) {
	s.lock.Lock()
	s.actions = append(s.actions, action)
	s.lock.Unlock()
}

func truthy(v interface{}) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != ""
	case float64:
		return x != 0
	case int:
		return x != 0
	default:
		return true
	}
}

// Outcome is what the fake page observed for a request it issued.
type Outcome struct {
	// Status is 0 if the request failed at the network level.
	Status      int
	Headers     http.Header
	Body        []byte
	Aborted     bool
	AbortReason string
	// Continued is true if the request went to the Backend.
	Continued bool
}

// Request simulates the page issuing a request, as a fetch call in application code would. It
// is dispatched to the most recently installed matching route, or to the Backend. It fails if no
// route handler settles the request within the timeout.
func (s *Session) Request(method, url string, timeout time.Duration) (Outcome, error) {
	s.lock.Lock()
	var handler browser.RouteHandler
	for i := len(s.routes) - 1; i >= 0; i-- {
		if s.routes[i].rx.MatchString(url) {
			handler = s.routes[i].handler
			break
		}
	}
	s.lock.Unlock()

	if handler == nil {
		return s.serveBackend(method, url), nil
	}
	req := &interceptedRequest{session: s, method: method, url: url, done: make(chan Outcome, 1)}
	go handler(req)
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	select {
	case o := <-req.done:
		return o, nil
	case <-deadline.C:
		return Outcome{}, fmt.Errorf("request %s %s was not settled within %s", method, url, timeout)
	}
}

func (s *Session) serveBackend(method, url string) Outcome {
	if s.Backend == nil {
		return Outcome{Status: http.StatusOK, Headers: make(http.Header), Continued: true}
	}
	r := httptest.NewRequest(method, url, nil)
	w := httptest.NewRecorder()
	s.Backend.ServeHTTP(w, r)
	return Outcome{Status: w.Code, Headers: w.Header(), Body: w.Body.Bytes(), Continued: true}
}

type interceptedRequest struct {
	session *Session
	method  string
	url     string
	once    sync.Once
	done    chan Outcome
}

func (r *interceptedRequest) Method() string { return r.method }
func (r *interceptedRequest) URL() string    { return r.url }

func (r *interceptedRequest) settle(o Outcome) error {
	settled := false
	r.once.Do(func() {
		settled = true
		r.done <- o
	})
	if !settled {
		return errors.New("request was already handled")
	}
	return nil
}

func (r *interceptedRequest) Fulfill(resp browser.Response) error {
	headers := resp.Headers
	if headers == nil {
		headers = make(http.Header)
	}
	return r.settle(Outcome{Status: resp.Status, Headers: headers, Body: resp.Body})
}

func (r *interceptedRequest) Abort(reason string) error {
	return r.settle(Outcome{Aborted: true, AbortReason: reason})
}

func (r *interceptedRequest) Continue() error {
	return r.settle(r.session.serveBackend(r.method, r.url))
}
