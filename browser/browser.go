// Package browser defines the boundary between the harness and a browser automation engine.
//
// Everything above this package talks to a Session; the pwdriver and cdpdriver subpackages
// adapt Playwright and the Chrome DevTools Protocol to it, and browsertest provides an in-memory
// fake for unit tests.
//
// Scripts passed to Evaluate and WaitFor are JavaScript function expressions, such as
// "(sel) => document.querySelector(sel) !== null". The optional argument is passed to the
// function after a JSON round trip, and a returned promise is awaited.
package browser

import (
	"context"
	"net/http"
	"time"
)

// Driver starts isolated browser sessions. A Driver is safe for concurrent use; the sessions it
// creates are not.
type Driver interface {
	NewSession(ctx context.Context, opts SessionOptions) (Session, error)
	Close() error
}

// Viewport is a browser window size in CSS pixels.
type Viewport struct {
	Width  int `yaml:"width" json:"width" validate:"gt=0"`
	Height int `yaml:"height" json:"height" validate:"gt=0"`
}

// SessionOptions configures a new session.
type SessionOptions struct {
	// BaseURL is used to resolve relative URLs passed to Navigate.
	BaseURL string

	// Viewport is the initial window size; zero means the driver default.
	Viewport Viewport

	// StorageStatePath, if set, is a file in Playwright's storage state format whose cookies
	// are loaded into the session before any navigation. This is how scenarios start out
	// already signed in.
	StorageStatePath string

	// ActionTimeout bounds every individual browser interaction.
	ActionTimeout time.Duration

	// NavigationTimeout bounds page loads.
	NavigationTimeout time.Duration
}

// Session is one isolated browser context with a single page.
type Session interface {
	Navigate(ctx context.Context, url string) error
	// Locate returns a handle for elements matching the selector. It never fails: the element
	// is looked up each time the handle is used, so it may or may not exist.
	Locate(selector string) Element
	WaitFor(ctx context.Context, script string, arg interface{}, timeout time.Duration) error
	Evaluate(ctx context.Context, script string, arg interface{}) (interface{}, error)
	SetViewportSize(ctx context.Context, width, height int) error
	// Route installs a handler for requests whose URL matches the glob pattern. Handlers must
	// eventually call exactly one of Fulfill, Abort or Continue on each request.
	Route(pattern string, handler RouteHandler) error
	Unroute(pattern string) error
	Screenshot(ctx context.Context) ([]byte, error)
	Content(ctx context.Context) (string, error)
	URL() string
	Close() error
}

// Element is a lazily resolved handle to the elements matching a selector. Actions operate on
// the first match.
type Element interface {
	Selector() string
	Click(ctx context.Context) error
	Fill(ctx context.Context, value string) error
	Press(ctx context.Context, key string) error
	IsVisible(ctx context.Context) (bool, error)
	Text(ctx context.Context) (string, error)
	Value(ctx context.Context) (string, error)
	Count(ctx context.Context) (int, error)
}

// RouteHandler receives intercepted requests. It may be called on any goroutine.
type RouteHandler func(InterceptedRequest)

// InterceptedRequest is a request held by the browser until the handler decides its fate.
type InterceptedRequest interface {
	Method() string
	URL() string
	// Fulfill answers the request without touching the network.
	Fulfill(resp Response) error
	// Abort fails the request at the network level; the page sees no HTTP status at all.
	Abort(reason string) error
	// Continue lets the request proceed to the real network.
	Continue() error
}

// Response is a synthetic HTTP response.
type Response struct {
	Status  int
	Headers http.Header
	Body    []byte
}
