package cdpdriver

import (
	"context"
	"encoding/base64"
	"fmt"
	"regexp"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/fetch"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	"github.com/feedbackhq/ui-contract-tests/browser"
)

var abortReasons = map[string]network.ErrorReason{
	"failed":               network.ErrorReasonFailed,
	"aborted":              network.ErrorReasonAborted,
	"timedout":             network.ErrorReasonTimedOut,
	"accessdenied":         network.ErrorReasonAccessDenied,
	"connectionclosed":     network.ErrorReasonConnectionClosed,
	"connectionreset":      network.ErrorReasonConnectionReset,
	"connectionrefused":    network.ErrorReasonConnectionRefused,
	"connectionaborted":    network.ErrorReasonConnectionAborted,
	"connectionfailed":     network.ErrorReasonConnectionFailed,
	"namenotresolved":      network.ErrorReasonNameNotResolved,
	"internetdisconnected": network.ErrorReasonInternetDisconnected,
	"addressunreachable":   network.ErrorReasonAddressUnreachable,
	"blockedbyclient":      network.ErrorReasonBlockedByClient,
	"blockedbyresponse":    network.ErrorReasonBlockedByResponse,
}

type route struct {
	pattern string
	rx      *regexp.Regexp
	handler browser.RouteHandler
}

// listen subscribes to paused requests for the lifetime of the tab. Requests are only paused
// while at least one route is installed.
func (s *session) listen() {
	chromedp.ListenTarget(s.tab, func(ev interface{}) {
		paused, ok := ev.(*fetch.EventRequestPaused)
		if !ok {
			return
		}
		go s.dispatch(paused)
	})
}

func (s *session) dispatch(ev *fetch.EventRequestPaused) {
	req := &interceptedRequest{session: s, id: ev.RequestID, method: ev.Request.Method, url: ev.Request.URL}
	s.lock.Lock()
	var handler browser.RouteHandler
	for i := len(s.routes) - 1; i >= 0; i-- {
		if s.routes[i].rx.MatchString(req.url) {
			handler = s.routes[i].handler
			break
		}
	}
	s.lock.Unlock()
	if handler == nil {
		_ = req.Continue()
		return
	}
	handler(req)
}

func (s *session) executor() context.Context {
	c := chromedp.FromContext(s.tab)
	return cdp.WithExecutor(s.tab, c.Target)
}

func (s *session) Route(pattern string, handler browser.RouteHandler) error {
	rx, err := browser.CompileGlob(pattern)
	if err != nil {
		return err
	}
	s.lock.Lock()
	defer s.lock.Unlock()
	for _, r := range s.routes {
		if r.pattern == pattern {
			return fmt.Errorf("a route is already installed for %q", pattern)
		}
	}
	if !s.fetchEnabled {
		enable := fetch.Enable().WithPatterns([]*fetch.RequestPattern{{URLPattern: "*"}})
		if err := chromedp.Run(s.tab, enable); err != nil {
			return fmt.Errorf("could not enable request interception: %w", err)
		}
		s.fetchEnabled = true
	}
	s.routes = append(s.routes, route{pattern: pattern, rx: rx, handler: handler})
	return nil
}

func (s *session) Unroute(pattern string) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	kept := s.routes[:0]
	for _, r := range s.routes {
		if r.pattern != pattern {
			kept = append(kept, r)
		}
	}
	s.routes = kept
	if len(s.routes) == 0 && s.fetchEnabled {
		s.fetchEnabled = false
		return chromedp.Run(s.tab, fetch.Disable())
	}
	return nil
}

type interceptedRequest struct {
	session *session
	id      fetch.RequestID
	method  string
	url     string
}

func (r *interceptedRequest) Method() string { return r.method }
func (r *interceptedRequest) URL() string    { return r.url }

func (r *interceptedRequest) Fulfill(resp browser.Response) error {
	var headers []*fetch.HeaderEntry
	for k, values := range resp.Headers {
		for _, v := range values {
			headers = append(headers, &fetch.HeaderEntry{Name: k, Value: v})
		}
	}
	action := fetch.FulfillRequest(r.id, int64(resp.Status)).
		WithResponseHeaders(headers).
		WithBody(base64.StdEncoding.EncodeToString(resp.Body))
	return action.Do(r.session.executor())
}

// Abort takes the same lower-case error codes as Playwright, such as "failed".
func (r *interceptedRequest) Abort(reason string) error {
	errorReason, ok := abortReasons[reason]
	if !ok {
		errorReason = network.ErrorReasonFailed
	}
	return fetch.FailRequest(r.id, errorReason).Do(r.session.executor())
}

func (r *interceptedRequest) Continue() error {
	return fetch.ContinueRequest(r.id).Do(r.session.executor())
}
