package netmock

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/launchdarkly/go-test-helpers/v2/httphelpers"
	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"

	"github.com/feedbackhq/ui-contract-tests/browser"
)

// Outcome values recorded in the request log.
const (
	OutcomeFulfilled   = "fulfilled"
	OutcomeAborted     = "aborted"
	OutcomePassthrough = "passthrough"
	OutcomeCancelled   = "cancelled"
	OutcomeError       = "error"
)

// Policy decides what happens to an intercepted request.
type Policy interface {
	// Apply settles the request and returns an outcome for the request log.
	Apply(ctx context.Context, req browser.InterceptedRequest) (string, error)
	String() string
}

type fulfillPolicy struct {
	handler http.Handler
	desc    string
}

// Fulfill answers with a fixed response. A 5xx status is still an HTTP response as far as the
// page is concerned, unlike Abort.
func Fulfill(status int, body []byte, headers http.Header) Policy {
	return fulfillPolicy{
		handler: httphelpers.HandlerWithResponse(status, headers, body),
		desc:    fmt.Sprintf("fulfill(%d)", status),
	}
}

// FulfillJSON answers with a JSON body.
func FulfillJSON(status int, body ldvalue.Value) Policy {
	headers := http.Header{"Content-Type": []string{"application/json"}}
	return fulfillPolicy{
		handler: httphelpers.HandlerWithResponse(status, headers, []byte(body.JSONString())),
		desc:    fmt.Sprintf("fulfill(%d, json)", status),
	}
}

// FulfillHandler answers with whatever the handler writes. The handler sees the method and URL
// of the intercepted request but no body.
func FulfillHandler(handler http.Handler) Policy {
	return fulfillPolicy{handler: handler, desc: "fulfill(handler)"}
}

// Malformed answers with a body that claims to be JSON but does not parse.
func Malformed(status int) Policy {
	headers := http.Header{"Content-Type": []string{"application/json"}}
	return fulfillPolicy{
		handler: httphelpers.HandlerWithResponse(status, headers, []byte(`{"data": [{"id": 1,`)),
		desc:    fmt.Sprintf("malformed(%d)", status),
	}
}

func (p fulfillPolicy) String() string { return p.desc }

func (p fulfillPolicy) Apply(ctx context.Context, req browser.InterceptedRequest) (string, error) {
	resp, err := record(p.handler, req)
	if err != nil {
		_ = req.Abort("failed")
		return OutcomeError, err
	}
	if err := req.Fulfill(resp); err != nil {
		return OutcomeError, err
	}
	return fmt.Sprintf("%s %d", OutcomeFulfilled, resp.Status), nil
}

func record(handler http.Handler, req browser.InterceptedRequest) (browser.Response, error) {
	r, err := http.NewRequest(req.Method(), req.URL(), nil)
	if err != nil {
		return browser.Response{}, err
	}
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	return browser.Response{Status: w.Code, Headers: w.Header(), Body: w.Body.Bytes()}, nil
}

type abortPolicy struct {
	reason string
}

// Abort fails the request at the network level, as a dropped connection would. The page gets no
// HTTP status at all. The reason is a code such as "failed", "timedout" or "connectionrefused".
func Abort(reason string) Policy {
	if reason == "" {
		reason = "failed"
	}
	return abortPolicy{reason: reason}
}

func (p abortPolicy) String() string { return "abort(" + p.reason + ")" }

func (p abortPolicy) Apply(ctx context.Context, req browser.InterceptedRequest) (string, error) {
	if err := req.Abort(p.reason); err != nil {
		return OutcomeError, err
	}
	return OutcomeAborted + " " + p.reason, nil
}

type delayPolicy struct {
	delay time.Duration
	then  Policy
}

// Delay holds the request for at least d and then applies the next policy. If the table is
// cleared in the meantime the request is aborted instead.
func Delay(d time.Duration, then Policy) Policy {
	return delayPolicy{delay: d, then: then}
}

func (p delayPolicy) String() string { return fmt.Sprintf("delay(%s, %s)", p.delay, p.then) }

func (p delayPolicy) Apply(ctx context.Context, req browser.InterceptedRequest) (string, error) {
	timer := time.NewTimer(p.delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return p.then.Apply(ctx, req)
	case <-ctx.Done():
		_ = req.Abort("aborted")
		return OutcomeCancelled, nil
	}
}

type passthroughPolicy struct{}

// Passthrough lets the request reach the network. It can shadow an older, broader rule.
func Passthrough() Policy { return passthroughPolicy{} }

func (passthroughPolicy) String() string { return OutcomePassthrough }

func (passthroughPolicy) Apply(ctx context.Context, req browser.InterceptedRequest) (string, error) {
	if err := req.Continue(); err != nil {
		return OutcomeError, err
	}
	return OutcomePassthrough, nil
}
