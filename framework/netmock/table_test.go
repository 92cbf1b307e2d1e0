package netmock

import (
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/launchdarkly/go-test-helpers/v2/httphelpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"

	"github.com/feedbackhq/ui-contract-tests/browser/browsertest"
	"github.com/feedbackhq/ui-contract-tests/framework"
)

const (
	feedbackURL = "http://app.test/api/feedback"
	requestWait = time.Second
)

func newTable(t *testing.T) (*Table, *browsertest.Session) {
	s := browsertest.NewSession()
	s.Backend = httphelpers.HandlerWithResponse(200, nil, []byte("real"))
	table := NewTable(s, nil)
	t.Cleanup(func() { _ = table.Clear() })
	return table, s
}

func TestUnmatchedRequestsPassThrough(t *testing.T) {
	table, s := newTable(t)
	require.NoError(t, table.Register("**/api/organizations", "GET", Fulfill(500, nil, nil)))

	o, err := s.Request("GET", feedbackURL, requestWait)
	require.NoError(t, err)
	assert.True(t, o.Continued)
	assert.Equal(t, "real", string(o.Body))

	log := table.Log()
	require.Len(t, log, 1)
	assert.Equal(t, OutcomePassthrough, log[0].Outcome)
	assert.Equal(t, "", log[0].Pattern)
}

func TestNothingIsInterceptedBeforeFirstRule(t *testing.T) {
	_, s := newTable(t)
	assert.Equal(t, 0, s.RouteCount())
}

func TestFulfillServerErrorIsHTTPResponse(t *testing.T) {
	table, s := newTable(t)
	require.NoError(t, table.Register("**/api/feedback", "POST", Fulfill(500, []byte("oops"), nil)))

	o, err := s.Request("POST", feedbackURL, requestWait)
	require.NoError(t, err)
	assert.Equal(t, 500, o.Status)
	assert.False(t, o.Aborted)
	assert.Equal(t, "oops", string(o.Body))
}

func TestAbortIsNetworkFailureWithNoStatus(t *testing.T) {
	table, s := newTable(t)
	require.NoError(t, table.Register("**/api/feedback", "POST", Abort("failed")))

	o, err := s.Request("POST", feedbackURL, requestWait)
	require.NoError(t, err)
	assert.True(t, o.Aborted)
	assert.Equal(t, "failed", o.AbortReason)
	assert.Equal(t, 0, o.Status)

	log := table.Log()
	require.Len(t, log, 1)
	assert.Equal(t, "aborted failed", log[0].Outcome)
	assert.Equal(t, "**/api/feedback", log[0].Pattern)
}

func TestMethodIsPartOfMatch(t *testing.T) {
	table, s := newTable(t)
	require.NoError(t, table.Register("**/api/feedback", "post", Abort("")))

	o, err := s.Request("GET", feedbackURL, requestWait)
	require.NoError(t, err)
	assert.True(t, o.Continued)

	o, err = s.Request("POST", feedbackURL, requestWait)
	require.NoError(t, err)
	assert.True(t, o.Aborted)
}

func TestNewestMatchingRuleWins(t *testing.T) {
	table, s := newTable(t)
	require.NoError(t, table.Register("**/api/**", "", Fulfill(503, nil, nil)))
	require.NoError(t, table.Register("**/api/feedback", "", Fulfill(201, nil, nil)))

	o, err := s.Request("POST", feedbackURL, requestWait)
	require.NoError(t, err)
	assert.Equal(t, 201, o.Status)

	o, err = s.Request("GET", "http://app.test/api/organizations", requestWait)
	require.NoError(t, err)
	assert.Equal(t, 503, o.Status)
}

func TestPassthroughShadowsOlderRule(t *testing.T) {
	table, s := newTable(t)
	require.NoError(t, table.Register("**/api/**", "", Abort("failed")))
	require.NoError(t, table.Register("**/api/health", "", Passthrough()))

	o, err := s.Request("GET", "http://app.test/api/health", requestWait)
	require.NoError(t, err)
	assert.True(t, o.Continued)
}

func TestDuplicateRegistrationConflicts(t *testing.T) {
	table, _ := newTable(t)
	require.NoError(t, table.Register("**/api/feedback", "POST", Abort("failed")))

	err := table.Register(" **/api/feedback ", "post", Fulfill(200, nil, nil))
	var conflict *MockRouteConflict
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, "**/api/feedback", conflict.Pattern)
	assert.Equal(t, "POST", conflict.Method)
	assert.Equal(t, "abort(failed)", conflict.Existing)
	assert.Len(t, table.Routes(), 1)

	assert.NoError(t, table.Register("**/api/feedback", "GET", Abort("failed")))
	assert.NoError(t, table.Register("**/api/feedback", "", Abort("failed")))
}

func TestOverrideReplaces(t *testing.T) {
	table, s := newTable(t)
	require.NoError(t, table.Register("**/api/feedback", "POST", Abort("failed")))
	require.NoError(t, table.Override("**/api/feedback", "POST", Fulfill(201, nil, nil)))

	routes := table.Routes()
	require.Len(t, routes, 1)
	assert.Equal(t, "fulfill(201)", routes[0].Policy.String())

	o, err := s.Request("POST", feedbackURL, requestWait)
	require.NoError(t, err)
	assert.Equal(t, 201, o.Status)
}

func TestFulfillJSON(t *testing.T) {
	table, s := newTable(t)
	body := ldvalue.ObjectBuild().Set("id", ldvalue.String("FB-1")).Build()
	require.NoError(t, table.Register("**/api/feedback", "POST", FulfillJSON(201, body)))

	o, err := s.Request("POST", feedbackURL, requestWait)
	require.NoError(t, err)
	assert.Equal(t, 201, o.Status)
	assert.Equal(t, "application/json", o.Headers.Get("Content-Type"))
	assert.JSONEq(t, `{"id":"FB-1"}`, string(o.Body))
}

func TestMalformedBodyDoesNotParse(t *testing.T) {
	table, s := newTable(t)
	require.NoError(t, table.Register("**/api/organizations", "GET", Malformed(200)))

	o, err := s.Request("GET", "http://app.test/api/organizations", requestWait)
	require.NoError(t, err)
	assert.Equal(t, 200, o.Status)
	assert.False(t, ldvalue.Parse(o.Body).IsDefined())
}

func TestFulfillHandlerSeesRequest(t *testing.T) {
	table, s := newTable(t)
	handler, requests := httphelpers.RecordingHandler(httphelpers.HandlerWithStatus(204))
	require.NoError(t, table.Register("**/api/feedback", "", FulfillHandler(handler)))

	o, err := s.Request("DELETE", feedbackURL, requestWait)
	require.NoError(t, err)
	assert.Equal(t, 204, o.Status)

	r := <-requests
	assert.Equal(t, "DELETE", r.Request.Method)
	assert.Equal(t, "/api/feedback", r.Request.URL.Path)
}

func TestDelayHoldsResponse(t *testing.T) {
	table, s := newTable(t)
	require.NoError(t, table.Register("**/api/organizations", "GET",
		Delay(50*time.Millisecond, Fulfill(200, []byte("[]"), nil))))

	started := time.Now()
	o, err := s.Request("GET", "http://app.test/api/organizations", requestWait)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(started), 50*time.Millisecond)
	assert.Equal(t, 200, o.Status)
}

func TestClearCancelsDelayAndDetaches(t *testing.T) {
	table, s := newTable(t)
	require.NoError(t, table.Register("**/api/organizations", "GET", Delay(time.Hour, Fulfill(200, nil, nil))))
	require.Equal(t, 1, s.RouteCount())

	var wg sync.WaitGroup
	var o browsertest.Outcome
	wg.Add(1)
	go func() {
		defer wg.Done()
		o, _ = s.Request("GET", "http://app.test/api/organizations", 5*time.Second)
	}()
	time.Sleep(20 * time.Millisecond)

	require.NoError(t, table.Clear())
	wg.Wait()
	assert.True(t, o.Aborted)
	assert.Equal(t, 0, s.RouteCount())
	assert.Empty(t, table.Routes())
	assert.Equal(t, OutcomeCancelled, table.Log()[0].Outcome)

	assert.NoError(t, table.Clear())
	assert.Error(t, table.Register("**/x", "", Abort("")))
}

func TestRegistrationIsLogged(t *testing.T) {
	s := browsertest.NewSession()
	var logger framework.CapturingLogger
	table := NewTable(s, &logger)
	defer table.Clear()

	require.NoError(t, table.Register("**/api/feedback", "POST", Abort("timedout")))
	out := logger.Output()
	require.Len(t, out, 1)
	assert.Equal(t, "mock route POST **/api/feedback -> abort(timedout)", out[0].Message)
}

func TestFulfillPassesHeaders(t *testing.T) {
	table, s := newTable(t)
	headers := http.Header{"Retry-After": []string{"30"}}
	require.NoError(t, table.Register("**/api/feedback", "", Fulfill(503, nil, headers)))

	o, err := s.Request("POST", feedbackURL, requestWait)
	require.NoError(t, err)
	assert.Equal(t, "30", o.Headers.Get("Retry-After"))
}
