package harness

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/launchdarkly/go-test-helpers/v2/httphelpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feedbackhq/ui-contract-tests/browser"
	"github.com/feedbackhq/ui-contract-tests/browser/browsertest"
	"github.com/feedbackhq/ui-contract-tests/config"
	"github.com/feedbackhq/ui-contract-tests/framework/a11y"
	"github.com/feedbackhq/ui-contract-tests/framework/netmock"
)

type cleanAnalyzer struct{}

func (cleanAnalyzer) Analyze(context.Context, browser.Session, a11y.Scope, []string) (interface{}, error) {
	return []interface{}{
		map[string]interface{}{"id": "color-contrast", "impact": "serious", "description": "low contrast"},
	}, nil
}

func newTestHarness(t *testing.T) (*TestHarness, *browsertest.Driver) {
	cfg := config.Default()
	cfg.ArtifactsDir = t.TempDir()
	cfg.Timeouts.Assertion = 100 * time.Millisecond
	cfg.Timeouts.PollInterval = 5 * time.Millisecond
	cfg.Performance.Budgets = map[string]time.Duration{"dashboard": time.Hour}
	driver := &browsertest.Driver{}
	h, err := NewTestHarness(context.Background(), cfg, Options{
		Driver:          driver,
		Analyzer:        cleanAnalyzer{},
		SkipStatusQuery: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = h.Close() })
	return h, driver
}

func TestHarnessDoesNotCloseDriverItDidNotOpen(t *testing.T) {
	h, driver := newTestHarness(t)
	require.NoError(t, h.Close())
	assert.False(t, driver.Closed())
}

func TestScenarioLifecycle(t *testing.T) {
	h, driver := newTestHarness(t)
	s := h.NewScenario("feedback submit", nil)
	assert.Equal(t, Created, s.State())
	assert.Nil(t, s.Session())

	require.NoError(t, s.Prepare(context.Background(), StorageState("auth.json")))
	assert.Equal(t, AuthenticatedContextReady, s.State())
	require.Len(t, driver.Sessions(), 1)
	opts := driver.SessionOptions()[0]
	assert.Equal(t, "auth.json", opts.StorageStatePath)
	assert.Equal(t, h.Config().BaseURL, opts.BaseURL)
	assert.Equal(t, h.Config().Viewport, opts.Viewport)

	require.NoError(t, s.Begin())
	assert.Equal(t, Executing, s.State())
	require.NoError(t, s.Pass())
	assert.Equal(t, Passed, s.State())

	require.NoError(t, s.TearDown())
	assert.Equal(t, TornDown, s.State())
	assert.True(t, driver.Sessions()[0].Closed())
	require.NoError(t, s.TearDown())
	assert.Empty(t, h.FailureDirs())
}

func TestIllegalTransitions(t *testing.T) {
	h, _ := newTestHarness(t)
	s := h.NewScenario("x", nil)

	var stateErr *StateError
	require.True(t, errors.As(s.Begin(), &stateErr))
	assert.Equal(t, "begin", stateErr.Op)
	assert.Equal(t, Created, stateErr.State)
	assert.True(t, errors.As(s.Pass(), &stateErr))

	require.NoError(t, s.Prepare(context.Background(), nil))
	assert.True(t, errors.As(s.Prepare(context.Background(), nil), &stateErr))
	assert.True(t, errors.As(s.Pass(), &stateErr))

	require.NoError(t, s.Begin())
	require.NoError(t, s.Pass())
	assert.True(t, errors.As(s.Fail(context.Background(), errors.New("late")), &stateErr))

	require.NoError(t, s.TearDown())
	assert.True(t, errors.As(s.Begin(), &stateErr))
	assert.Equal(t, TornDown, stateErr.State)
}

func TestSignInThroughUI(t *testing.T) {
	h, driver := newTestHarness(t)
	s := h.NewScenario("sign in", nil)
	signedIn := false

	err := s.Prepare(context.Background(), SignInFunc(func(ctx context.Context, s *Scenario) error {
		signedIn = true
		return s.Session().Navigate(ctx, "/login")
	}))
	require.NoError(t, err)
	assert.True(t, signedIn)
	assert.Equal(t, "", driver.SessionOptions()[0].StorageStatePath)
	assert.Equal(t, []string{"/login"}, driver.Sessions()[0].Navigations())
}

func TestFailCapturesArtifactsBeforeTransition(t *testing.T) {
	h, driver := newTestHarness(t)
	s := h.NewScenario("network/abort", nil)
	require.NoError(t, s.Prepare(context.Background(), nil))
	require.NoError(t, s.Begin())

	session := driver.Sessions()[0]
	require.NoError(t, s.Routes().Register("**/api/feedback", "POST", netmock.Abort("failed")))
	_, err := session.Request("POST", "http://localhost:3000/api/feedback", time.Second)
	require.NoError(t, err)
	_, err = s.Measure(context.Background(), "dashboard", func(context.Context) error { return nil })
	require.NoError(t, err)
	_, err = s.Scan(context.Background(), a11y.Document, "")
	require.NoError(t, err)

	cause := errors.New("expected error message to be visible")
	require.NoError(t, s.Fail(context.Background(), cause))
	assert.Equal(t, Failed, s.State())
	assert.Equal(t, cause, s.Failure())

	dir := s.ArtifactDir()
	require.NotEmpty(t, dir)
	assert.Equal(t, []string{dir}, h.FailureDirs())
	assert.True(t, strings.HasPrefix(filepath.Base(dir), "network-abort-"))
	for _, file := range []string{ScreenshotFile, DOMFile, ErrorFile, NetworkFile, MeasurementsFile, ViolationsFile, DebugLogFile} {
		assert.FileExists(t, filepath.Join(dir, file))
	}
	errText, err := os.ReadFile(filepath.Join(dir, ErrorFile))
	require.NoError(t, err)
	assert.Equal(t, "expected error message to be visible\n", string(errText))
	network, err := os.ReadFile(filepath.Join(dir, NetworkFile))
	require.NoError(t, err)
	assert.Contains(t, string(network), `"outcome": "aborted failed"`)
	violations, err := os.ReadFile(filepath.Join(dir, ViolationsFile))
	require.NoError(t, err)
	assert.Contains(t, string(violations), `"impact": "serious"`)

	require.NoError(t, s.TearDown())
	assert.Equal(t, 0, session.RouteCount())
}

func TestFailDuringPrepare(t *testing.T) {
	h, driver := newTestHarness(t)
	driver.Err = errors.New("browser crashed")
	s := h.NewScenario("x", nil)

	err := s.Prepare(context.Background(), nil)
	require.Error(t, err)
	require.NoError(t, s.Fail(context.Background(), err))
	assert.Equal(t, Failed, s.State())
	assert.FileExists(t, filepath.Join(s.ArtifactDir(), ErrorFile))
	assert.NoFileExists(t, filepath.Join(s.ArtifactDir(), ScreenshotFile))
	require.NoError(t, s.TearDown())
}

func TestMeasureUsesConfiguredBudget(t *testing.T) {
	h, _ := newTestHarness(t)
	s := h.NewScenario("perf", nil)

	m, err := s.Measure(context.Background(), "dashboard", func(context.Context) error { return nil })
	require.NoError(t, err)
	assert.Equal(t, time.Hour, m.Budget)
	m, err = s.Measure(context.Background(), "other", func(context.Context) error { return nil })
	require.NoError(t, err)
	assert.Equal(t, h.Config().Performance.DefaultBudget, m.Budget)
	assert.Len(t, s.Measurements(), 2)
	assert.Len(t, h.Recorder().Measurements(), 2)
}

func TestMeasureRecordsPanickingOperation(t *testing.T) {
	h, _ := newTestHarness(t)
	s := h.NewScenario("perf", nil)

	assert.PanicsWithValue(t, "page crashed", func() {
		_, _ = s.Measure(context.Background(), "dashboard", func(context.Context) error {
			time.Sleep(5 * time.Millisecond)
			panic("page crashed")
		})
	})
	require.Len(t, s.Measurements(), 1)
	assert.Equal(t, "dashboard", s.Measurements()[0].Operation)
	assert.GreaterOrEqual(t, s.Measurements()[0].Duration, 5*time.Millisecond)
	assert.Len(t, h.Recorder().Measurements(), 1)
}

func TestScanBeforePrepareIsStateError(t *testing.T) {
	h, _ := newTestHarness(t)
	_, err := h.NewScenario("x", nil).Scan(context.Background(), a11y.Document, "")
	var stateErr *StateError
	assert.True(t, errors.As(err, &stateErr))
}

func TestRunScenarioPasses(t *testing.T) {
	h, driver := newTestHarness(t)
	var seen *Scenario
	err := h.RunScenario(context.Background(), "ok", nil, nil, func(ctx context.Context, s *Scenario) error {
		seen = s
		assert.Equal(t, Executing, s.State())
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, TornDown, seen.State())
	assert.Nil(t, seen.Failure())
	assert.True(t, driver.Sessions()[0].Closed())
}

func TestRunScenarioFailureIsCapturedAndTornDown(t *testing.T) {
	h, driver := newTestHarness(t)
	var seen *Scenario
	cause := errors.New("boom")
	err := h.RunScenario(context.Background(), "bad", nil, nil, func(ctx context.Context, s *Scenario) error {
		seen = s
		return cause
	})
	assert.Equal(t, cause, err)
	assert.Equal(t, TornDown, seen.State())
	assert.Equal(t, cause, seen.Failure())
	assert.NotEmpty(t, seen.ArtifactDir())
	assert.True(t, driver.Sessions()[0].Closed())
}

func TestRunScenarioPanicIsCapturedAndRethrown(t *testing.T) {
	h, driver := newTestHarness(t)
	var seen *Scenario
	assert.PanicsWithValue(t, "kaboom", func() {
		_ = h.RunScenario(context.Background(), "panics", nil, nil, func(ctx context.Context, s *Scenario) error {
			seen = s
			panic("kaboom")
		})
	})
	assert.Equal(t, TornDown, seen.State())
	assert.Contains(t, seen.Failure().Error(), "kaboom")
	assert.True(t, driver.Sessions()[0].Closed())
}

func TestRunScenarioCancelledStillTearsDown(t *testing.T) {
	h, driver := newTestHarness(t)
	ctx, cancel := context.WithCancel(context.Background())
	var seen *Scenario
	err := h.RunScenario(ctx, "cancelled", nil, nil, func(ctx context.Context, s *Scenario) error {
		seen = s
		cancel()
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, TornDown, seen.State())
	assert.True(t, driver.Sessions()[0].Closed())
}

func TestStatusQuery(t *testing.T) {
	handler := httphelpers.SequentialHandler(
		httphelpers.HandlerWithStatus(503),
		httphelpers.HandlerWithResponse(200, http.Header{"Content-Type": []string{"application/json"}},
			[]byte(`{"version":"1.4.2","status":"ok"}`)),
	)
	httphelpers.WithServer(handler, func(server *httptest.Server) {
		var out bytes.Buffer
		info, err := queryAppStatus(context.Background(), server.URL, time.Second, &out)
		require.NoError(t, err)
		assert.Equal(t, "1.4.2", info.Version)
		assert.Equal(t, server.URL, info.URL)
		assert.Contains(t, out.String(), "Application version: 1.4.2")
	})
}

func TestStatusQueryHTMLPage(t *testing.T) {
	handler := httphelpers.HandlerWithResponse(200, http.Header{"Content-Type": []string{"text/html"}}, []byte("<html>"))
	httphelpers.WithServer(handler, func(server *httptest.Server) {
		info, err := queryAppStatus(context.Background(), server.URL, time.Second, &bytes.Buffer{})
		require.NoError(t, err)
		assert.Equal(t, "", info.Version)
	})
}

func TestStatusQueryFailures(t *testing.T) {
	httphelpers.WithServer(httphelpers.HandlerWithStatus(404), func(server *httptest.Server) {
		_, err := queryAppStatus(context.Background(), server.URL, time.Minute, &bytes.Buffer{})
		assert.Error(t, err)
	})
	httphelpers.WithServer(httphelpers.HandlerWithStatus(503), func(server *httptest.Server) {
		_, err := queryAppStatus(context.Background(), server.URL, 200*time.Millisecond, &bytes.Buffer{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "timed out")
	})
	malformed := httphelpers.HandlerWithResponse(200, http.Header{"Content-Type": []string{"application/json"}}, []byte("{"))
	httphelpers.WithServer(malformed, func(server *httptest.Server) {
		_, err := queryAppStatus(context.Background(), server.URL, time.Minute, &bytes.Buffer{})
		assert.Error(t, err)
	})
}

func TestNewTestHarnessQueriesStatusURL(t *testing.T) {
	handler, requests := httphelpers.RecordingHandler(httphelpers.HandlerWithStatus(200))
	httphelpers.WithServer(handler, func(server *httptest.Server) {
		cfg := config.Default()
		cfg.BaseURL = server.URL + "/"
		cfg.StatusPath = "/healthz"
		cfg.ArtifactsDir = t.TempDir()
		h, err := NewTestHarness(context.Background(), cfg, Options{Driver: &browsertest.Driver{}})
		require.NoError(t, err)
		assert.Equal(t, server.URL+"/healthz", h.AppInfo().URL)
		r := <-requests
		assert.Equal(t, "/healthz", r.Request.URL.Path)
	})
}

func TestArtifactStoreSanitizesName(t *testing.T) {
	store := NewArtifactStore(t.TempDir())
	at := time.Date(2024, 3, 1, 12, 30, 45, 123000000, time.UTC)
	dir, err := store.Save("organizations / wizard: next?", at, Artifacts{})
	require.NoError(t, err)
	assert.Equal(t, "organizations-wizard-next-20240301-123045.123", filepath.Base(dir))
	assert.FileExists(t, filepath.Join(dir, ErrorFile))
	assert.NoFileExists(t, filepath.Join(dir, NetworkFile))
}

func TestStateNames(t *testing.T) {
	assert.Equal(t, "AuthenticatedContextReady", AuthenticatedContextReady.String())
	assert.Equal(t, "State(42)", State(42).String())
}
