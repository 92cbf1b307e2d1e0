package uitests

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feedbackhq/ui-contract-tests/browser"
	"github.com/feedbackhq/ui-contract-tests/browser/browsertest"
	"github.com/feedbackhq/ui-contract-tests/config"
	"github.com/feedbackhq/ui-contract-tests/framework"
	"github.com/feedbackhq/ui-contract-tests/framework/harness"
	"github.com/feedbackhq/ui-contract-tests/framework/ldtest"
	"github.com/feedbackhq/ui-contract-tests/screens/screenstest"
)

type fakeApps struct {
	lock sync.Mutex
	apps []*screenstest.App
	// violations, if set, are reported by every page of sessions created afterward
	violations []interface{}
}

func (f *fakeApps) install(s *browsertest.Session, opts browser.SessionOptions) {
	app := screenstest.Install(s, opts)
	f.lock.Lock()
	defer f.lock.Unlock()
	if f.violations != nil {
		app.SetViolations(f.violations...)
	}
	f.apps = append(f.apps, app)
}

func newFakeHarness(t *testing.T, configure func(*config.Config)) (*harness.TestHarness, *fakeApps) {
	cfg := config.Default()
	cfg.BaseURL = screenstest.DefaultBaseURL
	cfg.ArtifactsDir = t.TempDir()
	cfg.Timeouts.Assertion = 2 * time.Second
	cfg.Timeouts.PollInterval = 10 * time.Millisecond
	cfg.Auth.Email = screenstest.Email
	cfg.Auth.Password = screenstest.Password
	if configure != nil {
		configure(&cfg)
	}
	apps := &fakeApps{}
	h, err := harness.NewTestHarness(context.Background(), cfg, harness.Options{
		Driver:          &browsertest.Driver{Setup: apps.install},
		SkipStatusQuery: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = h.Close() })
	return h, apps
}

func runOnly(prefix string) framework.Filter {
	return func(id framework.TestID) bool {
		s := id.String()
		return strings.HasPrefix(s, prefix) || strings.HasPrefix(prefix, s)
	}
}

func requireOK(t *testing.T, results framework.Results) {
	for _, f := range results.Failures {
		t.Errorf("%s: %v", f.TestID, errors.Join(f.Errors...))
	}
	require.True(t, results.OK())
}

func TestSuitePassesAgainstFakeApplication(t *testing.T) {
	h, apps := newFakeHarness(t, nil)
	results := RunTestSuite(context.Background(), h, nil, nil, 4)
	requireOK(t, results)
	assert.NotEmpty(t, results.Tests)
	assert.Empty(t, h.FailureDirs())

	apps.lock.Lock()
	for _, app := range apps.apps {
		assert.True(t, app.Session.Closed(), "session for %s was not closed", app)
	}
	apps.lock.Unlock()

	var measured []string
	for _, m := range h.Recorder().Measurements() {
		measured = append(measured, m.Operation)
	}
	assert.ElementsMatch(t, []string{OpDashboardLoad, OpOrganizationsLoad, OpFeedbackSubmit}, measured)
}

func TestSuiteWithStorageState(t *testing.T) {
	h, apps := newFakeHarness(t, func(cfg *config.Config) {
		cfg.Auth = config.Auth{StorageStatePath: "auth.json"}
	})
	results := RunTestSuite(context.Background(), h, runOnly("feedback"), nil, 1)
	requireOK(t, results)
	for _, app := range apps.apps {
		assert.NotContains(t, app.Session.Actions(), `fill [data-testid="login-password"] "correct-horse"`)
	}
}

func TestSignedInTestsAreSkippedWithoutCredentials(t *testing.T) {
	h, _ := newFakeHarness(t, func(cfg *config.Config) {
		cfg.Auth = config.Auth{}
	})
	results := RunTestSuite(context.Background(), h, runOnly("performance"), nil, 1)
	require.True(t, results.OK())
	require.NotEmpty(t, results.Tests)
	var skipped int
	for _, r := range results.Tests {
		if len(r.TestID.Path) > 1 {
			assert.True(t, r.Skipped, "%s should have been skipped", r.TestID)
			skipped++
		}
	}
	assert.Equal(t, 3, skipped)
}

func TestAccessibilityViolationsFailScenario(t *testing.T) {
	h, apps := newFakeHarness(t, nil)
	apps.violations = []interface{}{
		map[string]interface{}{
			"id":          "color-contrast",
			"impact":      "serious",
			"description": "Elements must have sufficient color contrast",
			"nodes":       []interface{}{map[string]interface{}{"target": []interface{}{"#submit"}}},
		},
	}
	results := RunTestSuite(context.Background(), h, runOnly("accessibility"), nil, 1)
	require.False(t, results.OK())
	assert.Len(t, results.Failures, 4)
	require.Len(t, h.FailureDirs(), 4)

	dir := h.FailureDirs()[0]
	for _, name := range []string{harness.ScreenshotFile, harness.DOMFile, harness.ErrorFile, harness.ViolationsFile, harness.DebugLogFile} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err, "missing %s", name)
	}
	data, err := os.ReadFile(filepath.Join(dir, harness.ViolationsFile))
	require.NoError(t, err)
	assert.Contains(t, string(data), "color-contrast")
}

func TestFailedScenarioCapturesArtifactsAndTearsDown(t *testing.T) {
	h, apps := newFakeHarness(t, nil)
	var scenario *Scenario
	results := ldtest.Run(context.Background(), ldtest.TestConfiguration{Context: NewUITestContext(h)}, func(t *ldtest.T) {
		t.Run("broken", func(t *ldtest.T) {
			scenario = NewSignedInScenario(t)
			require.NoError(t, scenario.App.Dashboard.Open(scenario.Ctx()))
			missing := scenario.Session().Locate(`[data-testid="nonexistent"]`)
			require.NoError(t, scenario.Expect().Visible(scenario.Ctx(), missing))
		})
	})
	require.Len(t, results.Failures, 1)
	assert.Equal(t, "broken", results.Failures[0].TestID.String())

	require.NotNil(t, scenario)
	assert.Equal(t, harness.TornDown, scenario.State())
	require.Error(t, scenario.Failure())
	assert.Contains(t, scenario.Failure().Error(), "nonexistent")
	require.NotEmpty(t, scenario.ArtifactDir())
	assert.Equal(t, []string{scenario.ArtifactDir()}, h.FailureDirs())

	errorText, err := os.ReadFile(filepath.Join(scenario.ArtifactDir(), harness.ErrorFile))
	require.NoError(t, err)
	assert.Contains(t, string(errorText), "nonexistent")

	require.Len(t, apps.apps, 1)
	assert.True(t, apps.apps[0].Session.Closed())
}

func TestPassedScenarioEndsInTornDown(t *testing.T) {
	h, _ := newFakeHarness(t, nil)
	var scenario *Scenario
	results := ldtest.Run(context.Background(), ldtest.TestConfiguration{Context: NewUITestContext(h)}, func(t *ldtest.T) {
		t.Run("fine", func(t *ldtest.T) {
			scenario = NewSignedInScenario(t)
			require.NoError(t, scenario.App.Dashboard.Open(scenario.Ctx()))
		})
	})
	require.True(t, results.OK())
	assert.Equal(t, harness.TornDown, scenario.State())
	assert.NoError(t, scenario.Failure())
	assert.Empty(t, scenario.ArtifactDir())
}

func TestScenarioTimeoutCutsAssertionShort(t *testing.T) {
	h, _ := newFakeHarness(t, func(cfg *config.Config) {
		cfg.Timeouts.Scenario = 100 * time.Millisecond
		cfg.Timeouts.Assertion = 3 * time.Second
	})
	var scenario *Scenario
	var elapsed time.Duration
	var waitErr error
	results := ldtest.Run(context.Background(), ldtest.TestConfiguration{Context: NewUITestContext(h)}, func(t *ldtest.T) {
		t.Run("slow", func(t *ldtest.T) {
			scenario = NewScenario(t, harness.Anonymous())
			started := time.Now()
			waitErr = scenario.Expect().Visible(scenario.Ctx(), scenario.Session().Locate("#never"))
			elapsed = time.Since(started)
			require.NoError(t, waitErr)
		})
	})
	require.Len(t, results.Failures, 1)
	assert.Less(t, elapsed, 2*time.Second)
	require.NotNil(t, scenario)
	assert.True(t, errors.Is(waitErr, context.DeadlineExceeded))
	assert.Contains(t, scenario.Failure().Error(), "stopped waiting for")
	assert.Equal(t, harness.TornDown, scenario.State())
	assert.NotEmpty(t, scenario.ArtifactDir())
	assert.Error(t, scenario.Ctx().Err())
}

func TestMissingContextPanics(t *testing.T) {
	results := ldtest.Run(context.Background(), ldtest.TestConfiguration{}, func(t *ldtest.T) {
		t.Run("no context", func(t *ldtest.T) {
			NewScenario(t, harness.Anonymous())
		})
	})
	require.Len(t, results.Failures, 1)
	assert.Contains(t, results.Failures[0].Errors[0].Error(), "UITestContext")
}
