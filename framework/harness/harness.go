package harness

import (
	"context"
	"io"
	"strings"
	"sync"

	"github.com/feedbackhq/ui-contract-tests/browser"
	"github.com/feedbackhq/ui-contract-tests/config"
	"github.com/feedbackhq/ui-contract-tests/fixtures"
	"github.com/feedbackhq/ui-contract-tests/framework"
	"github.com/feedbackhq/ui-contract-tests/framework/a11y"
	"github.com/feedbackhq/ui-contract-tests/framework/expect"
	"github.com/feedbackhq/ui-contract-tests/framework/perf"
)

// Options are the collaborators of a TestHarness. Anything left nil is created from the
// configuration.
type Options struct {
	Driver   browser.Driver
	Analyzer a11y.Analyzer
	Recorder *perf.Recorder
	Fixtures *fixtures.Factory

	// SkipStatusQuery disables the startup check that the application is responding.
	SkipStatusQuery bool

	DebugLogger   framework.Logger
	StartupOutput io.Writer
}

// TestHarness holds everything that is shared by the scenarios of a run. It is safe for
// concurrent use.
type TestHarness struct {
	config    config.Config
	appInfo   AppInfo
	driver    browser.Driver
	ownDriver bool
	analyzer  a11y.Analyzer
	recorder  *perf.Recorder
	fixtures  *fixtures.Factory
	artifacts *ArtifactStore
	logger    framework.Logger

	lock        sync.Mutex
	failureDirs []string
}

// NewTestHarness verifies that the application is responding, by polling its status URL, and
// then starts the browser driver.
func NewTestHarness(ctx context.Context, cfg config.Config, opts Options) (*TestHarness, error) {
	logger := opts.DebugLogger
	if logger == nil {
		logger = framework.NullLogger()
	}
	output := opts.StartupOutput
	if output == nil {
		output = io.Discard
	}

	h := &TestHarness{
		config:    cfg,
		driver:    opts.Driver,
		analyzer:  opts.Analyzer,
		recorder:  opts.Recorder,
		fixtures:  opts.Fixtures,
		artifacts: NewArtifactStore(cfg.ArtifactsDir),
		logger:    logger,
	}

	if !opts.SkipStatusQuery {
		info, err := queryAppStatus(ctx, statusURL(cfg), cfg.Timeouts.Startup, output)
		if err != nil {
			return nil, err
		}
		h.appInfo = info
	}

	if h.recorder == nil {
		h.recorder = perf.NewRecorder(cfg.Performance.DefaultBudget, cfg.Performance.Budgets)
	}
	if h.fixtures == nil {
		h.fixtures = fixtures.Default()
	}
	if h.analyzer == nil {
		analyzer, err := a11y.NewAxeAnalyzer(cfg.Accessibility.AxeScriptPath)
		if err != nil {
			return nil, err
		}
		h.analyzer = analyzer
	}
	if h.driver == nil {
		driver, err := OpenDriver(cfg, logger)
		if err != nil {
			return nil, err
		}
		h.driver = driver
		h.ownDriver = true
	}
	return h, nil
}

func statusURL(cfg config.Config) string {
	if cfg.StatusPath == "" {
		return cfg.BaseURL
	}
	return strings.TrimSuffix(cfg.BaseURL, "/") + "/" + strings.TrimPrefix(cfg.StatusPath, "/")
}

func (h *TestHarness) Config() config.Config { return h.config }

// AppInfo returns what the application reported at startup.
func (h *TestHarness) AppInfo() AppInfo { return h.appInfo }

func (h *TestHarness) Recorder() *perf.Recorder { return h.recorder }

func (h *TestHarness) Fixtures() *fixtures.Factory { return h.fixtures }

func (h *TestHarness) Artifacts() *ArtifactStore { return h.artifacts }

// Expecter returns an Expecter with the configured assertion timeout and poll interval.
func (h *TestHarness) Expecter() expect.Expecter {
	return expect.New(h.config.Timeouts.Assertion, h.config.Timeouts.PollInterval)
}

// FailureDirs returns the artifact directories written so far.
func (h *TestHarness) FailureDirs() []string {
	h.lock.Lock()
	defer h.lock.Unlock()
	return append([]string(nil), h.failureDirs...)
}

func (h *TestHarness) addFailureDir(dir string) {
	h.lock.Lock()
	h.failureDirs = append(h.failureDirs, dir)
	h.lock.Unlock()
}

// Close stops the browser driver if the harness started it.
func (h *TestHarness) Close() error {
	if h.ownDriver {
		return h.driver.Close()
	}
	return nil
}
