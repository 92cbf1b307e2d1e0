package harness

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/feedbackhq/ui-contract-tests/browser"
	"github.com/feedbackhq/ui-contract-tests/fixtures"
	"github.com/feedbackhq/ui-contract-tests/framework"
	"github.com/feedbackhq/ui-contract-tests/framework/a11y"
	"github.com/feedbackhq/ui-contract-tests/framework/expect"
	"github.com/feedbackhq/ui-contract-tests/framework/netmock"
	"github.com/feedbackhq/ui-contract-tests/framework/perf"
)

// captureTimeout bounds artifact capture, which may run after the scenario's own context is done.
const captureTimeout = 10 * time.Second

// State is a stage in the life of a Scenario.
type State int

const (
	Created State = iota
	AuthenticatedContextReady
	Executing
	Passed
	Failed
	TornDown
)

func (s State) String() string {
	switch s {
	case Created:
		return "Created"
	case AuthenticatedContextReady:
		return "AuthenticatedContextReady"
	case Executing:
		return "Executing"
	case Passed:
		return "Passed"
	case Failed:
		return "Failed"
	case TornDown:
		return "TornDown"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// StateError is returned when a Scenario method is called in a state that does not allow it.
type StateError struct {
	Scenario string
	Op       string
	State    State
}

func (e *StateError) Error() string {
	return fmt.Sprintf("scenario %q: cannot %s in state %s", e.Scenario, e.Op, e.State)
}

// Auth decides how a scenario's browser session is signed in.
type Auth interface {
	// Configure adjusts the session options before the session is opened.
	Configure(opts *browser.SessionOptions)
	// Authenticate runs once the session is open.
	Authenticate(ctx context.Context, s *Scenario) error
}

type anonymousAuth struct{}

func (anonymousAuth) Configure(*browser.SessionOptions)             {}
func (anonymousAuth) Authenticate(context.Context, *Scenario) error { return nil }

// Anonymous leaves the session signed out.
func Anonymous() Auth { return anonymousAuth{} }

type storageStateAuth struct{ path string }

func (a storageStateAuth) Configure(opts *browser.SessionOptions)      { opts.StorageStatePath = a.path }
func (storageStateAuth) Authenticate(context.Context, *Scenario) error { return nil }

// StorageState starts the session with the cookies of a previously signed-in session.
func StorageState(path string) Auth { return storageStateAuth{path: path} }

// SignInFunc signs in by driving the UI.
type SignInFunc func(ctx context.Context, s *Scenario) error

func (f SignInFunc) Configure(*browser.SessionOptions) {}

func (f SignInFunc) Authenticate(ctx context.Context, s *Scenario) error { return f(ctx, s) }

// Scenario is one test's isolated browser session and everything recorded about it. Operations
// on a scenario are sequential; different scenarios share nothing but the harness.
type Scenario struct {
	name    string
	harness *TestHarness
	debug   framework.CapturingLogger
	logger  framework.Logger

	lock         sync.Mutex
	state        State
	session      browser.Session
	routes       *netmock.Table
	measurements []perf.Measurement
	violations   []a11y.Violation
	failure      error
	artifactDir  string
}

// NewScenario creates a scenario in the Created state. Log output goes to the scenario's own
// debug log, which becomes a failure artifact, and also to logger if it is not nil.
func (h *TestHarness) NewScenario(name string, logger framework.Logger) *Scenario {
	s := &Scenario{name: name, harness: h}
	s.logger = framework.MultiLogger(&s.debug, logger)
	return s
}

func (s *Scenario) Name() string { return s.name }

func (s *Scenario) Harness() *TestHarness { return s.harness }

func (s *Scenario) Logger() framework.Logger { return s.logger }

func (s *Scenario) State() State {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.state
}

// Session returns the browser session; it is nil until Prepare has opened it.
func (s *Scenario) Session() browser.Session {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.session
}

// Routes returns the scenario's network mock table; it is nil until Prepare has run.
func (s *Scenario) Routes() *netmock.Table {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.routes
}

func (s *Scenario) Expect() expect.Expecter { return s.harness.Expecter() }

func (s *Scenario) Fixtures() *fixtures.Factory { return s.harness.fixtures }

// Failure returns the error passed to Fail.
func (s *Scenario) Failure() error {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.failure
}

// ArtifactDir returns where the failure artifacts were written, if anywhere.
func (s *Scenario) ArtifactDir() string {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.artifactDir
}

func (s *Scenario) transition(op string, to State, from ...State) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	for _, f := range from {
		if s.state == f {
			s.logger.Printf("%s -> %s", s.state, to)
			s.state = to
			return nil
		}
	}
	return &StateError{Scenario: s.name, Op: op, State: s.state}
}

// Prepare opens an isolated browser session and signs it in as auth says.
func (s *Scenario) Prepare(ctx context.Context, auth Auth) error {
	if auth == nil {
		auth = Anonymous()
	}
	if state := s.State(); state != Created {
		return &StateError{Scenario: s.name, Op: "prepare", State: state}
	}

	cfg := s.harness.config
	opts := browser.SessionOptions{
		BaseURL:           cfg.BaseURL,
		Viewport:          cfg.Viewport,
		ActionTimeout:     cfg.Timeouts.Action,
		NavigationTimeout: cfg.Timeouts.Navigation,
	}
	auth.Configure(&opts)
	session, err := s.harness.driver.NewSession(ctx, opts)
	if err != nil {
		return fmt.Errorf("could not open browser session: %w", err)
	}
	s.lock.Lock()
	s.session = session
	s.routes = netmock.NewTable(session, framework.LoggerWithPrefix(s.logger, "[netmock] "))
	s.lock.Unlock()

	if err := auth.Authenticate(ctx, s); err != nil {
		return fmt.Errorf("could not sign in: %w", err)
	}
	return s.transition("prepare", AuthenticatedContextReady, Created)
}

// Begin marks the start of the scenario's own steps.
func (s *Scenario) Begin() error {
	return s.transition("begin", Executing, AuthenticatedContextReady)
}

// Pass marks the scenario as successful.
func (s *Scenario) Pass() error {
	return s.transition("pass", Passed, Executing)
}

// Fail marks the scenario as failed, after capturing the page, the network log and everything
// measured so far. A failure during Prepare is also a failure of the scenario, so Fail is
// allowed in any state before the scenario has passed, failed or been torn down.
func (s *Scenario) Fail(ctx context.Context, cause error) error {
	if cause == nil {
		cause = errors.New("scenario failed")
	}
	state := s.State()
	if state != Created && state != AuthenticatedContextReady && state != Executing {
		return &StateError{Scenario: s.name, Op: "fail", State: state}
	}
	s.lock.Lock()
	s.failure = cause
	s.lock.Unlock()

	dir, err := s.captureArtifacts(ctx, cause)
	if err != nil {
		s.logger.Printf("could not save failure artifacts: %s", err)
	} else {
		s.logger.Printf("failure artifacts saved to %s", dir)
	}
	if terr := s.transition("fail", Failed, Created, AuthenticatedContextReady, Executing); terr != nil {
		return terr
	}
	return err
}

func (s *Scenario) captureArtifacts(ctx context.Context, cause error) (string, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	captureCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), captureTimeout)
	defer cancel()

	a := Artifacts{Error: cause}
	if session := s.Session(); session != nil {
		if data, err := session.Screenshot(captureCtx); err == nil {
			a.Screenshot = data
		} else {
			s.logger.Printf("could not take screenshot: %s", err)
		}
		if dom, err := session.Content(captureCtx); err == nil {
			a.DOM = dom
		} else {
			s.logger.Printf("could not capture DOM: %s", err)
		}
	}
	if routes := s.Routes(); routes != nil {
		a.Network = routes.Log()
	}
	s.lock.Lock()
	a.Measurements = append([]perf.Measurement(nil), s.measurements...)
	a.Violations = append([]a11y.Violation(nil), s.violations...)
	s.lock.Unlock()
	a.DebugOutput = s.debug.Output()

	dir, err := s.harness.artifacts.Save(s.name, time.Now(), a)
	if err != nil {
		return "", err
	}
	s.lock.Lock()
	s.artifactDir = dir
	s.lock.Unlock()
	s.harness.addFailureDir(dir)
	return dir, nil
}

// TearDown clears the mock routes and closes the session. It can be called in any state, and
// more than once.
func (s *Scenario) TearDown() error {
	s.lock.Lock()
	if s.state == TornDown {
		s.lock.Unlock()
		return nil
	}
	s.logger.Printf("%s -> %s", s.state, TornDown)
	s.state = TornDown
	session, routes := s.session, s.routes
	s.lock.Unlock()

	var errs []error
	if routes != nil {
		if err := routes.Clear(); err != nil {
			errs = append(errs, fmt.Errorf("could not clear routes: %w", err))
		}
	}
	if session != nil {
		if err := session.Close(); err != nil {
			errs = append(errs, fmt.Errorf("could not close session: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Measure times op, records the measurement with the run's recorder, and returns it. The budget
// comes from the configuration. A panic in op is passed on after the measurement is recorded.
func (s *Scenario) Measure(ctx context.Context, operation string, op func(ctx context.Context) error) (perf.Measurement, error) {
	return s.harness.recorder.Measure(ctx, operation, op, func(m perf.Measurement) {
		s.lock.Lock()
		s.measurements = append(s.measurements, m)
		s.lock.Unlock()
		s.logger.Printf("measured %s", m)
	})
}

// Measurements returns the measurements taken by this scenario.
func (s *Scenario) Measurements() []perf.Measurement {
	s.lock.Lock()
	defer s.lock.Unlock()
	return append([]perf.Measurement(nil), s.measurements...)
}

// Scan runs an accessibility scan of the scope. The tag set is resolved with config.Config.Tags,
// so an empty name means the default tags.
func (s *Scenario) Scan(ctx context.Context, scope a11y.Scope, tagSet string) ([]a11y.Violation, error) {
	session := s.Session()
	if session == nil {
		return nil, &StateError{Scenario: s.name, Op: "scan", State: s.State()}
	}
	scanner := a11y.Scanner{Session: session, Analyzer: s.harness.analyzer}
	violations, err := scanner.Scan(ctx, scope, s.harness.config.Tags(tagSet))
	if err != nil {
		return nil, err
	}
	s.lock.Lock()
	s.violations = append(s.violations, violations...)
	s.lock.Unlock()
	s.logger.Printf("scan of %s found %d violations", scope, len(violations))
	return violations, nil
}

// RunScenario runs body as a scenario with the usual discipline: the scenario is prepared, a
// failure or panic in body fails it with artifacts, and it is always torn down. A panic is
// passed on after teardown. The scenario timeout from the configuration bounds the whole run.
func (h *TestHarness) RunScenario(ctx context.Context, name string, auth Auth, logger framework.Logger,
	body func(ctx context.Context, s *Scenario) error) (err error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if timeout := h.config.Timeouts.Scenario; timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	s := h.NewScenario(name, logger)
	defer func() {
		if terr := s.TearDown(); terr != nil && err == nil {
			err = terr
		}
	}()
	defer func() {
		if r := recover(); r != nil {
			_ = s.Fail(ctx, fmt.Errorf("panic in scenario: %v", r))
			_ = s.TearDown()
			panic(r)
		}
	}()

	if err := s.Prepare(ctx, auth); err != nil {
		_ = s.Fail(ctx, err)
		return err
	}
	if err := s.Begin(); err != nil {
		return err
	}
	err = body(ctx, s)
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		_ = s.Fail(ctx, err)
		return err
	}
	return s.Pass()
}
