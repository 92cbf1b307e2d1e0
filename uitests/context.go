package uitests

import (
	"context"

	"github.com/stretchr/testify/require"

	"github.com/feedbackhq/ui-contract-tests/framework/harness"
	"github.com/feedbackhq/ui-contract-tests/framework/ldtest"
	"github.com/feedbackhq/ui-contract-tests/screens"
)

type UITestContext struct {
	harness *harness.TestHarness
}

func NewUITestContext(h *harness.TestHarness) UITestContext {
	return UITestContext{harness: h}
}

func requireContext(t *ldtest.T) UITestContext {
	if c, ok := t.Context().(UITestContext); ok {
		return c
	}
	panic("UITestContext was not included in the global test configuration!" +
		" This is a basic mistake in the initialization logic.")
}

// Scenario is an executing harness scenario together with the screens of its browser session.
type Scenario struct {
	*harness.Scenario
	App *screens.App
	ctx context.Context
}

// Ctx returns the scenario's context. It ends when the configured scenario timeout elapses or
// the test run is interrupted.
func (s *Scenario) Ctx() context.Context {
	return s.ctx
}

// NewScenario prepares a scenario for the current test and begins it. If the test fails, the
// scenario fails with it and captures artifacts; either way it is torn down when the test ends.
func NewScenario(t *ldtest.T, auth harness.Auth) *Scenario {
	h := requireContext(t).harness
	var (
		ctx    context.Context
		cancel context.CancelFunc
	)
	if timeout := h.Config().Timeouts.Scenario; timeout > 0 {
		ctx, cancel = context.WithTimeout(t.Ctx(), timeout)
	} else {
		ctx, cancel = context.WithCancel(t.Ctx())
	}

	s := h.NewScenario(t.ID().String(), t.DebugLogger())
	t.OnFailure(func(cause error) {
		failCtx := ctx
		if ctx.Err() != nil {
			// a timed-out scenario still gets its artifacts
			failCtx = t.Ctx()
		}
		if err := s.Fail(failCtx, cause); err != nil {
			t.Debug("could not record scenario failure: %s", err)
		}
	})
	t.Defer(func() {
		if s.State() == harness.Executing {
			_ = s.Pass()
		}
		if err := s.TearDown(); err != nil {
			t.Debug("teardown: %s", err)
		}
		cancel()
	})

	require.NoError(t, s.Prepare(ctx, auth))
	require.NoError(t, s.Begin())
	return &Scenario{Scenario: s, App: screens.NewApp(s.Session(), s.Expect()), ctx: ctx}
}

// SignedIn returns the Auth for a scenario that needs a signed-in user. A configured storage
// state is preferred; otherwise the configured credentials are entered on the login page. The
// test is skipped if neither is configured.
func SignedIn(t *ldtest.T) harness.Auth {
	auth := requireContext(t).harness.Config().Auth
	if auth.StorageStatePath != "" {
		return harness.StorageState(auth.StorageStatePath)
	}
	if auth.Email == "" {
		t.SkipWithReason("no storage state or credentials configured")
	}
	return harness.SignInFunc(func(ctx context.Context, s *harness.Scenario) error {
		app := screens.NewApp(s.Session(), s.Expect())
		if result := app.Login.SignIn(ctx, auth.Email, auth.Password); result.Err != nil {
			return result.Err
		}
		return s.Expect().Visible(ctx, app.Dashboard.MustLocate("stats"))
	})
}

// NewSignedInScenario is shorthand for NewScenario(t, SignedIn(t)).
func NewSignedInScenario(t *ldtest.T) *Scenario {
	return NewScenario(t, SignedIn(t))
}
