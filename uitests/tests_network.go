package uitests

import (
	"errors"
	"strings"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feedbackhq/ui-contract-tests/fixtures"
	"github.com/feedbackhq/ui-contract-tests/framework/ldtest"
	"github.com/feedbackhq/ui-contract-tests/framework/netmock"
	"github.com/feedbackhq/ui-contract-tests/screens"
)

const simulatedLatency = 500 * time.Millisecond

func DoNetworkTests(t *ldtest.T) {
	t.Run("feedback", doFeedbackNetworkTests)
	t.Run("organizations", doOrganizationNetworkTests)

	t.Run("conflicting routes are rejected", func(t *ldtest.T) {
		s := NewSignedInScenario(t)
		require.NoError(t, s.Routes().Register(screens.FeedbackAPIPattern, "POST", netmock.Abort("failed")))
		err := s.Routes().Register(screens.FeedbackAPIPattern, "post", netmock.Fulfill(201, nil, nil))
		var conflict *netmock.MockRouteConflict
		require.True(t, errors.As(err, &conflict), "expected MockRouteConflict, got %v", err)
		assert.Equal(t, screens.FeedbackAPIPattern, conflict.Pattern)
	})
}

func doFeedbackNetworkTests(t *ldtest.T) {
	t.Run("aborted submission keeps the form", func(t *ldtest.T) {
		s := NewSignedInScenario(t)
		ctx := s.Ctx()
		feedback := s.App.Feedback
		require.NoError(t, s.Routes().Register(screens.FeedbackAPIPattern, "POST", netmock.Abort("failed")))
		require.NoError(t, feedback.Open(ctx))

		input := fixtures.FeedbackInput{Title: "Auth Failure Test", Description: "network down", Type: "bug"}
		require.NoError(t, feedback.FillForm(ctx, input).Err)
		require.NoError(t, feedback.SubmitFeedback(ctx).Err)

		require.NoError(t, s.Expect().Visible(ctx, feedback.MustLocate("error")))
		require.NoError(t, s.Expect().Value(ctx, feedback.MustLocate("title"), "Auth Failure Test"))
		assertRouteOutcome(t, s, netmock.OutcomeAborted)
	})

	t.Run("server error is reported", func(t *ldtest.T) {
		s := NewSignedInScenario(t)
		ctx := s.Ctx()
		feedback := s.App.Feedback
		require.NoError(t, s.Routes().Register(screens.FeedbackAPIPattern, "POST",
			netmock.Fulfill(500, []byte(`{"error":"internal"}`), nil)))
		require.NoError(t, feedback.Open(ctx))
		require.NoError(t, feedback.FillForm(ctx, s.Fixtures().Feedback()).Err)
		require.NoError(t, feedback.SubmitFeedback(ctx).Err)
		require.NoError(t, s.Expect().TextContains(ctx, feedback.MustLocate("error"), "500"))
	})

	t.Run("slow submission shows loading state", func(t *ldtest.T) {
		s := NewSignedInScenario(t)
		ctx := s.Ctx()
		feedback := s.App.Feedback
		require.NoError(t, s.Routes().Register(screens.FeedbackAPIPattern, "POST",
			netmock.Delay(simulatedLatency, netmock.Passthrough())))
		require.NoError(t, feedback.Open(ctx))
		require.NoError(t, feedback.FillForm(ctx, s.Fixtures().Feedback()).Err)
		require.NoError(t, feedback.SubmitFeedback(ctx).Err)

		require.NoError(t, s.Expect().Visible(ctx, feedback.MustLocate("loading")))
		require.NoError(t, s.Expect().Visible(ctx, feedback.MustLocate("success")))
		require.NoError(t, s.Expect().Hidden(ctx, feedback.MustLocate("loading")))
	})
}

func doOrganizationNetworkTests(t *ldtest.T) {
	failures := []struct {
		name   string
		policy netmock.Policy
	}{
		{"aborted request", netmock.Abort("connectionrefused")},
		{"server error", netmock.Fulfill(503, nil, nil)},
		{"malformed response", netmock.Malformed(200)},
	}
	for _, f := range failures {
		f := f
		t.Run(f.name+" shows error state", func(t *ldtest.T) {
			s := NewSignedInScenario(t)
			ctx := s.Ctx()
			orgs := s.App.Organizations
			require.NoError(t, s.Routes().Register(screens.OrganizationsAPIPattern, "GET", f.policy))
			require.NoError(t, orgs.Navigate(ctx))
			require.NoError(t, s.Expect().Visible(ctx, orgs.MustLocate("error")))
			require.NoError(t, s.Expect().Hidden(ctx, orgs.MustLocate("list")))
		})
	}

	t.Run("slow response shows loading state", func(t *ldtest.T) {
		s := NewSignedInScenario(t)
		ctx := s.Ctx()
		orgs := s.App.Organizations
		require.NoError(t, s.Routes().Register(screens.OrganizationsAPIPattern, "GET",
			netmock.Delay(simulatedLatency, netmock.Passthrough())))
		require.NoError(t, orgs.Navigate(ctx))
		require.NoError(t, s.Expect().Visible(ctx, orgs.MustLocate("loading")))
		require.NoError(t, s.Expect().Visible(ctx, orgs.MustLocate("list")))
		require.NoError(t, s.Expect().Hidden(ctx, orgs.MustLocate("loading")))
	})

	t.Run("newest route wins", func(t *ldtest.T) {
		s := NewSignedInScenario(t)
		ctx := s.Ctx()
		orgs := s.App.Organizations
		require.NoError(t, s.Routes().Register("**/api/**", netmock.AnyMethod, netmock.Abort("failed")))
		require.NoError(t, s.Routes().Register(screens.OrganizationsAPIPattern, "GET", netmock.Passthrough()))
		require.NoError(t, orgs.Open(ctx))
		assertRouteOutcome(t, s, netmock.OutcomePassthrough)
	})
}

func assertRouteOutcome(t *ldtest.T, s *Scenario, outcome string) {
	for _, entry := range s.Routes().Log() {
		if entry.Pattern != "" {
			assert.True(t, strings.HasPrefix(entry.Outcome, outcome),
				"outcome of %s %s was %q, expected %q", entry.Method, entry.URL, entry.Outcome, outcome)
			return
		}
	}
	assert.Fail(t, "no mocked request was logged")
}
