package uitests

import (
	"context"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feedbackhq/ui-contract-tests/framework/ldtest"
	"github.com/feedbackhq/ui-contract-tests/framework/perf"
)

const (
	OpDashboardLoad     = "dashboard load"
	OpOrganizationsLoad = "organizations load"
	OpFeedbackSubmit    = "feedback submit"
)

func DoPerformanceTests(t *ldtest.T) {
	t.Run(OpDashboardLoad, func(t *ldtest.T) {
		s := NewSignedInScenario(t)
		m, err := s.Measure(s.Ctx(), OpDashboardLoad, s.App.Dashboard.Open)
		require.NoError(t, err)
		assert.NoError(t, perf.ExpectLoadTime(m, m.Budget))
	})

	t.Run(OpOrganizationsLoad, func(t *ldtest.T) {
		s := NewSignedInScenario(t)
		orgs := s.App.Organizations
		m, err := s.Measure(s.Ctx(), OpOrganizationsLoad, func(ctx context.Context) error {
			if err := orgs.Open(ctx); err != nil {
				return err
			}
			return s.Expect().Hidden(ctx, orgs.MustLocate("loading"))
		})
		require.NoError(t, err)
		assert.NoError(t, perf.ExpectLoadTime(m, m.Budget))
	})

	t.Run(OpFeedbackSubmit, func(t *ldtest.T) {
		s := NewSignedInScenario(t)
		feedback := s.App.Feedback
		require.NoError(t, feedback.Open(s.Ctx()))
		require.NoError(t, feedback.FillForm(s.Ctx(), s.Fixtures().Feedback()).Err)
		m, err := s.Measure(s.Ctx(), OpFeedbackSubmit, func(ctx context.Context) error {
			if result := feedback.SubmitFeedback(ctx); result.Err != nil {
				return result.Err
			}
			return s.Expect().Visible(ctx, feedback.MustLocate("success"))
		})
		require.NoError(t, err)
		assert.NoError(t, perf.ExpectLoadTime(m, m.Budget))
	})
}
