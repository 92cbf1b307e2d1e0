package uitests

import (
	"fmt"

	"github.com/stretchr/testify/require"

	"github.com/feedbackhq/ui-contract-tests/browser"
	"github.com/feedbackhq/ui-contract-tests/framework/ldtest"
)

func DoResponsiveTests(t *ldtest.T) {
	cfg := requireContext(t).harness.Config()
	viewports := []struct {
		name     string
		viewport browser.Viewport
	}{
		{"desktop", cfg.Viewport},
		{"mobile", cfg.MobileViewport},
	}
	for _, v := range viewports {
		v := v
		t.Run(fmt.Sprintf("navigation is reachable on %s (%dx%d)", v.name, v.viewport.Width, v.viewport.Height),
			func(t *ldtest.T) {
				s := NewSignedInScenario(t)
				ctx := s.Ctx()
				require.NoError(t, s.Session().SetViewportSize(ctx, v.viewport.Width, v.viewport.Height))
				require.NoError(t, s.App.Dashboard.Open(ctx))
				require.NoError(t, s.App.Chrome.ExpectNavigation(ctx))
			})
	}

	t.Run("feedback form is usable on mobile", func(t *ldtest.T) {
		s := NewSignedInScenario(t)
		ctx := s.Ctx()
		require.NoError(t, s.Session().SetViewportSize(ctx, cfg.MobileViewport.Width, cfg.MobileViewport.Height))
		require.NoError(t, s.App.Feedback.Open(ctx))
		require.NoError(t, s.App.Feedback.FillForm(ctx, s.Fixtures().Feedback()).Err)
		require.NoError(t, s.App.Feedback.SubmitFeedback(ctx).Err)
		require.NoError(t, s.Expect().Visible(ctx, s.App.Feedback.MustLocate("success")))
	})
}
