package uitests

import (
	"regexp"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feedbackhq/ui-contract-tests/fixtures"
	"github.com/feedbackhq/ui-contract-tests/framework/ldtest"
)

var referencePattern = regexp.MustCompile(`[A-Z]+-\d+`)

func DoFeedbackTests(t *ldtest.T) {
	t.Run("submission shows reference and resets form", func(t *ldtest.T) {
		s := NewSignedInScenario(t)
		ctx := s.Ctx()
		feedback := s.App.Feedback
		require.NoError(t, feedback.Open(ctx))

		input := fixtures.FeedbackInput{Title: "T", Description: "D", Type: "bug"}
		require.NoError(t, feedback.FillForm(ctx, input).Err)
		screenshot, err := s.Session().Screenshot(ctx)
		require.NoError(t, err)
		assert.NotEmpty(t, screenshot)

		require.NoError(t, feedback.SubmitFeedback(ctx).Err)
		require.NoError(t, s.Expect().Text(ctx, feedback.MustLocate("success"), referencePattern))
		for _, field := range []string{"title", "description", "type"} {
			require.NoError(t, s.Expect().Empty(ctx, feedback.MustLocate(field)), "field %q was not reset", field)
		}
	})

	t.Run("generated submissions are accepted", func(t *ldtest.T) {
		s := NewSignedInScenario(t)
		ctx := s.Ctx()
		feedback := s.App.Feedback
		require.NoError(t, feedback.Open(ctx))
		for _, kind := range fixtures.FeedbackTypes {
			input := s.Fixtures().Feedback()
			input.Type = kind
			t.Debug("submitting %s", input.AsValue().JSONString())
			require.NoError(t, feedback.FillForm(ctx, input).Err)
			require.NoError(t, feedback.SubmitFeedback(ctx).Err)
			require.NoError(t, s.Expect().Text(ctx, feedback.MustLocate("success"), referencePattern))
			require.NoError(t, s.Expect().Empty(ctx, feedback.MustLocate("title")))
		}
	})

	t.Run("reset clears the form", func(t *ldtest.T) {
		s := NewSignedInScenario(t)
		ctx := s.Ctx()
		feedback := s.App.Feedback
		require.NoError(t, feedback.Open(ctx))
		require.NoError(t, feedback.FillForm(ctx, s.Fixtures().Feedback()).Err)
		require.NoError(t, feedback.Reset(ctx).Err)
		require.NoError(t, s.Expect().Empty(ctx, feedback.MustLocate("title")))
		require.NoError(t, s.Expect().Empty(ctx, feedback.MustLocate("description")))
	})
}
