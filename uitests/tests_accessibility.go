package uitests

import (
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feedbackhq/ui-contract-tests/framework/a11y"
	"github.com/feedbackhq/ui-contract-tests/framework/harness"
	"github.com/feedbackhq/ui-contract-tests/framework/ldtest"
)

func DoAccessibilityTests(t *ldtest.T) {
	t.Run("dashboard has no violations", func(t *ldtest.T) {
		s := NewSignedInScenario(t)
		require.NoError(t, s.App.Dashboard.Open(s.Ctx()))
		violations, err := s.Scan(s.Ctx(), a11y.Document, "")
		require.NoError(t, err)
		assert.Empty(t, violations, a11y.Format(violations))
	})

	t.Run("feedback form has no violations", func(t *ldtest.T) {
		s := NewSignedInScenario(t)
		require.NoError(t, s.App.Feedback.Open(s.Ctx()))
		scope, err := a11y.ScopeOf(s.App.Feedback.Model, "form")
		require.NoError(t, err)
		violations, err := s.Scan(s.Ctx(), scope, "wcag21aa")
		require.NoError(t, err)
		assert.Empty(t, violations, a11y.Format(violations))
	})

	t.Run("login page has sufficient color contrast", func(t *ldtest.T) {
		s := NewScenario(t, harness.Anonymous())
		require.NoError(t, s.App.Login.Open(s.Ctx()))
		violations, err := s.Scan(s.Ctx(), a11y.Document, "")
		require.NoError(t, err)
		contrast := a11y.FilterByRule(violations, "color-contrast")
		assert.Empty(t, contrast, a11y.Format(contrast))
	})

	t.Run("organization list has no serious violations", func(t *ldtest.T) {
		s := NewSignedInScenario(t)
		require.NoError(t, s.App.Organizations.Open(s.Ctx()))
		violations, err := s.Scan(s.Ctx(), a11y.Document, "")
		require.NoError(t, err)
		serious := a11y.AtLeast(violations, a11y.Serious)
		assert.Empty(t, serious, a11y.Format(serious))
	})
}
