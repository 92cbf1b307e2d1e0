package uitests

import (
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feedbackhq/ui-contract-tests/framework/harness"
	"github.com/feedbackhq/ui-contract-tests/framework/ldtest"
)

func DoAuthenticationTests(t *ldtest.T) {
	t.Run("signed-in user lands on dashboard", func(t *ldtest.T) {
		s := NewSignedInScenario(t)
		require.NoError(t, s.App.Dashboard.Open(s.Ctx()))
		require.NoError(t, s.App.Chrome.ExpectNavigation(s.Ctx()))
	})

	t.Run("rejected credentials show an error", func(t *ldtest.T) {
		s := NewScenario(t, harness.Anonymous())
		email := s.Fixtures().GenerateRandomEmail()
		require.NoError(t, s.App.Login.SignIn(s.Ctx(), email, "not-the-password").Err)
		require.NoError(t, s.Expect().Visible(s.Ctx(), s.App.Login.MustLocate("error")))

		open, err := s.App.Login.IsOpen(s.Ctx())
		require.NoError(t, err)
		assert.True(t, open, "login page should still be shown")
	})

	t.Run("anonymous user is sent to login", func(t *ldtest.T) {
		s := NewScenario(t, harness.Anonymous())
		require.NoError(t, s.Session().Navigate(s.Ctx(), "/dashboard"))
		require.NoError(t, s.Expect().Visible(s.Ctx(), s.App.Login.MustLocate("form")))
	})

	t.Run("sign out", func(t *ldtest.T) {
		s := NewSignedInScenario(t)
		require.NoError(t, s.App.Dashboard.Open(s.Ctx()))
		require.NoError(t, s.App.Chrome.SignOut(s.Ctx()).Err)
		require.NoError(t, s.Expect().Visible(s.Ctx(), s.App.Login.MustLocate("form")))
	})
}
