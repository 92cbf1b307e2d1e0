package uitests

import (
	"context"
	"fmt"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feedbackhq/ui-contract-tests/framework/ldtest"
)

func DoOrganizationTests(t *ldtest.T) {
	t.Run("list loads", func(t *ldtest.T) {
		s := NewSignedInScenario(t)
		orgs := s.App.Organizations
		require.NoError(t, orgs.Open(s.Ctx()))
		require.NoError(t, s.Expect().Hidden(s.Ctx(), orgs.MustLocate("loading")))
		n, err := orgs.RowCount(s.Ctx())
		require.NoError(t, err)
		assert.Greater(t, n, 0, "expected at least one organization")
	})

	t.Run("search with no match shows empty state", func(t *ldtest.T) {
		s := NewSignedInScenario(t)
		orgs := s.App.Organizations
		require.NoError(t, orgs.Open(s.Ctx()))
		require.NoError(t, orgs.Search(s.Ctx(), s.Fixtures().UniqueID()))
		require.NoError(t, s.Expect().Visible(s.Ctx(), orgs.MustLocate("empty")))
		require.NoError(t, s.Expect().Count(s.Ctx(), orgs.MustLocate("row"), 0))
	})

	t.Run("filter narrows the list", func(t *ldtest.T) {
		s := NewSignedInScenario(t)
		orgs := s.App.Organizations
		require.NoError(t, orgs.Open(s.Ctx()))
		before, err := orgs.RowCount(s.Ctx())
		require.NoError(t, err)

		require.NoError(t, orgs.Filter(s.Ctx(), "status", "active"))
		require.NoError(t, s.Expect().Condition(s.Ctx(), "filtered list to be no longer than before",
			func(ctx context.Context) (bool, string, error) {
				n, err := orgs.RowCount(ctx)
				return err == nil && n <= before, fmt.Sprintf("%d rows", n), nil
			}))
	})

	t.Run("create organization with wizard", func(t *ldtest.T) {
		s := NewSignedInScenario(t)
		ctx := s.Ctx()
		fixture := s.Fixtures().CreateTestData()
		t.Debug("creating organization %q owned by %s", fixture.Organization, fixture.Email)
		require.NoError(t, s.App.Organizations.Open(ctx))

		result := s.App.Wizard.CreateOrganizationComplete(ctx, fixture)
		require.NoError(t, result.Err)
		require.NoError(t, s.Expect().TextContains(ctx, s.App.Wizard.MustLocate("success"), fixture.Organization))
		t.Debug("%s took %s", result.Action, result.Elapsed)

		require.NoError(t, s.App.Organizations.Open(ctx))
		require.NoError(t, s.App.Organizations.Search(ctx, fixture.Organization))
		require.NoError(t, s.Expect().Count(ctx, s.App.Organizations.MustLocate("row"), 1))
	})

	t.Run("next on last wizard step stays put", func(t *ldtest.T) {
		s := NewSignedInScenario(t)
		ctx := s.Ctx()
		wizard := s.App.Wizard
		require.NoError(t, s.App.Organizations.Open(ctx))
		require.NoError(t, s.App.Organizations.MustLocate("create").Click(ctx))
		require.NoError(t, s.Expect().Visible(ctx, wizard.MustLocate("root")))

		step, err := wizard.CurrentStep(ctx)
		require.NoError(t, err)
		for !step.Last() {
			require.NoError(t, wizard.Next(ctx))
			step, err = wizard.CurrentStep(ctx)
			require.NoError(t, err)
		}
		last := step

		require.NoError(t, wizard.Next(ctx))
		require.NoError(t, wizard.Next(ctx))
		step, err = wizard.CurrentStep(ctx)
		require.NoError(t, err)
		assert.Equal(t, last, step)
		require.NoError(t, s.Expect().Visible(ctx, wizard.MustLocate("finish")))
	})
}
