package screens

import (
	"context"

	"github.com/feedbackhq/ui-contract-tests/browser"
	"github.com/feedbackhq/ui-contract-tests/framework/expect"
	"github.com/feedbackhq/ui-contract-tests/framework/screen"
)

const (
	OrganizationsPath       = "/organizations"
	OrganizationsAPIPattern = "**/api/organizations*"
)

// Organizations is the organization list.
type Organizations struct {
	*screen.Model
	Chrome *Chrome
	expect expect.Expecter
}

var (
	_ screen.Navigable  = (*Organizations)(nil)
	_ screen.Searchable = (*Organizations)(nil)
	_ screen.Filterable = (*Organizations)(nil)
)

func NewOrganizations(session browser.Session, e expect.Expecter, chrome *Chrome) *Organizations {
	return &Organizations{
		Model: screen.New("organizations", session, screen.Locators{
			"list":          screen.TestID("organizations-list"),
			"row":           screen.TestID("organization-row"),
			"search":        screen.TestID("organizations-search"),
			"filter:plan":   screen.TestID("organizations-filter-plan"),
			"filter:status": screen.TestID("organizations-filter-status"),
			"create":        screen.TestID("create-organization"),
			"empty":         screen.TestID("organizations-empty"),
			"loading":       screen.TestID("organizations-loading"),
			"error":         screen.TestID("organizations-error"),
		}, chrome.Model),
		Chrome: chrome,
		expect: e,
	}
}

// Navigate loads the list without waiting for its content, so that loading and error states
// can be observed.
func (o *Organizations) Navigate(ctx context.Context) error {
	return o.Session().Navigate(ctx, OrganizationsPath)
}

// Open loads the list and waits until it has rendered.
func (o *Organizations) Open(ctx context.Context) error {
	if err := o.Navigate(ctx); err != nil {
		return err
	}
	return o.expect.Visible(ctx, o.MustLocate("list"))
}

func (o *Organizations) IsOpen(ctx context.Context) (bool, error) {
	return o.MustLocate("list").IsVisible(ctx)
}

// Search types a query into the search box and submits it.
func (o *Organizations) Search(ctx context.Context, query string) error {
	return screen.Run(ctx, o.Model, "search organizations",
		screen.Fill("search", query),
		screen.Press("search", "Enter"),
	).Err
}

// Filter narrows the list by one facet, such as "plan" or "status".
func (o *Organizations) Filter(ctx context.Context, facet, value string) error {
	return screen.Run(ctx, o.Model, "filter organizations by "+facet,
		screen.Select("filter:"+facet, value),
	).Err
}

// RowCount returns the number of organizations currently listed.
func (o *Organizations) RowCount(ctx context.Context) (int, error) {
	return o.MustLocate("row").Count(ctx)
}
