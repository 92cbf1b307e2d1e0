package screens

import (
	"context"

	"github.com/feedbackhq/ui-contract-tests/browser"
	"github.com/feedbackhq/ui-contract-tests/framework/expect"
	"github.com/feedbackhq/ui-contract-tests/framework/screen"
)

const DashboardPath = "/dashboard"

// Dashboard is the landing page after sign-in.
type Dashboard struct {
	*screen.Model
	Chrome *Chrome
	expect expect.Expecter
}

func NewDashboard(session browser.Session, e expect.Expecter, chrome *Chrome) *Dashboard {
	return &Dashboard{
		Model: screen.New("dashboard", session, screen.Locators{
			"root":           screen.TestID("dashboard"),
			"stats":          screen.TestID("dashboard-stats"),
			"recentFeedback": screen.TestID("recent-feedback"),
			"welcome":        screen.TestID("dashboard-welcome"),
		}, chrome.Model),
		Chrome: chrome,
		expect: e,
	}
}

// Open loads the dashboard and waits until its statistics have rendered.
func (d *Dashboard) Open(ctx context.Context) error {
	if err := d.Session().Navigate(ctx, DashboardPath); err != nil {
		return err
	}
	return d.expect.Visible(ctx, d.MustLocate("stats"))
}

func (d *Dashboard) IsOpen(ctx context.Context) (bool, error) {
	return d.MustLocate("root").IsVisible(ctx)
}
