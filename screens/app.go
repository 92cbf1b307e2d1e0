package screens

import (
	"github.com/feedbackhq/ui-contract-tests/browser"
	"github.com/feedbackhq/ui-contract-tests/framework/expect"
)

// App is every screen of the application, bound to one session.
type App struct {
	Chrome        *Chrome
	Login         *Login
	Dashboard     *Dashboard
	Organizations *Organizations
	Wizard        *OrganizationWizard
	Feedback      *Feedback
}

func NewApp(session browser.Session, e expect.Expecter) *App {
	chrome := NewChrome(session, e)
	organizations := NewOrganizations(session, e, chrome)
	return &App{
		Chrome:        chrome,
		Login:         NewLogin(session, e),
		Dashboard:     NewDashboard(session, e, chrome),
		Organizations: organizations,
		Wizard:        NewOrganizationWizard(session, e, organizations),
		Feedback:      NewFeedback(session, e, chrome),
	}
}
