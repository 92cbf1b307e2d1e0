package screens

import (
	"context"

	"github.com/feedbackhq/ui-contract-tests/browser"
	"github.com/feedbackhq/ui-contract-tests/framework/expect"
	"github.com/feedbackhq/ui-contract-tests/framework/screen"
)

const LoginPath = "/login"

// Login is the sign-in page.
type Login struct {
	*screen.Model
	expect expect.Expecter
}

func NewLogin(session browser.Session, e expect.Expecter) *Login {
	return &Login{
		Model: screen.New("login", session, screen.Locators{
			"form":     screen.TestID("login-form"),
			"email":    screen.TestID("login-email"),
			"password": screen.TestID("login-password"),
			"submit":   screen.TestID("login-submit"),
			"error":    screen.TestID("login-error"),
		}),
		expect: e,
	}
}

func (l *Login) Open(ctx context.Context) error {
	if err := l.Session().Navigate(ctx, LoginPath); err != nil {
		return err
	}
	return l.expect.Visible(ctx, l.MustLocate("form"))
}

func (l *Login) IsOpen(ctx context.Context) (bool, error) {
	return l.MustLocate("form").IsVisible(ctx)
}

// SignIn submits the credentials. It does not wait for the result, since the same action is
// used to test rejected credentials.
func (l *Login) SignIn(ctx context.Context, email, password string) screen.ActionResult {
	return screen.Run(ctx, l.Model, "sign in",
		screen.Navigate(LoginPath),
		screen.WaitVisible("form", l.expect.Timeout),
		screen.Fill("email", email),
		screen.Fill("password", password),
		screen.Click("submit"),
	)
}
