package screens

import (
	"context"

	"github.com/feedbackhq/ui-contract-tests/browser"
	"github.com/feedbackhq/ui-contract-tests/framework/expect"
	"github.com/feedbackhq/ui-contract-tests/framework/screen"
)

// Chrome is the navigation and dialog furniture shared by every signed-in screen.
type Chrome struct {
	*screen.Model
	expect expect.Expecter
}

func NewChrome(session browser.Session, e expect.Expecter) *Chrome {
	return &Chrome{
		Model: screen.New("chrome", session, screen.Locators{
			"sidebar":          screen.TestID("sidebar"),
			"mobileMenuButton": screen.TestID("mobile-menu-button"),
			"userMenu":         screen.TestID("user-menu"),
			"signOut":          screen.TestID("sign-out"),
			"modal":            screen.TestID("modal"),
			"modalConfirm":     screen.TestID("modal-confirm"),
			"modalCancel":      screen.TestID("modal-cancel"),
			"toast":            screen.TestID("toast"),
			"navDashboard":     screen.TestID("nav-dashboard"),
			"navOrganizations": screen.TestID("nav-organizations"),
			"navFeedback":      screen.TestID("nav-feedback"),
		}),
		expect: e,
	}
}

// ExpectNavigation waits until either the sidebar or, on narrow screens, the button that opens
// the mobile menu is visible.
func (c *Chrome) ExpectNavigation(ctx context.Context) error {
	return c.expect.AnyVisible(ctx, c.MustLocate("sidebar"), c.MustLocate("mobileMenuButton"))
}

// SignOut signs out through the user menu.
func (c *Chrome) SignOut(ctx context.Context) screen.ActionResult {
	return screen.Run(ctx, c.Model, "sign out",
		screen.Click("userMenu"),
		screen.WaitVisible("signOut", c.expect.Timeout),
		screen.Click("signOut"),
	)
}

// ConfirmModal accepts the open dialog and waits for it to close.
func (c *Chrome) ConfirmModal(ctx context.Context) screen.ActionResult {
	return c.closeModal(ctx, "confirm dialog", "modalConfirm")
}

// CancelModal dismisses the open dialog and waits for it to close.
func (c *Chrome) CancelModal(ctx context.Context) screen.ActionResult {
	return c.closeModal(ctx, "cancel dialog", "modalCancel")
}

func (c *Chrome) closeModal(ctx context.Context, action, button string) screen.ActionResult {
	return screen.Run(ctx, c.Model, action,
		screen.WaitVisible("modal", c.expect.Timeout),
		screen.Click(button),
		screen.Custom("wait for dialog to close", func(ctx context.Context, m *screen.Model) error {
			return c.expect.Hidden(ctx, m.MustLocate("modal"))
		}, "modal"),
	)
}
