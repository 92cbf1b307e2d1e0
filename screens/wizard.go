package screens

import (
	"context"
	"fmt"
	"regexp"
	"strconv"

	"github.com/feedbackhq/ui-contract-tests/browser"
	"github.com/feedbackhq/ui-contract-tests/fixtures"
	"github.com/feedbackhq/ui-contract-tests/framework/expect"
	"github.com/feedbackhq/ui-contract-tests/framework/screen"
)

var stepIndicatorPattern = regexp.MustCompile(`(\d+)\s*(?:of|/)\s*(\d+)`)

// OrganizationWizard is the multi-step dialog that creates an organization.
type OrganizationWizard struct {
	*screen.Model
	Organizations *Organizations
	expect        expect.Expecter
}

func NewOrganizationWizard(session browser.Session, e expect.Expecter, organizations *Organizations) *OrganizationWizard {
	return &OrganizationWizard{
		Model: screen.New("organization wizard", session, screen.Locators{
			"root":        screen.TestID("organization-wizard"),
			"step":        screen.TestID("wizard-step-indicator"),
			"name":        screen.TestID("wizard-name"),
			"slug":        screen.TestID("wizard-slug"),
			"inviteEmail": screen.TestID("wizard-invite-email"),
			"next":        screen.TestID("wizard-next"),
			"back":        screen.TestID("wizard-back"),
			"finish":      screen.TestID("wizard-finish"),
			"success":     screen.TestID("wizard-success"),
		}, organizations.Model),
		Organizations: organizations,
		expect:        e,
	}
}

// Step is the wizard's position, counted from 1.
type Step struct {
	Current int
	Total   int
}

func (s Step) Last() bool { return s.Current >= s.Total }

// CurrentStep reads the step indicator, which shows text such as "Step 2 of 3".
func (w *OrganizationWizard) CurrentStep(ctx context.Context) (Step, error) {
	text, err := w.MustLocate("step").Text(ctx)
	if err != nil {
		return Step{}, err
	}
	m := stepIndicatorPattern.FindStringSubmatch(text)
	if m == nil {
		return Step{}, fmt.Errorf("unrecognized wizard step indicator %q", text)
	}
	current, _ := strconv.Atoi(m[1])
	total, _ := strconv.Atoi(m[2])
	return Step{Current: current, Total: total}, nil
}

// Next moves to the following step and waits until the wizard shows it. On the last step it
// does nothing, so callers that retry after an uncertain outcome cannot skip past the end.
func (w *OrganizationWizard) Next(ctx context.Context) error {
	step, err := w.CurrentStep(ctx)
	if err != nil {
		return err
	}
	if step.Last() {
		return nil
	}
	if err := w.MustLocate("next").Click(ctx); err != nil {
		return err
	}
	want := fmt.Sprintf("step %d of %d", step.Current+1, step.Total)
	return w.expect.Condition(ctx, "wizard to show "+want, func(ctx context.Context) (bool, string, error) {
		now, err := w.CurrentStep(ctx)
		if err != nil {
			return false, err.Error(), nil
		}
		return now.Current == step.Current+1, fmt.Sprintf("step %d of %d", now.Current, now.Total), nil
	})
}

func nextStep(w *OrganizationWizard) screen.Step {
	return screen.Custom("next wizard step", func(ctx context.Context, _ *screen.Model) error {
		return w.Next(ctx)
	}, "step", "next")
}

// CreateOrganizationComplete goes through the whole wizard from the organization list and
// waits for the confirmation.
func (w *OrganizationWizard) CreateOrganizationComplete(ctx context.Context, fixture fixtures.TestFixture) screen.ActionResult {
	timeout := w.expect.Timeout
	return screen.Run(ctx, w.Model, "create organization",
		screen.Click("create"),
		screen.WaitVisible("root", timeout),
		screen.Fill("name", fixture.Organization),
		screen.Fill("slug", fixture.Slug),
		nextStep(w),
		screen.Fill("inviteEmail", fixture.Email),
		nextStep(w),
		screen.WaitVisible("finish", timeout),
		screen.Click("finish"),
		screen.WaitVisible("success", timeout),
	)
}
