package screens

import (
	"context"

	"github.com/feedbackhq/ui-contract-tests/browser"
	"github.com/feedbackhq/ui-contract-tests/fixtures"
	"github.com/feedbackhq/ui-contract-tests/framework/expect"
	"github.com/feedbackhq/ui-contract-tests/framework/screen"
)

const (
	FeedbackPath       = "/feedback"
	FeedbackAPIPattern = "**/api/feedback"
)

// Feedback is the feedback submission form.
type Feedback struct {
	*screen.Model
	Chrome *Chrome
	expect expect.Expecter
}

func NewFeedback(session browser.Session, e expect.Expecter, chrome *Chrome) *Feedback {
	return &Feedback{
		Model: screen.New("feedback", session, screen.Locators{
			"form":        screen.TestID("feedback-form"),
			"title":       screen.TestID("feedback-title"),
			"description": screen.TestID("feedback-description"),
			"type":        screen.TestID("feedback-type"),
			"submit":      screen.TestID("feedback-submit"),
			"reset":       screen.TestID("feedback-reset"),
			"success":     screen.TestID("feedback-success"),
			"error":       screen.TestID("feedback-error"),
			"loading":     screen.TestID("feedback-loading"),
		}, chrome.Model),
		Chrome: chrome,
		expect: e,
	}
}

func (f *Feedback) Open(ctx context.Context) error {
	if err := f.Session().Navigate(ctx, FeedbackPath); err != nil {
		return err
	}
	return f.expect.Visible(ctx, f.MustLocate("form"))
}

func (f *Feedback) IsOpen(ctx context.Context) (bool, error) {
	return f.MustLocate("form").IsVisible(ctx)
}

// FillForm enters a submission without submitting it.
func (f *Feedback) FillForm(ctx context.Context, input fixtures.FeedbackInput) screen.ActionResult {
	return screen.Run(ctx, f.Model, "fill feedback form",
		screen.WaitVisible("form", f.expect.Timeout),
		screen.Fill("title", input.Title),
		screen.Fill("description", input.Description),
		screen.Select("type", input.Type),
	)
}

// SubmitFeedback submits the form. Whether the submission succeeded is for the caller to check.
func (f *Feedback) SubmitFeedback(ctx context.Context) screen.ActionResult {
	return screen.Run(ctx, f.Model, "submit feedback", screen.Click("submit"))
}

// Reset clears the form.
func (f *Feedback) Reset(ctx context.Context) screen.ActionResult {
	return screen.Run(ctx, f.Model, "reset feedback form", screen.Click("reset"))
}
