package screen

import (
	"context"
	"fmt"
	"time"

	"github.com/feedbackhq/ui-contract-tests/framework/expect"
)

// Step is one part of a composite action.
type Step interface {
	// Describe returns a short human-readable description such as `click "submit"`.
	Describe() string
	// Locators returns the names the step refers to.
	Locators() []string
	Do(ctx context.Context, m *Model) error
}

// ActionStepFailed is returned when a step of a composite action fails. The remaining steps are
// not run.
type ActionStepFailed struct {
	Action string
	Step   string
	Index  int
	Cause  error
}

func (e *ActionStepFailed) Error() string {
	return fmt.Sprintf("action %q failed at step %d (%s): %s", e.Action, e.Index+1, e.Step, e.Cause)
}

func (e *ActionStepFailed) Unwrap() error { return e.Cause }

// ActionResult is the outcome of a composite action.
type ActionResult struct {
	Action  string
	OK      bool
	Elapsed time.Duration
	Err     error
	// Artifact is a screenshot taken when the action failed, if one could be taken.
	Artifact []byte
}

func newActionResult(action string, elapsed time.Duration, err error, artifact []byte) ActionResult {
	return ActionResult{
		Action:   action,
		OK:       err == nil,
		Elapsed:  elapsed,
		Err:      err,
		Artifact: append([]byte(nil), artifact...),
	}
}

// Run executes the steps in order against the model. The first failing step ends the action
// with an *ActionStepFailed.
func Run(ctx context.Context, m *Model, action string, steps ...Step) ActionResult {
	started := time.Now()
	for i, step := range steps {
		if err := step.Do(ctx, m); err != nil {
			failure := &ActionStepFailed{Action: action, Step: step.Describe(), Index: i, Cause: err}
			var artifact []byte
			if ctx.Err() == nil {
				artifact, _ = m.session.Screenshot(ctx)
			}
			return newActionResult(action, time.Since(started), failure, artifact)
		}
	}
	return newActionResult(action, time.Since(started), nil, nil)
}

type elementStep struct {
	verb string
	name string
	arg  string
	do   func(ctx context.Context, m *Model) error
}

func (s elementStep) Describe() string {
	if s.arg == "" {
		return fmt.Sprintf("%s %q", s.verb, s.name)
	}
	return fmt.Sprintf("%s %q %q", s.verb, s.name, s.arg)
}

func (s elementStep) Locators() []string { return []string{s.name} }

func (s elementStep) Do(ctx context.Context, m *Model) error { return s.do(ctx, m) }

// Click clicks the named element.
func Click(name string) Step {
	return elementStep{verb: "click", name: name, do: func(ctx context.Context, m *Model) error {
		el, err := m.Locate(name)
		if err != nil {
			return err
		}
		return el.Click(ctx)
	}}
}

// Fill replaces the value of the named input.
func Fill(name, value string) Step {
	return elementStep{verb: "fill", name: name, arg: value, do: func(ctx context.Context, m *Model) error {
		el, err := m.Locate(name)
		if err != nil {
			return err
		}
		return el.Fill(ctx, value)
	}}
}

// Select chooses a value in a select-like control. The application's selects are text inputs
// with suggestions, so this is a fill followed by Enter.
func Select(name, value string) Step {
	return elementStep{verb: "select", name: name, arg: value, do: func(ctx context.Context, m *Model) error {
		el, err := m.Locate(name)
		if err != nil {
			return err
		}
		if err := el.Fill(ctx, value); err != nil {
			return err
		}
		return el.Press(ctx, "Enter")
	}}
}

// Press sends a key to the named element.
func Press(name, key string) Step {
	return elementStep{verb: "press", name: name, arg: key, do: func(ctx context.Context, m *Model) error {
		el, err := m.Locate(name)
		if err != nil {
			return err
		}
		return el.Press(ctx, key)
	}}
}

// WaitVisible waits up to timeout for the named element to become visible.
func WaitVisible(name string, timeout time.Duration) Step {
	return elementStep{verb: "wait for", name: name, do: func(ctx context.Context, m *Model) error {
		el, err := m.Locate(name)
		if err != nil {
			return err
		}
		return expect.Expecter{Timeout: timeout}.Visible(ctx, el)
	}}
}

type navigateStep struct {
	path string
}

// Navigate loads a path relative to the application base URL.
func Navigate(path string) Step { return navigateStep{path: path} }

func (s navigateStep) Describe() string   { return "navigate to " + s.path }
func (s navigateStep) Locators() []string { return nil }
func (s navigateStep) Do(ctx context.Context, m *Model) error {
	return m.session.Navigate(ctx, s.path)
}

type customStep struct {
	description string
	names       []string
	fn          func(ctx context.Context, m *Model) error
}

// Custom is a step with arbitrary behavior. The names it will look up should be listed so that
// Verify can check them.
func Custom(description string, fn func(ctx context.Context, m *Model) error, names ...string) Step {
	return customStep{description: description, names: names, fn: fn}
}

func (s customStep) Describe() string                       { return s.description }
func (s customStep) Locators() []string                     { return s.names }
func (s customStep) Do(ctx context.Context, m *Model) error { return s.fn(ctx, m) }
