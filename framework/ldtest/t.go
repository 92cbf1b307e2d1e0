package ldtest

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/feedbackhq/ui-contract-tests/framework"
)

// environment is shared by every T in one test tree. Trees run by RunParallel share the
// results collector, so it is guarded by a lock.
type environment struct {
	results    *framework.Results
	resultsMu  *sync.Mutex
	testLogger framework.TestLogger
	filter     framework.Filter
	config     interface{}
}

// T represents a test or subtest.
type T struct {
	env         *environment
	ctx         context.Context
	id          framework.TestID
	debugLogger framework.CapturingLogger
	failed      bool
	skipped     bool
	skipReason  string
	errors      []error
	cleanups    []func()
	onFailure   []func(error)
}

// ID returns the full identifier of the test.
func (t *T) ID() framework.TestID {
	return t.id
}

// Context returns the configuration value that was passed to Run. Higher-level test packages use
// this to find their own shared state.
func (t *T) Context() interface{} {
	return t.env.config
}

// Ctx returns the context.Context for the test run. It is cancelled if the whole run is aborted,
// for instance by an outer timeout.
func (t *T) Ctx() context.Context {
	return t.ctx
}

// Run runs a subtest. The subtest is skipped if it is excluded by the filter.
func (t *T) Run(name string, action func(*T)) {
	id := t.id.Plus(name)

	t.env.testLogger.TestStarted(id)
	if t.env.filter != nil && !t.env.filter(id) {
		t.env.testLogger.TestSkipped(id, "excluded by filter parameters")
		return
	}
	if err := t.ctx.Err(); err != nil {
		t.env.testLogger.TestSkipped(id, "test run was cancelled")
		return
	}
	t1 := &T{
		id:  id,
		env: t.env,
		ctx: t.ctx,
	}
	t1.run(action)
	if t1.skipped {
		t.env.testLogger.TestSkipped(id, t1.skipReason)
	} else {
		t.env.testLogger.TestFinished(id, t1.failed, t1.debugLogger.Output())
	}
}

// Errorf is called by assertions to log a test failure. It does not cause an immediate exit.
func (t *T) Errorf(format string, args ...interface{}) {
	t.failed = true
	err := fmt.Errorf(format, args...)
	t.errors = append(t.errors, err)
	t.env.testLogger.TestError(t.id, reformatError(err))
}

// FailNow is called by assertions when a test should fail and immediately exit. The methods in
// the require package call FailNow.
func (t *T) FailNow() {
	panic(t)
}

// Failed reports whether the test has failed so far.
func (t *T) Failed() bool {
	return t.failed
}

// Skip ends the test immediately without failing it.
func (t *T) Skip() {
	t.skipped = true
	panic(t)
}

// SkipWithReason is the same as Skip, but records a reason that will be logged.
func (t *T) SkipWithReason(reason string) {
	t.skipReason = reason
	t.Skip()
}

// Debug writes a line of debug output for the test. It is passed to the test logger when the
// test finishes.
func (t *T) Debug(message string, args ...interface{}) {
	t.debugLogger.Printf(message, args...)
}

// DebugLogger returns a Logger that writes to this test's debug output.
func (t *T) DebugLogger() framework.Logger {
	return &t.debugLogger
}

// DebugOutput returns a copy of the debug output captured so far.
func (t *T) DebugOutput() framework.CapturedOutput {
	return t.debugLogger.Output()
}

// Defer schedules a function to run when the test ends, however it ends. Deferred functions
// run in reverse order, after any OnFailure handlers.
func (t *T) Defer(fn func()) {
	t.cleanups = append(t.cleanups, fn)
}

// OnFailure schedules a function to run if the test fails. It runs before the functions that
// were passed to Defer, so resources that a failure handler wants to inspect are still open.
func (t *T) OnFailure(fn func(cause error)) {
	t.onFailure = append(t.onFailure, fn)
}

func (t *T) run(action func(*T)) {
	started := time.Now()
	defer func() {
		if r := recover(); r != nil {
			if !t.skipped {
				t.failed = true
				var addError error
				if _, ok := r.(*T); ok {
					if len(t.errors) == 0 {
						addError = errors.New("test failed with no failure message")
					}
				} else {
					addError = fmt.Errorf("unexpected panic in test: %+v\n%s", r, string(debug.Stack()))
				}
				if addError != nil {
					t.errors = append(t.errors, addError)
					t.env.testLogger.TestError(t.id, addError)
				}
			}
		}
		if t.failed {
			cause := errors.Join(t.errors...)
			for _, fn := range t.onFailure {
				t.runSafely(func() { fn(cause) })
			}
		}
		for i := len(t.cleanups) - 1; i >= 0; i-- {
			t.runSafely(t.cleanups[i])
		}
		result := framework.TestResult{
			TestID:   t.id,
			Errors:   t.errors,
			Skipped:  t.skipped,
			Duration: time.Since(started),
		}
		if len(t.id.Path) == 0 && !t.failed {
			return // the root of the tree is not a test in itself
		}
		t.env.resultsMu.Lock()
		t.env.results.Tests = append(t.env.results.Tests, result)
		if t.failed {
			t.env.results.Failures = append(t.env.results.Failures, result)
		}
		t.env.resultsMu.Unlock()
	}()

	action(t)
}

// runSafely keeps a panicking cleanup from preventing the remaining cleanups.
func (t *T) runSafely(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(*T); ok {
				return
			}
			t.Debug("cleanup panicked: %+v", r)
		}
	}()
	fn()
}

func reformatError(err error) error {
	s := err.Error()
	if !strings.Contains(s, "\n") {
		return err
	}
	// testify puts a leading tab and line breaks in its messages; flatten the leading whitespace
	// so the console output lines up
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimLeft(line, "\t ")
	}
	return errors.New(strings.Join(lines, "\n"))
}
