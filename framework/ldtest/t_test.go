package ldtest

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feedbackhq/ui-contract-tests/framework"
)

type recordingTestLogger struct {
	lock     sync.Mutex
	started  []string
	finished map[string]bool
	skipped  map[string]string
}

func newRecordingTestLogger() *recordingTestLogger {
	return &recordingTestLogger{finished: make(map[string]bool), skipped: make(map[string]string)}
}

func (r *recordingTestLogger) TestStarted(id framework.TestID) {
	r.lock.Lock()
	r.started = append(r.started, id.String())
	r.lock.Unlock()
}

func (r *recordingTestLogger) TestError(framework.TestID, error) {}

func (r *recordingTestLogger) TestFinished(id framework.TestID, failed bool, _ framework.CapturedOutput) {
	r.lock.Lock()
	r.finished[id.String()] = failed
	r.lock.Unlock()
}

func (r *recordingTestLogger) TestSkipped(id framework.TestID, reason string) {
	r.lock.Lock()
	r.skipped[id.String()] = reason
	r.lock.Unlock()
}

func TestPassingAndFailingSubtests(t *testing.T) {
	logger := newRecordingTestLogger()
	results := Run(context.Background(), TestConfiguration{TestLogger: logger}, func(t *T) {
		t.Run("a", func(t *T) {})
		t.Run("b", func(t *T) {
			require.Equal(t, 1, 2)
			panic("not reached")
		})
		t.Run("c", func(t *T) {
			assert.Equal(t, "x", "y")
		})
	})

	require.Len(t, results.Tests, 3)
	require.Len(t, results.Failures, 2)
	assert.Equal(t, "b", results.Failures[0].TestID.String())
	assert.Equal(t, "c", results.Failures[1].TestID.String())
	assert.False(t, results.OK())
	assert.Equal(t, map[string]bool{"a": false, "b": true, "c": true}, logger.finished)
}

func TestUnexpectedPanicIsRecordedAsFailure(t *testing.T) {
	results := Run(context.Background(), TestConfiguration{}, func(t *T) {
		t.Run("boom", func(t *T) { panic("oops") })
	})
	require.Len(t, results.Failures, 1)
	require.Len(t, results.Failures[0].Errors, 1)
	assert.Contains(t, results.Failures[0].Errors[0].Error(), "unexpected panic in test: oops")
}

func TestSkipWithReason(t *testing.T) {
	logger := newRecordingTestLogger()
	results := Run(context.Background(), TestConfiguration{TestLogger: logger}, func(t *T) {
		t.Run("skipper", func(t *T) { t.SkipWithReason("not today") })
	})
	assert.True(t, results.OK())
	assert.Equal(t, "not today", logger.skipped["skipper"])
}

func TestFilterExcludesTests(t *testing.T) {
	var filters framework.RegexFilters
	require.NoError(t, filters.MustNotMatch.Set("^b"))
	ran := map[string]bool{}
	Run(context.Background(), TestConfiguration{Filter: filters.AsFilter}, func(t *T) {
		t.Run("a", func(t *T) { ran["a"] = true })
		t.Run("b", func(t *T) { ran["b"] = true })
	})
	assert.Equal(t, map[string]bool{"a": true}, ran)
}

func TestDeferredFunctionsRunInReverseOrderAfterFailureHandlers(t *testing.T) {
	var calls []string
	var failureCause error
	Run(context.Background(), TestConfiguration{}, func(t *T) {
		t.Run("x", func(t *T) {
			t.Defer(func() { calls = append(calls, "first deferred") })
			t.Defer(func() { calls = append(calls, "second deferred") })
			t.OnFailure(func(cause error) {
				failureCause = cause
				calls = append(calls, "on failure")
			})
			t.Errorf("bad thing")
			t.FailNow()
		})
	})
	assert.Equal(t, []string{"on failure", "second deferred", "first deferred"}, calls)
	require.Error(t, failureCause)
	assert.Contains(t, failureCause.Error(), "bad thing")
}

func TestFailureHandlersDoNotRunOnSuccess(t *testing.T) {
	called := false
	deferred := false
	Run(context.Background(), TestConfiguration{}, func(t *T) {
		t.Run("x", func(t *T) {
			t.OnFailure(func(error) { called = true })
			t.Defer(func() { deferred = true })
		})
	})
	assert.False(t, called)
	assert.True(t, deferred)
}

func TestPanickingCleanupDoesNotStopOtherCleanups(t *testing.T) {
	ran := false
	results := Run(context.Background(), TestConfiguration{}, func(t *T) {
		t.Run("x", func(t *T) {
			t.Defer(func() { ran = true })
			t.Defer(func() { panic(errors.New("cleanup failed")) })
		})
	})
	assert.True(t, ran)
	assert.True(t, results.OK())
}

func TestCancelledRunSkipsRemainingTests(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	logger := newRecordingTestLogger()
	Run(ctx, TestConfiguration{TestLogger: logger}, func(t *T) {
		t.Run("first", func(t *T) { cancel() })
		t.Run("second", func(t *T) { t.Errorf("should not run") })
	})
	assert.Equal(t, "test run was cancelled", logger.skipped["second"])
}

func TestRunParallelKeepsGroupOrder(t *testing.T) {
	groups := []Group{
		{Name: "one", Action: func(t *T) { t.Run("x", func(*T) {}) }},
		{Name: "two", Action: func(t *T) { t.Run("y", func(t *T) { t.Errorf("failed") }) }},
		{Name: "three", Action: func(t *T) {}},
	}
	results := RunParallel(context.Background(), TestConfiguration{}, 3, groups)

	var ids []string
	for _, r := range results.Tests {
		ids = append(ids, r.TestID.String())
	}
	assert.Equal(t, []string{"one/x", "one", "two/y", "two", "three"}, ids)
	require.Len(t, results.Failures, 1)
	assert.Equal(t, "two/y", results.Failures[0].TestID.String())
}

func TestContextValueIsAvailable(t *testing.T) {
	var seen interface{}
	Run(context.Background(), TestConfiguration{Context: "shared"}, func(t *T) {
		t.Run("x", func(t *T) { seen = t.Context() })
	})
	assert.Equal(t, "shared", seen)
}
