package ldtest

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/feedbackhq/ui-contract-tests/framework"
)

// TestConfiguration holds the settings for a test run.
type TestConfiguration struct {
	// Filter selects which tests to run; nil means all of them.
	Filter framework.Filter

	// TestLogger receives progress and failure output; nil means no output.
	TestLogger framework.TestLogger

	// Context is an arbitrary value that tests can retrieve with T.Context.
	Context interface{}
}

// Group is a named top-level test tree that can run alongside other groups.
type Group struct {
	Name   string
	Action func(*T)
}

// Run starts a test tree. The action receives the root T, which normally just calls Run for
// each top-level test.
func Run(ctx context.Context, config TestConfiguration, action func(*T)) framework.Results {
	if ctx == nil {
		ctx = context.Background()
	}
	env := newEnvironment(config, &framework.Results{}, &sync.Mutex{})
	t := &T{env: env, ctx: ctx}
	t.run(action)
	return *env.results
}

// RunParallel runs each group as an independent test tree, at most parallelism at a time. The
// results keep the order of the groups regardless of completion order. Cancelling ctx stops
// groups that have not started yet; groups already running see the cancellation through T.Ctx.
func RunParallel(ctx context.Context, config TestConfiguration, parallelism int, groups []Group) framework.Results {
	if parallelism < 1 {
		parallelism = 1
	}
	perGroup := make([]framework.Results, len(groups))
	var g errgroup.Group
	g.SetLimit(parallelism)
	for i, group := range groups {
		i, group := i, group
		g.Go(func() error {
			results := Run(ctx, config, func(t *T) {
				t.Run(group.Name, group.Action)
			})
			perGroup[i] = results
			return nil
		})
	}
	_ = g.Wait()
	return framework.Results{}.Merge(perGroup...)
}

func newEnvironment(config TestConfiguration, results *framework.Results, lock *sync.Mutex) *environment {
	testLogger := config.TestLogger
	if testLogger == nil {
		testLogger = framework.NullTestLogger()
	}
	return &environment{
		results:    results,
		resultsMu:  lock,
		testLogger: testLogger,
		filter:     config.Filter,
		config:     config.Context,
	}
}
