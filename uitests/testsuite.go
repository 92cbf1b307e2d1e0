package uitests

import (
	"context"

	"github.com/feedbackhq/ui-contract-tests/framework"
	"github.com/feedbackhq/ui-contract-tests/framework/harness"
	"github.com/feedbackhq/ui-contract-tests/framework/ldtest"
)

// AllGroups returns the top-level test groups. Each group is an independent test tree, so
// groups can run in parallel.
func AllGroups() []ldtest.Group {
	return []ldtest.Group{
		{Name: "authentication", Action: DoAuthenticationTests},
		{Name: "feedback", Action: DoFeedbackTests},
		{Name: "organizations", Action: DoOrganizationTests},
		{Name: "network failures", Action: DoNetworkTests},
		{Name: "responsive layout", Action: DoResponsiveTests},
		{Name: "accessibility", Action: DoAccessibilityTests},
		{Name: "performance", Action: DoPerformanceTests},
	}
}

func RunTestSuite(
	ctx context.Context,
	h *harness.TestHarness,
	filter framework.Filter,
	testLogger framework.TestLogger,
	parallelism int,
) framework.Results {
	config := ldtest.TestConfiguration{
		Filter:     filter,
		TestLogger: testLogger,
		Context:    NewUITestContext(h),
	}
	return ldtest.RunParallel(ctx, config, parallelism, AllGroups())
}
