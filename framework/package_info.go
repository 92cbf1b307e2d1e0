// Package framework contains the low-level pieces of test harness infrastructure that are shared
// by every layer of the UI contract tests: test identifiers and results, test filters, and the
// loggers that capture debug output for each test.
//
// The general model is:
//
// 1. A test run is a tree of named tests (see the ldtest subpackage), similar to Go's
// *testing.T but usable outside of the Go test runner.
//
// 2. Each test that touches the application gets its own scenario (see the harness subpackage):
// an isolated browser session with its own network mocks, screen models and fixtures, which is
// torn down when the test ends no matter how it ends.
//
// 3. The building blocks a scenario composes live in their own subpackages: screen (locators and
// composite actions), expect (polling assertions), perf (timing), netmock (request interception)
// and a11y (accessibility scans).
package framework
