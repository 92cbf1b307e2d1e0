// Package ldtest provides test scopes for running a tree of tests outside of the Go test runner.
//
// A *T behaves much like *testing.T: it implements require.TestingT, so the assert and require
// packages can be used with it, and it has a Run method for subtests. A failed require check or a
// call to FailNow ends the current test immediately; the test tree continues with the next test.
package ldtest
