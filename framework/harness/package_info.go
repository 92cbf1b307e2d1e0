// Package harness owns the run-level resources of a UI test run (the browser driver, the
// performance recorder, the accessibility engine and the artifact store) and the Scenario state
// machine that every test goes through.
package harness
