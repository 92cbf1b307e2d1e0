// Package uitests contains the UI test suite itself and the small API its tests are written
// against.
//
// Infrastructure that is not specific to the application's screens, such as the scenario state
// machine, network mocking and the accessibility scanner, is in the lower-level framework
// packages.
package uitests
