// Package screens models the screens of the feedback application. Each screen is a
// screen.Model plus the composite actions that make sense on it; screens that can be opened,
// searched or filtered implement the matching interfaces from the screen package.
//
// Every locator uses a data-testid attribute, so markup can be restyled without breaking tests.
package screens
