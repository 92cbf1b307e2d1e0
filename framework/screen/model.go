// Package screen describes application screens as named locators plus the composite actions
// performed on them. A Model is built once per scenario on that scenario's browser session and
// holds no state beyond its locator definitions.
package screen

import (
	"context"
	"fmt"
	"sort"

	"github.com/feedbackhq/ui-contract-tests/browser"
)

// TestID returns the selector for an element with the given data-testid attribute, which is the
// convention for stable locators.
func TestID(id string) string {
	return fmt.Sprintf(`[data-testid="%s"]`, id)
}

// Locators maps semantic names to selectors.
type Locators map[string]string

// LocatorNotFound is returned when an action refers to a name that the screen does not declare.
// It is a mistake in the test code, not a state of the page.
type LocatorNotFound struct {
	Screen string
	Name   string
}

func (e *LocatorNotFound) Error() string {
	return fmt.Sprintf("screen %q has no locator named %q", e.Screen, e.Name)
}

// Model is a screen: its own locators and the shared chrome (navigation, dialogs) that is
// present on it.
type Model struct {
	name     string
	session  browser.Session
	locators Locators
	chrome   []*Model
}

// New creates a Model. Names are looked up first in locators and then in each chrome model in
// order.
func New(name string, session browser.Session, locators Locators, chrome ...*Model) *Model {
	own := make(Locators, len(locators))
	for k, v := range locators {
		own[k] = v
	}
	return &Model{name: name, session: session, locators: own, chrome: chrome}
}

func (m *Model) Name() string { return m.name }

// Session returns the browser session the screen is bound to.
func (m *Model) Session() browser.Session { return m.session }

// Selector returns the selector declared for a name.
func (m *Model) Selector(name string) (string, bool) {
	if sel, ok := m.locators[name]; ok {
		return sel, true
	}
	for _, c := range m.chrome {
		if sel, ok := c.Selector(name); ok {
			return sel, true
		}
	}
	return "", false
}

// Has reports whether the name is declared on the screen or its chrome.
func (m *Model) Has(name string) bool {
	_, ok := m.Selector(name)
	return ok
}

// Locate returns the element for a declared name. It does not check whether the element is
// currently on the page.
func (m *Model) Locate(name string) (browser.Element, error) {
	sel, ok := m.Selector(name)
	if !ok {
		return nil, &LocatorNotFound{Screen: m.name, Name: name}
	}
	return m.session.Locate(sel), nil
}

// MustLocate is like Locate but panics for an undeclared name. It is for screen types whose
// own methods use their own fixed locator names.
func (m *Model) MustLocate(name string) browser.Element {
	el, err := m.Locate(name)
	if err != nil {
		panic(err)
	}
	return el
}

// Names returns every declared name, including chrome, sorted.
func (m *Model) Names() []string {
	seen := make(map[string]bool)
	var collect func(*Model)
	collect = func(model *Model) {
		for k := range model.locators {
			seen[k] = true
		}
		for _, c := range model.chrome {
			collect(c)
		}
	}
	collect(m)
	ret := make([]string, 0, len(seen))
	for k := range seen {
		ret = append(ret, k)
	}
	sort.Strings(ret)
	return ret
}

// Verify checks ahead of time that every locator the steps refer to is declared.
func (m *Model) Verify(steps ...Step) error {
	for _, step := range steps {
		for _, name := range step.Locators() {
			if !m.Has(name) {
				return &LocatorNotFound{Screen: m.name, Name: name}
			}
		}
	}
	return nil
}

// Navigable is a screen that can be opened directly.
type Navigable interface {
	Open(ctx context.Context) error
	IsOpen(ctx context.Context) (bool, error)
}

// Searchable is a screen with a search box.
type Searchable interface {
	Search(ctx context.Context, query string) error
}

// Filterable is a screen whose contents can be narrowed by facets.
type Filterable interface {
	Filter(ctx context.Context, facet, value string) error
}
