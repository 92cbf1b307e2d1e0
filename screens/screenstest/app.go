// Package screenstest simulates the feedback application on a browsertest.Session, closely
// enough for the screen models and the test suite to be tested without a browser. API calls go
// through the session's route dispatch, so network mocks apply to them as they would in a real
// page.
package screenstest

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"

	"github.com/feedbackhq/ui-contract-tests/browser"
	"github.com/feedbackhq/ui-contract-tests/browser/browsertest"
	"github.com/feedbackhq/ui-contract-tests/framework/screen"
)

const (
	DefaultBaseURL   = "http://localhost:3000"
	MobileBreakpoint = 768
	Email            = "qa@example.com"
	Password         = "correct-horse"

	requestTimeout = 5 * time.Second
	wizardSteps    = 3
)

// Organization is a row of the fake organization list.
type Organization struct {
	Name   string
	Plan   string
	Status string
}

func (o Organization) value() ldvalue.Value {
	return ldvalue.ObjectBuild().
		Set("name", ldvalue.String(o.Name)).
		Set("plan", ldvalue.String(o.Plan)).
		Set("status", ldvalue.String(o.Status)).
		Build()
}

// App is the fake application.
type App struct {
	Session *browsertest.Session

	// Violations is the raw axe-core result returned for every scan.
	Violations []interface{}

	// HideNavigation simulates a layout bug where neither the sidebar nor the mobile menu
	// button is shown.
	HideNavigation bool

	baseURL string

	lock          sync.Mutex
	signedIn      bool
	width         int
	path          string
	organizations []Organization
	loaded        []Organization
	query         string
	filters       map[string]string
	wizardStep    int
	lastFeedback  int
	feedback      []string
}

// Install renders the application into the session. A session that was opened with a storage
// state starts out signed in.
func Install(s *browsertest.Session, opts browser.SessionOptions) *App {
	a := &App{
		Session: s,
		baseURL: strings.TrimSuffix(opts.BaseURL, "/"),
		width:   opts.Viewport.Width,
		organizations: []Organization{
			{Name: "Acme Corp", Plan: "enterprise", Status: "active"},
			{Name: "Globex", Plan: "pro", Status: "active"},
			{Name: "Initech", Plan: "free", Status: "suspended"},
		},
		filters:      map[string]string{},
		signedIn:     opts.StorageStatePath != "",
		lastFeedback: 1000,
		Violations:   []interface{}{},
	}
	if a.baseURL == "" {
		a.baseURL = DefaultBaseURL
	}
	s.Backend = http.HandlerFunc(a.serveAPI)
	s.OnNavigate = a.navigated
	s.OnViewport = func(width, height int) {
		a.lock.Lock()
		a.width = width
		a.lock.Unlock()
		a.renderChromeLayout()
	}
	s.EvaluateFunc = a.evaluate
	return a
}

// SignedIn reports whether the fake user is signed in.
func (a *App) SignedIn() bool {
	a.lock.Lock()
	defer a.lock.Unlock()
	return a.signedIn
}

// Path returns the path of the page being shown.
func (a *App) Path() string {
	a.lock.Lock()
	defer a.lock.Unlock()
	return a.path
}

// Organizations returns the organizations the backend knows about.
func (a *App) Organizations() []Organization {
	a.lock.Lock()
	defer a.lock.Unlock()
	return append([]Organization(nil), a.organizations...)
}

// FeedbackReceived returns the reference ids of the feedback submissions the backend accepted.
func (a *App) FeedbackReceived() []string {
	a.lock.Lock()
	defer a.lock.Unlock()
	return append([]string(nil), a.feedback...)
}

// WizardStep returns the wizard's current step, or 0 if it is not open.
func (a *App) WizardStep() int {
	a.lock.Lock()
	defer a.lock.Unlock()
	return a.wizardStep
}

func (a *App) apiURL(path string) string {
	return a.baseURL + path
}

func (a *App) navigated(rawURL string) {
	path := rawURL
	if u, err := url.Parse(rawURL); err == nil {
		path = u.Path
	}
	a.show(path)
}

func (a *App) show(path string) {
	a.lock.Lock()
	if path != "/login" && !a.signedIn {
		path = "/login"
	}
	if path == "/" {
		path = "/dashboard"
	}
	a.path = path
	a.wizardStep = 0
	a.lock.Unlock()

	a.Session.Update(func(elements map[string]*browsertest.Element) {
		for k := range elements {
			delete(elements, k)
		}
	})
	switch path {
	case "/login":
		a.renderLogin()
		return
	case "/dashboard":
		a.renderDashboard()
	case "/feedback":
		a.renderFeedback()
	case "/organizations":
		a.renderOrganizations()
	default:
		a.Session.Set(testID("not-found"), &browsertest.Element{Visible: true, Text: "Page not found"})
	}
	a.renderChrome()
}

func testID(id string) string { return screen.TestID(id) }

func (a *App) set(id string, e *browsertest.Element) {
	a.Session.Set(testID(id), e)
}

func (a *App) update(id string, fn func(e *browsertest.Element)) {
	a.Session.Update(func(elements map[string]*browsertest.Element) {
		if e, ok := elements[testID(id)]; ok {
			fn(e)
		}
	})
}

func (a *App) value(id string) string {
	e, _ := a.Session.Get(testID(id))
	return e.Value
}

func (a *App) renderLogin() {
	a.set("login-form", &browsertest.Element{Visible: true})
	a.set("login-email", &browsertest.Element{Visible: true})
	a.set("login-password", &browsertest.Element{Visible: true})
	a.set("login-error", &browsertest.Element{})
	a.set("login-submit", &browsertest.Element{Visible: true, OnClick: func() {
		if a.value("login-email") == Email && a.value("login-password") == Password {
			a.lock.Lock()
			a.signedIn = true
			a.lock.Unlock()
			a.show("/dashboard")
			return
		}
		a.update("login-error", func(e *browsertest.Element) {
			e.Visible = true
			e.Text = "Invalid email or password"
		})
	}})
}

func (a *App) renderChrome() {
	a.set("sidebar", &browsertest.Element{})
	a.set("mobile-menu-button", &browsertest.Element{})
	for _, nav := range []string{"dashboard", "organizations", "feedback"} {
		nav := nav
		a.set("nav-"+nav, &browsertest.Element{Visible: true, OnClick: func() { a.show("/" + nav) }})
	}
	a.set("sign-out", &browsertest.Element{OnClick: func() {
		a.lock.Lock()
		a.signedIn = false
		a.lock.Unlock()
		a.show("/login")
	}})
	a.set("user-menu", &browsertest.Element{Visible: true, Text: Email, OnClick: func() {
		a.update("sign-out", func(e *browsertest.Element) { e.Visible = true })
	}})
	a.renderChromeLayout()
}

func (a *App) renderChromeLayout() {
	a.lock.Lock()
	mobile := a.width > 0 && a.width < MobileBreakpoint
	hidden := a.HideNavigation
	a.lock.Unlock()
	a.update("sidebar", func(e *browsertest.Element) { e.Visible = !hidden && !mobile })
	a.update("mobile-menu-button", func(e *browsertest.Element) { e.Visible = !hidden && mobile })
}

func (a *App) renderDashboard() {
	a.set("dashboard", &browsertest.Element{Visible: true})
	a.set("dashboard-welcome", &browsertest.Element{Visible: true, Text: "Welcome back"})
	a.set("dashboard-stats", &browsertest.Element{Visible: true, Text: "3 organizations"})
	a.set("recent-feedback", &browsertest.Element{Visible: true})
}

// String describes the fake for debug output.
func (a *App) String() string {
	return fmt.Sprintf("fake application at %s (path %s)", a.baseURL, a.Path())
}

// SetViolations changes the raw axe-core result returned for later scans.
func (a *App) SetViolations(violations ...interface{}) {
	a.lock.Lock()
	a.Violations = append([]interface{}{}, violations...)
	a.lock.Unlock()
}
