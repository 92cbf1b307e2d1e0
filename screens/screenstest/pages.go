package screenstest

import (
	"fmt"
	"net/http"
	"strings"

	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"

	"github.com/feedbackhq/ui-contract-tests/browser/browsertest"
)

func (a *App) renderFeedback() {
	a.set("feedback-form", &browsertest.Element{Visible: true})
	a.set("feedback-title", &browsertest.Element{Visible: true})
	a.set("feedback-description", &browsertest.Element{Visible: true})
	a.set("feedback-type", &browsertest.Element{Visible: true})
	a.set("feedback-success", &browsertest.Element{})
	a.set("feedback-error", &browsertest.Element{})
	a.set("feedback-loading", &browsertest.Element{})
	a.set("feedback-reset", &browsertest.Element{Visible: true, OnClick: a.resetFeedback})
	a.set("feedback-submit", &browsertest.Element{Visible: true, OnClick: func() {
		a.update("feedback-error", func(e *browsertest.Element) { e.Visible = false })
		a.update("feedback-success", func(e *browsertest.Element) { e.Visible = false })
		a.update("feedback-loading", func(e *browsertest.Element) { e.Visible = true })
		go a.submitFeedback()
	}})
}

func (a *App) resetFeedback() {
	for _, id := range []string{"feedback-title", "feedback-description", "feedback-type"} {
		a.update(id, func(e *browsertest.Element) { e.Value = "" })
	}
}

func (a *App) submitFeedback() {
	o, err := a.Session.Request("POST", a.apiURL("/api/feedback"), requestTimeout)
	a.update("feedback-loading", func(e *browsertest.Element) { e.Visible = false })
	showError := func(text string) {
		a.update("feedback-error", func(e *browsertest.Element) {
			e.Visible = true
			e.Text = text
		})
	}
	switch {
	case err != nil || o.Aborted:
		showError("Could not submit feedback: network error. Please try again.")
		return
	case o.Status >= 400:
		showError(fmt.Sprintf("Could not submit feedback (HTTP %d). Please try again.", o.Status))
		return
	}
	ref := ldvalue.Parse(o.Body).GetByKey("id").StringValue()
	if ref == "" {
		showError("Could not submit feedback: unexpected response.")
		return
	}
	a.update("feedback-success", func(e *browsertest.Element) {
		e.Visible = true
		e.Text = "Thank you! Your reference is " + ref
	})
	a.resetFeedback()
}

func (a *App) renderOrganizations() {
	a.set("organizations-list", &browsertest.Element{})
	a.set("organizations-loading", &browsertest.Element{Visible: true, Text: "Loading organizations..."})
	a.set("organizations-error", &browsertest.Element{})
	a.set("organizations-empty", &browsertest.Element{})
	a.set("organizations-search", &browsertest.Element{Visible: true, OnPress: func(key string) {
		if key == "Enter" {
			a.lock.Lock()
			a.query = a.value("organizations-search")
			a.lock.Unlock()
			a.renderRows()
		}
	}})
	for _, facet := range []string{"plan", "status"} {
		facet := facet
		id := "organizations-filter-" + facet
		a.set(id, &browsertest.Element{Visible: true, OnPress: func(key string) {
			if key == "Enter" {
				a.lock.Lock()
				a.filters[facet] = a.value(id)
				a.lock.Unlock()
				a.renderRows()
			}
		}})
	}
	a.set("create-organization", &browsertest.Element{Visible: true, OnClick: a.openWizard})
	a.lock.Lock()
	a.query = ""
	a.filters = map[string]string{}
	a.loaded = nil
	a.lock.Unlock()
	go a.loadOrganizations()
}

func (a *App) loadOrganizations() {
	o, err := a.Session.Request("GET", a.apiURL("/api/organizations"), requestTimeout)
	a.update("organizations-loading", func(e *browsertest.Element) { e.Visible = false })
	if err != nil || o.Aborted || o.Status >= 400 {
		a.showOrganizationsError()
		return
	}
	list := ldvalue.Parse(o.Body)
	if list.Type() != ldvalue.ArrayType {
		a.showOrganizationsError()
		return
	}
	var loaded []Organization
	for i := 0; i < list.Count(); i++ {
		item := list.GetByIndex(i)
		loaded = append(loaded, Organization{
			Name:   item.GetByKey("name").StringValue(),
			Plan:   item.GetByKey("plan").StringValue(),
			Status: item.GetByKey("status").StringValue(),
		})
	}
	a.lock.Lock()
	a.loaded = loaded
	a.lock.Unlock()
	a.update("organizations-list", func(e *browsertest.Element) { e.Visible = true })
	a.renderRows()
}

func (a *App) showOrganizationsError() {
	a.update("organizations-error", func(e *browsertest.Element) {
		e.Visible = true
		e.Text = "Could not load organizations. Please try again."
	})
}

func (a *App) renderRows() {
	a.lock.Lock()
	var shown int
	for _, o := range a.loaded {
		if a.query != "" && !strings.Contains(strings.ToLower(o.Name), strings.ToLower(a.query)) {
			continue
		}
		if p := a.filters["plan"]; p != "" && p != o.Plan {
			continue
		}
		if s := a.filters["status"]; s != "" && s != o.Status {
			continue
		}
		shown++
	}
	a.lock.Unlock()
	if shown == 0 {
		a.Session.Remove(testID("organization-row"))
		a.update("organizations-empty", func(e *browsertest.Element) { e.Visible = true })
		return
	}
	a.update("organizations-empty", func(e *browsertest.Element) { e.Visible = false })
	a.set("organization-row", &browsertest.Element{Visible: true, Count: shown})
}

func (a *App) openWizard() {
	a.set("organization-wizard", &browsertest.Element{Visible: true})
	a.set("wizard-step-indicator", &browsertest.Element{Visible: true})
	a.set("wizard-name", &browsertest.Element{})
	a.set("wizard-slug", &browsertest.Element{})
	a.set("wizard-invite-email", &browsertest.Element{})
	a.set("wizard-success", &browsertest.Element{})
	a.set("wizard-back", &browsertest.Element{OnClick: func() { a.setWizardStep(a.WizardStep() - 1) }})
	a.set("wizard-next", &browsertest.Element{OnClick: func() { a.setWizardStep(a.WizardStep() + 1) }})
	a.set("wizard-finish", &browsertest.Element{OnClick: func() { go a.finishWizard() }})
	a.setWizardStep(1)
}

func (a *App) setWizardStep(step int) {
	if step < 1 {
		step = 1
	}
	a.lock.Lock()
	a.wizardStep = step
	a.lock.Unlock()
	a.update("wizard-step-indicator", func(e *browsertest.Element) {
		e.Text = fmt.Sprintf("Step %d of %d", step, wizardSteps)
	})
	show := func(id string, visible bool) {
		a.update(id, func(e *browsertest.Element) { e.Visible = visible })
	}
	show("wizard-name", step == 1)
	show("wizard-slug", step == 1)
	show("wizard-invite-email", step == 2)
	show("wizard-back", step > 1)
	show("wizard-next", step < wizardSteps)
	show("wizard-finish", step == wizardSteps)
}

func (a *App) finishWizard() {
	name := a.value("wizard-name")
	o, err := a.Session.Request("POST", a.apiURL("/api/organizations"), requestTimeout)
	if err != nil || o.Aborted || o.Status >= 400 {
		return
	}
	a.lock.Lock()
	a.organizations = append(a.organizations, Organization{Name: name, Plan: "free", Status: "active"})
	a.lock.Unlock()
	a.update("wizard-success", func(e *browsertest.Element) {
		e.Visible = true
		e.Text = "Organization " + name + " created"
	})
}

// serveAPI is the fake backend that requests reach when they are not mocked.
func (a *App) serveAPI(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == "/api/organizations" && r.Method == http.MethodGet:
		a.lock.Lock()
		list := ldvalue.ArrayBuild()
		for _, o := range a.organizations {
			list.Add(o.value())
		}
		a.lock.Unlock()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(list.Build().JSONString()))
	case r.URL.Path == "/api/organizations" && r.Method == http.MethodPost:
		w.WriteHeader(http.StatusCreated)
	case r.URL.Path == "/api/feedback" && r.Method == http.MethodPost:
		a.lock.Lock()
		a.lastFeedback++
		ref := fmt.Sprintf("FB-%d", a.lastFeedback)
		a.feedback = append(a.feedback, ref)
		a.lock.Unlock()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(ldvalue.ObjectBuild().Set("id", ldvalue.String(ref)).Build().JSONString()))
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

// evaluate answers the scripts the accessibility engine runs.
func (a *App) evaluate(script string, arg interface{}) (interface{}, error) {
	switch {
	case strings.Contains(script, "axe.run"):
		a.lock.Lock()
		defer a.lock.Unlock()
		return map[string]interface{}{"violations": a.Violations}, nil
	case strings.Contains(script, "window.axe"):
		return true, nil
	}
	return nil, nil
}
