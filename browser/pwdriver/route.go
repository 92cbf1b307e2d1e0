package pwdriver

import (
	"strings"

	"github.com/playwright-community/playwright-go"

	"github.com/feedbackhq/ui-contract-tests/browser"
)

type interceptedRequest struct {
	route playwright.Route
}

func (r *interceptedRequest) Method() string { return r.route.Request().Method() }
func (r *interceptedRequest) URL() string    { return r.route.Request().URL() }

func (r *interceptedRequest) Fulfill(resp browser.Response) error {
	headers := make(map[string]string, len(resp.Headers))
	for k, v := range resp.Headers {
		headers[k] = strings.Join(v, ", ")
	}
	return r.route.Fulfill(playwright.RouteFulfillOptions{
		Status:  playwright.Int(resp.Status),
		Headers: headers,
		Body:    resp.Body,
	})
}

// Abort takes a Playwright error code such as "failed" or "connectionrefused".
func (r *interceptedRequest) Abort(reason string) error {
	return r.route.Abort(reason)
}

func (r *interceptedRequest) Continue() error {
	return r.route.Continue()
}
