package cdpdriver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"

	"github.com/feedbackhq/ui-contract-tests/browser"
)

const waitForPollInterval = 100 * time.Millisecond

type session struct {
	tab               context.Context
	cancel            context.CancelFunc
	baseURL           string
	actionTimeout     time.Duration
	navigationTimeout time.Duration

	routes       []route
	fetchEnabled bool
	lock         sync.Mutex
}

// run executes actions on the tab, bounded by timeout and by the caller's context.
func (s *session) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	runCtx, cancel := context.WithTimeout(s.tab, timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()
	return chromedp.Run(runCtx, actions...)
}

func (s *session) resolve(target string) (string, error) {
	if s.baseURL == "" {
		return target, nil
	}
	base, err := url.Parse(s.baseURL)
	if err != nil {
		return "", err
	}
	ref, err := url.Parse(target)
	if err != nil {
		return "", err
	}
	return base.ResolveReference(ref).String(), nil
}

func (s *session) Navigate(ctx context.Context, target string) error {
	u, err := s.resolve(target)
	if err != nil {
		return fmt.Errorf("invalid URL %q: %w", target, err)
	}
	return s.run(ctx, s.navigationTimeout, chromedp.Navigate(u))
}

func (s *session) Locate(selector string) browser.Element {
	return &element{session: s, selector: selector}
}

func (s *session) WaitFor(ctx context.Context, script string, arg interface{}, timeout time.Duration) error {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	ticker := time.NewTicker(waitForPollInterval)
	defer ticker.Stop()
	for {
		v, err := s.Evaluate(ctx, script, arg)
		if err != nil {
			return err
		}
		if truthy(v) {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline.C:
			return fmt.Errorf("timed out after %s waiting for condition", timeout)
		case <-ticker.C:
		}
	}
}

// Evaluate calls the function expression with the JSON-encoded argument. The result is wrapped
// in an object so that undefined and null results come back as nil rather than as errors.
func (s *session) Evaluate(ctx context.Context, script string, arg interface{}) (interface{}, error) {
	argJSON := []byte("undefined")
	if arg != nil {
		data, err := json.Marshal(arg)
		if err != nil {
			return nil, fmt.Errorf("could not encode script argument: %w", err)
		}
		argJSON = data
	}
	expr := fmt.Sprintf(`(async () => { const v = await (%s)(%s); return {v: v === undefined ? null : v}; })()`,
		script, argJSON)
	var res struct {
		V interface{} `json:"v"`
	}
	err := s.run(ctx, s.actionTimeout, chromedp.Evaluate(expr, &res, func(p *runtime.EvaluateParams) *runtime.EvaluateParams {
		return p.WithAwaitPromise(true)
	}))
	if err != nil {
		return nil, err
	}
	return res.V, nil
}

func (s *session) SetViewportSize(ctx context.Context, width, height int) error {
	return s.run(ctx, s.actionTimeout, chromedp.EmulateViewport(int64(width), int64(height)))
}

func (s *session) Screenshot(ctx context.Context) ([]byte, error) {
	var buf []byte
	// quality 100 selects PNG
	if err := s.run(ctx, s.actionTimeout, chromedp.FullScreenshot(&buf, 100)); err != nil {
		return nil, err
	}
	return buf, nil
}

func (s *session) Content(ctx context.Context) (string, error) {
	var html string
	if err := s.run(ctx, s.actionTimeout, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", err
	}
	return html, nil
}

func (s *session) URL() string {
	var u string
	if err := s.run(context.Background(), s.actionTimeout, chromedp.Location(&u)); err != nil {
		return ""
	}
	return u
}

func (s *session) Close() error {
	err := chromedp.Cancel(s.tab)
	s.cancel()
	return err
}

func truthy(v interface{}) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != ""
	case float64:
		return x != 0
	default:
		return true
	}
}
