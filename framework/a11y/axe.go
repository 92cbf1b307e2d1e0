package a11y

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/feedbackhq/ui-contract-tests/browser"
)

const (
	axePresentScript = `() => typeof window.axe !== 'undefined'`

	axeInjectScript = `(source) => {
	const el = document.createElement('script');
	el.textContent = source;
	document.head.appendChild(el);
	return typeof window.axe !== 'undefined';
}`

	axeRunScript = `async (opts) => {
	const context = opts.selector ? document.querySelector(opts.selector) : document;
	if (!context) throw new Error('scan scope not found: ' + opts.selector);
	const options = opts.tags && opts.tags.length ? { runOnly: { type: 'tag', values: opts.tags } } : {};
	const result = await window.axe.run(context, options);
	return {
		violations: result.violations.map(v => ({
			id: v.id,
			impact: v.impact,
			description: v.help,
			nodes: v.nodes.map(n => ({ target: n.target, html: n.html })),
		})),
	};
}`
)

// AxeAnalyzer runs axe-core inside the page. If the page does not already load axe, the
// configured script is injected first.
type AxeAnalyzer struct {
	source string
}

// NewAxeAnalyzer reads the axe-core script from a file. An empty path means the application
// under test is expected to load axe itself.
func NewAxeAnalyzer(scriptPath string) (*AxeAnalyzer, error) {
	if scriptPath == "" {
		return &AxeAnalyzer{}, nil
	}
	data, err := os.ReadFile(scriptPath)
	if err != nil {
		return nil, fmt.Errorf("could not read axe script: %w", err)
	}
	return &AxeAnalyzer{source: string(data)}, nil
}

func (a *AxeAnalyzer) Analyze(ctx context.Context, session browser.Session, scope Scope, tags []string) (interface{}, error) {
	present, err := session.Evaluate(ctx, axePresentScript, nil)
	if err != nil {
		return nil, err
	}
	if present != true {
		if a.source == "" {
			return nil, errors.New("axe-core is not loaded in the page and no script was configured")
		}
		injected, err := session.Evaluate(ctx, axeInjectScript, a.source)
		if err != nil {
			return nil, fmt.Errorf("could not inject axe-core: %w", err)
		}
		if injected != true {
			return nil, errors.New("axe-core did not load")
		}
	}
	if tags == nil {
		tags = []string{}
	}
	return session.Evaluate(ctx, axeRunScript, map[string]interface{}{
		"selector": scope.Selector,
		"tags":     tags,
	})
}
