package cdpdriver

import (
	"context"
	"errors"
	"fmt"

	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"
)

var errNoElement = errors.New("no element matches selector")

const (
	visibleScript = `(sel) => {
	const el = document.querySelector(sel);
	if (!el) return false;
	const style = window.getComputedStyle(el);
	if (style.display === 'none' || style.visibility === 'hidden') return false;
	const rect = el.getBoundingClientRect();
	return rect.width > 0 && rect.height > 0;
}`
	textScript  = `(sel) => { const el = document.querySelector(sel); return el ? el.textContent : null; }`
	valueScript = `(sel) => { const el = document.querySelector(sel); return el ? (el.value ?? '') : null; }`
	countScript = `(sel) => document.querySelectorAll(sel).length`
)

var namedKeys = map[string]string{
	"Enter":      kb.Enter,
	"Tab":        kb.Tab,
	"Escape":     kb.Escape,
	"Backspace":  kb.Backspace,
	"ArrowDown":  kb.ArrowDown,
	"ArrowUp":    kb.ArrowUp,
	"ArrowLeft":  kb.ArrowLeft,
	"ArrowRight": kb.ArrowRight,
}

type element struct {
	session  *session
	selector string
}

func (e *element) Selector() string { return e.selector }

func (e *element) Click(ctx context.Context) error {
	return e.session.run(ctx, e.session.actionTimeout,
		chromedp.Click(e.selector, chromedp.ByQuery, chromedp.NodeVisible))
}

func (e *element) Fill(ctx context.Context, value string) error {
	return e.session.run(ctx, e.session.actionTimeout,
		chromedp.Clear(e.selector, chromedp.ByQuery),
		chromedp.SendKeys(e.selector, value, chromedp.ByQuery),
	)
}

func (e *element) Press(ctx context.Context, key string) error {
	if k, ok := namedKeys[key]; ok {
		key = k
	}
	return e.session.run(ctx, e.session.actionTimeout,
		chromedp.SendKeys(e.selector, key, chromedp.ByQuery))
}

func (e *element) IsVisible(ctx context.Context) (bool, error) {
	v, err := e.session.Evaluate(ctx, visibleScript, e.selector)
	if err != nil {
		return false, err
	}
	b, _ := v.(bool)
	return b, nil
}

func (e *element) stringProperty(ctx context.Context, script string) (string, error) {
	v, err := e.session.Evaluate(ctx, script, e.selector)
	if err != nil {
		return "", err
	}
	if v == nil {
		return "", fmt.Errorf("%w: %s", errNoElement, e.selector)
	}
	s, _ := v.(string)
	return s, nil
}

func (e *element) Text(ctx context.Context) (string, error) {
	return e.stringProperty(ctx, textScript)
}

func (e *element) Value(ctx context.Context) (string, error) {
	return e.stringProperty(ctx, valueScript)
}

func (e *element) Count(ctx context.Context) (int, error) {
	v, err := e.session.Evaluate(ctx, countScript, e.selector)
	if err != nil {
		return 0, err
	}
	n, _ := v.(float64)
	return int(n), nil
}
