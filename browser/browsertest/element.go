package browsertest

import (
	"context"
	"fmt"
)

type elementHandle struct {
	session  *Session
	selector string
}

func (h *elementHandle) Selector() string { return h.selector }

func (h *elementHandle) lookup() (Element, bool, error) {
	h.session.lock.Lock()
	defer h.session.lock.Unlock()
	if h.session.closed {
		return Element{}, false, ErrClosed
	}
	e, ok := h.session.elements[h.selector]
	if !ok {
		return Element{}, false, nil
	}
	return *e, true, nil
}

func (h *elementHandle) require() (Element, error) {
	e, ok, err := h.lookup()
	if err != nil {
		return Element{}, err
	}
	if !ok {
		return Element{}, fmt.Errorf("%w: %s", ErrNoElement, h.selector)
	}
	return e, nil
}

func (h *elementHandle) Click(ctx context.Context) error {
	e, err := h.require()
	if err != nil {
		return err
	}
	if !e.Visible {
		return fmt.Errorf("element %s is not visible", h.selector)
	}
	h.session.record("click " + h.selector)
	if e.OnClick != nil {
		e.OnClick()
	}
	return nil
}

func (h *elementHandle) Fill(ctx context.Context, value string) error {
	e, err := h.require()
	if err != nil {
		return err
	}
	h.session.record(fmt.Sprintf("fill %s %q", h.selector, value))
	h.session.Update(func(elements map[string]*Element) {
		if el, ok := elements[h.selector]; ok {
			el.Value = value
		}
	})
	if e.OnFill != nil {
		e.OnFill(value)
	}
	return nil
}

func (h *elementHandle) Press(ctx context.Context, key string) error {
	e, err := h.require()
	if err != nil {
		return err
	}
	h.session.record(fmt.Sprintf("press %s %s", h.selector, key))
	if e.OnPress != nil {
		e.OnPress(key)
	}
	return nil
}

func (h *elementHandle) IsVisible(ctx context.Context) (bool, error) {
	e, ok, err := h.lookup()
	if err != nil || !ok {
		return false, err
	}
	return e.Visible, nil
}

func (h *elementHandle) Text(ctx context.Context) (string, error) {
	e, err := h.require()
	if err != nil {
		return "", err
	}
	return e.Text, nil
}

func (h *elementHandle) Value(ctx context.Context) (string, error) {
	e, err := h.require()
	if err != nil {
		return "", err
	}
	return e.Value, nil
}

func (h *elementHandle) Count(ctx context.Context) (int, error) {
	e, ok, err := h.lookup()
	if err != nil || !ok {
		return 0, err
	}
	if e.Count == 0 {
		return 1, nil
	}
	return e.Count, nil
}
