package pwdriver

import (
	"context"

	"github.com/playwright-community/playwright-go"
)

type element struct {
	locator  playwright.Locator
	selector string
}

func (e *element) Selector() string { return e.selector }

func (e *element) first() playwright.Locator { return e.locator.First() }

func (e *element) Click(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return e.first().Click(playwright.LocatorClickOptions{Timeout: timeoutFrom(ctx)})
}

func (e *element) Fill(ctx context.Context, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return e.first().Fill(value, playwright.LocatorFillOptions{Timeout: timeoutFrom(ctx)})
}

func (e *element) Press(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return e.first().Press(key, playwright.LocatorPressOptions{Timeout: timeoutFrom(ctx)})
}

func (e *element) IsVisible(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	// IsVisible does not wait; an absent element is simply not visible
	return e.first().IsVisible()
}

func (e *element) Text(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return e.first().TextContent(playwright.LocatorTextContentOptions{Timeout: timeoutFrom(ctx)})
}

func (e *element) Value(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return e.first().InputValue(playwright.LocatorInputValueOptions{Timeout: timeoutFrom(ctx)})
}

func (e *element) Count(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return e.locator.Count()
}
