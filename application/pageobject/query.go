package pageobject

import (
	"context"
	"fmt"

	"pagewright/domain/entities"
	"pagewright/domain/interfaces"
)

// Query addresses the elements matching a CSS selector. A query is cheap to
// build and holds no element state; every method re-queries the live page.
// Element-level operations (Click, Fill, IsVisible, Text) act on the bound
// index, which defaults to the first match.
type Query struct {
	browser  interfaces.Browser
	selector string
	index    int
}

func newQuery(browser interfaces.Browser, selector string) *Query {
	return &Query{browser: browser, selector: selector}
}

// Selector returns the CSS selector this query addresses
func (q *Query) Selector() string {
	return q.selector
}

// First binds the query to the first matching element
func (q *Query) First() *Query {
	return q.Nth(0)
}

// Nth binds the query to the index-th matching element
func (q *Query) Nth(index int) *Query {
	return &Query{browser: q.browser, selector: q.selector, index: index}
}

// Count returns the number of matching elements
func (q *Query) Count(ctx context.Context) (int, error) {
	return q.browser.Count(ctx, q.selector)
}

// IsPresent reports whether at least one element matches. Driver errors
// count as absent so the method can serve as a polling predicate.
func (q *Query) IsPresent(ctx context.Context) bool {
	count, err := q.browser.Count(ctx, q.selector)
	return err == nil && count > 0
}

// Texts returns the text of every matching element
func (q *Query) Texts(ctx context.Context) ([]string, error) {
	return q.browser.Texts(ctx, q.selector)
}

// Text returns the text of the bound element
func (q *Query) Text(ctx context.Context) (string, error) {
	texts, err := q.browser.Texts(ctx, q.selector)
	if err != nil {
		return "", err
	}
	if q.index >= len(texts) {
		return "", fmt.Errorf("no element at index %d for %q", q.index, q.selector)
	}
	return texts[q.index], nil
}

// Attrs returns the named attribute of every matching element
func (q *Query) Attrs(ctx context.Context, name string) ([]string, error) {
	return q.browser.Attrs(ctx, q.selector, name)
}

// HTML returns the inner HTML of every matching element
func (q *Query) HTML(ctx context.Context) ([]string, error) {
	return q.browser.HTML(ctx, q.selector)
}

// Click clicks the bound element
func (q *Query) Click(ctx context.Context) error {
	return q.browser.Click(ctx, q.selector, q.index)
}

// Fill replaces the value of the first matching element
func (q *Query) Fill(ctx context.Context, text string) error {
	return q.browser.Fill(ctx, q.selector, text)
}

// IsVisible reports whether the bound element is displayed. Driver errors
// count as invisible, matching IsPresent.
func (q *Query) IsVisible(ctx context.Context) bool {
	visible, err := q.browser.IsVisible(ctx, q.selector, q.index)
	return err == nil && visible
}

// IsSelected reports the checked/selected state of the first matching element
func (q *Query) IsSelected(ctx context.Context) (bool, error) {
	return q.browser.IsSelected(ctx, q.selector)
}

const describeScript = `Array.from(document.querySelectorAll(%q)).map(el => ({
	type: el.tagName.toLowerCase(),
	text: (el.textContent || '').trim(),
	attributes: Object.fromEntries(Array.from(el.attributes).map(a => [a.name, a.value])),
	is_visible: !!(el.offsetWidth || el.offsetHeight || el.getClientRects().length),
	is_selected: Boolean(el.selected || el.checked)
}))`

// Describe returns a structured snapshot of every matching element. Handy
// for failure logs when a selector matches something unexpected.
func (q *Query) Describe(ctx context.Context) ([]entities.ElementInfo, error) {
	result, err := q.browser.Evaluate(ctx, fmt.Sprintf(describeScript, q.selector))
	if err != nil {
		return nil, fmt.Errorf("failed to describe %q: %w", q.selector, err)
	}

	items, ok := result.([]any)
	if !ok {
		return nil, fmt.Errorf("unexpected describe result for %q: %T", q.selector, result)
	}

	infos := make([]entities.ElementInfo, 0, len(items))
	for _, raw := range items {
		m, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		info := entities.ElementInfo{Selector: q.selector}
		info.Type, _ = m["type"].(string)
		info.Text, _ = m["text"].(string)
		info.IsVisible, _ = m["is_visible"].(bool)
		info.IsSelected, _ = m["is_selected"].(bool)
		if attrs, ok := m["attributes"].(map[string]any); ok {
			info.Attributes = make(map[string]string, len(attrs))
			for name, value := range attrs {
				if s, ok := value.(string); ok {
					info.Attributes[name] = s
				}
			}
		}
		infos = append(infos, info)
	}
	return infos, nil
}
