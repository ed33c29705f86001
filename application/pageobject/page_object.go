// Package pageobject provides the base for page objects: intention-revealing
// wrappers over a browser driver's query, click and type primitives, with
// bounded-polling helpers for content that appears asynchronously.
package pageobject

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"pagewright/domain/interfaces"
	"pagewright/domain/promise"
)

// Page models one web page's identity: where it lives and how to recognize
// that the browser has landed on it.
type Page interface {
	// Name identifies the page in logs and errors
	Name() string

	// URL is the address Visit navigates to
	URL() string

	// IsBrowserOnPage reports whether the browser currently shows this page
	IsBrowserOnPage(ctx context.Context) bool
}

// Object is the base every page object embeds. It carries the driver handle
// and exposes the query and wait surface.
type Object struct {
	Browser interfaces.Browser
	Logger  *logrus.Logger
}

// NewObject - creates a page-object base around a driver
func NewObject(browser interfaces.Browser, logger *logrus.Logger) *Object {
	if logger == nil {
		logger = logrus.New()
	}
	return &Object{Browser: browser, Logger: logger}
}

// Q returns a query for the elements matching the CSS selector
func (o *Object) Q(selector string) *Query {
	return newQuery(o.Browser, selector)
}

// Visit navigates to the page and waits until the browser is on it
func (o *Object) Visit(ctx context.Context, p Page) error {
	o.Logger.WithFields(logrus.Fields{"page": p.Name(), "url": p.URL()}).Debug("visiting page")

	if err := o.Browser.Navigate(ctx, p.URL()); err != nil {
		return fmt.Errorf("failed to visit %s: %w", p.Name(), err)
	}
	return o.WaitForPage(ctx, p)
}

// WaitForPage polls until IsBrowserOnPage reports true, then waits for any
// JavaScript readiness the page declares
func (o *Object) WaitForPage(ctx context.Context, p Page) error {
	err := promise.NewEmpty(
		p.IsBrowserOnPage,
		fmt.Sprintf("browser is on the %s page", p.Name()),
	).Fulfill(ctx)
	if err != nil {
		return err
	}
	return o.WaitForJS(ctx, p)
}

// WaitForPresence polls until the selector matches at least one element
func (o *Object) WaitForPresence(ctx context.Context, selector, description string, opts ...promise.Option) error {
	q := o.Q(selector)
	return promise.NewEmpty(q.IsPresent, description, opts...).Fulfill(ctx)
}

// WaitForAbsence polls until the selector matches nothing
func (o *Object) WaitForAbsence(ctx context.Context, selector, description string, opts ...promise.Option) error {
	q := o.Q(selector)
	check := func(ctx context.Context) bool { return !q.IsPresent(ctx) }
	return promise.NewEmpty(check, description, opts...).Fulfill(ctx)
}

// WaitForVisibility polls until the first matching element is displayed
func (o *Object) WaitForVisibility(ctx context.Context, selector, description string, opts ...promise.Option) error {
	q := o.Q(selector).First()
	return promise.NewEmpty(q.IsVisible, description, opts...).Fulfill(ctx)
}

// WaitForInvisibility polls until the first matching element is hidden or gone
func (o *Object) WaitForInvisibility(ctx context.Context, selector, description string, opts ...promise.Option) error {
	q := o.Q(selector).First()
	check := func(ctx context.Context) bool { return !q.IsVisible(ctx) }
	return promise.NewEmpty(check, description, opts...).Fulfill(ctx)
}

// WithAlert arms handling of the next JavaScript dialog, then runs the
// action that triggers it. accept confirms the dialog; false dismisses it.
func (o *Object) WithAlert(ctx context.Context, accept bool, action func() error) error {
	if accept {
		o.Browser.AcceptNextDialog()
	} else {
		o.Browser.DismissNextDialog()
	}
	return action()
}
