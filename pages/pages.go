// Package pages models the fixture site's interactive surface as page
// objects. Each type exposes intention-revealing methods wrapping element
// queries and clicks; none holds state beyond its name and driver handle.
package pages

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"pagewright/application/pageobject"
	"pagewright/domain/interfaces"
	"pagewright/domain/promise"
)

// SitePage is the base for all pages in the fixture site. Pages live at
// <base>/<name>.html and are recognized by their name appearing in the title.
type SitePage struct {
	*pageobject.Object
	baseURL string
	name    string
	self    pageobject.Page
}

func newSitePage(b interfaces.Browser, logger *logrus.Logger, baseURL, name string) SitePage {
	return SitePage{
		Object:  pageobject.NewObject(b, logger),
		baseURL: strings.TrimSuffix(baseURL, "/"),
		name:    name,
	}
}

// Name identifies the page
func (p *SitePage) Name() string { return p.name }

// URL is the page address on the fixture site
func (p *SitePage) URL() string {
	return fmt.Sprintf("%s/%s.html", p.baseURL, p.name)
}

// IsBrowserOnPage reports whether the page name appears in the title
func (p *SitePage) IsBrowserOnPage(ctx context.Context) bool {
	title, err := p.Browser.Title(ctx)
	if err != nil {
		return false
	}
	fragment := strings.ReplaceAll(p.name, "_", " ")
	return strings.Contains(strings.ToLower(title), fragment)
}

// Visit navigates to the page and waits until the browser is on it
func (p *SitePage) Visit(ctx context.Context) error {
	return p.Object.Visit(ctx, p.self)
}

// Output returns the contents of the "#output" div. The fixtures update
// this div when the user interacts with the page. An absent div reads as
// the empty string.
func (p *SitePage) Output(ctx context.Context) (string, error) {
	texts, err := p.Q("#output").Texts(ctx)
	if err != nil {
		return "", err
	}
	if len(texts) == 0 {
		return "", nil
	}
	return texts[0], nil
}

// ButtonPage tests button interactions
type ButtonPage struct{ SitePage }

// NewButtonPage - page object for button.html
func NewButtonPage(b interfaces.Browser, logger *logrus.Logger, baseURL string) *ButtonPage {
	p := &ButtonPage{newSitePage(b, logger, baseURL, "button")}
	p.self = p
	return p
}

// ClickButton clicks the button, which updates the #output div
func (p *ButtonPage) ClickButton(ctx context.Context) error {
	return p.Q("div#fixture input").First().Click(ctx)
}

// TextFieldPage tests text field interactions
type TextFieldPage struct{ SitePage }

// NewTextFieldPage - page object for text_field.html
func NewTextFieldPage(b interfaces.Browser, logger *logrus.Logger, baseURL string) *TextFieldPage {
	p := &TextFieldPage{newSitePage(b, logger, baseURL, "text_field")}
	p.self = p
	return p
}

// EnterText inputs text into the text field
func (p *TextFieldPage) EnterText(ctx context.Context, text string) error {
	return p.Q("#fixture input").Fill(ctx, text)
}

// SelectPage tests select input interactions
type SelectPage struct{ SitePage }

// NewSelectPage - page object for select.html
func NewSelectPage(b interfaces.Browser, logger *logrus.Logger, baseURL string) *SelectPage {
	p := &SelectPage{newSitePage(b, logger, baseURL, "select")}
	p.self = p
	return p
}

// SelectCar selects the car with the given value in the drop-down list
func (p *SelectPage) SelectCar(ctx context.Context, value string) error {
	script := fmt.Sprintf(`(() => {
		const sel = document.querySelector('select[name="cars"]');
		if (!sel) return false;
		sel.value = %q;
		sel.dispatchEvent(new Event('change', { bubbles: true }));
		return true;
	})()`, value)

	result, err := p.Browser.Evaluate(ctx, script)
	if err != nil {
		return fmt.Errorf("failed to select car %q: %w", value, err)
	}
	if ok, _ := result.(bool); !ok {
		return fmt.Errorf("cars select not found on page")
	}
	return nil
}

// IsCarSelected reports whether the car with the given value is selected
func (p *SelectPage) IsCarSelected(ctx context.Context, value string) (bool, error) {
	selector := fmt.Sprintf(`select[name="cars"] option[value=%q]`, value)
	return p.Q(selector).IsSelected(ctx)
}

// CheckboxPage tests checkbox interactions
type CheckboxPage struct{ SitePage }

// NewCheckboxPage - page object for checkbox.html
func NewCheckboxPage(b interfaces.Browser, logger *logrus.Logger, baseURL string) *CheckboxPage {
	p := &CheckboxPage{newSitePage(b, logger, baseURL, "checkbox")}
	p.self = p
	return p
}

// TogglePill toggles the box for the pill with the given name (red or blue)
func (p *CheckboxPage) TogglePill(ctx context.Context, pill string) error {
	return p.Q(fmt.Sprintf("#fixture input#%s", pill)).First().Click(ctx)
}

// AlertPage tests JavaScript dialog handling
type AlertPage struct{ SitePage }

// NewAlertPage - page object for alert.html
func NewAlertPage(b interfaces.Browser, logger *logrus.Logger, baseURL string) *AlertPage {
	p := &AlertPage{newSitePage(b, logger, baseURL, "alert")}
	p.self = p
	return p
}

// Confirm accepts the confirmation dialog
func (p *AlertPage) Confirm(ctx context.Context) error {
	return p.WithAlert(ctx, true, func() error {
		return p.Q("button#confirm").First().Click(ctx)
	})
}

// Cancel dismisses the confirmation dialog
func (p *AlertPage) Cancel(ctx context.Context) error {
	return p.WithAlert(ctx, false, func() error {
		return p.Q("button#confirm").First().Click(ctx)
	})
}

// Dismiss acknowledges the plain alert dialog
func (p *AlertPage) Dismiss(ctx context.Context) error {
	return p.WithAlert(ctx, true, func() error {
		return p.Q("button#alert").First().Click(ctx)
	})
}

// SelectorPage tests retrieval of information by CSS selectors
type SelectorPage struct{ SitePage }

// NewSelectorPage - page object for selector.html
func NewSelectorPage(b interfaces.Browser, logger *logrus.Logger, baseURL string) *SelectorPage {
	p := &SelectorPage{newSitePage(b, logger, baseURL, "selector")}
	p.self = p
	return p
}

// NumDivs counts the div.test elements
func (p *SelectorPage) NumDivs(ctx context.Context) (int, error) {
	return p.Q("div.test").Count(ctx)
}

// DivTexts returns the text of each div.test element
func (p *SelectorPage) DivTexts(ctx context.Context) ([]string, error) {
	return p.Q("div.test").Texts(ctx)
}

// DivValues returns the value attribute of each div.test element
func (p *SelectorPage) DivValues(ctx context.Context) ([]string, error) {
	return p.Q("div.test").Attrs(ctx, "value")
}

// DivHTML returns the inner HTML of each div.test element
func (p *SelectorPage) DivHTML(ctx context.Context) ([]string, error) {
	return p.Q("div.test").HTML(ctx)
}

// SecondInner returns the text of the first inner div nested under #o2
func (p *SelectorPage) SecondInner(ctx context.Context) (string, error) {
	return p.Q("#o2 div.inner").First().Text(ctx)
}

// DelayPage tests elements that appear after a delay
type DelayPage struct{ SitePage }

// NewDelayPage - page object for delay.html
func NewDelayPage(b interfaces.Browser, logger *logrus.Logger, baseURL string) *DelayPage {
	p := &DelayPage{newSitePage(b, logger, baseURL, "delay")}
	p.self = p
	return p
}

// TriggerOutput waits for click handlers to install, clicks the button, and
// waits for the delayed output to appear
func (p *DelayPage) TriggerOutput(ctx context.Context) error {
	if err := p.WaitForPresence(ctx, "div#ready", "click ready"); err != nil {
		return err
	}
	if err := p.Q("div#fixture button").First().Click(ctx); err != nil {
		return err
	}
	return p.WaitForPresence(ctx, "div#output", "output available")
}

// MakeBrokenPromise waits on an element that never appears; it always
// returns a BrokenPromise error
func (p *DelayPage) MakeBrokenPromise(ctx context.Context) error {
	return p.WaitForPresence(ctx, "div#not_present", "invalid div appeared",
		promise.WithTryLimit(3), promise.WithTryInterval(10*time.Millisecond))
}

// SlowPage loads its elements slowly; it counts as loaded only once its
// readiness marker exists
type SlowPage struct{ SitePage }

// NewSlowPage - page object for slow.html
func NewSlowPage(b interfaces.Browser, logger *logrus.Logger, baseURL string) *SlowPage {
	p := &SlowPage{newSitePage(b, logger, baseURL, "slow")}
	p.self = p
	return p
}

// IsBrowserOnPage waits on the readiness marker rather than the title
func (p *SlowPage) IsBrowserOnPage(ctx context.Context) bool {
	return p.Q("div#ready").IsPresent(ctx)
}

// NextPage loads another page after a delay
type NextPage struct{ SitePage }

// NewNextPage - page object for next_page.html
func NewNextPage(b interfaces.Browser, logger *logrus.Logger, baseURL string) *NextPage {
	p := &NextPage{newSitePage(b, logger, baseURL, "next_page")}
	p.self = p
	return p
}

// IsBrowserOnPage recognizes the page by its #next marker
func (p *NextPage) IsBrowserOnPage(ctx context.Context) bool {
	return p.Q("#next").IsPresent(ctx)
}

// Visitable is any page that can be navigated to
type Visitable interface {
	Visit(ctx context.Context) error
}

// LoadNext visits the given page after waiting for the delay
func (p *NextPage) LoadNext(ctx context.Context, next Visitable, delay time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(delay):
	}
	return next.Visit(ctx)
}

// VisiblePage has some elements visible and others invisible
type VisiblePage struct{ SitePage }

// NewVisiblePage - page object for visible.html
func NewVisiblePage(b interfaces.Browser, logger *logrus.Logger, baseURL string) *VisiblePage {
	p := &VisiblePage{newSitePage(b, logger, baseURL, "visible")}
	p.self = p
	return p
}

// IsVisible reports whether the item with the given class is displayed
func (p *VisiblePage) IsVisible(ctx context.Context, name string) bool {
	return p.Q("div."+name).First().IsVisible(ctx)
}

// JavaScriptPage tests interaction gated on asynchronously defined globals
type JavaScriptPage struct{ SitePage }

// NewJavaScriptPage - page object for javascript.html
func NewJavaScriptPage(b interfaces.Browser, logger *logrus.Logger, baseURL string) *JavaScriptPage {
	p := &JavaScriptPage{newSitePage(b, logger, baseURL, "javascript")}
	p.self = p
	return p
}

// JSVars names the globals the page defines asynchronously
func (p *JavaScriptPage) JSVars() []string {
	return []string{"test_var1", "test_var2"}
}

// TriggerOutput clicks the button once the delayed globals are defined
func (p *JavaScriptPage) TriggerOutput(ctx context.Context) error {
	if err := p.WaitForJS(ctx, p); err != nil {
		return err
	}
	return p.Q("div#fixture button").First().Click(ctx)
}

// ReloadAndTriggerOutput reloads the page, waits for the globals again,
// then triggers the output
func (p *JavaScriptPage) ReloadAndTriggerOutput(ctx context.Context) error {
	if err := p.Browser.Reload(ctx); err != nil {
		return err
	}
	return p.TriggerOutput(ctx)
}

// RequireJSPage tests content loaded through RequireJS-style modules
type RequireJSPage struct{ SitePage }

// NewRequireJSPage - page object for requirejs.html
func NewRequireJSPage(b interfaces.Browser, logger *logrus.Logger, baseURL string) *RequireJSPage {
	p := &RequireJSPage{newSitePage(b, logger, baseURL, "requirejs")}
	p.self = p
	return p
}

// RequireModules names the modules that must be loaded before reading output
func (p *RequireJSPage) RequireModules() []string {
	return []string{"main"}
}

// Output waits for the module load before reading the output div
func (p *RequireJSPage) Output(ctx context.Context) (string, error) {
	if err := p.WaitForJS(ctx, p); err != nil {
		return "", err
	}
	return p.SitePage.Output(ctx)
}

// AjaxPage tests an ajax call updating the page
type AjaxPage struct{ SitePage }

// NewAjaxPage - page object for ajax.html
func NewAjaxPage(b interfaces.Browser, logger *logrus.Logger, baseURL string) *AjaxPage {
	p := &AjaxPage{newSitePage(b, logger, baseURL, "ajax")}
	p.self = p
	return p
}

// ClickButton clicks the button that triggers the ajax call updating #output
func (p *AjaxPage) ClickButton(ctx context.Context) error {
	return p.Q("div#fixture button").First().Click(ctx)
}

// WaitsPage tests the wait helpers
type WaitsPage struct{ SitePage }

// NewWaitsPage - page object for wait.html
func NewWaitsPage(b interfaces.Browser, logger *logrus.Logger, baseURL string) *WaitsPage {
	p := &WaitsPage{newSitePage(b, logger, baseURL, "wait")}
	p.self = p
	return p
}

// TriggerButtonOutputPresence clicks the button and waits until the output
// div exists in the DOM
func (p *WaitsPage) TriggerButtonOutputPresence(ctx context.Context) error {
	if err := p.WaitForPresence(ctx, "div#ready", "page is ready"); err != nil {
		return err
	}
	if err := p.Q("div#fixture button").First().Click(ctx); err != nil {
		return err
	}
	return p.WaitForPresence(ctx, "div#output", "button output is available")
}

// StopAnimationAndWaitForClassAbsence clicks the spinner control and waits
// until the playing class leaves the DOM
func (p *WaitsPage) StopAnimationAndWaitForClassAbsence(ctx context.Context) error {
	if err := p.Q("#spinner").First().Click(ctx); err != nil {
		return err
	}
	return p.WaitForAbsence(ctx, ".playing", "animation stopped")
}

// TriggerButtonOutputVisibility clicks the button and waits until the output
// div is displayed
func (p *WaitsPage) TriggerButtonOutputVisibility(ctx context.Context) error {
	if err := p.WaitForPresence(ctx, "div#ready", "page is ready"); err != nil {
		return err
	}
	if err := p.Q("div#fixture button").First().Click(ctx); err != nil {
		return err
	}
	return p.WaitForVisibility(ctx, "div#output", "button output is visible")
}

// StopAnimationAndWaitForInvisibility clicks the spinner control and waits
// until the animation element is hidden
func (p *WaitsPage) StopAnimationAndWaitForInvisibility(ctx context.Context) error {
	if err := p.Q("#spinner").First().Click(ctx); err != nil {
		return err
	}
	return p.WaitForInvisibility(ctx, "#anim", "animation hidden")
}
