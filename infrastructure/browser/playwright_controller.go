package browser

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"
	"github.com/sirupsen/logrus"

	"pagewright/domain/entities"
	"pagewright/domain/interfaces"
)

const (
	defaultNavigationTimeoutMS = 30000
	defaultActionTimeoutMS     = 5000
)

// PlaywrightOptions configure browser launch
type PlaywrightOptions struct {
	Headless bool
}

type playwrightController struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	context playwright.BrowserContext
	page    playwright.Page
	logger  *logrus.Logger

	mu            sync.Mutex
	pendingDialog *bool // nil: no dialog armed; true: accept; false: dismiss
	harEntries    []entities.HAREntry
}

// NewPlaywrightController - launches Chromium via Playwright and returns a driver
func NewPlaywrightController(logger *logrus.Logger, opts PlaywrightOptions) (interfaces.Browser, error) {
	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("failed to start playwright: %w", err)
	}

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(opts.Headless),
	})
	if err != nil {
		_ = pw.Stop()
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	browserContext, err := browser.NewContext()
	if err != nil {
		_ = browser.Close()
		_ = pw.Stop()
		return nil, fmt.Errorf("failed to create context: %w", err)
	}

	page, err := browserContext.NewPage()
	if err != nil {
		_ = browserContext.Close()
		_ = browser.Close()
		_ = pw.Stop()
		return nil, fmt.Errorf("failed to create page: %w", err)
	}
	page.SetDefaultTimeout(defaultActionTimeoutMS)
	page.SetDefaultNavigationTimeout(defaultNavigationTimeoutMS)

	controller := &playwrightController{
		pw:      pw,
		browser: browser,
		context: browserContext,
		page:    page,
		logger:  logger,
	}

	page.OnDialog(func(dialog playwright.Dialog) {
		controller.mu.Lock()
		pending := controller.pendingDialog
		controller.pendingDialog = nil
		controller.mu.Unlock()

		if pending != nil && *pending {
			if err := dialog.Accept(); err != nil {
				logger.WithError(err).Debug("failed to accept dialog")
			}
			return
		}
		if err := dialog.Dismiss(); err != nil {
			logger.WithError(err).Debug("failed to dismiss dialog")
		}
	})

	page.OnResponse(func(response playwright.Response) {
		controller.recordResponse(response)
	})

	return controller, nil
}

// Navigate - navigates to the specified URL
func (b *playwrightController) Navigate(ctx context.Context, rawURL string) error {
	_, err := b.page.Goto(rawURL, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   playwright.Float(defaultNavigationTimeoutMS),
	})
	if err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", rawURL, err)
	}
	return nil
}

// Reload - reloads the current page
func (b *playwrightController) Reload(ctx context.Context) error {
	_, err := b.page.Reload()
	if err != nil {
		return fmt.Errorf("failed to reload page: %w", err)
	}
	return nil
}

// Title - returns the current page title
func (b *playwrightController) Title(ctx context.Context) (string, error) {
	return b.page.Title()
}

// CurrentURL - returns the current page URL
func (b *playwrightController) CurrentURL(ctx context.Context) (string, error) {
	return b.page.URL(), nil
}

// Count - returns the number of elements matching the selector
func (b *playwrightController) Count(ctx context.Context, selector string) (int, error) {
	return b.page.Locator(selector).Count()
}

// Texts - returns the text content of all matching elements
func (b *playwrightController) Texts(ctx context.Context, selector string) ([]string, error) {
	texts, err := b.page.Locator(selector).AllTextContents()
	if err != nil {
		return nil, fmt.Errorf("failed to read text for %q: %w", selector, err)
	}
	for i, text := range texts {
		texts[i] = strings.TrimSpace(text)
	}
	return texts, nil
}

// Attrs - returns the named attribute of all matching elements
func (b *playwrightController) Attrs(ctx context.Context, selector, name string) ([]string, error) {
	locator := b.page.Locator(selector)
	count, err := locator.Count()
	if err != nil {
		return nil, err
	}

	values := make([]string, 0, count)
	for i := 0; i < count; i++ {
		value, err := locator.Nth(i).GetAttribute(name)
		if err != nil {
			return nil, fmt.Errorf("failed to read attribute %q for %q: %w", name, selector, err)
		}
		values = append(values, value)
	}
	return values, nil
}

// HTML - returns the inner HTML of all matching elements
func (b *playwrightController) HTML(ctx context.Context, selector string) ([]string, error) {
	locator := b.page.Locator(selector)
	count, err := locator.Count()
	if err != nil {
		return nil, err
	}

	fragments := make([]string, 0, count)
	for i := 0; i < count; i++ {
		html, err := locator.Nth(i).InnerHTML()
		if err != nil {
			return nil, fmt.Errorf("failed to read html for %q: %w", selector, err)
		}
		fragments = append(fragments, html)
	}
	return fragments, nil
}

// Click - clicks the index-th element matching the selector
func (b *playwrightController) Click(ctx context.Context, selector string, index int) error {
	if err := b.page.Locator(selector).Nth(index).Click(); err != nil {
		return fmt.Errorf("failed to click %q [%d]: %w", selector, index, err)
	}
	return nil
}

// Fill - replaces the value of the first element matching the selector
func (b *playwrightController) Fill(ctx context.Context, selector, text string) error {
	if err := b.page.Locator(selector).First().Fill(text); err != nil {
		return fmt.Errorf("failed to fill %q: %w", selector, err)
	}
	return nil
}

// IsVisible - reports whether the index-th matching element is displayed
func (b *playwrightController) IsVisible(ctx context.Context, selector string, index int) (bool, error) {
	return b.page.Locator(selector).Nth(index).IsVisible()
}

// IsSelected - reports the checked/selected state of the first matching element
func (b *playwrightController) IsSelected(ctx context.Context, selector string) (bool, error) {
	result, err := b.page.Locator(selector).First().Evaluate(
		"el => Boolean(el.selected || el.checked)", nil,
	)
	if err != nil {
		return false, fmt.Errorf("failed to read selected state for %q: %w", selector, err)
	}
	selected, ok := result.(bool)
	return ok && selected, nil
}

// Evaluate - runs a JavaScript expression in the page
func (b *playwrightController) Evaluate(ctx context.Context, script string) (any, error) {
	return b.page.Evaluate(script)
}

// AcceptNextDialog - arms acceptance of the next JavaScript dialog
func (b *playwrightController) AcceptNextDialog() {
	b.armDialog(true)
}

// DismissNextDialog - arms dismissal of the next JavaScript dialog
func (b *playwrightController) DismissNextDialog() {
	b.armDialog(false)
}

func (b *playwrightController) armDialog(accept bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pendingDialog = &accept
}

// Screenshot - writes a PNG screenshot of the current page to path
func (b *playwrightController) Screenshot(ctx context.Context, path string) error {
	_, err := b.page.Screenshot(playwright.PageScreenshotOptions{
		Path: playwright.String(path),
	})
	return err
}

// HAREntries - returns the request/response pairs captured so far
func (b *playwrightController) HAREntries() []entities.HAREntry {
	b.mu.Lock()
	defer b.mu.Unlock()

	entries := make([]entities.HAREntry, len(b.harEntries))
	copy(entries, b.harEntries)
	return entries
}

func (b *playwrightController) recordResponse(response playwright.Response) {
	request := response.Request()

	entry := entities.HAREntry{
		StartedDateTime: time.Now().UTC().Format(time.RFC3339Nano),
		Time:            -1,
		Request: entities.HARRequest{
			Method:      request.Method(),
			URL:         request.URL(),
			HTTPVersion: "HTTP/1.1",
			Headers:     headerSlice(requestHeaders(request)),
			QueryString: parseQueryString(request.URL()),
			HeadersSize: -1,
			BodySize:    -1,
		},
		Response: entities.HARResponse{
			Status:      response.Status(),
			StatusText:  response.StatusText(),
			HTTPVersion: "HTTP/1.1",
			Headers:     headerSlice(responseHeaders(response)),
			Content: entities.HARContent{
				Size:     -1,
				MimeType: responseHeaders(response)["content-type"],
			},
			HeadersSize: -1,
			BodySize:    -1,
		},
		Timings: entities.HARTimings{Send: -1, Wait: -1, Receive: -1},
	}

	b.mu.Lock()
	b.harEntries = append(b.harEntries, entry)
	b.mu.Unlock()
}

func requestHeaders(request playwright.Request) map[string]string {
	headers, err := request.AllHeaders()
	if err != nil {
		return map[string]string{}
	}
	return headers
}

func responseHeaders(response playwright.Response) map[string]string {
	headers, err := response.AllHeaders()
	if err != nil {
		return map[string]string{}
	}
	return headers
}

func headerSlice(headers map[string]string) []entities.HARHeader {
	names := make([]string, 0, len(headers))
	for name := range headers {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]entities.HARHeader, 0, len(names))
	for _, name := range names {
		out = append(out, entities.HARHeader{Name: name, Value: headers[name]})
	}
	return out
}

func parseQueryString(rawURL string) []entities.HARQuery {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return []entities.HARQuery{}
	}

	out := []entities.HARQuery{}
	for name, values := range parsed.Query() {
		for _, value := range values {
			out = append(out, entities.HARQuery{Name: name, Value: value})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Close - closes the browser and stops the driver
func (b *playwrightController) Close() error {
	var closeErr error

	if b.context != nil {
		if err := b.context.Close(); err != nil && !isClosedErr(err) {
			closeErr = fmt.Errorf("failed to close context: %w", err)
		}
		b.context = nil
	}

	if b.browser != nil {
		if err := b.browser.Close(); err != nil && !isClosedErr(err) {
			if closeErr != nil {
				closeErr = fmt.Errorf("%v; failed to close browser: %w", closeErr, err)
			} else {
				closeErr = fmt.Errorf("failed to close browser: %w", err)
			}
		}
		b.browser = nil
	}

	if b.pw != nil {
		if err := b.pw.Stop(); err != nil && !isClosedErr(err) {
			if closeErr != nil {
				closeErr = fmt.Errorf("%v; failed to stop playwright: %w", closeErr, err)
			} else {
				closeErr = fmt.Errorf("failed to stop playwright: %w", err)
			}
		}
		b.pw = nil
	}

	return closeErr
}

// isClosedErr - teardown races with the browser process going away; those
// errors are not actionable
func isClosedErr(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "closed") || strings.Contains(msg, "target closed")
}
