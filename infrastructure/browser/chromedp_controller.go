package browser

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/sirupsen/logrus"

	"pagewright/domain/interfaces"
)

// ChromedpOptions configure the CDP-backed driver
type ChromedpOptions struct {
	Headless bool
}

type chromedpController struct {
	ctx         context.Context
	cancelAlloc context.CancelFunc
	cancelCtx   context.CancelFunc
	logger      *logrus.Logger

	mu            sync.Mutex
	pendingDialog *bool
}

// NewChromedpController - starts a Chrome instance over the DevTools protocol.
// This driver does not record network traffic; tests needing HAR capture use
// the playwright driver.
func NewChromedpController(logger *logrus.Logger, opts ChromedpOptions) (interfaces.Browser, error) {
	allocOpts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	if !opts.Headless {
		allocOpts = append(allocOpts, chromedp.Flag("headless", false))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), allocOpts...)
	ctx, cancelCtx := chromedp.NewContext(allocCtx)

	controller := &chromedpController{
		ctx:         ctx,
		cancelAlloc: cancelAlloc,
		cancelCtx:   cancelCtx,
		logger:      logger,
	}

	// Answer JavaScript dialogs as soon as they open; an unarmed dialog is
	// dismissed so the page never hangs on a stray alert
	chromedp.ListenTarget(ctx, func(ev any) {
		if _, ok := ev.(*page.EventJavascriptDialogOpening); !ok {
			return
		}
		accept := controller.takeDialogDecision()
		go func() {
			if err := chromedp.Run(ctx, page.HandleJavaScriptDialog(accept)); err != nil {
				logger.WithError(err).Debug("failed to handle javascript dialog")
			}
		}()
	})

	// Launch the browser process now so a missing Chrome binary surfaces here
	if err := chromedp.Run(ctx); err != nil {
		cancelCtx()
		cancelAlloc()
		return nil, fmt.Errorf("failed to start chrome: %w", err)
	}

	return controller, nil
}

func (b *chromedpController) takeDialogDecision() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.pendingDialog == nil {
		return false
	}
	accept := *b.pendingDialog
	b.pendingDialog = nil
	return accept
}

// Navigate - navigates to the specified URL
func (b *chromedpController) Navigate(ctx context.Context, url string) error {
	err := chromedp.Run(b.ctx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
	if err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	return nil
}

// Reload - reloads the current page
func (b *chromedpController) Reload(ctx context.Context) error {
	if err := chromedp.Run(b.ctx, chromedp.Reload()); err != nil {
		return fmt.Errorf("failed to reload page: %w", err)
	}
	return nil
}

// Title - returns the current page title
func (b *chromedpController) Title(ctx context.Context) (string, error) {
	var title string
	if err := chromedp.Run(b.ctx, chromedp.Title(&title)); err != nil {
		return "", err
	}
	return title, nil
}

// CurrentURL - returns the current page URL
func (b *chromedpController) CurrentURL(ctx context.Context) (string, error) {
	var location string
	if err := chromedp.Run(b.ctx, chromedp.Location(&location)); err != nil {
		return "", err
	}
	return location, nil
}

// Count - returns the number of elements matching the selector
func (b *chromedpController) Count(ctx context.Context, selector string) (int, error) {
	var count int
	script := fmt.Sprintf("document.querySelectorAll(%q).length", selector)
	if err := chromedp.Run(b.ctx, chromedp.Evaluate(script, &count)); err != nil {
		return 0, fmt.Errorf("failed to count %q: %w", selector, err)
	}
	return count, nil
}

// Texts - returns the text content of all matching elements
func (b *chromedpController) Texts(ctx context.Context, selector string) ([]string, error) {
	var texts []string
	script := fmt.Sprintf(
		"Array.from(document.querySelectorAll(%q)).map(el => (el.textContent || '').trim())",
		selector,
	)
	if err := chromedp.Run(b.ctx, chromedp.Evaluate(script, &texts)); err != nil {
		return nil, fmt.Errorf("failed to read text for %q: %w", selector, err)
	}
	return texts, nil
}

// Attrs - returns the named attribute of all matching elements
func (b *chromedpController) Attrs(ctx context.Context, selector, name string) ([]string, error) {
	var values []string
	script := fmt.Sprintf(
		"Array.from(document.querySelectorAll(%q)).map(el => el.getAttribute(%q) || '')",
		selector, name,
	)
	if err := chromedp.Run(b.ctx, chromedp.Evaluate(script, &values)); err != nil {
		return nil, fmt.Errorf("failed to read attribute %q for %q: %w", name, selector, err)
	}
	return values, nil
}

// HTML - returns the inner HTML of all matching elements
func (b *chromedpController) HTML(ctx context.Context, selector string) ([]string, error) {
	var fragments []string
	script := fmt.Sprintf(
		"Array.from(document.querySelectorAll(%q)).map(el => el.innerHTML)",
		selector,
	)
	if err := chromedp.Run(b.ctx, chromedp.Evaluate(script, &fragments)); err != nil {
		return nil, fmt.Errorf("failed to read html for %q: %w", selector, err)
	}
	return fragments, nil
}

// Click - clicks the index-th element matching the selector
func (b *chromedpController) Click(ctx context.Context, selector string, index int) error {
	if index == 0 {
		if err := chromedp.Run(b.ctx, chromedp.Click(selector, chromedp.ByQuery)); err != nil {
			return fmt.Errorf("failed to click %q: %w", selector, err)
		}
		return nil
	}

	script := fmt.Sprintf("document.querySelectorAll(%q)[%d].click()", selector, index)
	if err := chromedp.Run(b.ctx, chromedp.Evaluate(script, nil)); err != nil {
		return fmt.Errorf("failed to click %q [%d]: %w", selector, index, err)
	}
	return nil
}

// Fill - replaces the value of the first element matching the selector
func (b *chromedpController) Fill(ctx context.Context, selector, text string) error {
	err := chromedp.Run(b.ctx,
		chromedp.SetValue(selector, "", chromedp.ByQuery),
		chromedp.SendKeys(selector, text, chromedp.ByQuery),
	)
	if err != nil {
		return fmt.Errorf("failed to fill %q: %w", selector, err)
	}
	return nil
}

// IsVisible - reports whether the index-th matching element is displayed
func (b *chromedpController) IsVisible(ctx context.Context, selector string, index int) (bool, error) {
	var visible bool
	script := fmt.Sprintf(`(() => {
		const els = document.querySelectorAll(%q);
		if (els.length <= %d) return false;
		const el = els[%d];
		const style = window.getComputedStyle(el);
		return style.display !== 'none' && style.visibility !== 'hidden' && el.getClientRects().length > 0;
	})()`, selector, index, index)
	if err := chromedp.Run(b.ctx, chromedp.Evaluate(script, &visible)); err != nil {
		return false, fmt.Errorf("failed to check visibility for %q: %w", selector, err)
	}
	return visible, nil
}

// IsSelected - reports the checked/selected state of the first matching element
func (b *chromedpController) IsSelected(ctx context.Context, selector string) (bool, error) {
	var selected bool
	script := fmt.Sprintf(`(() => {
		const el = document.querySelector(%q);
		return el ? Boolean(el.selected || el.checked) : false;
	})()`, selector)
	if err := chromedp.Run(b.ctx, chromedp.Evaluate(script, &selected)); err != nil {
		return false, fmt.Errorf("failed to read selected state for %q: %w", selector, err)
	}
	return selected, nil
}

// Evaluate - runs a JavaScript expression in the page
func (b *chromedpController) Evaluate(ctx context.Context, script string) (any, error) {
	var result any
	if err := chromedp.Run(b.ctx, chromedp.Evaluate(script, &result)); err != nil {
		return nil, fmt.Errorf("failed to evaluate script: %w", err)
	}
	return result, nil
}

// AcceptNextDialog - arms acceptance of the next JavaScript dialog
func (b *chromedpController) AcceptNextDialog() {
	b.armDialog(true)
}

// DismissNextDialog - arms dismissal of the next JavaScript dialog
func (b *chromedpController) DismissNextDialog() {
	b.armDialog(false)
}

func (b *chromedpController) armDialog(accept bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pendingDialog = &accept
}

// Screenshot - writes a PNG screenshot of the current page to path
func (b *chromedpController) Screenshot(ctx context.Context, path string) error {
	var buf []byte
	if err := chromedp.Run(b.ctx, chromedp.CaptureScreenshot(&buf)); err != nil {
		return fmt.Errorf("failed to capture screenshot: %w", err)
	}
	return os.WriteFile(path, buf, 0644)
}

// Close - shuts down the browser process
func (b *chromedpController) Close() error {
	err := chromedp.Cancel(b.ctx)
	b.cancelCtx()
	b.cancelAlloc()
	if err != nil && !isClosedErr(err) {
		return fmt.Errorf("failed to close chrome: %w", err)
	}
	return nil
}
