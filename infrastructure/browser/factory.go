package browser

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"pagewright/domain/interfaces"
)

// Environment variables consumed at launch:
//
//	BROWSER        driver to use: "playwright" (default) or "chromedp"
//	HEADLESS       headed run when set to "false"
//	SCREENSHOT_DIR directory for failure screenshots, CWD when unset
const (
	DriverPlaywright = "playwright"
	DriverChromedp   = "chromedp"
)

// Launch - starts the driver named by the BROWSER environment variable
func Launch(logger *logrus.Logger) (interfaces.Browser, error) {
	headless := os.Getenv("HEADLESS") != "false"

	driver := strings.ToLower(strings.TrimSpace(os.Getenv("BROWSER")))
	switch driver {
	case "", DriverPlaywright:
		logger.WithField("driver", DriverPlaywright).Debug("launching browser")
		return NewPlaywrightController(logger, PlaywrightOptions{Headless: headless})
	case DriverChromedp:
		logger.WithField("driver", DriverChromedp).Debug("launching browser")
		return NewChromedpController(logger, ChromedpOptions{Headless: headless})
	default:
		return nil, fmt.Errorf("unknown BROWSER value %q (want %q or %q)", driver, DriverPlaywright, DriverChromedp)
	}
}

// SaveScreenshot - writes a screenshot named after the test id under
// SCREENSHOT_DIR. Capture is best-effort: failures are logged and swallowed
// so a broken screenshot never masks the original test failure.
func SaveScreenshot(logger *logrus.Logger, b interfaces.Browser, name string) {
	path := filepath.Join(os.Getenv("SCREENSHOT_DIR"), SanitizeName(name)+".png")
	if err := b.Screenshot(context.Background(), path); err != nil {
		logger.WithError(err).WithField("path", path).Debug("failed to save screenshot")
	}
}

// SanitizeName - makes a test id safe to use as a file name
func SanitizeName(name string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|', ' ':
			return '_'
		}
		return r
	}, name)
}
