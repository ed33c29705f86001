package interfaces

import (
	"context"

	"pagewright/domain/entities"
)

// Browser defines the driver abstraction for page objects.
// Implementations wrap a concrete automation backend; all querying methods
// address elements by CSS selector.
type Browser interface {
	// Navigate navigates to a URL and waits for the document to load
	Navigate(ctx context.Context, url string) error

	// Reload reloads the current page
	Reload(ctx context.Context) error

	// Title returns the current page title
	Title(ctx context.Context) (string, error)

	// CurrentURL returns the current page URL
	CurrentURL(ctx context.Context) (string, error)

	// Count returns the number of elements matching the selector
	Count(ctx context.Context, selector string) (int, error)

	// Texts returns the visible text of every element matching the selector
	Texts(ctx context.Context, selector string) ([]string, error)

	// Attrs returns the named attribute of every element matching the selector
	Attrs(ctx context.Context, selector, name string) ([]string, error)

	// HTML returns the inner HTML of every element matching the selector
	HTML(ctx context.Context, selector string) ([]string, error)

	// Click clicks the index-th element matching the selector
	Click(ctx context.Context, selector string, index int) error

	// Fill replaces the value of the first element matching the selector
	Fill(ctx context.Context, selector, text string) error

	// IsVisible reports whether the index-th matching element is displayed
	IsVisible(ctx context.Context, selector string, index int) (bool, error)

	// IsSelected reports the checked/selected state of the first matching element
	IsSelected(ctx context.Context, selector string) (bool, error)

	// Evaluate runs a JavaScript expression in the page and returns its value
	Evaluate(ctx context.Context, script string) (any, error)

	// AcceptNextDialog accepts the next JavaScript dialog the page opens
	AcceptNextDialog()

	// DismissNextDialog dismisses the next JavaScript dialog the page opens
	DismissNextDialog()

	// Screenshot writes a PNG screenshot of the current page to path
	Screenshot(ctx context.Context, path string) error

	// Close shuts down the browser and releases driver resources
	Close() error
}

// NetworkRecorder is implemented by drivers that capture network traffic.
// Drivers without capture support simply do not implement it.
type NetworkRecorder interface {
	// HAREntries returns the request/response pairs captured so far
	HAREntries() []entities.HAREntry
}
