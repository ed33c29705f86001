package entities

// ElementInfo describes a single element matched on the page
type ElementInfo struct {
	Type       string            `json:"type"`        // button, link, input, select, etc.
	Selector   string            `json:"selector"`    // CSS selector that matched
	Text       string            `json:"text"`        // visible text
	Attributes map[string]string `json:"attributes"`  // HTML attributes
	IsVisible  bool              `json:"is_visible"`  // rendered and displayed
	IsSelected bool              `json:"is_selected"` // checked/selected state for form controls
}
