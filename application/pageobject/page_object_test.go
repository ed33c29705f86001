package pageobject

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pagewright/domain/promise"
)

// fakeBrowser is an in-memory driver: selectors map to canned elements and
// scripts map to canned results. Tests mutate it to simulate page activity.
type fakeBrowser struct {
	mu          sync.Mutex
	title       string
	currentURL  string
	elements    map[string][]fakeElement
	evalResults map[string]any
	dialogMode  string // "", "accept", "dismiss"
	clicked     []string
	filled      map[string]string
	reloads     int
}

type fakeElement struct {
	text     string
	html     string
	attrs    map[string]string
	visible  bool
	selected bool
}

func newFakeBrowser() *fakeBrowser {
	return &fakeBrowser{
		elements:    map[string][]fakeElement{},
		evalResults: map[string]any{},
		filled:      map[string]string{},
	}
}

func (f *fakeBrowser) setElements(selector string, els ...fakeElement) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(els) == 0 {
		delete(f.elements, selector)
		return
	}
	f.elements[selector] = els
}

func (f *fakeBrowser) Navigate(ctx context.Context, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.currentURL = url
	return nil
}

func (f *fakeBrowser) Reload(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reloads++
	return nil
}

func (f *fakeBrowser) Title(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.title, nil
}

func (f *fakeBrowser) CurrentURL(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.currentURL, nil
}

func (f *fakeBrowser) Count(ctx context.Context, selector string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.elements[selector]), nil
}

func (f *fakeBrowser) Texts(ctx context.Context, selector string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []string{}
	for _, el := range f.elements[selector] {
		out = append(out, el.text)
	}
	return out, nil
}

func (f *fakeBrowser) Attrs(ctx context.Context, selector, name string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []string{}
	for _, el := range f.elements[selector] {
		out = append(out, el.attrs[name])
	}
	return out, nil
}

func (f *fakeBrowser) HTML(ctx context.Context, selector string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []string{}
	for _, el := range f.elements[selector] {
		out = append(out, el.html)
	}
	return out, nil
}

func (f *fakeBrowser) Click(ctx context.Context, selector string, index int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if index >= len(f.elements[selector]) {
		return fmt.Errorf("no element at index %d for %q", index, selector)
	}
	f.clicked = append(f.clicked, fmt.Sprintf("%s[%d]", selector, index))
	return nil
}

func (f *fakeBrowser) Fill(ctx context.Context, selector, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.filled[selector] = text
	return nil
}

func (f *fakeBrowser) IsVisible(ctx context.Context, selector string, index int) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	els := f.elements[selector]
	if index >= len(els) {
		return false, nil
	}
	return els[index].visible, nil
}

func (f *fakeBrowser) IsSelected(ctx context.Context, selector string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	els := f.elements[selector]
	if len(els) == 0 {
		return false, errors.New("no matching element")
	}
	return els[0].selected, nil
}

func (f *fakeBrowser) Evaluate(ctx context.Context, script string) (any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if result, ok := f.evalResults[script]; ok {
		return result, nil
	}
	return false, nil
}

func (f *fakeBrowser) AcceptNextDialog() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dialogMode = "accept"
}

func (f *fakeBrowser) DismissNextDialog() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dialogMode = "dismiss"
}

func (f *fakeBrowser) Screenshot(ctx context.Context, path string) error { return nil }

func (f *fakeBrowser) Close() error { return nil }

// fakePage recognizes itself by title substring, like the fixture site pages
type fakePage struct {
	name string
	url  string
	obj  *Object
}

func (p *fakePage) Name() string { return p.name }
func (p *fakePage) URL() string  { return p.url }

func (p *fakePage) IsBrowserOnPage(ctx context.Context) bool {
	title, err := p.obj.Browser.Title(ctx)
	return err == nil && strings.Contains(strings.ToLower(title), p.name)
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	return logger
}

func fastOpts() []promise.Option {
	return []promise.Option{promise.WithTryLimit(20), promise.WithTryInterval(5 * time.Millisecond)}
}

func TestQueryReadsElements(t *testing.T) {
	fake := newFakeBrowser()
	fake.setElements("div.test",
		fakeElement{text: "First", html: "<span>First</span>", attrs: map[string]string{"value": "1"}},
		fakeElement{text: "Second", html: "<span>Second</span>", attrs: map[string]string{"value": "2"}},
	)
	obj := NewObject(fake, quietLogger())
	ctx := context.Background()

	count, err := obj.Q("div.test").Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	texts, err := obj.Q("div.test").Texts(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"First", "Second"}, texts)

	values, err := obj.Q("div.test").Attrs(ctx, "value")
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2"}, values)

	html, err := obj.Q("div.test").HTML(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"<span>First</span>", "<span>Second</span>"}, html)

	assert.True(t, obj.Q("div.test").IsPresent(ctx))
	assert.False(t, obj.Q("div.missing").IsPresent(ctx))
}

func TestQueryBoundIndex(t *testing.T) {
	fake := newFakeBrowser()
	fake.setElements("button",
		fakeElement{text: "one"},
		fakeElement{text: "two"},
	)
	obj := NewObject(fake, quietLogger())
	ctx := context.Background()

	require.NoError(t, obj.Q("button").First().Click(ctx))
	require.NoError(t, obj.Q("button").Nth(1).Click(ctx))
	assert.Equal(t, []string{"button[0]", "button[1]"}, fake.clicked)

	text, err := obj.Q("button").Nth(1).Text(ctx)
	require.NoError(t, err)
	assert.Equal(t, "two", text)

	_, err = obj.Q("button").Nth(5).Text(ctx)
	assert.Error(t, err)
}

func TestQueryDescribe(t *testing.T) {
	fake := newFakeBrowser()
	fake.evalResults[fmt.Sprintf(describeScript, "input#red")] = []any{
		map[string]any{
			"type":        "input",
			"text":        "",
			"attributes":  map[string]any{"id": "red", "type": "checkbox"},
			"is_visible":  true,
			"is_selected": true,
		},
	}
	obj := NewObject(fake, quietLogger())

	infos, err := obj.Q("input#red").Describe(context.Background())
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, "input", infos[0].Type)
	assert.Equal(t, "input#red", infos[0].Selector)
	assert.Equal(t, map[string]string{"id": "red", "type": "checkbox"}, infos[0].Attributes)
	assert.True(t, infos[0].IsVisible)
	assert.True(t, infos[0].IsSelected)

	// non-array result means the script result shape is unexpected
	_, err = obj.Q("div.missing").Describe(context.Background())
	assert.Error(t, err)
}

func TestFill(t *testing.T) {
	fake := newFakeBrowser()
	obj := NewObject(fake, quietLogger())

	require.NoError(t, obj.Q("#fixture input").Fill(context.Background(), "Lorem ipsum"))
	assert.Equal(t, "Lorem ipsum", fake.filled["#fixture input"])
}

func TestWaitForPresenceSucceedsWhenElementAppears(t *testing.T) {
	fake := newFakeBrowser()
	obj := NewObject(fake, quietLogger())

	time.AfterFunc(20*time.Millisecond, func() {
		fake.setElements("div#ready", fakeElement{text: "Ready"})
	})

	err := obj.WaitForPresence(context.Background(), "div#ready", "click ready", fastOpts()...)
	require.NoError(t, err)
}

func TestWaitForPresenceBreaksOnMissingElement(t *testing.T) {
	fake := newFakeBrowser()
	obj := NewObject(fake, quietLogger())

	err := obj.WaitForPresence(context.Background(), "div#not_present", "invalid div appeared",
		promise.WithTryLimit(3), promise.WithTryInterval(time.Millisecond))
	require.Error(t, err)

	var broken *promise.BrokenPromise
	require.True(t, errors.As(err, &broken))
	assert.Equal(t, "invalid div appeared", broken.Description)
}

func TestWaitForAbsence(t *testing.T) {
	fake := newFakeBrowser()
	fake.setElements(".playing", fakeElement{})
	obj := NewObject(fake, quietLogger())

	time.AfterFunc(20*time.Millisecond, func() {
		fake.setElements(".playing")
	})

	err := obj.WaitForAbsence(context.Background(), ".playing", "animation stopped", fastOpts()...)
	require.NoError(t, err)
}

func TestWaitForVisibilityAndInvisibility(t *testing.T) {
	fake := newFakeBrowser()
	fake.setElements("div#output", fakeElement{text: "Done", visible: false})
	obj := NewObject(fake, quietLogger())
	ctx := context.Background()

	time.AfterFunc(20*time.Millisecond, func() {
		fake.setElements("div#output", fakeElement{text: "Done", visible: true})
	})
	require.NoError(t, obj.WaitForVisibility(ctx, "div#output", "output visible", fastOpts()...))

	time.AfterFunc(20*time.Millisecond, func() {
		fake.setElements("div#output", fakeElement{text: "Done", visible: false})
	})
	require.NoError(t, obj.WaitForInvisibility(ctx, "div#output", "output hidden", fastOpts()...))
}

func TestVisitNavigatesAndWaitsForPage(t *testing.T) {
	fake := newFakeBrowser()
	obj := NewObject(fake, quietLogger())
	pageUnderTest := &fakePage{name: "button", url: "http://localhost:8003/button.html", obj: obj}

	time.AfterFunc(10*time.Millisecond, func() {
		fake.mu.Lock()
		fake.title = "Button Page"
		fake.mu.Unlock()
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, obj.Visit(ctx, pageUnderTest))
	assert.Equal(t, "http://localhost:8003/button.html", fake.currentURL)
}

func TestWithAlertArmsDialogHandling(t *testing.T) {
	fake := newFakeBrowser()
	fake.setElements("button#confirm", fakeElement{})
	obj := NewObject(fake, quietLogger())
	ctx := context.Background()

	err := obj.WithAlert(ctx, true, func() error {
		return obj.Q("button#confirm").First().Click(ctx)
	})
	require.NoError(t, err)
	assert.Equal(t, "accept", fake.dialogMode)

	err = obj.WithAlert(ctx, false, func() error { return nil })
	require.NoError(t, err)
	assert.Equal(t, "dismiss", fake.dialogMode)
}

func TestWithAlertPropagatesActionError(t *testing.T) {
	fake := newFakeBrowser()
	obj := NewObject(fake, quietLogger())

	wantErr := errors.New("click failed")
	err := obj.WithAlert(context.Background(), true, func() error { return wantErr })
	assert.ErrorIs(t, err, wantErr)
}
