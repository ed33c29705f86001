package pageobject

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pagewright/domain/promise"
)

// jsPage declares asynchronous globals, like the javascript fixture page
type jsPage struct {
	fakePage
	vars    []string
	modules []string
}

func (p *jsPage) JSVars() []string { return p.vars }

// requirePage additionally declares RequireJS modules
type requirePage struct {
	jsPage
}

func (p *requirePage) RequireModules() []string { return p.modules }

func TestWaitForJSVars(t *testing.T) {
	fake := newFakeBrowser()
	obj := NewObject(fake, quietLogger())
	p := &jsPage{
		fakePage: fakePage{name: "javascript", obj: obj},
		vars:     []string{"test_var1", "test_var2"},
	}

	script := `typeof window["test_var1"] !== 'undefined' && typeof window["test_var2"] !== 'undefined'`
	time.AfterFunc(10*time.Millisecond, func() {
		fake.mu.Lock()
		fake.evalResults[script] = true
		fake.mu.Unlock()
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, obj.WaitForJS(ctx, p))
}

func TestWaitForJSVarsBreaksWhenNeverDefined(t *testing.T) {
	fake := newFakeBrowser()
	obj := NewObject(fake, quietLogger())
	p := &jsPage{
		fakePage: fakePage{name: "javascript", obj: obj},
		vars:     []string{"never_defined"},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	err := obj.WaitForJS(ctx, p)
	require.Error(t, err)

	// Either the promise breaks or the context expires first; both are
	// terminal for the caller
	var broken *promise.BrokenPromise
	if !errors.As(err, &broken) {
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	}
}

func TestWaitForRequireModules(t *testing.T) {
	fake := newFakeBrowser()
	obj := NewObject(fake, quietLogger())
	p := &requirePage{jsPage{
		fakePage: fakePage{name: "requirejs", obj: obj},
		modules:  []string{"main"},
	}}

	script := `typeof window.require !== 'undefined' && typeof window.require.defined === 'function' && window.require.defined("main")`
	fake.mu.Lock()
	fake.evalResults[script] = true
	fake.mu.Unlock()

	require.NoError(t, obj.WaitForJS(context.Background(), p))
}

func TestWaitForJSNoDeclarationsReturnsImmediately(t *testing.T) {
	fake := newFakeBrowser()
	obj := NewObject(fake, quietLogger())
	p := &fakePage{name: "button", obj: obj}

	require.NoError(t, obj.WaitForJS(context.Background(), p))
}
