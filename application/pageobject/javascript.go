package pageobject

import (
	"context"
	"fmt"
	"strings"

	"pagewright/domain/promise"
)

// JSDefined is implemented by pages whose interactions depend on global
// JavaScript variables that are defined asynchronously.
type JSDefined interface {
	// JSVars names the globals that must exist before interacting
	JSVars() []string
}

// RequireJS is implemented by pages that load modules through RequireJS.
type RequireJS interface {
	// RequireModules names the modules that must be loaded before interacting
	RequireModules() []string
}

// WaitForJS blocks until the page's declared JavaScript readiness conditions
// hold. Pages declaring neither interface return immediately.
func (o *Object) WaitForJS(ctx context.Context, p Page) error {
	if jd, ok := p.(JSDefined); ok {
		if err := o.waitForJSVars(ctx, jd.JSVars()); err != nil {
			return err
		}
	}
	if rj, ok := p.(RequireJS); ok {
		if err := o.waitForRequireModules(ctx, rj.RequireModules()); err != nil {
			return err
		}
	}
	return nil
}

func (o *Object) waitForJSVars(ctx context.Context, vars []string) error {
	if len(vars) == 0 {
		return nil
	}

	conds := make([]string, 0, len(vars))
	for _, name := range vars {
		conds = append(conds, fmt.Sprintf("typeof window[%q] !== 'undefined'", name))
	}
	script := strings.Join(conds, " && ")

	return promise.NewEmpty(
		func(ctx context.Context) bool { return o.evalBool(ctx, script) },
		fmt.Sprintf("javascript variables %s defined", strings.Join(vars, ", ")),
	).Fulfill(ctx)
}

func (o *Object) waitForRequireModules(ctx context.Context, modules []string) error {
	if len(modules) == 0 {
		return nil
	}

	conds := []string{
		"typeof window.require !== 'undefined'",
		"typeof window.require.defined === 'function'",
	}
	for _, name := range modules {
		conds = append(conds, fmt.Sprintf("window.require.defined(%q)", name))
	}
	script := strings.Join(conds, " && ")

	return promise.NewEmpty(
		func(ctx context.Context) bool { return o.evalBool(ctx, script) },
		fmt.Sprintf("requirejs modules %s loaded", strings.Join(modules, ", ")),
	).Fulfill(ctx)
}

// evalBool runs a script and reports its boolean result; evaluation errors
// count as false so readiness checks can poll across navigations
func (o *Object) evalBool(ctx context.Context, script string) bool {
	result, err := o.Browser.Evaluate(ctx, script)
	if err != nil {
		return false
	}
	truthy, ok := result.(bool)
	return ok && truthy
}
