// Package bdd scopes an inject.Container to each godog scenario.
//
//	func InitializeScenario(sc *godog.ScenarioContext) {
//	    bdd.Bind(sc, inject.WithLogger(logger))
//	    sc.Step(`^a user "([^"]*)"$`, func(ctx context.Context, name string) error {
//	        return bdd.Provide(ctx, &User{Name: name})
//	    })
//	}
//
// Every scenario gets a fresh container named after it. The container's scope
// ends when the scenario finishes, tearing down what the steps injected.
package bdd

import (
	"context"

	testfirst "github.com/codemucker/codemucker-testfirst"
	"github.com/codemucker/codemucker-testfirst/inject"
	"github.com/cucumber/godog"
	"github.com/xraph/go-utils/errs"
)

// CodeNotBound indicates a context without a scenario scope
const CodeNotBound = "NOT_BOUND"

// ErrNotBound is returned when a step context carries no scope. Call Bind in
// the scenario initializer.
var ErrNotBound = errs.NewError(CodeNotBound, "no scenario scope bound to context", nil)

type scopeKey struct{}

// scope is what a scenario's context carries.
type scope struct {
	container *inject.Container
	scenario  *testfirst.Scenario
}

// Bind installs hooks giving every scenario of sc its own container. Options
// are applied after the scenario name.
func Bind(sc *godog.ScenarioContext, opts ...inject.Option) {
	sc.Before(before(opts))
	sc.After(after)
}

func before(opts []inject.Option) godog.BeforeScenarioHook {
	return func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		c := inject.New(append([]inject.Option{inject.WithName(sc.Name)}, opts...)...)
		return context.WithValue(ctx, scopeKey{}, &scope{container: c}), nil
	}
}

// after ends the scenario's scope. When the steps used the scenario DSL its
// steps are checked too. The step error, if any, is left to godog.
func after(ctx context.Context, _ *godog.Scenario, _ error) (context.Context, error) {
	s := scopeFrom(ctx)
	if s == nil {
		return ctx, nil
	}

	if s.scenario != nil {
		return ctx, s.scenario.AssertHasRunAndPassed()
	}

	return ctx, s.container.Close()
}

func scopeFrom(ctx context.Context) *scope {
	s, _ := ctx.Value(scopeKey{}).(*scope)
	return s
}

// From returns the container of the scenario running with ctx, or nil.
func From(ctx context.Context) *inject.Container {
	if s := scopeFrom(ctx); s != nil {
		return s.container
	}
	return nil
}

// Scenario returns a step recorder wired to the scenario's container,
// creating it on first use. Its steps are checked when the scenario ends.
func Scenario(ctx context.Context) (*testfirst.Scenario, error) {
	s := scopeFrom(ctx)
	if s == nil {
		return nil, ErrNotBound
	}

	if s.scenario == nil {
		s.scenario = testfirst.NewScenario(s.container.Name(), testfirst.WithInjector(s.container))
	}

	return s.scenario, nil
}

// Inject injects instance with the scenario's container.
func Inject(ctx context.Context, instance any) (any, error) {
	c := From(ctx)
	if c == nil {
		return nil, ErrNotBound
	}
	return c.Inject(instance)
}

// Into injects instance with the scenario's container and returns it typed.
func Into[T any](ctx context.Context, instance T) (T, error) {
	c := From(ctx)
	if c == nil {
		var zero T
		return zero, ErrNotBound
	}
	return inject.Into(c, instance)
}

// Provide binds value in the scenario's container under its own type.
func Provide(ctx context.Context, value any) error {
	c := From(ctx)
	if c == nil {
		return ErrNotBound
	}
	return c.Provide(value)
}

// Resolve resolves the unnamed binding of T from the scenario's container.
func Resolve[T any](ctx context.Context) (T, error) {
	c := From(ctx)
	if c == nil {
		var zero T
		return zero, ErrNotBound
	}
	return inject.Resolve[T](c)
}
