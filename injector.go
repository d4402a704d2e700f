package testfirst

import (
	"reflect"

	"github.com/codemucker/codemucker-testfirst/inject"
	"go.uber.org/multierr"
)

// Injector wires the objects taking part in a step. *inject.Container is the
// usual implementation. An injector that also implements inject.ScopeEnder
// is told when the scenario ends.
type Injector interface {
	Inject(instance any) (any, error)
}

var (
	_ Injector          = (*inject.Container)(nil)
	_ Injector          = (*NullInjector)(nil)
	_ inject.ScopeEnder = (*NullInjector)(nil)
)

// NullInjector injects nothing. It only remembers the inject.ScopeEnder
// values it sees and notifies them, newest first, when the scope ends.
// The zero value is ready to use.
type NullInjector struct {
	enders []inject.ScopeEnder
	seen   map[any]struct{}
}

// Inject returns instance unchanged.
func (n *NullInjector) Inject(instance any) (any, error) {
	ender, ok := instance.(inject.ScopeEnder)
	if !ok {
		return instance, nil
	}

	if key, ok := identity(instance); ok {
		if n.seen == nil {
			n.seen = make(map[any]struct{})
		}
		if _, dup := n.seen[key]; dup {
			return instance, nil
		}
		n.seen[key] = struct{}{}
	}

	n.enders = append(n.enders, ender)

	return instance, nil
}

// OnScopeEnd notifies the remembered handlers newest first. An assertion
// failure stops the remaining handlers and is returned; other failures are
// combined and returned once every handler ran.
func (n *NullInjector) OnScopeEnd() error {
	enders := n.enders
	n.enders = nil
	n.seen = nil

	var report error
	for i := len(enders) - 1; i >= 0; i-- {
		if err := enders[i].OnScopeEnd(); err != nil {
			if inject.IsAssertionFailure(err) {
				return err
			}
			report = multierr.Append(report, err)
		}
	}

	return report
}

// identity returns a comparable key for v, if it has one.
func identity(v any) (any, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Func, reflect.Slice, reflect.Map:
		return nil, false
	}
	return v, rv.Comparable()
}
