package inject

import (
	"fmt"
	"reflect"
	"sync"
)

// defaultImpl constructs the fallback implementation of an interface.
type defaultImpl struct {
	impl      reflect.Type
	construct func() (any, error)
}

// defaults maps a required type to its fallback implementation.
type defaults struct {
	impls map[reflect.Type]defaultImpl
	mu    sync.RWMutex
}

func newDefaults() *defaults {
	return &defaults{impls: make(map[reflect.Type]defaultImpl)}
}

func (d *defaults) set(typ reflect.Type, impl defaultImpl) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.impls[typ] = impl
}

func (d *defaults) get(typ reflect.Type) (defaultImpl, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	impl, ok := d.impls[typ]
	return impl, ok
}

func (d *defaults) remove(typ reflect.Type) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.impls, typ)
}

// packageDefaults are registered by packages at init time and shared by every
// container.
var packageDefaults = newDefaults()

// SetDefault registers the fallback implementation of T, used when a
// container has no binding for a required T. Call it from the init function
// of the package declaring T:
//
//	func init() {
//	    inject.SetDefault[Clock](func() (Clock, error) { return systemClock{}, nil })
//	}
//
// The constructed value is injected and then bound in the resolving
// container, so later resolutions reuse it.
func SetDefault[T any](construct func() (T, error)) {
	typ := reflect.TypeFor[T]()
	packageDefaults.set(typ, defaultImpl{
		impl: typ,
		construct: func() (any, error) {
			return construct()
		},
	})
}

// SetDefaultType registers impl as the fallback implementation of typ. The
// default is built with a no-argument construction: reflect.New for struct
// types and pointers to structs. When neither impl nor *impl is assignable to
// typ, resolution fails with a dependency-not-found error.
func SetDefaultType(typ, impl reflect.Type) {
	packageDefaults.set(typ, typedDefault(impl))
}

// ClearDefault removes the package-level default of typ.
func ClearDefault(typ reflect.Type) {
	packageDefaults.remove(typ)
}

func typedDefault(impl reflect.Type) defaultImpl {
	return defaultImpl{
		impl: impl,
		construct: func() (any, error) {
			return newZero(impl)
		},
	}
}

// newZero performs a no-argument construction of t.
func newZero(t reflect.Type) (any, error) {
	switch {
	case t.Kind() == reflect.Pointer && t.Elem().Kind() == reflect.Struct:
		return reflect.New(t.Elem()).Interface(), nil
	case t.Kind() == reflect.Struct:
		return reflect.New(t).Interface(), nil
	default:
		return nil, fmt.Errorf("cannot construct %s without arguments", t)
	}
}

// satisfies reports whether value can be used where typ is required.
func satisfies(value any, typ reflect.Type) bool {
	if value == nil {
		return false
	}
	return reflect.TypeOf(value).AssignableTo(typ)
}
