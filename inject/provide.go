package inject

import (
	"errors"
	"fmt"
	"reflect"
)

// Provide binds value under its own dynamic type. The value is injected first
// so its own dependencies are resolved. A later binding for the same type and
// name replaces this one.
func (c *Container) Provide(value any) error {
	return c.ProvideAs(reflect.TypeOf(value), "", value)
}

// ProvideNamed binds value under its own dynamic type and name.
func (c *Container) ProvideNamed(name string, value any) error {
	return c.ProvideAs(reflect.TypeOf(value), name, value)
}

// ProvideAs binds value for slots of type typ named name.
func (c *Container) ProvideAs(typ reflect.Type, name string, value any) error {
	if value == nil || typ == nil {
		return NewInjectionError(typ, "provide", errors.New("value cannot be nil"))
	}
	if !reflect.TypeOf(value).AssignableTo(typ) {
		return NewInjectionError(typ, "provide", fmt.Errorf("value of type %T is not assignable to %s", value, typ))
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	_, err := c.provideLocked(typeKey{typ: typ, name: name}, value, nil)

	return err
}

// ProvideFactory binds factory for slots of type typ named name. The factory
// is injected once and then called on every resolution.
func (c *Container) ProvideFactory(typ reflect.Type, name string, factory Factory) error {
	if factory == nil || typ == nil {
		return NewInjectionError(typ, "provide", errors.New("factory cannot be nil"))
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	_, err := c.provideLocked(typeKey{typ: typ, name: name}, nil, factory)

	return err
}

// MustProvide is like Provide but panics on error and returns the container
// for chaining.
func (c *Container) MustProvide(value any) *Container {
	must(c.Provide(value))
	return c
}

// MustProvideNamed is like ProvideNamed but panics on error.
func (c *Container) MustProvideNamed(name string, value any) *Container {
	must(c.ProvideNamed(name, value))
	return c
}

// MustProvideAs is like ProvideAs but panics on error.
func (c *Container) MustProvideAs(typ reflect.Type, name string, value any) *Container {
	must(c.ProvideAs(typ, name, value))
	return c
}

// MustProvideFactory is like ProvideFactory but panics on error.
func (c *Container) MustProvideFactory(typ reflect.Type, name string, factory Factory) *Container {
	must(c.ProvideFactory(typ, name, factory))
	return c
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}

// Bind binds value for slots of type T.
//
// Example:
//
//	inject.Bind[Clock](c, fixedClock{})
func Bind[T any](c *Container, value T) error {
	return c.ProvideAs(reflect.TypeFor[T](), "", value)
}

// BindNamed binds value for slots of type T tagged with name.
func BindNamed[T any](c *Container, name string, value T) error {
	return c.ProvideAs(reflect.TypeFor[T](), name, value)
}

// BindFactory binds a typed factory function for slots of type T.
func BindFactory[T any](c *Container, name string, factory func() (T, error)) error {
	return c.ProvideFactory(reflect.TypeFor[T](), name, FactoryFunc(func() (any, error) {
		return factory()
	}))
}

// Into injects instance and returns it with its static type.
//
// Example:
//
//	svc, err := inject.Into(c, &UserService{})
func Into[T any](c *Container, instance T) (T, error) {
	result, err := c.Inject(instance)
	if err != nil {
		var zero T
		return zero, err
	}
	return as[T](result, "inject")
}

// MustInject is like Into but panics on error.
func MustInject[T any](c *Container, instance T) T {
	result, err := Into(c, instance)
	if err != nil {
		panic(err)
	}
	return result
}

// Resolve resolves the unnamed binding of T, failing when there is none.
func Resolve[T any](c *Container) (T, error) {
	return ResolveNamed[T](c, "")
}

// ResolveNamed resolves the binding of T named name, failing when there is none.
func ResolveNamed[T any](c *Container, name string) (T, error) {
	value, err := c.Resolve(reflect.TypeFor[T](), name, true)
	if err != nil {
		var zero T
		return zero, err
	}
	return as[T](value, "resolve")
}

func as[T any](value any, operation string) (T, error) {
	var zero T
	if value == nil {
		return zero, nil
	}
	result, ok := value.(T)
	if !ok {
		return zero, NewInjectionError(reflect.TypeFor[T](), operation, fmt.Errorf("got %T", value))
	}
	return result, nil
}

// Key provides type-safe binding identification.
// Use NewKey to create typed keys for named bindings.
type Key[T any] struct {
	name string
}

// NewKey creates a new typed key.
//
// Example:
//
//	var PrimaryDB = inject.NewKey[*sql.DB]("primary")
//	inject.BindKey(c, PrimaryDB, db)
func NewKey[T any](name string) Key[T] {
	return Key[T]{name: name}
}

// Name returns the binding name of the key.
func (k Key[T]) Name() string {
	return k.name
}

// BindKey binds value under a typed key.
func BindKey[T any](c *Container, key Key[T], value T) error {
	return BindNamed(c, key.name, value)
}

// BindKeyFactory binds a factory under a typed key.
func BindKeyFactory[T any](c *Container, key Key[T], factory func() (T, error)) error {
	return BindFactory(c, key.name, factory)
}

// ResolveKey resolves a binding using a typed key.
func ResolveKey[T any](c *Container, key Key[T]) (T, error) {
	return ResolveNamed[T](c, key.name)
}

// MustResolveKey resolves a binding using a typed key and panics on error.
func MustResolveKey[T any](c *Container, key Key[T]) T {
	result, err := ResolveKey(c, key)
	if err != nil {
		panic(err)
	}
	return result
}

// HasKey checks if a binding exists for a typed key.
func HasKey[T any](c *Container, key Key[T]) bool {
	return c.Has(reflect.TypeFor[T](), key.name)
}
