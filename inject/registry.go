package inject

import (
	"fmt"
	"reflect"
)

// Factory supplies a fresh value each time a binding backed by it is resolved.
// A factory is itself injected before it is bound, so it may declare slots.
type Factory interface {
	Provide() (any, error)
}

// FactoryFunc adapts a function to Factory.
type FactoryFunc func() (any, error)

// Provide implements Factory.
func (f FactoryFunc) Provide() (any, error) {
	return f()
}

// typeKey uniquely identifies a binding by its type and optional name.
type typeKey struct {
	typ  reflect.Type
	name string // Empty for unnamed bindings
}

// String returns a human-readable representation of the type key
func (k typeKey) String() string {
	if k.name == "" {
		return typeName(k.typ)
	}
	return fmt.Sprintf("%s[name=%s]", typeName(k.typ), k.name)
}

// binding holds either a fixed value or a factory for a key.
type binding struct {
	key     typeKey
	value   any
	factory Factory
}

// get returns the bound value, invoking the factory when there is one.
func (b *binding) get() (any, error) {
	if b.factory == nil {
		return b.value, nil
	}

	value, err := b.factory.Provide()
	if err != nil {
		return nil, NewInjectionError(b.key.typ, fmt.Sprintf("factory for %s", b.key), err)
	}

	return value, nil
}

// supplies reports whether the binding can fill a slot of type t named name.
func (b *binding) supplies(t reflect.Type, name string) bool {
	if b.key.name != name {
		return false
	}
	return b.key.typ == t || b.key.typ.AssignableTo(t)
}

// registry holds explicit bindings. It is not safe for concurrent use on its
// own; the owning Container serialises access.
type registry struct {
	bindings map[typeKey]*binding
	order    []typeKey // registration order, for deterministic scans
}

func newRegistry() *registry {
	return &registry{
		bindings: make(map[typeKey]*binding),
	}
}

// register stores b, replacing any binding with the same key.
func (r *registry) register(b *binding) {
	if _, exists := r.bindings[b.key]; !exists {
		r.order = append(r.order, b.key)
	}
	r.bindings[b.key] = b
}

// lookup finds the binding for (t, name): the exact key first, then the first
// registered binding whose type is assignable to t.
func (r *registry) lookup(t reflect.Type, name string) (*binding, bool) {
	if b, ok := r.bindings[typeKey{typ: t, name: name}]; ok {
		return b, true
	}

	for _, key := range r.order {
		b := r.bindings[key]
		if b.supplies(t, name) {
			return b, true
		}
	}

	return nil, false
}

// has reports whether a binding exists for (t, name).
func (r *registry) has(t reflect.Type, name string) bool {
	_, ok := r.lookup(t, name)
	return ok
}

// keys returns the registered keys in registration order.
func (r *registry) keys() []typeKey {
	out := make([]typeKey, len(r.order))
	copy(out, r.order)
	return out
}

func (r *registry) clear() {
	r.bindings = make(map[typeKey]*binding)
	r.order = nil
}
