package inject

import "reflect"

// orderedSet is an insertion-ordered set keyed by instance identity.
type orderedSet[T any] struct {
	index map[any]struct{}
	items []T
}

func newOrderedSet[T any]() *orderedSet[T] {
	return &orderedSet[T]{index: make(map[any]struct{})}
}

// add appends item under key unless key is already present. A nil key is
// never deduplicated.
func (s *orderedSet[T]) add(key any, item T) bool {
	if key != nil {
		if _, ok := s.index[key]; ok {
			return false
		}
		s.index[key] = struct{}{}
	}
	s.items = append(s.items, item)
	return true
}

func (s *orderedSet[T]) contains(key any) bool {
	if key == nil {
		return false
	}
	_, ok := s.index[key]
	return ok
}

func (s *orderedSet[T]) len() int {
	return len(s.items)
}

// reversed returns a copy of the items, newest first.
func (s *orderedSet[T]) reversed() []T {
	out := make([]T, len(s.items))
	for i, item := range s.items {
		out[len(s.items)-1-i] = item
	}
	return out
}

func (s *orderedSet[T]) clear() {
	s.index = make(map[any]struct{})
	s.items = nil
}

// mapIdentity keys maps by their backing pointer since maps are not comparable.
type mapIdentity struct {
	typ reflect.Type
	ptr uintptr
}

// identityOf returns the key used to track v, or nil when v has no stable
// identity (funcs, slices, values holding them).
func identityOf(v any) any {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Func, reflect.Slice:
		return nil
	case reflect.Map:
		return mapIdentity{typ: rv.Type(), ptr: rv.Pointer()}
	}
	if !rv.Comparable() {
		return nil
	}
	return v
}
