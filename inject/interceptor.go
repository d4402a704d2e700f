package inject

// Interceptor provides hooks around injection and teardown.
// Interceptors can be used for logging, wrapping instances, excluding types, etc.
type Interceptor interface {
	// IsInjectable is called before anything else. Return false to leave the
	// instance untouched.
	IsInjectable(instance any) bool

	// BeforeInject is called once the instance is recorded as injected and
	// before its slots are filled. The returned value replaces the instance.
	BeforeInject(instance any) (any, error)

	// AfterInject is called after the slots are filled and the post-construct
	// hook ran. The returned value replaces the instance and is the one
	// checked for Closer and ScopeEnder.
	AfterInject(instance any) (any, error)

	// BeforeDestroy is called for every injected instance, newest first, at
	// the start of teardown. Errors are logged and ignored.
	BeforeDestroy(instance any) error
}

// interceptorChain manages multiple interceptors.
type interceptorChain struct {
	interceptors []Interceptor
}

// newInterceptorChain creates a new interceptor chain.
func newInterceptorChain() *interceptorChain {
	return &interceptorChain{
		interceptors: make([]Interceptor, 0),
	}
}

// add appends an interceptor to the chain.
func (ic *interceptorChain) add(interceptor Interceptor) {
	ic.interceptors = append(ic.interceptors, interceptor)
}

// isInjectable requires every interceptor to accept the instance.
func (ic *interceptorChain) isInjectable(instance any) bool {
	for _, i := range ic.interceptors {
		if !i.IsInjectable(instance) {
			return false
		}
	}
	return true
}

// beforeInject threads the instance through every BeforeInject.
func (ic *interceptorChain) beforeInject(instance any) (any, error) {
	for _, i := range ic.interceptors {
		var err error
		if instance, err = i.BeforeInject(instance); err != nil {
			return nil, err
		}
	}
	return instance, nil
}

// afterInject threads the instance through every AfterInject.
func (ic *interceptorChain) afterInject(instance any) (any, error) {
	for _, i := range ic.interceptors {
		var err error
		if instance, err = i.AfterInject(instance); err != nil {
			return nil, err
		}
	}
	return instance, nil
}

// beforeDestroy calls BeforeDestroy on all interceptors, stopping at the first error.
func (ic *interceptorChain) beforeDestroy(instance any) error {
	for _, i := range ic.interceptors {
		if err := i.BeforeDestroy(instance); err != nil {
			return err
		}
	}
	return nil
}

// FuncInterceptor wraps functions as Interceptor. Nil functions are no-ops.
type FuncInterceptor struct {
	IsInjectableFunc  func(instance any) bool
	BeforeInjectFunc  func(instance any) (any, error)
	AfterInjectFunc   func(instance any) (any, error)
	BeforeDestroyFunc func(instance any) error
}

// IsInjectable implements Interceptor.
func (f *FuncInterceptor) IsInjectable(instance any) bool {
	if f.IsInjectableFunc != nil {
		return f.IsInjectableFunc(instance)
	}
	return true
}

// BeforeInject implements Interceptor.
func (f *FuncInterceptor) BeforeInject(instance any) (any, error) {
	if f.BeforeInjectFunc != nil {
		return f.BeforeInjectFunc(instance)
	}
	return instance, nil
}

// AfterInject implements Interceptor.
func (f *FuncInterceptor) AfterInject(instance any) (any, error) {
	if f.AfterInjectFunc != nil {
		return f.AfterInjectFunc(instance)
	}
	return instance, nil
}

// BeforeDestroy implements Interceptor.
func (f *FuncInterceptor) BeforeDestroy(instance any) error {
	if f.BeforeDestroyFunc != nil {
		return f.BeforeDestroyFunc(instance)
	}
	return nil
}
