package inject

import (
	"io"
	"reflect"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// teardownKind separates pre-destroy actions from scope-end handlers, which
// share one ordered collection but run in different passes.
type teardownKind int

const (
	destroyAction teardownKind = iota
	scopeEndAction
)

type teardown struct {
	kind   teardownKind
	target reflect.Type
	run    func() error
}

// destroyKey and scopeEndKey keep an instance's two entries in the
// end-of-scope collection apart.
type destroyKey struct{ id any }

type scopeEndKey struct{ id any }

// Container is a single-scope dependency injector. It fills the tagged slots
// of the instances handed to Inject, remembers them in injection order and
// tears them down in reverse order when the scope ends.
//
// All state is guarded by one lock. Factories, hooks and interceptors run
// while it is held and must not call back into the container.
//
// Instances are tracked by identity. Funcs, slices and non-comparable values
// have none and are processed on every Inject. Pointers to distinct zero-size
// values may share an address, so a second such pointer counts as already
// injected and its hooks and handlers never run; give those types a field.
type Container struct {
	id           string
	name         string
	logger       *zap.Logger
	skipIfSet    bool
	interceptors *interceptorChain
	defaults     map[reflect.Type]defaultImpl

	registry   *registry
	plans      map[reflect.Type]*plan
	injected   *orderedSet[any]
	results    map[any]any // identity -> instance returned by Inject
	endOfScope *orderedSet[teardown]
	closers    *orderedSet[io.Closer]

	closed      bool
	teardownErr error
	mu          sync.Mutex
}

// New creates an open container.
func New(opts ...Option) *Container {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	c := &Container{
		id:           uuid.NewString(),
		name:         o.name,
		skipIfSet:    o.skipIfSet,
		interceptors: newInterceptorChain(),
		defaults:     o.defaults,
		registry:     newRegistry(),
		plans:        make(map[reflect.Type]*plan),
		injected:     newOrderedSet[any](),
		results:      make(map[any]any),
		endOfScope:   newOrderedSet[teardown](),
		closers:      newOrderedSet[io.Closer](),
	}
	c.logger = o.logger.With(zap.String("container", c.id), zap.String("scope", c.name))

	for _, i := range o.interceptors {
		c.interceptors.add(i)
	}

	return c
}

// ID returns the unique id of this container.
func (c *Container) ID() string {
	return c.id
}

// Name returns the scope name.
func (c *Container) Name() string {
	return c.name
}

// Closed reports whether the scope has ended.
func (c *Container) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Inject fills the dependency slots of instance, runs its post-construct hook
// and registers it for teardown. Injecting the same instance again returns
// the result of the first call without side effects. Nil and basic values
// (numbers, strings, bools) are returned unchanged.
func (c *Container) Inject(instance any) (any, error) {
	if isPassThrough(instance) {
		return instance, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	return c.injectLocked(instance)
}

func (c *Container) injectLocked(instance any) (any, error) {
	if isPassThrough(instance) || !c.interceptors.isInjectable(instance) {
		return instance, nil
	}

	if c.closed {
		return nil, ErrScopeClosed
	}

	id := identityOf(instance)
	if c.injected.contains(id) {
		if result, ok := c.results[id]; ok {
			return result, nil
		}
		return instance, nil
	}
	c.injected.add(id, instance)

	typ := reflect.TypeOf(instance)

	obj, err := c.interceptors.beforeInject(instance)
	if err != nil {
		return nil, NewInjectionError(typ, "before inject", err)
	}
	if obj == nil {
		return nil, nil
	}
	typ = reflect.TypeOf(obj)

	p, err := c.planFor(typ)
	if err != nil {
		return nil, err
	}

	// Registered before slots are filled so a partially injected instance
	// still gets torn down.
	if destroy := p.destructorFor(obj); destroy != nil {
		var key any
		if objID := identityOf(obj); objID != nil {
			key = destroyKey{objID}
		}
		c.endOfScope.add(key, teardown{
			kind:   destroyAction,
			target: typ,
			run:    destroy,
		})
	}

	if err := p.apply(obj, c); err != nil {
		return nil, err
	}

	obj, err = c.interceptors.afterInject(obj)
	if err != nil {
		return nil, NewInjectionError(typ, "after inject", err)
	}

	c.registerLifecycles(obj)

	if id != nil {
		c.results[id] = obj
	}

	c.logger.Debug("injected", zap.Stringer("type", typ), zap.Int("slots", len(p.slots)))

	return obj, nil
}

// registerLifecycles records Closer and ScopeEnder capabilities of obj.
func (c *Container) registerLifecycles(obj any) {
	if obj == nil || obj == any(c) {
		return
	}

	id := identityOf(obj)

	if closer, ok := obj.(io.Closer); ok {
		c.closers.add(id, closer)
	}

	if ender, ok := obj.(ScopeEnder); ok {
		var key any
		if id != nil {
			key = scopeEndKey{id}
		}
		c.endOfScope.add(key, teardown{
			kind:   scopeEndAction,
			target: reflect.TypeOf(obj),
			run:    ender.OnScopeEnd,
		})
	}
}

// planFor returns the cached plan for typ, building it on first use.
func (c *Container) planFor(typ reflect.Type) (*plan, error) {
	if p, ok := c.plans[typ]; ok {
		return p, nil
	}

	p, err := buildPlan(typ, c.skipIfSet)
	if err != nil {
		return nil, err
	}

	c.plans[typ] = p

	return p, nil
}

// Check builds the injection plan of typ, reporting declaration errors
// without injecting anything.
func (c *Container) Check(typ reflect.Type) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrScopeClosed
	}

	_, err := c.planFor(typ)

	return err
}

// Resolve returns the value bound for (typ, name). With failOnMissing false a
// missing dependency yields nil and no error.
func (c *Container) Resolve(typ reflect.Type, name string, failOnMissing bool) (any, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, ErrScopeClosed
	}

	return c.resolve(typ, name, failOnMissing)
}

// resolve implements resolver. The lock must be held.
func (c *Container) resolve(typ reflect.Type, name string, failOnMissing bool) (any, error) {
	if b, ok := c.registry.lookup(typ, name); ok {
		return b.get()
	}

	value, found, err := c.defaultFor(typ, name)
	if err != nil {
		return nil, err
	}
	if found {
		return value, nil
	}

	if failOnMissing {
		return nil, ErrDependencyNotFound(typeKey{typ: typ, name: name}, nil)
	}

	return nil, nil
}

// defaultFor constructs, injects and binds the fallback implementation of typ.
func (c *Container) defaultFor(typ reflect.Type, name string) (any, bool, error) {
	impl, ok := c.defaults[typ]
	if !ok {
		impl, ok = packageDefaults.get(typ)
	}
	if !ok {
		return nil, false, nil
	}

	key := typeKey{typ: typ, name: name}

	value, err := impl.construct()
	if err != nil {
		return nil, false, ErrDependencyNotFound(key, err)
	}
	if !satisfies(value, typ) {
		return nil, false, ErrDependencyNotFound(key,
			errDefaultMismatch{impl: impl.impl, typ: typ})
	}

	value, err = c.provideLocked(key, value, nil)
	if err != nil {
		return nil, false, err
	}

	c.logger.Debug("bound default", zap.Stringer("type", typ), zap.Stringer("impl", impl.impl))

	return value, true, nil
}

type errDefaultMismatch struct {
	impl reflect.Type
	typ  reflect.Type
}

func (e errDefaultMismatch) Error() string {
	return "default " + typeName(e.impl) + " does not implement " + typeName(e.typ)
}

// provideLocked injects value (or factory) and binds it under key.
func (c *Container) provideLocked(key typeKey, value any, factory Factory) (any, error) {
	if c.closed {
		return nil, ErrScopeClosed
	}

	if factory != nil {
		if _, err := c.injectLocked(factory); err != nil {
			return nil, err
		}
		c.registry.register(&binding{key: key, factory: factory})
		return nil, nil
	}

	injected, err := c.injectLocked(value)
	if err != nil {
		return nil, err
	}

	c.registry.register(&binding{key: key, value: injected})

	return injected, nil
}

// Has reports whether a binding can supply (typ, name), ignoring defaults.
func (c *Container) Has(typ reflect.Type, name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.registry.has(typ, name)
}

// Bindings returns the registered binding keys in registration order.
func (c *Container) Bindings() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys := c.registry.keys()
	names := make([]string, len(keys))
	for i, k := range keys {
		names[i] = k.String()
	}

	return names
}

// OnScopeEnd ends the scope. Teardown runs in three passes, each newest
// first: interceptors' BeforeDestroy and pre-destroy hooks, then Close on
// closers, then OnScopeEnd handlers. Failures are logged and teardown goes on,
// except for assertion failures raised by OnScopeEnd handlers, which abort
// the remaining handlers and are returned.
//
// It must be called exactly once; later calls return ErrScopeClosed.
func (c *Container) OnScopeEnd() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrScopeClosed
	}

	return c.endLocked()
}

// endLocked runs the teardown passes. The lock must be held and the scope open.
func (c *Container) endLocked() error {
	c.closed = true

	defer c.reset()

	var report error

	for _, obj := range c.injected.reversed() {
		if err := guard(func() error { return c.interceptors.beforeDestroy(obj) }); err != nil {
			c.logger.Warn("error while destroying, ignoring",
				zap.String("type", typeName(reflect.TypeOf(obj))), zap.Error(err))
			report = multierr.Append(report, err)
		}
	}

	handlers := c.endOfScope.reversed()

	for _, td := range handlers {
		if td.kind != destroyAction {
			continue
		}
		if err := guard(td.run); err != nil {
			c.logger.Warn("error running pre-destroy hook, ignoring",
				zap.String("type", typeName(td.target)), zap.Error(err))
			report = multierr.Append(report, err)
		}
	}

	for _, closer := range c.closers.reversed() {
		if err := guard(closer.Close); err != nil {
			c.logger.Warn("error while closing, ignoring",
				zap.String("type", typeName(reflect.TypeOf(closer))), zap.Error(err))
			report = multierr.Append(report, err)
		}
	}

	for _, td := range handlers {
		if td.kind != scopeEndAction {
			continue
		}
		if err := guard(td.run); err != nil {
			if IsAssertionFailure(err) {
				c.teardownErr = report
				return err
			}
			c.logger.Warn("error running on scope end, ignoring",
				zap.String("type", typeName(td.target)), zap.Error(err))
			report = multierr.Append(report, err)
		}
	}

	c.teardownErr = report
	c.logger.Debug("scope ended", zap.Int("injected", c.injected.len()))

	return nil
}

// Close ends the scope if it is still open.
func (c *Container) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}

	return c.endLocked()
}

// TeardownErr returns the failures that were logged and ignored while the
// scope ended, combined into one error, or nil.
func (c *Container) TeardownErr() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.teardownErr
}

// reset drops every registration, leaving the container inert.
func (c *Container) reset() {
	c.injected.clear()
	c.endOfScope.clear()
	c.closers.clear()
	c.registry.clear()
	c.results = make(map[any]any)
	c.plans = make(map[reflect.Type]*plan)
}

// guard runs fn, converting a panic into an error.
func guard(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = panicError(r)
		}
	}()
	return fn()
}

// isPassThrough reports whether v is nil or a basic value with nothing to inject.
func isPassThrough(v any) bool {
	if v == nil {
		return true
	}

	switch reflect.TypeOf(v).Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128,
		reflect.String, reflect.UnsafePointer:
		return true
	default:
		return false
	}
}
