package inject

import (
	"errors"
	"sync"
)

// Test fixtures. Every fixture carries at least one field: pointers to
// zero-size values may share an address and would collide on identity.

type Foo struct {
	Value string
}

type Bar struct {
	Foo *Foo `inject:""`
}

type optionalBar struct {
	Foo *Foo `inject:"" optional:"true"`
}

type namedBar struct {
	Primary   *Foo `inject:"" name:"primary"`
	Secondary *Foo `inject:"" name:"secondary" optional:"true"`
}

type Greeter interface {
	Greet() string
}

type englishGreeter struct {
	prefix string
}

func (g *englishGreeter) Greet() string {
	return g.prefix + "hello"
}

type greeterUser struct {
	Greeter Greeter `inject:""`
}

type base struct {
	Foo *Foo `inject:""`
}

type derived struct {
	base

	Greeter Greeter `inject:"" optional:"true"`
}

// recorder captures lifecycle events in the order they happen.
type recorder struct {
	events []string
	mu     sync.Mutex
}

func (r *recorder) add(event string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recorder) list() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

// ender records OnScopeEnd calls.
type ender struct {
	name  string
	rec   *recorder
	err   error
	panic any
}

func (e *ender) OnScopeEnd() error {
	e.rec.add("end:" + e.name)
	if e.panic != nil {
		panic(e.panic)
	}
	return e.err
}

// closable records Close calls.
type closable struct {
	name string
	rec  *recorder
	err  error
}

func (c *closable) Close() error {
	c.rec.add("close:" + c.name)
	return c.err
}

// everything opts into all three teardown passes.
type everything struct {
	_ Lifecycle `preDestroy:"Destroy"`

	name string
	rec  *recorder
}

func (e *everything) Destroy() {
	e.rec.add("destroy:" + e.name)
}

func (e *everything) Close() error {
	e.rec.add("close:" + e.name)
	return nil
}

func (e *everything) OnScopeEnd() error {
	e.rec.add("end:" + e.name)
	return nil
}

// hooked declares both lifecycle hooks through a marker field.
type hooked struct {
	_ Lifecycle `postConstruct:"Init" preDestroy:"Destroy"`

	Foo *Foo `inject:""`

	rec       *recorder
	initErr   error
	fooAtInit *Foo
}

func (h *hooked) Init() error {
	h.fooAtInit = h.Foo
	h.rec.add("init")
	return h.initErr
}

func (h *hooked) Destroy() {
	h.rec.add("destroy")
}

// interfaceHooked declares its hooks by implementing the interfaces.
type interfaceHooked struct {
	rec *recorder
}

func (h *interfaceHooked) PostConstruct() error {
	h.rec.add("post-construct")
	return nil
}

func (h *interfaceHooked) PreDestroy() error {
	h.rec.add("pre-destroy")
	return nil
}

// assertionErr is an assertion-style failure.
type assertionErr struct {
	msg string
}

func (e assertionErr) Error() string {
	return e.msg
}

func (assertionErr) AssertionFailed() bool {
	return true
}

var errBoom = errors.New("boom")
