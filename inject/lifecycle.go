package inject

import (
	"errors"
	"io"
)

// ScopeEnder is implemented by objects that want to be notified once when the
// scope they were injected into ends. Handlers run newest first, after every
// pre-destroy hook and closer.
type ScopeEnder interface {
	OnScopeEnd() error
}

// ScopeEndFunc adapts a function to ScopeEnder.
type ScopeEndFunc func() error

// OnScopeEnd implements ScopeEnder.
func (f ScopeEndFunc) OnScopeEnd() error {
	return f()
}

// PostConstructor is an alternative to the postConstruct tag. PostConstruct is
// called once all slots of the instance have been injected.
type PostConstructor interface {
	PostConstruct() error
}

// PreDestroyer is an alternative to the preDestroy tag. PreDestroy is called
// when the scope ends, before closers and scope-end handlers.
type PreDestroyer interface {
	PreDestroy() error
}

// Lifecycle is a marker type declaring lifecycle hooks through struct tags.
// Use it as a blank field:
//
//	type Server struct {
//	    _ inject.Lifecycle `postConstruct:"Start" preDestroy:"Stop"`
//	}
//
// Hook methods take no arguments and return nothing or an error.
type Lifecycle struct{}

// Setter is a marker type declaring a setter injection slot through struct
// tags. Use it as a blank field naming the setter method:
//
//	type Report struct {
//	    _ inject.Setter `inject:"SetClock" name:"utc" optional:"true"`
//	}
//
// When a matching getter (Clock or GetClock) exists, it is consulted for the
// skip-if-set policy.
type Setter struct{}

// IsAssertionFailure reports whether err, or any error it wraps, signals a
// violated test expectation. Such errors implement AssertionFailed() bool.
func IsAssertionFailure(err error) bool {
	var af interface{ AssertionFailed() bool }
	if errors.As(err, &af) {
		return af.AssertionFailed()
	}
	return false
}

var (
	_ ScopeEnder = ScopeEndFunc(nil)
	_ io.Closer  = (*Container)(nil)
	_ ScopeEnder = (*Container)(nil)
)
