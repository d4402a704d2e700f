package inject

import (
	"reflect"

	"go.uber.org/zap"
)

// Option configures a Container.
type Option func(*options)

type options struct {
	name         string
	logger       *zap.Logger
	skipIfSet    bool
	interceptors []Interceptor
	defaults     map[reflect.Type]defaultImpl
}

func defaultOptions() *options {
	return &options{
		name:      "scope",
		logger:    zap.NewNop(),
		skipIfSet: true,
		defaults:  make(map[reflect.Type]defaultImpl),
	}
}

// WithName names the scope, typically after the scenario it serves.
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

// WithLogger sets the logger used to report teardown failures.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithSkipIfSet controls whether slots already holding a non-zero value are
// left untouched (the default) or overwritten.
func WithSkipIfSet(skip bool) Option {
	return func(o *options) {
		o.skipIfSet = skip
	}
}

// WithInterceptor adds an interceptor. Interceptors run in the order added.
func WithInterceptor(interceptor Interceptor) Option {
	return func(o *options) {
		o.interceptors = append(o.interceptors, interceptor)
	}
}

// WithDefault registers a fallback for T in this container only. It takes
// precedence over defaults registered with SetDefault.
func WithDefault[T any](construct func() (T, error)) Option {
	return func(o *options) {
		o.defaults[reflect.TypeFor[T]()] = defaultImpl{
			impl: reflect.TypeFor[T](),
			construct: func() (any, error) {
				return construct()
			},
		}
	}
}

// WithDefaultType registers impl as this container's fallback for typ.
func WithDefaultType(typ, impl reflect.Type) Option {
	return func(o *options) {
		o.defaults[typ] = typedDefault(impl)
	}
}
