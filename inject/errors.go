package inject

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/xraph/go-utils/errs"
)

// =============================================================================
// ERROR CODES
// =============================================================================

const (
	// CodeConfiguration indicates a type declares its injection points incorrectly
	CodeConfiguration = "CONFIGURATION"

	// CodeDependencyNotFound indicates a required dependency has no binding and no default
	CodeDependencyNotFound = "DEPENDENCY_NOT_FOUND"

	// CodeInjection indicates setting a slot or running a post-construct hook failed
	CodeInjection = "INJECTION"

	// CodeScopeClosed indicates an operation on a container whose scope has ended
	CodeScopeClosed = "SCOPE_CLOSED"
)

// =============================================================================
// SENTINEL ERRORS
// =============================================================================

// ErrConfigurationSentinel is a sentinel error for plan configuration errors (for error checking).
var ErrConfigurationSentinel = errs.NewError(CodeConfiguration, "invalid injection configuration", nil)

// ErrDependencyNotFoundSentinel is a sentinel error for missing dependencies (for error checking).
var ErrDependencyNotFoundSentinel = errs.NewError(CodeDependencyNotFound, "dependency not found", nil)

// ErrInjectionSentinel is a sentinel error for injection failures (for error checking).
var ErrInjectionSentinel = errs.NewError(CodeInjection, "injection failed", nil)

// ErrScopeClosed is returned when the container is used after its scope ended.
var ErrScopeClosed = errs.NewError(CodeScopeClosed, "scope has been closed", nil)

// =============================================================================
// ERROR CONSTRUCTORS
// =============================================================================

// ErrConfiguration creates an error for a type whose injection declarations are invalid
func ErrConfiguration(typ reflect.Type, reason string) *errs.Error {
	return errs.NewError(
		CodeConfiguration,
		fmt.Sprintf("invalid injection configuration on %s: %s", typeName(typ), reason),
		nil,
	).WithContext("type", typeName(typ)).(*errs.Error)
}

// ErrDependencyNotFound creates an error for a dependency that could not be resolved
func ErrDependencyNotFound(key typeKey, cause error) *errs.Error {
	return errs.NewError(
		CodeDependencyNotFound,
		fmt.Sprintf("could not find dependency %s", key),
		cause,
	).WithContext("type", typeName(key.typ)).
		WithContext("name", key.name).(*errs.Error)
}

// NewInjectionError creates an error for a failure while injecting an instance
func NewInjectionError(typ reflect.Type, operation string, cause error) *errs.Error {
	return errs.NewError(
		CodeInjection,
		fmt.Sprintf("error injecting %s during %s", typeName(typ), operation),
		cause,
	).WithContext("type", typeName(typ)).
		WithContext("operation", operation).(*errs.Error)
}

// IsConfigurationError reports whether err is a plan configuration error.
func IsConfigurationError(err error) bool {
	return errors.Is(err, ErrConfigurationSentinel)
}

// IsDependencyNotFound reports whether err is a missing dependency error.
func IsDependencyNotFound(err error) bool {
	return errors.Is(err, ErrDependencyNotFoundSentinel)
}

// IsInjectionError reports whether err is an injection failure.
func IsInjectionError(err error) bool {
	return errors.Is(err, ErrInjectionSentinel)
}

func typeName(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	return t.String()
}

// panicError converts a recovered panic value into an error.
func panicError(r any) error {
	if err, ok := r.(error); ok {
		return err
	}
	return fmt.Errorf("panic: %v", r)
}
