package testfirst

import (
	"fmt"
	"strings"

	"github.com/xraph/go-utils/errs"
)

// =============================================================================
// ERROR CODES
// =============================================================================

const (
	// CodeStepFailed indicates a step action returned an error or panicked
	CodeStepFailed = "STEP_FAILED"

	// CodeUnsupportedAction indicates a step was given a value it cannot run
	CodeUnsupportedAction = "UNSUPPORTED_ACTION"

	// CodeScenarioEnded indicates a step was added after the scenario ended
	CodeScenarioEnded = "SCENARIO_ENDED"

	// CodeScopeEnd indicates the injector failed to end its scope
	CodeScopeEnd = "SCOPE_END"
)

// =============================================================================
// SENTINEL ERRORS
// =============================================================================

// ErrStepFailedSentinel is a sentinel error for failed steps (for error checking).
var ErrStepFailedSentinel = errs.NewError(CodeStepFailed, "step failed", nil)

// ErrUnsupportedActionSentinel is a sentinel error for unsupported actions (for error checking).
var ErrUnsupportedActionSentinel = errs.NewError(CodeUnsupportedAction, "unsupported action", nil)

// ErrScenarioEnded is recorded for steps added after AssertHasRunAndPassed.
var ErrScenarioEnded = errs.NewError(CodeScenarioEnded, "scenario has ended", nil)

// ErrScopeEndSentinel is a sentinel error for scope end failures (for error checking).
var ErrScopeEndSentinel = errs.NewError(CodeScopeEnd, "scope end failed", nil)

// =============================================================================
// ERROR CONSTRUCTORS
// =============================================================================

// ErrStepFailed creates an error for the step at index whose action failed
func ErrStepFailed(kind string, index int, cause error) *errs.Error {
	return errs.NewError(
		CodeStepFailed,
		fmt.Sprintf("%s step %d failed", kind, index+1),
		cause,
	).WithContext("step", kind).
		WithContext("index", index).(*errs.Error)
}

// ErrUnsupportedAction creates an error for an action of an unknown shape
func ErrUnsupportedAction(action any) *errs.Error {
	return errs.NewError(
		CodeUnsupportedAction,
		fmt.Sprintf("cannot run %T as a step action", action),
		nil,
	).WithContext("type", fmt.Sprintf("%T", action)).(*errs.Error)
}

// ErrScopeEnd creates an error for an injector that failed to end the scope
func ErrScopeEnd(scenario string, cause error) *errs.Error {
	return errs.NewError(
		CodeScopeEnd,
		fmt.Sprintf("ending scope of scenario %q failed", scenario),
		cause,
	).WithContext("scenario", scenario).(*errs.Error)
}

// =============================================================================
// ASSERTION FAILURES
// =============================================================================

// AssertionFailedError reports a violated expectation: a matcher that did not
// match, or a scenario that did not run to a passing then-step. It implements
// AssertionFailed so scope teardown treats it as fatal.
type AssertionFailedError struct {
	Scenario    string
	Message     string
	Diagnostics string
	Trace       []string
	Cause       error
}

func (e *AssertionFailedError) Error() string {
	var b strings.Builder

	fmt.Fprintf(&b, "scenario %q: %s", e.Scenario, e.Message)

	if e.Cause != nil {
		fmt.Fprintf(&b, ": %v", e.Cause)
	}

	if e.Diagnostics != "" {
		b.WriteString("\n==== Diagnostics ====\n")
		b.WriteString(strings.TrimSpace(e.Diagnostics))
	}

	if len(e.Trace) > 0 {
		b.WriteString("\nSteps were:")
		for _, line := range e.Trace {
			b.WriteString("\n  ")
			b.WriteString(line)
		}
	}

	return b.String()
}

func (e *AssertionFailedError) Unwrap() error {
	return e.Cause
}

// AssertionFailed marks the error as an assertion-style failure.
func (e *AssertionFailedError) AssertionFailed() bool {
	return true
}
