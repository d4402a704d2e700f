package testfirst

import (
	"fmt"
	"strings"
)

// Invoker is a step action that calls into the system under test.
type Invoker interface {
	Invoke() error
}

// Inserter is a step action that creates test data.
type Inserter interface {
	Insert() error
}

// Deleter is a step action that removes test data.
type Deleter interface {
	Delete() error
}

// Updater is a step action that changes test data.
type Updater interface {
	Update() error
}

// Caller is a step action whose result is discarded.
type Caller interface {
	Call() (any, error)
}

// Fetcher supplies the actual value of a then-step.
type Fetcher interface {
	Fetch() (any, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func() (any, error)

// Fetch implements Fetcher.
func (f FetcherFunc) Fetch() (any, error) {
	return f()
}

// Fetch adapts a typed function to Fetcher.
func Fetch[T any](fn func() (T, error)) Fetcher {
	return FetcherFunc(func() (any, error) {
		return fn()
	})
}

type stepKind int

const (
	givenStep stepKind = iota
	whenStep
	thenStep
)

func (k stepKind) String() string {
	switch k {
	case givenStep:
		return "given"
	case whenStep:
		return "when"
	default:
		return "then"
	}
}

type stepState int

const (
	notRun stepState = iota
	passed
	failed
)

func (s stepState) String() string {
	switch s {
	case passed:
		return "passed"
	case failed:
		return "failed"
	default:
		return "not run"
	}
}

// step is one recorded entry of a scenario.
type step struct {
	kind  stepKind
	args  []string
	state stepState
	err   error
}

func (s *step) String() string {
	line := fmt.Sprintf("%s(%s) %s", s.kind, strings.Join(s.args, ", "), s.state)
	if s.err != nil {
		// Assertion failures carry the whole trace, keep the line short.
		if af, ok := s.err.(*AssertionFailedError); ok {
			return line + ": " + af.Message
		}
		line += ": " + s.err.Error()
	}
	return line
}

// perform runs action, converting a panic into an error.
func perform(action any) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(error); ok {
				err = e
				return
			}
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	switch a := action.(type) {
	case Invoker:
		return a.Invoke()
	case Inserter:
		return a.Insert()
	case Deleter:
		return a.Delete()
	case Updater:
		return a.Update()
	case Caller:
		_, err := a.Call()
		return err
	case func() error:
		return a()
	case func():
		a()
		return nil
	case func() (any, error):
		_, err := a()
		return err
	default:
		return ErrUnsupportedAction(action)
	}
}

// fetch runs fetcher, converting a panic into an error.
func fetch(fetcher Fetcher) (actual any, err error) {
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(error); ok {
				err = e
				return
			}
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fetcher.Fetch()
}

// describe renders a step argument for the trace.
func describe(v any) string {
	switch x := v.(type) {
	case nil:
		return "nil"
	case Matcher:
		return x.String()
	case fmt.Stringer:
		return fmt.Sprintf("%T %s", v, x)
	}
	return fmt.Sprintf("%T", v)
}

// ThenStep is returned by then-steps. It continues the scenario.
type ThenStep struct {
	scenario *Scenario
}

// Scenario returns the scenario the step belongs to.
func (t *ThenStep) Scenario() *Scenario {
	return t.scenario
}

// When adds a when-step running action.
func (t *ThenStep) When(action any) *WhenStep {
	return t.scenario.When(action)
}

// WhenNothing adds a when-step that does nothing.
func (t *ThenStep) WhenNothing() *WhenStep {
	return t.scenario.WhenNothing()
}

// Then adds a then-step matching actual.
func (t *ThenStep) Then(actual any, matcher Matcher) *ThenStep {
	return t.scenario.Then(actual, matcher)
}

// ThenFetch adds a then-step matching the value supplied by fetcher.
func (t *ThenStep) ThenFetch(fetcher Fetcher, matcher Matcher) *ThenStep {
	return t.scenario.ThenFetch(fetcher, matcher)
}

// ThenNothing adds a then-step that always passes.
func (t *ThenStep) ThenNothing() *ThenStep {
	return t.scenario.ThenNothing()
}

// WhenStep is returned by when-steps.
type WhenStep struct {
	ThenStep
}

// GivenStep is returned by given-steps. Only given-steps may add more givens.
type GivenStep struct {
	ThenStep
}

// Given adds another given-step running action.
func (g *GivenStep) Given(action any) *GivenStep {
	return g.scenario.Given(action)
}
