package testfirst

import (
	"errors"
	"fmt"

	"github.com/codemucker/codemucker-testfirst/inject"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// Scenario records a linear sequence of given, when and then steps. Every
// step runs as soon as it is added; once a step fails the remaining steps
// are recorded but not run. AssertHasRunAndPassed ends the scenario.
//
// A Scenario is not safe for concurrent use.
type Scenario struct {
	name     string
	injector Injector
	logger   *zap.Logger
	steps    []*step

	scopeOpts []inject.Option
	useScope  bool

	ended  bool
	endErr error
}

// Option configures a Scenario.
type Option func(*Scenario)

// WithInjector sets the injector used to wire step actions and fetchers.
func WithInjector(injector Injector) Option {
	return func(s *Scenario) {
		if injector != nil {
			s.injector = injector
			s.useScope = false
		}
	}
}

// WithScope gives the scenario its own inject.Container, named after the
// scenario and sharing its logger. The options are applied after those.
func WithScope(opts ...inject.Option) Option {
	return func(s *Scenario) {
		s.useScope = true
		s.scopeOpts = opts
	}
}

// WithLogger sets the logger steps are reported to.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Scenario) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewScenario creates a scenario with no steps.
func NewScenario(name string, opts ...Option) *Scenario {
	s := &Scenario{
		name:     name,
		injector: &NullInjector{},
		logger:   zap.NewNop(),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.logger = s.logger.With(zap.String("scenario", name))

	if s.useScope {
		scopeOpts := append([]inject.Option{
			inject.WithName(name),
			inject.WithLogger(s.logger),
		}, s.scopeOpts...)
		s.injector = inject.New(scopeOpts...)
	}

	return s
}

// Name returns the scenario name.
func (s *Scenario) Name() string {
	return s.name
}

// Injector returns the injector wiring this scenario.
func (s *Scenario) Injector() Injector {
	return s.injector
}

// Container returns the scenario's container, or nil when its injector is
// not an *inject.Container.
func (s *Scenario) Container() *inject.Container {
	c, _ := s.injector.(*inject.Container)
	return c
}

// Inject wires instance with the scenario's injector. Nil and basic values
// are returned unchanged.
func (s *Scenario) Inject(instance any) (any, error) {
	if instance == nil {
		return nil, nil
	}
	return s.injector.Inject(instance)
}

// Given adds a given-step running action. Actions are Invoker, Inserter,
// Deleter, Updater, Caller, func(), func() error or func() (any, error)
// values; each is injected before it runs.
func (s *Scenario) Given(action any) *GivenStep {
	s.runAction(givenStep, action)
	return &GivenStep{ThenStep{scenario: s}}
}

// When adds a when-step running action.
func (s *Scenario) When(action any) *WhenStep {
	s.runAction(whenStep, action)
	return &WhenStep{ThenStep{scenario: s}}
}

// WhenNothing adds a when-step that does nothing.
func (s *Scenario) WhenNothing() *WhenStep {
	if st := s.addStep(whenStep); st != nil {
		s.pass(st)
	}
	return &WhenStep{ThenStep{scenario: s}}
}

// Then adds a then-step checking actual against matcher.
func (s *Scenario) Then(actual any, matcher Matcher) *ThenStep {
	if st := s.addStep(thenStep, describe(actual), describe(matcher)); st != nil {
		s.check(st, actual, matcher)
	}
	return &ThenStep{scenario: s}
}

// ThenFetch adds a then-step checking the value supplied by fetcher. The
// fetcher is injected first.
func (s *Scenario) ThenFetch(fetcher Fetcher, matcher Matcher) *ThenStep {
	st := s.addStep(thenStep, describe(fetcher), describe(matcher))
	if st == nil {
		return &ThenStep{scenario: s}
	}

	injected, err := s.Inject(fetcher)
	if err != nil {
		s.fail(st, ErrStepFailed(st.kind.String(), s.indexOf(st), err))
		return &ThenStep{scenario: s}
	}

	f, ok := injected.(Fetcher)
	if !ok {
		s.fail(st, ErrUnsupportedAction(injected))
		return &ThenStep{scenario: s}
	}

	actual, err := fetch(f)
	if err != nil {
		s.fail(st, ErrStepFailed(st.kind.String(), s.indexOf(st), err))
		return &ThenStep{scenario: s}
	}

	s.check(st, actual, matcher)

	return &ThenStep{scenario: s}
}

// ThenNothing adds a then-step that always passes.
func (s *Scenario) ThenNothing() *ThenStep {
	if st := s.addStep(thenStep); st != nil {
		s.pass(st)
	}
	return &ThenStep{scenario: s}
}

// Passed reports whether every step so far passed.
func (s *Scenario) Passed() bool {
	for _, st := range s.steps {
		if st.state != passed {
			return false
		}
	}
	return true
}

// Err returns the failure of the first failed step, or nil.
func (s *Scenario) Err() error {
	for _, st := range s.steps {
		if st.state == failed {
			return st.err
		}
	}
	return nil
}

// Trace describes every step, one line each.
func (s *Scenario) Trace() []string {
	lines := make([]string, len(s.steps))
	for i, st := range s.steps {
		lines[i] = fmt.Sprintf("%d. %s", i+1, st)
	}
	return lines
}

// AssertHasRunAndPassed ends the scenario and checks its steps. The scope is
// ended first, exactly once, by calling the injector's OnScopeEnd if it has
// one; a failure there is returned as is. It then fails with an
// *AssertionFailedError when a step did not pass or the last step is not a
// then-step, or with the failing then-step's own error. A scenario with no
// steps passes.
func (s *Scenario) AssertHasRunAndPassed() error {
	if err := s.end(); err != nil {
		return err
	}

	if !s.Passed() {
		var mismatch *AssertionFailedError
		if errors.As(s.Err(), &mismatch) {
			return mismatch
		}
		return s.assertionFailed("not all steps passed", s.Err())
	}

	if n := len(s.steps); n > 0 && s.steps[n-1].kind != thenStep {
		return s.assertionFailed(
			fmt.Sprintf("last step must be a then step, was %s", s.steps[n-1].kind), nil)
	}

	return nil
}

// Require fails t immediately unless AssertHasRunAndPassed succeeds.
func (s *Scenario) Require(t require.TestingT) {
	if h, ok := t.(interface{ Helper() }); ok {
		h.Helper()
	}
	require.NoError(t, s.AssertHasRunAndPassed())
}

// end ends the injector's scope once and remembers the outcome.
func (s *Scenario) end() error {
	if s.ended {
		return s.endErr
	}
	s.ended = true

	ender, ok := s.injector.(inject.ScopeEnder)
	if !ok {
		return nil
	}

	if err := ender.OnScopeEnd(); err != nil {
		if inject.IsAssertionFailure(err) {
			s.endErr = err
		} else {
			s.endErr = ErrScopeEnd(s.name, err)
		}
		s.logger.Warn("scope end failed", zap.Error(err))
	}

	return s.endErr
}

// addStep records a step and returns it when it should run, or nil when it
// is skipped.
func (s *Scenario) addStep(kind stepKind, args ...string) *step {
	st := &step{kind: kind, args: args}
	s.steps = append(s.steps, st)

	if s.ended {
		s.fail(st, ErrScenarioEnded)
		return nil
	}

	for _, prev := range s.steps[:len(s.steps)-1] {
		if prev.state != passed {
			s.logger.Debug("skipping step after failure",
				zap.Int("index", len(s.steps)), zap.Stringer("step", kind))
			return nil
		}
	}

	return st
}

// runAction injects and runs the action of a given- or when-step.
func (s *Scenario) runAction(kind stepKind, action any) {
	st := s.addStep(kind, describe(action))
	if st == nil {
		return
	}

	injected, err := s.Inject(action)
	if err == nil {
		err = perform(injected)
	}

	if err != nil {
		s.fail(st, ErrStepFailed(kind.String(), s.indexOf(st), err))
		return
	}

	s.pass(st)
}

// check matches actual and records the outcome.
func (s *Scenario) check(st *step, actual any, matcher Matcher) {
	if matcher == nil {
		s.fail(st, ErrStepFailed(st.kind.String(), s.indexOf(st), fmt.Errorf("nil matcher")))
		return
	}

	if matcher.Matches(actual) {
		s.pass(st)
		return
	}

	var diagnostics string
	if d, ok := matcher.(Diagnoser); ok {
		diagnostics = d.Diagnose(actual)
	}

	st.state = failed
	st.err = &AssertionFailedError{
		Scenario:    s.name,
		Message:     fmt.Sprintf("expected %s but was %#v", matcher, actual),
		Diagnostics: diagnostics,
		Trace:       s.Trace(),
	}

	s.logger.Warn("step failed", zap.Int("index", s.indexOf(st)+1),
		zap.Stringer("step", st.kind), zap.String("expected", matcher.String()))
}

func (s *Scenario) pass(st *step) {
	st.state = passed
	s.logger.Debug("step passed", zap.Int("index", s.indexOf(st)+1), zap.Stringer("step", st.kind))
}

func (s *Scenario) fail(st *step, err error) {
	st.state = failed
	st.err = err
	s.logger.Warn("step failed", zap.Int("index", s.indexOf(st)+1),
		zap.Stringer("step", st.kind), zap.Error(err))
}

func (s *Scenario) indexOf(st *step) int {
	for i, candidate := range s.steps {
		if candidate == st {
			return i
		}
	}
	return -1
}

func (s *Scenario) assertionFailed(message string, cause error) *AssertionFailedError {
	return &AssertionFailedError{
		Scenario: s.name,
		Message:  message,
		Trace:    s.Trace(),
		Cause:    cause,
	}
}
