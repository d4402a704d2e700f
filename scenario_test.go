package testfirst

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// Step action fixtures. Each records its calls.

type calls struct {
	names []string
}

func (c *calls) add(name string) {
	c.names = append(c.names, name)
}

type invoker struct {
	c   *calls
	err error
}

func (i *invoker) Invoke() error {
	i.c.add("invoke")
	return i.err
}

type inserter struct{ c *calls }

func (i *inserter) Insert() error {
	i.c.add("insert")
	return nil
}

type deleter struct{ c *calls }

func (d *deleter) Delete() error {
	d.c.add("delete")
	return nil
}

type updater struct{ c *calls }

func (u *updater) Update() error {
	u.c.add("update")
	return nil
}

type caller struct{ c *calls }

func (cl *caller) Call() (any, error) {
	cl.c.add("call")
	return "something", nil
}

type scopeEnder struct {
	c    *calls
	name string
	err  error
}

func (e *scopeEnder) Invoke() error {
	return nil
}

func (e *scopeEnder) OnScopeEnd() error {
	e.c.add("end:" + e.name)
	return e.err
}

var errStep = errors.New("step broke")

func TestScenario_Name(t *testing.T) {
	assert.Equal(t, "MyName", NewScenario("MyName").Name())
}

func TestScenario_NoStepsPasses(t *testing.T) {
	s := NewScenario(t.Name())
	assert.NoError(t, s.AssertHasRunAndPassed())
}

func TestScenario_LastStepMustBeThen(t *testing.T) {
	c := &calls{}
	s := NewScenario(t.Name())
	s.Given(func() { c.add("given") })

	err := s.AssertHasRunAndPassed()
	require.Error(t, err)

	var af *AssertionFailedError
	require.ErrorAs(t, err, &af)
	assert.Contains(t, af.Message, "last step must be a then step")
	assert.True(t, af.AssertionFailed())
	assert.Equal(t, []string{"given"}, c.names)
}

func TestScenario_GivensAreInvoked(t *testing.T) {
	c := &calls{}
	s := NewScenario(t.Name())

	s.Given(func() { c.add("func") }).
		Given(func() error { c.add("func-error"); return nil }).
		Given(func() (any, error) { c.add("func-result"); return 1, nil }).
		Given(&caller{c: c}).
		Given(&invoker{c: c}).
		Given(&inserter{c: c}).
		Given(&deleter{c: c}).
		Given(&updater{c: c}).
		WhenNothing().
		ThenNothing()

	require.NoError(t, s.AssertHasRunAndPassed())
	assert.Equal(t, []string{
		"func", "func-error", "func-result", "call",
		"invoke", "insert", "delete", "update",
	}, c.names)
}

func TestScenario_WhenThenChain(t *testing.T) {
	total := 0
	s := NewScenario(t.Name())

	s.Given(func() { total = 1 }).
		When(func() { total += 2 }).
		Then(&total, NotNil()).
		When(func() { total *= 10 }).
		ThenFetch(Fetch(func() (int, error) { return total, nil }), Equal(30))

	assert.NoError(t, s.AssertHasRunAndPassed())
	assert.True(t, s.Passed())
	assert.Len(t, s.Trace(), 5)
}

func TestScenario_FailedStepSkipsTheRest(t *testing.T) {
	c := &calls{}
	s := NewScenario(t.Name())

	s.Given(&invoker{c: c, err: errStep}).
		When(&inserter{c: c}).
		ThenNothing()

	assert.Equal(t, []string{"invoke"}, c.names)
	assert.False(t, s.Passed())

	stepErr := s.Err()
	assert.ErrorIs(t, stepErr, ErrStepFailedSentinel)
	assert.ErrorIs(t, stepErr, errStep)

	trace := s.Trace()
	require.Len(t, trace, 3)
	assert.Contains(t, trace[0], "given(*testfirst.invoker) failed")
	assert.Contains(t, trace[1], "when(*testfirst.inserter) not run")
	assert.Contains(t, trace[2], "then() not run")

	err := s.AssertHasRunAndPassed()
	var af *AssertionFailedError
	require.ErrorAs(t, err, &af)
	assert.Equal(t, "not all steps passed", af.Message)
	assert.ErrorIs(t, err, errStep)
}

func TestScenario_PanickingStepFails(t *testing.T) {
	s := NewScenario(t.Name())
	s.Given(func() { panic("kaboom") }).ThenNothing()

	assert.ErrorContains(t, s.Err(), "kaboom")
	assert.Error(t, s.AssertHasRunAndPassed())
}

func TestScenario_UnsupportedAction(t *testing.T) {
	s := NewScenario(t.Name())
	s.When(42).ThenNothing()

	assert.ErrorIs(t, s.Err(), ErrUnsupportedActionSentinel)
}

func TestScenario_ThenMismatch(t *testing.T) {
	s := NewScenario(t.Name())
	s.WhenNothing().
		Then(4, Equal(3)).
		ThenNothing()

	err := s.AssertHasRunAndPassed()
	require.Error(t, err)

	var af *AssertionFailedError
	require.ErrorAs(t, err, &af)
	assert.Equal(t, "expected equal to 3 but was 4", af.Message)
	assert.Contains(t, af.Diagnostics, "Not equal")
	assert.Equal(t, []string{
		"1. when() passed",
		"2. then(int, equal to 3) failed",
	}, af.Trace)
	assert.Contains(t, err.Error(), "Steps were:")

	assert.Contains(t, s.Trace()[1], "failed: expected equal to 3 but was 4")
	assert.Contains(t, s.Trace()[2], "not run")
}

func TestScenario_ThenFetchFailure(t *testing.T) {
	s := NewScenario(t.Name())
	s.WhenNothing().
		ThenFetch(FetcherFunc(func() (any, error) { return nil, errStep }), NotNil())

	assert.ErrorIs(t, s.AssertHasRunAndPassed(), errStep)
}

func TestScenario_NilMatcher(t *testing.T) {
	s := NewScenario(t.Name())
	s.Then(1, nil)

	assert.ErrorContains(t, s.Err(), "nil matcher")
}

func TestScenario_StepsAfterEnd(t *testing.T) {
	s := NewScenario(t.Name())
	s.ThenNothing()
	require.NoError(t, s.AssertHasRunAndPassed())

	ran := false
	s.When(func() { ran = true })

	assert.False(t, ran)
	assert.ErrorIs(t, s.Err(), ErrScenarioEnded)
}

func TestScenario_EndsScopeOnce(t *testing.T) {
	c := &calls{}
	s := NewScenario(t.Name())

	s.Given(&scopeEnder{c: c, name: "a"}).
		When(&scopeEnder{c: c, name: "b"}).
		ThenNothing()

	require.NoError(t, s.AssertHasRunAndPassed())
	require.NoError(t, s.AssertHasRunAndPassed())
	assert.Equal(t, []string{"end:b", "end:a"}, c.names)
}

func TestScenario_ScopeEndFailure(t *testing.T) {
	c := &calls{}
	s := NewScenario(t.Name())

	s.Given(&scopeEnder{c: c, name: "a", err: errStep}).ThenNothing()

	err := s.AssertHasRunAndPassed()
	assert.ErrorIs(t, err, ErrScopeEndSentinel)
	assert.ErrorIs(t, err, errStep)
}

func TestScenario_ScopeEndAssertionFailurePropagates(t *testing.T) {
	c := &calls{}
	failure := &AssertionFailedError{Scenario: "inner", Message: "mock expectations not met"}
	s := NewScenario(t.Name())

	s.Given(&scopeEnder{c: c, name: "a"}).
		Given(&scopeEnder{c: c, name: "b", err: failure}).
		ThenNothing()

	err := s.AssertHasRunAndPassed()
	assert.Same(t, failure, err)
	assert.Equal(t, []string{"end:b"}, c.names)
}

func TestScenario_Require(t *testing.T) {
	s := NewScenario(t.Name())
	s.WhenNothing().ThenNothing()
	s.Require(t)
}

func TestScenario_LogsSteps(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	s := NewScenario("logged", WithLogger(zap.New(core)))

	s.Given(func() error { return errStep }).ThenNothing()

	failures := logs.FilterMessage("step failed").All()
	require.Len(t, failures, 1)
	assert.Equal(t, "logged", failures[0].ContextMap()["scenario"])
	assert.Equal(t, 1, logs.FilterMessage("skipping step after failure").Len())
}
