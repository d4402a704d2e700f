package testfirst_test

import (
	"errors"
	"sort"
	"testing"

	testfirst "github.com/codemucker/codemucker-testfirst"
	"github.com/codemucker/codemucker-testfirst/inject"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// UserRepo is the collaborator the scenario steps share.
type UserRepo interface {
	Add(name string) error
	Rename(from, to string) error
	Names() ([]string, error)
}

type memoryRepo struct {
	users  map[string]bool
	events *[]string
}

func newMemoryRepo(events *[]string) *memoryRepo {
	return &memoryRepo{users: make(map[string]bool), events: events}
}

func (r *memoryRepo) Add(name string) error {
	if r.users[name] {
		return errors.New("duplicate user " + name)
	}
	r.users[name] = true
	return nil
}

func (r *memoryRepo) Rename(from, to string) error {
	if !r.users[from] {
		return errors.New("no user " + from)
	}
	delete(r.users, from)
	r.users[to] = true
	return nil
}

func (r *memoryRepo) Names() ([]string, error) {
	names := make([]string, 0, len(r.users))
	for name := range r.users {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (r *memoryRepo) Close() error {
	*r.events = append(*r.events, "repo closed")
	return nil
}

type insertUser struct {
	Repo UserRepo `inject:""`
	Name string
}

func (i *insertUser) Insert() error {
	return i.Repo.Add(i.Name)
}

type renameUser struct {
	_ inject.Lifecycle `preDestroy:"Undo"`

	Repo     UserRepo `inject:""`
	From, To string
	events   *[]string
}

func (r *renameUser) Invoke() error {
	return r.Repo.Rename(r.From, r.To)
}

func (r *renameUser) Undo() {
	*r.events = append(*r.events, "rename destroyed")
}

type userNames struct {
	Repo UserRepo `inject:""`
}

func (u *userNames) Fetch() (any, error) {
	return u.Repo.Names()
}

type auditCheck struct {
	Expected int      `inject:"" name:"expected-users"`
	Repo     UserRepo `inject:""`
}

func (a *auditCheck) OnScopeEnd() error {
	names, _ := a.Repo.Names()
	if len(names) != a.Expected {
		return &testfirst.AssertionFailedError{Message: "audit failed"}
	}
	return nil
}

func (a *auditCheck) Invoke() error {
	return nil
}

func TestScenarioWithContainer(t *testing.T) {
	var events []string
	s := testfirst.NewScenario(t.Name(), testfirst.WithScope())
	require.NotNil(t, s.Container())
	require.NoError(t, inject.Bind[UserRepo](s.Container(), newMemoryRepo(&events)))

	s.Given(&insertUser{Name: "alice"}).
		Given(&insertUser{Name: "carol"}).
		When(&renameUser{From: "alice", To: "bob", events: &events}).
		ThenFetch(&userNames{}, testfirst.Equal([]string{"bob", "carol"}))

	s.Require(t)

	assert.Equal(t, []string{"rename destroyed", "repo closed"}, events)
	assert.True(t, s.Container().Closed())
}

func TestScenarioWithContainer_MissingBinding(t *testing.T) {
	s := testfirst.NewScenario(t.Name(), testfirst.WithScope())

	s.Given(&insertUser{Name: "alice"}).ThenNothing()

	assert.True(t, inject.IsDependencyNotFound(s.Err()))
	assert.Error(t, s.AssertHasRunAndPassed())
}

func TestScenarioWithContainer_AssertionAtScopeEnd(t *testing.T) {
	var events []string
	c := inject.New()
	require.NoError(t, inject.Bind[UserRepo](c, newMemoryRepo(&events)))
	require.NoError(t, inject.BindNamed(c, "expected-users", 2))

	s := testfirst.NewScenario(t.Name(), testfirst.WithInjector(c))
	s.Given(&auditCheck{}).
		When(&insertUser{Name: "dave"}).
		ThenNothing()

	err := s.AssertHasRunAndPassed()
	require.Error(t, err)
	assert.True(t, inject.IsAssertionFailure(err))
	assert.ErrorContains(t, err, "audit failed")
}

func TestScenarioWithContainer_ScopeOptions(t *testing.T) {
	s := testfirst.NewScenario("named scope", testfirst.WithScope(inject.WithSkipIfSet(false)))
	assert.Equal(t, "named scope", s.Container().Name())

	plain := testfirst.NewScenario("plain", testfirst.WithScope(), testfirst.WithInjector(&testfirst.NullInjector{}))
	assert.Nil(t, plain.Container(), "an explicit injector replaces the scope")
}
