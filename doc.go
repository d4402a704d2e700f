// Package testfirst is a Given/When/Then scenario DSL for Go tests.
//
// A Scenario records steps as they run. Step actions and fetchers are handed
// to an Injector before they run, normally an *inject.Container scoped to
// the scenario, so their dependencies are filled from the scenario's
// bindings:
//
//	s := testfirst.NewScenario(t.Name(), testfirst.WithScope())
//	_ = inject.Bind[UserRepo](s.Container(), repo)
//
//	s.Given(&insertUser{Name: "alice"}).
//	    When(&renameUser{From: "alice", To: "bob"}).
//	    ThenFetch(testfirst.Fetch(repo.Names), testfirst.Equal([]string{"bob"}))
//
//	s.Require(t)
//
// AssertHasRunAndPassed (and Require) end the container's scope, which tears
// down everything injected during the scenario in reverse order.
package testfirst
