// Package inject provides a single-scope dependency container for test
// scenarios.
//
// Dependencies are declared with struct tags and resolved by type plus an
// optional name:
//
//	type Checkout struct {
//	    _       inject.Lifecycle `postConstruct:"Init" preDestroy:"Release"`
//	    Repo    OrderRepo        `inject:""`
//	    Clock   Clock            `inject:"" name:"utc" optional:"true"`
//	}
//
//	c := inject.New(inject.WithName("checkout happy path"))
//	_ = inject.Bind[OrderRepo](c, newMemoryRepo())
//	checkout, err := inject.Into(c, &Checkout{})
//	...
//	err = c.OnScopeEnd()
//
// Every instance is injected at most once. When the scope ends, pre-destroy
// hooks, io.Closer implementations and ScopeEnder handlers run in the reverse
// order of injection, in that order of passes. After that the container
// rejects further use with ErrScopeClosed.
package inject
