package inject

import (
	"reflect"
	"testing"
)

// Benchmark container construction.
func BenchmarkNew(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_ = New()
	}
}

// Benchmark injection with a warm plan cache.
func BenchmarkInject_FieldSlot(b *testing.B) {
	c := New()
	_ = c.Provide(&Foo{Value: "v"})

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = c.Inject(&Bar{})
	}
}

func BenchmarkInject_SetterSlots(b *testing.B) {
	c := New()
	_ = c.Provide(&Foo{Value: "v"})

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = c.Inject(&setterTarget{})
	}
}

// Benchmark the at-most-once fast path.
func BenchmarkInject_AlreadyInjected(b *testing.B) {
	c := New()
	_ = c.Provide(&Foo{Value: "v"})
	bar := &Bar{}
	_, _ = c.Inject(bar)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = c.Inject(bar)
	}
}

func BenchmarkBuildPlan(b *testing.B) {
	typ := reflect.TypeFor[*hooked]()
	for i := 0; i < b.N; i++ {
		_, _ = buildPlan(typ, true)
	}
}

func BenchmarkResolve_ExactKey(b *testing.B) {
	c := New()
	_ = c.Provide(&Foo{Value: "v"})

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = Resolve[*Foo](c)
	}
}

func BenchmarkResolve_AssignableScan(b *testing.B) {
	c := New()
	for i := 0; i < 10; i++ {
		_ = c.ProvideNamed("filler", &Foo{Value: "filler"})
	}
	_ = c.Provide(&englishGreeter{})

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = Resolve[Greeter](c)
	}
}

// Benchmark a full scope: bind, inject, tear down.
func BenchmarkScope(b *testing.B) {
	rec := &recorder{}
	for i := 0; i < b.N; i++ {
		c := New()
		_ = c.Provide(&Foo{Value: "v"})
		_, _ = c.Inject(&Bar{})
		_, _ = c.Inject(&everything{name: "e", rec: rec})
		_ = c.OnScopeEnd()
	}
}
