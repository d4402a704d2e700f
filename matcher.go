package testfirst

import (
	"fmt"
	"strings"

	"github.com/stretchr/testify/assert"
)

// Matcher checks the actual value of a then-step.
type Matcher interface {
	Matches(actual any) bool
	String() string
}

// Diagnoser is implemented by matchers that can explain a mismatch.
type Diagnoser interface {
	Diagnose(actual any) string
}

// funcMatcher matches with a plain predicate.
type funcMatcher struct {
	description string
	fn          func(actual any) bool
}

// Match returns a matcher backed by fn.
func Match(description string, fn func(actual any) bool) Matcher {
	return &funcMatcher{description: description, fn: fn}
}

func (m *funcMatcher) Matches(actual any) bool {
	return m.fn(actual)
}

func (m *funcMatcher) String() string {
	return m.description
}

// assertionMatcher adapts a testify assertion. The assertion output becomes
// the mismatch diagnostics.
type assertionMatcher struct {
	description string
	check       func(t assert.TestingT, actual any) bool
}

// collector captures assertion output instead of failing a test.
type collector struct {
	messages []string
}

func (c *collector) Errorf(format string, args ...any) {
	c.messages = append(c.messages, fmt.Sprintf(format, args...))
}

func (m *assertionMatcher) Matches(actual any) bool {
	return m.check(&collector{}, actual)
}

func (m *assertionMatcher) Diagnose(actual any) string {
	c := &collector{}
	if m.check(c, actual) {
		return ""
	}
	return strings.Join(c.messages, "\n")
}

func (m *assertionMatcher) String() string {
	return m.description
}

// Equal matches values equal to expected, as assert.Equal decides.
func Equal(expected any) Matcher {
	return &assertionMatcher{
		description: fmt.Sprintf("equal to %#v", expected),
		check: func(t assert.TestingT, actual any) bool {
			return assert.Equal(t, expected, actual)
		},
	}
}

// NotNil matches anything but nil and nil pointers, maps, slices and funcs.
func NotNil() Matcher {
	return &assertionMatcher{
		description: "not nil",
		check: func(t assert.TestingT, actual any) bool {
			return assert.NotNil(t, actual)
		},
	}
}

// Nil matches nil and typed nils.
func Nil() Matcher {
	return &assertionMatcher{
		description: "nil",
		check: func(t assert.TestingT, actual any) bool {
			return assert.Nil(t, actual)
		},
	}
}

// Empty matches zero values and empty collections.
func Empty() Matcher {
	return &assertionMatcher{
		description: "empty",
		check: func(t assert.TestingT, actual any) bool {
			return assert.Empty(t, actual)
		},
	}
}

// Len matches collections of length n.
func Len(n int) Matcher {
	return &assertionMatcher{
		description: fmt.Sprintf("of length %d", n),
		check: func(t assert.TestingT, actual any) bool {
			return assert.Len(t, actual, n)
		},
	}
}

// Contains matches strings, slices, arrays and maps containing element.
func Contains(element any) Matcher {
	return &assertionMatcher{
		description: fmt.Sprintf("containing %#v", element),
		check: func(t assert.TestingT, actual any) bool {
			return assert.Contains(t, actual, element)
		},
	}
}

// ErrorIs matches errors whose chain contains target.
func ErrorIs(target error) Matcher {
	return &assertionMatcher{
		description: fmt.Sprintf("an error matching %q", target),
		check: func(t assert.TestingT, actual any) bool {
			err, ok := actual.(error)
			if !ok {
				return assert.Fail(t, fmt.Sprintf("%#v is not an error", actual))
			}
			return assert.ErrorIs(t, err, target)
		},
	}
}

// NoError matches a nil error.
func NoError() Matcher {
	return &assertionMatcher{
		description: "no error",
		check: func(t assert.TestingT, actual any) bool {
			if actual == nil {
				return true
			}
			err, ok := actual.(error)
			if !ok {
				return assert.Fail(t, fmt.Sprintf("%#v is not an error", actual))
			}
			return assert.NoError(t, err)
		},
	}
}
