package router

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"

	"github.com/google/uuid"
)

// Matcher reports whether value is acceptable for a parameter.
//
// Returning false disqualifies the candidate route and resolution moves on.
// Returning an error (or panicking) aborts resolution with a MatcherError.
type Matcher func(value string) (bool, error)

// Predicate adapts a plain predicate to a Matcher.
func Predicate(fn func(value string) bool) Matcher {
	return func(value string) (bool, error) {
		return fn(value), nil
	}
}

// Registry maps matcher names to matchers. It is not modified after it has
// been handed to a Resolver.
type Registry map[string]Matcher

// Names returns the registered names in sorted order.
func (r Registry) Names() []string {
	names := make([]string, 0, len(r))
	for name := range r {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Merge returns a new registry with the entries of r overridden by other.
func (r Registry) Merge(other Registry) Registry {
	out := make(Registry, len(r)+len(other))
	for name, m := range r {
		out[name] = m
	}
	for name, m := range other {
		out[name] = m
	}
	return out
}

// slugRegex matches lowercase hyphenated slugs.
var slugRegex = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// Builtins returns the matchers available to every manifest.
//
//	integer    signed base-10 integer
//	isNumeric  one or more ASCII digits
//	uint       unsigned base-10 integer
//	uuid       canonical 36-character UUID
//	slug       lowercase words joined by single hyphens
func Builtins() Registry {
	return Registry{
		"integer":   Predicate(isInteger),
		"isNumeric": Predicate(isNumeric),
		"uint":      Predicate(isUint),
		"uuid":      Predicate(isUUID),
		"slug":      Predicate(slugRegex.MatchString),
	}
}

// IsBuiltin reports whether name is a builtin matcher.
func IsBuiltin(name string) bool {
	_, ok := Builtins()[name]
	return ok
}

// RegexpMatcher compiles expr into a matcher that accepts values matching it
// in full. The expression is anchored at both ends, so "[0-9]+" rejects
// "abc1".
func RegexpMatcher(expr string) (Matcher, error) {
	re, err := regexp.Compile(`^(?:` + expr + `)$`)
	if err != nil {
		return nil, fmt.Errorf("compile matcher %q: %w", expr, err)
	}
	return Predicate(re.MatchString), nil
}

func isInteger(value string) bool {
	_, err := strconv.ParseInt(value, 10, 64)
	return err == nil
}

func isUint(value string) bool {
	_, err := strconv.ParseUint(value, 10, 64)
	return err == nil
}

func isNumeric(value string) bool {
	if value == "" {
		return false
	}
	for i := 0; i < len(value); i++ {
		if value[i] < '0' || value[i] > '9' {
			return false
		}
	}
	return true
}

func isUUID(value string) bool {
	if len(value) != 36 {
		return false
	}
	_, err := uuid.Parse(value)
	return err == nil
}
