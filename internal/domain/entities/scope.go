package entities

import "fmt"

// Scope controls on which classpath a dependency lands and whether it is
// carried over to dependents.
type Scope string

const (
	ScopeCompile  Scope = "compile"
	ScopeRuntime  Scope = "runtime"
	ScopeTest     Scope = "test"
	ScopeProvided Scope = "provided"
)

// ParseScope maps an empty string to compile.
func ParseScope(raw string) (Scope, error) {
	switch Scope(raw) {
	case "":
		return ScopeCompile, nil
	case ScopeCompile, ScopeRuntime, ScopeTest, ScopeProvided:
		return Scope(raw), nil
	default:
		return "", fmt.Errorf("unknown scope %q", raw)
	}
}

// PropagateScope computes the scope of a transitive dependency declared with
// child scope by an artifact that is itself in parent scope. The boolean is
// false when the dependency is not transitive at all (test and provided
// dependencies of a dependency never reach the dependent).
//
//	parent \ child | compile  runtime
//	compile        | compile  runtime
//	runtime        | runtime  runtime
//	provided       | provided provided
//	test           | test     test
func PropagateScope(parent, child Scope) (Scope, bool) {
	if child != ScopeCompile && child != ScopeRuntime {
		return "", false
	}
	switch parent {
	case ScopeCompile:
		return child, true
	case ScopeRuntime:
		return ScopeRuntime, true
	case ScopeProvided:
		return ScopeProvided, true
	case ScopeTest:
		return ScopeTest, true
	default:
		return "", false
	}
}

// WidestScope merges the scopes one artifact is reached through. Compile
// wins over everything, and runtime together with provided is needed on both
// classpaths, which only compile covers.
func WidestScope(a, b Scope) Scope {
	switch {
	case a == b:
		return a
	case a == ScopeCompile || b == ScopeCompile:
		return ScopeCompile
	case a == ScopeTest:
		return b
	case b == ScopeTest:
		return a
	default:
		return ScopeCompile
	}
}
