// internal/board/policy.go

package board

import "fmt"

// Policy decides whether a status transition is legal for an entity kind.
// The engine itself places no constraints on transitions; a stricter rule
// set can be layered in (for example from policy plugins) without touching
// the mutation path.
type Policy interface {
	Allow(kind, from, to string) error
}

// PolicyFunc adapts a function to the Policy interface.
type PolicyFunc func(kind, from, to string) error

// Allow implements Policy.
func (f PolicyFunc) Allow(kind, from, to string) error {
	return f(kind, from, to)
}

// AllowAll is the default policy: any status may be set from any other,
// so a manual override is always possible.
func AllowAll() Policy {
	return PolicyFunc(func(string, string, string) error { return nil })
}

// Forbid builds the error a policy returns for an illegal transition.
func Forbid(kind, from, to string) error {
	return fmt.Errorf("board: %s transition %s -> %s is not allowed", kind, from, to)
}
