package wiring_test

import (
	"testing"

	"github.com/grindlemire/graft"
)

// TestGraftDependencies validates the dependency injection graph.
func TestGraftDependencies(t *testing.T) {
	// graft.AssertDepsValid infers node IDs from the package name of the
	// interface passed to Dep[T]. All of our nodes resolve interfaces
	// from the shared ports package, which the static analysis cannot
	// tell apart, so the check reports false mismatches.
	t.Skip("graft static analysis cannot distinguish nodes sharing the ports package")
	graft.AssertDepsValid(t, "../../internal")
}
