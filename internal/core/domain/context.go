package domain

import (
	"fmt"
	"sort"
	"strings"
)

// Context carries per-build key/value settings down to compilers and
// computed-input providers. Pattern variables captured from the output
// name are stored under their brace form ("{lang}", "{{path}}"), so they
// never collide with caller-provided keys.
//
// Keys starting with "_" are set by the engine itself.
type Context map[string]any

// InputMapKey is the engine-set context key holding the full
// output -> inputs map of the current invocation.
const InputMapKey = "_input_map"

// Clone returns a shallow copy. Values are shared; callers must not
// mutate them.
func (c Context) Clone() Context {
	out := make(Context, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

// WithVars returns a copy of c extended with captured pattern variables.
// Variable bindings win over existing keys.
func (c Context) WithVars(vars map[string]string) Context {
	out := c.Clone()
	for k, v := range vars {
		out[k] = v
	}
	return out
}

// Vars extracts the pattern-variable bindings stored in the context.
func (c Context) Vars() map[string]string {
	vars := make(map[string]string)
	for k, v := range c {
		if strings.HasPrefix(k, "{") {
			if s, ok := v.(string); ok {
				vars[k] = s
			}
		}
	}
	return vars
}

// Describe renders the values of the given keys as a stable
// "k1=v1 k2=v2" string. Missing keys render with an empty value, so two
// contexts describe equally only when they agree on every listed key.
func (c Context) Describe(keys []string) string {
	sorted := append([]string(nil), keys...)
	sort.Strings(sorted)
	parts := make([]string, 0, len(sorted))
	for _, k := range sorted {
		parts = append(parts, fmt.Sprintf("%s=%v", k, c[k]))
	}
	return strings.Join(parts, " ")
}
