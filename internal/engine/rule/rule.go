// Package rule defines compile rules and the registry that maps
// generated file names to the rule that builds them.
package rule

import (
	"go.trai.ch/bake/internal/core/domain"
	"go.trai.ch/bake/internal/core/ports"
	"go.trai.ch/bake/internal/engine/inputs"
	"go.trai.ch/bake/internal/engine/pattern"
	"go.trai.ch/zerr"
)

// Rule says how to produce the files matching one output pattern.
type Rule struct {
	// Label uniquely names the rule, for logs and for TrumpedBy.
	Label string

	// Output is the pattern of files this rule generates. It must lie
	// under the generated-files directory.
	Output *pattern.Pattern

	// Inputs are static input patterns, resolved against the variables
	// captured from the output name. Ignored when Computed is set.
	Inputs []string

	// Computed derives the input list at build time.
	Computed inputs.Computed

	// Compiler builds the outputs.
	Compiler ports.Compiler

	// NonInputDeps are files that must exist before the compiler runs
	// but whose changes do not trigger rebuilds.
	NonInputDeps []string

	// SymlinkTo, when set, names a pattern for a sibling output; if that
	// sibling was built from identical input states, this output becomes
	// a symlink to it instead of being compiled again.
	SymlinkTo string

	// Checksum compares this rule's files by content checksum when
	// mtimes differ.
	Checksum bool

	// TrumpedBy lists labels of rules that win when both match a name.
	TrumpedBy []string
}

// Matches reports whether the rule generates name.
func (r *Rule) Matches(name string) bool {
	return r.Output.Matches(name)
}

// Vars returns the pattern variables captured from output.
func (r *Rule) Vars(output string) (map[string]string, error) {
	vars, ok := r.Output.Match(output)
	if !ok {
		err := zerr.With(zerr.New("output does not match rule"), "output", output)
		return nil, zerr.With(err, "rule", r.Label)
	}
	return vars, nil
}

// InputPatterns returns the rule's input patterns for output, running
// the computed-inputs provider when the rule has one.
func (r *Rule) InputPatterns(res *inputs.Resolver, output string, ctx domain.Context, force bool) ([]string, error) {
	if r.Computed != nil {
		return res.InputPatterns(r.Computed, output, ctx, force)
	}
	return r.Inputs, nil
}

// InputFiles resolves the rule's input patterns to concrete file names.
func (r *Rule) InputFiles(res *inputs.Resolver, output string, ctx domain.Context, force bool) ([]string, error) {
	patterns, err := r.InputPatterns(res, output, ctx, force)
	if err != nil {
		return nil, err
	}
	return pattern.Resolve(res.Project().Root(), patterns, ctx.Vars())
}

// NonInputDepFiles resolves the rule's non-input dependencies.
func (r *Rule) NonInputDepFiles(root, output string, ctx domain.Context) ([]string, error) {
	return pattern.Resolve(root, r.NonInputDeps, ctx.Vars())
}

// SymlinkTarget resolves the SymlinkTo pattern for output, or returns ""
// when the rule has none. The pattern must name exactly one file.
func (r *Rule) SymlinkTarget(root, output string, ctx domain.Context) (string, error) {
	if r.SymlinkTo == "" {
		return "", nil
	}
	resolved, err := pattern.Resolve(root, []string{r.SymlinkTo}, ctx.Vars())
	if err != nil {
		return "", err
	}
	if len(resolved) != 1 {
		err := zerr.With(zerr.New("symlink pattern must name exactly one file"), "rule", r.Label)
		return "", zerr.With(err, "pattern", r.SymlinkTo)
	}
	return resolved[0], nil
}
