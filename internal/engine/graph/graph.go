// Package graph builds the leveled dependency graph of one invocation.
//
// Every node is one generated file. A node's level is the longest chain
// of generated files beneath it: files depending only on static files
// sit at level 1, and a file's level is one above the highest of its
// dependencies. Building level by level guarantees every input exists
// before its consumer runs.
package graph

import (
	"context"
	"iter"
	"slices"
	"strings"

	"go.trai.ch/bake/internal/core/domain"
	"go.trai.ch/bake/internal/engine/inputs"
	"go.trai.ch/bake/internal/engine/rule"
	"go.trai.ch/zerr"
)

// Node is one generated file in the dependency graph.
type Node struct {
	Rule         *rule.Rule
	Ctx          domain.Context
	Inputs       []string
	NonInputDeps []string

	// Level is 0 while the node's dependencies are still being added; a
	// revisit at level 0 means a cycle.
	Level int
}

// Graph maps output names to their nodes.
type Graph struct {
	nodes map[string]*Node
}

// Node returns the node for output, or nil.
func (g *Graph) Node(output string) *Node { return g.nodes[output] }

// Len returns the number of generated files in the graph.
func (g *Graph) Len() int { return len(g.nodes) }

// All iterates the graph in unspecified order.
func (g *Graph) All() iter.Seq2[string, *Node] {
	return func(yield func(string, *Node) bool) {
		for name, n := range g.nodes {
			if !yield(name, n) {
				return
			}
		}
	}
}

// InputMap returns the output -> inputs map of the whole graph. It is
// installed into every node's context under domain.InputMapKey, giving
// compilers a mini dependency graph to consult.
func (g *Graph) InputMap() map[string][]string {
	out := make(map[string][]string, len(g.nodes))
	for name, n := range g.nodes {
		out[name] = n.Inputs
	}
	return out
}

// FileBuilder brings one generated file up to date outside the leveled
// schedule. The graph builder needs it for files that must exist before
// the graph itself can be finished: trigger files of computed inputs,
// and the inputs those computations then name.
type FileBuilder interface {
	BuildNow(ctx context.Context, output string, node *Node, force bool) error
}

// Builder accumulates a Graph.
type Builder struct {
	registry *rule.Registry
	resolver *inputs.Resolver
	files    FileBuilder
	force    bool

	graph *Graph
	// alreadyBuilt caches immediate builds so shared dependencies are
	// built at most once per invocation.
	alreadyBuilt map[string]bool
	// path is the current recursion chain, for cycle reporting.
	path []string
}

// NewBuilder creates a Builder. files handles the immediate builds.
func NewBuilder(registry *rule.Registry, resolver *inputs.Resolver, files FileBuilder, force bool) *Builder {
	return &Builder{
		registry:     registry,
		resolver:     resolver,
		files:        files,
		force:        force,
		graph:        &Graph{nodes: make(map[string]*Node)},
		alreadyBuilt: make(map[string]bool),
	}
}

// Graph returns the graph built so far.
func (b *Builder) Graph() *Graph { return b.graph }

// Add inserts output and everything it transitively depends on,
// returning output's level. Static files are level 0 and are not stored
// in the graph.
func (b *Builder) Add(ctx context.Context, output string, bctx domain.Context) (int, error) {
	if !domain.IsGenerated(output) {
		return 0, nil
	}

	if node, ok := b.graph.nodes[output]; ok {
		if node.Level == 0 {
			err := zerr.With(domain.ErrCycle, "output", output)
			return 0, zerr.With(err, "via", strings.Join(b.path, " -> "))
		}
		// Shared dependency, possibly reached with a different context.
		// Rules that consult the context declare so via used context
		// keys, which feed the version check; for all others sharing
		// the first-seen node is sound.
		return node.Level, nil
	}

	b.path = append(b.path, output)
	defer func() { b.path = b.path[:len(b.path)-1] }()

	r, err := b.registry.Find(output)
	if err != nil {
		return 0, err
	}
	vars, err := r.Vars(output)
	if err != nil {
		return 0, err
	}
	outCtx := bctx.WithVars(vars)

	// Trigger files must exist before computed inputs can run. They are
	// built one at a time: an include scan cannot know its later
	// triggers until the earlier ones are on disk.
	if r.Computed != nil {
		for trigger, terr := range b.resolver.TriggerFiles(r.Computed, output, outCtx) {
			if terr != nil {
				return 0, terr
			}
			if err := b.buildNow(ctx, trigger, bctx); err != nil {
				return 0, err
			}
		}
	}

	inputFiles, err := r.InputFiles(b.resolver, output, outCtx, b.force)
	if err != nil {
		return 0, err
	}
	nonInputDeps, err := r.NonInputDepFiles(b.resolver.Project().Root(), output, outCtx)
	if err != nil {
		return 0, err
	}
	symlinkTo, err := r.SymlinkTarget(b.resolver.Project().Root(), output, outCtx)
	if err != nil {
		return 0, err
	}
	// The symlink candidate is a non-input dep: building it first gives
	// us a chance to link to it instead of compiling.
	if symlinkTo != "" && symlinkTo != output && !slices.Contains(nonInputDeps, symlinkTo) {
		nonInputDeps = append(nonInputDeps, symlinkTo)
	}

	node := &Node{
		Rule:         r,
		Ctx:          outCtx,
		Inputs:       inputFiles,
		NonInputDeps: nonInputDeps,
	}
	b.graph.nodes[output] = node

	deps := append([]string(nil), inputFiles...)
	uniqueExtend(&deps, nonInputDeps)

	maxDepLevel := 0
	for _, dep := range deps {
		if dep == output {
			err := zerr.With(domain.ErrCycle, "output", output)
			return 0, zerr.With(err, "via", "depends on itself")
		}
		depLevel, err := b.Add(ctx, dep, bctx)
		if err != nil {
			return 0, err
		}
		if depLevel > maxDepLevel {
			maxDepLevel = depLevel
		}
	}

	node.Level = maxDepLevel + 1
	return node.Level, nil
}

// buildNow runs an immediate build of output and, recursively, of
// everything it needs, outside the leveled graph.
func (b *Builder) buildNow(ctx context.Context, output string, bctx domain.Context) error {
	if !domain.IsGenerated(output) || b.alreadyBuilt[output] {
		return nil
	}

	r, err := b.registry.Find(output)
	if err != nil {
		return err
	}
	vars, err := r.Vars(output)
	if err != nil {
		return err
	}
	outCtx := bctx.WithVars(vars)

	if r.Computed != nil {
		for trigger, terr := range b.resolver.TriggerFiles(r.Computed, output, outCtx) {
			if terr != nil {
				return terr
			}
			if err := b.buildNow(ctx, trigger, bctx); err != nil {
				return err
			}
		}
	}

	inputFiles, err := r.InputFiles(b.resolver, output, outCtx, b.force)
	if err != nil {
		return err
	}
	for _, in := range inputFiles {
		if err := b.buildNow(ctx, in, bctx); err != nil {
			return err
		}
	}

	nonInputDeps, err := r.NonInputDepFiles(b.resolver.Project().Root(), output, outCtx)
	if err != nil {
		return err
	}
	symlinkTo, err := r.SymlinkTarget(b.resolver.Project().Root(), output, outCtx)
	if err != nil {
		return err
	}
	if symlinkTo != "" && symlinkTo != output && !slices.Contains(nonInputDeps, symlinkTo) {
		nonInputDeps = append(nonInputDeps, symlinkTo)
	}
	for _, dep := range nonInputDeps {
		if err := b.buildNow(ctx, dep, bctx); err != nil {
			return err
		}
	}

	node := &Node{
		Rule:         r,
		Ctx:          outCtx,
		Inputs:       inputFiles,
		NonInputDeps: nonInputDeps,
		Level:        1,
	}
	if err := b.files.BuildNow(ctx, output, node, b.force); err != nil {
		return err
	}
	b.alreadyBuilt[output] = true
	return nil
}

// uniqueExtend appends each item of extra not already in *list.
func uniqueExtend(list *[]string, extra []string) {
	seen := make(map[string]bool, len(*list))
	for _, v := range *list {
		seen[v] = true
	}
	for _, v := range extra {
		if !seen[v] {
			seen[v] = true
			*list = append(*list, v)
		}
	}
}
