package scheduler

import (
	"sort"

	"go.trai.ch/bake/internal/core/ports"
	"go.trai.ch/bake/internal/engine/graph"
)

// member is one output scheduled within a group.
type member struct {
	output string
	node   *graph.Node
}

// group collects the outputs sharing one compiler instance at one
// level, so its stale members can be handed to that compiler together
// even when several rules reuse the instance. The label is the smallest
// member rule label; it only orders groups within a level.
type group struct {
	level   int
	label   string
	members []member
}

// groups partitions the graph into (level, compiler) groups, ordered by
// level so dependencies always run before their consumers. Within a
// level the order is by label, then output name, purely for
// determinism. Compilers are pointer-typed, so the interface key is
// comparable.
func groups(g *graph.Graph) []group {
	type key struct {
		level int
		comp  ports.Compiler
	}
	byKey := make(map[key]*group)
	for output, node := range g.All() {
		k := key{level: node.Level, comp: node.Rule.Compiler}
		grp, ok := byKey[k]
		if !ok {
			grp = &group{level: node.Level, label: node.Rule.Label}
			byKey[k] = grp
		} else if node.Rule.Label < grp.label {
			grp.label = node.Rule.Label
		}
		grp.members = append(grp.members, member{output: output, node: node})
	}

	out := make([]group, 0, len(byKey))
	for _, grp := range byKey {
		sort.Slice(grp.members, func(i, j int) bool {
			return grp.members[i].output < grp.members[j].output
		})
		out = append(out, *grp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].level != out[j].level {
			return out[i].level < out[j].level
		}
		return out[i].label < out[j].label
	})
	return out
}

// partition splits the stale requests of one group into batches. A
// compiler that implements ports.Splitter shapes its own partition; one
// that reports a preferred batch size gets chunks of that size; plain
// compilers get one request per batch.
func partition(comp ports.Compiler, reqs []ports.BuildRequest, workers, maxBatch int) [][]ports.BuildRequest {
	if sp, ok := comp.(ports.Splitter); ok {
		var batches [][]ports.BuildRequest
		for _, part := range sp.SplitOutputs(reqs, workers) {
			batches = append(batches, chunk(part, maxBatch)...)
		}
		return batches
	}
	if bc, ok := comp.(ports.BatchCompiler); ok && bc.NumOutputs() > 0 {
		size := bc.NumOutputs()
		if size > maxBatch {
			size = maxBatch
		}
		return chunk(reqs, size)
	}
	return chunk(reqs, 1)
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

func chunk(reqs []ports.BuildRequest, size int) [][]ports.BuildRequest {
	if size < 1 {
		size = 1
	}
	var out [][]ports.BuildRequest
	for len(reqs) > size {
		out = append(out, reqs[:size])
		reqs = reqs[size:]
	}
	if len(reqs) > 0 {
		out = append(out, reqs)
	}
	return out
}
