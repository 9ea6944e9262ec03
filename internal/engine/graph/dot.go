package graph

import (
	"fmt"
	"io"
	"sort"
)

// WriteDot renders the rule-level dependency graph in dot format: an
// edge from rule X to rule Y when some file built by Y consumes a file
// built by X, weighted by how many file pairs induce it. Graphing
// individual files is hopeless at scale, rules stay readable.
func (g *Graph) WriteDot(w io.Writer) error {
	fileRules := make(map[string]string, len(g.nodes))
	for output, node := range g.nodes {
		fileRules[output] = node.Rule.Label
	}

	// Terminal rules feed no other rule; they render boxed on one rank.
	terminal := make(map[string]bool)
	for _, label := range fileRules {
		terminal[label] = true
	}

	type edge struct{ from, to string }
	counts := make(map[edge]int)
	for output, node := range g.nodes {
		outputRule := fileRules[output]
		for _, input := range node.Inputs {
			inputRule, ok := fileRules[input]
			if !ok {
				continue // static file
			}
			counts[edge{from: inputRule, to: outputRule}]++
			delete(terminal, inputRule)
		}
	}

	edges := make([]edge, 0, len(counts))
	for e := range counts {
		edges = append(edges, e)
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].from != edges[j].from {
			return edges[i].from < edges[j].from
		}
		return edges[i].to < edges[j].to
	})
	terminals := make([]string, 0, len(terminal))
	for label := range terminal {
		terminals = append(terminals, label)
	}
	sort.Strings(terminals)

	var err error
	p := func(format string, args ...any) {
		if err == nil {
			_, err = fmt.Fprintf(w, format, args...)
		}
	}
	p("// TO VIEW THIS: install \"dot\" and run\n")
	p("//   dot -Tpdf <this file> > /tmp/rule_deps.pdf\n\n")
	p("digraph ruledeps {\n")
	for _, e := range edges {
		p("    %q -> %q [label=\"%d\" weight=%d];\n", e.from, e.to, counts[e], counts[e])
	}
	p("\n    { rank=same;\n")
	for _, label := range terminals {
		p("     %q [shape=box];\n", label)
	}
	p("    }\n}\n")
	return err
}
