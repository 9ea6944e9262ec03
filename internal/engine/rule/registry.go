package rule

import (
	"sort"
	"strings"
	"sync"

	"go.trai.ch/bake/internal/core/domain"
	"go.trai.ch/bake/internal/engine/inputs"
	"go.trai.ch/bake/internal/engine/pattern"
	"go.trai.ch/zerr"
)

// Registry holds the registered compile rules and answers "which rule
// generates this file".
//
// Rules are bucketed by the first directory under genfiles/; patterns
// whose first component is not literal land in a catch-all bucket, so a
// lookup only ever scans two buckets.
type Registry struct {
	mu      sync.RWMutex
	buckets map[string][]*Rule // "" is the catch-all bucket
	labels  map[string]bool
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		buckets: make(map[string][]*Rule),
		labels:  make(map[string]bool),
	}
}

// Register adds a rule, validating its shape: unique label, output under
// genfiles/ but outside the engine's reserved prefix, and no globbing
// over generated files in static inputs (generated files may not exist
// yet when the glob runs, which would silently drop them).
func (reg *Registry) Register(r *Rule) error {
	out := r.Output.String()
	if !domain.IsGenerated(out) {
		err := zerr.With(zerr.New("rule output must be under the generated-files directory"), "rule", r.Label)
		return zerr.With(err, "output", out)
	}
	if domain.IsReserved(out) {
		return zerr.With(zerr.With(domain.ErrReservedPath, "rule", r.Label), "output", out)
	}
	if r.Computed == nil {
		for _, in := range r.Inputs {
			if domain.IsGenerated(in) && pattern.HasMeta(in) {
				err := zerr.With(zerr.New("globbing over generated files is not supported"), "rule", r.Label)
				return zerr.With(err, "input", in)
			}
		}
	}

	reg.mu.Lock()
	defer reg.mu.Unlock()
	if reg.labels[r.Label] {
		return zerr.With(domain.ErrDuplicateLabel, "label", r.Label)
	}
	reg.labels[r.Label] = true
	reg.buckets[bucketOf(out)] = append(reg.buckets[bucketOf(out)], r)
	return nil
}

// MustRegister panics on a bad rule; for rule registration at startup.
func (reg *Registry) MustRegister(r *Rule) {
	if err := reg.Register(r); err != nil {
		panic(err)
	}
}

// bucketOf returns the first directory under genfiles/ when it is a
// literal, else "".
func bucketOf(name string) string {
	rest := strings.TrimPrefix(name, domain.GenDir+"/")
	seg, _, found := strings.Cut(rest, "/")
	if !found || pattern.HasMeta(seg) || strings.ContainsRune(seg, '{') {
		return ""
	}
	return seg
}

// Find returns the rule generating output.
//
// When several rules match, trumped rules are discarded first, then ties
// break by literal-extension length, then by directory depth, then by
// fewest variables. A tie surviving all of that is ErrAmbiguousRule.
func (reg *Registry) Find(output string) (*Rule, error) {
	if !domain.IsGenerated(output) {
		return nil, zerr.With(domain.ErrBadRequest, "output", output)
	}
	if domain.IsReserved(output) {
		return nil, zerr.With(domain.ErrReservedPath, "output", output)
	}

	reg.mu.RLock()
	defer reg.mu.RUnlock()

	var matches []*Rule
	for _, r := range reg.buckets[bucketOf(output)] {
		if r.Matches(output) {
			matches = append(matches, r)
		}
	}
	if bucketOf(output) != "" {
		for _, r := range reg.buckets[""] {
			if r.Matches(output) {
				matches = append(matches, r)
			}
		}
	}

	switch len(matches) {
	case 0:
		return nil, zerr.With(domain.ErrNoRule, "output", output)
	case 1:
		return matches[0], nil
	}

	matches = dropTrumped(matches)
	if len(matches) == 0 {
		err := zerr.With(domain.ErrAmbiguousRule, "output", output)
		return nil, zerr.With(err, "reason", "matching rules trump each other")
	}
	for _, pick := range []func(*Rule) int{
		func(r *Rule) int { return -r.Output.NumExtensions() },
		func(r *Rule) int { return -r.Output.NumDirParts() },
		func(r *Rule) int { return r.Output.NumVars() },
	} {
		matches = keepBest(matches, pick)
		if len(matches) == 1 {
			return matches[0], nil
		}
	}

	patterns := make([]string, len(matches))
	for i, m := range matches {
		patterns[i] = m.Output.String()
	}
	err := zerr.With(domain.ErrAmbiguousRule, "output", output)
	return nil, zerr.With(err, "patterns", strings.Join(patterns, " "))
}

// dropTrumped removes rules trumped by another rule that also matched.
func dropTrumped(matches []*Rule) []*Rule {
	anyTrumped := false
	for _, m := range matches {
		if len(m.TrumpedBy) > 0 {
			anyTrumped = true
			break
		}
	}
	if !anyTrumped {
		return matches
	}
	present := make(map[string]bool, len(matches))
	for _, m := range matches {
		present[m.Label] = true
	}
	var out []*Rule
	for _, m := range matches {
		trumped := false
		for _, label := range m.TrumpedBy {
			if present[label] {
				trumped = true
				break
			}
		}
		if !trumped {
			out = append(out, m)
		}
	}
	return out
}

// keepBest keeps the rules minimizing score, preserving order.
func keepBest(matches []*Rule, score func(*Rule) int) []*Rule {
	sort.SliceStable(matches, func(i, j int) bool {
		return score(matches[i]) < score(matches[j])
	})
	best := score(matches[0])
	n := 1
	for n < len(matches) && score(matches[n]) == best {
		n++
	}
	return matches[:n]
}

// Rules returns every registered rule. The rule-graph emitter uses it.
func (reg *Registry) Rules() []*Rule {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	var out []*Rule
	for _, bucket := range reg.buckets {
		out = append(out, bucket...)
	}
	return out
}

// Reset empties the registry and clears provider caches; tests use it
// between cases.
func (reg *Registry) Reset() {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	for _, bucket := range reg.buckets {
		for _, r := range bucket {
			if cc, ok := r.Computed.(inputs.CacheClearer); ok {
				cc.ClearCaches()
			}
		}
	}
	reg.buckets = make(map[string][]*Rule)
	reg.labels = make(map[string]bool)
}
