// Package inputs implements computed inputs: rules whose input list is
// derived at build time instead of being written down in the rule.
//
// A provider declares trigger patterns; whenever a trigger file changes,
// the input list is recomputed and persisted next to the output in a
// ".deps" sidecar file. Until then the last computed list is reused, so
// a no-op build never runs provider code on unchanged trees.
package inputs

import (
	"fmt"
	"iter"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"go.trai.ch/bake/internal/core/domain"
	"go.trai.ch/bake/internal/core/ports"
	"go.trai.ch/bake/internal/engine/pattern"
	"go.trai.ch/zerr"
)

// CurrentInputs is a special trigger pattern: it expands to the
// previously computed input list. Use it to say "when any of my inputs
// changes, recompute which inputs I have" rather than just "recompile".
const CurrentInputs = "//current inputs//"

// Computed derives a rule's input patterns at build time.
type Computed interface {
	// Version identifies the computation. Bump it when the same tree
	// would now yield different inputs.
	Version() int

	// TriggerPatterns lists the file patterns whose changes invalidate
	// the computed input list. May include CurrentInputs.
	TriggerPatterns() []string

	// Inputs recomputes the input patterns for output. triggers is the
	// resolved trigger list and changed the subset that differs since
	// the last computation; both are nil for always-recompute providers.
	Inputs(output string, ctx domain.Context, triggers, changed []string) ([]string, error)
}

// AlwaysRecompute marks a provider whose inputs are recomputed on every
// build, with no trigger tracking at all.
type AlwaysRecompute interface {
	RecomputeAlways() bool
}

// TriggerSource lets a provider generate its trigger list dynamically,
// one file at a time. The resolver follows include scans this way: each
// yielded trigger can be built before the scan continues into it.
type TriggerSource interface {
	Triggers(r *Resolver, output string, ctx domain.Context) iter.Seq2[string, error]
}

// VersionDescriber overrides the default full-version string for
// providers whose behavior depends on more than their Version number.
type VersionDescriber interface {
	FullVersion(ctx domain.Context) string
}

// ChecksumTriggers marks a provider whose trigger files should be
// compared by content checksum, not just mtime.
type ChecksumTriggers interface {
	ChecksumTriggers() bool
}

// CacheClearer is implemented by providers holding memo caches that
// tests need to reset between cases.
type CacheClearer interface {
	ClearCaches()
}

// FullVersion renders a provider's complete version string.
func FullVersion(c Computed, ctx domain.Context) string {
	if vd, ok := c.(VersionDescriber); ok {
		return vd.FullVersion(ctx)
	}
	v := fmt.Sprintf("%T.%d", c, c.Version())
	if cku, ok := c.(ports.ContextKeysUser); ok {
		if keys := cku.UsedContextKeys(); len(keys) > 0 {
			v += " " + ctx.Describe(keys)
		}
	}
	return v
}

// DepsFile is the sidecar file holding output's computed input patterns.
func DepsFile(output string) string { return output + ".deps" }

// Resolver runs computed-input providers and caches their results.
type Resolver struct {
	project *domain.Project
	store   ports.SnapshotStore
	log     ports.Logger

	mu      sync.Mutex
	current map[string][]string // depsfile -> last computed patterns
}

// NewResolver creates a Resolver backed by the given snapshot store.
func NewResolver(project *domain.Project, store ports.SnapshotStore, log ports.Logger) *Resolver {
	return &Resolver{
		project: project,
		store:   store,
		log:     log,
		current: make(map[string][]string),
	}
}

// Project returns the project the resolver operates on.
func (r *Resolver) Project() *domain.Project { return r.project }

// Store returns the snapshot store providers may consult.
func (r *Resolver) Store() ports.SnapshotStore { return r.store }

// Reset drops the resolver's caches. Tests use it between cases.
func (r *Resolver) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.current = make(map[string][]string)
}

// TriggerFiles yields output's resolved trigger files. Always-recompute
// providers have none. A CurrentInputs entry expands to the previously
// computed input list.
func (r *Resolver) TriggerFiles(c Computed, output string, ctx domain.Context) iter.Seq2[string, error] {
	if ar, ok := c.(AlwaysRecompute); ok && ar.RecomputeAlways() {
		return func(yield func(string, error) bool) {}
	}
	if ts, ok := c.(TriggerSource); ok {
		return ts.Triggers(r, output, ctx)
	}
	return func(yield func(string, error) bool) {
		resolved, err := pattern.Resolve(r.project.Root(), withoutCurrentInputs(c.TriggerPatterns()), ctx.Vars())
		if err != nil {
			yield("", err)
			return
		}
		if slices.Contains(c.TriggerPatterns(), CurrentInputs) {
			uniqueExtend(&resolved, r.currentPatterns(DepsFile(output)))
		}
		for _, name := range resolved {
			if !yield(name, nil) {
				return
			}
		}
	}
}

// InputPatterns returns output's input patterns, recomputing them first
// when a trigger changed (or force is set). The sidecar file and its
// snapshot record are kept in step.
func (r *Resolver) InputPatterns(c Computed, output string, ctx domain.Context, force bool) ([]string, error) {
	depsfile := DepsFile(output)

	if ar, ok := c.(AlwaysRecompute); ok && ar.RecomputeAlways() {
		// Trigger and changed lists are meaningless here.
		if err := r.recalculate(c, depsfile, output, ctx, nil, nil); err != nil {
			return nil, err
		}
		return r.currentPatterns(depsfile), nil
	}

	var triggers []string
	for name, err := range r.TriggerFiles(c, output, ctx) {
		if err != nil {
			return nil, err
		}
		triggers = append(triggers, name)
	}

	opts := ports.ChangeOptions{Version: FullVersion(c, ctx)}
	if ct, ok := c.(ChecksumTriggers); ok {
		opts.Checksum = ct.ChecksumTriggers()
	}
	changed, err := r.store.ChangedFiles(depsfile, triggers, opts)
	if err != nil {
		return nil, err
	}

	staged := len(changed) > 0
	if force || staged {
		if force || slices.Contains(changed, depsfile) {
			// Forced, or the sidecar changed under us: we cannot tell
			// which inputs moved, so assume all of them did.
			changed = triggers
		}
		if err := r.recalculate(c, depsfile, output, ctx, triggers, changed); err != nil {
			r.store.Abandon()
			return nil, err
		}
		if staged {
			if err := r.store.Commit(depsfile); err != nil {
				return nil, err
			}
		}
	}

	// When the triggers include the current inputs, a recompute changes
	// the trigger set itself; re-key the snapshot record to match.
	if len(changed) > 0 && slices.Contains(c.TriggerPatterns(), CurrentInputs) {
		var newTriggers []string
		for name, err := range r.TriggerFiles(c, output, ctx) {
			if err != nil {
				return nil, err
			}
			newTriggers = append(newTriggers, name)
		}
		rekeyed, err := r.store.ChangedFiles(depsfile, newTriggers, opts)
		if err != nil {
			return nil, err
		}
		if len(rekeyed) > 0 {
			// The sidecar is already correct; only the record moves.
			if err := r.store.Commit(depsfile); err != nil {
				return nil, err
			}
		}
	}

	return r.currentPatterns(depsfile), nil
}

// currentPatterns returns the persisted input patterns for a sidecar
// file, reading it at most once per Reset.
func (r *Resolver) currentPatterns(depsfile string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cached, ok := r.current[depsfile]; ok {
		return cached
	}
	var patterns []string
	data, err := os.ReadFile(r.project.Join(depsfile))
	if err == nil && len(data) > 0 {
		patterns = strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	}
	r.current[depsfile] = patterns
	return patterns
}

func (r *Resolver) recalculate(c Computed, depsfile, output string, ctx domain.Context, triggers, changed []string) error {
	r.log.Debug("recalculating inputs", "output", output)
	patterns, err := c.Inputs(output, ctx, triggers, changed)
	if err != nil {
		return zerr.With(zerr.Wrap(err, "computed inputs failed"), "output", output)
	}

	abs := r.project.Join(depsfile)
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to create deps directory"), "output", output)
	}
	if err := os.WriteFile(abs, []byte(strings.Join(patterns, "\n")), 0o644); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to write deps file"), "output", output)
	}
	r.log.Debug("WROTE", "file", depsfile)

	r.mu.Lock()
	r.current[depsfile] = patterns
	r.mu.Unlock()
	return nil
}

func withoutCurrentInputs(patterns []string) []string {
	out := make([]string, 0, len(patterns))
	for _, p := range patterns {
		if p != CurrentInputs {
			out = append(out, p)
		}
	}
	return out
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
