package inputs

import (
	"iter"
	"os"
	"path"
	"regexp"
	"strings"
	"sync"

	"go.trai.ch/bake/internal/core/domain"
	"go.trai.ch/bake/internal/engine/pattern"
	"go.trai.ch/zerr"
)

// IncludeInputs computes a rule's inputs by following include-style
// references: starting from a base file, a regexp extracts referenced
// file names, which are scanned in turn. The transitive closure becomes
// both the trigger set and the input list, so editing any reachable
// file re-runs the scan.
type IncludeInputs struct {
	// Base is the file pattern to start scanning from; it is always the
	// first input.
	Base string

	// Include extracts one referenced file name per match via its single
	// capture group. The name is resolved relative to the including
	// file's directory unless ResolvePath overrides that.
	Include *regexp.Regexp

	// Other are extra input patterns appended after the discovered ones.
	// They do not trigger rescans.
	Other []string

	// Checksum compares scanned files by content, not just mtime.
	Checksum bool

	// ResolvePath maps an extracted reference to a root-relative name.
	// The default joins it to the including file's directory.
	ResolvePath func(includer, reference string, ctx domain.Context) string

	mu          sync.Mutex
	memo        map[string]includeEntry
	memoVersion string
}

type includeEntry struct {
	files []string
	info  domain.FileInfo
}

// NewIncludeInputs compiles includeRegexp and returns an include
// scanner. The regexp must contain exactly one capture group.
func NewIncludeInputs(base, includeRegexp string, other ...string) *IncludeInputs {
	re := regexp.MustCompile("(?m)" + includeRegexp)
	if re.NumSubexp() != 1 {
		panic("include regexp must have exactly one capture group: " + includeRegexp)
	}
	return &IncludeInputs{
		Base:    base,
		Include: re,
		Other:   other,
		memo:    make(map[string]includeEntry),
	}
}

// Version never changes; the full version below carries the state that
// actually varies.
func (c *IncludeInputs) Version() int { return 1 }

// TriggerPatterns is unused: Triggers generates the set dynamically.
// It still names the base pattern for introspection.
func (c *IncludeInputs) TriggerPatterns() []string { return []string{c.Base} }

// ChecksumTriggers reports whether scanned files are checksummed.
func (c *IncludeInputs) ChecksumTriggers() bool { return c.Checksum }

// FullVersion folds the regexp and the extra inputs into the version,
// so changing either invalidates previous scans.
func (c *IncludeInputs) FullVersion(_ domain.Context) string {
	parts := append([]string{"IncludeInputs", "1"}, c.Other...)
	parts = append(parts, c.Include.String())
	return strings.Join(parts, ".")
}

// ClearCaches drops the include memo.
func (c *IncludeInputs) ClearCaches() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.memo = make(map[string]includeEntry)
	c.memoVersion = ""
}

// Triggers yields the transitive include closure of the base pattern,
// breadth first. Each file is yielded before it is scanned, giving the
// caller a chance to build it first; files already seen are skipped, so
// include cycles terminate.
func (c *IncludeInputs) Triggers(r *Resolver, output string, ctx domain.Context) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		files, err := pattern.Resolve(r.project.Root(), []string{c.Base}, ctx.Vars())
		if err != nil {
			yield("", err)
			return
		}
		for i := 0; i < len(files); i++ {
			if !yield(files[i], nil) {
				return
			}
			included, err := c.includedFiles(r, files[i], ctx)
			if err != nil {
				yield("", err)
				return
			}
			uniqueExtend(&files, included)
		}
	}
}

// Inputs returns the scanned closure plus the Other patterns. The
// closure was just computed as the trigger list, so it is passed in.
func (c *IncludeInputs) Inputs(output string, ctx domain.Context, triggers, changed []string) ([]string, error) {
	out := append([]string(nil), triggers...)
	uniqueExtend(&out, c.Other)
	return out, nil
}

// includedFiles returns the direct references of name, memoized per
// (file, context) for as long as the file's state is unchanged.
func (c *IncludeInputs) includedFiles(r *Resolver, name string, ctx domain.Context) ([]string, error) {
	cur, err := r.store.FileInfo(name, c.Checksum)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	if v := c.FullVersion(ctx); c.memoVersion != v {
		c.memo = make(map[string]includeEntry)
		c.memoVersion = v
	}
	key := name + "?" + ctx.Describe(contextKeys(ctx))
	if entry, ok := c.memo[key]; ok && entry.info.Equal(cur) {
		c.mu.Unlock()
		return entry.files, nil
	}
	c.mu.Unlock()

	data, err := os.ReadFile(r.project.Join(name))
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to read file for include scan"), "file", name)
	}

	var files []string
	for _, m := range c.Include.FindAllStringSubmatch(string(data), -1) {
		ref := m[1]
		var resolved string
		if c.ResolvePath != nil {
			resolved = c.ResolvePath(name, ref, ctx)
		} else {
			resolved = path.Join(path.Dir(name), ref)
		}
		files = append(files, resolved)
	}

	c.mu.Lock()
	c.memo[key] = includeEntry{files: files, info: cur}
	c.mu.Unlock()
	return files, nil
}

func contextKeys(ctx domain.Context) []string {
	keys := make([]string, 0, len(ctx))
	for k := range ctx {
		keys = append(keys, k)
	}
	return keys
}
