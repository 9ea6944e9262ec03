// Package filemoddb implements the snapshot store: a JSON database
// recording, for every generated file, the state its dependencies had
// when it was last built successfully.
//
// The database is read once at open. Changed-file queries stage
// transactions in memory; commits accumulate in a dirty set that only
// reaches disk on Sync, which merges under an exclusive file lock so
// concurrent invocations do not clobber each other's records.
package filemoddb

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"sync"

	"golang.org/x/sys/unix"

	"go.trai.ch/bake/internal/core/domain"
	"go.trai.ch/bake/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.SnapshotStore = (*Store)(nil)

// Store implements ports.SnapshotStore using a flat JSON file.
type Store struct {
	project *domain.Project
	path    string
	log     ports.Logger
	files   *fileCache

	mu        sync.Mutex
	snapshots map[string]domain.Snapshot
	dirty     map[string]bool
	tx        map[string]domain.Snapshot
}

// Open loads the store for project, creating an empty one when the
// database file does not exist yet.
func Open(project *domain.Project, log ports.Logger) (*Store, error) {
	s := &Store{
		project:   project,
		path:      project.Join(domain.StorePath),
		log:       log,
		files:     newFileCache(project),
		snapshots: make(map[string]domain.Snapshot),
		dirty:     make(map[string]bool),
		tx:        make(map[string]domain.Snapshot),
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return zerr.Wrap(err, "failed to read snapshot store")
	}
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, &s.snapshots); err != nil {
		return zerr.Wrap(err, "failed to unmarshal snapshot store")
	}
	return nil
}

// ChangedFiles compares output's dependencies against its stored
// snapshot. Inputs are symlink-resolved first, so a dependency through a
// link and its target count as one file. A non-empty result stages a
// transaction with the new state; any existing symlink at the output is
// removed so the compiler writes a real file.
func (s *Store) ChangedFiles(output string, inputs []string, opts ports.ChangeOptions) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, open := s.tx[output]; open {
		return nil, zerr.With(zerr.New("transaction already open for output"), "output", output)
	}

	// Map resolved names back to the spelling the caller used, so the
	// returned changed list is phrased in the caller's terms. The output
	// keeps its own spelling: when it is a symlink its state is statted
	// through the link, matching what was committed after linking.
	asGiven := map[string]string{output: output}
	resolvedNames := []string{output}
	for _, name := range inputs {
		resolved, err := s.files.resolve(name)
		if err != nil {
			return nil, err
		}
		if _, dup := asGiven[resolved]; !dup {
			asGiven[resolved] = name
			resolvedNames = append(resolvedNames, resolved)
		}
	}

	cur := domain.Snapshot{
		Files:   make(map[string]domain.FileInfo, len(resolvedNames)),
		Version: opts.Version,
	}
	for _, name := range resolvedNames {
		fi, err := s.files.get(name, opts.Checksum)
		if err != nil {
			return nil, err
		}
		cur.Files[name] = fi
	}

	changed := s.diff(output, cur, asGiven)
	if opts.Force && !slices.Contains(changed, output) {
		changed = append(changed, output)
	}
	sort.Strings(changed)

	if len(changed) > 0 {
		s.removeStaleSymlink(output)
		s.tx[output] = cur
	}
	return changed, nil
}

// diff returns the names whose state differs from the stored snapshot,
// in the caller's spelling where one exists. A version mismatch, or the
// absence of any snapshot, dirties every file.
func (s *Store) diff(output string, cur domain.Snapshot, asGiven map[string]string) []string {
	old, ok := s.snapshots[output]
	var changed []string
	if !ok || old.Version != cur.Version {
		for name := range cur.Files {
			changed = append(changed, asGiven[name])
		}
		return changed
	}
	for name, fi := range cur.Files {
		if !fi.Equal(old.Files[name]) {
			changed = append(changed, asGiven[name])
		}
	}
	// A dependency tracked last time but absent from the current set is
	// a change too: the output was built against a file that no longer
	// feeds it. No caller spelling exists for it, so the stored name is
	// reported.
	for name := range old.Files {
		if _, present := cur.Files[name]; !present {
			changed = append(changed, name)
		}
	}
	return changed
}

// removeStaleSymlink unlinks output when it is a symlink. The output is
// about to be rebuilt, and building "through" a link would silently
// overwrite the link target.
func (s *Store) removeStaleSymlink(output string) {
	abs := s.project.Join(output)
	if st, err := os.Lstat(abs); err == nil && st.Mode()&os.ModeSymlink != 0 {
		if err := os.Remove(abs); err != nil {
			s.log.Warn("could not remove stale symlink", "output", output, "error", err)
		}
	}
}

// CanSymlinkTo reports whether output can be satisfied by pointing at
// candidate: the candidate must be fresh, already committed, outside any
// open transaction, and must depend on exactly the same input states.
func (s *Store) CanSymlinkTo(output, candidate string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if candidate == output {
		return false
	}
	if _, open := s.tx[candidate]; open {
		return false
	}
	candSnap, ok := s.snapshots[candidate]
	if !ok {
		return false
	}
	outSnap, ok := s.tx[output]
	if !ok {
		return false
	}

	// The candidate is typically one of the output's own non-input deps,
	// so both names are excluded from the comparison on both sides.
	outDeps := depsExcluding(outSnap, output, candidate)
	candDeps := depsExcluding(candSnap, candidate, output)
	if len(outDeps) != len(candDeps) {
		return false
	}
	for name, fi := range outDeps {
		if !fi.Equal(candDeps[name]) {
			return false
		}
	}

	// The candidate itself must be unchanged on disk, or we would be
	// linking to a stale file.
	cur, err := s.files.get(candidate, false)
	if err != nil {
		return false
	}
	return cur.Equal(candSnap.Files[candidate])
}

func depsExcluding(snap domain.Snapshot, skip ...string) map[string]domain.FileInfo {
	out := make(map[string]domain.FileInfo, len(snap.Files))
	for name, fi := range snap.Files {
		if !slices.Contains(skip, name) {
			out[name] = fi
		}
	}
	return out
}

// Commit finalizes the open transactions for outputs. Each output is
// re-statted, since the build just rewrote it; the fresh state replaces
// the staged one.
func (s *Store) Commit(outputs ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, output := range outputs {
		snap, ok := s.tx[output]
		if !ok {
			return zerr.With(zerr.New("no open transaction for output"), "output", output)
		}
		staged := snap.Files[output]
		fi, err := s.files.bust(output, staged.HasSum)
		if err != nil {
			return err
		}
		if !fi.Present {
			return zerr.With(zerr.New("output missing after build"), "output", output)
		}
		snap.Files[output] = fi
		s.snapshots[output] = snap
		s.dirty[output] = true
		delete(s.tx, output)
	}
	return nil
}

// Abandon drops every open transaction.
func (s *Store) Abandon() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tx = make(map[string]domain.Snapshot)
}

// Sync merges this invocation's committed snapshots into the database
// file. The on-disk copy is re-read under an exclusive lock and only the
// dirty records are overlaid, so concurrent invocations keep each
// other's work. Open transactions are abandoned: syncing mid-build must
// never persist half-built state.
func (s *Store) Sync() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tx = make(map[string]domain.Snapshot)
	if len(s.dirty) == 0 {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return zerr.Wrap(err, "failed to create snapshot store directory")
	}
	f, err := os.OpenFile(s.path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return zerr.Wrap(err, "failed to open snapshot store")
	}
	defer f.Close() //nolint:errcheck // close releases the lock

	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX); err != nil {
		return zerr.Wrap(err, "failed to lock snapshot store")
	}

	onDisk := make(map[string]domain.Snapshot)
	data, err := os.ReadFile(s.path)
	if err != nil {
		return zerr.Wrap(err, "failed to re-read snapshot store")
	}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &onDisk); err != nil {
			// A corrupt store heals itself: our records win and
			// everything else rebuilds next time.
			s.log.Warn("snapshot store corrupt, rewriting", "error", err)
			onDisk = make(map[string]domain.Snapshot)
		}
	}
	for output := range s.dirty {
		onDisk[output] = s.snapshots[output]
	}

	out, err := json.MarshalIndent(onDisk, "", "  ")
	if err != nil {
		return zerr.Wrap(err, "failed to marshal snapshot store")
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, out, 0o644); err != nil {
		return zerr.Wrap(err, "failed to write snapshot store")
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return zerr.Wrap(err, "failed to replace snapshot store")
	}

	s.snapshots = onDisk
	s.dirty = make(map[string]bool)
	return nil
}

// Close flushes committed snapshots and releases the store.
func (s *Store) Close() error {
	return s.Sync()
}

// FileInfo returns the cached state of one file.
func (s *Store) FileInfo(name string, checksum bool) (domain.FileInfo, error) {
	return s.files.get(name, checksum)
}

// ClearFileInfoCache drops all cached stat data.
func (s *Store) ClearFileInfoCache() {
	s.files.clear()
}
