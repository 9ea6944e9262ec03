// Package fs provides file system adapters: per-output build locks and
// process resource probes.
package fs

import (
	"os"
	"path/filepath"
	"sort"

	"golang.org/x/sys/unix"

	"go.trai.ch/bake/internal/core/domain"
	"go.trai.ch/bake/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.Locker = (*Locker)(nil)

// Locker implements ports.Locker with one flock'd file per output under
// the engine's lock directory. Lock files are created on demand and
// never deleted: unlinking a lock file that another process holds would
// let a third process acquire a fresh lock on the same name.
type Locker struct {
	project *domain.Project
}

// NewLocker creates a Locker for project.
func NewLocker(project *domain.Project) *Locker {
	return &Locker{project: project}
}

// LockOutputs acquires the lock for every output, blocking until all
// are held. Acquisition is in sorted name order.
func (l *Locker) LockOutputs(outputs []string) (ports.Unlocker, error) {
	sorted := append([]string(nil), outputs...)
	sort.Strings(sorted)

	set := &lockSet{}
	for _, output := range sorted {
		abs := filepath.Join(l.project.Join(domain.LockDirPath), filepath.FromSlash(output))
		if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
			set.Release()
			return nil, zerr.With(zerr.Wrap(err, "failed to create lock directory"), "output", output)
		}
		f, err := os.OpenFile(abs, os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			set.Release()
			return nil, zerr.With(zerr.Wrap(err, "failed to open lock file"), "output", output)
		}
		if err := unix.Flock(int(f.Fd()), unix.LOCK_EX); err != nil {
			_ = f.Close()
			set.Release()
			return nil, zerr.With(zerr.Wrap(err, "failed to acquire lock"), "output", output)
		}
		set.files = append(set.files, f)
	}
	return set, nil
}

type lockSet struct {
	files []*os.File
}

// Release drops every held lock. Closing the descriptor releases the
// flock.
func (s *lockSet) Release() {
	for _, f := range s.files {
		_ = f.Close()
	}
	s.files = nil
}
