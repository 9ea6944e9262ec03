// Package domain contains the core value types of the build engine:
// project layout, file snapshots, build contexts and the error taxonomy.
//
// All file names handled by the engine are slash-separated paths relative
// to the project root. Absolute paths only ever appear at the OS boundary.
package domain

import (
	"path"
	"path/filepath"
	"strings"

	"go.trai.ch/zerr"
)

const (
	// GenDir is the directory, relative to the project root, that holds
	// every generated file. Rules may only produce outputs under it.
	GenDir = "genfiles"

	// reservedPrefix marks engine-internal files under GenDir. No rule may
	// claim an output with this prefix.
	reservedPrefix = GenDir + "/_"

	// StorePath is where the snapshot database lives.
	StorePath = reservedPrefix + "filemod_db.json"

	// LockDirPath holds the per-output lock files.
	LockDirPath = reservedPrefix + "lockfiles"

	// RuleGraphPath is the default destination for the rule-level
	// dependency graph in dot format.
	RuleGraphPath = reservedPrefix + "rule_deps.dot"
)

// IsGenerated reports whether name lives under the generated-files
// directory.
func IsGenerated(name string) bool {
	return strings.HasPrefix(name, GenDir+"/")
}

// IsReserved reports whether name is claimed by the engine itself.
func IsReserved(name string) bool {
	return strings.HasPrefix(name, reservedPrefix)
}

// Project anchors relative file names to a directory on disk.
type Project struct {
	root string
}

// NewProject returns a Project rooted at dir. The directory must exist;
// it is resolved to an absolute path so later chdirs cannot skew joins.
func NewProject(dir string) (*Project, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to resolve project root"), "dir", dir)
	}
	return &Project{root: abs}, nil
}

// Root returns the absolute project root directory.
func (p *Project) Root() string { return p.root }

// Join turns a root-relative slash path into an absolute OS path.
func (p *Project) Join(name string) string {
	return filepath.Join(p.root, filepath.FromSlash(name))
}

// Rel converts an absolute OS path back into a root-relative slash path.
// It fails for paths outside the project root.
func (p *Project) Rel(abs string) (string, error) {
	rel, err := filepath.Rel(p.root, abs)
	if err != nil {
		return "", zerr.With(zerr.Wrap(err, "failed to relativize path"), "path", abs)
	}
	rel = filepath.ToSlash(rel)
	if rel == ".." || strings.HasPrefix(rel, "../") {
		err := zerr.With(zerr.New("path is outside project root"), "path", abs)
		return "", zerr.With(err, "root", p.root)
	}
	return path.Clean(rel), nil
}
