package ports

import "go.trai.ch/bake/internal/core/domain"

// ChangeOptions tune one changed-files query.
type ChangeOptions struct {
	// Force marks the output itself as changed regardless of its state.
	Force bool

	// Checksum verifies contents when an mtime differs, avoiding
	// rebuilds after touch-without-edit.
	Checksum bool

	// Version is the full compiler version the output will be built
	// with. A mismatch against the stored snapshot dirties everything.
	Version string
}

// SnapshotStore tracks, per generated file, the state its dependencies
// had when it was last built successfully.
//
// ChangedFiles opens a transaction for the output; Commit finalizes it
// once the output has been rebuilt, and Abandon rolls every open
// transaction back. Committed snapshots only reach disk on Sync.
//
//go:generate go run go.uber.org/mock/mockgen -source=store.go -destination=mocks/mock_store.go -package=mocks
type SnapshotStore interface {
	// ChangedFiles compares output's current dependency state against its
	// stored snapshot and returns the names that differ, sorted. A
	// non-empty result stages a transaction recording the new state.
	ChangedFiles(output string, inputs []string, opts ChangeOptions) ([]string, error)

	// CanSymlinkTo reports whether output may be satisfied by symlinking
	// to candidate, because both depend on identical input states.
	// Output must have an open transaction.
	CanSymlinkTo(output, candidate string) bool

	// Commit finalizes the open transactions for the given outputs. The
	// outputs are re-statted so the snapshot reflects what the build
	// actually wrote.
	Commit(outputs ...string) error

	// Abandon drops every open transaction.
	Abandon()

	// Sync merges this invocation's committed snapshots into the store
	// file on disk, under an exclusive lock.
	Sync() error

	// Close syncs and releases the store.
	Close() error

	// FileInfo returns the cached state of one file. Missing files yield
	// a record with Present false and no error.
	FileInfo(name string, checksum bool) (domain.FileInfo, error)

	// ClearFileInfoCache drops all cached stat and checksum data. Called
	// at the start of an invocation so edits between invocations are
	// seen.
	ClearFileInfoCache()
}
