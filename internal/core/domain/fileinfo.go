package domain

// FileInfo is the engine's view of one file at one point in time.
// A missing file is represented by the zero value with Present false.
type FileInfo struct {
	// Present distinguishes "stat succeeded" from "file does not exist".
	Present bool `json:"present"`

	// MTimeNS is the modification time in nanoseconds since the epoch.
	MTimeNS int64 `json:"mtime_ns,omitempty"`

	// Size is the file size in bytes.
	Size int64 `json:"size,omitempty"`

	// Sum is the xxhash64 digest of the contents, valid only when HasSum
	// is set. Checksums are computed lazily, so most records carry none.
	Sum    uint64 `json:"sum,omitempty"`
	HasSum bool   `json:"has_sum,omitempty"`
}

// Equal reports whether two records describe the same file contents.
//
// Two records agree when both files exist and either their (mtime, size)
// pairs match, or their sizes match and both carry an equal checksum.
// A missing file never equals anything, not even another missing file:
// "missing" carries no identity to compare.
func (fi FileInfo) Equal(other FileInfo) bool {
	if !fi.Present || !other.Present {
		return false
	}
	if fi.Size != other.Size {
		return false
	}
	if fi.MTimeNS == other.MTimeNS {
		return true
	}
	return fi.HasSum && other.HasSum && fi.Sum == other.Sum
}

// Snapshot records the state of an output's dependencies as of its last
// successful build. Keys are symlink-resolved root-relative file names;
// the output itself appears as one of the keys.
type Snapshot struct {
	Files map[string]FileInfo `json:"files"`

	// Version identifies the compiler (and the context values it used)
	// that produced the output. A version mismatch dirties every file.
	Version string `json:"version,omitempty"`
}

// Clone returns a deep copy of the snapshot.
func (s Snapshot) Clone() Snapshot {
	files := make(map[string]FileInfo, len(s.Files))
	for k, v := range s.Files {
		files[k] = v
	}
	return Snapshot{Files: files, Version: s.Version}
}
