package pattern

import (
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"go.trai.ch/zerr"
)

// Glob returns the root-relative names under root that match the
// pattern, which must contain no unexpanded variables. Both files and
// directories match. The walk starts at the longest metacharacter-free
// directory prefix of the pattern, so "src/*.js" never scans outside
// src/.
func Glob(root, raw string) ([]string, error) {
	p, err := Compile(raw)
	if err != nil {
		return nil, err
	}
	if p.numVars > 0 {
		return nil, zerr.With(zerr.New("glob pattern has unexpanded variables"), "pattern", raw)
	}

	prefix := literalDirPrefix(raw)
	start := filepath.Join(root, filepath.FromSlash(prefix))
	if _, err := os.Lstat(start); err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, zerr.With(zerr.Wrap(err, "failed to stat glob prefix"), "path", start)
	}

	var out []string
	walkErr := filepath.WalkDir(start, func(abs string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, abs)
		if err != nil {
			return err
		}
		name := filepath.ToSlash(rel)
		if name == "." {
			return nil
		}
		// Globs never reach into dot directories; skipping them here
		// keeps the walk cheap.
		if d.IsDir() && strings.HasPrefix(d.Name(), ".") && name != prefix {
			return filepath.SkipDir
		}
		if p.Matches(name) {
			out = append(out, name)
		}
		return nil
	})
	if walkErr != nil {
		return nil, zerr.With(zerr.Wrap(walkErr, "glob walk failed"), "pattern", raw)
	}
	return out, nil
}

// literalDirPrefix returns the longest leading directory path of raw
// that contains no metacharacters, or "" when the first segment is
// already a glob.
func literalDirPrefix(raw string) string {
	segs := strings.Split(raw, "/")
	var keep []string
	for _, seg := range segs[:len(segs)-1] {
		if HasMeta(seg) || strings.ContainsRune(seg, '{') {
			break
		}
		keep = append(keep, seg)
	}
	return path.Join(keep...)
}
