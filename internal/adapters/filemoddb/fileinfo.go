package filemoddb

import (
	"io"
	"os"
	"path"
	"strings"
	"sync"

	"github.com/cespare/xxhash/v2"
	"go.trai.ch/bake/internal/core/domain"
	"go.trai.ch/zerr"
)

// fileCache caches stat results, content checksums, and symlink
// resolutions for the lifetime of one Store. Stat results go stale the
// moment someone edits a file, so the cache is cleared at the start of
// every invocation.
type fileCache struct {
	project *domain.Project

	mu        sync.Mutex
	info      map[string]domain.FileInfo
	sums      map[sumKey]uint64
	resolved  map[string]*string // nil value marks "currently resolving"
}

// sumKey identifies file contents: checksums are reused only while the
// stat triple is unchanged.
type sumKey struct {
	name  string
	mtime int64
	size  int64
}

func newFileCache(project *domain.Project) *fileCache {
	return &fileCache{
		project:  project,
		info:     make(map[string]domain.FileInfo),
		sums:     make(map[sumKey]uint64),
		resolved: make(map[string]*string),
	}
}

func (c *fileCache) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.info = make(map[string]domain.FileInfo)
	c.resolved = make(map[string]*string)
	// Checksums are keyed by the stat triple, so they survive the clear.
}

// get returns the state of name, statting at most once per clear. When
// checksum is set a missing digest is computed and added, upgrading the
// cached record in place.
func (c *fileCache) get(name string, checksum bool) (domain.FileInfo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.getLocked(name, checksum, false)
}

// bust re-stats name unconditionally, for outputs a compiler just wrote.
func (c *fileCache) bust(name string, checksum bool) (domain.FileInfo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.getLocked(name, checksum, true)
}

func (c *fileCache) getLocked(name string, checksum, bust bool) (domain.FileInfo, error) {
	fi, ok := c.info[name]
	if bust || !ok {
		st, err := os.Stat(c.project.Join(name))
		switch {
		case os.IsNotExist(err):
			fi = domain.FileInfo{}
		case err != nil:
			return domain.FileInfo{}, zerr.With(zerr.Wrap(err, "failed to stat file"), "file", name)
		default:
			fi = domain.FileInfo{
				Present: true,
				MTimeNS: st.ModTime().UnixNano(),
				Size:    st.Size(),
			}
		}
		c.info[name] = fi
	}

	if checksum && fi.Present && !fi.HasSum {
		key := sumKey{name: name, mtime: fi.MTimeNS, size: fi.Size}
		sum, ok := c.sums[key]
		if !ok {
			var err error
			sum, err = c.checksum(name)
			if err != nil {
				return domain.FileInfo{}, err
			}
			c.sums[key] = sum
		}
		fi.Sum = sum
		fi.HasSum = true
		c.info[name] = fi
	}
	return fi, nil
}

func (c *fileCache) checksum(name string) (uint64, error) {
	f, err := os.Open(c.project.Join(name))
	if err != nil {
		return 0, zerr.With(zerr.Wrap(err, "failed to open file for checksum"), "file", name)
	}
	defer f.Close() //nolint:errcheck // read-only close

	h := xxhash.New()
	if _, err := io.Copy(h, f); err != nil {
		return 0, zerr.With(zerr.Wrap(err, "failed to checksum file"), "file", name)
	}
	return h.Sum64(), nil
}

// resolve maps name to its symlink-free form, so two spellings of one
// file share a snapshot entry. Links must be relative and stay inside
// the project root.
func (c *fileCache) resolve(name string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.resolveLocked(name)
}

func (c *fileCache) resolveLocked(name string) (string, error) {
	if r, ok := c.resolved[name]; ok {
		if r == nil {
			return "", zerr.With(domain.ErrSymlinkLoop, "file", name)
		}
		return *r, nil
	}
	c.resolved[name] = nil

	resolved, err := c.walkSegments(name)
	if err != nil {
		delete(c.resolved, name)
		return "", err
	}
	c.resolved[name] = &resolved
	return resolved, nil
}

func (c *fileCache) walkSegments(name string) (string, error) {
	out := ""
	for _, seg := range strings.Split(name, "/") {
		if out == "" {
			out = seg
		} else {
			out = out + "/" + seg
		}
		st, err := os.Lstat(c.project.Join(out))
		if err != nil || st.Mode()&os.ModeSymlink == 0 {
			continue
		}
		target, err := os.Readlink(c.project.Join(out))
		if err != nil {
			return "", zerr.With(zerr.Wrap(err, "failed to read symlink"), "file", out)
		}
		if path.IsAbs(target) {
			err := zerr.With(zerr.New("absolute symlinks are not tracked"), "file", out)
			return "", zerr.With(err, "target", target)
		}
		joined := path.Join(path.Dir(out), target)
		if joined == ".." || strings.HasPrefix(joined, "../") {
			err := zerr.With(zerr.New("symlink escapes project root"), "file", out)
			return "", zerr.With(err, "target", target)
		}
		// The target may itself contain symlinked components; resolving
		// it recursively also arms the loop sentinel.
		resolved, err := c.resolveLocked(joined)
		if err != nil {
			return "", err
		}
		out = resolved
	}
	return out, nil
}
