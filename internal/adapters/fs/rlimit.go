package fs

import "golang.org/x/sys/unix"

// MaxBatchSize returns the largest number of outputs one batch may
// hold. Every output in a batch holds an open lock file, so the ceiling
// derives from the file-descriptor limit: the limit minus headroom for
// the compiler's own files, but never less than half the limit.
func MaxBatchSize() int {
	var rl unix.Rlimit
	if err := unix.Getrlimit(unix.RLIMIT_NOFILE, &rl); err != nil {
		return 256
	}
	limit := int(rl.Cur)
	if n := limit - 200; n > limit/2 {
		return n
	}
	return limit / 2
}
