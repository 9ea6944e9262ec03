package domain

import "go.trai.ch/zerr"

var (
	// ErrNoRule means no registered compile rule can generate a file.
	ErrNoRule = zerr.New("no rule to generate file")

	// ErrAmbiguousRule means several rules match a file at the same
	// specificity and the registry cannot break the tie.
	ErrAmbiguousRule = zerr.New("ambiguous compile rules")

	// ErrCycle is returned when an output transitively depends on itself.
	ErrCycle = zerr.New("circular dependency")

	// ErrBadRequest covers malformed build requests, such as asking for a
	// file outside the generated-files directory.
	ErrBadRequest = zerr.New("bad build request")

	// ErrCompileFailed wraps any error returned by a compiler.
	ErrCompileFailed = zerr.New("compile failed")

	// ErrDuplicateLabel is returned when two rules register the same label.
	ErrDuplicateLabel = zerr.New("compile rule label already registered")

	// ErrReservedPath is returned when a rule claims an engine-internal
	// output path.
	ErrReservedPath = zerr.New("output path is reserved for the engine")

	// ErrSymlinkLoop is returned when resolving a file name runs into a
	// symlink that points back into its own resolution chain.
	ErrSymlinkLoop = zerr.New("symlink loop while resolving path")
)

// GracefulError is a compile failure that carries replacement content for
// the output. Callers that serve generated files can hand the payload to
// the client instead of failing the whole request.
type GracefulError struct {
	Err      error
	Response []byte
}

func (e *GracefulError) Error() string { return e.Err.Error() }

func (e *GracefulError) Unwrap() error { return e.Err }
