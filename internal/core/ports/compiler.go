// Package ports defines the core interfaces for the application.
package ports

import (
	"context"
	"fmt"
	"strings"

	"go.trai.ch/bake/internal/core/domain"
)

// BuildRequest is everything a compiler needs to produce one output file.
type BuildRequest struct {
	// Output is the root-relative file to write.
	Output string

	// Inputs are the resolved input files, in rule order.
	Inputs []string

	// Changed lists the inputs (possibly including Output itself) that
	// differ from the last successful build. Compilers that can update
	// incrementally may use it; rebuilding from all of Inputs is always
	// correct.
	Changed []string

	// Context carries build-wide settings plus the pattern variables
	// captured from Output.
	Context domain.Context
}

// Compiler turns input files into one output file.
//
//go:generate go run go.uber.org/mock/mockgen -source=compiler.go -destination=mocks/mock_compiler.go -package=mocks
type Compiler interface {
	// Version identifies the compile logic. Bump it whenever the output
	// for unchanged inputs would differ; every output built with an older
	// version is then considered stale.
	Version() int

	// Build produces req.Output from req.Inputs. It must write the output
	// file itself (the parent directory already exists) and must not
	// touch any other generated file.
	Build(ctx context.Context, req BuildRequest) error
}

// BatchCompiler is a Compiler that can amortize startup cost over many
// outputs at once.
type BatchCompiler interface {
	Compiler

	// BuildMany produces every requested output, or fails the whole
	// batch. The scheduler retries failed batches one output at a time to
	// isolate the culprit.
	BuildMany(ctx context.Context, reqs []BuildRequest) error

	// NumOutputs caps the batch size. Zero means "do not batch"; the
	// scheduler then calls Build for each output individually.
	NumOutputs() int
}

// Splitter lets a compiler choose how a level's outputs are partitioned
// into batches, for example to group translation files by language.
type Splitter interface {
	// SplitOutputs partitions reqs into batches. Every request must land
	// in exactly one batch.
	SplitOutputs(reqs []BuildRequest, numWorkers int) [][]BuildRequest
}

// ContextKeysUser declares which context keys affect a component's
// output. The keys' values become part of its full version, so changing
// one invalidates previous builds.
type ContextKeysUser interface {
	UsedContextKeys() []string
}

// FullVersion renders a compiler's complete version string: its type, its
// declared version number, and the values of the context keys it uses.
func FullVersion(c Compiler, bctx domain.Context) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%T.%d", c, c.Version())
	if cku, ok := c.(ContextKeysUser); ok {
		if keys := cku.UsedContextKeys(); len(keys) > 0 {
			b.WriteByte(' ')
			b.WriteString(bctx.Describe(keys))
		}
	}
	return b.String()
}
