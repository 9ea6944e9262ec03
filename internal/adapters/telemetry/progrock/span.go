package progrock

import (
	"fmt"

	"github.com/vito/progrock"

	"go.trai.ch/bake/internal/core/ports"
)

// Span implements ports.Span wrapping *progrock.VertexRecorder.
type Span struct {
	vertex *progrock.VertexRecorder
	err    error
}

// Write streams compiler output to the vertex's stdout.
func (s *Span) Write(p []byte) (n int, err error) {
	return s.vertex.Stdout().Write(p)
}

// RecordError stores err; the vertex is marked failed on End.
func (s *Span) RecordError(err error) {
	s.err = err
}

// SetAttribute renders the pair into the vertex output.
func (s *Span) SetAttribute(key string, value any) {
	_, _ = fmt.Fprintf(s.vertex.Stdout(), "%s=%v\n", key, value)
}

// Cached marks the vertex as a cache hit.
func (s *Span) Cached() {
	s.vertex.Cached()
}

// End completes the vertex, carrying any recorded error.
func (s *Span) End() {
	s.vertex.Done(s.err)
}

var _ ports.Span = (*Span)(nil)
