// Package progrock implements the tracer on the progrock progress UI:
// every build gets a vertex on the tape, with compiler output streamed
// into it.
package progrock

import (
	"context"
	"fmt"

	"github.com/opencontainers/go-digest"
	"github.com/vito/progrock"

	"go.trai.ch/bake/internal/core/ports"
)

// Tracer implements ports.Tracer on a progrock recorder.
type Tracer struct {
	w   progrock.Writer
	rec *progrock.Recorder
}

// New creates a Tracer with a default tape.
func New() *Tracer {
	return NewTracer(progrock.NewTape())
}

// NewTracer creates a Tracer writing to w.
func NewTracer(w progrock.Writer) *Tracer {
	return &Tracer{
		w:   w,
		rec: progrock.NewRecorder(w),
	}
}

// Start records a vertex for one build.
func (t *Tracer) Start(ctx context.Context, name string, opts ...ports.SpanOption) (context.Context, ports.Span) {
	cfg := &ports.SpanConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	v := t.rec.Vertex(digest.FromString(name), name)
	return ctx, &Span{vertex: v}
}

// EmitPlan records a plan vertex listing every scheduled output, so
// the tape shows the full schedule up front.
func (t *Tracer) EmitPlan(_ context.Context, outputs []string) {
	v := t.rec.Vertex(digest.FromString("plan"), "plan")
	for _, output := range outputs {
		_, _ = fmt.Fprintln(v.Stdout(), output)
	}
	v.Done(nil)
}

// Close flushes and closes the recording session.
func (t *Tracer) Close() error {
	if c, ok := t.w.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}

var _ ports.Tracer = (*Tracer)(nil)
