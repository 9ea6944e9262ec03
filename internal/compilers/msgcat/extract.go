package msgcat

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strings"

	"go.trai.ch/bake/internal/core/domain"
	"go.trai.ch/bake/internal/core/ports"
	"go.trai.ch/zerr"
)

var (
	singularRe = regexp.MustCompile(`_\(\s*"((?:[^"\\]|\\.)*)"\s*\)`)
	pluralRe   = regexp.MustCompile(`ngettext\(\s*"((?:[^"\\]|\\.)*)"\s*,\s*"((?:[^"\\]|\\.)*)"`)
)

// Extractor scans source files for translation markers, `_("...")` and
// `ngettext("one", "many")`, and writes the merged catalog. It batches:
// catalog outputs are independent, and one process can extract many.
type Extractor struct {
	project *domain.Project
	log     ports.Logger
}

// NewExtractor creates an Extractor.
func NewExtractor(project *domain.Project, log ports.Logger) *Extractor {
	return &Extractor{project: project, log: log}
}

var _ ports.BatchCompiler = (*Extractor)(nil)

// Version returns the extractor's version.
func (e *Extractor) Version() int { return 1 }

// NumOutputs returns the preferred batch size.
func (e *Extractor) NumOutputs() int { return 16 }

// Build extracts one catalog.
func (e *Extractor) Build(ctx context.Context, req ports.BuildRequest) error {
	return e.BuildMany(ctx, []ports.BuildRequest{req})
}

// BuildMany extracts a batch of catalogs.
func (e *Extractor) BuildMany(_ context.Context, reqs []ports.BuildRequest) error {
	for _, req := range reqs {
		catalog := NewCatalog()
		for _, input := range req.Inputs {
			if err := e.scan(catalog, input); err != nil {
				return zerr.With(err, "output", req.Output)
			}
		}
		f, err := os.Create(e.project.Join(req.Output))
		if err != nil {
			return zerr.With(zerr.Wrap(err, "failed to create catalog"), "output", req.Output)
		}
		werr := catalog.WriteTo(f)
		if cerr := f.Close(); werr == nil {
			werr = cerr
		}
		if werr != nil {
			return zerr.With(werr, "output", req.Output)
		}
		e.log.Debug("extracted catalog", "output", req.Output, "messages", catalog.Len())
	}
	return nil
}

// scan adds every marker in one source file, with file:line occurrences.
func (e *Extractor) scan(catalog *Catalog, name string) error {
	data, err := os.ReadFile(e.project.Join(name))
	if err != nil {
		return zerr.Wrap(err, "failed to read source file")
	}
	for i, line := range strings.Split(string(data), "\n") {
		occurrence := fmt.Sprintf("%s:%d", name, i+1)
		for _, m := range singularRe.FindAllStringSubmatch(line, -1) {
			err := catalog.Add(Entry{ID: m[1], Occurrences: []string{occurrence}})
			if err != nil {
				return err
			}
		}
		for _, m := range pluralRe.FindAllStringSubmatch(line, -1) {
			err := catalog.Add(Entry{ID: m[1], PluralID: m[2], Occurrences: []string{occurrence}})
			if err != nil {
				return err
			}
		}
	}
	return nil
}
