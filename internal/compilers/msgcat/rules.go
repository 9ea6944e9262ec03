package msgcat

import (
	"go.trai.ch/bake/internal/core/domain"
	"go.trai.ch/bake/internal/core/ports"
	"go.trai.ch/bake/internal/engine/pattern"
	"go.trai.ch/bake/internal/engine/rule"
)

// CatalogOutput is the output name of the extraction rule.
const CatalogOutput = "genfiles/i18n/messages.msgcat"

// RegisterRule registers the catalog extraction rule over the given
// source patterns. Checksums are on: source mtimes churn far more often
// than translatable strings do.
func RegisterRule(reg *rule.Registry, project *domain.Project, log ports.Logger, sources ...string) error {
	return reg.Register(&rule.Rule{
		Label:    "msgcat",
		Output:   pattern.MustCompile(CatalogOutput),
		Inputs:   sources,
		Compiler: NewExtractor(project, log),
		Checksum: true,
	})
}
