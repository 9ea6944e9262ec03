package graph_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.trai.ch/bake/internal/adapters/filemoddb"
	"go.trai.ch/bake/internal/adapters/logger"
	"go.trai.ch/bake/internal/core/domain"
	"go.trai.ch/bake/internal/core/ports"
	"go.trai.ch/bake/internal/engine/graph"
	"go.trai.ch/bake/internal/engine/inputs"
	"go.trai.ch/bake/internal/engine/pattern"
	"go.trai.ch/bake/internal/engine/rule"
)

type nopCompiler struct{}

func (nopCompiler) Version() int { return 1 }
func (nopCompiler) Build(context.Context, ports.BuildRequest) error {
	return nil
}

// writingBuilder satisfies graph.FileBuilder by creating the requested
// file, recording the order of builds.
type writingBuilder struct {
	project *domain.Project
	built   []string
}

func (b *writingBuilder) BuildNow(_ context.Context, output string, _ *graph.Node, _ bool) error {
	abs := b.project.Join(output)
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(abs, []byte("immediate"), 0o644); err != nil {
		return err
	}
	b.built = append(b.built, output)
	return nil
}

type env struct {
	project  *domain.Project
	registry *rule.Registry
	resolver *inputs.Resolver
	files    *writingBuilder
}

func newEnv(t *testing.T) *env {
	t.Helper()
	project, err := domain.NewProject(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	log := logger.New()
	store, err := filemoddb.Open(project, log)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return &env{
		project:  project,
		registry: rule.NewRegistry(),
		resolver: inputs.NewResolver(project, store, log),
		files:    &writingBuilder{project: project},
	}
}

func (e *env) builder() *graph.Builder {
	return graph.NewBuilder(e.registry, e.resolver, e.files, false)
}

func (e *env) addRule(t *testing.T, label, output string, ins ...string) {
	t.Helper()
	e.registry.MustRegister(&rule.Rule{
		Label:    label,
		Output:   pattern.MustCompile(output),
		Inputs:   ins,
		Compiler: nopCompiler{},
	})
}

func (e *env) write(t *testing.T, name, content string) {
	t.Helper()
	abs := e.project.Join(name)
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(abs, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestAddAssignsLevels(t *testing.T) {
	e := newEnv(t)
	e.write(t, "src/a.txt", "a")
	e.addRule(t, "one", "genfiles/one.txt", "src/a.txt")
	e.addRule(t, "two", "genfiles/two.txt", "genfiles/one.txt")
	e.addRule(t, "three", "genfiles/three.txt", "genfiles/two.txt", "src/a.txt")

	b := e.builder()
	level, err := b.Add(context.Background(), "genfiles/three.txt", domain.Context{})
	if err != nil {
		t.Fatal(err)
	}
	if level != 3 {
		t.Errorf("level = %d, want 3", level)
	}

	g := b.Graph()
	for name, want := range map[string]int{
		"genfiles/one.txt":   1,
		"genfiles/two.txt":   2,
		"genfiles/three.txt": 3,
	} {
		if got := g.Node(name).Level; got != want {
			t.Errorf("%s level = %d, want %d", name, got, want)
		}
	}
	if g.Len() != 3 {
		t.Errorf("graph has %d nodes, want 3 (static files are not nodes)", g.Len())
	}
}

func TestAddDetectsCycle(t *testing.T) {
	e := newEnv(t)
	e.addRule(t, "a", "genfiles/a.txt", "genfiles/b.txt")
	e.addRule(t, "b", "genfiles/b.txt", "genfiles/a.txt")

	_, err := e.builder().Add(context.Background(), "genfiles/a.txt", domain.Context{})
	if !errors.Is(err, domain.ErrCycle) {
		t.Errorf("cycle error = %v", err)
	}
}

func TestAddNoRule(t *testing.T) {
	e := newEnv(t)
	_, err := e.builder().Add(context.Background(), "genfiles/unknown.txt", domain.Context{})
	if !errors.Is(err, domain.ErrNoRule) {
		t.Errorf("no-rule error = %v", err)
	}
}

func TestAddCapturesVarsIntoContext(t *testing.T) {
	e := newEnv(t)
	e.write(t, "src/en.po", "po")
	e.addRule(t, "po", "genfiles/po/{lang}.mo", "src/{lang}.po")

	b := e.builder()
	if _, err := b.Add(context.Background(), "genfiles/po/en.mo", domain.Context{"user": "x"}); err != nil {
		t.Fatal(err)
	}
	node := b.Graph().Node("genfiles/po/en.mo")
	if node.Ctx["{lang}"] != "en" {
		t.Errorf("context {lang} = %v", node.Ctx["{lang}"])
	}
	if node.Ctx["user"] != "x" {
		t.Errorf("caller context lost: %v", node.Ctx["user"])
	}
	if len(node.Inputs) != 1 || node.Inputs[0] != "src/en.po" {
		t.Errorf("inputs = %v", node.Inputs)
	}
}

func TestAddBuildsGeneratedTriggersImmediately(t *testing.T) {
	e := newEnv(t)
	e.write(t, "src/listed.js", "x")

	// The manifest is itself generated; computing the inputs of out.js
	// requires building it first.
	e.write(t, "src/manifest-source.txt", "src/listed.js")
	e.registry.MustRegister(&rule.Rule{
		Label:    "manifest",
		Output:   pattern.MustCompile("genfiles/manifest.txt"),
		Inputs:   []string{"src/manifest-source.txt"},
		Compiler: nopCompiler{},
	})
	e.registry.MustRegister(&rule.Rule{
		Label:    "bundle",
		Output:   pattern.MustCompile("genfiles/out.js"),
		Computed: &manifestInputs{project: e.project},
		Compiler: nopCompiler{},
	})

	b := e.builder()
	if _, err := b.Add(context.Background(), "genfiles/out.js", domain.Context{}); err != nil {
		t.Fatal(err)
	}

	if len(e.files.built) != 1 || e.files.built[0] != "genfiles/manifest.txt" {
		t.Errorf("immediate builds = %v, want [genfiles/manifest.txt]", e.files.built)
	}
	node := b.Graph().Node("genfiles/out.js")
	if len(node.Inputs) != 1 || node.Inputs[0] != "src/listed.js" {
		t.Errorf("inputs = %v", node.Inputs)
	}
}

// manifestInputs reads input names from a generated manifest file.
type manifestInputs struct {
	project *domain.Project
}

func (m *manifestInputs) Version() int              { return 1 }
func (m *manifestInputs) TriggerPatterns() []string { return []string{"genfiles/manifest.txt"} }

func (m *manifestInputs) Inputs(output string, ctx domain.Context, triggers, changed []string) ([]string, error) {
	data, err := os.ReadFile(m.project.Join("src/manifest-source.txt"))
	if err != nil {
		return nil, err
	}
	return strings.Fields(string(data)), nil
}

func TestSymlinkTargetBecomesNonInputDep(t *testing.T) {
	e := newEnv(t)
	e.write(t, "src/all.po", "po")
	e.addRule(t, "all", "genfiles/po/all.mo", "src/all.po")
	r := &rule.Rule{
		Label:     "lang",
		Output:    pattern.MustCompile("genfiles/po/{lang}.mo"),
		Inputs:    []string{"src/all.po"},
		Compiler:  nopCompiler{},
		SymlinkTo: "genfiles/po/all.mo",
	}
	e.registry.MustRegister(r)

	b := e.builder()
	level, err := b.Add(context.Background(), "genfiles/po/en.mo", domain.Context{})
	if err != nil {
		t.Fatal(err)
	}
	node := b.Graph().Node("genfiles/po/en.mo")
	if len(node.NonInputDeps) != 1 || node.NonInputDeps[0] != "genfiles/po/all.mo" {
		t.Errorf("non-input deps = %v", node.NonInputDeps)
	}
	// The link candidate is a dependency, so the level reflects it.
	if level != 2 {
		t.Errorf("level = %d, want 2", level)
	}
}

func TestInputMap(t *testing.T) {
	e := newEnv(t)
	e.write(t, "src/a.txt", "a")
	e.addRule(t, "one", "genfiles/one.txt", "src/a.txt")
	e.addRule(t, "two", "genfiles/two.txt", "genfiles/one.txt")

	b := e.builder()
	if _, err := b.Add(context.Background(), "genfiles/two.txt", domain.Context{}); err != nil {
		t.Fatal(err)
	}
	m := b.Graph().InputMap()
	if len(m["genfiles/two.txt"]) != 1 || m["genfiles/two.txt"][0] != "genfiles/one.txt" {
		t.Errorf("input map = %v", m)
	}
}

func TestWriteDot(t *testing.T) {
	e := newEnv(t)
	e.write(t, "src/a.txt", "a")
	e.addRule(t, "one", "genfiles/one.txt", "src/a.txt")
	e.addRule(t, "two", "genfiles/two.txt", "genfiles/one.txt")

	b := e.builder()
	if _, err := b.Add(context.Background(), "genfiles/two.txt", domain.Context{}); err != nil {
		t.Fatal(err)
	}

	var buf strings.Builder
	if err := b.Graph().WriteDot(&buf); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, `"one" -> "two" [label="1" weight=1];`) {
		t.Errorf("dot output missing edge:\n%s", out)
	}
	if !strings.Contains(out, `"two" [shape=box];`) {
		t.Errorf("dot output missing terminal rule:\n%s", out)
	}
	if strings.Contains(out, `"one" [shape=box]`) {
		t.Errorf("rule one is not terminal:\n%s", out)
	}
}
