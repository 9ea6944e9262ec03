package scheduler_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"go.trai.ch/bake/internal/adapters/filemoddb"
	"go.trai.ch/bake/internal/adapters/fs"
	"go.trai.ch/bake/internal/adapters/logger"
	"go.trai.ch/bake/internal/adapters/telemetry"
	"go.trai.ch/bake/internal/core/domain"
	"go.trai.ch/bake/internal/core/ports"
	"go.trai.ch/bake/internal/engine/inputs"
	"go.trai.ch/bake/internal/engine/pattern"
	"go.trai.ch/bake/internal/engine/rule"
	"go.trai.ch/bake/internal/engine/scheduler"
	"go.trai.ch/zerr"
)

// countingCompiler writes each requested output and records the build
// order.
type countingCompiler struct {
	project *domain.Project

	mu     sync.Mutex
	builds []string
	failOn string
}

func (c *countingCompiler) Version() int { return 1 }

func (c *countingCompiler) Build(_ context.Context, req ports.BuildRequest) error {
	c.mu.Lock()
	c.builds = append(c.builds, req.Output)
	c.mu.Unlock()
	if req.Output == c.failOn {
		return errors.New("refusing to build")
	}
	return os.WriteFile(c.project.Join(req.Output), []byte("built "+req.Output), 0o644)
}

func (c *countingCompiler) buildCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.builds)
}

// batchingCompiler builds several outputs per call, recording the batch
// shapes it was handed.
type batchingCompiler struct {
	countingCompiler
	numOutputs int
	failBatch  bool

	batches [][]string
}

func (c *batchingCompiler) NumOutputs() int { return c.numOutputs }

func (c *batchingCompiler) BuildMany(ctx context.Context, reqs []ports.BuildRequest) error {
	names := make([]string, len(reqs))
	for i, req := range reqs {
		names[i] = req.Output
	}
	c.mu.Lock()
	c.batches = append(c.batches, names)
	c.mu.Unlock()
	if c.failBatch {
		return errors.New("batch refused")
	}
	for _, req := range reqs {
		if err := c.Build(ctx, req); err != nil {
			return err
		}
	}
	return nil
}

type env struct {
	project  *domain.Project
	registry *rule.Registry
	store    *filemoddb.Store
	resolver *inputs.Resolver
	comp     *countingCompiler
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
		store:    store,
		resolver: inputs.NewResolver(project, store, log),
		comp:     &countingCompiler{project: project},
	}
}

func (e *env) scheduler(cfg scheduler.Config) *scheduler.Scheduler {
	return scheduler.New(
		e.project, e.registry, e.store, e.resolver,
		fs.NewLocker(e.project), logger.New(), telemetry.NewNoOpTracer(), cfg,
	)
}

func (e *env) execute(t *testing.T, cfg scheduler.Config, outputs ...string) []string {
	t.Helper()
	reqs := make([]scheduler.Request, len(outputs))
	for i, out := range outputs {
		reqs[i] = scheduler.Request{Output: out}
	}
	rebuilt, err := e.scheduler(cfg).Execute(context.Background(), reqs)
	if err != nil {
		t.Fatal(err)
	}
	return rebuilt
}

func (e *env) addRule(t *testing.T, label, output string, ins ...string) {
	t.Helper()
	e.registry.MustRegister(&rule.Rule{
		Label:    label,
		Output:   pattern.MustCompile(output),
		Inputs:   ins,
		Compiler: e.comp,
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

func TestExecuteBuildsOnceThenIsIdempotent(t *testing.T) {
	e := newEnv(t)
	e.write(t, "src/a.txt", "a")
	e.addRule(t, "one", "genfiles/one.txt", "src/a.txt")
	e.addRule(t, "two", "genfiles/two.txt", "genfiles/one.txt")

	rebuilt := e.execute(t, scheduler.Config{}, "genfiles/two.txt")
	if len(rebuilt) != 2 {
		t.Fatalf("rebuilt = %v, want both files", rebuilt)
	}
	if e.comp.buildCount() != 2 {
		t.Fatalf("build count = %d, want 2", e.comp.buildCount())
	}

	rebuilt = e.execute(t, scheduler.Config{}, "genfiles/two.txt")
	if len(rebuilt) != 0 {
		t.Errorf("second run rebuilt %v, want nothing", rebuilt)
	}
	if e.comp.buildCount() != 2 {
		t.Errorf("second run reran compilers: count = %d", e.comp.buildCount())
	}
}

func TestExecuteBuildsLevelsInOrder(t *testing.T) {
	e := newEnv(t)
	e.write(t, "src/a.txt", "a")
	e.addRule(t, "one", "genfiles/one.txt", "src/a.txt")
	e.addRule(t, "two", "genfiles/two.txt", "genfiles/one.txt")
	e.addRule(t, "three", "genfiles/three.txt", "genfiles/two.txt")

	e.execute(t, scheduler.Config{Workers: 4}, "genfiles/three.txt")

	want := []string{"genfiles/one.txt", "genfiles/two.txt", "genfiles/three.txt"}
	if strings.Join(e.comp.builds, " ") != strings.Join(want, " ") {
		t.Errorf("build order = %v, want %v", e.comp.builds, want)
	}
}

func TestExecutePropagatesInputChange(t *testing.T) {
	e := newEnv(t)
	e.write(t, "src/a.txt", "a")
	e.addRule(t, "one", "genfiles/one.txt", "src/a.txt")
	e.addRule(t, "two", "genfiles/two.txt", "genfiles/one.txt")

	e.execute(t, scheduler.Config{}, "genfiles/two.txt")
	e.write(t, "src/a.txt", "a changed")

	rebuilt := e.execute(t, scheduler.Config{}, "genfiles/two.txt")
	if len(rebuilt) != 2 {
		t.Errorf("rebuilt = %v, want the whole chain", rebuilt)
	}
}

func TestExecuteForceRebuildsEverything(t *testing.T) {
	e := newEnv(t)
	e.write(t, "src/a.txt", "a")
	e.addRule(t, "one", "genfiles/one.txt", "src/a.txt")

	e.execute(t, scheduler.Config{}, "genfiles/one.txt")
	rebuilt := e.execute(t, scheduler.Config{Force: true}, "genfiles/one.txt")
	if len(rebuilt) != 1 {
		t.Errorf("force rebuilt %v, want the output", rebuilt)
	}
	if e.comp.buildCount() != 2 {
		t.Errorf("build count = %d, want 2", e.comp.buildCount())
	}
}

func TestExecuteReportsStatuses(t *testing.T) {
	e := newEnv(t)
	e.write(t, "src/a.txt", "a")
	e.addRule(t, "one", "genfiles/one.txt", "src/a.txt")

	s := e.scheduler(scheduler.Config{})
	if _, err := s.Execute(context.Background(), []scheduler.Request{{Output: "genfiles/one.txt"}}); err != nil {
		t.Fatal(err)
	}
	if got := s.Status("genfiles/one.txt"); got != scheduler.StatusBuilt {
		t.Errorf("status = %s, want Built", got)
	}

	s = e.scheduler(scheduler.Config{})
	if _, err := s.Execute(context.Background(), []scheduler.Request{{Output: "genfiles/one.txt"}}); err != nil {
		t.Fatal(err)
	}
	if got := s.Status("genfiles/one.txt"); got != scheduler.StatusUpToDate {
		t.Errorf("status = %s, want UpToDate", got)
	}
}

func TestExecuteRejectsNonGeneratedRequest(t *testing.T) {
	e := newEnv(t)
	_, err := e.scheduler(scheduler.Config{}).Execute(context.Background(),
		[]scheduler.Request{{Output: "src/a.txt"}})
	if !errors.Is(err, domain.ErrBadRequest) {
		t.Errorf("error = %v, want ErrBadRequest", err)
	}
}

func TestExecuteSymlinksIdenticalOutput(t *testing.T) {
	e := newEnv(t)
	e.write(t, "src/all.po", "po")
	e.addRule(t, "all", "genfiles/po/all.mo", "src/all.po")
	e.registry.MustRegister(&rule.Rule{
		Label:     "lang",
		Output:    pattern.MustCompile("genfiles/po/{lang}.mo"),
		Inputs:    []string{"src/all.po"},
		Compiler:  e.comp,
		SymlinkTo: "genfiles/po/all.mo",
	})

	s := e.scheduler(scheduler.Config{})
	rebuilt, err := s.Execute(context.Background(), []scheduler.Request{{Output: "genfiles/po/en.mo"}})
	if err != nil {
		t.Fatal(err)
	}
	if len(rebuilt) != 2 {
		t.Fatalf("rebuilt = %v", rebuilt)
	}
	// Only the link target ran a compiler.
	if e.comp.buildCount() != 1 {
		t.Errorf("build count = %d, want 1 (en.mo should be a link)", e.comp.buildCount())
	}
	if got := s.Status("genfiles/po/en.mo"); got != scheduler.StatusSymlinked {
		t.Errorf("status = %s, want Symlinked", got)
	}
	st, err := os.Lstat(e.project.Join("genfiles/po/en.mo"))
	if err != nil {
		t.Fatal(err)
	}
	if st.Mode()&os.ModeSymlink == 0 {
		t.Error("en.mo is not a symlink")
	}
	target, err := os.Readlink(e.project.Join("genfiles/po/en.mo"))
	if err != nil || target != "all.mo" {
		t.Errorf("link target = %q, %v", target, err)
	}

	// Steady state: neither is rebuilt.
	rebuilt = e.execute(t, scheduler.Config{}, "genfiles/po/en.mo")
	if len(rebuilt) != 0 {
		t.Errorf("second run rebuilt %v", rebuilt)
	}
}

func TestExecuteChunksBatchCompiler(t *testing.T) {
	e := newEnv(t)
	bc := &batchingCompiler{countingCompiler: countingCompiler{project: e.project}, numOutputs: 2}
	for _, name := range []string{"a", "b", "c"} {
		e.write(t, "src/"+name+".txt", name)
	}
	e.registry.MustRegister(&rule.Rule{
		Label:    "batch",
		Output:   pattern.MustCompile("genfiles/{name}.out"),
		Inputs:   []string{"src/{name}.txt"},
		Compiler: bc,
	})

	e.execute(t, scheduler.Config{MaxBatch: 10},
		"genfiles/a.out", "genfiles/b.out", "genfiles/c.out")

	if len(bc.batches) != 2 {
		t.Fatalf("batches = %v, want two", bc.batches)
	}
	if len(bc.batches[0]) != 2 || len(bc.batches[1]) != 1 {
		t.Errorf("batch shapes = %v, want [2 1]", bc.batches)
	}
}

func TestExecuteBatchesAcrossRulesSharingCompiler(t *testing.T) {
	e := newEnv(t)
	bc := &batchingCompiler{countingCompiler: countingCompiler{project: e.project}, numOutputs: 4}
	e.write(t, "src/a.txt", "a")
	e.write(t, "src/b.txt", "b")
	e.registry.MustRegister(&rule.Rule{
		Label:    "alpha",
		Output:   pattern.MustCompile("genfiles/alpha/{name}.out"),
		Inputs:   []string{"src/{name}.txt"},
		Compiler: bc,
	})
	e.registry.MustRegister(&rule.Rule{
		Label:    "beta",
		Output:   pattern.MustCompile("genfiles/beta/{name}.out"),
		Inputs:   []string{"src/{name}.txt"},
		Compiler: bc,
	})

	e.execute(t, scheduler.Config{MaxBatch: 10},
		"genfiles/alpha/a.out", "genfiles/beta/b.out")

	// Both rules reuse one compiler instance at the same level, so their
	// outputs travel in a single batch.
	if len(bc.batches) != 1 || len(bc.batches[0]) != 2 {
		t.Errorf("batch shapes = %v, want one batch of two", bc.batches)
	}
}

func TestExecuteRespectsMaxBatch(t *testing.T) {
	e := newEnv(t)
	bc := &batchingCompiler{countingCompiler: countingCompiler{project: e.project}, numOutputs: 100}
	for _, name := range []string{"a", "b", "c", "d"} {
		e.write(t, "src/"+name+".txt", name)
	}
	e.registry.MustRegister(&rule.Rule{
		Label:    "batch",
		Output:   pattern.MustCompile("genfiles/{name}.out"),
		Inputs:   []string{"src/{name}.txt"},
		Compiler: bc,
	})

	e.execute(t, scheduler.Config{MaxBatch: 2},
		"genfiles/a.out", "genfiles/b.out", "genfiles/c.out", "genfiles/d.out")

	for _, batch := range bc.batches {
		if len(batch) > 2 {
			t.Errorf("batch %v exceeds MaxBatch", batch)
		}
	}
}

func TestExecuteIsolatesBatchFailure(t *testing.T) {
	e := newEnv(t)
	bc := &batchingCompiler{countingCompiler: countingCompiler{project: e.project}, numOutputs: 10, failBatch: true}
	bc.failOn = "genfiles/b.out"
	for _, name := range []string{"a", "b", "c"} {
		e.write(t, "src/"+name+".txt", name)
	}
	e.registry.MustRegister(&rule.Rule{
		Label:    "batch",
		Output:   pattern.MustCompile("genfiles/{name}.out"),
		Inputs:   []string{"src/{name}.txt"},
		Compiler: bc,
	})

	_, err := e.scheduler(scheduler.Config{MaxBatch: 10}).Execute(context.Background(),
		[]scheduler.Request{{Output: "genfiles/a.out"}, {Output: "genfiles/b.out"}, {Output: "genfiles/c.out"}})
	if err == nil {
		t.Fatal("want error from failing batch")
	}
	zerrErr, ok := err.(*zerr.Error)
	if !ok {
		t.Fatalf("error type = %T", err)
	}
	if got := zerrErr.Metadata()["output"]; got != "genfiles/b.out" {
		t.Errorf("culprit = %v, want genfiles/b.out", got)
	}
}

func TestExecuteFailureKeepsFinishedWork(t *testing.T) {
	e := newEnv(t)
	e.write(t, "src/a.txt", "a")
	e.addRule(t, "one", "genfiles/one.txt", "src/a.txt")
	e.addRule(t, "two", "genfiles/two.txt", "genfiles/one.txt")
	e.comp.failOn = "genfiles/two.txt"

	_, err := e.scheduler(scheduler.Config{}).Execute(context.Background(),
		[]scheduler.Request{{Output: "genfiles/two.txt"}})
	if err == nil {
		t.Fatal("want error")
	}

	// A fresh process sees level one committed and only retries the
	// failed output.
	log := logger.New()
	store, err := filemoddb.Open(e.project, log)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = store.Close() }()
	e.store = store
	e.resolver = inputs.NewResolver(e.project, store, log)
	e.comp.failOn = ""

	rebuilt := e.execute(t, scheduler.Config{}, "genfiles/two.txt")
	if len(rebuilt) != 1 || rebuilt[0] != "genfiles/two.txt" {
		t.Errorf("rebuilt = %v, want just two.txt", rebuilt)
	}
}

func TestExecuteBuildsGeneratedTriggerDuringPlanning(t *testing.T) {
	e := newEnv(t)
	e.write(t, "src/listed.txt", "payload")
	e.write(t, "src/manifest-source.txt", "src/listed.txt")
	e.registry.MustRegister(&rule.Rule{
		Label:    "manifest",
		Output:   pattern.MustCompile("genfiles/manifest.txt"),
		Inputs:   []string{"src/manifest-source.txt"},
		Compiler: copyCompiler{project: e.project},
	})
	e.registry.MustRegister(&rule.Rule{
		Label:    "bundle",
		Output:   pattern.MustCompile("genfiles/out.txt"),
		Computed: &manifestInputs{project: e.project},
		Compiler: e.comp,
	})

	rebuilt := e.execute(t, scheduler.Config{}, "genfiles/out.txt")
	if len(rebuilt) != 1 || rebuilt[0] != "genfiles/out.txt" {
		t.Fatalf("rebuilt = %v", rebuilt)
	}
	// Planning built the manifest before the inputs could be computed.
	if _, err := os.Stat(e.project.Join("genfiles/manifest.txt")); err != nil {
		t.Errorf("manifest not built during planning: %v", err)
	}

	rebuilt = e.execute(t, scheduler.Config{}, "genfiles/out.txt")
	if len(rebuilt) != 0 {
		t.Errorf("second run rebuilt %v", rebuilt)
	}
}

// copyCompiler writes its first input's content to the output.
type copyCompiler struct {
	project *domain.Project
}

func (c copyCompiler) Version() int { return 1 }

func (c copyCompiler) Build(_ context.Context, req ports.BuildRequest) error {
	data, err := os.ReadFile(c.project.Join(req.Inputs[0]))
	if err != nil {
		return err
	}
	return os.WriteFile(c.project.Join(req.Output), data, 0o644)
}

// manifestInputs reads input names from a generated manifest.
type manifestInputs struct {
	project *domain.Project
}

func (m *manifestInputs) Version() int              { return 1 }
func (m *manifestInputs) TriggerPatterns() []string { return []string{"genfiles/manifest.txt"} }

func (m *manifestInputs) Inputs(string, domain.Context, []string, []string) ([]string, error) {
	data, err := os.ReadFile(m.project.Join("genfiles/manifest.txt"))
	if err != nil {
		return nil, err
	}
	return strings.Fields(string(data)), nil
}

// splittingCompiler shapes its own batches: one per leading output
// letter.
type splittingCompiler struct {
	batchingCompiler
}

func (c *splittingCompiler) SplitOutputs(reqs []ports.BuildRequest, _ int) [][]ports.BuildRequest {
	byLetter := make(map[byte][]ports.BuildRequest)
	for _, req := range reqs {
		key := filepath.Base(req.Output)[0]
		byLetter[key] = append(byLetter[key], req)
	}
	parts := make([][]ports.BuildRequest, 0, len(byLetter))
	for _, key := range []byte{'a', 'b'} {
		if len(byLetter[key]) > 0 {
			parts = append(parts, byLetter[key])
		}
	}
	return parts
}

func TestExecuteHonorsSplitter(t *testing.T) {
	e := newEnv(t)
	sc := &splittingCompiler{batchingCompiler{countingCompiler: countingCompiler{project: e.project}, numOutputs: 10}}
	for _, name := range []string{"a1", "a2", "b1"} {
		e.write(t, "src/"+name+".txt", name)
	}
	e.registry.MustRegister(&rule.Rule{
		Label:    "split",
		Output:   pattern.MustCompile("genfiles/{name}.out"),
		Inputs:   []string{"src/{name}.txt"},
		Compiler: sc,
	})

	e.execute(t, scheduler.Config{MaxBatch: 10},
		"genfiles/a1.out", "genfiles/a2.out", "genfiles/b1.out")

	if len(sc.batches) != 2 {
		t.Fatalf("batches = %v, want a-part and b-part", sc.batches)
	}
	if len(sc.batches[0]) != 2 || len(sc.batches[1]) != 1 {
		t.Errorf("batch shapes = %v, want [2 1]", sc.batches)
	}
}

func TestExecuteParallelWorkers(t *testing.T) {
	e := newEnv(t)
	for i := 0; i < 8; i++ {
		name := string(rune('a' + i))
		e.write(t, "src/"+name+".txt", name)
	}
	e.registry.MustRegister(&rule.Rule{
		Label:    "copy",
		Output:   pattern.MustCompile("genfiles/{name}.out"),
		Inputs:   []string{"src/{name}.txt"},
		Compiler: e.comp,
	})

	outputs := make([]string, 0, 8)
	for i := 0; i < 8; i++ {
		outputs = append(outputs, "genfiles/"+string(rune('a'+i))+".out")
	}
	rebuilt := e.execute(t, scheduler.Config{Workers: 4}, outputs...)
	if len(rebuilt) != 8 {
		t.Errorf("rebuilt = %d outputs, want 8", len(rebuilt))
	}
	if e.comp.buildCount() != 8 {
		t.Errorf("build count = %d, want 8", e.comp.buildCount())
	}
}
