// Package app implements the driver layer: it owns the lifecycle of
// one build invocation and exposes the operations the CLI calls.
package app

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"sync"

	"go.trai.ch/bake/internal/adapters/config"
	"go.trai.ch/bake/internal/adapters/filemoddb"
	"go.trai.ch/bake/internal/adapters/fs"
	"go.trai.ch/bake/internal/core/domain"
	"go.trai.ch/bake/internal/core/ports"
	"go.trai.ch/bake/internal/engine/inputs"
	"go.trai.ch/bake/internal/engine/rule"
	"go.trai.ch/bake/internal/engine/scheduler"
	"go.trai.ch/zerr"
)

// RuleSetup registers the rules of one component for a project.
type RuleSetup func(reg *rule.Registry, project *domain.Project, log ports.Logger) error

// Options tune one driver call.
type Options struct {
	// Force rebuilds requested outputs and their dependencies whether or
	// not anything changed.
	Force bool

	// Workers overrides the settings file; zero keeps it.
	Workers int
}

// App is the driver. Every Build/BuildMany/EmitGraph call runs a fresh
// invocation: its own store handle, input resolver and scheduler. A
// process-wide mutex serializes calls; concurrent protection across
// processes is the scheduler's per-output file locks.
type App struct {
	loader ports.SettingsLoader
	log    ports.Logger
	tracer ports.Tracer

	mu     sync.Mutex
	setups []RuleSetup
}

// New creates an App.
func New(loader ports.SettingsLoader, log ports.Logger, tracer ports.Tracer) *App {
	return &App{
		loader: loader,
		log:    log,
		tracer: tracer,
	}
}

// AddRules appends a rule setup run at the start of every invocation.
func (a *App) AddRules(setup RuleSetup) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.setups = append(a.setups, setup)
}

// Build brings one output up to date, reporting whether it was rebuilt.
func (a *App) Build(ctx context.Context, root, output string, bctx domain.Context, opts Options) (bool, error) {
	rebuilt, err := a.BuildMany(ctx, root, []scheduler.Request{{Output: output, Context: bctx}}, opts)
	return slices.Contains(rebuilt, output), err
}

// BuildMany brings the requested outputs up to date, returning the
// subset of them that was actually rebuilt. Dependencies rebuilt along
// the way are not reported; callers asked about their files, not the
// engine's.
func (a *App) BuildMany(ctx context.Context, root string, reqs []scheduler.Request, opts Options) ([]string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	s, err := a.open(root, opts)
	if err != nil {
		return nil, err
	}
	defer s.close()

	rebuilt, err := s.scheduler.Execute(ctx, reqs)

	requested := make(map[string]bool, len(reqs))
	for _, req := range reqs {
		requested[req.Output] = true
	}
	out := make([]string, 0, len(rebuilt))
	for _, name := range rebuilt {
		if requested[name] {
			out = append(out, name)
		}
	}
	return out, err
}

// EmitGraph plans the requested outputs and writes the rule-level
// dependency graph in dot format to w. Planning may build files: the
// trigger files of computed inputs must exist before the graph is
// complete.
func (a *App) EmitGraph(ctx context.Context, root string, reqs []scheduler.Request, w io.Writer) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	s, err := a.open(root, Options{})
	if err != nil {
		return err
	}
	defer s.close()

	g, err := s.scheduler.Plan(ctx, reqs)
	if err != nil {
		return err
	}
	return g.WriteDot(w)
}

// EmitGraphFile is EmitGraph writing to the conventional path under the
// generated-files directory, returning that path.
func (a *App) EmitGraphFile(ctx context.Context, root string, reqs []scheduler.Request) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	s, err := a.open(root, Options{})
	if err != nil {
		return "", err
	}
	defer s.close()

	g, err := s.scheduler.Plan(ctx, reqs)
	if err != nil {
		return "", err
	}

	path := s.project.Join(domain.RuleGraphPath)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", zerr.Wrap(err, "failed to create graph directory")
	}
	f, err := os.Create(path)
	if err != nil {
		return "", zerr.Wrap(err, "failed to create graph file")
	}
	werr := g.WriteDot(f)
	if cerr := f.Close(); werr == nil {
		werr = cerr
	}
	return path, werr
}

// session holds the per-invocation machinery.
type session struct {
	project   *domain.Project
	store     *filemoddb.Store
	scheduler *scheduler.Scheduler
	log       ports.Logger
}

func (s *session) close() {
	if err := s.store.Close(); err != nil {
		s.log.Error(err)
	}
}

func (a *App) open(root string, opts Options) (*session, error) {
	project, err := domain.NewProject(root)
	if err != nil {
		return nil, err
	}

	settings, err := a.loader.Load(project.Join(config.Filename))
	if err != nil {
		return nil, err
	}
	workers := settings.Workers
	if opts.Workers > 0 {
		workers = opts.Workers
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	registry := rule.NewRegistry()
	for _, setup := range a.setups {
		if err := setup(registry, project, a.log); err != nil {
			return nil, err
		}
	}

	store, err := filemoddb.Open(project, a.log)
	if err != nil {
		return nil, err
	}
	resolver := inputs.NewResolver(project, store, a.log)
	sched := scheduler.New(project, registry, store, resolver, fs.NewLocker(project), a.log, a.tracer, scheduler.Config{
		Workers:            workers,
		MaxBatch:           fs.MaxBatchSize(),
		CheckpointInterval: settings.CheckpointInterval,
		Checksum:           settings.Checksum,
		Force:              opts.Force,
	})

	return &session{
		project:   project,
		store:     store,
		scheduler: sched,
		log:       a.log,
	}, nil
}
