// Package scheduler executes the dependency graph: it walks the levels
// in order, decides per output whether anything changed, and dispatches
// the stale ones to their compilers in parallel batches.
package scheduler

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.trai.ch/bake/internal/core/domain"
	"go.trai.ch/bake/internal/core/ports"
	"go.trai.ch/bake/internal/engine/graph"
	"go.trai.ch/bake/internal/engine/inputs"
	"go.trai.ch/bake/internal/engine/rule"
	"go.trai.ch/zerr"
)

// OutputStatus represents the state of one output during an invocation.
type OutputStatus string

const (
	// StatusPending indicates the output is waiting for its level.
	StatusPending OutputStatus = "Pending"
	// StatusUpToDate indicates nothing changed and no build ran.
	StatusUpToDate OutputStatus = "UpToDate"
	// StatusSymlinked indicates the output was satisfied by a symlink.
	StatusSymlinked OutputStatus = "Symlinked"
	// StatusBuilding indicates a compiler is running for the output.
	StatusBuilding OutputStatus = "Building"
	// StatusBuilt indicates the output was rebuilt and committed.
	StatusBuilt OutputStatus = "Built"
	// StatusFailed indicates the compile failed.
	StatusFailed OutputStatus = "Failed"
)

// Request names one output to build, with the context its compilers
// receive.
type Request struct {
	Output  string
	Context domain.Context
}

// Config carries the scheduler's knobs.
type Config struct {
	// Workers is the maximum number of concurrent compiles; values
	// below one mean sequential.
	Workers int

	// MaxBatch caps how many outputs one batch call may carry.
	MaxBatch int

	// CheckpointInterval flushes the snapshot store this often during
	// the run. Zero means only the final flush.
	CheckpointInterval time.Duration

	// Checksum compares files by content checksum when mtimes differ,
	// for every rule. Rules can also opt in individually.
	Checksum bool

	// Force rebuilds everything whether or not it changed.
	Force bool
}

// Scheduler coordinates one invocation's builds.
type Scheduler struct {
	project  *domain.Project
	registry *rule.Registry
	store    ports.SnapshotStore
	resolver *inputs.Resolver
	locker   ports.Locker
	log      ports.Logger
	tracer   ports.Tracer
	cfg      Config

	mu             sync.Mutex
	status         map[string]OutputStatus
	lastCheckpoint time.Time
}

// New creates a Scheduler.
func New(
	project *domain.Project,
	registry *rule.Registry,
	store ports.SnapshotStore,
	resolver *inputs.Resolver,
	locker ports.Locker,
	log ports.Logger,
	tracer ports.Tracer,
	cfg Config,
) *Scheduler {
	if cfg.MaxBatch <= 0 {
		cfg.MaxBatch = 1
	}
	return &Scheduler{
		project:  project,
		registry: registry,
		store:    store,
		resolver: resolver,
		locker:   locker,
		log:      log,
		tracer:   tracer,
		cfg:      cfg,
		status:   make(map[string]OutputStatus),
	}
}

// Status returns the recorded state of an output.
func (s *Scheduler) Status(output string) OutputStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.status[output]; ok {
		return st
	}
	return StatusPending
}

func (s *Scheduler) setStatus(output string, st OutputStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status[output] = st
}

// Plan constructs the dependency graph for the requests. Files needed
// to compute dynamic inputs are built as a side effect. Bad individual
// requests are collected and reported together; ambiguity and cycles
// poison the whole invocation and abort immediately.
func (s *Scheduler) Plan(ctx context.Context, reqs []Request) (*graph.Graph, error) {
	s.store.ClearFileInfoCache()
	b := graph.NewBuilder(s.registry, s.resolver, s, s.cfg.Force)

	var errs error
	for _, req := range reqs {
		bctx := req.Context
		if bctx == nil {
			bctx = domain.Context{}
		}
		if !domain.IsGenerated(req.Output) {
			errs = errors.Join(errs, zerr.With(domain.ErrBadRequest, "output", req.Output))
			continue
		}
		if _, err := b.Add(ctx, req.Output, bctx); err != nil {
			if errors.Is(err, domain.ErrAmbiguousRule) || errors.Is(err, domain.ErrCycle) {
				return nil, err
			}
			errs = errors.Join(errs, err)
		}
	}
	if errs != nil {
		return nil, errs
	}

	g := b.Graph()
	// Hand every node the invocation-wide input map.
	inputMap := g.InputMap()
	for _, node := range g.All() {
		node.Ctx[domain.InputMapKey] = inputMap
	}
	return g, nil
}

// Execute plans and builds the requests, returning every output that
// was actually rebuilt (or re-linked), dependencies included. The
// snapshot store is flushed at the end even on failure, so completed
// work survives a dead process.
func (s *Scheduler) Execute(ctx context.Context, reqs []Request) (rebuilt []string, err error) {
	s.lastCheckpoint = time.Now()
	defer func() {
		if syncErr := s.store.Sync(); syncErr != nil && err == nil {
			err = syncErr
		}
	}()

	g, err := s.Plan(ctx, reqs)
	if err != nil {
		return nil, err
	}
	s.emitPlan(ctx, g)
	s.log.Info("building", "files", g.Len())

	for _, grp := range groups(g) {
		outs, gerr := s.compileGroup(ctx, grp.members)
		rebuilt = append(rebuilt, outs...)
		if gerr != nil {
			return rebuilt, gerr
		}
		if err := s.checkpoint(); err != nil {
			return rebuilt, err
		}
	}
	s.log.Info("done building", "files", g.Len(), "rebuilt", len(rebuilt))
	return rebuilt, nil
}

func (s *Scheduler) emitPlan(ctx context.Context, g *graph.Graph) {
	outputs := make([]string, 0, g.Len())
	for name := range g.All() {
		outputs = append(outputs, name)
	}
	s.tracer.EmitPlan(ctx, outputs)
}

// checkpoint flushes the snapshot store when the interval has passed.
func (s *Scheduler) checkpoint() error {
	if s.cfg.CheckpointInterval <= 0 {
		return nil
	}
	if time.Since(s.lastCheckpoint) < s.cfg.CheckpointInterval {
		return nil
	}
	s.lastCheckpoint = time.Now()
	return s.store.Sync()
}

// BuildNow builds a single output synchronously, outside the leveled
// schedule. The graph builder calls it for files that must exist before
// planning can continue.
func (s *Scheduler) BuildNow(ctx context.Context, output string, node *graph.Node, _ bool) error {
	_, err := s.compileGroup(ctx, []member{{output: output, node: node}})
	return err
}

var _ graph.FileBuilder = (*Scheduler)(nil)

// mkdirForOutput ensures the output's directory exists before the
// compiler runs.
func (s *Scheduler) mkdirForOutput(output string) error {
	dir := filepath.Dir(s.project.Join(output))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to create output directory"), "output", output)
	}
	return nil
}
