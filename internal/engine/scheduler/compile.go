package scheduler

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"go.trai.ch/bake/internal/core/ports"
	"go.trai.ch/zerr"
)

// compileGroup brings one group of outputs up to date: it decides per
// member what changed, satisfies symlinkable members with a link, runs
// the rest through the compiler in batches, and commits the whole group
// at once. Any batch failure abandons the group's staged snapshots, so
// a later run re-examines everything that did not finish.
func (s *Scheduler) compileGroup(ctx context.Context, members []member) (built []string, err error) {
	defer func() {
		if err != nil {
			s.store.Abandon()
		}
	}()

	var stale []ports.BuildRequest
	for _, m := range members {
		r := m.node.Rule

		deps := append([]string(nil), m.node.Inputs...)
		uniqueExtend(&deps, m.node.NonInputDeps)
		changed, cerr := s.store.ChangedFiles(m.output, deps, ports.ChangeOptions{
			Force:    s.cfg.Force,
			Checksum: r.Checksum || s.cfg.Checksum,
			Version:  ports.FullVersion(r.Compiler, m.node.Ctx),
		})
		if cerr != nil {
			return built, cerr
		}
		if len(changed) == 0 {
			s.setStatus(m.output, StatusUpToDate)
			continue
		}

		if merr := s.mkdirForOutput(m.output); merr != nil {
			return built, merr
		}

		target, terr := r.SymlinkTarget(s.project.Root(), m.output, m.node.Ctx)
		if terr != nil {
			return built, terr
		}
		if target != "" && target != m.output && s.store.CanSymlinkTo(m.output, target) {
			if lerr := s.makeSymlink(m.output, target); lerr != nil {
				return built, lerr
			}
			if cerr := s.store.Commit(m.output); cerr != nil {
				return built, cerr
			}
			s.setStatus(m.output, StatusSymlinked)
			s.log.Debug("LINKED", "output", m.output, "target", target)
			built = append(built, m.output)
			continue
		}

		stale = append(stale, ports.BuildRequest{
			Output:  m.output,
			Inputs:  m.node.Inputs,
			Changed: changed,
			Context: m.node.Ctx,
		})
	}
	if len(stale) == 0 {
		return built, nil
	}

	comp := members[0].node.Rule.Compiler
	batches := partition(comp, stale, s.cfg.Workers, s.cfg.MaxBatch)

	if s.cfg.Workers > 1 && len(batches) > 1 {
		eg, gctx := errgroup.WithContext(ctx)
		eg.SetLimit(s.cfg.Workers)
		for _, batch := range batches {
			eg.Go(func() error {
				return s.runBatch(gctx, comp, batch)
			})
		}
		err = eg.Wait()
	} else {
		for _, batch := range batches {
			if err = s.runBatch(ctx, comp, batch); err != nil {
				break
			}
		}
	}
	if err != nil {
		return built, err
	}

	outputs := make([]string, len(stale))
	for i, req := range stale {
		outputs[i] = req.Output
	}
	if cerr := s.store.Commit(outputs...); cerr != nil {
		return built, cerr
	}
	for _, output := range outputs {
		s.setStatus(output, StatusBuilt)
	}
	return append(built, outputs...), nil
}

// makeSymlink replaces output with a relative symlink to target.
func (s *Scheduler) makeSymlink(output, target string) error {
	absOut := s.project.Join(output)
	rel, err := filepath.Rel(filepath.Dir(absOut), s.project.Join(target))
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to relativize symlink target"), "output", output)
	}
	_ = os.Remove(absOut)
	if err := os.Symlink(rel, absOut); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to create symlink"), "output", output)
	}
	return nil
}

// runBatch runs one batch through the compiler under the per-output
// file locks. When a multi-output batch fails, its members are retried
// one at a time so the error names the culprit rather than the batch.
func (s *Scheduler) runBatch(ctx context.Context, comp ports.Compiler, batch []ports.BuildRequest) error {
	outputs := make([]string, len(batch))
	for i, req := range batch {
		outputs[i] = req.Output
		s.setStatus(req.Output, StatusBuilding)
	}

	unlock, err := s.locker.LockOutputs(outputs)
	if err != nil {
		return err
	}
	defer unlock.Release()

	name := outputs[0]
	if len(outputs) > 1 {
		name = fmt.Sprintf("%s (+%d more)", outputs[0], len(outputs)-1)
	}
	ctx, span := s.tracer.Start(ctx, name)
	defer span.End()

	if err := s.buildBatch(ctx, comp, batch); err != nil {
		span.RecordError(err)
		for _, output := range outputs {
			s.setStatus(output, StatusFailed)
		}
		return err
	}
	for _, output := range outputs {
		s.log.Debug("WROTE", "output", output)
	}
	return nil
}

func (s *Scheduler) buildBatch(ctx context.Context, comp ports.Compiler, batch []ports.BuildRequest) error {
	if len(batch) == 1 {
		if err := comp.Build(ctx, batch[0]); err != nil {
			return zerr.With(wrapCompile(err), "output", batch[0].Output)
		}
		return nil
	}

	bc, ok := comp.(ports.BatchCompiler)
	if !ok {
		// A Splitter handed out multi-request parts without supporting
		// batch builds; run them one at a time.
		for _, req := range batch {
			if err := comp.Build(ctx, req); err != nil {
				return zerr.With(wrapCompile(err), "output", req.Output)
			}
		}
		return nil
	}

	err := bc.BuildMany(ctx, batch)
	if err == nil {
		return nil
	}
	s.log.Warn("batch failed, isolating culprit", "outputs", len(batch), "error", err)
	for _, req := range batch {
		if rerr := comp.Build(ctx, req); rerr != nil {
			return zerr.With(wrapCompile(rerr), "output", req.Output)
		}
	}
	// Every member passed on its own; report the batch error as-is.
	return wrapCompile(err)
}

func wrapCompile(err error) error {
	return zerr.Wrap(err, "compile failed")
}
