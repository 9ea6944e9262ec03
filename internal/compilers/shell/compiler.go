// Package shell provides a compiler that runs a templated command.
package shell

import (
	"context"
	"os/exec"
	"strings"

	"go.trai.ch/bake/internal/core/domain"
	"go.trai.ch/bake/internal/core/ports"
	"go.trai.ch/bake/internal/engine/pattern"
	"go.trai.ch/zerr"
)

// Compiler builds outputs by running a command template. Each argv
// element may reference pattern variables from the build context plus
// {output}; the elements {inputs} and {changed} splice the respective
// file lists in as separate arguments.
type Compiler struct {
	project *domain.Project
	log     ports.Logger
	version int
	argv    []string
}

// New creates a Compiler running argv from the project root. Bump
// version whenever the command's behavior changes, so existing outputs
// rebuild.
func New(project *domain.Project, log ports.Logger, version int, argv ...string) *Compiler {
	return &Compiler{
		project: project,
		log:     log,
		version: version,
		argv:    argv,
	}
}

var _ ports.Compiler = (*Compiler)(nil)

// Version returns the compiler's version.
func (c *Compiler) Version() int { return c.version }

// Build expands the command template for req and runs it.
func (c *Compiler) Build(ctx context.Context, req ports.BuildRequest) error {
	argv, err := c.expand(req)
	if err != nil {
		return err
	}
	if len(argv) == 0 {
		return zerr.With(zerr.New("empty command"), "output", req.Output)
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...) //nolint:gosec // rule-provided command
	cmd.Dir = c.project.Root()
	cmd.Stdout = &logWriter{log: c.log, output: req.Output, stderr: false}
	cmd.Stderr = &logWriter{log: c.log, output: req.Output, stderr: true}

	if err := cmd.Run(); err != nil {
		exitCode := -1
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		}
		wrapped := zerr.With(zerr.Wrap(err, "command failed"), "exit_code", exitCode)
		return zerr.With(wrapped, "output", req.Output)
	}
	return nil
}

func (c *Compiler) expand(req ports.BuildRequest) ([]string, error) {
	vars := req.Context.Vars()
	vars["{output}"] = req.Output

	argv := make([]string, 0, len(c.argv)+len(req.Inputs))
	for _, arg := range c.argv {
		switch arg {
		case "{inputs}":
			argv = append(argv, req.Inputs...)
		case "{changed}":
			argv = append(argv, req.Changed...)
		default:
			expanded, err := pattern.Expand(arg, vars)
			if err != nil {
				return nil, zerr.With(err, "output", req.Output)
			}
			argv = append(argv, expanded)
		}
	}
	return argv, nil
}

// logWriter streams command output to the logger, one line per entry.
type logWriter struct {
	log    ports.Logger
	output string
	stderr bool
}

func (w *logWriter) Write(p []byte) (n int, err error) {
	for _, line := range strings.Split(strings.TrimSuffix(string(p), "\n"), "\n") {
		if line == "" {
			continue
		}
		if w.stderr {
			w.log.Warn(line, "output", w.output)
		} else {
			w.log.Info(line, "output", w.output)
		}
	}
	return len(p), nil
}
