package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"go.trai.ch/bake/internal/app"
	"go.trai.ch/bake/internal/core/domain"
	"go.trai.ch/bake/internal/engine/scheduler"
)

func (c *CLI) newBuildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build [outputs...]",
		Short: "Bring generated files up to date",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				_ = cmd.Help()
				return nil
			}
			root, _ := cmd.Flags().GetString("root")
			force, _ := cmd.Flags().GetBool("force")
			workers, _ := cmd.Flags().GetInt("workers")
			setFlags, _ := cmd.Flags().GetStringArray("set")

			bctx, err := parseContext(setFlags)
			if err != nil {
				return err
			}
			reqs := make([]scheduler.Request, len(args))
			for i, output := range args {
				reqs[i] = scheduler.Request{Output: output, Context: bctx}
			}

			rebuilt, err := c.app.BuildMany(cmd.Context(), root, reqs, app.Options{
				Force:   force,
				Workers: workers,
			})
			if err != nil {
				return err
			}
			c.log.Info("build finished", "requested", len(args), "rebuilt", len(rebuilt))
			return nil
		},
	}
	cmd.Flags().BoolP("force", "f", false, "Rebuild even when nothing changed")
	cmd.Flags().IntP("workers", "j", 0, "Number of parallel workers (default: settings file, then CPU count)")
	cmd.Flags().StringArray("set", nil, "Build context entries as key=value (repeatable)")
	return cmd
}

// parseContext turns key=value flags into a build context.
func parseContext(entries []string) (domain.Context, error) {
	if len(entries) == 0 {
		return nil, nil
	}
	bctx := domain.Context{}
	for _, entry := range entries {
		key, value, ok := strings.Cut(entry, "=")
		if !ok {
			return nil, fmt.Errorf("invalid context entry %q, want key=value", entry)
		}
		bctx[key] = value
	}
	return bctx, nil
}
