package commands

import (
	"os"

	"github.com/spf13/cobra"

	"go.trai.ch/bake/internal/engine/scheduler"
)

func (c *CLI) newGraphCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "graph [outputs...]",
		Short: "Write the rule dependency graph in dot format",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				_ = cmd.Help()
				return nil
			}
			root, _ := cmd.Flags().GetString("root")
			stdout, _ := cmd.Flags().GetBool("stdout")

			reqs := make([]scheduler.Request, len(args))
			for i, output := range args {
				reqs[i] = scheduler.Request{Output: output}
			}

			if stdout {
				return c.app.EmitGraph(cmd.Context(), root, reqs, os.Stdout)
			}
			path, err := c.app.EmitGraphFile(cmd.Context(), root, reqs)
			if err != nil {
				return err
			}
			c.log.Info("wrote rule graph", "path", path)
			return nil
		},
	}
	cmd.Flags().Bool("stdout", false, "Write the graph to stdout instead of the project file")
	return cmd
}
