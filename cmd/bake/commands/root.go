// Package commands implements the CLI commands for the bake build tool.
package commands

import (
	"context"
	"path/filepath"

	"github.com/spf13/cobra"

	"go.trai.ch/bake/internal/adapters/config"
	"go.trai.ch/bake/internal/adapters/logger"
	"go.trai.ch/bake/internal/app"
	"go.trai.ch/bake/internal/build"
	"go.trai.ch/bake/internal/core/ports"
)

// CLI represents the command line interface for bake.
type CLI struct {
	app     *app.App
	log     ports.Logger
	rootCmd *cobra.Command
}

// New creates a new CLI instance with the given app.
func New(a *app.App, log ports.Logger) *CLI {
	rootCmd := &cobra.Command{
		Use:           "bake",
		Short:         "An incremental build engine for generated files",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       build.Version,
	}

	rootCmd.InitDefaultVersionFlag()
	rootCmd.Flags().Lookup("version").Usage = "Print the application version"

	rootCmd.PersistentFlags().StringP("root", "r", ".", "Project root directory")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Log at debug level")

	c := &CLI{
		app:     a,
		log:     log,
		rootCmd: rootCmd,
	}
	rootCmd.PersistentPreRunE = c.configureLogging

	rootCmd.AddCommand(c.newBuildCmd())
	rootCmd.AddCommand(c.newGraphCmd())
	rootCmd.AddCommand(c.newVersionCmd())

	return c
}

// Execute runs the root command with the given context.
func (c *CLI) Execute(ctx context.Context) error {
	c.rootCmd.SetContext(ctx)
	return c.rootCmd.Execute()
}

// SetArgs sets the arguments for the root command. Used for testing.
func (c *CLI) SetArgs(args []string) {
	c.rootCmd.SetArgs(args)
}

// configureLogging applies the settings file's log level, or debug when
// --verbose is set. Only the concrete slog adapter is tunable; any
// other logger keeps its own level.
func (c *CLI) configureLogging(cmd *cobra.Command, _ []string) error {
	l, ok := c.log.(*logger.Logger)
	if !ok {
		return nil
	}
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		l.SetLevel("debug")
		return nil
	}
	root, _ := cmd.Flags().GetString("root")
	settings, err := config.Load(filepath.Join(root, config.Filename))
	if err != nil {
		return err
	}
	l.SetLevel(settings.LogLevel)
	return nil
}
