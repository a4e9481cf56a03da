// Package cli implements the figure-stand command-line interface.
package cli

import (
	"io"

	"github.com/spf13/cobra"

	"figure-stand/internal/app"
	"figure-stand/internal/gui"
)

// CLI holds flags shared by every command.
type CLI struct {
	out        io.Writer
	configPath string
	logLevel   string
	verbose    bool
}

func New(out io.Writer) *CLI {
	return &CLI{out: out}
}

// RootCommand creates the root command. Running it without a subcommand
// opens the GUI.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "figure-stand",
		Short:        "Prepare character artwork for acrylic stands",
		Long:         `figure-stand outlines a cut-out character, attaches a pedestal under its lowest point and merges both outlines into one cut line.`,
		Version:      app.AppVersion,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runGUI()
		},
	}

	root.PersistentFlags().StringVarP(&c.configPath, "config", "c", "", "YAML config file")
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(c.processCommand())
	root.AddCommand(c.guiCommand())
	root.AddCommand(c.pedestalsCommand())

	return root
}

func (c *CLI) newApplication() (*app.Application, error) {
	level := c.logLevel
	if c.verbose {
		level = "debug"
	}
	return app.NewApplication(c.configPath, level)
}

func (c *CLI) guiCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "gui",
		Short: "Open the interactive editor",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runGUI()
		},
	}
}

func (c *CLI) runGUI() error {
	a, err := c.newApplication()
	if err != nil {
		return err
	}
	defer a.Shutdown()

	gui.Run(a.Config, a.Coordinator, a.Logger)
	return nil
}
