package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func (c *CLI) pedestalsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "pedestals",
		Short: "List the pedestal catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.newApplication()
			if err != nil {
				return err
			}
			defer a.Shutdown()

			tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tSIZE\tOVERLAP\tFILE")
			for _, name := range a.Catalog.Names() {
				spec, _ := a.Catalog.Spec(name)
				marker := ""
				if name == a.Config.Pedestal.Default {
					marker = " (default)"
				}
				fmt.Fprintf(tw, "%s%s\t%dx%d\t%d\t%s\n", name, marker, spec.Width, spec.Height, spec.OverlapY, spec.File)
			}
			return tw.Flush()
		},
	}
}
