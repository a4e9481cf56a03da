package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"figure-stand/internal/models"
	"figure-stand/internal/pipeline"
)

const (
	stageOutline   = "outline"
	stageComposite = "composite"
	stageMerge     = "merge"
)

// processOpts holds the flags of the process command. Zero values fall back
// to the configuration.
type processOpts struct {
	output    string
	svg       string
	gap       int
	thickness int
	pedestal  string
	stage     string
	metrics   bool
}

func (c *CLI) processCommand() *cobra.Command {
	opts := processOpts{gap: -1, thickness: -1, stage: stageMerge}

	cmd := &cobra.Command{
		Use:   "process [image]",
		Short: "Run the pipeline on one image without the GUI",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cmd.Context().Err(); err != nil {
				return err
			}
			return c.runProcess(args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output PNG path (default <input>_stand.png)")
	cmd.Flags().StringVar(&opts.svg, "svg", "", "also write an SVG with the cut line (merge stage only)")
	cmd.Flags().IntVar(&opts.gap, "gap", opts.gap, "outline distance from the figure in pixels")
	cmd.Flags().IntVar(&opts.thickness, "thickness", opts.thickness, "outline width in pixels")
	cmd.Flags().StringVarP(&opts.pedestal, "pedestal", "p", "", "pedestal name")
	cmd.Flags().StringVar(&opts.stage, "stage", opts.stage, "last stage to run: outline, composite or merge")
	cmd.Flags().BoolVar(&opts.metrics, "metrics", false, "print run metrics as JSON")

	return cmd
}

func (c *CLI) runProcess(input string, opts processOpts) error {
	a, err := c.newApplication()
	if err != nil {
		return err
	}
	defer a.Shutdown()

	params := a.Config.Params()
	if opts.gap >= 0 {
		params.Gap = opts.gap
	}
	if opts.thickness >= 0 {
		params.Thickness = opts.thickness
	}
	if opts.pedestal != "" {
		params.Pedestal = opts.pedestal
	}
	if err := params.Validate(); err != nil {
		return err
	}

	coord := a.Coordinator
	if err := coord.LoadFile(input); err != nil {
		return err
	}
	if err := runStages(coord, params, opts.stage); err != nil {
		return err
	}

	output := opts.output
	if output == "" {
		output = defaultOutput(input)
	}
	if err := coord.SaveCurrentToPath(output); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "wrote %s (%s)\n", output, coord.State())

	if opts.svg != "" {
		if err := writeSVG(coord, opts.svg); err != nil {
			return err
		}
		fmt.Fprintf(c.out, "wrote %s\n", opts.svg)
	}

	if opts.metrics {
		enc := json.NewEncoder(c.out)
		enc.SetIndent("", "  ")
		return enc.Encode(coord.Metrics())
	}
	return nil
}

func runStages(coord *pipeline.Coordinator, params models.Params, stage string) error {
	switch stage {
	case stageOutline, stageComposite, stageMerge:
	default:
		return fmt.Errorf("%w: unknown stage %q", models.ErrInvalidParams, stage)
	}

	if err := coord.Outline(params.Gap, params.Thickness); err != nil {
		return fmt.Errorf("outline: %w", err)
	}
	if stage == stageOutline {
		return nil
	}
	if err := coord.Composite(params.Pedestal); err != nil {
		return fmt.Errorf("composite: %w", err)
	}
	if stage == stageComposite {
		return nil
	}
	if err := coord.Merge(); err != nil {
		return fmt.Errorf("merge: %w", err)
	}
	return nil
}

func writeSVG(coord *pipeline.Coordinator, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := coord.ExportSVG(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func defaultOutput(input string) string {
	ext := filepath.Ext(input)
	return strings.TrimSuffix(input, ext) + "_stand.png"
}
