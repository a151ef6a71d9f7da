package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/lightdesk/pkg/errors"
	"github.com/matzehuels/lightdesk/pkg/graph"
)

type graphOpts struct {
	config   string
	output   string
	detailed bool
}

func (c *CLI) graphCommand() *cobra.Command {
	var opts graphOpts
	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Draw the stage document as a diagram",
		Long: `Graph draws outputs, cues and every cue's module tree. The output format
follows the extension of --output: .svg renders with Graphviz, anything else
(or no --output) writes DOT source.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.graph(cmd, opts)
		},
	}
	cmd.Flags().StringVar(&opts.config, "config", "", "stage document to draw instead of the stored one")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (.svg or .dot)")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "include each node's config")
	return cmd
}

func (c *CLI) graph(cmd *cobra.Command, opts graphOpts) error {
	ctx := cmd.Context()
	cfg, err := c.loadConfig(ctx, opts.config)
	if err != nil {
		return err
	}
	dot := graph.ToDOT(cfg, graph.Options{Detailed: opts.detailed})

	w := cmd.OutOrStdout()
	switch ext := strings.ToLower(filepath.Ext(opts.output)); {
	case opts.output == "" || opts.output == "-":
		_, err := fmt.Fprint(w, dot)
		return err
	case ext == ".svg":
		spinner := newSpinner(ctx, cmd.ErrOrStderr(), "Rendering...")
		spinner.Start()
		svg, err := graph.RenderSVG(ctx, dot)
		if err != nil {
			spinner.StopWithError("Render failed")
			return errors.Wrap(errors.ErrCodeInternal, err, "render svg")
		}
		spinner.Stop()
		if err := os.WriteFile(opts.output, svg, 0o644); err != nil {
			return err
		}
	default:
		if err := os.WriteFile(opts.output, []byte(dot), 0o644); err != nil {
			return err
		}
	}
	printFile(w, opts.output)
	return nil
}
