package cli

import (
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sticky3d/deskgeom/pkg/render/diagram"
)

type graphOpts struct {
	solveFlags
	format   string
	output   string
	detailed bool
}

// graphCommand creates the graph command.
func (c *CLI) graphCommand() *cobra.Command {
	var opts graphOpts

	cmd := &cobra.Command{
		Use:   "graph <scene.toml>",
		Short: "Render the scene's surface and mount diagram",
		Long: `Graph solves the scene and draws how objects, their surfaces, docked
accessories and the mount chain relate. Nodes named by an issue are red.

The format defaults to the output file's extension, or svg.`,
		Example: `  deskgeom graph office.toml -o office.svg
  deskgeom graph office.toml -f dot --detailed -o -`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runGraph(cmd, args[0], &opts)
		},
	}

	opts.register(cmd)
	cmd.Flags().StringVarP(&opts.format, "format", "f", "", "output format: "+strings.Join(diagram.Formats, ", "))
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default <scene>.<format>, - for stdout)")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "add measurements to node labels")

	return cmd
}

func (c *CLI) runGraph(cmd *cobra.Command, path string, opts *graphOpts) error {
	ctx := cmd.Context()

	format := opts.format
	if format == "" {
		format = strings.TrimPrefix(filepath.Ext(opts.output), ".")
	}
	if format == "" {
		format = diagram.FormatSVG
	}
	if err := diagram.ValidateFormat(format); err != nil {
		return err
	}
	output := opts.output
	if output == "" {
		output = strings.TrimSuffix(path, filepath.Ext(path)) + "." + format
	}

	sess, err := c.openSession(cmd, path, &opts.solveFlags)
	if err != nil {
		return err
	}
	defer sess.Close()

	spinner := newSpinner(ctx, "Solving "+path)
	spinner.Start()
	res, err := sess.solve(ctx)
	if err != nil {
		spinner.Stop()
		return err
	}
	spinner.Update("Rendering " + format)
	data, hit, err := diagram.RenderCached(ctx, sess.runner.Cache, sess.runner.Keyer, sess.scene, res,
		diagram.Options{Detailed: opts.detailed}, format)
	spinner.Stop()
	if err != nil {
		return err
	}

	if err := writeOutput(output, data); err != nil {
		return err
	}
	if output != "-" {
		printSuccess("Rendered %s", StyleValue.Render(res.SceneID))
		printStats(len(res.Surfaces), len(res.Docked), len(res.Issues), hit)
		printFile(output)
	}
	return nil
}
