package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sticky3d/deskgeom/pkg/httputil"
	"github.com/sticky3d/deskgeom/pkg/pipeline"
	"github.com/sticky3d/deskgeom/pkg/scene"
)

type solveOpts struct {
	solveFlags
	output string
	json   bool
	remote string
}

// solveCommand creates the solve command.
func (c *CLI) solveCommand() *cobra.Command {
	var opts solveOpts

	cmd := &cobra.Command{
		Use:   "solve <scene.toml>",
		Short: "Solve a scene layout",
		Long: `Solve extracts the configured surfaces, re-docks accessories on the desk,
places the monitor, frames the default camera and generates the mount.

The solved scene can be written back with --output; --json prints the full
result instead of the summary.`,
		Example: `  deskgeom solve office.toml
  deskgeom solve office.toml --align -o office.solved.toml
  deskgeom solve office.toml --remote http://localhost:8080 --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.remote != "" {
				return c.runSolveRemote(cmd, args[0], &opts)
			}
			return c.runSolve(cmd, args[0], &opts)
		},
	}

	opts.register(cmd)
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "write the solved scene to this file")
	cmd.Flags().BoolVar(&opts.json, "json", false, "print the result as JSON")
	cmd.Flags().StringVar(&opts.remote, "remote", "", "solve on a deskgeom server at this URL")

	return cmd
}

func (c *CLI) runSolve(cmd *cobra.Command, path string, opts *solveOpts) error {
	ctx := cmd.Context()
	watch := startWatch(loggerFromContext(ctx))

	sess, err := c.openSession(cmd, path, &opts.solveFlags)
	if err != nil {
		return err
	}
	defer sess.Close()

	res, err := sess.solve(ctx)
	if err != nil {
		return err
	}
	watch.done("solved", "scene", res.SceneID, "cached", res.CacheHit)

	if opts.output != "" {
		var buf bytes.Buffer
		if err := scene.Encode(sess.scene, &buf); err != nil {
			return err
		}
		if err := writeOutput(opts.output, buf.Bytes()); err != nil {
			return err
		}
	}
	return reportSolve(cmd, res, opts)
}

func (c *CLI) runSolveRemote(cmd *cobra.Command, path string, opts *solveOpts) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read scene: %w", err)
	}

	client := httputil.NewClient(opts.remote)
	var ro httputil.SolveOptions
	if cmd.Flags().Changed("align") {
		ro.Align = &opts.align
	}
	ro.Refresh = opts.refresh

	spinner := newSpinner(cmd.Context(), "Solving on "+opts.remote)
	spinner.Start()
	res, solved, err := client.Solve(cmd.Context(), data, ro)
	spinner.Stop()
	if err != nil {
		return err
	}

	if opts.output != "" {
		if err := writeOutput(opts.output, []byte(solved)); err != nil {
			return err
		}
	}
	return reportSolve(cmd, res, opts)
}

func reportSolve(cmd *cobra.Command, res *pipeline.Result, opts *solveOpts) error {
	if opts.json {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}

	printSolveSummary(res)
	if opts.output != "" {
		printFile(opts.output)
	}
	return nil
}

func printSolveSummary(res *pipeline.Result) {
	if res.OK() {
		printSuccess("Solved %s", StyleValue.Render(res.SceneID))
	} else {
		printWarning("Solved %s with %d issues", res.SceneID, len(res.Issues))
	}
	printStats(len(res.Surfaces), len(res.Docked), len(res.Issues), res.CacheHit)

	for _, s := range res.Skipped {
		printDetail("skipped %s (%s): %s", s.ID, s.Node, s.Error)
	}
	if res.Frame != nil {
		c := res.Frame.Center
		printKeyValue("desk center", formatVec(c.X, c.Y, c.Z))
	}
	if m := res.Monitor; m != nil {
		p := m.Position
		printKeyValue("monitor", formatVec(p.X, p.Y, p.Z))
	}
	if cam := res.Camera; cam != nil {
		p := cam.Pose
		printKeyValue("camera", fmt.Sprintf("%s yaw %.3f pitch %.3f dolly %.3f", res.View.Mode, p.Yaw, p.Pitch, p.Dolly))
	}
	if res.Mount != nil {
		sum := res.Mount.Summary
		status := StyleSuccess.Render("ok")
		if !sum.OK() {
			status = StyleError.Render(fmt.Sprintf("%d failures", len(sum.Failures)))
		}
		printKeyValue("mount", status)
	}
	for _, is := range res.Issues {
		printDetail("%s %s: %s", is.Code, is.Object, is.Message)
	}
}

// writeOutput writes data to path, or to stdout for "-".
func writeOutput(path string, data []byte) error {
	if path == "-" {
		_, err := stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
