package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/sticky3d/deskgeom/pkg/errors"
	"github.com/sticky3d/deskgeom/pkg/mount"
	"github.com/sticky3d/deskgeom/pkg/pipeline"
	"github.com/sticky3d/deskgeom/pkg/surface"
)

// validateCommand creates the validate command.
func (c *CLI) validateCommand() *cobra.Command {
	var flags solveFlags

	cmd := &cobra.Command{
		Use:   "validate <scene.toml>",
		Short: "Check a solved scene for placement and mount issues",
		Long: `Validate solves the scene and lists every issue: the monitor sitting too
low, objects sunk into the desk or hanging over its edge, and failed mount
checks. The command exits non-zero when any issue is found.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := c.solveFile(cmd, args[0], &flags)
			if err != nil {
				return err
			}
			if res.OK() {
				printSuccess("%s has no issues", StyleValue.Render(res.SceneID))
				return nil
			}
			rows := make([][]string, 0, len(res.Issues))
			for _, is := range res.Issues {
				rows = append(rows, []string{is.Code, is.Object, fmt.Sprintf("%.4f", is.Value), is.Message})
			}
			printTable([]string{"Check", "Object", "Value", "Message"}, rows)
			return fmt.Errorf("%s: %d issues", res.SceneID, len(res.Issues))
		},
	}

	flags.register(cmd)
	return cmd
}

type projectOpts struct {
	solveFlags
	surface string
	origin  []float64
	dir     []float64
	checked bool
}

// projectCommand creates the project command.
func (c *CLI) projectCommand() *cobra.Command {
	var opts projectOpts

	cmd := &cobra.Command{
		Use:   "project <scene.toml>",
		Short: "Cast a ray onto a surface of a solved scene",
		Example: `  deskgeom project office.toml --surface desk --origin 0,2,0 --dir 0,-1,0
  deskgeom project office.toml --surface monitor-back --origin 0,1,1 --dir 0,0,-1 --checked`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ray, err := opts.ray()
			if err != nil {
				return err
			}
			res, err := c.solveFile(cmd, args[0], &opts.solveFlags)
			if err != nil {
				return err
			}
			s, ok := findSurface(res, opts.surface)
			if !ok {
				return errors.New(errors.ErrCodeSurfaceNotFound, "surface %q was not extracted", opts.surface)
			}

			var hit surface.Hit
			if opts.checked {
				if hit, err = surface.ProjectChecked(ray, s); err != nil {
					return err
				}
			} else {
				hit = surface.Project(ray, s)
			}
			printHit(s.ID, hit)
			return nil
		},
	}

	opts.register(cmd)
	cmd.Flags().StringVar(&opts.surface, "surface", "desk", "surface id")
	cmd.Flags().Float64SliceVar(&opts.origin, "origin", nil, "ray origin x,y,z")
	cmd.Flags().Float64SliceVar(&opts.dir, "dir", nil, "ray direction x,y,z")
	cmd.Flags().BoolVar(&opts.checked, "checked", false, "fail on a singular surface basis instead of reporting a miss")
	_ = cmd.MarkFlagRequired("origin")
	_ = cmd.MarkFlagRequired("dir")

	return cmd
}

func (o *projectOpts) ray() (surface.Ray, error) {
	origin, err := parseVec("origin", o.origin)
	if err != nil {
		return surface.Ray{}, err
	}
	dir, err := parseVec("dir", o.dir)
	if err != nil {
		return surface.Ray{}, err
	}
	return surface.Ray{Origin: origin, Dir: dir}, nil
}

func parseVec(name string, v []float64) (r3.Vec, error) {
	if len(v) != 3 {
		return r3.Vec{}, errors.New(errors.ErrCodeInvalidInput, "--%s needs 3 components, got %d", name, len(v))
	}
	return r3.Vec{X: v[0], Y: v[1], Z: v[2]}, nil
}

func findSurface(res *pipeline.Result, id string) (surface.Surface, bool) {
	for _, s := range res.Surfaces {
		if s.ID == id {
			return s, true
		}
	}
	return surface.Surface{}, false
}

func printHit(id string, hit surface.Hit) {
	if !hit.Hit {
		printWarning("Ray misses %s", id)
		return
	}
	if hit.Inside() {
		printSuccess("Ray hits %s", StyleValue.Render(id))
	} else {
		printWarning("Ray hits the plane of %s outside its bounds", id)
	}
	printKeyValue("uv", fmt.Sprintf("(%.4f, %.4f)", hit.U, hit.V))
	printKeyValue("t", fmt.Sprintf("%.4f", hit.T))
	printKeyValue("point", formatVec(hit.Point.X, hit.Point.Y, hit.Point.Z))
}

type mountOpts struct {
	solveFlags
	json bool
}

// mountCommand creates the mount command.
func (c *CLI) mountCommand() *cobra.Command {
	var opts mountOpts

	cmd := &cobra.Command{
		Use:   "mount <scene.toml>",
		Short: "Generate and verify the monitor mount of a scene",
		Long: `Mount solves the scene, anchors the mount on the desk and monitor surfaces,
builds base, neck and plate, and prints the verifier summary. The base is
raised automatically up to the configured cap when it intersects the desk.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := c.solveFile(cmd, args[0], &opts.solveFlags)
			if err != nil {
				return err
			}
			if res.Mount == nil {
				return errors.New(errors.ErrCodeNotFound, "scene %q has no mount or its surfaces were not extracted", res.SceneID)
			}
			if opts.json {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(res.Mount)
			}
			printMount(res.Mount)
			return nil
		},
	}

	opts.register(cmd)
	cmd.Flags().BoolVar(&opts.json, "json", false, "print the mount as JSON")
	return cmd
}

func printMount(m *mount.Result) {
	sum := m.Summary
	if sum.OK() {
		printSuccess("Mount verified")
	} else {
		printWarning("Mount has %d failures", len(sum.Failures))
	}

	printTable([]string{"Check", "OK", "Measured"}, [][]string{
		{"base clearance", checkMark(sum.BaseOK), fmt.Sprintf("gap %.3f mm", sum.GapMM)},
		{"socket", checkMark(sum.SocketOK), fmt.Sprintf("%.3f mm", sum.SocketErrMM)},
		{"axis", checkMark(sum.AxisOK), fmt.Sprintf("%.2f°", sum.AxisDeg)},
	})
	if sum.Adjusted.BaseRaiseMM > 0 {
		printDetail("base raised %.3f mm", sum.Adjusted.BaseRaiseMM)
	}
	for _, f := range sum.Failures {
		printDetail("%s: %s", f.Check, f.Message)
	}
}

// solveFile loads and solves path with a short-lived runner.
func (c *CLI) solveFile(cmd *cobra.Command, path string, flags *solveFlags) (*pipeline.Result, error) {
	sess, err := c.openSession(cmd, path, flags)
	if err != nil {
		return nil, err
	}
	defer sess.Close()
	return sess.solve(cmd.Context())
}
