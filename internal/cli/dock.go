package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sticky3d/deskgeom/pkg/geom"
	"github.com/sticky3d/deskgeom/pkg/httputil"
	"github.com/sticky3d/deskgeom/pkg/pipeline"
	"github.com/sticky3d/deskgeom/pkg/placement"
	"github.com/sticky3d/deskgeom/pkg/scene"
	"github.com/sticky3d/deskgeom/pkg/store"
)

type dockOpts struct {
	solveFlags
	lateral float64
	depth   float64
	lift    float64
	yawDeg  float64
	remote  string
}

func (o *dockOpts) explicit(cmd *cobra.Command) bool {
	for _, name := range []string{"lateral", "depth", "lift", "yaw"} {
		if cmd.Flags().Changed(name) {
			return true
		}
	}
	return false
}

func (o *dockOpts) offset() placement.DockOffset {
	return placement.DockOffset{
		Lateral: o.lateral,
		Depth:   o.depth,
		Lift:    o.lift,
		Yaw:     geom.NormalizeRadians(geom.Deg2Rad(o.yawDeg)),
	}
}

// dockCommand creates the dock command.
func (c *CLI) dockCommand() *cobra.Command {
	var opts dockOpts

	cmd := &cobra.Command{
		Use:   "dock <scene.toml> <object>",
		Short: "Dock an object to the desk",
		Long: `Dock stores a desk-relative offset for the object so later solves keep it
on the desk wherever the desk moves.

Without offset flags the object's current placement is captured. With any of
--lateral, --depth, --lift or --yaw the offset is set directly.`,
		Example: `  deskgeom dock office.toml lamp
  deskgeom dock office.toml lamp --lateral -0.5 --depth 0.2 --yaw 90`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			off, err := c.runDock(cmd, args[0], args[1], &opts)
			if err != nil {
				return err
			}
			printSuccess("Docked %s", StyleValue.Render(args[1]))
			printDockOffset(off)
			return nil
		},
	}

	opts.register(cmd)
	cmd.Flags().Float64Var(&opts.lateral, "lateral", 0, "offset along the desk's right axis in metres")
	cmd.Flags().Float64Var(&opts.depth, "depth", 0, "offset along the desk's forward axis in metres")
	cmd.Flags().Float64Var(&opts.lift, "lift", 0, "offset above the desk top in metres")
	cmd.Flags().Float64Var(&opts.yawDeg, "yaw", 0, "yaw relative to the desk in degrees")
	cmd.Flags().StringVar(&opts.remote, "remote", "", "store the offset on a deskgeom server at this URL")

	return cmd
}

func (c *CLI) runDock(cmd *cobra.Command, path, objectID string, opts *dockOpts) (placement.DockOffset, error) {
	ctx := cmd.Context()
	sess, err := c.openSession(cmd, path, &opts.solveFlags)
	if err != nil {
		return placement.DockOffset{}, err
	}
	defer sess.Close()

	if opts.remote != "" {
		// Capture locally without touching the configured store.
		sess.runner.Store = store.NewMemoryStore()
	}

	var off placement.DockOffset
	if opts.explicit(cmd) {
		off = opts.offset()
		err = sess.runner.SetDock(ctx, sess.scene, objectID, off)
	} else {
		off, err = sess.runner.Dock(ctx, sess.scene, objectID, sess.opts)
	}
	if err != nil {
		return placement.DockOffset{}, err
	}

	if opts.remote != "" {
		if _, err := httputil.NewClient(opts.remote).PutDock(ctx, sess.scene.ID, objectID, off); err != nil {
			return placement.DockOffset{}, err
		}
	}
	return off, nil
}

type remoteOpts struct {
	remote string
}

// undockCommand creates the undock command.
func (c *CLI) undockCommand() *cobra.Command {
	var opts remoteOpts

	cmd := &cobra.Command{
		Use:   "undock <scene.toml> <object>",
		Short: "Forget an object's dock offset",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			sc, err := scene.ReadFile(args[0])
			if err != nil {
				return err
			}
			if opts.remote != "" {
				err = httputil.NewClient(opts.remote).DeleteDock(ctx, sc.ID, args[1])
			} else {
				err = c.withRunner(cmd, func(r *pipeline.Runner) error {
					return r.Undock(ctx, sc, args[1])
				})
			}
			if err != nil {
				return err
			}
			printSuccess("Undocked %s", StyleValue.Render(args[1]))
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.remote, "remote", "", "deskgeom server URL")
	return cmd
}

// docksCommand creates the docks command.
func (c *CLI) docksCommand() *cobra.Command {
	var opts remoteOpts

	cmd := &cobra.Command{
		Use:   "docks <scene-id>",
		Short: "List the stored dock offsets of a scene",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			var records []store.Record
			var err error
			if opts.remote != "" {
				records, err = httputil.NewClient(opts.remote).Docks(ctx, args[0])
			} else {
				err = c.withRunner(cmd, func(r *pipeline.Runner) error {
					records, err = r.Store.List(ctx, args[0])
					return err
				})
			}
			if err != nil {
				return err
			}
			if len(records) == 0 {
				printInfo("No docked objects in %s", args[0])
				return nil
			}
			printDockTable(records)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.remote, "remote", "", "deskgeom server URL")
	return cmd
}

// withRunner runs fn with a runner built from the loaded config.
func (c *CLI) withRunner(cmd *cobra.Command, fn func(*pipeline.Runner) error) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	r, err := c.newRunner(cmd.Context(), cfg, true)
	if err != nil {
		return err
	}
	defer r.Close()
	return fn(r)
}

func printDockOffset(off placement.DockOffset) {
	d := pipeline.DockSpec(off)
	printKeyValue("lateral", fmt.Sprintf("%.4f m", d.Lateral))
	printKeyValue("depth", fmt.Sprintf("%.4f m", d.Depth))
	printKeyValue("lift", fmt.Sprintf("%.4f m", d.Lift))
	printKeyValue("yaw", fmt.Sprintf("%.2f°", d.YawDeg))
}

func printDockTable(records []store.Record) {
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		d := pipeline.DockSpec(r.Offset)
		rows = append(rows, []string{
			r.ObjectID,
			fmt.Sprintf("%.4f", d.Lateral),
			fmt.Sprintf("%.4f", d.Depth),
			fmt.Sprintf("%.4f", d.Lift),
			fmt.Sprintf("%.2f", d.YawDeg),
			r.UpdatedAt.Format("2006-01-02 15:04"),
		})
	}
	printTable([]string{"Object", "Lateral", "Depth", "Lift", "Yaw°", "Updated"}, rows)
}
