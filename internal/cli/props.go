package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sticky3d/deskgeom/pkg/geom"
	"github.com/sticky3d/deskgeom/pkg/props"
	"github.com/sticky3d/deskgeom/pkg/scene"
)

// propsCommand creates the props command.
func (c *CLI) propsCommand() *cobra.Command {
	var catalog, scenePath string

	cmd := &cobra.Command{
		Use:   "props",
		Short: "List the prop catalog",
		Long: `Props prints every catalogued prop with its real-world target size. With
--scene, objects of the scene are measured against the catalog and their
rescaled footprint on the desk is shown.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cat := props.Default()
			if catalog != "" {
				var err error
				if cat, err = props.LoadFile(catalog); err != nil {
					return err
				}
			}
			if scenePath != "" {
				sc, err := scene.ReadFile(scenePath)
				if err != nil {
					return err
				}
				printFootprints(sc, cat)
				return nil
			}
			printCatalog(cat)
			return nil
		},
	}

	cmd.Flags().StringVar(&catalog, "catalog", "", "prop catalog TOML (default: built-in)")
	cmd.Flags().StringVar(&scenePath, "scene", "", "measure the objects of this scene")
	return cmd
}

func printCatalog(cat *props.Catalog) {
	var rows [][]string
	for _, name := range cat.Names() {
		p, _ := cat.Get(name)
		target := "-"
		if p.TargetM > 0 {
			target = fmt.Sprintf("%.3f m %s", p.TargetM, p.Measure)
		}
		scale := "-"
		if p.Scale > 0 {
			scale = fmt.Sprintf("%g", p.Scale)
		}
		var flags []string
		if p.Skip {
			flags = append(flags, "skip")
		}
		if p.Dockable {
			flags = append(flags, "dockable")
		}
		rows = append(rows, []string{p.Name, p.File, target, scale, strings.Join(flags, ",")})
	}
	printTable([]string{"Prop", "File", "Target", "Scale", "Flags"}, rows)
}

// printFootprints shows each catalogued object's desk footprint after
// rescaling. Footprints use the world axes since no desk frame is solved.
func printFootprints(sc *scene.Scene, cat *props.Catalog) {
	right, forward := geom.Right, geom.Forward
	var rows [][]string
	for _, o := range sc.Objects {
		p, ok := cat.Get(o.Prop)
		if !ok || p.Skip {
			continue
		}
		tree, ok := sc.Props[o.Prop]
		if !ok {
			continue
		}
		b := tree.LocalBounds()
		scale := p.ScaleFor(b)
		hr, hf := props.Footprint(b, scale, right, forward)
		rows = append(rows, []string{
			o.ID, p.Name,
			fmt.Sprintf("%.4f", scale),
			fmt.Sprintf("%.3f × %.3f m", 2*hr, 2*hf),
		})
	}
	if len(rows) == 0 {
		printInfo("No catalogued objects in %s", sc.ID)
		return
	}
	printTable([]string{"Object", "Prop", "Scale", "Footprint"}, rows)
}
