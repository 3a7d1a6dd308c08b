package diagram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/sticky3d/deskgeom/pkg/cache"
	"github.com/sticky3d/deskgeom/pkg/errors"
	"github.com/sticky3d/deskgeom/pkg/mount"
	"github.com/sticky3d/deskgeom/pkg/pipeline"
	"github.com/sticky3d/deskgeom/pkg/scene"
)

// Output formats.
const (
	FormatDOT = "dot"
	FormatSVG = "svg"
	FormatPNG = "png"
)

// Formats lists the accepted output formats.
var Formats = []string{FormatDOT, FormatSVG, FormatPNG}

// ValidateFormat returns INVALID_INPUT for unknown formats.
func ValidateFormat(format string) error {
	for _, f := range Formats {
		if f == format {
			return nil
		}
	}
	return errors.New(errors.ErrCodeInvalidInput, "unknown diagram format %q (want %s)", format, strings.Join(Formats, ", "))
}

// Options configures diagram generation.
type Options struct {
	// Detailed adds measurements to node labels.
	Detailed bool
}

const (
	colorOK   = "palegreen"
	colorFail = "lightcoral"
	colorIdle = "white"
)

// ToDOT converts a solved scene to Graphviz DOT. Objects point at the
// surfaces extracted from them; the desk surface points at docked objects
// and at the mount chain. Anything named in an issue is filled red.
func ToDOT(s *scene.Scene, res *pipeline.Result, opts Options) string {
	flagged := make(map[string]bool)
	for _, is := range res.Issues {
		if is.Object != "" {
			flagged[is.Object] = true
		}
	}
	extracted := make(map[string]bool, len(res.Surfaces))
	for _, surf := range res.Surfaces {
		extracted[surf.ID] = true
	}

	var buf bytes.Buffer
	buf.WriteString("digraph scene {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.6;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	for _, o := range s.Objects {
		fill := colorIdle
		if flagged[o.ID] {
			fill = colorFail
		}
		label := o.ID
		if opts.Detailed && o.Bounds != nil {
			sz := o.Bounds.Size()
			label += fmt.Sprintf("\n%.3f × %.3f × %.3f m", sz.X, sz.Y, sz.Z)
		}
		fmt.Fprintf(&buf, "  %q [label=%q, fillcolor=%s];\n", "obj:"+o.ID, label, fill)
	}
	buf.WriteString("\n")

	for _, sp := range s.Surfaces {
		style := "filled"
		if !extracted[sp.ID] {
			style = "filled,dashed"
		}
		label := sp.ID + "\n" + sp.Kind
		fmt.Fprintf(&buf, "  %q [label=%q, shape=ellipse, style=%q, fillcolor=lightblue];\n", "srf:"+sp.ID, label, style)
		fmt.Fprintf(&buf, "  %q -> %q;\n", "obj:"+sp.Object, "srf:"+sp.ID)
	}

	desk := "srf:" + s.Desk
	docked := make([]string, 0, len(res.Docked))
	for _, d := range res.Docked {
		docked = append(docked, d.ID)
	}
	sort.Strings(docked)
	for _, id := range docked {
		fmt.Fprintf(&buf, "  %q -> %q [style=dashed, label=\"dock\"];\n", desk, "obj:"+id)
	}
	if res.Monitor != nil && s.Monitor != "" {
		fmt.Fprintf(&buf, "  %q -> %q [style=dotted, label=\"rests on\"];\n", "obj:"+s.Monitor, desk)
	}

	if res.Mount != nil && s.Mount != nil {
		writeMount(&buf, s.Mount, res.Mount.Summary, opts)
	}

	buf.WriteString("}\n")
	return buf.String()
}

func writeMount(buf *bytes.Buffer, m *scene.MountSpec, sum mount.VerifySummary, opts Options) {
	status := func(ok bool) string {
		if ok {
			return colorOK
		}
		return colorFail
	}
	base, neck, plate := "base", "neck", "plate"
	if opts.Detailed {
		base += fmt.Sprintf("\nraise %.2f mm", sum.Adjusted.BaseRaiseMM)
		neck += fmt.Sprintf("\naxis %.2f°", sum.AxisDeg)
		plate += fmt.Sprintf("\nsocket %.2f mm", sum.SocketErrMM)
	}

	buf.WriteString("\n  subgraph cluster_mount {\n")
	buf.WriteString("    label=\"mount\";\n")
	buf.WriteString("    style=rounded;\n")
	fmt.Fprintf(buf, "    \"mnt:base\" [label=%q, fillcolor=%s];\n", base, status(sum.BaseOK))
	fmt.Fprintf(buf, "    \"mnt:neck\" [label=%q, fillcolor=%s];\n", neck, status(sum.AxisOK))
	fmt.Fprintf(buf, "    \"mnt:plate\" [label=%q, fillcolor=%s];\n", plate, status(sum.SocketOK))
	buf.WriteString("  }\n")
	fmt.Fprintf(buf, "  %q -> \"mnt:base\" -> \"mnt:neck\" -> \"mnt:plate\" -> %q;\n",
		"srf:"+m.DeskSurface, "srf:"+m.MonitorSurface)
}

// Render produces the diagram in format. DOT is returned as-is; SVG and
// PNG are laid out by Graphviz in-process.
func Render(ctx context.Context, dot, format string) ([]byte, error) {
	if err := ValidateFormat(format); err != nil {
		return nil, err
	}
	if format == FormatDOT {
		return []byte(dot), nil
	}

	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "init graphviz")
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "parse DOT")
	}
	defer g.Close()

	gvFormat := graphviz.SVG
	if format == FormatPNG {
		gvFormat = graphviz.PNG
	}
	var buf bytes.Buffer
	if err := gv.Render(ctx, g, gvFormat, &buf); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "render %s", format)
	}
	if format == FormatSVG {
		return normalizeViewBox(buf.Bytes()), nil
	}
	return buf.Bytes(), nil
}

// RenderCached renders the diagram of res through c. The key covers the
// solved result and the options, so a re-solve that changes nothing reuses
// the stored bytes.
func RenderCached(ctx context.Context, c cache.Cache, keyer cache.Keyer, s *scene.Scene, res *pipeline.Result, opts Options, format string) ([]byte, bool, error) {
	data, err := json.Marshal(struct {
		Result   *pipeline.Result `json:"result"`
		Detailed bool             `json:"detailed"`
	}{res, opts.Detailed})
	if err != nil {
		return nil, false, errors.Wrap(errors.ErrCodeInternal, err, "hash result")
	}
	key := keyer.DiagramKey(cache.Hash(data), cache.DiagramKeyOpts{Format: format})

	if out, hit, err := c.Get(ctx, key); err == nil && hit {
		return out, true, nil
	}
	out, err := Render(ctx, ToDOT(s, res, opts), format)
	if err != nil {
		return nil, false, err
	}
	_ = c.Set(ctx, key, out, 0)
	return out, false, nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces Graphviz's point-sized svg header with one that
// scales to its container.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	header := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(header))
}
