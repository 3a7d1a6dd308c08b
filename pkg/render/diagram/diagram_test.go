package diagram

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/sticky3d/deskgeom/pkg/cache"
	"github.com/sticky3d/deskgeom/pkg/pipeline"
	"github.com/sticky3d/deskgeom/pkg/scene"
)

const deskScene = `
id = "small"
desk = "top"

[[props]]
name = "desk"
[props.root]
name = "Desk"
mesh = { min = [-0.6, 0.7, -0.3], max = [0.6, 0.74, 0.3] }

[[props]]
name = "mug"
[props.root]
name = "Mug"
mesh = { min = [-0.04, 0.0, -0.04], max = [0.04, 0.1, 0.04] }

[[objects]]
id = "desk"
prop = "desk"

[[objects]]
id = "mug"
prop = "mug"
dock = { lateral = 0.2, depth = 0.1, lift = 0.0, yaw_deg = 0.0 }

[[objects]]
id = "lost-mug"
prop = "mug"
position = [3.0, 0.74, 0.0]

[[surfaces]]
id = "top"
object = "desk"
node = "Desk"
kind = "desk"
`

func solved(t *testing.T) (*scene.Scene, *pipeline.Result) {
	t.Helper()
	s, err := scene.Decode(strings.NewReader(deskScene))
	if err != nil {
		t.Fatal(err)
	}
	res, err := pipeline.Solve(context.Background(), s, pipeline.Options{Logger: log.New(io.Discard)})
	if err != nil {
		t.Fatal(err)
	}
	return s, res
}

func TestToDOT(t *testing.T) {
	s, res := solved(t)
	dot := ToDOT(s, res, Options{})

	for _, want := range []string{
		`"obj:desk" -> "srf:top";`,
		`"srf:top" -> "obj:mug" [style=dashed, label="dock"];`,
		`"obj:lost-mug" [label="lost-mug", fillcolor=lightcoral];`,
		`"obj:mug" [label="mug", fillcolor=white];`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %s\n%s", want, dot)
		}
	}
	if strings.Contains(dot, "cluster_mount") {
		t.Error("no mount was requested")
	}
}

func TestToDOTDetailed(t *testing.T) {
	s, res := solved(t)
	dot := ToDOT(s, res, Options{Detailed: true})
	if !strings.Contains(dot, "1.200 × 0.040 × 0.600 m") {
		t.Errorf("detailed label missing desk size:\n%s", dot)
	}
}

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		format  string
		wantErr bool
	}{
		{"svg", false},
		{"png", false},
		{"dot", false},
		{"pdf", true},
		{"SVG", true}, // case-sensitive
		{"", true},
	}

	for _, tt := range tests {
		err := ValidateFormat(tt.format)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateFormat(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
		}
	}
}

func TestRenderSVG(t *testing.T) {
	s, res := solved(t)
	out, err := Render(context.Background(), ToDOT(s, res, Options{}), FormatSVG)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !bytes.Contains(out, []byte(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 `)) {
		t.Errorf("svg header not normalized: %.200s", out)
	}
}

func TestRenderCached(t *testing.T) {
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	s, res := solved(t)
	ctx := context.Background()
	keyer := cache.NewDefaultKeyer()

	first, hit, err := RenderCached(ctx, c, keyer, s, res, Options{}, FormatDOT)
	if err != nil || hit {
		t.Fatalf("first render: hit=%v err=%v", hit, err)
	}
	second, hit, err := RenderCached(ctx, c, keyer, s, res, Options{}, FormatDOT)
	if err != nil || !hit {
		t.Fatalf("second render: hit=%v err=%v", hit, err)
	}
	if !bytes.Equal(first, second) {
		t.Error("cached bytes differ")
	}
}

func normalize(svg string) string { return string(normalizeViewBox([]byte(svg))) }

func TestNormalizeViewBox(t *testing.T) {
	in := `<svg width="100pt" height="50pt" viewBox="0.00 0.00 100.00 50.00"><g/></svg>`
	want := `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 100.00 50.00" width="100" height="50"><g/></svg>`
	if got := normalize(in); got != want {
		t.Errorf("got %s", got)
	}
	if got := normalize("<svg><g/></svg>"); got != "<svg><g/></svg>" {
		t.Errorf("input without viewBox changed: %s", got)
	}
}
