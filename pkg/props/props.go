// Package props is the catalog of desk props and their real-world sizes.
//
// Meshes arrive in arbitrary units. A [Prop] knows the size it should have
// in the scene and computes the uniform scale that gets it there from a
// measured bounding box ([Prop.ScaleFor]). [Footprint] turns a box and a
// scale into half spans along desk axes for edge clamping.
package props

import (
	_ "embed"
	"io"
	"math"
	"os"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/sticky3d/deskgeom/pkg/errors"
	"github.com/sticky3d/deskgeom/pkg/geom"
)

//go:embed catalog.toml
var defaultCatalog string

// Measure selects which box dimension TargetM refers to.
type Measure string

const (
	MeasureLongest  Measure = "longest"
	MeasureDiagonal Measure = "diagonal"
)

// Prop is one catalog entry.
type Prop struct {
	Name     string  `toml:"name" json:"name"`
	File     string  `toml:"file" json:"file"`
	TargetM  float64 `toml:"target_m" json:"target_m,omitempty"`
	Measure  Measure `toml:"measure" json:"measure,omitempty"`
	Scale    float64 `toml:"scale" json:"scale,omitempty"`
	Skip     bool    `toml:"skip" json:"skip,omitempty"`
	Dockable bool    `toml:"dockable" json:"dockable,omitempty"`
}

// ScaleFor returns the uniform scale that brings a mesh measuring b to the
// prop's target size. Skipped props and props without a target keep their
// fixed Scale (or 1). An empty or flat box also falls back to Scale.
func (p Prop) ScaleFor(b geom.Bounds) float64 {
	if p.Skip {
		return 1
	}
	if p.TargetM > 0 && !b.IsEmpty() {
		if m := p.measure(b.Size()); m > 0 {
			return p.TargetM / m
		}
	}
	if p.Scale > 0 {
		return p.Scale
	}
	return 1
}

func (p Prop) measure(size r3.Vec) float64 {
	dims := []float64{size.X, size.Y, size.Z}
	sort.Float64s(dims)
	if p.Measure == MeasureDiagonal {
		return math.Hypot(dims[1], dims[2])
	}
	return dims[2]
}

// Footprint returns the half spans of b scaled by scale along right and
// forward.
func Footprint(b geom.Bounds, scale float64, right, forward r3.Vec) (halfRight, halfForward float64) {
	if b.IsEmpty() {
		return 0, 0
	}
	s := math.Abs(scale)
	return geom.HalfSpan(b, right) * s, geom.HalfSpan(b, forward) * s
}

// Catalog indexes props by name.
type Catalog struct {
	props map[string]Prop
}

type catalogFile struct {
	Prop []Prop `toml:"prop"`
}

// Default returns the built-in catalog.
func Default() *Catalog {
	c, err := Decode(strings.NewReader(defaultCatalog))
	if err != nil {
		panic("props: embedded catalog: " + err.Error())
	}
	return c
}

// LoadFile reads a catalog from a TOML file.
func LoadFile(path string) (*Catalog, error) {
	if err := errors.ValidatePath(path); err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New(errors.ErrCodeFileNotFound, "prop catalog %s", path)
		}
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "open %s", path)
	}
	defer f.Close()
	return Decode(f)
}

// Decode parses a catalog.
func Decode(r io.Reader) (*Catalog, error) {
	var file catalogFile
	if _, err := toml.NewDecoder(r).Decode(&file); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "decode prop catalog")
	}
	c := &Catalog{props: make(map[string]Prop, len(file.Prop))}
	for _, p := range file.Prop {
		if err := errors.ValidateID(p.Name); err != nil {
			return nil, err
		}
		if _, dup := c.props[p.Name]; dup {
			return nil, errors.New(errors.ErrCodeInvalidConfig, "duplicate prop %q", p.Name)
		}
		switch p.Measure {
		case "":
			p.Measure = MeasureLongest
		case MeasureLongest, MeasureDiagonal:
		default:
			return nil, errors.New(errors.ErrCodeInvalidConfig, "prop %q: unknown measure %q", p.Name, p.Measure)
		}
		if p.TargetM < 0 || p.Scale < 0 {
			return nil, errors.New(errors.ErrCodeInvalidConfig, "prop %q: sizes must not be negative", p.Name)
		}
		c.props[p.Name] = p
	}
	return c, nil
}

// Get returns the named prop.
func (c *Catalog) Get(name string) (Prop, bool) {
	p, ok := c.props[name]
	return p, ok
}

// Names returns every prop name in sorted order.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.props))
	for n := range c.props {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
