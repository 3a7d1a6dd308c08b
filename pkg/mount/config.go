package mount

import "github.com/sticky3d/deskgeom/pkg/errors"

// Tolerances bound the verifier checks. Lengths are millimetres.
type Tolerances struct {
	AnchorMM       float64 `toml:"anchor_mm" json:"anchor_mm"`
	AxisDeg        float64 `toml:"axis_deg" json:"axis_deg"`
	RaiseCapMM     float64 `toml:"raise_cap_mm" json:"raise_cap_mm"`
	MinClearanceMM float64 `toml:"min_clearance_mm" json:"min_clearance_mm"`
}

// Config describes the mount parts. Lengths are millimetres.
type Config struct {
	BaseWidthMM     float64 `toml:"base_width_mm" json:"base_width_mm"`
	BaseThicknessMM float64 `toml:"base_thickness_mm" json:"base_thickness_mm"`
	BaseDepthMM     float64 `toml:"base_depth_mm" json:"base_depth_mm"`

	NeckRadiusMM float64 `toml:"neck_radius_mm" json:"neck_radius_mm"`
	// NeckMinMM and NeckMaxMM clamp the neck length for stands with a
	// fixed travel. Zero disables each bound. A clamped neck no longer
	// reaches the socket and the verifier reports it.
	NeckMinMM float64 `toml:"neck_min_mm" json:"neck_min_mm"`
	NeckMaxMM float64 `toml:"neck_max_mm" json:"neck_max_mm"`
	// MaxTiltDeg limits the neck's lean away from the desk normal.
	// Zero disables the limit.
	MaxTiltDeg float64 `toml:"max_tilt_deg" json:"max_tilt_deg"`

	PlateWidthMM     float64 `toml:"plate_width_mm" json:"plate_width_mm"`
	PlateHeightMM    float64 `toml:"plate_height_mm" json:"plate_height_mm"`
	PlateThicknessMM float64 `toml:"plate_thickness_mm" json:"plate_thickness_mm"`
	// PlateEpsilonMM keeps the plate off the monitor back so the two never
	// render coplanar.
	PlateEpsilonMM float64 `toml:"plate_epsilon_mm" json:"plate_epsilon_mm"`

	// BaseOffsetMM shifts the built base along the desk normal.
	BaseOffsetMM float64 `toml:"base_offset_mm" json:"base_offset_mm"`

	Tolerances Tolerances `toml:"tolerances" json:"tolerances"`
}

// DefaultConfig returns a 100 mm VESA-style stand.
func DefaultConfig() Config {
	return Config{
		BaseWidthMM:      220,
		BaseThicknessMM:  12,
		BaseDepthMM:      180,
		NeckRadiusMM:     15,
		PlateWidthMM:     120,
		PlateHeightMM:    120,
		PlateThicknessMM: 4,
		PlateEpsilonMM:   0.5,
		Tolerances: Tolerances{
			AnchorMM:       3,
			AxisDeg:        8,
			RaiseCapMM:     5,
			MinClearanceMM: 2,
		},
	}
}

// Validate rejects non-positive part dimensions and negative tolerances.
func (c Config) Validate() error {
	dims := []struct {
		name string
		v    float64
	}{
		{"base_width_mm", c.BaseWidthMM},
		{"base_thickness_mm", c.BaseThicknessMM},
		{"base_depth_mm", c.BaseDepthMM},
		{"neck_radius_mm", c.NeckRadiusMM},
		{"plate_width_mm", c.PlateWidthMM},
		{"plate_height_mm", c.PlateHeightMM},
		{"plate_thickness_mm", c.PlateThicknessMM},
	}
	for _, d := range dims {
		if d.v <= 0 {
			return errors.New(errors.ErrCodeInvalidConfig, "mount.%s must be positive, got %v", d.name, d.v)
		}
	}
	if c.NeckMinMM < 0 || c.NeckMaxMM < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "mount.neck_min_mm and neck_max_mm must not be negative")
	}
	if c.NeckMaxMM > 0 && c.NeckMinMM > c.NeckMaxMM {
		return errors.New(errors.ErrCodeInvalidConfig, "mount.neck_min_mm must not exceed neck_max_mm")
	}
	if c.MaxTiltDeg < 0 || c.MaxTiltDeg >= 90 {
		return errors.New(errors.ErrCodeInvalidConfig, "mount.max_tilt_deg must be in [0, 90)")
	}
	t := c.Tolerances
	if t.AnchorMM < 0 || t.AxisDeg < 0 || t.RaiseCapMM < 0 || t.MinClearanceMM < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "mount.tolerances must not be negative")
	}
	return nil
}
