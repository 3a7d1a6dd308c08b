// Package config loads deskgeom configuration from TOML.
//
// Every field has a default, so a config file only needs the values it
// changes:
//
//	[mount.tolerances]
//	raise_cap_mm = 8
//
//	[camera]
//	fov_deg = 45
//
//	[[surfaces]]
//	id = "wall"
//	kind = "wall"
//	origin = [-1.0, 0.0, -0.6]
//	u = [2.0, 0.0, 0.0]
//	v = [0.0, 2.4, 0.0]
//
// Surfaces listed here form the registry's base table; surfaces extracted
// from scene geometry override them by id.
package config

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/sticky3d/deskgeom/pkg/errors"
	"github.com/sticky3d/deskgeom/pkg/geom"
	"github.com/sticky3d/deskgeom/pkg/layout"
	"github.com/sticky3d/deskgeom/pkg/mount"
	"github.com/sticky3d/deskgeom/pkg/surface"
	"github.com/sticky3d/deskgeom/pkg/validate"
)

// Config is the full configuration.
type Config struct {
	Mount     mount.Config        `toml:"mount"`
	Camera    layout.CameraConfig `toml:"camera"`
	Placement Placement           `toml:"placement"`
	Surfaces  []Surface           `toml:"surfaces"`
	Cache     Cache               `toml:"cache"`
	Store     Store               `toml:"store"`
	Server    Server              `toml:"server"`
}

// Placement holds monitor placement and validation thresholds in metres.
// AutoMonitor turns the monitor solver on; with it off the monitor keeps its
// authored transform and is only validated.
type Placement struct {
	AutoMonitor       bool    `toml:"auto_monitor"`
	MonitorClearance  float64 `toml:"monitor_clearance"`
	EdgeMargin        float64 `toml:"edge_margin"`
	HysteresisEpsilon float64 `toml:"hysteresis_epsilon"`
	ObjectTolerance   float64 `toml:"object_tolerance"`
	Align             bool    `toml:"align"`
}

// Surface is a statically configured surface.
type Surface struct {
	ID     string      `toml:"id"`
	Kind   string      `toml:"kind"`
	Origin [3]float64  `toml:"origin"`
	U      [3]float64  `toml:"u"`
	V      [3]float64  `toml:"v"`
	Normal *[3]float64 `toml:"normal"`
	ZLift  *float64    `toml:"z_lift"`
}

// Cache selects the result cache backend: "file", "redis" or "none".
type Cache struct {
	Backend       string        `toml:"backend"`
	Dir           string        `toml:"dir"`
	TTL           time.Duration `toml:"ttl"`
	RedisAddr     string        `toml:"redis_addr"`
	RedisPassword string        `toml:"redis_password"`
	RedisDB       int           `toml:"redis_db"`
}

// Store selects the dock offset store: "memory", "file" or "mongo".
type Store struct {
	Backend         string `toml:"backend"`
	Path            string `toml:"path"`
	MongoURI        string `toml:"mongo_uri"`
	MongoDatabase   string `toml:"mongo_database"`
	MongoCollection string `toml:"mongo_collection"`
}

// Server configures the HTTP API.
type Server struct {
	Addr         string        `toml:"addr"`
	ReadTimeout  time.Duration `toml:"read_timeout"`
	WriteTimeout time.Duration `toml:"write_timeout"`
	MaxBodyBytes int64         `toml:"max_body_bytes"`
}

// Default returns the built-in configuration.
func Default() *Config {
	v := validate.DefaultConfig()
	return &Config{
		Mount:  mount.DefaultConfig(),
		Camera: layout.DefaultCameraConfig(),
		Placement: Placement{
			AutoMonitor:       true,
			MonitorClearance:  v.MonitorClearance,
			EdgeMargin:        0.012,
			HysteresisEpsilon: 1e-6,
			ObjectTolerance:   v.ObjectTolerance,
		},
		Cache: Cache{
			Backend: "file",
			Dir:     filepath.Join(userDir(os.UserCacheDir), "deskgeom"),
			TTL:     24 * time.Hour,
		},
		Store: Store{
			Backend:         "file",
			Path:            filepath.Join(userDir(os.UserConfigDir), "deskgeom", "docks.json"),
			MongoDatabase:   "deskgeom",
			MongoCollection: "docks",
		},
		Server: Server{
			Addr:         ":8080",
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			MaxBodyBytes: 4 << 20,
		},
	}
}

func userDir(fn func() (string, error)) string {
	if dir, err := fn(); err == nil {
		return dir
	}
	return os.TempDir()
}

// Load reads path on top of the defaults. An empty path returns the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}
	if err := errors.ValidatePath(path); err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New(errors.ErrCodeFileNotFound, "config %s", path)
		}
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "open %s", path)
	}
	defer f.Close()
	return Decode(f)
}

// Decode reads TOML on top of the defaults and validates the result.
func Decode(r io.Reader) (*Config, error) {
	cfg := Default()
	md, err := toml.NewDecoder(r).Decode(cfg)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "decode config")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "unknown config key %q", undecoded[0].String())
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Encode writes cfg as TOML.
func (c *Config) Encode(w io.Writer) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "encode config")
	}
	_, err := w.Write(buf.Bytes())
	return err
}

// Validate rejects values no solver can work with.
func (c *Config) Validate() error {
	if err := c.Mount.Validate(); err != nil {
		return err
	}

	cam := c.Camera
	switch {
	case cam.FovDeg <= 0 || cam.FovDeg >= 180:
		return invalid("camera.fov_deg must be in (0, 180), got %v", cam.FovDeg)
	case cam.Margin <= 0:
		return invalid("camera.margin must be positive, got %v", cam.Margin)
	case cam.MinDolly <= 0 || cam.MinDolly > cam.MaxDolly:
		return invalid("camera dolly range [%v, %v] is invalid", cam.MinDolly, cam.MaxDolly)
	case cam.ElevationDeg <= -90 || cam.ElevationDeg >= 90:
		return invalid("camera.elevation_deg must be in (-90, 90), got %v", cam.ElevationDeg)
	case cam.FollowEpsilon <= 0 || cam.LooseEpsilon < cam.FollowEpsilon:
		return invalid("camera epsilons must satisfy 0 < follow_epsilon <= loose_epsilon")
	}

	p := c.Placement
	if p.MonitorClearance < 0 || p.EdgeMargin < 0 || p.HysteresisEpsilon < 0 || p.ObjectTolerance < 0 {
		return invalid("placement values must not be negative")
	}

	seen := make(map[string]bool, len(c.Surfaces))
	for _, s := range c.Surfaces {
		if seen[s.ID] {
			return invalid("duplicate surface %q", s.ID)
		}
		seen[s.ID] = true
	}
	if _, err := c.BaseSurfaces(); err != nil {
		return err
	}

	switch c.Cache.Backend {
	case "file", "redis", "none":
	default:
		return invalid("cache.backend must be file, redis or none, got %q", c.Cache.Backend)
	}
	if c.Cache.Backend == "redis" && c.Cache.RedisAddr == "" {
		return invalid("cache.redis_addr is required for the redis backend")
	}

	switch c.Store.Backend {
	case "memory", "file", "mongo":
	default:
		return invalid("store.backend must be memory, file or mongo, got %q", c.Store.Backend)
	}
	if c.Store.Backend == "mongo" && c.Store.MongoURI == "" {
		return invalid("store.mongo_uri is required for the mongo backend")
	}
	return nil
}

// BaseSurfaces converts the [[surfaces]] table.
func (c *Config) BaseSurfaces() ([]surface.Surface, error) {
	out := make([]surface.Surface, 0, len(c.Surfaces))
	for _, fs := range c.Surfaces {
		if err := errors.ValidateID(fs.ID); err != nil {
			return nil, err
		}
		kind, err := surface.ParseKind(fs.Kind)
		if err != nil {
			return nil, err
		}
		s := surface.Surface{
			ID:     fs.ID,
			Kind:   kind,
			Origin: geom.Vec(fs.Origin),
			UAxis:  geom.Vec(fs.U),
			VAxis:  geom.Vec(fs.V),
			ZLift:  fs.ZLift,
		}
		if fs.Normal != nil {
			n, ok := geom.Unit(geom.Vec(*fs.Normal))
			if !ok {
				return nil, errors.New(errors.ErrCodeDegenerateGeometry, "surface %q: zero normal", fs.ID)
			}
			s.N = n
		}
		if err := s.Validate(); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// ValidateConfig returns the validator thresholds.
func (c *Config) ValidateConfig() validate.Config {
	return validate.Config{
		MonitorClearance: c.Placement.MonitorClearance,
		ObjectTolerance:  c.Placement.ObjectTolerance,
	}
}

func invalid(format string, args ...any) error {
	return errors.New(errors.ErrCodeInvalidConfig, format, args...)
}
