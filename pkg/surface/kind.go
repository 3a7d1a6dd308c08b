package surface

import (
	"strings"

	"github.com/sticky3d/deskgeom/pkg/errors"
)

// Kind is the semantic role of a surface.
type Kind int

// Surface kinds.
const (
	KindDesk Kind = iota
	KindScreen
	KindWall
	KindMonitorArm
)

var kindNames = [...]string{
	KindDesk:       "desk",
	KindScreen:     "screen",
	KindWall:       "wall",
	KindMonitorArm: "monitor-arm",
}

// String returns the lowercase name used in scene files.
func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "unknown"
	}
	return kindNames[k]
}

// ParseKind parses a kind name. Matching is case-insensitive and accepts
// "monitorArm" and "monitor_arm" spellings.
func ParseKind(s string) (Kind, error) {
	norm := strings.ToLower(strings.NewReplacer("_", "-", " ", "-").Replace(s))
	if norm == "monitorarm" {
		norm = "monitor-arm"
	}
	for k, name := range kindNames {
		if name == norm {
			return Kind(k), nil
		}
	}
	return 0, errors.New(errors.ErrCodeInvalidKind, "unknown surface kind %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(b []byte) error {
	v, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = v
	return nil
}

// Supports reports whether objects can rest on surfaces of this kind, which
// decides whether clearance checks apply.
func (k Kind) Supports() bool {
	switch k {
	case KindDesk, KindMonitorArm:
		return true
	case KindScreen, KindWall:
		return false
	}
	return false
}

// Side selects which of the two parallel faces of a slab becomes the plane.
type Side int

// Sides.
const (
	SidePositive Side = iota
	SideNegative
	SideCenter
)

// String returns the side name.
func (s Side) String() string {
	switch s {
	case SidePositive:
		return "positive"
	case SideNegative:
		return "negative"
	case SideCenter:
		return "center"
	}
	return "unknown"
}

// ParseSide parses a side name. The empty string means positive.
func ParseSide(s string) (Side, error) {
	switch strings.ToLower(s) {
	case "", "positive", "+":
		return SidePositive, nil
	case "negative", "-":
		return SideNegative, nil
	case "center", "centre", "mid":
		return SideCenter, nil
	}
	return 0, errors.New(errors.ErrCodeInvalidInput, "unknown surface side %q", s)
}
