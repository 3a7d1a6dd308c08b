package geom

import "math"

// Deg2Rad converts degrees to radians.
func Deg2Rad(deg float64) float64 { return deg * math.Pi / 180 }

// Rad2Deg converts radians to degrees.
func Rad2Deg(rad float64) float64 { return rad * 180 / math.Pi }

// NormalizeDegrees wraps deg into (-180, 180].
func NormalizeDegrees(deg float64) float64 {
	d := math.Mod(deg, 360)
	if d <= -180 {
		d += 360
	} else if d > 180 {
		d -= 360
	}
	return d
}

// NormalizeRadians wraps rad into (-π, π].
func NormalizeRadians(rad float64) float64 {
	r := math.Mod(rad, 2*math.Pi)
	if r <= -math.Pi {
		r += 2 * math.Pi
	} else if r > math.Pi {
		r -= 2 * math.Pi
	}
	return r
}
