package sim

import "math"

// Angle is the mechanical angle of a simulated knob in radians,
// normalized into (-π, π].
type Angle float64

// AngleFromDegrees creates Angle from degrees.
func AngleFromDegrees(d float64) Angle {
	return Angle(normalizeRadians(d * math.Pi / 180.0))
}

// AngleFromRaw creates Angle from a 14-bit sensor reading.
func AngleFromRaw(raw uint16) Angle {
	return Angle(normalizeRadians(float64(raw&0x3fff) * 2 * math.Pi / 16384))
}

// AddDegrees adds degress to current angle.
func (a Angle) AddDegrees(d float64) Angle {
	return Angle(normalizeRadians(float64(a) + d*math.Pi/180.0))
}

// Degrees gets angle in degrees.
func (a Angle) Degrees() float64 {
	return float64(a) * 180 / math.Pi
}

// Raw converts the angle into the 14-bit sensor reading.
func (a Angle) Raw() uint16 {
	r := float64(a)
	if r < 0 {
		r += 2 * math.Pi
	}
	return uint16(math.Round(r*16384/(2*math.Pi))) & 0x3fff
}

func normalizeRadians(r float64) float64 {
	if r >= 2*math.Pi || r <= -2*math.Pi {
		r = math.Remainder(r, 2*math.Pi)
	}
	if r > math.Pi {
		r -= 2 * math.Pi
	} else if r <= -math.Pi {
		r += 2 * math.Pi
	}
	return r
}
