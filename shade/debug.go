package shade

import (
	"math"

	"octrace/color"
	"octrace/contact"
	"octrace/ray"
	"octrace/vmath/vec3"
)

const radToDeg = 180 / math.Pi

// DebugAxis colors hits by their position along Axis, wrapping the hue
// wheel every 360/Scale units.
type DebugAxis struct {
	Axis   vec3.T
	Scale  float64
	Offset float64
}

func (d *DebugAxis) Apply(r ray.Ray, hit *contact.Contact, t *Tracer) (color.Color, color.Color) {
	f := math.Mod(vec3.IProd(hit.P, d.Axis)*d.Scale+d.Offset, 360)
	if f < 0 {
		f += 360
	}
	return color.Chroma(float32(f)), color.Transparent()
}

type NormalMode int

const (
	// NormalXZ maps the normal's azimuth around Y to hue.
	NormalXZ NormalMode = iota
	// NormalY maps the normal's angle from +Y to gray level.
	NormalY
	// NormalBoth is NormalXZ fading to white toward -Y.
	NormalBoth
)

type DebugNormal struct {
	Mode NormalMode
}

func (d *DebugNormal) Apply(r ray.Ray, hit *contact.Contact, t *Tracer) (color.Color, color.Color) {
	n := hit.N
	azimuth := float32((math.Atan2(n[0], n[2]) + math.Pi) * radToDeg)
	polar := float32(math.Acos(math.Max(-1, math.Min(1, n[1]))) * radToDeg)

	var c color.Color
	switch d.Mode {
	case NormalY:
		c = color.Mix(color.Black(), color.White(), polar/180)
	case NormalBoth:
		c = color.Mix(color.Chroma(azimuth), color.White(), polar/90-0.25)
	default:
		c = color.Chroma(azimuth)
	}
	return c, color.Transparent()
}
