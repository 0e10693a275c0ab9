package ray

import (
	"math"

	"octrace/vmath/vec3"
)

type Span struct {
	Lo, Hi float64
}

func NaNSpan() Span {
	return Span{math.NaN(), math.NaN()}
}

// SpanOverlaps reports whether the closed spans a and b share a point.
func SpanOverlaps(a, b Span) bool {
	return !(a.Lo > b.Hi || a.Hi < b.Lo)
}

func MinContainingSpan(a, b Span) Span {
	min := a.Lo
	if b.Lo < a.Lo {
		min = b.Lo
	}

	max := a.Hi
	if b.Hi > a.Hi {
		max = b.Hi
	}

	return Span{min, max}
}

func (s Span) Contains(x float64) bool {
	return s.Lo <= x && x <= s.Hi
}

func (s Span) Mid() float64 {
	return (s.Lo + s.Hi) / 2
}

func (s Span) IsFinite() bool {
	return !math.IsInf(s.Lo, 0) && !math.IsInf(s.Hi, 0)
}

func (s Span) IsNaN() bool {
	return math.IsNaN(s.Lo) || math.IsNaN(s.Hi)
}

// Ray is a half-line.  Slope is kept at unit length by New.
type Ray struct {
	Point vec3.T
	Slope vec3.T
}

func New(point, slope vec3.T) Ray {
	return Ray{
		Point: point,
		Slope: vec3.Normalize(slope),
	}
}

func (r *Ray) Eval(t float64) vec3.T {
	return vec3.T{
		r.Point[0] + t*r.Slope[0],
		r.Point[1] + t*r.Slope[1],
		r.Point[2] + t*r.Slope[2],
	}
}

// Toward returns the ray from p through target, together with the distance
// between them.
func Toward(p, target vec3.T) (Ray, float64) {
	d := vec3.SubVV(target, p)
	return New(p, d), d.Norm()
}

// Reflected returns the ray leaving p after r bounces off a surface with
// unit normal n.  The origin is pushed off the surface by eps on the side r
// arrived from.
func Reflected(r Ray, p, n vec3.T, eps float64) Ray {
	side := n
	if vec3.IProd(r.Slope, n) > 0 {
		side = vec3.MulVS(n, -1)
	}
	return New(vec3.AddVV(p, vec3.MulVS(side, eps)), vec3.Reflect(r.Slope, n))
}
