package aabox

import (
	"math"

	"octrace/affinetransform"
	"octrace/ray"
	"octrace/vmath/vec3"
)

// ParallelThreshold is the slope magnitude below which a ray is treated as
// parallel to a slab.
const ParallelThreshold = 1e-10

const overlapEpsilon = 1e-9

// AABox is an axis-aligned box.  Lo <= Hi holds on every axis for boxes
// built with New, Expand or MinContainingAABox.
type AABox struct {
	X, Y, Z ray.Span
}

// New returns the smallest box containing both corners.
func New(a, b vec3.T) AABox {
	lo := vec3.MinVV(a, b)
	hi := vec3.MaxVV(a, b)
	return AABox{
		X: ray.Span{Lo: lo[0], Hi: hi[0]},
		Y: ray.Span{Lo: lo[1], Hi: hi[1]},
		Z: ray.Span{Lo: lo[2], Hi: hi[2]},
	}
}

// AccumZeroAABox is the identity for MinContainingAABox and Expand.
func AccumZeroAABox() AABox {
	return AABox{
		X: ray.Span{Lo: math.Inf(1), Hi: math.Inf(-1)},
		Y: ray.Span{Lo: math.Inf(1), Hi: math.Inf(-1)},
		Z: ray.Span{Lo: math.Inf(1), Hi: math.Inf(-1)},
	}
}

func MinContainingAABox(a, b AABox) AABox {
	return AABox{
		X: ray.MinContainingSpan(a.X, b.X),
		Y: ray.MinContainingSpan(a.Y, b.Y),
		Z: ray.MinContainingSpan(a.Z, b.Z),
	}
}

// Expand grows a to contain p.
func (a AABox) Expand(p vec3.T) AABox {
	return MinContainingAABox(a, AABox{
		X: ray.Span{Lo: p[0], Hi: p[0]},
		Y: ray.Span{Lo: p[1], Hi: p[1]},
		Z: ray.Span{Lo: p[2], Hi: p[2]},
	})
}

func (a AABox) Lo() vec3.T {
	return vec3.T{a.X.Lo, a.Y.Lo, a.Z.Lo}
}

func (a AABox) Hi() vec3.T {
	return vec3.T{a.X.Hi, a.Y.Hi, a.Z.Hi}
}

func (a AABox) Center() vec3.T {
	return vec3.T{a.X.Mid(), a.Y.Mid(), a.Z.Mid()}
}

// HalfSize is half the extent along each axis.
func (a AABox) HalfSize() vec3.T {
	return vec3.MulVS(vec3.SubVV(a.Hi(), a.Lo()), 0.5)
}

func (a AABox) span(axis int) ray.Span {
	switch axis {
	case 0:
		return a.X
	case 1:
		return a.Y
	default:
		return a.Z
	}
}

func (a AABox) IsFinite() bool {
	return a.X.IsFinite() && a.Y.IsFinite() && a.Z.IsFinite()
}

func (a AABox) Contains(p vec3.T) bool {
	return a.X.Contains(p[0]) && a.Y.Contains(p[1]) && a.Z.Contains(p[2])
}

func (a AABox) SurfaceArea() float64 {
	xLen := a.X.Hi - a.X.Lo
	yLen := a.Y.Hi - a.Y.Lo
	zLen := a.Z.Hi - a.Z.Lo
	return 2 * (xLen*yLen + xLen*zLen + yLen*zLen)
}

// Overlaps reports whether the closed boxes a and b share a point.
func Overlaps(a, b AABox) bool {
	return ray.SpanOverlaps(a.X, b.X) && ray.SpanOverlaps(a.Y, b.Y) && ray.SpanOverlaps(a.Z, b.Z)
}

// Octant returns child i of the eight boxes obtained by cutting a at its
// center.  Bit 2 of i selects the high X half, bit 1 the high Y half and bit
// 0 the high Z half.
func (a AABox) Octant(i int) AABox {
	mid := a.Center()
	corner := a.Lo()
	if i&4 != 0 {
		corner[0] = a.X.Hi
	}
	if i&2 != 0 {
		corner[1] = a.Y.Hi
	}
	if i&1 != 0 {
		corner[2] = a.Z.Hi
	}
	return New(mid, corner)
}

func (a AABox) Transform(t affinetransform.AffineTransform) AABox {
	result := AccumZeroAABox()
	for i := 0; i < 8; i++ {
		corner := a.Lo()
		if i&4 != 0 {
			corner[0] = a.X.Hi
		}
		if i&2 != 0 {
			corner[1] = a.Y.Hi
		}
		if i&1 != 0 {
			corner[2] = a.Z.Hi
		}
		result = result.Expand(affinetransform.TransformPoint(t, corner))
	}
	return result
}

// slabs projects the box onto r, one ordered parameter span per axis.  Axes
// the ray runs parallel to get a NaN span.
func (a AABox) slabs(r ray.Ray) [3]ray.Span {
	var result [3]ray.Span
	for axis := 0; axis < 3; axis++ {
		if math.Abs(r.Slope[axis]) < ParallelThreshold {
			result[axis] = ray.NaNSpan()
			continue
		}
		s := a.span(axis)
		cur := ray.Span{
			Lo: (s.Lo - r.Point[axis]) / r.Slope[axis],
			Hi: (s.Hi - r.Point[axis]) / r.Slope[axis],
		}
		if cur.Hi < cur.Lo {
			cur.Lo, cur.Hi = cur.Hi, cur.Lo
		}
		result[axis] = cur
	}
	return result
}

// noOverlap reports whether b lies strictly on one side of a.  Equal
// endpoints count as touching.
func noOverlap(a, b ray.Span) bool {
	return (b.Lo < a.Lo && b.Hi < a.Lo) || (b.Lo > a.Hi && b.Hi > a.Hi)
}

// RayHit reports whether the forward half of r meets the box.
func RayHit(r ray.Ray, a AABox) bool {
	_, ok := rayTest(r, a)
	return ok
}

// RayFirstHit returns a lower bound on the distance at which r enters the
// box: the smallest strictly positive near-plane crossing, or 0 when no
// crossing is positive (r starts inside).  ok is false exactly when RayHit
// is false.
func RayFirstHit(r ray.Ray, a AABox) (float64, bool) {
	return rayTest(r, a)
}

func rayTest(r ray.Ray, a AABox) (float64, bool) {
	s := a.slabs(r)
	checkXY, checkXZ, checkYZ := true, true, true

	for axis := 0; axis < 3; axis++ {
		if s[axis].IsNaN() {
			if !a.span(axis).Contains(r.Point[axis]) {
				return 0, false
			}
			switch axis {
			case 0:
				checkXY, checkXZ = false, false
			case 1:
				checkXY, checkYZ = false, false
			case 2:
				checkXZ, checkYZ = false, false
			}
		} else if s[axis].Lo < 0 && s[axis].Hi < 0 {
			return 0, false
		}
	}

	if checkXY && noOverlap(s[0], s[1]) {
		return 0, false
	}
	if checkXZ && noOverlap(s[0], s[2]) {
		return 0, false
	}
	if checkYZ && noOverlap(s[1], s[2]) {
		return 0, false
	}

	first := math.Inf(1)
	for axis := 0; axis < 3; axis++ {
		if s[axis].IsNaN() {
			continue
		}
		if s[axis].Lo > 0 && s[axis].Lo < first {
			first = s[axis].Lo
		}
	}
	if math.IsInf(first, 1) {
		first = 0
	}
	return first, true
}

// PlaneOverlaps reports whether the plane through p with normal n touches
// the box.
func PlaneOverlaps(a AABox, p, n vec3.T) bool {
	e := a.HalfSize()
	radius := e[0]*math.Abs(n[0]) + e[1]*math.Abs(n[1]) + e[2]*math.Abs(n[2])
	dist := vec3.IProd(n, vec3.SubVV(a.Center(), p))
	return math.Abs(dist) <= radius
}

// TriangleOverlaps is the separating axis test between the box and the
// triangle (p, p+e1, p+e2).  The candidate axes are the three box normals,
// the triangle normal and the nine cross products of box normals with
// triangle edges.  Touching counts as overlapping.
func TriangleOverlaps(a AABox, p, e1, e2 vec3.T) bool {
	c := a.Center()
	h := a.HalfSize()

	// Pad by a relative epsilon so that faces lying exactly on a box
	// boundary survive the rounding in c and h.
	scale := 1.0
	for i := 0; i < 3; i++ {
		scale = math.Max(scale, math.Max(math.Abs(c[i]), h[i]))
	}
	pad := scale * overlapEpsilon
	h = vec3.AddVV(h, vec3.T{pad, pad, pad})

	// Triangle in box-centered coordinates.
	v := [3]vec3.T{
		vec3.SubVV(p, c),
		vec3.SubVV(vec3.AddVV(p, e1), c),
		vec3.SubVV(vec3.AddVV(p, e2), c),
	}
	edges := [3]vec3.T{
		vec3.SubVV(v[1], v[0]),
		vec3.SubVV(v[2], v[1]),
		vec3.SubVV(v[0], v[2]),
	}

	separated := func(axis vec3.T) bool {
		p0 := vec3.IProd(v[0], axis)
		p1 := vec3.IProd(v[1], axis)
		p2 := vec3.IProd(v[2], axis)
		lo := math.Min(p0, math.Min(p1, p2))
		hi := math.Max(p0, math.Max(p1, p2))
		r := h[0]*math.Abs(axis[0]) + h[1]*math.Abs(axis[1]) + h[2]*math.Abs(axis[2])
		return lo > r || hi < -r
	}

	units := [3]vec3.T{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
	for _, u := range units {
		if separated(u) {
			return false
		}
	}

	if separated(vec3.CProd(edges[0], edges[1])) {
		return false
	}

	for _, u := range units {
		for _, e := range edges {
			if separated(vec3.CProd(u, e)) {
				return false
			}
		}
	}

	return true
}
