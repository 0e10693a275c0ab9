// Package geometry holds the renderable objects.
//
// Every object is authored once and then crushed for each frame: Crush
// samples the object's animations and returns an immutable Crushed value
// carrying the world-space data the intersection tests need.  Only Crushed
// values can be intersected, and they are safe for concurrent use.
package geometry

import (
	"octrace/aabox"
	"octrace/contact"
	"octrace/ray"
	"octrace/vmath/mat33"
	"octrace/vmath/vec3"
)

type Geometry interface {
	Crush(frame int) Crushed
}

type Crushed interface {
	// Bounds returns the world box of the object, or false if the object is
	// unbounded.
	Bounds() (aabox.AABox, bool)

	// NextHit returns the nearest intersection in front of the ray origin.
	NextHit(r ray.Ray) (contact.Contact, bool)
}

// planeHit solves r.Point + t*r.Slope = center + a*u + b*v for (t, a, b).
func planeHit(r ray.Ray, center, u, v vec3.T) (t, a, b float64, ok bool) {
	x, ok := mat33.SolveColumns(r.Slope, vec3.MulVS(u, -1), vec3.MulVS(v, -1), vec3.SubVV(center, r.Point))
	if !ok {
		return 0, 0, 0, false
	}
	return x[0], x[1], x[2], true
}

func orDefault(v, fallback vec3.T) vec3.T {
	if v == (vec3.T{}) {
		return fallback
	}
	return v
}
