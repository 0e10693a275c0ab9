package contact

import (
	"octrace/material"
	"octrace/ray"
	"octrace/vmath/vec2"
	"octrace/vmath/vec3"
)

// Contact is a resolved ray/surface intersection.  T is the distance along R
// and is never negative.
type Contact struct {
	T   float64
	R   ray.Ray
	P   vec3.T
	N   vec3.T
	UV  vec2.T
	Mtl material.Sample
}

// Resolve fills in a contact at distance t along r with material m resolved
// at uv.
func Resolve(r ray.Ray, t float64, n vec3.T, uv vec2.T, m material.Material) Contact {
	return Contact{
		T:   t,
		R:   r,
		P:   r.Eval(t),
		N:   n,
		UV:  uv,
		Mtl: m.Resolve(uv),
	}
}
