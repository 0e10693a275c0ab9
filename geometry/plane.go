package geometry

import (
	"octrace/aabox"
	"octrace/animation"
	"octrace/contact"
	"octrace/material"
	"octrace/ray"
	"octrace/vmath/vec2"
	"octrace/vmath/vec3"
)

// Plane is the unbounded plane through Center spanned by U and V.  The
// material is resolved at the (U, V) coordinates of the hit.
type Plane struct {
	Center   vec3.T
	U, V     vec3.T
	Material material.Material

	CenterAnim animation.Animation[vec3.T]
}

func (p *Plane) Crush(frame int) Crushed {
	return &crushedPlane{
		center:   animation.SampleOr(p.CenterAnim, frame, p.Center),
		u:        p.U,
		v:        p.V,
		normal:   vec3.Normalize(vec3.CProd(p.U, p.V)),
		material: p.Material,
	}
}

type crushedPlane struct {
	center, u, v vec3.T
	normal       vec3.T
	material     material.Material
}

func (p *crushedPlane) Bounds() (aabox.AABox, bool) {
	return aabox.AABox{}, false
}

// NextHit reports the plane as two-sided: the normal faces the ray origin.
func (p *crushedPlane) NextHit(r ray.Ray) (contact.Contact, bool) {
	t, a, b, ok := planeHit(r, p.center, p.u, p.v)
	if !ok || t <= 0 {
		return contact.Contact{}, false
	}

	n := p.normal
	if vec3.IProd(n, r.Slope) > 0 {
		n = vec3.MulVS(n, -1)
	}
	return contact.Resolve(r, t, n, vec2.T{a, b}, p.material), true
}
