package geometry

import (
	"math"

	"octrace/aabox"
	"octrace/animation"
	"octrace/contact"
	"octrace/material"
	"octrace/ray"
	"octrace/vmath/mat33"
	"octrace/vmath/vec2"
	"octrace/vmath/vec3"
)

// Sphere is a sphere of the given radius.  Rotation only turns the texture
// parameterization.
type Sphere struct {
	Center   vec3.T
	Radius   float64
	Rotation vec3.T
	Material material.Material

	CenterAnim   animation.Animation[vec3.T]
	RotationAnim animation.Animation[vec3.T]
	RadiusAnim   animation.Animation[float64]
}

func (s *Sphere) Crush(frame int) Crushed {
	center := animation.SampleOr(s.CenterAnim, frame, s.Center)
	radius := animation.SampleOr(s.RadiusAnim, frame, s.Radius)
	rotation := animation.SampleOr(s.RotationAnim, frame, s.Rotation)

	r := vec3.T{radius, radius, radius}
	return &crushedSphere{
		center:    center,
		radius:    radius,
		toTexture: mat33.Transpose(mat33.RotateXYZ(rotation)),
		bounds:    aabox.New(vec3.SubVV(center, r), vec3.AddVV(center, r)),
		material:  s.Material,
	}
}

type crushedSphere struct {
	center    vec3.T
	radius    float64
	toTexture mat33.T
	bounds    aabox.AABox
	material  material.Material
}

func (s *crushedSphere) Bounds() (aabox.AABox, bool) {
	return s.bounds, true
}

func (s *crushedSphere) NextHit(r ray.Ray) (contact.Contact, bool) {
	dist := vec3.SubVV(r.Point, s.center)

	a := r.Slope.NormSquared()
	b := 2 * vec3.IProd(r.Slope, dist)
	c := dist.NormSquared() - s.radius*s.radius

	disc := b*b - 4*a*c
	if disc < 0 {
		return contact.Contact{}, false
	}

	sq := math.Sqrt(disc)
	t := (-b - sq) / (2 * a)
	if t < 0 {
		t = (-b + sq) / (2 * a)
		if t < 0 {
			return contact.Contact{}, false
		}
	}

	p := r.Eval(t)
	n := vec3.Normalize(vec3.SubVV(p, s.center))

	return contact.Resolve(r, t, n, s.texture(n), s.material), true
}

// texture maps a world normal to angles on the unrotated sphere.
func (s *crushedSphere) texture(n vec3.T) vec2.T {
	tex := mat33.MulMV(s.toTexture, n)
	u := -math.Pi
	if tex[0] != 0 {
		u = math.Atan(tex[2] / tex[0])
	}
	return vec2.T{u, math.Acos(math.Max(-1, math.Min(1, tex[1])))}
}
