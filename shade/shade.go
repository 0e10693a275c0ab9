// Package shade computes the color seen along a ray: nearest hit, local
// illumination and recursive reflection.
package shade

import (
	"octrace/camera"
	"octrace/color"
	"octrace/contact"
	"octrace/ray"
	"octrace/scene"
)

const (
	// ShadowEpsilon pushes shadow ray origins toward the light.
	ShadowEpsilon = 1e-10

	// ReflectEpsilon pushes reflected ray origins off the surface.
	ReflectEpsilon = 1e-6
)

type Params struct {
	// MaxDepth is the number of reflection bounces followed.
	MaxDepth int

	// Background is returned for primary rays that hit nothing, Indirect for
	// reflected rays that do.
	Background color.Color
	Indirect   color.Color

	// Ambient is the ambient light.  Its alpha is the ambient strength.
	Ambient color.Color

	AmbientWeight float32
	DiffuseWeight float32

	// Strategy computes local illumination.  When nil, the raw material
	// color is used.
	Strategy Strategy
}

func DefaultParams() Params {
	return Params{
		MaxDepth:      3,
		Background:    color.Transparent(),
		Indirect:      color.White(),
		Ambient:       color.New(1, 1, 1, 0.1),
		AmbientWeight: 1,
		DiffuseWeight: 1,
	}
}

// Strategy computes the local color at a hit together with an overlay that
// is alpha-composited over the final result.
type Strategy interface {
	Apply(r ray.Ray, hit *contact.Contact, t *Tracer) (local, overlay color.Color)
}

// Tracer shades rays against one frozen frame.  It holds no mutable state
// and may be shared by any number of goroutines.
type Tracer struct {
	Scene  *scene.Crushed
	Camera camera.Crushed
	Params *Params
}

// Trace returns the color seen along r.  depth is 0 for primary rays.
func (t *Tracer) Trace(r ray.Ray, depth int) color.Color {
	p := t.Params
	if depth > p.MaxDepth {
		return p.Indirect
	}

	hit, _, ok := t.Scene.NearestHit(r)
	if !ok {
		if depth == 0 {
			return p.Background
		}
		return p.Indirect
	}

	local, overlay := hit.Mtl.Color, color.Transparent()
	if p.Strategy != nil {
		local, overlay = p.Strategy.Apply(r, &hit, t)
	}

	// A bounce that would exceed MaxDepth is not traced at all.
	if refl := hit.Mtl.Reflectance; refl != 0 && depth < p.MaxDepth {
		reflected := ray.Reflected(r, hit.P, hit.N, ReflectEpsilon)
		local = color.Mix(local, t.Trace(reflected, depth+1), refl)
	}

	return color.Mix(local, overlay, overlay.A)
}
