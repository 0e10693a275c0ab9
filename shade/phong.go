package shade

import (
	"math"

	"octrace/color"
	"octrace/contact"
	"octrace/ray"
	"octrace/vmath/vec3"
)

// Phong is ambient plus per-light diffuse and normalized specular terms, with
// hard shadows.
type Phong struct{}

func (Phong) Apply(r ray.Ray, hit *contact.Contact, t *Tracer) (color.Color, color.Color) {
	p := t.Params
	m := hit.Mtl
	n := hit.N
	view := vec3.MulVS(r.Slope, -1)

	ambient := color.Mix(color.Black(), color.Mul(p.Ambient, m.Color), p.Ambient.A)

	var diffuse, specular color.Color
	norm := (m.Roughness + 2) / (2 * math.Pi)

	for _, l := range t.Scene.Lights {
		toLight, dist := ray.Toward(hit.P, l.Position())
		shadow := ray.Ray{
			Point: vec3.AddVV(hit.P, vec3.MulVS(toLight.Slope, ShadowEpsilon)),
			Slope: toLight.Slope,
		}
		if t.Scene.Occluded(shadow, dist) {
			continue
		}

		lc := l.Illuminate(ray.Ray{Point: l.Position(), Slope: vec3.MulVS(toLight.Slope, -1)})

		nl := vec3.IProd(n, toLight.Slope)
		if nl > 0 {
			k := float32(nl) * m.Diffuse * lc.A
			diffuse = color.Add(diffuse, color.Scale(color.Mul(m.Color, lc), k))
		}

		mirrored := vec3.SubVV(vec3.MulVS(n, 2*nl), toLight.Slope)
		if rv := vec3.IProd(mirrored, view); rv > 0 && m.Specular != 0 {
			k := float32(math.Pow(rv, float64(m.Roughness))) * norm * m.Specular * lc.A
			specular = color.Add(specular, color.Scale(lc, k))
		}
	}

	out := color.Add(
		color.Add(color.Scale(ambient, p.AmbientWeight), color.Scale(diffuse, p.DiffuseWeight)),
		specular,
	)
	return out.WithAlpha(m.Color.A), color.Transparent()
}
