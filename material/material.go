package material

import (
	"math"

	"octrace/color"
	"octrace/vmath/vec2"
)

// Sample is a material resolved at one surface point.
type Sample struct {
	Color       color.Color
	Diffuse     float32
	Specular    float32
	Roughness   float32
	Reflectance float32
}

type Material interface {
	// Resolve returns the material at surface parameter uv.  It must be a
	// pure function of uv.
	Resolve(uv vec2.T) Sample
}

type ColorMap func(uv vec2.T) color.Color

type ScalarMap func(uv vec2.T) float64

func Constant(c color.Color) ColorMap {
	return func(uv vec2.T) color.Color {
		return c
	}
}

func ConstantScalar(scalar float64) ScalarMap {
	return func(uv vec2.T) float64 {
		return scalar
	}
}

// Lerp mixes a and b by t, evaluated at the same surface point.
func Lerp(t ScalarMap, a, b ColorMap) ColorMap {
	return func(uv vec2.T) color.Color {
		return color.Mix(a(uv), b(uv), float32(t(uv)))
	}
}

func Switch(threshold float64, t ScalarMap, a, b ColorMap) ColorMap {
	return func(uv vec2.T) color.Color {
		if t(uv) < threshold {
			return a(uv)
		}
		return b(uv)
	}
}

func Clamp(min, max float64, a ScalarMap) ScalarMap {
	return func(uv vec2.T) float64 {
		v := a(uv)
		if v < min {
			return min
		}
		if v >= max {
			return max
		}
		return v
	}
}

func checkerCell(x, scale float64) int64 {
	cell := int64(x / scale)
	if x < 0 {
		cell++
	}
	return cell
}

// Checkerboard alternates colors[0] and colors[1] in cells of size scale.
func Checkerboard(colors [2]color.Color, scale vec2.T) ColorMap {
	return func(uv vec2.T) color.Color {
		parity := (checkerCell(uv[0], scale[0]) + checkerCell(uv[1], scale[1])) & 1
		return colors[parity]
	}
}

// Bullseye is 0 or 1 in alternating rings of width period around the
// origin of uv space.
func Bullseye(period float64) ScalarMap {
	return func(uv vec2.T) float64 {
		d := uv.Norm() / period
		if _, frac := math.Modf(d); frac < 0.5 {
			return 0.0
		}
		return 1.0
	}
}

// Surface combines a color map with constant lighting coefficients.
type Surface struct {
	Color       ColorMap
	Diffuse     float32
	Specular    float32
	Roughness   float32
	Reflectance float32
}

func (s *Surface) Resolve(uv vec2.T) Sample {
	r := s.Reflectance
	if r < 0 {
		r = 0
	}
	if r > 1 {
		r = 1
	}
	return Sample{
		Color:       s.Color(uv),
		Diffuse:     s.Diffuse,
		Specular:    s.Specular,
		Roughness:   s.Roughness,
		Reflectance: r,
	}
}

// Simple is a matte surface of a single color.
func Simple(c color.Color) *Surface {
	return &Surface{
		Color:     Constant(c),
		Diffuse:   1,
		Roughness: 1,
	}
}
