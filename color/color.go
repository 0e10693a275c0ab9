// Package color is a straight-alpha RGBA color value with float32 channels.
package color

import (
	imagecolor "image/color"
)

type Color struct {
	R, G, B, A float32
}

func New(r, g, b, a float32) Color {
	return Color{r, g, b, a}
}

// Transparent is white with zero alpha.
func Transparent() Color {
	return Color{1, 1, 1, 0}
}

func White() Color {
	return Color{1, 1, 1, 1}
}

func Black() Color {
	return Color{0, 0, 0, 1}
}

// Chroma walks the hue wheel red -> green -> blue -> red as angle goes from 0
// to 360 degrees.  Out-of-range angles are clamped.
func Chroma(angle float32) Color {
	if angle < 0 {
		angle = 0
	}
	if angle > 360 {
		angle = 360
	}

	switch {
	case angle <= 120:
		return Color{(120 - angle) / 120, angle / 120, 0, 1}
	case angle <= 240:
		return Color{0, (240 - angle) / 120, (angle - 120) / 120, 1}
	default:
		return Color{(angle - 240) / 120, 0, (360 - angle) / 120, 1}
	}
}

func Add(a, b Color) Color {
	return Color{a.R + b.R, a.G + b.G, a.B + b.B, a.A + b.A}
}

func Sub(a, b Color) Color {
	return Color{a.R - b.R, a.G - b.G, a.B - b.B, a.A - b.A}
}

// Mul multiplies channel by channel.
func Mul(a, b Color) Color {
	return Color{a.R * b.R, a.G * b.G, a.B * b.B, a.A * b.A}
}

func Scale(a Color, f float32) Color {
	return Color{a.R * f, a.G * f, a.B * f, a.A * f}
}

func Div(a Color, f float32) Color {
	return Color{a.R / f, a.G / f, a.B / f, a.A / f}
}

// Mix linearly interpolates from a to b.  f <= 0 yields a exactly and f >= 1
// yields b exactly.
func Mix(a, b Color, f float32) Color {
	if f <= 0 {
		return a
	}
	if f >= 1 {
		return b
	}
	return Add(Scale(a, 1-f), Scale(b, f))
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// NaN channels are clamped to 0.
func to8(v float32) uint8 {
	v *= 255
	if !(v > 0) {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v)
}

func (c Color) Clamped() Color {
	return Color{clamp01(c.R), clamp01(c.G), clamp01(c.B), clamp01(c.A)}
}

// WithAlpha returns c with its alpha replaced.
func (c Color) WithAlpha(a float32) Color {
	c.A = a
	return c
}

func (c Color) RGBA8() (r, g, b, a uint8) {
	return to8(c.R), to8(c.G), to8(c.B), to8(c.A)
}

// NRGBA converts to the standard library's non-premultiplied 8-bit color.
func (c Color) NRGBA() imagecolor.NRGBA {
	r, g, b, a := c.RGBA8()
	return imagecolor.NRGBA{R: r, G: g, B: b, A: a}
}

// Over composites c over an opaque background.
func (c Color) Over(background Color) Color {
	a := clamp01(c.A)
	out := Add(Scale(c.Clamped(), a), Scale(background.Clamped(), 1-a))
	out.A = 1
	return out
}

// YCbCr converts the clamped color to full-range BT.601 8-bit components.
func (c Color) YCbCr() (y, cb, cr uint8) {
	k := c.Clamped()
	fy := 0.2988390*k.R + 0.5868110*k.G + 0.1143500*k.B
	fcb := -0.168736*k.R - 0.331264*k.G + 0.500000*k.B + 0.5
	fcr := 0.500000*k.R - 0.418688*k.G - 0.081312*k.B + 0.5
	return to8(fy), to8(fcb), to8(fcr)
}
