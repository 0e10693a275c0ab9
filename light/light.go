// Package light holds point light sources.
package light

import (
	"math"

	"octrace/animation"
	"octrace/color"
	"octrace/ray"
	"octrace/vmath/vec3"
)

type Light interface {
	Crush(frame int) Crushed
}

type Crushed interface {
	Position() vec3.T

	// Illuminate returns the light sent along toPoint, a ray leaving the
	// light.  The alpha channel is the intensity.
	Illuminate(toPoint ray.Ray) color.Color
}

// Spot shines the same color in every direction.
type Spot struct {
	Position vec3.T
	Color    color.Color

	PositionAnim animation.Animation[vec3.T]
}

func (s *Spot) Crush(frame int) Crushed {
	return &crushedSpot{
		position: animation.SampleOr(s.PositionAnim, frame, s.Position),
		color:    s.Color,
	}
}

type crushedSpot struct {
	position vec3.T
	color    color.Color
}

func (s *crushedSpot) Position() vec3.T {
	return s.position
}

func (s *crushedSpot) Illuminate(toPoint ray.Ray) color.Color {
	return s.color
}

// Cone is a spot light restricted to a cone of half-angle Angle (radians)
// around Direction.  Intensity falls off smoothly toward the edge.
type Cone struct {
	Position  vec3.T
	Direction vec3.T
	Angle     float64
	Color     color.Color

	PositionAnim  animation.Animation[vec3.T]
	DirectionAnim animation.Animation[vec3.T]
}

func (c *Cone) Crush(frame int) Crushed {
	return &crushedCone{
		position:  animation.SampleOr(c.PositionAnim, frame, c.Position),
		direction: vec3.Normalize(animation.SampleOr(c.DirectionAnim, frame, c.Direction)),
		cosAngle:  math.Cos(c.Angle),
		color:     c.Color,
	}
}

type crushedCone struct {
	position  vec3.T
	direction vec3.T
	cosAngle  float64
	color     color.Color
}

func (c *crushedCone) Position() vec3.T {
	return c.position
}

func (c *crushedCone) Illuminate(toPoint ray.Ray) color.Color {
	cos := vec3.IProd(c.direction, toPoint.Slope)
	var falloff float64
	if c.cosAngle >= 1 {
		if cos >= 1 {
			falloff = 1
		}
	} else {
		falloff = (cos - c.cosAngle) / (1 - c.cosAngle)
	}
	falloff = math.Max(0, math.Min(1, falloff))
	return c.color.WithAlpha(c.color.A * float32(falloff))
}
