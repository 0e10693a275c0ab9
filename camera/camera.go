// Package camera turns pixel coordinates into primary rays.
//
// Cameras look down -z before rotation.  Image x grows to the right and
// image y grows downward.
package camera

import (
	"octrace/animation"
	"octrace/ray"
	"octrace/vmath/mat33"
	"octrace/vmath/vec3"
)

type Camera interface {
	// Crush fixes the camera for one frame of a width x height image.
	Crush(frame, width, height int) Crushed
}

type Crushed interface {
	// MakeRay returns the ray through image point (x, y), in pixels.
	MakeRay(x, y float64) ray.Ray
}

// screen is the image plane shared by both projections.
type screen struct {
	center     vec3.T
	right      vec3.T
	down       vec3.T
	halfWidth  float64
	halfHeight float64
	forward    vec3.T
}

func newScreen(position, rotation vec3.T, planeWidth, planeHeight, distance float64, width, height int) screen {
	rot := mat33.RotateXYZ(rotation)
	forward := mat33.MulMV(rot, vec3.T{0, 0, -1})
	return screen{
		center:     vec3.AddVV(position, vec3.MulVS(forward, distance)),
		right:      mat33.MulMV(rot, vec3.T{planeWidth / float64(width), 0, 0}),
		down:       mat33.MulMV(rot, vec3.T{0, -planeHeight / float64(height), 0}),
		halfWidth:  float64(width) / 2,
		halfHeight: float64(height) / 2,
		forward:    forward,
	}
}

func (s *screen) offset(x, y float64) vec3.T {
	return vec3.AddVV(vec3.MulVS(s.right, x-s.halfWidth), vec3.MulVS(s.down, y-s.halfHeight))
}

// Perspective is a pinhole camera at Position with an image plane of size
// Width x Height (world units) at Distance in front of it.
type Perspective struct {
	Position vec3.T
	Rotation vec3.T
	Width    float64
	Height   float64
	Distance float64

	PositionAnim animation.Animation[vec3.T]
	RotationAnim animation.Animation[vec3.T]
}

func (c *Perspective) Crush(frame, width, height int) Crushed {
	position := animation.SampleOr(c.PositionAnim, frame, c.Position)
	rotation := animation.SampleOr(c.RotationAnim, frame, c.Rotation)
	return &crushedPerspective{
		position: position,
		screen:   newScreen(position, rotation, c.Width, c.Height, c.Distance, width, height),
	}
}

type crushedPerspective struct {
	position vec3.T
	screen   screen
}

func (c *crushedPerspective) MakeRay(x, y float64) ray.Ray {
	head := vec3.AddVV(c.screen.center, c.screen.offset(x, y))
	return ray.New(c.position, vec3.SubVV(head, c.position))
}

// Orthographic casts parallel rays from an image plane of size Width x
// Height centered on Position.
type Orthographic struct {
	Position vec3.T
	Rotation vec3.T
	Width    float64
	Height   float64

	PositionAnim animation.Animation[vec3.T]
	RotationAnim animation.Animation[vec3.T]
}

// NewOrthographicScaled returns an orthographic camera that is scale units
// tall and keeps the aspect ratio of a width x height image.
func NewOrthographicScaled(scale float64, width, height int) *Orthographic {
	return &Orthographic{
		Width:  float64(width) / float64(height) * scale,
		Height: scale,
	}
}

func (c *Orthographic) Crush(frame, width, height int) Crushed {
	position := animation.SampleOr(c.PositionAnim, frame, c.Position)
	rotation := animation.SampleOr(c.RotationAnim, frame, c.Rotation)
	return &crushedOrthographic{
		screen: newScreen(position, rotation, c.Width, c.Height, 0, width, height),
	}
}

type crushedOrthographic struct {
	screen screen
}

func (c *crushedOrthographic) MakeRay(x, y float64) ray.Ray {
	return ray.Ray{
		Point: vec3.AddVV(c.screen.center, c.screen.offset(x, y)),
		Slope: c.screen.forward,
	}
}
