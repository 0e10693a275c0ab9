package geometry

import (
	"octrace/aabox"
	"octrace/affinetransform"
	"octrace/animation"
	"octrace/contact"
	"octrace/material"
	"octrace/ray"
	"octrace/vmath/mat33"
	"octrace/vmath/vec2"
	"octrace/vmath/vec3"
)

// Face indices for per-face box materials.
const (
	FacePosX = iota
	FaceNegX
	FacePosY
	FaceNegY
	FacePosZ
	FaceNegZ
)

// Box is a rotated cuboid of extent Size centered on Center.  Materials
// holds either one material for the whole box or six, indexed by the Face
// constants.
type Box struct {
	Center    vec3.T
	Size      vec3.T
	Rotation  vec3.T
	Materials []material.Material

	CenterAnim   animation.Animation[vec3.T]
	RotationAnim animation.Animation[vec3.T]
	SizeAnim     animation.Animation[vec3.T]
}

// In-plane axes of the faces normal to each axis.
var boxFaceAxes = [3][2]int{{1, 2}, {0, 2}, {0, 1}}

type boxFace struct {
	center   vec3.T
	normal   vec3.T
	u, v     vec3.T
	halfU    float64
	halfV    float64
	sizeU    float64
	sizeV    float64
	material material.Material
}

func (b *Box) material(face int) material.Material {
	if len(b.Materials) == 6 {
		return b.Materials[face]
	}
	return b.Materials[0]
}

func (b *Box) Crush(frame int) Crushed {
	center := animation.SampleOr(b.CenterAnim, frame, b.Center)
	rotation := animation.SampleOr(b.RotationAnim, frame, b.Rotation)
	size := animation.SampleOr(b.SizeAnim, frame, b.Size)

	rot := mat33.RotateXYZ(rotation)
	axes := [3]vec3.T{
		mat33.MulMV(rot, vec3.T{1, 0, 0}),
		mat33.MulMV(rot, vec3.T{0, 1, 0}),
		mat33.MulMV(rot, vec3.T{0, 0, 1}),
	}

	cb := &crushedBox{}
	for axis := 0; axis < 3; axis++ {
		half := vec3.MulVS(axes[axis], 0.5*size[axis])
		ui, vi := boxFaceAxes[axis][0], boxFaceAxes[axis][1]
		for side := 0; side < 2; side++ {
			sign := 1.0
			if side == 1 {
				sign = -1.0
			}
			idx := 2*axis + side
			cb.faces[idx] = boxFace{
				center:   vec3.AddVV(center, vec3.MulVS(half, sign)),
				normal:   vec3.MulVS(axes[axis], sign),
				u:        axes[ui],
				v:        axes[vi],
				halfU:    0.5 * size[ui],
				halfV:    0.5 * size[vi],
				sizeU:    size[ui],
				sizeV:    size[vi],
				material: b.material(idx),
			}
		}
	}

	local := aabox.New(vec3.MulVS(size, -0.5), vec3.MulVS(size, 0.5))
	cb.bounds = local.Transform(affinetransform.Compose(
		affinetransform.Translate(center),
		affinetransform.Rotate(rotation),
	))
	return cb
}

type crushedBox struct {
	faces  [6]boxFace
	bounds aabox.AABox
}

func (b *crushedBox) Bounds() (aabox.AABox, bool) {
	return b.bounds, true
}

func (b *crushedBox) NextHit(r ray.Ray) (contact.Contact, bool) {
	best := -1
	var bestT, bestA, bestB float64
	for i := range b.faces {
		f := &b.faces[i]
		t, a, bb, ok := planeHit(r, f.center, f.u, f.v)
		if !ok || t <= 0 {
			continue
		}
		if a < -f.halfU || a > f.halfU || bb < -f.halfV || bb > f.halfV {
			continue
		}
		if best < 0 || t < bestT {
			best, bestT, bestA, bestB = i, t, a, bb
		}
	}
	if best < 0 {
		return contact.Contact{}, false
	}

	f := &b.faces[best]
	uv := vec2.T{bestA/f.sizeU + 0.5, bestB/f.sizeV + 0.5}
	return contact.Resolve(r, bestT, f.normal, uv, f.material), true
}
