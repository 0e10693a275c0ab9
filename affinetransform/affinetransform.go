package affinetransform

import (
	"octrace/vmath/mat33"
	"octrace/vmath/vec3"
)

type AffineTransform struct {
	Linear mat33.T
	Offset vec3.T
}

func Identity() AffineTransform {
	return AffineTransform{
		Linear: mat33.Identity(),
		Offset: vec3.T{0.0, 0.0, 0.0},
	}
}

// Scale scales each axis independently.
func Scale(s vec3.T) AffineTransform {
	return AffineTransform{
		Linear: mat33.T{s[0], 0.0, 0.0, 0.0, s[1], 0.0, 0.0, 0.0, s[2]},
	}
}

func Translate(x vec3.T) AffineTransform {
	result := Identity()
	result.Offset = x
	return result
}

// Rotate uses the mat33.RotateXYZ convention.
func Rotate(angles vec3.T) AffineTransform {
	return AffineTransform{
		Linear: mat33.RotateXYZ(angles),
	}
}

// Compose returns the transform that applies b, then a.
func Compose(a, b AffineTransform) AffineTransform {
	return AffineTransform{
		Linear: mat33.MulMM(a.Linear, b.Linear),
		Offset: vec3.AddVV(a.Offset, mat33.MulMV(a.Linear, b.Offset)),
	}
}

// NormalTransformMat is the transpose inverse of the linear part.
func (t AffineTransform) NormalTransformMat() mat33.T {
	return mat33.Transpose(mat33.Inverse(t.Linear))
}

func TransformPoint(a AffineTransform, b vec3.T) vec3.T {
	return vec3.AddVV(mat33.MulMV(a.Linear, b), a.Offset)
}

func TransformVector(a AffineTransform, b vec3.T) vec3.T {
	return mat33.MulMV(a.Linear, b)
}
