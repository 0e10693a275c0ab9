package vec3

import (
	"math"
)

type T [3]float64

func (v T) Norm() float64 {
	return math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
}

func (v T) NormSquared() float64 {
	return v[0]*v[0] + v[1]*v[1] + v[2]*v[2]
}

// Normalize returns v scaled to unit length.  The zero vector is returned
// unchanged.
func Normalize(v T) T {
	l := v.Norm()
	if l == 0 {
		return v
	}
	return T{
		v[0] / l,
		v[1] / l,
		v[2] / l,
	}
}

func AddVV(a, b T) T {
	return T{
		a[0] + b[0],
		a[1] + b[1],
		a[2] + b[2],
	}
}

func SubVV(a, b T) T {
	return T{
		a[0] - b[0],
		a[1] - b[1],
		a[2] - b[2],
	}
}

// MulVV is the component-wise product.
func MulVV(a, b T) T {
	return T{
		a[0] * b[0],
		a[1] * b[1],
		a[2] * b[2],
	}
}

func MulVS(a T, b float64) T {
	return T{
		a[0] * b,
		a[1] * b,
		a[2] * b,
	}
}

func DivVS(a T, b float64) T {
	return T{
		a[0] / b,
		a[1] / b,
		a[2] / b,
	}
}

func IProd(a, b T) float64 {
	return a[0]*b[0] + a[1]*b[1] + a[2]*b[2]
}

func CProd(a, b T) T {
	return T{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}

func MinVV(a, b T) T {
	return T{
		math.Min(a[0], b[0]),
		math.Min(a[1], b[1]),
		math.Min(a[2], b[2]),
	}
}

func MaxVV(a, b T) T {
	return T{
		math.Max(a[0], b[0]),
		math.Max(a[1], b[1]),
		math.Max(a[2], b[2]),
	}
}

// Reject returns the component of b that is orthogonal to A.
func Reject(a, b T) T {
	return SubVV(b, MulVS(Normalize(a), IProd(a, b)/a.Norm()))
}

// Reflect mirrors a about the plane with unit normal n.
func Reflect(a, n T) T {
	return SubVV(a, MulVS(n, 2*IProd(a, n)))
}

// Distance returns |a - b|.
func Distance(a, b T) float64 {
	return SubVV(a, b).Norm()
}
