package mat33

import (
	"math"

	"octrace/vmath/vec3"
)

// T is a row-major 3x3 matrix.
type T [9]float64

// PivotThreshold is the magnitude below which a pivot is treated as zero.
const PivotThreshold = 1e-10

func Identity() T {
	return T{1, 0, 0, 0, 1, 0, 0, 0, 1}
}

// FromColumns builds the matrix whose columns are a, b and c.
func FromColumns(a, b, c vec3.T) T {
	return T{
		a[0], b[0], c[0],
		a[1], b[1], c[1],
		a[2], b[2], c[2],
	}
}

func MulMM(a, b T) T {
	result := T{}
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			for k := 0; k < 3; k++ {
				result[i*3+j] += a[i*3+k] * b[k*3+j]
			}
		}
	}
	return result
}

func MulMV(a T, b vec3.T) vec3.T {
	return vec3.T{
		a[0]*b[0] + a[1]*b[1] + a[2]*b[2],
		a[3]*b[0] + a[4]*b[1] + a[5]*b[2],
		a[6]*b[0] + a[7]*b[1] + a[8]*b[2],
	}
}

func Transpose(m T) T {
	transpose := T{}
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			transpose[c*3+r] = m[r*3+c]
		}
	}
	return transpose
}

func RotateX(angle float64) T {
	s, c := math.Sincos(angle)
	return T{
		1, 0, 0,
		0, c, s,
		0, -s, c,
	}
}

func RotateY(angle float64) T {
	s, c := math.Sincos(angle)
	return T{
		c, 0, -s,
		0, 1, 0,
		s, 0, c,
	}
}

func RotateZ(angle float64) T {
	s, c := math.Sincos(angle)
	return T{
		c, s, 0,
		-s, c, 0,
		0, 0, 1,
	}
}

// RotateXYZ composes the per-axis rotations in X, Z, Y order.  Axes with a
// zero angle are skipped.
func RotateXYZ(angles vec3.T) T {
	rot := Identity()
	if angles[0] != 0 {
		rot = RotateX(angles[0])
	}
	if angles[2] != 0 {
		rot = MulMM(rot, RotateZ(angles[2]))
	}
	if angles[1] != 0 {
		rot = MulMM(rot, RotateY(angles[1]))
	}
	return rot
}

// SolveColumns solves a*x + b*y + c*z = rhs by Gauss-Jordan elimination on
// the augmented matrix [a b c | rhs].  Rows are swapped whenever a better
// pivot is available.  If no pivot in a column exceeds PivotThreshold the
// system is reported as unsolvable.
func SolveColumns(a, b, c, rhs vec3.T) (vec3.T, bool) {
	var m [3][4]float64
	for r := 0; r < 3; r++ {
		m[r] = [4]float64{a[r], b[r], c[r], rhs[r]}
	}

	for k := 0; k < 3; k++ {
		maxRow := k
		for i := k + 1; i < 3; i++ {
			if math.Abs(m[i][k]) > math.Abs(m[maxRow][k]) {
				maxRow = i
			}
		}
		if math.Abs(m[maxRow][k]) < PivotThreshold {
			return vec3.T{}, false
		}
		m[k], m[maxRow] = m[maxRow], m[k]

		pivot := m[k][k]
		for c := k; c < 4; c++ {
			m[k][c] /= pivot
		}

		// Clear column k in every other row.
		for r := 0; r < 3; r++ {
			if r == k {
				continue
			}
			scale := m[r][k]
			if scale == 0 {
				continue
			}
			for c := k; c < 4; c++ {
				m[r][c] -= m[k][c] * scale
			}
		}
	}

	return vec3.T{m[0][3], m[1][3], m[2][3]}, true
}

func rowEchelonInplace(m, a *T) {
	for k := 0; k < 3; k++ {
		// Select the row below row k with the best pivot.
		maxRow := k
		for i := k; i < 3; i++ {
			if math.Abs(m[i*3+k]) > math.Abs(m[maxRow*3+k]) {
				maxRow = i
			}
		}

		for i := 0; i < 3; i++ {
			m[k*3+i], m[maxRow*3+i] = m[maxRow*3+i], m[k*3+i]
			a[k*3+i], a[maxRow*3+i] = a[maxRow*3+i], a[k*3+i]
		}

		pivot := m[k*3+k]
		for r := k + 1; r < 3; r++ {
			scale := m[r*3+k] / pivot
			for c := k + 1; c < 3; c++ {
				m[r*3+c] -= m[k*3+c] * scale
			}
			for c := 0; c < 3; c++ {
				a[r*3+c] -= a[k*3+c] * scale
			}
			m[r*3+k] = 0.0
		}
	}
}

func backsubInplace(m, a *T) {
	for k := 3 - 1; k > 0; k-- {
		// Nullify all entries above the pivot element.
		for r := 0; r < k; r++ {
			scale := m[r*3+k] / m[k*3+k]

			m[r*3+k] = 0
			for c := k + 1; c < 3; c++ {
				m[r*3+c] -= m[k*3+c] * scale
			}
			for c := 0; c < 3; c++ {
				a[r*3+c] -= a[k*3+c] * scale
			}
		}
	}

	for k := 0; k < 3; k++ {
		for c := k + 1; c < 3; c++ {
			m[k*3+c] /= m[k*3+k]
		}
		for c := 0; c < 3; c++ {
			a[k*3+c] /= m[k*3+k]
		}
		m[k*3+k] = 1
	}
}

// Inverse returns the inverse of m.  The result is undefined for singular
// matrices.
func Inverse(m T) T {
	a := Identity()
	rowEchelonInplace(&m, &a)
	backsubInplace(&m, &a)
	return a
}
