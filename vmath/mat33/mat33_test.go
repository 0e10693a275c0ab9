package mat33

import (
	"math"
	"testing"

	"octrace/vmath/vec3"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

var approx = cmpopts.EquateApprox(0, 1e-9)

func TestInverse(t *testing.T) {
	m := T{
		2, 0, 1,
		1, 3, 0,
		0, 1, 4,
	}
	got := MulMM(m, Inverse(m))
	if diff := cmp.Diff(got, Identity(), approx); diff != "" {
		t.Errorf("m * inv(m) is not identity; diff (-got +want)\n%s", diff)
	}
}

func TestRotationsAreOrthonormal(t *testing.T) {
	testCases := []struct {
		desc string
		m    T
	}{
		{"x", RotateX(0.3)},
		{"y", RotateY(-1.1)},
		{"z", RotateZ(2.5)},
		{"xyz", RotateXYZ(vec3.T{0.4, 0.5, 0.6})},
	}
	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			got := MulMM(tc.m, Transpose(tc.m))
			if diff := cmp.Diff(got, Identity(), approx); diff != "" {
				t.Errorf("R * R^T is not identity; diff (-got +want)\n%s", diff)
			}
		})
	}
}

func TestRotateXYZOrder(t *testing.T) {
	angles := vec3.T{0.2, 0.7, -0.4}
	want := MulMM(MulMM(RotateX(angles[0]), RotateZ(angles[2])), RotateY(angles[1]))
	if diff := cmp.Diff(RotateXYZ(angles), want, approx); diff != "" {
		t.Errorf("Bad composition; diff (-got +want)\n%s", diff)
	}

	if diff := cmp.Diff(RotateXYZ(vec3.T{}), Identity()); diff != "" {
		t.Errorf("Zero angles should give identity; diff (-got +want)\n%s", diff)
	}
}

func TestRotateZQuarterTurn(t *testing.T) {
	got := MulMV(RotateZ(math.Pi/2), vec3.T{1, 0, 0})
	if diff := cmp.Diff(got, vec3.T{0, -1, 0}, approx); diff != "" {
		t.Errorf("Bad rotation; diff (-got +want)\n%s", diff)
	}
}

func TestSolveColumns(t *testing.T) {
	a := vec3.T{0, 0, 1}
	b := vec3.T{1, 0, 0}
	c := vec3.T{0, 2, 0}
	want := vec3.T{3, -1, 0.5}
	rhs := vec3.AddVV(vec3.AddVV(vec3.MulVS(a, want[0]), vec3.MulVS(b, want[1])), vec3.MulVS(c, want[2]))

	got, ok := SolveColumns(a, b, c, rhs)
	if !ok {
		t.Fatalf("SolveColumns reported a singular system")
	}
	if diff := cmp.Diff(got, want, approx); diff != "" {
		t.Errorf("Bad solution; diff (-got +want)\n%s", diff)
	}
}

func TestSolveColumnsSingular(t *testing.T) {
	a := vec3.T{1, 0, 0}
	b := vec3.T{2, 0, 0}
	c := vec3.T{0, 1, 0}
	if _, ok := SolveColumns(a, b, c, vec3.T{1, 1, 1}); ok {
		t.Errorf("SolveColumns solved a singular system")
	}
}
