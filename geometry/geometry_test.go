package geometry

import (
	"math"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"octrace/color"
	"octrace/material"
	"octrace/ray"
	"octrace/vmath/vec2"
	"octrace/vmath/vec3"
)

var approx = cmpopts.EquateApprox(0, 1e-9)

func randomVec(rng *rand.Rand, spread float64) vec3.T {
	return vec3.T{
		(rng.Float64()*2 - 1) * spread,
		(rng.Float64()*2 - 1) * spread,
		(rng.Float64()*2 - 1) * spread,
	}
}

func TestPlaneRecoversCoordinates(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 1000; i++ {
		p := &Plane{
			Center:   randomVec(rng, 10),
			U:        randomVec(rng, 3),
			V:        randomVec(rng, 3),
			Material: material.Simple(color.White()),
		}
		if vec3.CProd(p.U, p.V).Norm() < 0.5 {
			continue
		}
		a, b := rng.Float64(), rng.Float64()
		target := vec3.AddVV(p.Center, vec3.AddVV(vec3.MulVS(p.U, a), vec3.MulVS(p.V, b)))

		// Come in from the side of the normal, off-axis.
		n := vec3.Normalize(vec3.CProd(p.U, p.V))
		origin := vec3.AddVV(target, vec3.AddVV(vec3.MulVS(n, 5), vec3.MulVS(p.U, 0.3)))
		r, dist := ray.Toward(origin, target)

		c, ok := p.Crush(0).NextHit(r)
		if !ok {
			t.Fatalf("case %d: no hit", i)
		}
		if diff := cmp.Diff(c.UV, vec2.T{a, b}, cmpopts.EquateApprox(0, 1e-6)); diff != "" {
			t.Fatalf("case %d: UV diff (-got +want)\n%s", i, diff)
		}
		if math.Abs(c.T-dist) > 1e-6 {
			t.Fatalf("case %d: T = %v, want %v", i, c.T, dist)
		}
	}
}

func TestPlaneRejects(t *testing.T) {
	p := (&Plane{
		U:        vec3.T{1, 0, 0},
		V:        vec3.T{0, 1, 0},
		Material: material.Simple(color.White()),
	}).Crush(0)

	testCases := []struct {
		desc string
		r    ray.Ray
	}{
		{desc: "behind", r: ray.New(vec3.T{0, 0, 1}, vec3.T{0, 0, 1})},
		{desc: "parallel", r: ray.New(vec3.T{0, 0, 1}, vec3.T{1, 0, 0})},
	}

	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			if c, ok := p.NextHit(tc.r); ok {
				t.Errorf("Got hit %+v, want none", c)
			}
		})
	}

	if _, ok := p.Bounds(); ok {
		t.Errorf("Plane reported bounds")
	}
}

func TestPlaneNormalFacesRay(t *testing.T) {
	p := (&Plane{
		U:        vec3.T{1, 0, 0},
		V:        vec3.T{0, 1, 0},
		Material: material.Simple(color.White()),
	}).Crush(0)

	c, ok := p.NextHit(ray.New(vec3.T{0, 0, -2}, vec3.T{0, 0, 1}))
	if !ok {
		t.Fatalf("No hit")
	}
	if diff := cmp.Diff(c.N, vec3.T{0, 0, -1}); diff != "" {
		t.Errorf("Normal diff (-got +want)\n%s", diff)
	}
}

func TestSphereDistanceAndNormal(t *testing.T) {
	s := (&Sphere{
		Center:   vec3.T{1, 2, 3},
		Radius:   2,
		Material: material.Simple(color.White()),
	}).Crush(0)

	rng := rand.New(rand.NewSource(2))
	for i := 0; i < 200; i++ {
		origin := vec3.AddVV(vec3.T{1, 2, 3}, vec3.MulVS(vec3.Normalize(randomVec(rng, 1)), 5+rng.Float64()*10))
		r, dist := ray.Toward(origin, vec3.T{1, 2, 3})

		c, ok := s.NextHit(r)
		if !ok {
			t.Fatalf("case %d: no hit", i)
		}
		if math.Abs(c.T-(dist-2)) > 1e-9 {
			t.Errorf("case %d: T = %v, want %v", i, c.T, dist-2)
		}
		want := vec3.Normalize(vec3.SubVV(c.P, vec3.T{1, 2, 3}))
		if diff := cmp.Diff(c.N, want, approx); diff != "" {
			t.Errorf("case %d: normal diff (-got +want)\n%s", i, diff)
		}
		if diff := cmp.Diff(c.N, vec3.MulVS(r.Slope, -1), cmpopts.EquateApprox(0, 1e-6)); diff != "" {
			t.Errorf("case %d: normal not facing origin, diff (-got +want)\n%s", i, diff)
		}
	}
}

func TestSphereFromInside(t *testing.T) {
	s := (&Sphere{Radius: 1, Material: material.Simple(color.White())}).Crush(0)
	c, ok := s.NextHit(ray.New(vec3.T{}, vec3.T{1, 0, 0}))
	if !ok {
		t.Fatalf("No hit from inside")
	}
	if math.Abs(c.T-1) > 1e-12 {
		t.Errorf("T = %v, want 1", c.T)
	}
}

func TestSphereMiss(t *testing.T) {
	s := (&Sphere{Radius: 1, Material: material.Simple(color.White())}).Crush(0)
	testCases := []struct {
		desc string
		r    ray.Ray
	}{
		{desc: "beside", r: ray.New(vec3.T{0, 2, 5}, vec3.T{0, 0, -1})},
		{desc: "behind", r: ray.New(vec3.T{0, 0, 5}, vec3.T{0, 0, 1})},
	}
	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			if _, ok := s.NextHit(tc.r); ok {
				t.Errorf("Got a hit, want none")
			}
		})
	}
}

func faceMaterials() []material.Material {
	var out []material.Material
	for i := 0; i < 6; i++ {
		out = append(out, material.Simple(color.New(float32(i)/6, 0, 0, 1)))
	}
	return out
}

func TestBoxFaces(t *testing.T) {
	b := (&Box{
		Size:      vec3.T{2, 4, 6},
		Materials: faceMaterials(),
	}).Crush(0)

	testCases := []struct {
		desc     string
		r        ray.Ray
		wantT    float64
		wantN    vec3.T
		wantUV   vec2.T
		wantFace int
	}{
		{
			desc:     "front",
			r:        ray.New(vec3.T{0, 0, 10}, vec3.T{0, 0, -1}),
			wantT:    7,
			wantN:    vec3.T{0, 0, 1},
			wantUV:   vec2.T{0.5, 0.5},
			wantFace: FacePosZ,
		},
		{
			desc:     "back",
			r:        ray.New(vec3.T{0, 0, -10}, vec3.T{0, 0, 1}),
			wantT:    7,
			wantN:    vec3.T{0, 0, -1},
			wantUV:   vec2.T{0.5, 0.5},
			wantFace: FaceNegZ,
		},
		{
			desc:     "right off center",
			r:        ray.New(vec3.T{10, 1, 2}, vec3.T{-1, 0, 0}),
			wantT:    9,
			wantN:    vec3.T{1, 0, 0},
			wantUV:   vec2.T{0.75, 2.0/6 + 0.5},
			wantFace: FacePosX,
		},
		{
			desc:     "below",
			r:        ray.New(vec3.T{0, -5, 0}, vec3.T{0, 1, 0}),
			wantT:    3,
			wantN:    vec3.T{0, -1, 0},
			wantUV:   vec2.T{0.5, 0.5},
			wantFace: FaceNegY,
		},
		{
			desc:     "from inside",
			r:        ray.New(vec3.T{}, vec3.T{1, 0, 0}),
			wantT:    1,
			wantN:    vec3.T{1, 0, 0},
			wantUV:   vec2.T{0.5, 0.5},
			wantFace: FacePosX,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			c, ok := b.NextHit(tc.r)
			if !ok {
				t.Fatalf("No hit")
			}
			if math.Abs(c.T-tc.wantT) > 1e-9 {
				t.Errorf("T = %v, want %v", c.T, tc.wantT)
			}
			if diff := cmp.Diff(c.N, tc.wantN, approx); diff != "" {
				t.Errorf("Normal diff (-got +want)\n%s", diff)
			}
			if diff := cmp.Diff(c.UV, tc.wantUV, approx); diff != "" {
				t.Errorf("UV diff (-got +want)\n%s", diff)
			}
			if got, want := c.Mtl.Color.R, float32(tc.wantFace)/6; got != want {
				t.Errorf("Material of face %v, want face %d", got*6, tc.wantFace)
			}
		})
	}
}

func TestBoxMiss(t *testing.T) {
	b := (&Box{
		Size:      vec3.T{2, 2, 2},
		Materials: []material.Material{material.Simple(color.White())},
	}).Crush(0)
	if _, ok := b.NextHit(ray.New(vec3.T{0, 1.5, 10}, vec3.T{0, 0, -1})); ok {
		t.Errorf("Got hit, want miss")
	}
}

func TestRotatedBoxBounds(t *testing.T) {
	b := (&Box{
		Center:    vec3.T{1, 0, 0},
		Size:      vec3.T{2, 4, 6},
		Rotation:  vec3.T{0, 0, math.Pi / 2},
		Materials: []material.Material{material.Simple(color.White())},
	}).Crush(0)

	bounds, ok := b.Bounds()
	if !ok {
		t.Fatalf("Box reported no bounds")
	}
	if diff := cmp.Diff(bounds.Lo(), vec3.T{-1, -1, -3}, approx); diff != "" {
		t.Errorf("Lo diff (-got +want)\n%s", diff)
	}
	if diff := cmp.Diff(bounds.Hi(), vec3.T{3, 1, 3}, approx); diff != "" {
		t.Errorf("Hi diff (-got +want)\n%s", diff)
	}
}

func triangleData() *MeshData {
	return &MeshData{
		Vertices:  []vec3.T{{-1, -1, 0}, {1, -1, 0}, {0, 1, 0}},
		Normals:   []vec3.T{{0, 0, 1}, {1, 0, 0}},
		TexCoords: []vec2.T{{0, 0}, {1, 0}, {0, 1}},
		Faces: [][3]FaceVertex{
			{{V: 1, N: 1, T: 1}, {V: 2, N: 2, T: 2}, {V: 3, T: 3}},
		},
	}
}

func TestMeshTransformAndInterpolation(t *testing.T) {
	testCases := []struct {
		desc    string
		shading ShadingMode
		wantN   vec3.T
	}{
		{desc: "flat", shading: Flat, wantN: vec3.T{0, 0, 1}},
		{desc: "smooth", shading: Smooth, wantN: vec3.Normalize(vec3.T{1, 0, 2})},
		{desc: "interpolated", shading: Interpolated, wantN: vec3.Normalize(vec3.T{0.25, 0, 0.75})},
	}

	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			m := NewMesh(triangleData(), material.Simple(color.White()))
			m.Position = vec3.T{0, 0, -5}
			m.Scale = vec3.T{2, 2, 2}
			m.Shading = tc.shading

			c, ok := m.Crush(0).NextHit(ray.New(vec3.T{}, vec3.T{0, 0, -1}))
			if !ok {
				t.Fatalf("No hit")
			}
			if math.Abs(c.T-5) > 1e-9 {
				t.Errorf("T = %v, want 5", c.T)
			}
			if diff := cmp.Diff(c.N, tc.wantN, approx); diff != "" {
				t.Errorf("Normal diff (-got +want)\n%s", diff)
			}
			if diff := cmp.Diff(c.UV, vec2.T{0.25, 0.5}, approx); diff != "" {
				t.Errorf("UV diff (-got +want)\n%s", diff)
			}
		})
	}
}

func TestMeshSmoothNormalIsCornerAverage(t *testing.T) {
	data := &MeshData{
		Vertices: []vec3.T{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}},
		Normals:  []vec3.T{{0, 0, 1}, {1, 0, 0}, {0, 1, 0}},
		Faces: [][3]FaceVertex{
			{{V: 1, N: 1}, {V: 2, N: 2}, {V: 3, N: 3}},
		},
	}
	m := NewMesh(data, material.Simple(color.White()))
	m.Shading = Smooth
	cm := m.Crush(0)

	want := vec3.Normalize(vec3.T{1, 1, 1})
	for _, p := range []vec3.T{{0.05, 0.05, 0}, {0.8, 0.1, 0}, {0.1, 0.6, 0}} {
		c, ok := cm.NextHit(ray.New(vec3.AddVV(p, vec3.T{0, 0, 1}), vec3.T{0, 0, -1}))
		if !ok {
			t.Fatalf("No hit at %v", p)
		}
		if diff := cmp.Diff(c.N, want, approx); diff != "" {
			t.Errorf("Normal at %v diff (-got +want)\n%s", p, diff)
		}
	}
}

func TestMeshOutsideTriangle(t *testing.T) {
	m := NewMesh(triangleData(), material.Simple(color.White())).Crush(0)
	if _, ok := m.NextHit(ray.New(vec3.T{0.9, 0.9, 5}, vec3.T{0, 0, -1})); ok {
		t.Errorf("Got hit outside the triangle")
	}
}

func TestEmptyMesh(t *testing.T) {
	m := NewMesh(&MeshData{}, material.Simple(color.White())).Crush(0)
	if _, ok := m.Bounds(); ok {
		t.Errorf("Empty mesh reported bounds")
	}
	if _, ok := m.NextHit(ray.New(vec3.T{}, vec3.T{0, 0, -1})); ok {
		t.Errorf("Empty mesh reported a hit")
	}
}

func randomMesh(rng *rand.Rand, n int) *MeshData {
	data := &MeshData{}
	for i := 0; i < n; i++ {
		a := randomVec(rng, 5)
		b := vec3.AddVV(a, randomVec(rng, 1.5))
		c := vec3.AddVV(a, randomVec(rng, 1.5))
		data.Vertices = append(data.Vertices, a, b, c)
		data.Faces = append(data.Faces, [3]FaceVertex{{V: 3*i + 1}, {V: 3*i + 2}, {V: 3*i + 3}})
	}
	return data
}

func TestMeshMatchesBruteForce(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	for trial := 0; trial < 5; trial++ {
		m := NewMesh(randomMesh(rng, 400), material.Simple(color.White()))
		m.Rotation = randomVec(rng, math.Pi)
		cm := m.Crush(0).(*crushedMesh)

		for i := 0; i < 400; i++ {
			origin := randomVec(rng, 12)
			r := ray.New(origin, vec3.SubVV(randomVec(rng, 3), origin))

			want := math.Inf(1)
			for fi := range cm.tree.Faces() {
				if tt, _, _, ok := triangleHit(r, cm.tree.Face(fi)); ok && tt < want {
					want = tt
				}
			}

			c, ok := cm.NextHit(r)
			if math.IsInf(want, 1) {
				if ok {
					t.Fatalf("trial %d ray %d: got hit at %v, brute force found none", trial, i, c.T)
				}
				continue
			}
			if !ok {
				t.Fatalf("trial %d ray %d: no hit, brute force found %v", trial, i, want)
			}
			if c.T != want {
				t.Fatalf("trial %d ray %d: T = %v, brute force nearest is %v", trial, i, c.T, want)
			}
		}
	}
}

func TestAnimatedSphere(t *testing.T) {
	s := &Sphere{
		Radius:     1,
		Material:   material.Simple(color.White()),
		CenterAnim: animationLine{vec3.T{0, 0, -1}},
	}
	c, ok := s.Crush(3).NextHit(ray.New(vec3.T{}, vec3.T{0, 0, -1}))
	if !ok {
		t.Fatalf("No hit")
	}
	if math.Abs(c.T-2) > 1e-9 {
		t.Errorf("T = %v, want 2", c.T)
	}
}

type animationLine struct {
	delta vec3.T
}

func (a animationLine) Sample(frame int) vec3.T {
	return vec3.MulVS(a.delta, float64(frame))
}
