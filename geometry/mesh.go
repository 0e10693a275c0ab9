package geometry

import (
	"math"

	"octrace/aabox"
	"octrace/affinetransform"
	"octrace/animation"
	"octrace/contact"
	"octrace/material"
	"octrace/octree"
	"octrace/ray"
	"octrace/vmath/mat33"
	"octrace/vmath/vec2"
	"octrace/vmath/vec3"
)

type ShadingMode int

const (
	// Flat shades each triangle with its geometric normal.
	Flat ShadingMode = iota
	// Smooth shades each triangle with the average of its corner normals.
	Smooth
	// Interpolated blends the corner normals by the barycentric weights of
	// the hit.
	Interpolated
)

// FaceVertex indexes one triangle corner into the MeshData arrays.  Indices
// are 1-based and 0 means absent.
type FaceVertex struct {
	V, N, T int
}

type MeshData struct {
	Vertices  []vec3.T
	Normals   []vec3.T
	TexCoords []vec2.T
	Faces     [][3]FaceVertex
}

// Mesh places MeshData in the world.  A vertex v lands at
// Position + Rotate(Rotation) * (Scale * (v + Offset)).
type Mesh struct {
	Data     *MeshData
	Position vec3.T
	Rotation vec3.T
	Scale    vec3.T
	Offset   vec3.T
	Shading  ShadingMode
	Material material.Material

	PositionAnim animation.Animation[vec3.T]
	RotationAnim animation.Animation[vec3.T]
	ScaleAnim    animation.Animation[vec3.T]
}

// NewMesh returns a mesh at the origin with unit scale.
func NewMesh(data *MeshData, m material.Material) *Mesh {
	return &Mesh{
		Data:     data,
		Scale:    vec3.T{1, 1, 1},
		Material: m,
	}
}

func (m *Mesh) transform(frame int) affinetransform.AffineTransform {
	position := animation.SampleOr(m.PositionAnim, frame, m.Position)
	rotation := animation.SampleOr(m.RotationAnim, frame, m.Rotation)
	scale := orDefault(animation.SampleOr(m.ScaleAnim, frame, m.Scale), vec3.T{1, 1, 1})

	return affinetransform.Compose(
		affinetransform.Translate(position),
		affinetransform.Compose(
			affinetransform.Rotate(rotation),
			affinetransform.Compose(
				affinetransform.Scale(scale),
				affinetransform.Translate(m.Offset),
			),
		),
	)
}

// Crush transforms the mesh into world space and rebuilds its octree.
func (m *Mesh) Crush(frame int) Crushed {
	xform := m.transform(frame)

	cm := &crushedMesh{
		data:     m.Data,
		shading:  m.Shading,
		material: m.Material,
	}

	vertices := make([]vec3.T, len(m.Data.Vertices))
	for i, v := range m.Data.Vertices {
		vertices[i] = affinetransform.TransformPoint(xform, v)
	}

	if len(m.Data.Normals) != 0 {
		nm := xform.NormalTransformMat()
		cm.normals = make([]vec3.T, len(m.Data.Normals))
		for i, n := range m.Data.Normals {
			cm.normals[i] = vec3.Normalize(mat33.MulMV(nm, n))
		}
	}

	faces := make([]octree.Face, len(m.Data.Faces))
	for i, f := range m.Data.Faces {
		faces[i] = octree.NewFace(i, vertices[f[0].V-1], vertices[f[1].V-1], vertices[f[2].V-1])
	}
	cm.tree = octree.FromFaces(faces)

	return cm
}

type crushedMesh struct {
	data     *MeshData
	normals  []vec3.T
	shading  ShadingMode
	material material.Material
	tree     *octree.Tree
}

func (m *crushedMesh) Bounds() (aabox.AABox, bool) {
	if len(m.tree.Faces()) == 0 {
		return aabox.AABox{}, false
	}
	return m.tree.Bounds(), true
}

// triangleHit intersects r with face f.  a and b are the barycentric
// weights of the second and third vertex.
func triangleHit(r ray.Ray, f *octree.Face) (t, a, b float64, ok bool) {
	t, a, b, ok = planeHit(r, f.Position, f.Edges[0], f.Edges[1])
	if !ok || t <= 0 || a < 0 || b < 0 || a+b > 1 {
		return 0, 0, 0, false
	}
	return t, a, b, true
}

// NextHit drains the octree in key order and stops once the nearest
// confirmed hit is no farther than the key of anything still queued.
func (m *crushedMesh) NextHit(r ray.Ray) (contact.Contact, bool) {
	best := math.Inf(1)
	bestFace := -1
	var bestA, bestB float64

	cursor := m.tree.Query(r)
	for {
		if bestFace >= 0 {
			next, ok := cursor.PeekDistance()
			if !ok || best <= next {
				break
			}
		}

		_, faces, ok := cursor.Next()
		if !ok {
			break
		}
		for _, fi := range faces {
			t, a, b, ok := triangleHit(r, m.tree.Face(fi))
			if ok && t < best {
				best, bestFace, bestA, bestB = t, fi, a, b
			}
		}
	}

	if bestFace < 0 {
		return contact.Contact{}, false
	}

	face := m.tree.Face(bestFace)
	weights := [3]float64{1 - bestA - bestB, bestA, bestB}
	corners := &m.data.Faces[face.ID]

	n := face.Normal
	switch m.shading {
	case Smooth:
		n = m.blendNormals(corners, face.Normal, [3]float64{1, 1, 1})
	case Interpolated:
		n = m.blendNormals(corners, face.Normal, weights)
	}

	var uv vec2.T
	for i, c := range corners {
		if c.T > 0 {
			uv = vec2.AddVV(uv, vec2.MulVS(m.data.TexCoords[c.T-1], weights[i]))
		}
	}

	return contact.Resolve(r, best, n, uv, m.material), true
}

// blendNormals weighs the corner normals, substituting faceNormal for corners
// that have none.
func (m *crushedMesh) blendNormals(corners *[3]FaceVertex, faceNormal vec3.T, weights [3]float64) vec3.T {
	var sum vec3.T
	for i, c := range corners {
		n := faceNormal
		if c.N > 0 {
			n = m.normals[c.N-1]
		}
		sum = vec3.AddVV(sum, vec3.MulVS(n, weights[i]))
	}
	if sum.NormSquared() == 0 {
		return faceNormal
	}
	return vec3.Normalize(sum)
}
