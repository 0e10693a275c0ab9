package octree

import (
	"math"
	"math/rand"
	"testing"

	"octrace/ray"
	"octrace/vmath/vec3"
)

func randomPoint(rng *rand.Rand, spread float64) vec3.T {
	return vec3.T{
		(rng.Float64()*2 - 1) * spread,
		(rng.Float64()*2 - 1) * spread,
		(rng.Float64()*2 - 1) * spread,
	}
}

func randomFaces(rng *rand.Rand, n int) []Face {
	faces := make([]Face, n)
	for i := range faces {
		a := randomPoint(rng, 5)
		b := vec3.AddVV(a, randomPoint(rng, 1))
		c := vec3.AddVV(a, randomPoint(rng, 1))
		faces[i] = NewFace(i, a, b, c)
	}
	return faces
}

// intersect is an independent Moller-Trumbore triangle test.
func intersect(r ray.Ray, f *Face) (float64, bool) {
	p := vec3.CProd(r.Slope, f.Edges[1])
	det := vec3.IProd(f.Edges[0], p)
	if math.Abs(det) < 1e-12 {
		return 0, false
	}
	inv := 1 / det
	s := vec3.SubVV(r.Point, f.Position)
	u := vec3.IProd(s, p) * inv
	if u < 0 || u > 1 {
		return 0, false
	}
	q := vec3.CProd(s, f.Edges[0])
	v := vec3.IProd(r.Slope, q) * inv
	if v < 0 || u+v > 1 {
		return 0, false
	}
	t := vec3.IProd(f.Edges[1], q) * inv
	if t <= 0 {
		return 0, false
	}
	return t, true
}

type batch struct {
	dist  float64
	faces []int
}

func drain(c *Cursor) []batch {
	var out []batch
	for {
		dist, faces, ok := c.Next()
		if !ok {
			return out
		}
		out = append(out, batch{dist, faces})
	}
}

func randomRay(rng *rand.Rand) ray.Ray {
	origin := randomPoint(rng, 12)
	target := randomPoint(rng, 4)
	return ray.New(origin, vec3.SubVV(target, origin))
}

func TestEmptyTreeYieldsNothing(t *testing.T) {
	tree := FromFaces(nil)
	if got := drain(tree.Query(ray.New(vec3.T{}, vec3.T{0, 0, 1}))); len(got) != 0 {
		t.Errorf("Got %d batches from an empty tree, want 0", len(got))
	}
}

func TestSmallTreeIsSingleLeaf(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	tree := FromFaces(randomFaces(rng, SplitThreshold-1))
	s := tree.Stats()
	if s.Nodes != 1 || s.Leaves != 1 {
		t.Errorf("Got stats %+v, want a single leaf", s)
	}
}

func TestEveryFaceIsStored(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	faces := randomFaces(rng, 600)
	tree := FromFaces(faces)

	seen := make([]bool, len(faces))
	for _, nd := range tree.nodes {
		for _, e := range nd.elements {
			seen[e] = true
		}
	}
	for i, ok := range seen {
		if !ok {
			t.Fatalf("Face %d not stored in any leaf", i)
		}
	}

	s := tree.Stats()
	if s.Nodes == 1 {
		t.Errorf("Tree of %d faces never split", len(faces))
	}
	if s.Nodes != 1+tree.quads {
		t.Errorf("Got %d nodes, want %d", s.Nodes, 1+tree.quads)
	}
}

func TestQuadBudgetCapsDegenerateInput(t *testing.T) {
	// Identical triangles land in every child they touch, so splitting
	// never separates them.
	faces := make([]Face, 100)
	for i := range faces {
		faces[i] = NewFace(i, vec3.T{0, 0, 0}, vec3.T{1, 0, 0}, vec3.T{0, 1, 0})
	}
	tree := FromFaces(faces)

	budget := len(faces) / ElementsPerQuad
	if tree.quads >= budget+8 {
		t.Errorf("Used %d quads with a budget of %d", tree.quads, budget)
	}
	if s := tree.Stats(); s.Nodes > 1+budget+8 {
		t.Errorf("Got %d nodes, budget allows at most %d", s.Nodes, 1+budget+8)
	}
}

func TestLeavesRespectSplitThreshold(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	tree := FromFaces(randomFaces(rng, 2000))
	if tree.quads >= tree.quadBudget {
		t.Skipf("Budget exhausted (%d/%d); threshold not guaranteed", tree.quads, tree.quadBudget)
	}
	if s := tree.Stats(); s.MaxLeafSize >= SplitThreshold {
		t.Errorf("Leaf holds %d elements with budget left", s.MaxLeafSize)
	}
}

func TestQueryReturnsSupersetOfHits(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	faces := randomFaces(rng, 800)
	tree := FromFaces(faces)

	for i := 0; i < 500; i++ {
		r := randomRay(rng)
		batches := drain(tree.Query(r))

		candidates := map[int]bool{}
		for _, b := range batches {
			for _, f := range b.faces {
				candidates[f] = true
			}
		}

		for fi := range faces {
			if _, ok := intersect(r, &faces[fi]); ok && !candidates[fi] {
				t.Fatalf("ray %d: face %d is hit but never returned", i, fi)
			}
		}
	}
}

func TestQueryKeysAreOrderedLowerBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	faces := randomFaces(rng, 800)
	tree := FromFaces(faces)

	for i := 0; i < 500; i++ {
		r := randomRay(rng)
		batches := drain(tree.Query(r))

		for j := 1; j < len(batches); j++ {
			if batches[j].dist < batches[j-1].dist {
				t.Fatalf("ray %d: batch %d key %v after key %v", i, j, batches[j].dist, batches[j-1].dist)
			}
		}

		// The nearest hit must appear in a batch whose key does not
		// exceed its distance, otherwise stopping early could skip it.
		nearest, nearestFace := math.Inf(1), -1
		for fi := range faces {
			if d, ok := intersect(r, &faces[fi]); ok && d < nearest {
				nearest, nearestFace = d, fi
			}
		}
		if nearestFace < 0 {
			continue
		}
		found := false
		for _, b := range batches {
			if b.dist > nearest+1e-9 {
				break
			}
			for _, f := range b.faces {
				if f == nearestFace {
					found = true
				}
			}
		}
		if !found {
			t.Fatalf("ray %d: nearest face %d at %v not returned before a larger key", i, nearestFace, nearest)
		}
	}
}

func TestPeekDistanceBoundsNextBatch(t *testing.T) {
	rng := rand.New(rand.NewSource(6))
	tree := FromFaces(randomFaces(rng, 400))
	c := tree.Query(ray.New(vec3.T{0, 0, 20}, vec3.T{0, 0, -1}))
	for {
		peek, peekOK := c.PeekDistance()
		dist, _, ok := c.Next()
		if !ok {
			return
		}
		if !peekOK || peek > dist {
			t.Fatalf("PeekDistance = (%v, %v) but next batch key is %v", peek, peekOK, dist)
		}
	}
}
