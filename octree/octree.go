// Package octree implements a lazily split octree over triangle faces.
//
// A Tree is built in one phase (New, Add) and queried in another (Query).
// Nodes live in a single arena and refer to their children by index, so a
// split never invalidates references held by the build walk.  Queries do not
// mutate the tree and may run concurrently.
package octree

import (
	"container/heap"

	"octrace/aabox"
	"octrace/ray"
	"octrace/vmath/vec3"
)

const (
	// SplitThreshold is the element count at which a leaf is split.
	SplitThreshold = 30

	// ElementsPerQuad bounds the number of quads (8 per split) to
	// len(faces)/ElementsPerQuad.
	ElementsPerQuad = 10
)

// Face is the geometry of one triangle: Position, Position+Edges[0] and
// Position+Edges[1].  ID refers back to the mesh's face table.
type Face struct {
	ID       int
	Normal   vec3.T
	Position vec3.T
	Edges    [2]vec3.T
}

// NewFace builds the face for triangle (a, b, c).  Normal follows the
// winding order and is unit length unless the triangle is degenerate.
func NewFace(id int, a, b, c vec3.T) Face {
	e1 := vec3.SubVV(b, a)
	e2 := vec3.SubVV(c, a)
	return Face{
		ID:       id,
		Normal:   vec3.Normalize(vec3.CProd(e1, e2)),
		Position: a,
		Edges:    [2]vec3.T{e1, e2},
	}
}

func (f *Face) Vertices() [3]vec3.T {
	return [3]vec3.T{
		f.Position,
		vec3.AddVV(f.Position, f.Edges[0]),
		vec3.AddVV(f.Position, f.Edges[1]),
	}
}

// Bounds returns the smallest box containing the face.
func (f *Face) Bounds() aabox.AABox {
	v := f.Vertices()
	return aabox.New(v[0], v[1]).Expand(v[2])
}

type node struct {
	bounds aabox.AABox

	// firstChild is the arena index of the first of eight consecutive
	// children, or -1 for a leaf.
	firstChild int

	// elements holds face indices.  Only leaves have elements.
	elements []int
}

func (n *node) isLeaf() bool {
	return n.firstChild < 0
}

type Tree struct {
	faces []Face
	nodes []node

	quads      int
	quadBudget int
}

// New builds a tree rooted at bounds holding every face.
func New(bounds aabox.AABox, faces []Face) *Tree {
	t := &Tree{
		faces:      faces,
		nodes:      []node{{bounds: bounds, firstChild: -1}},
		quadBudget: len(faces) / ElementsPerQuad,
	}
	for i := range faces {
		t.Add(i)
	}
	return t
}

// FromFaces builds a tree whose root is the bounding box of faces.
func FromFaces(faces []Face) *Tree {
	bounds := aabox.AccumZeroAABox()
	for i := range faces {
		bounds = aabox.MinContainingAABox(bounds, faces[i].Bounds())
	}
	return New(bounds, faces)
}

// Bounds is the root box.
func (t *Tree) Bounds() aabox.AABox {
	return t.nodes[0].bounds
}

func (t *Tree) Faces() []Face {
	return t.faces
}

func (t *Tree) Face(i int) *Face {
	return &t.faces[i]
}

func (t *Tree) overlaps(n int, face int) bool {
	f := &t.faces[face]
	return aabox.TriangleOverlaps(t.nodes[n].bounds, f.Position, f.Edges[0], f.Edges[1])
}

// Add inserts face index i into every leaf whose box the triangle touches.
func (t *Tree) Add(i int) {
	workStack := []int{0}
	for len(workStack) != 0 {
		cur := workStack[len(workStack)-1]
		workStack = workStack[:len(workStack)-1]

		if !t.overlaps(cur, i) {
			continue
		}

		if !t.nodes[cur].isLeaf() {
			first := t.nodes[cur].firstChild
			for c := 0; c < 8; c++ {
				workStack = append(workStack, first+c)
			}
			continue
		}

		t.nodes[cur].elements = append(t.nodes[cur].elements, i)
		t.maybeSplit(cur)
	}
}

func (t *Tree) canSplit(n int) bool {
	return len(t.nodes[n].elements) >= SplitThreshold && t.quads < t.quadBudget
}

// maybeSplit splits leaf n, then any child that is itself over the
// threshold, until the quad budget runs out.
func (t *Tree) maybeSplit(n int) {
	pending := []int{n}
	for len(pending) != 0 {
		cur := pending[len(pending)-1]
		pending = pending[:len(pending)-1]

		if !t.canSplit(cur) {
			continue
		}

		t.quads += 8
		first := len(t.nodes)
		parentBounds := t.nodes[cur].bounds
		for c := 0; c < 8; c++ {
			t.nodes = append(t.nodes, node{
				bounds:     parentBounds.Octant(c),
				firstChild: -1,
			})
		}

		elements := t.nodes[cur].elements
		t.nodes[cur].elements = nil
		t.nodes[cur].firstChild = first

		for _, e := range elements {
			for c := 0; c < 8; c++ {
				if t.overlaps(first+c, e) {
					t.nodes[first+c].elements = append(t.nodes[first+c].elements, e)
				}
			}
		}

		for c := 0; c < 8; c++ {
			pending = append(pending, first+c)
		}
	}
}

type Stats struct {
	Nodes       int
	Leaves      int
	Elements    int
	MaxLeafSize int
	MaxDepth    int
}

func (t *Tree) Stats() Stats {
	s := Stats{Nodes: len(t.nodes)}

	type item struct{ n, depth int }
	workStack := []item{{0, 0}}
	for len(workStack) != 0 {
		cur := workStack[len(workStack)-1]
		workStack = workStack[:len(workStack)-1]

		if cur.depth > s.MaxDepth {
			s.MaxDepth = cur.depth
		}

		nd := &t.nodes[cur.n]
		if nd.isLeaf() {
			s.Leaves++
			s.Elements += len(nd.elements)
			if len(nd.elements) > s.MaxLeafSize {
				s.MaxLeafSize = len(nd.elements)
			}
			continue
		}
		for c := 0; c < 8; c++ {
			workStack = append(workStack, item{nd.firstChild + c, cur.depth + 1})
		}
	}
	return s
}

type entry struct {
	dist float64
	node int
}

type entryHeap []entry

func (h entryHeap) Len() int { return len(h) }

func (h entryHeap) Less(i, j int) bool {
	if h[i].dist != h[j].dist {
		return h[i].dist < h[j].dist
	}
	return h[i].node < h[j].node
}

func (h entryHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *entryHeap) Push(x interface{}) { *h = append(*h, x.(entry)) }

func (h *entryHeap) Pop() interface{} {
	old := *h
	e := old[len(old)-1]
	*h = old[:len(old)-1]
	return e
}

// Cursor yields the leaves a ray may hit, nearest possible hit first.
type Cursor struct {
	tree  *Tree
	query ray.Ray
	queue entryHeap
}

// Query starts a traversal for r.  The root is queued at distance 0.
func (t *Tree) Query(r ray.Ray) *Cursor {
	c := &Cursor{
		tree:  t,
		query: r,
	}
	if len(t.faces) != 0 {
		c.queue = entryHeap{{dist: 0, node: 0}}
	}
	return c
}

// PeekDistance returns the key of the next queued node.  Every face not
// yet returned by Next is hit, if at all, no closer than this.
func (c *Cursor) PeekDistance() (float64, bool) {
	if len(c.queue) == 0 {
		return 0, false
	}
	return c.queue[0].dist, true
}

// Next returns the faces of the next non-empty leaf together with its key,
// a lower bound on the distance of any hit among them.  Keys are returned in
// non-decreasing order.
func (c *Cursor) Next() (float64, []int, bool) {
	for len(c.queue) != 0 {
		cur := heap.Pop(&c.queue).(entry)
		nd := &c.tree.nodes[cur.node]

		if nd.isLeaf() {
			if len(nd.elements) == 0 {
				continue
			}
			return cur.dist, nd.elements, true
		}

		for i := 0; i < 8; i++ {
			child := nd.firstChild + i
			dist, ok := aabox.RayFirstHit(c.query, c.tree.nodes[child].bounds)
			if !ok {
				continue
			}
			// A child can only be entered after its parent.
			if dist < cur.dist {
				dist = cur.dist
			}
			heap.Push(&c.queue, entry{dist: dist, node: child})
		}
	}
	return 0, nil, false
}
