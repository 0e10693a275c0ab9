// Package kdtree is a bounding-box hierarchy over scene objects, refined
// with a randomized surface area heuristic.
package kdtree

import (
	"math/rand"

	"octrace/aabox"
)

type KDElement struct {
	// A handle back into some other storage array.
	Ref int

	// The bounds of this element.
	Bounds aabox.AABox
}

type KDNode struct {
	Bounds aabox.AABox

	Elements []KDElement

	LoChild *KDNode
	HiChild *KDNode
}

// trialsPerAxis is the number of random cut positions tried on each axis.
const trialsPerAxis = 5

func boundsOf(elements []KDElement) aabox.AABox {
	box := aabox.AccumZeroAABox()
	for _, element := range elements {
		box = aabox.MinContainingAABox(box, element.Bounds)
	}
	return box
}

func hiAlong(b aabox.AABox, axis int) float64 {
	return b.Hi()[axis]
}

func (cur *KDNode) refineViaSurfaceAreaHeuristic(splitCost, terminationThreshold float64, rng *rand.Rand) {
	var (
		found                bool
		bestObjective        float64
		bestLoBox, bestHiBox aabox.AABox
		bestLo, bestHi       []KDElement
	)

	for axis := 0; axis < 3; axis++ {
		for i := 0; i < trialsPerAxis; i++ {
			trialCut := hiAlong(cur.Elements[rng.Intn(len(cur.Elements))].Bounds, axis)

			var lo, hi []KDElement
			for _, element := range cur.Elements {
				if hiAlong(element.Bounds, axis) < trialCut {
					lo = append(lo, element)
				} else {
					hi = append(hi, element)
				}
			}
			if len(lo) == 0 || len(hi) == 0 {
				continue
			}

			loBox := boundsOf(lo)
			hiBox := boundsOf(hi)
			objective := float64(len(lo))*loBox.SurfaceArea() + float64(len(hi))*hiBox.SurfaceArea()

			if !found || objective < bestObjective {
				found = true
				bestObjective = objective
				bestLo, bestHi = lo, hi
				bestLoBox, bestHiBox = loBox, hiBox
			}
		}
	}

	if !found {
		return
	}

	// Only split if it is a good-enough improvement over not splitting.
	parentObjective := float64(len(cur.Elements)) * cur.Bounds.SurfaceArea()
	if bestObjective+splitCost > terminationThreshold*parentObjective {
		return
	}

	cur.LoChild = &KDNode{Bounds: bestLoBox, Elements: bestLo}
	cur.HiChild = &KDNode{Bounds: bestHiBox, Elements: bestHi}

	// All of cur's elements have been divided among its children.
	cur.Elements = nil
}

type KDTree struct {
	Root *KDNode
}

func NewKDTree(elements []KDElement) *KDTree {
	return &KDTree{
		Root: &KDNode{
			Bounds:   boundsOf(elements),
			Elements: elements,
		},
	}
}

// RefineViaSurfaceAreaHeuristic splits nodes while the estimated cost of the
// children plus splitCost stays below threshold times the cost of the parent.
// The cut positions are drawn from a fixed seed, so refinement is
// deterministic.
func (t *KDTree) RefineViaSurfaceAreaHeuristic(splitCost, threshold float64) {
	rng := rand.New(rand.NewSource(12345))

	workStack := []*KDNode{t.Root}
	for len(workStack) != 0 {
		cur := workStack[len(workStack)-1]
		workStack = workStack[:len(workStack)-1]

		if len(cur.Elements) < 2 {
			continue
		}

		cur.refineViaSurfaceAreaHeuristic(splitCost, threshold, rng)

		if cur.LoChild != nil {
			workStack = append(workStack, cur.LoChild)
		}
		if cur.HiChild != nil {
			workStack = append(workStack, cur.HiChild)
		}
	}
}

type KDSelector func(b aabox.AABox) bool
type KDVisitor func(i int)

// Query calls visitor for every element whose own bounds, and every
// enclosing node's bounds, pass selector.
func (t *KDTree) Query(selector KDSelector, visitor KDVisitor) {
	if len(t.Root.Elements) == 0 && t.Root.LoChild == nil {
		return
	}

	workStack := []*KDNode{t.Root}
	for len(workStack) != 0 {
		cur := workStack[len(workStack)-1]
		workStack = workStack[:len(workStack)-1]

		if !selector(cur.Bounds) {
			continue
		}

		for i := range cur.Elements {
			if selector(cur.Elements[i].Bounds) {
				visitor(cur.Elements[i].Ref)
			}
		}

		if cur.LoChild != nil {
			workStack = append(workStack, cur.LoChild)
		}
		if cur.HiChild != nil {
			workStack = append(workStack, cur.HiChild)
		}
	}
}
