package scene

import (
	"octrace/aabox"
	"octrace/contact"
	"octrace/geometry"
	"octrace/kdtree"
	"octrace/light"
	"octrace/ray"
)

// Scene is the authored description of everything that is rendered.  It is
// only read while rendering; each frame works from a Crushed snapshot.
type Scene struct {
	Objects []geometry.Geometry
	Lights  []light.Light
}

// AddObject is a convenience function to register an object and get its
// index.
func (s *Scene) AddObject(g geometry.Geometry) int {
	s.Objects = append(s.Objects, g)
	return len(s.Objects) - 1
}

func (s *Scene) AddLight(l light.Light) int {
	s.Lights = append(s.Lights, l)
	return len(s.Lights) - 1
}

// Crushed is a scene frozen at one frame.  It is immutable and safe for
// concurrent use.
type Crushed struct {
	Objects []geometry.Crushed
	Lights  []light.Crushed

	// unbounded lists objects without a bounding box.  They are tested
	// against every ray.
	unbounded []int

	// QueryAccelerator holds every bounded object.
	QueryAccelerator *kdtree.KDTree
}

// Crush samples every animation at frame and builds the per-frame
// world-space data of every object and light.
func (s *Scene) Crush(frame int) *Crushed {
	c := &Crushed{}

	kdElements := []kdtree.KDElement{}
	for i, g := range s.Objects {
		cg := g.Crush(frame)
		c.Objects = append(c.Objects, cg)

		if bounds, ok := cg.Bounds(); ok {
			kdElements = append(kdElements, kdtree.KDElement{Ref: i, Bounds: bounds})
		} else {
			c.unbounded = append(c.unbounded, i)
		}
	}

	for _, l := range s.Lights {
		c.Lights = append(c.Lights, l.Crush(frame))
	}

	c.QueryAccelerator = kdtree.NewKDTree(kdElements)
	c.QueryAccelerator.RefineViaSurfaceAreaHeuristic(1.0, 0.9)

	return c
}

// visit calls f for every object whose bounds r may hit.
func (c *Crushed) visit(r ray.Ray, f func(i int)) {
	for _, i := range c.unbounded {
		f(i)
	}

	selector := func(b aabox.AABox) bool {
		return aabox.RayHit(r, b)
	}
	c.QueryAccelerator.Query(selector, f)
}

// NearestHit returns the closest hit over all objects and the index of the
// object that was hit.
func (c *Crushed) NearestHit(r ray.Ray) (contact.Contact, int, bool) {
	minContact := contact.Contact{}
	minIndex := -1

	c.visit(r, func(i int) {
		hit, ok := c.Objects[i].NextHit(r)
		if !ok {
			return
		}
		if minIndex == -1 || hit.T < minContact.T || (hit.T == minContact.T && i < minIndex) {
			minContact = hit
			minIndex = i
		}
	})

	return minContact, minIndex, minIndex != -1
}

// Occluded reports whether any object is hit strictly closer than maxDist.
func (c *Crushed) Occluded(r ray.Ray, maxDist float64) bool {
	occluded := false
	c.visit(r, func(i int) {
		if occluded {
			return
		}
		if hit, ok := c.Objects[i].NextHit(r); ok && hit.T < maxDist {
			occluded = true
		}
	})
	return occluded
}
