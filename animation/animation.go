// Package animation provides values that are a pure function of the frame
// index.
package animation

import (
	"sort"

	"octrace/vmath/vec3"
)

type Animation[T any] interface {
	Sample(frame int) T
}

type Constant[T any] struct {
	Value T
}

func (c Constant[T]) Sample(frame int) T {
	return c.Value
}

// Vec3Linear moves by Delta every frame, starting from Initial at frame 0.
type Vec3Linear struct {
	Initial vec3.T
	Delta   vec3.T
}

func (l Vec3Linear) Sample(frame int) vec3.T {
	return vec3.AddVV(l.Initial, vec3.MulVS(l.Delta, float64(frame)))
}

type ScalarLinear struct {
	Initial float64
	Delta   float64
}

func (l ScalarLinear) Sample(frame int) float64 {
	return l.Initial + l.Delta*float64(frame)
}

// Func adapts a function to the Animation interface.
type Func[T any] func(frame int) T

func (f Func[T]) Sample(frame int) T {
	return f(frame)
}

type key[T any] struct {
	start int
	anim  Animation[T]
}

// Sequence switches between animations at their start frames.  Each
// animation is sampled relative to its own start.
type Sequence[T any] struct {
	keys []key[T]
}

// Add inserts anim to take over at frame start.  Animations with equal
// start frames keep their insertion order, and the last one added wins.
func (s *Sequence[T]) Add(anim Animation[T], start int) *Sequence[T] {
	i := sort.Search(len(s.keys), func(i int) bool {
		return s.keys[i].start > start
	})
	s.keys = append(s.keys, key[T]{})
	copy(s.keys[i+1:], s.keys[i:])
	s.keys[i] = key[T]{start: start, anim: anim}
	return s
}

func (s *Sequence[T]) Len() int {
	return len(s.keys)
}

// Sample panics if the sequence is empty.
func (s *Sequence[T]) Sample(frame int) T {
	if len(s.keys) == 0 {
		panic("animation: Sample called on an empty Sequence")
	}

	i := sort.Search(len(s.keys), func(i int) bool {
		return s.keys[i].start > frame
	}) - 1
	if i < 0 {
		i = 0
	}
	k := s.keys[i]
	return k.anim.Sample(frame - k.start)
}

// SampleOr samples anim, or returns fallback when anim is nil.
func SampleOr[T any](anim Animation[T], frame int, fallback T) T {
	if anim == nil {
		return fallback
	}
	return anim.Sample(frame)
}
