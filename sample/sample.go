// Package sample collects shaded subpixel samples and reconstructs one color
// per pixel from them.
package sample

import (
	"math"
	"math/rand"

	"octrace/color"
	"octrace/sink"
)

// Sample is one shaded point of the image plane, in pixel coordinates.
type Sample struct {
	X, Y  float64
	Color color.Color
}

// Filter reconstructs pixel (x, y) from the samples in its own bucket.
type Filter interface {
	Filter(x, y int, bucket []Sample) color.Color
}

// Box is the unweighted mean of the bucket's samples within Radius of the
// pixel center.  A zero Radius takes every sample in the bucket, as does a
// bucket with no sample inside Radius.
type Box struct {
	Radius float64
}

func (b Box) Filter(x, y int, bucket []Sample) color.Color {
	cx, cy := float64(x)+0.5, float64(y)+0.5
	radiusSq := b.Radius * b.Radius

	var sum color.Color
	n := 0
	for _, s := range bucket {
		if b.Radius > 0 {
			dx, dy := s.X-cx, s.Y-cy
			if dx*dx+dy*dy > radiusSq {
				continue
			}
		}
		sum = color.Add(sum, s.Color)
		n++
	}

	if n == 0 {
		if b.Radius > 0 && len(bucket) > 0 {
			return Box{}.Filter(x, y, bucket)
		}
		return color.Color{}
	}
	return color.Div(sum, float32(n))
}

const sqrtTwoPi = 2.50662827

// Gauss weights samples by a normal kernel centered on the pixel center with
// standard deviation Radius/3.  Samples farther than Radius are ignored.
type Gauss struct {
	Radius float64
}

func (g Gauss) weight(dist float64) float32 {
	sigma := g.Radius / 3
	return float32(math.Exp(-0.5*(dist/sigma)*(dist/sigma)) / (sigma * sqrtTwoPi))
}

func (g Gauss) Filter(x, y int, bucket []Sample) color.Color {
	cx, cy := float64(x)+0.5, float64(y)+0.5
	radiusSq := g.Radius * g.Radius

	var sum color.Color
	var total float32
	for _, s := range bucket {
		dx, dy := s.X-cx, s.Y-cy
		distSq := dx*dx + dy*dy
		if distSq > radiusSq {
			continue
		}
		w := g.weight(math.Sqrt(distSq))
		sum = color.Add(sum, color.Scale(s.Color, w))
		total += w
	}

	if total == 0 {
		return color.Color{}
	}
	return color.Div(sum, total)
}

// Jitter chooses where inside a pixel samples are taken.
type Jitter interface {
	// Count is the number of samples per pixel.
	Count() int

	// Apply moves the pixel center (x, y).
	Apply(x, y float64, rng *rand.Rand) (float64, float64)
}

// None takes a single sample at the pixel center.
type None struct{}

func (None) Count() int { return 1 }

func (None) Apply(x, y float64, rng *rand.Rand) (float64, float64) {
	return x, y
}

// Random moves each sample uniformly by up to Size pixels on each axis.
type Random struct {
	Size    float64
	Samples int
}

func DefaultRandom() Random {
	return Random{Size: 0.2, Samples: 25}
}

func (r Random) Count() int { return r.Samples }

func (r Random) Apply(x, y float64, rng *rand.Rand) (float64, float64) {
	return x + (rng.Float64()*2-1)*r.Size, y + (rng.Float64()*2-1)*r.Size
}

// Accumulator is a width x height grid of sample buckets.
//
// Add may be called concurrently as long as no two goroutines add to the
// same pixel.  Flush and Reset must not overlap with Add.
type Accumulator struct {
	width, height int
	buckets       [][]Sample
	filter        Filter
}

// NewAccumulator returns an accumulator reconstructing with filter, or with
// Box if filter is nil.
func NewAccumulator(filter Filter) *Accumulator {
	if filter == nil {
		filter = Box{}
	}
	return &Accumulator{filter: filter}
}

func (a *Accumulator) Init(width, height int) {
	a.width = width
	a.height = height
	a.buckets = make([][]Sample, width*height)
}

func (a *Accumulator) Width() int  { return a.width }
func (a *Accumulator) Height() int { return a.height }

func (a *Accumulator) index(x, y int) int {
	if x < 0 || x >= a.width || y < 0 || y >= a.height {
		panic("sample: pixel outside accumulator")
	}
	return y*a.width + x
}

// Reset empties every bucket, keeping their storage.
func (a *Accumulator) Reset() {
	for i := range a.buckets {
		a.buckets[i] = a.buckets[i][:0]
	}
}

func (a *Accumulator) Add(x, y int, s Sample) {
	i := a.index(x, y)
	a.buckets[i] = append(a.buckets[i], s)
}

// Bucket returns the samples of pixel (x, y).  The slice is only valid
// until the next Add or Reset.
func (a *Accumulator) Bucket(x, y int) []Sample {
	return a.buckets[a.index(x, y)]
}

// Flush writes one filtered frame to s and then empties every bucket.
// Errors from s are returned unwrapped.
func (a *Accumulator) Flush(s sink.Sink, frame int) error {
	if err := s.StartFrame(frame); err != nil {
		return err
	}
	for y := 0; y < a.height; y++ {
		for x := 0; x < a.width; x++ {
			c := a.filter.Filter(x, y, a.buckets[y*a.width+x])
			if err := s.SetSample(x, y, c); err != nil {
				return err
			}
		}
	}
	if err := s.FinishFrame(frame); err != nil {
		return err
	}
	a.Reset()
	return nil
}
