package sample

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"octrace/color"
)

func TestFiltersOfOneSample(t *testing.T) {
	c := color.New(0.25, 0.5, 0.75, 1)
	bucket := []Sample{{X: 3.6, Y: 2.4, Color: c}}

	filters := map[string]Filter{
		"box":        Box{},
		"box narrow": Box{Radius: 0.1},
		"gauss":      Gauss{Radius: 1.5},
	}
	for name, f := range filters {
		t.Run(name, func(t *testing.T) {
			got := f.Filter(3, 2, bucket)
			if diff := cmp.Diff(got, c, cmpopts.EquateApprox(0, 1e-6)); diff != "" {
				t.Errorf("Filter differs; diff (-got +want)\n%s", diff)
			}
		})
	}
}

func TestFiltersOfEmptyBucket(t *testing.T) {
	for _, f := range []Filter{Box{}, Box{Radius: 0.5}, Gauss{Radius: 1}} {
		if diff := cmp.Diff(f.Filter(0, 0, nil), color.Color{}); diff != "" {
			t.Errorf("%T: empty bucket differs; diff (-got +want)\n%s", f, diff)
		}
	}
}

func TestBoxMean(t *testing.T) {
	bucket := []Sample{
		{Color: color.New(1, 0, 0, 1)},
		{Color: color.New(0, 1, 0, 0)},
	}
	got := Box{}.Filter(0, 0, bucket)
	if diff := cmp.Diff(got, color.New(0.5, 0.5, 0, 0.5)); diff != "" {
		t.Errorf("Filter differs; diff (-got +want)\n%s", diff)
	}
}

func TestBoxRadius(t *testing.T) {
	bucket := []Sample{
		{X: 0.5, Y: 0.5, Color: color.New(1, 0, 0, 1)},
		{X: 0.9, Y: 0.5, Color: color.New(0, 0, 1, 1)},
	}

	testCases := []struct {
		radius float64
		want   color.Color
	}{
		{radius: 0, want: color.New(0.5, 0, 0.5, 1)},
		{radius: 0.5, want: color.New(0.5, 0, 0.5, 1)},
		{radius: 0.25, want: color.New(1, 0, 0, 1)},
	}
	for _, tc := range testCases {
		got := Box{Radius: tc.radius}.Filter(0, 0, bucket)
		if diff := cmp.Diff(got, tc.want); diff != "" {
			t.Errorf("Box{Radius: %v} differs; diff (-got +want)\n%s", tc.radius, diff)
		}
	}
}

func TestGaussWeighting(t *testing.T) {
	near := Sample{X: 0.5, Y: 0.5, Color: color.New(1, 0, 0, 1)}
	mid := Sample{X: 1.0, Y: 0.5, Color: color.New(0, 0, 1, 1)}
	far := Sample{X: 3.0, Y: 0.5, Color: color.New(0, 1, 0, 1)}

	g := Gauss{Radius: 1}

	// Samples outside the radius do not contribute.
	got := g.Filter(0, 0, []Sample{near, far})
	if diff := cmp.Diff(got, near.Color, cmpopts.EquateApprox(0, 1e-6)); diff != "" {
		t.Errorf("far sample contributed; diff (-got +want)\n%s", diff)
	}

	// The center sample outweighs one half a pixel away.
	got = g.Filter(0, 0, []Sample{near, mid})
	if !(got.R > got.B) || got.R+got.B < 0.999 || got.R+got.B > 1.001 {
		t.Errorf("got %v, want a normalized blend favoring red", got)
	}

	// Only a sample outside the radius leaves nothing to weigh.
	if diff := cmp.Diff(g.Filter(0, 0, []Sample{far}), color.Color{}); diff != "" {
		t.Errorf("isolated far sample differs; diff (-got +want)\n%s", diff)
	}
}

func TestJitter(t *testing.T) {
	if got := (None{}).Count(); got != 1 {
		t.Errorf("None.Count() = %d, want 1", got)
	}
	x, y := None{}.Apply(2.5, 3.5, nil)
	if x != 2.5 || y != 3.5 {
		t.Errorf("None.Apply moved the center to (%v, %v)", x, y)
	}

	r := DefaultRandom()
	if r.Count() != 25 {
		t.Errorf("DefaultRandom().Count() = %d, want 25", r.Count())
	}
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 1000; i++ {
		x, y := r.Apply(2.5, 3.5, rng)
		if x < 2.3 || x > 2.7 || y < 3.3 || y > 3.7 {
			t.Fatalf("Random.Apply gave (%v, %v), outside the jitter square", x, y)
		}
	}
}

type call struct {
	Op    string
	X, Y  int
	Color color.Color
}

type recordingSink struct {
	calls []call
	fail  string
}

func (r *recordingSink) record(c call) error {
	r.calls = append(r.calls, c)
	if c.Op == r.fail {
		return errors.New(c.Op + " failed")
	}
	return nil
}

func (r *recordingSink) Init(width, height, frames int) error {
	return r.record(call{Op: "init", X: width, Y: height})
}

func (r *recordingSink) StartFrame(frame int) error {
	return r.record(call{Op: "start", X: frame})
}

func (r *recordingSink) SetSample(x, y int, c color.Color) error {
	return r.record(call{Op: "set", X: x, Y: y, Color: c})
}

func (r *recordingSink) FinishFrame(frame int) error {
	return r.record(call{Op: "finish", X: frame})
}

func TestAccumulatorFlush(t *testing.T) {
	a := NewAccumulator(nil)
	a.Init(2, 2)
	if a.Width() != 2 || a.Height() != 2 {
		t.Fatalf("accumulator is %dx%d, want 2x2", a.Width(), a.Height())
	}

	red := color.New(1, 0, 0, 1)
	blue := color.New(0, 0, 1, 1)
	a.Add(1, 0, Sample{X: 1.5, Y: 0.5, Color: red})
	a.Add(0, 1, Sample{X: 0.5, Y: 1.5, Color: blue})
	a.Add(0, 1, Sample{X: 0.5, Y: 1.5, Color: blue})

	s := &recordingSink{}
	if err := a.Flush(s, 4); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	want := []call{
		{Op: "start", X: 4},
		{Op: "set", X: 0, Y: 0},
		{Op: "set", X: 1, Y: 0, Color: red},
		{Op: "set", X: 0, Y: 1, Color: blue},
		{Op: "set", X: 1, Y: 1},
		{Op: "finish", X: 4},
	}
	if diff := cmp.Diff(s.calls, want); diff != "" {
		t.Errorf("sink calls differ; diff (-got +want)\n%s", diff)
	}

	for y := 0; y < 2; y++ {
		for x := 0; x < 2; x++ {
			if n := len(a.Bucket(x, y)); n != 0 {
				t.Errorf("bucket (%d, %d) holds %d samples after Flush", x, y, n)
			}
		}
	}
}

func TestAccumulatorFlushError(t *testing.T) {
	a := NewAccumulator(Box{})
	a.Init(1, 1)
	a.Add(0, 0, Sample{Color: color.White()})

	s := &recordingSink{fail: "set"}
	if err := a.Flush(s, 0); err == nil {
		t.Fatalf("Flush succeeded, want error")
	}
	if got := s.calls[len(s.calls)-1].Op; got != "set" {
		t.Errorf("last call was %q, want the failing set", got)
	}
}

func TestAccumulatorRejectsOutside(t *testing.T) {
	a := NewAccumulator(nil)
	a.Init(2, 1)

	defer func() {
		if recover() == nil {
			t.Errorf("Add outside the grid did not panic")
		}
	}()
	a.Add(0, 1, Sample{})
}
