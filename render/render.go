// Package render drives multi-frame rendering: a serial per-frame setup,
// bounded parallel shading of scanlines, and a serial flush to the sink.
package render

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/golang/glog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
	"golang.org/x/xerrors"

	"octrace/camera"
	"octrace/color"
	"octrace/sample"
	"octrace/scene"
	"octrace/shade"
	"octrace/sink"
)

const DefaultWorkers = 8

type Options struct {
	Width, Height int
	Frames        int

	// Workers bounds the number of scanlines shaded at once.  Zero means
	// DefaultWorkers.
	Workers int

	// Serial shades every scanline on the calling goroutine.
	Serial bool

	// Seed drives jitter.  Output depends only on Seed, never on
	// scheduling.
	Seed int64

	// Progress, if set, is called after each scanline with the number of
	// scanlines finished so far over all frames.  Calls are serialized.
	Progress func(done, total int)
}

// Sink operations, as reported by SinkError.
const (
	OpInit        = "init"
	OpStartFrame  = "start_frame"
	OpSetSample   = "set_sample"
	OpFinishFrame = "finish_frame"
)

// SinkError reports a failed sink call.  It aborts the whole render.
type SinkError struct {
	Op    string
	Frame int

	inner error
	frame xerrors.Frame
}

func newSinkError(op string, frame int, inner error) *SinkError {
	return &SinkError{
		Op:    op,
		Frame: frame,
		inner: inner,
		frame: xerrors.Caller(1),
	}
}

func (e *SinkError) Error() string {
	return fmt.Sprintf("sink %s failed on frame %d: %v", e.Op, e.Frame, e.inner)
}

func (e *SinkError) Format(f fmt.State, c rune) { // implements fmt.Formatter
	xerrors.FormatError(e, f, c)
}

func (e *SinkError) FormatError(p xerrors.Printer) error { // implements xerrors.Formatter
	p.Print(fmt.Sprintf("sink %s failed on frame %d", e.Op, e.Frame))
	if p.Detail() {
		e.frame.Format(p)
	}
	return e.inner
}

func (e *SinkError) Unwrap() error {
	return e.inner
}

// checkedSink turns every sink failure into a *SinkError.
type checkedSink struct {
	sink.Sink
	frame int
}

func (c *checkedSink) StartFrame(frame int) error {
	if err := c.Sink.StartFrame(frame); err != nil {
		return newSinkError(OpStartFrame, frame, err)
	}
	return nil
}

func (c *checkedSink) SetSample(x, y int, col color.Color) error {
	if err := c.Sink.SetSample(x, y, col); err != nil {
		return newSinkError(OpSetSample, c.frame, err)
	}
	return nil
}

func (c *checkedSink) FinishFrame(frame int) error {
	if err := c.Sink.FinishFrame(frame); err != nil {
		return newSinkError(OpFinishFrame, frame, err)
	}
	return nil
}

type Renderer struct {
	Scene  *scene.Scene
	Camera camera.Camera
	Params shade.Params

	// Filter and Jitter default to sample.Box and sample.None.
	Filter sample.Filter
	Jitter sample.Jitter

	Options Options
}

// Render renders every frame into out.  The context is checked between
// scanlines; a cancelled render flushes no further frames.
func (r *Renderer) Render(ctx context.Context, out sink.Sink) error {
	tracer := otel.Tracer("octrace/render")
	var span trace.Span
	ctx, span = tracer.Start(ctx, "Renderer.Render")
	defer span.End()

	opts := r.Options
	if opts.Width <= 0 || opts.Height <= 0 {
		return fmt.Errorf("bad output size %dx%d", opts.Width, opts.Height)
	}
	if opts.Frames <= 0 {
		return fmt.Errorf("bad frame count %d", opts.Frames)
	}
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}

	if err := out.Init(opts.Width, opts.Height, opts.Frames); err != nil {
		return newSinkError(OpInit, 0, err)
	}

	acc := sample.NewAccumulator(r.Filter)
	acc.Init(opts.Width, opts.Height)

	p := &progress{total: opts.Height * opts.Frames, report: opts.Progress}

	for f := 0; f < opts.Frames; f++ {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("render stopped before frame %d: %w", f+1, err)
		}
		if err := r.renderFrame(ctx, &opts, f, acc, out, p); err != nil {
			return err
		}
	}

	return nil
}

func (r *Renderer) renderFrame(ctx context.Context, opts *Options, f int, acc *sample.Accumulator, out sink.Sink, p *progress) error {
	tracer := otel.Tracer("octrace/render")
	var span trace.Span
	ctx, span = tracer.Start(ctx, "Renderer.renderFrame")
	defer span.End()
	span.SetAttributes(attribute.Int("frame", f))

	glog.V(1).Infof("Initializing frame %d", f+1)
	start := time.Now()
	w := &worker{
		tracer: &shade.Tracer{
			Scene:  r.Scene.Crush(f),
			Camera: r.Camera.Crush(f, acc.Width(), acc.Height()),
			Params: &r.Params,
		},
		jitter: r.Jitter,
		acc:    acc,
		seed:   opts.Seed,
		frame:  f,
	}
	if w.jitter == nil {
		w.jitter = sample.None{}
	}
	glog.V(1).Infof("Initialized frame %d in %v", f+1, time.Since(start))

	glog.V(1).Infof("Rendering frame %d", f+1)
	start = time.Now()
	if err := r.shadeRows(ctx, opts, w, p); err != nil {
		return fmt.Errorf("while rendering frame %d: %w", f+1, err)
	}
	glog.V(1).Infof("Rendered frame %d in %v", f+1, time.Since(start))

	glog.V(1).Infof("Sinking frame %d", f+1)
	start = time.Now()
	if err := acc.Flush(&checkedSink{Sink: out, frame: f}, f); err != nil {
		return err
	}
	glog.V(1).Infof("Sank frame %d in %v", f+1, time.Since(start))

	return nil
}

func (r *Renderer) shadeRows(ctx context.Context, opts *Options, w *worker, p *progress) error {
	if opts.Serial {
		rng := rand.New(rand.NewSource(0))
		for y := 0; y < w.acc.Height(); y++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			w.row(y, rng)
			p.rowDone()
		}
		return nil
	}

	// Use errgroup and semaphore to limit concurrency.
	eg, ctx := errgroup.WithContext(ctx)
	sem := semaphore.NewWeighted(int64(opts.Workers))

	var acquireErr error
	for y := 0; y < w.acc.Height(); y++ {
		if err := sem.Acquire(ctx, 1); err != nil {
			acquireErr = fmt.Errorf("while acquiring concurrency limiter semaphore: %w", err)
			break
		}

		eg.Go(func() error {
			defer sem.Release(1)
			if err := ctx.Err(); err != nil {
				return err
			}
			w.row(y, rand.New(rand.NewSource(0)))
			p.rowDone()
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return fmt.Errorf("while waiting for completion of errgroup: %w", err)
	}
	return acquireErr
}

// worker shades pixels of one frame.  Each call to row writes only the
// buckets of that scanline.
type worker struct {
	tracer *shade.Tracer
	jitter sample.Jitter
	acc    *sample.Accumulator

	seed  int64
	frame int
}

func (w *worker) row(y int, rng *rand.Rand) {
	n := w.jitter.Count()
	for x := 0; x < w.acc.Width(); x++ {
		rng.Seed(w.seed ^ pixelHash(w.frame, x, y))
		for i := 0; i < n; i++ {
			sx, sy := w.jitter.Apply(float64(x)+0.5, float64(y)+0.5, rng)
			c := w.tracer.Trace(w.tracer.Camera.MakeRay(sx, sy), 0)
			w.acc.Add(x, y, sample.Sample{X: sx, Y: sy, Color: c})
		}
	}
}

// pixelHash mixes a pixel's coordinates with the splitmix64 finalizer.
func pixelHash(frame, x, y int) int64 {
	h := uint64(frame)*0x9e3779b97f4a7c15 ^ uint64(y)*0xbf58476d1ce4e5b9 ^ uint64(x)*0x94d049bb133111eb
	h ^= h >> 30
	h *= 0xbf58476d1ce4e5b9
	h ^= h >> 27
	h *= 0x94d049bb133111eb
	h ^= h >> 31
	return int64(h)
}

type progress struct {
	mu     sync.Mutex
	done   int
	total  int
	report func(done, total int)
}

func (p *progress) rowDone() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.done++
	if p.report != nil {
		p.report(p.done, p.total)
	}
}
