// renderer ray traces a YAML scene description into image or video frames.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/pprof"
	"strings"
	"syscall"

	"github.com/golang/glog"
	"golang.org/x/term"

	"octrace/render"
	"octrace/sceneconfig"
	"octrace/sink"
)

var (
	sceneFile   = flag.String("scene", "", "YAML scene description")
	outputFile  = flag.String("output", "frame.png", "Output path.  Image formats insert the frame number before the extension.")
	format      = flag.String("format", "", "Output format: png, jpeg, bmp, tiff, y4m or raw.  Inferred from --output if empty.")
	jpegQuality = flag.Int("jpeg-quality", 90, "JPEG quality")

	width  = flag.Int("width", 0, "Override the scene's output width")
	height = flag.Int("height", 0, "Override the scene's output height")
	frames = flag.Int("frames", 0, "Override the scene's frame count")

	workers = flag.Int("workers", render.DefaultWorkers, "Number of scanlines rendered concurrently")
	serial  = flag.Bool("serial", false, "Render on a single goroutine")
	seed    = flag.Int64("seed", 1, "Jitter seed")

	traceSpans = flag.Bool("trace-spans", false, "Log the duration of every render and frame span")

	cpuprofile = flag.String("cpu-profile", "", "write cpu profile to `file`")
	memprofile = flag.String("mem-profile", "", "write memory profile to `file`")
)

func main() {
	flag.Parse()

	glog.Infof("flags:")
	flag.VisitAll(func(f *flag.Flag) {
		glog.Infof("%s: %q", f.Name, f.Value.String())
	})

	if *cpuprofile != "" {
		f, err := os.Create(*cpuprofile)
		if err != nil {
			glog.Exitf("Could not create CPU profile: %v", err)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			glog.Exitf("Could not start CPU profile: %v", err)
		}
		defer pprof.StopCPUProfile()
	}

	if *traceSpans {
		defer installTracing()()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-signalCh
		glog.Infof("Interrupted, stopping render")
		cancel()
	}()

	if err := do(ctx); err != nil {
		pprof.StopCPUProfile()
		glog.Exitf("Error: %v", err)
	}

	if *memprofile != "" {
		f, err := os.Create(*memprofile)
		if err != nil {
			glog.Exitf("Could not create memory profile: %v", err)
		}
		defer f.Close()
		if err := pprof.WriteHeapProfile(f); err != nil {
			glog.Exitf("Could not write memory profile: %v", err)
		}
	}

	glog.Flush()
}

func do(ctx context.Context) error {
	if *sceneFile == "" {
		return fmt.Errorf("--scene is required")
	}

	doc, err := sceneconfig.Load(*sceneFile)
	if err != nil {
		return err
	}

	setup, err := doc.Build(filepath.Dir(*sceneFile))
	if err != nil {
		return fmt.Errorf("while building scene: %w", err)
	}

	out := setup.Output
	if *width > 0 {
		out.Width = *width
	}
	if *height > 0 {
		out.Height = *height
	}
	if *frames > 0 {
		out.Frames = *frames
	}

	s, closeSink, err := openSink(out)
	if err != nil {
		return err
	}
	defer closeSink()

	r := &render.Renderer{
		Scene:  setup.Scene,
		Camera: setup.Camera,
		Params: setup.Params,
		Filter: setup.Filter,
		Jitter: setup.Jitter,
		Options: render.Options{
			Width:   out.Width,
			Height:  out.Height,
			Frames:  out.Frames,
			Workers: *workers,
			Serial:  *serial,
			Seed:    *seed,
		},
	}

	showProgress := term.IsTerminal(int(os.Stderr.Fd()))
	if showProgress {
		r.Options.Progress = func(cur, tot int) {
			fmt.Fprintf(os.Stderr, "\r%d/%d %d%%", cur, tot, 100*cur/tot)
		}
	}

	err = r.Render(ctx, s)
	if showProgress {
		fmt.Fprintf(os.Stderr, "\n")
	}
	if err != nil {
		return fmt.Errorf("while rendering: %w", err)
	}

	return closeSink()
}

// openSink picks the sink for --format, or for the extension of --output.
// The returned close function may be called more than once.
func openSink(out sceneconfig.Output) (sink.Sink, func() error, error) {
	noop := func() error { return nil }

	f := strings.ToLower(*format)
	if f == "" {
		f = strings.TrimPrefix(strings.ToLower(filepath.Ext(*outputFile)), ".")
	}

	switch f {
	case "png":
		return sink.NewPNG(*outputFile), noop, nil
	case "jpg", "jpeg":
		return sink.NewJPEG(*outputFile, *jpegQuality), noop, nil
	case "bmp":
		return sink.NewBMP(*outputFile), noop, nil
	case "tif", "tiff":
		return sink.NewTIFF(*outputFile), noop, nil
	case "raw":
		return sink.NewRaw(*outputFile), noop, nil
	case "y4m":
		file, err := os.Create(*outputFile)
		if err != nil {
			return nil, nil, fmt.Errorf("while creating output: %w", err)
		}
		closed := false
		closer := func() error {
			if closed {
				return nil
			}
			closed = true
			if err := file.Close(); err != nil {
				return fmt.Errorf("while closing output: %w", err)
			}
			return nil
		}
		return sink.NewY4M(file, out.FPS), closer, nil
	}

	return nil, nil, fmt.Errorf("unknown output format %q", f)
}
