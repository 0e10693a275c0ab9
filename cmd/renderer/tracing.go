package main

import (
	"context"

	"github.com/golang/glog"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// logProcessor logs the duration of every finished span.
type logProcessor struct{}

func (logProcessor) OnStart(parent context.Context, s sdktrace.ReadWriteSpan) {}

func (logProcessor) OnEnd(s sdktrace.ReadOnlySpan) {
	glog.Infof("span %s took %v %v", s.Name(), s.EndTime().Sub(s.StartTime()), s.Attributes())
}

func (logProcessor) Shutdown(ctx context.Context) error { return nil }

func (logProcessor) ForceFlush(ctx context.Context) error { return nil }

// installTracing routes spans to the log.  The returned function shuts the
// provider down.
func installTracing() func() {
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithSpanProcessor(logProcessor{}),
	)
	otel.SetTracerProvider(tp)
	return func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			glog.Errorf("Failed to shut down tracer provider: %v", err)
		}
	}
}
