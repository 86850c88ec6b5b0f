package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/starford/doclife/internal/lifecycle"
	"github.com/starford/doclife/internal/models"
)

// Instruments records spans and metrics for document service operations.
type Instruments struct {
	tracer      trace.Tracer
	ops         metric.Int64Counter
	dur         metric.Float64Histogram
	transitions metric.Int64Counter
	documents   metric.Int64Gauge
}

// NewInstruments creates instruments on the given providers. Nil providers
// fall back to the global ones installed by Init.
func NewInstruments(mp metric.MeterProvider, tp trace.TracerProvider) *Instruments {
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	m := mp.Meter(instrumentationScope)
	// Instrument constructors only fail on invalid names; the no-op
	// instruments they return alongside the error are safe to use.
	ops, _ := m.Int64Counter("doclife.operations",
		metric.WithDescription("Document service operations executed"),
	)
	dur, _ := m.Float64Histogram("doclife.operation.duration",
		metric.WithDescription("Document service operation duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	transitions, _ := m.Int64Counter("doclife.transitions",
		metric.WithDescription("Lifecycle transitions attempted, by target state and outcome"),
	)
	documents, _ := m.Int64Gauge("doclife.documents",
		metric.WithDescription("Managed documents by lifecycle state (snapshot from the last scan)"),
	)
	return &Instruments{
		tracer:      tp.Tracer(instrumentationScope),
		ops:         ops,
		dur:         dur,
		transitions: transitions,
		documents:   documents,
	}
}

// Start begins a span for the named operation. The returned function ends
// the span and records the duration and any error.
func (i *Instruments) Start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, func(error)) {
	all := append([]attribute.KeyValue{attribute.String("doclife.operation", name)}, attrs...)
	ctx, span := i.tracer.Start(ctx, "docservice."+name, trace.WithAttributes(all...))
	i.ops.Add(ctx, 1, metric.WithAttributes(all...))
	start := time.Now()
	return ctx, func(err error) {
		i.dur.Record(ctx, millis(time.Since(start)),
			metric.WithAttributes(attribute.String("doclife.operation", name)))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}
}

// RecordScan records the per-state document counts of a scan.
func (i *Instruments) RecordScan(ctx context.Context, res *models.ScanResult) {
	counts := make(map[lifecycle.State]int64, len(lifecycle.States))
	for _, st := range lifecycle.States {
		counts[st] = 0
	}
	for _, d := range res.Documents {
		counts[d.State]++
	}
	for st, n := range counts {
		i.documents.Record(ctx, n, metric.WithAttributes(attribute.String("state", string(st))))
	}
}

// RecordTransition counts one applied or failed transition.
func (i *Instruments) RecordTransition(ctx context.Context, o models.TransitionOutcome) {
	outcome := "applied"
	if o.Error != "" {
		outcome = "failed"
	}
	i.transitions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("from", string(o.From)),
		attribute.String("to", string(o.To)),
		attribute.String("outcome", outcome),
	))
}

// millis converts d to fractional milliseconds.
func millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
