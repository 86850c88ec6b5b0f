// Package telemetry provides OpenTelemetry integration for doclife.
//
// Telemetry is disabled by default; Init then installs no-op providers.
// When enabled, spans and metrics are written by the stdout exporters to the
// configured writer (stderr for every command, so stdout stays clean for
// JSON results and the MCP protocol).
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/sdk/resource"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

const instrumentationScope = "github.com/starford/doclife"

// Options configures Init.
type Options struct {
	Enabled        bool
	Writer         io.Writer
	Interval       time.Duration
	ServiceVersion string
}

// ShutdownFunc flushes and stops the installed providers.
type ShutdownFunc func(context.Context) error

// Init configures the global OTel providers and returns their shutdown.
func Init(ctx context.Context, opts Options) (ShutdownFunc, error) {
	if !opts.Enabled {
		otel.SetTracerProvider(tracenoop.NewTracerProvider())
		otel.SetMeterProvider(metricnoop.NewMeterProvider())
		return func(context.Context) error { return nil }, nil
	}
	if opts.Writer == nil {
		opts.Writer = os.Stderr
	}
	if opts.Interval <= 0 {
		opts.Interval = 15 * time.Second
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String("doclife"),
			semconv.ServiceVersionKey.String(opts.ServiceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("telemetry: resource: %w", err)
	}

	spanExp, err := stdouttrace.New(stdouttrace.WithWriter(opts.Writer))
	if err != nil {
		return nil, fmt.Errorf("telemetry: trace exporter: %w", err)
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithBatcher(spanExp),
	)

	metricExp, err := stdoutmetric.New(stdoutmetric.WithWriter(opts.Writer))
	if err != nil {
		_ = tp.Shutdown(ctx)
		return nil, fmt.Errorf("telemetry: metric exporter: %w", err)
	}
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExp, sdkmetric.WithInterval(opts.Interval))),
	)

	otel.SetTracerProvider(tp)
	otel.SetMeterProvider(mp)

	return func(ctx context.Context) error {
		return errors.Join(tp.Shutdown(ctx), mp.Shutdown(ctx))
	}, nil
}
