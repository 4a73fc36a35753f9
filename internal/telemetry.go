// Package internal contains the utilities shared by the components of the library.
package internal

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationPrefix = "github.com/FerroO2000/ering/"

// Telemetry bundles the logger, the tracer and the meter of a component.
// It uses the global logger and OpenTelemetry providers, so it can be created
// before the providers are set.
type Telemetry struct {
	kind string
	name string

	logger *slog.Logger
	tracer trace.Tracer
	meter  metric.Meter
}

// NewTelemetry returns the telemetry of the component identified by kind and name.
func NewTelemetry(kind, name string) *Telemetry {
	scope := instrumentationPrefix + kind

	return &Telemetry{
		kind: kind,
		name: name,

		logger: slog.Default().With("kind", kind, "name", name),
		tracer: otel.Tracer(scope),
		meter:  otel.Meter(scope),
	}
}

func (t *Telemetry) metricName(name string) string {
	return t.kind + "_" + t.name + "_" + name
}

// LogInfo logs an info message.
func (t *Telemetry) LogInfo(msg string, args ...any) {
	t.logger.Info(msg, args...)
}

// LogWarn logs a warning message.
func (t *Telemetry) LogWarn(msg string, args ...any) {
	t.logger.Warn(msg, args...)
}

// LogError logs an error message with the given error.
func (t *Telemetry) LogError(msg string, err error, args ...any) {
	t.logger.Error(msg, append([]any{"error", err}, args...)...)
}

// NewTrace starts a new span.
func (t *Telemetry) NewTrace(ctx context.Context, spanName string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, spanName, trace.WithAttributes(
		attribute.String("component.kind", t.kind),
		attribute.String("component.name", t.name),
	))
}

// InjectTrace writes the span context of ctx into the carrier.
func (t *Telemetry) InjectTrace(ctx context.Context, carrier propagation.TextMapCarrier) {
	otel.GetTextMapPropagator().Inject(ctx, carrier)
}

// NewCounter registers an observable counter whose value is read from fn.
func (t *Telemetry) NewCounter(name string, fn func() int64) {
	_, err := t.meter.Int64ObservableCounter(t.metricName(name),
		metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
			o.Observe(fn())
			return nil
		}),
	)

	if err != nil {
		t.LogError("failed to create counter", err, "counter", name)
	}
}

// NewGauge registers an observable gauge whose value is read from fn.
func (t *Telemetry) NewGauge(name string, fn func() float64) {
	_, err := t.meter.Float64ObservableGauge(t.metricName(name),
		metric.WithFloat64Callback(func(_ context.Context, o metric.Float64Observer) error {
			o.Observe(fn())
			return nil
		}),
	)

	if err != nil {
		t.LogError("failed to create gauge", err, "gauge", name)
	}
}

// Histogram records the distribution of a value.
type Histogram struct {
	hist metric.Float64Histogram
}

// Record records a value with the given attributes.
func (h *Histogram) Record(ctx context.Context, value float64, attrs ...attribute.KeyValue) {
	if h.hist == nil {
		return
	}
	h.hist.Record(ctx, value, metric.WithAttributes(attrs...))
}

// NewHistogram returns a new histogram with the given unit.
// On failure the returned histogram drops every value.
func (t *Telemetry) NewHistogram(name, unit string) *Histogram {
	hist, err := t.meter.Float64Histogram(t.metricName(name), metric.WithUnit(unit))
	if err != nil {
		t.LogError("failed to create histogram", err, "histogram", name)
		return &Histogram{}
	}
	return &Histogram{hist: hist}
}
