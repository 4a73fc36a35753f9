package report

import (
	"context"
	"math"
	"sync/atomic"

	"github.com/FerroO2000/ering/internal"
	"github.com/FerroO2000/ering/internal/bench"
	"go.opentelemetry.io/otel/attribute"
)

var _ Sink = (*MetricsSink)(nil)

// MetricsSink records the results as OpenTelemetry metrics.
type MetricsSink struct {
	tel *internal.Telemetry

	writtenResults atomic.Int64
	lastOpsPerSec  atomic.Uint64

	opsPerSec  *internal.Histogram
	mismatches *internal.Histogram
}

// NewMetricsSink returns a new metrics sink and registers its instruments.
func NewMetricsSink() *MetricsSink {
	ms := &MetricsSink{
		tel: internal.NewTelemetry("report", "metrics"),
	}

	ms.tel.NewCounter("written_results", func() int64 { return ms.writtenResults.Load() })
	ms.tel.NewGauge("last_ops_per_sec", func() float64 {
		return math.Float64frombits(ms.lastOpsPerSec.Load())
	})

	ms.opsPerSec = ms.tel.NewHistogram("ops_per_sec", "{op}/s")
	ms.mismatches = ms.tel.NewHistogram("mismatches", "{item}")

	return ms
}

// Name returns the name of the sink.
func (*MetricsSink) Name() string {
	return "metrics"
}

// Write records the result.
func (ms *MetricsSink) Write(ctx context.Context, res *bench.Result) error {
	opsPerSec := res.OpsPerSec()

	attrs := []attribute.KeyValue{
		attribute.String("kind", res.Kind.String()),
		attribute.Int64("capacity", int64(res.Capacity)),
	}

	ms.opsPerSec.Record(ctx, opsPerSec, attrs...)
	ms.mismatches.Record(ctx, float64(res.Mismatches), attrs...)

	ms.lastOpsPerSec.Store(math.Float64bits(opsPerSec))
	ms.writtenResults.Add(1)

	return nil
}

// Close does nothing, the instruments are owned by the meter provider.
func (*MetricsSink) Close(_ context.Context) error {
	return nil
}
