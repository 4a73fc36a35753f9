package report

import (
	"context"

	"github.com/FerroO2000/ering/internal"
	"github.com/FerroO2000/ering/internal/bench"
)

var _ Sink = (*LogSink)(nil)

// LogSink logs the results.
type LogSink struct {
	tel *internal.Telemetry
}

// NewLogSink returns a new log sink.
func NewLogSink() *LogSink {
	return &LogSink{
		tel: internal.NewTelemetry("report", "log"),
	}
}

// Name returns the name of the sink.
func (*LogSink) Name() string {
	return "log"
}

// Write logs the result.
func (ls *LogSink) Write(_ context.Context, res *bench.Result) error {
	ls.tel.LogInfo("benchmark result",
		"run_id", res.RunID.String(),
		"kind", res.Kind.String(),
		"capacity", res.Capacity,
		"round", res.Round,
		"ops", res.Ops,
		"elapsed", res.Elapsed,
		"ops_per_sec", res.OpsPerSec(),
		"ns_per_op", res.NsPerOp(),
		"push_retries", res.PushRetries,
		"pop_retries", res.PopRetries,
		"mismatches", res.Mismatches,
	)
	return nil
}

// Close does nothing.
func (*LogSink) Close(_ context.Context) error {
	return nil
}
