// Package report writes the benchmark results to the configured sinks.
package report

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/FerroO2000/ering/internal"
	"github.com/FerroO2000/ering/internal/bench"
	"github.com/FerroO2000/ering/internal/config"
	"github.com/cenkalti/backoff/v5"
)

// Sink is a destination of the benchmark results.
type Sink interface {
	// Name returns the name of the sink.
	Name() string
	// Write writes a result.
	Write(ctx context.Context, res *bench.Result) error
	// Close releases the resources of the sink.
	Close(ctx context.Context) error
}

//////////////
//  FANOUT  //
//////////////

// Fanout writes every result to all its sinks. Each write is retried
// with an exponential backoff.
type Fanout struct {
	tel *internal.Telemetry

	sinks []Sink

	maxTries   uint
	maxElapsed time.Duration
	newBackOff func() backoff.BackOff
}

// NewFanout returns a fanout over the given sinks.
func NewFanout(cfg *config.Sinks, sinks ...Sink) *Fanout {
	return &Fanout{
		tel: internal.NewTelemetry("report", "fanout"),

		sinks: sinks,

		maxTries:   uint(cfg.RetryMaxTries),
		maxElapsed: cfg.RetryMaxElapsed,
		newBackOff: func() backoff.BackOff { return backoff.NewExponentialBackOff() },
	}
}

// Sinks returns the names of the sinks.
func (f *Fanout) Sinks() []string {
	names := make([]string, 0, len(f.sinks))
	for _, sink := range f.sinks {
		names = append(names, sink.Name())
	}
	return names
}

// Write writes the result to every sink. A failing sink does not stop
// the others, the errors of all the sinks are joined.
func (f *Fanout) Write(ctx context.Context, res *bench.Result) error {
	errs := []error{}

	for _, sink := range f.sinks {
		if err := f.writeSink(ctx, sink, res); err != nil {
			f.tel.LogError("failed to write result", err, "sink", sink.Name())
			errs = append(errs, fmt.Errorf("%s: %w", sink.Name(), err))
		}
	}

	return errors.Join(errs...)
}

func (f *Fanout) writeSink(ctx context.Context, sink Sink, res *bench.Result) error {
	_, err := backoff.Retry(ctx,
		func() (struct{}, error) {
			return struct{}{}, sink.Write(ctx, res)
		},
		backoff.WithBackOff(f.newBackOff()),
		backoff.WithMaxTries(f.maxTries),
		backoff.WithMaxElapsedTime(f.maxElapsed),
		backoff.WithNotify(func(err error, next time.Duration) {
			f.tel.LogWarn("retrying write", "sink", sink.Name(), "error", err, "next", next)
		}),
	)
	return err
}

// Close closes every sink and joins their errors.
func (f *Fanout) Close(ctx context.Context) error {
	errs := []error{}

	for _, sink := range f.sinks {
		if err := sink.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", sink.Name(), err))
		}
	}

	return errors.Join(errs...)
}

// Open creates the sinks enabled by the configuration. The log sink is always present.
// If a sink cannot be opened the already opened ones are closed.
func Open(ctx context.Context, cfg *config.Sinks) (*Fanout, error) {
	sinks := []Sink{NewLogSink()}

	closeOpened := func() {
		for _, sink := range sinks {
			_ = sink.Close(ctx)
		}
	}

	if cfg.Metrics {
		sinks = append(sinks, NewMetricsSink())
	}

	if cfg.QuestDBAddress != "" {
		sink, err := NewQuestDBSink(cfg.QuestDBAddress, cfg.QuestDBTable)
		if err != nil {
			closeOpened()
			return nil, fmt.Errorf("open questdb sink: %w", err)
		}
		sinks = append(sinks, sink)
	}

	if len(cfg.KafkaBrokers) > 0 {
		sinks = append(sinks, NewKafkaSink(cfg.KafkaBrokers, cfg.KafkaTopic))
	}

	if cfg.SQLitePath != "" {
		sink, err := NewSQLiteSink(ctx, cfg.SQLitePath)
		if err != nil {
			closeOpened()
			return nil, fmt.Errorf("open sqlite sink: %w", err)
		}
		sinks = append(sinks, sink)
	}

	return NewFanout(cfg, sinks...), nil
}
