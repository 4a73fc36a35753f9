// Package bench measures the throughput of the ring buffers with
// a producer and a consumer running on distinct CPUs.
package bench

import (
	"context"
	"fmt"
	"iter"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/FerroO2000/ering/internal"
	"github.com/FerroO2000/ering/internal/affinity"
	"github.com/FerroO2000/ering/internal/config"
	"github.com/FerroO2000/ering/internal/rb"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"
)

// SequenceStart is the first value pushed by the producer.
// Every following value is incremented by one.
const SequenceStart = 10_000

// Number of failed attempts between two context checks.
const spinCheckInterval = 1 << 10

///////////////
//  METRICS  //
///////////////

type runnerMetrics struct {
	tel *internal.Telemetry

	completedRuns        atomic.Int64
	verificationFailures atomic.Int64

	throughput *internal.Histogram
	nsPerOp    *internal.Histogram
}

func newRunnerMetrics(tel *internal.Telemetry) *runnerMetrics {
	return &runnerMetrics{
		tel: tel,
	}
}

func (rm *runnerMetrics) init() {
	rm.tel.NewCounter("completed_runs", func() int64 { return rm.completedRuns.Load() })
	rm.tel.NewCounter("verification_failures", func() int64 { return rm.verificationFailures.Load() })

	rm.throughput = rm.tel.NewHistogram("throughput", "{op}/s")
	rm.nsPerOp = rm.tel.NewHistogram("op_duration", "ns")
}

func (rm *runnerMetrics) record(ctx context.Context, res *Result) {
	rm.completedRuns.Add(1)

	kindAttr := attribute.String("kind", res.Kind.String())
	rm.throughput.Record(ctx, res.OpsPerSec(), kindAttr)
	rm.nsPerOp.Record(ctx, res.NsPerOp(), kindAttr)
}

//////////////
//  RUNNER  //
//////////////

// Runner runs the throughput benchmark of the configured buffer kinds.
type Runner struct {
	tel *internal.Telemetry

	cfg *config.Bench

	metrics *runnerMetrics
}

// NewRunner returns a new runner with the given configuration.
func NewRunner(cfg *config.Bench) *Runner {
	tel := internal.NewTelemetry("bench", "runner")

	return &Runner{
		tel: tel,

		cfg: cfg,

		metrics: newRunnerMetrics(tel),
	}
}

// Init validates the configuration and registers the metrics.
func (r *Runner) Init() {
	r.tel.LogInfo("initializing")

	configValidator := config.NewValidator(r.tel)
	configValidator.Validate(r.cfg)

	r.metrics.init()
}

// Config returns the configuration of the runner.
func (r *Runner) Config() *config.Bench {
	return r.cfg
}

// Run benchmarks every configured kind for the configured number of rounds.
// The results are yielded as soon as they are available. A run that fails
// yields its error; a verification failure also yields the partial result.
// The iteration stops at the first error that is not a verification failure.
func (r *Runner) Run(ctx context.Context) iter.Seq2[*Result, error] {
	return func(yield func(*Result, error) bool) {
		runID := uuid.New()

		r.tel.LogInfo("running", "run_id", runID,
			"kinds", len(r.cfg.Kinds), "rounds", r.cfg.Rounds)

		for round := range r.cfg.Rounds {
			for _, kind := range r.cfg.Kinds {
				res, err := r.runKind(ctx, runID, kind, round)
				if !yield(res, err) {
					return
				}

				if err != nil && res == nil {
					return
				}
			}
		}
	}
}

func (r *Runner) runKind(ctx context.Context, runID uuid.UUID, kind rb.BufferKind, round int) (*Result, error) {
	ctx, span := r.tel.NewTrace(ctx, "run buffer kind")
	defer span.End()

	span.SetAttributes(
		attribute.String("kind", kind.String()),
		attribute.Int("round", round),
	)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	buf, err := rb.NewBuffer[uintptr](r.cfg.Capacity, kind)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	defer buf.Release()

	res := &Result{
		RunID:    runID,
		Kind:     kind,
		Capacity: buf.Cap(),
		Round:    round,
		Ops:      r.cfg.TestSize,
	}

	var trigger atomic.Bool

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return r.produce(gCtx, buf, &trigger, res)
	})

	g.Go(func() error {
		return r.consume(gCtx, buf, &trigger, res)
	})

	if err := g.Wait(); err != nil {
		span.SetStatus(codes.Error, err.Error())
		r.tel.LogError("failed to run buffer kind", err, "kind", kind, "round", round)
		return nil, err
	}

	if res.Mismatches > 0 {
		r.metrics.verificationFailures.Add(1)

		err := fmt.Errorf("%w: %d mismatches for kind %s", ErrVerification, res.Mismatches, kind)
		span.SetStatus(codes.Error, err.Error())
		return res, err
	}

	r.metrics.record(ctx, res)

	return res, nil
}

func (r *Runner) produce(ctx context.Context, buf rb.Buffer[uintptr], trigger *atomic.Bool, res *Result) error {
	release, err := affinity.PinIfEnabled(r.cfg.Pin, r.cfg.ProducerCPU)
	if err != nil {
		return fmt.Errorf("pin producer: %w", err)
	}
	defer release()

	warmRetries, err := pushSequence(ctx, buf, SequenceStart, r.cfg.WarmSize)
	if err != nil {
		return err
	}

	if err := waitTrigger(ctx, trigger); err != nil {
		return err
	}

	start := time.Now()
	testRetries, err := pushSequence(ctx, buf, SequenceStart+uintptr(r.cfg.WarmSize), r.cfg.TestSize)
	elapsed := time.Since(start)
	if err != nil {
		return err
	}

	res.Started = start
	res.Elapsed = elapsed
	res.PushRetries = warmRetries + testRetries

	return nil
}

func (r *Runner) consume(ctx context.Context, buf rb.Buffer[uintptr], trigger *atomic.Bool, res *Result) error {
	release, err := affinity.PinIfEnabled(r.cfg.Pin, r.cfg.ConsumerCPU)
	if err != nil {
		return fmt.Errorf("pin consumer: %w", err)
	}
	defer release()

	warm, err := popSequence(ctx, buf, SequenceStart, r.cfg.WarmSize, r.cfg.Verify)
	if err != nil {
		return err
	}

	trigger.Store(true)

	test, err := popSequence(ctx, buf, SequenceStart+uintptr(r.cfg.WarmSize), r.cfg.TestSize, r.cfg.Verify)
	if err != nil {
		return err
	}

	res.PopRetries = warm.retries + test.retries
	res.Mismatches = warm.mismatches + test.mismatches

	return nil
}

// spin is called after a failed attempt. Every spinCheckInterval attempts
// it yields the processor and reports the cancellation of the context.
func spin(ctx context.Context, attempts uint64) error {
	if attempts%spinCheckInterval != 0 {
		return nil
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	runtime.Gosched()

	return nil
}

func waitTrigger(ctx context.Context, trigger *atomic.Bool) error {
	attempts := uint64(0)
	for !trigger.Load() {
		attempts++
		if err := spin(ctx, attempts); err != nil {
			return err
		}
	}
	return nil
}

func pushSequence(ctx context.Context, buf rb.Buffer[uintptr], first uintptr, n int) (uint64, error) {
	retries := uint64(0)

	for i := range n {
		item := first + uintptr(i)

		for !buf.Push(item) {
			retries++
			if err := spin(ctx, retries); err != nil {
				return retries, err
			}
		}
	}

	return retries, nil
}

type popStats struct {
	retries    uint64
	mismatches uint64
}

func popSequence(ctx context.Context, buf rb.Buffer[uintptr], first uintptr, n int, verify bool) (popStats, error) {
	stats := popStats{}

	for i := range n {
		item, ok := buf.Pop()
		for !ok {
			stats.retries++
			if err := spin(ctx, stats.retries); err != nil {
				return stats, err
			}
			item, ok = buf.Pop()
		}

		if verify && item != first+uintptr(i) {
			stats.mismatches++
		}
	}

	return stats, nil
}
