package report

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/FerroO2000/ering/internal"
	"github.com/FerroO2000/ering/internal/bench"
	qdb "github.com/questdb/go-questdb-client/v3"
)

var _ Sink = (*QuestDBSink)(nil)

// lineSenderPool is implemented by *qdb.LineSenderPool.
type lineSenderPool interface {
	Sender(ctx context.Context) (qdb.LineSender, error)
	Close(ctx context.Context) error
}

// QuestDBSink inserts the results into a QuestDB table over ILP/HTTP.
// The kind and the run id are symbols, the row timestamp is the start
// of the timed phase.
type QuestDBSink struct {
	tel *internal.Telemetry

	table      string
	senderPool lineSenderPool

	insertedRows atomic.Int64
}

// NewQuestDBSink returns a new QuestDB sink connected to the given address.
func NewQuestDBSink(address, table string) (*QuestDBSink, error) {
	senderPool, err := qdb.PoolFromOptions(
		qdb.WithAddress(address),
		qdb.WithHttp(),
		qdb.WithRetryTimeout(time.Second),
	)
	if err != nil {
		return nil, err
	}

	return newQuestDBSink(senderPool, table), nil
}

func newQuestDBSink(senderPool lineSenderPool, table string) *QuestDBSink {
	qs := &QuestDBSink{
		tel: internal.NewTelemetry("report", "questdb"),

		table:      table,
		senderPool: senderPool,
	}

	qs.tel.NewCounter("inserted_rows", func() int64 { return qs.insertedRows.Load() })

	return qs
}

// Name returns the name of the sink.
func (*QuestDBSink) Name() string {
	return "questdb"
}

// Write inserts the result and flushes it.
func (qs *QuestDBSink) Write(ctx context.Context, res *bench.Result) (err error) {
	ctx, span := qs.tel.NewTrace(ctx, "insert QuestDB row")
	defer span.End()

	sender, err := qs.senderPool.Sender(ctx)
	if err != nil {
		return err
	}
	defer func() {
		// Give the sender back to the pool
		if closeErr := sender.Close(ctx); err == nil {
			err = closeErr
		}
	}()

	err = sender.Table(qs.table).
		Symbol("kind", res.Kind.String()).
		Symbol("run_id", res.RunID.String()).
		Int64Column("capacity", int64(res.Capacity)).
		Int64Column("round", int64(res.Round)).
		Int64Column("ops", int64(res.Ops)).
		Int64Column("elapsed_ns", res.Elapsed.Nanoseconds()).
		Float64Column("ops_per_sec", res.OpsPerSec()).
		Float64Column("ns_per_op", res.NsPerOp()).
		Int64Column("push_retries", int64(res.PushRetries)).
		Int64Column("pop_retries", int64(res.PopRetries)).
		Int64Column("mismatches", int64(res.Mismatches)).
		At(ctx, res.Started)
	if err != nil {
		return err
	}

	if err := sender.Flush(ctx); err != nil {
		return err
	}

	qs.insertedRows.Add(1)

	return nil
}

// Close closes the sender pool.
func (qs *QuestDBSink) Close(ctx context.Context) error {
	return qs.senderPool.Close(ctx)
}
