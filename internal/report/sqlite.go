package report

import (
	"context"
	"database/sql"
	"time"

	"github.com/FerroO2000/ering/internal"
	"github.com/FerroO2000/ering/internal/bench"
	"github.com/FerroO2000/ering/internal/rb"

	_ "github.com/mattn/go-sqlite3"
)

var _ Sink = (*SQLiteSink)(nil)

const (
	sqliteCreateTable = `CREATE TABLE IF NOT EXISTS bench_results (
		run_id       TEXT    NOT NULL,
		kind         TEXT    NOT NULL,
		round        INTEGER NOT NULL,
		capacity     INTEGER NOT NULL,
		ops          INTEGER NOT NULL,
		started      INTEGER NOT NULL,
		elapsed_ns   INTEGER NOT NULL,
		ops_per_sec  REAL    NOT NULL,
		push_retries INTEGER NOT NULL,
		pop_retries  INTEGER NOT NULL,
		mismatches   INTEGER NOT NULL,
		PRIMARY KEY (run_id, kind, round)
	)`

	sqliteInsert = `INSERT OR REPLACE INTO bench_results (
		run_id, kind, round, capacity, ops, started, elapsed_ns,
		ops_per_sec, push_retries, pop_retries, mismatches
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	sqliteSelectHistory = `SELECT
		run_id, kind, round, capacity, ops, started, elapsed_ns,
		push_retries, pop_retries, mismatches
	FROM bench_results WHERE kind = ? ORDER BY started DESC LIMIT ?`
)

// SQLiteSink keeps the history of the results in a SQLite database.
type SQLiteSink struct {
	tel *internal.Telemetry

	db *sql.DB
}

// NewSQLiteSink opens the database at path and creates the results table.
func NewSQLiteSink(ctx context.Context, path string) (*SQLiteSink, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.ExecContext(ctx, sqliteCreateTable); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteSink{
		tel: internal.NewTelemetry("report", "sqlite"),

		db: db,
	}, nil
}

// Name returns the name of the sink.
func (*SQLiteSink) Name() string {
	return "sqlite"
}

// Write stores the result. A result with the same run, kind and round replaces the previous one.
func (ss *SQLiteSink) Write(ctx context.Context, res *bench.Result) error {
	ctx, span := ss.tel.NewTrace(ctx, "insert SQLite row")
	defer span.End()

	_, err := ss.db.ExecContext(ctx, sqliteInsert,
		res.RunID, res.Kind.String(), res.Round, res.Capacity, res.Ops,
		res.Started.UnixNano(), res.Elapsed.Nanoseconds(), res.OpsPerSec(),
		int64(res.PushRetries), int64(res.PopRetries), int64(res.Mismatches),
	)
	return err
}

// History returns the latest results of the given kind, the most recent first.
func (ss *SQLiteSink) History(ctx context.Context, kind rb.BufferKind, limit int) ([]*bench.Result, error) {
	rows, err := ss.db.QueryContext(ctx, sqliteSelectHistory, kind.String(), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := []*bench.Result{}
	for rows.Next() {
		var (
			res       bench.Result
			kindName  string
			started   int64
			elapsedNs int64
		)

		if err := rows.Scan(
			&res.RunID, &kindName, &res.Round, &res.Capacity, &res.Ops, &started, &elapsedNs,
			&res.PushRetries, &res.PopRetries, &res.Mismatches,
		); err != nil {
			return nil, err
		}

		if res.Kind, err = rb.ParseBufferKind(kindName); err != nil {
			return nil, err
		}
		res.Started = time.Unix(0, started)
		res.Elapsed = time.Duration(elapsedNs)

		results = append(results, &res)
	}

	return results, rows.Err()
}

// Close closes the database.
func (ss *SQLiteSink) Close(_ context.Context) error {
	return ss.db.Close()
}
