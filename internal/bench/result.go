package bench

import (
	"errors"
	"time"

	"github.com/FerroO2000/ering/internal/rb"
	"github.com/google/uuid"
)

// ErrVerification is returned when the consumer receives values
// out of order or different from the ones pushed by the producer.
var ErrVerification = errors.New("bench: verification failed")

// Result is the outcome of the benchmark of a single buffer kind.
type Result struct {
	// RunID identifies the run, all the kinds benchmarked by
	// the same call to Run share it.
	RunID uuid.UUID `json:"run_id"`
	// Kind is the benchmarked buffer kind.
	Kind rb.BufferKind `json:"kind"`
	// Capacity is the number of usable slots of the buffer.
	Capacity uint32 `json:"capacity"`
	// Round is the index of the round, starting from 0.
	Round int `json:"round"`

	// Ops is the number of items moved during the timed phase.
	Ops int `json:"ops"`
	// Started is the beginning of the timed phase.
	Started time.Time `json:"started"`
	// Elapsed is the duration of the timed phase.
	Elapsed time.Duration `json:"elapsed_ns"`

	PushRetries uint64 `json:"push_retries"`
	PopRetries  uint64 `json:"pop_retries"`
	Mismatches  uint64 `json:"mismatches"`
}

// OpsPerSec returns the throughput of the timed phase.
func (r *Result) OpsPerSec() float64 {
	secs := r.Elapsed.Seconds()
	if secs <= 0 {
		return 0
	}
	return float64(r.Ops) / secs
}

// NsPerOp returns the average time spent per item.
func (r *Result) NsPerOp() float64 {
	if r.Ops == 0 {
		return 0
	}
	return float64(r.Elapsed.Nanoseconds()) / float64(r.Ops)
}
