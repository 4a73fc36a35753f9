package bench

import (
	"context"
	"testing"
	"time"

	"github.com/FerroO2000/ering/internal/config"
	"github.com/FerroO2000/ering/internal/rb"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestConfig() *config.Bench {
	cfg := config.NewBench()

	cfg.Capacity = 7
	cfg.TestSize = 50_000
	cfg.WarmSize = 1_000
	cfg.Pin = false
	cfg.Verify = true

	return cfg
}

func Test_Runner_Run(t *testing.T) {
	assert := assert.New(t)

	cfg := newTestConfig()
	cfg.Rounds = 2

	runner := NewRunner(cfg)
	runner.Init()

	results := []*Result{}
	for res, err := range runner.Run(t.Context()) {
		require.NoError(t, err)
		results = append(results, res)
	}

	kinds := rb.BufferKinds()
	require.Len(t, results, len(kinds)*cfg.Rounds)

	runID := results[0].RunID
	assert.NotEqual(uuid.Nil, runID)

	for idx, res := range results {
		assert.Equal(runID, res.RunID)
		assert.Equal(kinds[idx%len(kinds)], res.Kind)
		assert.Equal(idx/len(kinds), res.Round)
		assert.Equal(cfg.TestSize, res.Ops)
		assert.Zero(res.Mismatches)
		assert.Positive(res.Elapsed)
		assert.False(res.Started.IsZero())
		assert.Positive(res.OpsPerSec())

		if res.Kind.ExactCapacity() {
			assert.Equal(uint32(7), res.Capacity)
		} else {
			assert.Equal(uint32(8), res.Capacity)
		}
	}
}

func Test_Runner_RunIDPerRun(t *testing.T) {
	assert := assert.New(t)

	cfg := newTestConfig()
	cfg.Kinds = []rb.BufferKind{rb.BufferKindMasked}
	cfg.TestSize = 1_000

	runner := NewRunner(cfg)
	runner.Init()

	ids := []uuid.UUID{}
	for range 2 {
		for res, err := range runner.Run(t.Context()) {
			assert.NoError(err)
			ids = append(ids, res.RunID)
		}
	}

	require.Len(t, ids, 2)
	assert.NotEqual(ids[0], ids[1])
}

func Test_Runner_Cancelled(t *testing.T) {
	assert := assert.New(t)

	cfg := newTestConfig()
	cfg.TestSize = 1 << 30

	runner := NewRunner(cfg)
	runner.Init()

	ctx, cancel := context.WithTimeout(t.Context(), 50*time.Millisecond)
	defer cancel()

	count := 0
	for res, err := range runner.Run(ctx) {
		count++
		assert.Nil(res)
		assert.ErrorIs(err, context.DeadlineExceeded)
	}

	// the iteration stops at the first failed kind
	assert.Equal(1, count)
}

func Test_Runner_InvalidConfig(t *testing.T) {
	assert := assert.New(t)

	cfg := newTestConfig()
	cfg.Capacity = 0
	cfg.Rounds = 0
	cfg.Kinds = []rb.BufferKind{rb.BufferKindAtomic}
	cfg.TestSize = 100

	runner := NewRunner(cfg)
	runner.Init()

	// the validation falls back to the defaults
	assert.Equal(uint32(config.DefaultBenchCapacity), runner.Config().Capacity)
	assert.Equal(config.DefaultBenchRounds, runner.Config().Rounds)

	for res, err := range runner.Run(t.Context()) {
		assert.NoError(err)
		assert.Equal(uint32(config.DefaultBenchCapacity), res.Capacity)
	}
}

func Test_popSequence_Mismatches(t *testing.T) {
	assert := assert.New(t)

	buf, err := rb.NewBuffer[uintptr](8, rb.BufferKindMasked)
	require.NoError(t, err)

	for _, item := range []uintptr{SequenceStart, SequenceStart + 2, SequenceStart + 1, SequenceStart + 3} {
		assert.True(buf.Push(item))
	}

	stats, err := popSequence(t.Context(), buf, SequenceStart, 4, true)
	assert.NoError(err)
	assert.Equal(uint64(2), stats.mismatches)

	for _, item := range []uintptr{1, 2} {
		assert.True(buf.Push(item))
	}

	stats, err = popSequence(t.Context(), buf, SequenceStart, 2, false)
	assert.NoError(err)
	assert.Zero(stats.mismatches)
}

func Test_Result_Rates(t *testing.T) {
	assert := assert.New(t)

	res := &Result{Ops: 1_000, Elapsed: time.Millisecond}
	assert.InDelta(1_000_000.0, res.OpsPerSec(), 1e-6)
	assert.InDelta(1_000.0, res.NsPerOp(), 1e-6)

	empty := &Result{}
	assert.Zero(empty.OpsPerSec())
	assert.Zero(empty.NsPerOp())
}
