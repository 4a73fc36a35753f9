package rb

import (
	"fmt"
	"math"
	"runtime"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fastrand"
)

func newTestBuffer[T any](t testing.TB, capacity uint32, kind BufferKind) Buffer[T] {
	t.Helper()

	buf, err := NewBuffer[T](capacity, kind)
	require.NoError(t, err)
	t.Cleanup(buf.Release)

	return buf
}

func Test_NormalizeCapacity(t *testing.T) {
	assert := assert.New(t)

	suite := []struct {
		requested uint32
		expected  uint32
	}{
		{1, 1},
		{2, 2},
		{3, 4},
		{5, 8},
		{8, 8},
		{1000, 1024},
		{1024, 1024},
		{1025, 2048},
		{1<<31 - 1, 1 << 31},
		{1 << 31, 1 << 31},
	}

	for _, tCase := range suite {
		capacity, mask, err := NormalizeCapacity(tCase.requested)
		assert.NoError(err)
		assert.Equal(tCase.expected, capacity, "requested %d", tCase.requested)
		assert.Equal(tCase.expected-1, mask)
	}

	for requested := uint32(1); requested <= 4096; requested++ {
		capacity, mask, err := NormalizeCapacity(requested)
		assert.NoError(err)
		assert.GreaterOrEqual(capacity, requested)
		assert.Less(capacity/2, requested)
		assert.Zero(capacity & mask)
	}

	_, _, err := NormalizeCapacity(0)
	assert.ErrorIs(err, ErrZeroCapacity)

	_, _, err = NormalizeCapacity(1<<31 + 1)
	assert.ErrorIs(err, ErrCapacityTooLarge)

	_, _, err = NormalizeCapacity(math.MaxUint32)
	assert.ErrorIs(err, ErrCapacityTooLarge)
}

func Test_NewBuffer_Errors(t *testing.T) {
	assert := assert.New(t)

	for _, kind := range BufferKinds() {
		buf, err := NewBuffer[int](0, kind)
		assert.ErrorIs(err, ErrZeroCapacity, kind.String())
		assert.Nil(buf, kind.String())
	}

	buf, err := NewBuffer[int](8, BufferKind(42))
	assert.ErrorIs(err, ErrUnknownKind)
	assert.Nil(buf)

	buf, err = NewBuffer[int](1<<31+1, BufferKindMasked)
	assert.ErrorIs(err, ErrCapacityTooLarge)
	assert.Nil(buf)
}

func Test_NewBuffer_AllocationFailure(t *testing.T) {
	assert := assert.New(t)

	// 2^31 slots of 1 MiB cannot be allocated
	for _, kind := range BufferKinds() {
		buf, err := NewBuffer[[1 << 20]byte](MaxCapacity, kind)
		assert.ErrorIs(err, ErrAllocation, kind.String())
		assert.Nil(buf, kind.String())
	}

	spsc, err := NewSPSC[[1 << 20]byte](4)
	require.NoError(t, err)

	// a failed init leaves the buffer released
	assert.ErrorIs(spsc.Init(MaxCapacity), ErrAllocation)
	assert.Zero(spsc.Cap())
	assert.Zero(spsc.Len())
	assert.False(spsc.Push([1 << 20]byte{}))
	_, ok := spsc.Pop()
	assert.False(ok)
}

func Test_ParseBufferKind(t *testing.T) {
	assert := assert.New(t)

	for _, kind := range BufferKinds() {
		parsed, err := ParseBufferKind(kind.String())
		assert.NoError(err)
		assert.Equal(kind, parsed)
	}

	parsed, err := ParseBufferKind("MASKED")
	assert.NoError(err)
	assert.Equal(BufferKindMasked, parsed)

	_, err = ParseBufferKind("mpmc")
	assert.ErrorIs(err, ErrUnknownKind)

	var kind BufferKind
	assert.NoError(kind.UnmarshalText([]byte("padded")))
	assert.Equal(BufferKindPadded, kind)

	text, err := BufferKindCached.MarshalText()
	assert.NoError(err)
	assert.Equal("cached", string(text))

	_, err = BufferKind(42).MarshalText()
	assert.ErrorIs(err, ErrUnknownKind)
	assert.Equal("unknown", BufferKind(42).String())
}

func Test_Buffer_Init(t *testing.T) {
	for _, kind := range BufferKinds() {
		t.Run(kind.String(), func(t *testing.T) {
			assert := assert.New(t)

			buf := newTestBuffer[*int](t, 1024, kind)

			assert.Equal(uint32(1024), buf.Cap())
			assert.Zero(buf.Len())

			val, ok := buf.Pop()
			assert.False(ok)
			assert.Nil(val)
		})
	}
}

// The exact capacity kinds hold exactly 3 items when asked for 3.
func Test_Buffer_ExactCapacity(t *testing.T) {
	for _, kind := range BufferKinds() {
		if !kind.ExactCapacity() {
			continue
		}

		t.Run(kind.String(), func(t *testing.T) {
			assert := assert.New(t)

			values := []int{1, 2, 3}
			buf := newTestBuffer[*int](t, 3, kind)
			assert.Equal(uint32(3), buf.Cap())

			for idx := range values {
				assert.True(buf.Push(&values[idx]))
				assert.Equal(uint32(idx+1), buf.Len())
			}

			// Full, the push must not change anything
			assert.False(buf.Push(&values[0]))
			assert.Equal(uint32(3), buf.Len())

			for idx, expected := range values {
				val, ok := buf.Pop()
				assert.True(ok)
				assert.Equal(expected, *val)
				assert.Equal(uint32(len(values)-idx-1), buf.Len())
			}

			_, ok := buf.Pop()
			assert.False(ok)
			assert.Zero(buf.Len())
		})
	}
}

// The masked kind rounds 3 up to 4 usable slots.
func Test_SPSC_NormalizedCapacity(t *testing.T) {
	assert := assert.New(t)

	values := []int{1, 2, 3, 4}
	buf, err := NewSPSC[*int](3)
	assert.NoError(err)
	assert.Equal(uint32(4), buf.Cap())

	for idx := range values {
		assert.True(buf.Push(&values[idx]))
	}
	assert.False(buf.Push(&values[0]))
	assert.Equal(uint32(4), buf.Len())

	for _, expected := range values {
		val, ok := buf.Pop()
		assert.True(ok)
		assert.Equal(expected, *val)
	}

	_, ok := buf.Pop()
	assert.False(ok)
}

func Test_Buffer_PushPopCycle(t *testing.T) {
	for _, kind := range BufferKinds() {
		t.Run(kind.String(), func(t *testing.T) {
			assert := assert.New(t)

			values := []int{1, 2, 3}
			buf := newTestBuffer[*int](t, 3, kind)

			for i := range 10 {
				pushed := &values[i%3]
				assert.True(buf.Push(pushed))

				popped, ok := buf.Pop()
				assert.True(ok)
				assert.Same(pushed, popped)
				assert.Zero(buf.Len())
			}
		})
	}
}

func Test_Buffer_FIFO(t *testing.T) {
	const capacity = 512

	for _, kind := range BufferKinds() {
		t.Run(kind.String(), func(t *testing.T) {
			assert := assert.New(t)

			buf := newTestBuffer[int](t, capacity, kind)

			// Several rounds so the cursors wrap around the storage
			for round := range 5 {
				base := round * capacity
				for val := range capacity {
					assert.True(buf.Push(base + val))
				}
				assert.False(buf.Push(-1))

				for val := range capacity {
					item, ok := buf.Pop()
					assert.True(ok)
					assert.Equal(base+val, item)
				}
				_, ok := buf.Pop()
				assert.False(ok)
			}
		})
	}
}

// Random push/pop sequences compared against a slice based model.
func Test_Buffer_RandomOps(t *testing.T) {
	const ops = 20_000

	for _, kind := range BufferKinds() {
		for _, capacity := range []uint32{1, 3, 16, 100} {
			t.Run(fmt.Sprintf("%s-%d", kind, capacity), func(t *testing.T) {
				assert := assert.New(t)

				buf := newTestBuffer[int](t, capacity, kind)
				usable := int(buf.Cap())

				model := make([]int, 0, usable)
				next := 0

				for range ops {
					if fastrand.Uint32n(2) == 0 {
						ok := buf.Push(next)
						assert.Equal(len(model) < usable, ok)
						if ok {
							model = append(model, next)
						}
						next++
					} else {
						item, ok := buf.Pop()
						assert.Equal(len(model) > 0, ok)
						if ok {
							assert.Equal(model[0], item)
							model = model[1:]
						}
					}

					assert.Equal(uint32(len(model)), buf.Len())
				}
			})
		}
	}
}

func Test_SPSC_CursorWraparound(t *testing.T) {
	assert := assert.New(t)

	buf, err := NewSPSC[int](4)
	assert.NoError(err)

	// Move every cursor close to the end of the 32-bit space
	start := uint32(math.MaxUint32 - 6)
	buf.prod.push.Store(start)
	buf.prod.cachedPop = start
	buf.cons.pop.Store(start)
	buf.cons.cachedPush = start

	next := 0
	expected := 0
	for range 8 {
		for buf.Push(next) {
			next++
		}
		assert.Equal(uint32(4), buf.Len())

		for range 3 {
			item, ok := buf.Pop()
			assert.True(ok)
			assert.Equal(expected, item)
			expected++
		}
		assert.Equal(uint32(1), buf.Len())
	}

	assert.Less(buf.prod.push.Load(), start)

	for {
		item, ok := buf.Pop()
		if !ok {
			break
		}
		assert.Equal(expected, item)
		expected++
	}
	assert.Equal(next, expected)
}

func Test_SPSC_PopClearsSlot(t *testing.T) {
	assert := assert.New(t)

	buf, err := NewSPSC[*int](2)
	assert.NoError(err)

	val := 42
	assert.True(buf.Push(&val))

	popped, ok := buf.Pop()
	assert.True(ok)
	assert.Same(&val, popped)

	for _, slot := range buf.buffer {
		assert.Nil(slot)
	}
}

func Test_Buffer_Release(t *testing.T) {
	for _, kind := range BufferKinds() {
		t.Run(kind.String(), func(t *testing.T) {
			assert := assert.New(t)

			buf, err := NewBuffer[int](8, kind)
			assert.NoError(err)
			assert.True(buf.Push(1))

			buf.Release()

			assert.Zero(buf.Cap())
			assert.Zero(buf.Len())
			assert.False(buf.Push(2))
			_, ok := buf.Pop()
			assert.False(ok)

			// Releasing twice is a no-op
			buf.Release()
		})
	}

	var nilBuf *SPSC[int]
	assert.NotPanics(t, nilBuf.Release)
}

func Test_SPSC_InitReuse(t *testing.T) {
	assert := assert.New(t)

	var buf SPSC[int]
	assert.NoError(buf.Init(2))
	assert.True(buf.Push(1))
	assert.True(buf.Push(2))

	// A failed init leaves the buffer released
	assert.ErrorIs(buf.Init(0), ErrZeroCapacity)
	assert.Zero(buf.Cap())
	assert.False(buf.Push(3))

	assert.NoError(buf.Init(5))
	assert.Equal(uint32(8), buf.Cap())
	assert.Zero(buf.Len())
}

func Test_Buffer_Concurrent(t *testing.T) {
	const (
		items     = 200_000
		baseValue = 10_000
	)

	for _, kind := range BufferKinds() {
		for _, capacity := range []uint32{1, 7, 1024} {
			tName := kind.String() + "-" + strconv.Itoa(int(capacity))

			t.Run(tName, func(t *testing.T) {
				testConcurrent(t, newTestBuffer[uintptr](t, capacity, kind), items, baseValue)
			})
		}
	}
}

func testConcurrent(t *testing.T, buf Buffer[uintptr], items int, baseValue uintptr) {
	assert := assert.New(t)

	wg := &sync.WaitGroup{}
	wg.Add(2)

	go func() {
		defer wg.Done()

		for i := range items {
			for !buf.Push(baseValue + uintptr(i)) {
				runtime.Gosched()
			}
		}
	}()

	received := make([]uintptr, 0, items)

	go func() {
		defer wg.Done()

		for len(received) < items {
			item, ok := buf.Pop()
			if !ok {
				runtime.Gosched()
				continue
			}
			received = append(received, item)
		}
	}()

	wg.Wait()

	assert.Len(received, items)

	outOfOrder := 0
	for i, item := range received {
		if item != baseValue+uintptr(i) {
			outOfOrder++
		}
	}
	assert.Zero(outOfOrder)
	assert.Zero(buf.Len())
}

func Benchmark_Buffers(b *testing.B) {
	b.ReportAllocs()

	capacities := []uint32{512, 1024, 4096}
	for _, kind := range BufferKinds() {
		for _, capacity := range capacities {
			capacityStr := strconv.Itoa(int(capacity))

			b.Run("PushPopSteady-"+kind.String()+"-"+capacityStr, func(b *testing.B) {
				benchPushPopSteady(b, kind, capacity)
			})

			b.Run("PushPopCycle-"+kind.String()+"-"+capacityStr, func(b *testing.B) {
				benchPushPopCycle(b, kind, capacity)
			})
		}
	}
}

func Benchmark_Buffers_Contention(b *testing.B) {
	for _, kind := range BufferKinds() {
		b.Run("SPSC-"+kind.String(), func(b *testing.B) {
			benchContention(b, kind, 1024)
		})
	}
}

func benchPushPopSteady(b *testing.B, kind BufferKind, capacity uint32) {
	buf := newTestBuffer[int](b, capacity, kind)

	val := 0
	for b.Loop() {
		buf.Push(val)
		buf.Pop()
		val++
	}
}

func benchPushPopCycle(b *testing.B, kind BufferKind, capacity uint32) {
	buf := newTestBuffer[int](b, capacity, kind)
	usable := int(buf.Cap())

	for b.Loop() {
		for val := range usable {
			buf.Push(val)
		}
		for range usable {
			buf.Pop()
		}
	}
}

func benchContention(b *testing.B, kind BufferKind, capacity uint32) {
	buf := newTestBuffer[int](b, capacity, kind)

	done := make(chan struct{})
	go func() {
		defer close(done)

		for range b.N {
			for {
				if _, ok := buf.Pop(); ok {
					break
				}
			}
		}
	}()

	b.ResetTimer()

	for i := range b.N {
		for !buf.Push(i) {
		}
	}

	<-done
}
