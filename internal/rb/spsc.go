package rb

import (
	"sync/atomic"

	"golang.org/x/sys/cpu"
)

// producerSide groups the fields owned by the producer.
type producerSide struct {
	// push is written only by the producer and read by the consumer
	push atomic.Uint32

	// cachedPop is the last value of the consumer cursor seen by the producer
	cachedPop uint32
}

// consumerSide groups the fields owned by the consumer.
type consumerSide struct {
	// pop is written only by the consumer and read by the producer
	pop atomic.Uint32

	// cachedPush is the last value of the producer cursor seen by the consumer
	cachedPush uint32
}

// SPSC is a bounded lock-free single producer/single consumer ring buffer.
//
// Exactly one goroutine may call Push and exactly one goroutine may call Pop.
// Each side keeps a stale copy of the other side's cursor and only reloads it
// when the copy says the buffer is full (producer) or empty (consumer),
// so most operations touch no cache line written by the other side.
//
// The whole capacity is usable: the buffer is full when push-pop == capacity.
//
// A SPSC must not be copied after Init.
type SPSC[T any] struct {
	_ cpu.CacheLinePad

	prod producerSide

	_ cpu.CacheLinePad

	cons consumerSide

	_ cpu.CacheLinePad

	capacity uint32
	capMask  uint32

	buffer []T
}

// NewSPSC returns a new SPSC with the capacity rounded up to a power of 2.
func NewSPSC[T any](capacity uint32) (*SPSC[T], error) {
	b := &SPSC[T]{}
	if err := b.Init(capacity); err != nil {
		return nil, err
	}
	return b, nil
}

// Init initializes the buffer in place. On failure the buffer
// is left released.
func (b *SPSC[T]) Init(capacity uint32) error {
	b.Release()

	parsedCapacity, capMask, err := NormalizeCapacity(capacity)
	if err != nil {
		return err
	}

	buffer, err := allocSlots[T](uint64(parsedCapacity))
	if err != nil {
		return err
	}

	b.capacity = parsedCapacity
	b.capMask = capMask
	b.buffer = buffer

	return nil
}

// Push enqueues item. It returns false, without side effects, when the buffer is full.
// Only the producer may call it.
func (b *SPSC[T]) Push(item T) bool {
	// Only this goroutine writes push
	push := b.prod.push.Load()

	// Check against the last known consumer position
	if push-b.prod.cachedPop == b.capacity {
		// Maybe full, refresh the cache (acquire)
		b.prod.cachedPop = b.cons.pop.Load()

		if push-b.prod.cachedPop == b.capacity {
			// Buffer is full
			return false
		}
	}

	b.buffer[push&b.capMask] = item

	// Publish the slot (release)
	b.prod.push.Store(push + 1)

	return true
}

// Pop dequeues an item. It returns false, without side effects, when the buffer is empty.
// Only the consumer may call it.
func (b *SPSC[T]) Pop() (T, bool) {
	var zero T

	// Only this goroutine writes pop
	pop := b.cons.pop.Load()

	// Check against the last known producer position
	if b.cons.cachedPush == pop {
		// Maybe empty, refresh the cache (acquire)
		b.cons.cachedPush = b.prod.push.Load()

		if b.cons.cachedPush == pop {
			// Buffer is empty
			return zero, false
		}
	}

	itemIndex := pop & b.capMask
	item := b.buffer[itemIndex]

	// Do not keep a reference the buffer does not own
	b.buffer[itemIndex] = zero

	// Hand the slot back to the producer (release)
	b.cons.pop.Store(pop + 1)

	return item, true
}

// Len returns the number of items in the buffer.
// It is exact only when neither side is running.
func (b *SPSC[T]) Len() uint32 {
	// pop is loaded first, so push can only be ahead of it
	pop := b.cons.pop.Load()
	push := b.prod.push.Load()

	return min(push-pop, b.capacity)
}

// Cap returns the normalized capacity.
func (b *SPSC[T]) Cap() uint32 {
	return b.capacity
}

// Release drops the storage and resets the cursors.
// It must not run concurrently with Push or Pop.
func (b *SPSC[T]) Release() {
	if b == nil {
		return
	}

	b.buffer = nil
	b.capacity = 0
	b.capMask = 0

	b.prod.push.Store(0)
	b.prod.cachedPop = 0
	b.cons.pop.Store(0)
	b.cons.cachedPush = 0
}
