package rb

import (
	"sync/atomic"

	"golang.org/x/sys/cpu"
)

// The buffers in this file are the earlier steps that led to SPSC.
// They are kept to measure what each step buys. All of them have
// an exact (non normalized) capacity and index the slots with a modulo,
// so they use 64-bit cursors: with 32-bit ones the slot sequence would
// not be contiguous across the wraparound for capacities that do not divide 2^32.

func newExactBuffer[T any](capacity uint32) ([]T, error) {
	if capacity == 0 {
		return nil, ErrZeroCapacity
	}
	return allocSlots[T](uint64(capacity))
}

//////////////
//  ATOMIC  //
//////////////

// atomicBuffer loads both cursors atomically on every operation.
// The cursors share a cache line with each other and with the metadata.
type atomicBuffer[T any] struct {
	push     atomic.Uint64
	pop      atomic.Uint64
	capacity uint64

	buffer []T
}

func newAtomicBuffer[T any](capacity uint32) (*atomicBuffer[T], error) {
	buffer, err := newExactBuffer[T](capacity)
	if err != nil {
		return nil, err
	}

	return &atomicBuffer[T]{
		capacity: uint64(capacity),
		buffer:   buffer,
	}, nil
}

func (b *atomicBuffer[T]) Push(item T) bool {
	push := b.push.Load()
	pop := b.pop.Load()

	if push-pop == b.capacity {
		return false
	}

	b.buffer[push%b.capacity] = item
	b.push.Store(push + 1)

	return true
}

func (b *atomicBuffer[T]) Pop() (T, bool) {
	var zero T

	pop := b.pop.Load()
	push := b.push.Load()

	if push == pop {
		return zero, false
	}

	itemIndex := pop % b.capacity
	item := b.buffer[itemIndex]
	b.buffer[itemIndex] = zero
	b.pop.Store(pop + 1)

	return item, true
}

func (b *atomicBuffer[T]) Len() uint32 {
	pop := b.pop.Load()
	push := b.push.Load()
	return uint32(min(push-pop, b.capacity))
}

func (b *atomicBuffer[T]) Cap() uint32 {
	return uint32(b.capacity)
}

func (b *atomicBuffer[T]) Release() {
	b.buffer = nil
	b.push.Store(0)
	b.pop.Store(0)
	b.capacity = 0
}

//////////////
//  PADDED  //
//////////////

// paddedBuffer is an atomicBuffer with every cursor on its own cache line.
type paddedBuffer[T any] struct {
	*commonBuffer

	buffer []T
}

func newPaddedBuffer[T any](capacity uint32) (*paddedBuffer[T], error) {
	buffer, err := newExactBuffer[T](capacity)
	if err != nil {
		return nil, err
	}

	cb := &commonBuffer{}
	cb.capacity = uint64(capacity)

	return &paddedBuffer[T]{
		commonBuffer: cb,
		buffer:       buffer,
	}, nil
}

func (b *paddedBuffer[T]) Push(item T) bool {
	push := b.push.Load()
	pop := b.pop.Load()

	if push-pop == b.capacity {
		return false
	}

	b.buffer[push%b.capacity] = item
	b.push.Store(push + 1)

	return true
}

func (b *paddedBuffer[T]) Pop() (T, bool) {
	var zero T

	pop := b.pop.Load()
	push := b.push.Load()

	if push == pop {
		return zero, false
	}

	itemIndex := pop % b.capacity
	item := b.buffer[itemIndex]
	b.buffer[itemIndex] = zero
	b.pop.Store(pop + 1)

	return item, true
}

func (b *paddedBuffer[T]) Len() uint32 {
	return b.len()
}

func (b *paddedBuffer[T]) Cap() uint32 {
	return uint32(b.capacity)
}

func (b *paddedBuffer[T]) Release() {
	b.buffer = nil
	b.reset()
}

//////////////
//  CACHED  //
//////////////

// cachedBuffer adds the cached remote cursors to paddedBuffer
// but still indexes with a modulo.
type cachedBuffer[T any] struct {
	_ cpu.CacheLinePad

	cachedPush uint64

	_ cpu.CacheLinePad

	cachedPop uint64

	_ cpu.CacheLinePad

	*commonBuffer

	buffer []T
}

func newCachedBuffer[T any](capacity uint32) (*cachedBuffer[T], error) {
	buffer, err := newExactBuffer[T](capacity)
	if err != nil {
		return nil, err
	}

	cb := &commonBuffer{}
	cb.capacity = uint64(capacity)

	return &cachedBuffer[T]{
		commonBuffer: cb,
		buffer:       buffer,
	}, nil
}

func (b *cachedBuffer[T]) Push(item T) bool {
	push := b.push.Load()

	if push-b.cachedPop == b.capacity {
		b.cachedPop = b.pop.Load()

		if push-b.cachedPop == b.capacity {
			return false
		}
	}

	b.buffer[push%b.capacity] = item
	b.push.Store(push + 1)

	return true
}

func (b *cachedBuffer[T]) Pop() (T, bool) {
	var zero T

	pop := b.pop.Load()

	if b.cachedPush == pop {
		b.cachedPush = b.push.Load()

		if b.cachedPush == pop {
			return zero, false
		}
	}

	itemIndex := pop % b.capacity
	item := b.buffer[itemIndex]
	b.buffer[itemIndex] = zero
	b.pop.Store(pop + 1)

	return item, true
}

func (b *cachedBuffer[T]) Len() uint32 {
	return b.len()
}

func (b *cachedBuffer[T]) Cap() uint32 {
	return uint32(b.capacity)
}

func (b *cachedBuffer[T]) Release() {
	b.buffer = nil
	b.cachedPush = 0
	b.cachedPop = 0
	b.reset()
}
