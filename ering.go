// Package ering provides a bounded lock-free single producer/single consumer queue.
//
// A Queue is meant to be shared by exactly two goroutines: one calling Push
// and one calling Pop. Both operations never block, they report a full or
// an empty queue by returning false and the caller decides how to retry.
// Split hands out a Producer and a Consumer so that the single writer
// contract of each side is carried by the types.
package ering

import (
	"errors"
	"sync/atomic"
	"unsafe"

	"github.com/FerroO2000/ering/internal/rb"
)

// MaxCapacity is the biggest capacity a Queue can be created with.
const MaxCapacity = rb.MaxCapacity

var (
	// ErrZeroCapacity is returned when a queue is created with capacity 0.
	ErrZeroCapacity = rb.ErrZeroCapacity
	// ErrCapacityTooLarge is returned when the capacity is greater than MaxCapacity.
	ErrCapacityTooLarge = rb.ErrCapacityTooLarge
	// ErrAllocation is returned when the queue storage cannot be allocated.
	ErrAllocation = rb.ErrAllocation
	// ErrAlreadySplit is returned when Split is called more than once.
	ErrAlreadySplit = errors.New("ring buffer: queue already split")
)

// Queue is a bounded lock-free single producer/single consumer queue.
// The requested capacity is rounded up to the next power of 2 and all
// the slots are usable.
//
// The zero value is a released queue: Init must be called before use.
// A Queue must not be copied after Init.
type Queue[T any] struct {
	buffer rb.SPSC[T]

	isSplit atomic.Bool
}

// PtrQueue is a queue of opaque pointers. The queue never dereferences them.
type PtrQueue = Queue[unsafe.Pointer]

// New returns a new queue that can hold at least capacity items.
func New[T any](capacity uint32) (*Queue[T], error) {
	q := &Queue[T]{}
	if err := q.Init(capacity); err != nil {
		return nil, err
	}
	return q, nil
}

// Init initializes the queue in place, dropping any previous content.
// It must not run concurrently with any other method.
func (q *Queue[T]) Init(capacity uint32) error {
	q.isSplit.Store(false)
	return q.buffer.Init(capacity)
}

// Push enqueues item. It returns false if the queue is full.
// Only one goroutine at a time may push.
func (q *Queue[T]) Push(item T) bool {
	return q.buffer.Push(item)
}

// Pop dequeues the oldest item. It returns false if the queue is empty.
// Only one goroutine at a time may pop.
func (q *Queue[T]) Pop() (T, bool) {
	return q.buffer.Pop()
}

// Len returns the number of items in the queue.
// While the queue is in use it is only a snapshot.
func (q *Queue[T]) Len() int {
	return int(q.buffer.Len())
}

// Cap returns the number of items the queue can hold.
func (q *Queue[T]) Cap() int {
	return int(q.buffer.Cap())
}

// IsEmpty states whether the queue is empty.
func (q *Queue[T]) IsEmpty() bool {
	return q.buffer.Len() == 0
}

// IsFull states whether the queue is full.
func (q *Queue[T]) IsFull() bool {
	return q.buffer.Len() == q.buffer.Cap()
}

// Release drops the queue storage. Calling it on a nil or
// already released queue does nothing.
// It must not run while a producer or a consumer is active.
func (q *Queue[T]) Release() {
	if q == nil {
		return
	}
	q.buffer.Release()
}

// Split returns the producer and the consumer sides of the queue.
// It can be called only once per Init.
func (q *Queue[T]) Split() (*Producer[T], *Consumer[T], error) {
	if !q.isSplit.CompareAndSwap(false, true) {
		return nil, nil, ErrAlreadySplit
	}
	return &Producer[T]{q: q}, &Consumer[T]{q: q}, nil
}

// Producer is the enqueuing side of a Queue.
// It must be owned by a single goroutine.
type Producer[T any] struct {
	q *Queue[T]
}

// Push enqueues item. It returns false if the queue is full.
func (p *Producer[T]) Push(item T) bool {
	return p.q.Push(item)
}

// Len returns the number of items in the queue.
func (p *Producer[T]) Len() int {
	return p.q.Len()
}

// Cap returns the number of items the queue can hold.
func (p *Producer[T]) Cap() int {
	return p.q.Cap()
}

// Consumer is the dequeuing side of a Queue.
// It must be owned by a single goroutine.
type Consumer[T any] struct {
	q *Queue[T]
}

// Pop dequeues the oldest item. It returns false if the queue is empty.
func (c *Consumer[T]) Pop() (T, bool) {
	return c.q.Pop()
}

// Len returns the number of items in the queue.
func (c *Consumer[T]) Len() int {
	return c.q.Len()
}

// Cap returns the number of items the queue can hold.
func (c *Consumer[T]) Cap() int {
	return c.q.Cap()
}
