// Package rb provides lock-free single producer/single consumer generic ring buffers.
package rb

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrZeroCapacity is returned when a buffer is created with capacity 0.
	ErrZeroCapacity = errors.New("ring buffer: capacity cannot be zero")
	// ErrCapacityTooLarge is returned when the capacity cannot be normalized
	// to a 32-bit power of 2.
	ErrCapacityTooLarge = errors.New("ring buffer: capacity too large")
	// ErrAllocation is returned when the slot storage cannot be allocated.
	ErrAllocation = errors.New("ring buffer: cannot allocate storage")
	// ErrUnknownKind is returned when parsing an invalid buffer kind.
	ErrUnknownKind = errors.New("ring buffer: unknown buffer kind")
)

// BufferKind is the type of the buffer implementation.
type BufferKind uint8

const (
	// BufferKindAtomic loads both cursors atomically on every operation.
	BufferKindAtomic BufferKind = iota
	// BufferKindPadded is BufferKindAtomic with the cursors on distinct cache lines.
	BufferKindPadded
	// BufferKindCached is BufferKindPadded with cached remote cursors.
	BufferKindCached
	// BufferKindMasked is BufferKindCached with a power of 2 capacity
	// and bit mask indexing. It is the SPSC buffer.
	BufferKindMasked
)

// BufferKinds returns all the buffer kinds, from the simplest to the fastest.
func BufferKinds() []BufferKind {
	return []BufferKind{BufferKindAtomic, BufferKindPadded, BufferKindCached, BufferKindMasked}
}

func (bk BufferKind) String() string {
	switch bk {
	case BufferKindAtomic:
		return "atomic"
	case BufferKindPadded:
		return "padded"
	case BufferKindCached:
		return "cached"
	case BufferKindMasked:
		return "masked"
	default:
		return "unknown"
	}
}

// IsValid states whether the kind is known.
func (bk BufferKind) IsValid() bool {
	return bk <= BufferKindMasked
}

// ExactCapacity states whether a buffer of this kind holds exactly
// the requested capacity instead of the next power of 2.
func (bk BufferKind) ExactCapacity() bool {
	return bk != BufferKindMasked
}

// ParseBufferKind returns the kind with the given name (case insensitive).
func ParseBufferKind(name string) (BufferKind, error) {
	for _, kind := range BufferKinds() {
		if strings.EqualFold(name, kind.String()) {
			return kind, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownKind, name)
}

// MarshalText implements encoding.TextMarshaler.
func (bk BufferKind) MarshalText() ([]byte, error) {
	if !bk.IsValid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownKind, bk)
	}
	return []byte(bk.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (bk *BufferKind) UnmarshalText(text []byte) error {
	kind, err := ParseBufferKind(string(text))
	if err != nil {
		return err
	}
	*bk = kind
	return nil
}

// Buffer is the common interface of the buffer kinds.
// Push must be called by a single producer and Pop by a single consumer.
type Buffer[T any] interface {
	// Push enqueues an item, it returns false if the buffer is full.
	Push(item T) bool
	// Pop dequeues an item, it returns false if the buffer is empty.
	Pop() (T, bool)
	// Len returns the number of items in the buffer.
	Len() uint32
	// Cap returns the number of usable slots.
	Cap() uint32
	// Release drops the storage. It must not run concurrently with Push or Pop.
	Release()
}

var (
	_ Buffer[int] = (*atomicBuffer[int])(nil)
	_ Buffer[int] = (*paddedBuffer[int])(nil)
	_ Buffer[int] = (*cachedBuffer[int])(nil)
	_ Buffer[int] = (*SPSC[int])(nil)
)

// NewBuffer returns a new buffer of the given kind.
func NewBuffer[T any](capacity uint32, kind BufferKind) (Buffer[T], error) {
	switch kind {
	case BufferKindAtomic:
		buf, err := newAtomicBuffer[T](capacity)
		if err != nil {
			return nil, err
		}
		return buf, nil

	case BufferKindPadded:
		buf, err := newPaddedBuffer[T](capacity)
		if err != nil {
			return nil, err
		}
		return buf, nil

	case BufferKindCached:
		buf, err := newCachedBuffer[T](capacity)
		if err != nil {
			return nil, err
		}
		return buf, nil

	case BufferKindMasked:
		buf, err := NewSPSC[T](capacity)
		if err != nil {
			return nil, err
		}
		return buf, nil

	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownKind, kind)
	}
}
