package rb

import (
	"fmt"
	"sync/atomic"

	"golang.org/x/sys/cpu"
)

// MaxCapacity is the biggest power of two that fits in a 32-bit cursor space.
const MaxCapacity = 1 << 31

// roundToPowerOf2 returns the smallest power of 2 greater or equal to x.
// It wraps to 0 when x is greater than MaxCapacity and returns 0 for x == 0.
func roundToPowerOf2(x uint32) uint32 {
	x--
	x |= x >> 1
	x |= x >> 2
	x |= x >> 4
	x |= x >> 8
	x |= x >> 16
	return x + 1
}

// NormalizeCapacity rounds the requested capacity up to the next power of 2
// and returns it together with the bit mask used for index wraparound.
func NormalizeCapacity(requested uint32) (capacity, mask uint32, err error) {
	if requested == 0 {
		return 0, 0, ErrZeroCapacity
	}

	if requested > MaxCapacity {
		return 0, 0, fmt.Errorf("%w: requested %d, max %d", ErrCapacityTooLarge, requested, uint32(MaxCapacity))
	}

	capacity = roundToPowerOf2(requested)
	return capacity, capacity - 1, nil
}

// allocSlots allocates the slot storage, turning a failed allocation
// into ErrAllocation instead of a panic.
func allocSlots[T any](capacity uint64) (slots []T, err error) {
	defer func() {
		if r := recover(); r != nil {
			slots = nil
			err = fmt.Errorf("%w: %v", ErrAllocation, r)
		}
	}()

	return make([]T, capacity), nil
}

// commonBuffer holds the 64-bit cursor pair shared by the modulo
// indexed buffers. Each cursor lives on its own cache line.
type commonBuffer struct {
	push atomic.Uint64

	_ cpu.CacheLinePad

	pop atomic.Uint64

	_ cpu.CacheLinePad

	capacity uint64

	_ cpu.CacheLinePad
}

func (cb *commonBuffer) len() uint32 {
	// pop is loaded first, so push can only be ahead of it
	pop := cb.pop.Load()
	push := cb.push.Load()

	return uint32(min(push-pop, cb.capacity))
}

func (cb *commonBuffer) reset() {
	cb.push.Store(0)
	cb.pop.Store(0)
	cb.capacity = 0
}
