// Package affinity pins goroutines to a CPU.
package affinity

import "errors"

var (
	// ErrInvalidCPU is returned when the CPU index is negative or not allowed
	// by the current affinity mask.
	ErrInvalidCPU = errors.New("affinity: invalid cpu")
	// ErrUnsupported is returned on platforms without thread affinity.
	ErrUnsupported = errors.New("affinity: not supported on this platform")
)

// PinIfEnabled calls Pin when enabled is true, otherwise it returns a no-op release.
func PinIfEnabled(enabled bool, cpu int) (release func(), err error) {
	if !enabled {
		return func() {}, nil
	}
	return Pin(cpu)
}
