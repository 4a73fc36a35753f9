//go:build linux

package affinity

import (
	"fmt"
	"runtime"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Number of CPUs a unix.CPUSet can describe.
const cpuSetSize = int(unsafe.Sizeof(unix.CPUSet{})) * 8

// Pin locks the calling goroutine to its OS thread and binds the thread to cpu.
// The returned release restores the previous mask and unlocks the thread,
// it must be called from the same goroutine.
func Pin(cpu int) (release func(), err error) {
	if cpu < 0 || cpu >= cpuSetSize {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCPU, cpu)
	}

	runtime.LockOSThread()

	var prevSet unix.CPUSet
	if err := unix.SchedGetaffinity(0, &prevSet); err != nil {
		runtime.UnlockOSThread()
		return nil, fmt.Errorf("affinity: get mask: %w", err)
	}

	if !prevSet.IsSet(cpu) {
		runtime.UnlockOSThread()
		return nil, fmt.Errorf("%w: %d not in the allowed set", ErrInvalidCPU, cpu)
	}

	var set unix.CPUSet
	set.Set(cpu)

	if err := unix.SchedSetaffinity(0, &set); err != nil {
		runtime.UnlockOSThread()
		return nil, fmt.Errorf("affinity: set mask: %w", err)
	}

	return func() {
		_ = unix.SchedSetaffinity(0, &prevSet)
		runtime.UnlockOSThread()
	}, nil
}

// Allowed returns the CPUs the calling thread can run on.
func Allowed() ([]int, error) {
	var set unix.CPUSet
	if err := unix.SchedGetaffinity(0, &set); err != nil {
		return nil, fmt.Errorf("affinity: get mask: %w", err)
	}

	cpus := make([]int, 0, set.Count())
	for cpu := range cpuSetSize {
		if set.IsSet(cpu) {
			cpus = append(cpus, cpu)
		}
	}

	return cpus, nil
}
