//go:build !linux

package affinity

// Pin is not supported on this platform.
func Pin(_ int) (release func(), err error) {
	return nil, ErrUnsupported
}

// Allowed is not supported on this platform.
func Allowed() ([]int, error) {
	return nil, ErrUnsupported
}
