//go:build unix

package tape

import "golang.org/x/sys/unix"

// allocate maps anonymous zeroed memory outside the Go heap, so the tape
// address stays valid while generated code runs
func allocate(n int) ([]byte, func([]byte) error, error) {
	mem, err := unix.Mmap(-1, 0, n, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, nil, err
	}
	return mem, unix.Munmap, nil
}
