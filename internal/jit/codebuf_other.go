//go:build !unix

package jit

import "unsafe"

// Without mmap the buffer is plain heap memory. It can be filled and
// inspected but never executed, Load refuses these platforms.

func mapWritable(size int) ([]byte, error) {
	return make([]byte, size), nil
}

func protectExec([]byte) error {
	return nil
}

func unmap([]byte) error {
	return nil
}

func addrOf(mem []byte) uintptr {
	return uintptr(unsafe.Pointer(&mem[0]))
}
