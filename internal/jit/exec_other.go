//go:build !(linux && amd64)

package jit

func run(code, tape uintptr) error {
	return ErrUnsupported
}
