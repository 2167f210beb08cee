// Completion: 100% - Module complete
package jit

import (
	"fmt"
	"log/slog"
)

// CodeBuffer is executable memory with an explicit lifecycle: bytes are
// written while the buffer is writable, Commit flips it to read+execute and
// Release unmaps it. Writing after Commit or using the buffer after Release
// is a programming error and panics.
type CodeBuffer struct {
	mem       []byte
	n         int
	committed bool
	released  bool
	name      string
}

// NewCodeBuffer maps size writable bytes
func NewCodeBuffer(name string, size int) (*CodeBuffer, error) {
	if size <= 0 {
		return nil, fmt.Errorf("CodeBuffer(%s): invalid size %d", name, size)
	}
	mem, err := mapWritable(size)
	if err != nil {
		return nil, fmt.Errorf("CodeBuffer(%s): %w", name, err)
	}
	return &CodeBuffer{mem: mem, name: name}, nil
}

// Write appends bytes to the buffer. Panics if the buffer is committed.
func (cb *CodeBuffer) Write(p []byte) (int, error) {
	cb.mustBeLive()
	if cb.committed {
		panic(fmt.Sprintf("CodeBuffer(%s): cannot write to committed buffer", cb.name))
	}
	if cb.n+len(p) > len(cb.mem) {
		return 0, fmt.Errorf("CodeBuffer(%s): %d bytes do not fit, %d of %d used", cb.name, len(p), cb.n, len(cb.mem))
	}
	copy(cb.mem[cb.n:], p)
	cb.n += len(p)
	return len(p), nil
}

// Bytes returns the code written so far
func (cb *CodeBuffer) Bytes() []byte {
	cb.mustBeLive()
	return cb.mem[:cb.n]
}

// Len returns the number of bytes written
func (cb *CodeBuffer) Len() int {
	return cb.n
}

// Commit makes the buffer executable. After this, no more writes are allowed.
func (cb *CodeBuffer) Commit() error {
	cb.mustBeLive()
	if cb.committed {
		return nil
	}
	if err := protectExec(cb.mem); err != nil {
		return fmt.Errorf("CodeBuffer(%s): %w", cb.name, err)
	}
	slog.Debug("code buffer committed", "name", cb.name, "bytes", cb.n)
	cb.committed = true
	return nil
}

// IsCommitted returns true if the buffer has been committed
func (cb *CodeBuffer) IsCommitted() bool {
	return cb.committed
}

// Addr returns the address of the first instruction
func (cb *CodeBuffer) Addr() uintptr {
	cb.mustBeLive()
	if !cb.committed {
		panic(fmt.Sprintf("CodeBuffer(%s): must call Commit() before executing", cb.name))
	}
	return addrOf(cb.mem)
}

// Release unmaps the buffer. It is safe to call more than once.
func (cb *CodeBuffer) Release() error {
	if cb.released {
		return nil
	}
	cb.released = true
	mem := cb.mem
	cb.mem = nil
	return unmap(mem)
}

func (cb *CodeBuffer) mustBeLive() {
	if cb.released {
		panic(fmt.Sprintf("CodeBuffer(%s): used after release", cb.name))
	}
}
