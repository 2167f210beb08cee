// Completion: 100% - Tape allocation complete
package tape

import (
	"fmt"
	"unsafe"
)

const (
	// DefaultSize is the classic number of cells
	DefaultSize = 30000
	// DefaultPadding is the number of spare cells on each side. Unlooped
	// code may touch a cell the source only reaches inside a loop that never
	// runs, those accesses land here.
	DefaultPadding = 1 << 16
)

// Tape is a zeroed byte tape with guard padding on both ends
type Tape struct {
	mem     []byte
	size    int
	padding int
	release func([]byte) error
}

// New allocates size visible cells surrounded by padding spare cells on each
// side
func New(size, padding int) (*Tape, error) {
	if size <= 0 || padding < 0 {
		return nil, fmt.Errorf("invalid tape geometry: size %d, padding %d", size, padding)
	}
	mem, release, err := allocate(size + 2*padding)
	if err != nil {
		return nil, fmt.Errorf("could not allocate %d byte tape: %w", size+2*padding, err)
	}
	return &Tape{mem: mem, size: size, padding: padding, release: release}, nil
}

// Cells returns the visible window, starting at cell 0
func (t *Tape) Cells() []byte {
	return t.mem[t.padding : t.padding+t.size]
}

// Memory returns the whole mapping, padding included
func (t *Tape) Memory() []byte {
	return t.mem
}

// Origin is the index of cell 0 in Memory
func (t *Tape) Origin() int {
	return t.padding
}

// Base returns the address of cell 0
func (t *Tape) Base() uintptr {
	return uintptr(unsafe.Pointer(&t.mem[t.padding]))
}

// Close releases the tape. It is safe to call more than once.
func (t *Tape) Close() error {
	if t.mem == nil {
		return nil
	}
	mem := t.mem
	t.mem = nil
	return t.release(mem)
}
