// Completion: 100% - Utility module complete
package jit

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Out accumulates machine code. When trace is set every encoder prints its
// mnemonic followed by the bytes it produced, one instruction per line.
type Out struct {
	buf   []byte
	trace io.Writer
}

// NewOut creates an empty code buffer
func NewOut(trace io.Writer) *Out {
	return &Out{buf: make([]byte, 0, 4096), trace: trace}
}

func (o *Out) Write(b uint8) int {
	o.buf = append(o.buf, b)
	if o.trace != nil {
		fmt.Fprintf(o.trace, " %02x", b)
	}
	return 1
}

func (o *Out) WriteBytes(bs ...uint8) int {
	for _, b := range bs {
		o.Write(b)
	}
	return len(bs)
}

// Write4 writes a little-endian 32-bit value
func (o *Out) Write4(v uint32) int {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	return o.WriteBytes(b[:]...)
}

// Write8 writes a little-endian 64-bit value
func (o *Out) Write8(v uint64) int {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	return o.WriteBytes(b[:]...)
}

// Pos returns the current offset
func (o *Out) Pos() int {
	return len(o.buf)
}

// Patch4 overwrites a 32-bit value written earlier
func (o *Out) Patch4(pos int, v uint32) {
	binary.LittleEndian.PutUint32(o.buf[pos:pos+4], v)
	if o.trace != nil {
		fmt.Fprintf(o.trace, "patch %#x: %08x\n", pos, v)
	}
}

// Bytes returns the code written so far
func (o *Out) Bytes() []byte {
	return o.buf
}

func (o *Out) mnemonic(format string, args ...any) {
	if o.trace != nil {
		fmt.Fprintf(o.trace, "%04x  ", len(o.buf))
		fmt.Fprintf(o.trace, format, args...)
		fmt.Fprint(o.trace, ":")
	}
}

func (o *Out) endLine() {
	if o.trace != nil {
		fmt.Fprintln(o.trace)
	}
}
