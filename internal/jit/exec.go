// Completion: 100% - Module complete
package jit

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/xyproto/beefit/internal/engine"
	"github.com/xyproto/beefit/internal/tape"
)

// ErrUnsupported is returned by Load on hosts that cannot run generated code
var ErrUnsupported = errors.New("generated code cannot run on this platform")

// Executable is generated code mapped into executable memory
type Executable struct {
	buf  *CodeBuffer
	code *Code
}

// Load copies code into a fresh executable mapping. The mapping is released
// by Close, or immediately if loading fails.
func Load(code *Code) (*Executable, error) {
	if host := engine.Host(); !host.CanJIT() {
		return nil, fmt.Errorf("%w (%s)", ErrUnsupported, host)
	}
	if code.Size() == 0 {
		return nil, codegenError("empty code")
	}
	buf, err := NewCodeBuffer("jit", code.Size())
	if err != nil {
		return nil, err
	}
	if _, err := buf.Write(code.Bytes()); err != nil {
		buf.Release()
		return nil, err
	}
	if err := buf.Commit(); err != nil {
		buf.Release()
		return nil, err
	}
	return &Executable{buf: buf, code: code}, nil
}

// Code returns the code the executable was loaded from
func (e *Executable) Code() *Code {
	return e.code
}

// Run executes the program on t. The call does not return until the program
// ends, and the calling goroutine cannot be preempted meanwhile, so the file
// descriptors the code uses must not depend on other goroutines making
// progress.
func (e *Executable) Run(t *tape.Tape) error {
	if e.buf == nil {
		return errors.New("executable is closed")
	}
	if err := run(e.buf.Addr(), t.Base()); err != nil {
		return err
	}
	runtime.KeepAlive(t)
	runtime.KeepAlive(e.code)
	return nil
}

// Close releases the executable mapping. It is safe to call more than once.
func (e *Executable) Close() error {
	if e.buf == nil {
		return nil
	}
	buf := e.buf
	e.buf = nil
	return buf.Release()
}
