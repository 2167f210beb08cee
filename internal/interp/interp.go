// Completion: 100% - Reference and IR interpreters complete
package interp

import (
	"errors"
	"fmt"
	"io"
)

//go:generate mockgen -write_package_comment=false -package=$GOPACKAGE -destination=mock_port_test.go github.com/xyproto/beefit/internal/interp Port

// Port is the single byte I/O used by Print and Read. *bufio.Reader and
// *bufio.Writer together satisfy it, see NewPort.
type Port interface {
	ReadByte() (byte, error)
	WriteByte(c byte) error
}

var (
	// ErrTapeOverrun is returned when the program addresses a cell outside
	// the tape
	ErrTapeOverrun = errors.New("tape overrun")
	// ErrStepLimit is returned when a program runs longer than allowed
	ErrStepLimit = errors.New("step limit exceeded")
)

type rwPort struct {
	r io.ByteReader
	w io.ByteWriter
}

func (p rwPort) ReadByte() (byte, error) { return p.r.ReadByte() }
func (p rwPort) WriteByte(c byte) error  { return p.w.WriteByte(c) }

// NewPort combines a byte reader and a byte writer
func NewPort(r io.ByteReader, w io.ByteWriter) Port {
	return rwPort{r: r, w: w}
}

// read stores the next input byte in *cell. At end of input the cell keeps
// its value, like a read(2) that returns 0.
func read(port Port, cell *byte) error {
	c, err := port.ReadByte()
	if errors.Is(err, io.EOF) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read: %w", err)
	}
	*cell = c
	return nil
}

// RunSource interprets raw source text without any optimization. cells is
// the tape and origin the index of the starting cell. maxSteps bounds the
// number of executed commands, 0 means no limit. It is the reference the
// compiled code is checked against.
func RunSource(src []byte, cells []byte, origin int, port Port, maxSteps uint64) error {
	jump, err := matchBrackets(src)
	if err != nil {
		return err
	}
	ptr := origin
	var steps uint64
	for pc := 0; pc < len(src); pc++ {
		steps++
		if maxSteps > 0 && steps > maxSteps {
			return ErrStepLimit
		}
		switch src[pc] {
		case '>':
			ptr++
		case '<':
			ptr--
		case '+', '-', '.', ',', '[', ']':
			if ptr < 0 || ptr >= len(cells) {
				return fmt.Errorf("%w: cell %d at byte %d", ErrTapeOverrun, ptr-origin, pc)
			}
			switch src[pc] {
			case '+':
				cells[ptr]++
			case '-':
				cells[ptr]--
			case '.':
				if err := port.WriteByte(cells[ptr]); err != nil {
					return fmt.Errorf("write: %w", err)
				}
			case ',':
				if err := read(port, &cells[ptr]); err != nil {
					return err
				}
			case '[':
				if cells[ptr] == 0 {
					pc = jump[pc]
				}
			case ']':
				if cells[ptr] != 0 {
					pc = jump[pc]
				}
			}
		}
	}
	return nil
}

func matchBrackets(src []byte) (map[int]int, error) {
	jump := make(map[int]int)
	var stack []int
	for i, c := range src {
		switch c {
		case '[':
			stack = append(stack, i)
		case ']':
			if len(stack) == 0 {
				return nil, fmt.Errorf("unmatched ']' at byte %d", i)
			}
			open := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			jump[open] = i
			jump[i] = open
		}
	}
	if len(stack) > 0 {
		return nil, fmt.Errorf("unterminated '[' at byte %d", stack[len(stack)-1])
	}
	return jump, nil
}
