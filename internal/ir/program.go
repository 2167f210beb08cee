// Completion: 100% - Program container complete
package ir

import (
	"errors"
	"fmt"
)

// Program is an in-place rewritable instruction sequence. The backing slice
// always holds an End sentinel before index 0 and another one after the last
// instruction, so scans in either direction stop without bounds checks.
type Program struct {
	code []Instr
}

// NewProgram wraps a copy of instrs between two End sentinels
func NewProgram(instrs []Instr) *Program {
	code := make([]Instr, 0, len(instrs)+2)
	code = append(code, Instr{Op: End})
	code = append(code, instrs...)
	code = append(code, Instr{Op: End})
	return &Program{code: code}
}

// Len returns the number of instructions, sentinels excluded
func (p *Program) Len() int {
	return len(p.code) - 2
}

// At returns the instruction at index i. At(-1) and At(Len()) are the
// sentinels.
func (p *Program) At(i int) *Instr {
	return &p.code[i+1]
}

// Instrs returns the instructions without sentinels. The slice aliases the
// program.
func (p *Program) Instrs() []Instr {
	return p.code[1 : len(p.code)-1]
}

// Clone returns an independent copy
func (p *Program) Clone() *Program {
	return NewProgram(p.Instrs())
}

// Compact removes Nops in place and reports whether anything was removed
func (p *Program) Compact() bool {
	dst := 1
	for src := 1; src < len(p.code)-1; src++ {
		if p.code[src].Op == Nop {
			continue
		}
		p.code[dst] = p.code[src]
		dst++
	}
	removed := dst != len(p.code)-1
	p.code[dst] = Instr{Op: End}
	p.code = p.code[:dst+1]
	return removed
}

// Truncate shortens the program to n instructions and places the closing
// sentinel
func (p *Program) Truncate(n int) {
	p.code[n+1] = Instr{Op: End}
	p.code = p.code[:n+2]
}

// Count returns how many instructions carry op
func (p *Program) Count(op Op) int {
	n := 0
	for _, in := range p.Instrs() {
		if in.Op == op {
			n++
		}
	}
	return n
}

// Match returns the index of the bracket paired with the bracket at i, or -1
func (p *Program) Match(i int) int {
	dir := Forward
	if p.At(i).Op == LoopExit {
		dir = Backward
	} else if p.At(i).Op != LoopEnter {
		return -1
	}
	depth := 0
	for j := i; ; j += int(dir) {
		switch p.At(j).Op {
		case LoopEnter:
			depth += int(dir)
		case LoopExit:
			depth -= int(dir)
		case End:
			return -1
		}
		if depth == 0 {
			return j
		}
	}
}

// ErrUnbalanced is wrapped by CheckBrackets failures
var ErrUnbalanced = errors.New("unbalanced loop brackets")

// CheckBrackets verifies that LoopEnter and LoopExit form a properly nested
// structure and that End only appears as the sentinels
func (p *Program) CheckBrackets() error {
	depth := 0
	for i, in := range p.Instrs() {
		switch in.Op {
		case LoopEnter:
			depth++
		case LoopExit:
			depth--
			if depth < 0 {
				return fmt.Errorf("%w: ']' without '[' at instruction %d", ErrUnbalanced, i)
			}
		case End:
			return fmt.Errorf("stray end of program at instruction %d", i)
		}
	}
	if depth != 0 {
		return fmt.Errorf("%w: %d loop(s) left open", ErrUnbalanced, depth)
	}
	return nil
}
