package interp

import (
	"fmt"
	"sort"

	"github.com/xyproto/beefit/internal/ir"
)

// Options configures an IR run
type Options struct {
	Profile  bool   // count loop iterations
	MaxSteps uint64 // 0 means no limit
}

// LoopHit is the number of times the body of the loop opened at Index ran
type LoopHit struct {
	Index int
	Hits  uint64
}

// Report is returned by Run instead of being accumulated in global state
type Report struct {
	Steps    uint64
	LoopHits []LoopHit // sorted by Index, only with Options.Profile
}

// Run executes an IR program, raw or optimized, on cells starting at origin.
// It behaves exactly like the generated machine code, including skipping the
// first test of loops flagged as known non-zero.
func Run(p *ir.Program, cells []byte, origin int, port Port, opts Options) (rep Report, err error) {
	match, err := matchProgram(p)
	if err != nil {
		return rep, err
	}
	var hits map[int]uint64
	if opts.Profile {
		hits = make(map[int]uint64)
		defer func() {
			rep.LoopHits = sortedHits(hits)
		}()
	}

	ptr := origin
	var t byte
	cell := func(b int16) (*byte, error) {
		i := ptr + int(b)
		if i < 0 || i >= len(cells) {
			return nil, fmt.Errorf("%w: cell %d", ErrTapeOverrun, i-origin)
		}
		return &cells[i], nil
	}

	for pc := 0; pc < p.Len(); pc++ {
		rep.Steps++
		if opts.MaxSteps > 0 && rep.Steps > opts.MaxSteps {
			return rep, ErrStepLimit
		}
		in := p.At(pc)
		switch in.Op {
		case ir.Nop:
			continue
		case ir.Shift:
			ptr += int(in.B)
			continue
		}
		c, err := cell(in.B)
		if err != nil {
			return rep, fmt.Errorf("instruction %d (%s): %w", pc, *in, err)
		}
		switch in.Op {
		case ir.Add:
			*c += byte(in.A)
		case ir.Set:
			*c = byte(in.A)
		case ir.SetFromTemp:
			*c = t
		case ir.AddTempScaled:
			*c += t * byte(in.A)
		case ir.LoadTemp:
			t = *c + byte(in.A)
		case ir.TempCombine:
			if in.Neg {
				t = *c - t + byte(in.A)
			} else {
				t = *c + t + byte(in.A)
			}
		case ir.LoopEnter:
			if !in.KnownNonZero() && *c == 0 {
				pc = match[pc]
				continue
			}
			if hits != nil {
				hits[pc]++
			}
		case ir.LoopExit:
			if *c != 0 {
				pc = match[pc]
				if hits != nil {
					hits[pc]++
				}
			}
		case ir.Print:
			if err := port.WriteByte(*c); err != nil {
				return rep, fmt.Errorf("write: %w", err)
			}
		case ir.Read:
			if err := read(port, c); err != nil {
				return rep, err
			}
		default:
			return rep, ir.Internalf("interpreter: unexpected %s at instruction %d", in.Op, pc)
		}
	}
	return rep, nil
}

func matchProgram(p *ir.Program) ([]int, error) {
	match := make([]int, p.Len())
	var stack []int
	for i, in := range p.Instrs() {
		switch in.Op {
		case ir.LoopEnter:
			stack = append(stack, i)
		case ir.LoopExit:
			if len(stack) == 0 {
				return nil, p.CheckBrackets()
			}
			open := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			match[open] = i
			match[i] = open
		}
	}
	if len(stack) > 0 {
		return nil, p.CheckBrackets()
	}
	return match, nil
}

func sortedHits(hits map[int]uint64) []LoopHit {
	out := make([]LoopHit, 0, len(hits))
	for i, n := range hits {
		out = append(out, LoopHit{Index: i, Hits: n})
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Index < out[b].Index })
	return out
}
