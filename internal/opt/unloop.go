package opt

import "github.com/xyproto/beefit/internal/ir"

// unloop replaces innermost loops of the form
//
//	[ [0] -= 1; [x] += a; [y] += b ... ]
//
// where the body does not move the pointer and only adds constants, by
//
//	t = [0]; [0] = 0; [x] += t*a; [y] += t*b ...
//
// Each iteration adds a constant to every other cell and the loop runs
// exactly [0] times, so the result does not depend on the loop being taken.
// Anything else (a Shift in the body, a nested bracket, I/O, a store, more
// than one access to [0] or a step other than -1) is left alone.
func unloop(p *ir.Program, _ *Options) bool {
	changed := false
	for i := 0; i < p.Len(); i++ {
		if p.At(i).Op != ir.LoopEnter {
			continue
		}
		exit, dec := unloopCandidate(p, i)
		if exit < 0 {
			continue
		}
		*p.At(i) = ir.MakeLoadTemp(0, 0)
		for k := i + 1; k < exit; k++ {
			in := p.At(k)
			switch {
			case k == dec:
				*in = ir.MakeSet(0, 0)
			case in.Op == ir.Add:
				*in = ir.MakeAddTempScaled(in.B, in.A)
			}
		}
		kill(p.At(exit))
		changed = true
		i = exit
	}
	return changed
}

// unloopCandidate checks the loop opened at i. It returns the index of the
// closing bracket and of the single decrement of cell 0, or -1, -1.
func unloopCandidate(p *ir.Program, i int) (exit, dec int) {
	dec = -1
	for j := i + 1; ; j++ {
		in := p.At(j)
		switch in.Op {
		case ir.Nop:
		case ir.Add:
			if in.B != 0 {
				continue
			}
			if in.A != -1 || dec >= 0 {
				return -1, -1
			}
			dec = j
		case ir.LoopExit:
			if dec < 0 {
				return -1, -1
			}
			return j, dec
		default:
			return -1, -1
		}
	}
}
