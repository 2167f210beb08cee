package opt

import "github.com/xyproto/beefit/internal/ir"

// finalPeephole runs once after the fixpoint. It moves every Shift as far
// back as its straight-line run allows, rebasing the offsets it passes, and
// then flags loops whose cell is known to be non-zero on entry so the code
// generator can skip their first test. The rest of the pipeline assumes a
// Shift only sits before a bracket, so this pass must not feed back into
// the fixpoint.
func finalPeephole(p *ir.Program) {
	hoistShifts(p)
	p.Compact()
	markNonZeroLoops(p)
}

func hoistShifts(p *ir.Program) {
	for i := 0; i < p.Len(); i++ {
		if p.At(i).Op != ir.Shift {
			continue
		}
		for pos := i; ; pos-- {
			s, prev := p.At(pos), p.At(pos-1)
			if prev.Op == ir.Shift {
				sum := int(prev.B) + int(s.B)
				if fitsInt16(sum) {
					prev.B = int16(sum)
					kill(s)
					if sum == 0 {
						kill(prev)
					}
				}
				break
			}
			if !movable(prev.Op) {
				break
			}
			b := int(prev.B) - int(s.B)
			if prev.Op != ir.Nop && !fitsInt16(b) {
				break
			}
			moved := *prev
			if moved.Op != ir.Nop {
				moved.B = int16(b)
			}
			*prev, *s = *s, moved
		}
	}
}

// movable reports whether a Shift can be moved in front of op
func movable(op ir.Op) bool {
	switch op {
	case ir.LoopEnter, ir.LoopExit, ir.End, ir.Shift:
		return false
	}
	return true
}

func markNonZeroLoops(p *ir.Program) {
	for i := 0; i < p.Len(); i++ {
		if p.At(i).Op != ir.LoopEnter || !nonZeroOnEntry(p, i) {
			continue
		}
		p.At(i).A = 1
		p.At(mustMatch(p, i)).A = 1
	}
}

// nonZeroOnEntry looks back from the loop at i for a proof that cell 0 is not
// zero: a non-zero store to it, or the start of an enclosing loop body on the
// same cell, with no pointer movement or other write to the cell in between.
func nonZeroOnEntry(p *ir.Program, i int) bool {
	for j := i - 1; ; j-- {
		in := p.At(j)
		switch in.Op {
		case ir.Nop:
			continue
		case ir.LoopEnter:
			return true
		case ir.Shift, ir.LoopExit, ir.End:
			return false
		case ir.Set:
			if in.B == 0 {
				return in.A != 0
			}
		}
		if in.B == 0 && in.Effects().Has(ir.WriteMem) {
			return false
		}
	}
}
