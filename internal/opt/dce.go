package opt

import "github.com/xyproto/beefit/internal/ir"

// eliminateDeadCode removes stores and scratch register loads whose value is
// never used, and uses the zero cell left behind by a loop exit to simplify
// the next access to that cell.
func eliminateDeadCode(p *ir.Program, o *Options) bool {
	changed := false
	for i := 0; i < p.Len(); i++ {
		in := p.At(i)
		eff := in.Effects()
		if in.Op == ir.Nop || eff.Has(ir.IO) {
			continue
		}
		switch {
		case eff.Has(ir.WriteMem) && deadStore(p, i, o):
			kill(in)
			changed = true
		case eff.Has(ir.WriteTemp) && deadTemp(p, i):
			kill(in)
			changed = true
		case eff.Has(ir.AssertZero):
			if afterLoopExit(p, i) {
				changed = true
			}
		}
	}
	return changed
}

// deadStore reports whether the cell written at i is overwritten before it is
// read again
func deadStore(p *ir.Program, i int, o *Options) bool {
	j, ok := p.SameCell(i, ir.Forward)
	if !ok {
		return p.At(j).Op == ir.End && !o.KeepFinalTape
	}
	return !p.At(j).Effects().Has(ir.ReadMem)
}

// overwritten reports whether the cell accessed at i is written without being
// read before anything else looks at it
func overwritten(p *ir.Program, i int, o *Options) bool {
	j, ok := p.SameCell(i, ir.Forward)
	if !ok {
		return p.At(j).Op == ir.End && !o.KeepFinalTape
	}
	eff := p.At(j).Effects()
	return eff.Has(ir.WriteMem) && !eff.Has(ir.ReadMem)
}

// deadTemp reports whether the scratch register written at i is overwritten
// or abandoned before being read. The register does not survive a bracket.
func deadTemp(p *ir.Program, i int) bool {
	j, ok := p.FindEffect(i, ir.Forward, ir.ReadTemp|ir.WriteTemp)
	if !ok {
		return true
	}
	return !p.At(j).Effects().Has(ir.ReadTemp)
}

// afterLoopExit rewrites the first access to cell 0 after the loop exit at i,
// knowing that the cell holds zero.
func afterLoopExit(p *ir.Program, i int) bool {
	j, ok := p.SameCell(i, ir.Forward)
	if !ok {
		return false
	}
	next := p.At(j)
	switch next.Op {
	case ir.Add:
		*next = ir.MakeSet(next.B, next.A)
		return true
	case ir.AddTempScaled:
		if next.A == 1 {
			*next = ir.MakeSetFromTemp(next.B)
			return true
		}
	case ir.Set:
		if next.A == 0 {
			kill(next)
			return true
		}
	case ir.LoadTemp:
		return propagateTemp(p, j, next.A)
	}
	return false
}

// propagateTemp rewrites the readers of the scratch register loaded at i,
// whose value is known to be c. A zero makes scaled additions dead.
func propagateTemp(p *ir.Program, i int, c int8) bool {
	changed := false
	for j := i + 1; ; j++ {
		in := p.At(j)
		switch in.Op {
		case ir.LoopEnter, ir.LoopExit, ir.End:
			return changed
		case ir.AddTempScaled:
			if d := c * in.A; d != 0 {
				*in = ir.MakeAdd(in.B, d)
			} else {
				kill(in)
			}
			changed = true
		case ir.SetFromTemp:
			*in = ir.MakeSet(in.B, c)
			changed = true
		case ir.TempCombine:
			d := c
			if in.Neg {
				d = -c
			}
			*in = ir.MakeLoadTemp(in.B, in.A+d)
			return true
		default:
			if in.Effects().Has(ir.WriteTemp) {
				return changed
			}
		}
	}
}
