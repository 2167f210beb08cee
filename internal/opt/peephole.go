package opt

import "github.com/xyproto/beefit/internal/ir"

// peephole applies small rewrites to pairs of accesses on the same cell:
//
//	[x] = c; [x] += d                 => [x] = c+d
//	[x] += c; [x] += d                => [x] += c+d
//	[x] += t*±1; t = [x]+k; [x] = ...  => t = [x] ± t + k; [x] = ...
//	[x] += d; t = [x]+k; [x] = ...     => t = [x] + k+d; [x] = ...
//	[x] = c; t = [x] + t + k           => (nothing, when c+k wraps to 0)
func peephole(p *ir.Program, o *Options) bool {
	changed := false
	for i := 0; i < p.Len(); i++ {
		in := p.At(i)
		switch in.Op {
		case ir.Set:
			changed = peepholeSet(p, i) || changed
		case ir.Add:
			changed = peepholeAdd(p, i, o) || changed
		case ir.AddTempScaled:
			changed = peepholeScaled(p, i, o) || changed
		}
	}
	return changed
}

func peepholeSet(p *ir.Program, i int) bool {
	in := p.At(i)
	j, ok := p.SameCell(i, ir.Forward)
	if !ok {
		return false
	}
	next := p.At(j)
	switch {
	case next.Op == ir.Add:
		in.A += next.A
		kill(next)
		return true
	case next.Op == ir.TempCombine && !next.Neg && in.A+next.A == 0:
		// the cell holds c, so the combine adds c+k == 0 to t
		kill(next)
		return true
	}
	return false
}

func peepholeAdd(p *ir.Program, i int, o *Options) bool {
	in := p.At(i)
	j, ok := p.SameCell(i, ir.Forward)
	if !ok {
		return false
	}
	next := p.At(j)
	switch next.Op {
	case ir.Add:
		next.A += in.A
		kill(in)
		if next.A == 0 {
			kill(next)
		}
		return true
	case ir.LoadTemp:
		if !overwritten(p, j, o) {
			return false
		}
		next.A += in.A
		kill(in)
		return true
	case ir.TempCombine:
		if !overwritten(p, j, o) || !fitsCombine(int(next.A)+int(in.A)) {
			return false
		}
		next.A += in.A
		kill(in)
		return true
	}
	return false
}

func peepholeScaled(p *ir.Program, i int, o *Options) bool {
	in := p.At(i)
	if in.A != 1 && in.A != -1 {
		return false
	}
	j, ok := p.SameCell(i, ir.Forward)
	if !ok {
		return false
	}
	next := p.At(j)
	if next.Op != ir.LoadTemp || !fitsCombine(int(next.A)) || !overwritten(p, j, o) {
		return false
	}
	// t must still hold the value the scaled add used
	if k, found := p.FindEffect(i, ir.Forward, ir.WriteTemp); !found || k != j {
		return false
	}
	*next = ir.MakeTempCombine(next.B, in.A < 0, next.A)
	kill(in)
	return true
}
