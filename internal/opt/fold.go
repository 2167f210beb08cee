package opt

import "github.com/xyproto/beefit/internal/ir"

// fold combines runs of directly adjacent instructions:
//
//	>>>>  => shift 4
//	++++  => [0] += 4
//	[0] = 3; [0] += 2  => [0] = 5
func fold(p *ir.Program, _ *Options) bool {
	changed := false
	for i := 0; i < p.Len(); {
		begin := p.At(i)
		j := i + 1
		switch begin.Op {
		case ir.Shift:
			for next := p.At(j); next.Op == ir.Shift; next = p.At(j) {
				sum := int(begin.B) + int(next.B)
				if !fitsInt16(sum) {
					break
				}
				begin.B = int16(sum)
				kill(next)
				changed = true
				j++
			}
			if begin.B == 0 {
				kill(begin)
				changed = true
			}
		case ir.Add, ir.Set:
			for next := p.At(j); next.Op == ir.Add && next.B == begin.B; next = p.At(j) {
				begin.A += next.A
				kill(next)
				changed = true
				j++
			}
			if begin.Op == ir.Add && begin.A == 0 {
				kill(begin)
				changed = true
			}
		}
		i = j
	}
	return changed
}
