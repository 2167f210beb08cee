package opt

import "github.com/xyproto/beefit/internal/ir"

// removeDeadLoops deletes loops that can never be entered: a loop that
// directly follows another loop (the previous exit left the cell at zero), or,
// on a zeroed tape, a loop at the very start of the program.
func removeDeadLoops(p *ir.Program, o *Options) bool {
	changed := false
	for i := 0; i < p.Len(); i++ {
		if p.At(i).Op != ir.LoopEnter {
			continue
		}
		switch p.At(p.Prev(i)).Op {
		case ir.LoopExit:
		case ir.End:
			if !o.ZeroTape {
				continue
			}
		default:
			continue
		}
		j := mustMatch(p, i)
		for k := i; k <= j; k++ {
			kill(p.At(k))
		}
		changed = true
		i = j
	}
	return changed
}
