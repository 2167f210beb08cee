// Completion: 100% - Neighbor scans complete
package ir

// Direction of a neighbor scan
type Direction int

const (
	Backward Direction = -1
	Forward  Direction = 1
)

// isBarrier reports whether a scan must stop at op. The scratch register and
// folded offsets only hold within a straight-line run, so loop brackets and
// the sentinels end every scan.
func isBarrier(op Op) bool {
	return op == LoopEnter || op == LoopExit || op == End
}

// SameCell returns the index of the nearest instruction in direction dir that
// addresses the same cell as the instruction at i. Nops and instructions on
// other cells are skipped. When a Shift, a bracket or a sentinel comes first,
// ok is false and j is the index of that barrier.
func (p *Program) SameCell(i int, dir Direction) (j int, ok bool) {
	b := p.At(i).B
	for j = i + int(dir); ; j += int(dir) {
		in := p.At(j)
		switch {
		case in.Op == Nop:
			continue
		case in.Op == Shift || isBarrier(in.Op):
			return j, false
		case in.TouchesCell() && in.B == b:
			return j, true
		}
	}
}

// FindEffect returns the index of the nearest instruction in direction dir
// whose effects intersect mask. ok is false when a bracket or a sentinel is
// reached first, j is then the barrier's index. Shifts do not stop the scan.
func (p *Program) FindEffect(i int, dir Direction, mask Effect) (j int, ok bool) {
	for j = i + int(dir); ; j += int(dir) {
		in := p.At(j)
		if isBarrier(in.Op) {
			return j, false
		}
		if in.Effects().Has(mask) {
			return j, true
		}
	}
}

// Prev returns the index of the nearest non-Nop instruction before i
func (p *Program) Prev(i int) int {
	j := i - 1
	for p.At(j).Op == Nop {
		j--
	}
	return j
}

// Next returns the index of the nearest non-Nop instruction after i
func (p *Program) Next(i int) int {
	j := i + 1
	for p.At(j).Op == Nop {
		j++
	}
	return j
}
