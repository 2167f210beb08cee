package opt

import "github.com/xyproto/beefit/internal/ir"

// condense removes Nops and folds pointer movement into cell offsets, so that
// a Shift only remains right before a bracket:
//
//	+>+<<  =>  [0] += 1; [1] += 1; shift -1 (emitted before the next bracket)
//
// A trailing Shift before End is dropped, the pointer position at the end
// of the program is not observable.
func condense(p *ir.Program, _ *Options) bool {
	changed := false
	dst := 0
	offset := 0
	emit := func(in ir.Instr) {
		if *p.At(dst) != in {
			changed = true
		}
		*p.At(dst) = in
		dst++
	}
	for src := 0; src < p.Len(); src++ {
		in := *p.At(src)
		switch in.Op {
		case ir.Nop:
		case ir.Shift:
			if !fitsInt16(offset + int(in.B)) {
				emit(ir.MakeShift(int16(offset)))
				offset = 0
			}
			offset += int(in.B)
		case ir.LoopEnter, ir.LoopExit:
			if offset != 0 {
				emit(ir.MakeShift(int16(offset)))
				offset = 0
			}
			emit(in)
		case ir.Add, ir.Set, ir.SetFromTemp, ir.AddTempScaled, ir.LoadTemp,
			ir.TempCombine, ir.Print, ir.Read:
			b := offset + int(in.B)
			if !fitsInt16(b) {
				// the run drifted too far, move the pointer here
				emit(ir.MakeShift(int16(offset)))
				offset = 0
				b = int(in.B)
			}
			in.B = int16(b)
			emit(in)
		default:
			panic(ir.Internalf("condense: unexpected %s at instruction %d", in.Op, src))
		}
	}
	if dst != p.Len() {
		changed = true
	}
	p.Truncate(dst)
	return changed
}
