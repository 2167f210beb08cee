// Completion: 100% - Instruction record complete
package ir

import "fmt"

// Op is the instruction tag
type Op uint8

const (
	Nop           Op = iota
	Shift            // p += B
	Add              // tape[p+B] += A
	Set              // tape[p+B] = A
	SetFromTemp      // tape[p+B] = temp
	AddTempScaled    // tape[p+B] += temp * A
	LoadTemp         // temp = tape[p+B] + A
	TempCombine      // temp = tape[p+B] + (Neg ? -temp : temp) + A
	LoopEnter        // while tape[p] != 0 {
	LoopExit         // }
	Print            // write tape[p+B]
	Read             // tape[p+B] = read
	End              // sentinel
)

var opNames = [...]string{
	Nop:           "nop",
	Shift:         "shift",
	Add:           "add",
	Set:           "set",
	SetFromTemp:   "set.t",
	AddTempScaled: "add.t",
	LoadTemp:      "load.t",
	TempCombine:   "comb.t",
	LoopEnter:     "[",
	LoopExit:      "]",
	Print:         "print",
	Read:          "read",
	End:           "end",
}

func (op Op) String() string {
	if int(op) < len(opNames) {
		return opNames[op]
	}
	return fmt.Sprintf("op(%d)", uint8(op))
}

// IsBracket reports whether op opens or closes a loop
func (op Op) IsBracket() bool {
	return op == LoopEnter || op == LoopExit
}

// TempCombine offsets are limited to 7 signed bits, the peephole rule that
// creates them refuses anything wider.
const (
	MinCombineOffset = -64
	MaxCombineOffset = 63
)

// Instr is one IR element. The meaning of A depends on Op: an immediate delta
// (Add), the stored constant (Set), a multiplier (AddTempScaled), an offset
// added to the loaded value (LoadTemp, TempCombine) or the "known non-zero on
// entry" flag (LoopEnter, LoopExit). B is a cell offset relative to the data
// pointer, or the pointer delta for Shift. Neg is only used by TempCombine.
type Instr struct {
	Op  Op
	A   int8
	B   int16
	Neg bool
}

// Constructors used by the passes and tests

func MakeShift(delta int16) Instr    { return Instr{Op: Shift, B: delta} }
func MakeAdd(off int16, d int8) Instr { return Instr{Op: Add, A: d, B: off} }
func MakeSet(off int16, v int8) Instr { return Instr{Op: Set, A: v, B: off} }
func MakeSetFromTemp(off int16) Instr { return Instr{Op: SetFromTemp, B: off} }
func MakeLoadTemp(off int16, d int8) Instr {
	return Instr{Op: LoadTemp, A: d, B: off}
}
func MakeAddTempScaled(off int16, mul int8) Instr {
	return Instr{Op: AddTempScaled, A: mul, B: off}
}
func MakeTempCombine(off int16, neg bool, d int8) Instr {
	return Instr{Op: TempCombine, A: d, B: off, Neg: neg}
}
func MakePrint(off int16) Instr { return Instr{Op: Print, B: off} }
func MakeRead(off int16) Instr  { return Instr{Op: Read, B: off} }

// KnownNonZero reports whether a bracket was proven to be entered with a
// non-zero cell
func (in Instr) KnownNonZero() bool {
	return in.Op.IsBracket() && in.A != 0
}

func (in Instr) String() string {
	switch in.Op {
	case Nop, End:
		return in.Op.String()
	case Shift:
		return fmt.Sprintf("shift %d", in.B)
	case Add:
		return fmt.Sprintf("[%d] += %d", in.B, in.A)
	case Set:
		return fmt.Sprintf("[%d] = %d", in.B, in.A)
	case SetFromTemp:
		return fmt.Sprintf("[%d] = t", in.B)
	case AddTempScaled:
		return fmt.Sprintf("[%d] += t*%d", in.B, in.A)
	case LoadTemp:
		if in.A != 0 {
			return fmt.Sprintf("t = [%d] + %d", in.B, in.A)
		}
		return fmt.Sprintf("t = [%d]", in.B)
	case TempCombine:
		sign := "+"
		if in.Neg {
			sign = "-"
		}
		if in.A != 0 {
			return fmt.Sprintf("t = [%d] %s t + %d", in.B, sign, in.A)
		}
		return fmt.Sprintf("t = [%d] %s t", in.B, sign)
	case LoopEnter, LoopExit:
		if in.A != 0 {
			return in.Op.String() + "!"
		}
		return in.Op.String()
	case Print:
		return fmt.Sprintf("print [%d]", in.B)
	case Read:
		return fmt.Sprintf("[%d] = read", in.B)
	}
	return fmt.Sprintf("%s a=%d b=%d", in.Op, in.A, in.B)
}
