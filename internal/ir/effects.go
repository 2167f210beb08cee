// Completion: 100% - Effect table complete
package ir

// Effect is a bitset describing what an instruction touches
type Effect uint8

const (
	ReadMem    Effect = 1 << iota // reads the cell at B
	WriteMem                      // writes the cell at B
	ReadTemp                      // reads the scratch register
	WriteTemp                     // writes the scratch register
	AssertZero                    // guarantees the cell at B is zero afterwards
	IO                            // externally observable
)

var effectTable = [...]Effect{
	Nop:           0,
	Shift:         0,
	Add:           ReadMem | WriteMem,
	Set:           WriteMem,
	SetFromTemp:   WriteMem | ReadTemp,
	AddTempScaled: ReadMem | WriteMem | ReadTemp,
	LoadTemp:      ReadMem | WriteTemp,
	TempCombine:   ReadMem | ReadTemp | WriteTemp,
	LoopEnter:     ReadMem,
	LoopExit:      ReadMem | AssertZero,
	Print:         ReadMem | IO,
	Read:          ReadMem | WriteMem | IO, // the cell survives end of input
	End:           0,
}

// Effects returns the effect set of op
func Effects(op Op) Effect {
	if int(op) < len(effectTable) {
		return effectTable[op]
	}
	return 0
}

// Has reports whether any bit of mask is set
func (e Effect) Has(mask Effect) bool {
	return e&mask != 0
}

// Effects returns the effect set of the instruction
func (in Instr) Effects() Effect {
	return Effects(in.Op)
}

// TouchesCell reports whether the instruction addresses the tape cell at B
func (in Instr) TouchesCell() bool {
	return Effects(in.Op).Has(ReadMem | WriteMem)
}
