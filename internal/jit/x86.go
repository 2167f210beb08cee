// Completion: 100% - Instruction encoders complete
package jit

// x86-64 encoders for the handful of instructions the generated procedures
// use. Tape cells are always addressed as [rbx+disp]; rbx holds the data
// pointer and r12b the scratch register.

// Register encodings
const (
	regRAX = 0
	regRCX = 1
	regRDX = 2
	regRBX = 3
	regRSP = 4
	regRBP = 5
	regRSI = 6
	regRDI = 7
	regR12 = 12
)

const (
	rexW = 0x48
	rexR = 0x44 // extends ModR/M.reg
	rexB = 0x41 // extends ModR/M.rm
)

// Condition codes for Jcc rel32 (second opcode byte)
type jumpCondition uint8

const (
	jumpEqual    jumpCondition = 0x84 // JE/JZ
	jumpNotEqual jumpCondition = 0x85 // JNE/JNZ
)

func (c jumpCondition) String() string {
	if c == jumpEqual {
		return "je"
	}
	return "jne"
}

func fitsInt8(v int32) bool {
	return v >= -128 && v <= 127
}

// cell writes the ModR/M byte and displacement for [rbx+disp]. reg is the
// low three bits of the register operand or the opcode extension.
func (o *Out) cell(reg uint8, disp int32) {
	switch {
	case disp == 0:
		o.Write(0x00 | (reg&7)<<3 | regRBX)
	case fitsInt8(disp):
		o.Write(0x40 | (reg&7)<<3 | regRBX)
		o.Write(uint8(int8(disp)))
	default:
		o.Write(0x80 | (reg&7)<<3 | regRBX)
		o.Write4(uint32(disp))
	}
}

// AddCellImm emits add byte [rbx+disp], imm (inc/dec for ±1)
func (o *Out) AddCellImm(disp int32, imm int8) {
	switch imm {
	case 1:
		o.mnemonic("inc byte [rbx%+d]", disp)
		o.Write(0xFE)
		o.cell(0, disp)
	case -1:
		o.mnemonic("dec byte [rbx%+d]", disp)
		o.Write(0xFE)
		o.cell(1, disp)
	default:
		o.mnemonic("add byte [rbx%+d], %d", disp, imm)
		o.Write(0x80)
		o.cell(0, disp)
		o.Write(uint8(imm))
	}
	o.endLine()
}

// MovCellImm emits mov byte [rbx+disp], imm
func (o *Out) MovCellImm(disp int32, imm int8) {
	o.mnemonic("mov byte [rbx%+d], %d", disp, imm)
	o.Write(0xC6)
	o.cell(0, disp)
	o.Write(uint8(imm))
	o.endLine()
}

// CmpCellZero emits cmp byte [rbx+disp], 0
func (o *Out) CmpCellZero(disp int32) {
	o.mnemonic("cmp byte [rbx%+d], 0", disp)
	o.Write(0x80)
	o.cell(7, disp)
	o.Write(0x00)
	o.endLine()
}

// MovCellTemp emits mov byte [rbx+disp], r12b
func (o *Out) MovCellTemp(disp int32) {
	o.mnemonic("mov byte [rbx%+d], r12b", disp)
	o.WriteBytes(rexR, 0x88)
	o.cell(regR12, disp)
	o.endLine()
}

// MovTempCell emits mov r12b, byte [rbx+disp]
func (o *Out) MovTempCell(disp int32) {
	o.mnemonic("mov r12b, byte [rbx%+d]", disp)
	o.WriteBytes(rexR, 0x8A)
	o.cell(regR12, disp)
	o.endLine()
}

// AddTempCell emits add r12b, byte [rbx+disp]
func (o *Out) AddTempCell(disp int32) {
	o.mnemonic("add r12b, byte [rbx%+d]", disp)
	o.WriteBytes(rexR, 0x02)
	o.cell(regR12, disp)
	o.endLine()
}

// AddCellTemp emits add byte [rbx+disp], r12b
func (o *Out) AddCellTemp(disp int32) {
	o.mnemonic("add byte [rbx%+d], r12b", disp)
	o.WriteBytes(rexR, 0x00)
	o.cell(regR12, disp)
	o.endLine()
}

// SubCellTemp emits sub byte [rbx+disp], r12b
func (o *Out) SubCellTemp(disp int32) {
	o.mnemonic("sub byte [rbx%+d], r12b", disp)
	o.WriteBytes(rexR, 0x28)
	o.cell(regR12, disp)
	o.endLine()
}

// AddCellAL emits add byte [rbx+disp], al
func (o *Out) AddCellAL(disp int32) {
	o.mnemonic("add byte [rbx%+d], al", disp)
	o.Write(0x00)
	o.cell(regRAX, disp)
	o.endLine()
}

// MulTempToEAX emits movzx eax, r12b; imul eax, eax, imm
func (o *Out) MulTempToEAX(imm int8) {
	o.mnemonic("movzx eax, r12b")
	o.WriteBytes(rexB, 0x0F, 0xB6, 0xC0|regRAX<<3|(regR12&7))
	o.endLine()
	o.mnemonic("imul eax, eax, %d", imm)
	o.WriteBytes(0x6B, 0xC0|regRAX<<3|regRAX, uint8(imm))
	o.endLine()
}

// NegTemp emits neg r12b
func (o *Out) NegTemp() {
	o.mnemonic("neg r12b")
	o.WriteBytes(rexB, 0xF6, 0xC0|3<<3|(regR12&7))
	o.endLine()
}

// AddTempImm emits add r12b, imm
func (o *Out) AddTempImm(imm int8) {
	o.mnemonic("add r12b, %d", imm)
	o.WriteBytes(rexB, 0x80, 0xC0|0<<3|(regR12&7), uint8(imm))
	o.endLine()
}

// AddPtrImm emits add rbx, imm
func (o *Out) AddPtrImm(imm int32) {
	o.mnemonic("add rbx, %d", imm)
	if fitsInt8(imm) {
		o.WriteBytes(rexW, 0x83, 0xC0|regRBX, uint8(int8(imm)))
	} else {
		o.WriteBytes(rexW, 0x81, 0xC0|regRBX)
		o.Write4(uint32(imm))
	}
	o.endLine()
}

// LeaRSICell emits lea rsi, [rbx+disp]
func (o *Out) LeaRSICell(disp int32) {
	o.mnemonic("lea rsi, [rbx%+d]", disp)
	o.WriteBytes(rexW, 0x8D)
	o.cell(regRSI, disp)
	o.endLine()
}

// MovReg32Imm emits mov r32, imm32 for one of the eight legacy registers
func (o *Out) MovReg32Imm(reg uint8, imm uint32) {
	o.mnemonic("mov %s, %d", reg32Names[reg&7], imm)
	o.Write(0xB8 + reg&7)
	o.Write4(imm)
	o.endLine()
}

var reg32Names = [...]string{"eax", "ecx", "edx", "ebx", "esp", "ebp", "esi", "edi"}

// MovRAXImm64 emits mov rax, imm64
func (o *Out) MovRAXImm64(imm uint64) {
	o.mnemonic("mov rax, %#x", imm)
	o.WriteBytes(rexW, 0xB8)
	o.Write8(imm)
	o.endLine()
}

// IncQwordRAX emits inc qword [rax]
func (o *Out) IncQwordRAX() {
	o.mnemonic("inc qword [rax]")
	o.WriteBytes(rexW, 0xFF, 0x00)
	o.endLine()
}

// MovRBXRDI emits mov rbx, rdi
func (o *Out) MovRBXRDI() {
	o.mnemonic("mov rbx, rdi")
	o.WriteBytes(rexW, 0x89, 0xC0|regRDI<<3|regRBX)
	o.endLine()
}

// PushCalleeSaved emits push rbx; push r12
func (o *Out) PushCalleeSaved() {
	o.mnemonic("push rbx")
	o.Write(0x50 + regRBX)
	o.endLine()
	o.mnemonic("push r12")
	o.WriteBytes(rexB, 0x50+regR12&7)
	o.endLine()
}

// PopCalleeSaved emits pop r12; pop rbx
func (o *Out) PopCalleeSaved() {
	o.mnemonic("pop r12")
	o.WriteBytes(rexB, 0x58+regR12&7)
	o.endLine()
	o.mnemonic("pop rbx")
	o.Write(0x58 + regRBX)
	o.endLine()
}

// Syscall emits syscall
func (o *Out) Syscall() {
	o.mnemonic("syscall")
	o.WriteBytes(0x0F, 0x05)
	o.endLine()
}

// Ret emits ret
func (o *Out) Ret() {
	o.mnemonic("ret")
	o.Write(0xC3)
	o.endLine()
}

// JumpConditional emits a Jcc with a 32-bit displacement relative to the end
// of the instruction and returns the position of the displacement, so that
// forward jumps can be patched once the target is known.
func (o *Out) JumpConditional(cond jumpCondition, rel int32) int {
	o.mnemonic("%s %d", cond, rel)
	o.WriteBytes(0x0F, uint8(cond))
	pos := o.Pos()
	o.Write4(uint32(rel))
	o.endLine()
	return pos
}

// JumpConditionalTo emits a Jcc to an already known target offset
func (o *Out) JumpConditionalTo(cond jumpCondition, target int) {
	const size = 6
	o.JumpConditional(cond, int32(target-(o.Pos()+size)))
}

// PatchJump points the displacement at pos to target
func (o *Out) PatchJump(pos, target int) {
	o.Patch4(pos, uint32(int32(target-(pos+4))))
}
