// Completion: 100% - Code generator complete
package jit

import (
	"fmt"
	"io"
	"os"
	"unsafe"

	"github.com/xyproto/beefit/internal/interp"
	"github.com/xyproto/beefit/internal/ir"
)

// Linux x86-64 system call numbers
const (
	sysRead  = 0
	sysWrite = 1
)

// Config controls code generation
type Config struct {
	InFD    int       // file descriptor Read instructions read from
	OutFD   int       // file descriptor Print instructions write to
	Profile bool      // count loop iterations
	Trace   io.Writer // receives a listing of the emitted instructions
}

// DefaultConfig reads stdin and writes stdout
func DefaultConfig() Config {
	return Config{InFD: 0, OutFD: 1}
}

// Code is a generated procedure, not yet executable. The procedure follows
// the System V calling convention and takes the address of tape cell 0 as its
// only argument.
type Code struct {
	bytes    []byte
	counters []uint64 // loop iteration counters, referenced by address from the code
	loops    []int    // instruction index of the loop each counter belongs to
}

// Bytes returns the machine code
func (c *Code) Bytes() []byte {
	return c.bytes
}

// Size returns the machine code size in bytes
func (c *Code) Size() int {
	return len(c.bytes)
}

// LoopHits returns the loop counters collected by profiling runs
func (c *Code) LoopHits() []interp.LoopHit {
	hits := make([]interp.LoopHit, len(c.loops))
	for i, idx := range c.loops {
		hits[i] = interp.LoopHit{Index: idx, Hits: c.counters[i]}
	}
	return hits
}

// WriteFile dumps the raw machine code, view it with
//
//	objdump -D -b binary -mi386:x86-64 FILE
func (c *Code) WriteFile(path string) error {
	return os.WriteFile(path, c.bytes, 0o644)
}

type loopLabel struct {
	body  int // offset of the first body instruction
	fixup int // offset of the forward jump displacement, -1 without one
}

type generator struct {
	o      *Out
	cfg    Config
	code   *Code
	labels []loopLabel
}

// Generate lowers p to x86-64 machine code in a single pass
func Generate(p *ir.Program, cfg Config) (*Code, error) {
	g := &generator{
		o:    NewOut(cfg.Trace),
		cfg:  cfg,
		code: &Code{},
	}
	if cfg.Profile {
		n := p.Count(ir.LoopEnter)
		g.code.counters = make([]uint64, n)
		g.code.loops = make([]int, 0, n)
	}

	g.o.PushCalleeSaved()
	g.o.MovRBXRDI()
	for i, in := range p.Instrs() {
		if err := g.emit(i, in); err != nil {
			return nil, err
		}
	}
	if len(g.labels) > 0 {
		return nil, codegenError("%d loop(s) never closed", len(g.labels))
	}
	g.o.PopCalleeSaved()
	g.o.Ret()

	g.code.bytes = g.o.Bytes()
	return g.code, nil
}

func (g *generator) emit(i int, in ir.Instr) error {
	o := g.o
	disp := int32(in.B)
	switch in.Op {
	case ir.Nop:
	case ir.Shift:
		if in.B != 0 {
			o.AddPtrImm(disp)
		}
	case ir.Add:
		if in.A != 0 {
			o.AddCellImm(disp, in.A)
		}
	case ir.Set:
		o.MovCellImm(disp, in.A)
	case ir.SetFromTemp:
		o.MovCellTemp(disp)
	case ir.AddTempScaled:
		switch in.A {
		case 0:
		case 1:
			o.AddCellTemp(disp)
		case -1:
			o.SubCellTemp(disp)
		default:
			o.MulTempToEAX(in.A)
			o.AddCellAL(disp)
		}
	case ir.LoadTemp:
		o.MovTempCell(disp)
		if in.A != 0 {
			o.AddTempImm(in.A)
		}
	case ir.TempCombine:
		if in.Neg {
			o.NegTemp()
		}
		o.AddTempCell(disp)
		if in.A != 0 {
			o.AddTempImm(in.A)
		}
	case ir.LoopEnter:
		label := loopLabel{fixup: -1}
		if !in.KnownNonZero() {
			o.CmpCellZero(disp)
			label.fixup = o.JumpConditional(jumpEqual, 0)
		}
		label.body = o.Pos()
		g.labels = append(g.labels, label)
		if g.cfg.Profile {
			g.count(i)
		}
	case ir.LoopExit:
		if len(g.labels) == 0 {
			return codegenError("unmatched loop exit at instruction %d", i)
		}
		label := g.labels[len(g.labels)-1]
		g.labels = g.labels[:len(g.labels)-1]
		// the exit test runs even for loops known to be entered
		o.CmpCellZero(disp)
		o.JumpConditionalTo(jumpNotEqual, label.body)
		if label.fixup >= 0 {
			o.PatchJump(label.fixup, o.Pos())
		}
	case ir.Print:
		g.syscall(sysWrite, g.cfg.OutFD, disp)
	case ir.Read:
		g.syscall(sysRead, g.cfg.InFD, disp)
	case ir.End:
		return codegenError("end of program inside the instruction stream at %d", i)
	default:
		return codegenError("cannot lower %s at instruction %d", in.Op, i)
	}
	return nil
}

// syscall emits read/write(fd, rbx+disp, 1). rbx and r12 survive the call.
func (g *generator) syscall(nr uint32, fd int, disp int32) {
	g.o.MovReg32Imm(regRAX, nr)
	g.o.MovReg32Imm(regRDI, uint32(fd))
	g.o.LeaRSICell(disp)
	g.o.MovReg32Imm(regRDX, 1)
	g.o.Syscall()
}

// count increments the counter of the loop opened at instruction i
func (g *generator) count(i int) {
	n := len(g.code.loops)
	g.code.loops = append(g.code.loops, i)
	addr := uintptr(unsafe.Pointer(&g.code.counters[n]))
	g.o.MovRAXImm64(uint64(addr))
	g.o.IncQwordRAX()
}

func codegenError(format string, args ...any) *ir.CompilerError {
	return &ir.CompilerError{
		Level:    ir.LevelFatal,
		Category: ir.CategoryCodegen,
		Message:  fmt.Sprintf(format, args...),
	}
}
