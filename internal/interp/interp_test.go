package interp

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/golang/mock/gomock"

	"github.com/xyproto/beefit/internal/ir"
)

func newTape() ([]byte, int) {
	cells := make([]byte, 256)
	return cells, 128
}

func TestRunSourceIncrement(t *testing.T) {
	cells, origin := newTape()
	var out bytes.Buffer
	if err := RunSource([]byte("++++"), cells, origin, NewPort(bytes.NewReader(nil), &out), 0); err != nil {
		t.Fatal(err)
	}
	if cells[origin] != 4 {
		t.Errorf("cell 0 = %d, want 4", cells[origin])
	}
	if out.Len() != 0 {
		t.Errorf("unexpected output %v", out.Bytes())
	}
}

func TestRunSourceHello(t *testing.T) {
	src := "++++++++[>++++[>++>+++>+++>+<<<<-]>+>+>->>+[<]<-]>>.>---.+++++++..+++.>>.<-.<.+++.------.--------.>>+.>++."
	cells, origin := newTape()
	var out bytes.Buffer
	if err := RunSource([]byte(src), cells, origin, NewPort(bytes.NewReader(nil), &out), 0); err != nil {
		t.Fatal(err)
	}
	if got := out.String(); got != "Hello World!\n" {
		t.Errorf("output = %q", got)
	}
}

func TestRunSourceEOFKeepsCell(t *testing.T) {
	cells, origin := newTape()
	var out bytes.Buffer
	if err := RunSource([]byte("+++,."), cells, origin, NewPort(bytes.NewReader(nil), &out), 0); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(out.Bytes(), []byte{3}) {
		t.Errorf("output = %v, want [3]", out.Bytes())
	}
}

func TestRunSourceErrors(t *testing.T) {
	cells, _ := newTape()
	port := NewPort(bytes.NewReader(nil), &bytes.Buffer{})
	if err := RunSource([]byte("<+"), cells, 0, port, 0); !errors.Is(err, ErrTapeOverrun) {
		t.Errorf("expected ErrTapeOverrun, got %v", err)
	}
	if err := RunSource([]byte("+[]"), cells, 10, port, 1000); !errors.Is(err, ErrStepLimit) {
		t.Errorf("expected ErrStepLimit, got %v", err)
	}
	if err := RunSource([]byte("]"), cells, 10, port, 0); err == nil {
		t.Error("expected an error for an unmatched ']'")
	}
}

func TestRunMatchesSource(t *testing.T) {
	for _, src := range []string{
		"+++[>++<-]>.",
		",.,.,+.",
		"++>+++++[<+>-]<.",
		"+[>+[>+<-]<-]>>.",
	} {
		input := []byte("abc")
		cells, origin := newTape()
		var want bytes.Buffer
		if err := RunSource([]byte(src), cells, origin, NewPort(bytes.NewReader(input), &want), 0); err != nil {
			t.Fatal(err)
		}

		p, err := ir.ParseBytes([]byte(src), "t.b")
		if err != nil {
			t.Fatal(err)
		}
		got, origin2 := newTape()
		var out bytes.Buffer
		rep, err := Run(p, got, origin2, NewPort(bytes.NewReader(input), &out), Options{})
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(out.Bytes(), want.Bytes()) {
			t.Errorf("%q: output %v, want %v", src, out.Bytes(), want.Bytes())
		}
		if !bytes.Equal(got, cells) {
			t.Errorf("%q: final tape differs", src)
		}
		if rep.Steps == 0 {
			t.Errorf("%q: no steps counted", src)
		}
	}
}

func TestRunProfile(t *testing.T) {
	p, err := ir.ParseBytes([]byte("+++[-]>++[-]"), "t.b")
	if err != nil {
		t.Fatal(err)
	}
	cells, origin := newTape()
	rep, err := Run(p, cells, origin, NewPort(bytes.NewReader(nil), &bytes.Buffer{}), Options{Profile: true})
	if err != nil {
		t.Fatal(err)
	}
	want := []LoopHit{{Index: 3, Hits: 3}, {Index: 9, Hits: 2}}
	if len(rep.LoopHits) != len(want) {
		t.Fatalf("LoopHits = %v, want %v", rep.LoopHits, want)
	}
	for i := range want {
		if rep.LoopHits[i] != want[i] {
			t.Errorf("LoopHits[%d] = %v, want %v", i, rep.LoopHits[i], want[i])
		}
	}
}

func TestRunKnownNonZero(t *testing.T) {
	// A flagged loop skips the entry test, so the body runs once even on a
	// zero cell. The optimizer only flags loops where that cannot happen.
	p := ir.NewProgram([]ir.Instr{
		{Op: ir.LoopEnter, A: 1}, ir.MakeSet(1, 7), ir.MakeSet(0, 0), {Op: ir.LoopExit, A: 1},
	})
	cells, origin := newTape()
	if _, err := Run(p, cells, origin, NewPort(bytes.NewReader(nil), &bytes.Buffer{}), Options{}); err != nil {
		t.Fatal(err)
	}
	if cells[origin+1] != 7 {
		t.Errorf("flagged loop body did not run")
	}
}

func TestRunTempOps(t *testing.T) {
	p := ir.NewProgram([]ir.Instr{
		ir.MakeSet(0, 10), ir.MakeSet(1, 3),
		ir.MakeLoadTemp(0, 1),          // t = 11
		ir.MakeAddTempScaled(2, 2),     // [2] = 22
		ir.MakeTempCombine(1, true, 0), // t = 3 - 11 = -8
		ir.MakeSetFromTemp(3),          // [3] = 248
		ir.MakeTempCombine(1, false, 5), // t = 3 + 248 + 5 = 0 (mod 256)
		ir.MakeSetFromTemp(4),
	})
	cells, origin := newTape()
	if _, err := Run(p, cells, origin, NewPort(bytes.NewReader(nil), &bytes.Buffer{}), Options{}); err != nil {
		t.Fatal(err)
	}
	want := []byte{10, 3, 22, 248, 0}
	if !bytes.Equal(cells[origin:origin+5], want) {
		t.Errorf("cells = %v, want %v", cells[origin:origin+5], want)
	}
}

func TestRunOverrun(t *testing.T) {
	p := ir.NewProgram([]ir.Instr{ir.MakeShift(-5), ir.MakeAdd(0, 1)})
	cells := make([]byte, 8)
	_, err := Run(p, cells, 2, NewPort(bytes.NewReader(nil), &bytes.Buffer{}), Options{})
	if !errors.Is(err, ErrTapeOverrun) {
		t.Errorf("expected ErrTapeOverrun, got %v", err)
	}
}

func TestRunWithMockPort(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	port := NewMockPort(ctrl)
	gomock.InOrder(
		port.EXPECT().ReadByte().Return(byte('a'), nil),
		port.EXPECT().WriteByte(byte('b')).Return(nil),
		port.EXPECT().ReadByte().Return(byte(0), io.EOF),
		port.EXPECT().WriteByte(byte('b')).Return(nil),
	)

	p, err := ir.ParseBytes([]byte(",+.,."), "t.b")
	if err != nil {
		t.Fatal(err)
	}
	cells, origin := newTape()
	if _, err := Run(p, cells, origin, port, Options{}); err != nil {
		t.Fatal(err)
	}
}

func TestRunPortErrors(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	broken := errors.New("broken pipe")
	port := NewMockPort(ctrl)
	port.EXPECT().WriteByte(gomock.Any()).Return(broken)

	p, err := ir.ParseBytes([]byte("+.+."), "t.b")
	if err != nil {
		t.Fatal(err)
	}
	cells, origin := newTape()
	if _, err := Run(p, cells, origin, port, Options{}); !errors.Is(err, broken) {
		t.Errorf("expected the write error, got %v", err)
	}

	port.EXPECT().ReadByte().Return(byte(0), broken)
	if err := RunSource([]byte(","), cells, origin, port, 0); !errors.Is(err, broken) {
		t.Errorf("expected the read error, got %v", err)
	}
}
