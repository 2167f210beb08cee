package opt

import (
	"bytes"
	"errors"
	"math/rand"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/xyproto/beefit/internal/interp"
	"github.com/xyproto/beefit/internal/ir"
)

const (
	diffTape     = 2048
	diffOrigin   = diffTape / 2
	diffPad      = 256 // spare cells for unlooped bodies that never ran
	diffMaxSteps = 20000
)

// idioms are loop shapes real programs are made of, mixed into the random
// programs so that unloop and the peephole rules have something to match
var idioms = []string{
	"[-]", "[->+<]", "[->++>+++<<]", "[-<+>]", "[->-<]", "[>+<-]", "[-]>[-<+>]<",
	">>[-<<+>>]<<", "[->+>+<<]>>[-<<+>>]<<", "+[-->+<]", "[>]", "[<]",
}

// randomProgram returns a program with balanced brackets. Pointer movement
// stays small so that the reference interpreter rarely leaves the tape.
func randomProgram(r *rand.Rand, depth int) string {
	var sb strings.Builder
	n := 1 + r.Intn(12)
	for range n {
		switch k := r.Intn(20); {
		case k < 5:
			sb.WriteString(strings.Repeat("+", 1+r.Intn(4)))
		case k < 7:
			sb.WriteString(strings.Repeat("-", 1+r.Intn(3)))
		case k < 10:
			sb.WriteString(strings.Repeat(">", 1+r.Intn(2)))
		case k < 12:
			sb.WriteString(strings.Repeat("<", 1+r.Intn(2)))
		case k < 13:
			sb.WriteByte('.')
		case k < 14:
			sb.WriteByte(',')
		case k < 17:
			sb.WriteString(idioms[r.Intn(len(idioms))])
		default:
			if depth < 4 {
				sb.WriteByte('[')
				sb.WriteString(randomProgram(r, depth+1))
				sb.WriteString("-]")
			}
		}
	}
	return sb.String()
}

type outcome struct {
	out   []byte
	cells []byte
	err   error
}

func reference(src string, input []byte) outcome {
	var out bytes.Buffer
	cells := make([]byte, diffTape)
	err := interp.RunSource([]byte(src), cells, diffOrigin, interp.NewPort(bytes.NewReader(input), &out), diffMaxSteps)
	return outcome{out: out.Bytes(), cells: cells, err: err}
}

func optimized(p *ir.Program, input []byte) outcome {
	var out bytes.Buffer
	mem := make([]byte, diffTape+2*diffPad)
	_, err := interp.Run(p, mem, diffPad+diffOrigin, interp.NewPort(bytes.NewReader(input), &out), interp.Options{MaxSteps: 10 * diffMaxSteps})
	return outcome{out: out.Bytes(), cells: mem[diffPad : diffPad+diffTape], err: err}
}

var _ = Describe("Optimizer", func() {
	var r *rand.Rand

	BeforeEach(func() {
		r = rand.New(rand.NewSource(GinkgoRandomSeed()))
	})

	// checked reports how many generated programs actually finished on the
	// reference interpreter, so that a generator that only produces endless
	// loops fails loudly
	differential := func(opts Options, compareTape bool) int {
		checked := 0
		for range 400 {
			src := randomProgram(r, 0)
			input := make([]byte, 8)
			r.Read(input)

			want := reference(src, input)
			if errors.Is(want.err, interp.ErrStepLimit) || errors.Is(want.err, interp.ErrTapeOverrun) {
				continue
			}
			Expect(want.err).NotTo(HaveOccurred(), src)

			p, err := ir.ParseBytes([]byte(src), "random.b")
			Expect(err).NotTo(HaveOccurred())
			opts.Verify = true
			_, err = Optimize(p, opts)
			Expect(err).NotTo(HaveOccurred(), src)

			got := optimized(p, input)
			Expect(got.err).NotTo(HaveOccurred(), "%s\n%s", src, ir.Sprint(p))
			Expect(got.out).To(Equal(want.out), "%s\n%s", src, ir.Sprint(p))
			if compareTape {
				Expect(got.cells).To(Equal(want.cells), "%s\n%s", src, ir.Sprint(p))
			}
			checked++
		}
		return checked
	}

	It("should preserve output and final tape", func() {
		checked := differential(Options{ZeroTape: true, KeepFinalTape: true}, true)
		Expect(checked).To(BeNumerically(">", 50))
	})

	It("should preserve output when the final tape is not observable", func() {
		checked := differential(DefaultOptions(), false)
		Expect(checked).To(BeNumerically(">", 50))
	})

	It("should reach a fixpoint that a second run leaves alone", func() {
		for range 200 {
			p, err := ir.ParseBytes([]byte(randomProgram(r, 0)), "random.b")
			Expect(err).NotTo(HaveOccurred())
			_, err = Fixpoint(p, DefaultOptions())
			Expect(err).NotTo(HaveOccurred())

			before := p.Clone()
			res, err := Fixpoint(p, DefaultOptions())
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Changes).To(BeEmpty())
			Expect(p.Instrs()).To(Equal(before.Instrs()))
		}
	})

	It("should keep brackets balanced after every pass", func() {
		for range 200 {
			p, err := ir.ParseBytes([]byte(randomProgram(r, 0)), "random.b")
			Expect(err).NotTo(HaveOccurred())
			for _, ps := range fixpointPasses {
				o := DefaultOptions()
				ps.run(p, &o)
				Expect(p.CheckBrackets()).To(Succeed(), ps.name)
			}
		}
	})

	DescribeTable("unlooping the transfer idiom",
		func(src string, start, want []byte) {
			p, err := ir.ParseBytes([]byte(src), "idiom.b")
			Expect(err).NotTo(HaveOccurred())
			_, err = Optimize(p, Options{KeepFinalTape: true})
			Expect(err).NotTo(HaveOccurred())
			Expect(p.Count(ir.LoopEnter)).To(BeZero(), ir.Sprint(p))

			cells := make([]byte, 64)
			copy(cells[32:], start)
			_, err = interp.Run(p, cells, 32, interp.NewPort(bytes.NewReader(nil), &bytes.Buffer{}), interp.Options{})
			Expect(err).NotTo(HaveOccurred())
			Expect(cells[32 : 32+len(want)]).To(Equal(want))
		},
		Entry("move", "[->+<]", []byte{5, 0}, []byte{0, 5}),
		Entry("add to existing", "[->+<]", []byte{5, 7}, []byte{0, 12}),
		Entry("copy to two cells", "[->+>+<<]", []byte{3, 0, 1}, []byte{0, 3, 4}),
		Entry("scaled", "[->+++<]", []byte{100, 0}, []byte{0, 44}),
		Entry("subtract", "[->-<]", []byte{3, 10}, []byte{0, 7}),
		Entry("two cells over", "[->>++<<]", []byte{2, 0, 1}, []byte{0, 0, 5}),
	)
})
