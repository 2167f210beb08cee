package jit

import (
	"bytes"
	"errors"
	"math/rand"
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/xyproto/beefit/internal/engine"
	"github.com/xyproto/beefit/internal/interp"
	"github.com/xyproto/beefit/internal/ir"
	"github.com/xyproto/beefit/internal/opt"
	"github.com/xyproto/beefit/internal/tape"
)

const (
	diffTape     = 1024
	diffOrigin   = diffTape / 2
	diffMaxSteps = 20000
)

var loopShapes = []string{"[-]", "[->+<]", "[->++>+++<<]", "[-<+>]", "[->-<]", "[->+>+<<]>>[-<<+>>]<<", "+[-->+<]"}

func randomSource(r *rand.Rand, depth int) string {
	var sb strings.Builder
	for range 1 + r.Intn(10) {
		switch k := r.Intn(18); {
		case k < 5:
			sb.WriteString(strings.Repeat("+", 1+r.Intn(4)))
		case k < 7:
			sb.WriteString(strings.Repeat("-", 1+r.Intn(3)))
		case k < 9:
			sb.WriteString(strings.Repeat(">", 1+r.Intn(2)))
		case k < 11:
			sb.WriteString(strings.Repeat("<", 1+r.Intn(2)))
		case k < 12:
			sb.WriteByte('.')
		case k < 13:
			sb.WriteByte(',')
		case k < 16:
			sb.WriteString(loopShapes[r.Intn(len(loopShapes))])
		default:
			if depth < 3 {
				sb.WriteString("[" + randomSource(r, depth+1) + "-]")
			}
		}
	}
	return sb.String()
}

// native runs p on a tape laid out like the reference one and returns the
// output together with the cells the reference can see
func native(p *ir.Program, input []byte, dir string) ([]byte, []byte) {
	inPath := filepath.Join(dir, "in")
	Expect(os.WriteFile(inPath, input, 0o600)).To(Succeed())
	in, err := os.Open(inPath)
	Expect(err).NotTo(HaveOccurred())
	defer in.Close()
	out, err := os.Create(filepath.Join(dir, "out"))
	Expect(err).NotTo(HaveOccurred())
	defer out.Close()

	code, err := Generate(p, Config{InFD: int(in.Fd()), OutFD: int(out.Fd())})
	Expect(err).NotTo(HaveOccurred())
	exe, err := Load(code)
	Expect(err).NotTo(HaveOccurred())
	defer exe.Close()

	tp, err := tape.New(diffTape, tape.DefaultPadding)
	Expect(err).NotTo(HaveOccurred())
	defer tp.Close()
	Expect(exe.Run(tp)).To(Succeed())

	output, err := os.ReadFile(out.Name())
	Expect(err).NotTo(HaveOccurred())
	start := tp.Origin() - diffOrigin
	return output, bytes.Clone(tp.Memory()[start : start+diffTape])
}

var _ = Describe("Generated code", func() {
	var r *rand.Rand

	BeforeEach(func() {
		if !engine.Host().CanJIT() {
			Skip("generated code cannot run on " + engine.Host().String())
		}
		r = rand.New(rand.NewSource(GinkgoRandomSeed()))
	})

	compare := func(o *opt.Options) {
		dir := GinkgoT().TempDir()
		checked := 0
		for range 150 {
			src := randomSource(r, 0)
			input := make([]byte, 6)
			r.Read(input)

			var want bytes.Buffer
			cells := make([]byte, diffTape)
			err := interp.RunSource([]byte(src), cells, diffOrigin, interp.NewPort(bytes.NewReader(input), &want), diffMaxSteps)
			if errors.Is(err, interp.ErrStepLimit) || errors.Is(err, interp.ErrTapeOverrun) {
				continue
			}
			Expect(err).NotTo(HaveOccurred(), src)

			p, err := ir.ParseBytes([]byte(src), "random.b")
			Expect(err).NotTo(HaveOccurred())
			if o != nil {
				_, err = opt.Optimize(p, *o)
				Expect(err).NotTo(HaveOccurred(), src)
			}

			out, got := native(p, input, dir)
			Expect(out).To(Equal(want.Bytes()), "%s\n%s", src, ir.Sprint(p))
			Expect(got).To(Equal(cells), "%s\n%s", src, ir.Sprint(p))
			checked++
		}
		Expect(checked).To(BeNumerically(">", 30))
	}

	It("should match the reference interpreter without optimization", func() {
		compare(nil)
	})

	It("should match the reference interpreter after optimization", func() {
		compare(&opt.Options{ZeroTape: true, KeepFinalTape: true, Verify: true})
	})
})
