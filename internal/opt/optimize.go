// Completion: 100% - Optimizer driver complete
package opt

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/xyproto/beefit/internal/ir"
)

// optimize.go - IR rewrite pipeline
//
// The passes below rewrite a Program in place. Each one reports whether it
// changed anything, and the driver repeats the whole sequence until a round
// makes no change. Every rule only looks inside a straight-line run bounded
// by brackets, because neither the scratch register nor folded offsets
// survive a loop iteration.

const defaultMaxRounds = 1000

// Options configures the optimizer
type Options struct {
	// ZeroTape means every cell is zero when the program starts, which makes
	// a loop at the very start of the program dead.
	ZeroTape bool
	// KeepFinalTape makes the tape contents at End observable, so writes
	// right before the end of the program are kept.
	KeepFinalTape bool
	// Verify checks the bracket structure after every pass
	Verify bool
	// MaxRounds bounds the fixpoint iteration, 0 means the default
	MaxRounds int
	Logger    *slog.Logger
}

// DefaultOptions returns the options used by the command line tool
func DefaultOptions() Options {
	return Options{ZeroTape: true}
}

// Result summarizes an optimizer run
type Result struct {
	Rounds  int
	Changes map[string]int // rounds in which each pass changed something
	RawSize int
	OptSize int
}

type pass struct {
	name string
	run  func(p *ir.Program, o *Options) bool
}

var fixpointPasses = []pass{
	{"fold", fold},
	{"condense", condense},
	{"deadloop", removeDeadLoops},
	{"unloop", unloop},
	{"dce", eliminateDeadCode},
	{"peephole", peephole},
}

// Optimize runs the fixpoint passes followed by the final peephole pass and
// returns the statistics. p is rewritten in place and left compacted.
func Optimize(p *ir.Program, opts Options) (Result, error) {
	res, err := Fixpoint(p, opts)
	if err != nil {
		return res, err
	}
	err = guard(func() {
		finalPeephole(p)
		if opts.Verify {
			verify(p, "final")
		}
	})
	res.OptSize = p.Len()
	return res, err
}

// Fixpoint repeats the rewrite passes until none of them reports a change.
// Running it again on its own output makes no further change.
func Fixpoint(p *ir.Program, opts Options) (res Result, err error) {
	if opts.MaxRounds <= 0 {
		opts.MaxRounds = defaultMaxRounds
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	res.RawSize = p.Len()
	res.Changes = make(map[string]int, len(fixpointPasses))

	err = guard(func() {
		for {
			res.Rounds++
			if res.Rounds > opts.MaxRounds {
				panic(ir.Internalf("optimizer did not settle after %d rounds", opts.MaxRounds))
			}
			changed := false
			for _, ps := range fixpointPasses {
				if ps.run(p, &opts) {
					changed = true
					res.Changes[ps.name]++
					opts.Logger.Debug("pass changed program",
						"pass", ps.name, "round", res.Rounds, "size", p.Len())
				}
				if opts.Verify {
					verify(p, ps.name)
				}
			}
			if !changed {
				break
			}
		}
	})
	res.OptSize = p.Len()
	return res, err
}

// guard turns internal error panics raised by the passes into errors
func guard(f func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			var ce *ir.CompilerError
			if e, ok := r.(error); ok && errors.As(e, &ce) {
				err = ce
				return
			}
			panic(r)
		}
	}()
	f()
	return nil
}

func verify(p *ir.Program, after string) {
	if err := p.CheckBrackets(); err != nil {
		ce := ir.Internalf("bracket structure broken after %s", after)
		ce.Err = err
		panic(ce)
	}
}

func kill(in *ir.Instr) {
	*in = ir.Instr{Op: ir.Nop}
}

func fitsInt16(v int) bool {
	return v >= -1<<15 && v < 1<<15
}

func fitsCombine(v int) bool {
	return v >= ir.MinCombineOffset && v <= ir.MaxCombineOffset
}

func mustMatch(p *ir.Program, i int) int {
	j := p.Match(i)
	if j < 0 {
		panic(ir.Internalf("no matching bracket for instruction %d (%s)", i, p.At(i)))
	}
	return j
}

// String implements fmt.Stringer for log output
func (r Result) String() string {
	return fmt.Sprintf("rounds:%d raw:%d opt:%d", r.Rounds, r.RawSize, r.OptSize)
}
