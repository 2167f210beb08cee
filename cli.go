// Completion: 100% - CLI complete
package main

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"golang.org/x/sync/errgroup"

	"github.com/xyproto/beefit/internal/engine"
	"github.com/xyproto/beefit/internal/interp"
	"github.com/xyproto/beefit/internal/ir"
	"github.com/xyproto/beefit/internal/jit"
	"github.com/xyproto/beefit/internal/opt"
	"github.com/xyproto/beefit/internal/tape"
)

// cli.go - subcommands
//
// - beefit [run] FILE (compile and run, stdin when FILE is missing)
// - beefit dump FILE (print the optimized instruction listing)
// - beefit check FILE (run the reference interpreter and the selected
//   backend on the same input and compare the output)

var errMismatch = errors.New("output mismatch")

// CommandContext holds the execution context for a CLI command
type CommandContext struct {
	Args    []string
	Config  Config
	Backend engine.Backend // already resolved for the host
	Log     *slog.Logger
	In      *os.File
	Out     *os.File
	Err     io.Writer
	// OnExit registers cleanup that must also run when the process exits
	// through a fatal error path
	OnExit func(func())
}

// build is everything produced from one source file
type build struct {
	name     string
	src      []byte
	program  *ir.Program
	result   opt.Result
	code     *jit.Code // nil unless generated
	pipeline *Pipeline
}

// RunCLI is the main entry point for the CLI. It determines which command to
// run based on the arguments.
func RunCLI(ctx *CommandContext) error {
	if ctx.OnExit == nil {
		ctx.OnExit = func(func()) {}
	}
	args := ctx.Args
	if len(args) == 0 {
		return cmdRun(ctx, nil)
	}
	switch args[0] {
	case "run":
		return cmdRun(ctx, args[1:])
	case "dump":
		if len(args) < 2 {
			return fmt.Errorf("usage: beefit dump <file>")
		}
		return cmdDump(ctx, args[1:])
	case "check":
		if len(args) < 2 {
			return fmt.Errorf("usage: beefit check <file>")
		}
		return cmdCheck(ctx, args[1:])
	case "help":
		return cmdHelp(ctx)
	case "version":
		fmt.Fprintln(ctx.Out, versionString)
		return nil
	default:
		return cmdRun(ctx, args)
	}
}

// readSource reads the program from the first argument, or from stdin
func readSource(ctx *CommandContext, args []string) (string, []byte, error) {
	if len(args) == 0 || args[0] == "-" {
		src, err := io.ReadAll(ctx.In)
		if err != nil {
			return "", nil, fmt.Errorf("reading program from stdin: %w", err)
		}
		return "<stdin>", src, nil
	}
	if len(args) > 1 {
		return "", nil, fmt.Errorf("expected one program, got %d arguments", len(args))
	}
	src, err := os.ReadFile(args[0])
	if err != nil {
		return "", nil, err
	}
	return args[0], src, nil
}

// compile parses and optimizes src, and generates machine code when
// generate is set
func compile(ctx *CommandContext, name string, src []byte, generate bool, jcfg jit.Config) (*build, error) {
	b := &build{name: name, src: src, pipeline: NewPipeline(ctx.Log)}

	b.pipeline.AdvanceTo(StageParse)
	p, err := ir.ParseBytes(src, name)
	if err != nil {
		return nil, err
	}
	b.program = p
	b.result = opt.Result{RawSize: p.Len(), OptSize: p.Len()}
	if p.Len() == 0 {
		warning := &ir.CompilerError{
			Level:    ir.LevelWarning,
			Category: ir.CategorySyntax,
			Message:  "program contains no commands",
			Location: ir.SourceLocation{File: name},
		}
		fmt.Fprint(ctx.Err, warning.Format(false))
	}

	if !ctx.Config.NoOpt {
		b.pipeline.AdvanceTo(StageOptimize)
		opts := opt.DefaultOptions()
		opts.KeepFinalTape = ctx.Config.KeepFinalTape
		opts.Verify = ctx.Config.Verbose
		opts.Logger = ctx.Log
		b.result, err = opt.Optimize(p, opts)
		if err != nil {
			return nil, err
		}
		ctx.Log.Debug("optimized", "file", name, "result", b.result.String())
	}

	if generate {
		b.pipeline.AdvanceTo(StageGenerate)
		b.code, err = jit.Generate(p, jcfg)
		if err != nil {
			return nil, err
		}
		ctx.Log.Debug("generated", "file", name, "bytes", b.code.Size())
		if ctx.Config.DumpCode != "" {
			if err := b.code.WriteFile(ctx.Config.DumpCode); err != nil {
				return nil, fmt.Errorf("dumping code: %w", err)
			}
		}
	}
	return b, nil
}

// jitConfig points Print and Read at the given files
func jitConfig(ctx *CommandContext, in, out *os.File) jit.Config {
	cfg := jit.Config{
		InFD:    int(in.Fd()),
		OutFD:   int(out.Fd()),
		Profile: ctx.Config.Profile,
	}
	if ctx.Config.Verbose {
		cfg.Trace = ctx.Err
	}
	return cfg
}

func (ctx *CommandContext) wantsCode() bool {
	return ctx.Backend == engine.BackendJIT || ctx.Config.DumpCode != "" || ctx.Config.Stats
}

// execute runs a compiled program with the configured backend, reading from
// in and writing to out
func execute(ctx *CommandContext, b *build, in, out *os.File) ([]interp.LoopHit, error) {
	t, err := tape.New(ctx.Config.TapeSize, ctx.Config.Padding)
	if err != nil {
		return nil, &ir.CompilerError{Level: ir.LevelFatal, Category: ir.CategoryResource, Message: "tape", Err: err}
	}
	defer t.Close()
	ctx.OnExit(func() { t.Close() })

	if ctx.Backend == engine.BackendJIT {
		b.pipeline.AdvanceTo(StageLoad)
		exe, err := jit.Load(b.code)
		if err != nil {
			return nil, err
		}
		defer exe.Close()
		ctx.OnExit(func() { exe.Close() })

		b.pipeline.AdvanceTo(StageRun)
		if err := exe.Run(t); err != nil {
			return nil, err
		}
		b.pipeline.AdvanceTo(StageComplete)
		return exe.Code().LoopHits(), nil
	}

	b.pipeline.AdvanceTo(StageRun)
	w := bufio.NewWriter(out)
	port := interp.NewPort(bufio.NewReader(in), w)
	rep, err := interp.Run(b.program, t.Memory(), t.Origin(), port, interp.Options{Profile: ctx.Config.Profile})
	if ferr := w.Flush(); err == nil {
		err = ferr
	}
	if err != nil {
		return nil, err
	}
	ctx.Log.Debug("interpreted", "steps", rep.Steps)
	b.pipeline.AdvanceTo(StageComplete)
	return rep.LoopHits, nil
}

// report prints the statistics and the loop profile when asked for
func report(ctx *CommandContext, b *build, hits []interp.LoopHit) {
	if ctx.Config.Stats {
		size := 0
		if b.code != nil {
			size = b.code.Size()
		}
		writeStats(ctx.Err, b.result, size)
	}
	if ctx.Config.Profile && len(hits) > 0 {
		writeProfile(ctx.Err, b.program, hits)
	}
}

// cmdRun compiles a program and runs it on stdin and stdout
func cmdRun(ctx *CommandContext, args []string) error {
	name, src, err := readSource(ctx, args)
	if err != nil {
		return err
	}
	b, err := compile(ctx, name, src, ctx.wantsCode(), jitConfig(ctx, ctx.In, ctx.Out))
	if err != nil {
		return err
	}
	hits, err := execute(ctx, b, ctx.In, ctx.Out)
	if err != nil {
		return err
	}
	report(ctx, b, hits)
	return nil
}

// cmdDump prints the optimized program without running it
func cmdDump(ctx *CommandContext, args []string) error {
	name, src, err := readSource(ctx, args)
	if err != nil {
		return err
	}
	b, err := compile(ctx, name, src, true, jitConfig(ctx, ctx.In, ctx.Out))
	if err != nil {
		return err
	}
	b.pipeline.AdvanceTo(StageComplete)
	if err := ir.Fprint(ctx.Out, b.program); err != nil {
		return err
	}
	report(ctx, b, nil)
	return nil
}

// cmdCheck runs the unoptimized reference interpreter and the selected
// backend side by side on the same input and compares their output. The
// compiled program writes to a temporary file: generated code cannot be
// preempted, so it must never block on a pipe drained by another goroutine.
func cmdCheck(ctx *CommandContext, args []string) error {
	name, src, err := readSource(ctx, args)
	if err != nil {
		return err
	}
	input, err := io.ReadAll(ctx.In)
	if err != nil {
		return fmt.Errorf("reading input: %w", err)
	}

	inFile, err := tempFile("beefit-in-*", input)
	if err != nil {
		return err
	}
	defer removeTemp(inFile)
	outFile, err := tempFile("beefit-out-*", nil)
	if err != nil {
		return err
	}
	defer removeTemp(outFile)

	b, err := compile(ctx, name, src, ctx.wantsCode(), jitConfig(ctx, inFile, outFile))
	if err != nil {
		return err
	}

	var want bytes.Buffer
	var hits []interp.LoopHit
	var g errgroup.Group
	g.Go(func() error {
		cells := make([]byte, ctx.Config.TapeSize+2*ctx.Config.Padding)
		port := interp.NewPort(bytes.NewReader(input), &want)
		if err := interp.RunSource(src, cells, ctx.Config.Padding, port, 0); err != nil {
			return fmt.Errorf("reference interpreter: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		hits, err = execute(ctx, b, inFile, outFile)
		if err != nil {
			return fmt.Errorf("%s backend: %w", ctx.Backend, err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}

	got, err := os.ReadFile(outFile.Name())
	if err != nil {
		return err
	}
	if !bytes.Equal(got, want.Bytes()) {
		return fmt.Errorf("%w: %s backend wrote %d bytes, reference %d, first difference at byte %d",
			errMismatch, ctx.Backend, len(got), want.Len(), firstDifference(got, want.Bytes()))
	}
	fmt.Fprintf(ctx.Err, "ok: %s backend matches the reference (%d bytes of output)\n", ctx.Backend, len(got))
	report(ctx, b, hits)
	return nil
}

func tempFile(pattern string, data []byte) (*os.File, error) {
	f, err := os.CreateTemp("", pattern)
	if err != nil {
		return nil, err
	}
	if _, err := f.Write(data); err != nil {
		removeTemp(f)
		return nil, err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		removeTemp(f)
		return nil, err
	}
	return f, nil
}

func removeTemp(f *os.File) {
	f.Close()
	os.Remove(f.Name())
}

func firstDifference(a, b []byte) int {
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return i
		}
	}
	return n
}

func cmdHelp(ctx *CommandContext) error {
	fmt.Fprintf(ctx.Out, `%s - optimizing JIT compiler for brainfuck

USAGE:
    beefit [flags] [command] [file]

COMMANDS:
    run <file>      Compile and run a program (default, stdin when no file)
    dump <file>     Print the optimized instruction listing
    check <file>    Compare the selected backend against the reference interpreter
    help            Show this help message
    version         Show version information

FLAGS:
    -v, -verbose        Debug logging and an instruction trace of the generated code
    -O0                 Skip the optimizer
    -backend <name>     auto, jit or interp (default: auto)
    -tape <cells>       Number of visible tape cells (default: %d)
    -dump-code <path>   Write the raw machine code to a file
    -stats              Print instruction counts and code size
    -profile            Count loop iterations
    -config <file>      Read settings from a YAML file

ENVIRONMENT:
    BEEFIT_TAPE_SIZE, BEEFIT_PADDING, BEEFIT_BACKEND, BEEFIT_VERBOSE,
    BEEFIT_NO_OPT, BEEFIT_DUMP

EXAMPLES:
    beefit hello.b
    echo 'some input' | beefit -stats rot13.b
    beefit dump mandelbrot.b
    objdump -D -b binary -mi386:x86-64 code.bin   # after -dump-code code.bin
`, versionString, tape.DefaultSize)
	return nil
}
