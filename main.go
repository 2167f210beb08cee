// Completion: 100% - CLI interface complete, all flags working
package main

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/tebeka/atexit"
	"github.com/xyproto/env/v2"

	"github.com/xyproto/beefit/internal/ir"
)

// An optimizing JIT compiler for brainfuck, for x86-64 Linux

const versionString = "beefit 1.0.0"

// newLogger returns a text logger on stderr, at debug level when verbose
func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// useColor reports whether diagnostics on stderr may use ANSI colors
func useColor() bool {
	if env.Has("NO_COLOR") || env.Str("TERM") == "dumb" {
		return false
	}
	fi, err := os.Stderr.Stat()
	return err == nil && fi.Mode()&os.ModeCharDevice != 0
}

// run executes the CLI and turns internal error panics into errors
func run(ctx *CommandContext) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if ce, ok := r.(*ir.CompilerError); ok {
				err = ce
				return
			}
			panic(r)
		}
	}()
	return RunCLI(ctx)
}

// exitCode prints err and returns the process exit status: 1 for bad input
// or a failed check, 2 for internal errors
func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var ce *ir.CompilerError
	if errors.As(err, &ce) {
		fmt.Fprint(os.Stderr, ce.Format(useColor()))
		if ce.Category == ir.CategoryInternal {
			return 2
		}
		return 1
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	return 1
}

func main() {
	cfg := DefaultConfig()

	// NOTE: Go's flag package stops parsing at the first non-flag argument,
	// so flags must come BEFORE the command and the filename
	var verbose = flag.Bool("v", false, "verbose mode (debug logging and a trace of the generated code)")
	var verboseLong = flag.Bool("verbose", false, "verbose mode (debug logging and a trace of the generated code)")
	var noOpt = flag.Bool("O0", false, "skip the optimizer")
	var backend = flag.String("backend", cfg.Backend, "execution backend (auto, jit, interp)")
	var tapeSize = flag.Int("tape", cfg.TapeSize, "number of visible tape cells")
	var dumpCode = flag.String("dump-code", "", "write the raw machine code to this file")
	var stats = flag.Bool("stats", false, "print instruction counts and code size")
	var profile = flag.Bool("profile", false, "count loop iterations")
	var configFile = flag.String("config", "", "YAML file with settings")
	var versionShort = flag.Bool("V", false, "print version information and exit")
	var version = flag.Bool("version", false, "print version information and exit")
	flag.Parse()

	if *version || *versionShort {
		fmt.Println(versionString)
		atexit.Exit(0)
	}

	if *configFile != "" {
		if err := cfg.LoadConfigFile(*configFile); err != nil {
			atexit.Fatalf("error: %v", err)
		}
	}
	cfg.ApplyEnv()

	// Only flags given on the command line override the file and environment
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "v", "verbose":
			cfg.Verbose = *verbose || *verboseLong
		case "O0":
			cfg.NoOpt = *noOpt
		case "backend":
			cfg.Backend = *backend
		case "tape":
			cfg.TapeSize = *tapeSize
		case "dump-code":
			cfg.DumpCode = *dumpCode
		case "stats":
			cfg.Stats = *stats
		case "profile":
			cfg.Profile = *profile
		}
	})

	logger := newLogger(cfg.Verbose)
	slog.SetDefault(logger)

	resolved, err := cfg.Validate()
	if err != nil {
		atexit.Fatalf("error: %v", err)
	}
	logger.Debug("configuration", "backend", resolved.String(), "tape", cfg.TapeSize,
		"padding", cfg.Padding, "optimize", !cfg.NoOpt)

	ctx := &CommandContext{
		Args:    flag.Args(),
		Config:  cfg,
		Backend: resolved,
		Log:     logger,
		In:      os.Stdin,
		Out:     os.Stdout,
		Err:     os.Stderr,
		OnExit:  func(f func()) { atexit.Register(f) },
	}
	atexit.Exit(exitCode(run(ctx)))
}
