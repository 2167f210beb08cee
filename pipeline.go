// Completion: 100% - Module complete
package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/xyproto/beefit/internal/ir"
)

// pipeline.go - explicit stages of a run with validated transitions

// Stage is a step of turning source into a finished run
type Stage int

const (
	StageInit Stage = iota
	StageParse
	StageOptimize
	StageGenerate
	StageLoad
	StageRun
	StageComplete
)

func (s Stage) String() string {
	switch s {
	case StageInit:
		return "Initialization"
	case StageParse:
		return "Parsing"
	case StageOptimize:
		return "Optimization"
	case StageGenerate:
		return "Code Generation"
	case StageLoad:
		return "Loading"
	case StageRun:
		return "Execution"
	case StageComplete:
		return "Complete"
	default:
		return fmt.Sprintf("Unknown Stage %d", s)
	}
}

// next lists the legal successors of each stage. -O0 skips optimization,
// the interpreter backend skips loading and dump stops before running.
var next = map[Stage][]Stage{
	StageInit:     {StageParse},
	StageParse:    {StageOptimize, StageGenerate, StageRun, StageComplete},
	StageOptimize: {StageGenerate, StageRun, StageComplete},
	StageGenerate: {StageLoad, StageRun, StageComplete},
	StageLoad:     {StageRun},
	StageRun:      {StageComplete},
}

// Pipeline tracks the current stage and validates state transitions
type Pipeline struct {
	current Stage
	stages  []Stage
	log     *slog.Logger
	last    time.Time
}

func NewPipeline(log *slog.Logger) *Pipeline {
	return &Pipeline{
		current: StageInit,
		stages:  []Stage{StageInit},
		log:     log,
		last:    time.Now(),
	}
}

// AdvanceTo moves to stage. An illegal transition is a bug in the caller and
// panics with an internal error.
func (p *Pipeline) AdvanceTo(stage Stage) {
	legal := false
	for _, s := range next[p.current] {
		if s == stage {
			legal = true
			break
		}
	}
	if !legal {
		panic(ir.Internalf("invalid stage transition: %s -> %s (history %v)", p.current, stage, p.stages))
	}
	now := time.Now()
	p.log.Debug("stage", "from", p.current.String(), "to", stage.String(), "took", now.Sub(p.last))
	p.last = now
	p.current = stage
	p.stages = append(p.stages, stage)
}

func (p *Pipeline) Current() Stage {
	return p.current
}

// History returns every stage visited so far, in order
func (p *Pipeline) History() []Stage {
	return p.stages
}
