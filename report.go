// Completion: 100% - Reporting complete
package main

import (
	"fmt"
	"io"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/xyproto/beefit/internal/interp"
	"github.com/xyproto/beefit/internal/ir"
	"github.com/xyproto/beefit/internal/opt"
)

// statsLine is the one line summary printed by -stats
func statsLine(res opt.Result, codeSize int) string {
	return fmt.Sprintf("ins:%d opt:%d x86:%dB", res.RawSize, res.OptSize, codeSize)
}

// writeStats prints the summary line followed by a table of the passes that
// changed the program
func writeStats(w io.Writer, res opt.Result, codeSize int) {
	fmt.Fprintln(w, statsLine(res, codeSize))
	if len(res.Changes) == 0 {
		return
	}
	names := make([]string, 0, len(res.Changes))
	for name := range res.Changes {
		names = append(names, name)
	}
	sort.Strings(names)

	t := table.NewWriter()
	t.SetTitle(fmt.Sprintf("Optimizer (%d rounds)", res.Rounds))
	t.AppendHeader(table.Row{"Pass", "Rounds changed"})
	for _, name := range names {
		t.AppendRow(table.Row{name, res.Changes[name]})
	}
	fmt.Fprintln(w, t.Render())
}

// writeProfile prints the loop iteration counts, hottest loop first
func writeProfile(w io.Writer, p *ir.Program, hits []interp.LoopHit) {
	sorted := append([]interp.LoopHit(nil), hits...)
	sort.SliceStable(sorted, func(a, b int) bool { return sorted[a].Hits > sorted[b].Hits })

	t := table.NewWriter()
	t.SetTitle("Loop profile")
	t.AppendHeader(table.Row{"#", "Instruction", "Loop", "Iterations"})
	var total uint64
	for _, h := range sorted {
		t.AppendRow(table.Row{h.Index, p.At(h.Index).String(), loopSummary(p, h.Index), h.Hits})
		total += h.Hits
	}
	t.AppendFooter(table.Row{"", "", "total", total})
	fmt.Fprintln(w, t.Render())
}

// loopSummary renders the first few body instructions of the loop at i
func loopSummary(p *ir.Program, i int) string {
	const maxBody = 4
	end := p.Match(i)
	s := ""
	n := 0
	for j := i + 1; j < end && n < maxBody; j++ {
		in := p.At(j)
		if in.Op == ir.Nop {
			continue
		}
		if n > 0 {
			s += "; "
		}
		s += in.String()
		n++
	}
	if end-i-1 > n {
		s += "; ..."
	}
	return s
}
