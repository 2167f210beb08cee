package ir

import (
	"fmt"
	"io"
	"strings"
)

// Fprint writes the program in an indented, bracketed form with resolved
// offsets. Loops flagged as known non-zero on entry are marked with '!'.
func Fprint(w io.Writer, p *Program) error {
	indent := 0
	for _, in := range p.Instrs() {
		if in.Op == Nop {
			continue
		}
		if in.Op == LoopExit && indent > 0 {
			indent -= 2
		}
		if _, err := fmt.Fprintf(w, "%*s%s\n", indent, "", in); err != nil {
			return err
		}
		if in.Op == LoopEnter {
			indent += 2
		}
	}
	return nil
}

// Sprint is Fprint into a string
func Sprint(p *Program) string {
	var sb strings.Builder
	Fprint(&sb, p)
	return sb.String()
}
