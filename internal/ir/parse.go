// Completion: 100% - Source ingestion complete
package ir

import (
	"bytes"
	"fmt"
	"io"
)

// Parse reads a program from r. name is only used for error locations.
func Parse(r io.Reader, name string) (*Program, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, &CompilerError{
			Level:    LevelFatal,
			Category: CategoryResource,
			Message:  "could not read program",
			Location: SourceLocation{File: name},
			Err:      err,
		}
	}
	return ParseBytes(src, name)
}

// ParseBytes translates the eight command characters of src into a raw
// Program. All other bytes are comments. A ']' without a matching '[' and a
// '[' that is never closed are both syntax errors.
func ParseBytes(src []byte, name string) (*Program, error) {
	instrs := make([]Instr, 0, len(src))
	var open []SourceLocation
	line, col := 1, 0
	for i, c := range src {
		col++
		switch c {
		case '\n':
			line++
			col = 0
		case '+':
			instrs = append(instrs, MakeAdd(0, 1))
		case '-':
			instrs = append(instrs, MakeAdd(0, -1))
		case '>':
			instrs = append(instrs, MakeShift(1))
		case '<':
			instrs = append(instrs, MakeShift(-1))
		case '.':
			instrs = append(instrs, MakePrint(0))
		case ',':
			instrs = append(instrs, MakeRead(0))
		case '[':
			open = append(open, SourceLocation{File: name, Line: line, Column: col, Offset: i})
			instrs = append(instrs, Instr{Op: LoopEnter})
		case ']':
			if len(open) == 0 {
				loc := SourceLocation{File: name, Line: line, Column: col, Offset: i}
				return nil, syntaxError(src, loc, "unmatched ']'")
			}
			open = open[:len(open)-1]
			instrs = append(instrs, Instr{Op: LoopExit})
		}
	}
	if len(open) > 0 {
		loc := open[len(open)-1]
		return nil, syntaxError(src, loc, fmt.Sprintf("unterminated '[' (%d left open)", len(open)))
	}
	return NewProgram(instrs), nil
}

func syntaxError(src []byte, loc SourceLocation, msg string) *CompilerError {
	return &CompilerError{
		Level:    LevelError,
		Category: CategorySyntax,
		Message:  msg,
		Location: loc,
		Source:   sourceLine(src, loc.Offset),
	}
}

// sourceLine returns the line of src containing offset, without the newline
func sourceLine(src []byte, offset int) string {
	start := bytes.LastIndexByte(src[:offset], '\n') + 1
	end := bytes.IndexByte(src[offset:], '\n')
	if end < 0 {
		end = len(src)
	} else {
		end += offset
	}
	line := src[start:end]
	const maxLine = 120
	if len(line) > maxLine {
		line = line[:maxLine]
	}
	return string(bytes.TrimRight(line, "\r"))
}
