// Completion: 100% - Error handling complete, clear and helpful messages
package ir

import (
	"fmt"
	"strings"
)

// ErrorLevel indicates the severity of an error
type ErrorLevel int

const (
	LevelWarning ErrorLevel = iota
	LevelError
	LevelFatal
)

func (l ErrorLevel) String() string {
	switch l {
	case LevelWarning:
		return "warning"
	case LevelError:
		return "error"
	case LevelFatal:
		return "fatal error"
	default:
		return "unknown"
	}
}

// ErrorCategory classifies the type of error
type ErrorCategory int

const (
	CategorySyntax ErrorCategory = iota
	CategoryResource
	CategoryCodegen
	CategoryInternal
)

func (c ErrorCategory) String() string {
	switch c {
	case CategorySyntax:
		return "syntax"
	case CategoryResource:
		return "resource"
	case CategoryCodegen:
		return "codegen"
	case CategoryInternal:
		return "internal"
	default:
		return "unknown"
	}
}

// SourceLocation represents a position in source code
type SourceLocation struct {
	File   string
	Line   int
	Column int
	Offset int // byte offset in the input
}

func (loc SourceLocation) String() string {
	if loc.Line == 0 {
		return loc.File
	}
	if loc.File == "" {
		return fmt.Sprintf("%d:%d", loc.Line, loc.Column)
	}
	return fmt.Sprintf("%s:%d:%d", loc.File, loc.Line, loc.Column)
}

// CompilerError represents a single compilation error
type CompilerError struct {
	Level    ErrorLevel
	Category ErrorCategory
	Message  string
	Location SourceLocation
	Source   string // the offending source line, if known
	Err      error  // underlying cause
}

// Error implements the error interface
func (e *CompilerError) Error() string {
	var sb strings.Builder
	if loc := e.Location.String(); loc != "" {
		sb.WriteString(loc)
		sb.WriteString(": ")
	}
	sb.WriteString(e.Category.String())
	sb.WriteString(" error: ")
	sb.WriteString(e.Message)
	if e.Err != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Err.Error())
	}
	return sb.String()
}

func (e *CompilerError) Unwrap() error {
	return e.Err
}

// Format returns a nicely formatted error message with context
func (e *CompilerError) Format(useColor bool) string {
	var sb strings.Builder

	if useColor {
		sb.WriteString("\033[1;31m") // Bold red
	}
	sb.WriteString(e.Level.String())
	sb.WriteString(": ")
	if useColor {
		sb.WriteString("\033[0m")
	}
	sb.WriteString(e.Message)
	if e.Err != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Err.Error())
	}
	sb.WriteString("\n")

	if loc := e.Location.String(); loc != "" {
		if useColor {
			sb.WriteString("\033[1;34m") // Bold blue
		}
		sb.WriteString("  --> ")
		sb.WriteString(loc)
		if useColor {
			sb.WriteString("\033[0m")
		}
		sb.WriteString("\n")
	}

	if e.Source != "" && e.Location.Line > 0 {
		lineNum := fmt.Sprintf("%d", e.Location.Line)
		padding := strings.Repeat(" ", len(lineNum)+1)

		sb.WriteString(padding)
		sb.WriteString("|\n")
		sb.WriteString(lineNum)
		sb.WriteString(" | ")
		sb.WriteString(e.Source)
		sb.WriteString("\n")
		sb.WriteString(padding)
		sb.WriteString("| ")
		if e.Location.Column > 0 {
			sb.WriteString(strings.Repeat(" ", e.Location.Column-1))
			if useColor {
				sb.WriteString("\033[1;31m")
			}
			sb.WriteString("^")
			if useColor {
				sb.WriteString("\033[0m")
			}
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

// Internalf builds a fatal internal error. These indicate a bug in the
// optimizer or code generator, never bad input.
func Internalf(format string, args ...any) *CompilerError {
	return &CompilerError{
		Level:    LevelFatal,
		Category: CategoryInternal,
		Message:  fmt.Sprintf(format, args...),
	}
}
