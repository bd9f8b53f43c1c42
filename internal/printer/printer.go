// Package printer formats operator CLI output.
package printer

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
)

var (
	// Out and ErrOut are where messages go. Tests swap them for buffers.
	Out    io.Writer = color.Output
	ErrOut io.Writer = color.Error

	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
	red    = color.New(color.FgRed, color.Bold)
	cyan   = color.New(color.FgCyan)
	faint  = color.New(color.Faint)
)

func init() {
	if os.Getenv("NO_COLOR") != "" {
		color.NoColor = true
	}
}

// Success prints a message in green with a checkmark prefix.
func Success(format string, a ...any) {
	msg := fmt.Sprintf(format, a...)
	if !strings.HasPrefix(msg, "✓") {
		msg = "✓ " + msg
	}
	green.Fprint(Out, msg)
}

// Info prints a plain message.
func Info(format string, a ...any) {
	fmt.Fprintf(Out, format, a...)
}

// Warning prints a message in yellow.
func Warning(format string, a ...any) {
	yellow.Fprintf(Out, "! %s", fmt.Sprintf(format, a...))
}

// Step prints one step of a multi-step operation.
func Step(format string, a ...any) {
	cyan.Fprintf(Out, "→ %s", fmt.Sprintf(format, a...))
}

// Detail prints secondary information, dimmed.
func Detail(format string, a ...any) {
	faint.Fprintf(Out, format, a...)
}

// Error prints a title, an explanation and optional suggestions to ErrOut and
// returns an error carrying the title for cobra, which is configured not to
// print it again.
func Error(title, explanation string, suggestions ...string) error {
	red.Fprintf(ErrOut, "%s\n", title)
	if explanation != "" {
		fmt.Fprintf(ErrOut, "\n%s\n", explanation)
	}

	switch len(suggestions) {
	case 0:
	case 1:
		fmt.Fprintf(ErrOut, "\n%s\n", suggestions[0])
	default:
		fmt.Fprintf(ErrOut, "\nEither:\n")
		for i, s := range suggestions {
			fmt.Fprintf(ErrOut, "  %d. %s\n", i+1, s)
		}
	}

	return fmt.Errorf("%s", title)
}
