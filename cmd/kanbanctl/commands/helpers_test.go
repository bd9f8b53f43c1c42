package commands

import (
	"io"

	"github.com/fatih/color"

	"github.com/listenupapp/kanban-server/internal/printer"
)

func printerOut() (io.Writer, io.Writer, bool) {
	return printer.Out, printer.ErrOut, color.NoColor
}

func setPrinter(out, errOut io.Writer) {
	printer.Out, printer.ErrOut = out, errOut
}

func restorePrinter(out, errOut io.Writer, noColor bool) {
	printer.Out, printer.ErrOut, color.NoColor = out, errOut, noColor
}
