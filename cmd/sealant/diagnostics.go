package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"sealant/internal/diag"
)

var (
	sevInfoColor    = color.New(color.FgCyan)
	sevWarningColor = color.New(color.FgYellow, color.Bold)
	sevErrorColor   = color.New(color.FgRed, color.Bold)
	sevFatalColor   = color.New(color.FgRed, color.Bold, color.BgBlack)
)

func severityColor(sev diag.Severity) *color.Color {
	switch sev {
	case diag.SevWarning:
		return sevWarningColor
	case diag.SevError:
		return sevErrorColor
	case diag.SevFatal:
		return sevFatalColor
	}
	return sevInfoColor
}

// printDiagnostics renders a sorted bag, one diagnostic per line with
// indented notes. Expects bag.Sort() to have run.
func printDiagnostics(out io.Writer, bag *diag.Bag) {
	if out == nil || bag == nil {
		return
	}
	for _, d := range bag.Items() {
		sev := severityColor(d.Severity).Sprint(d.Severity.String())
		fmt.Fprintf(out, "%s[%s] %s: %s\n", sev, d.Code, d.Primary, d.Message)
		for _, note := range d.Notes {
			fmt.Fprintf(out, "  note: %s: %s\n", note.Ref, note.Msg)
		}
	}
}
