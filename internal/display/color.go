// Package display styles terminal output.
//
// Colors follow NO_COLOR (https://no-color.org/) and are disabled when
// stdout is not a terminal. FORCE_COLOR turns them back on.
package display

import (
	"os"

	"github.com/mattn/go-isatty"
)

// ANSI escape codes for styling.
const (
	reset  = "\033[0m"
	bold   = "\033[1m"
	dim    = "\033[2m"
	red    = "\033[31m"
	green  = "\033[32m"
	yellow = "\033[33m"
	cyan   = "\033[36m"
	fgGray = "\033[90m" // bright black = gray
)

// Theme carries the color decision down to everything that renders.
type Theme struct {
	Color bool
}

// Plain is a Theme that never emits escape codes.
var Plain = Theme{}

// DetectTheme picks colors for stdout. noColor is the --no-color flag.
func DetectTheme(noColor bool) Theme {
	if noColor {
		return Plain
	}
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return Plain
	}
	if _, ok := os.LookupEnv("FORCE_COLOR"); ok {
		return Theme{Color: true}
	}
	fd := os.Stdout.Fd()
	return Theme{Color: isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)}
}

func (th Theme) wrap(code, text string) string {
	if !th.Color {
		return text
	}
	return code + text + reset
}

// Bold returns text rendered in bold.
func (th Theme) Bold(text string) string { return th.wrap(bold, text) }

// Dim returns text rendered faint.
func (th Theme) Dim(text string) string { return th.wrap(dim, text) }

// Red returns text rendered in red.
func (th Theme) Red(text string) string { return th.wrap(red, text) }

// Green returns text rendered in green.
func (th Theme) Green(text string) string { return th.wrap(green, text) }

// Yellow returns text rendered in yellow.
func (th Theme) Yellow(text string) string { return th.wrap(yellow, text) }

// Cyan returns text rendered in cyan.
func (th Theme) Cyan(text string) string { return th.wrap(cyan, text) }

// Gray returns text rendered in gray.
func (th Theme) Gray(text string) string { return th.wrap(fgGray, text) }

// Accent highlights the next prayer (cyan + bold).
func (th Theme) Accent(text string) string { return th.wrap(bold+cyan, text) }

