package report

import (
	"os"

	"github.com/mattn/go-isatty"
)

// ANSI escape codes.
const (
	reset   = "\033[0m"
	red     = "\033[91m"
	green   = "\033[92m"
	yellow  = "\033[93m"
	blue    = "\033[94m"
	magenta = "\033[95m"
	cyan    = "\033[96m"
	white   = "\033[97m"
)

// StdoutIsTerminal reports whether stdout is an interactive terminal. Color
// output is auto-disabled when it is not.
func StdoutIsTerminal() bool {
	fd := os.Stdout.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func colorize(style, text string, enabled bool) string {
	if !enabled {
		return text
	}
	return style + text + reset
}
