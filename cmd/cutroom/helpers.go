package main

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
)

func formatSeconds(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	whole := int(seconds)
	minutes := whole / 60
	rem := seconds - float64(minutes*60)
	if minutes > 0 {
		return fmt.Sprintf("%dm%04.1fs", minutes, rem)
	}
	return fmt.Sprintf("%.1fs", rem)
}

func formatRange(start, end float64) string {
	return fmt.Sprintf("%s - %s", formatSeconds(start), formatSeconds(end))
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// isTerminal reports whether w is an interactive terminal, which decides
// between carriage-return progress updates and plain log lines.
func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
