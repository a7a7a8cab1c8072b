package ui

import (
	"os"

	"golang.org/x/term"
)

// ColorEnabled reports whether ANSI styling should be written to f.
func ColorEnabled(f *os.File) bool {
	if f == nil {
		return false
	}
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if os.Getenv("TERM") == "dumb" {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}
