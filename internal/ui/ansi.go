package ui

import (
	"fmt"
	"io"
	"os"

	"github.com/muesli/termenv"
)

var (
	reset = "\033[0m"
	bold  = "\033[1m"
	dim   = "\033[2m"

	fgGray   = "\033[90m"
	fgGreen  = "\033[32m"
	fgYellow = "\033[33m"
	fgBlue   = "\033[34m"
	fgRed    = "\033[31m"

	symCheck = "✔"
	symCross = "✖"
	symWarn  = "!"
)

var (
	forceColor   bool
	disableColor bool

	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)

func SetColorForcing(force, disable bool) {
	forceColor = force
	disableColor = disable
}

// SetOutput redirects OK/Info/Panel and Fail/Warn output. Nil keeps the
// current writer.
func SetOutput(out, errOut io.Writer) {
	if out != nil {
		stdout = out
	}
	if errOut != nil {
		stderr = errOut
	}
}

// Dim is the faint SGR code, for index columns.
func Dim() string { return dim }

// colorEnabled asks termenv whether stdout can show colors. It honors
// NO_COLOR, CLICOLOR_FORCE and non-TTY writers.
func colorEnabled() bool {
	return termenv.NewOutput(stdout).EnvColorProfile() != termenv.Ascii
}

func C(color, s string) string {
	if disableColor || color == "" {
		return s
	}
	if forceColor || colorEnabled() {
		return color + s + reset
	}
	return s
}

func OK(msg string)   { fmt.Fprintln(stdout, C(current.Success, current.SymDone+" "+msg)) }
func Info(msg string) { fmt.Fprintln(stdout, C(current.Accent, current.SymInfo+" "+msg)) }
func Warn(msg string) { fmt.Fprintln(stderr, C(current.Pending, symWarn+" "+msg)) }
func Fail(msg string) { fmt.Fprintln(stderr, C(current.Error, symCross+" "+msg)) }
