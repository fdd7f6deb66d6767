// Package banner prints the CLI's short startup banner. It is purely
// cosmetic, grounded on the teacher's cmd/titus/report.go styles/newStyles
// pattern: a small set of fatih/color formatters, disabled automatically
// when the output isn't a terminal (or NO_COLOR is set).
package banner

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"golang.org/x/term"
)

// styles holds the color formatters used by Print.
type styles struct {
	title   *color.Color
	version *color.Color
	tagline *color.Color
}

// newStyles creates color formatters. enabled=false disables color on all
// of them, matching the teacher's --no-color / NO_COLOR handling.
func newStyles(enabled bool) *styles {
	s := &styles{
		title:   color.New(color.Bold, color.FgHiGreen),
		version: color.New(color.FgHiBlack),
		tagline: color.New(color.FgHiWhite),
	}
	if !enabled {
		s.title.DisableColor()
		s.version.DisableColor()
		s.tagline.DisableColor()
	}
	return s
}

// colorEnabled reports whether w is a terminal and NO_COLOR is unset,
// mirroring the teacher's "auto" color mode.
func colorEnabled(w io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

// Print writes a short banner naming the program and version to w, in
// color only when w is a terminal and NO_COLOR is unset. The CLI skips it
// entirely under --quiet, since it carries no information beyond cosmetics.
func Print(w io.Writer, version string) {
	s := newStyles(colorEnabled(w))
	s.title.Fprint(w, "malscan")
	s.version.Fprintf(w, " v%s\n", version)
	s.tagline.Fprintln(w, "parallel filesystem malware-signature scanner")
}
