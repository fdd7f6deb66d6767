package scanner

import (
	"fmt"
	"os"

	"github.com/Spl0itable/wordfence-cli/pkg/types"
)

// Logger is the ambient logging collaborator, generalized from the
// teacher's pkg/scanner.DebugLogger single-method interface into a single
// method taking a level, so the event loop can re-emit a LOG_MESSAGE event
// at its original severity (spec.md §4.H).
type Logger interface {
	Log(level types.LogLevel, format string, args ...interface{})
}

// NoopLogger discards everything, mirroring the teacher's NoopLogger.
type NoopLogger struct{}

func (NoopLogger) Log(types.LogLevel, string, ...interface{}) {}

// StdLogger writes level-prefixed lines to os.Stderr. It is the default
// used by the CLI collaborator.
type StdLogger struct{}

func (StdLogger) Log(level types.LogLevel, format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "[%s] %s\n", level, fmt.Sprintf(format, args...))
}
