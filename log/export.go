package log

import (
	"os"
	"time"
)

var (
	std  ContextLogger = NewFactory(Formatter{BaseTime: time.Now()}, os.Stderr).Logger()
	exit               = os.Exit
)

// SetStdLogger replaces the logger behind Fatal.
func SetStdLogger(logger ContextLogger) {
	std = logger
}

// Fatal reports an unrecoverable command error and exits with status 1.
func Fatal(args ...any) {
	std.Fatal(args...)
}
