package changelock

import "github.com/git-hulk/go-changelock/internal"

// Logger is the logging interface used by the package.
type Logger interface {
	Printf(format string, v ...interface{})
}

// SetLogger replaces the package logger, nil discards all output.
func SetLogger(l Logger) {
	internal.SetLogger(l)
}
